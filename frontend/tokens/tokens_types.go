package tokens

// TokenView holds the display values for one token, derived from the visitor
// store on every request.
type TokenView struct {
	Token            string   `json:"token"`
	ShortToken       string   `json:"shortToken"`
	Name             string   `json:"name,omitempty"`
	Service          string   `json:"service"`
	Status           string   `json:"status,omitempty"`
	Position         int      `json:"position"`
	Wait             string   `json:"estimatedWait"`
	Progress         int      `json:"progressPercent"`
	CurrentlyServing string   `json:"currentlyServing,omitempty"`
	TotalInQueue     int      `json:"totalInQueue"`
	NextInLine       []string `json:"nextInLine"`
	BeingServed      bool     `json:"beingServed"`
	Updated          string   `json:"updated"`
	Loading          bool     `json:"loading"`
	Error            string   `json:"error,omitempty"`
}

// qrPayload is what the ticket QR code encodes.
type qrPayload struct {
	TokenNumber string `json:"tokenNumber"`
	Name        string `json:"name,omitempty"`
	ServiceType string `json:"serviceType,omitempty"`
	Timestamp   string `json:"timestamp,omitempty"`
}
