package board

// Entry is one tile in the "Next in Line" grid.
type Entry struct {
	Token      string `json:"token"`
	ShortToken string `json:"shortToken"`
	Service    string `json:"service,omitempty"`
	Position   int    `json:"position"`
}

// View is the board snapshot shared by the HTML page and the JSON endpoint.
type View struct {
	OutletID         string  `json:"outletId"`
	Clock            string  `json:"clock"`
	CurrentlyServing string  `json:"currentlyServing"`
	TotalWaiting     int     `json:"totalWaiting"`
	AverageWait      string  `json:"averageWait"`
	Next             []Entry `json:"next"`
	Updated          string  `json:"updated"`
	Loading          bool    `json:"loading"`
	Error            string  `json:"error,omitempty"`
}
