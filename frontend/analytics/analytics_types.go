package analytics

type WaitRow struct {
	Time        string
	Wait        string
	QueueLength int
	// BarPercent scales the row against the longest wait in the series.
	BarPercent int
}

type OfficerRow struct {
	Name               string
	CustomersServed    int
	AverageServiceTime string
	Efficiency         int
}

type BreakdownRow struct {
	Service string
	Count   int
	Percent int
}

type Dashboard struct {
	AverageWait     string
	TotalCustomers  int
	Completed       int
	ServiceRate     int
	PeakHour        string
	BusiestService  string
	TopPerformer    string
	Efficiency      int

	WaitTimes []WaitRow
	Officers  []OfficerRow
	Breakdown []BreakdownRow

	// Sample marks sections rendered from the built-in sample series because
	// the backend could not be reached.
	SampleMetrics  bool
	SampleWait     bool
	SampleOfficers bool

	Updated string
	Error   string
}
