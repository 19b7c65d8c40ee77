package officer

import "queueboard/frontend/shared/nav"

// QueueRow is one customer line on the officer screens and in the CSV export.
type QueueRow struct {
	Token      string
	ShortToken string
	Customer   string
	Phone      string
	Service    string
	Wait       string
	Status     string
	// Resolved is false when the customer details could not be fetched.
	Resolved bool
}

type Filter struct {
	Label  string
	Href   string
	Active bool
}

type QueuePageData struct {
	Nav          nav.TopNavData
	Serving      *QueueRow
	Rows         []QueueRow
	Filters      []Filter
	TotalWaiting int
	Banner       string
	Flash        string
	CanUpdate    bool
	CanExport    bool
}

type ServiceTally struct {
	Service string
	Count   int
}

type Activity struct {
	When   string
	Action string
	Token  string
	Detail string
}

type DashboardData struct {
	Nav         nav.TopNavData
	Waiting     int
	AverageWait string
	ServedToday int
	Services    []ServiceTally
	Next        []QueueRow
	Recent      []Activity
	Banner      string
}
