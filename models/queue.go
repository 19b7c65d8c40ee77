package models

import "time"

// Customer statuses as reported by the queue backend.
const (
	StatusWaiting     = "waiting"
	StatusBeingServed = "being_served"
	StatusCompleted   = "completed"
	StatusCancelled   = "cancelled"
)

// NoTokenServing is shown when nobody is at a counter.
const NoTokenServing = "--"

// Customer is the cached, read-only copy of a registered customer.
type Customer struct {
	ID              string        `json:"id"`
	Name            string        `json:"name"`
	PhoneNumber     string        `json:"phoneNumber"`
	TelephoneNumber string        `json:"telephoneNumber,omitempty"`
	Email           string        `json:"email,omitempty"`
	NICPassport     string        `json:"nicPassport,omitempty"`
	ServiceType     string        `json:"serviceType"`
	OutletID        string        `json:"outletId,omitempty"`
	TokenNumber     string        `json:"tokenNumber"`
	QueuePosition   int           `json:"queuePosition"`
	EstimatedWait   time.Duration `json:"-"`
	Status          string        `json:"status"`
	CreatedAt       time.Time     `json:"createdAt"`
}

// QueueStatus is a per-token snapshot. It is replaced wholesale on refresh.
type QueueStatus struct {
	TokenID          string        `json:"tokenId"`
	Position         int           `json:"position"`
	EstimatedWait    time.Duration `json:"-"`
	CurrentlyServing string        `json:"currentlyServing"`
	NextInLine       []string      `json:"nextInLine"`
	TotalInQueue     int           `json:"totalInQueue"`
}

// QueueEntry is one waiting token on an outlet board. Customer is only set
// when the backend embedded the customer summary instead of a bare token.
type QueueEntry struct {
	Token    string    `json:"token"`
	Customer *Customer `json:"customer,omitempty"`
}

// OutletQueue is a per-outlet snapshot.
type OutletQueue struct {
	OutletID         string        `json:"outletId"`
	CurrentlyServing string        `json:"currentlyServing"`
	NextTokens       []QueueEntry  `json:"nextTokens"`
	TotalWaiting     int           `json:"totalWaiting"`
	AverageWait      time.Duration `json:"-"`
}

// EmptyOutletQueue is the safe snapshot shown when the backend cannot be reached.
func EmptyOutletQueue(outletID string) OutletQueue {
	return OutletQueue{
		OutletID:         outletID,
		CurrentlyServing: NoTokenServing,
		NextTokens:       []QueueEntry{},
	}
}

type PeakHour struct {
	Hour  int `json:"hour"`
	Count int `json:"count"`
}

type ServiceCount struct {
	Type  string `json:"type"`
	Count int    `json:"count"`
}

// AnalyticsData holds aggregate dashboard metrics.
type AnalyticsData struct {
	AverageWait          time.Duration  `json:"-"`
	TotalCustomersToday  int            `json:"totalCustomersToday"`
	CompletedServices    int            `json:"completedServices"`
	PeakHours            []PeakHour     `json:"peakHours"`
	ServiceTypeBreakdown []ServiceCount `json:"serviceTypeBreakdown"`
}

// ServiceType is a catalogue entry offered on the registration form.
type ServiceType struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	EstimatedTime int    `json:"estimatedTime"`
	Category      string `json:"category"`
}

// DefaultServiceTypes is used when the catalogue cannot be loaded.
func DefaultServiceTypes() []ServiceType {
	return []ServiceType{
		{ID: "1", Name: "New Connection", EstimatedTime: 15, Category: "Connection"},
		{ID: "2", Name: "Bill Payment", EstimatedTime: 5, Category: "Payment"},
		{ID: "3", Name: "Technical Support", EstimatedTime: 20, Category: "Support"},
		{ID: "4", Name: "Account Update", EstimatedTime: 10, Category: "Account"},
		{ID: "5", Name: "Package Change", EstimatedTime: 8, Category: "Service"},
	}
}

type WaitTimeData struct {
	Time        string        `json:"time"`
	WaitTime    time.Duration `json:"-"`
	QueueLength int           `json:"queueLength"`
}

type OfficerPerformance struct {
	OfficerID          string  `json:"officerId"`
	Name               string  `json:"name"`
	CustomersServed    int     `json:"customersServed"`
	AverageServiceTime float64 `json:"averageServiceTime"`
	Efficiency         float64 `json:"efficiency"`
}
