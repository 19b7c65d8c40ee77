package queueapi

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"queueboard/models"
)

// flexString accepts JSON strings and numbers. Identifiers have been sent as
// both over the backend's lifetime.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		// Objects and arrays are not identifiers; treat them as absent.
		*f = ""
		return nil
	}
	*f = flexString(n.String())
	return nil
}

// flexNumber accepts numbers, numeric strings and null.
type flexNumber float64

func (f *flexNumber) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = 0
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			*f = 0
			return nil
		}
		*f = flexNumber(v)
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		*f = 0
		return nil
	}
	*f = flexNumber(v)
	return nil
}

type wireCustomer struct {
	ID                flexString `json:"id"`
	Name              string     `json:"name"`
	CustomerName      string     `json:"customerName"`
	PhoneNumber       string     `json:"phoneNumber"`
	Phone             string     `json:"phone"`
	TelephoneNumber   string     `json:"telephoneNumber"`
	Email             string     `json:"email"`
	NICPassport       string     `json:"nicPassport"`
	ServiceType       string     `json:"serviceType"`
	OutletID          flexString `json:"outletId"`
	TokenNumber       string     `json:"tokenNumber"`
	Token             string     `json:"token"`
	QueuePosition     flexNumber `json:"queuePosition"`
	EstimatedWaitTime flexNumber `json:"estimatedWaitTime"`
	Status            string     `json:"status"`
	CreatedAt         string     `json:"createdAt"`
	ExistingToken     string     `json:"existingToken"`
}

func (w wireCustomer) existingToken() string {
	return strings.TrimSpace(w.ExistingToken)
}

func (w wireCustomer) token() string {
	for _, candidate := range []string{w.TokenNumber, w.Token, string(w.ID)} {
		if v := strings.TrimSpace(candidate); v != "" {
			return v
		}
	}
	return ""
}

func (c *Client) customer(w wireCustomer) models.Customer {
	name := firstNonEmpty(w.Name, w.CustomerName)
	status := strings.TrimSpace(w.Status)
	if status == "" {
		status = models.StatusWaiting
	}
	position := int(w.QueuePosition)
	if position < 0 {
		position = 0
	}
	return models.Customer{
		ID:              string(w.ID),
		Name:            name,
		PhoneNumber:     firstNonEmpty(w.PhoneNumber, w.Phone),
		TelephoneNumber: w.TelephoneNumber,
		Email:           w.Email,
		NICPassport:     w.NICPassport,
		ServiceType:     w.ServiceType,
		OutletID:        string(w.OutletID),
		TokenNumber:     w.token(),
		QueuePosition:   position,
		EstimatedWait:   c.duration(float64(w.EstimatedWaitTime)),
		Status:          status,
		CreatedAt:       parseTime(w.CreatedAt),
	}
}

func (c *Client) customers(ws []wireCustomer) []models.Customer {
	out := make([]models.Customer, 0, len(ws))
	for _, w := range ws {
		out = append(out, c.customer(w))
	}
	return out
}

type wireQueueStatus struct {
	TokenID           flexString      `json:"tokenId"`
	Position          flexNumber      `json:"position"`
	EstimatedWaitTime flexNumber      `json:"estimatedWaitTime"`
	CurrentlyServing  json.RawMessage `json:"currentlyServing"`
	NextInLine        []flexString    `json:"nextInLine"`
	TotalInQueue      flexNumber      `json:"totalInQueue"`
}

func (c *Client) queueStatus(w wireQueueStatus) models.QueueStatus {
	next := make([]string, 0, len(w.NextInLine))
	for _, tok := range w.NextInLine {
		if v := strings.TrimSpace(string(tok)); v != "" {
			next = append(next, v)
		}
	}
	position := int(w.Position)
	if position < 0 {
		position = 0
	}
	return models.QueueStatus{
		TokenID:          string(w.TokenID),
		Position:         position,
		EstimatedWait:    c.duration(float64(w.EstimatedWaitTime)),
		CurrentlyServing: servingToken(w.CurrentlyServing),
		NextInLine:       next,
		TotalInQueue:     nonNegative(int(w.TotalInQueue)),
	}
}

type wireOutletQueue struct {
	OutletID         flexString        `json:"outletId"`
	CurrentlyServing json.RawMessage   `json:"currentlyServing"`
	NextTokens       []json.RawMessage `json:"nextTokens"`
	TotalWaiting     flexNumber        `json:"totalWaiting"`
	AverageWaitTime  flexNumber        `json:"averageWaitTime"`
}

func (c *Client) outletQueue(w wireOutletQueue) models.OutletQueue {
	entries := make([]models.QueueEntry, 0, len(w.NextTokens))
	for _, raw := range w.NextTokens {
		if entry, ok := c.queueEntry(raw); ok {
			entries = append(entries, entry)
		}
	}
	return models.OutletQueue{
		OutletID:         string(w.OutletID),
		CurrentlyServing: servingToken(w.CurrentlyServing),
		NextTokens:       entries,
		TotalWaiting:     nonNegative(int(w.TotalWaiting)),
		AverageWait:      c.duration(float64(w.AverageWaitTime)),
	}
}

// queueEntry decodes one nextTokens element. The backend has sent bare token
// strings, numeric tokens and embedded customer objects; all of them end up
// as a QueueEntry with Token set. Anything else is dropped.
func (c *Client) queueEntry(raw json.RawMessage) (models.QueueEntry, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return models.QueueEntry{}, false
	}
	switch raw[0] {
	case '"':
		var tok string
		if err := json.Unmarshal(raw, &tok); err != nil || strings.TrimSpace(tok) == "" {
			return models.QueueEntry{}, false
		}
		return models.QueueEntry{Token: strings.TrimSpace(tok)}, true
	case '{':
		var wc wireCustomer
		if err := json.Unmarshal(raw, &wc); err != nil {
			return models.QueueEntry{}, false
		}
		cust := c.customer(wc)
		if cust.TokenNumber == "" {
			return models.QueueEntry{}, false
		}
		return models.QueueEntry{Token: cust.TokenNumber, Customer: &cust}, true
	default:
		var n json.Number
		if err := json.Unmarshal(raw, &n); err != nil || n == "" {
			return models.QueueEntry{}, false
		}
		return models.QueueEntry{Token: n.String()}, true
	}
}

// servingToken accepts a token string or an embedded customer object.
func servingToken(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return models.NoTokenServing
	}
	if raw[0] == '{' {
		var wc wireCustomer
		if err := json.Unmarshal(raw, &wc); err == nil {
			if tok := wc.token(); tok != "" {
				return tok
			}
		}
		return models.NoTokenServing
	}
	var tok flexString
	if err := json.Unmarshal(raw, &tok); err != nil || strings.TrimSpace(string(tok)) == "" {
		return models.NoTokenServing
	}
	return strings.TrimSpace(string(tok))
}

type wireAnalytics struct {
	AverageWaitTime      flexNumber `json:"averageWaitTime"`
	TotalCustomersToday  flexNumber `json:"totalCustomersToday"`
	CompletedServices    flexNumber `json:"completedServices"`
	PeakHours            []struct {
		Hour  flexNumber `json:"hour"`
		Count flexNumber `json:"count"`
	} `json:"peakHours"`
	ServiceTypeBreakdown []struct {
		Type  string     `json:"type"`
		Name  string     `json:"name"`
		Count flexNumber `json:"count"`
	} `json:"serviceTypeBreakdown"`
}

func (c *Client) analytics(w wireAnalytics) models.AnalyticsData {
	peaks := make([]models.PeakHour, 0, len(w.PeakHours))
	for _, p := range w.PeakHours {
		peaks = append(peaks, models.PeakHour{Hour: int(p.Hour), Count: nonNegative(int(p.Count))})
	}
	breakdown := make([]models.ServiceCount, 0, len(w.ServiceTypeBreakdown))
	for _, s := range w.ServiceTypeBreakdown {
		breakdown = append(breakdown, models.ServiceCount{Type: firstNonEmpty(s.Type, s.Name), Count: nonNegative(int(s.Count))})
	}
	return models.AnalyticsData{
		AverageWait:          c.duration(float64(w.AverageWaitTime)),
		TotalCustomersToday:  nonNegative(int(w.TotalCustomersToday)),
		CompletedServices:    nonNegative(int(w.CompletedServices)),
		PeakHours:            peaks,
		ServiceTypeBreakdown: breakdown,
	}
}

type wireServiceType struct {
	ID            flexString `json:"id"`
	Name          string     `json:"name"`
	EstimatedTime flexNumber `json:"estimatedTime"`
	Category      string     `json:"category"`
}

func serviceTypes(ws []wireServiceType) []models.ServiceType {
	out := make([]models.ServiceType, 0, len(ws))
	for _, w := range ws {
		if strings.TrimSpace(string(w.ID)) == "" {
			continue
		}
		out = append(out, models.ServiceType{
			ID:            string(w.ID),
			Name:          w.Name,
			EstimatedTime: nonNegative(int(w.EstimatedTime)),
			Category:      w.Category,
		})
	}
	return out
}

type wireWaitTime struct {
	Time        string     `json:"time"`
	WaitTime    flexNumber `json:"waitTime"`
	QueueLength flexNumber `json:"queueLength"`
}

func (c *Client) waitTimes(ws []wireWaitTime) []models.WaitTimeData {
	out := make([]models.WaitTimeData, 0, len(ws))
	for _, w := range ws {
		out = append(out, models.WaitTimeData{
			Time:        w.Time,
			WaitTime:    c.duration(float64(w.WaitTime)),
			QueueLength: nonNegative(int(w.QueueLength)),
		})
	}
	return out
}

type wireOfficerPerformance struct {
	OfficerID          flexString `json:"officerId"`
	Name               string     `json:"name"`
	CustomersServed    flexNumber `json:"customersServed"`
	AverageServiceTime flexNumber `json:"averageServiceTime"`
	Efficiency         flexNumber `json:"efficiency"`
}

func officerPerformance(ws []wireOfficerPerformance) []models.OfficerPerformance {
	out := make([]models.OfficerPerformance, 0, len(ws))
	for _, w := range ws {
		out = append(out, models.OfficerPerformance{
			OfficerID:          string(w.OfficerID),
			Name:               w.Name,
			CustomersServed:    nonNegative(int(w.CustomersServed)),
			AverageServiceTime: float64(w.AverageServiceTime),
			Efficiency:         float64(w.Efficiency),
		})
	}
	return out
}

func parseTime(raw string) time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02 15:04:05", "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t
		}
	}
	return time.Time{}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}

func nonNegative(v int) int {
	if v < 0 {
		return 0
	}
	return v
}
