package analytics

import (
	"time"

	"queueboard/models"
)

// Sample series shown while the analytics backend is unreachable.

func sampleMetrics() models.AnalyticsData {
	return models.AnalyticsData{
		AverageWait:         12 * time.Minute,
		TotalCustomersToday: 156,
		CompletedServices:   142,
		PeakHours:           []models.PeakHour{},
		ServiceTypeBreakdown: []models.ServiceCount{
			{Type: "New Connection", Count: 45},
			{Type: "Bill Payment", Count: 38},
			{Type: "Technical Support", Count: 32},
			{Type: "Account Update", Count: 25},
			{Type: "Package Change", Count: 16},
		},
	}
}

func sampleWaitTimes() []models.WaitTimeData {
	rows := []struct {
		at      string
		minutes int
		length  int
	}{
		{"09:00", 8, 5},
		{"10:00", 12, 8},
		{"11:00", 15, 12},
		{"12:00", 18, 15},
		{"13:00", 14, 10},
		{"14:00", 10, 7},
		{"15:00", 16, 13},
		{"16:00", 20, 16},
	}
	out := make([]models.WaitTimeData, 0, len(rows))
	for _, r := range rows {
		out = append(out, models.WaitTimeData{Time: r.at, WaitTime: time.Duration(r.minutes) * time.Minute, QueueLength: r.length})
	}
	return out
}

func sampleOfficers() []models.OfficerPerformance {
	return []models.OfficerPerformance{
		{OfficerID: "1", Name: "Sarah M.", CustomersServed: 24, AverageServiceTime: 8.5, Efficiency: 95},
		{OfficerID: "2", Name: "John D.", CustomersServed: 21, AverageServiceTime: 9.2, Efficiency: 88},
		{OfficerID: "3", Name: "Lisa K.", CustomersServed: 18, AverageServiceTime: 10.1, Efficiency: 82},
		{OfficerID: "4", Name: "Mike R.", CustomersServed: 26, AverageServiceTime: 7.8, Efficiency: 98},
	}
}
