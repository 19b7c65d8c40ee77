package queueapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"queueboard/models"
)

// RegistrationRequest is the body of POST /customer/register.
type RegistrationRequest struct {
	Name            string `json:"name"`
	PhoneNumber     string `json:"phoneNumber"`
	TelephoneNumber string `json:"telephoneNumber,omitempty"`
	Email           string `json:"email,omitempty"`
	NICPassport     string `json:"nicPassport,omitempty"`
	ServiceType     string `json:"serviceType"`
	OutletID        string `json:"outletId"`
}

func (c *Client) RegisterCustomer(ctx context.Context, req RegistrationRequest) (Envelope[models.Customer], error) {
	if strings.TrimSpace(req.OutletID) == "" {
		req.OutletID = c.outletID
	}
	return call(ctx, c, "register customer", http.MethodPost, "/customer/register", req, c.customer)
}

func (c *Client) GetCustomerStatus(ctx context.Context, tokenID string) (Envelope[models.Customer], error) {
	return call(ctx, c, "customer status", http.MethodGet, "/customer/status/"+url.PathEscape(tokenID), nil, c.customer)
}

// GetCustomerTokens lists the tokens issued to a phone number.
func (c *Client) GetCustomerTokens(ctx context.Context, phoneNumber string) (Envelope[[]models.Customer], error) {
	return call(ctx, c, "customer tokens", http.MethodGet, "/customer/tokens/"+url.PathEscape(phoneNumber), nil, c.customers)
}

func (c *Client) GetQueueStatus(ctx context.Context, tokenID string) (Envelope[models.QueueStatus], error) {
	env, err := call(ctx, c, "queue status", http.MethodGet, "/queue/status/"+url.PathEscape(tokenID), nil, c.queueStatus)
	if err == nil && env.OK() && env.Data.TokenID == "" {
		env.Data.TokenID = tokenID
	}
	return env, err
}

func (c *Client) GetOutletQueue(ctx context.Context, outletID string) (Envelope[models.OutletQueue], error) {
	env, err := call(ctx, c, "outlet queue", http.MethodGet, "/queue/outlet/"+url.PathEscape(outletID), nil, c.outletQueue)
	if err == nil && env.OK() && env.Data.OutletID == "" {
		env.Data.OutletID = outletID
	}
	return env, err
}

type statusUpdate struct {
	Status string `json:"status"`
}

// UpdateQueueStatus moves a token to another status. The backend answers with
// no data, so callers check Success only.
func (c *Client) UpdateQueueStatus(ctx context.Context, tokenID, status string) (Envelope[struct{}], error) {
	return call(ctx, c, "update queue status", http.MethodPut, "/queue/update/"+url.PathEscape(tokenID), statusUpdate{Status: status},
		func(json.RawMessage) struct{} { return struct{}{} })
}

// GetAnalytics loads dashboard metrics, scoped to an outlet when outletID is set.
func (c *Client) GetAnalytics(ctx context.Context, outletID string) (Envelope[models.AnalyticsData], error) {
	path := "/analytics/dashboard"
	if outletID != "" {
		path += "?" + url.Values{"outletId": {outletID}}.Encode()
	}
	return call(ctx, c, "analytics", http.MethodGet, path, nil, c.analytics)
}

func (c *Client) GetWaitTimes(ctx context.Context, period string) (Envelope[[]models.WaitTimeData], error) {
	if period == "" {
		period = "24h"
	}
	path := "/analytics/wait-times?" + url.Values{"period": {period}}.Encode()
	return call(ctx, c, "wait times", http.MethodGet, path, nil, c.waitTimes)
}

func (c *Client) GetOfficerPerformance(ctx context.Context) (Envelope[[]models.OfficerPerformance], error) {
	return call(ctx, c, "officer performance", http.MethodGet, "/analytics/officer-performance", nil, officerPerformance)
}

func (c *Client) GetServiceTypes(ctx context.Context) (Envelope[[]models.ServiceType], error) {
	return call(ctx, c, "service types", http.MethodGet, "/services/types", nil, serviceTypes)
}
