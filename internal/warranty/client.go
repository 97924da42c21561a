// Package warranty integrates with the remote warranty registration service.
// It normalizes heterogeneous asset and user shapes into the service's fixed
// wire contract, registers coverage, and checks per-asset status.
package warranty

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"
)

// DefaultBaseURL is the fallback warranty service host used when none is
// configured.
const DefaultBaseURL = "https://server1.eport.ws"

// DefaultTimeout bounds each remote call. The upstream contract has no
// server-side deadline, so an unbounded client would stall a whole batch
// chunk on one hung request.
const DefaultTimeout = 15 * time.Second

// DefaultDurationMonths is the warranty duration applied when the caller does
// not choose one.
const DefaultDurationMonths = 12

// RegistrationFailureMessage marks results synthesized from transport or
// decode failures, as opposed to rejections the remote actually sent.
const RegistrationFailureMessage = "Failed to register warranty. Please try again."

// Client talks to the remote warranty service. Transport failures never
// surface as errors; they collapse into structured failure results so callers
// have a single response shape to interpret.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewClient creates a warranty client. An empty baseURL selects the default
// host; a non-positive timeout selects the default timeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: timeout},
	}
}

// RegisterOptions carries optional registration parameters.
type RegisterOptions struct {
	// WarrantyDurationMonths defaults to DefaultDurationMonths when zero or
	// negative.
	WarrantyDurationMonths int
}

// BuildRegistrationRequest flattens an asset and its registering user into
// the wire body. All shape-sniffing happens here; the result carries only
// plain strings, numbers, and nulls.
func BuildRegistrationRequest(asset Asset, user ActingUser, opts RegisterOptions) RegistrationRequest {
	months := opts.WarrantyDurationMonths
	if months <= 0 {
		months = DefaultDurationMonths
	}
	return RegistrationRequest{
		ID:            asset.ID,
		Name:          asset.Name,
		Category:      asset.CategoryName(),
		Department:    asset.DepartmentName(),
		Cost:          asset.Cost,
		DatePurchased: asset.DatePurchased,
		CreatedBy:     asset.CreatorName(),
		CreatedAt:     asset.CreatedAt,

		RegisteredByID:   user.ID,
		RegisteredByName: user.DisplayName(),

		WarrantyDurationMonths: months,
		SerialNumber:           firstDefined(asset.SerialNumber, asset.SerialNumberAlt),
		Manufacturer:           asset.Manufacturer,
		ModelNumber:            firstDefined(asset.ModelNumber, asset.ModelNumberAlt),
	}
}

// Register submits one asset for warranty coverage. The response body is
// decoded regardless of the HTTP status code, because the remote reports
// failure in the body. The call is not retried.
func (c *Client) Register(ctx context.Context, asset Asset, user ActingUser, opts RegisterOptions) RegistrationResult {
	body, err := json.Marshal(BuildRegistrationRequest(asset, user, opts))
	if err != nil {
		return registrationFailure(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/api/warranty/register/", bytes.NewReader(body))
	if err != nil {
		return registrationFailure(err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return registrationFailure(err)
	}
	defer resp.Body.Close()

	var result RegistrationResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return registrationFailure(err)
	}
	return result
}

func registrationFailure(err error) RegistrationResult {
	msg := "Network error occurred"
	if err != nil {
		msg = err.Error()
	}
	return RegistrationResult{
		Success: false,
		Error:   msg,
		Message: RegistrationFailureMessage,
	}
}
