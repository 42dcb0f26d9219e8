package tripapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

const createTripPath = "/api/create-trip"

type CreateTripRequest struct {
	Country      string `json:"country"`
	TravelStyle  string `json:"travelStyle"`
	Interests    string `json:"interests"`
	Budget       string `json:"budget"`
	GroupType    string `json:"groupType"`
	NumberOfDays int    `json:"numberOfDays"`
	UserID       string `json:"userId"`
}

// CreateTripResponse carries the generated trip id. The endpoint has no
// defined error contract, so StatusCode is kept for logging only; callers
// decide success solely on a non-empty ID.
type CreateTripResponse struct {
	ID         string `json:"id"`
	StatusCode int    `json:"-"`
}

type Client struct {
	HTTPClient *http.Client
	BaseURL    string
	// SigningSecret, when set, adds X-Signature: base64(HMAC_SHA256(body)).
	SigningSecret string
}

type ctxKey struct{}

// WithIdempotencyKey pins the Idempotency-Key sent by CreateTrip, so that a
// resubmitted form asks the backend for the same trip.
func WithIdempotencyKey(ctx context.Context, key string) context.Context {
	return context.WithValue(ctx, ctxKey{}, key)
}

// IdempotencyKey returns the key set by WithIdempotencyKey, or "".
func IdempotencyKey(ctx context.Context) string {
	k, _ := ctx.Value(ctxKey{}).(string)
	return k
}

func NewClient(baseURL, signingSecret string, timeout time.Duration) *Client {
	return &Client{
		HTTPClient:    &http.Client{Timeout: timeout},
		BaseURL:       baseURL,
		SigningSecret: signingSecret,
	}
}

func (c *Client) CreateTrip(ctx context.Context, in CreateTripRequest) (*CreateTripResponse, error) {
	httpClient := c.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	if c.BaseURL == "" {
		return nil, fmt.Errorf("missing trip api base url")
	}

	body, err := json.Marshal(in)
	if err != nil {
		return nil, err
	}

	u := strings.TrimRight(c.BaseURL, "/") + createTripPath
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	key := IdempotencyKey(ctx)
	if key == "" {
		key = uuid.NewString()
	}
	req.Header.Set("Idempotency-Key", key)
	if c.SigningSecret != "" {
		req.Header.Set("X-Signature", Sign(body, c.SigningSecret))
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	out := CreateTripResponse{StatusCode: resp.StatusCode}
	if len(bytes.TrimSpace(b)) == 0 {
		return &out, nil
	}
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("decode create-trip response failed: %w status=%d body=%s", err, resp.StatusCode, truncate(b, 512))
	}
	return &out, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
