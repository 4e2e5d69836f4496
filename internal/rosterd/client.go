// Package rosterd provides rate-limited access to the crew scheduling
// service's REST API. It is a thin request/response layer: one HTTP call
// per operation, no caching, no automatic retries. Retry policy belongs
// to the caller; the dashboard recovers through user-triggered refresh.
package rosterd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

const (
	DefaultUserAgent = "CrewDeck/1.0"
	DefaultRateLimit = 10 // requests per second
	DefaultBurst     = 20

	maxBodyBytes = 10 << 20
	maxErrBytes  = 1 << 10
)

// FetchError is the failure of a single backend call. Status is zero
// when the request never completed.
type FetchError struct {
	Endpoint string
	Status   int
	Body     string
	Err      error
}

func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Endpoint, e.Err)
	}
	return fmt.Sprintf("%s: HTTP %d: %s", e.Endpoint, e.Status, e.Body)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Client is a rate-limited HTTP client for the scheduling service.
type Client struct {
	baseURL     string
	userAgent   string
	httpClient  *http.Client
	rateLimiter *rate.Limiter
}

// NewClient creates a client for the scheduling service at baseURL.
func NewClient(baseURL string, rateLimit float64, burst int) *Client {
	if rateLimit <= 0 {
		rateLimit = DefaultRateLimit
	}
	if burst <= 0 {
		burst = DefaultBurst
	}
	return &Client{
		baseURL:   baseURL,
		userAgent: DefaultUserAgent,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		rateLimiter: rate.NewLimiter(rate.Limit(rateLimit), burst),
	}
}

// GenerateRoster asks the backend to build a roster for the given window.
// Generation is the backend's slow path; the per-call timeout is widened
// by the caller's context, not by this client.
func (c *Client) GenerateRoster(ctx context.Context, req GenerateRequest) (*RosterResponse, error) {
	body, err := c.do(ctx, http.MethodPost, "/api/roster/generate", req)
	if err != nil {
		return nil, err
	}
	var resp RosterResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, &FetchError{Endpoint: "roster/generate", Err: fmt.Errorf("parsing response: %w", err)}
	}
	if resp.Metrics.ViolationCount != len(resp.Violations) {
		// Data-integrity warning only; the payload is still usable.
		log.Warn().
			Int("metric_count", resp.Metrics.ViolationCount).
			Int("violations", len(resp.Violations)).
			Msg("roster violation_count disagrees with violation list")
	}
	return &resp, nil
}

// RosterHistory lists previously generated roster summaries.
func (c *Client) RosterHistory(ctx context.Context, limit, offset int) ([]RosterHistoryItem, error) {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	q.Set("offset", strconv.Itoa(offset))
	body, err := c.do(ctx, http.MethodGet, "/api/roster/history?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	var resp struct {
		Rosters []RosterHistoryItem `json:"rosters"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, &FetchError{Endpoint: "roster/history", Err: fmt.Errorf("parsing response: %w", err)}
	}
	return resp.Rosters, nil
}

// RosterDetail fetches the stored flight+crew entries for one roster.
func (c *Client) RosterDetail(ctx context.Context, id int) (*RosterDetail, error) {
	body, err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/roster/%d", id), nil)
	if err != nil {
		return nil, err
	}
	var resp RosterDetail
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, &FetchError{Endpoint: "roster/detail", Err: fmt.Errorf("parsing response: %w", err)}
	}
	return &resp, nil
}

// DeleteRoster removes one historical roster. Success is any 2xx.
func (c *Client) DeleteRoster(ctx context.Context, id int) error {
	_, err := c.do(ctx, http.MethodDelete, fmt.Sprintf("/api/roster/%d", id), nil)
	return err
}

// ListCrew fetches one page of crew members.
func (c *Client) ListCrew(ctx context.Context, limit, offset int) ([]CrewMember, error) {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	q.Set("offset", strconv.Itoa(offset))
	body, err := c.do(ctx, http.MethodGet, "/api/crew?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	var resp struct {
		CrewMembers []CrewMember `json:"crew_members"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, &FetchError{Endpoint: "crew", Err: fmt.Errorf("parsing response: %w", err)}
	}
	return resp.CrewMembers, nil
}

// CrewSchedules fetches a crew member's roster participation history.
func (c *Client) CrewSchedules(ctx context.Context, crewID string) ([]CrewSchedule, error) {
	body, err := c.do(ctx, http.MethodGet, "/api/crew/"+url.PathEscape(crewID)+"/schedule", nil)
	if err != nil {
		return nil, err
	}
	var resp struct {
		Schedules []CrewSchedule `json:"schedules"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, &FetchError{Endpoint: "crew/schedule", Err: fmt.Errorf("parsing response: %w", err)}
	}
	return resp.Schedules, nil
}

// CrewPreferences fetches a crew member's scheduling preferences.
func (c *Client) CrewPreferences(ctx context.Context, crewID string) ([]CrewPreference, error) {
	body, err := c.do(ctx, http.MethodGet, "/api/crew/"+url.PathEscape(crewID)+"/preferences", nil)
	if err != nil {
		return nil, err
	}
	var resp struct {
		Preferences []CrewPreference `json:"preferences"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, &FetchError{Endpoint: "crew/preferences", Err: fmt.Errorf("parsing response: %w", err)}
	}
	return resp.Preferences, nil
}

// ListFlights fetches one page of flights with optional server-side filters.
func (c *Client) ListFlights(ctx context.Context, query FlightQuery) (*FlightPage, error) {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(query.Limit))
	q.Set("offset", strconv.Itoa(query.Offset))
	if query.Origin != "" {
		q.Set("origin", query.Origin)
	}
	if query.Destination != "" {
		q.Set("destination", query.Destination)
	}
	if query.AircraftType != "" {
		q.Set("aircraft_type", query.AircraftType)
	}
	if query.Date != "" {
		q.Set("date", query.Date)
	}
	body, err := c.do(ctx, http.MethodGet, "/api/flights?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	var page FlightPage
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, &FetchError{Endpoint: "flights", Err: fmt.Errorf("parsing response: %w", err)}
	}
	return &page, nil
}

// DisruptionChat sends one user message to the disruption assistant.
func (c *Client) DisruptionChat(ctx context.Context, message string, chatContext map[string]any) (*ChatReply, error) {
	if chatContext == nil {
		chatContext = map[string]any{}
	}
	req := map[string]any{
		"message": message,
		"context": chatContext,
	}
	body, err := c.do(ctx, http.MethodPost, "/api/chat/disruption", req)
	if err != nil {
		return nil, err
	}
	var reply ChatReply
	if err := json.Unmarshal(body, &reply); err != nil {
		return nil, &FetchError{Endpoint: "chat/disruption", Err: fmt.Errorf("parsing response: %w", err)}
	}
	return &reply, nil
}

// do performs one rate-limited request and returns the response body.
func (c *Client) do(ctx context.Context, method, path string, payload any) ([]byte, error) {
	endpoint := method + " " + path

	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, &FetchError{Endpoint: endpoint, Err: fmt.Errorf("rate limiter: %w", err)}
	}

	var reqBody io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, &FetchError{Endpoint: endpoint, Err: fmt.Errorf("encoding request: %w", err)}
		}
		reqBody = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, &FetchError{Endpoint: endpoint, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	log.Debug().Str("method", method).Str("path", path).Msg("rosterd request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &FetchError{Endpoint: endpoint, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrBytes))
		if len(excerpt) > 200 {
			excerpt = excerpt[:200]
		}
		return nil, &FetchError{Endpoint: endpoint, Status: resp.StatusCode, Body: string(excerpt)}
	}

	return io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
}
