package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/alexanderramin/termplan/internal/codec"
	"github.com/alexanderramin/termplan/internal/domain"
)

// Client talks to the dashboard's term-plan API.
type Client struct {
	cfg      Config
	http     *http.Client
	observer Observer
}

// NewClient creates a dashboard client. A nil observer discards events.
func NewClient(cfg Config, observer Observer) *Client {
	if observer == nil {
		observer = NoopObserver{}
	}
	return &Client{
		cfg: cfg,
		http: &http.Client{
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout: 5 * time.Second,
				}).DialContext,
			},
		},
		observer: observer,
	}
}

// Fetch loads one plan owned by userID. A record owned by someone else is
// reported as ErrNotFound. A malformed data payload degrades to an empty
// student set rather than failing.
func (c *Client) Fetch(ctx context.Context, planID, userID string) (domain.TermPlan, error) {
	if planID == "" {
		return domain.TermPlan{}, ErrMissingPlanID
	}
	path := "/api/v1/term-plans/" + url.PathEscape(planID)
	if userID != "" {
		path += "?user_id=" + url.QueryEscape(userID)
	}

	body, err := c.call(ctx, "fetch", planID, http.MethodGet, path, nil)
	if err != nil {
		return domain.TermPlan{}, err
	}
	rec, err := codec.DecodeRecord(body)
	if err != nil {
		return domain.TermPlan{}, fmt.Errorf("%w: decoding plan %s: %v", ErrBackend, planID, err)
	}
	if userID != "" && rec.UserID != "" && rec.UserID != userID {
		return domain.TermPlan{}, fmt.Errorf("plan %s: %w", planID, ErrNotFound)
	}
	plan := codec.FromRecord(rec)
	if plan.ID == "" {
		plan.ID = planID
	}
	return plan, nil
}

// Save upserts the whole plan on behalf of userID and returns the stored
// copy.
func (c *Client) Save(ctx context.Context, userID string, plan domain.TermPlan) (domain.TermPlan, error) {
	if plan.ID == "" {
		return domain.TermPlan{}, ErrMissingPlanID
	}
	plan.UserID = userID
	rec, err := codec.ToRecord(plan)
	if err != nil {
		return domain.TermPlan{}, err
	}
	payload, err := json.Marshal(rec)
	if err != nil {
		return domain.TermPlan{}, fmt.Errorf("marshaling plan %s: %w", plan.ID, err)
	}

	body, err := c.call(ctx, "save", plan.ID, http.MethodPut, "/api/v1/term-plans/"+url.PathEscape(plan.ID), payload)
	if err != nil {
		return domain.TermPlan{}, err
	}
	stored, err := codec.DecodeRecord(body)
	if err != nil {
		return domain.TermPlan{}, fmt.Errorf("%w: decoding saved plan %s: %v", ErrBackend, plan.ID, err)
	}
	return codec.FromRecord(stored), nil
}

type meResponse struct {
	ID string `json:"id"`
}

// Me returns the user id the dashboard associates with the token.
func (c *Client) Me(ctx context.Context) (string, error) {
	body, err := c.call(ctx, "me", "", http.MethodGet, "/api/v1/me", nil)
	if err != nil {
		return "", err
	}
	var me meResponse
	if err := json.Unmarshal(body, &me); err != nil {
		return "", fmt.Errorf("%w: decoding identity: %v", ErrBackend, err)
	}
	return me.ID, nil
}

// call runs one operation with retries and reports it to the observer.
// Only connection failures and 5xx responses are retried, and never once
// the caller's context is done.
func (c *Client) call(ctx context.Context, op, planID, method, path string, payload []byte) ([]byte, error) {
	start := time.Now()

	var (
		body     []byte
		lastErr  error
		attempts int
	)
	for attempts < 1+c.cfg.MaxRetries {
		attempts++
		body, lastErr = c.attempt(ctx, method, path, payload)
		if lastErr == nil || !retryable(lastErr) || ctx.Err() != nil {
			break
		}
	}

	err := c.classify(ctx, lastErr)
	c.observer.OnCallComplete(CallEvent{
		Op:        op,
		PlanID:    planID,
		Latency:   time.Since(start),
		Attempts:  attempts,
		Success:   err == nil,
		ErrorCode: errorCode(err),
	})
	if err != nil {
		return nil, err
	}
	return body, nil
}

// statusError is a non-2xx response.
type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("dashboard returned status %d: %s", e.code, e.body)
}

func (c *Client) attempt(ctx context.Context, method, path string, payload []byte) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.RequestTimeout)
	defer cancel()

	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, strings.TrimRight(c.cfg.BaseURL, "/")+path, reader)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ErrTimeout
		}
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ErrTimeout
		}
		return nil, fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &statusError{code: resp.StatusCode, body: strings.TrimSpace(string(body))}
	}
	return body, nil
}

func retryable(err error) bool {
	var se *statusError
	if errors.As(err, &se) {
		return se.code >= 500
	}
	return isConnectionError(err)
}

// classify maps a raw attempt error onto the package sentinels. A
// cancelled caller context is returned as context.Canceled so the caller
// can tell abandonment from failure.
func (c *Client) classify(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(ctx.Err(), context.Canceled) {
		return ctx.Err()
	}
	if ctx.Err() != nil || errors.Is(err, ErrTimeout) {
		return ErrTimeout
	}
	var se *statusError
	if errors.As(err, &se) {
		switch se.code {
		case http.StatusNotFound:
			return fmt.Errorf("%w: %v", ErrNotFound, se)
		case http.StatusUnauthorized, http.StatusForbidden:
			return fmt.Errorf("%w: %v", ErrUnauthorized, se)
		default:
			return fmt.Errorf("%w: %v", ErrBackend, se)
		}
	}
	if isConnectionError(err) {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return fmt.Errorf("%w: %v", ErrBackend, err)
}

func isConnectionError(err error) bool {
	if err == nil {
		return false
	}
	var netErr *net.OpError
	return errors.As(err, &netErr)
}
