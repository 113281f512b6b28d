package mealsync

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// HTTPBackend implements Backend against the coordination server's REST
// surface. It is a thin codec layer: the sync engine above it owns all
// optimistic state.
type HTTPBackend struct {
	baseURL string
	token   string
	client  *http.Client
}

// NewHTTPBackend creates a backend client for the given server base URL
// (scheme and host, no trailing slash) authenticating with the given JWT.
func NewHTTPBackend(baseURL, token string) *HTTPBackend {
	return &HTTPBackend{
		baseURL: baseURL,
		token:   token,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (b *HTTPBackend) GetMeal(ctx context.Context, mealID uint) (*MealSnapshot, error) {
	var snap MealSnapshot
	err := b.do(ctx, http.MethodGet, fmt.Sprintf("/api/v1/meals/%d", mealID), nil, &snap)
	if err != nil {
		return nil, err
	}
	return &snap, nil
}

func (b *HTTPBackend) UpdateMax(ctx context.Context, mealID uint, max *int, sessionID string) error {
	body := map[string]interface{}{"max": max, "session_id": sessionID}
	return b.do(ctx, http.MethodPatch, fmt.Sprintf("/api/v1/meals/%d/max", mealID), body, nil)
}

func (b *HTTPBackend) Join(ctx context.Context, mealID, residentID uint, late, vegetarian bool, sessionID string) (time.Time, error) {
	body := map[string]interface{}{
		"late":       late,
		"vegetarian": vegetarian,
		"session_id": sessionID,
	}
	var resp struct {
		AttendingAt time.Time `json:"attending_at"`
	}
	path := fmt.Sprintf("/api/v1/meals/%d/residents/%d", mealID, residentID)
	if err := b.do(ctx, http.MethodPost, path, body, &resp); err != nil {
		return time.Time{}, err
	}
	return resp.AttendingAt, nil
}

func (b *HTTPBackend) Leave(ctx context.Context, mealID, residentID uint, sessionID string) error {
	body := map[string]interface{}{"session_id": sessionID}
	path := fmt.Sprintf("/api/v1/meals/%d/residents/%d", mealID, residentID)
	return b.do(ctx, http.MethodDelete, path, body, nil)
}

func (b *HTTPBackend) UpdateFlags(ctx context.Context, mealID, residentID uint, update FlagUpdate, sessionID string) error {
	body := map[string]interface{}{"session_id": sessionID}
	if update.Late != nil {
		body["late"] = *update.Late
	}
	if update.Vegetarian != nil {
		body["vegetarian"] = *update.Vegetarian
	}
	path := fmt.Sprintf("/api/v1/meals/%d/residents/%d", mealID, residentID)
	return b.do(ctx, http.MethodPatch, path, body, nil)
}

func (b *HTTPBackend) AddGuest(ctx context.Context, mealID, residentID uint, vegetarian bool, sessionID string) (GuestRecord, error) {
	body := map[string]interface{}{"vegetarian": vegetarian, "session_id": sessionID}
	var resp struct {
		ID         uint      `json:"id"`
		Vegetarian bool      `json:"vegetarian"`
		CreatedAt  time.Time `json:"created_at"`
	}
	path := fmt.Sprintf("/api/v1/meals/%d/residents/%d/guests", mealID, residentID)
	if err := b.do(ctx, http.MethodPost, path, body, &resp); err != nil {
		return GuestRecord{}, err
	}
	return GuestRecord{ID: resp.ID, Vegetarian: resp.Vegetarian, CreatedAt: resp.CreatedAt}, nil
}

func (b *HTTPBackend) RemoveGuest(ctx context.Context, mealID, residentID, guestID uint, sessionID string) error {
	body := map[string]interface{}{"session_id": sessionID}
	path := fmt.Sprintf("/api/v1/meals/%d/residents/%d/guests/%d", mealID, residentID, guestID)
	return b.do(ctx, http.MethodDelete, path, body, nil)
}

// do issues one request and decodes the response. A 4xx status with a JSON
// message body becomes a *RejectedError so callers can tell a policy refusal
// from a transport failure.
func (b *HTTPBackend) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, b.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if b.token != "" {
		req.Header.Set("Authorization", "Bearer "+b.token)
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return fmt.Errorf("request %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 && resp.StatusCode < 500 {
		var payload struct {
			Message string `json:"message"`
		}
		if decodeErr := json.NewDecoder(resp.Body).Decode(&payload); decodeErr == nil && payload.Message != "" {
			return &RejectedError{Message: payload.Message}
		}
		return fmt.Errorf("request %s %s: status %d", method, path, resp.StatusCode)
	}
	if resp.StatusCode >= 500 {
		return fmt.Errorf("request %s %s: status %d", method, path, resp.StatusCode)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}
