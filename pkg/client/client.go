// Package client is a Go client for the Budget Advisor HTTP API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

var ErrNotLoggedIn = errors.New("not logged in")

// APIError carries the status and error message returned by the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("budget advisor: status %d", e.StatusCode)
	}
	return fmt.Sprintf("budget advisor: status %d: %s", e.StatusCode, e.Message)
}

// Unauthorized reports whether the server rejected the session token.
func (e *APIError) Unauthorized() bool {
	return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
}

type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

type Session struct {
	Token string
	User  User
}

type BudgetInput struct {
	Salary             float64  `json:"salary"`
	SpendingCategories []string `json:"spendingCategories"`
	SavingOptions      []string `json:"savingOptions"`
	Notes              string   `json:"notes"`
}

type BudgetPlan struct {
	Message string `json:"message"`
	Text    string `json:"budgetPlan"`
}

// Fallback reports whether the server used its fixed template instead of the model.
func (p BudgetPlan) Fallback() bool {
	return strings.HasSuffix(p.Message, "(fallback)")
}

// HistoryRecord keeps the lists as raw JSON; they come back in the shape they were sent.
type HistoryRecord struct {
	ID                 int64           `json:"id"`
	Salary             float64         `json:"salary"`
	SpendingCategories json.RawMessage `json:"spending_categories"`
	SavingOptions      json.RawMessage `json:"saving_options"`
	Notes              *string         `json:"notes"`
	AIResponse         string          `json:"ai_response"`
	CreatedAt          time.Time       `json:"created_at"`
}

type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	Tokens     TokenStore
}

// New uses an in-memory token store when tokens is nil.
func New(baseURL string, tokens TokenStore) *Client {
	if baseURL == "" {
		baseURL = "http://localhost:3000"
	}
	if tokens == nil {
		tokens = &MemoryTokenStore{}
	}
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: http.DefaultClient,
		Tokens:     tokens,
	}
}

func (c *Client) Register(ctx context.Context, username, password string) (int64, error) {
	var out struct {
		UserID int64 `json:"userId"`
	}
	body := map[string]string{"username": username, "password": password}
	if err := c.do(ctx, http.MethodPost, "/api/auth/register", "", body, &out); err != nil {
		return 0, err
	}
	return out.UserID, nil
}

// Login stores the issued token for later calls.
func (c *Client) Login(ctx context.Context, username, password string) (*Session, error) {
	var out struct {
		Token string `json:"token"`
		User  User   `json:"user"`
	}
	body := map[string]string{"username": username, "password": password}
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", "", body, &out); err != nil {
		return nil, err
	}
	if err := c.Tokens.Set(out.Token); err != nil {
		return nil, fmt.Errorf("store token: %w", err)
	}
	return &Session{Token: out.Token, User: out.User}, nil
}

func (c *Client) SaveBudget(ctx context.Context, input BudgetInput) (*BudgetPlan, error) {
	token, err := c.token()
	if err != nil {
		return nil, err
	}
	var out BudgetPlan
	if err := c.do(ctx, http.MethodPost, "/api/budget/save", token, input, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) History(ctx context.Context) ([]HistoryRecord, error) {
	token, err := c.token()
	if err != nil {
		return nil, err
	}
	var out struct {
		History []HistoryRecord `json:"history"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/budget/history", token, nil, &out); err != nil {
		return nil, err
	}
	return out.History, nil
}

// VerifySession checks the stored token against the history endpoint and
// clears it when the server rejects it.
func (c *Client) VerifySession(ctx context.Context) (bool, error) {
	if _, err := c.History(ctx); err != nil {
		if errors.Is(err, ErrNotLoggedIn) {
			return false, nil
		}
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Unauthorized() {
			return false, c.Tokens.Clear()
		}
		return false, err
	}
	return true, nil
}

func (c *Client) Logout() error {
	return c.Tokens.Clear()
}

func (c *Client) token() (string, error) {
	token, err := c.Tokens.Get()
	if err != nil {
		return "", fmt.Errorf("load token: %w", err)
	}
	if token == "" {
		return "", ErrNotLoggedIn
	}
	return token, nil
}

func (c *Client) do(ctx context.Context, method, path, token string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	httpClient := c.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		return &APIError{StatusCode: resp.StatusCode, Message: apiErr.Error}
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
