// Package apiclient is the HTTP client for the remote LeadGrid CRM API.
// Every data operation is a plain request/response call carrying the stored
// token as a bearer credential.
package apiclient

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/leadgrid-dev/leadgrid/internal/credstore"
)

// ErrNotAuthenticated is returned when an authenticated call is attempted
// with no stored token.
var ErrNotAuthenticated = errors.New("not authenticated, run 'leadgrid login' first")

// Client represents an HTTP client for the LeadGrid API.
type Client struct {
	baseURL    string
	store      *credstore.Store
	httpClient *http.Client
	validate   *validator.Validate
}

// New creates a new API client reading credentials from store.
func New(baseURL string, store *credstore.Store) *Client {
	return &Client{
		baseURL: baseURL,
		store:   store,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		validate: validator.New(),
	}
}

// SetHTTPClient sets a custom HTTP client.
func (c *Client) SetHTTPClient(httpClient *http.Client) {
	c.httpClient = httpClient
}

// LoginRequest represents the login request body.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse represents the login response.
type LoginResponse struct {
	Token string                `json:"token"`
	User  credstore.UserProfile `json:"user"`
}

// Login authenticates the user and returns the issued token and profile.
// The caller is responsible for persisting them.
func (c *Client) Login(email, password string) (*LoginResponse, error) {
	body, err := json.Marshal(LoginRequest{Email: email, Password: password})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	resp, err := c.httpClient.Post(
		fmt.Sprintf("%s/api/auth/login", c.baseURL),
		"application/json",
		bytes.NewBuffer(body),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("login failed (status %d): %s", resp.StatusCode, string(data))
	}

	var loginResp LoginResponse
	if err := json.NewDecoder(resp.Body).Decode(&loginResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &loginResp, nil
}

// Lead represents a CRM lead.
type Lead struct {
	ID      string `json:"id,omitempty"`
	Name    string `json:"name" validate:"required"`
	Email   string `json:"email,omitempty" validate:"omitempty,email"`
	Phone   string `json:"phone,omitempty"`
	Status  string `json:"status,omitempty"`
	Source  string `json:"source,omitempty"`
	OwnerID string `json:"owner_id,omitempty"`
}

// LeadPage is one page of the lead listing.
type LeadPage struct {
	Leads []Lead `json:"leads"`
	Total int    `json:"total"`
	Page  int    `json:"page"`
}

// ListLeads fetches one page of leads, optionally filtered by status.
func (c *Client) ListLeads(page int, status string) (*LeadPage, error) {
	query := url.Values{}
	query.Set("page", strconv.Itoa(page))
	if status != "" {
		query.Set("status", status)
	}

	var leadPage LeadPage
	if err := c.do(http.MethodGet, "/api/leads?"+query.Encode(), nil, http.StatusOK, &leadPage); err != nil {
		return nil, err
	}
	return &leadPage, nil
}

// CreateLead creates a lead. The payload is validated before it leaves the
// client so obviously-broken input never reaches the wire.
func (c *Client) CreateLead(lead *Lead) (*Lead, error) {
	if err := c.validate.Struct(lead); err != nil {
		return nil, fmt.Errorf("invalid lead: %w", err)
	}

	var created Lead
	if err := c.do(http.MethodPost, "/api/leads", lead, http.StatusCreated, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// UpdateLead updates an existing lead.
func (c *Client) UpdateLead(id string, lead *Lead) (*Lead, error) {
	if err := c.validate.Struct(lead); err != nil {
		return nil, fmt.Errorf("invalid lead: %w", err)
	}

	var updated Lead
	if err := c.do(http.MethodPut, "/api/leads/"+id, lead, http.StatusOK, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteLead deletes a lead.
func (c *Client) DeleteLead(id string) error {
	return c.do(http.MethodDelete, "/api/leads/"+id, nil, http.StatusNoContent, nil)
}

// BulkAssignRequest represents the bulk owner-assignment request body.
type BulkAssignRequest struct {
	LeadIDs []string `json:"lead_ids" validate:"required,min=1"`
	OwnerID string   `json:"owner_id" validate:"required"`
}

// BulkAssign assigns a set of leads to a new owner in one call.
func (c *Client) BulkAssign(leadIDs []string, ownerID string) error {
	req := BulkAssignRequest{LeadIDs: leadIDs, OwnerID: ownerID}
	if err := c.validate.Struct(req); err != nil {
		return fmt.Errorf("invalid bulk assignment: %w", err)
	}
	return c.do(http.MethodPost, "/api/leads/bulk-assign", req, http.StatusOK, nil)
}

// do performs an authenticated request and decodes the response into out
// when out is non-nil.
func (c *Client) do(method, path string, payload any, wantStatus int, out any) error {
	token := c.store.Token()
	if token == "" {
		return ErrNotAuthenticated
	}

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewBuffer(data)
	}

	req, err := http.NewRequest(method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != wantStatus {
		data, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("request failed (status %d): %s", resp.StatusCode, string(data))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}
