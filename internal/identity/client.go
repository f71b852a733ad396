// Package identity talks to the external identity provider's admin API.
// The provider mints login accounts and owns the subject identifiers that
// become local user ids.
package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/oauth2"
)

// Client is an HTTP client for a GoTrue-style admin API. All requests carry
// the service-role key as a bearer token.
type Client struct {
	baseURL string
	httpc   *http.Client
}

// NewClient creates a client authenticated with the given service-role key.
func NewClient(ctx context.Context, baseURL, serviceKey string) *Client {
	source := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: serviceKey})
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpc:   oauth2.NewClient(ctx, source),
	}
}

type createUserRequest struct {
	Email        string `json:"email"`
	Password     string `json:"password"`
	EmailConfirm bool   `json:"email_confirm"`
}

type userResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

type listUsersResponse struct {
	Users []userResponse `json:"users"`
}

// CreateOrGetAccount creates an identity-provider account and returns its
// subject id. If an account already exists for the email, the existing
// subject id is returned instead of an error, so retried approvals don't
// fail on their own earlier side effect.
func (c *Client) CreateOrGetAccount(ctx context.Context, email, password string) (string, error) {
	subjectID, conflict, err := c.createAccount(ctx, email, password)
	if err != nil {
		return "", err
	}
	if !conflict {
		return subjectID, nil
	}
	return c.findAccountByEmail(ctx, email)
}

func (c *Client) createAccount(ctx context.Context, email, password string) (subjectID string, conflict bool, err error) {
	body, err := json.Marshal(createUserRequest{
		Email:        email,
		Password:     password,
		EmailConfirm: true,
	})
	if err != nil {
		return "", false, fmt.Errorf("failed to encode create-user request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/admin/users", bytes.NewReader(body))
	if err != nil {
		return "", false, fmt.Errorf("failed to build create-user request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return "", false, fmt.Errorf("create-user request failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusCreated:
		var user userResponse
		if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
			return "", false, fmt.Errorf("failed to decode create-user response: %w", err)
		}
		if user.ID == "" {
			return "", false, fmt.Errorf("create-user response missing subject id")
		}
		return user.ID, false, nil
	case resp.StatusCode == http.StatusConflict || resp.StatusCode == http.StatusUnprocessableEntity:
		// Account already exists; caller falls back to lookup by email.
		io.Copy(io.Discard, resp.Body)
		return "", true, nil
	default:
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", false, fmt.Errorf("create-user returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}
}

func (c *Client) findAccountByEmail(ctx context.Context, email string) (string, error) {
	endpoint := c.baseURL + "/admin/users?email=" + url.QueryEscape(email)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build list-users request: %w", err)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return "", fmt.Errorf("list-users request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("list-users returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var list listUsersResponse
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		return "", fmt.Errorf("failed to decode list-users response: %w", err)
	}

	for _, user := range list.Users {
		if strings.EqualFold(user.Email, email) {
			return user.ID, nil
		}
	}

	return "", fmt.Errorf("account for %s reported as existing but not found", email)
}
