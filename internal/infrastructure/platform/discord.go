package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"rolegate.backend/internal/domain/entities"
	domainerrors "rolegate.backend/internal/domain/errors"
)

// Client is a minimal REST adapter for the identity/privilege platform. It
// covers exactly the capabilities the granter needs: member lookup, role
// lookup, role assignment and posting a channel message. Command
// registration, presence and the gateway are out of scope.
type Client struct {
	baseURL string
	token   string
	guildID string
	http    *http.Client
}

func NewClient(baseURL, token, guildID string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		guildID: guildID,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

type memberPayload struct {
	User struct {
		ID         string `json:"id"`
		Username   string `json:"username"`
		GlobalName string `json:"global_name"`
	} `json:"user"`
	Nick  string   `json:"nick"`
	Roles []string `json:"roles"`
}

func (m *memberPayload) displayName() string {
	if m.Nick != "" {
		return m.Nick
	}
	if m.User.GlobalName != "" {
		return m.User.GlobalName
	}
	return m.User.Username
}

// Member resolves a guild member by user id. A member that does not (yet)
// exist maps to the domain not-found error so callers can retry within their
// bounded wait.
func (c *Client) Member(ctx context.Context, userID string) (*entities.Member, error) {
	var payload memberPayload
	err := c.get(ctx, fmt.Sprintf("/guilds/%s/members/%s", c.guildID, userID), &payload)
	if err != nil {
		return nil, err
	}
	return &entities.Member{
		ID:          payload.User.ID,
		DisplayName: payload.displayName(),
		RoleIDs:     payload.Roles,
	}, nil
}

// Role looks up a guild role by id.
func (c *Client) Role(ctx context.Context, roleID string) (*entities.Role, error) {
	var roles []struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	if err := c.get(ctx, fmt.Sprintf("/guilds/%s/roles", c.guildID), &roles); err != nil {
		return nil, err
	}
	for _, r := range roles {
		if r.ID == roleID {
			return &entities.Role{ID: r.ID, Name: r.Name}, nil
		}
	}
	return nil, domainerrors.ErrNotFound
}

// AssignRole adds a role to a guild member.
func (c *Client) AssignRole(ctx context.Context, userID, roleID, reason string) error {
	url := fmt.Sprintf("%s/guilds/%s/members/%s/roles/%s", c.baseURL, c.guildID, userID, roleID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, nil)
	if err != nil {
		return err
	}
	c.authorize(req)
	if reason != "" {
		req.Header.Set("X-Audit-Log-Reason", reason)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return c.checkStatus(resp.StatusCode)
}

// PostMessage posts a message to a channel.
func (c *Client) PostMessage(ctx context.Context, channelID, content string) error {
	body, err := json.Marshal(map[string]string{"content": content})
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/channels/%s/messages", c.baseURL, channelID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	c.authorize(req)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return c.checkStatus(resp.StatusCode)
}

func (c *Client) get(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	c.authorize(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := c.checkStatus(resp.StatusCode); err != nil {
		return err
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *Client) authorize(req *http.Request) {
	req.Header.Set("Authorization", "Bot "+c.token)
}

func (c *Client) checkStatus(status int) error {
	switch {
	case status >= 200 && status < 300:
		return nil
	case status == http.StatusNotFound:
		return domainerrors.ErrNotFound
	case status == http.StatusForbidden:
		return domainerrors.ErrForbidden
	case status == http.StatusUnauthorized:
		return domainerrors.ErrUnauthorized
	default:
		return fmt.Errorf("platform API returned status %d", status)
	}
}
