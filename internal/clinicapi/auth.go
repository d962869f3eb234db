package clinicapi

import (
	"context"
	"errors"
	"net/http"
	"strings"
)

// Login exchanges credentials for a token pair and stores it. A 401 is
// reported as invalid credentials regardless of the server's detail text.
func (c *Client) Login(ctx context.Context, email, password string) error {
	var out struct {
		Access  string `json:"access"`
		Refresh string `json:"refresh"`
	}

	body := map[string]string{
		"email":    strings.TrimSpace(email),
		"password": password,
	}
	if err := c.postUnauthenticated(ctx, LoginPath, body, &out); err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized {
			return &APIError{StatusCode: apiErr.StatusCode, Detail: MsgInvalidCredentials}
		}
		return err
	}

	if err := c.tokens.SetPair(out.Access, out.Refresh); err != nil {
		return err
	}

	c.logger.Info("login successful")
	return nil
}

// Logout clears the stored token pair. Navigation back to the login screen
// is the caller's concern.
func (c *Client) Logout() error {
	return c.tokens.Clear()
}
