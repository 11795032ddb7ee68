package directory

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/O-HAM-MA/apartner-sub000/pkg/config"
)

// HTTPDirectory resolves identities against the user-directory service.
type HTTPDirectory struct {
	baseURL string
	client  *http.Client
}

// NewHTTPDirectory builds a directory client from config.
func NewHTTPDirectory(cfg config.DirectoryConfig) *HTTPDirectory {
	return &HTTPDirectory{
		baseURL: cfg.BaseURL,
		client:  &http.Client{Timeout: cfg.Timeout},
	}
}

// Resolve fetches the user's apartment/role context. A 404 from the
// directory maps to ErrUnknownUser.
func (d *HTTPDirectory) Resolve(ctx context.Context, userID string) (Identity, error) {
	endpoint := fmt.Sprintf("%s/users/%s/identity", d.baseURL, url.PathEscape(userID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Identity{}, err
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return Identity{}, fmt.Errorf("directory: resolve %s: %w", userID, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return Identity{}, ErrUnknownUser
	default:
		return Identity{}, fmt.Errorf("directory: resolve %s: unexpected status %d", userID, resp.StatusCode)
	}

	var identity Identity
	if err := json.NewDecoder(resp.Body).Decode(&identity); err != nil {
		return Identity{}, fmt.Errorf("directory: decode identity: %w", err)
	}
	if identity.UserID == "" {
		identity.UserID = userID
	}
	return identity, nil
}
