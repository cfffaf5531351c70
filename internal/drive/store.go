package drive

import (
	"context"
	"net/http"

	"git.home.luguber.info/inful/pinningd/internal/foundation/errors"
	"git.home.luguber.info/inful/pinningd/internal/httpapi"
)

// StoreClient registers drives with a dat-store service so it keeps them seeded.
type StoreClient struct {
	client *httpapi.Client
}

// NewStoreClient creates a client for the dat-store server at serverURL.
func NewStoreClient(httpClient *http.Client, serverURL string) *StoreClient {
	return &StoreClient{client: httpapi.New(httpClient, serverURL, "", errors.CategoryPublish)}
}

// Login exchanges credentials for a session token used by later calls.
func (c *StoreClient) Login(ctx context.Context, username, password string) error {
	req, err := c.client.NewRequest(ctx, http.MethodPost, "/v1/user/login", map[string]string{
		"username": username,
		"password": password,
	})
	if err != nil {
		return err
	}
	var body struct {
		Token string `json:"token"`
	}
	if err := c.client.Do(req, &body); err != nil {
		return err
	}
	if body.Token == "" {
		return errors.AuthError("dat-store login returned no token").Build()
	}
	c.client.SetToken(body.Token)
	return nil
}

// Add asks the store to seed the drive at url.
func (c *StoreClient) Add(ctx context.Context, url string) error {
	req, err := c.client.NewRequest(ctx, http.MethodPost, "/v1/dats/add", map[string]string{"url": url})
	if err != nil {
		return err
	}
	return c.client.Do(req, nil)
}

// NoopRegistrar accepts every call; used when no storage service is configured.
type NoopRegistrar struct{}

func (NoopRegistrar) Login(context.Context, string, string) error { return nil }
func (NoopRegistrar) Add(context.Context, string) error           { return nil }
