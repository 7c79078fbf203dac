package libmm

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"path"

	"github.com/pkg/errors"
)

type (
	// A Client defines all interactions that can be performed on a MindMirror server.
	Client interface {
		// CreateEntry submits a new journal entry and returns the stored record.
		CreateEntry(ctx context.Context, params EntryParams) (*Entry, error)
		// ListEntries returns all entries of the authenticated user, newest first.
		ListEntries(ctx context.Context) ([]*Entry, error)
		// GetEntry returns one entry by id.
		GetEntry(ctx context.Context, id string) (*Entry, error)
		// DeleteEntry removes one entry by id.
		DeleteEntry(ctx context.Context, id string) error
		// BearerToken returns the identity provider token sent with requests.
		BearerToken() string
		// SetBearerToken sets the identity provider token sent with requests.
		SetBearerToken(token string)
	}

	// EntryParams are the fields of an entry submission.
	EntryParams struct {
		Title    string   `json:"title"`
		Tags     []string `json:"tags"`
		VideoKey string   `json:"video_url"`
		Duration string   `json:"duration,omitempty"`
	}

	client struct {
		http     *http.Client
		endpoint string
		bearer   string
	}
)

// NewDefaultClient returns a new Client with default HTTP client.
func NewDefaultClient(endpoint string) (Client, error) {
	return NewClient(http.DefaultClient, endpoint)
}

// NewClient returns a new Client.
func NewClient(c *http.Client, endpoint string) (Client, error) {
	_, err := url.Parse(endpoint)
	return &client{endpoint: endpoint, http: c}, errors.Wrap(err, "could not parse endpoint")
}

func (c *client) BearerToken() string {
	return c.bearer
}

func (c *client) SetBearerToken(token string) {
	c.bearer = token
}

func (c *client) CreateEntry(ctx context.Context, params EntryParams) (*Entry, error) {
	res, err := c.do(ctx, http.MethodPost, "/api/entries", params)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.StatusCode >= 400 {
		return nil, parseRemoteError(res.Body, res.StatusCode)
	}

	var entry Entry
	dec := json.NewDecoder(res.Body)
	if err := dec.Decode(&entry); err != nil {
		return nil, errors.Wrap(err, "could not parse response")
	}
	if err := entry.Validate(); err != nil {
		return nil, err
	}
	return &entry, nil
}

func (c *client) ListEntries(ctx context.Context) ([]*Entry, error) {
	res, err := c.do(ctx, http.MethodGet, "/api/entries", nil)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.StatusCode >= 400 {
		return nil, parseRemoteError(res.Body, res.StatusCode)
	}

	entries := make([]*Entry, 0)
	dec := json.NewDecoder(res.Body)
	if err := dec.Decode(&entries); err != nil {
		return nil, errors.Wrap(err, "could not parse response")
	}
	for _, entry := range entries {
		if err := entry.Validate(); err != nil {
			return nil, err
		}
	}
	return entries, nil
}

func (c *client) GetEntry(ctx context.Context, id string) (*Entry, error) {
	res, err := c.do(ctx, http.MethodGet, path.Join("/api/entries", id), nil)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.StatusCode >= 400 {
		return nil, parseRemoteError(res.Body, res.StatusCode)
	}

	var entry Entry
	dec := json.NewDecoder(res.Body)
	if err := dec.Decode(&entry); err != nil {
		return nil, errors.Wrap(err, "could not parse response")
	}
	if err := entry.Validate(); err != nil {
		return nil, err
	}
	return &entry, nil
}

func (c *client) DeleteEntry(ctx context.Context, id string) error {
	res, err := c.do(ctx, http.MethodDelete, path.Join("/api/entries", id), nil)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode >= 400 {
		return parseRemoteError(res.Body, res.StatusCode)
	}
	return nil
}

func (c *client) do(ctx context.Context, method, route string, params any) (*http.Response, error) {
	u, err := url.Parse(c.endpoint)
	if err != nil {
		return nil, errors.Wrap(err, "could not parse endpoint")
	}
	u.Path = path.Join(u.Path, route)

	//
	// Build request
	var body bytes.Buffer
	if params != nil {
		enc := json.NewEncoder(&body)
		if err := enc.Encode(params); err != nil {
			return nil, errors.Wrap(err, "could not serialize params")
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), &body)
	if err != nil {
		return nil, errors.Wrap(err, "could not build request")
	}
	req.Close = true
	req.Header.Add("Content-Type", "application/json")
	req.Header.Add("Accept", "application/json")
	if c.bearer != "" {
		req.Header.Add("Authorization", "Bearer "+c.bearer)
	}

	//
	// Perform request
	res, err := c.http.Do(req)
	return res, errors.Wrap(err, "could not perform request")
}
