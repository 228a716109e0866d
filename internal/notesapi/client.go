package notesapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dukerupert/notepad/internal/model"
)

const (
	listPath   = "/api/notepad/getNotes"
	authPath   = "/api/notepad/auth"
	createPath = "/addNotes"
	updatePath = "/editNotes/"
	deletePath = "/deleteNotes/"
)

// Config holds the notes API endpoints.
type Config struct {
	// BaseURL serves reads and authentication.
	BaseURL string
	// MutationURL serves create, update and delete. Defaults to BaseURL.
	MutationURL string
	Timeout     time.Duration
}

// Payload is the body sent on create and update.
type Payload struct {
	Title    string `json:"title"`
	Note     string `json:"note"`
	Priority string `json:"priority"`
	Reminder bool   `json:"reminder"`
}

type authRequest struct {
	Token string `json:"token"`
}

// StatusError is returned when the API answers with a non-2xx status.
type StatusError struct {
	Op   string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: status %d", e.Op, e.Code)
}

// IsStatus reports whether err is a StatusError with the given code.
func IsStatus(err error, code int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Code == code
}

// Client talks to the remote notes API.
type Client struct {
	baseURL     string
	mutationURL string
	httpClient  *http.Client
}

// NewClient creates a client. A zero Timeout defaults to 10 seconds.
func NewClient(cfg Config) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:3000"
	}
	if cfg.MutationURL == "" {
		cfg.MutationURL = cfg.BaseURL
	}
	return &Client{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		mutationURL: strings.TrimRight(cfg.MutationURL, "/"),
		httpClient:  &http.Client{Timeout: cfg.Timeout},
	}
}

// List returns every note record the API serves, in server order.
func (c *Client) List(ctx context.Context) ([]model.Record, error) {
	resp, err := c.do(ctx, "list notes", http.MethodGet, c.baseURL+listPath, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var records []model.Record
	if err := json.NewDecoder(resp.Body).Decode(&records); err != nil {
		return nil, fmt.Errorf("decode notes: %w", err)
	}
	return records, nil
}

func (c *Client) Create(ctx context.Context, p Payload) error {
	return c.send(ctx, "create note", http.MethodPost, c.mutationURL+createPath, p)
}

func (c *Client) Update(ctx context.Context, id string, p Payload) error {
	return c.send(ctx, "update note", http.MethodPost, c.mutationURL+updatePath+url.PathEscape(id), p)
}

// Delete removes a note. The API exposes deletion as a GET.
func (c *Client) Delete(ctx context.Context, id string) error {
	return c.send(ctx, "delete note", http.MethodGet, c.mutationURL+deletePath+url.PathEscape(id), nil)
}

// Authenticate checks a passkey. Only HTTP 200 counts as success.
func (c *Client) Authenticate(ctx context.Context, passkey string) error {
	resp, err := c.do(ctx, "authenticate", http.MethodPost, c.baseURL+authPath, authRequest{Token: passkey})
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return &StatusError{Op: "authenticate", Code: resp.StatusCode}
	}
	return nil
}

func (c *Client) send(ctx context.Context, op, method, target string, body any) error {
	resp, err := c.do(ctx, op, method, target, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	return nil
}

// do issues the request and returns the response for any 2xx status.
func (c *Client) do(ctx context.Context, op, method, target string, body any) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("%s: marshal request: %w", op, err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, fmt.Errorf("%s: create request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		return nil, &StatusError{Op: op, Code: resp.StatusCode}
	}
	return resp, nil
}
