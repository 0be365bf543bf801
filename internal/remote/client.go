package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mmcdole/shelf/internal/domain"
)

const (
	defaultTimeout = 10 * time.Second
	userAgent      = "Shelf/1.0"
	booksPath      = "/api/books"
	healthPath     = "/api/health"
)

// StatusError is returned when the server answers with anything but 200.
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: unexpected status %d", e.Method, e.Path, e.StatusCode)
}

// Client implements domain.RemoteStore over the catalog's JSON HTTP API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a catalog API client. A zero timeout uses the default.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// BaseURL returns the server URL the client talks to
func (c *Client) BaseURL() string {
	return c.baseURL
}

// doRequest performs an HTTP request and returns the body of a 200 response
func (c *Client) doRequest(ctx context.Context, method, path string, payload any) ([]byte, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.logger.Debug("remote request", "method", method, "path", path)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug("remote request failed", "method", method, "path", path, "error", err)
		return nil, fmt.Errorf("%w: %v", domain.ErrServerOffline, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		c.logger.Debug("remote request error", "method", method, "path", path, "status", resp.StatusCode)
		return nil, &StatusError{
			Method:     method,
			Path:       path,
			StatusCode: resp.StatusCode,
			Body:       string(respBody),
		}
	}

	return respBody, nil
}

func bookPath(id string) string {
	return booksPath + "/" + url.PathEscape(id)
}

// List returns every book held by the server
func (c *Client) List(ctx context.Context) ([]domain.Book, error) {
	body, err := c.doRequest(ctx, http.MethodGet, booksPath, nil)
	if err != nil {
		return nil, err
	}

	var dtos []bookDTO
	if err := json.Unmarshal(body, &dtos); err != nil {
		return nil, fmt.Errorf("failed to parse book list: %w", err)
	}
	return mapBooks(dtos), nil
}

// Get returns a single book. The server answers with an array that is
// empty when the book does not exist.
func (c *Client) Get(ctx context.Context, id string) (domain.Book, error) {
	body, err := c.doRequest(ctx, http.MethodGet, bookPath(id), nil)
	if err != nil {
		var se *StatusError
		if errors.As(err, &se) && se.StatusCode == http.StatusNotFound {
			return domain.Book{}, domain.ErrNotFound
		}
		return domain.Book{}, err
	}

	var dtos []bookDTO
	if err := json.Unmarshal(body, &dtos); err != nil {
		return domain.Book{}, fmt.Errorf("failed to parse book: %w", err)
	}
	books := mapBooks(dtos)
	if len(books) == 0 {
		return domain.Book{}, domain.ErrNotFound
	}
	return books[0], nil
}

// CreateOrUpdate stores the book. An empty ID is sent as null and the
// server assigns one. A bare status response echoes the input, so a
// create acknowledged that way comes back without an ID.
func (c *Client) CreateOrUpdate(ctx context.Context, book domain.Book) (domain.Book, error) {
	body, err := c.doRequest(ctx, http.MethodPost, booksPath, toDTO(book))
	if err != nil {
		return domain.Book{}, err
	}

	if len(bytes.TrimSpace(body)) == 0 {
		return book, nil
	}
	var dto bookDTO
	if err := json.Unmarshal(body, &dto); err != nil {
		// The write was acknowledged; a malformed echo does not undo it
		c.logger.Warn("unreadable save response", "error", err)
		return book, nil
	}
	saved := mapBook(dto)
	if saved.ID == "" {
		saved.ID = book.ID
	}
	return saved, nil
}

// Delete removes the book by ID
func (c *Client) Delete(ctx context.Context, id string) error {
	_, err := c.doRequest(ctx, http.MethodDelete, bookPath(id), nil)
	return err
}

// Ping checks that the server answers at all
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.doRequest(ctx, http.MethodGet, healthPath, nil)
	return err
}
