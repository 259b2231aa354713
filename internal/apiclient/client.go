// Package apiclient is the typed HTTP client of the event API. Reads of a
// single event and of the event list go through a short-lived TTL cache;
// writes always hit the network and invalidate the entries they affect.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/prohmpiriya/event-planner/internal/domain"
	"github.com/prohmpiriya/event-planner/pkg/cache"
	"github.com/prohmpiriya/event-planner/pkg/logger"
	"github.com/prohmpiriya/event-planner/pkg/telemetry"
)

// ListKey is the cache key of the event list
const ListKey = "events:list"

// EventKey is the cache key of a single event
func EventKey(id string) string {
	return "event:" + id
}

// maxBodySize caps how much of a response is read
const maxBodySize = 10 << 20

// Config holds client configuration
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// Client talks to the event API
type Client struct {
	baseURL string
	http    *http.Client
	cache   *cache.TTL
	log     *logger.Logger
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithLogger sets the logger, logger.Get() by default
func WithLogger(l *logger.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

// New creates a client. The cache is shared by every caller of the client;
// pass a fresh cache.New() per test.
func New(cfg *Config, ttlCache *cache.TTL, opts ...Option) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	if ttlCache == nil {
		ttlCache = cache.New()
	}

	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   5 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   20,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   5 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		ForceAttemptHTTP2:     true,
	}

	c := &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    &http.Client{Transport: transport, Timeout: timeout},
		cache:   ttlCache,
		log:     logger.Get(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Cache exposes the client's cache
func (c *Client) Cache() *cache.TTL {
	return c.cache
}

// List returns every event, from cache when fresh
func (c *Client) List(ctx context.Context) ([]*domain.Event, error) {
	if events, ok := cache.Lookup[[]*domain.Event](c.cache, ListKey); ok {
		c.log.Debug("event list cache hit")
		return cloneEvents(events), nil
	}

	ctx, span := telemetry.StartSpan(ctx, "apiclient.List")
	defer span.End()

	var events []*domain.Event
	if err := c.do(ctx, "list", http.MethodGet, "/events", nil, "", msgListFailed, &events); err != nil {
		c.fail(ctx, "list", "", err)
		return nil, err
	}
	if events == nil {
		events = []*domain.Event{}
	}
	c.cache.Set(ListKey, events)
	return cloneEvents(events), nil
}

// Get returns one event, from cache when fresh. A missing event yields an
// error matching domain.ErrNotFound.
func (c *Client) Get(ctx context.Context, id string) (*domain.Event, error) {
	if e, ok := cache.Lookup[*domain.Event](c.cache, EventKey(id)); ok {
		c.log.Debug("event cache hit", zap.String("event_id", id))
		return e.Clone(), nil
	}

	ctx, span := telemetry.StartSpan(ctx, "apiclient.Get")
	defer span.End()
	telemetry.SetSpanAttributes(ctx, attribute.String("event.id", id))

	var e domain.Event
	if err := c.do(ctx, "get", http.MethodGet, eventPath(id), nil, "", msgGetFailed, &e); err != nil {
		c.fail(ctx, "get", id, err)
		return nil, err
	}
	c.cache.Set(EventKey(id), &e)
	return e.Clone(), nil
}

// Create posts a new event and returns the server's representation
func (c *Client) Create(ctx context.Context, e *domain.Event) (*domain.Event, error) {
	ctx, span := telemetry.StartSpan(ctx, "apiclient.Create")
	defer span.End()

	created, err := c.sendJSON(ctx, "create", http.MethodPost, "/events", e, msgCreateFailed)
	if err != nil {
		c.fail(ctx, "create", "", err)
		return nil, err
	}
	c.cache.Invalidate(ListKey)
	return created, nil
}

// Update sends a partial update and returns the server's representation
func (c *Client) Update(ctx context.Context, id string, patch *domain.EventPatch) (*domain.Event, error) {
	if patch == nil {
		patch = &domain.EventPatch{}
	}
	ctx, span := telemetry.StartSpan(ctx, "apiclient.Update")
	defer span.End()
	telemetry.SetSpanAttributes(ctx,
		attribute.String("event.id", id),
		attribute.StringSlice("event.fields", patch.Fields()),
	)

	updated, err := c.sendJSON(ctx, "update", http.MethodPatch, eventPath(id), patch, msgUpdateFailed)
	if err != nil {
		c.fail(ctx, "update", id, err)
		return nil, err
	}
	c.cache.Invalidate(EventKey(id))
	c.cache.Invalidate(ListKey)
	return updated, nil
}

// Delete removes an event permanently
func (c *Client) Delete(ctx context.Context, id string) error {
	ctx, span := telemetry.StartSpan(ctx, "apiclient.Delete")
	defer span.End()
	telemetry.SetSpanAttributes(ctx, attribute.String("event.id", id))

	if err := c.do(ctx, "delete", http.MethodDelete, eventPath(id), nil, "", msgDeleteFailed, nil); err != nil {
		c.fail(ctx, "delete", id, err)
		return err
	}
	c.cache.Invalidate(EventKey(id))
	c.cache.Invalidate(ListKey)
	return nil
}

// Duplicate asks the server for a draft copy of an event
func (c *Client) Duplicate(ctx context.Context, id string) (*domain.Event, error) {
	ctx, span := telemetry.StartSpan(ctx, "apiclient.Duplicate")
	defer span.End()

	var dup domain.Event
	if err := c.do(ctx, "duplicate", http.MethodPost, eventPath(id)+"/duplicate", nil, "", msgDuplicateFailed, &dup); err != nil {
		c.fail(ctx, "duplicate", id, err)
		return nil, err
	}
	c.cache.Invalidate(ListKey)
	return &dup, nil
}

// CreateRecurrences materializes the occurrences of a recurring event
func (c *Client) CreateRecurrences(ctx context.Context, id string) ([]*domain.Event, error) {
	ctx, span := telemetry.StartSpan(ctx, "apiclient.CreateRecurrences")
	defer span.End()

	var events []*domain.Event
	if err := c.do(ctx, "recurrences", http.MethodPost, eventPath(id)+"/recurrences", nil, "", msgRecurFailed, &events); err != nil {
		c.fail(ctx, "recurrences", id, err)
		return nil, err
	}
	c.cache.Invalidate(ListKey)
	return events, nil
}

// ChangeLog returns the audit trail of an event. It is never cached.
func (c *Client) ChangeLog(ctx context.Context, id string) ([]domain.ChangeLogEntry, error) {
	ctx, span := telemetry.StartSpan(ctx, "apiclient.ChangeLog")
	defer span.End()

	var entries []domain.ChangeLogEntry
	if err := c.do(ctx, "changelog", http.MethodGet, eventPath(id)+"/changelog", nil, "", msgChangeLogFailed, &entries); err != nil {
		c.fail(ctx, "changelog", id, err)
		return nil, err
	}
	return entries, nil
}

// UploadContract uploads a contract document as the multipart "file" field
func (c *Client) UploadContract(ctx context.Context, id, filename string, r io.Reader) (*domain.ContractDocument, error) {
	ctx, span := telemetry.StartSpan(ctx, "apiclient.UploadContract")
	defer span.End()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return nil, &RequestFailedError{Op: "upload", Message: msgUploadFailed, Err: err}
	}
	if _, err := io.Copy(part, r); err != nil {
		return nil, &RequestFailedError{Op: "upload", Message: msgUploadFailed, Err: err}
	}
	if err := mw.Close(); err != nil {
		return nil, &RequestFailedError{Op: "upload", Message: msgUploadFailed, Err: err}
	}

	var doc domain.ContractDocument
	if err := c.do(ctx, "upload", http.MethodPost, eventPath(id)+"/contract", &buf, mw.FormDataContentType(), msgUploadFailed, &doc); err != nil {
		c.fail(ctx, "upload", id, err)
		return nil, err
	}
	c.cache.Invalidate(EventKey(id))
	c.cache.Invalidate(ListKey)
	return &doc, nil
}

// PreloadEvent warms the cache for one event. Failures are only logged.
func (c *Client) PreloadEvent(ctx context.Context, id string) {
	if _, err := c.Get(ctx, id); err != nil {
		c.log.Warn("preload event failed", zap.String("event_id", id), zap.Error(err))
	}
}

// PreloadEventList warms the cache for the event list. Failures are only logged.
func (c *Client) PreloadEventList(ctx context.Context) {
	if _, err := c.List(ctx); err != nil {
		c.log.Warn("preload event list failed", zap.Error(err))
	}
}

func (c *Client) sendJSON(ctx context.Context, op, method, path string, payload any, fallback string) (*domain.Event, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, &RequestFailedError{Op: op, Message: fallback, Err: fmt.Errorf("encode request: %w", err)}
	}
	var out domain.Event
	if err := c.do(ctx, op, method, path, bytes.NewReader(body), "application/json", fallback, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// do performs one request. Any failure is returned as *RequestFailedError.
func (c *Client) do(ctx context.Context, op, method, path string, body io.Reader, contentType, fallback string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return &RequestFailedError{Op: op, Message: fallback, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	telemetry.InjectHTTPHeaders(ctx, req.Header)

	resp, err := c.http.Do(req)
	if err != nil {
		return &RequestFailedError{Op: op, Message: fallback, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return &RequestFailedError{Op: op, StatusCode: resp.StatusCode, Message: fallback, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &RequestFailedError{
			Op:         op,
			StatusCode: resp.StatusCode,
			Message:    errorMessage(data, fallback),
			Err:        fmt.Errorf("unexpected status %d", resp.StatusCode),
		}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &RequestFailedError{Op: op, StatusCode: resp.StatusCode, Message: fallback, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

func (c *Client) fail(ctx context.Context, op, id string, err error) {
	telemetry.SetSpanError(ctx, err)
	fields := []zap.Field{zap.String("op", op), zap.Error(err)}
	if id != "" {
		fields = append(fields, zap.String("event_id", id))
	}
	var rf *RequestFailedError
	if errors.As(err, &rf) && rf.StatusCode != 0 {
		fields = append(fields, zap.Int("status", rf.StatusCode))
	}
	c.log.Error("event api request failed", fields...)
}

// errorMessage extracts the "error" field of a JSON error body
func errorMessage(data []byte, fallback string) string {
	var body struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(data, &body); err == nil && body.Error != "" {
		return body.Error
	}
	return fallback
}

func eventPath(id string) string {
	return "/events/" + url.PathEscape(id)
}

func cloneEvents(events []*domain.Event) []*domain.Event {
	out := make([]*domain.Event, len(events))
	for i, e := range events {
		out[i] = e.Clone()
	}
	return out
}
