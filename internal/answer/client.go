// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package answer is the client for the handbook question-answering service.
//
// The service exposes a LangServe style endpoint: POST {base}/invoke with
// {config, kwargs, input: {input, chat_history}} and replies with the answer
// either inside an "output" envelope or at the top level.
package answer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/jeranaias/handbook-tui/internal/model"
)

// Configuration constants for the answer service.
const (
	// DefaultBaseURL is used when no URL is configured.
	DefaultBaseURL = "http://localhost:8080"

	// DefaultTimeout bounds a single invoke call.
	DefaultTimeout = 60 * time.Second

	// MaxResponseSize is the maximum accepted response body size.
	MaxResponseSize = 4 * 1024 * 1024

	// invokePath is appended to the base URL.
	invokePath = "/invoke"

	// maxErrorBody is how much of a non-2xx body is kept for the error message.
	maxErrorBody = 512

	userAgent = "handbook-tui/1.0"
)

// sharedHTTPClient pools connections across clients. Deadlines come from the
// request context, so the client itself has no timeout.
var sharedHTTPClient = &http.Client{
	Transport: &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        20,
		MaxIdleConnsPerHost: 4,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	},
}

// Error variables for answer service failures.
var (
	// ErrRequestFailed indicates the request could not be sent or no response arrived.
	ErrRequestFailed = errors.New("answer request failed")

	// ErrBadStatus indicates a non-2xx response.
	ErrBadStatus = errors.New("answer service returned an error status")

	// ErrMalformedResponse indicates the body could not be decoded.
	ErrMalformedResponse = errors.New("malformed answer response")

	// ErrEmptyAnswer indicates the body decoded but carried no answer.
	ErrEmptyAnswer = errors.New("answer missing from response")
)

// StatusError is returned for non-2xx responses. It matches ErrBadStatus
// with errors.Is.
type StatusError struct {
	Status int
	Body   string
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("answer service error (HTTP %d): %s", e.Status, e.Body)
	}
	return fmt.Sprintf("answer service error (HTTP %d)", e.Status)
}

// Unwrap lets errors.Is(err, ErrBadStatus) succeed.
func (e *StatusError) Unwrap() error {
	return ErrBadStatus
}

// =============================================================================
// WIRE TYPES
// =============================================================================

// HistoryEntry is one prior message sent as context.
type HistoryEntry struct {
	Type    string `json:"type"` // "human" or "ai"
	Content string `json:"content"`
}

// Input is the chain input.
type Input struct {
	Input       string         `json:"input"`
	ChatHistory []HistoryEntry `json:"chat_history,omitempty"`
}

// invokeRequest is the LangServe invoke body.
type invokeRequest struct {
	Config map[string]any `json:"config"`
	Kwargs map[string]any `json:"kwargs"`
	Input  Input          `json:"input"`
}

// invokeResponse accepts both {output: {answer}} and {answer}.
type invokeResponse struct {
	Output json.RawMessage `json:"output"`
	Answer *string         `json:"answer"`
}

type outputEnvelope struct {
	Answer *string `json:"answer"`
}

// HistoryFromTurns flattens completed turns into the wire history.
func HistoryFromTurns(turns []model.Turn) []HistoryEntry {
	if len(turns) == 0 {
		return nil
	}
	entries := make([]HistoryEntry, 0, len(turns)*2)
	for _, t := range turns {
		entries = append(entries,
			HistoryEntry{Type: "human", Content: t.User.Content},
			HistoryEntry{Type: "ai", Content: t.Reply.Content},
		)
	}
	return entries
}

// =============================================================================
// CLIENT
// =============================================================================

// Client talks to the answer service.
type Client struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
	minLatency time.Duration
	limiter    *rate.Limiter
	logger     *zap.Logger
}

// NewClient creates a client for baseURL. An empty URL selects DefaultBaseURL.
func NewClient(baseURL string) *Client {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: sharedHTTPClient,
		timeout:    DefaultTimeout,
		logger:     zap.NewNop(),
	}
}

// WithTimeout sets the per-call timeout. Zero or negative disables it.
func (c *Client) WithTimeout(timeout time.Duration) *Client {
	c.timeout = timeout
	return c
}

// WithHTTPClient replaces the pooled HTTP client.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	if hc != nil {
		c.httpClient = hc
	}
	return c
}

// WithRateLimit throttles calls to perSecond with the given burst.
// A non-positive rate removes the limiter.
func (c *Client) WithRateLimit(perSecond float64, burst int) *Client {
	if perSecond <= 0 {
		c.limiter = nil
		return c
	}
	if burst < 1 {
		burst = 1
	}
	c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	return c
}

// WithMinLatency delays every call by d before it is sent.
func (c *Client) WithMinLatency(d time.Duration) *Client {
	c.minLatency = d
	return c
}

// WithLogger sets the logger used for request logging.
func (c *Client) WithLogger(logger *zap.Logger) *Client {
	if logger != nil {
		c.logger = logger
	}
	return c
}

// BaseURL returns the configured base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Answer implements the conversation answerer on top of Invoke.
func (c *Client) Answer(ctx context.Context, question string, history []model.Turn) (string, error) {
	return c.Invoke(ctx, question, HistoryFromTurns(history))
}

// Invoke sends question with history and returns the answer text.
// Every failure wraps one of the package error variables.
func (c *Client) Invoke(ctx context.Context, question string, history []HistoryEntry) (string, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	if err := c.wait(ctx); err != nil {
		return "", fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}

	body, err := json.Marshal(invokeRequest{
		Config: map[string]any{},
		Kwargs: map[string]any{},
		Input:  Input{Input: question, ChatHistory: history},
	})
	if err != nil {
		return "", fmt.Errorf("%w: encode request: %v", ErrRequestFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+invokePath, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug("invoke failed", zap.String("url", req.URL.String()), zap.Error(err))
		return "", fmt.Errorf("%w: %w", ErrRequestFailed, err)
	}
	defer resp.Body.Close()

	c.logger.Debug("invoke response",
		zap.Int("status", resp.StatusCode),
		zap.Duration("latency", time.Since(start)),
		zap.Int("history", len(history)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return "", &StatusError{Status: resp.StatusCode, Body: strings.TrimSpace(string(snippet))}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize+1))
	if err != nil {
		return "", fmt.Errorf("%w: read body: %w", ErrRequestFailed, err)
	}
	if len(data) > MaxResponseSize {
		return "", fmt.Errorf("%w: response exceeds %d bytes", ErrMalformedResponse, MaxResponseSize)
	}

	return parseAnswer(data)
}

// wait applies the minimum latency and the rate limiter.
func (c *Client) wait(ctx context.Context) error {
	if c.minLatency > 0 {
		timer := time.NewTimer(c.minLatency)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}
	if c.limiter != nil {
		return c.limiter.Wait(ctx)
	}
	return nil
}

// parseAnswer extracts the answer from either response shape.
func parseAnswer(data []byte) (string, error) {
	var resp invokeResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	var answer *string
	if len(resp.Output) > 0 && string(resp.Output) != "null" {
		var env outputEnvelope
		if err := json.Unmarshal(resp.Output, &env); err == nil {
			answer = env.Answer
		} else {
			// Some chains return the answer string directly as output.
			var s string
			if err := json.Unmarshal(resp.Output, &s); err != nil {
				return "", fmt.Errorf("%w: unexpected output shape", ErrMalformedResponse)
			}
			answer = &s
		}
	}
	if answer == nil {
		answer = resp.Answer
	}

	if answer == nil || strings.TrimSpace(*answer) == "" {
		return "", ErrEmptyAnswer
	}
	return *answer, nil
}
