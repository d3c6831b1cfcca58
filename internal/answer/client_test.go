// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package answer

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/handbook-tui/internal/model"
)

// newServer returns a server that records the decoded request and replies
// with status and body.
func newServer(t *testing.T, status int, body string, got *invokeRequest) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/invoke" {
			http.NotFound(w, r)
			return
		}
		if got != nil {
			if err := json.NewDecoder(r.Body).Decode(got); err != nil {
				t.Errorf("decode request: %v", err)
			}
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

// =============================================================================
// INVOKE TESTS
// =============================================================================

func TestInvoke_LangServeEnvelope(t *testing.T) {
	var got invokeRequest
	srv := newServer(t, http.StatusOK, `{"output":{"answer":"Three tardies equal one absence."}}`, &got)

	answer, err := NewClient(srv.URL).Invoke(context.Background(), "How many tardies equal one absence?", nil)
	require.NoError(t, err)
	assert.Equal(t, "Three tardies equal one absence.", answer)

	assert.Equal(t, "How many tardies equal one absence?", got.Input.Input)
	assert.Empty(t, got.Input.ChatHistory)
	assert.NotNil(t, got.Config)
	assert.NotNil(t, got.Kwargs)
}

func TestInvoke_TopLevelAnswer(t *testing.T) {
	srv := newServer(t, http.StatusOK, `{"answer":"Yes."}`, nil)
	answer, err := NewClient(srv.URL + "/").Invoke(context.Background(), "q", nil)
	require.NoError(t, err)
	assert.Equal(t, "Yes.", answer)
}

func TestInvoke_StringOutput(t *testing.T) {
	srv := newServer(t, http.StatusOK, `{"output":"Plain output."}`, nil)
	answer, err := NewClient(srv.URL).Invoke(context.Background(), "q", nil)
	require.NoError(t, err)
	assert.Equal(t, "Plain output.", answer)
}

func TestInvoke_OmitsEmptyHistory(t *testing.T) {
	var raw map[string]json.RawMessage
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Input map[string]json.RawMessage `json:"input"`
		}
		json.NewDecoder(r.Body).Decode(&body)
		raw = body.Input
		w.Write([]byte(`{"answer":"ok"}`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).Invoke(context.Background(), "q", nil)
	require.NoError(t, err)
	_, present := raw["chat_history"]
	assert.False(t, present, "chat_history must be omitted when empty")
}

func TestInvoke_SendsHistory(t *testing.T) {
	var got invokeRequest
	srv := newServer(t, http.StatusOK, `{"answer":"ok"}`, &got)

	turns := []model.Turn{{
		User:  model.NewUserMessage("first"),
		Reply: model.NewAssistantMessage("reply"),
	}}
	_, err := NewClient(srv.URL).Answer(context.Background(), "second", turns)
	require.NoError(t, err)

	assert.Equal(t, []HistoryEntry{
		{Type: "human", Content: "first"},
		{Type: "ai", Content: "reply"},
	}, got.Input.ChatHistory)
}

func TestInvoke_Failures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{"server error", http.StatusInternalServerError, `boom`, ErrBadStatus},
		{"not found", http.StatusNotFound, ``, ErrBadStatus},
		{"not json", http.StatusOK, `<html>`, ErrMalformedResponse},
		{"wrong output shape", http.StatusOK, `{"output":[1,2]}`, ErrMalformedResponse},
		{"missing answer", http.StatusOK, `{"output":{}}`, ErrEmptyAnswer},
		{"blank answer", http.StatusOK, `{"answer":"   "}`, ErrEmptyAnswer},
		{"null output", http.StatusOK, `{"output":null}`, ErrEmptyAnswer},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newServer(t, tt.status, tt.body, nil)
			_, err := NewClient(srv.URL).Invoke(context.Background(), "q", nil)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}

func TestInvoke_StatusErrorIsTyped(t *testing.T) {
	srv := newServer(t, http.StatusBadGateway, `upstream down`, nil)
	_, err := NewClient(srv.URL).Invoke(context.Background(), "q", nil)

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusBadGateway, statusErr.Status)
	assert.Contains(t, statusErr.Error(), "upstream down")
}

func TestInvoke_TransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := NewClient(url).Invoke(context.Background(), "q", nil)
	assert.ErrorIs(t, err, ErrRequestFailed)
}

func TestInvoke_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	start := time.Now()
	_, err := NewClient(srv.URL).WithTimeout(50*time.Millisecond).Invoke(context.Background(), "q", nil)
	assert.ErrorIs(t, err, ErrRequestFailed)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestInvoke_MinLatencyHonorsContext(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte(`{"answer":"ok"}`))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewClient(srv.URL).WithMinLatency(time.Hour).Invoke(ctx, "q", nil)
	assert.ErrorIs(t, err, ErrRequestFailed)
	assert.Zero(t, calls.Load())
}

func TestInvoke_RateLimit(t *testing.T) {
	srv := newServer(t, http.StatusOK, `{"answer":"ok"}`, nil)
	c := NewClient(srv.URL).WithRateLimit(1000, 1)
	for i := 0; i < 3; i++ {
		_, err := c.Invoke(context.Background(), "q", nil)
		require.NoError(t, err)
	}
	assert.Nil(t, c.WithRateLimit(0, 0).limiter)
}

func TestNewClient_Defaults(t *testing.T) {
	c := NewClient("  ")
	assert.Equal(t, DefaultBaseURL, c.BaseURL())
	assert.Equal(t, DefaultTimeout, c.timeout)
	assert.Equal(t, "http://x:1", NewClient("http://x:1/").BaseURL())
}

func TestHistoryFromTurns_Empty(t *testing.T) {
	assert.Nil(t, HistoryFromTurns(nil))
}
