package openrouter

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func delta(s string) string {
	return fmt.Sprintf(`{"choices":[{"delta":{"content":%q},"finish_reason":null}]}`, s)
}

func sse(w http.ResponseWriter, lines ...string) {
	w.Header().Set("Content-Type", "text/event-stream")
	for _, l := range lines {
		fmt.Fprintf(w, "%s\n\n", l)
		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
	}
}

func TestStreamRelaysDeltas(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer k", r.Header.Get("Authorization"))
		assert.Equal(t, "pagegen", r.Header.Get("X-Title"))
		assert.Equal(t, "https://example.com", r.Header.Get("HTTP-Referer"))

		var req chatCompletionsRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.True(t, req.Stream)
		assert.Equal(t, "some/model", req.Model)
		if assert.Len(t, req.Messages, 1) {
			assert.Equal(t, "user", req.Messages[0].Role)
			assert.Equal(t, "prompt", req.Messages[0].Content)
		}

		sse(w,
			": OPENROUTER PROCESSING",
			"data: "+delta("Hello"),
			"data: "+`{"choices":[{"delta":{"role":"assistant"}}]}`,
			"data: "+delta(" world"),
			"data: [DONE]",
		)
	}))
	defer srv.Close()

	c := New("k", srv.URL, "some/model", "pagegen", "https://example.com")
	ch, err := c.Stream(context.Background(), "prompt")
	require.NoError(t, err)

	var got []string
	for ev := range ch {
		require.NoError(t, ev.Err)
		got = append(got, ev.Text)
	}
	assert.Equal(t, []string{"Hello", " world"}, got)
}

func TestStreamErrors(t *testing.T) {
	t.Run("status", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			io.WriteString(w, `{"error":{"code":401,"message":"No auth credentials found"}}`)
		}))
		defer srv.Close()

		_, err := New("k", srv.URL, "", "", "").Stream(context.Background(), "p")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "No auth credentials found")
	})

	t.Run("mid-stream error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sse(w, "data: "+delta("part"), `data: {"error":{"code":502,"message":"provider overloaded"}}`)
		}))
		defer srv.Close()

		ch, err := New("k", srv.URL, "", "", "").Stream(context.Background(), "p")
		require.NoError(t, err)
		ev := <-ch
		assert.Equal(t, "part", ev.Text)
		ev = <-ch
		require.Error(t, ev.Err)
		assert.Contains(t, ev.Err.Error(), "provider overloaded")
		_, open := <-ch
		assert.False(t, open)
	})

	t.Run("empty", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sse(w, "data: [DONE]")
		}))
		defer srv.Close()

		ch, err := New("k", srv.URL, "", "", "").Stream(context.Background(), "p")
		require.NoError(t, err)
		ev := <-ch
		assert.Error(t, ev.Err)
	})
}

func TestPing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/key", r.URL.Path)
		if r.Header.Get("Authorization") != "Bearer good" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		io.WriteString(w, `{"data":{"label":"pagegen"}}`)
	}))
	defer srv.Close()

	assert.NoError(t, New("good", srv.URL, "", "", "").Ping(context.Background()))
	assert.EqualError(t, New("bad", srv.URL, "", "", "").Ping(context.Background()), "openrouter http 401")
}
