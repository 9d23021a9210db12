package fetch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pngHeader is the 8-byte PNG signature followed by an IHDR chunk prefix.
var pngHeader = []byte{0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a, 0x00, 0x00, 0x00, 0x0d, 0x49, 0x48, 0x44, 0x52}

func testClient(opts Options) *Client {
	if opts.RetryDelay == 0 {
		opts.RetryDelay = time.Millisecond
	}
	return NewClient(opts)
}

func TestClient_Get_JSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, DefaultUserAgent, r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"a":1}`))
	}))
	defer server.Close()

	res, err := testClient(DefaultOptions()).Get(context.Background(), server.URL)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "OK", res.StatusMessage)
	assert.Equal(t, map[string]any{"a": json.Number("1")}, res.Content)
	assert.Equal(t, json.RawMessage(`{"a":1}`), res.Raw)
	assert.Nil(t, res.Buffer)
	assert.True(t, res.IsJSON())
	assert.False(t, res.Redirect)
}

func TestClient_Get_JRDContentType(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/jrd+json; charset=utf-8")
		_, _ = w.Write([]byte(`{"subject":"acct:bob@remote.example","links":[]}`))
	}))
	defer server.Close()

	res, err := testClient(DefaultOptions()).Get(context.Background(), server.URL)
	require.NoError(t, err)

	content, ok := res.Content.(map[string]any)
	require.True(t, ok, "expected JSON object, got %T", res.Content)
	assert.Equal(t, "acct:bob@remote.example", content["subject"])
}

func TestClient_Get_JSONKeptExactly(t *testing.T) {
	body := `{"z":"a&b<c>","properties":{"http://example.com/ns/id":12345678901234567890},"a":1.50}`
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	defer server.Close()

	res, err := testClient(DefaultOptions()).Get(context.Background(), server.URL)
	require.NoError(t, err)

	assert.Equal(t, body, string(res.Raw))
	props := res.Content.(map[string]any)["properties"].(map[string]any)
	assert.Equal(t, json.Number("12345678901234567890"), props["http://example.com/ns/id"])
}

func TestClient_Get_Image(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(pngHeader)
	}))
	defer server.Close()

	res, err := testClient(DefaultOptions()).Get(context.Background(), server.URL)
	require.NoError(t, err)

	assert.Nil(t, res.Content)
	assert.Equal(t, pngHeader, res.Buffer)
	assert.False(t, res.IsJSON())
}

func TestClient_Get_TextKinds(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		body        string
	}{
		{"plain", "text/plain; charset=utf-8", "hello"},
		{"html", "text/html", "<p>hi</p>"},
		{"xml", "application/xrd+xml", "<XRD/>"},
		{"upper case", "TEXT/HTML", "<P>HI</P>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", tt.contentType)
				_, _ = io.WriteString(w, tt.body)
			}))
			defer server.Close()

			res, err := testClient(DefaultOptions()).Get(context.Background(), server.URL)
			require.NoError(t, err)

			text, ok := res.Text()
			assert.True(t, ok)
			assert.Equal(t, tt.body, text)
			assert.Nil(t, res.Buffer)
		})
	}
}

func TestClient_Get_UnknownContentTypeKeepsBytes(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/octet-stream")
		_, _ = w.Write([]byte{1, 2, 3})
	}))
	defer server.Close()

	res, err := testClient(DefaultOptions()).Get(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, res.Buffer)
	assert.Nil(t, res.Content)
}

func TestClient_Get_InvalidJSONIsTerminal(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"a":`))
	}))
	defer server.Close()

	res, err := testClient(DefaultOptions()).Get(context.Background(), server.URL)
	require.Error(t, err)
	assert.Nil(t, res)
	assert.ErrorIs(t, err, ErrDecode)

	var decodeErr *DecodeError
	require.True(t, errors.As(err, &decodeErr))
	assert.Equal(t, http.StatusOK, decodeErr.StatusCode)
}

func TestClient_Get_TrailingGarbageAfterJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"a":1} {"b":2}`))
	}))
	defer server.Close()

	_, err := testClient(DefaultOptions()).Get(context.Background(), server.URL)
	assert.ErrorIs(t, err, ErrDecode)
}

func TestClient_Get_EmptyJSONBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	res, err := testClient(DefaultOptions()).Get(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
	assert.Equal(t, "Not Found", res.StatusMessage)
	assert.Nil(t, res.Content)
	assert.Nil(t, res.Buffer)
}

func TestClient_Get_HeadersAreCaseInsensitive(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("x-custom-thing", "yes")
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	res, err := testClient(DefaultOptions()).Get(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, "yes", res.Header.Get("X-Custom-Thing"))
}

func TestClient_Get_InvalidURL(t *testing.T) {
	client := testClient(DefaultOptions())

	for _, raw := range []string{"", "   ", "ftp://example.com/file", "mailto:bob@example.com", "/relative/path", "http://%zz"} {
		t.Run(raw, func(t *testing.T) {
			_, err := client.Get(context.Background(), raw)
			assert.ErrorIs(t, err, ErrInvalidURL)
		})
	}

	_, err := client.GetURL(context.Background(), nil)
	assert.ErrorIs(t, err, ErrInvalidURL)
}

func TestClient_GetURL_ParsedURL(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "acct:bob@remote.example", r.URL.Query().Get("resource"))
		w.Header().Set("Content-Type", "text/plain")
		_, _ = io.WriteString(w, "ok")
	}))
	defer server.Close()

	u, err := url.Parse(server.URL + "/.well-known/webfinger")
	require.NoError(t, err)
	u.RawQuery = url.Values{"resource": {"acct:bob@remote.example"}}.Encode()

	res, err := testClient(DefaultOptions()).GetURL(context.Background(), u)
	require.NoError(t, err)
	assert.Equal(t, "ok", res.Content)
}

func TestClient_Get_TransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	addr := server.URL
	server.Close()

	opts := DefaultOptions()
	opts.Retries = -1
	_, err := testClient(opts).Get(context.Background(), addr)
	assert.ErrorIs(t, err, ErrTransport)
}

func TestClient_Get_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(500 * time.Millisecond):
		case <-r.Context().Done():
		}
	}))
	defer server.Close()

	opts := DefaultOptions()
	opts.Timeout = 50 * time.Millisecond
	_, err := testClient(opts).Get(context.Background(), server.URL)
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestClient_Get_CallerCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := testClient(DefaultOptions()).Get(ctx, server.URL)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestClient_Get_BodyTooLarge(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write(make([]byte, 64))
	}))
	defer server.Close()

	opts := DefaultOptions()
	opts.MaxBodyBytes = 16
	_, err := testClient(opts).Get(context.Background(), server.URL)
	assert.ErrorIs(t, err, ErrBodyTooLarge)
}

func TestClient_Get_RetriesRetryableStatus(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	res, err := testClient(DefaultOptions()).Get(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, int32(3), calls.Load())
}

func TestClient_Get_RetriesAreBounded(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	res, err := testClient(DefaultOptions()).Get(context.Background(), server.URL)
	require.NoError(t, err, "the last retryable response is returned as-is")
	assert.Equal(t, http.StatusBadGateway, res.StatusCode)
	assert.Equal(t, int32(DefaultRetries+1), calls.Load())
}

func TestClient_Get_NoRetryOnClientError(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	res, err := testClient(DefaultOptions()).Get(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
	assert.Equal(t, int32(1), calls.Load())
}

func TestClient_Get_RetriesDisabled(t *testing.T) {
	for _, retries := range []int{0, -1} {
		t.Run(fmt.Sprintf("retries %d", retries), func(t *testing.T) {
			var calls atomic.Int32
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls.Add(1)
				w.WriteHeader(http.StatusServiceUnavailable)
			}))
			defer server.Close()

			opts := DefaultOptions()
			opts.Retries = retries
			res, err := testClient(opts).Get(context.Background(), server.URL)
			require.NoError(t, err)
			assert.Equal(t, http.StatusServiceUnavailable, res.StatusCode)
			assert.Equal(t, int32(1), calls.Load())
		})
	}
}

func TestNewClient_ZeroOptions(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	res, err := NewClient(Options{}).Get(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadGateway, res.StatusCode)
	assert.Equal(t, int32(1), calls.Load(), "zero Retries makes a single attempt")
}

func TestClient_Get_FollowsRedirects(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/old", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/new", http.StatusMovedPermanently)
	})
	mux.HandleFunc("/new", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"moved":true}`))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	res, err := testClient(DefaultOptions()).Get(context.Background(), server.URL+"/old")
	require.NoError(t, err)
	assert.False(t, res.Redirect)
	assert.Equal(t, server.URL+"/new", res.URL)
	assert.Equal(t, map[string]any{"moved": true}, res.Content)
}

func TestClient_Get_RedirectNotFollowed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Location", "https://elsewhere.example/target")
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(http.StatusMovedPermanently)
		_, _ = io.WriteString(w, "<a>moved</a>")
	}))
	defer server.Close()

	opts := DefaultOptions()
	opts.FollowRedirects = false
	res, err := testClient(opts).Get(context.Background(), server.URL)
	require.NoError(t, err)

	assert.True(t, res.Redirect)
	assert.Equal(t, "https://elsewhere.example/target", res.Location)
	assert.Equal(t, http.StatusMovedPermanently, res.StatusCode)
	assert.Equal(t, "<a>moved</a>", res.Content, "body is still decoded")
}

func TestClient_Get_RedirectWithoutLocation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusMovedPermanently)
	}))
	defer server.Close()

	for _, follow := range []bool{false, true} {
		t.Run(fmt.Sprintf("follow %v", follow), func(t *testing.T) {
			opts := DefaultOptions()
			opts.FollowRedirects = follow
			res, err := testClient(opts).Get(context.Background(), server.URL)
			require.NoError(t, err)

			assert.True(t, res.Redirect)
			assert.Equal(t, http.StatusMovedPermanently, res.StatusCode)
			assert.Empty(t, res.Location)
		})
	}
}

func TestClient_Get_RedirectLoopIsCapped(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Redirect(w, r, r.URL.Path, http.StatusFound)
	}))
	defer server.Close()

	opts := DefaultOptions()
	opts.MaxRedirects = 3
	_, err := testClient(opts).Get(context.Background(), server.URL+"/loop")
	assert.ErrorIs(t, err, ErrTooManyRedirects)
	assert.Equal(t, int32(4), calls.Load())
}

func TestClient_Get_RedirectToUnsupportedScheme(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Location", "file:///etc/passwd")
		w.WriteHeader(http.StatusFound)
	}))
	defer server.Close()

	_, err := testClient(DefaultOptions()).Get(context.Background(), server.URL)
	assert.ErrorIs(t, err, ErrInvalidURL)
}

func TestClient_Get_ExtraHeaders(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/jrd+json", r.Header.Get("Accept"))
		assert.Equal(t, "custom/2.0", r.Header.Get("User-Agent"))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	opts := DefaultOptions()
	opts.UserAgent = "custom/2.0"
	opts.Header = http.Header{"Accept": {"application/jrd+json"}}
	_, err := testClient(opts).Get(context.Background(), server.URL)
	require.NoError(t, err)
}

func TestClient_LogsDuration(t *testing.T) {
	var logs bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug})))
	defer slog.SetDefault(prev)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	_, err := testClient(DefaultOptions()).Get(context.Background(), server.URL)
	require.NoError(t, err)

	assert.Contains(t, logs.String(), `"msg":"request finished"`)
	assert.Contains(t, logs.String(), `"status":204`)
	assert.Contains(t, logs.String(), `"duration_ms":`)
}
