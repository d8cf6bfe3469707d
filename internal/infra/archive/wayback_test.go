package archive

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func lookupAgainst(t *testing.T, handler http.HandlerFunc) (string, bool) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c := NewWithEndpoint(srv.URL, time.Second)
	return c.Lookup(context.Background(), "https://example.org/missing")
}

func TestLookupAvailableSnapshot(t *testing.T) {
	url, ok := lookupAgainst(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "https://example.org/missing", r.URL.Query().Get("url"))
		w.Write([]byte(`{"archived_snapshots":{"closest":{"available":true,"url":"https://web.archive.org/web/2024/https://example.org/missing"}}}`))
	})
	assert.True(t, ok)
	assert.Equal(t, "https://web.archive.org/web/2024/https://example.org/missing", url)
}

func TestLookupNoSnapshot(t *testing.T) {
	_, ok := lookupAgainst(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"archived_snapshots":{}}`))
	})
	assert.False(t, ok)
}

func TestLookupUnavailableSnapshot(t *testing.T) {
	_, ok := lookupAgainst(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"archived_snapshots":{"closest":{"available":false,"url":"https://web.archive.org/x"}}}`))
	})
	assert.False(t, ok)
}

func TestLookupServerError(t *testing.T) {
	_, ok := lookupAgainst(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})
	assert.False(t, ok)
}

func TestLookupMalformedBody(t *testing.T) {
	_, ok := lookupAgainst(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json at all`))
	})
	assert.False(t, ok)
}

func TestLookupTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on
	c := NewWithEndpoint(srv.URL, time.Second)
	_, ok := c.Lookup(context.Background(), "https://example.org/missing")
	assert.False(t, ok)
}
