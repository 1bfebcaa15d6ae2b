package invalidate

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNotifierPostsItemPath(t *testing.T) {
	var path string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		assert.Equal(t, http.MethodPost, r.Method)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	n := NewNotifier(server.URL+"/invalidate", testLogger())
	n.Invalidate(42)

	assert.Equal(t, "/invalidate/42", path)
}

func TestNotifierSwallowsFailures(t *testing.T) {
	t.Run("unreachable gateway", func(t *testing.T) {
		n := NewNotifier("http://127.0.0.1:1/invalidate", testLogger())
		assert.NotPanics(t, func() { n.Invalidate(1) })
	})

	t.Run("gateway error status", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		n := NewNotifier(server.URL+"/invalidate", testLogger())
		assert.NotPanics(t, func() { n.Invalidate(1) })
	})
}
