package rangereader

import (
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestHTTP_ReadAt_SuccessfulRange(t *testing.T) {
	data := fixtureData(1000)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPartialContent)
		_, _ = w.Write(data[100:150])
	}))
	defer srv.Close()

	src, err := NewHTTP(srv.Client(), srv.URL)
	require.NoError(t, err)

	got, err := src.ReadAt(t.Context(), 100, 50)
	require.NoError(t, err)
	require.Equal(t, data[100:150], got)
}

func TestHTTP_ReadAt_RetriesOn5xxThenSucceeds(t *testing.T) {
	var attempts int64

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt64(&attempts, 1)
		if n < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)

			return
		}

		w.WriteHeader(http.StatusPartialContent)
		_, _ = w.Write([]byte("hello"))
	}))
	defer srv.Close()

	src, err := NewHTTP(srv.Client(), srv.URL, WithRetryPolicy(RetryPolicy{
		MaxRetries: 5,
		BaseDelay:  time.Millisecond,
		MaxDelay:   5 * time.Millisecond,
	}))
	require.NoError(t, err)

	got, err := src.ReadAt(t.Context(), 0, 5)
	require.NoError(t, err)
	require.Equal(t, []byte("hello"), got)
	require.EqualValues(t, 3, atomic.LoadInt64(&attempts))
}

func TestHTTP_ReadAt_FailsFastOn4xx(t *testing.T) {
	var attempts int64

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&attempts, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	src, err := NewHTTP(srv.Client(), srv.URL, WithMaxRetries(5))
	require.NoError(t, err)

	_, err = src.ReadAt(t.Context(), 0, 5)
	require.Error(t, err)
	require.EqualValues(t, 1, atomic.LoadInt64(&attempts))
}

func TestHTTP_Size_UsesContentLength(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "12345")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	src, err := NewHTTP(srv.Client(), srv.URL)
	require.NoError(t, err)

	size, err := src.Size(t.Context())
	require.NoError(t, err)
	require.EqualValues(t, 12345, size)
}
