package covers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookupClient(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		status        int
		body          string
		expectedURL   string
		expectedError string
	}{
		{"url", http.StatusOK, `{"url":"https://covers.test/a.jpg","error":null}`, "https://covers.test/a.jpg", ""},
		{"api error", http.StatusNotFound, `{"url":null,"error":"No cover found"}`, "", "No cover found"},
		{"null body", http.StatusOK, `null`, "", "No response from cover API"},
		{"empty body", http.StatusInternalServerError, ``, "", "No response from cover API"},
		{"garbage", http.StatusOK, `<html>`, "", "Unknown error from cover API"},
		{"empty object", http.StatusOK, `{}`, "", "Unknown error from cover API"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/bookcover", r.URL.Path)
				assert.Equal(t, "9780316272247", r.URL.Query().Get("isbn"))
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			client := NewLookupClient(srv.URL+"/", time.Second)
			result, err := client.Get(context.Background(), "9780316272247")
			require.NoError(t, err)

			if tt.expectedURL != "" {
				require.NotNil(t, result.URL)
				assert.Equal(t, tt.expectedURL, *result.URL)
			} else {
				assert.Nil(t, result.URL)
			}
			if tt.expectedError != "" {
				require.NotNil(t, result.Error)
				assert.Equal(t, tt.expectedError, *result.Error)
			} else {
				assert.Nil(t, result.Error)
			}
		})
	}
}

func TestLookupClient_Unreachable(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewLookupClient(url, time.Second).Get(context.Background(), "9780316272247")
	assert.Error(t, err)
}

func TestLimiter(t *testing.T) {
	t.Parallel()

	l := NewLimiter("test", 0, time.Hour)
	assert.Equal(t, "test", l.Name())

	// The single token is available immediately.
	require.NoError(t, l.Wait(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.Error(t, l.Wait(ctx))
}
