package sanity

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client := NewClient(Config{
		ProjectID:  "testproj",
		Dataset:    "production",
		APIVersion: "2024-01-01",
		Token:      "test-token",
		BaseURL:    srv.URL,
	}, nil)
	client.SetSleepForTest(func(context.Context, time.Duration) error { return nil })
	return client
}

func TestFetchBindsParams(t *testing.T) {
	var gotQuery, gotSlug, gotAuth, gotPath string

	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.Query().Get("query")
		gotSlug = r.URL.Query().Get("$slug")
		gotAuth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`{"result": {"title": "Hello"}}`))
	})

	raw, err := client.Fetch(context.Background(),
		`*[_type == "blogPost" && slug.current == $slug][0]`,
		map[string]any{"slug": "hello-world"})
	require.NoError(t, err)

	assert.Equal(t, "/v2024-01-01/data/query/production", gotPath)
	assert.Contains(t, gotQuery, "slug.current == $slug")
	// Parameter values travel JSON-encoded, so string values are quoted.
	assert.Equal(t, `"hello-world"`, gotSlug)
	assert.Equal(t, "Bearer test-token", gotAuth)

	var result struct {
		Title string `json:"title"`
	}
	require.NoError(t, json.Unmarshal(raw, &result))
	assert.Equal(t, "Hello", result.Title)
}

func TestFetchNullResult(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"result": null}`))
	})

	raw, err := client.Fetch(context.Background(), `*[_type == "personalInfo"][0]`, nil)
	require.NoError(t, err)

	var info *struct{ Name string }
	require.NoError(t, json.Unmarshal(raw, &info))
	assert.Nil(t, info)
}

func TestFetchRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32

	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"result": []}`))
	})

	_, err := client.Fetch(context.Background(), `*[_type == "project"]`, nil)
	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load())
}

func TestFetchDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32

	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error": "invalid query"}`))
	})

	_, err := client.Fetch(context.Background(), `bogus`, nil)
	require.Error(t, err)

	var httpErr *HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusBadRequest, httpErr.StatusCode)
	assert.Equal(t, int32(1), calls.Load())
}

func TestFetchRetryAbortsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var calls atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		cancel()
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	t.Cleanup(srv.Close)

	// Real backoff sleep: cancellation must cut it short instead of
	// waiting out the delay.
	client := NewClient(Config{
		ProjectID:  "testproj",
		Dataset:    "production",
		APIVersion: "2024-01-01",
		BaseURL:    srv.URL,
	}, nil)

	start := time.Now()
	_, err := client.Fetch(ctx, `*[_type == "project"]`, nil)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, int32(1), calls.Load())
	assert.Less(t, time.Since(start), baseDelay)
}

func TestFetchGivesUpAfterMaxRetries(t *testing.T) {
	var calls atomic.Int32

	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := client.Fetch(context.Background(), `*[_type == "project"]`, nil)
	require.Error(t, err)
	assert.Equal(t, int32(maxRetries), calls.Load())
}

func TestCreateSendsMutation(t *testing.T) {
	var gotMethod, gotPath string
	var gotBody map[string]any

	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		_, _ = w.Write([]byte(`{"transactionId": "tx1"}`))
	})

	err := client.Create(context.Background(), map[string]any{
		"_type": "subscriber",
		"email": "user@example.com",
	})
	require.NoError(t, err)

	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "/v2024-01-01/data/mutate/production", gotPath)

	mutations := gotBody["mutations"].([]any)
	require.Len(t, mutations, 1)
	create := mutations[0].(map[string]any)["create"].(map[string]any)
	assert.Equal(t, "subscriber", create["_type"])
	assert.Equal(t, "user@example.com", create["email"])
}

func TestCreateDoesNotRetry(t *testing.T) {
	var calls atomic.Int32

	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	err := client.Create(context.Background(), map[string]any{"_type": "subscriber"})
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestNewClientHostSelection(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want string
	}{
		{
			name: "live API host by default",
			cfg:  Config{ProjectID: "abc"},
			want: "https://abc.api.sanity.io",
		},
		{
			name: "CDN host when enabled without token",
			cfg:  Config{ProjectID: "abc", UseCDN: true},
			want: "https://abc.apicdn.sanity.io",
		},
		{
			name: "token forces live host",
			cfg:  Config{ProjectID: "abc", UseCDN: true, Token: "secret"},
			want: "https://abc.api.sanity.io",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NewClient(tt.cfg, nil).baseURL)
		})
	}
}
