package catalog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testFetcher(baseURL string, retries int) *HTTPFetcher {
	return NewHTTPFetcher(HTTPFetcherConfig{
		BaseURL: baseURL,
		Timeout: 5 * time.Second,
		Retries: retries,
		Backoff: time.Millisecond,
	}, nil)
}

func TestHTTPFetcherIndex(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[
			{"service": "s3", "url": "https://catalog.test/s3.json"},
			{"service": "ec2", "url": "https://catalog.test/ec2.json"}
		]`))
	}))
	defer server.Close()

	refs, err := testFetcher(server.URL, 0).FetchIndex(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []ServiceRef{
		{Name: "s3", URL: "https://catalog.test/s3.json"},
		{Name: "ec2", URL: "https://catalog.test/ec2.json"},
	}, refs)
}

func TestHTTPFetcherDocument(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"Name": "s3",
			"Actions": [{"Name": "GetObject"}],
			"Resources": {"object": {"ARNFormats": ["arn:aws:s3:::bucket/object"]}}
		}`))
	}))
	defer server.Close()

	doc, err := testFetcher(server.URL, 0).FetchDocument(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, "s3", doc.Name)
	require.Len(t, doc.Resources, 1)
	assert.Equal(t, "object", doc.Resources[0].Name)
}

func TestHTTPFetcherRetriesTransientFailures(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) <= 2 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`[]`))
	}))
	defer server.Close()

	_, err := testFetcher(server.URL, 2).FetchIndex(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestHTTPFetcherRetriesAreBounded(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	_, err := testFetcher(server.URL, 2).FetchIndex(context.Background())
	assert.ErrorIs(t, err, ErrUpstream)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls), "initial attempt plus two retries")
}

func TestHTTPFetcherDoesNotRetryClientErrors(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	_, err := testFetcher(server.URL, 2).FetchIndex(context.Background())
	assert.ErrorIs(t, err, ErrUpstream)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestHTTPFetcherMalformedPayload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{not json`))
	}))
	defer server.Close()

	fetcher := testFetcher(server.URL, 0)

	_, err := fetcher.FetchIndex(context.Background())
	assert.ErrorIs(t, err, ErrUpstream)

	_, err = fetcher.FetchDocument(context.Background(), server.URL)
	assert.ErrorIs(t, err, ErrUpstream)
}

func TestHTTPFetcherContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := testFetcher(server.URL, 5).FetchIndex(ctx)
	assert.ErrorIs(t, err, ErrUpstream)
}

func TestHTTPFetcherRawDocument(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"Name": "s3", "SomeNewField": {"nested": true}}`))
	}))
	defer server.Close()

	raw, err := testFetcher(server.URL, 0).FetchRawDocument(context.Background(), server.URL)
	require.NoError(t, err)

	// Unknown fields survive, unlike in the typed model.
	assert.Contains(t, raw, "SomeNewField")
}
