package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// DefaultBaseURL is the public endpoint of the AWS service reference catalog.
const DefaultBaseURL = "https://servicereference.us-east-1.amazonaws.com/"

// Fetcher retrieves the two levels of the remote catalog. Implementations
// perform plain GETs with no interpretation beyond JSON decoding; all
// memoization lives in the Store.
type Fetcher interface {
	// FetchIndex retrieves the service index from the catalog root.
	FetchIndex(ctx context.Context) ([]ServiceRef, error)

	// FetchDocument retrieves and normalizes one service document.
	FetchDocument(ctx context.Context, url string) (*ServiceDocument, error)
}

// HTTPFetcherConfig configures the HTTP fetcher.
type HTTPFetcherConfig struct {
	// BaseURL is the catalog index endpoint.
	BaseURL string
	// Timeout bounds each HTTP request.
	Timeout time.Duration
	// Retries is the number of additional attempts after a transient failure.
	Retries int
	// Backoff is the wait between attempts, growing linearly per attempt.
	Backoff time.Duration
}

// DefaultHTTPFetcherConfig returns the production defaults.
func DefaultHTTPFetcherConfig() HTTPFetcherConfig {
	return HTTPFetcherConfig{
		BaseURL: DefaultBaseURL,
		Timeout: 30 * time.Second,
		Retries: 2,
		Backoff: 500 * time.Millisecond,
	}
}

// HTTPFetcher fetches catalog data over HTTP with a bounded timeout and
// bounded retries for transient failures.
type HTTPFetcher struct {
	config HTTPFetcherConfig
	client *http.Client
	logger *zap.Logger
}

// NewHTTPFetcher creates an HTTP fetcher. A nil logger is replaced with a
// no-op logger.
func NewHTTPFetcher(config HTTPFetcherConfig, logger *zap.Logger) *HTTPFetcher {
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}
	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &HTTPFetcher{
		config: config,
		client: &http.Client{Timeout: config.Timeout},
		logger: logger,
	}
}

// FetchIndex retrieves the service index.
func (f *HTTPFetcher) FetchIndex(ctx context.Context) ([]ServiceRef, error) {
	body, err := f.get(ctx, f.config.BaseURL)
	if err != nil {
		return nil, err
	}

	var refs []ServiceRef
	if err := json.Unmarshal(body, &refs); err != nil {
		return nil, fmt.Errorf("%w: decoding index: %v", ErrUpstream, err)
	}
	return refs, nil
}

// FetchDocument retrieves one service document. Normalization of the
// Resources collection happens during decoding.
func (f *HTTPFetcher) FetchDocument(ctx context.Context, url string) (*ServiceDocument, error) {
	body, err := f.get(ctx, url)
	if err != nil {
		return nil, err
	}

	var doc ServiceDocument
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("%w: decoding document %s: %v", ErrUpstream, url, err)
	}
	return &doc, nil
}

// FetchRawDocument retrieves one service document as an untyped map. The
// drift monitor uses this to inspect field names the typed model would drop.
func (f *HTTPFetcher) FetchRawDocument(ctx context.Context, url string) (map[string]interface{}, error) {
	body, err := f.get(ctx, url)
	if err != nil {
		return nil, err
	}

	var doc map[string]interface{}
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("%w: decoding document %s: %v", ErrUpstream, url, err)
	}
	return doc, nil
}

// get performs a GET with bounded retries. Transient failures (network
// errors and 5xx responses) are retried; anything else fails immediately.
func (f *HTTPFetcher) get(ctx context.Context, url string) ([]byte, error) {
	var lastErr error

	for attempt := 0; attempt <= f.config.Retries; attempt++ {
		if attempt > 0 {
			f.logger.Debug("retrying catalog fetch",
				zap.String("url", url),
				zap.Int("attempt", attempt),
				zap.Error(lastErr))

			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("%w: %v", ErrUpstream, ctx.Err())
			case <-time.After(f.config.Backoff * time.Duration(attempt)):
			}
		}

		body, retryable, err := f.getOnce(ctx, url)
		if err == nil {
			return body, nil
		}
		if !retryable {
			return nil, err
		}
		lastErr = err
	}

	return nil, lastErr
}

func (f *HTTPFetcher) getOnce(ctx context.Context, url string) (body []byte, retryable bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, false, fmt.Errorf("%w: building request: %v", ErrUpstream, err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, true, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return nil, true, fmt.Errorf("%w: GET %s: status %d", ErrUpstream, url, resp.StatusCode)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, false, fmt.Errorf("%w: GET %s: status %d", ErrUpstream, url, resp.StatusCode)
	}

	body, err = io.ReadAll(resp.Body)
	if err != nil {
		return nil, true, fmt.Errorf("%w: reading body: %v", ErrUpstream, err)
	}
	return body, false, nil
}
