package covers

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/segmentio/encoding/json"
)

// LookupResult is what the cover API says about one ISBN. Exactly one of URL
// and Error is normally set.
type LookupResult struct {
	URL   *string `json:"url"`
	Error *string `json:"error"`
}

// Lookup resolves an ISBN to a cover image URL.
type Lookup interface {
	Get(ctx context.Context, isbn string) (*LookupResult, error)
}

// LookupClient calls {base}/bookcover?isbn=... on the cover API.
type LookupClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewLookupClient(baseURL string, timeout time.Duration) *LookupClient {
	return &LookupClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Get returns an error only when the API couldn't be reached. Answers the API
// gives, including error answers, come back as a LookupResult.
func (c *LookupClient) Get(ctx context.Context, isbn string) (*LookupResult, error) {
	endpoint := c.baseURL + "/bookcover?isbn=" + url.QueryEscape(isbn)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "failed to call cover API")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read cover API response")
	}

	body = bytes.TrimSpace(body)
	if len(body) == 0 || bytes.Equal(body, []byte("null")) {
		return errorResult("No response from cover API"), nil
	}

	result := &LookupResult{}
	if err := json.Unmarshal(body, result); err != nil {
		return errorResult("Unknown error from cover API"), nil
	}

	if result.URL != nil && *result.URL == "" {
		result.URL = nil
	}
	if result.URL == nil && result.Error == nil {
		return errorResult("Unknown error from cover API"), nil
	}
	return result, nil
}

func errorResult(msg string) *LookupResult {
	return &LookupResult{Error: &msg}
}
