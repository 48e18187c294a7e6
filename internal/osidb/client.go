// Package osidb reads flaws from the OSIDB REST API, the ground truth the
// UI scenarios compare the flaw list and search results against.
package osidb

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

// DefaultTimeout bounds one request.
const DefaultTimeout = 10 * time.Second

const flawsPath = "osidb/api/v1/flaws"

// APIError is an HTTP error answer from OSIDB.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("osidb: HTTP %d: %s", e.Status, strings.TrimSpace(e.Body))
}

// Flaw is a flaw as OSIDB serialises it. Fields are kept generic because
// scenarios address them by path (see FieldValues).
type Flaw map[string]any

// UUID returns the flaw UUID.
func (f Flaw) UUID() string {
	s, _ := f["uuid"].(string)
	return s
}

// CVEID returns the CVE ID, empty for flaws without one.
func (f Flaw) CVEID() string {
	s, _ := f["cve_id"].(string)
	return s
}

// Embargoed reports the embargo flag.
func (f Flaw) Embargoed() bool {
	b, _ := f["embargoed"].(bool)
	return b
}

type flawPage struct {
	Count   int    `json:"count"`
	Next    string `json:"next"`
	Results []Flaw `json:"results"`
}

// Options configures a Client.
type Options struct {
	Timeout time.Duration
	// Insecure skips TLS verification, for stage instances with internal
	// certificates.
	Insecure bool
	Logger   *log.Logger
}

// Client talks to one OSIDB instance.
type Client struct {
	baseURL string
	tokens  TokenSource
	http    *http.Client
	log     *log.Logger
}

// NewClient returns a client for the OSIDB instance at baseURL.
func NewClient(baseURL string, tokens TokenSource, opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	hc := &http.Client{Timeout: opts.Timeout}
	if opts.Insecure {
		//nolint:gosec // G402: opt-in for instances with internal CAs
		hc.Transport = &http.Transport{TLSClientConfig: &tls.Config{InsecureSkipVerify: true}}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/") + "/",
		tokens:  tokens,
		http:    hc,
		log:     logger.WithPrefix("osidb"),
	}
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	u := c.baseURL + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("osidb: create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.tokens != nil {
		tok, err := c.tokens.Token(ctx)
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("osidb: request failed: %w", err)
	}
	//nolint:errcheck // Defer close on HTTP response body
	defer resp.Body.Close()
	c.log.Debug("GET", "path", path, "status", resp.StatusCode, "elapsed", time.Since(start))

	if resp.StatusCode >= http.StatusBadRequest {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &APIError{Status: resp.StatusCode, Body: string(body)}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("osidb: decode %s: %w", path, err)
	}
	return nil
}

// Flaws lists flaws matching query. Only the first page is returned.
func (c *Client) Flaws(ctx context.Context, query url.Values) ([]Flaw, error) {
	var page flawPage
	if err := c.get(ctx, flawsPath, query, &page); err != nil {
		return nil, err
	}
	return page.Results, nil
}

// FlawByCVE returns the flaw carrying cve.
func (c *Client) FlawByCVE(ctx context.Context, cve string) (Flaw, error) {
	flaws, err := c.Flaws(ctx, url.Values{"cve_id": {cve}})
	if err != nil {
		return nil, err
	}
	if len(flaws) == 0 {
		return nil, &APIError{Status: http.StatusNotFound, Body: "no flaw with CVE ID " + cve}
	}
	return flaws[0], nil
}

// FlawByUUID returns the flaw with id.
func (c *Client) FlawByUUID(ctx context.Context, id uuid.UUID) (Flaw, error) {
	var f Flaw
	if err := c.get(ctx, flawsPath+"/"+id.String(), nil, &f); err != nil {
		return nil, err
	}
	return f, nil
}

// Flaw resolves id as a flaw UUID when it parses as one, and as a CVE ID
// otherwise.
func (c *Client) Flaw(ctx context.Context, id string) (Flaw, error) {
	if u, err := uuid.Parse(id); err == nil {
		return c.FlawByUUID(ctx, u)
	}
	return c.FlawByCVE(ctx, id)
}
