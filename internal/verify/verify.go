// Package verify checks that configured feed endpoints are reachable
// and actually serve XML.
package verify

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"newsbrief/internal/collect"
)

const (
	checkTimeout = 15 * time.Second
	workerCount  = 10
	maxBodyBytes = 1 << 20

	// Some feed hosts reject default Go client UAs.
	userAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.114 Safari/537.36"
)

// Result is the outcome of checking one endpoint.
type Result struct {
	Endpoint collect.Endpoint
	OK       bool
	Reason   string
}

// Checker validates feed endpoints over HTTP.
type Checker struct {
	client *http.Client
}

// NewChecker creates a checker. A nil client gets a default with the
// check timeout applied.
func NewChecker(client *http.Client) *Checker {
	if client == nil {
		client = &http.Client{Timeout: checkTimeout}
	}
	return &Checker{client: client}
}

// CheckAll verifies every endpoint concurrently and returns results in
// the same order as the input.
func (c *Checker) CheckAll(ctx context.Context, endpoints []collect.Endpoint) []Result {
	results := make([]Result, len(endpoints))
	sem := make(chan struct{}, workerCount)
	var wg sync.WaitGroup

	for i, ep := range endpoints {
		wg.Add(1)
		go func(i int, ep collect.Endpoint) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			ok, reason := c.check(ctx, ep.URL)
			results[i] = Result{Endpoint: ep, OK: ok, Reason: reason}
		}(i, ep)
	}
	wg.Wait()
	return results
}

func (c *Checker) check(ctx context.Context, url string) (bool, string) {
	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false, fmt.Sprintf("bad URL: %v", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return false, fmt.Sprintf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, fmt.Sprintf("status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return false, fmt.Sprintf("reading body: %v", err)
	}

	if looksLikeFeed(body, resp.Header.Get("Content-Type")) {
		return true, "OK"
	}
	return false, "not XML content"
}

// looksLikeFeed accepts a strict XML parse, a feed-shaped prefix, or an
// XML content type, in that order.
func looksLikeFeed(body []byte, contentType string) bool {
	if parsesAsXML(body) {
		return true
	}

	head := strings.TrimSpace(string(body))
	if strings.HasPrefix(head, "<?xml") || strings.HasPrefix(head, "<rss") || strings.HasPrefix(head, "<feed") {
		return true
	}

	ct := strings.ToLower(contentType)
	return strings.Contains(ct, "xml") || strings.Contains(ct, "rss")
}

func parsesAsXML(body []byte) bool {
	if len(bytes.TrimSpace(body)) == 0 {
		return false
	}
	dec := xml.NewDecoder(bytes.NewReader(body))
	for {
		_, err := dec.Token()
		if err == io.EOF {
			return true
		}
		if err != nil {
			return false
		}
	}
}

// CountValid returns how many results passed.
func CountValid(results []Result) int {
	var n int
	for _, r := range results {
		if r.OK {
			n++
		}
	}
	return n
}
