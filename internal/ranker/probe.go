package ranker

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	probeTimeout  = 2800 * time.Millisecond
	probeMaxBytes = 512_000
)

type probeResult struct {
	productMatch bool
	productURL   string
}

var anchorRe = regexp.MustCompile(`(?i)<a[^>]+href=["']([^"'#?]+[^"']?)["'][^>]*>(.*?)</a>`)

// probeWebsites fetches each candidate's website concurrently and scans the
// raw markup for the style code or query string. One candidate's failure
// never affects the others.
func (r *Ranker) probeWebsites(ctx context.Context, candidates map[string]Place, styleCode, query string) map[string]probeResult {
	codeNeedle := strings.ToUpper(strings.TrimSpace(styleCode))
	queryNeedle := strings.ToUpper(strings.TrimSpace(query))
	if codeNeedle == "" && queryNeedle == "" {
		return nil
	}

	results := make(map[string]probeResult, len(candidates))
	var mu sync.Mutex
	var wg sync.WaitGroup
	for id, place := range candidates {
		if place.Website == "" {
			continue
		}
		wg.Add(1)
		go func(id, website string) {
			defer wg.Done()
			res := r.probeOne(ctx, website, codeNeedle, queryNeedle)
			mu.Lock()
			results[id] = res
			mu.Unlock()
		}(id, place.Website)
	}
	wg.Wait()
	return results
}

func (r *Ranker) probeOne(ctx context.Context, website, codeNeedle, queryNeedle string) probeResult {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, website, nil)
	if err != nil {
		return probeResult{}
	}
	req.Header.Set("User-Agent", "JenniBot/1.1 (+https://jenni.example.com)")

	resp, err := r.httpc.Do(req)
	if err != nil {
		r.log.Debug("website probe failed", zap.String("website", website), zap.Error(err))
		return probeResult{}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, probeMaxBytes))
	if err != nil {
		return probeResult{}
	}
	html := string(raw)
	upper := strings.ToUpper(html)

	found := (codeNeedle != "" && strings.Contains(upper, codeNeedle)) ||
		(queryNeedle != "" && strings.Contains(upper, queryNeedle))
	if !found {
		return probeResult{}
	}

	needle := codeNeedle
	if needle == "" {
		needle = queryNeedle
	}
	return probeResult{productMatch: true, productURL: findProductLink(html, website, needle)}
}

// findProductLink scans anchors for the needle in either link text or href
// and resolves the first plausible one against the site root.
func findProductLink(html, website, needle string) string {
	base, err := url.Parse(website)
	if err != nil {
		return ""
	}
	for _, m := range anchorRe.FindAllStringSubmatch(html, -1) {
		href := m[1]
		text := strings.ToUpper(m[2])
		if !strings.Contains(text, needle) && !strings.Contains(strings.ToUpper(href), needle) {
			continue
		}
		ref, err := url.Parse(href)
		if err != nil {
			continue
		}
		abs := base.ResolveReference(ref).String()
		if len(abs) > len(website)+1 {
			return abs
		}
	}
	return ""
}
