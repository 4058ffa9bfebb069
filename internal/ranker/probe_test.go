package ranker

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"
)

const probePage = `<html><body>
<h1>Nike Dunk Low DD1391-100</h1>
<a href="/products/dunk-low-dd1391-100">Dunk Low Retro DD1391-100</a>
</body></html>`

func TestProbeOneFindsStyleCode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(probePage))
	}))
	defer srv.Close()

	r := New(staticGeocoder{}, nil, srv.Client(), zap.NewNop())
	got := r.probeOne(context.Background(), srv.URL, "DD1391-100", "")

	if !got.productMatch {
		t.Fatalf("expected product match")
	}
	if got.productURL != srv.URL+"/products/dunk-low-dd1391-100" {
		t.Fatalf("unexpected product url %q", got.productURL)
	}
}

func TestProbeOneNoMatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html><body>nothing relevant</body></html>"))
	}))
	defer srv.Close()

	r := New(staticGeocoder{}, nil, srv.Client(), zap.NewNop())
	if got := r.probeOne(context.Background(), srv.URL, "DD1391-100", "DUNK"); got.productMatch {
		t.Fatalf("expected no match")
	}
}

func TestFindProductLinkResolvesRelativeHref(t *testing.T) {
	html := `<a href="/p/dunk">Dunk Low DD1391-100</a>`
	got := findProductLink(html, "https://store.example.com", "DD1391-100")
	if got != "https://store.example.com/p/dunk" {
		t.Fatalf("unexpected link %q", got)
	}
}

func TestFindProductLinkIgnoresUnrelatedAnchors(t *testing.T) {
	html := `<a href="/about">About Us</a>`
	if got := findProductLink(html, "https://store.example.com", "DD1391-100"); got != "" {
		t.Fatalf("expected no link, got %q", got)
	}
}
