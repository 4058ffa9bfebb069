package fingerprint

import "testing"

func TestConfidenceTiers(t *testing.T) {
	cases := []struct {
		name string
		fp   Fingerprint
		want float64
	}{
		{"gtin beats everything", Fingerprint{GTIN: "00883412740128", Title: "t", Brand: "b"}, 0.99},
		{"style code with brand", Fingerprint{StyleCode: "DD1391-100", Brand: "Nike"}, 0.9},
		{"sku with brand", Fingerprint{SKU: "SKU123", Brand: "Nike"}, 0.85},
		{"sku alone", Fingerprint{SKU: "SKU123"}, 0.75},
		{"title with brand", Fingerprint{Title: "Dunk Low", Brand: "Nike"}, 0.6},
		{"title alone", Fingerprint{Title: "Dunk Low"}, 0.5},
		{"url only", Fingerprint{URL: "https://example.com/p"}, 0.3},
		{"empty", Fingerprint{}, 0.1},
	}
	for _, tc := range cases {
		if got := tc.fp.Confidence(); got != tc.want {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, got)
		}
	}
}

func TestMetaSubstitutionLevels(t *testing.T) {
	cases := []struct {
		fp        Fingerprint
		matchType string
		level     int
	}{
		{Fingerprint{GTIN: "00883412740128"}, "exact", 0},
		{Fingerprint{StyleCode: "DD1391-100", Brand: "Nike"}, "style_variant", 1},
		{Fingerprint{SKU: "SKU123", Brand: "Nike"}, "brand_variant", 1},
		{Fingerprint{Brand: "Nike", Title: "Dunk Low"}, "brand_adjacent", 2},
		{Fingerprint{Title: "Dunk Low"}, "generic", 3},
		{Fingerprint{}, "unknown", 3},
	}
	for _, tc := range cases {
		got := tc.fp.Meta()
		if got.MatchType != tc.matchType || got.SubstitutionLevel != tc.level {
			t.Fatalf("expected %s/%d, got %s/%d", tc.matchType, tc.level, got.MatchType, got.SubstitutionLevel)
		}
	}
}

func TestMatchMethod(t *testing.T) {
	if got := (Fingerprint{GTIN: "x", SKU: "y"}).MatchMethod(); got != "gtin" {
		t.Fatalf("expected gtin, got %q", got)
	}
	if got := (Fingerprint{StyleCode: "DD1391-100"}).MatchMethod(); got != "styleCode" {
		t.Fatalf("expected styleCode, got %q", got)
	}
	if got := (Fingerprint{Title: "Dunk"}).MatchMethod(); got != "text" {
		t.Fatalf("expected text, got %q", got)
	}
}

func TestQualityCapsAtOne(t *testing.T) {
	full := Fingerprint{GTIN: "g", SKU: "s", StyleCode: "c", Brand: "b", Title: "t"}
	if got := full.Quality(); got != 1 {
		t.Fatalf("expected 1, got %v", got)
	}
	if got := (Fingerprint{Brand: "b"}).Quality(); got != 0.1 {
		t.Fatalf("expected 0.1, got %v", got)
	}
}
