// Package fingerprint models the set of product identifiers extracted from a
// product page and the confidence of matching them against the provider
// catalog.
package fingerprint

// Fingerprint carries whatever identifiers a page yielded. Every field is
// optional; an empty fingerprint is valid and lands in the lowest confidence
// tier.
type Fingerprint struct {
	URL       string  `json:"url,omitempty"`
	Title     string  `json:"title,omitempty"`
	Brand     string  `json:"brand,omitempty"`
	SKU       string  `json:"sku,omitempty"`
	GTIN      string  `json:"gtin,omitempty"`
	StyleCode string  `json:"styleCode,omitempty"`
	ProductID string  `json:"productId,omitempty"`
	Price     float64 `json:"price,omitempty"`
}

// MatchMeta communicates how close a resolved offer is to the shopper's
// exact product.
type MatchMeta struct {
	MatchType         string `json:"matchType"`
	SubstitutionLevel int    `json:"substitutionLevel"`
}

// Confidence maps the strongest identifier combination present to a fixed
// constant: exact barcode beats style-code+brand beats SKU+brand, and so on.
func (f Fingerprint) Confidence() float64 {
	switch {
	case f.isZero():
		return 0.1
	case f.GTIN != "":
		return 0.99
	case f.StyleCode != "" && f.Brand != "":
		return 0.9
	case f.SKU != "" && f.Brand != "":
		return 0.85
	case f.SKU != "":
		return 0.75
	case f.Title != "" && f.Brand != "":
		return 0.6
	case f.Title != "":
		return 0.5
	default:
		return 0.3
	}
}

// Quality scores identifier completeness on [0,1], independent of which
// tier the match lands in.
func (f Fingerprint) Quality() float64 {
	var score float64
	if f.GTIN != "" {
		score += 0.5
	}
	if f.SKU != "" {
		score += 0.2
	}
	if f.StyleCode != "" {
		score += 0.15
	}
	if f.Brand != "" {
		score += 0.1
	}
	if f.Title != "" {
		score += 0.05
	}
	if score > 1 {
		score = 1
	}
	return score
}

// Meta classifies the substitution level for the resolved offer.
func (f Fingerprint) Meta() MatchMeta {
	switch {
	case f.GTIN != "":
		return MatchMeta{MatchType: "exact", SubstitutionLevel: 0}
	case f.StyleCode != "" && f.Brand != "":
		return MatchMeta{MatchType: "style_variant", SubstitutionLevel: 1}
	case f.SKU != "" && f.Brand != "":
		return MatchMeta{MatchType: "brand_variant", SubstitutionLevel: 1}
	case f.Brand != "" && f.Title != "":
		return MatchMeta{MatchType: "brand_adjacent", SubstitutionLevel: 2}
	case f.Title != "":
		return MatchMeta{MatchType: "generic", SubstitutionLevel: 3}
	default:
		return MatchMeta{MatchType: "unknown", SubstitutionLevel: 3}
	}
}

// MatchMethod names the identifier the resolution keyed on.
func (f Fingerprint) MatchMethod() string {
	switch {
	case f.GTIN != "":
		return "gtin"
	case f.StyleCode != "":
		return "styleCode"
	case f.SKU != "":
		return "sku"
	default:
		return "text"
	}
}

func (f Fingerprint) isZero() bool {
	return f.Title == "" && f.Brand == "" && f.SKU == "" && f.GTIN == "" &&
		f.StyleCode == "" && f.ProductID == ""
}
