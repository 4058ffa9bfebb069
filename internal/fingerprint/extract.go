package fingerprint

import (
	"encoding/json"
	"net/url"
	"regexp"
	"strconv"
	"strings"
)

var (
	ogTitleRe   = regexp.MustCompile(`(?i)<meta[^>]+property=["']og:title["'][^>]*>`)
	contentRe   = regexp.MustCompile(`(?i)content=["']([^"']+)["']`)
	titleTagRe  = regexp.MustCompile(`(?i)<title>([^<]{3,120})</title>`)
	skuRe       = regexp.MustCompile(`(?i)"sku"\s*:\s*"([^"]{3,60})"`)
	gtinRe      = regexp.MustCompile(`(?i)"(gtin13|gtin|gtin14)"\s*:\s*"([0-9]{8,14})"`)
	brandRe     = regexp.MustCompile(`(?i)"brand"\s*:\s*(?:"([^"]{2,60})"|\{[^}]*"name"\s*:\s*"([^"]{2,60})"[^}]*\})`)
	styleCodeRe = regexp.MustCompile(`([A-Z0-9]{4,}-[0-9]{3})`)
	jsonLDRe    = regexp.MustCompile(`(?is)<script[^>]+application/ld\+json[^>]*>(.*?)</script>`)
)

// ParseHTML extracts a fingerprint from raw product-page markup, best
// effort: meta/title tags, embedded JSON fragments, then JSON-LD Product
// blocks for identifiers and an offer price.
func ParseHTML(html, pageURL string) Fingerprint {
	fp := Fingerprint{URL: pageURL}

	if m := ogTitleRe.FindString(html); m != "" {
		if c := contentRe.FindStringSubmatch(m); c != nil {
			fp.Title = c[1]
		}
	}
	if fp.Title == "" {
		if m := titleTagRe.FindStringSubmatch(html); m != nil {
			fp.Title = m[1]
		}
	}
	if m := skuRe.FindStringSubmatch(html); m != nil {
		fp.SKU = m[1]
	}
	if m := gtinRe.FindStringSubmatch(html); m != nil {
		fp.GTIN = m[2]
	}
	if m := brandRe.FindStringSubmatch(html); m != nil {
		if m[1] != "" {
			fp.Brand = m[1]
		} else {
			fp.Brand = m[2]
		}
	}
	if m := styleCodeRe.FindStringSubmatch(html); m != nil {
		fp.StyleCode = m[1]
	}

	for _, block := range jsonLDRe.FindAllStringSubmatch(html, -1) {
		applyJSONLD(&fp, block[1])
	}

	applyURLFallbacks(&fp, pageURL)
	return fp
}

type ldProduct struct {
	Type   string          `json:"@type"`
	Name   string          `json:"name"`
	SKU    string          `json:"sku"`
	GTIN   string          `json:"gtin"`
	GTIN13 string          `json:"gtin13"`
	Brand  json.RawMessage `json:"brand"`
	Offers json.RawMessage `json:"offers"`
}

func applyJSONLD(fp *Fingerprint, raw string) {
	var nodes []ldProduct
	trimmed := strings.TrimSpace(raw)
	if strings.HasPrefix(trimmed, "[") {
		if err := json.Unmarshal([]byte(trimmed), &nodes); err != nil {
			return
		}
	} else {
		var one ldProduct
		if err := json.Unmarshal([]byte(trimmed), &one); err != nil {
			return
		}
		nodes = []ldProduct{one}
	}

	for _, node := range nodes {
		if !strings.Contains(strings.ToLower(node.Type), "product") {
			continue
		}
		if fp.Title == "" {
			fp.Title = node.Name
		}
		if fp.GTIN == "" {
			if node.GTIN13 != "" {
				fp.GTIN = node.GTIN13
			} else {
				fp.GTIN = node.GTIN
			}
		}
		if fp.SKU == "" {
			fp.SKU = node.SKU
		}
		if fp.Brand == "" {
			fp.Brand = ldBrandName(node.Brand)
		}
		if fp.Price <= 0 {
			fp.Price = ldOfferPrice(node.Offers)
		}
	}
}

func ldBrandName(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var name string
	if err := json.Unmarshal(raw, &name); err == nil {
		return name
	}
	var obj struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		return obj.Name
	}
	return ""
}

// ldOfferPrice prefers the lowest valid price among offers.
func ldOfferPrice(raw json.RawMessage) float64 {
	if len(raw) == 0 {
		return 0
	}
	var offers []json.RawMessage
	if err := json.Unmarshal(raw, &offers); err != nil {
		offers = []json.RawMessage{raw}
	}

	best := 0.0
	for _, offer := range offers {
		var obj struct {
			Price              any `json:"price"`
			LowPrice           any `json:"lowPrice"`
			HighPrice          any `json:"highPrice"`
			PriceSpecification struct {
				Price any `json:"price"`
			} `json:"priceSpecification"`
		}
		if err := json.Unmarshal(offer, &obj); err != nil {
			continue
		}
		for _, candidate := range []any{obj.Price, obj.LowPrice, obj.HighPrice, obj.PriceSpecification.Price} {
			if price := coercePrice(candidate); price > 0 && (best == 0 || price < best) {
				best = price
				break
			}
		}
	}
	return best
}

func coercePrice(v any) float64 {
	switch typed := v.(type) {
	case float64:
		return typed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(typed), 64)
		if err != nil {
			return 0
		}
		return parsed
	default:
		return 0
	}
}

// applyURLFallbacks recovers a style code from the URL path and a brand from
// well-known hosts when the markup yielded neither.
func applyURLFallbacks(fp *Fingerprint, pageURL string) {
	parsed, err := url.Parse(pageURL)
	if err != nil {
		return
	}
	if fp.StyleCode == "" {
		if m := styleCodeRe.FindStringSubmatch(strings.ToUpper(parsed.Path)); m != nil {
			fp.StyleCode = m[1]
		}
	}
	if fp.Brand == "" {
		host := strings.ToLower(parsed.Hostname())
		if host == "nike.com" || strings.HasSuffix(host, ".nike.com") {
			fp.Brand = "Nike"
		}
	}
}
