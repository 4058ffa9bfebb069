package fingerprint

import "testing"

func TestParseHTMLFromJSONLD(t *testing.T) {
	html := `<html><head>
<title>Nike Dunk Low Retro | Nike.com</title>
<script type="application/ld+json">
{"@type":"Product","name":"Nike Dunk Low Retro","sku":"DD1391-100",
"gtin13":"00195866189614","brand":{"name":"Nike"},
"offers":[{"price":"110.00"},{"price":"125.00"}]}
</script>
</head></html>`

	fp := ParseHTML(html, "https://www.nike.com/t/dunk-low-retro/DD1391-100")

	if fp.GTIN != "00195866189614" {
		t.Fatalf("expected gtin from json-ld, got %q", fp.GTIN)
	}
	if fp.SKU != "DD1391-100" {
		t.Fatalf("expected sku DD1391-100, got %q", fp.SKU)
	}
	if fp.Brand != "Nike" {
		t.Fatalf("expected brand Nike, got %q", fp.Brand)
	}
	if fp.Title != "Nike Dunk Low Retro | Nike.com" {
		t.Fatalf("unexpected title %q", fp.Title)
	}
	if fp.Price != 110.00 {
		t.Fatalf("expected lowest offer price 110.00, got %v", fp.Price)
	}
	if fp.StyleCode != "DD1391-100" {
		t.Fatalf("expected style code DD1391-100, got %q", fp.StyleCode)
	}
}

func TestParseHTMLOgTitleBeatsTitleTag(t *testing.T) {
	html := `<html><head>
<meta property="og:title" content="Air Jordan 1 Mid">
<title>Some Store Page</title>
</head></html>`

	fp := ParseHTML(html, "https://example.com/p/1")
	if fp.Title != "Air Jordan 1 Mid" {
		t.Fatalf("expected og:title, got %q", fp.Title)
	}
}

func TestParseHTMLURLFallbacks(t *testing.T) {
	fp := ParseHTML("<html></html>", "https://www.nike.com/t/dunk-low/dd1391-100")
	if fp.StyleCode != "DD1391-100" {
		t.Fatalf("expected style code from url path, got %q", fp.StyleCode)
	}
	if fp.Brand != "Nike" {
		t.Fatalf("expected brand from host, got %q", fp.Brand)
	}
}

func TestParseHTMLInlineBrandString(t *testing.T) {
	html := `<html><body><script>{"sku":"ABC-1234","brand":"Adidas"}</script></body></html>`
	fp := ParseHTML(html, "https://shop.example.com/p")
	if fp.SKU != "ABC-1234" {
		t.Fatalf("expected sku ABC-1234, got %q", fp.SKU)
	}
	if fp.Brand != "Adidas" {
		t.Fatalf("expected brand Adidas, got %q", fp.Brand)
	}
}

func TestParseHTMLEmptyPage(t *testing.T) {
	fp := ParseHTML("", "https://example.com/p")
	if fp.Confidence() != 0.3 {
		t.Fatalf("expected url-only confidence 0.3, got %v", fp.Confidence())
	}
}
