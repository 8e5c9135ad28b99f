package parser_test

import (
	"errors"
	"testing"

	"trustlens/review-api/internal/domain"
	"trustlens/review-api/internal/parser"
)

// ─── Amazon ───────────────────────────────────────────────────────────────────

func TestParse_AmazonDP(t *testing.T) {
	got, err := parser.Parse("https://www.amazon.com/dp/B08N5WRWNW/")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := domain.ProductIdentifier{Platform: domain.PlatformAmazon, ProductID: "B08N5WRWNW"}
	if got != want {
		t.Errorf("got %+v, want %+v", got, want)
	}
}

func TestParse_AmazonDP_EveryDomain(t *testing.T) {
	domains := []string{
		"amazon.com", "amazon.in", "amazon.co.uk", "amazon.de", "amazon.fr",
		"amazon.it", "amazon.es", "amazon.ca", "amazon.com.au", "amazon.co.jp",
	}
	for _, d := range domains {
		for _, host := range []string{d, "www." + d, "smile." + d} {
			got, err := parser.Parse("https://" + host + "/Some-Title/dp/B07FZ8S74R?ref=x")
			if err != nil {
				t.Errorf("%s: unexpected error: %v", host, err)
				continue
			}
			if got.Platform != domain.PlatformAmazon || got.ProductID != "B07FZ8S74R" {
				t.Errorf("%s: got %+v", host, got)
			}
		}
	}
}

func TestParse_AmazonPatternPriority(t *testing.T) {
	cases := []struct {
		url  string
		want string
	}{
		{"https://www.amazon.in/gp/product/B09DZH4C71", "B09DZH4C71"},
		{"https://www.amazon.in/B0FKTDXKXV", "B0FKTDXKXV"},
		// /dp/ wins over an earlier bare 10-char segment.
		{"https://www.amazon.com/ABCDEFGHIJ/dp/B0DZX4PYLV", "B0DZX4PYLV"},
		{"https://www.amazon.com/ABCDEFGHIJ/gp/product/B0DM5RD6M6", "B0DM5RD6M6"},
		// Lowercase ids do not match; the default applies.
		{"https://www.amazon.com/dp/b08n5wrwnw", parser.DefaultAmazonID},
		{"https://www.amazon.com/", parser.DefaultAmazonID},
	}
	for _, c := range cases {
		got, err := parser.Parse(c.url)
		if err != nil {
			t.Errorf("%s: unexpected error: %v", c.url, err)
			continue
		}
		if got.ProductID != c.want {
			t.Errorf("%s: got %q, want %q", c.url, got.ProductID, c.want)
		}
	}
}

// ─── Flipkart ─────────────────────────────────────────────────────────────────

func TestParse_FlipkartItemPath(t *testing.T) {
	got, err := parser.Parse("https://www.flipkart.com/product/p/itmabc123")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := domain.ProductIdentifier{Platform: domain.PlatformFlipkart, ProductID: "abc123"}
	if got != want {
		t.Errorf("got %+v, want %+v", got, want)
	}
}

func TestParse_FlipkartVariants(t *testing.T) {
	cases := []struct {
		url  string
		want string
	}{
		{"https://www.flipkart.com/x/P/ITMXYZ9", "XYZ9"},
		{"https://www.flipkart.com/x/p/MOBG6VF5Q82", "MOBG6VF5Q82"},
		{"https://www.flipkart.com/x/p/itm", "itm"},
		{"https://www.flipkart.com/search?pid=TVSFJ4M7ZHWD&lid=1", "TVSFJ4M7ZHWD"},
		{"https://dl.flipkart.com/item?PID=acc123", "acc123"},
		{"https://www.flipkart.com/", parser.DefaultFlipkartID},
	}
	for _, c := range cases {
		got, err := parser.Parse(c.url)
		if err != nil {
			t.Errorf("%s: unexpected error: %v", c.url, err)
			continue
		}
		if got.Platform != domain.PlatformFlipkart || got.ProductID != c.want {
			t.Errorf("%s: got %+v, want id %q", c.url, got, c.want)
		}
	}
}

// ─── Failures ─────────────────────────────────────────────────────────────────

func TestParse_Invalid(t *testing.T) {
	inputs := []string{
		"",
		"not a url",
		"www.amazon.com/dp/B08N5WRWNW",
		"/dp/B08N5WRWNW",
		"https://www.ebay.com/itm/12345",
		"https://notamazon.com/dp/B08N5WRWNW",
		"https://amazon.com.evil.io/dp/B08N5WRWNW",
		"https://flipkart.co/p/itm1",
	}
	for _, in := range inputs {
		_, err := parser.Parse(in)
		if !errors.Is(err, parser.ErrInvalidURL) {
			t.Errorf("Parse(%q): expected ErrInvalidURL, got %v", in, err)
		}
		if parser.IsSupported(in) {
			t.Errorf("IsSupported(%q) = true", in)
		}
	}
}

func TestParse_HostIsCaseInsensitive(t *testing.T) {
	got, err := parser.Parse("https://WWW.AMAZON.DE:443/dp/B085NNH52P")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ProductID != "B085NNH52P" {
		t.Errorf("got %q", got.ProductID)
	}
}
