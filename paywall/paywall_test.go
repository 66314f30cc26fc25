package paywall

import (
	"bytes"
	"image/png"
	"strings"
	"testing"
)

func TestQRCodePNG(t *testing.T) {
	data, err := QRCodePNG("lntb1500n1pj9nrexpp5")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Expected a PNG, got decode error: %v", err)
	}

	bounds := img.Bounds()
	if bounds.Dx() != bounds.Dy() {
		t.Errorf("Expected a square image, got %dx%d", bounds.Dx(), bounds.Dy())
	}
	if bounds.Dx()%ModulePixels != 0 {
		t.Errorf("Expected a whole number of %dpx modules, got width %d", ModulePixels, bounds.Dx())
	}
	// Smallest symbol is 21 modules plus a 4-module border on each side
	if smallest := (21 + 8) * ModulePixels; bounds.Dx() < smallest {
		t.Errorf("Expected width >= %d, got %d", smallest, bounds.Dx())
	}
}

func TestQRCodePNGEmpty(t *testing.T) {
	if _, err := QRCodePNG(""); err == nil {
		t.Error("Expected error for empty data")
	}
}

func TestDeepLink(t *testing.T) {
	tests := []struct {
		invoice string
		want    string
	}{
		{"lntb1500n1pj9nrexpp5", "lightning:lntb1500n1pj9nrexpp5"},
		{"LNBC10U1P3-_.~", "lightning:LNBC10U1P3-_.~"},
		{"a b", "lightning:a%20b"},
		{"a+b/c?d=e&f:g", "lightning:a%2Bb%2Fc%3Fd%3De%26f%3Ag"},
	}

	for _, tt := range tests {
		if got := DeepLink(tt.invoice); got != tt.want {
			t.Errorf("DeepLink(%q) = %q, want %q", tt.invoice, got, tt.want)
		}
	}
}

func TestMobileHTMLWithHostedCheckout(t *testing.T) {
	page, err := MobileHTML("lightning:lntb1", "https://checkout.opennode.com/ch_1")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if !strings.Contains(page, `href="lightning:lntb1"`) {
		t.Error("Expected the deep link as an href")
	}
	if n := strings.Count(page, "window.location ="); n != 2 {
		t.Errorf("Expected deep link then hosted checkout redirect, got %d redirects", n)
	}
	if strings.Contains(page, "getElementById('fallback')") {
		t.Error("Expected no fallback reveal when hosted checkout is present")
	}
	if !strings.Contains(page, `<a href="https://checkout.opennode.com/ch_1">https://checkout.opennode.com/ch_1</a>`) {
		t.Error("Expected the hosted checkout fallback link")
	}
	if !strings.Contains(page, "1200") {
		t.Error("Expected the fallback delay in the page")
	}
	if strings.Contains(page, "ZgotmplZ") {
		t.Error("Expected no sanitized placeholders")
	}
}

func TestMobileHTMLWithoutHostedCheckout(t *testing.T) {
	page, err := MobileHTML("lightning:lntb1", "")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if !strings.Contains(page, "document.getElementById('fallback').style.display='block';") {
		t.Error("Expected the fallback reveal")
	}
	if !strings.Contains(page, `<a href="lightning:lntb1">lightning:lntb1</a>`) {
		t.Error("Expected the deep link as the fallback link")
	}
	if n := strings.Count(page, "window.location ="); n != 1 {
		t.Errorf("Expected only the deep link redirect, got %d", n)
	}
}

func TestMobileHTMLIgnoresUnsafeHostedURL(t *testing.T) {
	for _, hosted := range []string{"javascript:alert(1)", "http://checkout.example.com/ch_1", "data:text/html,hi", "https://"} {
		page, err := MobileHTML("lightning:lntb1", hosted)
		if err != nil {
			t.Fatalf("Unexpected error for %q: %v", hosted, err)
		}
		if strings.Contains(page, "alert(1)") || strings.Contains(page, "example.com") || strings.Contains(page, "data:text") {
			t.Errorf("Expected %q to be dropped from the page", hosted)
		}
		if n := strings.Count(page, "window.location ="); n != 1 {
			t.Errorf("Expected only the deep link redirect for %q, got %d", hosted, n)
		}
	}
}
