package paywall

import (
	"net/url"
	"strings"
)

// LightningScheme prefixes wallet deep links.
const LightningScheme = "lightning:"

// DeepLink returns lightning:<invoice> with every byte outside the
// unreserved set percent-encoded.
func DeepLink(invoice string) string {
	return LightningScheme + strings.ReplaceAll(url.QueryEscape(invoice), "+", "%20")
}
