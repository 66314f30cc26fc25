package paywall

import (
	"bytes"
	"fmt"
	"html/template"
	"net/url"
)

// MobileInstructions accompanies the deep link in tool results.
const MobileInstructions = "Scan QR separately, or tap deep_link to open a wallet."

// fallbackDelayMillis is how long the page waits for a wallet to open.
const fallbackDelayMillis = 1200

var mobileTemplate = template.Must(template.New("mobile").Parse(`
<!doctype html>
<html>
  <head>
    <meta name="viewport" content="width=device-width,initial-scale=1"/>
    <title>Pay with Lightning</title>
    <script>
      function openWallet() {
        window.location = {{.DeepLink}};
        setTimeout(function() {
          {{if .HostedURL}}window.location = {{.HostedURL}};{{else}}document.getElementById('fallback').style.display='block';{{end}}
        }, {{.DelayMillis}});
      }
      window.addEventListener('load', function() {
        openWallet();
      });
    </script>
    <style>body { font-family: sans-serif; text-align:center; padding:20px; }</style>
  </head>
  <body>
    <h2>Pay with Lightning</h2>
    <p>Tap the button below if your wallet didn't open automatically.</p>
    <p><a href="{{.DeepLink}}" style="display:inline-block;padding:12px 18px;background:#111;color:#fff;border-radius:8px;text-decoration:none;">Open wallet</a></p>
    <div id="fallback" style="display:none;">
      <p>If your wallet doesn't open, use this link:</p>
      {{if .HostedURL}}<p><a href="{{.HostedURL}}">{{.HostedURL}}</a></p>{{else}}<p><a href="{{.DeepLink}}">{{.DeepLink}}</a></p>{{end}}
    </div>
    <hr/>
    <p style="font-size:0.85em;color:#666;">Or scan the QR code shown by the app.</p>
  </body>
</html>
`))

type mobileData struct {
	DeepLink    template.URL
	HostedURL   string
	DelayMillis int
}

// MobileHTML renders a page that opens deepLink on load and, after a short
// delay, redirects to hostedURL or reveals a fallback link when hostedURL is
// empty. A hostedURL that is not https is ignored.
func MobileHTML(deepLink, hostedURL string) (string, error) {
	data := mobileData{
		// lightning: is not on html/template's safe scheme list
		DeepLink:    template.URL(deepLink),
		DelayMillis: fallbackDelayMillis,
	}
	if u, err := url.Parse(hostedURL); err == nil && u.Scheme == "https" && u.Host != "" {
		data.HostedURL = hostedURL
	}

	var buf bytes.Buffer
	if err := mobileTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render mobile page: %w", err)
	}
	return buf.String(), nil
}
