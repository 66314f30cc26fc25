package config

import (
	"net/http"

	lnsms "github.com/lnsms/go"
	"github.com/lnsms/go/opennode"
	"github.com/lnsms/go/twilio"
)

// ProviderBackends builds the OpenNode and Twilio adapters for a call's settings.
type ProviderBackends struct {
	// HTTPClient is used for OpenNode requests (optional)
	HTTPClient *http.Client
}

// ChargeGateway returns an OpenNode client for settings.
func (b ProviderBackends) ChargeGateway(settings lnsms.Settings) (lnsms.ChargeGateway, error) {
	if settings.OpenNodeAPIKey == "" {
		return nil, lnsms.NewConfigurationError("OPENNODE_API_KEY")
	}
	return opennode.NewClient(opennode.Config{
		APIKey:     settings.OpenNodeAPIKey,
		BaseURL:    settings.OpenNodeBaseURL,
		HTTPClient: b.HTTPClient,
	}), nil
}

// MessageSender returns a Twilio sender for settings.
func (b ProviderBackends) MessageSender(settings lnsms.Settings) (lnsms.MessageSender, error) {
	if settings.TwilioAccountSID == "" || settings.TwilioAuthToken == "" {
		return nil, lnsms.NewConfigurationError("TWILIO credentials")
	}
	return twilio.NewSender(settings.TwilioAccountSID, settings.TwilioAuthToken), nil
}

var _ lnsms.Backends = ProviderBackends{}
