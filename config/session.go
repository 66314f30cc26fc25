package config

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/spf13/cast"
	"github.com/xeipuuv/gojsonschema"

	lnsms "github.com/lnsms/go"
)

// SessionQueryParam carries base64-encoded JSON session settings.
const SessionQueryParam = "config"

// sessionKeys are the fields a session may override, also accepted as
// plain query parameters.
var sessionKeys = []string{
	KeyOpenNodeAPIKey,
	KeyTwilioAccountSID,
	KeyTwilioAuthToken,
	KeyTwilioPhoneNumber,
	KeySMSPrice,
}

// SessionSchema describes the session settings object.
const SessionSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "properties": {
    "opennode_api_key": {"type": "string", "description": "OpenNode API key for Lightning payments"},
    "twilio_account_sid": {"type": "string", "description": "Twilio Account SID"},
    "twilio_auth_token": {"type": "string", "description": "Twilio Auth Token"},
    "twilio_phone_number": {"type": "string", "pattern": "^\\+[1-9][0-9]{1,14}$", "description": "Twilio phone number (E.164 format)"},
    "sms_price_usd": {"type": ["number", "string"], "description": "Price per SMS in USD"}
  }
}`

var sessionSchema = gojsonschema.NewStringLoader(SessionSchema)

// SessionSettingsError reports an invalid session settings document.
type SessionSettingsError struct {
	Errors []string
}

func (e *SessionSettingsError) Error() string {
	return fmt.Sprintf("invalid session config: %s", strings.Join(e.Errors, "; "))
}

// ParseSessionSettings overlays the settings carried by an MCP connection
// request on base. The price may be overridden alone; credentials are
// accepted only as the complete set, otherwise the base credentials apply.
func ParseSessionSettings(r *http.Request, base lnsms.Settings) (lnsms.Settings, error) {
	doc, err := sessionDocument(r)
	if err != nil {
		return base, err
	}
	if len(doc) == 0 {
		return base, nil
	}
	return ApplySessionDocument(doc, base)
}

// ApplySessionDocument validates doc against SessionSchema and overlays it on base.
func ApplySessionDocument(doc map[string]interface{}, base lnsms.Settings) (lnsms.Settings, error) {
	result, err := gojsonschema.Validate(sessionSchema, gojsonschema.NewGoLoader(doc))
	if err != nil {
		return base, fmt.Errorf("session config validation failed: %w", err)
	}
	if !result.Valid() {
		var errs []string
		for _, desc := range result.Errors() {
			errs = append(errs, fmt.Sprintf("%s: %s", desc.Context().String(), desc.Description()))
		}
		return base, &SessionSettingsError{Errors: errs}
	}

	if err := checkCredentialSet(doc); err != nil {
		return base, err
	}

	settings := base
	overlay := func(key string, dst *string) {
		if v := cast.ToString(doc[key]); v != "" {
			*dst = v
		}
	}
	overlay(KeyOpenNodeAPIKey, &settings.OpenNodeAPIKey)
	overlay(KeyTwilioAccountSID, &settings.TwilioAccountSID)
	overlay(KeyTwilioAuthToken, &settings.TwilioAuthToken)
	overlay(KeyTwilioPhoneNumber, &settings.TwilioPhoneNumber)

	// Callbacks are signed with the session's key, which the webhook cannot verify.
	if settings.OpenNodeAPIKey != base.OpenNodeAPIKey {
		settings.CallbackURL = ""
	}

	if raw, ok := doc[KeySMSPrice]; ok {
		s, err := cast.ToStringE(raw)
		if err != nil {
			return base, &SessionSettingsError{Errors: []string{fmt.Sprintf("%s: %v", KeySMSPrice, err)}}
		}
		if s != "" {
			price, err := ParsePrice(s)
			if err != nil {
				return base, &SessionSettingsError{Errors: []string{err.Error()}}
			}
			settings.SMSPrice = price
		}
	}

	return settings, nil
}

// credentialKeys are accepted only as a complete set.
var credentialKeys = []string{
	KeyOpenNodeAPIKey,
	KeyTwilioAccountSID,
	KeyTwilioAuthToken,
	KeyTwilioPhoneNumber,
}

func checkCredentialSet(doc map[string]interface{}) error {
	var missing []string
	supplied := 0
	for _, key := range credentialKeys {
		if cast.ToString(doc[key]) != "" {
			supplied++
		} else {
			missing = append(missing, key)
		}
	}
	if supplied == 0 || supplied == len(credentialKeys) {
		return nil
	}
	return &SessionSettingsError{Errors: []string{
		fmt.Sprintf("session credentials are incomplete, missing %s", strings.Join(missing, ", ")),
	}}
}

func sessionDocument(r *http.Request) (map[string]interface{}, error) {
	query := r.URL.Query()
	doc := make(map[string]interface{})

	if encoded := query.Get(SessionQueryParam); encoded != "" {
		raw, err := decodeBase64(encoded)
		if err != nil {
			return nil, &SessionSettingsError{Errors: []string{"config: not base64"}}
		}
		if err := json.Unmarshal(raw, &doc); err != nil {
			return nil, &SessionSettingsError{Errors: []string{"config: not a JSON object"}}
		}
		if doc == nil {
			doc = make(map[string]interface{})
		}
	}

	// Plain query keys win over the encoded document.
	for _, key := range sessionKeys {
		if v := query.Get(key); v != "" {
			doc[key] = v
		}
	}
	return doc, nil
}

func decodeBase64(s string) ([]byte, error) {
	for _, enc := range []*base64.Encoding{base64.StdEncoding, base64.URLEncoding, base64.RawStdEncoding, base64.RawURLEncoding} {
		if raw, err := enc.DecodeString(s); err == nil {
			return raw, nil
		}
	}
	return nil, errors.New("invalid base64")
}
