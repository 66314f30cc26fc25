package twilio

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/twilio/twilio-go/client"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"

	lnsms "github.com/lnsms/go"
)

type fakeAPI struct {
	params []*openapi.CreateMessageParams
	sid    string
	err    error
}

func (f *fakeAPI) CreateMessage(params *openapi.CreateMessageParams) (*openapi.ApiV2010Message, error) {
	f.params = append(f.params, params)
	if f.err != nil {
		return nil, f.err
	}
	sid := f.sid
	return &openapi.ApiV2010Message{Sid: &sid}, nil
}

func TestSendMessage(t *testing.T) {
	api := &fakeAPI{sid: "SM123"}
	sender := &Sender{api: api}

	sid, err := sender.SendMessage(context.Background(), "+15550000000", "+15551234567", "Hello")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if sid != "SM123" {
		t.Errorf("Expected sid SM123, got %s", sid)
	}

	if len(api.params) != 1 {
		t.Fatalf("Expected one CreateMessage call, got %d", len(api.params))
	}
	params := api.params[0]
	if *params.To != "+15551234567" || *params.From != "+15550000000" || *params.Body != "Hello" {
		t.Errorf("Unexpected params: to=%s from=%s body=%s", *params.To, *params.From, *params.Body)
	}
}

func TestSendMessageRestError(t *testing.T) {
	api := &fakeAPI{err: &client.TwilioRestError{
		Code:    21211,
		Message: "The 'To' number is not a valid phone number.",
		Status:  400,
	}}
	sender := &Sender{api: api}

	_, err := sender.SendMessage(context.Background(), "+15550000000", "bogus", "Hello")

	var deliveryErr *lnsms.DeliveryError
	if !errors.As(err, &deliveryErr) {
		t.Fatalf("Expected DeliveryError, got %v", err)
	}
	if deliveryErr.To != "bogus" || deliveryErr.Code != 21211 || deliveryErr.Status != 400 {
		t.Errorf("Unexpected delivery error fields: %+v", deliveryErr)
	}
	if !strings.Contains(err.Error(), "not a valid phone number") {
		t.Errorf("Expected provider message in error, got %v", err)
	}
}

func TestSendMessageTransportError(t *testing.T) {
	cause := errors.New("connection reset")
	sender := &Sender{api: &fakeAPI{err: cause}}

	_, err := sender.SendMessage(context.Background(), "+15550000000", "+15551234567", "Hello")

	var deliveryErr *lnsms.DeliveryError
	if !errors.As(err, &deliveryErr) {
		t.Fatalf("Expected DeliveryError, got %v", err)
	}
	if !errors.Is(err, cause) {
		t.Errorf("Expected error to wrap the transport cause, got %v", err)
	}
	if deliveryErr.Code != 0 {
		t.Errorf("Expected no provider code, got %d", deliveryErr.Code)
	}
}

func TestSendMessageMissingSid(t *testing.T) {
	sender := &Sender{api: &fakeAPI{sid: ""}}

	_, err := sender.SendMessage(context.Background(), "+15550000000", "+15551234567", "Hello")

	var deliveryErr *lnsms.DeliveryError
	if !errors.As(err, &deliveryErr) {
		t.Errorf("Expected DeliveryError, got %v", err)
	}
}

func TestSendMessageCancelled(t *testing.T) {
	api := &fakeAPI{sid: "SM1"}
	sender := &Sender{api: api}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := sender.SendMessage(ctx, "+15550000000", "+15551234567", "Hello")
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
	if len(api.params) != 0 {
		t.Errorf("Expected no request after cancellation, got %d", len(api.params))
	}
}

func TestNewSender(t *testing.T) {
	sender := NewSender("AC123", "token")
	if sender.api == nil {
		t.Error("Expected a message API")
	}
}
