// Package twilio implements lnsms.MessageSender over the Twilio Messages API.
package twilio

import (
	"context"
	"errors"
	"time"

	twiliosdk "github.com/twilio/twilio-go"
	"github.com/twilio/twilio-go/client"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"

	lnsms "github.com/lnsms/go"
)

// DefaultTimeout bounds a single send request.
const DefaultTimeout = 30 * time.Second

// messageAPI is the slice of the Twilio SDK the sender uses.
type messageAPI interface {
	CreateMessage(params *openapi.CreateMessageParams) (*openapi.ApiV2010Message, error)
}

// Sender sends SMS through one Twilio account. It performs one request per
// call with no retry.
type Sender struct {
	api messageAPI
}

// NewSender creates a sender authenticated with an account SID and auth token.
func NewSender(accountSID, authToken string) *Sender {
	restClient := twiliosdk.NewRestClientWithParams(twiliosdk.ClientParams{
		Username: accountSID,
		Password: authToken,
	})
	restClient.SetTimeout(DefaultTimeout)
	return &Sender{api: restClient.Api}
}

// SendMessage sends body from one number to another and returns the message SID.
func (s *Sender) SendMessage(ctx context.Context, from, to, body string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", &lnsms.DeliveryError{To: to, Message: err.Error(), Err: err}
	}

	params := &openapi.CreateMessageParams{}
	params.SetTo(to)
	params.SetFrom(from)
	params.SetBody(body)

	msg, err := s.api.CreateMessage(params)
	if err != nil {
		return "", deliveryError(to, err)
	}
	if msg == nil || msg.Sid == nil || *msg.Sid == "" {
		return "", &lnsms.DeliveryError{To: to, Message: "response carried no message sid"}
	}
	return *msg.Sid, nil
}

func deliveryError(to string, err error) *lnsms.DeliveryError {
	var restErr *client.TwilioRestError
	if errors.As(err, &restErr) {
		return &lnsms.DeliveryError{
			To:      to,
			Code:    restErr.Code,
			Status:  restErr.Status,
			Message: restErr.Message,
			Err:     err,
		}
	}
	return &lnsms.DeliveryError{To: to, Message: err.Error(), Err: err}
}

// Ensure Sender implements lnsms.MessageSender
var _ lnsms.MessageSender = (*Sender)(nil)
