package lnsms

import (
	"context"
	"fmt"
)

const usageTemplate = `
Simple Bitcoin Lightning SMS Service

Price: $%s %s per SMS

How to Use (3 steps):

1. Create Payment:
   charge = create_sms_payment("+1234567890", "Hello World!")

2. Get QR Code & Pay:

   Desktop Wallet Users
   qr = get_sms_qr(charge["charge_id"])
   # Scan QR with Lightning wallet and pay

   Mobile Wallet Users
   Use get_sms_qr_with_link(charge_id) to get:
   - A lightning: deep link (opens your wallet app)
   - A fallback HTML snippet (redirects to wallet or hosted checkout)

3. Send SMS:
   result = pay_and_send_sms(charge["charge_id"])
   # Automatically sends SMS if payment received

Optional:
- check_charge_status(charge_id) - Check status without sending

That's it! No packages, no credits, just pay and send.
`

// Instructions renders the usage text with the price currently in effect.
func (s *Service) Instructions(ctx context.Context) (string, error) {
	settings, err := s.settings.Settings(ctx)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(usageTemplate, settings.SMSPrice.StringFixed(2), DefaultCurrency), nil
}
