// Package paywall renders the payment presentation for a charge: a scannable
// QR code of the Lightning invoice, a lightning: deep link for mobile
// wallets, and a small HTML page that opens the wallet and falls back to the
// provider's hosted checkout.
package paywall
