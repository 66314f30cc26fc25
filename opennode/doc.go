// Package opennode implements lnsms.ChargeGateway over the OpenNode v1 REST API.
//
// Responses are decoded into typed structures at this boundary. A non-2xx
// answer, a transport fault, a timeout or a response missing required fields
// is reported as *lnsms.UpstreamError; requests are never retried.
//
// The package also verifies the charge callbacks OpenNode posts to the
// callback_url given at charge creation.
package opennode
