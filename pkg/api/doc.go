// Package api wires the HTTP surface: routing, the gate pipeline in
// front of every product endpoint, and the request handlers.
//
// Every /v1 route except token issuance and provider webhooks passes
// through authentication and tier rate limiting; individual routes add
// feature and credit gates on top.
package api
