// Package providers groups the remote API clients used by the relay.
//
// hubspot reads contacts and their associated companies from the CRM source.
// pandadoc creates contacts in the destination platform.
package providers
