// Package server exposes the relay over HTTP: the HubSpot webhook endpoint,
// a health check and, when the activity ledger is enabled, a read-only view
// of recent outcomes.
package server
