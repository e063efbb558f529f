// Package inbound turns HubSpot webhook deliveries into contact syncs.
//
// A delivery is a single event object or an array of events. Events are
// processed one after another in payload order; per-event failures are
// logged and reported in the batch summary, never returned as errors.
package inbound
