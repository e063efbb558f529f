// Package core contains the relay domain: inbound webhook events, the source
// CRM contact/company records, the destination contact record, the field
// mapper, and the contracts the dispatcher uses to reach the remote APIs.
// Provider and transport packages depend on core; core must not depend on them.
package core
