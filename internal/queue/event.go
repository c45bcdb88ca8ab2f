// Package queue defines message payloads exchanged over the message broker.
package queue

// TwoFactorCodeEvent is published when a login requires two-factor
// verification.  It carries everything a downstream notification worker
// needs to deliver the code by mail or SMS without querying the primary
// database.
type TwoFactorCodeEvent struct {
    Username  string `json:"username"`
    Email     string `json:"email"`
    Phone     string `json:"phone"`
    Code      string `json:"code"`
    IssuedAt  string `json:"issued_at"`
    ExpiresAt string `json:"expires_at"`
}
