// Package storage is the engine's view of the relational store: the device
// registry, the delivery ledger, the message log, the in-app feed, and the
// read-only business tables (users, shows, subscriptions).
//
// The ledger insert is the system's only mutual-exclusion primitive. Claim()
// must be an atomic insert-if-absent; a lost claim means another run already
// sent the notification.
package storage
