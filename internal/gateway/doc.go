// Package gateway talks to the push gateway: it signs and exchanges a
// service-account JWT for a short-lived bearer token, and posts per-device
// FCM v1 messages carrying both platform blocks.
package gateway
