// Package serial appends events to per-key lists and publishes one stream
// entry per drain epoch.
//
// The first append to an empty list mints a fresh coordination token and
// publishes an entry naming the list. Later appends only extend the token's
// lifetime; the drain already running for that key picks them up.
package serial
