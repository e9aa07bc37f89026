// Package handlers contains the request handlers registered with the
// dispatch registry, one per request event type.
package handlers
