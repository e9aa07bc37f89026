// Package twitch bridges the relay to Twitch: an IRC chat bot connection
// with explicit subscribe/unsubscribe event listeners, and the OAuth
// authorization-code exchange.
package twitch
