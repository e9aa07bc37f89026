package twitch

import "time"

// ChatMessage is one chat line received from the channel.
type ChatMessage struct {
	Username string
	Channel  string
	Message  string
}

// SubscriptionEvent is a new subscription, resubscription or gifted sub.
type SubscriptionEvent struct {
	Username string
	Plan     string
	Months   int
	Message  string
}

// BitsEvent is a cheer carrying bits.
type BitsEvent struct {
	Username string
	Amount   int
	Message  string
}

// FollowEvent is a new follower notification.
type FollowEvent struct {
	Username string
}

// RaidEvent is an incoming raid.
type RaidEvent struct {
	Username string
	Viewers  int
}

// HostEvent is an incoming host.
type HostEvent struct {
	Username string
	Viewers  int
}

// Credentials identify the bot account and the channel it joins.
type Credentials struct {
	Username    string
	AccessToken string
	Channel     string
}

// AuthState is the result of an OAuth code exchange.
type AuthState struct {
	IsAuthenticated bool
	Username        string
	AccessToken     string
	Channel         string
	ExpiresAt       time.Time
}
