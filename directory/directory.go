package directory

import "context"

// Direction tells whether a rule applies to subscriptions or publishes.
// The numeric values mirror the backing store's type column.
type Direction int

const (
	Subscribe Direction = iota
	Publish
)

func (d Direction) String() string {
	if d == Publish {
		return "publish"
	}
	return "subscribe"
}

// Polarity tells whether a rule denies (blacklist) or grants (whitelist).
type Polarity int

const (
	Blacklist Polarity = iota
	Whitelist
)

func (p Polarity) String() string {
	if p == Whitelist {
		return "whitelist"
	}
	return "blacklist"
}

// User is a directory-resolved principal with its credential hash and
// connection policy flags.
type User struct {
	ID               string `json:"id"`
	UserName         string `json:"username"`
	PasswordHash     string `json:"-"`
	ClientIDPrefix   string `json:"clientIdPrefix"`
	ClientID         string `json:"clientId"`
	ValidateClientID bool   `json:"validateClientId"`
	ThrottleUser     bool   `json:"throttleUser"`
	// MonthlyByteLimit is the publish quota in bytes, nil for unlimited.
	MonthlyByteLimit *int64 `json:"monthlyByteLimit"`
}

// Rule is a stored topic filter scoping what a user may publish or
// subscribe to.
type Rule struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Direction Direction `json:"direction"`
	Polarity  Polarity  `json:"polarity"`
	Filter    string    `json:"filter"`
}

// UserDirectory resolves users by login name and lists the configured
// client id prefixes. Implementations may block on I/O and must honor
// the context deadline.
type UserDirectory interface {
	// UserByName returns (nil, nil) when no user with that name exists.
	UserByName(ctx context.Context, name string) (*User, error)

	// ClientIDPrefixes returns every configured client id prefix across
	// all users.
	ClientIDPrefixes(ctx context.Context) ([]string, error)
}

// RuleStore lists the rules for one user, direction and polarity in
// stored order. The order must be stable between calls so first-match
// evaluation stays deterministic.
type RuleStore interface {
	Rules(ctx context.Context, userID string, dir Direction, pol Polarity) ([]Rule, error)
}
