// Package audit records authorization decisions for offline review.
// Recording is fire-and-forget: a failing or slow sink never blocks and
// never changes a decision.
package audit

import (
	jsoniter "github.com/json-iterator/go"

	"github.com/mqguard/mqguard/logger"
)

var log = logger.Get().Named("audit")

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	Connect    = "connect"
	Subscribe  = "subscribe"
	Publish    = "publish"
	Disconnect = "disconnect"
)

// Event is one recorded decision.
type Event struct {
	ClientID  string `json:"clientid"`
	Username  string `json:"username"`
	Topic     string `json:"topic,omitempty"`
	Action    string `json:"action"`
	Allowed   bool   `json:"allowed"`
	Reason    string `json:"reason,omitempty"`
	Endpoint  string `json:"endpoint,omitempty"`
	Size      int64  `json:"size,omitempty"`
	Timestamp int64  `json:"ts"`
}

// Encode renders the event as JSON for transport sinks.
func (e *Event) Encode() ([]byte, error) {
	return json.Marshal(e)
}

// Sink receives drained audit events.
type Sink interface {
	Publish(e *Event) error
	Close() error
}
