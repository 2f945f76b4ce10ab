// Package pubsub provides the interface-driven signaling channel used to
// deliver out-of-band call messages between participants. Delivery is
// at-most-once: the in-memory implementation serves single-instance
// deployments, the Redis implementation spans instances.
package pubsub

import (
	"context"
	"encoding/json"
)

// Message represents a pub/sub message with typed payload
type Message struct {
	Topic   string          `json:"topic"`
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Handler is a callback for processing messages
type Handler func(ctx context.Context, msg *Message)

// Subscription represents an active subscription that can be closed
type Subscription interface {
	// Unsubscribe removes the subscription
	Unsubscribe() error
}

// PubSub defines the interface for publish/subscribe operations.
// All implementations must be safe for concurrent use.
type PubSub interface {
	// Publish sends a message to all subscribers of the given topic.
	// Publishing to a topic with no subscribers is not an error.
	Publish(ctx context.Context, topic string, msg *Message) error

	// Subscribe registers a handler for messages on the given topic.
	// The handler is called for each message published to the topic.
	// Returns a Subscription that can be used to unsubscribe.
	Subscribe(ctx context.Context, topic string, handler Handler) (Subscription, error)

	// Close shuts down the pub/sub system and releases resources.
	Close() error
}

// TopicBuilder helps construct consistent topic names
type TopicBuilder struct{}

// Calls returns the signaling topic for a participant. Every signaling
// message addressed to that participant is published here, and each client
// process holds exactly one long-lived subscription to its own topic.
func (t TopicBuilder) Calls(participantID string) string {
	return "calls-" + participantID
}

// Topics is a helper for building topic names
var Topics = TopicBuilder{}
