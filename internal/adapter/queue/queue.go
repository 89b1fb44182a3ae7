// Package queue defines the transport-neutral contract between the message
// broker and the work processor.
package queue

import "context"

// Message is one inbound work item. Ack may be called more than once; only
// the first call matters.
type Message interface {
	ID() string
	Data() []byte
	Ack()
}

// Handler processes one message. A non-nil error means the message could not
// be turned into a posted report; the transport decides what that means for
// acknowledgement.
type Handler func(ctx context.Context, msg Message) error
