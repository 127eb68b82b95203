package chat

import (
	"context"
	"errors"
	"time"
)

// ErrMessageNotFound is returned by Edit and Delete when the target message no longer exists.
var ErrMessageNotFound = errors.New("message not found")

// SendOptions tunes a single outbound message.
type SendOptions struct {
	// DeleteAfter removes the message automatically once it elapses. Zero keeps the message.
	DeleteAfter time.Duration
}

// Client defines the chat operations the bot core needs from the messaging platform.
type Client interface {
	Send(ctx context.Context, chatID int64, text string, opts SendOptions) (MessageRef, error)
	Edit(ctx context.Context, ref MessageRef, text string) error
	Delete(ctx context.Context, ref MessageRef) error
	// Subscribe opens a stream of messages posted in chatID with an id greater than after.
	Subscribe(chatID int64, after int) Stream
}

// Stream is an ordered, restartable view over the messages of a single chat.
type Stream interface {
	// Next returns the next message after the cursor, waiting at most wait.
	// It returns (nil, nil) when nothing arrived in time, and ctx.Err() once ctx is done.
	Next(ctx context.Context, wait time.Duration) (*Message, error)
	Close()
}
