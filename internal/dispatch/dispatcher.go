// Package dispatch delivers out-of-app notifications (email, push, chat)
// for events such as a new food match. Delivery is best-effort.
package dispatch

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Contact is everything a channel may need to reach one profile.
type Contact struct {
	ProfileID      uuid.UUID
	Name           string
	Email          string
	FCMToken       string
	TelegramChatID int64
}

// Message is one outbound notification.
type Message struct {
	To       Contact
	Subject  string
	Body     string
	HTMLBody string
	Data     map[string]string
}

// Dispatcher sends a message through whatever channels apply to the contact.
type Dispatcher interface {
	Notify(ctx context.Context, msg Message) error
}

// Channel is a single delivery mechanism. Channels skip contacts they cannot
// reach and return nil.
type Channel interface {
	Name() string
	Send(ctx context.Context, msg Message) error
}

// MultiDispatcher runs channels in order and collects their failures.
type MultiDispatcher struct {
	channels []Channel
	logger   *zap.Logger
}

func NewMultiDispatcher(logger *zap.Logger, channels ...Channel) *MultiDispatcher {
	return &MultiDispatcher{channels: channels, logger: logger.Named("dispatch")}
}

func (d *MultiDispatcher) Notify(ctx context.Context, msg Message) error {
	var errs []error
	for _, ch := range d.channels {
		if err := ch.Send(ctx, msg); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", ch.Name(), err))
		}
	}
	return errors.Join(errs...)
}

// Channels lists the configured channel names, for startup logging.
func (d *MultiDispatcher) Channels() []string {
	names := make([]string, 0, len(d.channels))
	for _, ch := range d.channels {
		names = append(names, ch.Name())
	}
	return names
}

// LogChannel writes the message to the log. Always on.
type LogChannel struct {
	logger *zap.Logger
}

func NewLogChannel(logger *zap.Logger) *LogChannel {
	return &LogChannel{logger: logger.Named("dispatch_log")}
}

func (c *LogChannel) Name() string { return "log" }

func (c *LogChannel) Send(_ context.Context, msg Message) error {
	c.logger.Info("Notification dispatched",
		zap.String("profileID", msg.To.ProfileID.String()),
		zap.String("subject", msg.Subject),
		zap.Bool("hasEmail", msg.To.Email != ""),
	)
	return nil
}
