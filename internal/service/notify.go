package service

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Button is one inline keyboard button of an outgoing message. Data is
// the opaque callback token the transport echoes back when pressed.
type Button struct {
	Text string
	Data string
}

// Notifier delivers a message to a chat user. Implementations live at
// the transport edge (telebot); services stay transport-agnostic.
type Notifier interface {
	Send(ctx context.Context, chatID int64, text string, buttons [][]Button) error
}

// Message is one recipient's payload in a fan-out.
type Message struct {
	ChatID  int64
	Text    string
	Buttons [][]Button
}

const (
	// fanOutConcurrency bounds how many sends run at once.
	fanOutConcurrency = 8
	// recipientTimeout bounds each individual send, so one slow
	// recipient cannot stall the whole fan-out.
	recipientTimeout = 5 * time.Second
)

// fanOut delivers messages to all recipients concurrently. Failures
// are isolated per recipient: they are logged and counted, never
// propagated, so one unreachable member does not block the rest.
func fanOut(ctx context.Context, notifier Notifier, logger *zap.Logger, messages []Message) {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(fanOutConcurrency)

	for _, msg := range messages {
		msg := msg
		g.Go(func() error {
			sendCtx, cancel := context.WithTimeout(ctx, recipientTimeout)
			defer cancel()

			if err := notifier.Send(sendCtx, msg.ChatID, msg.Text, msg.Buttons); err != nil {
				logger.Warn("Failed to deliver notification",
					zap.Int64("chat_id", msg.ChatID),
					zap.Error(err),
				)
			}
			return nil
		})
	}

	// Errors never escape the goroutines, Wait only joins them.
	_ = g.Wait()
}
