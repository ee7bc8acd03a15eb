package notification

import (
	"context"

	"github.com/rs/zerolog"
)

type Notifier interface {
	Notify(ctx context.Context, evt Event) error
}

// NotifierFunc adapts an in-process callback.
type NotifierFunc func(ctx context.Context, evt Event) error

func (f NotifierFunc) Notify(ctx context.Context, evt Event) error {
	return f(ctx, evt)
}

// ForUser only forwards events addressed to userID.
func ForUser(userID string, next Notifier) Notifier {
	return NotifierFunc(func(ctx context.Context, evt Event) error {
		if evt.UserID != userID {
			return nil
		}
		return next.Notify(ctx, evt)
	})
}

func logNotifyError(logger zerolog.Logger, err error, channel string, evt Event) {
	if err == nil {
		return
	}
	logger.Warn().
		Err(err).
		Str("user_id", evt.UserID).
		Str("event_type", string(evt.Event)).
		Str("channel", channel).
		Msg("failed to deliver notification")
}
