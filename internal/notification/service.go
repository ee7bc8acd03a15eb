package notification

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

type EventType string

const (
	EventPeopleChanged EventType = "people.changed"
	EventPeopleFailed  EventType = "people.failed"
)

type Severity string

const (
	SeverityInfo  Severity = "info"
	SeverityError Severity = "error"
)

// Event is addressed to one viewer. Payload is sent to subscribers as-is.
type Event struct {
	UserID   string
	Event    EventType
	Severity Severity
	Title    string
	Message  string
	Payload  interface{}
	Metadata map[string]interface{}
}

type Service interface {
	Publish(ctx context.Context, evt Event) error
	Subscribe(n Notifier) (unsubscribe func())
	NotifyChanged(ctx context.Context, userID string, snapshot interface{}) error
	NotifyFailed(ctx context.Context, userID, operation string, cause error) error
}

type service struct {
	logger zerolog.Logger

	mu        sync.RWMutex
	notifiers map[int]Notifier
	nextID    int
}

func NewService(logger zerolog.Logger, notifiers ...Notifier) Service {
	s := &service{
		logger:    logger.With().Str("component", "notification_service").Logger(),
		notifiers: make(map[int]Notifier),
	}
	for _, n := range notifiers {
		if n != nil {
			s.Subscribe(n)
		}
	}
	return s
}

func (s *service) Subscribe(n Notifier) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.notifiers[id] = n
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.notifiers, id)
			s.mu.Unlock()
		})
	}
}

// Publish fans evt out to every subscriber. Delivery failures are logged, not returned.
func (s *service) Publish(ctx context.Context, evt Event) error {
	if evt.Event == "" {
		return fmt.Errorf("event type is required")
	}
	if evt.Severity == "" {
		evt.Severity = SeverityInfo
	}
	evt.Title = strings.TrimSpace(evt.Title)
	evt.Message = strings.TrimSpace(evt.Message)
	if evt.Title == "" {
		evt.Title = string(evt.Event)
	}

	s.mu.RLock()
	active := make([]Notifier, 0, len(s.notifiers))
	for _, n := range s.notifiers {
		active = append(active, n)
	}
	s.mu.RUnlock()

	for _, n := range active {
		if err := n.Notify(ctx, evt); err != nil {
			logNotifyError(s.logger, err, notifierChannelName(n), evt)
		}
	}
	return nil
}

func (s *service) NotifyChanged(ctx context.Context, userID string, snapshot interface{}) error {
	if strings.TrimSpace(userID) == "" {
		return fmt.Errorf("user id is required for change notifications")
	}
	return s.Publish(ctx, Event{
		UserID:  userID,
		Event:   EventPeopleChanged,
		Payload: snapshot,
	})
}

func (s *service) NotifyFailed(ctx context.Context, userID, operation string, cause error) error {
	if strings.TrimSpace(userID) == "" {
		return fmt.Errorf("user id is required for failure notifications")
	}
	reason := "Unknown error"
	if cause != nil {
		reason = cause.Error()
	}
	return s.Publish(ctx, Event{
		UserID:   userID,
		Event:    EventPeopleFailed,
		Severity: SeverityError,
		Title:    fmt.Sprintf("%s failed", fallbackName(operation, "operation")),
		Message:  reason,
		Metadata: map[string]interface{}{
			"operation": operation,
		},
	})
}

func fallbackName(name, fallback string) string {
	if trimmed := strings.TrimSpace(name); trimmed != "" {
		return trimmed
	}
	return fallback
}

func notifierChannelName(n Notifier) string {
	type named interface {
		String() string
	}
	if v, ok := n.(named); ok {
		return v.String()
	}
	return fmt.Sprintf("%T", n)
}
