// Package notify carries transient, auto-dismissing user notifications from the form workflow to
// whatever renders them.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf16"
	"unicode/utf8"

	"github.com/rs/zerolog"
)

const (
	StatusSuccess Status = "success"
	StatusError   Status = "error"

	PositionTop = "top"

	// DefaultDuration is how long a toast stays on screen
	DefaultDuration = 3000 * time.Millisecond

	// TriggerEvent is the client-side event name carried in the HX-Trigger header
	TriggerEvent = "notify"
)

type (
	Status string

	Notification struct {
		Status   Status
		Title    string
		Position string
		Duration time.Duration
	}

	Notifier interface {
		Notify(ctx context.Context, n Notification)
	}

	// Recorder keeps notifications in memory until a handler renders them
	Recorder struct {
		mu            sync.Mutex
		notifications []Notification
	}

	// LogNotifier writes notifications to a logger, for terminal use
	LogNotifier struct {
		logger zerolog.Logger
	}

	triggerPayload struct {
		Status   Status `json:"status"`
		Title    string `json:"title"`
		Position string `json:"position"`
		Duration int64  `json:"duration"`
	}
)

// Success builds a top-aligned success toast with the default duration
func Success(title string) Notification {
	return Notification{Status: StatusSuccess, Title: title, Position: PositionTop, Duration: DefaultDuration}
}

// Failure builds a top-aligned error toast with the default duration
func Failure(title string) Notification {
	return Notification{Status: StatusError, Title: title, Position: PositionTop, Duration: DefaultDuration}
}

func (r *Recorder) Notify(_ context.Context, n Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notifications = append(r.notifications, n)
}

// Notifications returns a copy of everything recorded so far
func (r *Recorder) Notifications() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Notification, len(r.notifications))
	copy(out, r.notifications)
	return out
}

// Last returns the most recent notification
func (r *Recorder) Last() (Notification, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.notifications) == 0 {
		return Notification{}, false
	}
	return r.notifications[len(r.notifications)-1], true
}

func NewLogNotifier(logger zerolog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger.With().Str("component", "notify").Logger()}
}

func (l *LogNotifier) Notify(_ context.Context, n Notification) {
	event := l.logger.Info()
	if n.Status == StatusError {
		event = l.logger.Error()
	}
	event.
		Str("status", string(n.Status)).
		Str("position", n.Position).
		Dur("duration", n.Duration).
		Msg(n.Title)
}

// HXTrigger encodes n as an HX-Trigger header value: {"notify": {...}}
func HXTrigger(n Notification) (string, error) {
	b, err := json.Marshal(map[string]triggerPayload{
		TriggerEvent: {
			Status:   n.Status,
			Title:    n.Title,
			Position: n.Position,
			Duration: n.Duration.Milliseconds(),
		},
	})
	if err != nil {
		return "", err
	}
	return asciiJSON(b), nil
}

// asciiJSON escapes non-ASCII runes as \uXXXX; browsers read response headers as latin-1
func asciiJSON(b []byte) string {
	var sb strings.Builder
	for _, r := range string(b) {
		if r < utf8.RuneSelf {
			sb.WriteRune(r)
			continue
		}
		for _, u := range utf16.Encode([]rune{r}) {
			fmt.Fprintf(&sb, `\u%04x`, u)
		}
	}
	return sb.String()
}
