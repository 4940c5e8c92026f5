package conversations

import (
	"time"

	"github.com/google/uuid"
	"github.com/jinzhu/copier"
)

// Log is the ordered message log of a session. It is append-only except for
// in-place replacement of the last message.
//
// Log is not safe for concurrent use; its owner serializes access.
type Log struct {
	messages   []Message
	generation uint64

	newID func() string
	now   func() time.Time
}

type LogOption func(*Log)

// WithIDGenerator overrides message ID generation.
func WithIDGenerator(newID func() string) LogOption {
	return func(l *Log) { l.newID = newID }
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) LogOption {
	return func(l *Log) { l.now = now }
}

func NewLog(opts ...LogOption) *Log {
	l := &Log{
		newID: newMessageID,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func newMessageID() string {
	if id, err := uuid.NewV7(); err == nil {
		return id.String()
	}
	return uuid.NewString()
}

// Append adds a new message at the end of the log and returns a copy of it.
func (l *Log) Append(role Role, content string) Message {
	message := Message{
		ID:        l.newID(),
		Role:      role,
		Content:   content,
		Timestamp: l.now(),
	}
	l.messages = append(l.messages, message)
	return message
}

// ReplaceLast replaces the content of the last message if it has the given
// role. It reports the updated message and whether a replacement happened.
func (l *Log) ReplaceLast(role Role, content string) (Message, bool) {
	if len(l.messages) == 0 {
		return Message{}, false
	}

	last := &l.messages[len(l.messages)-1]
	if last.Role != role {
		return Message{}, false
	}

	last.Content = content
	last.Timestamp = l.now()
	return *last, true
}

// Clear discards every message and starts a new generation.
func (l *Log) Clear() {
	l.messages = nil
	l.generation++
}

// Generation changes every time the log is cleared. Writers that captured a
// generation compare it before applying late updates.
func (l *Log) Generation() uint64 { return l.generation }

// Snapshot returns a copy of the messages, oldest first.
func (l *Log) Snapshot() []Message {
	snapshot := make([]Message, 0, len(l.messages))
	if err := copier.Copy(&snapshot, l.messages); err != nil {
		snapshot = append(snapshot[:0], l.messages...)
	}
	return snapshot
}
