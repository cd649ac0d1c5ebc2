package logger

import (
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// LogEntry is one status line written to the event bus
type LogEntry struct {
	Seq       uint64    `json:"seq"`
	Timestamp time.Time `json:"timestamp"`
	Tag       string    `json:"tag,omitempty"`
	Message   string    `json:"message"`
}

// Line returns the entry as it was written
func (e LogEntry) Line() string {
	if e.Tag == "" {
		return e.Message
	}
	return e.Tag + " " + e.Message
}

// EventBus is an in-memory, append-only sink for human-readable status lines.
// It keeps the last capacity entries and fans new ones out to subscribers.
// Writes from concurrent jobs are serialized, so lines never interleave.
type EventBus struct {
	mu       sync.Mutex
	ring     []LogEntry
	head     int // index of the oldest entry
	size     int
	seq      uint64
	subs     map[int]chan LogEntry
	nextSub  int
	dropped  uint64
	mirror   *zap.Logger
	capacity int
}

// NewEventBus creates a bus retaining up to capacity lines. Every line is also
// logged to mirror at info level when mirror is not nil.
func NewEventBus(capacity int, mirror *zap.Logger) *EventBus {
	if capacity < 1 {
		capacity = 1
	}
	return &EventBus{
		ring:     make([]LogEntry, capacity),
		subs:     make(map[int]chan LogEntry),
		mirror:   mirror,
		capacity: capacity,
	}
}

// Write appends a line. It never blocks; subscribers that fall behind miss lines.
func (b *EventBus) Write(line string) {
	line = strings.TrimRight(line, "\r\n")
	tag, message := splitTag(line)

	b.mu.Lock()
	b.seq++
	entry := LogEntry{
		Seq:       b.seq,
		Timestamp: time.Now(),
		Tag:       tag,
		Message:   message,
	}

	idx := (b.head + b.size) % b.capacity
	b.ring[idx] = entry
	if b.size < b.capacity {
		b.size++
	} else {
		b.head = (b.head + 1) % b.capacity
	}

	for _, ch := range b.subs {
		select {
		case ch <- entry:
		default:
			b.dropped++
		}
	}
	b.mu.Unlock()

	if b.mirror != nil {
		b.mirror.Info(message, zap.String("tag", tag))
	}
}

// Lines returns up to limit of the most recent entries, oldest first. limit <= 0 returns all.
func (b *EventBus) Lines(limit int) []LogEntry {
	b.mu.Lock()
	defer b.mu.Unlock()

	n := b.size
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]LogEntry, n)
	for i := 0; i < n; i++ {
		out[i] = b.ring[(b.head+b.size-n+i)%b.capacity]
	}
	return out
}

// Search returns the most recent entries whose line contains query, case-insensitively
func (b *EventBus) Search(query string, limit int) []LogEntry {
	query = strings.ToLower(query)

	var matched []LogEntry
	for _, e := range b.Lines(0) {
		if strings.Contains(strings.ToLower(e.Line()), query) {
			matched = append(matched, e)
		}
	}

	if limit > 0 && len(matched) > limit {
		matched = matched[len(matched)-limit:]
	}
	return matched
}

// Subscribe returns a channel receiving every entry written from now on.
// The returned func unsubscribes and closes the channel.
func (b *EventBus) Subscribe(buffer int) (<-chan LogEntry, func()) {
	if buffer < 1 {
		buffer = 64
	}
	ch := make(chan LogEntry, buffer)

	b.mu.Lock()
	id := b.nextSub
	b.nextSub++
	b.subs[id] = ch
	b.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
			close(ch)
		})
	}
}

// Dropped returns how many entries slow subscribers have missed
func (b *EventBus) Dropped() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.dropped
}

// splitTag separates a leading "[Tag]" from the message
func splitTag(line string) (string, string) {
	if !strings.HasPrefix(line, "[") {
		return "", line
	}
	end := strings.IndexByte(line, ']')
	if end < 0 {
		return "", line
	}
	return line[:end+1], strings.TrimSpace(line[end+1:])
}
