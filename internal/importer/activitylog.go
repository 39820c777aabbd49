package importer

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Severity classifies an activity log entry.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
	SeverityNew     Severity = "new" // a category or entity seen for the first time
)

// Entry is one line of the operator-facing import log. Messages are in
// Portuguese because that is what the operator reads. The id lets UI
// consumers deduplicate entries across streamed and polled reads.
type Entry struct {
	ID       string    `json:"id"`
	Time     time.Time `json:"time"`
	Severity Severity  `json:"severity"`
	Message  string    `json:"message"`
}

// maxEntries caps the log so a huge import cannot grow it without bound.
// Oldest entries are dropped first.
const maxEntries = 500

// ActivityLog is a capped, concurrency-safe list of import events.
type ActivityLog struct {
	mu      sync.Mutex
	entries []Entry
	now     func() time.Time
	notify  func(Entry)
}

func NewActivityLog() *ActivityLog {
	return &ActivityLog{now: time.Now}
}

// OnAppend registers a sink called for every new entry. Used to stream
// progress to the UI while an import runs.
func (l *ActivityLog) OnAppend(fn func(Entry)) {
	l.mu.Lock()
	l.notify = fn
	l.mu.Unlock()
}

func (l *ActivityLog) Add(sev Severity, msg string) {
	l.mu.Lock()
	e := Entry{ID: uuid.NewString(), Time: l.now(), Severity: sev, Message: msg}
	l.entries = append(l.entries, e)
	if len(l.entries) > maxEntries {
		l.entries = l.entries[len(l.entries)-maxEntries:]
	}
	notify := l.notify
	l.mu.Unlock()

	if notify != nil {
		notify(e)
	}
}

// Entries returns a copy of the current log, oldest first.
func (l *ActivityLog) Entries() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

func (l *ActivityLog) Clear() {
	l.mu.Lock()
	l.entries = nil
	l.mu.Unlock()
}
