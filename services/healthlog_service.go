package services

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"health-copilot-backend/models"
)

// NoRecordsReply is returned when the health log has nothing to show.
const NoRecordsReply = "No health records found."

// HealthLogService is the append-only in-memory record of auditable actions.
// Entries live for the lifetime of the process; there is no capacity bound and
// no deletion. Appends from overlapping requests may interleave, but each
// append is atomic.
type HealthLogService struct {
	mu      sync.Mutex
	entries []models.LogEntry
	now     func() time.Time
}

func NewHealthLogService() *HealthLogService {
	return &HealthLogService{
		now: time.Now,
	}
}

// Record appends one entry with a capture-time timestamp.
func (s *HealthLogService) Record(action, detail string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, models.LogEntry{
		Time:   s.now(),
		Action: action,
		Detail: detail,
	})
}

// Entries returns a copy of the log in insertion order.
func (s *HealthLogService) Entries() []models.LogEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.LogEntry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Format renders the log one line per entry, oldest first. Read-only.
func (s *HealthLogService) Format() string {
	entries := s.Entries()
	if len(entries) == 0 {
		return NoRecordsReply
	}

	lines := make([]string, 0, len(entries))
	for _, e := range entries {
		lines = append(lines, fmt.Sprintf("%s: [%s] %s", e.Time.Format(time.RFC3339), e.Action, e.Detail))
	}
	return strings.Join(lines, "\n")
}
