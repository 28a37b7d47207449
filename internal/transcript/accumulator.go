// Package transcript keeps the running conversation of a live voice session.
package transcript

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"
)

const (
	RoleAssistant = "assistant"
	RoleUser      = "user"
	RoleSystem    = "system"
)

// Entry is one utterance in the conversation.
type Entry struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Accumulator holds the latest conversation snapshot. The voice agent sends
// cumulative snapshots, so every update replaces the previous one.
type Accumulator struct {
	mu       sync.Mutex
	entries  []Entry
	subtitle string
	frozen   bool
}

func NewAccumulator() *Accumulator {
	return &Accumulator{}
}

// Replace stores the snapshot minus system entries. Updates after Freeze are ignored.
func (a *Accumulator) Replace(snapshot []Entry) {
	filtered := Filter(snapshot)

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.frozen {
		return
	}
	a.entries = filtered
}

// SetSubtitle records the latest assistant utterance for live display.
func (a *Accumulator) SetSubtitle(content string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.subtitle = content
}

func (a *Accumulator) Subtitle() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.subtitle
}

// Snapshot returns a copy of the held transcript.
func (a *Accumulator) Snapshot() []Entry {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]Entry, len(a.entries))
	copy(out, a.entries)
	return out
}

// Freeze stops accepting updates and returns the final transcript.
func (a *Accumulator) Freeze() []Entry {
	a.mu.Lock()
	a.frozen = true
	a.mu.Unlock()
	return a.Snapshot()
}

// Filter drops system entries and entries without a usable role.
func Filter(snapshot []Entry) []Entry {
	out := make([]Entry, 0, len(snapshot))
	for _, e := range snapshot {
		role := strings.ToLower(strings.TrimSpace(e.Role))
		if role == "" || role == RoleSystem {
			continue
		}
		out = append(out, Entry{Role: role, Content: e.Content})
	}
	return out
}

// Serialize renders the transcript as the indented JSON array sent to the scorer.
func Serialize(entries []Entry) (string, error) {
	if entries == nil {
		entries = []Entry{}
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return "", fmt.Errorf("serialize transcript: %w", err)
	}
	return string(data), nil
}
