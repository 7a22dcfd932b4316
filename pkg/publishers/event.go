package publishers

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

const (
	ActionUpload = "upload"
	ActionDelete = "delete"
)

// Event describes one change made to a site.
type Event struct {
	ID         string    `json:"id"`
	Sitename   string    `json:"sitename"`
	Action     string    `json:"action"`
	Files      []string  `json:"files"`
	OccurredAt time.Time `json:"occurred_at"`
}

// NewEvent stamps a change with the current time and a content-derived ID.
func NewEvent(sitename, action string, files []string) Event {
	evt := Event{
		Sitename:   sitename,
		Action:     action,
		Files:      append([]string(nil), files...),
		OccurredAt: time.Now().UTC(),
	}
	evt.ID = evt.digest()
	return evt
}

// digest identifies the event for sink-side deduplication.
func (e Event) digest() string {
	h := sha256.New()
	fmt.Fprintf(h, "%s\x00%s\x00%s\x00%d", e.Sitename, e.Action, strings.Join(e.Files, "\x00"), e.OccurredAt.UnixNano())
	return hex.EncodeToString(h.Sum(nil))[:32]
}

func (e Event) payload() ([]byte, error) {
	b, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshal event: %w", err)
	}
	return b, nil
}

// attributes are the non-empty routing attributes attached to queue and topic messages.
func (e Event) attributes() map[string]string {
	attrs := make(map[string]string, 3)
	for k, v := range map[string]string{
		"event_id": e.ID,
		"sitename": e.Sitename,
		"action":   e.Action,
	} {
		if v != "" {
			attrs[k] = v
		}
	}
	return attrs
}

// groupKey orders events per site on FIFO queues and topics.
func (e Event) groupKey() string {
	if e.Sitename == "" {
		return "neocities"
	}
	return e.Sitename
}

// dedupKey falls back to a fresh digest for events not built by NewEvent.
func (e Event) dedupKey() string {
	if e.ID != "" {
		return e.ID
	}
	return e.digest()
}
