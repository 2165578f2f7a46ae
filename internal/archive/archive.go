// Package archive persists the closing snapshot of every call.
package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	sessionmodels "callfile/internal/session/models"
)

// Entry is the call-scoped archive record: the platform's raw summary payload
// plus the final session state.
type Entry struct {
	ID         uuid.UUID                  `json:"id"`
	CallID     string                     `json:"call_id"`
	Phone      string                     `json:"phone,omitempty"`
	Summary    json.RawMessage            `json:"summary,omitempty"`
	Session    *sessionmodels.CallSession `json:"session,omitempty"`
	ArchivedAt time.Time                  `json:"archived_at"`
}

func (e Entry) validate() error {
	if e.CallID == "" {
		return fmt.Errorf("archive entry call id is required")
	}
	if len(e.Summary) > 0 && !json.Valid(e.Summary) {
		return fmt.Errorf("archive entry summary is not valid JSON")
	}
	return nil
}

// Sink is a destination for archive entries.
type Sink interface {
	Write(ctx context.Context, entry Entry) error
	Close() error
}

// Discard drops every entry. It backs the "none" sink setting.
type Discard struct{}

func (Discard) Write(context.Context, Entry) error { return nil }
func (Discard) Close() error                       { return nil }
