package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ConsentType names the side effect a decision gates.
type ConsentType string

const (
	ConsentEmailSend ConsentType = "email_send"
	ConsentSMS       ConsentType = "sms"
)

func (t ConsentType) IsValid() bool {
	return t == ConsentEmailSend || t == ConsentSMS
}

// Record is one append-only consent decision. Repeated asks within a call
// produce separate records.
type Record struct {
	ID                uuid.UUID   `json:"id"`
	Phone             string      `json:"phone"`
	CallID            string      `json:"call_id"`
	Type              ConsentType `json:"consent_type"`
	Decision          bool        `json:"decision"`
	TranscriptSnippet string      `json:"transcript_snippet,omitempty"`
	CreatedAt         time.Time   `json:"created_at"`
}

// Validate checks the fields every stored record must carry.
func (r Record) Validate() error {
	if r.Phone == "" {
		return fmt.Errorf("consent record phone is required")
	}
	if r.CallID == "" {
		return fmt.Errorf("consent record call id is required")
	}
	if !r.Type.IsValid() {
		return fmt.Errorf("invalid consent type %q", r.Type)
	}
	return nil
}
