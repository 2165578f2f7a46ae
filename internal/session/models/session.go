package models

import (
	"slices"
	"time"
)

// Decision is a tri-state consent answer. The zero value means "never asked".
type Decision string

const (
	DecisionUnset Decision = ""
	DecisionYes   Decision = "yes"
	DecisionNo    Decision = "no"
)

func DecisionOf(yes bool) Decision {
	if yes {
		return DecisionYes
	}
	return DecisionNo
}

// Follow-up reason codes recorded when a loop exhausts its budget.
const (
	FollowUpEmailNotCaptured        = "email_not_captured"
	FollowUpEmailValidationFailed   = "email_validation_failed"
	FollowUpAddressValidationFailed = "address_validation_failed"
)

// Geocode is a pending read-back geocode kept until the caller confirms.
type Geocode struct {
	Lat        float64 `json:"lat"`
	Lng        float64 `json:"lng"`
	Confidence string  `json:"confidence,omitempty"`
}

// CallerExtras is the richer lookup detail handed to the platform alongside
// the snapshot. Empty fields are omitted.
type CallerExtras struct {
	FirstName       string         `json:"firstname,omitempty"`
	MiddleName      string         `json:"middlename,omitempty"`
	LastName        string         `json:"lastname,omitempty"`
	AlternateNames  []string       `json:"alternate_names,omitempty"`
	AgeRange        string         `json:"age_range,omitempty"`
	Gender          string         `json:"gender,omitempty"`
	OwnerType       string         `json:"owner_type,omitempty"`
	Carrier         string         `json:"carrier,omitempty"`
	IsPrepaid       *bool          `json:"is_prepaid,omitempty"`
	IsCommercial    *bool          `json:"is_commercial,omitempty"`
	Emails          []string       `json:"all_emails,omitempty"`
	Addresses       []ExtraAddress `json:"all_addresses,omitempty"`
	AlternatePhones []ExtraPhone   `json:"alternate_phones,omitempty"`
	OwnerCount      int            `json:"owner_count,omitempty"`
	Owners          []ExtraOwner   `json:"all_owners_summary,omitempty"`
}

type ExtraAddress struct {
	Formatted string   `json:"address"`
	Lat       *float64 `json:"lat,omitempty"`
	Lng       *float64 `json:"lng,omitempty"`
	Accuracy  string   `json:"accuracy,omitempty"`
}

type ExtraPhone struct {
	Number   string `json:"number"`
	LineType string `json:"line_type,omitempty"`
}

type ExtraOwner struct {
	Name     string `json:"name,omitempty"`
	Type     string `json:"type,omitempty"`
	AgeRange string `json:"age_range,omitempty"`
}

// Clone returns a deep copy.
func (x *CallerExtras) Clone() *CallerExtras {
	if x == nil {
		return nil
	}
	out := *x
	out.IsPrepaid = cloneBool(x.IsPrepaid)
	out.IsCommercial = cloneBool(x.IsCommercial)
	out.AlternateNames = slices.Clone(x.AlternateNames)
	out.Emails = slices.Clone(x.Emails)
	out.AlternatePhones = slices.Clone(x.AlternatePhones)
	out.Owners = slices.Clone(x.Owners)
	if x.Addresses != nil {
		out.Addresses = make([]ExtraAddress, len(x.Addresses))
		for i, a := range x.Addresses {
			a.Lat = cloneFloat(a.Lat)
			a.Lng = cloneFloat(a.Lng)
			out.Addresses[i] = a
		}
	}
	return &out
}

func cloneBool(b *bool) *bool {
	if b == nil {
		return nil
	}
	v := *b
	return &v
}

func cloneFloat(f *float64) *float64 {
	if f == nil {
		return nil
	}
	v := *f
	return &v
}

// CallSession is the per-call scratch record. Every zero value is a valid
// default, so a missing session and New(callID) are interchangeable.
type CallSession struct {
	CallID string `json:"call_id"`
	Phone  string `json:"phone,omitempty"`
	Step   string `json:"step,omitempty"`

	// Snapshot taken from enrichment at call start.
	OwnerName        string `json:"owner_name,omitempty"`
	LineType         string `json:"line_type,omitempty"`
	SMSEligible      bool   `json:"sms_eligible,omitempty"`
	CandidateEmail   string `json:"candidate_email,omitempty"`
	CandidateAddress string `json:"candidate_address,omitempty"`
	RecordSource     string `json:"record_source,omitempty"`

	Extras *CallerExtras `json:"extras,omitempty"`

	IdentityConfirmed bool `json:"identity_confirmed,omitempty"`
	IdentityMismatch  bool `json:"identity_mismatch,omitempty"`

	WorkingEmail     string `json:"working_email,omitempty"`
	EmailSource      string `json:"email_source,omitempty"`
	EmailAttempts    int    `json:"email_attempts,omitempty"`
	SpellingAttempts int    `json:"spelling_attempts,omitempty"`
	EmailStatus      string `json:"email_status,omitempty"`
	EmailSubStatus   string `json:"email_sub_status,omitempty"`
	EmailMessageID   string `json:"email_message_id,omitempty"`

	CollectedAddress        string   `json:"collected_address,omitempty"`
	AddressSource           string   `json:"address_source,omitempty"`
	AddressAttempts         int      `json:"address_attempts,omitempty"`
	AddressValidationStatus string   `json:"address_validation_status,omitempty"`
	PendingAddress          string   `json:"pending_address,omitempty"`
	PendingAddressRaw       string   `json:"pending_address_raw,omitempty"`
	PendingGeocode          *Geocode `json:"pending_geocode,omitempty"`

	EmailConsent Decision `json:"email_consent,omitempty"`
	SMSConsent   Decision `json:"sms_consent,omitempty"`

	FollowUpRequired bool   `json:"follow_up_required,omitempty"`
	FollowUpReason   string `json:"follow_up_reason,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// New returns the default session for a call.
func New(callID string) *CallSession {
	return &CallSession{CallID: callID}
}

// Escalate flags the call for out-of-call resolution.
func (s *CallSession) Escalate(reason string) {
	s.FollowUpRequired = true
	s.FollowUpReason = reason
}

// Touch stamps CreatedAt on first write and UpdatedAt on every write.
func (s *CallSession) Touch(now time.Time) {
	if s.CreatedAt.IsZero() {
		s.CreatedAt = now
	}
	s.UpdatedAt = now
}

// Clone returns a copy that shares no pointers with s.
func (s *CallSession) Clone() *CallSession {
	if s == nil {
		return nil
	}
	out := *s
	if s.PendingGeocode != nil {
		g := *s.PendingGeocode
		out.PendingGeocode = &g
	}
	out.Extras = s.Extras.Clone()
	return &out
}
