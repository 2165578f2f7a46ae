// Package providers defines the outbound collaborators used during a call and
// the shared HTTP plumbing their clients are built on.
package providers

import (
	"context"
	"encoding/json"
)

//go:generate mockgen -source=ports.go -destination=mocks/mocks.go -package=mocks

// IdentityLookup resolves a phone number to its registered owner.
type IdentityLookup interface {
	LookupPhone(ctx context.Context, phone string) (*Identity, error)
}

// EmailValidator checks deliverability of an address.
type EmailValidator interface {
	Validate(ctx context.Context, email string) (*EmailVerdict, error)
}

// Geocoder turns free text into a formatted address with coordinates.
// A nil result with a nil error means no match.
type Geocoder interface {
	Geocode(ctx context.Context, text string) (*GeocodeResult, error)
}

// PostalValidator checks a US street address against the postal database.
type PostalValidator interface {
	Validate(ctx context.Context, street, city, state, zip string) (*PostalResult, error)
}

// Mailer delivers transactional email.
type Mailer interface {
	Send(ctx context.Context, msg Message) (*Delivery, error)
}

// Identity is what the reverse phone lookup knows about a number.
type Identity struct {
	OwnerName      string
	FirstName      string
	LastName       string
	MiddleName     string
	AlternateNames []string
	AgeRange       string
	Gender         string
	OwnerType      string

	LineType     string
	SMSEligible  bool
	Carrier      string
	IsPrepaid    *bool
	IsCommercial *bool

	Emails          []string
	Addresses       []IdentityAddress
	AlternatePhones []AlternatePhone

	OwnerCount int
	Owners     []OwnerSummary

	// Raw is the provider response, stored verbatim on the caller record.
	Raw json.RawMessage
}

// FirstEmail returns the best candidate email or "".
func (i *Identity) FirstEmail() string {
	if i == nil || len(i.Emails) == 0 {
		return ""
	}
	return i.Emails[0]
}

// FirstAddress returns the best candidate address or "".
func (i *Identity) FirstAddress() string {
	if i == nil || len(i.Addresses) == 0 {
		return ""
	}
	return i.Addresses[0].Formatted
}

type IdentityAddress struct {
	Formatted string
	Lat       *float64
	Lng       *float64
	Accuracy  string
}

type AlternatePhone struct {
	Number   string
	LineType string
}

type OwnerSummary struct {
	Name         string
	Type         string
	AgeRange     string
	EmailCount   int
	AddressCount int
}

// EmailVerdict is the validator's opinion on one address.
// Invalid may be set alongside a valid status when the sub-status is
// rejected; Valid takes precedence.
type EmailVerdict struct {
	Status    string
	SubStatus string
	Invalid   bool
}

// Valid is true only for a definite "valid" status, whatever the sub-status.
func (v *EmailVerdict) Valid() bool {
	return v != nil && v.Status == "valid"
}

type GeocodeResult struct {
	Formatted    string
	Lat          float64
	Lng          float64
	LocationType string
}

// DPVNoMatch is the match code for an address the postal database does not know.
const DPVNoMatch = "N"

// PostalResult carries the normalized delivery line and the DPV match code
// (Y, S, D or N).
type PostalResult struct {
	Normalized   string
	DPVMatchCode string
}

type Message struct {
	To       string
	Subject  string
	HTMLBody string
	TextBody string
}

type Delivery struct {
	MessageID string
}
