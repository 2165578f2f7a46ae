package conversation

// ReplyCode tells the voice platform what to say next. Wording is the
// platform's business; the engine only reports what happened.
type ReplyCode string

const (
	ReplyAskEmailConfirm   ReplyCode = "ask_email_confirm"
	ReplyAskEmail          ReplyCode = "ask_email"
	ReplyEmailAccepted     ReplyCode = "email_accepted"
	ReplyEmailRejected     ReplyCode = "email_rejected"
	ReplyBeginSpelling     ReplyCode = "begin_spelling"
	ReplySpellingUnclear   ReplyCode = "spelling_unclear"
	ReplyEmailNotCaptured  ReplyCode = "email_not_captured"
	ReplyReadBackEmail     ReplyCode = "read_back_email"
	ReplyEmailCaptured     ReplyCode = "email_captured"
	ReplyEmailValid        ReplyCode = "email_valid"
	ReplyEmailInvalid      ReplyCode = "email_invalid"
	ReplyEmailGiveUp       ReplyCode = "email_validation_failed"
	ReplyNoEmail           ReplyCode = "no_email"
	ReplyConsentRecorded   ReplyCode = "consent_recorded"
	ReplyConsentDeclined   ReplyCode = "consent_declined"
	ReplySMSRecorded       ReplyCode = "sms_consent_recorded"
	ReplyAddressConfirmed  ReplyCode = "address_confirmed"
	ReplyAddressDenied     ReplyCode = "address_denied"
	ReplyAddressDeclined   ReplyCode = "address_declined"
	ReplyNoAddress         ReplyCode = "no_address"
	ReplyReadBackAddress   ReplyCode = "read_back_address"
	ReplyAddressCaptured   ReplyCode = "address_captured"
	ReplyAddressAccepted   ReplyCode = "address_accepted"
	ReplyAddressUnverified ReplyCode = "address_unverified"
	ReplyAddressInvalid    ReplyCode = "address_invalid"
	ReplyAddressGiveUp     ReplyCode = "address_validation_failed"
)

// Reply is the structured result of one tool call.
type Reply struct {
	Code ReplyCode `json:"code"`

	OwnerName string `json:"owner_name,omitempty"`
	Email     string `json:"email,omitempty"`
	Phonetic  string `json:"phonetic,omitempty"`
	Address   string `json:"address,omitempty"`
	Attempts  int    `json:"attempts,omitempty"`
	EmailSent bool   `json:"email_sent,omitempty"`
}

// Greeting selects how the platform opens the call.
type Greeting string

const (
	GreetingReturning Greeting = "returning"
	GreetingKnownName Greeting = "known_name"
	GreetingUnknown   Greeting = "unknown"
)
