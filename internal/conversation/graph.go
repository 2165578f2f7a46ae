// Package conversation drives a call through the fixed collection graph:
// identity, email, consent, address, wrap-up.
package conversation

import (
	"errors"
	"fmt"

	sessionmodels "callfile/internal/session/models"
)

type Step string

const (
	StepGreeting          Step = "greeting"
	StepEmailConfirm      Step = "email_confirm"
	StepEmailCollection   Step = "email_collection"
	StepVoiceSpelling     Step = "voice_spelling"
	StepZerobounceCheck   Step = "zerobounce_check"
	StepEmailSendConsent  Step = "email_send_consent"
	StepSMSConsent        Step = "sms_consent"
	StepConfirmAddress    Step = "confirm_address"
	StepAddressCollection Step = "address_collection"
	StepAddressValidation Step = "address_validation"
	StepWrapUp            Step = "wrap_up"
)

// Steps lists the canonical graph in conversational order.
var Steps = []Step{
	StepGreeting,
	StepEmailConfirm,
	StepEmailCollection,
	StepVoiceSpelling,
	StepZerobounceCheck,
	StepEmailSendConsent,
	StepSMSConsent,
	StepConfirmAddress,
	StepAddressCollection,
	StepAddressValidation,
	StepWrapUp,
}

type Tool string

const (
	ToolConfirmIdentity            Tool = "confirm_identity"
	ToolProcessEmailConfirmation   Tool = "process_email_confirmation"
	ToolInitiateEmailCollection    Tool = "initiate_email_collection"
	ToolSubmitSpelledEmail         Tool = "submit_spelled_email"
	ToolValidateEmail              Tool = "validate_email"
	ToolProcessEmailConsent        Tool = "process_email_consent"
	ToolProcessSMSConsent          Tool = "process_sms_consent"
	ToolProcessAddressConfirmation Tool = "process_address_confirmation"
	ToolSubmitAddress              Tool = "submit_address"
	ToolValidateAddress            Tool = "validate_address"
)

var stepTools = map[Step]Tool{
	StepGreeting:          ToolConfirmIdentity,
	StepEmailConfirm:      ToolProcessEmailConfirmation,
	StepEmailCollection:   ToolInitiateEmailCollection,
	StepVoiceSpelling:     ToolSubmitSpelledEmail,
	StepZerobounceCheck:   ToolValidateEmail,
	StepEmailSendConsent:  ToolProcessEmailConsent,
	StepSMSConsent:        ToolProcessSMSConsent,
	StepConfirmAddress:    ToolProcessAddressConfirmation,
	StepAddressCollection: ToolSubmitAddress,
	StepAddressValidation: ToolValidateAddress,
}

// ToolFor returns the single tool active at step. wrap_up has none.
func ToolFor(step Step) (Tool, bool) {
	t, ok := stepTools[step]
	return t, ok
}

// KnownTool reports whether name is any tool of the canonical graph.
func KnownTool(name Tool) bool {
	for _, t := range stepTools {
		if t == name {
			return true
		}
	}
	return false
}

// Outcome is a handler's verdict. Outcomes are only meaningful together with
// the step that produced them.
type Outcome string

const (
	OutcomeWithEmail    Outcome = "with_email"
	OutcomeNoEmail      Outcome = "no_email"
	OutcomeAccepted     Outcome = "accepted"
	OutcomeRejected     Outcome = "rejected"
	OutcomeBridge       Outcome = "bridge"
	OutcomeMalformed    Outcome = "malformed"
	OutcomeExhausted    Outcome = "exhausted"
	OutcomeReadBack     Outcome = "read_back"
	OutcomeConfirmed    Outcome = "confirmed"
	OutcomeValid        Outcome = "valid"
	OutcomeUndetermined Outcome = "undetermined"
	OutcomeInvalid      Outcome = "invalid"
	OutcomeWithAddress  Outcome = "with_address"
	OutcomeNoAddress    Outcome = "no_address"
	OutcomeRecorded     Outcome = "recorded"
	OutcomeDenied       Outcome = "denied"
	OutcomeDeclined     Outcome = "declined"
	OutcomeEmpty        Outcome = "empty"
	OutcomeCascadeError Outcome = "cascade_failed"
)

// Transition is one row of the graph. FollowUp, when set, is the escalation
// reason recorded on the session when the row is taken.
type Transition struct {
	From     Step
	Tool     Tool
	Outcome  Outcome
	To       Step
	FollowUp string
}

var transitions = []Transition{
	{StepGreeting, ToolConfirmIdentity, OutcomeWithEmail, StepEmailConfirm, ""},
	{StepGreeting, ToolConfirmIdentity, OutcomeNoEmail, StepEmailCollection, ""},

	{StepEmailConfirm, ToolProcessEmailConfirmation, OutcomeAccepted, StepZerobounceCheck, ""},
	{StepEmailConfirm, ToolProcessEmailConfirmation, OutcomeRejected, StepEmailCollection, ""},

	{StepEmailCollection, ToolInitiateEmailCollection, OutcomeBridge, StepVoiceSpelling, ""},

	{StepVoiceSpelling, ToolSubmitSpelledEmail, OutcomeMalformed, StepVoiceSpelling, ""},
	{StepVoiceSpelling, ToolSubmitSpelledEmail, OutcomeExhausted, StepWrapUp, sessionmodels.FollowUpEmailNotCaptured},
	{StepVoiceSpelling, ToolSubmitSpelledEmail, OutcomeReadBack, StepVoiceSpelling, ""},
	{StepVoiceSpelling, ToolSubmitSpelledEmail, OutcomeConfirmed, StepZerobounceCheck, ""},

	{StepZerobounceCheck, ToolValidateEmail, OutcomeValid, StepEmailSendConsent, ""},
	{StepZerobounceCheck, ToolValidateEmail, OutcomeUndetermined, StepEmailSendConsent, sessionmodels.FollowUpEmailValidationFailed},
	{StepZerobounceCheck, ToolValidateEmail, OutcomeInvalid, StepEmailCollection, ""},
	{StepZerobounceCheck, ToolValidateEmail, OutcomeExhausted, StepWrapUp, sessionmodels.FollowUpEmailValidationFailed},
	{StepZerobounceCheck, ToolValidateEmail, OutcomeNoEmail, StepEmailCollection, ""},

	{StepEmailSendConsent, ToolProcessEmailConsent, OutcomeWithAddress, StepConfirmAddress, ""},
	{StepEmailSendConsent, ToolProcessEmailConsent, OutcomeNoAddress, StepAddressCollection, ""},

	{StepSMSConsent, ToolProcessSMSConsent, OutcomeRecorded, StepVoiceSpelling, ""},

	{StepConfirmAddress, ToolProcessAddressConfirmation, OutcomeConfirmed, StepAddressValidation, ""},
	{StepConfirmAddress, ToolProcessAddressConfirmation, OutcomeDenied, StepAddressCollection, ""},
	{StepConfirmAddress, ToolProcessAddressConfirmation, OutcomeDeclined, StepWrapUp, ""},

	{StepAddressCollection, ToolSubmitAddress, OutcomeEmpty, StepAddressCollection, ""},
	{StepAddressCollection, ToolSubmitAddress, OutcomeReadBack, StepAddressCollection, ""},
	{StepAddressCollection, ToolSubmitAddress, OutcomeConfirmed, StepAddressValidation, ""},

	{StepAddressValidation, ToolValidateAddress, OutcomeCascadeError, StepWrapUp, ""},
	{StepAddressValidation, ToolValidateAddress, OutcomeAccepted, StepWrapUp, ""},
	{StepAddressValidation, ToolValidateAddress, OutcomeRejected, StepAddressCollection, ""},
	{StepAddressValidation, ToolValidateAddress, OutcomeExhausted, StepWrapUp, sessionmodels.FollowUpAddressValidationFailed},
	{StepAddressValidation, ToolValidateAddress, OutcomeNoAddress, StepAddressCollection, ""},
}

type transitionKey struct {
	from    Step
	outcome Outcome
}

var transitionIndex = func() map[transitionKey]Transition {
	idx := make(map[transitionKey]Transition, len(transitions))
	for _, t := range transitions {
		k := transitionKey{t.From, t.Outcome}
		if _, dup := idx[k]; dup {
			panic(fmt.Sprintf("conversation: duplicate transition %s/%s", t.From, t.Outcome))
		}
		idx[k] = t
	}
	return idx
}()

var ErrUndefinedTransition = errors.New("undefined transition")

// Transitions returns a copy of the graph table.
func Transitions() []Transition {
	return append([]Transition(nil), transitions...)
}

// Lookup returns the row for (step, outcome).
func Lookup(step Step, outcome Outcome) (Transition, error) {
	t, ok := transitionIndex[transitionKey{step, outcome}]
	if !ok {
		return Transition{}, fmt.Errorf("%s on %s: %w", outcome, step, ErrUndefinedTransition)
	}
	return t, nil
}

// Next is the single transition function of the graph.
func Next(step Step, outcome Outcome) (Step, error) {
	t, err := Lookup(step, outcome)
	if err != nil {
		return "", err
	}
	return t.To, nil
}

// Preconditions are the call-start facts that shape the active subgraph.
type Preconditions struct {
	HasCandidateEmail   bool
	HasCandidateAddress bool
}

// Subgraph is the set of steps reachable for one call.
type Subgraph struct {
	steps map[Step]struct{}
}

// ActiveSubgraph derives the per-call subgraph without touching the
// canonical graph. sms_consent is never active.
func ActiveSubgraph(p Preconditions) Subgraph {
	g := Subgraph{steps: make(map[Step]struct{}, len(Steps))}
	for _, s := range Steps {
		g.steps[s] = struct{}{}
	}
	delete(g.steps, StepSMSConsent)
	if !p.HasCandidateEmail {
		delete(g.steps, StepEmailConfirm)
	}
	if !p.HasCandidateAddress {
		delete(g.steps, StepConfirmAddress)
	}
	return g
}

func (g Subgraph) Contains(step Step) bool {
	_, ok := g.steps[step]
	return ok
}

// Steps returns the subgraph's steps in canonical order.
func (g Subgraph) Steps() []Step {
	out := make([]Step, 0, len(g.steps))
	for _, s := range Steps {
		if g.Contains(s) {
			out = append(out, s)
		}
	}
	return out
}
