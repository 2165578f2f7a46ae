package conversation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	callermodels "callfile/internal/caller/models"
	consentmodels "callfile/internal/consent/models"
	consentservice "callfile/internal/consent/service"
	"callfile/internal/enrichment"
	"callfile/internal/enrichment/providers"
	sessionmodels "callfile/internal/session/models"
	dErrors "callfile/pkg/domain-errors"
)

var tracer = otel.Tracer("callfile/conversation")

// DefaultAbandonAfter is how long an untouched session lives before pruning.
const DefaultAbandonAfter = 24 * time.Hour

var (
	ErrUnknownTool    = errors.New("unknown tool")
	ErrToolNotActive  = errors.New("tool not active at current step")
	ErrInvalidArgs    = errors.New("invalid tool arguments")
	ErrStepNotInGraph = errors.New("step not in active subgraph")
)

// SessionStore is the per-call scratch store.
type SessionStore interface {
	Load(ctx context.Context, callID string) (*sessionmodels.CallSession, error)
	Save(ctx context.Context, sess *sessionmodels.CallSession) error
	End(ctx context.Context, callID string) error
	Prune(ctx context.Context, maxAge time.Duration) (int, error)
}

type Enricher interface {
	Enrich(ctx context.Context, phone string) (*enrichment.Result, error)
}

// AddressCascade geocodes and postal-validates free text.
type AddressCascade interface {
	Enrich(ctx context.Context, text string) enrichment.AddressResult
}

type ConsentGate interface {
	ProcessEmailConsent(ctx context.Context, req consentservice.Request) (*consentservice.Outcome, error)
	Record(ctx context.Context, rec consentmodels.Record) (*consentmodels.Record, error)
}

type CallerUpdater interface {
	Upsert(ctx context.Context, phone string, update callermodels.CallerUpdate) (*callermodels.CallerRecord, error)
}

type Archiver interface {
	Archive(ctx context.Context, callID string, summary json.RawMessage, sess *sessionmodels.CallSession) error
}

// CallContext identifies the call a tool invocation belongs to.
type CallContext struct {
	CallID string
	Phone  string
}

// Args are the union of every tool's arguments. Each handler reads only its own.
type Args struct {
	Confirmed         *bool  `json:"confirmed,omitempty"`
	CallerName        string `json:"caller_name,omitempty"`
	Email             string `json:"email,omitempty"`
	Consented         *bool  `json:"consented,omitempty"`
	Response          string `json:"response,omitempty"`
	Address           string `json:"address,omitempty"`
	TranscriptSnippet string `json:"transcript_snippet,omitempty"`
}

// ToolResult reports one dispatched tool call.
type ToolResult struct {
	Tool             Tool    `json:"tool"`
	Step             Step    `json:"step"`
	Outcome          Outcome `json:"outcome"`
	Next             Step    `json:"next_step"`
	Reply            Reply   `json:"reply"`
	FollowUpRequired bool    `json:"follow_up_required"`
	FollowUpReason   string  `json:"follow_up_reason,omitempty"`
}

// GlobalData is the call-wide snapshot the platform keeps in its prompt context.
type GlobalData struct {
	OwnerName        string `json:"owner_name,omitempty"`
	LineType         string `json:"line_type,omitempty"`
	SMSEligible      bool   `json:"sms_eligible"`
	CandidateEmail   string `json:"candidate_email,omitempty"`
	CandidateAddress string `json:"candidate_address,omitempty"`
	RecordSource     string `json:"record_source,omitempty"`

	Extras *sessionmodels.CallerExtras `json:"extras,omitempty"`
}

type CallStart struct {
	CallID   string     `json:"call_id"`
	Phone    string     `json:"phone"`
	Greeting Greeting   `json:"greeting"`
	Step     Step       `json:"step"`
	Steps    []Step     `json:"steps"`
	Global   GlobalData `json:"global_data"`
}

type handlerFunc func(ctx context.Context, cc CallContext, sess *sessionmodels.CallSession, args Args) (Outcome, Reply, error)

type Engine struct {
	sessions     SessionStore
	enricher     Enricher
	consent      ConsentGate
	address      AddressCascade
	validator    providers.EmailValidator
	geocoder     providers.Geocoder
	callers      CallerUpdater
	archiver     Archiver
	abandonAfter time.Duration
	metrics      *Metrics
	logger       *slog.Logger

	handlers map[Tool]handlerFunc
}

type Option func(*Engine)

func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

func WithMetrics(m *Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

func WithAddressCascade(a AddressCascade) Option {
	return func(e *Engine) {
		e.address = a
	}
}

func WithEmailValidator(v providers.EmailValidator) Option {
	return func(e *Engine) {
		e.validator = v
	}
}

// WithGeocoder sets the geocoder used for address read-back.
func WithGeocoder(g providers.Geocoder) Option {
	return func(e *Engine) {
		e.geocoder = g
	}
}

func WithCallers(c CallerUpdater) Option {
	return func(e *Engine) {
		e.callers = c
	}
}

func WithArchiver(a Archiver) Option {
	return func(e *Engine) {
		e.archiver = a
	}
}

func WithAbandonAfter(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.abandonAfter = d
		}
	}
}

func New(sessions SessionStore, enricher Enricher, consent ConsentGate, opts ...Option) (*Engine, error) {
	if sessions == nil {
		return nil, fmt.Errorf("session store is required")
	}
	if enricher == nil {
		return nil, fmt.Errorf("enricher is required")
	}
	if consent == nil {
		return nil, fmt.Errorf("consent gate is required")
	}
	e := &Engine{
		sessions:     sessions,
		enricher:     enricher,
		consent:      consent,
		abandonAfter: DefaultAbandonAfter,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.handlers = map[Tool]handlerFunc{
		ToolConfirmIdentity:            e.confirmIdentity,
		ToolProcessEmailConfirmation:   e.processEmailConfirmation,
		ToolInitiateEmailCollection:    e.initiateEmailCollection,
		ToolSubmitSpelledEmail:         e.submitSpelledEmail,
		ToolValidateEmail:              e.validateEmail,
		ToolProcessEmailConsent:        e.processEmailConsent,
		ToolProcessSMSConsent:          e.processSMSConsent,
		ToolProcessAddressConfirmation: e.processAddressConfirmation,
		ToolSubmitAddress:              e.submitAddress,
		ToolValidateAddress:            e.validateAddress,
	}
	return e, nil
}

// StartCall enriches the caller and seeds the session. A second start for the
// same call returns the existing snapshot without enriching again.
func (e *Engine) StartCall(ctx context.Context, cc CallContext) (*CallStart, error) {
	if cc.CallID == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "call id is required")
	}
	ctx, span := tracer.Start(ctx, "conversation.start_call")
	defer span.End()
	span.SetAttributes(attribute.String("call_id", cc.CallID))

	sess, err := e.sessions.Load(ctx, cc.CallID)
	if err != nil {
		span.RecordError(err)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load session")
	}
	if sess.Step != "" {
		return e.callStart(sess), nil
	}

	res, err := e.enricher.Enrich(ctx, cc.Phone)
	if err != nil {
		span.SetStatus(codes.Error, "enrichment rejected phone")
		return nil, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid caller phone")
	}

	sess.Phone = res.Phone
	sess.Step = string(StepGreeting)
	sess.OwnerName = res.OwnerName
	sess.LineType = res.LineType
	sess.SMSEligible = res.SMSEligible
	sess.CandidateEmail = res.CandidateEmail
	sess.CandidateAddress = res.DisplayAddress()
	sess.RecordSource = string(res.Source)
	sess.Extras = extrasFrom(res.Identity)
	if err := e.sessions.Save(ctx, sess); err != nil {
		span.RecordError(err)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save session")
	}

	start := e.callStart(sess)
	e.metrics.IncCallStarted(start.Greeting)
	e.logger.InfoContext(ctx, "call started",
		"call_id", cc.CallID,
		"record_source", sess.RecordSource,
		"greeting", string(start.Greeting),
		"steps", len(start.Steps),
	)
	return start, nil
}

func (e *Engine) callStart(sess *sessionmodels.CallSession) *CallStart {
	return &CallStart{
		CallID:   sess.CallID,
		Phone:    sess.Phone,
		Greeting: greetingFor(sess),
		Step:     Step(sess.Step),
		Steps:    ActiveSubgraph(preconditionsOf(sess)).Steps(),
		Global: GlobalData{
			OwnerName:        sess.OwnerName,
			LineType:         sess.LineType,
			SMSEligible:      sess.SMSEligible,
			CandidateEmail:   sess.CandidateEmail,
			CandidateAddress: sess.CandidateAddress,
			RecordSource:     sess.RecordSource,
			Extras:           sess.Extras.Clone(),
		},
	}
}

func greetingFor(sess *sessionmodels.CallSession) Greeting {
	if sess.OwnerName == "" {
		return GreetingUnknown
	}
	switch enrichment.Source(sess.RecordSource) {
	case enrichment.SourceReturning, enrichment.SourceRefreshed:
		return GreetingReturning
	default:
		return GreetingKnownName
	}
}

func preconditionsOf(sess *sessionmodels.CallSession) Preconditions {
	return Preconditions{
		HasCandidateEmail:   sess.CandidateEmail != "",
		HasCandidateAddress: sess.CandidateAddress != "",
	}
}

// Dispatch runs one tool against the call's current step and advances it.
func (e *Engine) Dispatch(ctx context.Context, cc CallContext, tool Tool, args Args) (*ToolResult, error) {
	if cc.CallID == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "call id is required")
	}
	handler, ok := e.handlers[tool]
	if !ok {
		return nil, dErrors.Wrap(ErrUnknownTool, dErrors.CodeNotFound, fmt.Sprintf("unknown tool %q", tool))
	}

	ctx, span := tracer.Start(ctx, "conversation.dispatch")
	defer span.End()
	span.SetAttributes(
		attribute.String("call_id", cc.CallID),
		attribute.String("tool", string(tool)),
	)
	start := time.Now()

	sess, err := e.sessions.Load(ctx, cc.CallID)
	if err != nil {
		span.RecordError(err)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load session")
	}
	if sess.Phone == "" && cc.Phone != "" {
		phone, err := callermodels.ParsePhone(cc.Phone)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid caller phone")
		}
		sess.Phone = phone
	}
	step := Step(sess.Step)
	if step == "" {
		step = StepGreeting
	}

	active, ok := ToolFor(step)
	if !ok || active != tool {
		e.metrics.ObserveTool(tool, "not_active", time.Since(start))
		return nil, dErrors.Wrap(ErrToolNotActive, dErrors.CodeInvalidState,
			fmt.Sprintf("tool %s is not active at step %s", tool, step))
	}

	outcome, reply, err := handler(ctx, cc, sess, args)
	if err != nil {
		e.metrics.ObserveTool(tool, "error", time.Since(start))
		span.RecordError(err)
		if errors.Is(err, ErrInvalidArgs) {
			return nil, dErrors.Wrap(err, dErrors.CodeBadRequest, err.Error())
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "tool failed")
	}

	t, err := Lookup(step, outcome)
	if err != nil {
		span.SetStatus(codes.Error, "undefined transition")
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "undefined transition")
	}
	if !ActiveSubgraph(preconditionsOf(sess)).Contains(t.To) {
		span.SetStatus(codes.Error, "step not in active subgraph")
		return nil, dErrors.Wrap(ErrStepNotInGraph, dErrors.CodeInternal, string(t.To))
	}
	if t.FollowUp != "" {
		sess.Escalate(t.FollowUp)
		e.metrics.IncFollowUp(t.FollowUp)
	}
	sess.Step = string(t.To)

	if err := e.sessions.Save(ctx, sess); err != nil {
		span.RecordError(err)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save session")
	}

	e.metrics.ObserveTool(tool, string(outcome), time.Since(start))
	span.SetAttributes(attribute.String("outcome", string(outcome)), attribute.String("next_step", string(t.To)))
	e.logger.InfoContext(ctx, "tool dispatched",
		"call_id", cc.CallID,
		"tool", string(tool),
		"step", string(step),
		"outcome", string(outcome),
		"next_step", string(t.To),
	)
	return &ToolResult{
		Tool:             tool,
		Step:             step,
		Outcome:          outcome,
		Next:             t.To,
		Reply:            reply,
		FollowUpRequired: sess.FollowUpRequired,
		FollowUpReason:   sess.FollowUpReason,
	}, nil
}

// EndCall archives the summary with the final session, deletes the session,
// and prunes abandoned ones. Archive and prune failures are logged only.
func (e *Engine) EndCall(ctx context.Context, cc CallContext, summary json.RawMessage) error {
	if cc.CallID == "" {
		return dErrors.New(dErrors.CodeBadRequest, "call id is required")
	}
	ctx, span := tracer.Start(ctx, "conversation.end_call")
	defer span.End()
	span.SetAttributes(attribute.String("call_id", cc.CallID))

	sess, err := e.sessions.Load(ctx, cc.CallID)
	if err != nil {
		e.logger.WarnContext(ctx, "could not load session for archive", "call_id", cc.CallID, "error", err)
		sess = nil
	}
	if e.archiver != nil {
		if err := e.archiver.Archive(ctx, cc.CallID, summary, sess); err != nil {
			span.RecordError(err)
			e.logger.ErrorContext(ctx, "call archive failed", "call_id", cc.CallID, "error", err)
		}
	}

	if err := e.sessions.End(ctx, cc.CallID); err != nil {
		span.RecordError(err)
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to end session")
	}
	e.metrics.IncCallEnded()

	pruned, err := e.sessions.Prune(ctx, e.abandonAfter)
	if err != nil {
		e.logger.WarnContext(ctx, "session prune failed", "error", err)
	}
	attrs := []any{"call_id", cc.CallID, "pruned", pruned}
	if sess != nil {
		attrs = append(attrs,
			"final_step", sess.Step,
			"follow_up_required", sess.FollowUpRequired,
			"follow_up_reason", sess.FollowUpReason,
		)
	}
	e.logger.InfoContext(ctx, "call ended", attrs...)
	return nil
}
