// Package service gates irreversible outbound actions behind an audited
// consent decision.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	callermodels "callfile/internal/caller/models"
	"callfile/internal/consent/models"
	"callfile/internal/enrichment/providers"
	"callfile/pkg/requestcontext"
)

var tracer = otel.Tracer("callfile/consent")

const DefaultSubject = "Confirmation"

// Store is the append-only consent log.
type Store interface {
	Append(ctx context.Context, rec models.Record) error
	ListByPhone(ctx context.Context, phone string) ([]models.Record, error)
}

// CallerUpdater is the caller store write used on an affirmative decision.
type CallerUpdater interface {
	Upsert(ctx context.Context, phone string, update callermodels.CallerUpdate) (*callermodels.CallerRecord, error)
}

// Request is one email-send consent ask.
type Request struct {
	CallID            string
	Phone             string
	Email             string
	OwnerName         string
	Consented         bool
	TranscriptSnippet string
}

// Outcome reports what the gate did. Routing never depends on it.
type Outcome struct {
	Logged    bool
	RecordID  uuid.UUID
	EmailSent bool
	MessageID string
}

type Service struct {
	store   Store
	callers CallerUpdater
	mailer  providers.Mailer
	subject string
	metrics *Metrics
	logger  *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithSubject(subject string) Option {
	return func(s *Service) {
		if subject != "" {
			s.subject = subject
		}
	}
}

func WithMetrics(m *Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func New(store Store, callers CallerUpdater, mailer providers.Mailer, opts ...Option) *Service {
	s := &Service{
		store:   store,
		callers: callers,
		mailer:  mailer,
		subject: DefaultSubject,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ProcessEmailConsent logs the decision and, only on yes, records the email
// as validated and sends one confirmation. If the decision cannot be logged
// nothing is sent. Delivery failures are logged and never returned.
func (s *Service) ProcessEmailConsent(ctx context.Context, req Request) (*Outcome, error) {
	ctx, span := tracer.Start(ctx, "consent.email")
	defer span.End()
	span.SetAttributes(attribute.Bool("consented", req.Consented))

	out := &Outcome{}
	rec, err := s.Record(ctx, models.Record{
		Phone:             req.Phone,
		CallID:            req.CallID,
		Type:              models.ConsentEmailSend,
		Decision:          req.Consented,
		TranscriptSnippet: req.TranscriptSnippet,
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "consent log append failed, suppressing side effects",
			"call_id", req.CallID,
			"phone", req.Phone,
			"error", err,
		)
		return out, nil
	}
	out.Logged = true
	out.RecordID = rec.ID

	if !req.Consented {
		return out, nil
	}
	email := strings.TrimSpace(req.Email)
	if email == "" {
		s.logger.ErrorContext(ctx, "consent given but no email to send to", "call_id", req.CallID)
		s.metrics.IncEmail("no_address")
		return out, nil
	}

	now := requestcontext.Now(ctx)
	if _, err := s.callers.Upsert(ctx, req.Phone, callermodels.CallerUpdate{
		ValidatedEmail: &email,
		LastCallAt:     &now,
	}); err != nil {
		s.logger.WarnContext(ctx, "failed to record validated email", "phone", req.Phone, "error", err)
	}

	delivery, err := s.send(ctx, req.OwnerName, email)
	if err != nil {
		outcome := "failed"
		if errors.Is(err, providers.ErrNotConfigured) {
			outcome = "not_configured"
		}
		s.metrics.IncEmail(outcome)
		s.logger.WarnContext(ctx, "confirmation email not sent",
			"call_id", req.CallID,
			"outcome", outcome,
			"error", err,
		)
		return out, nil
	}
	s.metrics.IncEmail("sent")
	out.EmailSent = true
	out.MessageID = delivery.MessageID
	s.logger.InfoContext(ctx, "confirmation email sent",
		"call_id", req.CallID,
		"message_id", delivery.MessageID,
	)
	return out, nil
}

func (s *Service) send(ctx context.Context, ownerName, email string) (*providers.Delivery, error) {
	if s.mailer == nil {
		return nil, providers.ErrNotConfigured
	}
	htmlBody, textBody, err := renderConfirmation(ownerName, email)
	if err != nil {
		return nil, err
	}
	delivery, err := s.mailer.Send(ctx, providers.Message{
		To:       email,
		Subject:  s.subject,
		HTMLBody: htmlBody,
		TextBody: textBody,
	})
	if err != nil {
		return nil, err
	}
	// Accepted without a receipt: sent, with no message id to report.
	if delivery == nil {
		delivery = &providers.Delivery{}
	}
	return delivery, nil
}

// Record appends a consent decision, assigning its id and timestamp.
func (s *Service) Record(ctx context.Context, rec models.Record) (*models.Record, error) {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = requestcontext.Now(ctx)
	}
	err := s.store.Append(ctx, rec)
	s.metrics.IncDecision(string(rec.Type), rec.Decision, err == nil)
	if err != nil {
		return nil, fmt.Errorf("record consent: %w", err)
	}
	s.logger.InfoContext(ctx, "consent recorded",
		"call_id", rec.CallID,
		"type", string(rec.Type),
		"decision", rec.Decision,
	)
	return &rec, nil
}

// History lists a phone's consent decisions, oldest first.
func (s *Service) History(ctx context.Context, phone string) ([]models.Record, error) {
	records, err := s.store.ListByPhone(ctx, phone)
	if err != nil {
		return nil, fmt.Errorf("list consent history: %w", err)
	}
	return records, nil
}
