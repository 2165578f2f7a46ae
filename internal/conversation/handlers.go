package conversation

import (
	"context"
	"fmt"
	"strings"

	callermodels "callfile/internal/caller/models"
	consentmodels "callfile/internal/consent/models"
	consentservice "callfile/internal/consent/service"
	"callfile/internal/enrichment"
	"callfile/internal/enrichment/providers"
	"callfile/internal/normalize"
	sessionmodels "callfile/internal/session/models"
	"callfile/pkg/requestcontext"
)

// Retry ceilings per collection loop.
const (
	MaxSpellingAttempts = 3
	MaxEmailAttempts    = 2
	MaxAddressAttempts  = 2
)

const (
	EmailSourceLookupConfirmed = "lookup_confirmed"
	EmailSourceVoiceSpelling   = "voice_spelling"

	AddressSourceOnFile         = "on_file"
	AddressSourceVoiceCollected = "voice_collected"

	EmailStatusAPIError = "api_error"

	AddressStatusValid        = "valid"
	AddressStatusInvalid      = "invalid"
	AddressStatusGeocodeError = "geocode_error"
)

func requireBool(v *bool, name string) (bool, error) {
	if v == nil {
		return false, fmt.Errorf("%s is required: %w", name, ErrInvalidArgs)
	}
	return *v, nil
}

func (e *Engine) confirmIdentity(_ context.Context, _ CallContext, sess *sessionmodels.CallSession, args Args) (Outcome, Reply, error) {
	confirmed, err := requireBool(args.Confirmed, "confirmed")
	if err != nil {
		return "", Reply{}, err
	}
	sess.IdentityConfirmed = confirmed
	if !confirmed {
		sess.IdentityMismatch = true
		if name := strings.TrimSpace(args.CallerName); name != "" {
			sess.OwnerName = name
		}
	}

	if sess.CandidateEmail != "" {
		return OutcomeWithEmail, Reply{
			Code:      ReplyAskEmailConfirm,
			OwnerName: sess.OwnerName,
			Email:     sess.CandidateEmail,
			Phonetic:  normalize.Phonetic(sess.CandidateEmail),
		}, nil
	}
	return OutcomeNoEmail, Reply{Code: ReplyAskEmail, OwnerName: sess.OwnerName}, nil
}

func (e *Engine) processEmailConfirmation(_ context.Context, _ CallContext, sess *sessionmodels.CallSession, args Args) (Outcome, Reply, error) {
	confirmed, err := requireBool(args.Confirmed, "confirmed")
	if err != nil {
		return "", Reply{}, err
	}
	if !confirmed {
		sess.CandidateEmail = ""
		return OutcomeRejected, Reply{Code: ReplyEmailRejected}, nil
	}
	sess.WorkingEmail = sess.CandidateEmail
	sess.EmailSource = EmailSourceLookupConfirmed
	return OutcomeAccepted, Reply{Code: ReplyEmailAccepted, Email: sess.WorkingEmail}, nil
}

func (e *Engine) initiateEmailCollection(context.Context, CallContext, *sessionmodels.CallSession, Args) (Outcome, Reply, error) {
	return OutcomeBridge, Reply{Code: ReplyBeginSpelling}, nil
}

func (e *Engine) submitSpelledEmail(ctx context.Context, cc CallContext, sess *sessionmodels.CallSession, args Args) (Outcome, Reply, error) {
	email := normalize.SpokenEmail(args.Email)

	if !normalize.ValidEmail(email) {
		sess.SpellingAttempts++
		if sess.SpellingAttempts >= MaxSpellingAttempts {
			e.logger.InfoContext(ctx, "spelled email not captured", "call_id", cc.CallID, "attempts", sess.SpellingAttempts)
			return OutcomeExhausted, Reply{Code: ReplyEmailNotCaptured, Attempts: sess.SpellingAttempts}, nil
		}
		reply := Reply{Code: ReplySpellingUnclear, Email: email, Attempts: sess.SpellingAttempts}
		if strings.Contains(email, "@") {
			reply.Phonetic = normalize.Phonetic(email)
		}
		return OutcomeMalformed, reply, nil
	}

	if args.Confirmed == nil || !*args.Confirmed {
		return OutcomeReadBack, Reply{
			Code:     ReplyReadBackEmail,
			Email:    email,
			Phonetic: normalize.Phonetic(email),
		}, nil
	}

	sess.WorkingEmail = email
	sess.EmailSource = EmailSourceVoiceSpelling
	return OutcomeConfirmed, Reply{Code: ReplyEmailCaptured, Email: email}, nil
}

func (e *Engine) validateEmail(ctx context.Context, cc CallContext, sess *sessionmodels.CallSession, _ Args) (Outcome, Reply, error) {
	email := sess.WorkingEmail
	if email == "" {
		return OutcomeNoEmail, Reply{Code: ReplyNoEmail}, nil
	}

	verdict, err := e.checkEmail(ctx, email)
	if err != nil {
		e.logger.WarnContext(ctx, "email validation unavailable, proceeding unverified",
			"call_id", cc.CallID,
			"category", string(providers.GetCategory(err)),
			"error", err,
		)
		sess.EmailStatus = EmailStatusAPIError
		sess.EmailSubStatus = ""
		sess.CandidateEmail = email
		return OutcomeUndetermined, Reply{Code: ReplyEmailValid, Email: email}, nil
	}

	sess.EmailStatus = verdict.Status
	sess.EmailSubStatus = verdict.SubStatus
	switch {
	case verdict.Valid():
		sess.CandidateEmail = email
		return OutcomeValid, Reply{Code: ReplyEmailValid, Email: email}, nil
	case !verdict.Invalid:
		sess.CandidateEmail = email
		return OutcomeUndetermined, Reply{Code: ReplyEmailValid, Email: email}, nil
	}

	sess.EmailAttempts++
	if sess.EmailAttempts >= MaxEmailAttempts {
		return OutcomeExhausted, Reply{Code: ReplyEmailGiveUp, Attempts: sess.EmailAttempts}, nil
	}
	sess.WorkingEmail = ""
	return OutcomeInvalid, Reply{Code: ReplyEmailInvalid, Email: email, Attempts: sess.EmailAttempts}, nil
}

func (e *Engine) checkEmail(ctx context.Context, email string) (*providers.EmailVerdict, error) {
	if e.validator == nil {
		return nil, providers.ErrNotConfigured
	}
	verdict, err := e.validator.Validate(ctx, email)
	if err != nil {
		return nil, err
	}
	if verdict == nil {
		return nil, fmt.Errorf("email validator returned no verdict")
	}
	return verdict, nil
}

func (e *Engine) processEmailConsent(ctx context.Context, cc CallContext, sess *sessionmodels.CallSession, args Args) (Outcome, Reply, error) {
	consented, err := requireBool(args.Consented, "consented")
	if err != nil {
		return "", Reply{}, err
	}
	sess.EmailConsent = sessionmodels.DecisionOf(consented)

	email := sess.WorkingEmail
	if email == "" {
		email = sess.CandidateEmail
	}
	out, err := e.consent.ProcessEmailConsent(ctx, consentservice.Request{
		CallID:            cc.CallID,
		Phone:             sess.Phone,
		Email:             email,
		OwnerName:         sess.OwnerName,
		Consented:         consented,
		TranscriptSnippet: args.TranscriptSnippet,
	})
	if err != nil {
		e.logger.ErrorContext(ctx, "email consent processing failed", "call_id", cc.CallID, "error", err)
		out = &consentservice.Outcome{}
	}
	if out.MessageID != "" {
		sess.EmailMessageID = out.MessageID
	}

	reply := Reply{Code: ReplyConsentDeclined}
	if consented {
		reply = Reply{Code: ReplyConsentRecorded, Email: email, EmailSent: out.EmailSent}
	}
	if sess.CandidateAddress != "" {
		reply.Address = sess.CandidateAddress
		return OutcomeWithAddress, reply, nil
	}
	return OutcomeNoAddress, reply, nil
}

func (e *Engine) processSMSConsent(ctx context.Context, cc CallContext, sess *sessionmodels.CallSession, args Args) (Outcome, Reply, error) {
	consented, err := requireBool(args.Consented, "consented")
	if err != nil {
		return "", Reply{}, err
	}
	sess.SMSConsent = sessionmodels.DecisionOf(consented)
	if _, err := e.consent.Record(ctx, consentmodels.Record{
		Phone:             sess.Phone,
		CallID:            cc.CallID,
		Type:              consentmodels.ConsentSMS,
		Decision:          consented,
		TranscriptSnippet: args.TranscriptSnippet,
	}); err != nil {
		e.logger.ErrorContext(ctx, "sms consent not logged", "call_id", cc.CallID, "error", err)
	}
	return OutcomeRecorded, Reply{Code: ReplySMSRecorded}, nil
}

func (e *Engine) processAddressConfirmation(_ context.Context, _ CallContext, sess *sessionmodels.CallSession, args Args) (Outcome, Reply, error) {
	switch strings.ToLower(strings.TrimSpace(args.Response)) {
	case "confirmed":
		sess.CollectedAddress = sess.CandidateAddress
		sess.AddressSource = AddressSourceOnFile
		return OutcomeConfirmed, Reply{Code: ReplyAddressConfirmed, Address: sess.CollectedAddress}, nil
	case "denied":
		return OutcomeDenied, Reply{Code: ReplyAddressDenied}, nil
	default:
		return OutcomeDeclined, Reply{Code: ReplyAddressDeclined}, nil
	}
}

func (e *Engine) submitAddress(ctx context.Context, cc CallContext, sess *sessionmodels.CallSession, args Args) (Outcome, Reply, error) {
	raw := strings.TrimSpace(args.Address)
	if raw == "" {
		return OutcomeEmpty, Reply{Code: ReplyNoAddress}, nil
	}

	normalized, geo := sess.PendingAddress, sess.PendingGeocode
	if sess.PendingAddressRaw != raw || normalized == "" {
		normalized, geo = e.readBackAddress(ctx, cc, raw)
	}

	if args.Confirmed == nil || !*args.Confirmed {
		sess.PendingAddress = normalized
		sess.PendingAddressRaw = raw
		sess.PendingGeocode = geo
		return OutcomeReadBack, Reply{Code: ReplyReadBackAddress, Address: normalized}, nil
	}

	sess.CollectedAddress = normalized
	sess.AddressSource = AddressSourceVoiceCollected
	sess.PendingAddress = ""
	sess.PendingAddressRaw = ""
	sess.PendingGeocode = nil
	return OutcomeConfirmed, Reply{Code: ReplyAddressCaptured, Address: normalized}, nil
}

// readBackAddress geocodes raw for the read-back, falling back to raw itself.
func (e *Engine) readBackAddress(ctx context.Context, cc CallContext, raw string) (string, *sessionmodels.Geocode) {
	if e.geocoder == nil {
		return raw, nil
	}
	res, err := e.geocoder.Geocode(ctx, raw)
	if err != nil {
		e.logger.WarnContext(ctx, "read-back geocode failed, using raw address",
			"call_id", cc.CallID,
			"category", string(providers.GetCategory(err)),
			"error", err,
		)
		return raw, nil
	}
	if res == nil || res.Formatted == "" {
		return raw, nil
	}
	return res.Formatted, &sessionmodels.Geocode{Lat: res.Lat, Lng: res.Lng, Confidence: res.LocationType}
}

func (e *Engine) validateAddress(ctx context.Context, cc CallContext, sess *sessionmodels.CallSession, _ Args) (Outcome, Reply, error) {
	address := sess.CollectedAddress
	if address == "" {
		address = sess.CandidateAddress
	}
	if address == "" {
		return OutcomeNoAddress, Reply{Code: ReplyNoAddress}, nil
	}

	var res enrichment.AddressResult
	if e.address != nil {
		res = e.address.Enrich(ctx, address)
	}
	now := requestcontext.Now(ctx)

	if !res.Found() {
		sess.AddressValidationStatus = AddressStatusGeocodeError
		sess.CandidateAddress = address
		sess.CollectedAddress = address
		e.upsertCaller(ctx, cc, sess.Phone, callermodels.CallerUpdate{
			CandidateAddress: callermodels.Ptr(address),
			LastCallAt:       callermodels.Ptr(now),
		})
		return OutcomeCascadeError, Reply{Code: ReplyAddressUnverified, Address: address}, nil
	}

	update := callermodels.CallerUpdate{
		CandidateAddress:  callermodels.Ptr(address),
		AddressNormalized: callermodels.NonEmpty(res.Normalized),
		GeocodeLat:        res.Lat,
		GeocodeLng:        res.Lng,
		GeocodeConfidence: callermodels.NonEmpty(res.Confidence),
		DPVMatchCode:      callermodels.NonEmpty(res.DPVMatchCode),
		LastCallAt:        callermodels.Ptr(now),
	}

	switch res.DPVMatchCode {
	case "Y", "S", "D", "":
		normalized := res.Normalized
		if normalized == "" {
			normalized = address
		}
		sess.AddressValidationStatus = AddressStatusValid
		sess.CandidateAddress = normalized
		sess.CollectedAddress = normalized
		update.ValidatedAddress = callermodels.Ptr(normalized)
		e.upsertCaller(ctx, cc, sess.Phone, update)
		return OutcomeAccepted, Reply{Code: ReplyAddressAccepted, Address: normalized}, nil
	}

	e.upsertCaller(ctx, cc, sess.Phone, update)
	sess.AddressValidationStatus = AddressStatusInvalid
	sess.AddressAttempts++
	if sess.AddressAttempts >= MaxAddressAttempts {
		return OutcomeExhausted, Reply{Code: ReplyAddressGiveUp, Attempts: sess.AddressAttempts}, nil
	}
	sess.CollectedAddress = ""
	return OutcomeRejected, Reply{Code: ReplyAddressInvalid, Address: address, Attempts: sess.AddressAttempts}, nil
}

func (e *Engine) upsertCaller(ctx context.Context, cc CallContext, phone string, u callermodels.CallerUpdate) {
	if e.callers == nil || phone == "" {
		return
	}
	if _, err := e.callers.Upsert(ctx, phone, u); err != nil {
		e.logger.WarnContext(ctx, "caller store write failed",
			"call_id", cc.CallID,
			"phone", phone,
			"error", err,
		)
	}
}
