package enrichment

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"callfile/internal/enrichment/providers"
)

// AddressResult is the outcome of the geocode + postal cascade. The zero
// value means the cascade produced nothing.
type AddressResult struct {
	// Normalized is the postal delivery line when available, otherwise the
	// geocoder's formatted address.
	Normalized   string
	Lat          *float64
	Lng          *float64
	Confidence   string
	DPVMatchCode string
}

// Found reports whether the geocoder matched.
func (r AddressResult) Found() bool {
	return r.Lat != nil
}

// AddressEnricher runs the geocode then postal validation cascade. It is used
// at call start and by the in-call address validation step.
type AddressEnricher struct {
	geocoder providers.Geocoder
	postal   providers.PostalValidator
	logger   *slog.Logger
}

func NewAddressEnricher(geocoder providers.Geocoder, postal providers.PostalValidator, logger *slog.Logger) *AddressEnricher {
	if logger == nil {
		logger = slog.Default()
	}
	return &AddressEnricher{geocoder: geocoder, postal: postal, logger: logger}
}

func (e *AddressEnricher) Enrich(ctx context.Context, text string) AddressResult {
	text = strings.TrimSpace(text)
	if text == "" || e.geocoder == nil {
		return AddressResult{}
	}
	ctx, span := tracer.Start(ctx, "enrichment.address")
	defer span.End()

	geo, err := e.geocoder.Geocode(ctx, text)
	if err != nil {
		e.logSkip(ctx, "geocode", err)
		return AddressResult{}
	}
	if geo == nil {
		e.logger.InfoContext(ctx, "geocode found no match")
		return AddressResult{}
	}

	lat, lng := geo.Lat, geo.Lng
	res := AddressResult{
		Normalized: geo.Formatted,
		Lat:        &lat,
		Lng:        &lng,
		Confidence: geo.LocationType,
	}

	street, city, state, zip, ok := SplitFormatted(geo.Formatted)
	if !ok {
		e.logger.InfoContext(ctx, "postal validation skipped, formatted address has too few parts")
		return res
	}
	if e.postal == nil {
		return res
	}
	postal, err := e.postal.Validate(ctx, street, city, state, zip)
	if err != nil {
		e.logSkip(ctx, "postal validation", err)
		return res
	}
	if postal == nil {
		postal = &providers.PostalResult{DPVMatchCode: providers.DPVNoMatch}
	}
	res.DPVMatchCode = postal.DPVMatchCode
	if postal.Normalized != "" {
		res.Normalized = postal.Normalized
	}
	span.SetAttributes(attribute.String("dpv_match_code", res.DPVMatchCode))
	return res
}

func (e *AddressEnricher) logSkip(ctx context.Context, what string, err error) {
	if errors.Is(err, providers.ErrNotConfigured) {
		e.logger.InfoContext(ctx, what+" not configured, skipping")
		return
	}
	e.logger.WarnContext(ctx, what+" failed",
		"category", string(providers.GetCategory(err)),
		"error", err,
	)
}

// SplitFormatted breaks "street, city, ST zip, USA" into components. ok is
// false when there are fewer than three comma-separated parts.
func SplitFormatted(formatted string) (street, city, state, zip string, ok bool) {
	parts := strings.Split(formatted, ",")
	if len(parts) < 3 {
		return "", "", "", "", false
	}
	street = strings.TrimSpace(parts[0])
	city = strings.TrimSpace(parts[1])
	fields := strings.Fields(strings.ReplaceAll(parts[2], "USA", ""))
	if len(fields) > 0 {
		state = fields[0]
	}
	if len(fields) > 1 {
		zip = fields[1]
	}
	return street, city, state, zip, true
}
