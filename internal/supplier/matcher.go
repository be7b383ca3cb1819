// Package supplier reconciles invoice parties with the supplier registry.
package supplier

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/rezonia/fattura-processor/internal/logger"
	"github.com/rezonia/fattura-processor/internal/model"
	"github.com/rezonia/fattura-processor/internal/taxid"
)

// Matcher looks up and registers suppliers
type Matcher struct {
	registry Registry
	group    singleflight.Group
	logger   zerolog.Logger
	now      func() time.Time
}

// Option configures a Matcher
type Option func(*Matcher)

// WithLogger sets the logger
func WithLogger(l zerolog.Logger) Option {
	return func(m *Matcher) {
		m.logger = l
	}
}

// WithClock overrides the timestamp source
func WithClock(now func() time.Time) Option {
	return func(m *Matcher) {
		m.now = now
	}
}

// NewMatcher creates a matcher backed by the given registry
func NewMatcher(registry Registry, opts ...Option) *Matcher {
	m := &Matcher{
		registry: registry,
		logger:   logger.WithComponent("supplier"),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Match looks up the supplier of a parsed invoice. An unmatched supplier
// is not an error; the result then carries the payload to create it with.
func (m *Matcher) Match(ctx context.Context, inv *model.ParsedInvoice) (*model.SupplierMatchResult, error) {
	return m.MatchParty(ctx, inv.Supplier)
}

// MatchParty is Match for a bare party
func (m *Matcher) MatchParty(ctx context.Context, party model.PartyIdentity) (*model.SupplierMatchResult, error) {
	result := &model.SupplierMatchResult{
		Suggested: SuggestPayload(party),
	}

	rec, err := m.lookup(ctx, party.TaxCountry, party.TaxID, party.FiscalCode)
	if err != nil {
		return nil, err
	}
	if rec != nil {
		result.Matched = true
		result.Entry = rec
	}

	m.logger.Debug().
		Str("tax_id", party.TaxID).
		Bool("matched", result.Matched).
		Msg("supplier lookup")

	return result, nil
}

// lookup tries the normalized tax ID, its legacy unpadded form, then the
// fiscal code. Foreign tax IDs are matched exactly. It returns nil without
// error when nothing matches.
func (m *Matcher) lookup(ctx context.Context, country, rawTaxID, fiscalCode string) (*model.SupplierRecord, error) {
	for _, id := range taxid.VariantsFor(country, rawTaxID) {
		rec, err := m.registry.FindByTaxID(ctx, id)
		if err == nil {
			return rec, nil
		}
		if !errors.Is(err, model.ErrNotFound) {
			return nil, err
		}
	}

	if code := taxid.NormalizeFiscalCode(fiscalCode); code != "" {
		rec, err := m.registry.FindByFiscalCode(ctx, code)
		if err == nil {
			return rec, nil
		}
		if !errors.Is(err, model.ErrNotFound) {
			return nil, err
		}
	}

	return nil, nil
}

// CreateFromPayload registers a supplier unless one with the same
// identifiers already exists, in which case the existing entry is
// returned. Concurrent calls for the same identifier within this process
// share one lookup and insert; the registry's unique tax ID catches the
// rest and its error is returned as is.
func (m *Matcher) CreateFromPayload(ctx context.Context, payload model.SupplierPayload, defaultAccountRef string) (*model.SupplierRecord, error) {
	payload.TaxCountry = strings.ToUpper(strings.TrimSpace(payload.TaxCountry))
	payload.TaxID = taxid.NormalizeFor(payload.TaxCountry, payload.TaxID)
	payload.FiscalCode = taxid.NormalizeFiscalCode(payload.FiscalCode)

	if payload.Name == "" {
		return nil, model.NewValidationError("name", nil, "required", "supplier name is required")
	}
	if payload.TaxID == "" && payload.FiscalCode == "" {
		return nil, model.NewValidationError("tax_id", nil, "required", "a tax ID or a fiscal code is required")
	}

	key := "tax:" + payload.TaxCountry + ":" + payload.TaxID
	if payload.TaxID == "" {
		key = "cf:" + payload.FiscalCode
	}

	v, err, shared := m.group.Do(key, func() (interface{}, error) {
		existing, err := m.lookup(ctx, payload.TaxCountry, payload.TaxID, payload.FiscalCode)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			m.logger.Info().Str("supplier_id", existing.ID).Msg("supplier already registered")
			return existing, nil
		}

		now := m.now().UTC()
		rec := &model.SupplierRecord{
			ID:                uuid.NewString(),
			Name:              payload.Name,
			TaxID:             payload.TaxID,
			FiscalCode:        payload.FiscalCode,
			Address:           payload.Address,
			PostalCode:        payload.PostalCode,
			City:              payload.City,
			Province:          payload.Province,
			Country:           payload.Country,
			DefaultAccountRef: defaultAccountRef,
			CreatedAt:         now,
			UpdatedAt:         now,
		}
		if err := m.registry.Create(ctx, rec); err != nil {
			return nil, err
		}

		m.logger.Info().
			Str("supplier_id", rec.ID).
			Str("tax_id", rec.TaxID).
			Msg("supplier created")
		return rec, nil
	})
	if err != nil {
		return nil, err
	}

	rec := v.(*model.SupplierRecord)
	if shared {
		clone := *rec
		return &clone, nil
	}
	return rec, nil
}

// SuggestPayload builds the creation payload for a party
func SuggestPayload(party model.PartyIdentity) model.SupplierPayload {
	address := party.Address
	if party.StreetNumber != "" {
		address = fmt.Sprintf("%s %s", address, party.StreetNumber)
	}
	return model.SupplierPayload{
		Name:       party.Name,
		TaxCountry: party.TaxCountry,
		TaxID:      party.TaxID,
		FiscalCode: party.FiscalCode,
		Address:    address,
		PostalCode: party.PostalCode,
		City:       party.City,
		Province:   party.Province,
		Country:    party.Country,
	}
}
