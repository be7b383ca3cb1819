// Package processor runs the import pipeline: format detection, safe
// parsing, amounts, installments and supplier matching.
package processor

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/rezonia/fattura-processor/internal/invoice"
	"github.com/rezonia/fattura-processor/internal/logger"
	"github.com/rezonia/fattura-processor/internal/model"
	xmlparser "github.com/rezonia/fattura-processor/internal/parser/xml"
	"github.com/rezonia/fattura-processor/internal/supplier"
)

// Format represents the detected input format
type Format int

const (
	FormatUnknown Format = iota
	FormatXML
	FormatP7M
)

// String returns string representation of format
func (f Format) String() string {
	switch f {
	case FormatXML:
		return "xml"
	case FormatP7M:
		return "p7m"
	default:
		return "unknown"
	}
}

// DER encoding of the PKCS#7 signedData OID 1.2.840.113549.1.7.2
var oidSignedData = []byte{0x06, 0x09, 0x2A, 0x86, 0x48, 0x86, 0xF7, 0x0D, 0x01, 0x07, 0x02}

// DetectFormat detects the input format from content
func DetectFormat(data []byte) Format {
	trimmed := bytes.TrimSpace(bytes.TrimPrefix(data, []byte("\xef\xbb\xbf")))
	if len(trimmed) == 0 {
		return FormatUnknown
	}

	if trimmed[0] == '<' {
		return FormatXML
	}

	// Binary DER envelope
	if trimmed[0] == 0x30 {
		head := trimmed
		if len(head) > 64 {
			head = head[:64]
		}
		if bytes.Contains(head, oidSignedData) {
			return FormatP7M
		}
	}

	// Base64 DER envelope
	if bytes.HasPrefix(trimmed, []byte("MII")) || bytes.HasPrefix(trimmed, []byte("MIA")) {
		return FormatP7M
	}

	return FormatUnknown
}

// Document is one input of a batch import
type Document struct {
	FileName string
	Data     []byte
}

// Result holds the outcome of importing one document.
// Error is set for failures outside the document itself (envelope, store);
// Errors and Warnings carry the document issues.
type Result struct {
	FileName        string                     `json:"file_name"`
	Format          string                     `json:"format"`
	Invoice         *model.ParsedInvoice       `json:"invoice,omitempty"`
	Amounts         *model.Amounts             `json:"amounts,omitempty"`
	Installments    []model.Installment        `json:"installments,omitempty"`
	Supplier        *model.SupplierMatchResult `json:"supplier,omitempty"`
	CreatedSupplier *model.SupplierRecord      `json:"created_supplier,omitempty"`
	Errors          []model.Issue              `json:"errors"`
	Warnings        []model.Issue              `json:"warnings"`
	Error           error                      `json:"-"`
}

// OK reports whether the document can be recorded
func (r *Result) OK() bool {
	return r.Error == nil && len(r.Errors) == 0
}

// NeedsReview reports whether an importable document was flagged
func (r *Result) NeedsReview() bool {
	return r.OK() && len(r.Warnings) > 0
}

// Pipeline orchestrates document import
type Pipeline struct {
	matcher           *supplier.Matcher
	autoCreate        bool
	defaultAccountRef string
	concurrency       int
	logger            zerolog.Logger
}

// Option configures the pipeline
type Option func(*Pipeline)

// WithSupplierMatcher enables supplier matching
func WithSupplierMatcher(m *supplier.Matcher) Option {
	return func(p *Pipeline) {
		p.matcher = m
	}
}

// WithAutoCreateSuppliers registers unmatched suppliers on import
func WithAutoCreateSuppliers(defaultAccountRef string) Option {
	return func(p *Pipeline) {
		p.autoCreate = true
		p.defaultAccountRef = defaultAccountRef
	}
}

// WithConcurrency bounds the number of documents imported at once by ImportBatch
func WithConcurrency(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.concurrency = n
		}
	}
}

// WithLogger sets the logger
func WithLogger(l zerolog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = l
	}
}

// NewPipeline creates a new processing pipeline
func NewPipeline(opts ...Option) *Pipeline {
	p := &Pipeline{
		concurrency: 4,
		logger:      logger.WithComponent("processor"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Import processes one document
func (p *Pipeline) Import(ctx context.Context, data []byte, fileName string) *Result {
	format := DetectFormat(data)
	result := &Result{
		FileName: fileName,
		Format:   format.String(),
		Errors:   []model.Issue{},
		Warnings: []model.Issue{},
	}

	if format == FormatP7M {
		result.Error = fmt.Errorf("%s: %w", fileName, model.ErrEnvelopeNotSupported)
		return result
	}

	parsed := xmlparser.ParseSafe(data, fileName)
	result.Errors = append(result.Errors, parsed.Errors...)
	result.Warnings = append(result.Warnings, parsed.Warnings...)
	if !parsed.Success {
		p.logger.Warn().
			Str("file", fileName).
			Int("errors", len(parsed.Errors)).
			Msg("document rejected")
		return result
	}

	inv := parsed.Data
	amounts := invoice.ComputeAmounts(inv)
	result.Invoice = inv
	result.Amounts = &amounts
	result.Installments = invoice.ExtractInstallments(inv)

	if inv.Payment != nil && len(inv.Payment.Installments) > 0 {
		if sum := invoice.InstallmentsTotal(result.Installments); !sum.Equal(amounts.Total) {
			result.Warnings = append(result.Warnings, model.Issue{
				Code:    model.CodeInstallmentsMismatch,
				Message: fmt.Sprintf("installments sum to %s, document total is %s", sum.StringFixed(2), amounts.Total.StringFixed(2)),
				Path:    "FatturaElettronicaBody/DatiPagamento",
			})
		}
	}

	if p.matcher != nil {
		if err := p.resolveSupplier(ctx, result); err != nil {
			result.Error = err
			return result
		}
	}

	p.logger.Info().
		Str("file", fileName).
		Str("number", inv.Number).
		Str("total", amounts.Total.StringFixed(2)).
		Int("warnings", len(result.Warnings)).
		Msg("document imported")

	return result
}

func (p *Pipeline) resolveSupplier(ctx context.Context, result *Result) error {
	match, err := p.matcher.Match(ctx, result.Invoice)
	if err != nil {
		return fmt.Errorf("supplier lookup failed: %w", err)
	}
	result.Supplier = match

	if match.Matched || !p.autoCreate {
		return nil
	}

	rec, err := p.matcher.CreateFromPayload(ctx, match.Suggested, p.defaultAccountRef)
	if err != nil {
		return fmt.Errorf("supplier creation failed: %w", err)
	}
	result.CreatedSupplier = rec
	return nil
}

// ImportReader reads r fully and imports it
func (p *Pipeline) ImportReader(ctx context.Context, r io.Reader, fileName string) *Result {
	data, err := io.ReadAll(r)
	if err != nil {
		return &Result{
			FileName: fileName,
			Format:   FormatUnknown.String(),
			Errors:   []model.Issue{},
			Warnings: []model.Issue{},
			Error:    fmt.Errorf("failed to read input: %w", err),
		}
	}
	return p.Import(ctx, data, fileName)
}

// ImportBatch imports documents concurrently. Results keep the input
// order. Per-document failures stay in their Result; the returned error
// is only set when ctx ends before every document was started.
func (p *Pipeline) ImportBatch(ctx context.Context, docs []Document) ([]*Result, error) {
	results := make([]*Result, len(docs))

	var g errgroup.Group
	g.SetLimit(p.concurrency)

	for i, doc := range docs {
		if err := ctx.Err(); err != nil {
			_ = g.Wait()
			return results, err
		}
		g.Go(func() error {
			results[i] = p.Import(ctx, doc.Data, doc.FileName)
			return nil
		})
	}

	_ = g.Wait()
	return results, nil
}
