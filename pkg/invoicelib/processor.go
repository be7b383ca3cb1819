package invoicelib

import (
	"context"
	"io"

	"github.com/rs/zerolog"

	"github.com/rezonia/fattura-processor/internal/closure"
	"github.com/rezonia/fattura-processor/internal/processor"
	"github.com/rezonia/fattura-processor/internal/store/memory"
	"github.com/rezonia/fattura-processor/internal/supplier"
)

// Store persists suppliers and journal entries
type Store interface {
	supplier.Registry
	closure.LedgerStore
}

// NewMemoryStore returns a Store kept in process memory
func NewMemoryStore() Store {
	return memory.New()
}

// ImportResult is the outcome of importing one document
type ImportResult = processor.Result

// Document is one input of a batch import
type Document = processor.Document

// PipelineOptions configures a Processor
type PipelineOptions struct {
	// Store enables supplier matching when set
	Store Store

	// AutoCreateSuppliers registers unmatched suppliers in Store
	AutoCreateSuppliers bool
	DefaultAccountRef   string

	// Concurrency bounds ProcessBatch (default: 4)
	Concurrency int

	Logger *zerolog.Logger
}

// DefaultPipelineOptions returns default pipeline options
func DefaultPipelineOptions() PipelineOptions {
	return PipelineOptions{
		Concurrency: 4,
	}
}

// Processor imports documents and posts closures
type Processor struct {
	pipeline *processor.Pipeline
	poster   *closure.Poster
	matcher  *supplier.Matcher
}

// NewProcessor creates a new invoice processor with the given options
func NewProcessor(opts PipelineOptions) *Processor {
	log := zerolog.Nop()
	if opts.Logger != nil {
		log = *opts.Logger
	}

	pipelineOpts := []processor.Option{
		processor.WithConcurrency(opts.Concurrency),
		processor.WithLogger(log),
	}

	p := &Processor{}
	if opts.Store != nil {
		p.matcher = supplier.NewMatcher(opts.Store, supplier.WithLogger(log))
		p.poster = closure.NewPoster(opts.Store, closure.WithLogger(log))
		pipelineOpts = append(pipelineOpts, processor.WithSupplierMatcher(p.matcher))
		if opts.AutoCreateSuppliers {
			pipelineOpts = append(pipelineOpts, processor.WithAutoCreateSuppliers(opts.DefaultAccountRef))
		}
	}
	p.pipeline = processor.NewPipeline(pipelineOpts...)

	return p
}

// NewDefaultProcessor creates a processor with default options and no store
func NewDefaultProcessor() *Processor {
	return NewProcessor(DefaultPipelineOptions())
}

// Process imports one document read from r
func (p *Processor) Process(ctx context.Context, r io.Reader, fileName string) *ImportResult {
	return p.pipeline.ImportReader(ctx, r, fileName)
}

// ProcessBatch imports documents concurrently, keeping the input order
func (p *Processor) ProcessBatch(ctx context.Context, docs []Document) ([]*ImportResult, error) {
	return p.pipeline.ImportBatch(ctx, docs)
}

// MatchSupplier looks the supplier of inv up in the store
func (p *Processor) MatchSupplier(ctx context.Context, inv *ParsedInvoice) (*SupplierMatchResult, error) {
	if p.matcher == nil {
		return nil, errNoStore
	}
	return p.matcher.Match(ctx, inv)
}

// CreateSupplier registers a supplier, or returns the one already
// registered under the same tax ID
func (p *Processor) CreateSupplier(ctx context.Context, payload SupplierPayload, defaultAccountRef string) (*SupplierRecord, error) {
	if p.matcher == nil {
		return nil, errNoStore
	}
	return p.matcher.CreateFromPayload(ctx, payload, defaultAccountRef)
}

// PostClosure writes the journal entries of a closure
func (p *Processor) PostClosure(ctx context.Context, c *DailyClosure, actorID string) (*PostingResult, error) {
	if p.poster == nil {
		return nil, errNoStore
	}
	return p.poster.Post(ctx, c, actorID)
}

// ReverseClosure deletes the journal entries of a closure
func (p *Processor) ReverseClosure(ctx context.Context, closureID string) (int, error) {
	if p.poster == nil {
		return 0, errNoStore
	}
	return p.poster.Reverse(ctx, closureID)
}
