package supplier

import (
	"context"

	"github.com/rezonia/fattura-processor/internal/model"
)

// Registry is the persisted supplier registry. Lookups return
// model.ErrNotFound when nothing matches. Create must enforce a unique
// tax ID and report a clash as model.ErrDuplicateSupplier.
type Registry interface {
	FindByID(ctx context.Context, id string) (*model.SupplierRecord, error)
	FindByTaxID(ctx context.Context, taxID string) (*model.SupplierRecord, error)
	FindByFiscalCode(ctx context.Context, fiscalCode string) (*model.SupplierRecord, error)
	Create(ctx context.Context, rec *model.SupplierRecord) error
	Update(ctx context.Context, rec *model.SupplierRecord) error
	Delete(ctx context.Context, id string) error
}
