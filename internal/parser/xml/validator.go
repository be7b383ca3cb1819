package xml

import (
	"fmt"

	"github.com/rezonia/fattura-processor/internal/model"
)

const (
	pathSupplierID     = "FatturaElettronicaHeader/CedentePrestatore/DatiAnagrafici/IdFiscaleIVA"
	pathDocument       = "FatturaElettronicaBody/DatiGenerali/DatiGeneraliDocumento"
	pathDocumentNumber = pathDocument + "/Numero"
	pathDocumentDate   = pathDocument + "/Data"
	pathDocumentType   = pathDocument + "/TipoDocumento"
	pathDocumentTotal  = pathDocument + "/ImportoTotaleDocumento"
	pathLines          = "FatturaElettronicaBody/DatiBeniServizi/DettaglioLinee"
)

// Validate checks the mandatory fields in priority order and returns the
// first one missing as a *model.ParseError: supplier identifier, document
// number, issue date.
func Validate(inv *model.ParsedInvoice) error {
	if issue, ok := missingMandatory(inv); ok {
		return &model.ParseError{
			Code:     issue.Code,
			Path:     issue.Path,
			FileName: inv.FileName,
			Message:  issue.Message,
		}
	}
	return nil
}

// Inspect reports every blocking error and every non-blocking warning of
// a mapped document.
func Inspect(inv *model.ParsedInvoice) (errs []model.Issue, warnings []model.Issue) {
	errs = mandatoryIssues(inv)

	if !inv.DocumentType.Known() {
		warnings = append(warnings, model.Issue{
			Code:    model.CodeUnknownDocumentType,
			Message: fmt.Sprintf("unrecognized document type %q", inv.DocumentType),
			Path:    pathDocumentType,
		})
	}
	if len(inv.Lines) == 0 {
		warnings = append(warnings, model.Issue{
			Code:    model.CodeEmptyLineItems,
			Message: "document has no line items",
			Path:    pathLines,
		})
	}
	if !inv.DocumentTotal.Valid {
		warnings = append(warnings, model.Issue{
			Code:    model.CodeMissingTotalAmount,
			Message: "document total is missing, amounts will be derived from the VAT summary",
			Path:    pathDocumentTotal,
		})
	}

	return errs, warnings
}

func missingMandatory(inv *model.ParsedInvoice) (model.Issue, bool) {
	issues := mandatoryIssues(inv)
	if len(issues) == 0 {
		return model.Issue{}, false
	}
	return issues[0], true
}

func mandatoryIssues(inv *model.ParsedInvoice) []model.Issue {
	var issues []model.Issue

	if !inv.Supplier.HasIdentifier() {
		issues = append(issues, model.Issue{
			Code:    model.CodeMissingVAT,
			Message: "supplier has neither a VAT number nor a fiscal code",
			Path:    pathSupplierID,
		})
	}
	if inv.Number == "" {
		issues = append(issues, model.Issue{
			Code:    model.CodeMissingDocumentNumber,
			Message: "document number is missing",
			Path:    pathDocumentNumber,
		})
	}
	if inv.IssueDate.IsZero() {
		issues = append(issues, model.Issue{
			Code:    model.CodeMissingDate,
			Message: "issue date is missing or not a valid date",
			Path:    pathDocumentDate,
		})
	}

	return issues
}
