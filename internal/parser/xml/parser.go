// Package xml decodes FatturaPA electronic invoices into model.ParsedInvoice.
//
// Decoding, mapping and validation are pure and safe for concurrent use.
package xml

import (
	"errors"

	"github.com/rezonia/fattura-processor/internal/model"
)

// Parse decodes, maps and strictly validates a document. It fails on the
// first problem found.
func Parse(raw []byte, fileName string) (*model.ParsedInvoice, error) {
	tree, err := Decode(raw)
	if err != nil {
		return nil, withFileName(err, fileName)
	}

	inv := Map(tree)
	inv.FileName = fileName
	inv.RawXML = raw

	if err := Validate(inv); err != nil {
		return nil, err
	}
	return inv, nil
}

// ParseSafe never fails. Every defect is classified as an error (the
// document must not be imported) or a warning (import proceeds flagged).
func ParseSafe(raw []byte, fileName string) *model.ParseResult {
	result := &model.ParseResult{
		Errors:   []model.Issue{},
		Warnings: []model.Issue{},
	}

	tree, err := Decode(raw)
	if err != nil {
		var perr *model.ParseError
		if errors.As(err, &perr) {
			result.Errors = append(result.Errors, perr.Issue())
		} else {
			result.Errors = append(result.Errors, model.Issue{Code: model.CodeInvalidXML, Message: err.Error()})
		}
		return result
	}

	inv := Map(tree)
	inv.FileName = fileName
	inv.RawXML = raw

	errs, warnings := Inspect(inv)
	result.Errors = append(result.Errors, errs...)
	result.Warnings = append(result.Warnings, warnings...)
	result.Data = inv
	result.Success = len(result.Errors) == 0

	return result
}

func withFileName(err error, fileName string) error {
	var perr *model.ParseError
	if errors.As(err, &perr) {
		perr.FileName = fileName
	}
	return err
}
