package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// DocumentType is the TipoDocumento code of an electronic invoice (TD01, TD04, ...)
type DocumentType string

const (
	DocumentTypeInvoice          DocumentType = "TD01"
	DocumentTypeAdvanceInvoice   DocumentType = "TD02"
	DocumentTypeAdvanceFee       DocumentType = "TD03"
	DocumentTypeCreditNote       DocumentType = "TD04"
	DocumentTypeDebitNote        DocumentType = "TD05"
	DocumentTypeFee              DocumentType = "TD06"
	DocumentTypeDeferredInvoice  DocumentType = "TD24"
	DocumentTypeSelfBilling      DocumentType = "TD27"
	DocumentTypeSimplified       DocumentType = "TD07"
	DocumentTypeSimplifiedCredit DocumentType = "TD08"
)

// knownDocumentTypes lists every TipoDocumento code accepted by the exchange system
var knownDocumentTypes = map[DocumentType]struct{}{
	"TD01": {}, "TD02": {}, "TD03": {}, "TD04": {}, "TD05": {}, "TD06": {},
	"TD07": {}, "TD08": {}, "TD09": {},
	"TD16": {}, "TD17": {}, "TD18": {}, "TD19": {}, "TD20": {}, "TD21": {},
	"TD22": {}, "TD23": {}, "TD24": {}, "TD25": {}, "TD26": {}, "TD27": {},
	"TD28": {}, "TD29": {},
}

// Known reports whether the code is a recognized document type
func (t DocumentType) Known() bool {
	_, ok := knownDocumentTypes[t]
	return ok
}

// ParsedInvoice is the typed form of one electronic invoice document.
// It is produced per upload and never persisted as-is.
type ParsedInvoice struct {
	// Transmission metadata (DatiTrasmissione)
	Transmission Transmission `json:"transmission"`

	// Parties
	Supplier PartyIdentity `json:"supplier"`
	Customer PartyIdentity `json:"customer"`

	// Document data (DatiGeneraliDocumento)
	DocumentType  DocumentType        `json:"document_type"`
	Currency      string              `json:"currency"`
	IssueDate     time.Time           `json:"issue_date"`
	Number        string              `json:"number"`
	Causale       []string            `json:"causale,omitempty"`
	DocumentTotal decimal.NullDecimal `json:"document_total"`
	Rounding      decimal.Decimal     `json:"rounding"`
	StampDuty     *StampDuty          `json:"stamp_duty,omitempty"`

	// Body
	Lines      []LineItem       `json:"lines"`
	VATSummary []VATSummaryRow  `json:"vat_summary"`
	Payment    *PaymentSchedule `json:"payment,omitempty"`

	// Audit
	Signed   bool   `json:"signed"`
	FileName string `json:"file_name,omitempty"`
	RawXML   []byte `json:"-"`
}

// Transmission holds the sender/recipient routing data of the document
type Transmission struct {
	SenderCountry  string `json:"sender_country,omitempty"`
	SenderCode     string `json:"sender_code,omitempty"`
	SequenceNumber string `json:"sequence_number,omitempty"`
	Format         string `json:"format,omitempty"`
	RecipientCode  string `json:"recipient_code,omitempty"`
	RecipientPEC   string `json:"recipient_pec,omitempty"`
}

// PartyIdentity represents the supplier (CedentePrestatore) or the
// customer (CessionarioCommittente) of a document.
type PartyIdentity struct {
	Name         string `json:"name"`
	TaxCountry   string `json:"tax_country,omitempty"`
	TaxID        string `json:"tax_id,omitempty"`
	FiscalCode   string `json:"fiscal_code,omitempty"`
	Address      string `json:"address,omitempty"`
	StreetNumber string `json:"street_number,omitempty"`
	PostalCode   string `json:"postal_code,omitempty"`
	City         string `json:"city,omitempty"`
	Province     string `json:"province,omitempty"`
	Country      string `json:"country,omitempty"`
}

// HasIdentifier reports whether the party carries a tax ID or a fiscal code
func (p PartyIdentity) HasIdentifier() bool {
	return p.TaxID != "" || p.FiscalCode != ""
}

// LineItem represents a single document line (DettaglioLinee)
type LineItem struct {
	Number      int             `json:"number"`
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	Unit        string          `json:"unit,omitempty"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Total       decimal.Decimal `json:"total"`
	VATRate     decimal.Decimal `json:"vat_rate"`
	Nature      string          `json:"nature,omitempty"`
}

// VATSummaryRow is a per-rate aggregation (DatiRiepilogo).
// Nature is required when Rate is zero.
type VATSummaryRow struct {
	Rate           decimal.Decimal `json:"rate"`
	Taxable        decimal.Decimal `json:"taxable"`
	Tax            decimal.Decimal `json:"tax"`
	Nature         string          `json:"nature,omitempty"`
	Chargeability  string          `json:"chargeability,omitempty"`
	LegalReference string          `json:"legal_reference,omitempty"`
}

// PaymentSchedule holds the payment terms and installments (DatiPagamento).
// The installment amounts should add up to the document total; this is not
// enforced at parse time.
type PaymentSchedule struct {
	Terms        string        `json:"terms,omitempty"`
	Installments []Installment `json:"installments"`
}

// PaymentMethodUnspecified marks an installment synthesized when the
// document carries no payment data.
const PaymentMethodUnspecified = "unspecified"

// Installment is a single payment due (DettaglioPagamento)
type Installment struct {
	Method  string          `json:"method"`
	DueDate *time.Time      `json:"due_date,omitempty"`
	Amount  decimal.Decimal `json:"amount"`
	IBAN    string          `json:"iban,omitempty"`
	Bank    string          `json:"bank,omitempty"`
}

// StampDuty holds the virtual stamp data (DatiBollo)
type StampDuty struct {
	Virtual bool            `json:"virtual"`
	Amount  decimal.Decimal `json:"amount"`
}

// Amounts is the reconciled net/VAT/total triple of a document
type Amounts struct {
	Net   decimal.Decimal `json:"net_amount"`
	VAT   decimal.Decimal `json:"vat_amount"`
	Total decimal.Decimal `json:"total_amount"`
}

// Issue codes reported by safe parsing
const (
	// Errors
	CodeInvalidXML            = "INVALID_XML"
	CodeMissingRoot           = "MISSING_ROOT"
	CodeMissingVAT            = "MISSING_VAT"
	CodeMissingDocumentNumber = "MISSING_DOCUMENT_NUMBER"
	CodeMissingDate           = "MISSING_DATE"

	// Warnings
	CodeUnknownDocumentType = "UNKNOWN_DOCUMENT_TYPE"
	CodeEmptyLineItems      = "EMPTY_LINE_ITEMS"
	CodeMissingTotalAmount  = "MISSING_TOTAL_AMOUNT"

	// Raised by the import pipeline, not by parsing
	CodeInstallmentsMismatch = "INSTALLMENTS_MISMATCH"
)

// Issue is a single error or warning found while parsing
type Issue struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Path    string `json:"path,omitempty"`
}

// ParseResult is the outcome of a safe parse. Success is false whenever
// Errors is non-empty; Data is set once the document could be mapped.
type ParseResult struct {
	Success  bool           `json:"success"`
	Data     *ParsedInvoice `json:"data,omitempty"`
	Errors   []Issue        `json:"errors"`
	Warnings []Issue        `json:"warnings"`
}

// HasCode reports whether any error or warning carries the given code
func (r *ParseResult) HasCode(code string) bool {
	for _, i := range r.Errors {
		if i.Code == code {
			return true
		}
	}
	for _, i := range r.Warnings {
		if i.Code == code {
			return true
		}
	}
	return false
}
