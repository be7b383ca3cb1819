package model

import "time"

// SupplierRecord is a persisted supplier registry entry
type SupplierRecord struct {
	ID                string    `json:"id"`
	Name              string    `json:"name"`
	TaxID             string    `json:"tax_id,omitempty"`
	FiscalCode        string    `json:"fiscal_code,omitempty"`
	Address           string    `json:"address,omitempty"`
	PostalCode        string    `json:"postal_code,omitempty"`
	City              string    `json:"city,omitempty"`
	Province          string    `json:"province,omitempty"`
	Country           string    `json:"country,omitempty"`
	DefaultAccountRef string    `json:"default_account_ref,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// SupplierPayload is the data needed to create a registry entry for a
// party that was not matched.
type SupplierPayload struct {
	Name       string `json:"name"`
	TaxCountry string `json:"tax_country,omitempty"`
	TaxID      string `json:"tax_id,omitempty"`
	FiscalCode string `json:"fiscal_code,omitempty"`
	Address    string `json:"address,omitempty"`
	PostalCode string `json:"postal_code,omitempty"`
	City       string `json:"city,omitempty"`
	Province   string `json:"province,omitempty"`
	Country    string `json:"country,omitempty"`
}

// SupplierMatchResult is the outcome of a registry lookup.
// Not matching is not an error: it is what triggers creation.
type SupplierMatchResult struct {
	Matched   bool            `json:"matched"`
	Entry     *SupplierRecord `json:"entry"`
	Suggested SupplierPayload `json:"suggested"`
}
