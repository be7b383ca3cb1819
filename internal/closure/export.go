package closure

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/gocarina/gocsv"
	"gopkg.in/yaml.v3"

	"github.com/rezonia/fattura-processor/internal/model"
)

// entryRow is the CSV layout of a journal entry. Amounts keep two
// decimals so spreadsheets do not reformat them.
type entryRow struct {
	ID          string `csv:"id"`
	ClosureID   string `csv:"closure_id"`
	Date        string `csv:"date"`
	Register    string `csv:"register"`
	Debit       string `csv:"debit"`
	Credit      string `csv:"credit"`
	AccountRef  string `csv:"account_ref"`
	Description string `csv:"description"`
	CreatedBy   string `csv:"created_by"`
	CreatedAt   string `csv:"created_at"`
}

// WriteCSV writes entries as CSV with a header row, using delimiter
// between fields.
func WriteCSV(w io.Writer, entries []model.JournalEntry, delimiter rune) error {
	rows := make([]*entryRow, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, &entryRow{
			ID:          e.ID,
			ClosureID:   e.ClosureID,
			Date:        e.Date.Format("2006-01-02"),
			Register:    string(e.Register),
			Debit:       e.Debit.StringFixed(2),
			Credit:      e.Credit.StringFixed(2),
			AccountRef:  e.AccountRef,
			Description: e.Description,
			CreatedBy:   e.CreatedBy,
			CreatedAt:   e.CreatedAt.UTC().Format(time.RFC3339),
		})
	}

	csvWriter := csv.NewWriter(w)
	csvWriter.Comma = delimiter

	if err := gocsv.MarshalCSV(rows, gocsv.NewSafeCSVWriter(csvWriter)); err != nil {
		return fmt.Errorf("error writing CSV data: %w", err)
	}
	return nil
}

// LoadYAML reads a closure document. Dates may be written as
// YYYY-MM-DD and amounts as plain numbers or quoted strings.
func LoadYAML(r io.Reader) (*model.DailyClosure, error) {
	var c model.DailyClosure
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil {
		return nil, fmt.Errorf("failed to decode closure: %w", err)
	}
	if c.Status == "" {
		c.Status = model.ClosureStatusDraft
	}
	return &c, nil
}
