package xml

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rezonia/fattura-processor/internal/decimal"
	"github.com/rezonia/fattura-processor/internal/model"
	"github.com/rezonia/fattura-processor/internal/taxid"
)

// Map converts a decoded document into a ParsedInvoice. It never fails:
// absent elements leave zero values behind for the validator to report.
// When the document carries several bodies only the first is mapped.
func Map(tree *Tree) *model.ParsedInvoice {
	root := tree.Root
	header := root.Child("FatturaElettronicaHeader")

	result := &model.ParsedInvoice{
		Transmission: convertTransmission(header.Child("DatiTrasmissione")),
		Supplier:     convertParty(header.Child("CedentePrestatore")),
		Customer:     convertParty(header.Child("CessionarioCommittente")),
		Signed:       tree.Signed,
	}

	body := root.Child("FatturaElettronicaBody")
	doc := body.Child("DatiGenerali/DatiGeneraliDocumento")

	result.DocumentType = model.DocumentType(doc.Value("TipoDocumento"))
	result.Currency = doc.Value("Divisa")
	result.Number = doc.Value("Numero")
	result.Causale = doc.Values("Causale")
	result.DocumentTotal = decimal.ParseOptional(doc.Value("ImportoTotaleDocumento"))
	result.Rounding = decimal.Parse(doc.Value("Arrotondamento"))

	if date, err := parseDate(doc.Value("Data")); err == nil {
		result.IssueDate = date
	}

	if bollo := doc.Child("DatiBollo"); bollo != nil {
		result.StampDuty = &model.StampDuty{
			Virtual: strings.EqualFold(bollo.Value("BolloVirtuale"), "SI"),
			Amount:  decimal.Parse(bollo.Value("ImportoBollo")),
		}
	}

	for _, line := range body.All("DatiBeniServizi/DettaglioLinee") {
		result.Lines = append(result.Lines, convertLine(line))
	}
	for _, row := range body.All("DatiBeniServizi/DatiRiepilogo") {
		result.VATSummary = append(result.VATSummary, convertSummaryRow(row))
	}

	result.Payment = convertPayment(body.All("DatiPagamento"))

	return result
}

func convertTransmission(n *Node) model.Transmission {
	return model.Transmission{
		SenderCountry:  n.Value("IdTrasmittente/IdPaese"),
		SenderCode:     n.Value("IdTrasmittente/IdCodice"),
		SequenceNumber: n.Value("ProgressivoInvio"),
		Format:         n.Value("FormatoTrasmissione"),
		RecipientCode:  n.Value("CodiceDestinatario"),
		RecipientPEC:   n.Value("PECDestinatario"),
	}
}

// convertParty reads both the ordinary layout (identity under
// DatiAnagrafici) and the simplified one (identity directly on the party).
func convertParty(n *Node) model.PartyIdentity {
	if n == nil {
		return model.PartyIdentity{}
	}

	ident := n.Child("DatiAnagrafici")
	if ident == nil {
		ident = n
	}
	registry := ident.Child("Anagrafica")
	if registry == nil {
		registry = ident
	}

	country := strings.ToUpper(ident.Value("IdFiscaleIVA/IdPaese"))
	rawTaxID := ident.Value("IdFiscaleIVA/IdCodice")

	party := model.PartyIdentity{
		Name:       denomination(registry),
		TaxCountry: country,
		TaxID:      taxid.NormalizeFor(country, rawTaxID),
		FiscalCode: taxid.NormalizeFiscalCode(ident.Value("CodiceFiscale")),
	}

	if sede := n.Child("Sede"); sede != nil {
		party.Address = sede.Value("Indirizzo")
		party.StreetNumber = sede.Value("NumeroCivico")
		party.PostalCode = sede.Value("CAP")
		party.City = sede.Value("Comune")
		party.Province = sede.Value("Provincia")
		party.Country = sede.Value("Nazione")
	}

	return party
}

// denomination prefers the organization name and falls back to
// "first last" for individuals.
func denomination(n *Node) string {
	if name := n.Value("Denominazione"); name != "" {
		return name
	}
	parts := make([]string, 0, 2)
	for _, p := range []string{n.Value("Nome"), n.Value("Cognome")} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}

func convertLine(n *Node) model.LineItem {
	number, _ := strconv.Atoi(n.Value("NumeroLinea"))
	return model.LineItem{
		Number:      number,
		Description: n.Value("Descrizione"),
		Quantity:    decimal.Parse(n.Value("Quantita")),
		Unit:        n.Value("UnitaMisura"),
		UnitPrice:   decimal.Parse(n.Value("PrezzoUnitario")),
		Total:       decimal.Parse(n.Value("PrezzoTotale")),
		VATRate:     decimal.Parse(n.Value("AliquotaIVA")),
		Nature:      n.Value("Natura"),
	}
}

func convertSummaryRow(n *Node) model.VATSummaryRow {
	return model.VATSummaryRow{
		Rate:           decimal.Parse(n.Value("AliquotaIVA")),
		Taxable:        decimal.Parse(n.Value("ImponibileImporto")),
		Tax:            decimal.Parse(n.Value("Imposta")),
		Nature:         n.Value("Natura"),
		Chargeability:  n.Value("EsigibilitaIVA"),
		LegalReference: n.Value("RiferimentoNormativo"),
	}
}

// convertPayment merges every DatiPagamento block into one schedule.
// The terms code comes from the first block.
func convertPayment(blocks []*Node) *model.PaymentSchedule {
	if len(blocks) == 0 {
		return nil
	}

	schedule := &model.PaymentSchedule{
		Terms:        blocks[0].Value("CondizioniPagamento"),
		Installments: []model.Installment{},
	}

	for _, block := range blocks {
		for _, d := range block.All("DettaglioPagamento") {
			inst := model.Installment{
				Method: d.Value("ModalitaPagamento"),
				Amount: decimal.Parse(d.Value("ImportoPagamento")),
				IBAN:   d.Value("IBAN"),
				Bank:   d.Value("IstitutoFinanziario"),
			}
			if due, err := parseDate(d.Value("DataScadenzaPagamento")); err == nil {
				inst.DueDate = &due
			}
			schedule.Installments = append(schedule.Installments, inst)
		}
	}

	return schedule
}

func parseDate(s string) (time.Time, error) {
	formats := []string{
		"2006-01-02",
		"2006-01-02T15:04:05",
		time.RFC3339,
		"02/01/2006",
		"02-01-2006",
	}

	for _, format := range formats {
		if t, err := time.Parse(format, s); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("cannot parse date: %s", s)
}
