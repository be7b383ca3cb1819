package xml_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rezonia/fattura-processor/internal/model"
	xmlparser "github.com/rezonia/fattura-processor/internal/parser/xml"
)

func TestParse_Ordinaria(t *testing.T) {
	content := readTestFile(t, "fattura_ordinaria.xml")

	inv, err := xmlparser.Parse(content, "IT01234567890_00042.xml")
	require.NoError(t, err)
	require.NotNil(t, inv)

	assert.Equal(t, "IT01234567890_00042.xml", inv.FileName)
	assert.Equal(t, content, inv.RawXML)
	assert.True(t, inv.Signed)

	// Transmission
	assert.Equal(t, "IT", inv.Transmission.SenderCountry)
	assert.Equal(t, "00042", inv.Transmission.SequenceNumber)
	assert.Equal(t, "FPR12", inv.Transmission.Format)
	assert.Equal(t, "M5UXCR1", inv.Transmission.RecipientCode)

	// Supplier
	assert.Equal(t, "Studio Rossi S.r.l.", inv.Supplier.Name)
	assert.Equal(t, "IT", inv.Supplier.TaxCountry)
	assert.Equal(t, "01234567890", inv.Supplier.TaxID)
	assert.Equal(t, "01234567890", inv.Supplier.FiscalCode)
	assert.Equal(t, "Via Roma", inv.Supplier.Address)
	assert.Equal(t, "10", inv.Supplier.StreetNumber)
	assert.Equal(t, "20121", inv.Supplier.PostalCode)
	assert.Equal(t, "Milano", inv.Supplier.City)
	assert.Equal(t, "MI", inv.Supplier.Province)
	assert.Equal(t, "IT", inv.Supplier.Country)

	// Customer is an individual
	assert.Equal(t, "Luigi Bianchi", inv.Customer.Name)
	assert.Empty(t, inv.Customer.TaxID)
	assert.Equal(t, "BNCLGU85M10F205Z", inv.Customer.FiscalCode)
	assert.Equal(t, "Torino", inv.Customer.City)

	// Document
	assert.Equal(t, model.DocumentType("TD01"), inv.DocumentType)
	assert.Equal(t, "EUR", inv.Currency)
	assert.Equal(t, "FPR 12/24", inv.Number)
	assert.Equal(t, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), inv.IssueDate)
	assert.Equal(t, []string{"Consulenza marzo 2024", "Rif. ordine 778"}, inv.Causale)
	require.True(t, inv.DocumentTotal.Valid)
	assert.Equal(t, "482.85", inv.DocumentTotal.Decimal.StringFixed(2))
	assert.True(t, inv.Rounding.IsZero())

	require.NotNil(t, inv.StampDuty)
	assert.True(t, inv.StampDuty.Virtual)
	assert.Equal(t, "2.00", inv.StampDuty.Amount.StringFixed(2))

	// Lines
	require.Len(t, inv.Lines, 3)
	assert.Equal(t, 1, inv.Lines[0].Number)
	assert.Equal(t, "Consulenza fiscale", inv.Lines[0].Description)
	assert.Equal(t, "360.00", inv.Lines[0].Total.StringFixed(2))
	assert.Equal(t, "22.00", inv.Lines[0].VATRate.StringFixed(2))
	assert.Equal(t, "pz", inv.Lines[1].Unit)
	assert.Equal(t, "3.00", inv.Lines[1].Quantity.StringFixed(2))
	assert.Equal(t, "13.00", inv.Lines[1].UnitPrice.StringFixed(2))
	assert.Equal(t, "N1", inv.Lines[2].Nature)
	assert.True(t, inv.Lines[2].Quantity.IsZero())

	// VAT summary
	require.Len(t, inv.VATSummary, 3)
	assert.Equal(t, "39.00", inv.VATSummary[0].Taxable.StringFixed(2))
	assert.Equal(t, "3.90", inv.VATSummary[0].Tax.StringFixed(2))
	assert.Equal(t, "I", inv.VATSummary[0].Chargeability)
	assert.Equal(t, "79.20", inv.VATSummary[1].Tax.StringFixed(2))
	assert.Equal(t, "N1", inv.VATSummary[2].Nature)
	assert.Equal(t, "Escluse art. 15", inv.VATSummary[2].LegalReference)

	// Payment
	require.NotNil(t, inv.Payment)
	assert.Equal(t, "TP02", inv.Payment.Terms)
	require.Len(t, inv.Payment.Installments, 1)
	inst := inv.Payment.Installments[0]
	assert.Equal(t, "MP05", inst.Method)
	require.NotNil(t, inst.DueDate)
	assert.Equal(t, time.Date(2024, 4, 15, 0, 0, 0, 0, time.UTC), *inst.DueDate)
	assert.Equal(t, "482.85", inst.Amount.StringFixed(2))
	assert.Equal(t, "IT60X0542811101000000123456", inst.IBAN)
	assert.Equal(t, "Banca Popolare", inst.Bank)
}

func TestParse_SingleOccurrencesAndCommaDecimals(t *testing.T) {
	inv, err := xmlparser.Parse(readTestFile(t, "fattura_rate.xml"), "rate.xml")
	require.NoError(t, err)

	assert.False(t, inv.Signed)
	assert.Equal(t, "amministrazione@pec.example.it", inv.Transmission.RecipientPEC)

	// Ten-digit VAT number is padded
	assert.Equal(t, "01234567890", inv.Supplier.TaxID)
	assert.Equal(t, "Mario Verdi", inv.Supplier.Name)
	assert.Equal(t, "Trattoria Da Nino", inv.Customer.Name)
	assert.Equal(t, "09876543210", inv.Customer.TaxID)

	// A single line and a single summary row still come back as lists
	require.Len(t, inv.Lines, 1)
	assert.Equal(t, "245.90", inv.Lines[0].Total.StringFixed(2))
	assert.Equal(t, "1.00", inv.Lines[0].Quantity.StringFixed(2))
	require.Len(t, inv.VATSummary, 1)
	assert.Equal(t, "54.10", inv.VATSummary[0].Tax.StringFixed(2))
	assert.Equal(t, "22.00", inv.VATSummary[0].Rate.StringFixed(2))

	assert.Equal(t, []string{"Fornitura attrezzatura"}, inv.Causale)
	assert.Nil(t, inv.StampDuty)

	require.NotNil(t, inv.Payment)
	assert.Equal(t, "TP01", inv.Payment.Terms)
	require.Len(t, inv.Payment.Installments, 3)
	for _, inst := range inv.Payment.Installments {
		assert.Equal(t, "100.00", inst.Amount.StringFixed(2))
	}
	assert.Nil(t, inv.Payment.Installments[2].DueDate)
}

func TestParse_StrictErrorOrder(t *testing.T) {
	tests := []struct {
		name     string
		document string
		code     string
	}{
		{
			name:     "missing supplier identifier reported first",
			document: buildDocument("", "", "", ""),
			code:     model.CodeMissingVAT,
		},
		{
			name:     "fiscal code alone is a valid identifier",
			document: buildDocument("", "RSSMRA80A01H501U", "", ""),
			code:     model.CodeMissingDocumentNumber,
		},
		{
			name:     "missing number before missing date",
			document: buildDocument("01234567890", "", "", ""),
			code:     model.CodeMissingDocumentNumber,
		},
		{
			name:     "missing date",
			document: buildDocument("01234567890", "", "1", ""),
			code:     model.CodeMissingDate,
		},
		{
			name:     "unparseable date counts as missing",
			document: buildDocument("01234567890", "", "1", "next tuesday"),
			code:     model.CodeMissingDate,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv, err := xmlparser.Parse([]byte(tt.document), "test.xml")
			require.Error(t, err)
			assert.Nil(t, inv)

			var perr *model.ParseError
			require.ErrorAs(t, err, &perr)
			assert.Equal(t, tt.code, perr.Code)
			assert.Equal(t, "test.xml", perr.FileName)
		})
	}
}

func TestParse_Minimal(t *testing.T) {
	doc := buildDocument("01234567890", "", "7", "2024-01-31")

	inv, err := xmlparser.Parse([]byte(doc), "")
	require.NoError(t, err)
	assert.Equal(t, "7", inv.Number)
	assert.Empty(t, inv.Lines)
	assert.Nil(t, inv.Payment)
	assert.False(t, inv.DocumentTotal.Valid)
}

func TestParse_ForeignSupplierKeepsRawTaxID(t *testing.T) {
	doc := strings.Replace(buildDocument("123456789", "", "7", "2024-01-31"),
		"<IdPaese>IT</IdPaese>", "<IdPaese>DE</IdPaese>", 1)

	inv, err := xmlparser.Parse([]byte(doc), "")
	require.NoError(t, err)
	assert.Equal(t, "DE", inv.Supplier.TaxCountry)
	assert.Equal(t, "123456789", inv.Supplier.TaxID)
}

func TestParse_InvalidXML(t *testing.T) {
	tests := []struct {
		name    string
		content string
		code    string
	}{
		{"plain text", "not xml at all", model.CodeInvalidXML},
		{"empty", "", model.CodeInvalidXML},
		{"unclosed element", "<FatturaElettronica><FatturaElettronicaHeader>", model.CodeInvalidXML},
		{"declaration only", `<?xml version="1.0"?>`, model.CodeMissingRoot},
		{"several unknown roots", "<a/><b/>", model.CodeMissingRoot},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := xmlparser.Parse([]byte(tt.content), "bad.xml")
			require.Error(t, err)

			var perr *model.ParseError
			require.ErrorAs(t, err, &perr)
			assert.Equal(t, tt.code, perr.Code)
			assert.Equal(t, "bad.xml", perr.FileName)
		})
	}
}

func TestParseSafe_Valid(t *testing.T) {
	result := xmlparser.ParseSafe(readTestFile(t, "fattura_ordinaria.xml"), "ok.xml")

	assert.True(t, result.Success)
	require.NotNil(t, result.Data)
	assert.Empty(t, result.Errors)
	assert.Empty(t, result.Warnings)
	assert.Equal(t, "FPR 12/24", result.Data.Number)
}

func TestParseSafe_CollectsEveryIssue(t *testing.T) {
	doc := `<FatturaElettronica>
  <FatturaElettronicaBody>
    <DatiGenerali>
      <DatiGeneraliDocumento>
        <TipoDocumento>TD99</TipoDocumento>
      </DatiGeneraliDocumento>
    </DatiGenerali>
  </FatturaElettronicaBody>
</FatturaElettronica>`

	result := xmlparser.ParseSafe([]byte(doc), "partial.xml")

	assert.False(t, result.Success)
	require.NotNil(t, result.Data, "mapped data is returned alongside errors")

	require.Len(t, result.Errors, 3)
	assert.Equal(t, model.CodeMissingVAT, result.Errors[0].Code)
	assert.Equal(t, model.CodeMissingDocumentNumber, result.Errors[1].Code)
	assert.Equal(t, model.CodeMissingDate, result.Errors[2].Code)

	assert.True(t, result.HasCode(model.CodeUnknownDocumentType))
	assert.True(t, result.HasCode(model.CodeEmptyLineItems))
	assert.True(t, result.HasCode(model.CodeMissingTotalAmount))
	assert.Len(t, result.Warnings, 3)
}

func TestParseSafe_WarningsDoNotBlock(t *testing.T) {
	doc := buildDocument("01234567890", "", "9", "2024-02-01")

	result := xmlparser.ParseSafe([]byte(doc), "warn.xml")

	assert.True(t, result.Success)
	assert.Empty(t, result.Errors)
	assert.True(t, result.HasCode(model.CodeEmptyLineItems))
	assert.True(t, result.HasCode(model.CodeMissingTotalAmount))
	assert.False(t, result.HasCode(model.CodeUnknownDocumentType))
}

func TestParseSafe_InvalidXML(t *testing.T) {
	result := xmlparser.ParseSafe([]byte("{\"json\": true}"), "bad.json")

	assert.False(t, result.Success)
	assert.Nil(t, result.Data)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, model.CodeInvalidXML, result.Errors[0].Code)
	assert.NotNil(t, result.Warnings)
}

func TestDecode_Latin1(t *testing.T) {
	doc := "<?xml version=\"1.0\" encoding=\"ISO-8859-1\"?>\n" +
		"<FatturaElettronica><FatturaElettronicaHeader><CedentePrestatore><DatiAnagrafici>" +
		"<Anagrafica><Denominazione>Caff\xe8 Sport</Denominazione></Anagrafica>" +
		"</DatiAnagrafici></CedentePrestatore></FatturaElettronicaHeader></FatturaElettronica>"

	tree, err := xmlparser.Decode([]byte(doc))
	require.NoError(t, err)

	inv := xmlparser.Map(tree)
	assert.Equal(t, "Caffè Sport", inv.Supplier.Name)
}

func TestDecode_ByteOrderMark(t *testing.T) {
	doc := "\xef\xbb\xbf" + buildDocument("01234567890", "", "1", "2024-01-01")

	tree, err := xmlparser.Decode([]byte(doc))
	require.NoError(t, err)
	assert.Equal(t, "FatturaElettronica", tree.Root.Name)
}

func TestDecode_UnknownPrefix(t *testing.T) {
	doc := `<x:FatturaElettronica xmlns:x="urn:test"><FatturaElettronicaHeader/></x:FatturaElettronica>`

	tree, err := xmlparser.Decode([]byte(doc))
	require.NoError(t, err)
	assert.Equal(t, "FatturaElettronica", tree.Root.Name)
	assert.Equal(t, "x", tree.Root.Prefix)
	assert.NotNil(t, tree.Root.Child("FatturaElettronicaHeader"))
}

func TestNode_Navigation(t *testing.T) {
	doc := `<Root>
  <Item code="a">first</Item>
  <Item>second</Item>
  <Group><Leaf value="attr-only"/></Group>
</Root>`

	tree, err := xmlparser.Decode([]byte(doc))
	require.NoError(t, err)

	root := tree.Root
	assert.Len(t, root.All("Item"), 2)
	assert.Equal(t, "first", root.Value("Item"))
	assert.Equal(t, []string{"first", "second"}, root.Values("Item"))
	assert.Equal(t, "a", root.Child("Item").Attrs["code"])
	assert.Equal(t, "attr-only", root.Value("Group/Leaf"))

	assert.Nil(t, root.Child("Missing/Path"))
	assert.Empty(t, root.All("Missing"))
	assert.Equal(t, "", root.Value("Missing"))

	var nilNode *xmlparser.Node
	assert.Equal(t, "", nilNode.Text())
	assert.Nil(t, nilNode.All("Item"))
}

// buildDocument assembles a minimal ordinary invoice; empty arguments omit
// the corresponding element.
func buildDocument(vat, fiscalCode, number, date string) string {
	ident := ""
	if vat != "" {
		ident += "<IdFiscaleIVA><IdPaese>IT</IdPaese><IdCodice>" + vat + "</IdCodice></IdFiscaleIVA>"
	}
	if fiscalCode != "" {
		ident += "<CodiceFiscale>" + fiscalCode + "</CodiceFiscale>"
	}

	doc := "<TipoDocumento>TD01</TipoDocumento><Divisa>EUR</Divisa>"
	if date != "" {
		doc += "<Data>" + date + "</Data>"
	}
	if number != "" {
		doc += "<Numero>" + number + "</Numero>"
	}

	return `<?xml version="1.0" encoding="UTF-8"?>` +
		`<FatturaElettronica versione="FPR12">` +
		`<FatturaElettronicaHeader><CedentePrestatore><DatiAnagrafici>` + ident +
		`<Anagrafica><Denominazione>Fornitore</Denominazione></Anagrafica>` +
		`</DatiAnagrafici></CedentePrestatore></FatturaElettronicaHeader>` +
		`<FatturaElettronicaBody><DatiGenerali><DatiGeneraliDocumento>` + doc +
		`</DatiGeneraliDocumento></DatiGenerali></FatturaElettronicaBody>` +
		`</FatturaElettronica>`
}

func readTestFile(t *testing.T, filename string) []byte {
	t.Helper()
	path := filepath.Join("testdata", filename)
	content, err := os.ReadFile(path)
	require.NoError(t, err, "failed to read test file: %s", filename)
	return content
}
