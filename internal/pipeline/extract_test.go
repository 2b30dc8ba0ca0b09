package pipeline

import (
	"bytes"
	"context"
	"strings"
	"testing"

	pdf "github.com/ledongthuc/pdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"materiais/internal"
)

func mkXLSX(t *testing.T, rows [][]any) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)
	for r, row := range rows {
		for c, v := range row {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+1)
			require.NoError(t, f.SetCellValue(sheet, cell, v))
		}
	}
	buf := bytes.NewBuffer(nil)
	_, err := f.WriteTo(buf)
	require.NoError(t, err)
	return buf.Bytes()
}

func TestExtractTextXLSX(t *testing.T) {
	blob := mkXLSX(t, [][]any{
		{"Código", "Descrição", "Preço Tabela"},
		{"1234567", "Cabo H07V-U 1,5 mm2", "0,32 €"},
		{"1234568", "", "0,51 €"},
	})

	text, err := ExtractText("tabela.xlsx", blob)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(text), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Código Descrição Preço Tabela", lines[0])
	assert.Equal(t, "1234567 Cabo H07 V-U 1,5 mm2 0,32 €", lines[1])
	assert.Equal(t, "1234568 0,51 €", lines[2])

	sniffed, err := ExtractText("anexo", blob)
	require.NoError(t, err)
	assert.Equal(t, text, sniffed)
}

func TestExtractTextHTMLRows(t *testing.T) {
	page := `<html><body><h1>Tabela</h1><table>
<tr><th>Código</th><th>Preço</th></tr>
<tr><td>1234567</td><td>Cabo  VV</td><td>0,32&nbsp;€</td></tr>
</table></body></html>`

	text, err := ExtractText("lista.html", []byte(page))
	require.NoError(t, err)
	assert.Equal(t, "Código Preço\n1234567 Cabo VV 0,32 €\n", text)
}

func TestExtractTextHTMLWithoutTable(t *testing.T) {
	text, err := ExtractText("", []byte("<html><body><p>70922 Interruptor</p></body></html>"))
	require.NoError(t, err)
	assert.Contains(t, text, "70922 Interruptor")
}

func TestExtractTextEmailAttachment(t *testing.T) {
	raw := strings.Join([]string{
		"From: Fornecedor <vendas@fornecedor.pt>",
		"To: compras@empresa.pt",
		"Subject: Tabela de precos",
		"MIME-Version: 1.0",
		`Content-Type: multipart/mixed; boundary="XYZ"`,
		"",
		"--XYZ",
		"Content-Type: text/plain; charset=utf-8",
		"",
		"Segue em anexo.",
		"--XYZ",
		"Content-Type: text/plain; charset=utf-8",
		`Content-Disposition: attachment; filename="tabela.txt"`,
		"",
		"1234567 Cabo VV 0,32 EUR",
		"--XYZ",
		"Content-Type: image/png",
		`Content-Disposition: attachment; filename="logo.png"`,
		"",
		"not an image",
		"--XYZ--",
		"",
	}, "\r\n")

	text, err := ExtractText("mensagem.eml", []byte(raw))
	require.NoError(t, err)
	assert.Contains(t, text, "1234567 Cabo VV 0,32 EUR")
	assert.NotContains(t, text, "Segue em anexo")
	assert.NotContains(t, text, "not an image")
}

func TestExtractTextEmailBodyFallback(t *testing.T) {
	raw := strings.Join([]string{
		"From: vendas@fornecedor.pt",
		"Subject: Lista",
		"Content-Type: text/plain; charset=utf-8",
		"",
		"70922 Interruptor simples",
		"",
	}, "\r\n")

	text, err := ExtractText("mensagem.eml", []byte(raw))
	require.NoError(t, err)
	assert.Contains(t, text, "70922 Interruptor simples")
}

func TestExtractTextPlain(t *testing.T) {
	text, err := ExtractText("lista.txt", []byte("linha 1\nlinha 2\n"))
	require.NoError(t, err)
	assert.Equal(t, "linha 1\nlinha 2\n", text)

	text, err = ExtractText("lista.txt", []byte{'a', 0xff, 'b'})
	require.NoError(t, err)
	assert.Equal(t, "a b", text)
}

func TestExtractTextBrokenPDF(t *testing.T) {
	_, err := ExtractText("lista.pdf", []byte("%PDF-1.4 truncated"))
	assert.Error(t, err)
}

func TestExtractTextMalformedPDFIsAnError(t *testing.T) {
	blob := []byte("%PDF-1.4\n1 0 obj << /Type /Catalog /Pages 2 0 R >> endobj\n" +
		"xref\n0 2\n0000000000 65535 f \n0000000009 00000 n \n" +
		"trailer << /Size 2 /Root 1 0 R >>\nstartxref\n49\n%%EOF")

	var text string
	var err error
	require.NotPanics(t, func() { text, err = ExtractText("lista.pdf", blob) })
	assert.Error(t, err)
	assert.Empty(t, text)
}

func TestImportFileMalformedPDFIsEmpty(t *testing.T) {
	w := &fakeWriter{}
	s := newTestService(w, nil, DefaultOptions())

	blob := []byte("%PDF-1.4\n1 0 obj << /Type /Catalog >> >> endobj\nstartxref\n9\n%%EOF")
	report, err := s.ImportFile(context.Background(), "upload", "lista.pdf", blob)
	require.NoError(t, err)
	require.NotNil(t, report.Failure)
	assert.Equal(t, internal.FailureExtractionEmpty, report.Failure.Kind)
	assert.Zero(t, w.calls)
}

func TestExtractTextLegacyXLS(t *testing.T) {
	_, err := ExtractText("lista.xls", []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1})
	assert.ErrorContains(t, err, ".xls")
}

func TestJoinPDFRow(t *testing.T) {
	row := []pdf.Text{
		{S: "Cabo", X: 0, W: 20, FontSize: 10},
		{S: "VV", X: 30, W: 10, FontSize: 10},
		{S: "3", X: 45, W: 5, FontSize: 10},
		{S: "G1,5", X: 50.5, W: 20, FontSize: 10},
	}
	assert.Equal(t, "Cabo VV 3 G1,5", joinPDFRow(row))
}

func TestSupportedDocument(t *testing.T) {
	for _, name := range []string{"a.pdf", "B.XLSX", "c.htm", "d.csv", "e.txt"} {
		assert.True(t, SupportedDocument(name), name)
	}
	for _, name := range []string{"logo.png", "assinatura", "x.docx", "antiga.xls"} {
		assert.False(t, SupportedDocument(name), name)
	}
}
