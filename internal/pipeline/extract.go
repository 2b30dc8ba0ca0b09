package pipeline

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/jhillyerd/enmime"
	pdf "github.com/ledongthuc/pdf"
	"github.com/xuri/excelize/v2"

	"materiais/internal/util"
)

// ExtractText turns an uploaded document into plain text, one physical line
// per row. The caller treats an empty result as an unreadable document.
func ExtractText(filename string, content []byte) (string, error) {
	switch documentKind(filename, content) {
	case "pdf":
		return extractPDF(content)
	case "xlsx":
		return extractXLSX(content)
	case "html":
		return extractHTML(content)
	case "eml":
		return extractEmail(content)
	case "xls":
		return "", fmt.Errorf("legacy .xls workbooks are not supported, save as .xlsx")
	default:
		return extractPlain(content), nil
	}
}

func documentKind(filename string, content []byte) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return "pdf"
	case ".xlsx":
		return "xlsx"
	case ".xls":
		return "xls"
	case ".html", ".htm":
		return "html"
	case ".eml":
		return "eml"
	case ".txt", ".csv":
		return "text"
	}
	switch {
	case bytes.HasPrefix(content, []byte("%PDF")):
		return "pdf"
	case bytes.HasPrefix(content, []byte("PK\x03\x04")):
		return "xlsx"
	}
	head := strings.ToLower(string(content[:min(len(content), 512)]))
	if strings.Contains(head, "<html") || strings.Contains(head, "<table") {
		return "html"
	}
	return "text"
}

// SupportedDocument reports whether an attachment name looks like a price list.
func SupportedDocument(filename string) bool {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf", ".xlsx", ".html", ".htm", ".txt", ".csv":
		return true
	}
	return false
}

// extractPDF turns a panic inside the pdf reader (it panics on malformed
// object syntax) into an error, so a corrupt file is an unreadable document.
func extractPDF(content []byte) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("open pdf: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}

	var b strings.Builder
	for i := 1; i <= r.NumPage(); i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		rows, err := p.GetTextByRow()
		if err != nil {
			continue
		}
		for _, row := range rows {
			b.WriteString(joinPDFRow(row.Content))
			b.WriteString("\n")
		}
	}
	return b.String(), nil
}

// joinPDFRow glues the text runs of one row, adding a space where the gap
// between two runs is wider than a fraction of the font size.
func joinPDFRow(runs []pdf.Text) string {
	var b strings.Builder
	for i, run := range runs {
		if i > 0 {
			prev := runs[i-1]
			gap := run.X - (prev.X + prev.W)
			if gap > prev.FontSize*0.15 || prev.W == 0 {
				b.WriteString(" ")
			}
		}
		b.WriteString(run.S)
	}
	return util.NormalizeText(b.String())
}

func extractXLSX(content []byte) (string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return "", fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()

	var b strings.Builder
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			continue
		}
		for _, row := range rows {
			line := joinCells(row)
			if line == "" {
				continue
			}
			b.WriteString(line)
			b.WriteString("\n")
		}
	}
	return b.String(), nil
}

func extractHTML(content []byte) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(content))
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}

	rows := doc.Find("tr")
	if rows.Length() == 0 {
		return doc.Find("body").Text(), nil
	}

	var b strings.Builder
	rows.Each(func(_ int, row *goquery.Selection) {
		cells := []string{}
		row.Find("th,td").Each(func(_ int, cell *goquery.Selection) {
			cells = append(cells, cell.Text())
		})
		if line := joinCells(cells); line != "" {
			b.WriteString(line)
			b.WriteString("\n")
		}
	})
	return b.String(), nil
}

// extractEmail reads every supported attachment of a raw message. Without
// one, the text body stands in (vendors sometimes paste the list inline).
func extractEmail(content []byte) (string, error) {
	env, err := enmime.ReadEnvelope(bytes.NewReader(content))
	if err != nil {
		return "", fmt.Errorf("read envelope: %w", err)
	}

	parts := []string{}
	for _, att := range env.Attachments {
		name := strings.TrimSpace(att.FileName)
		if !SupportedDocument(name) {
			continue
		}
		text, err := ExtractText(name, att.Content)
		if err != nil {
			continue
		}
		if strings.TrimSpace(text) != "" {
			parts = append(parts, text)
		}
	}
	if len(parts) > 0 {
		return strings.Join(parts, "\n"), nil
	}
	if strings.TrimSpace(env.Text) != "" {
		return env.Text, nil
	}
	if env.HTML != "" {
		return extractHTML([]byte(env.HTML))
	}
	return "", nil
}

func extractPlain(content []byte) string {
	if utf8.Valid(content) {
		return string(content)
	}
	return strings.ToValidUTF8(string(content), " ")
}

func joinCells(cells []string) string {
	out := make([]string, 0, len(cells))
	for _, c := range cells {
		c = util.NormalizeText(c)
		if c != "" {
			out = append(out, c)
		}
	}
	return strings.Join(out, " ")
}
