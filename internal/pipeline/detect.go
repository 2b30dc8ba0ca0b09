package pipeline

import (
	"regexp"

	"materiais/internal"
	"materiais/internal/util"
)

const (
	bareBarcodeThreshold   = 50
	codePriceLineThreshold = 5
	codePriceScanLines     = 200
)

var (
	reMarkerPerKm      = regexp.MustCompile(`(?i)(?:€|\beur)\s*/\s*km\b|\bpor\s+km\b|\bpre[cç]o\s*/\s*km\b`)
	reMarkerBarcode    = regexp.MustCompile(`(?i)\bc[oó]d(?:igo|\.)?\s*(?:de\s+)?barras\b|\bean\s*-?\s*13\b`)
	reMarkerTablePrice = regexp.MustCompile(`(?i)\bpre[cç]o\s+(?:de\s+)?tabela\b|\bp\.\s*tabela\b`)
	reBareBarcode      = regexp.MustCompile(`\b\d{13}\b`)
	reCodePriceLine    = regexp.MustCompile(`^\d{6,8}\s+\S.*?\s+\d[\d.,]*`)
	reCurrencyMark     = regexp.MustCompile(`(?i)€|\beur\b`)
)

type DetectResult struct {
	Format internal.FormatTag
	Rule   string
}

type detectionRule struct {
	name   string
	format internal.FormatTag
	match  func(text string, lines []string) bool
}

// Rules run in order and the first match wins. Header markers come before the
// statistical rules, which assume no marker was found.
var detectionRules = []detectionRule{
	{name: "per_km_header", format: internal.FormatCableKm, match: func(text string, _ []string) bool { return HasPerKmMarker(text) }},
	{name: "barcode_header", format: internal.FormatBarcode, match: func(text string, _ []string) bool { return HasBarcodeHeader(text) }},
	{name: "table_price_header", format: internal.FormatPriceTable, match: func(text string, _ []string) bool { return HasTablePriceHeader(text) }},
	{name: "bare_barcodes", format: internal.FormatBarcode, match: func(text string, _ []string) bool {
		return CountBareBarcodes(text) > bareBarcodeThreshold
	}},
	{name: "code_price_lines", format: internal.FormatPriceTable, match: func(_ string, lines []string) bool {
		return CountCodePriceLines(lines) >= codePriceLineThreshold
	}},
}

func DetectFormat(text string) DetectResult {
	return detectFormatLines(text, util.SplitLines(text))
}

func detectFormatLines(text string, lines []string) DetectResult {
	for _, rule := range detectionRules {
		if rule.match(text, lines) {
			return DetectResult{Format: rule.format, Rule: rule.name}
		}
	}
	return DetectResult{Format: internal.FormatUnknown, Rule: "none"}
}

func HasPerKmMarker(text string) bool {
	return reMarkerPerKm.MatchString(text)
}

func HasBarcodeHeader(text string) bool {
	return reMarkerBarcode.MatchString(text)
}

func HasTablePriceHeader(text string) bool {
	return reMarkerTablePrice.MatchString(text)
}

// CountBareBarcodes counts standalone 13-digit tokens (EAN-13 candidates).
func CountBareBarcodes(text string) int {
	return len(reBareBarcode.FindAllStringIndex(text, -1))
}

// CountCodePriceLines looks at the first lines only and counts rows shaped
// like "<6-8 digit code> <text> <number>" that carry a currency mark.
func CountCodePriceLines(lines []string) int {
	if len(lines) > codePriceScanLines {
		lines = lines[:codePriceScanLines]
	}
	count := 0
	for _, line := range lines {
		if reCodePriceLine.MatchString(line) && reCurrencyMark.MatchString(line) {
			count++
		}
	}
	return count
}
