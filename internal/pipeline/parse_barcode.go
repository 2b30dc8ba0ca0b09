package pipeline

import (
	"regexp"
	"strings"

	"materiais/internal"
	"materiais/internal/util"
)

var (
	reRecordStart   = regexp.MustCompile(`^\d{5}(?:\D|$)`)
	reRecordRef     = regexp.MustCompile(`^(\d{5})\s*(.*)$`)
	reGluedSuffix   = regexp.MustCompile(`^([A-Z]{3})(\p{Lu}\p{Ll}.*)$`)
	reTokenSuffix   = regexp.MustCompile(`^([A-Z0-9]{1,6})\s+(.*\p{L}.*)$`)
	reHasUpper      = regexp.MustCompile(`[A-Z]`)
	reRecordPrice   = regexp.MustCompile(`(?:^|[^\d.,])(\d{1,3}(?:[ \x{00A0}.]\d{3})+,\d{2}|\d{1,6},\d{2})\s*(?:€|EUR\b)`)
	reRecordBarcode = regexp.MustCompile(`(?:^|\D)(\d{13})(?:\D|$)`)
	reRecordQty     = regexp.MustCompile(`^\s*(\d{1,3})(?:\D|$)`)
	reFamilyList    = regexp.MustCompile(`(?:^|[^\d,])((?:\d{1,3}\s*,\s*)+\d{1,3}),?`)
	reTrailingBrand = regexp.MustCompile(`(\p{L}[\p{L}\s.&/-]*?)\s*\d+\s*$`)

	reBarcodeHeaderWord = regexp.MustCompile(`(?i)^(?:marca|refer[eê]ncia|ref\.?|designa[cç][aã]o|descri[cç][aã]o|pre[cç]os?|c[oó]digo|c[oó]d\.?|barras|ean|ean13|quant\.?|quantidade|qtd\.?|fam[ií]lia|cx\.?|emb\.?|p[aá]gina)$`)
)

// ParseBarcodeCatalog reads catalogs where each item starts with a 5-digit
// reference and may wrap over the following physical lines.
func ParseBarcodeCatalog(lines []string) []internal.CandidateItem {
	records := groupBarcodeRecords(lines)
	out := make([]internal.CandidateItem, 0, len(records))
	for _, record := range records {
		item, ok := extractBarcodeRecord(record)
		if !ok {
			continue
		}
		out = append(out, item)
	}
	return dedupeCandidates(out)
}

func groupBarcodeRecords(lines []string) []string {
	records := []string{}
	current := ""
	for _, raw := range lines {
		line := util.NormalizeText(raw)
		if line == "" {
			continue
		}
		if reRecordStart.MatchString(line) {
			if current != "" {
				records = append(records, current)
			}
			current = line
			continue
		}
		if isBarcodeHeaderLine(line) {
			continue
		}
		if current != "" {
			current = util.NormalizeText(current + " " + line)
		}
	}
	if current != "" {
		records = append(records, current)
	}
	return records
}

// isBarcodeHeaderLine is only asked about lines that do not open a record. A
// line counts as a header when it starts with a column keyword or carries at
// least two of them.
func isBarcodeHeaderLine(line string) bool {
	distinct := map[string]struct{}{}
	for i, word := range strings.Fields(line) {
		word = strings.TrimRight(word, ":;|")
		if !reBarcodeHeaderWord.MatchString(word) {
			continue
		}
		if i == 0 {
			return true
		}
		distinct[strings.ToLower(word)] = struct{}{}
	}
	return len(distinct) >= 2
}

// splitBarcodeReference returns the reference ("70922" or "70922 TBI") and the
// text that follows it.
func splitBarcodeReference(record string) (string, string, bool) {
	m := reRecordRef.FindStringSubmatch(record)
	if m == nil {
		return "", "", false
	}
	code, rest := m[1], m[2]
	if g := reGluedSuffix.FindStringSubmatch(rest); g != nil {
		return code + " " + g[1], strings.TrimSpace(g[2]), true
	}
	if tk := reTokenSuffix.FindStringSubmatch(rest); tk != nil && reHasUpper.MatchString(tk[1]) {
		return code + " " + tk[1], strings.TrimSpace(tk[2]), true
	}
	return code, strings.TrimSpace(rest), true
}

func extractBarcodeRecord(record string) (internal.CandidateItem, bool) {
	ref, rest, ok := splitBarcodeReference(record)
	if !ok {
		return internal.CandidateItem{}, false
	}

	priceLoc := reRecordPrice.FindStringSubmatchIndex(rest)
	if priceLoc == nil {
		return internal.CandidateItem{}, false
	}
	name := strings.TrimSpace(rest[:priceLoc[2]])
	price, ok := util.ParseNumber(rest[priceLoc[2]:priceLoc[3]])
	if !ok || name == "" {
		return internal.CandidateItem{}, false
	}

	afterPrice := rest[priceLoc[1]:]
	barcodeLoc := reRecordBarcode.FindStringSubmatchIndex(afterPrice)
	if barcodeLoc == nil {
		return internal.CandidateItem{}, false
	}

	afterBarcode := afterPrice[barcodeLoc[3]:]
	qtyLoc := reRecordQty.FindStringSubmatchIndex(afterBarcode)
	if qtyLoc == nil {
		return internal.CandidateItem{}, false
	}

	return internal.CandidateItem{
		Format:      internal.FormatBarcode,
		Referencia:  ref,
		Nome:        name,
		Marca:       extractBrand(afterBarcode[qtyLoc[3]:]),
		Categoria:   ClassifyCategory(name),
		PrecoCompra: price,
		RawLine:     record,
	}, true
}

// extractBrand takes whatever follows the last family-code list ("21,90,70").
// Without a list it falls back to a trailing "<words> <number>" pattern.
func extractBrand(tail string) string {
	lists := reFamilyList.FindAllStringIndex(tail, -1)
	if len(lists) > 0 {
		last := lists[len(lists)-1]
		return strings.TrimSpace(tail[last[1]:])
	}
	if m := reTrailingBrand.FindStringSubmatch(strings.TrimSpace(tail)); m != nil {
		return strings.TrimSpace(m[1])
	}
	return ""
}

func dedupeCandidates(items []internal.CandidateItem) []internal.CandidateItem {
	seen := map[string]struct{}{}
	out := make([]internal.CandidateItem, 0, len(items))
	for _, item := range items {
		if _, exists := seen[item.Referencia]; exists {
			continue
		}
		seen[item.Referencia] = struct{}{}
		out = append(out, item)
	}
	return out
}
