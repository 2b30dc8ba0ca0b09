package pipeline

import (
	"regexp"
	"strings"

	"materiais/internal"
	"materiais/internal/util"
)

var (
	reTableHeader = regexp.MustCompile(`(?i)c[oó]digo|descri[cç][aã]o|pre[cç]o\s+(?:de\s+)?tabela|\bp\.\s*tabela`)
	reTableRow    = regexp.MustCompile(`^(\d{6,8})\s+(.+?)\s+(\d{1,3}(?:[ \x{00A0}.]\d{3})+(?:,\d+)?|\d[\d.,]*)\s*(?:€|EUR\b)`)
)

// ParsePriceTable reads one item per line: "<6-8 digit code> <description>
// <price> €". Every item is sold per meter under the given brand.
func ParsePriceTable(lines []string, brand string) []internal.CandidateItem {
	out := []internal.CandidateItem{}
	for _, raw := range lines {
		line := util.NormalizeText(raw)
		if line == "" || reTableHeader.MatchString(line) {
			continue
		}
		item, ok := parsePriceTableLine(line, brand)
		if !ok {
			continue
		}
		out = append(out, item)
	}
	return dedupeCandidates(out)
}

func parsePriceTableLine(line, brand string) (internal.CandidateItem, bool) {
	m := reTableRow.FindStringSubmatch(line)
	if m == nil {
		return internal.CandidateItem{}, false
	}
	price, ok := util.ParseNumber(m[3])
	if !ok {
		return internal.CandidateItem{}, false
	}
	name := strings.TrimSpace(m[2])
	return internal.CandidateItem{
		Format:      internal.FormatPriceTable,
		Referencia:  m[1],
		Nome:        name,
		Marca:       brand,
		Categoria:   ClassifyCategory(name),
		Unidade:     internal.UnitMeter,
		PrecoCompra: price,
		RawLine:     line,
	}, true
}
