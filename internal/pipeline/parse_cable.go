package pipeline

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"materiais/internal"
	"materiais/internal/util"
)

const (
	cableTitleMinRunes = 6
	cableTitleMaxRunes = 60
	cableTitleSlugLen  = 12
	cableReferenceLen  = 40
)

var (
	reConductor   = regexp.MustCompile(`(?i)\b(\d{1,3})\s*([x×g])\s*(\d{1,3}(?:[.,]\d{1,2})?)(?:\s*[x×]\s*(\d{1,3}(?:[.,]\d{1,2})?))?`)
	rePerKmPrice  = regexp.MustCompile(`(?i)(\d{1,3}(?:[ \x{00A0}.]\d{3})+(?:,\d+)?|\d+(?:[.,]\d+)?)\s*(?:€|EUR)?\s*/\s*km\b`)
	rePerKmMark   = regexp.MustCompile(`(?i)/\s*km\b`)
	reCableHeader = regexp.MustCompile(`(?i)(?:€|\beur)\s*/\s*km|(?:^|[^\p{L}])pre[cç]os?(?:[^\p{L}]|$)|\btabela\b|\bp[aá]g(?:ina|\.)?(?:\s|\d|$)`)
	reHasLetter   = regexp.MustCompile(`\p{L}`)
	reLeadDigits  = regexp.MustCompile(`^\d{3}`)
)

// cableState is the running accumulator of the per-km fold. title is the
// last product heading seen; rows below it inherit it.
type cableState struct {
	title string
	items []internal.CandidateItem
}

// ParseCableKm reads cable lists priced per kilometer: a product title line
// followed by one row per conductor spec ("3G2,5 ... 1.250,00 €/km").
func ParseCableKm(lines []string, brand string) []internal.CandidateItem {
	state := cableState{}
	for _, raw := range lines {
		state = stepCableLine(state, util.NormalizeText(raw), brand)
	}
	return dedupeCandidates(state.items)
}

func stepCableLine(state cableState, line, brand string) cableState {
	if line == "" {
		return state
	}
	dataRow := IsCableDataRow(line)
	if !dataRow && reCableHeader.MatchString(line) {
		return state
	}
	if !dataRow && IsCableTitle(line) {
		state.title = line
		return state
	}
	item, ok := parseCableRow(line, state.title, brand)
	if ok {
		state.items = append(state.items, item)
	}
	return state
}

// IsCableDataRow reports whether a line carries a conductor spec together
// with a currency or per-km mark.
func IsCableDataRow(line string) bool {
	if !reConductor.MatchString(line) {
		return false
	}
	return reCurrencyMark.MatchString(line) || rePerKmMark.MatchString(line)
}

func IsCableTitle(line string) bool {
	n := utf8.RuneCountInString(line)
	if n < cableTitleMinRunes || n > cableTitleMaxRunes {
		return false
	}
	if !reHasLetter.MatchString(line) || reCurrencyMark.MatchString(line) || reLeadDigits.MatchString(line) {
		return false
	}
	return !IsCableDataRow(line)
}

func parseCableRow(line, title, brand string) (internal.CandidateItem, bool) {
	if title == "" {
		return internal.CandidateItem{}, false
	}
	specLoc := reConductor.FindStringIndex(line)
	if specLoc == nil {
		return internal.CandidateItem{}, false
	}
	priceMatch := rePerKmPrice.FindStringSubmatch(line[specLoc[1]:])
	if priceMatch == nil {
		return internal.CandidateItem{}, false
	}
	perKm, ok := util.ParseNumber(priceMatch[1])
	if !ok {
		return internal.CandidateItem{}, false
	}

	spec := NormalizeConductorSpec(line[specLoc[0]:specLoc[1]])
	return internal.CandidateItem{
		Format:      internal.FormatCableKm,
		Referencia:  cableReference(title, spec),
		Nome:        title + " — " + spec,
		Marca:       brand,
		Categoria:   internal.CategoryCables,
		Unidade:     internal.UnitMeter,
		PrecoCompra: perKm / 1000,
		RawLine:     line,
	}, true
}

// NormalizeConductorSpec turns "3 g 2,5" or "4 × 16" into "3G2,5" and "4x16".
func NormalizeConductorSpec(spec string) string {
	var b strings.Builder
	for _, r := range spec {
		switch {
		case r == ' ' || r == '\t':
		case r == 'x' || r == 'X' || r == '×':
			b.WriteRune('x')
		case r == 'g' || r == 'G':
			b.WriteRune('G')
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// cableReference builds the synthetic key. Titles sharing their first 12
// characters collide on the same spec.
func cableReference(title, spec string) string {
	slug := strings.ReplaceAll(strings.ToUpper(title), " ", "")
	return util.Truncate(util.Truncate(slug, cableTitleSlugLen)+spec, cableReferenceLen)
}
