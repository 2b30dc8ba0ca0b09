package pipeline

import (
	"fmt"
	"strings"

	"materiais/internal"
	"materiais/internal/util"
)

const (
	unknownSampleLines       = 40
	noRecordsSampleLines     = 120
	normalizationSampleLines = 40
)

type Options struct {
	IVA          float64
	Brands       VendorBrands
	PreviewLimit int
}

func DefaultOptions() Options {
	return Options{
		IVA:          DefaultIVA,
		Brands:       VendorBrands{CableKm: "Solidal", PriceTable: "Cabelte"},
		PreviewLimit: 12,
	}
}

// Analysis is everything the pure part of an import produces. Failure is set
// when the text is rejected and nothing should be written.
type Analysis struct {
	Format     internal.FormatTag
	Rule       string
	Lines      []string
	Candidates []internal.CandidateItem
	Records    []internal.CatalogRecord
	Failure    *internal.ImportFailure
}

func Analyze(text string, opts Options) Analysis {
	lines := util.SplitLines(text)
	if len(lines) == 0 {
		return Analysis{
			Format: internal.FormatUnknown,
			Failure: &internal.ImportFailure{
				Kind:        internal.FailureExtractionEmpty,
				Message:     "documento ilegível: não foi possível extrair texto",
				SampleLines: []string{},
			},
		}
	}

	detected := detectFormatLines(strings.Join(lines, "\n"), lines)
	out := Analysis{Format: detected.Format, Rule: detected.Rule, Lines: lines}
	if detected.Format == internal.FormatUnknown {
		out.Failure = &internal.ImportFailure{
			Kind:        internal.FailureFormatUnrecognized,
			Message:     "formato de tabela não reconhecido",
			SampleLines: sampleLines(lines, unknownSampleLines),
		}
		return out
	}

	out.Candidates = ParseCandidates(detected.Format, lines, opts.Brands)
	if len(out.Candidates) == 0 {
		out.Failure = &internal.ImportFailure{
			Kind:        internal.FailureNoValidRecords,
			Message:     fmt.Sprintf("formato %s reconhecido mas nenhuma linha válida encontrada", detected.Format),
			SampleLines: sampleLines(lines, noRecordsSampleLines),
		}
		return out
	}

	out.Records = NormalizeCandidates(out.Candidates, opts.IVA)
	if len(out.Records) == 0 {
		out.Failure = &internal.ImportFailure{
			Kind:        internal.FailureNormalizationFailed,
			Message:     fmt.Sprintf("%d itens detetados mas a normalização falhou", len(out.Candidates)),
			SampleLines: sampleLines(lines, normalizationSampleLines),
		}
	}
	return out
}

func Preview(records []internal.CatalogRecord, limit int) []internal.CatalogRecord {
	if limit < 0 || len(records) <= limit {
		return records
	}
	return records[:limit]
}

func sampleLines(lines []string, n int) []string {
	if len(lines) > n {
		lines = lines[:n]
	}
	out := make([]string, len(lines))
	copy(out, lines)
	return out
}
