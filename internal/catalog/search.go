package catalog

import (
	"sort"
	"strings"

	"materiais/internal"
	"materiais/internal/util"
)

const (
	ReasonReferencia = "referencia"
	ReasonNome       = "nome"
	ReasonFuzzy      = "fuzzy"

	maxScanWithoutTokens = 1500
)

type Hit struct {
	Material internal.CatalogRecord `json:"material"`
	Score    float64                `json:"score"`
	Reason   string                 `json:"reason"`
}

// Search looks a material up the way the quote builder does: an exact
// reference wins, then an exact name, then names ranked by similarity.
func (idx *Index) Search(query string, limit int) []Hit {
	query = strings.TrimSpace(query)
	if query == "" || limit <= 0 {
		return []Hit{}
	}

	if rec, ok := idx.ByReferencia[query]; ok {
		return []Hit{{Material: rec, Score: 1, Reason: ReasonReferencia}}
	}
	if util.LooksLikeCode(query) {
		if refs := idx.ByCode[util.NormalizeCode(query)]; len(refs) > 0 {
			return idx.hits(refs, 0.99, ReasonReferencia, limit)
		}
	}

	normalized := util.NormalizeHeader(query)
	if refs := idx.ByName[normalized]; len(refs) > 0 {
		return idx.hits(refs, 0.95, ReasonNome, limit)
	}

	return idx.rank(normalized, limit)
}

func (idx *Index) rank(query string, limit int) []Hit {
	queryTokens := util.Tokenize(query)
	refs := map[string]struct{}{}
	for _, token := range queryTokens {
		for ref := range idx.TokenToReferencias[token] {
			refs[ref] = struct{}{}
		}
	}
	if len(refs) == 0 {
		for i, ref := range idx.order {
			if i >= maxScanWithoutTokens {
				break
			}
			refs[ref] = struct{}{}
		}
	}

	out := make([]Hit, 0, len(refs))
	for ref := range refs {
		name := idx.NormalizedNameByRef[ref]
		score := ScoreName(query, name, queryTokens, util.Tokenize(name))
		if score <= 0 {
			continue
		}
		out = append(out, Hit{Material: idx.ByReferencia[ref], Score: score, Reason: ReasonFuzzy})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Material.Referencia < out[j].Material.Referencia
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

func (idx *Index) hits(refs []string, score float64, reason string, limit int) []Hit {
	out := make([]Hit, 0, len(refs))
	for _, ref := range refs {
		out = append(out, Hit{Material: idx.ByReferencia[ref], Score: score, Reason: reason})
		if len(out) >= limit {
			break
		}
	}
	return out
}

// ScoreName blends character bigram similarity with the share of query
// tokens found in the candidate name.
func ScoreName(query, candidate string, queryTokens, candidateTokens []string) float64 {
	dice := util.DiceCoefficient(query, candidate)
	if len(queryTokens) == 0 || len(candidateTokens) == 0 {
		return dice
	}

	set := map[string]struct{}{}
	for _, t := range candidateTokens {
		set[t] = struct{}{}
	}
	overlap := 0
	for _, t := range queryTokens {
		if _, ok := set[t]; ok {
			overlap++
		}
	}
	tokenScore := float64(overlap) / float64(len(queryTokens))
	return 0.65*dice + 0.35*tokenScore
}
