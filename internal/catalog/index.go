package catalog

import (
	"materiais/internal"
	"materiais/internal/util"
)

type Index struct {
	ByReferencia        map[string]internal.CatalogRecord
	ByCode              map[string][]string
	ByName              map[string][]string
	TokenToReferencias  map[string]map[string]struct{}
	NormalizedNameByRef map[string]string
	order               []string
}

func BuildIndex(records []internal.CatalogRecord) *Index {
	idx := &Index{
		ByReferencia:        map[string]internal.CatalogRecord{},
		ByCode:              map[string][]string{},
		ByName:              map[string][]string{},
		TokenToReferencias:  map[string]map[string]struct{}{},
		NormalizedNameByRef: map[string]string{},
	}

	for _, rec := range records {
		ref := rec.Referencia
		if _, exists := idx.ByReferencia[ref]; exists {
			continue
		}
		idx.ByReferencia[ref] = rec
		idx.order = append(idx.order, ref)

		normName := util.NormalizeHeader(rec.Nome)
		idx.NormalizedNameByRef[ref] = normName
		idx.ByName[normName] = append(idx.ByName[normName], ref)

		if code := util.NormalizeCode(ref); code != "" {
			idx.ByCode[code] = append(idx.ByCode[code], ref)
		}

		for _, token := range util.Tokenize(rec.Nome + " " + rec.Marca) {
			if _, ok := idx.TokenToReferencias[token]; !ok {
				idx.TokenToReferencias[token] = map[string]struct{}{}
			}
			idx.TokenToReferencias[token][ref] = struct{}{}
		}
	}

	return idx
}

func (idx *Index) Len() int {
	return len(idx.order)
}
