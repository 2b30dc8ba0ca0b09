package pipeline

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"

	"materiais/internal"
)

const DefaultIVA = 23.0

// Round3 rounds half away from zero on the third decimal place.
func Round3(v float64) float64 {
	out, _ := decimal.NewFromFloat(v).Round(3).Float64()
	return out
}

// SalePrice applies the tax rate (percent) to a purchase price.
func SalePrice(precoCompra, iva float64) float64 {
	factor := decimal.NewFromFloat(iva).Div(decimal.NewFromInt(100)).Add(decimal.NewFromInt(1))
	out, _ := decimal.NewFromFloat(precoCompra).Mul(factor).Round(3).Float64()
	return out
}

// PriceRecord turns a parsed candidate into a catalog record. The tax rate
// always comes from the caller, never from the parser. It reports false when
// the item lacks a reference, a name or a finite price.
func PriceRecord(item internal.CandidateItem, iva float64) (internal.CatalogRecord, bool) {
	rec := internal.CatalogRecord{
		Referencia:  strings.TrimSpace(item.Referencia),
		Nome:        strings.TrimSpace(item.Nome),
		Marca:       strings.TrimSpace(item.Marca),
		Categoria:   strings.TrimSpace(item.Categoria),
		Unidade:     strings.TrimSpace(item.Unidade),
		IVA:         iva,
		PrecoCompra: item.PrecoCompra,
	}
	if rec.Referencia == "" || rec.Nome == "" {
		return internal.CatalogRecord{}, false
	}
	if math.IsNaN(rec.PrecoCompra) || math.IsInf(rec.PrecoCompra, 0) {
		return internal.CatalogRecord{}, false
	}
	if rec.Categoria == "" {
		rec.Categoria = internal.CategoryGeneral
	}
	if rec.Unidade == "" {
		rec.Unidade = internal.UnitPiece
	}
	rec.PrecoVenda = SalePrice(rec.PrecoCompra, iva)
	return rec, true
}

// NormalizeCandidates prices every valid candidate and drops repeated
// references, first one wins.
func NormalizeCandidates(items []internal.CandidateItem, iva float64) []internal.CatalogRecord {
	seen := map[string]struct{}{}
	out := make([]internal.CatalogRecord, 0, len(items))
	for _, item := range items {
		rec, ok := PriceRecord(item, iva)
		if !ok {
			continue
		}
		if _, exists := seen[rec.Referencia]; exists {
			continue
		}
		seen[rec.Referencia] = struct{}{}
		out = append(out, rec)
	}
	return out
}
