package pipeline

import "materiais/internal"

// VendorBrands holds the fixed brand written on items of the single-vendor
// formats. The barcode catalog carries its own brand per record.
type VendorBrands struct {
	CableKm    string
	PriceTable string
}

func ParseCandidates(format internal.FormatTag, lines []string, brands VendorBrands) []internal.CandidateItem {
	switch format {
	case internal.FormatCableKm:
		return ParseCableKm(lines, brands.CableKm)
	case internal.FormatBarcode:
		return ParseBarcodeCatalog(lines)
	case internal.FormatPriceTable:
		return ParsePriceTable(lines, brands.PriceTable)
	default:
		return nil
	}
}
