package pipeline

import (
	"io"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"materiais/internal"
)

var exportHeaders = []string{
	"referencia", "nome", "marca", "categoria", "unidade",
	"iva", "precoCompra", "precoVenda", "stockAtual", "fornecedor", "notas",
	"createdAt", "updatedAt",
}

func ExportMaterialsToXLSX(records []internal.CatalogRecord, outputPath string) error {
	f, err := buildMaterialsWorkbook(records)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	return f.SaveAs(outputPath)
}

func WriteMaterialsXLSX(w io.Writer, records []internal.CatalogRecord) error {
	f, err := buildMaterialsWorkbook(records)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Write(w)
}

func buildMaterialsWorkbook(records []internal.CatalogRecord) (*excelize.File, error) {
	f := excelize.NewFile()
	sheet := "materiais"
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		_ = f.Close()
		return nil, err
	}

	for i, h := range exportHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	for i, rec := range records {
		r := i + 2
		set := func(col int, value any) {
			cell, _ := excelize.CoordinatesToCellName(col, r)
			_ = f.SetCellValue(sheet, cell, value)
		}

		set(1, rec.Referencia)
		set(2, rec.Nome)
		set(3, rec.Marca)
		set(4, rec.Categoria)
		set(5, rec.Unidade)
		set(6, rec.IVA)
		set(7, rec.PrecoCompra)
		set(8, rec.PrecoVenda)
		set(9, rec.StockAtual)
		set(10, rec.Fornecedor)
		set(11, rec.Notas)
		set(12, rec.CreatedAt.Format("2006-01-02 15:04:05"))
		set(13, rec.UpdatedAt.Format("2006-01-02 15:04:05"))
	}

	return f, nil
}
