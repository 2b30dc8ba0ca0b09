package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"materiais/internal"
)

func TestParsePriceTableFixture(t *testing.T) {
	items := ParsePriceTable(fixtureLines(t, "tabela_precos.txt"), "Cabelte")
	require.Len(t, items, 3)

	assert.Equal(t, "1234567", items[0].Referencia)
	assert.Equal(t, "Cabo H07 V-U 1,5 mm2 azul", items[0].Nome)
	assert.Equal(t, 0.32, items[0].PrecoCompra)
	assert.Equal(t, "1234568", items[1].Referencia)
	assert.Equal(t, 0.51, items[1].PrecoCompra)
	assert.Equal(t, "12345678", items[2].Referencia)
	assert.Equal(t, "Condutor XV 3 G2,5", items[2].Nome)
	assert.Equal(t, 1.27, items[2].PrecoCompra)

	for _, item := range items {
		assert.Equal(t, internal.FormatPriceTable, item.Format)
		assert.Equal(t, internal.UnitMeter, item.Unidade)
		assert.Equal(t, "Cabelte", item.Marca)
		assert.Equal(t, internal.CategoryCables, item.Categoria)
	}
}

func TestParsePriceTableLineShapes(t *testing.T) {
	lines := []string{
		"123456 Tomada dupla 4,10 EUR",
		"12345 Artigo curto 1,00 €",
		"123456789 Artigo longo 1,00 €",
		"654321 Sem moeda 2,00",
		"765432 Interruptor 1.234,50 €",
	}
	items := ParsePriceTable(lines, "Marca X")
	require.Len(t, items, 2)

	assert.Equal(t, "123456", items[0].Referencia)
	assert.Equal(t, "Tomada dupla", items[0].Nome)
	assert.Equal(t, 4.10, items[0].PrecoCompra)
	assert.Equal(t, internal.CategorySockets, items[0].Categoria)

	assert.Equal(t, "765432", items[1].Referencia)
	assert.Equal(t, 1234.5, items[1].PrecoCompra)
	assert.Equal(t, internal.CategorySwitches, items[1].Categoria)
}

func TestParsePriceTableSkipsHeaders(t *testing.T) {
	lines := []string{
		"Código Descrição Preço",
		"1234567 Preço de tabela 1,00 €",
	}
	assert.Empty(t, ParsePriceTable(lines, "Cabelte"))
}

func TestParsePriceTableSpaceGroupedThousands(t *testing.T) {
	items := ParsePriceTable([]string{
		"1234567 Cabo armado 1 234,56 €",
		"1234568 Cabo armado 4x16 2 480,00 €",
	}, "Cabelte")
	require.Len(t, items, 2)
	assert.Equal(t, "Cabo armado", items[0].Nome)
	assert.InDelta(t, 1234.56, items[0].PrecoCompra, 1e-9)
	assert.Equal(t, "Cabo armado 4 x16", items[1].Nome)
	assert.InDelta(t, 2480.0, items[1].PrecoCompra, 1e-9)
}
