package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"materiais/internal"
)

func sampleIndex() *Index {
	return BuildIndex([]internal.CatalogRecord{
		{Referencia: "70922 TBI", Nome: "Interruptor simples", Marca: "Branco"},
		{Referencia: "70923", Nome: "Interruptor de escada", Marca: "Branco"},
		{Referencia: "71001", Nome: "Tomada schuko 16A", Marca: "Marfim"},
		{Referencia: "CABOVV3G2,5", Nome: "Cabo VV 3G2,5", Marca: "Solidal"},
		{Referencia: "70923", Nome: "Duplicado ignorado"},
	})
}

func TestBuildIndexKeepsFirstReference(t *testing.T) {
	idx := sampleIndex()
	assert.Equal(t, 4, idx.Len())
	assert.Equal(t, "Interruptor de escada", idx.ByReferencia["70923"].Nome)
}

func TestSearchExactReference(t *testing.T) {
	hits := sampleIndex().Search("70922 TBI", 5)
	require.Len(t, hits, 1)
	assert.Equal(t, ReasonReferencia, hits[0].Reason)
	assert.Equal(t, 1.0, hits[0].Score)
}

func TestSearchNormalizedCode(t *testing.T) {
	hits := sampleIndex().Search("cabovv3g2,5", 5)
	require.Len(t, hits, 1)
	assert.Equal(t, "CABOVV3G2,5", hits[0].Material.Referencia)
}

func TestSearchExactName(t *testing.T) {
	hits := sampleIndex().Search("interruptor simples", 5)
	require.Len(t, hits, 1)
	assert.Equal(t, ReasonNome, hits[0].Reason)
	assert.Equal(t, "70922 TBI", hits[0].Material.Referencia)
}

func TestSearchRanksByTokens(t *testing.T) {
	hits := sampleIndex().Search("tomada schuko", 2)
	require.NotEmpty(t, hits)
	assert.Equal(t, "71001", hits[0].Material.Referencia)
	assert.Equal(t, ReasonFuzzy, hits[0].Reason)
	assert.LessOrEqual(t, len(hits), 2)
}

func TestSearchEmptyQuery(t *testing.T) {
	assert.Empty(t, sampleIndex().Search("  ", 5))
}

func TestScoreName(t *testing.T) {
	full := ScoreName("TOMADA SCHUKO", "TOMADA SCHUKO 16A", []string{"TOMADA", "SCHUKO"}, []string{"TOMADA", "SCHUKO", "16A"})
	partial := ScoreName("TOMADA SCHUKO", "INTERRUPTOR SIMPLES", []string{"TOMADA", "SCHUKO"}, []string{"INTERRUPTOR", "SIMPLES"})
	assert.Greater(t, full, partial)
}
