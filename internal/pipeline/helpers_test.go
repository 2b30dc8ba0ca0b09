package pipeline

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"materiais/internal/util"
)

func readFixture(t *testing.T, name string) string {
	t.Helper()
	blob, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)
	return string(blob)
}

func fixtureLines(t *testing.T, name string) []string {
	t.Helper()
	return util.SplitLines(readFixture(t, name))
}
