package pipeline

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"materiais/internal"
)

// ImportPath imports a price list from disk, or from stdin when path is "-".
func (s *ImportService) ImportPath(ctx context.Context, path string) (internal.ImportReport, error) {
	if path == "-" {
		content, err := io.ReadAll(os.Stdin)
		if err != nil {
			return internal.ImportReport{}, fmt.Errorf("read stdin: %w", err)
		}
		return s.ImportFile(ctx, "cli", "stdin.txt", content)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return internal.ImportReport{}, err
	}
	return s.ImportFile(ctx, "cli", filepath.Base(path), content)
}
