package source

import (
	"context"
	"fmt"
	"os"

	"github.com/mcao2/careops-triage/internal/triage"
)

// File reads items from a JSON export on disk. The file may wrap the array in
// prose or a markdown code fence.
type File struct {
	Path string
}

// NewFile returns a file source for path
func NewFile(path string) *File {
	return &File{Path: path}
}

// Name implements Source
func (f *File) Name() string {
	return "file"
}

// Fetch re-reads the file on every call
func (f *File) Fetch(ctx context.Context) ([]triage.Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", f.Path, err)
	}
	return triage.ParseItems(string(data))
}
