package storage

import (
	"context"
	"os"
)

// FileCatalogState loads the price catalog from a local JSON file.
type FileCatalogState struct {
	FilePath string
}

func NewFileCatalogState(filePath string) *FileCatalogState {
	return &FileCatalogState{FilePath: filePath}
}

func (f *FileCatalogState) Load(ctx context.Context) ([]byte, error) {
	return os.ReadFile(f.FilePath)
}
