package gcs

import (
	"context"

	"github.com/dvloznov/docrisk/internal/domain"
	"github.com/dvloznov/docrisk/internal/extract"
)

// Loader fetches an object and extracts its content by file extension.
type Loader struct {
	storage   StorageService
	extractor *extract.Service
}

func NewLoader(storage StorageService, extractor *extract.Service) *Loader {
	return &Loader{storage: storage, extractor: extractor}
}

// Load fetches uri and extracts it.
func (l *Loader) Load(ctx context.Context, uri string) (domain.Content, error) {
	data, err := l.storage.Fetch(ctx, uri)
	if err != nil {
		return nil, err
	}
	return l.extractor.Extract(ctx, FilenameFromURI(uri), data)
}
