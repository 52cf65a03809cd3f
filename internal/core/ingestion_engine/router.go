package ingestion_engine

import (
	"context"
	"mime"
	"path/filepath"
	"strings"

	"code.sajari.com/docconv"
	"golang.org/x/sync/errgroup"

	"github.com/markdave123-py/orthoscan/internal/core"
)

const (
	ContentTypeArchive = "application/zip"
	ContentTypeUSX     = "application/vnd.usx+xml"
)

// ContentTypeFor guesses the content type of an upload from its file name.
func ContentTypeFor(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".zip":
		return ContentTypeArchive
	case ".usx":
		return ContentTypeUSX
	}
	if ct := docconv.MimeTypeByExtension(filename); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

func mediaType(contentType string) string {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(contentType))
	}
	return mt
}

func isArchive(contentType string) bool {
	switch mediaType(contentType) {
	case ContentTypeArchive, "application/x-zip-compressed", "application/x-zip":
		return true
	}
	return false
}

func isUSX(contentType string) bool {
	return mediaType(contentType) == ContentTypeUSX
}

// RoutingExtractor sends DBL bundles and USX files to the archive extractor and
// everything else to the generic document extractor.
type RoutingExtractor struct {
	archive   core.DocumentExtractor
	documents core.DocumentExtractor
}

var _ core.DocumentExtractor = (*RoutingExtractor)(nil)

func NewRoutingExtractor(archive, documents core.DocumentExtractor) *RoutingExtractor {
	return &RoutingExtractor{archive: archive, documents: documents}
}

func (r *RoutingExtractor) ExtractText(ctx context.Context, g *errgroup.Group, data []byte, contentType string) (<-chan string, error) {
	if isArchive(contentType) || isUSX(contentType) {
		return r.archive.ExtractText(ctx, g, data, mediaType(contentType))
	}
	return r.documents.ExtractText(ctx, g, data, contentType)
}
