package ingestion_engine

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/net/html/charset"
	"golang.org/x/sync/errgroup"

	"github.com/markdave123-py/orthoscan/internal/core"
)

// DefaultSuffix selects the USX books inside a DBL bundle.
const DefaultSuffix = ".usx"

// paraElement is the USX paragraph element. Only paragraphs that are direct
// children of the document root are read.
const paraElement = "para"

// ErrEmptyDocument is returned for a markup file without a root element.
var ErrEmptyDocument = errors.New("usx: no root element")

var _ core.DocumentExtractor = (*ArchiveExtractor)(nil)

// NewArchiveExtractor reads entries whose name ends in suffix (DefaultSuffix when empty).
func NewArchiveExtractor(suffix string, log *zap.Logger) *ArchiveExtractor {
	if suffix == "" {
		suffix = DefaultSuffix
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &ArchiveExtractor{suffix: suffix, log: log}
}

// ExtractText streams the paragraph text of a zip bundle, or of a single USX file
// when contentType is ContentTypeUSX.
func (e *ArchiveExtractor) ExtractText(ctx context.Context, g *errgroup.Group, data []byte, contentType string) (<-chan string, error) {
	out := make(chan string, 32)

	emit := func(text string) error {
		select {
		case out <- text:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	g.Go(func() error {
		defer close(out)

		if isUSX(contentType) {
			return WalkUSX(bytes.NewReader(data), emit)
		}
		return WalkArchive(data, e.suffix, func(entry string, text string) error {
			return emit(text)
		}, e.log)
	})

	return out, nil
}

// WalkArchive visits the entries of a zip archive in archive order and calls fn for
// every paragraph text of each entry whose name ends in suffix.
func WalkArchive(data []byte, suffix string, fn func(entry, text string) error, log *zap.Logger) error {
	if log == nil {
		log = zap.NewNop()
	}
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}

	for _, f := range zr.File {
		if f.FileInfo().IsDir() || !strings.HasSuffix(f.Name, suffix) {
			continue
		}
		log.Debug("reading archive entry", zap.String("entry", f.Name))

		rc, err := f.Open()
		if err != nil {
			return fmt.Errorf("open %s: %w", f.Name, err)
		}
		err = WalkUSX(rc, func(text string) error { return fn(f.Name, text) })
		_ = rc.Close()
		if err != nil {
			return fmt.Errorf("%s: %w", f.Name, err)
		}
	}
	return nil
}

// WalkUSX calls fn with the trimmed, non-empty text inside each root-level para
// element, in document order. A text run ends only at an element boundary, so
// comments, processing instructions and CDATA sections do not split it.
func WalkUSX(r io.Reader, fn func(text string) error) error {
	dec := xml.NewDecoder(r)
	dec.CharsetReader = charset.NewReaderLabel

	var (
		depth     int
		paraDepth int
		sawRoot   bool
		run       strings.Builder
	)
	flush := func() error {
		text := strings.TrimSpace(run.String())
		run.Reset()
		if text == "" {
			return nil
		}
		return fn(text)
	}

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			if !sawRoot {
				return ErrEmptyDocument
			}
			return nil
		}
		if err != nil {
			return fmt.Errorf("parse usx: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			depth++
			sawRoot = true
			if paraDepth > 0 {
				if err := flush(); err != nil {
					return err
				}
			} else if depth == 2 && t.Name.Local == paraElement {
				paraDepth = depth
			}
		case xml.EndElement:
			if paraDepth > 0 {
				if err := flush(); err != nil {
					return err
				}
			}
			if depth == paraDepth {
				paraDepth = 0
			}
			depth--
		case xml.CharData:
			if paraDepth > 0 {
				run.Write(t)
			}
		}
	}
}
