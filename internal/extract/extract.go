package extract

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
)

// ErrUnsupportedFormat reports a file the extractor cannot read. It is a
// caller error, not a transient failure.
var ErrUnsupportedFormat = errors.New("unsupported document format")

// ErrEmptyDocument reports a readable file that yielded no text.
var ErrEmptyDocument = errors.New("document contains no extractable text")

// Pages extracts the ordered page texts of the document at path. PDF files
// produce one text per page; plain-text files produce a single page.
func Pages(ctx context.Context, path string) ([]string, error) {
	var pages []string
	var err error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		pages, err = pdfPages(ctx, path)
	case ".txt", ".md":
		pages, err = textPage(path)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
	}
	if err != nil {
		return nil, err
	}
	for _, p := range pages {
		if strings.TrimSpace(p) != "" {
			return pages, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrEmptyDocument, filepath.Base(path))
}

func pdfPages(ctx context.Context, path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat pdf: %w", err)
	}
	reader, err := pdf.NewReader(file, info.Size())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
	}

	var pages []string
	for pageNum := 1; pageNum <= reader.NumPage(); pageNum++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		page := reader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			// A single unreadable page does not fail the document.
			continue
		}
		pages = append(pages, text)
	}
	return pages, nil
}

func textPage(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read text file: %w", err)
	}
	return []string{string(data)}, nil
}
