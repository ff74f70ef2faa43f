package loader

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/rs/zerolog"

	"pdfrag/internal/domain"
)

// PDFLoader reads every *.pdf in a directory and extracts text page by page.
// Unreadable or malformed files are logged and skipped; loading fails only
// when no file yields any page.
type PDFLoader struct {
	log zerolog.Logger
}

// NewPDFLoader creates a loader that reports skipped files on the given logger.
func NewPDFLoader(log zerolog.Logger) *PDFLoader {
	return &PDFLoader{log: log}
}

// Load returns one Page per non-empty page, ordered by file name and then
// page number. Returns domain.ErrNoDocuments when the directory holds no PDF
// or none of them could be read.
func (l *PDFLoader) Load(ctx context.Context, dir string) ([]domain.Page, error) {
	files, err := listPDFs(dir)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w in %s", domain.ErrNoDocuments, dir)
	}

	var pages []domain.Page
	loaded := 0
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		name := filepath.Base(path)
		filePages, err := l.loadFile(path)
		if err != nil {
			l.log.Warn().Str("file", name).Err(err).Msg("skipping unreadable PDF")
			continue
		}
		l.log.Info().Str("file", name).Int("pages", len(filePages)).Msg("loaded PDF")
		pages = append(pages, filePages...)
		loaded++
	}
	if loaded == 0 {
		return nil, fmt.Errorf("%w: all %d files in %s were unreadable", domain.ErrNoDocuments, len(files), dir)
	}
	return pages, nil
}

// loadFile extracts the text of every page of one PDF.
func (l *PDFLoader) loadFile(path string) (pages []domain.Page, err error) {
	// the pdf package panics on some malformed files
	defer func() {
		if r := recover(); r != nil {
			pages = nil
			err = fmt.Errorf("parse %s: %v", path, r)
		}
	}()

	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	name := filepath.Base(path)
	for num := 1; num <= reader.NumPage(); num++ {
		page := reader.Page(num)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			l.log.Warn().Str("file", name).Int("page", num).Err(err).Msg("skipping unreadable page")
			continue
		}
		if strings.TrimSpace(text) == "" {
			continue
		}
		pages = append(pages, domain.Page{Source: name, Number: num, Text: text})
	}
	return pages, nil
}

// listPDFs returns the full paths of all *.pdf files in dir, sorted by name.
func listPDFs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read documents directory: %w", err)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if strings.EqualFold(filepath.Ext(e.Name()), ".pdf") {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}
