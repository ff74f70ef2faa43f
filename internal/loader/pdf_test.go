package loader

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pdfrag/internal/domain"
)

func write(t *testing.T, dir, name string, data []byte) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), data, 0o644))
}

func TestLoadEmptyDirectory(t *testing.T) {
	l := NewPDFLoader(zerolog.Nop())
	_, err := l.Load(context.Background(), t.TempDir())
	assert.ErrorIs(t, err, domain.ErrNoDocuments)
}

func TestLoadIgnoresNonPDFFiles(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, "notes.txt", []byte("plain text"))
	write(t, dir, "data.csv", []byte("a,b,c"))

	l := NewPDFLoader(zerolog.Nop())
	_, err := l.Load(context.Background(), dir)
	assert.ErrorIs(t, err, domain.ErrNoDocuments)
}

func TestLoadMissingDirectory(t *testing.T) {
	l := NewPDFLoader(zerolog.Nop())
	_, err := l.Load(context.Background(), filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestLoadSkipsCorruptFiles(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, "broken.pdf", []byte("this is not a pdf"))

	l := NewPDFLoader(zerolog.Nop())
	_, err := l.Load(context.Background(), dir)
	// the only file is unreadable, so loading fails as if the dir were empty
	assert.ErrorIs(t, err, domain.ErrNoDocuments)
}

func TestLoadHonorsContextCancellation(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, "a.pdf", []byte("%PDF-1.4 stub"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	l := NewPDFLoader(zerolog.Nop())
	_, err := l.Load(ctx, dir)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestListPDFsFiltersAndSorts(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, "b.pdf", nil)
	write(t, dir, "A.PDF", nil)
	write(t, dir, "readme.md", nil)
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.pdf"), 0o755))

	files, err := listPDFs(dir)
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, filepath.Join(dir, "A.PDF"), files[0])
	assert.Equal(t, filepath.Join(dir, "b.pdf"), files[1])
}
