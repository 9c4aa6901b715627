package extract

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestPagesTextFile(t *testing.T) {
	path := writeFile(t, "notes.txt", "Exam schedule for the spring term.")

	pages, err := Pages(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, pages, 1)
	assert.Equal(t, "Exam schedule for the spring term.", pages[0])
}

func TestPagesMarkdownFile(t *testing.T) {
	path := writeFile(t, "faq.md", "# FAQ\n\nHostel fees are due in March.")

	pages, err := Pages(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, pages, 1)
}

func TestPagesExtensionCaseInsensitive(t *testing.T) {
	path := writeFile(t, "NOTES.TXT", "content")

	_, err := Pages(context.Background(), path)
	assert.NoError(t, err)
}

func TestPagesUnsupportedFormat(t *testing.T) {
	path := writeFile(t, "slides.pptx", "binary")

	_, err := Pages(context.Background(), path)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestPagesBlankFileIsEmptyDocument(t *testing.T) {
	path := writeFile(t, "blank.txt", " \n\t \n")

	_, err := Pages(context.Background(), path)
	assert.ErrorIs(t, err, ErrEmptyDocument)
}

func TestPagesInvalidPDF(t *testing.T) {
	path := writeFile(t, "fake.pdf", "this is not a pdf")

	_, err := Pages(context.Background(), path)
	assert.Error(t, err)
}

func TestPagesMissingFile(t *testing.T) {
	_, err := Pages(context.Background(), filepath.Join(t.TempDir(), "gone.txt"))
	assert.Error(t, err)
}
