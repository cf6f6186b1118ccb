package ingestion

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const documentXMLFixture = `<?xml version="1.0" encoding="UTF-8"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p><w:r><w:t>Módulos da API de Compras</w:t></w:r></w:p>
    <w:p><w:r><w:t>Primeira parte. </w:t></w:r><w:r><w:t>Segunda parte.</w:t></w:r></w:p>
    <w:p><w:r><w:t>   </w:t></w:r></w:p>
    <w:tbl>
      <w:tr>
        <w:tc><w:p><w:r><w:t>Painel</w:t></w:r></w:p></w:tc>
        <w:tc><w:p><w:r><w:t>URL</w:t></w:r></w:p></w:tc>
      </w:tr>
      <w:tr>
        <w:tc><w:p><w:r><w:t>Compras</w:t></w:r></w:p></w:tc>
        <w:tc><w:p><w:r><w:t>https://compras.gov.br</w:t></w:r></w:p></w:tc>
      </w:tr>
    </w:tbl>
  </w:body>
</w:document>`

func writeDocx(t *testing.T, path string) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	zw := zip.NewWriter(f)
	w, err := zw.Create("word/document.xml")
	require.NoError(t, err)
	_, err = w.Write([]byte(documentXMLFixture))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
}

func TestExtractDocxText(t *testing.T) {
	path := filepath.Join(t.TempDir(), "manual.docx")
	writeDocx(t, path)

	text, err := extractDocxText(path)
	require.NoError(t, err)

	// Paragraphs in document order, then table rows pipe-joined.
	assert.Equal(t,
		"Módulos da API de Compras\n"+
			"Primeira parte. Segunda parte.\n"+
			"Painel | URL\n"+
			"Compras | https://compras.gov.br",
		text)
}

func TestExtractDocxText_MissingDocumentXML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vazio.docx")
	f, err := os.Create(path)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())

	_, err = extractDocxText(path)
	assert.Error(t, err)
}
