// Package ingestion reads the document corpus from disk and prepares it for
// indexing: heterogeneous files are normalized into SourceDocuments and split
// into overlapping chunks sized for embedding.
package ingestion

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/cotin/chatcotin/models"
)

// typeOrder fixes the load order across formats so repeated runs over an
// unchanged folder produce the same document sequence.
var typeOrder = []models.DocType{
	models.DocTypeWord,
	models.DocTypeMarkdown,
	models.DocTypePlainText,
	models.DocTypeCSV,
	models.DocTypePDF,
}

var extToType = map[string]models.DocType{
	".docx": models.DocTypeWord,
	".md":   models.DocTypeMarkdown,
	".txt":  models.DocTypePlainText,
	".csv":  models.DocTypeCSV,
	".pdf":  models.DocTypePDF,
}

// IsSupportedFile reports whether path has a recognized document extension.
func IsSupportedFile(path string) bool {
	_, ok := extToType[strings.ToLower(filepath.Ext(path))]
	return ok
}

// LoadFolder enumerates the supported files directly under folder and loads
// each into a SourceDocument. A file that cannot be read or parsed is logged
// and skipped; the batch never aborts on a single bad file. Unsupported
// extensions are silently ignored.
func LoadFolder(folder string) ([]models.SourceDocument, error) {
	entries, err := os.ReadDir(folder)
	if err != nil {
		return nil, fmt.Errorf("could not read documents folder %s: %w", folder, err)
	}

	byType := make(map[models.DocType][]string)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		docType, ok := extToType[ext]
		if !ok {
			continue
		}
		byType[docType] = append(byType[docType], entry.Name())
	}

	var docs []models.SourceDocument
	for _, docType := range typeOrder {
		names := byType[docType]
		sort.Strings(names)
		for _, name := range names {
			path := filepath.Join(folder, name)
			doc, err := LoadFile(path)
			if err != nil {
				log.Printf("LOADER WARN: skipping %s: %v", name, err)
				continue
			}
			docs = append(docs, doc)
		}
	}
	log.Printf("LOADER: loaded %d documents from %s", len(docs), folder)
	return docs, nil
}

// LoadFile reads one file and normalizes it into a SourceDocument according
// to its extension.
func LoadFile(path string) (models.SourceDocument, error) {
	ext := strings.ToLower(filepath.Ext(path))
	docType, ok := extToType[ext]
	if !ok {
		return models.SourceDocument{}, fmt.Errorf("unsupported file type: %s", ext)
	}

	var text string
	var err error
	switch docType {
	case models.DocTypePlainText, models.DocTypeMarkdown:
		var raw []byte
		raw, err = os.ReadFile(path)
		text = string(raw)
	case models.DocTypeWord:
		text, err = extractDocxText(path)
	case models.DocTypeCSV:
		text, err = extractCSVText(path)
	case models.DocTypePDF:
		text, err = extractPDFText(path)
	}
	if err != nil {
		return models.SourceDocument{}, err
	}

	return models.SourceDocument{
		ID:         documentID(path),
		Text:       text,
		SourcePath: path,
		Filename:   filepath.Base(path),
		DocType:    docType,
		ByteLength: len(text),
	}, nil
}

// documentID derives a stable identifier from the source path, keeping
// re-ingestion of an unchanged folder idempotent.
func documentID(path string) string {
	sum := sha256.Sum256([]byte(path))
	return hex.EncodeToString(sum[:8])
}
