package ingestion

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

// documentXML mirrors the parts of word/document.xml we extract. Paragraphs
// and tables are collected separately on purpose: the output contract is all
// paragraph text in document order followed by each table's rows, because
// downstream chunk boundaries depend on that ordering.
type documentXML struct {
	Body struct {
		Paragraphs []docxParagraph `xml:"p"`
		Tables     []docxTable     `xml:"tbl"`
	} `xml:"body"`
}

type docxParagraph struct {
	Runs []docxRun `xml:"r"`
}

type docxRun struct {
	Text []docxText `xml:"t"`
}

type docxText struct {
	Content string `xml:",chardata"`
}

type docxTable struct {
	Rows []docxRow `xml:"tr"`
}

type docxRow struct {
	Cells []docxCell `xml:"tc"`
}

type docxCell struct {
	Paragraphs []docxParagraph `xml:"p"`
}

// extractDocxText pulls paragraph text and then table rows out of a .docx
// file. Table rows are rendered as pipe-joined cells, one row per line.
func extractDocxText(path string) (string, error) {
	reader, err := zip.OpenReader(path)
	if err != nil {
		return "", fmt.Errorf("could not open docx archive: %w", err)
	}
	defer reader.Close()

	var content []byte
	for _, file := range reader.File {
		if file.Name != "word/document.xml" {
			continue
		}
		rc, err := file.Open()
		if err != nil {
			return "", fmt.Errorf("could not open word/document.xml: %w", err)
		}
		content, err = io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return "", fmt.Errorf("could not read word/document.xml: %w", err)
		}
		break
	}
	if content == nil {
		return "", fmt.Errorf("docx archive has no word/document.xml")
	}

	var doc documentXML
	if err := xml.Unmarshal(content, &doc); err != nil {
		return "", fmt.Errorf("could not parse word/document.xml: %w", err)
	}

	var lines []string
	for _, para := range doc.Body.Paragraphs {
		if text := paragraphText(para); text != "" {
			lines = append(lines, text)
		}
	}
	for _, table := range doc.Body.Tables {
		for _, row := range table.Rows {
			var cells []string
			for _, cell := range row.Cells {
				var cellParts []string
				for _, para := range cell.Paragraphs {
					if text := paragraphText(para); text != "" {
						cellParts = append(cellParts, text)
					}
				}
				if joined := strings.Join(cellParts, " "); joined != "" {
					cells = append(cells, joined)
				}
			}
			if len(cells) > 0 {
				lines = append(lines, strings.Join(cells, " | "))
			}
		}
	}
	return strings.Join(lines, "\n"), nil
}

func paragraphText(para docxParagraph) string {
	var sb strings.Builder
	for _, run := range para.Runs {
		for _, text := range run.Text {
			sb.WriteString(text.Content)
		}
	}
	return strings.TrimSpace(sb.String())
}
