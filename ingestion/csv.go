package ingestion

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"
)

// extractCSVText renders a tabular export as text, one row per line with
// `header: value` cells joined by pipes. The header row names the cells so
// chunks keep their column meaning when the table is split.
func extractCSVText(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("could not open csv: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return "", fmt.Errorf("could not parse csv: %w", err)
	}
	if len(records) == 0 {
		return "", nil
	}

	header := records[0]
	var lines []string
	for _, record := range records[1:] {
		var cells []string
		for i, value := range record {
			value = strings.TrimSpace(value)
			if value == "" {
				continue
			}
			if i < len(header) && strings.TrimSpace(header[i]) != "" {
				cells = append(cells, strings.TrimSpace(header[i])+": "+value)
			} else {
				cells = append(cells, value)
			}
		}
		if len(cells) > 0 {
			lines = append(lines, strings.Join(cells, " | "))
		}
	}
	return strings.Join(lines, "\n"), nil
}
