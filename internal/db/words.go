package db

import (
	"context"
	"encoding/csv"
	"os"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type WordRecord struct {
	Category string
	Text     string
}

// ReadWordCSV reads "category,word" rows, skipping the header and blanks.
func ReadWordCSV(path string) ([]WordRecord, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}

	var records []WordRecord
	for i, row := range rows {
		if i == 0 || len(row) < 2 {
			continue
		}
		category := strings.ToLower(strings.TrimSpace(row[0]))
		text := strings.Join(strings.Fields(row[1]), " ")
		if category == "" || text == "" {
			continue
		}
		records = append(records, WordRecord{Category: category, Text: text})
	}
	return records, nil
}

// LoadWordLibrary inserts records into word_library, ignoring ones already
// present, and returns how many rows were new.
func LoadWordLibrary(ctx context.Context, conn *gorm.DB, records []WordRecord) (int64, error) {
	if conn == nil || len(records) == 0 {
		return 0, nil
	}
	entries := make([]WordLibrary, 0, len(records))
	for _, record := range records {
		entries = append(entries, WordLibrary{Category: record.Category, Text: record.Text})
	}
	result := conn.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		CreateInBatches(&entries, 200)
	return result.RowsAffected, result.Error
}

// WordsByCategory returns the whole library grouped by category.
func WordsByCategory(ctx context.Context, conn *gorm.DB) (map[string][]string, error) {
	var entries []WordLibrary
	if err := conn.WithContext(ctx).Order("category asc, text asc").Find(&entries).Error; err != nil {
		return nil, err
	}
	words := make(map[string][]string)
	for _, entry := range entries {
		words[entry.Category] = append(words[entry.Category], entry.Text)
	}
	return words, nil
}
