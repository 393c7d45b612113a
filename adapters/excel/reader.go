package excel

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"abanalyzer/domain/abtest"
	"abanalyzer/domain/core"
)

// Column names the input shape expects besides the category column.
const (
	probabilityColumn = "p"
	populationColumn  = "population"
	variationColumn   = "variation"
)

// ObservationReader reads observation rows from an Excel or CSV file. The
// header row names the columns; the category column name is configurable,
// the rest are fixed.
type ObservationReader struct {
	filePath       string
	fileType       string // "xlsx" or "csv"
	categoryColumn string
}

// NewObservationReader creates a reader that handles both Excel and CSV
// files, switching on the file extension.
func NewObservationReader(filePath, categoryColumn string) *ObservationReader {
	fileType := "xlsx"
	if strings.ToLower(filepath.Ext(filePath)) == ".csv" {
		fileType = "csv"
	}
	return &ObservationReader{filePath: filePath, fileType: fileType, categoryColumn: categoryColumn}
}

// Read loads the file into a dataset, validating the required columns once.
func (r *ObservationReader) Read(ctx context.Context) (abtest.Dataset, error) {
	if _, err := os.Stat(r.filePath); os.IsNotExist(err) {
		return nil, fmt.Errorf("%s file not found: %s", strings.ToUpper(r.fileType), r.filePath)
	}

	var rows [][]string
	var err error
	switch r.fileType {
	case "csv":
		rows, err = r.readCSVRows()
	default:
		rows, err = r.readExcelRows()
	}
	if err != nil {
		return nil, err
	}

	if len(rows) < 2 {
		return nil, fmt.Errorf("input must have a header row and at least one data row")
	}
	return r.parseRows(rows)
}

func (r *ObservationReader) readExcelRows() ([][]string, error) {
	f, err := excelize.OpenFile(r.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheet, err)
	}
	return rows, nil
}

func (r *ObservationReader) readCSVRows() ([][]string, error) {
	file, err := os.Open(r.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.TrimLeadingSpace = true
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV rows: %w", err)
	}
	return rows, nil
}

// parseRows converts raw header + data rows into typed observations.
func (r *ObservationReader) parseRows(rows [][]string) (abtest.Dataset, error) {
	header := rows[0]
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.TrimSpace(name)] = i
	}

	required := []string{r.categoryColumn, probabilityColumn, populationColumn, variationColumn}
	for _, name := range required {
		if _, ok := index[name]; !ok {
			return nil, core.NewMissingColumnError(name)
		}
	}

	dataset := make(abtest.Dataset, 0, len(rows)-1)
	for lineNo, row := range rows[1:] {
		// Excel drops trailing empty cells; skip blank lines entirely.
		if len(row) == 0 {
			continue
		}
		obs, err := parseObservation(row, index, r.categoryColumn)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", lineNo+2, err)
		}
		dataset = append(dataset, obs)
	}
	return dataset, nil
}

func parseObservation(row []string, index map[string]int, categoryColumn string) (abtest.Observation, error) {
	cell := func(name string) string {
		i := index[name]
		if i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	probability, err := strconv.ParseFloat(cell(probabilityColumn), 64)
	if err != nil {
		return abtest.Observation{}, fmt.Errorf("invalid probability %q: %w", cell(probabilityColumn), err)
	}
	population, err := strconv.ParseInt(cell(populationColumn), 10, 64)
	if err != nil {
		return abtest.Observation{}, fmt.Errorf("invalid population %q: %w", cell(populationColumn), err)
	}
	if population < 0 {
		return abtest.Observation{}, fmt.Errorf("population cannot be negative: %d", population)
	}
	if probability < 0 || probability > 1 {
		return abtest.Observation{}, fmt.Errorf("probability must be in [0, 1]: %v", probability)
	}

	return abtest.Observation{
		Category:    cell(categoryColumn),
		Probability: probability,
		Population:  population,
		Variation:   cell(variationColumn),
	}, nil
}
