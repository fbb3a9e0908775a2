package student

import (
	"encoding/csv"
	"io"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"

	"github.com/shepherd-app/shepherd/core"
)

// Roster file formats
const (
	FormatXLSX = "xlsx"
	FormatCSV  = "csv"
)

const templateSheet = "Students"

var (
	ErrUnsupportedFormat = errors.New("unsupported roster format, use .xlsx or .csv")
	ErrEmptyRoster       = errors.New("the roster has no header row")

	// TemplateHeaders are written to the downloadable roster template.
	TemplateHeaders = []string{"이름", "생년월일", "연락처", "주소", "비고"}

	templateRows = [][]string{
		{"홍길동", "2010-01-01", "010-1234-5678", "서울시 강남구", "특이사항"},
		{"김철수", "2011-05-05", "010-9876-5432", "서울시 서초구", ""},
	}

	// headerAliases maps recognized column headers (lower-cased) to NewStudent fields.
	headerAliases = map[string]string{
		"이름":             "name",
		"name":           "name",
		"생년월일":           "date_of_birth",
		"date_of_birth":  "date_of_birth",
		"dob":            "date_of_birth",
		"연락처":            "guardian_phone",
		"guardian_phone": "guardian_phone",
		"phone":          "guardian_phone",
		"주소":             "address",
		"address":        "address",
		"비고":             "notes",
		"notes":          "notes",
	}
)

// FormatOf derives the roster format from a file name.
func FormatOf(filename string) (string, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx":
		return FormatXLSX, nil
	case ".csv":
		return FormatCSV, nil
	}
	return "", ErrUnsupportedFormat
}

// ParseRows reads a roster whose first row holds the column headers.
// Unknown columns are ignored. Rows without a name are kept; Service.Import skips them.
func ParseRows(r io.Reader, format string) ([]NewStudent, error) {
	var (
		records [][]string
		err     error
	)
	switch format {
	case FormatXLSX:
		records, err = readXLSX(r)
	case FormatCSV:
		cr := csv.NewReader(r)
		cr.FieldsPerRecord = -1
		cr.TrimLeadingSpace = true
		records, err = cr.ReadAll()
	default:
		return nil, ErrUnsupportedFormat
	}
	if err != nil {
		return nil, errors.Wrap(err, "reading roster")
	}
	if len(records) == 0 {
		return nil, ErrEmptyRoster
	}

	columns := make(map[int]string)
	for i, h := range records[0] {
		h = strings.TrimPrefix(h, "\ufeff") // BOM written by spreadsheet exports
		if fld, ok := headerAliases[core.CleanString(h, true /* lower */)]; ok {
			columns[i] = fld
		}
	}

	rows := make([]NewStudent, 0, len(records)-1)
	for _, rec := range records[1:] {
		var ns NewStudent
		for i, val := range rec {
			switch columns[i] {
			case "name":
				ns.Name = val
			case "date_of_birth":
				ns.DateOfBirth = val
			case "guardian_phone":
				ns.GuardianPhone = val
			case "address":
				ns.Address = val
			case "notes":
				ns.Notes = val
			}
		}
		ns.Clean()
		rows = append(rows, ns)
	}
	return rows, nil
}

// readXLSX returns the rows of the first sheet.
func readXLSX(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil
	}
	return f.GetRows(sheets[0])
}

// WriteTemplate writes a sample roster spreadsheet to w.
func WriteTemplate(w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", templateSheet); err != nil {
		return errors.Wrap(err, "naming template sheet")
	}
	rows := append([][]string{TemplateHeaders}, templateRows...)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(templateSheet, cell, &row); err != nil {
			return errors.Wrap(err, "writing template row")
		}
	}
	return f.Write(w)
}
