package metadata

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/liserjrqlxue/goUtil/osUtil"
	"github.com/liserjrqlxue/goUtil/simpleUtil"
	"github.com/xuri/excelize/v2"
)

// SampleFile holds the stems the per-field files are aligned with.
const SampleFile = "samples.txt"

// FieldFile is the flat file a field's values are appended to.
func FieldFile(dir string, field Field) string {
	return filepath.Join(dir, field.Name+".txt")
}

// AppendFieldFiles appends exactly one line per row to samples.txt and to every
// field file, NA where the field had no value.
func AppendFieldFiles(dir string, rows []Row, fields []Field) error {
	var files = []string{filepath.Join(dir, SampleFile)}
	for _, field := range fields {
		files = append(files, FieldFile(dir, field))
	}
	var writers = make([]*os.File, len(files))
	for i, file := range files {
		f, err := os.OpenFile(file, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			return err
		}
		defer simpleUtil.DeferClose(f)
		writers[i] = f
	}
	for _, row := range rows {
		if _, err := fmt.Fprintln(writers[0], row.Run.Stem); err != nil {
			return err
		}
		for j, field := range fields {
			if _, err := fmt.Fprintln(writers[j+1], row.Value(field.Name)); err != nil {
				return err
			}
		}
	}
	return nil
}

// Header is the keyed table header: run identity then one column per field.
func Header(fields []Field) []string {
	var header = []string{"Run", "SampleName", "Stem", "Records"}
	for _, field := range fields {
		header = append(header, field.Name)
	}
	return header
}

func rowCells(row Row, fields []Field) []string {
	var cells = []string{row.Run.Accession, row.Run.SampleName, row.Run.Stem, fmt.Sprint(row.Records)}
	for _, field := range fields {
		cells = append(cells, row.Value(field.Name))
	}
	return cells
}

// WriteTable writes the keyed rows as TSV, replacing any earlier table.
func WriteTable(path string, rows []Row, fields []Field) {
	var f = osUtil.Create(path)
	defer simpleUtil.DeferClose(f)
	simpleUtil.HandleError(fmt.Fprintln(f, strings.Join(Header(fields), "\t")))
	for _, row := range rows {
		simpleUtil.HandleError(fmt.Fprintln(f, strings.Join(rowCells(row, fields), "\t")))
	}
}

// Sheet is the worksheet name of the workbook.
const Sheet = "metadata"

// WriteWorkbook writes the keyed rows to an xlsx for the statistics step.
func WriteWorkbook(path string, rows []Row, fields []Field) error {
	var xlsx = excelize.NewFile()
	defer simpleUtil.DeferClose(xlsx)
	if err := xlsx.SetSheetName("Sheet1", Sheet); err != nil {
		return err
	}
	var header = Header(fields)
	if err := xlsx.SetSheetRow(Sheet, "A1", &header); err != nil {
		return err
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		var cells = rowCells(row, fields)
		if err := xlsx.SetSheetRow(Sheet, cell, &cells); err != nil {
			return err
		}
	}
	return xlsx.SaveAs(path)
}
