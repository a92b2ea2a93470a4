// Package sra fetches the run list and metadata of an SRA project and
// downloads the raw reads of each run.
package sra

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/liserjrqlxue/goUtil/osUtil"
	"github.com/liserjrqlxue/goUtil/simpleUtil"
	"github.com/liserjrqlxue/goUtil/textUtil"
)

var ErrNoRuns = errors.New("no runs in project")

// Run links one sequencing run to its biological sample. Stem names every file
// derived from the run.
type Run struct {
	Accession  string
	SampleName string
	BioSample  string
	Stem       string
}

// ParseRunInfo reads an efetch runinfo table. Blank rows and the header rows
// efetch repeats between batches are skipped.
func ParseRunInfo(r io.Reader) ([]Run, error) {
	var reader = csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	header, err := reader.Read()
	if err == io.EOF {
		return nil, ErrNoRuns
	}
	if err != nil {
		return nil, fmt.Errorf("runinfo header: %w", err)
	}
	var col = make(map[string]int)
	for i, key := range header {
		col[key] = i
	}
	runCol, ok := col["Run"]
	if !ok {
		return nil, fmt.Errorf("runinfo has no Run column: %v", header)
	}
	sampleCol, ok := col["SampleName"]
	if !ok {
		return nil, fmt.Errorf("runinfo has no SampleName column: %v", header)
	}
	bioSampleCol, hasBioSample := col["BioSample"]

	var runs []Run
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("runinfo: %w", err)
		}
		if len(row) <= runCol || row[runCol] == "" || row[runCol] == "Run" {
			continue
		}
		var run = Run{Accession: row[runCol]}
		if len(row) > sampleCol {
			run.SampleName = row[sampleCol]
		}
		if run.SampleName == "" {
			// keeps the sample list free of blank lines
			run.SampleName = run.Accession
		}
		if hasBioSample && len(row) > bioSampleCol {
			run.BioSample = row[bioSampleCol]
		}
		runs = append(runs, run)
	}
	if len(runs) == 0 {
		return nil, ErrNoRuns
	}
	AssignStems(runs)
	return runs, nil
}

// AssignStems names each run by its sample; samples shared by several runs, or
// missing, fall back to the accession so file names never collide.
func AssignStems(runs []Run) {
	var count = make(map[string]int)
	for _, run := range runs {
		count[run.SampleName]++
	}
	for i := range runs {
		switch {
		case runs[i].SampleName == "":
			runs[i].Stem = runs[i].Accession
		case count[runs[i].SampleName] > 1:
			runs[i].Stem = runs[i].SampleName + "_" + runs[i].Accession
		default:
			runs[i].Stem = runs[i].SampleName
		}
	}
}

// Stems returns the file stems in run order.
func Stems(runs []Run) []string {
	var stems = make([]string, len(runs))
	for i, run := range runs {
		stems[i] = run.Stem
	}
	return stems
}

// WriteLists writes the accession and sample-name lists from the same slice,
// so line N of both files always describes the same run.
func WriteLists(accFile, sampleFile string, runs []Run) {
	var (
		accF    = osUtil.Create(accFile)
		sampleF = osUtil.Create(sampleFile)
	)
	defer simpleUtil.DeferClose(accF)
	defer simpleUtil.DeferClose(sampleF)
	for _, run := range runs {
		simpleUtil.HandleError(fmt.Fprintln(accF, run.Accession))
		simpleUtil.HandleError(fmt.Fprintln(sampleF, run.SampleName))
	}
}

// LoadLists reads the two lists back into runs; differing lengths are an error.
func LoadLists(accFile, sampleFile string) ([]Run, error) {
	for _, file := range []string{accFile, sampleFile} {
		if _, err := os.Stat(file); err != nil {
			return nil, err
		}
	}
	var (
		accs    = trimTrailing(textUtil.File2Array(accFile))
		samples = trimTrailing(textUtil.File2Array(sampleFile))
	)
	if len(accs) != len(samples) {
		return nil, fmt.Errorf("%s has %d lines but %s has %d", accFile, len(accs), sampleFile, len(samples))
	}
	if len(accs) == 0 {
		return nil, ErrNoRuns
	}
	var runs = make([]Run, len(accs))
	for i := range accs {
		runs[i] = Run{Accession: accs[i], SampleName: samples[i]}
	}
	AssignStems(runs)
	return runs, nil
}

// trimTrailing drops blank lines at the end only; an empty sample name in the
// middle still holds its position.
func trimTrailing(lines []string) []string {
	for len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}
