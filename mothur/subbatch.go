package mothur

import (
	"path/filepath"
	"strconv"
	"strings"
)

// Exists reports whether a file is present. simple_util.FileExists in production,
// a map lookup in tests.
type Exists func(path string) bool

// SetDir points mothur's input and output directories.
func SetDir(input, output string) Command {
	return NewCommand("set.dir", "input", input, "output", output)
}

// FastqInfoBatch converts each <stem>.fastq to fasta and qual files.
func FastqInfoBatch(inputDir, outputDir string, stems []string) []Command {
	var cmds = []Command{SetDir(inputDir, outputDir)}
	for _, stem := range stems {
		cmds = append(cmds, NewCommand("fastq.info", "fastq", stem+".fastq"))
	}
	return cmds
}

// ConvertedCandidates lists, in preference order, the names fastq.info may
// have given a stem's fasta.
func ConvertedCandidates(stem string) []string {
	return []string{stem + ".fasta", stem + ".fastq.fasta"}
}

// QualFor is the quality file fastq.info writes next to fasta.
func QualFor(fasta string) string {
	return strings.TrimSuffix(fasta, ".fasta") + ".qual"
}

// TrimBatch quality-trims the converted fasta of every stem found in dir.
// Stems with no converted file are returned in missing.
func TrimBatch(dir string, stems []string, processors int, exists Exists) (cmds []Command, missing []string) {
	cmds = append(cmds, SetDir(dir, dir))
	for _, stem := range stems {
		fasta, ok := firstExisting(dir, ConvertedCandidates(stem), exists)
		if !ok {
			missing = append(missing, stem)
			continue
		}
		cmds = append(cmds, NewCommand("trim.seqs",
			"fasta", fasta,
			"qfile", QualFor(fasta),
			"maxambig", "0",
			"maxhomop", "8",
			"qwindowaverage", "35",
			"qwindowsize", "50",
			"processors", strconv.Itoa(processors),
		))
	}
	return
}

// MergeCandidates lists trimmed names before untrimmed ones.
func MergeCandidates(stem string) []string {
	return []string{
		stem + ".trim.fasta",
		stem + ".fastq.trim.fasta",
		stem + ".fasta",
		stem + ".fastq.fasta",
	}
}

// MergeInputs picks one fasta per stem for the merge, preferring trimmed files.
// The check is existence only.
func MergeInputs(dir string, stems []string, exists Exists) (files, missing []string) {
	for _, stem := range stems {
		name, ok := firstExisting(dir, MergeCandidates(stem), exists)
		if !ok {
			missing = append(missing, stem)
			continue
		}
		files = append(files, name)
	}
	return
}

func firstExisting(dir string, names []string, exists Exists) (string, bool) {
	for _, name := range names {
		if exists(filepath.Join(dir, name)) {
			return name, true
		}
	}
	return "", false
}
