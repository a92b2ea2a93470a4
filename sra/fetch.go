package sra

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/liserjrqlxue/goUtil/simpleUtil"
	sp "github.com/scipipe/scipipe"
)

// Paths are the four files a fetch produces.
type Paths struct {
	AccessionList string
	SampleList    string
	FullDataset   string
	MetadataXML   string
}

// NewPaths places the fetch outputs in dir.
func NewPaths(dir string) Paths {
	return Paths{
		AccessionList: filepath.Join(dir, "SRR_Acc_List.txt"),
		SampleList:    filepath.Join(dir, "sample_names.txt"),
		FullDataset:   filepath.Join(dir, "full_dataset.csv"),
		MetadataXML:   filepath.Join(dir, "metadata.xml"),
	}
}

func (p Paths) all() []string {
	return []string{p.AccessionList, p.SampleList, p.FullDataset, p.MetadataXML}
}

// Fetcher queries EDirect for a project and pulls its reads with sra-tools.
type Fetcher struct {
	Project     string
	Paths       Paths
	InputDir    string
	ExternalDir string
	Jobs        int
}

// RemoveStale deletes earlier fetch outputs; scipipe would otherwise skip the
// queries because their outputs exist.
func (f Fetcher) RemoveStale() error {
	for _, file := range f.Paths.all() {
		for _, path := range []string{file, file + ".audit.json"} {
			if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
				return err
			}
		}
	}
	return nil
}

// QueryCommands are the two EDirect pipelines, with scipipe output ports.
func (f Fetcher) QueryCommands() (runinfo, metadata string) {
	var search = fmt.Sprintf("esearch -db sra -query %s", shellQuote(f.Project))
	runinfo = search + " | efetch -format runinfo > {o:runinfo}"
	metadata = search + " | efetch -format xml > {o:xml}"
	return
}

// Fetch refreshes the four project files and returns the parsed runs.
func (f Fetcher) Fetch() ([]Run, error) {
	if f.Project == "" {
		return nil, fmt.Errorf("project id is empty")
	}
	if err := f.RemoveStale(); err != nil {
		return nil, err
	}
	runinfoCmd, xmlCmd := f.QueryCommands()

	wf := sp.NewWorkflow("sra_"+f.Project, 1)
	runinfo := wf.NewProc("runinfo", runinfoCmd)
	runinfo.SetOut("runinfo", f.Paths.FullDataset)
	metadata := wf.NewProc("metadata", xmlCmd)
	metadata.SetOut("xml", f.Paths.MetadataXML)
	log.Printf("Task[%-7s] query %s", "fetch", f.Project)
	wf.Run()

	table, err := os.Open(f.Paths.FullDataset)
	if err != nil {
		return nil, err
	}
	defer simpleUtil.DeferClose(table)
	runs, err := ParseRunInfo(table)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", f.Paths.FullDataset, err)
	}
	WriteLists(f.Paths.AccessionList, f.Paths.SampleList, runs)
	log.Printf("Task[%-7s] %d runs -> %s, %s", "fetch", len(runs), f.Paths.AccessionList, f.Paths.SampleList)
	return runs, nil
}

// FastqPath is where a run's reads land for fastq.info.
func (f Fetcher) FastqPath(run Run) string {
	return filepath.Join(f.InputDir, run.Stem+".fastq")
}

// DownloadCommand prefetches the archive into ExternalDir and dumps it.
func (f Fetcher) DownloadCommand(run Run) string {
	var sra = filepath.Join(f.ExternalDir, run.Accession, run.Accession+".sra")
	return fmt.Sprintf("prefetch %s -O %s && fastq-dump %s --stdout > {o:fastq}",
		shellQuote(run.Accession), shellQuote(f.ExternalDir), shellQuote(sra))
}

// Download fetches every run's reads. Reads already on disk are skipped by scipipe.
func (f Fetcher) Download(runs []Run) {
	if len(runs) == 0 {
		return
	}
	var jobs = f.Jobs
	if jobs < 1 {
		jobs = 1
	}
	wf := sp.NewWorkflow("download_"+f.Project, jobs)
	for _, run := range runs {
		p := wf.NewProc("dump_"+run.Accession, f.DownloadCommand(run))
		p.SetOut("fastq", f.FastqPath(run))
	}
	log.Printf("Task[%-7s] download %d runs with %d jobs", "fetch", len(runs), jobs)
	wf.Run()
}

func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
