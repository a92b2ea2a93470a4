package main

import (
	"context"
	"fmt"
	"log"
	"path/filepath"

	simple_util "github.com/liserjrqlxue/simple-util"

	"github.com/liserjrqlxue/MothurPipeline/metadata"
	"github.com/liserjrqlxue/MothurPipeline/mothur"
	"github.com/liserjrqlxue/MothurPipeline/sra"
)

// Pipeline carries the state one stage hands to the next.
type Pipeline struct {
	ctx   context.Context
	cfg   Config
	runID string
	runs  []sra.Run
	plan  *mothur.MergePlan
}

func NewPipeline(ctx context.Context, cfg Config, runID string) *Pipeline {
	return &Pipeline{ctx: ctx, cfg: cfg, runID: runID}
}

// Tasks lists the stages in run order.
func (p *Pipeline) Tasks() []*Task {
	return []*Task{
		{TaskName: "fetch", Enable: p.cfg.GetNewData, Run: p.fetch},
		{TaskName: "batch", Enable: p.cfg.MakeMothurInput, Run: p.makeBatch},
		{TaskName: "mothur", Enable: p.cfg.RunMothur, Run: p.runMothur},
		{TaskName: "dataset", Enable: p.cfg.MakeNewDatasets, Run: p.makeDatasets},
	}
}

// getRuns returns the fetched runs, or the lists a previous fetch left on disk.
func (p *Pipeline) getRuns() ([]sra.Run, error) {
	if p.runs != nil {
		return p.runs, nil
	}
	runs, err := loadRuns(p.cfg)
	if err != nil {
		return nil, err
	}
	p.runs = runs
	return runs, nil
}

func (p *Pipeline) fetch() error {
	var f = p.cfg.fetcher()
	runs, err := f.Fetch()
	if err != nil {
		return err
	}
	p.runs = runs
	if p.cfg.DownloadFastqFiles {
		f.Download(runs)
	}
	return nil
}

func (p *Pipeline) template() (*mothur.Template, error) {
	var (
		cmds    []mothur.Command
		skipped []string
		err     error
	)
	if p.cfg.TemplateFile != "" {
		log.Printf("Task[%-7s] sop from %s", "batch", p.cfg.TemplateFile)
		cmds, skipped, err = mothur.LoadTemplate(p.cfg.TemplateFile)
	} else {
		log.Printf("Task[%-7s] sop from %s", "batch", p.cfg.TemplateURL)
		cmds, skipped, err = mothur.FetchTemplate(p.ctx, p.cfg.TemplateURL)
	}
	if err != nil {
		return nil, err
	}
	for _, line := range skipped {
		log.Printf("Task[%-7s] unparsed sop line: %s", "batch", line)
	}
	if len(cmds) == 0 {
		return nil, fmt.Errorf("no %q lines in sop page", mothur.Marker)
	}
	return mothur.NewTemplate(cmds), nil
}

// rewrite fetches the SOP and applies the rewrite rules.
func (p *Pipeline) rewrite() (*mothur.Template, error) {
	tpl, err := p.template()
	if err != nil {
		return nil, err
	}
	report, err := p.cfg.rewriter().Rewrite(tpl)
	logRewrite(report)
	return tpl, err
}

func logRewrite(report mothur.Report) {
	log.Printf("Task[%-7s] deleted %d sop commands", "batch", len(report.Deleted))
	for _, cmd := range report.Deleted {
		log.Printf("Task[%-7s] - %s", "batch", cmd)
	}
	for _, rule := range report.Unmatched {
		log.Printf("Task[%-7s] warning: rule %s matched nothing", "batch", rule)
	}
}

func (p *Pipeline) makeBatch() error {
	runs, err := p.getRuns()
	if err != nil {
		return err
	}
	tpl, err := p.rewrite()
	if err != nil {
		return err
	}
	var (
		stems   = sra.Stems(runs)
		history []mothur.Command
	)
	if p.cfg.MakeFastaFiles {
		if history, err = p.makeFasta(stems); err != nil {
			return err
		}
	}

	plan, err := p.planMerge(stems)
	if err != nil {
		return err
	}
	p.plan = &plan
	tpl.Prepend(plan.Commands()...)
	tpl.Prepend(mothur.SetDir(p.cfg.OutputDir, p.cfg.OutputDir))
	tpl.PrependDone(history...)
	tpl.Header = []string{"run " + p.runID, "project " + p.cfg.ProjectID}

	var batch = p.cfg.batchFile()
	tpl.WriteFile(batch)
	log.Printf("Task[%-7s] %d commands -> %s", "batch", len(tpl.Commands()), batch)
	return simple_util.CopyFile(filepath.Join(p.cfg.OutputDir, filepath.Base(batch)), batch)
}

// makeFasta converts and trims every run's reads right away, each sub-batch
// in its own mothur call, and returns what ran in order.
func (p *Pipeline) makeFasta(stems []string) ([]mothur.Command, error) {
	var (
		iv    = p.cfg.invoker()
		fastq = mothur.NewTemplate(mothur.FastqInfoBatch(p.cfg.InputDir, p.cfg.OutputDir, stems))
	)
	if err := iv.RunTemplate(fastq, filepath.Join(p.cfg.InputDir, "fastq.batch")); err != nil {
		return nil, err
	}

	trimCmds, missing := mothur.TrimBatch(p.cfg.OutputDir, stems, p.cfg.NumProcessors, simple_util.FileExists)
	for _, stem := range missing {
		log.Printf("Task[%-7s] warning: no converted fasta for %s", "batch", stem)
	}
	var trim = mothur.NewTemplate(trimCmds)
	if err := iv.RunTemplate(trim, filepath.Join(p.cfg.InputDir, "trim.batch")); err != nil {
		return nil, err
	}
	return append(fastq.Commands(), trim.Commands()...), nil
}

func (p *Pipeline) planMerge(stems []string) (mothur.MergePlan, error) {
	files, missing := mothur.MergeInputs(p.cfg.OutputDir, stems, simple_util.FileExists)
	for _, stem := range missing {
		log.Printf("Task[%-7s] warning: no fasta for %s, left out of merge", "merge", stem)
	}
	plan, err := mothur.PlanMerge(files, p.cfg.FanOut)
	if err != nil {
		return plan, err
	}
	log.Printf("Task[%-7s] %d files in %d rounds -> %s", "merge", len(files), len(plan.Rounds), plan.Final())
	return plan, nil
}

func (p *Pipeline) runMothur() error {
	var batch = p.cfg.batchFile()
	if !simple_util.FileExists(batch) {
		return fmt.Errorf("batch file %s not found, enable make_mothur_input", batch)
	}
	if err := p.cfg.invoker().Run(batch); err != nil {
		return err
	}
	if p.plan == nil {
		return nil
	}
	tally, err := mothur.VerifyMerge(p.cfg.OutputDir, *p.plan)
	switch {
	case err != nil:
		log.Printf("Task[%-7s] warning: merge tally: %v", "mothur", err)
	case !tally.OK():
		log.Printf("Task[%-7s] warning: %s has %d reads, inputs had %d", "mothur", p.plan.Final(), tally.Final, tally.Inputs)
	default:
		log.Printf("Task[%-7s] %s has all %d reads", "mothur", p.plan.Final(), tally.Final)
	}
	return nil
}

func (p *Pipeline) makeDatasets() error {
	runs, err := p.getRuns()
	if err != nil {
		return err
	}
	scraper, err := p.cfg.scraper()
	if err != nil {
		return err
	}
	doc, err := metadata.ReadXML(p.cfg.paths().MetadataXML)
	if err != nil {
		return err
	}
	rows, report := scraper.Scrape(doc, runs)
	logScrape(report)

	var dir = p.cfg.FiguresDir
	if err := metadata.AppendFieldFiles(dir, rows, scraper.Fields); err != nil {
		return err
	}
	metadata.WriteTable(filepath.Join(dir, "metadata.tsv"), rows, scraper.Fields)
	if err := metadata.WriteWorkbook(filepath.Join(dir, "metadata.xlsx"), rows, scraper.Fields); err != nil {
		return err
	}
	log.Printf("Task[%-7s] %d rows -> %s", "dataset", len(rows), dir)
	return nil
}

func logScrape(report metadata.Report) {
	if report.Clean() {
		return
	}
	for _, acc := range report.NoRecord {
		log.Printf("Task[%-7s] warning: no metadata record for %s", "dataset", acc)
	}
	for _, acc := range report.Ambiguous {
		log.Printf("Task[%-7s] warning: several metadata records for %s", "dataset", acc)
	}
	for field, accs := range report.Missing {
		if len(accs) > 0 {
			log.Printf("Task[%-7s] warning: %s missing for %v", "dataset", field, accs)
		}
	}
	for field, accs := range report.Multiple {
		if len(accs) > 0 {
			log.Printf("Task[%-7s] warning: %s has several values for %v, first kept", "dataset", field, accs)
		}
	}
}
