package main

import (
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/liserjrqlxue/MothurPipeline/metadata"
	"github.com/liserjrqlxue/MothurPipeline/mothur"
	"github.com/liserjrqlxue/MothurPipeline/sra"
)

// Config is read once at start and passed by value to every stage.
type Config struct {
	ProjectID string

	DownloadFastqFiles bool
	GetNewData         bool
	MakeMothurInput    bool
	MakeFastaFiles     bool
	RunMothur          bool
	RemoveOldOutput    bool
	MakeNewDatasets    bool

	NumProcessors int
	FanOut        int
	DownloadJobs  int
	StrictRules   bool

	DataDir     string
	InputDir    string
	OutputDir   string
	FiguresDir  string
	ExternalDir string
	LogFile     string

	MothurExec         string
	TemplateURL        string
	TemplateFile       string
	ReferenceDB        string
	TrimmedReferenceDB string

	MetadataRecord string
	MetadataFields []string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("project_id", "")
	v.SetDefault("download_fastq_files", false)
	v.SetDefault("get_new_data", false)
	v.SetDefault("make_mothur_input", true)
	v.SetDefault("make_fasta_files", false)
	v.SetDefault("run_mothur", false)
	v.SetDefault("remove_old_output", false)
	v.SetDefault("make_new_datasets", true)
	v.SetDefault("num_processors", 6)
	v.SetDefault("fan_out", mothur.DefaultFanOut)
	v.SetDefault("download_jobs", 1)
	v.SetDefault("strict_rules", false)
	v.SetDefault("data_dir", "data")
	v.SetDefault("input_dir", filepath.Join("data", "mothur_in"))
	v.SetDefault("output_dir", filepath.Join("data", "mothur_out"))
	v.SetDefault("figures_dir", "figures")
	v.SetDefault("external_dir", filepath.Join("data", "external"))
	v.SetDefault("log_file", "")
	v.SetDefault("mothur_exec", "mothur")
	v.SetDefault("template_url", "https://web.archive.org/web/20160311225109/http://www.mothur.org/wiki/454_SOP")
	v.SetDefault("template_file", "")
	v.SetDefault("reference_db", "silva.bacteria.fasta")
	v.SetDefault("trimmed_reference_db", "silva.bacteria.pcr.fasta")
	v.SetDefault("metadata_record", metadata.DefaultRecord)
	var fields []string
	for _, field := range metadata.DefaultFields {
		fields = append(fields, field.Name+"="+field.Tag)
	}
	v.SetDefault("metadata_fields", fields)
}

func loadConfig(v *viper.Viper) (cfg Config, err error) {
	cfg = Config{
		ProjectID:          v.GetString("project_id"),
		DownloadFastqFiles: v.GetBool("download_fastq_files"),
		GetNewData:         v.GetBool("get_new_data"),
		MakeMothurInput:    v.GetBool("make_mothur_input"),
		MakeFastaFiles:     v.GetBool("make_fasta_files"),
		RunMothur:          v.GetBool("run_mothur"),
		RemoveOldOutput:    v.GetBool("remove_old_output"),
		MakeNewDatasets:    v.GetBool("make_new_datasets"),
		NumProcessors:      v.GetInt("num_processors"),
		FanOut:             v.GetInt("fan_out"),
		DownloadJobs:       v.GetInt("download_jobs"),
		StrictRules:        v.GetBool("strict_rules"),
		MothurExec:         v.GetString("mothur_exec"),
		TemplateURL:        v.GetString("template_url"),
		TemplateFile:       v.GetString("template_file"),
		ReferenceDB:        v.GetString("reference_db"),
		TrimmedReferenceDB: v.GetString("trimmed_reference_db"),
		MetadataRecord:     v.GetString("metadata_record"),
		MetadataFields:     v.GetStringSlice("metadata_fields"),
	}
	for key, dst := range map[string]*string{
		"data_dir":     &cfg.DataDir,
		"input_dir":    &cfg.InputDir,
		"output_dir":   &cfg.OutputDir,
		"figures_dir":  &cfg.FiguresDir,
		"external_dir": &cfg.ExternalDir,
		"log_file":     &cfg.LogFile,
	} {
		var path = v.GetString(key)
		if path == "" {
			continue
		}
		if *dst, err = filepath.Abs(path); err != nil {
			return
		}
	}
	if cfg.LogFile == "" {
		cfg.LogFile = filepath.Join(cfg.OutputDir, "log")
	}
	if cfg.TemplateFile != "" {
		if cfg.TemplateFile, err = filepath.Abs(cfg.TemplateFile); err != nil {
			return
		}
	}
	return
}

func (cfg Config) dirs() []string {
	return []string{cfg.DataDir, cfg.InputDir, cfg.OutputDir, cfg.FiguresDir, cfg.ExternalDir}
}

func (cfg Config) paths() sra.Paths {
	return sra.NewPaths(cfg.DataDir)
}

func (cfg Config) fetcher() sra.Fetcher {
	return sra.Fetcher{
		Project:     cfg.ProjectID,
		Paths:       cfg.paths(),
		InputDir:    cfg.InputDir,
		ExternalDir: cfg.ExternalDir,
		Jobs:        cfg.DownloadJobs,
	}
}

func (cfg Config) rewriter() mothur.Rewriter {
	return mothur.Rewriter{
		Processors:         cfg.NumProcessors,
		ReferenceDB:        cfg.ReferenceDB,
		TrimmedReferenceDB: cfg.TrimmedReferenceDB,
		Rules:              mothur.DefaultRules(),
		Strict:             cfg.StrictRules,
	}
}

func (cfg Config) invoker() mothur.Invoker {
	return mothur.Invoker{
		Exec:    cfg.MothurExec,
		LogFile: filepath.Join(cfg.OutputDir, "mothur.log"),
	}
}

func (cfg Config) scraper() (metadata.Scraper, error) {
	fields, err := metadata.ParseFields(cfg.MetadataFields)
	if err != nil {
		return metadata.Scraper{}, err
	}
	return metadata.Scraper{Record: cfg.MetadataRecord, Fields: fields}, nil
}

// batchFile is the final batch handed to mothur.
func (cfg Config) batchFile() string {
	return filepath.Join(cfg.InputDir, "mothur.batch")
}
