package main

import (
	"context"
	"errors"
	"log"
	"os"

	"github.com/google/uuid"
	"github.com/liserjrqlxue/goUtil/osUtil"
	"github.com/liserjrqlxue/goUtil/simpleUtil"
	sp "github.com/scipipe/scipipe"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/liserjrqlxue/MothurPipeline/sra"
)

var (
	v       = viper.New()
	cfgFile string
)

var rootCmd = &cobra.Command{
	Use:   "MothurPipeline",
	Short: "Fetch an SRA project and run it through the mothur 454 SOP",
	Long: `MothurPipeline fetches the run list and metadata of an SRA project,
optionally downloads the reads, rewrites the mothur 454 SOP into a batch
file for the project, runs mothur on it and scrapes host metadata into
per-run tables.

Every stage is switched on or off in mothur_pipeline.yaml.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		p, closer := setup(cmd.Context(), true)
		defer simpleUtil.DeferClose(closer)
		return RunTasks(p.Tasks())
	},
}

var templateCmd = &cobra.Command{
	Use:   "template",
	Short: "Print the rewritten SOP template and what the rules removed",
	RunE: func(cmd *cobra.Command, args []string) error {
		p, closer := setup(cmd.Context(), false)
		defer simpleUtil.DeferClose(closer)
		tpl, err := p.rewrite()
		if err != nil {
			return err
		}
		_, err = tpl.WriteTo(cmd.OutOrStdout())
		return err
	},
}

var mergeCmd = &cobra.Command{
	Use:   "merge",
	Short: "Print the merge.files plan for the fasta files present in output_dir",
	RunE: func(cmd *cobra.Command, args []string) error {
		p, closer := setup(cmd.Context(), false)
		defer simpleUtil.DeferClose(closer)
		runs, err := p.getRuns()
		if err != nil {
			return err
		}
		plan, err := p.planMerge(sra.Stems(runs))
		if err != nil {
			return err
		}
		var out = cmd.OutOrStdout()
		for _, c := range plan.Commands() {
			if _, err := out.Write([]byte(c.String() + "\n")); err != nil {
				return err
			}
		}
		return nil
	},
}

var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Build the metadata tables from an earlier fetch",
	RunE: func(cmd *cobra.Command, args []string) error {
		p, closer := setup(cmd.Context(), false)
		defer simpleUtil.DeferClose(closer)
		return RunTasks([]*Task{{TaskName: "dataset", Enable: true, Run: p.makeDatasets}})
	},
}

func init() {
	cobra.OnInitialize(initConfig)
	setDefaults(v)

	var flags = rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "cfg", "", "config file (default ./mothur_pipeline.yaml)")
	flags.String("project", "", "SRA project id")
	flags.Int("processors", 6, "processors handed to mothur")
	flags.String("log", "", "output log file (default <output_dir>/log)")
	flags.String("mothur", "mothur", "mothur executable")
	flags.String("sop", "", "saved SOP page used instead of template_url")
	for key, name := range map[string]string{
		"project_id":     "project",
		"num_processors": "processors",
		"log_file":       "log",
		"mothur_exec":    "mothur",
		"template_file":  "sop",
	} {
		simpleUtil.CheckErr(v.BindPFlag(key, flags.Lookup(name)))
	}

	rootCmd.AddCommand(templateCmd, mergeCmd, scrapeCmd)
}

func initConfig() {
	v.SetEnvPrefix("MOTHUR_PIPELINE")
	v.AutomaticEnv()
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		simpleUtil.CheckErr(v.ReadInConfig())
		return
	}
	v.SetConfigName("mothur_pipeline")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	var notFound viper.ConfigFileNotFoundError
	if err := v.ReadInConfig(); err != nil && !errors.As(err, &notFound) {
		simpleUtil.CheckErr(err)
	}
}

// setup loads the config, prepares directories and redirects the log.
func setup(ctx context.Context, wipe bool) (*Pipeline, *os.File) {
	cfg, err := loadConfig(v)
	simpleUtil.CheckErr(err)
	simpleUtil.CheckErr(createDir(cfg.dirs()))
	if wipe && cfg.RemoveOldOutput {
		simpleUtil.CheckErr(removeOldOutput(cfg.OutputDir))
	}

	var logF = osUtil.Create(cfg.LogFile)
	log.SetOutput(logF)
	log.SetFlags(log.Ldate | log.Ltime)
	sp.InitLogInfo()

	var runID = uuid.NewString()
	log.Printf("run %s project %q config %s", runID, cfg.ProjectID, v.ConfigFileUsed())
	return NewPipeline(ctx, cfg, runID), logF
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Printf("%v", err)
		os.Exit(1)
	}
}
