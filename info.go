package main

import (
	"fmt"

	"github.com/liserjrqlxue/MothurPipeline/sra"
)

// loadRuns reads the accession and sample lists of an earlier fetch.
func loadRuns(cfg Config) ([]sra.Run, error) {
	var paths = cfg.paths()
	runs, err := sra.LoadLists(paths.AccessionList, paths.SampleList)
	if err != nil {
		return nil, fmt.Errorf("load runs (enable get_new_data?): %w", err)
	}
	return runs, nil
}
