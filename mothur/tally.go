package mothur

import (
	"io"
	"path/filepath"

	"github.com/shenwei356/bio/seqio/fastx"
)

// CountRecords counts the sequences in a fasta or fastq file, gzipped or not.
func CountRecords(file string) (int, error) {
	reader, err := fastx.NewDefaultReader(file)
	if err != nil {
		return 0, err
	}
	defer reader.Close()
	var n int
	for {
		_, err = reader.Read()
		if err != nil {
			if err == io.EOF {
				return n, nil
			}
			return n, err
		}
		n++
	}
}

// Tally compares the merged fasta with the files fed into the plan.
type Tally struct {
	Inputs int
	Final  int
}

func (t Tally) OK() bool { return t.Inputs == t.Final }

// VerifyMerge counts the plan's leaf inputs and its final output under dir.
func VerifyMerge(dir string, plan MergePlan) (Tally, error) {
	var t Tally
	for _, file := range plan.Inputs {
		n, err := CountRecords(filepath.Join(dir, file))
		if err != nil {
			return t, err
		}
		t.Inputs += n
	}
	n, err := CountRecords(filepath.Join(dir, plan.Final()))
	if err != nil {
		return t, err
	}
	t.Final = n
	return t, nil
}
