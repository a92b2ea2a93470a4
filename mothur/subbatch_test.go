package mothur

import (
	"path/filepath"
	"reflect"
	"testing"
)

func existsIn(files ...string) Exists {
	set := map[string]bool{}
	for _, f := range files {
		set[f] = true
	}
	return func(path string) bool { return set[path] }
}

func TestFastqInfoBatch(t *testing.T) {
	cmds := FastqInfoBatch("/in", "/out", []string{"SP001", "SP002"})
	var got []string
	for _, cmd := range cmds {
		got = append(got, cmd.String())
	}
	want := []string{
		"set.dir(input=/in,output=/out)",
		"fastq.info(fastq=SP001.fastq)",
		"fastq.info(fastq=SP002.fastq)",
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v", got)
	}
}

func TestTrimBatchCandidates(t *testing.T) {
	dir := "/out"
	exists := existsIn(
		filepath.Join(dir, "SP001.fasta"),
		filepath.Join(dir, "SP002.fastq.fasta"),
	)
	cmds, missing := TrimBatch(dir, []string{"SP001", "SP002", "SP003"}, 4, exists)
	if !reflect.DeepEqual(missing, []string{"SP003"}) {
		t.Fatalf("missing %v", missing)
	}
	if len(cmds) != 3 {
		t.Fatalf("commands %d", len(cmds))
	}
	if got := cmds[1].String(); got != "trim.seqs(fasta=SP001.fasta,qfile=SP001.qual,maxambig=0,maxhomop=8,qwindowaverage=35,qwindowsize=50,processors=4)" {
		t.Fatalf("SP001: %s", got)
	}
	if v, _ := cmds[2].Get("qfile"); v != "SP002.fastq.qual" {
		t.Fatalf("SP002 qfile %s", v)
	}
}

func TestMergeInputsPrefersTrimmed(t *testing.T) {
	dir := "/out"
	exists := existsIn(
		filepath.Join(dir, "A.fasta"),
		filepath.Join(dir, "A.trim.fasta"),
		filepath.Join(dir, "B.fasta"),
		filepath.Join(dir, "C.fastq.trim.fasta"),
	)
	files, missing := MergeInputs(dir, []string{"A", "B", "C", "D"}, exists)
	if !reflect.DeepEqual(files, []string{"A.trim.fasta", "B.fasta", "C.fastq.trim.fasta"}) {
		t.Fatalf("files %v", files)
	}
	if !reflect.DeepEqual(missing, []string{"D"}) {
		t.Fatalf("missing %v", missing)
	}
}
