package mothur

import (
	"errors"
	"strings"
	"testing"
)

const oligoTrim = "trim.seqs(fasta=GQY1XT001.fasta, oligos=GQY1XT001.oligos, qfile=GQY1XT001.qual, maxambig=0, maxhomop=8, flip=T, bdiffs=1, pdiffs=2, qwindowaverage=35, qwindowsize=50, processors=2)"

func mustTemplate(t *testing.T, lines ...string) *Template {
	t.Helper()
	var cmds []Command
	for _, line := range lines {
		cmd, err := ParseCommand(line)
		if err != nil {
			t.Fatal(err)
		}
		cmds = append(cmds, cmd)
	}
	return NewTemplate(cmds)
}

func testRewriter() Rewriter {
	return Rewriter{
		Processors:         6,
		ReferenceDB:        "silva.bacteria.fasta",
		TrimmedReferenceDB: "silva.bacteria.pcr.fasta",
		Rules:              DefaultRules(),
	}
}

func TestRewriteDropsOligoTrim(t *testing.T) {
	tpl := mustTemplate(t,
		"sffinfo(sff=GQY1XT001.sff, flow=T)",
		oligoTrim,
		"unique.seqs(fasta=GQY1XT001.trim.fasta)",
		"amova(phylip=final.an.thetayc.0.03.lt.ave.dist, design=mouse.time.design)",
	)
	report, err := testRewriter().Rewrite(tpl)
	if err != nil {
		t.Fatal(err)
	}
	out := tpl.String()
	if strings.Contains(out, "oligos=") || strings.Contains(out, "GQY1XT001.oligos") {
		t.Fatalf("oligo trim survived:\n%s", out)
	}
	if report.Hits["demultiplex:trim.seqs[oligos]"] != 1 || report.Hits["flowgram:sffinfo"] != 1 || report.Hits["variance:amova"] != 1 {
		t.Fatalf("hits: %v", report.Hits)
	}
	if len(report.Deleted) != 3 {
		t.Fatalf("deleted %d", len(report.Deleted))
	}
	if !strings.Contains(out, "unique.seqs(fasta=current)") {
		t.Fatalf("unique.seqs not substituted:\n%s", out)
	}
}

func TestSubstituteScreen(t *testing.T) {
	cmd, _ := ParseCommand("screen.seqs(fasta=foo.fasta, processors=2)")
	got := testRewriter().Substitute(cmd).String()
	if got != "screen.seqs(fasta=current,processors=6)" {
		t.Fatalf("got %q", got)
	}
	if cmd.String() != "screen.seqs(fasta=foo.fasta,processors=2)" {
		t.Fatalf("source command mutated: %s", cmd)
	}
}

func TestSubstituteIdempotent(t *testing.T) {
	rw := testRewriter()
	lines := []string{
		"align.seqs(fasta=x.fasta, reference=silva.bacteria.fasta, processors=2)",
		"remove.seqs(accnos=x.accnos, name=x.names, group=x.groups)",
		"make.shared(list=x.list, group=x.groups, label=0.03)",
		"sub.sample(shared=x.shared, size=4419)",
		"dist.seqs(fasta=x.fasta, cutoff=0.15, processors=2)",
		"classify.seqs(fasta=x.fasta, template=trainset9_032012.pds.fasta, taxonomy=trainset9_032012.pds.tax)",
		"system(mv x.fasta y.fasta)",
	}
	for _, line := range lines {
		cmd, _ := ParseCommand(line)
		once := rw.Substitute(cmd)
		twice := rw.Substitute(once)
		if once.String() != twice.String() {
			t.Fatalf("%q: %q then %q", line, once, twice)
		}
	}
	cmd, _ := ParseCommand(lines[0])
	if got := rw.Substitute(cmd).String(); got != "align.seqs(fasta=current,reference=silva.bacteria.pcr.fasta,processors=6)" {
		t.Fatalf("reference rewrite: %q", got)
	}
}

func TestRewritePrependsScreenAndTally(t *testing.T) {
	tpl := mustTemplate(t, "unique.seqs(fasta=a.fasta)", "summary.seqs(fasta=a.unique.fasta)")
	if _, err := testRewriter().Rewrite(tpl); err != nil {
		t.Fatal(err)
	}
	cmds := tpl.Commands()
	if len(cmds) != 4 {
		t.Fatalf("got %d commands", len(cmds))
	}
	if cmds[0].String() != "screen.seqs(fasta=current,maxambig=0,minlength=200,processors=6)" {
		t.Fatalf("position 1: %s", cmds[0])
	}
	if cmds[1].String() != "summary.seqs(fasta=current)" {
		t.Fatalf("position 2: %s", cmds[1])
	}
	if cmds[2].Name != "unique.seqs" {
		t.Fatalf("position 3: %s", cmds[2])
	}
}

func TestRewriteReportsUnmatched(t *testing.T) {
	tpl := mustTemplate(t, "unique.seqs(fasta=a.fasta)")
	rw := testRewriter()
	report, err := rw.Rewrite(tpl)
	if err != nil {
		t.Fatal(err)
	}
	if len(report.Unmatched) != len(rw.Rules) {
		t.Fatalf("unmatched %d of %d", len(report.Unmatched), len(rw.Rules))
	}

	rw.Strict = true
	_, err = rw.Rewrite(mustTemplate(t, "unique.seqs(fasta=a.fasta)"))
	if !errors.Is(err, ErrUnmatchedRule) {
		t.Fatalf("strict rewrite: %v", err)
	}
}

func TestRewriteKeepsDoneEntries(t *testing.T) {
	tpl := mustTemplate(t, "unique.seqs(fasta=a.fasta)")
	tpl.PrependDone(NewCommand("fastq.info", "fastq", "s1.fastq"))
	if _, err := testRewriter().Rewrite(tpl); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(tpl.String()), "\n")
	if lines[0] != "screen.seqs(fasta=current,maxambig=0,minlength=200,processors=6)" {
		t.Fatalf("first line %q", lines[0])
	}
	if lines[2] != "#fastq.info(fastq=s1.fastq)" {
		t.Fatalf("done entry %q", lines[2])
	}
}
