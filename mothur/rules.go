package mothur

import (
	"errors"
	"fmt"
	"strconv"
)

// ErrUnmatchedRule is returned by a strict Rewrite when a deletion rule
// matched nothing, which usually means the SOP wording drifted.
var ErrUnmatchedRule = errors.New("deletion rule matched no command")

// Rule deletes every command Match accepts.
type Rule struct {
	Name  string
	Match func(Command) bool
}

// DropNamed returns one rule per command name so each reports its own hits.
func DropNamed(group string, names ...string) []Rule {
	var rules = make([]Rule, 0, len(names))
	for _, name := range names {
		name := name
		rules = append(rules, Rule{
			Name:  group + ":" + name,
			Match: func(cmd Command) bool { return cmd.Name == name },
		})
	}
	return rules
}

// DropWithParam deletes name commands that carry key.
func DropWithParam(group, name, key string) Rule {
	return Rule{
		Name:  group + ":" + name + "[" + key + "]",
		Match: func(cmd Command) bool { return cmd.Name == name && cmd.Has(key) },
	}
}

// DropWithValue deletes name commands whose key equals value.
func DropWithValue(group, name, key, value string) Rule {
	return Rule{
		Name: group + ":" + name + "[" + key + "=" + value + "]",
		Match: func(cmd Command) bool {
			v, ok := cmd.Get(key)
			return cmd.Name == name && ok && v == value
		},
	}
}

// InputShapeRules drop steps that need flowgrams, paired reads or barcoded
// multiplexed runs. SRA runs here are single-end, one sample per run.
func InputShapeRules() []Rule {
	var rules = DropNamed("flowgram", "sffinfo", "trim.flows", "shhh.flows")
	rules = append(rules, DropNamed("contigs", "make.contigs")...)
	rules = append(rules, DropWithParam("demultiplex", "trim.seqs", "oligos"))
	return rules
}

// AnalysisRules drop the downstream analyses the reproduced figures do not use.
func AnalysisRules() []Rule {
	var rules = DropNamed("diversity", "summary.single", "collect.single", "rarefaction.single", "phylo.diversity")
	rules = append(rules, DropNamed("tree", "tree.shared", "clearcut", "unifrac.weighted", "unifrac.unweighted", "parsimony")...)
	rules = append(rules, DropNamed("ordination", "pcoa", "nmds", "corr.axes")...)
	rules = append(rules, DropNamed("distance", "dist.shared", "heatmap.sim", "venn", "metastats")...)
	rules = append(rules, DropWithValue("distance", "dist.seqs", "output", "lt"))
	rules = append(rules, DropNamed("variance", "amova", "homova")...)
	return rules
}

// DefaultRules is InputShapeRules followed by AnalysisRules.
func DefaultRules() []Rule {
	return append(InputShapeRules(), AnalysisRules()...)
}

// placeholderKeys are file parameters that follow the running dataset.
var placeholderKeys = map[string]bool{
	"fasta":  true,
	"file":   true,
	"shared": true,
	"name":   true,
	"accnos": true,
}

// Rewriter turns a generic SOP into this project's batch.
type Rewriter struct {
	Processors         int
	ReferenceDB        string
	TrimmedReferenceDB string
	Rules              []Rule
	Strict             bool
}

// Report records what the rewrite did, so no-op rules are visible.
type Report struct {
	Hits      map[string]int
	Unmatched []string
	Deleted   []Command
}

// Substitute applies the placeholder, processor and reference rewrites.
// Applying it twice changes nothing further.
func (rw Rewriter) Substitute(cmd Command) Command {
	cmd = cmd.clone()
	for i, p := range cmd.Params {
		switch {
		case placeholderKeys[p.Key] && p.Value != "":
			cmd.Params[i].Value = Current
		case p.Key == "processors" && rw.Processors > 0:
			cmd.Params[i].Value = strconv.Itoa(rw.Processors)
		case rw.ReferenceDB != "" && p.Value == rw.ReferenceDB:
			cmd.Params[i].Value = rw.TrimmedReferenceDB
		}
	}
	return cmd
}

// Screen is the length/ambiguity screen run on the merged reads.
func (rw Rewriter) Screen() Command {
	return NewCommand("screen.seqs",
		"fasta", Current,
		"maxambig", "0",
		"minlength", "200",
		"processors", strconv.Itoa(rw.Processors),
	)
}

// Tally summarises the sequence counts after screening.
func (rw Rewriter) Tally() Command {
	return NewCommand("summary.seqs", "fasta", Current)
}

// Rewrite deletes matched commands, substitutes the rest in place and puts
// Screen and Tally at positions 1 and 2.
func (rw Rewriter) Rewrite(t *Template) (Report, error) {
	var (
		report = Report{Hits: make(map[string]int)}
		kept   []Entry
	)
	for _, rule := range rw.Rules {
		report.Hits[rule.Name] = 0
	}
	for _, e := range t.Entries {
		if e.Done {
			kept = append(kept, e)
			continue
		}
		if rule, ok := rw.match(e.Command); ok {
			report.Hits[rule]++
			report.Deleted = append(report.Deleted, e.Command)
			continue
		}
		kept = append(kept, Entry{Command: rw.Substitute(e.Command)})
	}
	t.Entries = kept
	t.Prepend(rw.Screen(), rw.Tally())

	for _, rule := range rw.Rules {
		if report.Hits[rule.Name] == 0 {
			report.Unmatched = append(report.Unmatched, rule.Name)
		}
	}
	if rw.Strict && len(report.Unmatched) > 0 {
		return report, fmt.Errorf("%w: %v", ErrUnmatchedRule, report.Unmatched)
	}
	return report, nil
}

func (rw Rewriter) match(cmd Command) (string, bool) {
	for _, rule := range rw.Rules {
		if rule.Match(cmd) {
			return rule.Name, true
		}
	}
	return "", false
}
