package mothur

import (
	"errors"
	"fmt"
	"strings"
)

// FinalMerge is the single consolidated fasta every plan ends in.
const FinalMerge = "full.fasta"

// DefaultFanOut is the group size merge.files is given.
const DefaultFanOut = 10

var (
	ErrNoInputs  = errors.New("no fasta files to merge")
	ErrBadFanOut = errors.New("merge fan-out must be at least 2")
)

// MergeGroup is up to fan-out files merged into Output.
type MergeGroup struct {
	Inputs []string
	Output string
}

// Command renders the group as merge.files; mothur separates inputs with '-'.
func (g MergeGroup) Command() Command {
	return NewCommand("merge.files", "input", strings.Join(g.Inputs, "-"), "output", g.Output)
}

// MergePlan is a reduction tree: each round merges the previous round's
// outputs in groups until one file, FinalMerge, remains.
type MergePlan struct {
	Inputs []string
	Rounds [][]MergeGroup
	FanOut int
}

// PlanMerge groups files fanOut at a time, round after round. A trailing
// partial group is merged like a full one.
func PlanMerge(files []string, fanOut int) (MergePlan, error) {
	var plan = MergePlan{Inputs: files, FanOut: fanOut}
	if fanOut < 2 {
		return plan, fmt.Errorf("%w: %d", ErrBadFanOut, fanOut)
	}
	if len(files) == 0 {
		return plan, ErrNoInputs
	}
	var (
		level = files
		k     = 0
	)
	for len(level) > fanOut {
		var (
			round []MergeGroup
			next  []string
		)
		for i := 0; i < len(level); i += fanOut {
			end := i + fanOut
			if end > len(level) {
				end = len(level)
			}
			k++
			group := MergeGroup{
				Inputs: level[i:end],
				Output: fmt.Sprintf("merge_%d.fasta", k),
			}
			round = append(round, group)
			next = append(next, group.Output)
		}
		plan.Rounds = append(plan.Rounds, round)
		level = next
	}
	plan.Rounds = append(plan.Rounds, []MergeGroup{{Inputs: level, Output: FinalMerge}})
	return plan, nil
}

// Commands lists every merge.files command, round by round.
func (plan MergePlan) Commands() []Command {
	var cmds []Command
	for _, round := range plan.Rounds {
		for _, group := range round {
			cmds = append(cmds, group.Command())
		}
	}
	return cmds
}

// Final is the output of the last round.
func (plan MergePlan) Final() string {
	if len(plan.Rounds) == 0 {
		return ""
	}
	last := plan.Rounds[len(plan.Rounds)-1]
	return last[len(last)-1].Output
}
