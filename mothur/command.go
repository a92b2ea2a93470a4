// Package mothur builds and runs mothur batch files: it extracts the command
// sequence of an SOP page, rewrites it for unpaired pre-converted reads, plans
// the per-sample fasta merge and hands the result to the mothur executable.
package mothur

import (
	"fmt"
	"strings"
)

// Current is the placeholder mothur resolves to the most recent file of a type.
const Current = "current"

// Param is one positional parameter of a command. Key holds the whole token and
// Value is empty when the token carried no '='.
type Param struct {
	Key   string
	Value string
}

func (p Param) String() string {
	if p.Value == "" {
		return p.Key
	}
	return p.Key + "=" + p.Value
}

// Command is one mothur batch line, e.g. screen.seqs(fasta=current,processors=6).
type Command struct {
	Name   string
	Params []Param
}

// NewCommand builds a command from alternating key, value arguments.
func NewCommand(name string, kv ...string) Command {
	var cmd = Command{Name: name}
	for i := 0; i+1 < len(kv); i += 2 {
		cmd.Params = append(cmd.Params, Param{Key: kv[i], Value: kv[i+1]})
	}
	return cmd
}

// ParseCommand parses "name(k=v, k=v)". Whitespace around tokens is dropped.
func ParseCommand(line string) (Command, error) {
	var cmd Command
	line = strings.TrimSpace(line)
	open := strings.Index(line, "(")
	end := strings.LastIndex(line, ")")
	if open <= 0 || end < open {
		return cmd, fmt.Errorf("not a mothur command: %q", line)
	}
	cmd.Name = strings.TrimSpace(line[:open])
	if strings.ContainsAny(cmd.Name, " \t") {
		return cmd, fmt.Errorf("bad command name: %q", cmd.Name)
	}
	args := strings.TrimSpace(line[open+1 : end])
	if args == "" {
		return cmd, nil
	}
	for _, token := range strings.Split(args, ",") {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}
		key, value, ok := strings.Cut(token, "=")
		if !ok {
			cmd.Params = append(cmd.Params, Param{Key: token})
			continue
		}
		cmd.Params = append(cmd.Params, Param{Key: strings.TrimSpace(key), Value: strings.TrimSpace(value)})
	}
	return cmd, nil
}

func (cmd Command) String() string {
	var params = make([]string, len(cmd.Params))
	for i, p := range cmd.Params {
		params[i] = p.String()
	}
	return cmd.Name + "(" + strings.Join(params, ",") + ")"
}

// Get returns the first value of key.
func (cmd Command) Get(key string) (string, bool) {
	for _, p := range cmd.Params {
		if p.Key == key {
			return p.Value, true
		}
	}
	return "", false
}

// Has reports whether any parameter is named key.
func (cmd Command) Has(key string) bool {
	_, ok := cmd.Get(key)
	return ok
}

// clone copies the parameter slice so rewrites never alias the source template.
func (cmd Command) clone() Command {
	var params = make([]Param, len(cmd.Params))
	copy(params, cmd.Params)
	cmd.Params = params
	return cmd
}
