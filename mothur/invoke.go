package mothur

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/liserjrqlxue/goUtil/simpleUtil"
	simple_util "github.com/liserjrqlxue/simple-util"
)

// Invoker runs mothur on a batch file and appends its console output to one
// cumulative log. The output is not parsed; only the exit status is checked.
type Invoker struct {
	Exec    string
	LogFile string
}

// Run writes <batch>.sh and runs it with bash.
func (iv Invoker) Run(batch string) error {
	var script = strings.TrimSuffix(batch, ".batch") + ".sh"
	if err := createShell(script, iv.Exec, batch, iv.LogFile); err != nil {
		return err
	}
	log.Printf("Run mothur[%s]:%s", batch, script)
	if err := simple_util.RunCmd("bash", script); err != nil {
		return fmt.Errorf("mothur %s: %w", batch, err)
	}
	return nil
}

// RunTemplate writes t to batch and runs it.
func (iv Invoker) RunTemplate(t *Template, batch string) error {
	t.WriteFile(batch)
	return iv.Run(batch)
}

func createShell(fileName, exe, batch, logFile string) error {
	file, err := os.Create(fileName)
	if err != nil {
		return err
	}
	defer simpleUtil.DeferClose(file)

	_, err = fmt.Fprintf(file, "#!/bin/bash\nset -e\n%s %s >> %s 2>&1\n", exe, quote(batch), quote(logFile))
	return err
}

func quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
