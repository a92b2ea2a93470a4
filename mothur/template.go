package mothur

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/liserjrqlxue/goUtil/osUtil"
	"github.com/liserjrqlxue/goUtil/simpleUtil"
	"golang.org/x/net/html"
)

// Marker prefixes every command shown on an SOP page.
const Marker = "mothur > "

// Entry is one line of a batch file. Done entries were already run by an
// earlier invocation and render as comments.
type Entry struct {
	Command Command
	Done    bool
}

func (e Entry) String() string {
	if e.Done {
		return "#" + e.Command.String()
	}
	return e.Command.String()
}

// Template is the ordered batch a mothur invocation runs.
type Template struct {
	Header  []string
	Entries []Entry
}

// NewTemplate wraps cmds as pending entries.
func NewTemplate(cmds []Command) *Template {
	var t = &Template{}
	t.Append(cmds...)
	return t
}

// Append adds pending commands at the end.
func (t *Template) Append(cmds ...Command) {
	for _, cmd := range cmds {
		t.Entries = append(t.Entries, Entry{Command: cmd})
	}
}

// Prepend inserts cmds, in order, before every existing entry.
func (t *Template) Prepend(cmds ...Command) {
	t.prepend(false, cmds)
}

// PrependDone inserts cmds as already executed history.
func (t *Template) PrependDone(cmds ...Command) {
	t.prepend(true, cmds)
}

func (t *Template) prepend(done bool, cmds []Command) {
	var entries = make([]Entry, 0, len(cmds)+len(t.Entries))
	for _, cmd := range cmds {
		entries = append(entries, Entry{Command: cmd, Done: done})
	}
	t.Entries = append(entries, t.Entries...)
}

// Commands returns the pending commands in order.
func (t *Template) Commands() []Command {
	var cmds []Command
	for _, e := range t.Entries {
		if !e.Done {
			cmds = append(cmds, e.Command)
		}
	}
	return cmds
}

// WriteTo renders the batch, one entry per line.
func (t *Template) WriteTo(w io.Writer) (int64, error) {
	var n int64
	for _, line := range t.Header {
		c, err := fmt.Fprintf(w, "# %s\n", line)
		n += int64(c)
		if err != nil {
			return n, err
		}
	}
	for _, e := range t.Entries {
		c, err := fmt.Fprintln(w, e.String())
		n += int64(c)
		if err != nil {
			return n, err
		}
	}
	return n, nil
}

func (t *Template) String() string {
	var sb strings.Builder
	simpleUtil.HandleError(t.WriteTo(&sb))
	return sb.String()
}

// WriteFile writes the batch to path, replacing any earlier copy.
func (t *Template) WriteFile(path string) {
	var f = osUtil.Create(path)
	defer simpleUtil.DeferClose(f)
	simpleUtil.HandleError(t.WriteTo(f))
}

// blockTags break the page text into lines.
var blockTags = map[string]bool{
	"br": true, "p": true, "pre": true, "div": true, "li": true, "tr": true,
	"td": true, "h1": true, "h2": true, "h3": true, "h4": true, "dd": true, "dt": true,
}

// ExtractCommands tokenises an SOP page and parses every line starting with
// Marker. Entities are decoded by the tokenizer, so "mothur &gt; " matches.
// Marker lines that do not parse are returned in skipped.
func ExtractCommands(r io.Reader) (cmds []Command, skipped []string, err error) {
	var (
		z    = html.NewTokenizer(r)
		text strings.Builder
	)
	for {
		switch z.Next() {
		case html.ErrorToken:
			if z.Err() != io.EOF {
				return nil, nil, fmt.Errorf("tokenise sop page: %w", z.Err())
			}
			cmds, skipped = parseMarkerLines(text.String())
			return cmds, skipped, nil
		case html.TextToken:
			text.Write(z.Text())
		case html.StartTagToken, html.EndTagToken, html.SelfClosingTagToken:
			name, _ := z.TagName()
			if blockTags[string(name)] {
				text.WriteByte('\n')
			}
		}
	}
}

func parseMarkerLines(text string) (cmds []Command, skipped []string) {
	var scanner = bufio.NewScanner(strings.NewReader(text))
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		var line = strings.TrimSpace(strings.ReplaceAll(scanner.Text(), "\u00a0", " "))
		if !strings.HasPrefix(line, Marker) {
			continue
		}
		cmd, err := ParseCommand(strings.TrimPrefix(line, Marker))
		if err != nil {
			skipped = append(skipped, line)
			continue
		}
		cmds = append(cmds, cmd)
	}
	return
}

// FetchTemplate downloads the SOP page at url and extracts its commands.
func FetchTemplate(ctx context.Context, url string) ([]Command, []string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("fetch sop %s: %w", url, err)
	}
	defer simpleUtil.DeferClose(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return nil, nil, fmt.Errorf("fetch sop %s: %s", url, resp.Status)
	}
	return ExtractCommands(resp.Body)
}

// LoadTemplate reads a saved SOP page from disk.
func LoadTemplate(path string) ([]Command, []string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer simpleUtil.DeferClose(f)
	return ExtractCommands(f)
}
