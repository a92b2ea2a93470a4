// Package metadata pulls per-run host fields out of an SRA XML dump by text
// pattern, one keyed row per run.
package metadata

import (
	"fmt"
	"html"
	"io"
	"regexp"
	"strings"

	"github.com/liserjrqlxue/goUtil/simpleUtil"
	"github.com/shenwei356/xopen"

	"github.com/liserjrqlxue/MothurPipeline/sra"
)

// NA marks a field with no value for a run.
const NA = "NA"

// DefaultRecord is the element wrapping one run in efetch -format xml output.
const DefaultRecord = "EXPERIMENT_PACKAGE"

// Field is one output column and the attribute TAG it is read from.
type Field struct {
	Name string
	Tag  string
}

// DefaultFields are lung function, host age and the clinical-state proxy.
var DefaultFields = []Field{
	{Name: "fev1", Tag: "host_fev1"},
	{Name: "age", Tag: "host_age"},
	{Name: "state", Tag: "host_disease_aggressiveness"},
}

// ParseFields reads "name=tag" pairs.
func ParseFields(pairs []string) ([]Field, error) {
	var fields []Field
	for _, pair := range pairs {
		name, tag, ok := strings.Cut(pair, "=")
		if !ok || name == "" || tag == "" {
			return nil, fmt.Errorf("metadata field %q is not name=tag", pair)
		}
		fields = append(fields, Field{Name: strings.TrimSpace(name), Tag: strings.TrimSpace(tag)})
	}
	return fields, nil
}

// valuePattern anchors on the field's own TAG, so attribute order is irrelevant.
func valuePattern(tag string) *regexp.Regexp {
	return regexp.MustCompile(`(?s)<TAG>\s*` + regexp.QuoteMeta(tag) + `\s*</TAG>\s*<VALUE>(.*?)</VALUE>`)
}

func recordPattern(element string) *regexp.Regexp {
	var e = regexp.QuoteMeta(element)
	return regexp.MustCompile(`(?s)<` + e + `(?:\s[^>]*)?>.*?</` + e + `>`)
}

// Row is one run's scraped values.
type Row struct {
	Run     sra.Run
	Records int
	Values  map[string]string
	Counts  map[string]int
}

// Value returns the field value or NA.
func (r Row) Value(field string) string {
	if v, ok := r.Values[field]; ok {
		return v
	}
	return NA
}

// Report lists the runs whose scrape was not one record with one value per field.
type Report struct {
	NoRecord  []string
	Ambiguous []string
	Missing   map[string][]string
	Multiple  map[string][]string
}

func (rep Report) Clean() bool {
	if len(rep.NoRecord) > 0 || len(rep.Ambiguous) > 0 {
		return false
	}
	for _, accs := range rep.Missing {
		if len(accs) > 0 {
			return false
		}
	}
	for _, accs := range rep.Multiple {
		if len(accs) > 0 {
			return false
		}
	}
	return true
}

// Scraper selects records by sample name and accession and extracts Fields.
type Scraper struct {
	Record string
	Fields []Field
}

// New returns a Scraper over the default record element and fields.
func New() Scraper {
	return Scraper{Record: DefaultRecord, Fields: DefaultFields}
}

// Records splits a document into record fragments.
func (s Scraper) Records(doc string) []string {
	return recordPattern(s.Record).FindAllString(doc, -1)
}

// Select returns the records naming both the accession and the sample. Names
// must appear delimited, as element text or a quoted attribute, so SP001 does
// not pick up SP0010.
func Select(records []string, accession, sample string) []string {
	var hits []string
	for _, record := range records {
		if containsToken(record, accession) && containsToken(record, sample) {
			hits = append(hits, record)
		}
	}
	return hits
}

func containsToken(record, token string) bool {
	return strings.Contains(record, ">"+token+"<") || strings.Contains(record, `"`+token+`"`)
}

// Scrape builds one row per run, in run order.
func (s Scraper) Scrape(doc string, runs []sra.Run) ([]Row, Report) {
	var (
		records  = s.Records(doc)
		patterns = make([]*regexp.Regexp, len(s.Fields))
		rows     = make([]Row, len(runs))
		report   = Report{Missing: make(map[string][]string), Multiple: make(map[string][]string)}
	)
	for i, field := range s.Fields {
		patterns[i] = valuePattern(field.Tag)
	}
	for i, run := range runs {
		var (
			hits = Select(records, run.Accession, run.SampleName)
			row  = Row{Run: run, Records: len(hits), Values: make(map[string]string), Counts: make(map[string]int)}
		)
		switch {
		case len(hits) == 0:
			report.NoRecord = append(report.NoRecord, run.Accession)
		case len(hits) > 1:
			report.Ambiguous = append(report.Ambiguous, run.Accession)
		}
		for j, field := range s.Fields {
			var values []string
			for _, record := range hits {
				for _, m := range patterns[j].FindAllStringSubmatch(record, -1) {
					values = append(values, html.UnescapeString(strings.TrimSpace(m[1])))
				}
			}
			row.Counts[field.Name] = len(values)
			switch {
			case len(values) == 0:
				report.Missing[field.Name] = append(report.Missing[field.Name], run.Accession)
			case len(values) > 1:
				report.Multiple[field.Name] = append(report.Multiple[field.Name], run.Accession)
				row.Values[field.Name] = values[0]
			default:
				row.Values[field.Name] = values[0]
			}
		}
		rows[i] = row
	}
	return rows, report
}

// ReadXML loads a metadata dump, gzipped or plain.
func ReadXML(path string) (string, error) {
	reader, err := xopen.Ropen(path)
	if err != nil {
		return "", err
	}
	defer simpleUtil.DeferClose(reader)
	b, err := io.ReadAll(reader)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return string(b), nil
}
