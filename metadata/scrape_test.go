package metadata

import (
	"compress/gzip"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/liserjrqlxue/MothurPipeline/sra"
)

func pkg(sample, accession string, attrs ...string) string {
	var sb strings.Builder
	sb.WriteString(`<EXPERIMENT_PACKAGE><SAMPLE alias="` + sample + `"><SAMPLE_ATTRIBUTES>`)
	for i := 0; i+1 < len(attrs); i += 2 {
		sb.WriteString("<SAMPLE_ATTRIBUTE><TAG>" + attrs[i] + "</TAG><VALUE>" + attrs[i+1] + "</VALUE></SAMPLE_ATTRIBUTE>")
	}
	sb.WriteString(`</SAMPLE_ATTRIBUTES></SAMPLE><RUN_SET><RUN accession="` + accession + `"/></RUN_SET></EXPERIMENT_PACKAGE>`)
	return sb.String()
}

func doc(pkgs ...string) string {
	return `<?xml version="1.0"?><EXPERIMENT_PACKAGE_SET>` + strings.Join(pkgs, "\n") + `</EXPERIMENT_PACKAGE_SET>`
}

func TestScrapeSingleRecord(t *testing.T) {
	xml := doc(pkg("SP001", "SRR001", "host_fev1", "72", "host_disease_aggressiveness", "mild", "host_age", "24"))
	runs := []sra.Run{{Accession: "SRR001", SampleName: "SP001", Stem: "SP001"}}
	rows, report := New().Scrape(xml, runs)
	if !report.Clean() {
		t.Fatalf("report %+v", report)
	}
	if rows[0].Value("fev1") != "72" || rows[0].Value("age") != "24" || rows[0].Value("state") != "mild" {
		t.Fatalf("row %+v", rows[0])
	}

	dir := t.TempDir()
	fev1 := FieldFile(dir, DefaultFields[0])
	if err := os.WriteFile(fev1, []byte("old\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := AppendFieldFiles(dir, rows, DefaultFields); err != nil {
		t.Fatal(err)
	}
	b, _ := os.ReadFile(fev1)
	if string(b) != "old\n72\n" {
		t.Fatalf("fev1 file %q", b)
	}
}

func TestScrapeTagOrderIndependent(t *testing.T) {
	xml := doc(pkg("SP001", "SRR001", "host_age", "31", "isolation_source", "sputum", "host_fev1", "55"))
	rows, _ := New().Scrape(xml, []sra.Run{{Accession: "SRR001", SampleName: "SP001"}})
	if rows[0].Value("fev1") != "55" || rows[0].Value("age") != "31" {
		t.Fatalf("row %+v", rows[0].Values)
	}
}

func TestScrapeKeepsAlignment(t *testing.T) {
	xml := doc(
		pkg("SP001", "SRR001", "host_fev1", "72"),
		pkg("SP0010", "SRR0010", "host_fev1", "40"),
		pkg("SP002", "SRR002", "host_fev1", "60"),
		pkg("SP002", "SRR002", "host_fev1", "61"),
	)
	runs := []sra.Run{
		{Accession: "SRR001", SampleName: "SP001", Stem: "SP001"},
		{Accession: "SRR002", SampleName: "SP002", Stem: "SP002"},
		{Accession: "SRR003", SampleName: "SP003", Stem: "SP003"},
	}
	rows, report := New().Scrape(xml, runs)
	if rows[0].Records != 1 {
		t.Fatalf("SP001 matched %d records", rows[0].Records)
	}
	if !reflect.DeepEqual(report.Ambiguous, []string{"SRR002"}) || !reflect.DeepEqual(report.NoRecord, []string{"SRR003"}) {
		t.Fatalf("report %+v", report)
	}
	if !reflect.DeepEqual(report.Multiple["fev1"], []string{"SRR002"}) {
		t.Fatalf("multiple %v", report.Multiple)
	}
	if report.Clean() {
		t.Fatal("report should not be clean")
	}

	dir := t.TempDir()
	if err := AppendFieldFiles(dir, rows, DefaultFields); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{SampleFile, "fev1.txt", "age.txt", "state.txt"} {
		b, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			t.Fatal(err)
		}
		if n := strings.Count(string(b), "\n"); n != len(runs) {
			t.Fatalf("%s has %d lines", name, n)
		}
	}
	b, _ := os.ReadFile(filepath.Join(dir, "fev1.txt"))
	if string(b) != "72\n60\nNA\n" {
		t.Fatalf("fev1 %q", b)
	}
}

func TestParseFields(t *testing.T) {
	fields, err := ParseFields([]string{"fev1=host_fev1", " bmi = host_body_mass_index "})
	if err != nil {
		t.Fatal(err)
	}
	if fields[1] != (Field{Name: "bmi", Tag: "host_body_mass_index"}) {
		t.Fatalf("fields %+v", fields)
	}
	if _, err := ParseFields([]string{"fev1"}); err == nil {
		t.Fatal("expected error")
	}
}

func TestReadXMLGzip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "metadata.xml.gz")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	gw := gzip.NewWriter(f)
	_, _ = gw.Write([]byte(doc(pkg("SP001", "SRR001", "host_fev1", "72"))))
	_ = gw.Close()
	_ = f.Close()

	xml, err := ReadXML(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(xml, "<TAG>host_fev1</TAG>") {
		t.Fatalf("xml %q", xml)
	}
}

func TestWriteTableAndWorkbook(t *testing.T) {
	xml := doc(pkg("SP001", "SRR001", "host_fev1", "72", "host_age", "24"))
	rows, _ := New().Scrape(xml, []sra.Run{{Accession: "SRR001", SampleName: "SP001", Stem: "SP001"}})
	dir := t.TempDir()

	tsv := filepath.Join(dir, "metadata.tsv")
	WriteTable(tsv, rows, DefaultFields)
	b, _ := os.ReadFile(tsv)
	want := "Run\tSampleName\tStem\tRecords\tfev1\tage\tstate\nSRR001\tSP001\tSP001\t1\t72\t24\tNA\n"
	if string(b) != want {
		t.Fatalf("tsv %q", b)
	}

	path := filepath.Join(dir, "metadata.xlsx")
	if err := WriteWorkbook(path, rows, DefaultFields); err != nil {
		t.Fatal(err)
	}
	xlsx, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatal(err)
	}
	defer xlsx.Close()
	if v, _ := xlsx.GetCellValue(Sheet, "E2"); v != "72" {
		t.Fatalf("E2 %q", v)
	}
	if v, _ := xlsx.GetCellValue(Sheet, "A1"); v != "Run" {
		t.Fatalf("A1 %q", v)
	}
}
