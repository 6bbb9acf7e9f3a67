package app_test

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"

	"ebagen/internal/adjustment"
	"ebagen/internal/app"
	"ebagen/internal/emit"
	"ebagen/internal/inventory"
)

var testNow = time.Date(2026, 8, 23, 12, 0, 0, 0, time.UTC)

// fakeSource is an in-memory inventory.Source.
type fakeSource struct {
	contexts []string
	records  []inventory.Record
	used     string
}

func (f *fakeSource) Contexts() ([]string, error) { return f.contexts, nil }
func (f *fakeSource) UseContext(name string) error {
	f.used = name
	return nil
}
func (f *fakeSource) SLOs() ([]inventory.Record, error) { return f.records, nil }

// fakePrompter replays scripted answers. Input answers are consumed
// until one passes validation, mirroring the real re-prompt loop.
type fakePrompter struct {
	t        *testing.T
	selects  []int
	inputs   []string
	texts    []string
	confirms []bool
	rejected []string
}

func (f *fakePrompter) Select(title string, options []string) (int, error) {
	if len(f.selects) == 0 {
		f.t.Fatalf("unexpected Select(%q)", title)
	}
	idx := f.selects[0]
	f.selects = f.selects[1:]
	if idx >= len(options) {
		f.t.Fatalf("scripted index %d out of range for %q (%d options)", idx, title, len(options))
	}
	return idx, nil
}

func (f *fakePrompter) Input(label string, validate func(string) error) (string, error) {
	for {
		if len(f.inputs) == 0 {
			f.t.Fatalf("ran out of scripted inputs at %q", label)
		}
		v := f.inputs[0]
		f.inputs = f.inputs[1:]
		if err := validate(v); err != nil {
			f.rejected = append(f.rejected, v)
			continue
		}
		return v, nil
	}
}

func (f *fakePrompter) Multiline(label string) (string, error) {
	if len(f.texts) == 0 {
		f.t.Fatalf("unexpected Multiline(%q)", label)
	}
	v := f.texts[0]
	f.texts = f.texts[1:]
	return v, nil
}

func (f *fakePrompter) Confirm(question string) (bool, error) {
	if len(f.confirms) == 0 {
		f.t.Fatalf("unexpected Confirm(%q)", question)
	}
	v := f.confirms[0]
	f.confirms = f.confirms[1:]
	return v, nil
}

func testRecords() []inventory.Record {
	return []inventory.Record{
		{Name: "api-latency", Project: "checkout", Service: "api"},
		{Name: "db-uptime", Project: "checkout", Service: "db"},
		{Name: "queue-lag", Project: "payments", Service: "api"},
		{Name: "cron-success", Project: "payments"},
	}
}

func newApp(t *testing.T, src *fakeSource, p *fakePrompter) (*app.App, string) {
	t.Helper()
	root := filepath.Join(t.TempDir(), "ebafiles")
	return &app.App{
		Source: src,
		Prompt: p,
		Writer: &emit.Writer{Root: root},
		Out:    &bytes.Buffer{},
		Now:    func() time.Time { return testNow },
	}, root
}

func runFiles(t *testing.T, root string) []string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join(root, "run-*", "*.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	return matches
}

func TestRunProjectFlow(t *testing.T) {
	src := &fakeSource{contexts: []string{"production", "staging"}, records: testRecords()}
	p := &fakePrompter{
		t:       t,
		selects: []int{1, 0, 0, 1, 3}, // context=staging, menu=project, project=checkout, kind=recurring, menu=exit
		inputs: []string{
			"Checkout freeze",        // displayName
			"2026-09-01T02:00:00Z",   // firstEventStart
			"1h30m",                  // duration
			"FREQ=WEEKLY;BYDAY=MO",   // rrule
		},
		texts: []string{"Planned freeze for checkout."},
	}
	a, root := newApp(t, src, p)

	if err := a.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if src.used != "staging" {
		t.Errorf("context used = %q, want staging", src.used)
	}

	files := runFiles(t, root)
	if len(files) != 1 {
		t.Fatalf("expected 1 generated file, got %v", files)
	}
	data, err := os.ReadFile(files[0])
	if err != nil {
		t.Fatal(err)
	}
	var doc struct {
		Metadata struct {
			Name string `yaml:"name"`
		} `yaml:"metadata"`
		Spec struct {
			RRule   string `yaml:"rrule"`
			Filters struct {
				Slos []struct {
					Name    string `yaml:"name"`
					Project string `yaml:"project"`
				} `yaml:"slos"`
			} `yaml:"filters"`
		} `yaml:"spec"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		t.Fatalf("generated file is not valid YAML: %v", err)
	}
	if doc.Metadata.Name != "checkout-freeze" {
		t.Errorf("metadata.name = %q", doc.Metadata.Name)
	}
	if doc.Spec.RRule != "FREQ=WEEKLY;BYDAY=MO" {
		t.Errorf("rrule = %q", doc.Spec.RRule)
	}
	if len(doc.Spec.Filters.Slos) != 2 {
		t.Fatalf("expected 2 checkout SLOs, got %d", len(doc.Spec.Filters.Slos))
	}
	for _, s := range doc.Spec.Filters.Slos {
		if s.Project != "checkout" {
			t.Errorf("slo %q has project %q", s.Name, s.Project)
		}
	}
}

func TestRunIndividualSelectionReprompts(t *testing.T) {
	src := &fakeSource{contexts: []string{"production"}, records: testRecords()}
	p := &fakePrompter{
		t:       t,
		selects: []int{0, 2, 0, 3}, // context, menu=individual, kind=one-time, menu=exit
		inputs: []string{
			"2,9", // out of range: rejected, re-prompted
			"2,4", // accepted
			"Patch window",
			"2020-01-01T00:00:00Z", // past is fine for one-time
			"45m",
		},
		texts: []string{"One-off patch window."},
	}
	a, root := newApp(t, src, p)

	if err := a.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(p.rejected) == 0 || p.rejected[0] != "2,9" {
		t.Errorf("expected %q to be rejected and re-prompted, got %v", "2,9", p.rejected)
	}

	files := runFiles(t, root)
	if len(files) != 1 {
		t.Fatalf("expected 1 file, got %v", files)
	}
	content := string(mustRead(t, files[0]))
	if !strings.Contains(content, "db-uptime") || !strings.Contains(content, "cron-success") {
		t.Errorf("selection 2,4 should target db-uptime and cron-success:\n%s", content)
	}
	if strings.Contains(content, "\n  rrule:") {
		t.Errorf("one-time document carries an active rrule:\n%s", content)
	}
}

func TestRunMarkdownWarningsAllowProceed(t *testing.T) {
	src := &fakeSource{contexts: []string{"production"}, records: testRecords()}
	p := &fakePrompter{
		t:        t,
		selects:  []int{0, 0, 0, 0, 3},
		inputs:   []string{"Freeze", "2020-01-01T00:00:00Z", "1h"},
		texts:    []string{"unbalanced **bold"},
		confirms: []bool{false}, // keep the flagged text
	}
	a, root := newApp(t, src, p)

	if err := a.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	out := a.Out.(*bytes.Buffer).String()
	if !strings.Contains(out, "markdown") {
		t.Errorf("expected a markdown warning in output:\n%s", out)
	}
	files := runFiles(t, root)
	if len(files) != 1 {
		t.Fatalf("warnings must not block generation, got %v", files)
	}
}

func TestGenerateChunksLargeProject(t *testing.T) {
	var records []inventory.Record
	for i := 0; i < 65; i++ {
		records = append(records, inventory.Record{
			Name:    fmt.Sprintf("slo-%02d", i),
			Project: "big",
		})
	}

	src := &fakeSource{records: records}
	a, root := newApp(t, src, &fakePrompter{t: t})
	a.ChunkSize = 30

	err := a.Generate(app.GenOptions{
		Project: "big",
		Spec: adjustment.Spec{
			Kind:        adjustment.OneTime,
			Start:       "2026-01-01T00:00:00Z",
			Duration:    "2h",
			DisplayName: "Big migration",
			Description: "Batch migration window.",
		},
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	files := runFiles(t, root)
	if len(files) != 3 {
		t.Fatalf("expected 3 chunked files for 65 SLOs, got %d: %v", len(files), files)
	}
	var suffixed int
	for _, f := range files {
		base := filepath.Base(f)
		if strings.HasPrefix(base, "big-migration-2-") || strings.HasPrefix(base, "big-migration-3-") {
			suffixed++
		}
	}
	if suffixed != 2 {
		t.Errorf("expected exactly chunks 2 and 3 to carry suffixes, got %v", files)
	}
}

func TestGenerateValidation(t *testing.T) {
	src := &fakeSource{records: testRecords()}
	a, _ := newApp(t, src, &fakePrompter{t: t})

	spec := adjustment.Spec{
		Kind:        adjustment.Recurring,
		Start:       "2020-01-01T00:00:00Z", // past: invalid for recurring
		Duration:    "1h",
		RRule:       "FREQ=DAILY",
		DisplayName: "Nope",
	}
	if err := a.Generate(app.GenOptions{Project: "checkout", Spec: spec}); err == nil {
		t.Error("expected validation error for past recurring start")
	}

	ok := adjustment.Spec{
		Kind:        adjustment.OneTime,
		Start:       "2020-01-01T00:00:00Z",
		Duration:    "1h",
		DisplayName: "Fine",
		Description: "ok",
	}
	if err := a.Generate(app.GenOptions{Spec: ok}); err == nil {
		t.Error("expected error when no target is given")
	}
	if err := a.Generate(app.GenOptions{Project: "checkout", Service: "api", Spec: ok}); err == nil {
		t.Error("expected error when two targets are given")
	}
	if err := a.Generate(app.GenOptions{SLOs: []string{"no-such-slo"}, Spec: ok}); err == nil {
		t.Error("expected error for unknown SLO name")
	}
	err := a.Generate(app.GenOptions{SLOs: []string{"api-latency", "api-latency"}, Spec: ok})
	if err == nil {
		t.Error("expected error for duplicate SLO names")
	} else if !strings.Contains(err.Error(), "twice") {
		t.Errorf("duplicate SLO error should say so: %v", err)
	}
	if err := a.Generate(app.GenOptions{Project: "ghost", Spec: ok}); err == nil {
		t.Error("expected error for project with no SLOs")
	}
}

func TestGenerateByServiceKeepsProjects(t *testing.T) {
	src := &fakeSource{records: testRecords()}
	a, root := newApp(t, src, &fakePrompter{t: t})

	err := a.Generate(app.GenOptions{
		Service: "api",
		Spec: adjustment.Spec{
			Kind:        adjustment.OneTime,
			Start:       "2026-01-01T00:00:00Z",
			Duration:    "1h",
			DisplayName: "API freeze",
			Description: "freeze",
		},
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	content := string(mustRead(t, runFiles(t, root)[0]))
	if !strings.Contains(content, "project: checkout") || !strings.Contains(content, "project: payments") {
		t.Errorf("service grouping must keep each SLO's own project:\n%s", content)
	}
}

func mustRead(t *testing.T, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return data
}
