package inventory_test

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"ebagen/internal/inventory"
)

// fakeRunner records invocations and replays canned output per command.
type fakeRunner struct {
	calls  [][]string
	output map[string]string
	errs   map[string]error
}

func (f *fakeRunner) run(name string, args ...string) ([]byte, error) {
	call := append([]string{name}, args...)
	f.calls = append(f.calls, call)
	key := strings.Join(args, " ")
	if err, ok := f.errs[key]; ok {
		return nil, err
	}
	return []byte(f.output[key]), nil
}

func TestContextsParsesBracketedList(t *testing.T) {
	f := &fakeRunner{output: map[string]string{
		"config get-contexts": "[production, staging, dev]\n",
	}}
	s := inventory.NewSloctlWithRunner("sloctl", f.run)

	got, err := s.Contexts()
	if err != nil {
		t.Fatalf("Contexts: %v", err)
	}
	want := []string{"production", "staging", "dev"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("context[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestContextsEmptyIsError(t *testing.T) {
	f := &fakeRunner{output: map[string]string{"config get-contexts": "[]"}}
	s := inventory.NewSloctlWithRunner("sloctl", f.run)

	_, err := s.Contexts()
	var dsErr *inventory.DataSourceError
	if !errors.As(err, &dsErr) {
		t.Fatalf("expected DataSourceError, got %v", err)
	}
}

func TestUseContextInvokesSloctl(t *testing.T) {
	f := &fakeRunner{output: map[string]string{}}
	s := inventory.NewSloctlWithRunner("sloctl", f.run)

	if err := s.UseContext("staging"); err != nil {
		t.Fatalf("UseContext: %v", err)
	}
	if len(f.calls) != 1 {
		t.Fatalf("expected 1 call, got %d", len(f.calls))
	}
	want := "sloctl config use-context staging"
	if got := strings.Join(f.calls[0], " "); got != want {
		t.Errorf("call = %q, want %q", got, want)
	}
}

func TestSLOsNormalizesRecords(t *testing.T) {
	f := &fakeRunner{output: map[string]string{
		"get slos -A -o json": `[
			{"metadata": {"name": "api-latency", "project": "checkout"}, "spec": {"service": "api"}},
			{"metadata": {"name": "db-uptime", "project": "checkout"}, "spec": {}},
			{"metadata": {"name": "", "project": "orphan"}, "spec": {}}
		]`,
	}}
	s := inventory.NewSloctlWithRunner("sloctl", f.run)

	records, err := s.SLOs()
	if err != nil {
		t.Fatalf("SLOs: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records (nameless one dropped), got %d", len(records))
	}
	if records[0].Name != "api-latency" || records[0].Project != "checkout" || records[0].Service != "api" {
		t.Errorf("unexpected first record: %+v", records[0])
	}
	if records[1].Service != "" {
		t.Errorf("expected empty service, got %q", records[1].Service)
	}
}

func TestSLOsMalformedJSON(t *testing.T) {
	cases := map[string]string{
		"not json": "sloctl exploded",
		"non-list": `{"metadata": {"name": "x"}}`,
	}
	for name, out := range cases {
		t.Run(name, func(t *testing.T) {
			f := &fakeRunner{output: map[string]string{"get slos -A -o json": out}}
			s := inventory.NewSloctlWithRunner("sloctl", f.run)

			_, err := s.SLOs()
			var dsErr *inventory.DataSourceError
			if !errors.As(err, &dsErr) {
				t.Fatalf("expected DataSourceError, got %v", err)
			}
		})
	}
}

func TestSLOsCommandFailure(t *testing.T) {
	f := &fakeRunner{errs: map[string]error{
		"get slos -A -o json": fmt.Errorf("exit status 1"),
	}}
	s := inventory.NewSloctlWithRunner("sloctl", f.run)

	_, err := s.SLOs()
	var dsErr *inventory.DataSourceError
	if !errors.As(err, &dsErr) {
		t.Fatalf("expected DataSourceError, got %v", err)
	}
	if !strings.Contains(err.Error(), "get slos") {
		t.Errorf("error should name the failing operation: %v", err)
	}
}
