// Package inventory fetches SLO records from Nobl9 through the sloctl CLI.
//
// The core never shells out directly: everything goes through the Source
// interface, and the sloctl-backed implementation runs commands through an
// injectable runner so tests never spawn a process.
package inventory

import (
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"
)

// Record is one monitored objective as reported by the platform.
// Service may be empty; an empty Service means the SLO is unassigned.
type Record struct {
	Name    string
	Project string
	Service string
}

// Source is the narrow contract the generator needs from the platform.
type Source interface {
	// Contexts returns the ordered list of configured context names.
	Contexts() ([]string, error)

	// UseContext activates the named context for subsequent calls.
	UseContext(name string) error

	// SLOs returns the full SLO inventory of the active context.
	SLOs() ([]Record, error)
}

// DataSourceError marks any failure of the external platform boundary:
// the CLI missing or failing, or a malformed response. Always fatal to
// the current run.
type DataSourceError struct {
	Op  string
	Err error
}

func (e *DataSourceError) Error() string {
	return fmt.Sprintf("data source: %s: %v", e.Op, e.Err)
}

func (e *DataSourceError) Unwrap() error { return e.Err }

// Runner executes an external command and returns its combined stdout.
type Runner func(name string, args ...string) ([]byte, error)

func execRunner(name string, args ...string) ([]byte, error) {
	out, err := exec.Command(name, args...).Output()
	if err != nil {
		if ee, ok := err.(*exec.ExitError); ok && len(ee.Stderr) > 0 {
			return nil, fmt.Errorf("%w: %s", err, strings.TrimSpace(string(ee.Stderr)))
		}
		return nil, err
	}
	return out, nil
}

// Sloctl is the sloctl-backed Source.
type Sloctl struct {
	// Binary is the sloctl executable name or path.
	Binary string
	run    Runner
}

// NewSloctl returns a Source that invokes the given sloctl binary.
// An empty binary falls back to "sloctl".
func NewSloctl(binary string) *Sloctl {
	if binary == "" {
		binary = "sloctl"
	}
	return &Sloctl{Binary: binary, run: execRunner}
}

// NewSloctlWithRunner is like NewSloctl with a custom command runner.
func NewSloctlWithRunner(binary string, run Runner) *Sloctl {
	s := NewSloctl(binary)
	s.run = run
	return s
}

// CheckBinary verifies the sloctl binary is reachable on PATH.
func (s *Sloctl) CheckBinary() error {
	if _, err := exec.LookPath(s.Binary); err != nil {
		return &DataSourceError{Op: "locate " + s.Binary, Err: err}
	}
	return nil
}

// Contexts runs `sloctl config get-contexts` and parses its output.
// sloctl prints contexts as a bracketed, comma-separated list.
func (s *Sloctl) Contexts() ([]string, error) {
	out, err := s.run(s.Binary, "config", "get-contexts")
	if err != nil {
		return nil, &DataSourceError{Op: "get-contexts", Err: err}
	}
	raw := strings.TrimSpace(string(out))
	raw = strings.TrimPrefix(raw, "[")
	raw = strings.TrimSuffix(raw, "]")

	var contexts []string
	for _, part := range strings.Split(raw, ",") {
		if ctx := strings.TrimSpace(part); ctx != "" {
			contexts = append(contexts, ctx)
		}
	}
	if len(contexts) == 0 {
		return nil, &DataSourceError{Op: "get-contexts", Err: fmt.Errorf("no contexts configured")}
	}
	return contexts, nil
}

// UseContext runs `sloctl config use-context <name>`.
func (s *Sloctl) UseContext(name string) error {
	if _, err := s.run(s.Binary, "config", "use-context", name); err != nil {
		return &DataSourceError{Op: "use-context " + name, Err: err}
	}
	return nil
}

// sloDocument mirrors the subset of the sloctl JSON output we read.
type sloDocument struct {
	Metadata struct {
		Name    string `json:"name"`
		Project string `json:"project"`
	} `json:"metadata"`
	Spec struct {
		Service string `json:"service"`
	} `json:"spec"`
}

// SLOs runs `sloctl get slos -A -o json` and normalizes the result.
// The top-level value must be a JSON array; anything else is malformed.
func (s *Sloctl) SLOs() ([]Record, error) {
	out, err := s.run(s.Binary, "get", "slos", "-A", "-o", "json")
	if err != nil {
		return nil, &DataSourceError{Op: "get slos", Err: err}
	}

	var docs []sloDocument
	if err := json.Unmarshal(out, &docs); err != nil {
		return nil, &DataSourceError{Op: "get slos", Err: fmt.Errorf("malformed response: %w", err)}
	}

	records := make([]Record, 0, len(docs))
	for _, d := range docs {
		if d.Metadata.Name == "" || d.Metadata.Project == "" {
			continue
		}
		records = append(records, Record{
			Name:    d.Metadata.Name,
			Project: d.Metadata.Project,
			Service: d.Spec.Service,
		})
	}
	return records, nil
}
