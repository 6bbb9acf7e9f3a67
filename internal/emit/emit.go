// Package emit writes rendered adjustment documents to disk.
//
// Directory layout:
//
//	<root>/                       # output root, default ./ebafiles
//	    templates/                # reference template for hand editing
//	    run-<yyyymmddhhmmss>/     # one directory per generation run
//	        <slug>[-<n>]-<ts>.yaml
//
// File names embed the run timestamp, so repeated runs into the same
// root never overwrite earlier output.
package emit

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// timestampLayout formats the run timestamp used in directory and file
// names.
const timestampLayout = "20060102150405"

// referenceTemplate is written once into <root>/templates/ as a starting
// point for users who hand-edit adjustments.
const referenceTemplate = `## https://docs.nobl9.com/yaml-guide/#budgetadjustment
## https://docs.nobl9.com/features/budget-adjustments/
## https://icalendar.org/rrule-tool.html

apiVersion: n9/v1alpha
kind: BudgetAdjustment
metadata:
  name: <string> # Mandatory
  displayName: <string> # Optional
spec:
  description: <string> # Optional
  firstEventStart: <YYYY-MM-DDThh:mm:ssZ> # Mandatory
  duration: <1h30m> # Mandatory
  rrule: <FREQ=MONTHLY;INTERVAL=1;BYDAY=1TU> # Optional
  filters:
    slos:
      - name: <string> # Mandatory
        project: <string> # Mandatory
`

// Batch is one run's rendered output: the documents for every chunk of
// a single adjustment, in chunk order.
type Batch struct {
	Slug string
	Docs []string
}

// Writer emits batches under a fixed output root.
type Writer struct {
	Root string
}

// Bootstrap creates the output root and its templates/ directory,
// writing the reference template on first use. Reports whether the root
// was newly created.
func (w *Writer) Bootstrap() (created bool, err error) {
	if _, err := os.Stat(w.Root); os.IsNotExist(err) {
		created = true
	}
	templates := filepath.Join(w.Root, "templates")
	if err := os.MkdirAll(templates, 0o755); err != nil {
		return false, fmt.Errorf("create output dir: %w", err)
	}
	ref := filepath.Join(templates, "blank_do_not_delete.yaml")
	if _, err := os.Stat(ref); os.IsNotExist(err) {
		if err := os.WriteFile(ref, []byte(referenceTemplate), 0o644); err != nil {
			return false, fmt.Errorf("write reference template: %w", err)
		}
	}
	return created, nil
}

// Write stores every document of batch under a fresh run directory
// stamped with now. The first file is <slug>-<ts>.yaml; later chunks
// insert their 1-based index after the slug, matching the suffix inside
// each document. Returns the written paths in chunk order.
func (w *Writer) Write(batch Batch, now time.Time) ([]string, error) {
	if len(batch.Docs) == 0 {
		return nil, nil
	}
	ts := now.Format(timestampLayout)
	dir := filepath.Join(w.Root, "run-"+ts)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create run dir: %w", err)
	}

	paths := make([]string, 0, len(batch.Docs))
	for i, doc := range batch.Docs {
		name := fmt.Sprintf("%s-%s.yaml", batch.Slug, ts)
		if i > 0 {
			name = fmt.Sprintf("%s-%d-%s.yaml", batch.Slug, i+1, ts)
		}
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
			return nil, fmt.Errorf("write %s: %w", name, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}
