// Package render turns an entity's SLO list plus a validated adjustment
// into BudgetAdjustment YAML documents.
//
// Rendering is pure: Chunks and Document build strings, nothing here
// touches the filesystem. The emit package writes the results.
package render

import (
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"ebagen/internal/adjustment"
)

// APIVersion and DocKind are the fixed document literals Nobl9 expects.
const (
	APIVersion = "n9/v1alpha"
	DocKind    = "BudgetAdjustment"
)

// DefaultChunkSize bounds how many SLO filter entries one document
// carries, keeping generated files reviewable.
const DefaultChunkSize = 30

// Entry is one SLO filter line: the SLO's name and its own project.
// The project is always the record's real project, even when grouping
// was done by service.
type Entry struct {
	Name    string
	Project string
}

// Chunks splits entries into ⌈N/limit⌉ slices of at most limit entries,
// preserving order. Zero entries yields zero chunks; callers treat that
// as nothing to render. A non-positive limit falls back to the default.
func Chunks(entries []Entry, limit int) [][]Entry {
	if limit <= 0 {
		limit = DefaultChunkSize
	}
	var chunks [][]Entry
	for start := 0; start < len(entries); start += limit {
		end := start + limit
		if end > len(entries) {
			end = len(entries)
		}
		chunks = append(chunks, entries[start:end])
	}
	return chunks
}

// Document renders one complete BudgetAdjustment YAML document for the
// index-th chunk (1-based) of total. When the batch has more than one
// chunk, every chunk after the first carries a numeric suffix on both
// metadata.name and the displayName so names never collide; the first
// chunk is always unsuffixed.
func Document(entity string, chunk []Entry, spec adjustment.Spec, index, total int) string {
	slug := adjustment.Slug(spec.DisplayName)
	displayName := spec.DisplayName
	if total > 1 && index > 1 {
		slug = fmt.Sprintf("%s-%d", slug, index)
		displayName = fmt.Sprintf("%s-%d", displayName, index)
	}

	var b strings.Builder
	b.WriteString("## https://docs.nobl9.com/yaml-guide/#budgetadjustment\n")
	b.WriteString("## https://docs.nobl9.com/features/budget-adjustments/\n")
	fmt.Fprintf(&b, "## target: %s (%d SLOs, file %d of %d)\n\n", entity, len(chunk), index, total)

	fmt.Fprintf(&b, "apiVersion: %s\n", APIVersion)
	fmt.Fprintf(&b, "kind: %s\n", DocKind)
	b.WriteString("metadata:\n")
	fmt.Fprintf(&b, "  name: %s\n", scalar(slug))
	fmt.Fprintf(&b, "  displayName: %s\n", scalar(displayName))
	b.WriteString("spec:\n")
	writeDescription(&b, spec.Description)
	fmt.Fprintf(&b, "  firstEventStart: %s\n", spec.Start)
	fmt.Fprintf(&b, "  duration: %s\n", spec.Duration)
	if spec.Kind == adjustment.Recurring {
		fmt.Fprintf(&b, "  rrule: %s\n", scalar(spec.RRule))
	} else {
		b.WriteString("  # rrule: FREQ=WEEKLY;INTERVAL=1 # one-time adjustment; uncomment and edit to make it recur\n")
	}
	b.WriteString("  filters:\n")
	b.WriteString("    slos:\n")
	for _, e := range chunk {
		fmt.Fprintf(&b, "      - name: %s\n", scalar(e.Name))
		fmt.Fprintf(&b, "        project: %s\n", scalar(e.Project))
	}
	return b.String()
}

// writeDescription emits the description as a block scalar whenever it
// is multi-line or carries markdown marker characters that a YAML parser
// could misread, and inline otherwise.
//
// A block scalar's content indentation is auto-detected from its first
// non-empty line, so a first line with its own leading whitespace would
// make later lines look under-indented. Such text is emitted as a
// double-quoted scalar instead, with newlines escaped.
func writeDescription(b *strings.Builder, desc string) {
	if strings.ContainsAny(desc, "\n*`") {
		if first := firstNonEmptyLine(desc); strings.HasPrefix(first, " ") || strings.HasPrefix(first, "\t") {
			fmt.Fprintf(b, "  description: %s\n", strconv.Quote(desc))
			return
		}
		b.WriteString("  description: |-\n")
		for _, line := range strings.Split(desc, "\n") {
			if line == "" {
				b.WriteString("\n")
				continue
			}
			fmt.Fprintf(b, "    %s\n", line)
		}
		return
	}
	fmt.Fprintf(b, "  description: %s\n", scalar(desc))
}

func firstNonEmptyLine(text string) string {
	for _, line := range strings.Split(text, "\n") {
		if line != "" {
			return line
		}
	}
	return ""
}

// Check parses doc and errors if it is not valid YAML. Run before every
// write so a quoting bug can never reach disk.
func Check(doc string) error {
	var v any
	if err := yaml.Unmarshal([]byte(doc), &v); err != nil {
		return fmt.Errorf("rendered document is not valid YAML: %w", err)
	}
	return nil
}

// plainSafe matches scalars that need no quoting: they start with an
// alphanumeric and contain no characters YAML could treat as structure.
func plainSafe(s string) bool {
	if s == "" {
		return false
	}
	first := s[0]
	alnum := (first >= 'a' && first <= 'z') || (first >= 'A' && first <= 'Z') || (first >= '0' && first <= '9')
	if !alnum {
		return false
	}
	if strings.ContainsAny(s, ":#{}[],&*!|>'\"%@`\n\t") {
		return false
	}
	if strings.HasPrefix(s, " ") || strings.HasSuffix(s, " ") {
		return false
	}
	switch strings.ToLower(s) {
	case "true", "false", "yes", "no", "on", "off", "null", "~":
		return false
	}
	// Purely numeric strings would resolve to !!int / !!float.
	if _, err := strconv.ParseFloat(s, 64); err == nil {
		return false
	}
	return true
}

// scalar returns s ready to sit after "key: " in block context, quoting
// when plain style would be ambiguous. Double-quoted Go syntax is a
// subset of YAML's double-quoted style, so strconv.Quote is sufficient.
func scalar(s string) string {
	if plainSafe(s) {
		return s
	}
	return strconv.Quote(s)
}
