// Package app drives the generation flow: inventory → grouping →
// adjustment collection → chunking → rendering → file emission.
//
// The flow is strictly sequential and blocking. All interaction goes
// through tui.Prompter and all platform access through
// inventory.Source, so the whole wizard runs in tests against scripted
// fakes.
package app

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"ebagen/internal/adjustment"
	"ebagen/internal/emit"
	"ebagen/internal/grouping"
	"ebagen/internal/inventory"
	"ebagen/internal/render"
	"ebagen/internal/tui"
)

// App wires the wizard's collaborators together.
type App struct {
	Source    inventory.Source
	Prompt    tui.Prompter
	Writer    *emit.Writer
	Out       io.Writer
	Styles    tui.Styles
	ChunkSize int
	Now       func() time.Time
}

func (a *App) now() time.Time {
	if a.Now == nil {
		return time.Now()
	}
	return a.Now()
}

func (a *App) chunkSize() int {
	if a.ChunkSize <= 0 {
		return render.DefaultChunkSize
	}
	return a.ChunkSize
}

// Run executes the interactive wizard. A cancelled prompt exits cleanly;
// data source failures abort with the underlying error.
func (a *App) Run() error {
	err := a.run()
	if errors.Is(err, tui.ErrCancelled) {
		fmt.Fprintln(a.Out, a.Styles.Muted.Render("Cancelled."))
		return nil
	}
	return err
}

func (a *App) run() error {
	if created, err := a.Writer.Bootstrap(); err != nil {
		return err
	} else if created {
		fmt.Fprintf(a.Out, "%s\n", a.Styles.Warn.Render("Created output directory "+a.Writer.Root))
	}

	if err := a.selectContext(); err != nil {
		return err
	}

	fmt.Fprintln(a.Out, a.Styles.Muted.Render("Fetching SLO inventory..."))
	records, err := a.Source.SLOs()
	if err != nil {
		return err
	}
	fmt.Fprintf(a.Out, "%s\n", a.Styles.Success.Render(fmt.Sprintf("Retrieved %d SLOs", len(records))))

	for {
		choice, err := a.Prompt.Select("Apply an adjustment to", []string{
			"All SLOs in a project",
			"All SLOs in a service",
			"Individual SLOs",
			"Exit",
		})
		if err != nil {
			return err
		}

		var group grouping.Group
		switch choice {
		case 0:
			group, err = a.selectGroup(records, grouping.ByProject, "Projects")
		case 1:
			group, err = a.selectGroup(records, grouping.ByService, "Services")
		case 2:
			group, err = a.selectIndividual(records)
		case 3:
			fmt.Fprintln(a.Out, a.Styles.Muted.Render("Goodbye."))
			return nil
		}
		if err != nil {
			return err
		}

		if len(group.Members) == 0 {
			fmt.Fprintln(a.Out, a.Styles.Warn.Render("Selection contains no SLOs; nothing to generate."))
			continue
		}

		spec, err := a.collectSpec()
		if err != nil {
			return err
		}

		if err := a.generate(group, spec); err != nil {
			return err
		}
	}
}

func (a *App) selectContext() error {
	contexts, err := a.Source.Contexts()
	if err != nil {
		return err
	}
	idx, err := a.Prompt.Select("Select a context", contexts)
	if err != nil {
		return err
	}
	if err := a.Source.UseContext(contexts[idx]); err != nil {
		return err
	}
	fmt.Fprintf(a.Out, "%s\n", a.Styles.Success.Render("Switched to context "+contexts[idx]))
	return nil
}

func (a *App) selectGroup(records []inventory.Record, mode grouping.Mode, title string) (grouping.Group, error) {
	groups := grouping.Groups(records, mode)
	if len(groups) == 0 {
		return grouping.Group{}, nil
	}
	options := make([]string, len(groups))
	for i, g := range groups {
		options[i] = fmt.Sprintf("%s (%d SLOs)", g.Name, len(g.Members))
	}
	idx, err := a.Prompt.Select(title, options)
	if err != nil {
		return grouping.Group{}, err
	}
	return groups[idx], nil
}

func (a *App) selectIndividual(records []inventory.Record) (grouping.Group, error) {
	if len(records) == 0 {
		return grouping.Group{}, nil
	}
	fmt.Fprintln(a.Out, a.Styles.Title.Render("SLOs:"))
	for i, r := range records {
		service := r.Service
		if service == "" {
			service = grouping.UnassignedService
		}
		fmt.Fprintf(a.Out, "  [%d] %s  (project %s, service %s)\n", i+1, r.Name, r.Project, service)
	}

	input, err := a.Prompt.Input(
		fmt.Sprintf("Select SLOs (comma-separated numbers, or %q)", grouping.AllToken),
		func(s string) error {
			_, err := grouping.ParseSelection(s, len(records))
			return err
		},
	)
	if err != nil {
		return grouping.Group{}, err
	}
	indices, err := grouping.ParseSelection(input, len(records))
	if err != nil {
		return grouping.Group{}, err
	}
	return grouping.Pick(records, indices), nil
}

// collectSpec gathers and validates every adjustment field, one prompt
// at a time. Each validator re-prompts its own field only; accepted
// fields are never asked again.
func (a *App) collectSpec() (adjustment.Spec, error) {
	var spec adjustment.Spec

	kind, err := a.Prompt.Select("Adjustment kind", []string{
		"One-time (a single window)",
		"Recurring (an RRULE schedule)",
	})
	if err != nil {
		return spec, err
	}
	spec.Kind = adjustment.Kind(kind)

	spec.DisplayName, err = a.Prompt.Input("displayName", func(s string) error {
		_, err := adjustment.ValidateDisplayName(s)
		return err
	})
	if err != nil {
		return spec, err
	}

	spec.Start, err = a.Prompt.Input("firstEventStart (e.g. 2026-09-01T02:00:00Z)", func(s string) error {
		_, err := adjustment.ValidateStart(s, spec.Kind, a.now())
		return err
	})
	if err != nil {
		return spec, err
	}

	spec.Duration, err = a.Prompt.Input("duration (e.g. 1h30m)", func(s string) error {
		_, err := adjustment.ValidateDuration(s)
		return err
	})
	if err != nil {
		return spec, err
	}

	if spec.Kind == adjustment.Recurring {
		spec.RRule, err = a.Prompt.Input("rrule (e.g. FREQ=WEEKLY;BYDAY=MO)", func(s string) error {
			_, err := adjustment.ValidateRRule(s)
			return err
		})
		if err != nil {
			return spec, err
		}
	}

	spec.Description, err = a.collectDescription()
	if err != nil {
		return spec, err
	}
	return spec, nil
}

// collectDescription loops until the text is clean or the user keeps it
// despite warnings. Lint findings never block submission.
func (a *App) collectDescription() (string, error) {
	for {
		text, err := a.Prompt.Multiline("description")
		if err != nil {
			return "", err
		}
		issues := adjustment.LintMarkdown(text)
		if len(issues) == 0 {
			return text, nil
		}
		fmt.Fprintln(a.Out, a.Styles.Warn.Render("Possible markdown issues:"))
		for _, issue := range issues {
			fmt.Fprintf(a.Out, "  %s\n", a.Styles.Warn.Render(issue.String()))
		}
		retry, err := a.Prompt.Confirm("Re-enter the description?")
		if err != nil {
			return "", err
		}
		if !retry {
			return text, nil
		}
	}
}

// generate renders and writes one batch for the group and spec.
func (a *App) generate(group grouping.Group, spec adjustment.Spec) error {
	entries := make([]render.Entry, len(group.Members))
	for i, m := range group.Members {
		entries[i] = render.Entry{Name: m.Name, Project: m.Project}
	}

	chunks := render.Chunks(entries, a.chunkSize())
	if len(chunks) == 0 {
		fmt.Fprintln(a.Out, a.Styles.Warn.Render("Nothing to render."))
		return nil
	}

	batch := emit.Batch{Slug: adjustment.Slug(spec.DisplayName)}
	for i, chunk := range chunks {
		doc := render.Document(group.Name, chunk, spec, i+1, len(chunks))
		if err := render.Check(doc); err != nil {
			return err
		}
		batch.Docs = append(batch.Docs, doc)
	}

	paths, err := a.Writer.Write(batch, a.now())
	if err != nil {
		return err
	}

	fmt.Fprintln(a.Out, a.Styles.Success.Render("Generated:"))
	for _, p := range paths {
		fmt.Fprintf(a.Out, "  %s\n", p)
	}
	fmt.Fprintf(a.Out, "%s\n", a.Styles.Muted.Render(fmt.Sprintf(
		"%d file(s), %d SLOs, target %s", len(paths), len(entries), group.Name)))
	return nil
}

// GenOptions configures the non-interactive path. Exactly one of
// Project, Service or SLOs selects the target set.
type GenOptions struct {
	Context string
	Project string
	Service string
	SLOs    []string
	Spec    adjustment.Spec
}

// Generate is the scripted counterpart of Run: no prompts, validation
// failures are returned instead of re-asked.
func (a *App) Generate(o GenOptions) error {
	targets := 0
	for _, set := range []bool{o.Project != "", o.Service != "", len(o.SLOs) > 0} {
		if set {
			targets++
		}
	}
	if targets != 1 {
		return errors.New("exactly one of -project, -service or -slos is required")
	}

	if err := o.Spec.Validate(a.now()); err != nil {
		return err
	}

	if _, err := a.Writer.Bootstrap(); err != nil {
		return err
	}
	if o.Context != "" {
		if err := a.Source.UseContext(o.Context); err != nil {
			return err
		}
	}
	records, err := a.Source.SLOs()
	if err != nil {
		return err
	}

	group, err := resolveTarget(records, o)
	if err != nil {
		return err
	}
	if len(group.Members) == 0 {
		return fmt.Errorf("no SLOs matched the selection")
	}
	return a.generate(group, o.Spec)
}

func resolveTarget(records []inventory.Record, o GenOptions) (grouping.Group, error) {
	switch {
	case o.Project != "":
		for _, g := range grouping.Groups(records, grouping.ByProject) {
			if g.Name == o.Project {
				return g, nil
			}
		}
		return grouping.Group{}, fmt.Errorf("project %q has no SLOs", o.Project)
	case o.Service != "":
		for _, g := range grouping.Groups(records, grouping.ByService) {
			if g.Name == o.Service {
				return g, nil
			}
		}
		return grouping.Group{}, fmt.Errorf("service %q has no SLOs", o.Service)
	default:
		byName := make(map[string]int, len(records))
		for i, r := range records {
			byName[r.Name] = i
		}
		seen := make(map[string]bool, len(o.SLOs))
		var indices []int
		for _, name := range o.SLOs {
			name = strings.TrimSpace(name)
			i, ok := byName[name]
			if !ok {
				return grouping.Group{}, fmt.Errorf("unknown SLO %q", name)
			}
			if seen[name] {
				return grouping.Group{}, fmt.Errorf("SLO %q listed twice", name)
			}
			seen[name] = true
			indices = append(indices, i)
		}
		return grouping.Pick(records, indices), nil
	}
}
