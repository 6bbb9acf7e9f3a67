package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"ebagen/internal/adjustment"
	"ebagen/internal/app"
	"ebagen/internal/config"
	"ebagen/internal/emit"
	"ebagen/internal/inventory"
	"ebagen/internal/tui"
)

const version = "1.0.0"

// command describes a CLI subcommand.
type command struct {
	name  string
	short string
	usage string
	long  string
	run   func(args []string) error
}

var commands = []command{
	{
		name:  "run",
		short: "Interactively generate budget adjustment files",
		usage: "ebagen run [-out DIR] [-sloctl PATH] [-no-color]",
		long: `Walk through context selection, SLO grouping and adjustment
parameters, then write one BudgetAdjustment YAML file per chunk of
selected SLOs into a timestamped run directory.

Requires a terminal and the sloctl CLI on PATH.
`,
		run: runInteractive,
	},
	{
		name:  "gen",
		short: "Generate adjustment files without prompts",
		usage: "ebagen gen -project NAME|-service NAME|-slos a,b -name NAME -start TS -duration D [-rrule RULE] [flags]",
		long: `Generate budget adjustment files from flags, for scripting.

Exactly one of -project, -service or -slos selects the target SLOs.
Omitting -rrule produces a one-time adjustment; providing it produces
a recurring one and requires -start to be in the future.

Flags:
  -project NAME      target every SLO in the project
  -service NAME      target every SLO in the service
  -slos a,b,c        target the named SLOs
  -name NAME         adjustment displayName
  -description TEXT  adjustment description
  -start TS          first event start (RFC 3339, e.g. 2026-09-01T02:00:00Z)
  -duration D        event duration (e.g. 1h30m)
  -rrule RULE        recurrence rule (e.g. FREQ=WEEKLY;BYDAY=MO)
  -context NAME      switch sloctl context first
  -out DIR           output root (default ./ebafiles)
  -sloctl PATH       sloctl binary override
`,
		run: runGen,
	},
	{
		name:  "version",
		short: "Print the ebagen version",
		usage: "ebagen version",
		long:  "Print the ebagen version.\n",
		run: func([]string) error {
			fmt.Println(version)
			return nil
		},
	},
}

func printUsage(w io.Writer) {
	fmt.Fprintf(w, "ebagen — Nobl9 error budget adjustment generator\n\n")
	fmt.Fprintf(w, "Usage:\n  ebagen <command> [arguments]\n\n")
	fmt.Fprintf(w, "Commands:\n")
	for _, cmd := range commands {
		fmt.Fprintf(w, "  %-10s %s\n", cmd.name, cmd.short)
	}
	fmt.Fprintf(w, "\nRun 'ebagen help <command>' for details on a specific command.\n")
}

func printCommandHelp(w io.Writer, name string) {
	for _, cmd := range commands {
		if cmd.name == name {
			fmt.Fprintf(w, "Usage: %s\n\n%s", cmd.usage, cmd.long)
			return
		}
	}
	fmt.Fprintf(w, "ebagen: unknown command %q\n\nRun 'ebagen help' for usage.\n", name)
}

func dispatch(args []string) error {
	if len(args) == 0 || args[0] == "--help" || args[0] == "-h" {
		printUsage(os.Stdout)
		return nil
	}
	if args[0] == "help" {
		if len(args) >= 2 {
			printCommandHelp(os.Stdout, args[1])
		} else {
			printUsage(os.Stdout)
		}
		return nil
	}
	for _, cmd := range commands {
		if cmd.name == args[0] {
			return cmd.run(args[1:])
		}
	}
	return fmt.Errorf("unknown command %q\n\nRun 'ebagen help' for usage.", args[0])
}

// buildApp assembles the wizard from settings plus flag overrides.
func buildApp(out, sloctl string, noColor bool) (*app.App, error) {
	settings, err := config.Load(".")
	if err != nil {
		return nil, err
	}
	if out == "" {
		out = settings.OutputDir()
	}
	if sloctl == "" {
		sloctl = settings.SloctlBinary()
	}
	source := inventory.NewSloctl(sloctl)
	if err := source.CheckBinary(); err != nil {
		return nil, fmt.Errorf("%w\ninstall it from https://docs.nobl9.com/sloctl/", err)
	}
	styles := tui.DefaultStyles(noColor || settings.ColorDisabled())
	return &app.App{
		Source:    source,
		Prompt:    &tui.Terminal{Styles: styles},
		Writer:    &emit.Writer{Root: out},
		Out:       os.Stdout,
		Styles:    styles,
		ChunkSize: settings.Chunk(),
	}, nil
}

func runInteractive(args []string) error {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	out := fs.String("out", "", "output root directory")
	sloctl := fs.String("sloctl", "", "sloctl binary override")
	noColor := fs.Bool("no-color", false, "disable styled output")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if !tui.IsTerminal() {
		return fmt.Errorf("'ebagen run' is interactive and needs a terminal; use 'ebagen gen' for scripting")
	}
	a, err := buildApp(*out, *sloctl, *noColor)
	if err != nil {
		return err
	}
	return a.Run()
}

func runGen(args []string) error {
	fs := flag.NewFlagSet("gen", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	project := fs.String("project", "", "target project")
	service := fs.String("service", "", "target service")
	slos := fs.String("slos", "", "comma-separated SLO names")
	name := fs.String("name", "", "adjustment displayName")
	description := fs.String("description", "", "adjustment description")
	start := fs.String("start", "", "first event start (RFC 3339)")
	duration := fs.String("duration", "", "event duration, e.g. 1h30m")
	rrule := fs.String("rrule", "", "recurrence rule; empty means one-time")
	context := fs.String("context", "", "sloctl context to activate first")
	out := fs.String("out", "", "output root directory")
	sloctl := fs.String("sloctl", "", "sloctl binary override")
	if err := fs.Parse(args); err != nil {
		return err
	}

	a, err := buildApp(*out, *sloctl, true)
	if err != nil {
		return err
	}

	kind := adjustment.OneTime
	if *rrule != "" {
		kind = adjustment.Recurring
	}
	opts := app.GenOptions{
		Context: *context,
		Project: *project,
		Service: *service,
		Spec: adjustment.Spec{
			Kind:        kind,
			Start:       *start,
			Duration:    *duration,
			RRule:       *rrule,
			DisplayName: *name,
			Description: *description,
		},
	}
	if *slos != "" {
		opts.SLOs = strings.Split(*slos, ",")
	}
	return a.Generate(opts)
}

func main() {
	log.SetFlags(0)
	if err := dispatch(os.Args[1:]); err != nil {
		log.Fatal(err)
	}
}
