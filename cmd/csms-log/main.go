// Command csms-log views and analyzes RPC event logs.
//
// Event logs are written by csms-console and csms-stub when run with the
// -event-log flag.
//
// Usage:
//
//	csms-log <command> [flags] <file.clog>
//
// Examples:
//
//	# View only wire-layer events
//	csms-log view -layer wire console.clog
//
//	# View everything sent to one charger
//	csms-log view -charger-id CP-1 console.clog
//
//	# Export to CSV
//	csms-log export -format csv -o calls.csv console.clog
//
//	# Keep only failed calls
//	csms-log filter -category error -o errors.clog console.clog
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/ocpp-csms-server/csms-go/cmd/csms-log/commands"
)

// subcommand is one csms-log command. setup registers its flags and returns
// the function that runs it on the log file path.
type subcommand struct {
	name    string
	summary string
	setup   func(fs *flag.FlagSet, stdout io.Writer) func(path string) error
}

var subcommands = []subcommand{
	{"view", "View log file in human-readable format", setupView},
	{"export", "Export log file to JSON lines or CSV", setupExport},
	{"filter", "Filter log file and write to new file", setupFilter},
	{"stats", "Show statistics about the log file", setupStats},
}

var errUsage = errors.New("usage")

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run executes one command and returns the process exit code.
func run(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		printUsage(stderr)
		return 2
	}
	name := args[0]
	if name == "help" || name == "-h" || name == "-help" || name == "--help" {
		printUsage(stdout)
		return 0
	}

	for _, sc := range subcommands {
		if sc.name != name {
			continue
		}
		err := sc.run(args[1:], stdout, stderr)
		switch {
		case err == nil:
			return 0
		case errors.Is(err, flag.ErrHelp):
			return 0
		case errors.Is(err, errUsage):
			return 2
		default:
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
	}

	fmt.Fprintf(stderr, "Unknown command: %s\n\n", name)
	printUsage(stderr)
	return 2
}

func (sc subcommand) run(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet(sc.name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintf(stderr, "csms-log %s - %s\n\nUsage:\n  csms-log %s [flags] <file.clog>\n\nFlags:\n", sc.name, sc.summary, sc.name)
		fs.PrintDefaults()
	}
	exec := sc.setup(fs, stdout)

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return err
		}
		return errUsage
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(stderr, "Error: exactly one log file path required")
		fs.Usage()
		return errUsage
	}
	return exec(fs.Arg(0))
}

func printUsage(w io.Writer) {
	fmt.Fprint(w, "csms-log - CSMS RPC Log Analyzer\n\nUsage:\n  csms-log <command> [flags] <file.clog>\n\nCommands:\n")
	for _, sc := range subcommands {
		fmt.Fprintf(w, "  %-8s %s\n", sc.name, sc.summary)
	}
	fmt.Fprint(w, "\nUse \"csms-log <command> -help\" for more information about a command.\n")
}

// filterFlags registers the filter flags shared by view and filter.
func filterFlags(fs *flag.FlagSet) *commands.FilterOptions {
	var opts commands.FilterOptions
	fs.StringVar(&opts.CallID, "call-id", "", "Filter by call ID")
	fs.StringVar(&opts.Method, "method", "", "Filter by method name (e.g. GetCharger)")
	fs.StringVar(&opts.ChargerID, "charger-id", "", "Filter by charger ID")
	fs.StringVar(&opts.TimeStart, "time-start", "", "Filter by start time (RFC3339)")
	fs.StringVar(&opts.TimeEnd, "time-end", "", "Filter by end time (RFC3339)")
	fs.StringVar(&opts.Layer, "layer", "", "Filter by layer (transport, wire, service)")
	fs.StringVar(&opts.Direction, "direction", "", "Filter by direction (in, out)")
	fs.StringVar(&opts.Category, "category", "", "Filter by category (message, state, error)")
	return &opts
}

func setupView(fs *flag.FlagSet, stdout io.Writer) func(string) error {
	opts := filterFlags(fs)
	return func(path string) error {
		filter, err := opts.Build()
		if err != nil {
			return err
		}
		return commands.RunView(path, filter, stdout)
	}
}

func setupExport(fs *flag.FlagSet, _ io.Writer) func(string) error {
	format := fs.String("format", commands.FormatJSONL, "Output format (jsonl, csv)")
	output := fs.String("o", "", "Output file (default: stdout)")
	return func(path string) error {
		return commands.RunExport(path, *format, *output)
	}
}

func setupFilter(fs *flag.FlagSet, stdout io.Writer) func(string) error {
	output := fs.String("o", "", "Output file (required)")
	opts := filterFlags(fs)
	return func(path string) error {
		if *output == "" {
			return errors.New("output file (-o) required")
		}
		n, err := commands.RunFilter(path, *output, *opts)
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "Filtered %d events to %s\n", n, *output)
		return nil
	}
}

func setupStats(_ *flag.FlagSet, stdout io.Writer) func(string) error {
	return func(path string) error {
		return commands.RunStats(path, stdout)
	}
}
