// Command changeset validates a record against declarative rule documents.
//
//	changeset check -rules signup.yaml [-rules extra.yaml] [-defaults d.yaml] [-changes c.json] [-o text|json] [-v]
//	changeset schema
//
// check exits 0 when the changeset is valid, 1 when it is invalid and 2 on
// usage or configuration errors.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	json "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/reoring/changeset"
	"github.com/reoring/changeset/internal/jsonrecord"
	"github.com/reoring/changeset/message"
	"github.com/reoring/changeset/rules"
)

const (
	exitValid   = 0
	exitInvalid = 1
	exitUsage   = 2
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	if len(args) < 1 {
		usage(stderr)
		return exitUsage
	}
	switch args[0] {
	case "check":
		return checkCmd(args[1:], stdin, stdout, stderr)
	case "schema":
		_, _ = stdout.Write(rules.Schema())
		return exitValid
	case "-h", "-help", "--help", "help":
		usage(stdout)
		return exitValid
	default:
		usage(stderr)
		return exitUsage
	}
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "changeset CLI\n\nUsage:\n  changeset check -rules rules.yaml [-rules more.yaml] [-defaults defaults.yaml] [-changes changes.json] [-allow a,b] [-o text|json] [-v]\n  changeset schema\n\nNotes:\n  - -changes - or -defaults - reads that record from stdin; only one of them may.\n  - Files ending in .json are decoded as JSON, everything else as YAML.")
}

func checkCmd(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("check", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var ruleFiles []string
	var defaultsFile, changesFile, allow, output string
	var verbose bool
	fs.Func("rules", "rule document (repeatable; later documents are merged over earlier ones)", func(s string) error {
		ruleFiles = append(ruleFiles, s)
		return nil
	})
	fs.StringVar(&defaultsFile, "defaults", "", "defaults record (YAML or JSON, - for stdin)")
	fs.StringVar(&changesFile, "changes", "", "proposed changes (YAML or JSON, - for stdin)")
	fs.StringVar(&allow, "allow", "", "comma-separated allow-list; enables strict mode")
	fs.StringVar(&output, "o", "text", "output format: text or json")
	fs.BoolVar(&verbose, "v", false, "enable debug logs")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}

	logger := log.NewWithOptions(stderr, log.Options{
		ReportTimestamp: false,
		ReportCaller:    false,
		Prefix:          "changeset",
	})
	if verbose {
		logger.SetLevel(log.DebugLevel)
	}

	if len(ruleFiles) == 0 {
		logger.Error("at least one -rules document is required")
		fs.Usage()
		return exitUsage
	}
	if output != "text" && output != "json" {
		logger.Error("unknown output format", "o", output)
		return exitUsage
	}
	if defaultsFile == "-" && changesFile == "-" {
		logger.Error("only one of -defaults and -changes may read stdin")
		return exitUsage
	}

	docs := make([][]byte, 0, len(ruleFiles))
	for _, f := range ruleFiles {
		b, err := os.ReadFile(f)
		if err != nil {
			logger.Error("reading rules", "file", f, "err", err)
			return exitUsage
		}
		docs = append(docs, b)
	}
	set, err := rules.Load(docs...)
	if err != nil {
		logConfigError(logger, err)
		return exitUsage
	}
	logger.Debug("rules loaded", "documents", len(docs), "validators", len(set.Validators()), "filter", set.Filter())

	defaults, err := readRecord(defaultsFile, stdin)
	if err != nil {
		logger.Error("reading defaults", "file", defaultsFile, "err", err)
		return exitUsage
	}
	changes, err := readRecord(changesFile, stdin)
	if err != nil {
		logger.Error("reading changes", "file", changesFile, "err", err)
		return exitUsage
	}

	opts := []changeset.Option{changeset.WithLogger(slog.New(logger))}
	if allow != "" {
		opts = append(opts, changeset.WithAllowed(splitCSV(allow)...))
	}
	cs := set.Apply(changeset.New(defaults, opts...).AddChanges(changes))
	logger.Debug("checked", "valid", cs.IsValid(), "fields", cs.Errors().Len(), "errors", cs.Errors().Count())

	if err := render(stdout, output, cs); err != nil {
		logger.Error("writing output", "err", err)
		return exitUsage
	}
	if cs.IsInvalid() {
		return exitInvalid
	}
	return exitValid
}

func logConfigError(logger *log.Logger, err error) {
	var derr *rules.DocumentError
	if errors.As(err, &derr) {
		for _, v := range derr.Violations {
			logger.Error("invalid rule document", "at", v.Location, "reason", v.Message)
		}
		return
	}
	var ce *changeset.ConfigError
	if errors.As(err, &ce) {
		logger.Error("invalid rule", "op", ce.Op, "name", ce.Name, "err", ce.Err)
		return
	}
	logger.Error("loading rules", "err", err)
}

// readRecord decodes a flat record; an empty path yields nil.
func readRecord(path string, stdin io.Reader) (map[string]any, error) {
	if path == "" {
		return nil, nil
	}
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, err
	}
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return jsonrecord.Decode(data)
	}
	var out map[string]any
	if err := yaml.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func render(w io.Writer, format string, cs *changeset.Changeset) error {
	if format == "json" {
		b, err := json.MarshalIndent(cs, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(b))
		return err
	}
	if cs.IsValid() {
		_, err := fmt.Fprintln(w, "valid")
		return err
	}
	for _, line := range message.Full(cs.Errors()) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
