package cli

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/specialistvlad/componentry/internal/config"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// stringList is a repeatable string flag.
type stringList []string

func (s *stringList) String() string { return fmt.Sprint(*s) }

func (s *stringList) Set(v string) error {
	*s = append(*s, v)
	return nil
}

// Parse processes command-line arguments. It returns the validated config, a
// boolean indicating if the program should exit cleanly, or an ExitError.
// Precedence, lowest first: defaults, config file, environment, flags.
func Parse(args []string, output io.Writer) (*config.Config, bool, error) {
	return parse(args, output, os.LookupEnv)
}

func parse(args []string, output io.Writer, lookupEnv func(string) (string, bool)) (*config.Config, bool, error) {
	slog.Debug("CLI parser started.")
	flagSet := flag.NewFlagSet("componentry", flag.ContinueOnError)
	flagSet.SetOutput(output)

	// Custom usage/help text function
	flagSet.Usage = func() {
		fmt.Fprint(output, `
Componentry - Upgrades HCL-described node trees with registered components.

Usage:
  componentry [options] [DOCUMENT_PATH...]

Arguments:
  DOCUMENT_PATH
    Path to a single .hcl document file or a directory containing .hcl files.

Options:
`)
		flagSet.PrintDefaults()
	}

	var documents, components stringList
	flagSet.Var(&documents, "document", "Path to a document file or directory. Repeatable.")
	flagSet.Var(&components, "components", "Path to a component manifest file or directory. Repeatable.")
	configFlag := flagSet.String("config", "", "Path to a config file (.hcl, .toml, .yaml or .yml).")
	logFormatFlag := flagSet.String("log-format", config.DefaultLogFormat, "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", config.DefaultLogLevel, "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	inspectPortFlag := flagSet.Int("inspect-port", 0, "Port for the HTTP inspection API. 0 is disabled.")
	feedURLFlag := flagSet.String("feed-url", "", "socket.io server to receive mutation batches from. Empty is disabled.")
	feedNamespaceFlag := flagSet.String("feed-namespace", config.DefaultFeedNS, "socket.io namespace of the feed.")
	feedEventFlag := flagSet.String("feed-event", config.DefaultFeedEvent, "Event name carrying mutation batches.")
	maxRoundsFlag := flagSet.Int("max-settle-rounds", config.DefaultSettleLimit, "Rounds after which a still-changing tree is an error.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	slog.Debug("Arguments parsed successfully.")

	cfg := config.Defaults()
	if *configFlag != "" {
		loaded, err := config.LoadFile(*configFlag, cfg)
		if err != nil {
			return nil, false, &ExitError{Code: 2, Message: err.Error()}
		}
		cfg = loaded
		slog.Debug("Config file loaded.", "path", *configFlag)
	}
	config.ApplyEnv(&cfg, lookupEnv)

	// Only flags given explicitly override the file and the environment.
	set := make(map[string]bool)
	flagSet.Visit(func(f *flag.Flag) { set[f.Name] = true })

	documents = append(documents, flagSet.Args()...)
	if len(documents) > 0 {
		cfg.DocumentPaths = documents
	}
	if len(components) > 0 {
		cfg.ComponentPaths = components
	}
	if set["log-format"] {
		cfg.LogFormat = *logFormatFlag
	}
	if set["log-level"] {
		cfg.LogLevel = *logLevelFlag
	}
	if set["inspect-port"] {
		cfg.InspectPort = *inspectPortFlag
	}
	if set["max-settle-rounds"] {
		cfg.MaxSettleRounds = *maxRoundsFlag
	}
	if set["feed-url"] || set["feed-namespace"] || set["feed-event"] {
		feed := config.FeedConfig{}
		if cfg.Feed != nil {
			feed = *cfg.Feed
		}
		if set["feed-url"] {
			feed.URL = *feedURLFlag
		}
		if set["feed-namespace"] {
			feed.Namespace = *feedNamespaceFlag
		}
		if set["feed-event"] {
			feed.Event = *feedEventFlag
		}
		cfg.Feed = &feed
	}

	if len(cfg.DocumentPaths) == 0 {
		slog.Debug("No document path provided, printing usage and exiting.")
		flagSet.Usage()
		return nil, true, nil
	}

	validated, err := config.NewConfig(cfg)
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	slog.Debug("CLI parser finished successfully.", "config", validated)
	return validated, false, nil
}
