package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/vk/burstmd/internal/app"
	"github.com/vk/burstmd/internal/executor"
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

func usageError(format string, args ...any) *ExitError {
	return &ExitError{Code: 2, Message: fmt.Sprintf(format, args...)}
}

// Parse processes command-line arguments. It returns a populated app.Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")
	flagSet := flag.NewFlagSet("burstmd", flag.ContinueOnError)
	flagSet.SetOutput(output)

	flagSet.Usage = func() {
		fmt.Fprint(output, `
burstmd - A Markdown template renderer that runs independent directives in parallel.

Usage:
  burstmd [options] [TEMPLATE_PATH]

Arguments:
  TEMPLATE_PATH
    Path to a single Markdown template or a directory of .md templates.

Options:
`)
		flagSet.PrintDefaults()
	}

	templateFlag := flagSet.String("template", "", "Path to the template file or directory.")
	tFlag := flagSet.String("t", "", "Path to the template file or directory (shorthand).")
	outFlag := flagSet.String("out", "", "Output file, or directory when rendering a directory. Defaults to stdout.")
	oFlag := flagSet.String("o", "", "Output path (shorthand).")
	configFlag := flagSet.String("config", "", "Path to an HCL config file or directory.")
	cFlag := flagSet.String("c", "", "Path to an HCL config file or directory (shorthand).")
	logFormatFlag := flagSet.String("log-format", "text", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	workersFlag := flagSet.Int("workers", executor.DefaultWorkers, "Number of concurrent workers per phase.")
	sequentialFlag := flagSet.Bool("sequential", false, "Run one directive at a time, in source order.")
	planFlag := flagSet.Bool("plan", false, "Print the execution plan to stderr.")
	profileFlag := flagSet.Bool("profile", false, "Print the execution report to stderr.")
	htmlFlag := flagSet.Bool("html", false, "Convert the rendered Markdown to HTML.")
	servePortFlag := flagSet.Int("serve-port", 0, "Port for the HTTP render server. 0 is disabled.")
	promptURLFlag := flagSet.String("prompt-url", "", "socket.io URL of a remote UI answering prompts.")
	nonInteractiveFlag := flagSet.Bool("non-interactive", false, "Answer prompts from the config file instead of the terminal.")
	timeoutFlag := flagSet.Duration("timeout", 0, "Cancel a render after this long. 0 waits forever.")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil, true, nil
		}
		return nil, false, usageError("%s", err.Error())
	}
	slog.Debug("Arguments parsed successfully.")

	explicit := make(map[string]bool)
	flagSet.Visit(func(f *flag.Flag) { explicit[f.Name] = true })

	path := first(*templateFlag, *tFlag)
	if path == "" && flagSet.NArg() > 0 {
		path = flagSet.Arg(0)
	}
	if flagSet.NArg() > 1 {
		return nil, false, usageError("unexpected arguments: %s", strings.Join(flagSet.Args()[1:], " "))
	}
	slog.Debug("Template path determined.", "path", path)

	if path == "" && *servePortFlag <= 0 {
		slog.Debug("No template path provided, printing usage and exiting.")
		flagSet.Usage()
		return nil, true, nil
	}

	logFormat := strings.ToLower(*logFormatFlag)
	if logFormat != "text" && logFormat != "json" {
		return nil, false, usageError("invalid log-format: must be 'text' or 'json'")
	}

	logLevel := strings.ToLower(*logLevelFlag)
	switch logLevel {
	case "debug", "info", "warn", "error":
	default:
		return nil, false, usageError("invalid log-level: must be 'debug', 'info', 'warn', or 'error'")
	}
	if *workersFlag < 1 {
		return nil, false, usageError("invalid workers: must be at least 1")
	}
	if *timeoutFlag < 0 {
		return nil, false, usageError("invalid timeout: must not be negative")
	}
	slog.Debug("CLI parameter validation complete.")

	cfg, err := app.NewConfig(app.Config{
		TemplatePath:   path,
		OutPath:        first(*outFlag, *oFlag),
		ConfigPath:     first(*configFlag, *cFlag),
		LogFormat:      logFormat,
		LogLevel:       logLevel,
		Workers:        *workersFlag,
		Sequential:     *sequentialFlag,
		Timeout:        *timeoutFlag,
		PrintPlan:      *planFlag,
		PrintProfile:   *profileFlag,
		HTML:           *htmlFlag,
		ServePort:      *servePortFlag,
		PromptURL:      *promptURLFlag,
		NonInteractive: *nonInteractiveFlag,
		Explicit:       explicit,
	})
	if err != nil {
		return nil, false, usageError("%s", err.Error())
	}

	slog.Debug("CLI parser finished successfully.", "config", cfg)
	return cfg, false, nil
}

func first(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
