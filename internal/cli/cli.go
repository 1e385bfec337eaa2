package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"riprocess-image-list/internal/config"
	"riprocess-image-list/internal/model"
	"riprocess-image-list/internal/pipeline"
	"riprocess-image-list/internal/store"
)

// Process exit codes returned by Main.
const (
	ExitSuccess           = 0
	ExitPipelineFailure   = 1 // the run failed; nothing was written
	ExitInvalidInvocation = 2 // bad flags or arguments
	ExitConfigError       = 3 // the config could not be loaded or is invalid
)

const usage = `Usage: image-list [flags] <config-path>

Matches camera images to timestamp records and prints "timestamp;path" lines.

Flags:
`

// Invocation is the parsed command line.
type Invocation struct {
	ConfigPath string
	OutputFile string
	DB         string
	LogLevel   string
	EnvFile    string
}

// InvocationError reports a command line that cannot be run. ExitCode is
// ExitSuccess when the user only asked for help.
type InvocationError struct {
	ExitCode int
	Message  string
}

func (e *InvocationError) Error() string {
	if e == nil {
		return ""
	}
	return e.Message
}

func invalidInvocationf(format string, args ...any) error {
	return &InvocationError{ExitCode: ExitInvalidInvocation, Message: fmt.Sprintf(format, args...)}
}

// ParseInvocation parses CLI flags and the single positional config path.
func ParseInvocation(args []string, stderr io.Writer) (Invocation, error) {
	fs := flag.NewFlagSet("image-list", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprint(fs.Output(), usage)
		fs.PrintDefaults()
	}

	var inv Invocation
	fs.StringVar(&inv.OutputFile, "o", "", "write the list to FILE (.csv, .json or text) instead of stdout")
	fs.StringVar(&inv.DB, "db", "", "record the run and its pairs in this SQLite database (default $IMAGE_LIST_DB)")
	fs.StringVar(&inv.LogLevel, "log-level", "", "debug|info|warn|error (default $IMAGE_LIST_LOG_LEVEL or warn)")
	fs.StringVar(&inv.EnvFile, "env", "", "load environment from this file (default .env if present)")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return Invocation{}, &InvocationError{ExitCode: ExitSuccess}
		}
		return Invocation{}, invalidInvocationf("%v", err)
	}
	switch fs.NArg() {
	case 1:
		inv.ConfigPath = fs.Arg(0)
	case 0:
		return Invocation{}, invalidInvocationf("missing <config-path>")
	default:
		return Invocation{}, invalidInvocationf("unexpected arguments: %q", strings.Join(fs.Args()[1:], " "))
	}
	if strings.TrimSpace(inv.ConfigPath) == "" {
		return Invocation{}, invalidInvocationf("<config-path> must not be empty")
	}
	return inv, nil
}

// Main runs image-list with args (without the program name) and returns the
// process exit code. The list goes to stdout only if the whole run succeeded.
func Main(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	inv, err := ParseInvocation(args, stderr)
	if err != nil {
		var invErr *InvocationError
		if errors.As(err, &invErr) && invErr.ExitCode == ExitSuccess {
			return ExitSuccess
		}
		fmt.Fprintf(stderr, "image-list: %v\n", err)
		return ExitInvalidInvocation
	}

	if err := config.LoadEnv(inv.EnvFile); err != nil {
		fmt.Fprintf(stderr, "image-list: env: %v\n", err)
		return ExitConfigError
	}
	settings := config.FromEnv()
	level := settings.LogLevel
	if inv.LogLevel != "" {
		level = config.ParseLevel(inv.LogLevel, level)
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	cfg, err := config.Load(inv.ConfigPath)
	if err != nil {
		fmt.Fprintf(stderr, "image-list: %v\n", err)
		return ExitConfigError
	}
	// Flags beat the environment, which beats the config file.
	if settings.DB != "" {
		cfg.Output.DB = settings.DB
	}
	if inv.DB != "" {
		cfg.Output.DB = inv.DB
	}
	if inv.OutputFile != "" {
		cfg.Output.File = inv.OutputFile
	}

	opts := pipeline.RunOptions{ConfigPath: inv.ConfigPath, Logger: logger}
	if cfg.Output.DB != "" {
		st, err := store.Open(cfg.Output.DB)
		if err != nil {
			fmt.Fprintf(stderr, "image-list: database: %v\n", err)
			return ExitConfigError
		}
		defer st.Close()
		opts.Store = st
	}

	res, err := pipeline.Run(ctx, cfg, opts)
	if err != nil {
		fmt.Fprintf(stderr, "image-list: %v\n", err)
		return exitCodeFor(err)
	}

	if cfg.Output.File == "" {
		if err := pipeline.Emit(stdout, res.Pairs); err != nil {
			fmt.Fprintf(stderr, "image-list: write output: %v\n", err)
			return ExitPipelineFailure
		}
	}
	return ExitSuccess
}

func exitCodeFor(err error) int {
	if errors.Is(err, model.ErrInvalidConfig) {
		return ExitConfigError
	}
	return ExitPipelineFailure
}
