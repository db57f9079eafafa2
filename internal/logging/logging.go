// Package logging configures the process-wide zerolog logger.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

const FileName = "crewopt.log"

// Options describe the two sinks.
type Options struct {
	Verbose bool
	// Dir holds the rotating log file. Empty disables the file sink.
	Dir string
	// Console defaults to os.Stderr; stdout is reserved for command output
	// and the MCP stdio transport.
	Console io.Writer
	NoColor bool
}

// New builds a logger writing to the console and, when Dir is set, to a
// rotating file. The returned closer releases the file.
func New(opts Options) (zerolog.Logger, io.Closer, error) {
	level := zerolog.InfoLevel
	if opts.Verbose {
		level = zerolog.DebugLevel
	}

	out := opts.Console
	if out == nil {
		out = os.Stderr
	}
	consoleWriter := zerolog.ConsoleWriter{
		Out:        out,
		TimeFormat: time.RFC3339,
		NoColor:    opts.NoColor,
	}

	if opts.Dir == "" {
		return zerolog.New(consoleWriter).Level(level).With().Timestamp().Logger(), io.NopCloser(nil), nil
	}

	if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
		return zerolog.Nop(), nil, fmt.Errorf("failed to create log directory %q: %w", opts.Dir, err)
	}
	testFile := filepath.Join(opts.Dir, ".write-test")
	if err := os.WriteFile(testFile, []byte("test"), 0o644); err != nil {
		return zerolog.Nop(), nil, fmt.Errorf("log directory %q is not writable: %w", opts.Dir, err)
	}
	_ = os.Remove(testFile)

	fileWriter := &lumberjack.Logger{
		Filename:   filepath.Join(opts.Dir, FileName),
		MaxSize:    16, // megabytes
		MaxBackups: 32,
		MaxAge:     365, // days
		Compress:   true,
	}

	multi := zerolog.MultiLevelWriter(io.Writer(consoleWriter), fileWriter)
	logger := zerolog.New(multi).Level(level).With().Timestamp().Logger()
	return logger, fileWriter, nil
}

// Init installs the global logger. It runs before config.Load, so it reads
// LOGS_FOLDER after loading the .env next to the binary itself.
func Init(verbose bool) {
	exePath, err := os.Executable()
	if err == nil {
		_ = godotenv.Load(filepath.Join(filepath.Dir(exePath), ".env"))
	}

	logDir := os.Getenv("LOGS_FOLDER")
	if logDir == "" {
		if err == nil {
			logDir = filepath.Join(filepath.Dir(exePath), "logs")
		} else {
			logDir = "logs"
		}
	}

	isTerminal := isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd())

	logger, _, err := New(Options{
		Verbose: verbose,
		Dir:     logDir,
		NoColor: !isTerminal,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
	log.Logger = logger
}
