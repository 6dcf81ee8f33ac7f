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

const logFileName = "scenario-sim.log"

// Init initializes the global logger with dual sinks: os.Stderr and a rotating file.
// Stdout is never written to; it belongs to the MCP transport and command output.
func Init(verbose bool) {
	// Load .env from the binary directory so LOGS_FOLDER is known before config.Load runs.
	exePath, err := os.Executable()
	if err == nil {
		_ = godotenv.Load(filepath.Join(filepath.Dir(exePath), ".env"))
	}

	logDir := os.Getenv("LOGS_FOLDER")
	if logDir == "" {
		switch {
		case os.Getenv("DATA_PATH") != "":
			logDir = filepath.Join(os.Getenv("DATA_PATH"), "logs")
		case err == nil:
			logDir = filepath.Join(filepath.Dir(exePath), "logs")
		default:
			logDir = "logs"
		}
	}

	w, werr := newWriter(logDir, os.Stderr)
	if werr != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", werr)
		os.Exit(1)
	}

	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)

	log.Logger = zerolog.New(w).
		With().
		Timestamp().
		Logger()
}

// newWriter combines a console writer on console with a rotating file in logDir.
func newWriter(logDir string, console *os.File) (zerolog.LevelWriter, error) {
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory %q: %w", logDir, err)
	}

	testFile := filepath.Join(logDir, ".write-test")
	if err := os.WriteFile(testFile, []byte("test"), 0644); err != nil {
		return nil, fmt.Errorf("log directory %q is not writable: %w", logDir, err)
	}
	_ = os.Remove(testFile)

	isTerminal := isatty.IsTerminal(console.Fd()) || isatty.IsCygwinTerminal(console.Fd())
	consoleWriter := zerolog.ConsoleWriter{
		Out:        console,
		TimeFormat: time.RFC3339,
		NoColor:    !isTerminal,
	}

	fileWriter := &lumberjack.Logger{
		Filename:   filepath.Join(logDir, logFileName),
		MaxSize:    16, // megabytes
		MaxBackups: 32,
		MaxAge:     365, // days
		Compress:   true,
	}

	return zerolog.MultiLevelWriter(io.Writer(consoleWriter), fileWriter), nil
}
