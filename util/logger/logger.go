package logger

import (
	"fmt"
	"io"
	stdlog "log"
	"os"
	"path"
	"path/filepath"

	"github.com/op/go-logging"
)

/*
InitLogger creates and returns a logger suitable for logging
human-readable message. Also returns the path to the log file.
If logDir is empty, the logger writes to stderr and the returned
path is empty.
*/
func InitLogger(logDir string, logLevel logging.Level) (*logging.Logger, string) {
	processName := path.Base(os.Args[0])
	var writer io.Writer = os.Stderr
	filename := ""
	if logDir != "" {
		filename = filepath.Join(logDir, fmt.Sprintf("%s.log", processName))
		file, err := os.OpenFile(filename, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Cannot open log file '%s': %v\n", filename, err)
			os.Exit(1)
		}
		writer = file
	}
	return newLogger(processName, writer, logLevel), filename
}

// NewWriterLogger returns a logger that writes to w. Tests use this
// to capture log output.
func NewWriterLogger(module string, w io.Writer, logLevel logging.Level) *logging.Logger {
	return newLogger(module, w, logLevel)
}

func newLogger(module string, w io.Writer, logLevel logging.Level) *logging.Logger {
	log := logging.MustGetLogger(module)
	format := logging.MustStringFormatter("[%{level}] %{message}")
	backend := logging.NewLogBackend(w, "", stdlog.LstdFlags|stdlog.LUTC)
	leveled := logging.AddModuleLevel(logging.NewBackendFormatter(backend, format))
	leveled.SetLevel(logLevel, module)
	log.SetBackend(leveled)
	return log
}

// Discard returns a logger that drops everything.
func Discard() *logging.Logger {
	return newLogger("discard", io.Discard, logging.CRITICAL)
}
