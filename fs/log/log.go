// Package log provides logging for mediaserve
package log

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/mediaserve/mediaserve/fs"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options contains options for controlling the logging
type Options struct {
	File       string        // Log everything to this file
	MaxSize    fs.SizeSuffix // Rotate the log file when it reaches this size, off for no rotation
	MaxBackups int           // Max number of rotated log files to keep
	MaxAge     time.Duration // Max age of rotated log files
	Compress   bool          // Gzip rotated log files
	Format     string        // Comma separated list of log format options
}

// DefaultOpt is the default values used for Opt
var DefaultOpt = Options{
	MaxSize: -1,
	Format:  "date,time",
}

// Opt is the options for the logger
var Opt = DefaultOpt

// flagsFromFormat turns the --log-format option into flags for the
// standard library logger
func flagsFromFormat(format string) (flags int, err error) {
	for _, item := range strings.Split(format, ",") {
		switch strings.ToLower(strings.TrimSpace(item)) {
		case "":
		case "date":
			flags |= log.Ldate
		case "time":
			flags |= log.Ltime
		case "microseconds":
			flags |= log.Lmicroseconds
		case "utc":
			flags |= log.LUTC
		case "longfile":
			flags |= log.Llongfile
		case "shortfile":
			flags |= log.Lshortfile
		case "pid":
			// handled by the prefix
		default:
			return 0, fmt.Errorf("unknown --log-format item %q", item)
		}
	}
	return flags, nil
}

// logrusLevel converts a mediaserve log level into a logrus one
func logrusLevel(level fs.LogLevel) logrus.Level {
	switch {
	case level >= fs.LogLevelDebug:
		return logrus.DebugLevel
	case level >= fs.LogLevelInfo:
		return logrus.InfoLevel
	case level >= fs.LogLevelWarning:
		return logrus.WarnLevel
	case level >= fs.LogLevelError:
		return logrus.ErrorLevel
	case level >= fs.LogLevelCritical:
		return logrus.FatalLevel
	default:
		return logrus.PanicLevel
	}
}

// openLogFile opens the --log-file with rotation if required
func openLogFile(opt *Options) (io.Writer, error) {
	if opt.MaxSize <= 0 {
		// No log rotation - just open the file as normal
		// We'll capture tracebacks like this too.
		f, err := os.OpenFile(opt.File, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0640)
		if err != nil {
			return nil, err
		}
		redirectStderr(f)
		return f, nil
	}
	// Round with a minimum of 1 if set
	round := func(x float64) int {
		if x <= 0 {
			return 0
		} else if x <= 1 {
			return 1
		}
		return int(x + 0.5)
	}
	return &lumberjack.Logger{
		Filename:   opt.File,
		MaxSize:    round(float64(opt.MaxSize) / float64(fs.Mebi)), // MiB
		MaxBackups: opt.MaxBackups,
		MaxAge:     round(opt.MaxAge.Hours() / 24), // Days
		Compress:   opt.Compress,
		LocalTime:  true,
	}, nil
}

// InitLogging start the logging as per the command line flags
func InitLogging() {
	ci := fs.GetConfig(context.Background())

	flags, err := flagsFromFormat(Opt.Format)
	if err != nil {
		log.Fatalf("Failed to parse --log-format: %v", err)
	}
	if strings.Contains(Opt.Format, "pid") {
		log.SetPrefix(fmt.Sprintf("%d ", os.Getpid()))
	}
	log.SetFlags(flags)

	// Log file output
	if Opt.File != "" {
		w, err := openLogFile(&Opt)
		if err != nil {
			log.Fatalf("Failed to open log file: %v", err)
		}
		log.SetOutput(w)
		logrus.SetOutput(w)
	}

	// Set up the JSON logger
	logrus.SetLevel(logrusLevel(ci.LogLevel))
	if ci.UseJSONLog {
		logrus.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: time.RFC3339Nano,
		})
	}

	fs.Debugf("mediaserve", "Version %q starting with parameters %q", fs.Version, os.Args)
}

// Redirected returns true if the log has been redirected from stdout
func Redirected() bool {
	return Opt.File != ""
}
