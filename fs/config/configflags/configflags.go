// Package configflags defines the flags used by mediaserve.  It is
// decoupled into a separate package so it can be replaced.
package configflags

// Options set by command line flags
import (
	"github.com/mediaserve/mediaserve/fs"
	"github.com/mediaserve/mediaserve/fs/config/flags"
	"github.com/pkg/errors"
	"github.com/spf13/pflag"
)

var (
	// these will get interpreted into fs.Config via SetFlags() below
	verbose int
	quiet   bool
)

// AddFlags adds the non command specific flags to the command
func AddFlags(ci *fs.ConfigInfo, flagSet *pflag.FlagSet) {
	// NB defaults which aren't the zero for the type should be set in fs/config.go NewConfig
	flags.CountVarP(flagSet, &verbose, "verbose", "v", "Print lots more stuff (repeat for more)")
	flags.BoolVarP(flagSet, &quiet, "quiet", "q", false, "Print as little stuff as possible")
	flags.FVarP(flagSet, &ci.LogLevel, "log-level", "", "Log level DEBUG|INFO|NOTICE|ERROR")
	flags.FVarP(flagSet, &ci.StatsLogLevel, "stats-log-level", "", "Log level to show --stats output DEBUG|INFO|NOTICE|ERROR")
	flags.DurationVarP(flagSet, &ci.StatsInterval, "stats", "", ci.StatsInterval, "Interval between printing stats, e.g. 500ms, 60s, 5m (0 to disable)")
	flags.BoolVarP(flagSet, &ci.UseJSONLog, "use-json-log", "", ci.UseJSONLog, "Use json log format")
	flags.FVarP(flagSet, &ci.BwLimit, "bwlimit", "", "Bandwidth limit for streamed bodies in KiB/s, or use suffix B|K|M|G|T|P or off")
	flags.FVarP(flagSet, &ci.BwLimitBurst, "bwlimit-burst", "", "Burst size for --bwlimit")
	flags.DurationVarP(flagSet, &ci.ShutdownWait, "shutdown-wait", "", ci.ShutdownWait, "Time to wait for in flight requests on shutdown")
	flags.StringVarP(flagSet, &ci.ServerHeader, "server-header", "", ci.ServerHeader, "Value for the Server response header, empty for none")
}

// SetFlags converts any flags into config which weren't straight forward
func SetFlags(ci *fs.ConfigInfo, flagSet *pflag.FlagSet) error {
	if verbose >= 2 {
		ci.LogLevel = fs.LogLevelDebug
	} else if verbose >= 1 {
		ci.LogLevel = fs.LogLevelInfo
	}
	if quiet {
		if verbose > 0 {
			return errors.New("can't set -v and -q")
		}
		ci.LogLevel = fs.LogLevelError
	}
	logLevelFlag := flagSet.Lookup("log-level")
	if logLevelFlag != nil && logLevelFlag.Changed {
		if verbose > 0 {
			return errors.New("can't set -v and --log-level")
		}
		if quiet {
			return errors.New("can't set -q and --log-level")
		}
	}
	if ci.BwLimit == 0 {
		return errors.New("--bwlimit must be greater than 0 or off")
	}
	if ci.BwLimit > 0 && ci.BwLimitBurst <= 0 {
		return errors.New("--bwlimit-burst must be greater than 0 when --bwlimit is set")
	}
	return nil
}

// ResetFlags puts the verbosity back to its initial state.  It is
// used by tests which parse more than one command line.
func ResetFlags() {
	verbose = 0
	quiet = false
}
