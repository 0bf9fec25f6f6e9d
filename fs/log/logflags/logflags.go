// Package logflags implements command line flags to set up the log
package logflags

import (
	"github.com/mediaserve/mediaserve/fs/config/flags"
	"github.com/mediaserve/mediaserve/fs/log"
	"github.com/spf13/pflag"
)

// AddFlags adds the log flags to the flagSet
func AddFlags(flagSet *pflag.FlagSet) {
	flags.StringVarP(flagSet, &log.Opt.File, "log-file", "", log.Opt.File, "Log everything to this file")
	flags.FVarP(flagSet, &log.Opt.MaxSize, "log-file-max-size", "", "Maximum size of the log file before it's rotated (e.g. \"10M\")")
	flags.IntVarP(flagSet, &log.Opt.MaxBackups, "log-file-max-backups", "", log.Opt.MaxBackups, "Maximum number of old log files to retain")
	flags.DurationVarP(flagSet, &log.Opt.MaxAge, "log-file-max-age", "", log.Opt.MaxAge, "Maximum duration to retain old log files (e.g. \"168h\")")
	flags.BoolVarP(flagSet, &log.Opt.Compress, "log-file-compress", "", log.Opt.Compress, "If set, compress rotated log files using gzip")
	flags.StringVarP(flagSet, &log.Opt.Format, "log-format", "", log.Opt.Format, "Comma separated list of log format options: date,time,microseconds,UTC,longfile,shortfile,pid")
}
