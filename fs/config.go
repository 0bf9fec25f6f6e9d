package fs

import (
	"context"
	"strings"
	"time"
)

// Global
var (
	// globalConfig for mediaserve
	globalConfig = NewConfig()

	// CountError counts an error into the global stats and returns
	// it.  If any errors have been counted then it will be reported
	// in the stats.
	//
	// This is a function pointer to decouple the accounting
	// implementation from the fs
	CountError = func(err error) error { return err }
)

// ConfigInfo is the global config for mediaserve
type ConfigInfo struct {
	LogLevel      LogLevel
	UseJSONLog    bool
	BwLimit       SizeSuffix    // Bandwidth limit for all streamed bodies, -1 for off
	BwLimitBurst  SizeSuffix    // Token bucket size for BwLimit
	ShutdownWait  time.Duration // Time to wait for in flight streams on exit
	ServerHeader  string        // Value of the Server header, empty for none
	StatsLogLevel LogLevel
	StatsInterval time.Duration // Interval to log stats, 0 for off
}

// NewConfig creates a new config with everything set to the default
// value.  These are the ultimate defaults and are overridden by the
// command line flags.
func NewConfig() *ConfigInfo {
	c := new(ConfigInfo)

	// Set any values which aren't the zero for the type
	c.LogLevel = LogLevelNotice
	c.StatsLogLevel = LogLevelInfo
	c.BwLimit = -1
	c.BwLimitBurst = 4 * Mebi
	c.ShutdownWait = 10 * time.Second
	c.ServerHeader = "mediaserve/" + Version

	return c
}

type configContextKeyType struct{}

// Context key for config
var configContextKey = configContextKeyType{}

// GetConfig returns the global or context sensitive context
func GetConfig(ctx context.Context) *ConfigInfo {
	if ctx == nil {
		return globalConfig
	}
	c := ctx.Value(configContextKey)
	if c == nil {
		return globalConfig
	}
	return c.(*ConfigInfo)
}

// AddConfig returns a mutable config structure based on a shallow
// copy of that found in ctx and returns a new context with that added
// to it.
func AddConfig(ctx context.Context) (context.Context, *ConfigInfo) {
	c := GetConfig(ctx)
	cCopy := new(ConfigInfo)
	*cCopy = *c
	newCtx := context.WithValue(ctx, configContextKey, cCopy)
	return newCtx, cCopy
}

// OptionToEnv converts an option name, e.g. "log-level" into an
// environment name "MEDIASERVE_LOG_LEVEL"
func OptionToEnv(name string) string {
	return "MEDIASERVE_" + strings.ToUpper(strings.Replace(name, "-", "_", -1))
}
