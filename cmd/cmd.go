// Package cmd implements the mediaserve command
//
// It is in a sub package so it's internals can be re-used elsewhere
package cmd

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"runtime"

	"github.com/mediaserve/mediaserve/fs"
	"github.com/mediaserve/mediaserve/fs/accounting"
	"github.com/mediaserve/mediaserve/fs/config/configflags"
	fslog "github.com/mediaserve/mediaserve/fs/log"
	"github.com/mediaserve/mediaserve/fs/log/logflags"
	"github.com/mediaserve/mediaserve/lib/buildinfo"
	"github.com/mediaserve/mediaserve/lib/exitcode"
	"github.com/mediaserve/mediaserve/lib/resource"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Globals
var (
	// Errors
	errorNotEnoughArguments = errors.New("not enough arguments")
	errorTooManyArguments   = errors.New("too many arguments")

	// exit is replaceable for tests
	exit = os.Exit
)


// Root is the main mediaserve command
var Root = &cobra.Command{
	Use:   "mediaserve",
	Short: "Serve audio and video files over HTTP with byte range support",
	Long: `
mediaserve serves large media files over HTTP so browsers and media
players can seek, resume and partially fetch them using Range requests.

Use "mediaserve serve --help" to see how to configure the routes.
`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(command *cobra.Command, args []string) error {
		return initConfig(context.Background(), command.Flags())
	},
}

func init() {
	ci := fs.GetConfig(context.Background())
	configflags.AddFlags(ci, Root.PersistentFlags())
	logflags.AddFlags(Root.PersistentFlags())
}

// ShowVersion prints the version to w
func ShowVersion(w io.Writer) {
	osVersion, osKernel := buildinfo.GetOSVersion()
	if osVersion == "" {
		osVersion = "unknown"
	}
	if osKernel == "" {
		osKernel = "unknown"
	}

	linking, tagString := buildinfo.GetLinkingAndTags()

	_, _ = fmt.Fprintf(w, "mediaserve %s\n", fs.Version)
	_, _ = fmt.Fprintf(w, "- os/version: %s\n", osVersion)
	_, _ = fmt.Fprintf(w, "- os/kernel: %s\n", osKernel)
	_, _ = fmt.Fprintf(w, "- os/type: %s\n", runtime.GOOS)
	_, _ = fmt.Fprintf(w, "- os/arch: %s\n", runtime.GOARCH)
	_, _ = fmt.Fprintf(w, "- go/version: %s\n", runtime.Version())
	_, _ = fmt.Fprintf(w, "- go/linking: %s\n", linking)
	_, _ = fmt.Fprintf(w, "- go/tags: %s\n", tagString)
}

// initConfig is run by cobra after initialising the flags
func initConfig(ctx context.Context, flagSet *pflag.FlagSet) error {
	ci := fs.GetConfig(ctx)

	// Finish parsing any command line flags
	if err := configflags.SetFlags(ci, flagSet); err != nil {
		return err
	}

	// Start the logger
	fslog.InitLogging()

	// Start the bandwidth limiter
	accounting.TokenBucket.StartTokenBucket(ctx)
	return nil
}

// Run the function logging the stats while it runs, then exit with an
// exit code describing the error returned
func Run(command *cobra.Command, f func() error) {
	ctx := context.Background()
	stopStats := accounting.StartStatsTicker(ctx)
	cmdErr := f()
	stopStats()
	if cmdErr != nil && accounting.GlobalStats().GetErrors() == 0 {
		_ = fs.CountError(cmdErr)
	}
	if fs.GetConfig(ctx).StatsInterval > 0 {
		accounting.GlobalStats().Log(ctx)
	}
	fs.Debugf(nil, "%d go routines active\n", runtime.NumGoroutine())

	// Log the final error message and exit
	if cmdErr != nil {
		log.Printf("Failed to %s: %v", command.Name(), cmdErr)
	}
	resolveExitCode(cmdErr)
}

// CheckArgs checks there are enough arguments and prints a message if not
func CheckArgs(MinArgs, MaxArgs int, cmd *cobra.Command, args []string) {
	if len(args) < MinArgs {
		_ = cmd.Usage()
		_, _ = fmt.Fprintf(os.Stderr, "Command %s needs %d arguments minimum: you provided %d non flag arguments: %q\n", cmd.Name(), MinArgs, len(args), args)
		resolveExitCode(errorNotEnoughArguments)
	} else if len(args) > MaxArgs {
		_ = cmd.Usage()
		_, _ = fmt.Fprintf(os.Stderr, "Command %s needs %d arguments maximum: you provided %d non flag arguments: %q\n", cmd.Name(), MaxArgs, len(args), args)
		resolveExitCode(errorTooManyArguments)
	}
}

// exitCode works out the process exit code for err
func exitCode(err error) int {
	switch {
	case err == nil:
		return exitcode.Success
	case errors.Is(err, errorNotEnoughArguments), errors.Is(err, errorTooManyArguments):
		return exitcode.UsageError
	case resource.IsNotFound(err), os.IsNotExist(errors.Cause(err)):
		return exitcode.FileNotFound
	}
	return exitcode.UncategorizedError
}

func resolveExitCode(err error) {
	exit(exitCode(err))
}

// Main runs mediaserve interpreting flags and commands out of os.Args
func Main() {
	if err := Root.Execute(); err != nil {
		log.Printf("Fatal error: %v", err)
		exit(exitcode.UsageError)
	}
}
