// Package exitcode exports mediaserve's exit status numbers.
package exitcode

const (
	// Success is returned when the server shut down cleanly.
	Success = iota
	// UsageError is returned when there was a syntax or usage error in the arguments.
	UsageError
	// UncategorizedError is returned for any error not categorised otherwise.
	UncategorizedError
	// FileNotFound is returned when a media file to serve is not found.
	FileNotFound
)
