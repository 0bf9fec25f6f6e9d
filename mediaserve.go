// Serve audio and video files over HTTP with byte range support
package main

import (
	"github.com/mediaserve/mediaserve/cmd"
	_ "github.com/mediaserve/mediaserve/cmd/all" // import all commands
)

func main() {
	cmd.Main()
}
