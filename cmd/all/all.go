// Package all imports all the commands
package all

import (
	// Active commands
	_ "github.com/mediaserve/mediaserve/cmd/serve"
	_ "github.com/mediaserve/mediaserve/cmd/version"
)
