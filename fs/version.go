package fs

// Version of mediaserve
var Version = "v1.0.0-DEV"
