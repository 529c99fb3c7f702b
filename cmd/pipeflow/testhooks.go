package main

import (
	"io"
	"os"
)

// exitFunc is process exit indirected through a variable so unit tests can
// observe a command's intended exit code without killing the test binary.
var exitFunc = os.Exit

// stderrWriter is os.Stderr indirected through a variable so tests can
// capture what a command would have printed on failure.
var stderrWriter io.Writer = os.Stderr
