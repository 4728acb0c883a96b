// Package common holds process-wide helpers shared by the docvault binaries.
package common

// Version is overridden at build time with -ldflags "-X github.com/ruteri/docvault/common.Version=..."
var Version = "dev"

