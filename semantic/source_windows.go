//go:build windows

package semantic

// flagPrefix starts a command line flag on this platform.
const flagPrefix = "/"
