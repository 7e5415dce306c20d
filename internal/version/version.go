// ABOUTME: Version and product identification
// ABOUTME: Version is overridden at link time with -ldflags "-X ...version.Version=v1.2.3"
package version

import "fmt"

// Version is the release version of the binary
var Version = "0.1.0"

const (
	// Product is the name shown in the TUI, mDNS records and control hello
	Product = "chunkstream"

	// Manufacturer identifies who builds the player
	Manufacturer = "Resonate"
)

// String returns the full product banner
func String() string {
	return fmt.Sprintf("%s %s (%s)", Product, Version, Manufacturer)
}
