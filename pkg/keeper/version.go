// Package keeper holds build metadata for the keeper store tooling.
package keeper

import "github.com/maloquacious/semver"

// Version is the release version of the keeper binary and library. Build
// carries the VCS commit when the binary was built from a checkout.
var Version = semver.Version{Minor: 1, Build: semver.Commit()}
