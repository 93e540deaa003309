// Package version orders RPM package versions.
package version

import (
	rpmversion "github.com/knqyf263/go-rpm-version"
)

// epoch is prepended to every key; packages from the backends don't carry one.
const epoch = "1"

// Key is a comparable version+release pair of an RPM package.
type Key struct {
	Version string `json:"version" yaml:"version"`
	Release string `json:"release" yaml:"release"`
}

// New returns a Key for the given version and release.
func New(version, release string) Key {
	return Key{Version: version, Release: release}
}

func (k Key) evr() rpmversion.Version {
	return rpmversion.NewVersion(epoch + ":" + k.Version + "-" + k.Release)
}

// String returns "version-release".
func (k Key) String() string {
	return k.Version + "-" + k.Release
}

// Less reports whether k sorts before other.
func (k Key) Less(other Key) bool {
	return Compare(k, other) < 0
}

// Compare returns -1, 0 or +1 depending on whether a is older than, the same
// as, or newer than b. Release is only consulted when versions are equal.
func Compare(a, b Key) int {
	switch a.evr().Compare(b.evr()) {
	case rpmversion.LESS:
		return -1
	case rpmversion.GREATER:
		return 1
	default:
		return 0
	}
}

// Equal reports whether a and b denote the same effective version, e.g.
// "1.01-1" and "1.1-1".
func Equal(a, b Key) bool {
	return Compare(a, b) == 0
}
