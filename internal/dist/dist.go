// Package dist holds the product and package values shared across susepkg.
package dist

import (
	"strings"

	"github.com/frederic-klein/susepkg/internal/version"
)

// CommunityPrefix marks openSUSE products.
const CommunityPrefix = "openSUSE_"

// Family selects the backend a product is searched with.
type Family int

const (
	FamilyEnterprise Family = iota // SCC package search, keyed by catalog id
	FamilyCommunity                // openSUSE mirrorcache, keyed by os/os_ver
)

func (f Family) String() string {
	switch f {
	case FamilyEnterprise:
		return "enterprise"
	case FamilyCommunity:
		return "community"
	}
	return "unknown"
}

// FamilyOf returns the family a product name belongs to.
func FamilyOf(name string) Family {
	if strings.HasPrefix(name, "openSUSE") {
		return FamilyCommunity
	}
	return FamilyEnterprise
}

// Product identifies a release line on one architecture.
type Product struct {
	Name   string // e.g., "SLES/15.5", "openSUSE_Leap/15.6", "openSUSE_Tumbleweed"
	ID     int    // SCC catalog id, zero when absent
	Arch   string // e.g., "x86_64"
	Family Family
}

// HasID reports whether the product carries a catalog id.
func (p Product) HasID() bool {
	return p.ID != 0
}

// DisplayName is the name shown in results, without the openSUSE_ prefix.
func (p Product) DisplayName() string {
	return strings.TrimPrefix(p.Name, CommunityPrefix)
}

func (p Product) String() string {
	return p.Name
}

// CompareProducts orders products by name.
func CompareProducts(a, b Product) int {
	return strings.Compare(a.Name, b.Name)
}

// Record is a raw package row returned by a backend.
type Record struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	Release string `json:"release"`
}

// Key returns the record's version key.
func (r Record) Key() version.Key {
	return version.New(r.Version, r.Release)
}

// Package is the latest version of a package found for a product.
type Package struct {
	Name    string      `json:"name" yaml:"name"`
	Product string      `json:"product" yaml:"product"`
	Version version.Key `json:"version" yaml:"version"`
}
