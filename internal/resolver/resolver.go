// Package resolver finds the latest version of matching packages on one product.
package resolver

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/frederic-klein/susepkg/internal/dist"
	"github.com/frederic-klein/susepkg/internal/errs"
	"github.com/frederic-klein/susepkg/internal/index"
	"github.com/frederic-klein/susepkg/internal/logger"
	"github.com/frederic-klein/susepkg/internal/version"
)

// PackageSearcher searches the SCC package index of one product.
type PackageSearcher interface {
	Packages(ctx context.Context, query string, productID int) ([]dist.Record, error)
}

// LocationSearcher searches the openSUSE mirrors.
type LocationSearcher interface {
	PackageLocations(ctx context.Context, q index.LocationQuery) ([]index.Location, error)
}

// NameMatcher filters package names.
type NameMatcher interface {
	Match(name string) bool
}

// Resolver finds the latest package versions for a product.
type Resolver struct {
	enterprise PackageSearcher
	community  LocationSearcher
}

// NewResolver creates a resolver searching SCC for enterprise products and
// mirrorcache for openSUSE products.
func NewResolver(enterprise PackageSearcher, community LocationSearcher) *Resolver {
	return &Resolver{
		enterprise: enterprise,
		community:  community,
	}
}

// ResolveForProduct searches p for query and returns the latest version of
// every package whose name satisfies m, ordered by name.
func (r *Resolver) ResolveForProduct(ctx context.Context, p dist.Product, query string, m NameMatcher) ([]dist.Package, error) {
	var (
		records []dist.Record
		err     error
	)
	switch p.Family {
	case dist.FamilyEnterprise:
		records, err = r.searchEnterprise(ctx, p, query)
	case dist.FamilyCommunity:
		records, err = r.searchCommunity(ctx, p, query)
	default:
		err = fmt.Errorf("unknown product family %v", p.Family)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", p.Name, err)
	}

	matched := records[:0:0]
	for _, rec := range records {
		if m.Match(rec.Name) {
			matched = append(matched, rec)
		}
	}
	logger.Logger().Debugf("%s: %d of %d records match", p.Name, len(matched), len(records))
	return Latest(p.DisplayName(), matched), nil
}

func (r *Resolver) searchEnterprise(ctx context.Context, p dist.Product, query string) ([]dist.Record, error) {
	if !p.HasID() {
		return nil, &errs.Error{Op: "resolver.searchEnterprise", Kind: errs.ErrNotFound, Message: "no catalog id for " + p.Name + "/" + p.Arch}
	}
	return r.enterprise.Packages(ctx, query, p.ID)
}

func (r *Resolver) searchCommunity(ctx context.Context, p dist.Product, query string) ([]dist.Record, error) {
	q := locationQuery(p.Name)
	q.Package = query

	locations, err := r.community.PackageLocations(ctx, q)
	if err != nil {
		return nil, err
	}

	records := make([]dist.Record, 0, len(locations))
	for _, loc := range locations {
		rec, err := index.ParseFilename(loc.File)
		if err != nil {
			logger.Logger().Warnf("%s: %v", p.Name, err)
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

// locationQuery maps "openSUSE_Leap_Micro/6.1" to os "leap-micro", os_ver "6.1".
func locationQuery(name string) index.LocationQuery {
	osName, osVersion, _ := strings.Cut(name, "/")
	osName = strings.TrimPrefix(osName, dist.CommunityPrefix)
	osName = strings.ToLower(strings.ReplaceAll(osName, "_", "-"))
	return index.LocationQuery{OS: osName, OSVersion: osVersion}
}

// Latest reduces records to one package per name carrying the highest
// version. Records with equal versions resolve to the one delivered last.
func Latest(product string, records []dist.Record) []dist.Package {
	sorted := slices.Clone(records)
	slices.SortStableFunc(sorted, func(a, b dist.Record) int {
		return cmp.Or(
			strings.Compare(a.Name, b.Name),
			version.Compare(a.Key(), b.Key()),
		)
	})

	var packages []dist.Package
	for _, rec := range sorted {
		if n := len(packages); n > 0 && packages[n-1].Name == rec.Name {
			packages[n-1].Version = rec.Key()
			continue
		}
		packages = append(packages, dist.Package{Name: rec.Name, Product: product, Version: rec.Key()})
	}
	return packages
}
