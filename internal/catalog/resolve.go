package catalog

import (
	"context"
	"strconv"
	"strings"

	"github.com/frederic-klein/susepkg/internal/dist"
	"github.com/frederic-klein/susepkg/internal/errs"
)

// AnyProduct selects the whole catalog.
const AnyProduct = "any"

// NormalizeProduct canonicalizes a user-typed product string. openSUSE short
// names gain their prefix and the three names SLE Micro went by are mapped
// to the one SCC uses for that version. Anything else is returned unchanged.
func NormalizeProduct(raw string) string {
	switch raw {
	case "Leap", "Leap_Micro", "Tumbleweed":
		return dist.CommunityPrefix + raw
	}
	if !strings.Contains(raw, "Micro") || strings.Contains(raw, "Leap") {
		return raw
	}

	_, ver, ok := strings.Cut(raw, "/")
	if !ok {
		return raw
	}
	majorStr, minorStr, hasMinor := strings.Cut(ver, ".")
	major, err := strconv.Atoi(majorStr)
	if err != nil {
		return raw
	}
	if major > 5 {
		return "SL-Micro/" + ver
	}
	if !hasMinor {
		return raw
	}
	minor, err := strconv.Atoi(minorStr)
	if err != nil {
		return raw
	}
	if minor > 2 {
		return "SLE-Micro/" + ver
	}
	return "SUSE-MicroOS/" + ver
}

// Resolve returns the products whose name is term or, failing that, every
// product whose name contains term case-insensitively.
func (c *Catalog) Resolve(ctx context.Context, term, arch string) ([]dist.Product, error) {
	all, err := c.Products(ctx, arch)
	if err != nil {
		return nil, err
	}

	var matched []dist.Product
	for _, p := range all {
		if p.Name == term {
			matched = append(matched, p)
		}
	}
	if len(matched) == 0 {
		lower := strings.ToLower(term)
		for _, p := range all {
			if strings.Contains(strings.ToLower(p.Name), lower) {
				matched = append(matched, p)
			}
		}
	}

	if len(matched) == 0 {
		return nil, &errs.Error{Op: "catalog.Resolve", Kind: errs.ErrNotFound, Message: "No matching product for: " + term}
	}
	return matched, nil
}

// Select resolves every term in order. No terms, or the single term "any",
// selects the whole catalog. A product matched by several terms is listed
// once, at its first position.
func (c *Catalog) Select(ctx context.Context, terms []string, arch string) ([]dist.Product, error) {
	if len(terms) == 1 && terms[0] == AnyProduct {
		terms = nil
	}
	if len(terms) == 0 {
		return c.Products(ctx, arch)
	}

	var products []dist.Product
	seen := make(map[string]bool)
	for _, term := range terms {
		matched, err := c.Resolve(ctx, term, arch)
		if err != nil {
			return nil, err
		}
		for _, p := range matched {
			if seen[p.Name] {
				continue
			}
			seen[p.Name] = true
			products = append(products, p)
		}
	}
	return products, nil
}

// Lookup builds a product from a raw name, resolving its catalog id. EOL
// products are found too. openSUSE products have no id and skip the lookup.
// The CLI selects products through Select; Lookup is for callers that name a
// product exactly and want it even when it is hidden from the catalog.
func (c *Catalog) Lookup(ctx context.Context, name, arch string) (dist.Product, error) {
	family := dist.FamilyOf(name)
	if family == dist.FamilyCommunity {
		return dist.Product{Name: name, Arch: arch, Family: family}, nil
	}

	raw, err := c.sccProducts(ctx)
	if err != nil {
		return dist.Product{}, err
	}
	identifier := name + "/" + arch
	for _, p := range raw {
		if p.Identifier == identifier {
			return dist.Product{Name: name, ID: p.ID, Arch: arch, Family: family}, nil
		}
	}
	return dist.Product{}, &errs.Error{Op: "catalog.Lookup", Kind: errs.ErrNotFound, Message: "Not found: " + identifier}
}
