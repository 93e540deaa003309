// Package catalog fetches the list of known products and resolves
// user-supplied product terms against it.
package catalog

import (
	"cmp"
	"context"
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/frederic-klein/susepkg/internal/dist"
	"github.com/frederic-klein/susepkg/internal/index"
	"github.com/frederic-klein/susepkg/internal/logger"
)

// familyPrefixes are the enterprise product families listed in the catalog.
var familyPrefixes = []string{"SLES/", "SLE-Micro/", "SL-Micro/", "SUSE-MicroOS/"}

// eol products are hidden from the catalog.
var eol = map[string]bool{
	"SLES/12":          true,
	"SLES/12.1":        true,
	"SLES/12.2":        true,
	"SLES/12.3":        true,
	"SLES/12.4":        true,
	"SLES/15":          true,
	"SLES/15.1":        true,
	"SLES/15.2":        true,
	"SLES/15.3":        true,
	"SUSE-MicroOS/5.0": true,
	"SUSE-MicroOS/5.1": true,
}

const rollingName = dist.CommunityPrefix + "Tumbleweed"

// EnterpriseSource lists SCC products.
type EnterpriseSource interface {
	Products(ctx context.Context) ([]index.Product, error)
}

// CommunitySource lists eligible openSUSE distributions.
type CommunitySource interface {
	Distributions(ctx context.Context) ([]index.Distribution, error)
}

// Catalog memoizes the product lists for the lifetime of the process.
// Each list is fetched at most once, even under concurrent first access;
// failed fetches are not remembered.
type Catalog struct {
	enterprise EnterpriseSource
	community  CommunitySource

	group singleflight.Group
	mu    sync.Mutex
	cache map[string]any
}

// New creates a Catalog. community may be nil to list enterprise products only.
func New(enterprise EnterpriseSource, community CommunitySource) *Catalog {
	return &Catalog{
		enterprise: enterprise,
		community:  community,
		cache:      make(map[string]any),
	}
}

func (c *Catalog) cached(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.cache[key]
	return v, ok
}

// load returns the memoized value for key, calling fetch on first use.
// fetch runs detached from ctx so one cancelled caller does not fail the
// others waiting on the same flight; each caller stops waiting when its own
// ctx is done.
func (c *Catalog) load(ctx context.Context, key string, fetch func(context.Context) (any, error)) (any, error) {
	if v, ok := c.cached(key); ok {
		return v, nil
	}
	flight := c.group.DoChan(key, func() (any, error) {
		// A flight for key may have completed between the check above and now.
		if v, ok := c.cached(key); ok {
			return v, nil
		}
		v, err := fetch(context.WithoutCancel(ctx))
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.cache[key] = v
		c.mu.Unlock()
		return v, nil
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-flight:
		return res.Val, res.Err
	}
}

func (c *Catalog) sccProducts(ctx context.Context) ([]index.Product, error) {
	v, err := c.load(ctx, "scc", func(ctx context.Context) (any, error) {
		logger.Logger().Debugf("fetching SCC product list")
		return c.enterprise.Products(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("fetching SCC products: %w", err)
	}
	return v.([]index.Product), nil
}

func (c *Catalog) distributions(ctx context.Context) ([]index.Distribution, error) {
	if c.community == nil {
		return nil, nil
	}
	v, err := c.load(ctx, "opensuse", func(ctx context.Context) (any, error) {
		logger.Logger().Debugf("fetching openSUSE distributions")
		return c.community.Distributions(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("fetching openSUSE distributions: %w", err)
	}
	return v.([]index.Distribution), nil
}

// Products returns the catalog for arch: enterprise products first, then
// openSUSE distributions.
func (c *Catalog) Products(ctx context.Context, arch string) ([]dist.Product, error) {
	v, err := c.load(ctx, "products/"+arch, func(ctx context.Context) (any, error) {
		return c.build(ctx, arch)
	})
	if err != nil {
		return nil, err
	}
	return slices.Clone(v.([]dist.Product)), nil
}

func (c *Catalog) build(ctx context.Context, arch string) ([]dist.Product, error) {
	raw, err := c.sccProducts(ctx)
	if err != nil {
		return nil, err
	}
	distros, err := c.distributions(ctx)
	if err != nil {
		return nil, err
	}

	var products []dist.Product
	for _, p := range raw {
		if p.Architecture != arch || !hasFamilyPrefix(p.Identifier) {
			continue
		}
		name := strings.TrimSuffix(p.Identifier, "/"+arch)
		if eol[name] {
			continue
		}
		products = append(products, dist.Product{Name: name, ID: p.ID, Arch: arch, Family: dist.FamilyEnterprise})
	}
	slices.SortStableFunc(products, compareEnterprise)

	community := make([]dist.Product, 0, len(distros))
	for _, d := range distros {
		name := strings.ReplaceAll(d.Name, " ", "_")
		if name != rollingName {
			name += "/" + string(d.Version)
		}
		community = append(community, dist.Product{Name: name, Arch: arch, Family: dist.FamilyCommunity})
	}
	slices.SortStableFunc(community, dist.CompareProducts)

	logger.Logger().Debugf("catalog for %s: %d enterprise, %d community products", arch, len(products), len(community))
	return append(products, community...), nil
}

func hasFamilyPrefix(identifier string) bool {
	for _, prefix := range familyPrefixes {
		if strings.HasPrefix(identifier, prefix) {
			return true
		}
	}
	return false
}

var microRe = regexp.MustCompile(`^(SUSE-MicroOS|SLE-Micro|SL-Micro)/(\d+)\.(\d+)`)

var microOrder = map[string]int{"SUSE-MicroOS": 1, "SLE-Micro": 2, "SL-Micro": 3}

type microKey struct {
	family, major, minor int
}

func parseMicro(name string) (microKey, bool) {
	m := microRe.FindStringSubmatch(name)
	if m == nil {
		return microKey{}, false
	}
	major, _ := strconv.Atoi(m[2])
	minor, _ := strconv.Atoi(m[3])
	return microKey{family: microOrder[m[1]], major: major, minor: minor}, true
}

// compareEnterprise groups Micro products by family and numeric version
// ahead of everything else, which sorts by name.
func compareEnterprise(a, b dist.Product) int {
	ka, microA := parseMicro(a.Name)
	kb, microB := parseMicro(b.Name)
	switch {
	case microA && !microB:
		return -1
	case !microA && microB:
		return 1
	case microA && microB:
		if c := cmp.Or(
			cmp.Compare(ka.family, kb.family),
			cmp.Compare(ka.major, kb.major),
			cmp.Compare(ka.minor, kb.minor),
		); c != 0 {
			return c
		}
	}
	return dist.CompareProducts(a, b)
}
