// Package fetcher resolves a package across many products in parallel.
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/frederic-klein/susepkg/internal/config"
	"github.com/frederic-klein/susepkg/internal/dist"
	"github.com/frederic-klein/susepkg/internal/errs"
	"github.com/frederic-klein/susepkg/internal/logger"
	"github.com/frederic-klein/susepkg/internal/resolver"
)

// ProductResolver resolves a query against a single product.
type ProductResolver interface {
	ResolveForProduct(ctx context.Context, p dist.Product, query string, m resolver.NameMatcher) ([]dist.Package, error)
}

// Job is one product to resolve.
type Job struct {
	Index   int
	Product dist.Product
}

// Result is the outcome of a Job.
type Result struct {
	Job      Job
	Packages []dist.Package
	Error    error
}

// Fetcher runs product resolutions on a bounded worker pool.
type Fetcher struct {
	resolver ProductResolver
	workers  int
	diag     io.Writer
}

// NewFetcher creates a fetcher with at most workers concurrent resolutions.
// Per-product failures that are not transient are reported to diag.
func NewFetcher(r ProductResolver, workers int, diag io.Writer) *Fetcher {
	if workers < 1 {
		workers = 1
	}
	if workers > config.MaxWorkers {
		workers = config.MaxWorkers
	}
	return &Fetcher{
		resolver: r,
		workers:  workers,
		diag:     diag,
	}
}

// ResolveAll resolves query on every product and returns the packages in
// product order. A failing product contributes nothing and never stops the
// others. If ctx is cancelled, the remaining products are skipped and the
// partial result is returned along with ctx.Err().
func (f *Fetcher) ResolveAll(ctx context.Context, products []dist.Product, query string, m resolver.NameMatcher) ([]dist.Package, error) {
	if len(products) == 0 {
		return nil, nil
	}
	results := f.run(ctx, products, query, m)

	var packages []dist.Package
	for _, res := range results {
		switch {
		case res.Error == nil:
			packages = append(packages, res.Packages...)
		case errors.Is(res.Error, context.Canceled), errors.Is(res.Error, context.DeadlineExceeded):
		case errors.Is(res.Error, errs.ErrTransient):
			logger.Logger().Debugf("dropping %s: %v", res.Job.Product, res.Error)
		default:
			fmt.Fprintf(f.diag, "ERROR: %v\n", res.Error)
		}
	}
	return packages, ctx.Err()
}

func (f *Fetcher) run(ctx context.Context, products []dist.Product, query string, m resolver.NameMatcher) []Result {
	workers := min(f.workers, len(products))
	jobChan := make(chan Job, len(products))
	results := make([]Result, len(products))

	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobChan {
				res := Result{Job: job}
				if err := ctx.Err(); err != nil {
					res.Error = err
				} else {
					res.Packages, res.Error = f.resolver.ResolveForProduct(ctx, job.Product, query, m)
				}
				// Each worker owns the slot of its job.
				results[job.Index] = res
			}
		}()
	}

	for i, p := range products {
		jobChan <- Job{Index: i, Product: p}
	}
	close(jobChan)
	wg.Wait()

	return results
}
