package fetcher

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/frederic-klein/susepkg/internal/dist"
	"github.com/frederic-klein/susepkg/internal/errs"
	"github.com/frederic-klein/susepkg/internal/resolver"
	"github.com/frederic-klein/susepkg/internal/version"
)

type fakeResolver struct {
	errs  map[string]error
	delay func() time.Duration

	mu       sync.Mutex
	inFlight int
	peak     int
	calls    atomic.Int32
}

func (f *fakeResolver) ResolveForProduct(ctx context.Context, p dist.Product, query string, m resolver.NameMatcher) ([]dist.Package, error) {
	f.calls.Add(1)
	f.mu.Lock()
	f.inFlight++
	f.peak = max(f.peak, f.inFlight)
	f.mu.Unlock()
	defer func() {
		f.mu.Lock()
		f.inFlight--
		f.mu.Unlock()
	}()

	if f.delay != nil {
		time.Sleep(f.delay())
	}
	if err := f.errs[p.Name]; err != nil {
		return nil, err
	}
	return []dist.Package{{Name: query, Product: p.DisplayName(), Version: version.New("1.0", "1")}}, nil
}

type anyName struct{}

func (anyName) Match(string) bool { return true }

func products(n int) []dist.Product {
	out := make([]dist.Product, n)
	for i := range out {
		out[i] = dist.Product{Name: fmt.Sprintf("SLES/15.%d", i), ID: i + 1, Arch: "x86_64"}
	}
	return out
}

func productNames(pkgs []dist.Package) []string {
	out := make([]string, len(pkgs))
	for i, p := range pkgs {
		out[i] = p.Product
	}
	return out
}

func TestFetcher_ResolveAll_Order(t *testing.T) {
	r := &fakeResolver{delay: func() time.Duration {
		return time.Duration(rand.IntN(5)) * time.Millisecond
	}}
	f := NewFetcher(r, 4, &bytes.Buffer{})

	in := products(12)
	got, err := f.ResolveAll(context.Background(), in, "bash", anyName{})
	require.NoError(t, err)

	want := make([]string, len(in))
	for i, p := range in {
		want[i] = p.Name
	}
	assert.Equal(t, want, productNames(got))
}

func TestFetcher_ResolveAll_TransientIsolated(t *testing.T) {
	in := products(3)
	r := &fakeResolver{errs: map[string]error{
		in[1].Name: fmt.Errorf("%s: %w", in[1].Name, &errs.Error{Op: "index.get", Kind: errs.ErrTransient, Message: "http://scc"}),
	}}
	var diag bytes.Buffer
	f := NewFetcher(r, 10, &diag)

	got, err := f.ResolveAll(context.Background(), in, "bash", anyName{})
	require.NoError(t, err)
	assert.Equal(t, []string{in[0].Name, in[2].Name}, productNames(got))
	assert.Empty(t, diag.String())
	assert.Equal(t, int32(3), r.calls.Load())
}

func TestFetcher_ResolveAll_ReportsOtherErrors(t *testing.T) {
	in := products(2)
	r := &fakeResolver{errs: map[string]error{
		in[0].Name: errors.New("SLES/15.0: no catalog id"),
	}}
	var diag bytes.Buffer
	f := NewFetcher(r, 2, &diag)

	got, err := f.ResolveAll(context.Background(), in, "bash", anyName{})
	require.NoError(t, err)
	assert.Equal(t, []string{in[1].Name}, productNames(got))
	assert.Equal(t, "ERROR: SLES/15.0: no catalog id\n", diag.String())
}

func TestFetcher_ResolveAll_BoundedConcurrency(t *testing.T) {
	r := &fakeResolver{delay: func() time.Duration { return 5 * time.Millisecond }}
	f := NewFetcher(r, 50, &bytes.Buffer{})

	_, err := f.ResolveAll(context.Background(), products(40), "bash", anyName{})
	require.NoError(t, err)
	assert.LessOrEqual(t, r.peak, 10)
	assert.Equal(t, int32(40), r.calls.Load())
}

func TestFetcher_ResolveAll_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := &fakeResolver{}
	var diag bytes.Buffer
	f := NewFetcher(r, 2, &diag)

	got, err := f.ResolveAll(ctx, products(5), "bash", anyName{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, got)
	assert.Empty(t, diag.String())
	assert.Equal(t, int32(0), r.calls.Load())
}

func TestFetcher_ResolveAll_Empty(t *testing.T) {
	f := NewFetcher(&fakeResolver{}, 10, &bytes.Buffer{})

	got, err := f.ResolveAll(context.Background(), nil, "bash", anyName{})
	require.NoError(t, err)
	assert.Empty(t, got)
}
