package index

import (
	"context"
	"net/url"
	"path"
	"sort"
	"strings"

	"github.com/frederic-klein/susepkg/internal/dist"
	"github.com/frederic-klein/susepkg/internal/errs"
)

const (
	jsonAccept     = "application/json"
	rollingChannel = "Tumbleweed"
)

// Distribution is an openSUSE release as listed by get.opensuse.org.
type Distribution struct {
	Name    string     `json:"name"` // e.g., "openSUSE Leap"
	Version FlexString `json:"version"`
	State   string     `json:"state"`
}

// LocationQuery selects packages in the mirrorcache search.
type LocationQuery struct {
	OS        string // e.g., "leap", "leap-micro", "tumbleweed"
	OSVersion string // empty for rolling releases
	Package   string
}

// Location is a package file found by the mirrorcache search.
type Location struct {
	File string `json:"file"` // e.g., "bash-5.2.15-150500.1.1.x86_64.rpm"
}

// OpenSUSE queries the openSUSE distribution list and mirrorcache.
type OpenSUSE struct {
	distributionsURL string
	mirrorURL        string
	client           *Client
}

// NewOpenSUSE creates an openSUSE client.
func NewOpenSUSE(distributionsURL, mirrorURL string, client *Client) *OpenSUSE {
	return &OpenSUSE{
		distributionsURL: distributionsURL,
		mirrorURL:        strings.TrimSuffix(mirrorURL, "/"),
		client:           client,
	}
}

// Distributions returns the eligible distributions: every stable release
// plus the head of the rolling channel.
func (o *OpenSUSE) Distributions(ctx context.Context) ([]Distribution, error) {
	var channels map[string][]Distribution
	if err := o.client.getJSON(ctx, o.distributionsURL, jsonAccept, nil, &channels); err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(channels))
	for k := range channels {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var out []Distribution
	for _, k := range keys {
		for i, d := range channels[k] {
			if d.State == "Stable" || (k == rollingChannel && i == 0) {
				out = append(out, d)
			}
		}
	}
	return out, nil
}

// PackageLocations searches the official repositories for q.Package.
func (o *OpenSUSE) PackageLocations(ctx context.Context, q LocationQuery) ([]Location, error) {
	params := url.Values{}
	params.Set("ignore_file", "json")
	params.Set("ignore_path", "/repositories/home:")
	params.Set("os", q.OS)
	if q.OSVersion != "" {
		params.Set("os_ver", q.OSVersion)
	}
	params.Set("official", "1")
	params.Set("package", q.Package)

	var env envelope[[]Location]
	if err := o.client.getJSON(ctx, o.mirrorURL+"/rest/search/package_locations", jsonAccept, params, &env); err != nil {
		return nil, err
	}
	return env.Data, nil
}

// ParseFilename extracts name, version and release from an RPM filename of
// the form name-version-release.arch.rpm.
func ParseFilename(file string) (dist.Record, error) {
	base := path.Base(file)
	for range 2 {
		if i := strings.LastIndexByte(base, '.'); i != -1 {
			base = base[:i]
		}
	}

	r := strings.LastIndexByte(base, '-')
	if r == -1 {
		return dist.Record{}, malformed(file)
	}
	v := strings.LastIndexByte(base[:r], '-')
	if v == -1 {
		return dist.Record{}, malformed(file)
	}

	rec := dist.Record{
		Name:    base[:v],
		Version: base[v+1 : r],
		Release: base[r+1:],
	}
	if rec.Name == "" || rec.Version == "" || rec.Release == "" {
		return dist.Record{}, malformed(file)
	}
	return rec, nil
}

func malformed(file string) error {
	return &errs.Error{Op: "index.ParseFilename", Kind: errs.ErrMalformed, Message: "unexpected filename " + file}
}
