package index

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"github.com/frederic-klein/susepkg/internal/dist"
)

const sccAccept = "application/vnd.scc.suse.com.v4+json"

// Product is an entry of the SCC package search product list.
type Product struct {
	Identifier   string `json:"identifier"` // e.g., "SLES/15.5/x86_64"
	Architecture string `json:"architecture"`
	ID           int    `json:"id"`
}

// SCC queries the SUSE Customer Center package search API.
type SCC struct {
	baseURL string
	client  *Client
}

// NewSCC creates an SCC client for baseURL, e.g. "https://scc.suse.com".
func NewSCC(baseURL string, client *Client) *SCC {
	return &SCC{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  client,
	}
}

// Products returns every product known to the package search.
func (s *SCC) Products(ctx context.Context) ([]Product, error) {
	var env envelope[[]Product]
	if err := s.client.getJSON(ctx, s.baseURL+"/api/package_search/products", sccAccept, nil, &env); err != nil {
		return nil, err
	}
	return env.Data, nil
}

// Packages searches productID for packages whose name contains query.
func (s *SCC) Packages(ctx context.Context, query string, productID int) ([]dist.Record, error) {
	params := url.Values{}
	params.Set("query", query)
	params.Set("product_id", strconv.Itoa(productID))

	var env envelope[[]dist.Record]
	if err := s.client.getJSON(ctx, s.baseURL+"/api/package_search/packages", sccAccept, params, &env); err != nil {
		return nil, err
	}
	return env.Data, nil
}
