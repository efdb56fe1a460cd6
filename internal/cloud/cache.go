package cloud

import (
	"context"
	"sync"
)

// FileLister is the listing half of the client, split out so the caches can
// be tested against fakes.
type FileLister interface {
	ListFiles(ctx context.Context, prefix string) ([]string, error)
}

// InfoFetcher is the price-table half of the client.
type InfoFetcher interface {
	DataInfo(ctx context.Context, organizationID string) (*DataInfo, error)
}

// ListingCache memoizes remote file listings by prefix for the lifetime of a
// resolution session. It satisfies catalog.Lister.
type ListingCache struct {
	client FileLister

	mu       sync.Mutex
	listings map[string][]string
}

func NewListingCache(client FileLister) *ListingCache {
	return &ListingCache{
		client:   client,
		listings: make(map[string][]string),
	}
}

func (c *ListingCache) ListFiles(ctx context.Context, prefix string) ([]string, error) {
	c.mu.Lock()
	if files, ok := c.listings[prefix]; ok {
		c.mu.Unlock()
		return files, nil
	}
	c.mu.Unlock()

	files, err := c.client.ListFiles(ctx, prefix)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.listings[prefix] = files
	c.mu.Unlock()
	return files, nil
}

// InfoCache memoizes per-organization market state so a single quote or
// purchase never fetches the price table twice.
type InfoCache struct {
	client InfoFetcher

	mu    sync.Mutex
	infos map[string]*DataInfo
}

func NewInfoCache(client InfoFetcher) *InfoCache {
	return &InfoCache{
		client: client,
		infos:  make(map[string]*DataInfo),
	}
}

func (c *InfoCache) DataInfo(ctx context.Context, organizationID string) (*DataInfo, error) {
	c.mu.Lock()
	if info, ok := c.infos[organizationID]; ok {
		c.mu.Unlock()
		return info, nil
	}
	c.mu.Unlock()

	info, err := c.client.DataInfo(ctx, organizationID)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.infos[organizationID] = info
	c.mu.Unlock()
	return info, nil
}
