package rangereader

import (
	"context"
	"fmt"

	"github.com/goburrow/cache"

	"github.com/cityjson/flatcitybuf/errs"
)

// DefaultMaxCachedNodes bounds the decoded-node LRU's size. Each entry
// is one R-tree or S+Tree node page, typically a few KB, so this caps
// cache memory at a few tens of MB.
const DefaultMaxCachedNodes = 4096

// nodeKey identifies one node page within one of the container's
// indexes: indexID distinguishes the spatial index from an attribute
// index (by column ordinal, with the spatial index reserved as 0),
// nodeIndex is the page's position within that index's node array.
type nodeKey struct {
	indexID   uint32
	nodeIndex int
}

// NodeLoader fetches and decodes the raw bytes of one node page. It is
// supplied by the caller of NewNodeCache, which knows each index's section
// offset and node width; rangereader only knows how to cache and batch
// the result.
type NodeLoader func(ctx context.Context, indexID uint32, nodeIndex int) ([]byte, error)

// NodeCache is an LRU of decoded node pages fronting a NodeLoader,
// grounded on dpeckett-qcow2's cache.NewLoadingCache(tableLoader,
// cache.WithMaximumSize(...)) pattern — here the loader issues a
// (possibly batched) Source.ReadAt instead of a local table read.
//
// goburrow/cache's LoadingFunc carries no context, so Get checks ctx
// for cancellation immediately before and after the (possibly
// cache-missing) load rather than threading ctx into the loader itself;
// a load already in flight for another caller's context is not
// interrupted by this caller's cancellation, which matches the shared,
// best-effort nature of a node LRU.
type NodeCache struct {
	loader NodeLoader
	cache  cache.LoadingCache
}

// NewNodeCache wraps load behind an LRU capped at maxEntries (0 uses
// DefaultMaxCachedNodes).
func NewNodeCache(load NodeLoader, maxEntries int) *NodeCache {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxCachedNodes
	}

	nc := &NodeCache{loader: load}

	nc.cache = cache.NewLoadingCache(
		func(key cache.Key) (cache.Value, error) {
			k := key.(nodeKey)

			return nc.loader(context.Background(), k.indexID, k.nodeIndex)
		},
		cache.WithMaximumSize(maxEntries),
	)

	return nc
}

// Get returns the decoded node page for (indexID, nodeIndex), loading
// and caching it on first access.
func (nc *NodeCache) Get(ctx context.Context, indexID uint32, nodeIndex int) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, errs.NewTransportError(0, err)
	}

	v, err := nc.cache.Get(nodeKey{indexID: indexID, nodeIndex: nodeIndex})
	if err != nil {
		return nil, errs.NewTransportError(0, fmt.Errorf("rangereader: node cache load %d/%d: %w", indexID, nodeIndex, err))
	}

	if err := ctx.Err(); err != nil {
		return nil, errs.NewTransportError(0, err)
	}

	return v.([]byte), nil
}

// Invalidate drops a cached node, e.g. after a write invalidates it.
func (nc *NodeCache) Invalidate(indexID uint32, nodeIndex int) {
	nc.cache.Invalidate(nodeKey{indexID: indexID, nodeIndex: nodeIndex})
}
