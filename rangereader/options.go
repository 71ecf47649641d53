package rangereader

import "github.com/cityjson/flatcitybuf/option"

// Config holds the tunables a Reader is constructed with (SPEC_FULL.md
// §6.3): combine threshold for request batching, node cache size, and
// the payload-prefetch heuristic's cap/ratio. Reader itself acts only on
// CombineThreshold (in ReadRanges); it keeps no node cache, does no
// initial read-ahead and does no payload prefetch, so the other fields are
// only carried in the Config value.
type Config struct {
	CombineThreshold           int64
	MaxCachedNodes             int
	InitialPrefetch            int64
	PayloadPrefetchCap         int
	PayloadPrefetchMinDupRatio float64
}

func defaultConfig() *Config {
	return &Config{
		CombineThreshold:           DefaultCombineThreshold,
		MaxCachedNodes:             DefaultMaxCachedNodes,
		PayloadPrefetchCap:         DefaultPayloadPrefetchCap,
		PayloadPrefetchMinDupRatio: DefaultPayloadPrefetchMinDupRatio,
	}
}

// WithCombineThreshold sets the byte gap below which adjacent node/payload
// reads are coalesced into a single request.
func WithCombineThreshold(b int64) option.Option[*Config] {
	return option.NoError(func(c *Config) { c.CombineThreshold = b })
}

// WithNodeCacheSize sets Config.MaxCachedNodes, a decoded-node LRU
// capacity. Reader does not build a NodeCache from it.
func WithNodeCacheSize(n int) option.Option[*Config] {
	return option.NoError(func(c *Config) { c.MaxCachedNodes = n })
}

// WithInitialPrefetch sets Config.InitialPrefetch, a count of leading
// bytes of the source to read ahead. Reader does not read ahead; the value
// is only stored.
func WithInitialPrefetch(b int64) option.Option[*Config] {
	return option.NoError(func(c *Config) { c.InitialPrefetch = b })
}

// WithPayloadPrefetchCap sets Config.PayloadPrefetchCap, a cap on payload
// blocks prefetched per query. Reader and the query path do no payload
// prefetch, so the value is only stored.
func WithPayloadPrefetchCap(n int) option.Option[*Config] {
	return option.NoError(func(c *Config) { c.PayloadPrefetchCap = n })
}

// WithPayloadPrefetchMinDupRatio sets Config.PayloadPrefetchMinDupRatio,
// a minimum duplicate ratio for payload prefetch. Like
// PayloadPrefetchCap, it is only stored.
func WithPayloadPrefetchMinDupRatio(f float64) option.Option[*Config] {
	return option.NoError(func(c *Config) { c.PayloadPrefetchMinDupRatio = f })
}
