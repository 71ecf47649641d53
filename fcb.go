// Package fcb is the convenience entry point over FlatCityBuf's core
// packages: it wires container, rtree, sptree, multiindex, rangereader,
// and query together behind a Create/Open pair so callers (cmd/fcb,
// or any Go program embedding this module) do not need to hand-assemble
// a Driver themselves. Callers who need finer control — a custom
// selectivity heuristic, a non-default rangereader.Config — use the
// underlying packages directly; this file is sugar, not a second API
// surface with its own semantics.
package fcb

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"

	"github.com/cityjson/flatcitybuf/citygeom"
	"github.com/cityjson/flatcitybuf/compress"
	"github.com/cityjson/flatcitybuf/container"
	"github.com/cityjson/flatcitybuf/feature"
	"github.com/cityjson/flatcitybuf/format"
	"github.com/cityjson/flatcitybuf/keycodec"
	"github.com/cityjson/flatcitybuf/multiindex"
	"github.com/cityjson/flatcitybuf/option"
	"github.com/cityjson/flatcitybuf/query"
	"github.com/cityjson/flatcitybuf/rangereader"
	"github.com/cityjson/flatcitybuf/rtree"
	"github.com/cityjson/flatcitybuf/rtree/hilbert"
	"github.com/cityjson/flatcitybuf/sptree"
)

// Config tunes the shape of a container Create builds: node fan-outs,
// attribute-index payload capacity, compression, and which columns get
// an S+Tree at all (a column absent from IndexColumns is still stored
// in every feature record's attribute table, just not separately
// indexed). Transform, GeographicalExtent, Metadata, and Extensions are
// not tunables but a straight passthrough of the CityJSON Header-level
// fields (spec.md §3.1) the container's own Header should carry; they
// default to the zero value (identity transform, no extent/metadata/
// extensions) when a caller has none to supply.
type Config struct {
	IndexNodeSize        uint32
	AttrBranchingFactor  uint32
	PayloadBlockCapacity uint32
	Compression          format.CompressionType
	IndexColumns         []string
	StringKeyPrefixWidth int

	Transform          container.Transform
	GeographicalExtent []float64
	Metadata           json.RawMessage
	Extensions         json.RawMessage

	// GeometryTemplates is likewise a passthrough: the header-owned
	// template array spec.md §4.2 requires. A caller whose feature
	// inputs carry GeometryInstance references must supply the same
	// templates those TemplateIndex values resolve against.
	GeometryTemplates []citygeom.GeometryTemplate
}

// DefaultConfig returns the tunables this package uses when the caller
// does not override them.
func DefaultConfig() Config {
	return Config{
		IndexNodeSize:        rtree.DefaultNodeSize,
		AttrBranchingFactor:  sptree.DefaultArity,
		PayloadBlockCapacity: 8,
		Compression:          format.CompressionZstd,
		StringKeyPrefixWidth: 16,
	}
}

// Create builds a container file at path from columns (the fixed
// attribute schema every input's Attributes are ordinal-addressed
// against) and inputs (one per feature). Every sptree.Entry for a given
// indexed column is built by grouping inputs that share that column's
// key, matching the "group duplicates before Build" contract sptree.Build
// documents.
//
// Feature records are written to the feature section in Hilbert order
// (spec.md §3.3's "feature records are written in spatial-Hilbert
// order"), not in inputs' given order: Create computes each feature's
// Hilbert value up front, sorts feature indices by it, and walks that
// order when assembling featureBytes, so each record's byte offset comes
// out ascending in the same order rtree.Build's own Hilbert sort (made
// stable to match) will place it at the leaf level — query.Driver's
// implicit-size derivation (recordLength, spec.md §4.4) depends on
// exactly that: ascending, gap-free offsets in leaf order.
func Create(path string, columns []container.ColumnDescriptor, inputs []feature.Input, cfg Config) error {
	if len(inputs) == 0 {
		return fmt.Errorf("fcb: cannot build a container with zero features")
	}

	if cfg.IndexNodeSize == 0 {
		cfg.IndexNodeSize = rtree.DefaultNodeSize
	}

	if cfg.AttrBranchingFactor == 0 {
		cfg.AttrBranchingFactor = sptree.DefaultArity
	}

	if cfg.PayloadBlockCapacity == 0 {
		cfg.PayloadBlockCapacity = 8
	}

	if cfg.StringKeyPrefixWidth == 0 {
		cfg.StringKeyPrefixWidth = 16
	}

	colByName := make(map[string]int, len(columns))
	for i, c := range columns {
		colByName[c.Name] = i
	}

	extent := rtree.EmptyBox
	for _, in := range inputs {
		extent.Expand(rtree.Box{MinX: in.MBR[0], MinY: in.MBR[1], MaxX: in.MBR[2], MaxY: in.MBR[3]})
	}

	hilberts := make([]uint64, len(inputs))
	order := make([]int, len(inputs))

	for i, in := range inputs {
		box := rtree.Box{MinX: in.MBR[0], MinY: in.MBR[1], MaxX: in.MBR[2], MaxY: in.MBR[3]}
		cx, cy := box.Centroid()

		hilberts[i] = hilbert.CentroidOf(cx, cy, extent.MinX, extent.MinY, extent.MaxX, extent.MaxY)
		order[i] = i
	}

	sort.SliceStable(order, func(a, b int) bool { return hilberts[order[a]] < hilberts[order[b]] })

	var featureBytes []byte

	refs := make([]rtree.Ref, len(inputs))

	idx := newAttrIndexBuilder(cfg.IndexColumns)

	for pos, i := range order {
		in := inputs[i]

		rec, err := feature.Build(in)
		if err != nil {
			return fmt.Errorf("fcb: build feature %d: %w", i, err)
		}

		offset := int64(len(featureBytes))
		featureBytes = append(featureBytes, rec...)

		box := rtree.Box{MinX: in.MBR[0], MinY: in.MBR[1], MaxX: in.MBR[2], MaxY: in.MBR[3]}

		refs[pos] = rtree.Ref{
			Box:     box,
			Offset:  offset,
			Hilbert: hilberts[i],
		}

		if err := idx.add(in, offset, columns, cfg); err != nil {
			return fmt.Errorf("fcb: index feature %d: %w", i, err)
		}
	}

	spatial, err := rtree.Build(refs, int(cfg.IndexNodeSize)) //nolint: gosec
	if err != nil {
		return fmt.Errorf("fcb: build spatial index: %w", err)
	}

	attrIndexes, err := idx.build(columns, colByName, cfg)
	if err != nil {
		return err
	}

	in := container.BuildInput{
		Columns:              columns,
		FeatureCount:         uint32(len(inputs)), //nolint: gosec
		IndexNodeSize:        cfg.IndexNodeSize,
		AttrBranchingFactor:  cfg.AttrBranchingFactor,
		PayloadBlockCapacity: cfg.PayloadBlockCapacity,
		Transform:            cfg.Transform,
		GeographicalExtent:   cfg.GeographicalExtent,
		Metadata:             cfg.Metadata,
		Extensions:           cfg.Extensions,
		GeometryTemplates:    cfg.GeometryTemplates,
		RTreeBytes:           spatial.Encode(),
		RTreeNumRef:          uint32(len(inputs)), //nolint: gosec
		AttrIndexes:          attrIndexes,
		FeatureBytes:         featureBytes,
	}

	return container.Create(path, in)
}

// keyGroup accumulates the offsets sharing one indexed column's encoded
// key, matching sptree.Build's "group duplicates before Build" contract.
// suffix/hasSuf carry the one pre-truncation string value attached to
// every offset in the group, for columns needing a suffix table.
type keyGroup struct {
	key     []byte
	suffix  string
	hasSuf  bool
	offsets []int64
}

// attrIndexBuilder accumulates keyGroups per indexed column across a
// single Create call's feature loop. byKey gives add O(1) amortized
// lookup per attribute instead of rescanning groups[column] on every
// call.
type attrIndexBuilder struct {
	groups map[string][]*keyGroup
	byKey  map[string]map[string]*keyGroup
}

func newAttrIndexBuilder(columns []string) *attrIndexBuilder {
	b := &attrIndexBuilder{
		groups: make(map[string][]*keyGroup, len(columns)),
		byKey:  make(map[string]map[string]*keyGroup, len(columns)),
	}

	for _, name := range columns {
		b.groups[name] = nil
		b.byKey[name] = make(map[string]*keyGroup)
	}

	return b
}

// add records in's indexed attributes at offset, keying each into its
// column's keyGroup set.
func (b *attrIndexBuilder) add(in feature.Input, offset int64, columns []container.ColumnDescriptor, cfg Config) error {
	for _, attr := range in.Attributes {
		if int(attr.Ordinal) >= len(columns) {
			continue
		}

		col := columns[attr.Ordinal]

		if _, indexed := b.groups[col.Name]; !indexed {
			continue
		}

		v, err := feature.DecodeValue(attr.Raw, col.Type)
		if err != nil {
			return err
		}

		width := keycodec.Width(col.Type)
		if col.Type == format.ColumnString {
			width = cfg.StringKeyPrefixWidth
		}

		key, err := keycodec.Encode(v, col.Type, width)
		if err != nil {
			return err
		}

		k := string(key)

		g, ok := b.byKey[col.Name][k]
		if !ok {
			g = &keyGroup{key: key}

			if col.Type == format.ColumnString {
				if s, ok := v.(string); ok {
					g.suffix = s
					g.hasSuf = true
				}
			}

			b.groups[col.Name] = append(b.groups[col.Name], g)
			b.byKey[col.Name][k] = g
		}

		g.offsets = append(g.offsets, offset)
	}

	return nil
}

// build turns every accumulated column's keyGroups into a sorted
// sptree.Entry list and runs sptree.Build over it, one
// container.AttrIndexInput per cfg.IndexColumns entry.
func (b *attrIndexBuilder) build(columns []container.ColumnDescriptor, colByName map[string]int, cfg Config) ([]container.AttrIndexInput, error) {
	out := make([]container.AttrIndexInput, 0, len(cfg.IndexColumns))

	for _, name := range cfg.IndexColumns {
		ordinal, ok := colByName[name]
		if !ok {
			return nil, fmt.Errorf("fcb: index column %q not present in schema", name)
		}

		col := columns[ordinal]

		gs := b.groups[name]
		sort.Slice(gs, func(i, j int) bool { return keycodec.Compare(gs[i].key, gs[j].key) < 0 })

		entries := make([]sptree.Entry, len(gs))

		var suffixEntries []sptree.SuffixEntry

		for i, g := range gs {
			entries[i] = sptree.Entry{Key: g.key, Offsets: g.offsets}

			if g.hasSuf {
				for _, off := range g.offsets {
					suffixEntries = append(suffixEntries, sptree.SuffixEntry{Offset: off, Value: g.suffix})
				}
			}
		}

		width := keycodec.Width(col.Type)
		if col.Type == format.ColumnString {
			width = cfg.StringKeyPrefixWidth
		}

		tree, err := sptree.Build(entries, width, int(cfg.AttrBranchingFactor), int(cfg.PayloadBlockCapacity), suffixEntries) //nolint: gosec
		if err != nil {
			return nil, fmt.Errorf("fcb: build attribute index %q: %w", name, err)
		}

		out = append(out, container.AttrIndexInput{
			ColumnOrdinal:   uint16(ordinal),                  //nolint: gosec
			BranchingFactor: uint16(cfg.AttrBranchingFactor),  //nolint: gosec
			NumItems:        uint32(len(entries)),             //nolint: gosec
			KeyWidth:        uint16(width),                    //nolint: gosec
			PayloadCapacity: uint16(cfg.PayloadBlockCapacity), //nolint: gosec
			Compression:     cfg.Compression,
			IndexBytes:      tree.Encode(),
			PayloadBytes:    tree.Payload(),
			SuffixBytes:     encodeSuffixTable(suffixEntries),
		})
	}

	return out, nil
}

func encodeSuffixTable(entries []sptree.SuffixEntry) []byte {
	if len(entries) == 0 {
		return nil
	}

	return sptree.NewSuffixTable(entries).Encode()
}

// Reader is an opened container ready to be queried, local or remote.
// It owns the underlying rangereader.Source (via reader) and must be
// Closed. Both Open and OpenHTTP resolve down to the same
// rangereader.Source + container.Header shape, so loadIndexes and
// newReader have no local/remote split to maintain.
type Reader struct {
	header  *container.Header
	reader  *rangereader.Reader
	spatial *rtree.Tree
	driver  *query.Driver
	close   func() error
}

// Open opens a local container file at path.
func Open(ctx context.Context, path string, opts ...option.Option[*rangereader.Config]) (*Reader, error) {
	src, err := rangereader.OpenLocal(path)
	if err != nil {
		return nil, err
	}

	r, err := newReader(ctx, src, opts)
	if err != nil {
		_ = src.Close()

		return nil, err
	}

	return r, nil
}

// OpenHTTP opens a remote container served at url over HTTP range
// requests. The container's header is fetched via one small range
// request before the header length is known, matching the teacher's
// two-phase magic-then-header open sequence.
func OpenHTTP(ctx context.Context, client *http.Client, url string, httpOpts []option.Option[*rangereader.HTTP], readerOpts ...option.Option[*rangereader.Config]) (*Reader, error) {
	h, err := rangereader.NewHTTP(client, url, httpOpts...)
	if err != nil {
		return nil, err
	}

	r, err := newReader(ctx, h, readerOpts)
	if err != nil {
		_ = h.Close()

		return nil, err
	}

	return r, nil
}

func newReader(ctx context.Context, src rangereader.Source, opts []option.Option[*rangereader.Config]) (*Reader, error) {
	header, err := container.OpenHeaderFromSource(ctx, src)
	if err != nil {
		return nil, err
	}

	reader, err := rangereader.New(src, opts...)
	if err != nil {
		return nil, err
	}

	spatial, attrTrees, err := loadIndexes(ctx, header, src)
	if err != nil {
		_ = reader.Close()

		return nil, err
	}

	index := multiindex.New(attrTrees, spatial, nil)
	driver := query.NewDriver(header, reader, index, spatial)

	return &Reader{
		header:  header,
		reader:  reader,
		spatial: spatial,
		driver:  driver,
		close:   reader.Close,
	}, nil
}

func loadIndexes(ctx context.Context, header *container.Header, src rangereader.Source) (*rtree.Tree, map[string]*sptree.Tree, error) {
	rtreeBytes, err := container.ReadSectionFromSource(ctx, src, header.RTree.Offset, header.RTree.Length)
	if err != nil {
		return nil, nil, err
	}

	spatial, err := rtree.Decode(rtreeBytes, int(header.RTree.NumFeatures), int(header.RTree.NodeSize))
	if err != nil {
		return nil, nil, err
	}

	trees := make(map[string]*sptree.Tree, len(header.AttrIndex))

	for _, ai := range header.AttrIndex {
		if int(ai.ColumnOrdinal) >= len(header.Columns) {
			continue
		}

		idxBytes, err := container.ReadSectionFromSource(ctx, src, ai.IndexOffset, ai.IndexLen)
		if err != nil {
			return nil, nil, err
		}

		codec, err := compress.For(ai.Compression)
		if err != nil {
			return nil, nil, err
		}

		payloadRaw, err := container.ReadSectionFromSource(ctx, src, ai.PayloadOffset, ai.PayloadLen)
		if err != nil {
			return nil, nil, err
		}

		payloadBytes, err := codec.Decompress(payloadRaw, int(ai.PayloadRawLen)) //nolint: gosec
		if err != nil {
			return nil, nil, err
		}

		var suffix *sptree.SuffixTable

		if ai.SuffixLen > 0 {
			suffixRaw, err := container.ReadSectionFromSource(ctx, src, ai.SuffixOffset, ai.SuffixLen)
			if err != nil {
				return nil, nil, err
			}

			suffixBytes, err := codec.Decompress(suffixRaw, int(ai.SuffixRawLen)) //nolint: gosec
			if err != nil {
				return nil, nil, err
			}

			suffix, _, err = sptree.DecodeSuffixTable(suffixBytes)
			if err != nil {
				return nil, nil, err
			}
		}

		tree, err := sptree.Decode(idxBytes, payloadBytes, int(ai.PayloadCapacity), suffix)
		if err != nil {
			return nil, nil, err
		}

		trees[header.Columns[ai.ColumnOrdinal].Name] = tree
	}

	return spatial, trees, nil
}

// Query runs q against the opened container, streaming matching
// decoded feature records.
func (r *Reader) Query(ctx context.Context, q multiindex.Query) func(yield func(*feature.Record, error) bool) {
	return r.driver.Run(ctx, q)
}

// All streams every feature record in the container, in ascending
// feature-offset order. It runs a bbox query against the spatial
// index's own bounds rather than bypassing the index: every feature's
// MBR is by construction contained in that union, so every leaf
// matches, and cmd/fcb's deser path gets the same batched range-read
// behavior as any other query instead of a separate full-scan code
// path.
func (r *Reader) All(ctx context.Context) func(yield func(*feature.Record, error) bool) {
	bounds := r.spatial.Bounds()

	return r.driver.Run(ctx, multiindex.Query{Spatial: &multiindex.Spatial{BBox: &bounds}})
}

// Header exposes the container's parsed header, e.g. for cmd/fcb's info
// subcommand.
func (r *Reader) Header() *container.Header {
	return r.header
}

// Close releases the reader's underlying source.
func (r *Reader) Close() error {
	return r.close()
}
