// Command fcb is the command-line front end for the FlatCityBuf
// container format: ser converts a CityJSONSeq stream into a .fcb
// container, deser converts one back, and info prints a container's
// header metadata. It is a thin collaborator over the fcb/cityjsonseq
// packages, not a second place where format or query logic lives.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	fcb "github.com/cityjson/flatcitybuf"
	"github.com/cityjson/flatcitybuf/cityjsonseq"
	"github.com/cityjson/flatcitybuf/container"
	"github.com/cityjson/flatcitybuf/errs"
	"github.com/cityjson/flatcitybuf/feature"
)

// Canonical exit codes (spec.md §6.2).
const (
	exitOK           = 0
	exitInvalidInput = 2
	exitFormatError  = 3
	exitIOError      = 4
	exitCancelled    = 5
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) == 0 {
		usage()

		return exitInvalidInput
	}

	ctx := context.Background()

	switch args[0] {
	case "ser":
		return runSer(ctx, args[1:])
	case "deser":
		return runDeser(ctx, args[1:])
	case "info":
		return runInfo(ctx, args[1:])
	case "-h", "--help", "help":
		usage()

		return exitOK
	default:
		fmt.Fprintf(os.Stderr, "fcb: unknown subcommand %q\n", args[0])
		usage()

		return exitInvalidInput
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage:
  fcb ser   -i <cityjson-seq> -o <fcb> [--attr-index name[,name...]] [--attr-branching-factor N] [--index-node-size N]
  fcb deser -i <fcb> -o <cityjson-seq>
  fcb info  -i <fcb>`)
}

// exitCode classifies err per spec.md §6.2/§7: format errors are fatal
// framing/encoding defects (3), transport/IO errors cover both real I/O
// and a cancelled context (4/5), everything else is treated as an
// invalid-input problem the caller can fix (2).
func exitCode(err error) int {
	if err == nil {
		return exitOK
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, errs.ErrCancelled) {
		return exitCancelled
	}

	var formatErr *errs.FormatError
	if errors.As(err, &formatErr) {
		return exitFormatError
	}

	var transportErr *errs.TransportError
	if errors.As(err, &transportErr) {
		return exitIOError
	}

	var buildErr *errs.BuildError
	if errors.As(err, &buildErr) {
		return exitInvalidInput
	}

	return exitInvalidInput
}

func runSer(ctx context.Context, args []string) int {
	fs := flag.NewFlagSet("ser", flag.ContinueOnError)

	in := fs.String("i", "", "input CityJSONSeq path")
	out := fs.String("o", "", "output .fcb path")
	attrIndex := fs.String("attr-index", "", "comma-separated column names to build attribute indexes for")
	attrBranching := fs.Uint("attr-branching-factor", 0, "S+Tree fan-out (0 = default)")
	indexNodeSize := fs.Uint("index-node-size", 0, "R-tree node fan-out (0 = default)")

	if err := fs.Parse(args); err != nil {
		return exitInvalidInput
	}

	if *in == "" || *out == "" {
		fmt.Fprintln(os.Stderr, "fcb ser: -i and -o are required")

		return exitInvalidInput
	}

	f, err := os.Open(*in)
	if err != nil {
		fmt.Fprintf(os.Stderr, "fcb ser: %v\n", err)

		return exitIOError
	}
	defer f.Close()

	r := bufio.NewReader(f)

	streamHeader, err := cityjsonseq.ReadHeader(r)
	if err != nil {
		fmt.Fprintf(os.Stderr, "fcb ser: reading header line: %v\n", err)

		return exitCode(err)
	}

	lines, err := readAllFeatureLines(r)
	if err != nil {
		fmt.Fprintf(os.Stderr, "fcb ser: reading feature lines: %v\n", err)

		return exitCode(err)
	}

	if len(lines) == 0 {
		fmt.Fprintln(os.Stderr, "fcb ser: input stream has no features")

		return exitInvalidInput
	}

	schema := cityjsonseq.DiscoverSchema(lines)

	inputs := make([]feature.Input, len(lines))

	for i, line := range lines {
		featureInput, err := cityjsonseq.ToInput(line, streamHeader.Transform, schema)
		if err != nil {
			fmt.Fprintf(os.Stderr, "fcb ser: converting feature %q: %v\n", line.ID, err)

			return exitInvalidInput
		}

		inputs[i] = featureInput
	}

	cfg := fcb.DefaultConfig()
	cfg.Transform = streamHeader.Transform.ToContainerTransform()
	cfg.GeographicalExtent = streamHeader.GeographicalExtent
	cfg.Metadata = streamHeader.Metadata
	cfg.Extensions = streamHeader.Extensions

	if *attrIndex != "" {
		cfg.IndexColumns = strings.Split(*attrIndex, ",")
	}

	if *attrBranching > 0 {
		cfg.AttrBranchingFactor = uint32(*attrBranching)
	}

	if *indexNodeSize > 0 {
		cfg.IndexNodeSize = uint32(*indexNodeSize)
	}

	if err := fcb.Create(*out, schema.Columns(), inputs, cfg); err != nil {
		fmt.Fprintf(os.Stderr, "fcb ser: %v\n", err)

		return exitCode(err)
	}

	return exitOK
}

func readAllFeatureLines(r *bufio.Reader) ([]cityjsonseq.FeatureLine, error) {
	var lines []cityjsonseq.FeatureLine

	for {
		line, err := cityjsonseq.ReadFeature(r)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return lines, nil
			}

			return nil, err
		}

		if line.ID == "" {
			continue
		}

		lines = append(lines, line)
	}
}

func runDeser(ctx context.Context, args []string) int {
	fs := flag.NewFlagSet("deser", flag.ContinueOnError)

	in := fs.String("i", "", "input .fcb path")
	out := fs.String("o", "", "output CityJSONSeq path")

	if err := fs.Parse(args); err != nil {
		return exitInvalidInput
	}

	if *in == "" || *out == "" {
		fmt.Fprintln(os.Stderr, "fcb deser: -i and -o are required")

		return exitInvalidInput
	}

	r, err := fcb.Open(ctx, *in)
	if err != nil {
		fmt.Fprintf(os.Stderr, "fcb deser: %v\n", err)

		return exitCode(err)
	}
	defer r.Close()

	out2, err := os.Create(*out)
	if err != nil {
		fmt.Fprintf(os.Stderr, "fcb deser: %v\n", err)

		return exitIOError
	}
	defer out2.Close()

	w := bufio.NewWriter(out2)

	schema := cityjsonseq.NewSchema(r.Header().Columns)
	transform := cityjsonseq.TransformFromContainer(r.Header().Transform)

	outHeader := cityjsonseq.Header{
		Transform:          transform,
		GeographicalExtent: r.Header().GeographicalExtent,
		Metadata:           r.Header().Metadata,
		Extensions:         r.Header().Extensions,
	}

	if err := cityjsonseq.WriteHeader(w, outHeader); err != nil {
		fmt.Fprintf(os.Stderr, "fcb deser: %v\n", err)

		return exitIOError
	}

	i := 0

	for rec, err := range r.All(ctx) {
		if err != nil {
			fmt.Fprintf(os.Stderr, "fcb deser: %v\n", err)

			return exitCode(err)
		}

		id := fmt.Sprintf("feature-%d", i)
		i++

		line, err := cityjsonseq.FromRecord(id, rec, schema, transform)
		if err != nil {
			fmt.Fprintf(os.Stderr, "fcb deser: converting feature %q: %v\n", id, err)

			return exitInvalidInput
		}

		if err := cityjsonseq.WriteFeature(w, line); err != nil {
			fmt.Fprintf(os.Stderr, "fcb deser: %v\n", err)

			return exitIOError
		}
	}

	if err := w.Flush(); err != nil {
		fmt.Fprintf(os.Stderr, "fcb deser: %v\n", err)

		return exitIOError
	}

	return exitOK
}

func runInfo(ctx context.Context, args []string) int {
	fs := flag.NewFlagSet("info", flag.ContinueOnError)

	in := fs.String("i", "", "input .fcb path")

	if err := fs.Parse(args); err != nil {
		return exitInvalidInput
	}

	if *in == "" {
		fmt.Fprintln(os.Stderr, "fcb info: -i is required")

		return exitInvalidInput
	}

	c, err := container.Open(*in)
	if err != nil {
		fmt.Fprintf(os.Stderr, "fcb info: %v\n", err)

		return exitCode(err)
	}
	defer c.Close()

	h := c.Header

	fmt.Printf("version:                %d\n", h.Version)
	fmt.Printf("features:               %d\n", h.FeatureCount)
	fmt.Printf("index node size:        %d\n", h.IndexNodeSize)
	fmt.Printf("attr branching factor:  %d\n", h.AttrBranchingFactor)
	fmt.Printf("payload block capacity: %d\n", h.PayloadBlockCapacity)
	fmt.Printf("columns (%d):\n", len(h.Columns))

	for i, col := range h.Columns {
		fmt.Printf("  [%d] %s (%s)\n", i, col.Name, col.Type)
	}

	fmt.Printf("attribute indexes (%d):\n", len(h.AttrIndex))

	for _, a := range h.AttrIndex {
		name := "?"
		if int(a.ColumnOrdinal) < len(h.Columns) {
			name = h.Columns[a.ColumnOrdinal].Name
		}

		fmt.Printf("  %s: items=%d branching=%d compression=%s\n", name, a.NumItems, a.BranchingFactor, a.Compression)
	}

	fmt.Printf("r-tree:    offset=%d length=%d features=%d node_size=%d\n",
		h.RTree.Offset, h.RTree.Length, h.RTree.NumFeatures, h.RTree.NodeSize)
	fmt.Printf("features section: offset=%d length=%d\n", h.Features.Offset, h.Features.Length)

	return exitOK
}
