// Package npview previews scientific binary array files without a
// numerical runtime.
//
// It decodes NumPy .npy headers and payloads, enumerates .npz archives,
// and reduces arbitrarily large arrays to small, deterministic previews
// under a hard memory ceiling. Every parse produces one MetaInfo record
// and one root tree.Node; the tree is the only shape downstream consumers
// need to understand, regardless of the source format.
//
// # Basic Usage
//
//	res, err := npview.Parse("weights.npy",
//	    npview.WithSampleSize(100),
//	    npview.WithMaxMemory(512<<20),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(res.Meta.Format, res.Root.Meta.Shape)
//
// Pre-decoded structured values (nested mappings and sequences from
// external format decoders) enter through ParseValue and produce the same
// tree shape.
package npview

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/go-kit/log/level"

	"github.com/minghsu/npview/dtype"
	"github.com/minghsu/npview/endian"
	"github.com/minghsu/npview/errs"
	"github.com/minghsu/npview/internal/options"
	"github.com/minghsu/npview/npy"
	"github.com/minghsu/npview/npz"
	"github.com/minghsu/npview/reader"
	"github.com/minghsu/npview/sample"
	"github.com/minghsu/npview/tree"
)

// zipMagic is the local-file-header signature of a ZIP container, which is
// what an .npz archive is.
var zipMagic = []byte{'P', 'K', 0x03, 0x04}

// MetaInfo is the per-file descriptive record of one parse.
type MetaInfo struct {
	FileName string
	// Format is the declared format tag: "npy", "npz", or "object".
	Format   string
	FileSize int64
	// ElementType, Shape and Order are set for array formats.
	ElementType dtype.ElementType
	Shape       []int
	Order       dtype.ByteOrder
	// Members lists archive member keys in archive order.
	Members []string
	ModTime time.Time
	// PreviewSize is how many top-level items were materialized, not the
	// true size.
	PreviewSize int
	// Sampled records whether the preview was stride-decimated rather
	// than decoded in full.
	Sampled bool
	// Window records what a 2-D table view cut, when one was built.
	Window *sample.Truncation
	// Fingerprint is the xxhash64 of the file's header region, a cheap
	// identity for caching layers.
	Fingerprint uint64
}

// Result is one parsed file: its metadata and its root tree node. Nodes
// are owned exclusively by this result and never shared across files.
type Result struct {
	Meta MetaInfo
	Root *tree.Node
}

// Parse previews the file at path.
//
// The format is detected by header sniff: the NPY magic wins first, then
// the ZIP signature (an .npz archive), with the file extension as a
// fallback for empty or ambiguous heads. Unrecognized content is a
// FormatError.
//
// Memory use is bounded by the configured ceiling regardless of file
// size; large arrays are previewed through ranged reads without ever
// materializing the payload.
func Parse(path string, opts ...Option) (*Result, error) {
	cfg := defaultConfig()
	if err := options.Apply(&cfg, opts...); err != nil {
		return nil, err
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, errs.WrapIO("stat", path, err)
	}

	r := reader.New(cfg.ChunkSize, cfg.MaxMemory, cfg.Logger)
	head, err := r.ReadHeader(path, int64(len(npy.Magic)))
	if err != nil {
		return nil, err
	}

	switch {
	case bytes.HasPrefix(head, npy.Magic):
		return parseNpy(path, info, r, &cfg)
	case bytes.HasPrefix(head, zipMagic), strings.EqualFold(filepath.Ext(path), ".npz"):
		return parseNpz(path, info, &cfg)
	default:
		return nil, errs.Formatf("unrecognized file format for %s", filepath.Base(path))
	}
}

// ParseValue builds a Result from an already-materialized structured value,
// the entry point for external format decoders (nested mappings, sequences,
// scalars). Long sequences are decimated to the configured sample bound
// before tree construction.
func ParseValue(name string, v any, opts ...Option) (*Result, error) {
	cfg := defaultConfig()
	if err := options.Apply(&cfg, opts...); err != nil {
		return nil, err
	}

	bound := cfg.sampleBound()
	root := tree.FromValue(nil, decimateValue(v, bound))

	meta := MetaInfo{
		FileName:    name,
		Format:      "object",
		ModTime:     time.Now(),
		PreviewSize: len(root.Children),
		Fingerprint: xxhash.Sum64String(name),
	}
	if meta.PreviewSize == 0 {
		meta.PreviewSize = 1
	}

	return &Result{Meta: meta, Root: root}, nil
}

// decimateValue applies the 1-D sampling law to every sequence in a
// collaborator value, recursively, leaving structure intact.
func decimateValue(v any, bound int) any {
	switch val := v.(type) {
	case []tree.Entry:
		out := make([]tree.Entry, len(val))
		for i, e := range val {
			out[i] = tree.Entry{Key: e.Key, Value: decimateValue(e.Value, bound)}
		}

		return out
	case []any:
		cut := sample.Decimate(val, bound)
		out := make([]any, len(cut))
		for i, item := range cut {
			out[i] = decimateValue(item, bound)
		}

		return out
	default:
		return v
	}
}

func parseNpy(path string, info os.FileInfo, r *reader.Reader, cfg *Config) (*Result, error) {
	bound := cfg.sampleBound()

	// Read just enough to size the header, then the header itself.
	pre, err := r.ReadHeader(path, 12)
	if err != nil {
		return nil, err
	}
	h, headerBytes, err := readFullHeader(path, pre, r)
	if err != nil {
		return nil, err
	}

	engine := endian.EngineFor(h.DType.Order)
	n := h.ElementCount()

	meta := MetaInfo{
		FileName:    filepath.Base(path),
		Format:      "npy",
		FileSize:    info.Size(),
		ElementType: h.DType.Type,
		Shape:       h.Shape,
		Order:       h.DType.Order,
		ModTime:     info.ModTime(),
		Fingerprint: xxhash.Sum64(headerBytes),
	}

	// 2-D C-order arrays get the table window: head-truncated rows and
	// columns read contiguously, not a strided scatter.
	if len(h.Shape) == 2 && !h.FortranOrder {
		rows, tr, err := readTable(path, r, &h, engine, cfg)
		if err != nil {
			return nil, err
		}

		meta.Window = &tr
		meta.PreviewSize = tr.Rows
		root := tree.NewArray(nil, rows, &tree.ArrayMeta{
			ElementType: h.DType.Type,
			Shape:       h.Shape,
			Size:        n,
		})

		return &Result{Meta: meta, Root: root}, nil
	}

	res, err := readFlat(path, r, &h, engine, bound, info.Size(), cfg)
	if err != nil {
		return nil, err
	}

	level.Debug(cfg.Logger).Log("msg", "decoded npy preview", "path", path,
		"elements", n, "previewed", len(res.Values), "sampled", res.Sampled)

	meta.PreviewSize = len(res.Values)
	meta.Sampled = res.Sampled
	root := tree.NewArray(nil, res.Values, &tree.ArrayMeta{
		ElementType: h.DType.Type,
		Shape:       h.Shape,
		Size:        n,
	})

	return &Result{Meta: meta, Root: root}, nil
}

// readFullHeader parses the version prefix to learn the header length, then
// reads and parses the complete header region.
func readFullHeader(path string, pre []byte, r *reader.Reader) (npy.Header, []byte, error) {
	if len(pre) < 10 {
		return npy.Header{}, nil, errs.Formatf("file too short for npy header: %d bytes", len(pre))
	}

	// Length field is little-endian in every version; see npy.ParseHeader.
	var dataOffset int64
	if pre[6] == 1 {
		dataOffset = 10 + (int64(pre[8]) | int64(pre[9])<<8)
	} else {
		if len(pre) < 12 {
			return npy.Header{}, nil, errs.Formatf("file too short for npy v%d header", pre[6])
		}
		dataOffset = 12 + (int64(pre[8]) | int64(pre[9])<<8 | int64(pre[10])<<16 | int64(pre[11])<<24)
	}

	headerBytes, err := r.ReadHeader(path, dataOffset)
	if err != nil {
		return npy.Header{}, nil, err
	}

	h, err := npy.ParseHeader(headerBytes)
	if err != nil {
		return npy.Header{}, nil, err
	}

	return h, headerBytes, nil
}

// readFlat previews a flat (or flattened) array. Files that fit the memory
// ceiling stream through the chunked path and decode in memory; larger
// files are stride-sampled with one ranged read per element.
func readFlat(path string, r *reader.Reader, h *npy.Header, engine endian.EndianEngine, bound int, fileSize int64, cfg *Config) (npy.DecodeResult, error) {
	n := h.ElementCount()
	width := h.DType.ElementWidth()

	if fileSize <= cfg.MaxMemory {
		buf, err := r.ReadAll(path)
		if err != nil {
			return npy.DecodeResult{}, err
		}
		_, res, err := npy.Decode(buf, bound)

		return res, err
	}

	data, err := r.SampleData(path, bound, width, int64(h.DataOffset))
	if err != nil {
		return npy.DecodeResult{}, err
	}

	count := len(data) / width
	res, err := npy.DecodeValues(data, 0, count, h.DType, engine)
	if err != nil {
		return npy.DecodeResult{}, err
	}

	// Sampled means a stride was actually applied, which the reader does
	// only when the payload holds more elements than the bound. A payload
	// merely shorter than the declared shape is a truncation, not a
	// sample.
	present := (fileSize - int64(h.DataOffset)) / int64(width)
	res.Sampled = present > int64(bound)
	if present < int64(n) {
		res.Truncated = &errs.BufferUnderrunError{
			Requested: h.DataOffset + n*width,
			Available: int(fileSize),
		}
	}

	return res, nil
}

// readTable previews a 2-D C-order array as head-truncated rows, reading
// only the leading window of each leading row.
func readTable(path string, r *reader.Reader, h *npy.Header, engine endian.EndianEngine, cfg *Config) ([][]any, sample.Truncation, error) {
	totalRows, totalCols := h.Shape[0], h.Shape[1]
	width := h.DType.ElementWidth()

	nr := min(totalRows, cfg.MaxRows)
	nc := min(totalCols, cfg.MaxCols)

	rows := make([][]any, 0, nr)
	for i := 0; i < nr; i++ {
		start := int64(h.DataOffset) + int64(i)*int64(totalCols)*int64(width)
		data, err := r.ReadRange(path, start, start+int64(nc*width)-1)
		if err != nil {
			return nil, sample.Truncation{}, err
		}

		res, err := npy.DecodeValues(data, 0, nc, h.DType, engine)
		if err != nil {
			return nil, sample.Truncation{}, err
		}
		rows = append(rows, res.Values)
	}

	tr := sample.Truncation{
		TotalRows: totalRows,
		TotalCols: totalCols,
		Rows:      nr,
		Cols:      nc,
		RowsCut:   nr < totalRows,
		ColsCut:   nc < totalCols,
	}

	return rows, tr, nil
}

func parseNpz(path string, info os.FileInfo, cfg *Config) (*Result, error) {
	arc, err := npz.Open(path, cfg.sampleBound())
	if err != nil {
		return nil, err
	}

	name := filepath.Base(path)
	children := make([]*tree.Node, 0, len(arc.Members))
	for _, m := range arc.Members {
		memberPath := []string{m.Name}
		if m.Err != nil {
			level.Debug(cfg.Logger).Log("msg", "npz member degraded to raw entry",
				"member", m.Name, "err", m.Err)
			children = append(children,
				tree.NewScalar(memberPath, fmt.Sprintf("raw member (%d bytes)", m.Size)))
			continue
		}

		children = append(children, tree.NewArray(memberPath, m.Preview.Values, &tree.ArrayMeta{
			ElementType: m.Header.DType.Type,
			Shape:       m.Header.Shape,
			Size:        m.Header.ElementCount(),
		}))
	}

	keys := arc.Keys()
	meta := MetaInfo{
		FileName:    name,
		Format:      "npz",
		FileSize:    info.Size(),
		Members:     keys,
		ModTime:     info.ModTime(),
		PreviewSize: len(children),
		Fingerprint: xxhash.Sum64String(strings.Join(keys, "\x00")),
	}

	return &Result{Meta: meta, Root: tree.NewObject(nil, children)}, nil
}
