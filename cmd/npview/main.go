// Command npview prints a bounded preview of a scientific binary array
// file (.npy, .npz) as an indented tree.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/alecthomas/kingpin/v2"
	"github.com/c2h5oh/datasize"
	"github.com/dustin/go-humanize"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"github.com/minghsu/npview"
	"github.com/minghsu/npview/tree"
)

func main() {
	var (
		app        = kingpin.New("npview", "Preview scientific binary array files without a numerical runtime.")
		sampleSize = app.Flag("sample-size", "Maximum previewed elements per array.").Default("100").Int()
		maxRows    = app.Flag("max-rows", "Maximum rows shown for 2-D arrays.").Default("20").Int()
		maxCols    = app.Flag("max-cols", "Maximum columns shown for 2-D arrays.").Default("10").Int()
		chunkSize  = app.Flag("chunk-size", "Bytes per streamed read chunk.").Default("1MB").String()
		maxMemory  = app.Flag("max-memory", "Memory ceiling for one read session.").Default("512MB").String()
		logLevel   = app.Flag("log-level", "Log verbosity.").Default("info").Enum("debug", "info", "warn", "error")
		path       = app.Arg("file", "File to preview.").Required().ExistingFile()
	)
	kingpin.MustParse(app.Parse(os.Args[1:]))

	logger := newLogger(*logLevel)

	var chunk, mem datasize.ByteSize
	if err := chunk.UnmarshalText([]byte(*chunkSize)); err != nil {
		fatal(logger, "bad --chunk-size", err)
	}
	if err := mem.UnmarshalText([]byte(*maxMemory)); err != nil {
		fatal(logger, "bad --max-memory", err)
	}

	res, err := npview.Parse(*path,
		npview.WithSampleSize(*sampleSize),
		npview.WithTableWindow(*maxRows, *maxCols),
		npview.WithChunkSize(int(chunk.Bytes())),
		npview.WithMaxMemory(int64(mem.Bytes())),
		npview.WithLogger(logger),
	)
	if err != nil {
		fatal(logger, "parse failed", err)
	}

	printMeta(res.Meta)
	printNode(res.Root, 0)
}

func newLogger(lvl string) log.Logger {
	logger := log.NewLogfmtLogger(log.NewSyncWriter(os.Stderr))
	opt := level.AllowInfo()
	switch lvl {
	case "debug":
		opt = level.AllowDebug()
	case "warn":
		opt = level.AllowWarn()
	case "error":
		opt = level.AllowError()
	}

	return level.NewFilter(logger, opt)
}

func fatal(logger log.Logger, msg string, err error) {
	level.Error(logger).Log("msg", msg, "err", err)
	os.Exit(1)
}

func printMeta(m npview.MetaInfo) {
	fmt.Printf("%s  %s  %s\n", m.FileName, m.Format, humanize.Bytes(uint64(m.FileSize)))
	if len(m.Shape) > 0 {
		fmt.Printf("  dtype=%s shape=%v order=%s\n", m.ElementType, m.Shape, m.Order)
	}
	if len(m.Members) > 0 {
		fmt.Printf("  members=%s\n", strings.Join(m.Members, ", "))
	}
	if w := m.Window; w != nil && (w.RowsCut || w.ColsCut) {
		fmt.Printf("  showing %d of %d rows, %d of %d columns\n",
			w.Rows, w.TotalRows, w.Cols, w.TotalCols)
	}
}

func printNode(n *tree.Node, depth int) {
	indent := strings.Repeat("  ", depth)
	label := n.Key
	if label == "" {
		label = "."
	}

	switch {
	case n.IsLeaf() && n.Meta != nil:
		fmt.Printf("%s%s: %s shape=%v n=%s\n", indent, label, n.Meta.ElementType,
			n.Meta.Shape, humanize.Comma(int64(n.Meta.Size)))
		if vs, ok := n.Value.([]any); ok {
			fmt.Printf("%s  %s\n", indent, previewValues(vs))
		}
		if rows, ok := n.Value.([][]any); ok {
			for _, row := range rows {
				fmt.Printf("%s  %s\n", indent, previewValues(row))
			}
		}
	case n.IsLeaf():
		fmt.Printf("%s%s: %v\n", indent, label, n.Value)
	default:
		fmt.Printf("%s%s/\n", indent, label)
		for _, c := range n.Children {
			printNode(c, depth+1)
		}
	}
}

func previewValues(vs []any) string {
	const maxShown = 12

	parts := make([]string, 0, min(len(vs), maxShown)+1)
	for i, v := range vs {
		if i == maxShown {
			parts = append(parts, "...")
			break
		}
		parts = append(parts, fmt.Sprintf("%v", v))
	}

	return "[" + strings.Join(parts, " ") + "]"
}
