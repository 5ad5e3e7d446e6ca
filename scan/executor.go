// Package scan implements the chunked, data-parallel scan over memory-mapped
// log files. Each file is partitioned into chunks snapped to line boundaries
// and parsed concurrently; every chunk yields one record batch.
package scan

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"
	"unsafe"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/edsrzf/mmap-go"
	"golang.org/x/sync/errgroup"

	"github.com/lflog/lflog/columnar"
	"github.com/lflog/lflog/scanner"
	"github.com/lflog/lflog/types"
)

// ThreadsEnvVar overrides the chunk count when no explicit hint is set.
// Unparseable values silently fall back to host parallelism.
const ThreadsEnvVar = "LFLOGTHREADS"

// Synthetic column names stamped by the executor rather than captured by the
// pattern.
const (
	FileColumn = "__FILE__"
	RawColumn  = "__RAW__"
)

var (
	// ErrNoFiles is returned when the file spec glob matches nothing.
	ErrNoFiles = errors.New("no files found")
	// ErrInvalidUTF8 is returned when a chunk contains invalid UTF-8.
	ErrInvalidUTF8 = errors.New("invalid UTF-8 in input")
)

// Request carries everything one scan needs, resolved by the table provider
// before parallel work begins.
type Request struct {
	Scanner  *scanner.Scanner
	FileSpec string

	// Projected output: schema, field names and types in projection order.
	Schema     *arrow.Schema
	FieldNames []string
	FieldTypes []types.FieldType

	// Active synthetic columns (enabled on the provider and present in the
	// projection).
	AddFilePath bool
	AddRaw      bool

	// Threads is the chunk count hint; 0 defers to LFLOGTHREADS and then to
	// host parallelism. The effective count is clamped to [1, NumCPU].
	Threads int

	// Stats, when non-nil, accumulates per-file match diagnostics.
	Stats *Stats

	Alloc memory.Allocator
}

// Run resolves the file spec and scans every file, returning batches in
// deterministic order: files in sorted glob order, chunks in index order.
func Run(ctx context.Context, req Request) ([]arrow.Record, error) {
	files, err := ResolveFiles(req.FileSpec)
	if err != nil {
		return nil, err
	}

	if req.Alloc == nil {
		req.Alloc = memory.DefaultAllocator
	}

	var out []arrow.Record
	for _, file := range files {
		batches, err := scanFile(ctx, req, file)
		if err != nil {
			return nil, err
		}
		out = append(out, batches...)
	}
	return out, nil
}

// ResolveFiles expands a shell-style glob into a sorted file list. Zero
// matches is an error.
func ResolveFiles(spec string) ([]string, error) {
	files, err := filepath.Glob(spec)
	if err != nil {
		return nil, fmt.Errorf("glob pattern %q: %w", spec, err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoFiles, spec)
	}
	sort.Strings(files)
	return files, nil
}

// chunkCount resolves the effective chunk count: explicit hint, then the
// LFLOGTHREADS environment variable, then host parallelism; always clamped
// to [1, host parallelism].
func chunkCount(hint int) int {
	host := runtime.NumCPU()
	c := hint
	if c <= 0 {
		if v := os.Getenv(ThreadsEnvVar); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 {
				c = n
			}
		}
	}
	if c <= 0 {
		c = host
	}
	if c < 1 {
		c = 1
	}
	if c > host {
		c = host
	}
	return c
}

func scanFile(ctx context.Context, req Request, path string) ([]arrow.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}

	var data mmap.MMap
	if info.Size() > 0 {
		data, err = mmap.Map(f, mmap.RDONLY, 0)
		if err != nil {
			return nil, fmt.Errorf("mmap %s: %w", path, err)
		}
		defer data.Unmap()
	}

	total := len(data)
	chunks := chunkCount(req.Threads)
	size := total / chunks

	// Resolve the projection's capture indices once; synthetic slots come
	// after the regex's own groups.
	var synthetic []string
	if req.AddFilePath {
		synthetic = append(synthetic, FileColumn)
	}
	if req.AddRaw {
		synthetic = append(synthetic, RawColumn)
	}
	indices, err := req.Scanner.PrepareIndices(req.FieldNames, synthetic)
	if err != nil {
		return nil, err
	}

	fileIdx, rawIdx := -1, -1
	for i, name := range req.FieldNames {
		switch name {
		case FileColumn:
			fileIdx = i
		case RawColumn:
			rawIdx = i
		}
	}

	records := make([]arrow.Record, chunks)
	var matched, unmatched int64

	g, ctx := errgroup.WithContext(ctx)
	counts := make([][2]int64, chunks)
	for i := 0; i < chunks; i++ {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			rec, m, u, err := scanChunk(req, path, data, i, chunks, size, indices, fileIdx, rawIdx)
			if err != nil {
				return err
			}
			records[i] = rec
			counts[i] = [2]int64{m, u}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		for _, rec := range records {
			if rec != nil {
				rec.Release()
			}
		}
		return nil, err
	}

	for _, c := range counts {
		matched += c[0]
		unmatched += c[1]
	}
	if req.Stats != nil {
		req.Stats.add(path, matched, unmatched)
	}
	return records, nil
}

// scanChunk parses one chunk and returns its batch plus match counts. The
// nominal range [i*size, (i+1)*size) is snapped to line boundaries: every
// chunk but the first starts after the first newline at or past its nominal
// start, and every chunk but the last ends after the first newline at or
// past its nominal end. The last chunk always extends to end of file.
func scanChunk(req Request, path string, data []byte, i, chunks, size int, indices []int, fileIdx, rawIdx int) (arrow.Record, int64, int64, error) {
	total := len(data)

	actualStart := 0
	if i > 0 {
		actualStart = nextLineStart(data, i*size, total)
	}
	actualEnd := total
	if i < chunks-1 {
		actualEnd = nextLineStart(data, (i+1)*size, total)
	}

	builder := columnar.NewBuilder(req.Alloc, req.FieldTypes)
	defer builder.Release()

	if actualStart >= actualEnd {
		cols := builder.Finish()
		rec := array.NewRecord(req.Schema, cols, 0)
		releaseAll(cols)
		return rec, 0, 0, nil
	}

	section := data[actualStart:actualEnd]
	if !utf8.Valid(section) {
		return nil, 0, 0, fmt.Errorf("%w: %s", ErrInvalidUTF8, path)
	}
	// Zero-copy view over the mapping; the mapping outlives every borrowed
	// slice because batches copy values into column builders.
	text := unsafe.String(unsafe.SliceData(section), len(section))

	values := make([]string, 0, len(indices))
	var rows, missed int64

	for len(text) > 0 {
		var line string
		if nl := strings.IndexByte(text, '\n'); nl >= 0 {
			line = text[:nl]
			text = text[nl+1:]
		} else {
			line = text
			text = ""
		}
		line = strings.TrimSuffix(line, "\r")

		if !req.Scanner.ScanDirect(line, indices, &values) {
			missed++
			continue
		}
		if fileIdx >= 0 {
			values[fileIdx] = path
		}
		if rawIdx >= 0 {
			values[rawIdx] = line
		}
		builder.Push(values)
		rows++
	}

	cols := builder.Finish()
	rec := array.NewRecord(req.Schema, cols, rows)
	releaseAll(cols)
	return rec, rows, missed, nil
}

// nextLineStart returns the byte position just past the first newline at or
// after pos, or end when no newline remains.
func nextLineStart(data []byte, pos, end int) int {
	for i := pos; i < end; i++ {
		if data[i] == '\n' {
			return i + 1
		}
	}
	return end
}

func releaseAll(cols []arrow.Array) {
	for _, c := range cols {
		c.Release()
	}
}
