// Package batch compresses many files concurrently.
package batch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bimmerbailey/htmlmin/internal/compressor"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ErrDestinationConflict is reported for a file whose output would replace
// the output of an earlier file in the same run.
var ErrDestinationConflict = errors.New("destination already written by another file")

// Engine is the part of compressor.Compressor a Processor needs.
type Engine interface {
	CompressWithStats(doc string) (string, *compressor.Statistics, error)
}

// Result describes one processed file.
type Result struct {
	Path           string                 `json:"path"`
	Destination    string                 `json:"destination,omitempty"`
	Output         string                 `json:"-"`
	OriginalSize   int                    `json:"original_size"`
	CompressedSize int                    `json:"compressed_size"`
	Stats          *compressor.Statistics `json:"stats,omitempty"`
	Duration       time.Duration          `json:"duration"`
	Err            error                  `json:"-"`
}

// Savings returns the number of bytes removed from the file.
func (r Result) Savings() int {
	return r.OriginalSize - r.CompressedSize
}

// Processor compresses files with a shared Engine.
type Processor struct {
	Compressor Engine

	// Workers bounds the number of files processed at once. Values below one
	// mean one.
	Workers int

	// OutputDir receives the compressed files. Empty overwrites in place.
	OutputDir string

	// Root is stripped from each path to build its location under OutputDir.
	// When empty, only the base name is kept, and later files sharing a base
	// name fail with ErrDestinationConflict.
	Root string

	// DryRun compresses without writing anything.
	DryRun bool

	Logger *zap.Logger
}

// Run compresses files and returns one Result per file, in input order.
// A failing file does not stop the others; every failure is returned joined
// in the error. A cancelled context stops scheduling further files.
func (p *Processor) Run(ctx context.Context, files []string) ([]Result, error) {
	logger := p.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("run_id", uuid.New().String()))

	workers := p.Workers
	if workers < 1 {
		workers = 1
	}

	results := make([]Result, len(files))
	for i, path := range files {
		results[i].Path = path
	}

	logger.Info("batch started", zap.Int("files", len(files)), zap.Int("workers", workers), zap.Bool("dry_run", p.DryRun))
	start := time.Now()

	conflicts := p.conflicts(files)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i := range files {
		if err := gctx.Err(); err != nil {
			for j := i; j < len(files); j++ {
				results[j].Err = err
			}
			break
		}
		if err, ok := conflicts[i]; ok {
			results[i].Err = err
			logger.Error("output conflict", zap.String("file", files[i]), zap.Error(err))
			continue
		}

		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				results[i].Err = err
				return nil
			}
			results[i] = p.process(files[i], logger)
			return nil
		})
	}
	_ = g.Wait()

	var errs []error
	for _, r := range results {
		if r.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", r.Path, r.Err))
		}
	}

	logger.Info("batch finished",
		zap.Int("files", len(files)),
		zap.Int("failed", len(errs)),
		zap.Duration("duration", time.Since(start)),
	)
	return results, errors.Join(errs...)
}

func (p *Processor) process(path string, logger *zap.Logger) Result {
	start := time.Now()
	res := Result{Path: path}

	info, err := os.Stat(path)
	if err != nil {
		res.Err = err
		logger.Error("failed to read file", zap.String("file", path), zap.Error(err))
		return res
	}
	data, err := os.ReadFile(path)
	if err != nil {
		res.Err = err
		logger.Error("failed to read file", zap.String("file", path), zap.Error(err))
		return res
	}
	res.OriginalSize = len(data)

	out, stats, err := p.Compressor.CompressWithStats(string(data))
	if err != nil {
		res.Err = err
		logger.Error("compression failed", zap.String("file", path), zap.Error(err))
		return res
	}
	res.Output = out
	res.CompressedSize = len(out)
	res.Stats = stats

	if !p.DryRun {
		dest, err := p.destination(path)
		if err != nil {
			res.Err = err
			return res
		}
		if err := writeFile(dest, []byte(out), info.Mode().Perm()); err != nil {
			res.Err = err
			logger.Error("failed to write file", zap.String("file", dest), zap.Error(err))
			return res
		}
		res.Destination = dest
	}

	res.Duration = time.Since(start)
	logger.Info("file compressed",
		zap.String("file", path),
		zap.Int("original_size", res.OriginalSize),
		zap.Int("compressed_size", res.CompressedSize),
		zap.Duration("duration", res.Duration),
	)
	return res
}

// conflicts maps the index of every file whose destination was already
// claimed by an earlier, different file to the error reported for it.
func (p *Processor) conflicts(files []string) map[int]error {
	if p.OutputDir == "" || p.DryRun {
		return nil
	}
	owners := make(map[string]string, len(files))
	found := make(map[int]error)
	for i, path := range files {
		dest, err := p.destination(path)
		if err != nil {
			continue
		}
		dest = filepath.Clean(dest)
		owner, ok := owners[dest]
		if !ok {
			owners[dest] = path
			continue
		}
		if filepath.Clean(owner) != filepath.Clean(path) {
			found[i] = fmt.Errorf("%w: %s is written from %s", ErrDestinationConflict, dest, owner)
		}
	}
	return found
}

// destination maps a source path to where its output is written.
func (p *Processor) destination(path string) (string, error) {
	if p.OutputDir == "" {
		return path, nil
	}
	if p.Root == "" {
		return filepath.Join(p.OutputDir, filepath.Base(path)), nil
	}
	rel, err := filepath.Rel(p.Root, path)
	if err != nil {
		return "", err
	}
	if rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		rel = filepath.Base(path)
	}
	return filepath.Join(p.OutputDir, rel), nil
}

// writeFile replaces path through a temporary file in the same directory.
func writeFile(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".htmlmin-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), perm); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
