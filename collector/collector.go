// Package collector imports net log files from disk in bulk.
package collector

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/vainnor/checkins/apperr"
	"github.com/vainnor/checkins/services/ingest"
	"github.com/vainnor/checkins/types"
)

// Extensions picked up when walking a directory
var logExtensions = map[string]bool{
	".txt": true,
	".log": true,
	".csv": true,
}

type Ingester interface {
	Ingest(ctx context.Context, data []byte, filename string) (*ingest.Result, error)
}

// Result is the outcome for one file
type Result struct {
	Path   string
	Result *ingest.Result
	Err    error
}

type Collector struct {
	ingester Ingester
	logger   *slog.Logger
	// Filename hint used instead of each file's base name when set
	FilenameHint string

	stats types.ImportStats
}

func NewCollector(ingester Ingester, logger *slog.Logger) *Collector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Collector{
		ingester: ingester,
		logger:   logger,
		stats: types.ImportStats{
			StartTime: time.Now(),
		},
	}
}

func (c *Collector) GetStats() types.ImportStats {
	return c.stats
}

// Collect ingests every path. Directories are walked for .txt, .log and .csv
// files in lexical order. Each file is its own unit of work: a failing file is
// recorded and the rest still run. Only context cancellation stops early.
func (c *Collector) Collect(ctx context.Context, paths []string) ([]Result, error) {
	files, err := expand(paths)
	if err != nil {
		return nil, err
	}

	results := make([]Result, 0, len(files))
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		res := Result{Path: path}
		res.Result, res.Err = c.ingestFile(ctx, path)
		c.record(res)
		results = append(results, res)
	}
	return results, nil
}

func (c *Collector) ingestFile(ctx context.Context, path string) (*ingest.Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apperr.Input(fmt.Sprintf("Cannot read %s: %v", path, err))
	}
	name := c.FilenameHint
	if name == "" {
		name = filepath.Base(path)
	}
	return c.ingester.Ingest(ctx, data, name)
}

func (c *Collector) record(res Result) {
	c.stats.Files++
	c.stats.LastUpdate = time.Now()
	if res.Err != nil {
		c.stats.Failed++
		c.logger.Error("error importing file", "path", res.Path, "error", res.Err)
		return
	}
	c.stats.Sessions++
	c.stats.Inserted += int64(res.Result.Inserted)
	if res.Result.DuplicateOf != nil {
		c.stats.Duplicates++
	}
}

// expand resolves directories into the log files beneath them
func expand(paths []string) ([]string, error) {
	var files []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("error reading %s: %w", p, err)
		}
		if !info.IsDir() {
			files = append(files, p)
			continue
		}

		var found []string
		err = filepath.WalkDir(p, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if path != p && strings.HasPrefix(d.Name(), ".") {
					return filepath.SkipDir
				}
				return nil
			}
			if strings.HasPrefix(d.Name(), ".") {
				return nil
			}
			if logExtensions[strings.ToLower(filepath.Ext(path))] {
				found = append(found, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("error walking %s: %w", p, err)
		}
		sort.Strings(found)
		files = append(files, found...)
	}
	return files, nil
}
