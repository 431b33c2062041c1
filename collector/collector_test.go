package collector

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/vainnor/checkins/apperr"
	"github.com/vainnor/checkins/services/ingest"
)

type recordingIngester struct {
	names []string
	fail  map[string]error
	dup   map[string]bool
}

func (r *recordingIngester) Ingest(ctx context.Context, data []byte, filename string) (*ingest.Result, error) {
	r.names = append(r.names, filename)
	if err := r.fail[filename]; err != nil {
		return nil, err
	}
	res := &ingest.Result{SessionID: int64(len(r.names)), Inserted: len(data)}
	if r.dup[filename] {
		prior := int64(1)
		res.DuplicateOf = &prior
	}
	return res, nil
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func quiet() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestCollectWalksDirectories(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "2025", "07-27-2025.txt"), "abc")
	writeFile(t, filepath.Join(dir, "2025", "07-20-2025.LOG"), "ab")
	writeFile(t, filepath.Join(dir, "notes.md"), "skip")
	writeFile(t, filepath.Join(dir, ".hidden.txt"), "skip")
	writeFile(t, filepath.Join(dir, ".git", "x.txt"), "skip")

	ing := &recordingIngester{dup: map[string]bool{"07-27-2025.txt": true}}
	c := NewCollector(ing, quiet())
	results, err := c.Collect(context.Background(), []string{dir})
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}

	want := []string{"07-20-2025.LOG", "07-27-2025.txt"}
	if !reflect.DeepEqual(ing.names, want) {
		t.Errorf("ingested %v, want %v", ing.names, want)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results", len(results))
	}

	stats := c.GetStats()
	if stats.Files != 2 || stats.Sessions != 2 || stats.Inserted != 5 || stats.Duplicates != 1 || stats.Failed != 0 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestCollectContinuesAfterFailure(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.txt")
	b := filepath.Join(dir, "b.txt")
	writeFile(t, a, "x")
	writeFile(t, b, "y")

	ing := &recordingIngester{fail: map[string]error{"a.txt": apperr.Input(ingest.MissingDateMessage)}}
	c := NewCollector(ing, quiet())
	results, err := c.Collect(context.Background(), []string{a, b})
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if results[0].Err == nil || results[1].Err != nil {
		t.Errorf("results = %+v", results)
	}
	if stats := c.GetStats(); stats.Failed != 1 || stats.Sessions != 1 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestCollectFilenameHint(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "upload.txt")
	writeFile(t, path, "x")

	ing := &recordingIngester{}
	c := NewCollector(ing, quiet())
	c.FilenameHint = "net_7_27_2025.txt"
	if _, err := c.Collect(context.Background(), []string{path}); err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if !reflect.DeepEqual(ing.names, []string{"net_7_27_2025.txt"}) {
		t.Errorf("ingested as %v", ing.names)
	}
}

func TestCollectMissingPath(t *testing.T) {
	c := NewCollector(&recordingIngester{}, quiet())
	_, err := c.Collect(context.Background(), []string{filepath.Join(t.TempDir(), "nope.txt")})
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("err = %v, want not exist", err)
	}
}

func TestCollectCancelled(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.txt"), "x")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	ing := &recordingIngester{}
	_, err := NewCollector(ing, quiet()).Collect(ctx, []string{dir})
	if !errors.Is(err, context.Canceled) || len(ing.names) != 0 {
		t.Errorf("err = %v, ingested %v", err, ing.names)
	}
}
