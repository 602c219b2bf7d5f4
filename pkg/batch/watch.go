package batch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/user/gosec-auditlog/pkg/logger"
)

// DefaultDebounce is how long a file must stay quiet before it is processed.
const DefaultDebounce = 500 * time.Millisecond

// Watch re-extracts logs in the opts.Source directory whenever a file with a
// selected extension is created or written, until ctx is done. Documents
// are processed one at a time on the calling goroutine.
func Watch(ctx context.Context, opts Options, debounce time.Duration) error {
	info, err := os.Stat(opts.Source)
	if os.IsNotExist(err) {
		return fmt.Errorf("%w: %s", ErrSourceMissing, opts.Source)
	}
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("watch source must be a directory: %s", opts.Source)
	}
	if err := os.MkdirAll(opts.OutputDir, 0o755); err != nil {
		return fmt.Errorf("%w %s: %w", ErrOutputDir, opts.OutputDir, err)
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer w.Close()
	if err := w.Add(opts.Source); err != nil {
		return fmt.Errorf("failed to watch %s: %w", opts.Source, err)
	}
	logger.Infof("watching %s for %v", opts.Source, opts.Extensions)

	jobs := make(chan string, 64)
	var mu sync.Mutex
	timers := make(map[string]*time.Timer)
	schedule := func(path string) {
		mu.Lock()
		defer mu.Unlock()
		if t, ok := timers[path]; ok {
			t.Reset(debounce)
			return
		}
		timers[path] = time.AfterFunc(debounce, func() {
			mu.Lock()
			delete(timers, path)
			mu.Unlock()
			select {
			case jobs <- path:
			case <-ctx.Done():
			}
		})
	}
	defer func() {
		mu.Lock()
		for _, t := range timers {
			t.Stop()
		}
		mu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) {
				continue
			}
			if MatchExtension(ev.Name, opts.Extensions) {
				schedule(ev.Name)
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Warnf("watcher error: %v", err)
		case path := <-jobs:
			res := ProcessFile(path, watchOutput(opts, path), opts)
			if opts.OnResult != nil {
				opts.OnResult(res)
			}
		}
	}
}

// watchOutput names the report for path with the same collision rule a batch
// run over the directory would apply.
func watchOutput(opts Options, path string) string {
	files, err := CollectFiles(opts.Source, opts.Extensions)
	if err != nil {
		return OutputPath(opts.OutputDir, path)
	}
	outputs := OutputPaths(opts.OutputDir, files)
	for i, f := range files {
		if f == filepath.Clean(path) {
			return outputs[i]
		}
	}
	return OutputPath(opts.OutputDir, path)
}
