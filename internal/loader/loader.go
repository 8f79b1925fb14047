// Package loader discovers .leap source files, parses them concurrently,
// and runs the declarativeness lint on each file's raw text.
package loader

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/leapstack-labs/leapapp/internal/parser"
	"github.com/leapstack-labs/leapapp/pkg/core"
	"github.com/leapstack-labs/leapapp/pkg/lint"
)

// Result holds everything discovery produced. Modules appear in file path
// order regardless of parse scheduling, so runs are reproducible.
type Result struct {
	Modules []*core.Module
	// Violations maps file path to its lint findings
	Violations map[string][]lint.Violation
	// Errors holds per-file parse failures; discovery itself still succeeds
	Errors []error
}

// HasViolations reports whether any file tripped the lint.
func (r *Result) HasViolations() bool {
	for _, v := range r.Violations {
		if len(v) > 0 {
			return true
		}
	}
	return false
}

// Loader discovers and parses module sources.
type Loader struct {
	logger      *slog.Logger
	concurrency int
}

// Config holds loader configuration.
type Config struct {
	// Logger is the structured logger (optional, uses discard if nil)
	Logger *slog.Logger
	// Concurrency bounds parallel file parsing; 0 means a small default
	Concurrency int
}

// New creates a loader.
func New(cfg Config) *Loader {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 8
	}
	return &Loader{logger: logger, concurrency: concurrency}
}

// Discover walks dir for .leap files and parses them in parallel. Hidden
// files and directories are skipped. The returned error covers walking only;
// per-file problems land in the Result.
func (l *Loader) Discover(dir string) (*Result, error) {
	paths, err := findSources(dir)
	if err != nil {
		return nil, err
	}
	l.logger.Debug("discovered sources", "dir", dir, "files", len(paths))

	result := &Result{Violations: make(map[string][]lint.Violation)}
	modules := make([]*core.Module, len(paths))

	var mu sync.Mutex
	var g errgroup.Group
	g.SetLimit(l.concurrency)

	for i, path := range paths {
		g.Go(func() error {
			content, err := os.ReadFile(path)
			if err != nil {
				mu.Lock()
				result.Errors = append(result.Errors, fmt.Errorf("failed to read %s: %w", path, err))
				mu.Unlock()
				return nil
			}
			text := string(content)

			violations := lint.Validate(text)
			mod, parseErr := parser.ParseContent(path, text)

			mu.Lock()
			if len(violations) > 0 {
				result.Violations[path] = violations
			}
			if parseErr != nil {
				result.Errors = append(result.Errors, parseErr)
			} else {
				modules[i] = mod
			}
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	for _, mod := range modules {
		if mod != nil {
			result.Modules = append(result.Modules, mod)
		}
	}
	sort.Slice(result.Errors, func(i, j int) bool {
		return result.Errors[i].Error() < result.Errors[j].Error()
	})
	return result, nil
}

// findSources returns all .leap files under dir in sorted order.
func findSources(dir string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if strings.HasPrefix(d.Name(), ".") && path != dir {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".leap") {
			return nil
		}
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", dir, err)
	}
	sort.Strings(paths)
	return paths, nil
}
