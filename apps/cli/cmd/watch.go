package cmd

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/abdul-hamid-achik/yapi/packages/core/config"
	"github.com/abdul-hamid-achik/yapi/packages/core/suite"
)

const (
	// WatchDebounceDelay is the debounce delay for file watch events
	WatchDebounceDelay = 300 * time.Millisecond
)

// watchDirs adds dir and every directory below it to the watcher, skipping
// hidden directories.
func watchDirs(watcher *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		return watcher.Add(path)
	})
}

// isWatched reports whether a change to path should trigger a re-run.
func isWatched(path string) bool {
	return suite.IsSuiteFile(path) || filepath.Base(path) == suite.BaseFileName
}

// watch re-runs the suites under dir whenever a suite or base settings file
// changes, until ctx is cancelled. Every re-run starts from a fresh state.
func watch(ctx context.Context, cmd *cobra.Command, dir string, cfg *config.Config) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer watcher.Close()

	if err := watchDirs(watcher, dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "\nWatching for changes... (press Ctrl+C to stop)\n\n")

	var debounce <-chan time.Time
	var changed string
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if info, err := os.Stat(event.Name); err == nil && info.IsDir() && event.Has(fsnotify.Create) {
				if err := watchDirs(watcher, event.Name); err != nil {
					logger.Warn().Err(err).Str("path", event.Name).Msg("failed to watch directory")
				}
				continue
			}
			if !isWatched(event.Name) {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
				changed = event.Name
				debounce = time.After(WatchDebounceDelay)
			}

		case <-debounce:
			debounce = nil
			fmt.Fprintf(cmd.OutOrStdout(), "\n\nFile changed: %s\nRe-running suites...\n\n", changed)
			if err := runOnce(ctx, cmd, dir, cfg); err != nil && exitCode(err) != ExitTestFailure {
				logger.Error().Err(err).Msg("run failed")
			}
			fmt.Fprintf(cmd.OutOrStdout(), "\nWatching for changes... (press Ctrl+C to stop)\n")

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn().Err(err).Msg("watcher error")
		}
	}
}
