package main

import (
	"bytes"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/lex00/calc-api-go/internal/artifact"
	"github.com/lex00/calc-api-go/internal/stack"
	"github.com/lex00/calc-api-go/internal/template"
	"github.com/lex00/calc-api-go/internal/validation"
)

// newWatchCmd creates the "watch" subcommand for rebuilding on config and artifact changes.
func newWatchCmd(a *app) *cobra.Command {
	opts := watchOptions{}

	cmd := &cobra.Command{
		Use:   "watch [stack]",
		Short: "Rebuild when configuration or artifacts change",
		Long: `Watch rebuilds the template whenever calc-api.toml, an overlay, .env or a
local artifact (the calculate zip, an image build context) changes.

The watch command:
- Reloads configuration on each change
- Validates route wiring and checks local artifacts exist
- Writes the template to --output, or reports the resource count
- Debounces rapid changes to avoid excessive rebuilds

Examples:
    calc-api watch
    calc-api watch api-variants -o template.json
    calc-api watch --debounce 1s`,
		Args:              cobra.MaximumNArgs(1),
		ValidArgsFunction: completeStacks,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd, a, stackArg(args), opts)
		},
	}

	cmd.Flags().DurationVar(&opts.debounce, "debounce", 500*time.Millisecond, "Debounce duration for rapid changes")
	cmd.Flags().StringVarP(&opts.outputFormat, "format", "f", "json", "Output format for build: json or yaml")
	cmd.Flags().StringVarP(&opts.outputFile, "output", "o", "", "Output file for build (default: report only)")

	return cmd
}

type watchOptions struct {
	debounce     time.Duration
	outputFormat string
	outputFile   string
}

// runWatch monitors inputs and rebuilds on changes.
func runWatch(cmd *cobra.Command, a *app, name string, opts watchOptions) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() {
		_ = watcher.Close()
	}()

	s, err := a.buildStack(name)
	if err != nil {
		return err
	}
	updateWatches(watcher, watchDirs(a.configDir, localStore(a), s), a)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	a.log.Info("running initial build")
	rebuild(cmd, a, name, opts)

	var debounceTimer *time.Timer
	rebuildChan := make(chan struct{}, 1)

	a.log.Info("watching for changes (Ctrl+C to stop)")

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !relevant(event, opts.outputFile) {
				continue
			}

			a.log.Debugw("change", "path", event.Name, "op", event.Op.String())
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(opts.debounce, func() {
				select {
				case rebuildChan <- struct{}{}:
				default:
				}
			})

		case <-rebuildChan:
			a.log.Info("change detected, rebuilding")
			if err := a.load(); err != nil {
				a.log.Errorw("config reload failed", "error", err)
				continue
			}
			// Artifact paths may have moved with the new config.
			if s, err := a.buildStack(name); err == nil {
				updateWatches(watcher, watchDirs(a.configDir, localStore(a), s), a)
			}
			rebuild(cmd, a, name, opts)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			a.log.Errorw("watch error", "error", err)

		case <-sigChan:
			a.log.Info("stopping watch")
			return nil
		}
	}
}

// watchDirs returns the directories holding configuration and local
// artifacts. fsnotify watches directories, so files are watched through
// their parent.
func watchDirs(configDir string, local *artifact.LocalStore, s *stack.Stack) []string {
	var dirs []string
	seen := make(map[string]bool)

	add := func(dir string) {
		abs, err := filepath.Abs(dir)
		if err != nil || seen[abs] {
			return
		}
		if info, err := os.Stat(abs); err != nil || !info.IsDir() {
			return
		}
		seen[abs] = true
		dirs = append(dirs, abs)
	}

	add(configDir)
	for _, fn := range s.Functions() {
		code := fn.Props().Code
		switch code.Kind {
		case stack.CodeAsset:
			add(filepath.Dir(local.Path(code.Path)))
		case stack.CodeImageAsset:
			add(local.Path(code.Path))
		}
	}
	return dirs
}

// updateWatches makes the watcher cover exactly dirs.
func updateWatches(watcher *fsnotify.Watcher, dirs []string, a *app) {
	want := make(map[string]bool, len(dirs))
	for _, dir := range dirs {
		want[dir] = true
	}

	current := make(map[string]bool)
	for _, dir := range watcher.WatchList() {
		current[dir] = true
		if !want[dir] {
			_ = watcher.Remove(dir)
			a.log.Infow("stopped watching", "dir", dir)
		}
	}

	for _, dir := range dirs {
		if current[dir] {
			continue
		}
		if err := watcher.Add(dir); err != nil {
			a.log.Warnw("not watching", "dir", dir, "error", err)
			continue
		}
		a.log.Infow("watching", "dir", dir)
	}
}

// relevant filters out events that cannot change the build.
func relevant(event fsnotify.Event, outputFile string) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return false
	}
	base := filepath.Base(event.Name)
	if strings.HasSuffix(base, "~") || strings.HasPrefix(base, ".#") || strings.HasSuffix(base, ".swp") {
		return false
	}
	if outputFile != "" {
		if abs, err := filepath.Abs(outputFile); err == nil && abs == event.Name {
			return false
		}
	}
	return true
}

// rebuild synthesizes, validates and writes the template, logging failures.
func rebuild(cmd *cobra.Command, a *app, name string, opts watchOptions) {
	s, tmpl, err := a.synth(name)
	if err != nil {
		a.log.Errorw("build failed", "stack", name, "error", err)
		return
	}

	for _, issue := range validation.Structural(tmpl) {
		a.log.Warnw("structural issue", "stack", name, "issue", issue)
	}

	missing, err := validation.CheckArtifacts(cmd.Context(), localStore(a), localLocations(s))
	if err != nil {
		a.log.Errorw("artifact check failed", "error", err)
	}
	for _, location := range missing {
		a.log.Warnw("artifact not found", "location", location)
	}

	if opts.outputFile == "" {
		fmt.Fprintf(cmd.OutOrStdout(), "Build successful: %s, %d resources\n", name, len(tmpl.Resources))
		return
	}

	var buf bytes.Buffer
	if err := template.Write(tmpl, template.Format(opts.outputFormat), &buf); err != nil {
		a.log.Errorw("output failed", "error", err)
		return
	}
	if err := os.WriteFile(opts.outputFile, buf.Bytes(), 0o644); err != nil {
		a.log.Errorw("failed to write output", "path", opts.outputFile, "error", err)
		return
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Build successful, wrote %s\n", opts.outputFile)
}

// localLocations returns the artifact locations on the local filesystem.
func localLocations(s *stack.Stack) []string {
	var locations []string
	for _, location := range artifactLocations(s) {
		if !strings.HasPrefix(location, "s3://") {
			locations = append(locations, location)
		}
	}
	return locations
}
