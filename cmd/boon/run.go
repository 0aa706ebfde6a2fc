package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/boonlang/boon"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
)

func runCmd() *cobra.Command {
	var ticks int
	var statePath string
	var watch bool
	cmd := &cobra.Command{
		Use:   "run <file>",
		Short: "Run a program to quiescence, loading and saving state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			runOnce := func() error { return runFile(args[0], ticks, statePath) }
			if !watch {
				return runOnce()
			}
			return runWatching(args[0], runOnce)
		},
	}
	cmd.Flags().IntVar(&ticks, "ticks", 1000, "maximum ticks to run before giving up")
	cmd.Flags().StringVar(&statePath, "state", "", "snapshot file to load before running and save after")
	cmd.Flags().BoolVar(&watch, "watch", false, "re-run whenever <file> changes, using fsnotify")
	return cmd
}

func runFile(path string, maxTicks int, statePath string) error {
	engine, err := buildEngine()
	if err != nil {
		return err
	}
	if metricsAddr != "" {
		go func() {
			_ = http.ListenAndServe(metricsAddr, engine.MetricsHandler())
		}()
	}

	src, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	compiler := newJSONCompiler()
	program, err := compiler.Compile(string(src))
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	root, ok := engine.Compile(program)
	if !ok {
		return fmt.Errorf("%s: program has no root node", path)
	}

	if statePath != "" {
		if err := loadState(engine, statePath); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("load state %s: %w", statePath, err)
		}
	}

	res := engine.RunUntilQuiescent(maxTicks)
	if !res.Quiescent {
		return fmt.Errorf("%s: did not reach quiescence within %d ticks", path, maxTicks)
	}

	out, err := renderRoot(engine, root)
	if err != nil {
		return err
	}
	fmt.Println(string(out))

	if statePath != "" {
		if err := saveState(engine, statePath); err != nil {
			return fmt.Errorf("save state %s: %w", statePath, err)
		}
	}
	return nil
}

func loadState(engine *boon.Engine, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	snap, err := boon.UnmarshalSnapshot(data)
	if err != nil {
		return err
	}
	return engine.Restore(snap)
}

func saveState(engine *boon.Engine, path string) error {
	data, err := boon.MarshalSnapshot(engine.Snapshot())
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func runWatching(path string, runOnce func() error) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("fsnotify: %w", err)
	}
	defer watcher.Close()
	if err := watcher.Add(path); err != nil {
		return fmt.Errorf("watch %s: %w", path, err)
	}

	if err := runOnce(); err != nil {
		fmt.Fprintln(os.Stderr, "boon:", err)
	}
	for {
		select {
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if err := runOnce(); err != nil {
				fmt.Fprintln(os.Stderr, "boon:", err)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintln(os.Stderr, "boon: watch error:", err)
		}
	}
}
