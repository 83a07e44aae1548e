package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	difflib "github.com/pmezard/go-difflib/difflib"
	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"
)

// errGoldenMismatch is returned by check when the output differs.
var errGoldenMismatch = errors.New("output differs from golden file")

func runCompute(ctx context.Context, cmd *cli.Command) error {
	e := envFromContext(ctx)
	paths := cmd.Args().Slice()
	if len(paths) == 0 {
		return fmt.Errorf("no scenarios given")
	}

	outputs := make([]*output, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	for i, path := range paths {
		g.Go(func() error {
			s, err := loadScenario(path)
			if err != nil {
				return err
			}
			outputs[i], err = compute(gctx, e.Cfg, e.Log, s)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	data, err := render(outputs)
	if err != nil {
		return err
	}
	e.Log.Debug("Scenarios computed", zap.Int("count", len(outputs)))
	return write(cmd.String("out"), cmd.Root().Writer, data)
}

func runCheck(ctx context.Context, cmd *cli.Command) error {
	e := envFromContext(ctx)
	if cmd.NArg() != 1 {
		return fmt.Errorf("check needs exactly one scenario")
	}
	s, err := loadScenario(cmd.Args().First())
	if err != nil {
		return err
	}
	out, err := compute(ctx, e.Cfg, e.Log, s)
	if err != nil {
		return err
	}
	got, err := render([]*output{out})
	if err != nil {
		return err
	}

	golden := cmd.String("golden")
	if cmd.Bool("update") {
		e.Log.Debug("Updating golden file", zap.String("file", golden))
		return write(golden, nil, got)
	}
	return checkGolden(cmd.Root().Writer, golden, got)
}

// checkGolden compares got with the golden file and prints a unified diff
// when they differ.
func checkGolden(w io.Writer, golden string, got []byte) error {
	want, err := os.ReadFile(golden)
	if err != nil {
		return fmt.Errorf("unable to read golden file: %w", err)
	}
	if bytes.Equal(want, got) {
		return nil
	}

	text, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(string(want)),
		B:        difflib.SplitLines(string(got)),
		FromFile: golden,
		ToFile:   "computed",
		Context:  3,
	})
	if err != nil {
		return fmt.Errorf("unable to diff output: %w", err)
	}
	fmt.Fprint(w, text)
	return fmt.Errorf("%s: %w", golden, errGoldenMismatch)
}

func runWatch(ctx context.Context, cmd *cli.Command) error {
	e := envFromContext(ctx)
	if cmd.NArg() != 1 {
		return fmt.Errorf("watch needs exactly one scenario")
	}
	path, err := filepath.Abs(cmd.Args().First())
	if err != nil {
		return err
	}
	return watch(ctx, path, e.Cfg.Debounce, e.Log, func() {
		if err := recompute(ctx, cmd.Root().Writer, path); err != nil {
			e.Log.Warn("Recomputing scenario failed", zap.String("scenario", path), zap.Error(err))
		}
	})
}

func recompute(ctx context.Context, w io.Writer, path string) error {
	e := envFromContext(ctx)
	s, err := loadScenario(path)
	if err != nil {
		return err
	}
	out, err := compute(ctx, e.Cfg, e.Log, s)
	if err != nil {
		return err
	}
	data, err := render([]*output{out})
	if err != nil {
		return err
	}
	fmt.Fprintln(w, "---")
	_, err = w.Write(data)
	return err
}

// watch calls fn once and then every time path settles after a change. The
// parent directory is watched so that editors replacing the file are seen.
func watch(ctx context.Context, path string, window time.Duration, log *zap.Logger, fn func()) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(filepath.Dir(path)); err != nil {
		return err
	}
	log.Info("Watching scenario", zap.String("scenario", path))
	fn()

	var timer *time.Timer
	var timerCh <-chan time.Time
	schedule := func() {
		if timer == nil {
			timer = time.NewTimer(window)
			timerCh = timer.C
		} else {
			timer.Reset(window)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil
		case <-timerCh:
			timer, timerCh = nil, nil
			fn()
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != path || !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			log.Debug("Scenario changed", zap.Stringer("op", ev.Op))
			schedule()
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.Warn("Watcher error", zap.Error(err))
		}
	}
}

func runDumpConfig(ctx context.Context, cmd *cli.Command) error {
	e := envFromContext(ctx)
	data, err := yaml.Marshal(e.Cfg)
	if err != nil {
		return fmt.Errorf("unable to encode configuration: %w", err)
	}
	return write(cmd.Args().First(), cmd.Root().Writer, data)
}

// write stores data in path, or writes it to w when path is empty.
func write(path string, w io.Writer, data []byte) error {
	if path == "" {
		_, err := w.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("unable to write %s: %w", path, err)
	}
	return nil
}
