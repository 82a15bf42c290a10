package internal

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/gnolang/tgrep/internal/source"
)

// debounce is how long a file has to stay quiet before it is rescanned.
// Every write within the window pushes the rescan back.
const debounce = 100 * time.Millisecond

// ResultHandler receives the outcome of a rescan triggered by a change.
type ResultHandler func(path string, res Result, err error)

type watchState struct {
	watcher *fsnotify.Watcher
	delay   time.Duration
	// ready carries paths whose debounce timer fired.
	ready chan string
	// quit is closed once the loop has exited.
	quit chan struct{}
	done chan struct{}
}

// StartWatching rescans supported documents under dirs whenever they are
// written or created, handing every outcome to handle. Handlers are
// called from a single goroutine, one rescan at a time.
func (e *Engine) StartWatching(dirs []string, handle ResultHandler) error {
	return e.startWatching(dirs, debounce, handle)
}

func (e *Engine) startWatching(dirs []string, delay time.Duration, handle ResultHandler) error {
	e.watchMu.Lock()
	defer e.watchMu.Unlock()

	if e.watching.IsSet() {
		return errors.New("already watching")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("error creating watcher: %w", err)
	}

	for _, dir := range dirs {
		err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if info.IsDir() {
				return watcher.Add(path)
			}
			return nil
		})
		if err != nil {
			watcher.Close()
			return fmt.Errorf("error adding directory to watcher: %w", err)
		}
	}

	e.watch = &watchState{
		watcher: watcher,
		delay:   delay,
		ready:   make(chan string),
		quit:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	go e.watchLoop(e.watch, handle)
	e.watching.Set()
	return nil
}

// StopWatching stops the watch loop and waits for it to exit. Rescans
// still waiting for their debounce are dropped.
func (e *Engine) StopWatching() error {
	e.watchMu.Lock()
	defer e.watchMu.Unlock()

	if !e.watching.IsSet() {
		return errors.New("not watching")
	}

	err := e.watch.watcher.Close()
	<-e.watch.done
	e.watch = nil
	e.watching.UnSet()
	return err
}

// IsWatching reports whether a watch loop is running.
func (e *Engine) IsWatching() bool {
	return e.watching.IsSet()
}

func (e *Engine) watchLoop(ws *watchState, handle ResultHandler) {
	pending := make(map[string]*time.Timer)
	defer func() {
		for _, t := range pending {
			t.Stop()
		}
		close(ws.quit)
		close(ws.done)
	}()

	for {
		select {
		case event, ok := <-ws.watcher.Events:
			if !ok {
				return
			}
			if !relevant(event) {
				continue
			}
			if t, ok := pending[event.Name]; ok {
				t.Reset(ws.delay)
				continue
			}
			path := event.Name
			pending[path] = time.AfterFunc(ws.delay, func() {
				select {
				case ws.ready <- path:
				case <-ws.quit:
				}
			})
		case path := <-ws.ready:
			delete(pending, path)
			e.rescan(path, handle)
		case err, ok := <-ws.watcher.Errors:
			if !ok {
				return
			}
			e.logger.Error("watch error", zap.Error(err))
		}
	}
}

func relevant(event fsnotify.Event) bool {
	return event.Op&(fsnotify.Write|fsnotify.Create) != 0 && source.Supported(event.Name)
}

func (e *Engine) rescan(path string, handle ResultHandler) {
	res, err := e.Run(path)
	if err != nil {
		e.logger.Error("rescan failed", zap.String("path", path), zap.Error(err))
	} else {
		e.logger.Info("rescanned",
			zap.String("path", path),
			zap.Int("matches", len(res.Records)))
	}
	if handle != nil {
		handle(path, res, err)
	}
}
