package main

import (
	"context"
	"fmt"

	"github.com/howeyc/fsnotify"

	"github.com/ericlevine/qrscan/imageio"
)

// watch decodes every supported image created or written in dir until ctx
// is done.
func (s *scanner) watch(ctx context.Context, dir string) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("directory watcher: %w", err)
	}
	defer w.Close()
	if err := w.Watch(dir); err != nil {
		return fmt.Errorf("watching %s: %w", dir, err)
	}
	s.logger.Printf("watching %s", dir)

	for {
		select {
		case ev := <-w.Event:
			if ev == nil {
				return nil
			}
			s.handleEvent(ev)
		case err := <-w.Error:
			if err == nil {
				return nil
			}
			s.logger.Println("directory watcher error:", err)
		case <-ctx.Done():
			return nil
		}
	}
}

func (s *scanner) handleEvent(ev *fsnotify.FileEvent) {
	if !ev.IsCreate() && !ev.IsModify() {
		return
	}
	if !imageio.IsSupported(ev.Name) {
		return
	}
	report := s.scanFile(ev.Name)
	if report.err != nil && s.verbose {
		// Files are often seen before they are completely written; the
		// next modify event retries.
		s.logger.Printf("%s: %v", ev.Name, report.err)
	}
	if report.err == nil {
		s.print(report, true)
	}
}
