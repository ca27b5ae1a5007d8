package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
)

// settle is how long the files must stay unchanged before they are run
// again; editors often write a file in several steps.
const settle = 100 * time.Millisecond

// watch evaluates the files of cfg in a fresh interpreter, and again
// whenever one of them is written, until it is interrupted.
func watch(cfg *config) int {
	var files []string
	watched := make(map[string]bool)
	dirs := make(map[string]bool)
	for _, f := range cfg.files {
		if f == "-" {
			continue
		}
		abs, err := filepath.Abs(f)
		if err != nil {
			log.Println(err)
			return 1
		}
		files = append(files, f)
		watched[abs] = true
		dirs[filepath.Dir(abs)] = true
	}
	if len(files) == 0 {
		log.Println("-watch needs at least one file")
		return 2
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		log.Println(err)
		return 1
	}
	defer w.Close()
	// Directories are watched since editors may replace the file itself.
	for d := range dirs {
		if err := w.Add(d); err != nil {
			log.Println(err)
			return 1
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	once := *cfg
	once.expr = ""
	once.files = files
	runOnce := func() {
		in, closeJournal, err := newInterpreter(&once, os.Stdout)
		if err != nil {
			log.Println(err)
			return
		}
		defer closeJournal()
		run(in, &once, os.Stdout)
	}

	runOnce()
	var pending <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return 0
		case ev, ok := <-w.Events:
			if !ok {
				return 0
			}
			if watched[filepath.Clean(ev.Name)] &&
				ev.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				pending = time.After(settle)
			}
		case <-pending:
			pending = nil
			log.Println("rerunning", files)
			runOnce()
		case err, ok := <-w.Errors:
			if !ok {
				return 0
			}
			log.Println(err)
		}
	}
}
