package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/pflag"
	"github.com/vrsandeep/nowplaying-go/internal/core"
	"github.com/vrsandeep/nowplaying-go/internal/dispatcher"
	"github.com/vrsandeep/nowplaying-go/internal/dom"
)

func main() {
	log.SetOutput(os.Stdout)
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	pageURL := pflag.StringP("url", "u", "", "URL of the page being followed (required)")
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s --url URL page.html\n", os.Args[0])
		pflag.PrintDefaults()
	}
	pflag.Parse()
	if *pageURL == "" || pflag.NArg() != 1 {
		pflag.Usage()
		os.Exit(2)
	}
	pagePath := pflag.Arg(0)

	// Initialize the core application components
	app, err := core.New(dispatcher.LogSink{})
	if err != nil {
		log.Fatalf("Fatal error during application setup: %v", err)
	}
	defer app.Close()

	d := app.Dispatcher()
	attach := func() {
		page, err := readPage(pagePath, *pageURL)
		if err != nil {
			log.Printf("Warning: could not read %s: %v", pagePath, err)
			return
		}
		d.Attach(page)
	}
	attach()

	// Re-read the page whenever it is saved again.
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		log.Fatalf("Could not create watcher: %v", err)
	}
	defer watcher.Close()
	if err := watcher.Add(filepath.Dir(pagePath)); err != nil {
		log.Fatalf("Could not watch %s: %v", pagePath, err)
	}
	go followPage(watcher, pagePath, attach)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := d.Start(ctx, app.Config().PollInterval()); err != nil {
		log.Fatalf("Could not start polling: %v", err)
	}
	log.Printf("Following %s every %v", pagePath, app.Config().PollInterval())

	// Wait for an interrupt signal.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down...")
	cancel()
	d.Stop()
	log.Println("Exiting.")
}

func readPage(path, rawURL string) (*dom.Page, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return dom.NewPage(f, rawURL)
}

// followPage calls attach once writes to path settle.
func followPage(watcher *fsnotify.Watcher, path string, attach func()) {
	var debounce *time.Timer
	target := filepath.Clean(path)
	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != target || !(event.Has(fsnotify.Write) || event.Has(fsnotify.Create)) {
				continue
			}
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(200*time.Millisecond, attach)
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			log.Printf("Warning: page watcher error: %v", err)
		}
	}
}
