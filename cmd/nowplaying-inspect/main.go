// nowplaying-inspect reads a saved page, picks the site that handles it and
// prints what the site reports. It is a tool for writing and debugging site
// adapters against captured markup.
package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/spf13/pflag"
	"github.com/vrsandeep/nowplaying-go/internal/core"
	"github.com/vrsandeep/nowplaying-go/internal/dispatcher"
	"github.com/vrsandeep/nowplaying-go/internal/dom"
	"github.com/vrsandeep/nowplaying-go/internal/models"
)

type report struct {
	Site      string                `json:"site"`
	Ready     bool                  `json:"ready"`
	Snapshot  *models.Snapshot      `json:"snapshot,omitempty"`
	Supported []models.CommandName  `json:"supported"`
	Result    *models.CommandResult `json:"result,omitempty"`
	After     *models.Snapshot      `json:"after,omitempty"`
}

func main() {
	log.SetOutput(os.Stderr)
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	pageURL := pflag.StringP("url", "u", "", "URL the page was saved from (required)")
	sessionPath := pflag.String("session", "", "JSON file with media session metadata to publish")
	command := pflag.StringP("command", "c", "", "command to execute after the first snapshot")
	value := pflag.Float64("value", 0, "argument for --command")
	coverWait := pflag.Duration("cover-wait", 0, "wait this long for background cover probes before reading")
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s --url URL [flags] page.html\n", os.Args[0])
		pflag.PrintDefaults()
	}
	pflag.Parse()

	if *pageURL == "" || pflag.NArg() != 1 {
		pflag.Usage()
		os.Exit(2)
	}

	app, err := core.New(dispatcher.LogSink{})
	if err != nil {
		log.Fatalf("Fatal error during application setup: %v", err)
	}
	defer app.Close()

	page, err := loadPage(pflag.Arg(0), *pageURL, *sessionPath)
	if err != nil {
		log.Fatalf("Could not load page: %v", err)
	}

	d := app.Dispatcher()
	info, ok := d.Attach(page)
	if !ok {
		log.Fatalf("No site handles %s", *pageURL)
	}

	out := report{Site: info.ID, Supported: d.Supported()}
	out.Snapshot, out.Ready = poll(d, *coverWait)

	if *command != "" {
		result, err := d.Execute(models.Command{Name: models.CommandName(*command), Value: *value})
		if err != nil {
			log.Fatalf("Could not execute %s: %v", *command, err)
		}
		out.Result = &result
		out.After, _ = poll(d, 0)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		log.Fatalf("Could not write report: %v", err)
	}
}

func loadPage(path, rawURL, sessionPath string) (*dom.Page, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	page, err := dom.NewPage(f, rawURL)
	if err != nil {
		return nil, err
	}

	if sessionPath != "" {
		data, err := os.ReadFile(sessionPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read media session: %w", err)
		}
		var meta dom.MediaMetadata
		if err := json.Unmarshal(data, &meta); err != nil {
			return nil, fmt.Errorf("failed to parse media session: %w", err)
		}
		page.SetMediaSession(&meta)
	}
	return page, nil
}

// poll reads a snapshot. Cover art may be probed in the background, so
// with a wait the first read only starts the probe.
func poll(d *dispatcher.Dispatcher, wait time.Duration) (*models.Snapshot, bool) {
	snap, ready, err := d.Poll()
	if err != nil || !ready {
		return nil, false
	}
	if wait > 0 {
		time.Sleep(wait)
		snap, ready, err = d.Poll()
		if err != nil || !ready {
			return nil, false
		}
	}
	return &snap, true
}
