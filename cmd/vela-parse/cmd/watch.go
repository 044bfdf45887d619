package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/vela-lang/vela/cache"
	"github.com/vela-lang/vela/parse"
	"github.com/vela-lang/vela/render"
)

var dumpCachePath string

var watchCmd = &cobra.Command{
	Use:   "watch [file]",
	Short: "Re-parse a file on every save and report only when the result changes",
	Args:  cobra.ExactArgs(1),
	RunE:  runWatch,
}

func init() {
	watchCmd.Flags().StringVar(&dumpCachePath, "dump-cache", "", "write the MAGIC|VERSION|FLAGS|BODY_LEN|BODY cache summary to this path on every change")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	path := args[0]

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("starting file watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(path); err != nil {
		return fmt.Errorf("watching %s: %w", path, err)
	}

	store := cache.NewStore()
	if err := reportIfChanged(store, path); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			// Editors that save via rename-and-replace drop the original
			// inode briefly; a short debounce avoids reading a half-written file.
			time.Sleep(20 * time.Millisecond)
			if err := reportIfChanged(store, path); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintf(os.Stderr, "watch error: %v\n", err)
		}
	}
}

func reportIfChanged(store *cache.Store, path string) error {
	src, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	result := parse.Parse(src, grammar)
	summary := cache.Summarize(src, result)

	if !store.Update(path, summary) {
		return nil
	}

	if dumpCachePath != "" {
		if err := dumpCacheSummary(dumpCachePath, summary); err != nil {
			return err
		}
	}

	if len(result.Diagnostics) == 0 {
		fmt.Printf("%s: ok\n", path)
		return nil
	}
	fmt.Printf("%s: %d diagnostic(s)\n", path, len(result.Diagnostics))
	for _, d := range result.Diagnostics {
		if err := render.Diagnostic(os.Stdout, src, d); err != nil {
			return err
		}
	}
	return nil
}

// dumpCacheSummary writes summary to path in the Encode framing, truncating
// whatever was there before. The output is byte-stable for a given Summary:
// canonical CBOR plus a fixed preamble, so two writes of an unchanged parse
// produce identical files.
func dumpCacheSummary(path string, summary cache.Summary) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating cache dump %s: %w", path, err)
	}
	defer f.Close()
	if err := cache.Encode(f, summary); err != nil {
		return fmt.Errorf("writing cache dump %s: %w", path, err)
	}
	return nil
}
