package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/MakeNowJust/heredoc/v2"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/lumipallolabs/storviz/internal/api"
	"github.com/lumipallolabs/storviz/internal/config"
	"github.com/lumipallolabs/storviz/internal/core"
	"github.com/lumipallolabs/storviz/internal/logging"
	"github.com/lumipallolabs/storviz/internal/model"
	"github.com/lumipallolabs/storviz/internal/scanner"
	"github.com/lumipallolabs/storviz/internal/ui"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// options holds flag values for one invocation
type options struct {
	cfgFile string

	// scan
	jsonOut       bool
	plain         bool
	sessionID     string
	workers       int
	batchSize     int
	oneFilesystem bool
	exclude       []string
	top           int
	minSize       string

	// serve
	listen string

	// report
	rootPath string
}

func newRootCmd() *cobra.Command {
	var opts options

	root := &cobra.Command{
		Use:   "storviz",
		Short: "Disk usage scanner with streaming results",
		Long: heredoc.Doc(`
			storviz walks a directory tree and reports how much space every
			folder takes. Results stream while the scan runs, so large volumes
			show progress right away and can be cancelled at any time.
		`),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.cfgFile, "config", "", "config file (default ~/.storviz/config.yaml)")

	root.AddCommand(newScanCmd(&opts), newServeCmd(&opts), newDiskCmd(&opts), newReportCmd(&opts))
	return root
}

func newScanCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan [path]",
		Short: "Scan a directory and show where the space goes",
		Long: heredoc.Doc(`
			Scan a directory tree and report folder sizes.

			On a terminal an interactive progress view is shown, followed by
			the largest entries. Otherwise a plain summary is printed, or with
			--json every stream payload as one JSON object per line.

			Scanning a volume root (for example / or C:\) also reports disk
			usage and an estimate of how much of the used space was covered.
		`),
		Example: heredoc.Doc(`
			storviz scan ~/Downloads
			storviz scan / --one-filesystem --exclude '**/node_modules'
			storviz scan . --json | jq 'select(.isComplete)'
		`),
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "."
			if len(args) > 0 {
				path = args[0]
			}

			absPath, err := filepath.Abs(path)
			if err != nil {
				return err
			}

			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}

			scanOpts, err := cfg.ScanOptions()
			if err != nil {
				return err
			}
			minSize, err := cfg.MinSizeBytes()
			if err != nil {
				return err
			}

			svc, err := core.NewService(scanOpts)
			if err != nil {
				return err
			}

			id := opts.sessionID
			if id == "" {
				id = uuid.NewString()
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			switch {
			case opts.jsonOut:
				return runJSONScan(ctx, cmd.OutOrStdout(), svc, absPath, id)
			case !opts.plain && isatty.IsTerminal(os.Stderr.Fd()):
				return runInteractiveScan(ctx, cmd.OutOrStdout(), svc, absPath, id, cfg.Report.Top, minSize)
			default:
				return runPlainScan(ctx, cmd.OutOrStdout(), svc, absPath, id, cfg.Report.Top, minSize)
			}
		},
	}

	cmd.Flags().BoolVar(&opts.jsonOut, "json", false, "stream payloads as newline-delimited JSON")
	cmd.Flags().BoolVar(&opts.plain, "plain", false, "print a plain summary even on a terminal")
	cmd.Flags().StringVar(&opts.sessionID, "session", "", "session id (default: random)")
	cmd.Flags().IntVarP(&opts.workers, "workers", "w", scanner.DefaultWorkers, "directories read in parallel")
	cmd.Flags().IntVar(&opts.batchSize, "batch-size", scanner.DefaultBatchSize, "maximum entries per progress batch")
	cmd.Flags().BoolVarP(&opts.oneFilesystem, "one-filesystem", "x", false, "do not cross into other mounted filesystems")
	cmd.Flags().StringSliceVarP(&opts.exclude, "exclude", "e", nil, "glob patterns to skip, relative to the root (e.g. **/node_modules)")
	cmd.Flags().IntVarP(&opts.top, "top", "t", 10, "number of largest entries to show")
	cmd.Flags().StringVar(&opts.minSize, "min-size", "1MB", "hide entries smaller than this (e.g. 10MB)")

	return cmd
}

func newServeCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the scan API over HTTP",
		Long: heredoc.Doc(`
			Serve the scan API over HTTP.

			  POST   /api/scans      {"path": "...", "sessionId": "..."}  stream a scan as NDJSON
			  GET    /api/scans      list in-flight scans
			  DELETE /api/scans/:id  cancel a scan
			  GET    /api/disk?path= disk usage of the volume holding path
			  GET    /probe          health check
		`),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}

			scanOpts, err := cfg.ScanOptions()
			if err != nil {
				return err
			}
			svc, err := core.NewService(scanOpts)
			if err != nil {
				return err
			}

			rest := api.New(svc, api.Settings{
				Listen:      cfg.Server.Listen,
				CORSOrigins: cfg.Server.CORSOrigins,
			})

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			errCh := make(chan error, 1)
			go func() {
				errCh <- rest.ListenAndServe()
			}()

			fmt.Fprintf(cmd.ErrOrStderr(), "listening on %s\n", cfg.Server.Listen)

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return rest.Stop(shutdownCtx)
		},
	}

	cmd.Flags().StringVar(&opts.listen, "listen", "", "listen address (default from config, 127.0.0.1:7878)")
	return cmd
}

func newDiskCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "disk [path]",
		Short: "Show disk usage of the volume holding path",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "."
			if len(args) > 0 {
				path = args[0]
			}

			info, err := model.Probe(path)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if opts.jsonOut {
				return json.NewEncoder(out).Encode(info)
			}

			fmt.Fprintf(out, "Total:     %s\n", humanize.IBytes(uint64(info.TotalSpace)))
			fmt.Fprintf(out, "Used:      %s (%.1f%%)\n", humanize.IBytes(uint64(info.UsedSpace)), info.UsedPercent())
			fmt.Fprintf(out, "Available: %s\n", humanize.IBytes(uint64(info.AvailableSpace)))
			return nil
		},
	}

	cmd.Flags().BoolVar(&opts.jsonOut, "json", false, "output as JSON")
	return cmd
}

func newReportCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report [file]",
		Short: "Summarize a scan saved with scan --json",
		Long: heredoc.Doc(`
			Read a stream written by scan --json and print the same summary a
			plain scan prints. Without a file, or with -, the stream is read
			from stdin.
		`),
		Example: heredoc.Doc(`
			storviz scan / --json > root.ndjson
			storviz report root.ndjson --top 20
		`),
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}
			minSize, err := cfg.MinSizeBytes()
			if err != nil {
				return err
			}

			in := cmd.InOrStdin()
			if len(args) > 0 && args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}

			term, err := readTerminal(in, opts.rootPath)
			if err != nil {
				return err
			}
			printSummary(cmd.OutOrStdout(), term, cfg.Report.Top, minSize)
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.rootPath, "root", "", "path of the scanned root (default: root path from the stream)")
	cmd.Flags().IntVarP(&opts.top, "top", "t", 10, "number of largest entries to show")
	cmd.Flags().StringVar(&opts.minSize, "min-size", "1MB", "hide entries smaller than this (e.g. 10MB)")
	return cmd
}

// readTerminal returns the terminal payload of an NDJSON stream
func readTerminal(r io.Reader, rootPath string) (scanner.Terminal, error) {
	sc := bufio.NewScanner(r)
	// The terminal line holds the whole tree
	sc.Buffer(make([]byte, 0, 64*1024), 1<<30)

	for sc.Scan() {
		var p core.Payload
		if err := json.Unmarshal(sc.Bytes(), &p); err != nil {
			return scanner.Terminal{}, fmt.Errorf("read stream: %w", err)
		}
		path := rootPath
		if path == "" {
			// The terminal payload names the scanned root
			path = p.CurrentPath
		}
		if path == "" && p.RootNode != nil {
			path = p.RootNode.N
		}
		if term, ok := p.Terminal(path); ok {
			return term, nil
		}
	}
	if err := sc.Err(); err != nil {
		return scanner.Terminal{}, fmt.Errorf("read stream: %w", err)
	}
	return scanner.Terminal{}, errors.New("stream has no terminal payload")
}

// loadConfig reads the config file and applies flags that were set
// explicitly on the command line
func loadConfig(cmd *cobra.Command, opts *options) (*config.Config, error) {
	path := opts.cfgFile
	if path == "" {
		path = config.DefaultPath()
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("workers") {
		cfg.Scan.Workers = opts.workers
	}
	if flags.Changed("batch-size") {
		cfg.Scan.BatchSize = opts.batchSize
	}
	if flags.Changed("one-filesystem") {
		cfg.Scan.OneFilesystem = opts.oneFilesystem
	}
	if flags.Changed("exclude") {
		cfg.Scan.Exclude = append(cfg.Scan.Exclude, opts.exclude...)
	}
	if flags.Changed("top") {
		cfg.Report.Top = opts.top
	}
	if flags.Changed("min-size") {
		cfg.Report.MinSize = opts.minSize
	}
	if flags.Changed("listen") {
		cfg.Server.Listen = opts.listen
	}

	return cfg, nil
}

// runJSONScan writes every payload of the stream as one JSON line
func runJSONScan(ctx context.Context, w io.Writer, svc *core.Service, path, id string) error {
	ch, err := svc.ScanDirectoryStreaming(ctx, path, id)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(w)
	var writeErr error
	for msg := range ch {
		if writeErr != nil {
			continue
		}
		if err := enc.Encode(core.NewPayload(id, msg)); err != nil {
			writeErr = err
			stopScan(svc, id)
		}
	}
	return writeErr
}

func stopScan(svc *core.Service, id string) {
	if err := svc.CancelScan(id); err != nil {
		logging.Debug.Debug().Err(err).Str("session", id).Msg("cli cancel")
	}
}

func runInteractiveScan(ctx context.Context, w io.Writer, svc *core.Service, path, id string, top int, minSize int64) error {
	app := ui.NewApp(ctx, svc, path, id, ui.Options{Top: top, MinSize: minSize})

	p := tea.NewProgram(app, tea.WithOutput(os.Stderr), tea.WithContext(ctx))
	final, err := p.Run()
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return err
	}

	res, ok := final.(ui.App)
	if !ok {
		return nil
	}
	if res.Err() != nil {
		return res.Err()
	}
	if term := res.Result(); term != nil {
		printSummary(w, *term, top, minSize)
	}
	return nil
}

func runPlainScan(ctx context.Context, w io.Writer, svc *core.Service, path, id string, top int, minSize int64) error {
	ch, err := svc.ScanDirectoryStreaming(ctx, path, id)
	if err != nil {
		return err
	}

	var term scanner.Terminal
	for msg := range ch {
		if t, ok := msg.(scanner.Terminal); ok {
			term = t
		}
	}

	printSummary(w, term, top, minSize)
	return nil
}

// printSummary prints totals and the largest entries directly under the root
func printSummary(w io.Writer, term scanner.Terminal, top int, minSize int64) {
	if term.Root == nil {
		return
	}
	root := term.Root

	files, dirs := root.Count()
	status := "complete"
	if term.Cancelled {
		status = "cancelled"
	}

	fmt.Fprintf(w, "%s  %s (%s)\n", root.Path, humanize.IBytes(uint64(root.Size)), status)
	fmt.Fprintf(w, "%s files, %s folders in %s\n",
		humanize.Comma(files), humanize.Comma(dirs), term.Elapsed.Truncate(time.Millisecond))
	if term.Errors > 0 {
		fmt.Fprintf(w, "%d entries could not be read\n", term.Errors)
	}
	if term.DiskInfo != nil {
		fmt.Fprintf(w, "volume: %s used of %s, %s available\n",
			humanize.IBytes(uint64(term.DiskInfo.UsedSpace)),
			humanize.IBytes(uint64(term.DiskInfo.TotalSpace)),
			humanize.IBytes(uint64(term.DiskInfo.AvailableSpace)))
	}

	largest := model.Largest(root, top)
	if len(largest) == 0 {
		return
	}
	fmt.Fprintln(w)

	for _, n := range largest {
		if n.Size < minSize {
			continue
		}
		var pct float64
		if root.Size > 0 {
			pct = float64(n.Size) / float64(root.Size) * 100
		}
		name := n.Name
		if n.IsDir {
			name += string(filepath.Separator)
		}
		fmt.Fprintf(w, "%10s  %5.1f%%  %s\n", humanize.IBytes(uint64(n.Size)), pct, name)
	}
}
