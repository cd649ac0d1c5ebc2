package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/yourusername/youtubify-go/internal/app"
	"github.com/yourusername/youtubify-go/internal/domain"
)

var (
	serverURL   string
	noAutoStart bool
	timeout     time.Duration
	rootCmd     = &cobra.Command{
		Use:           "youtubify",
		Short:         "Youtubify CLI - playlist and video downloader",
		Long:          `A command-line interface for submitting and following download jobs on a youtubify server.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:8080", "Server URL")
	rootCmd.PersistentFlags().BoolVar(&noAutoStart, "no-auto-start", false, "Don't auto-start server if not running")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 90*time.Second, "HTTP request timeout")

	rootCmd.AddCommand(playlistCmd)
	rootCmd.AddCommand(videoCmd)
	rootCmd.AddCommand(probeCmd)
	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(cancelCmd)
	rootCmd.AddCommand(logsCmd)

	for _, cmd := range []*cobra.Command{playlistCmd, videoCmd} {
		cmd.Flags().StringP("dir", "d", "", "Destination directory (server default when empty)")
		cmd.Flags().Bool("subs", false, "Download subtitles")
		cmd.Flags().StringSlice("lang", nil, "Subtitle languages (default en)")
		cmd.Flags().BoolP("wait", "w", false, "Follow the job until it finishes")
	}
	videoCmd.Flags().StringP("format", "f", string(domain.FormatVideo), "Export format (mp4, mp3, wav)")
	videoCmd.Flags().IntP("resolution", "r", 0, "Maximum video height, e.g. 1080")
	videoCmd.Flags().String("probe", "", "Probe policy (none, probe_then_download, probe_then_wait)")

	listCmd.Flags().StringP("status", "s", "", "Filter by status")
	listCmd.Flags().StringP("kind", "k", "", "Filter by kind (playlist, single_item)")

	startCmd.Flags().StringP("format", "f", "", "Override export format")
	startCmd.Flags().IntP("resolution", "r", 0, "Override maximum video height")
	startCmd.Flags().BoolP("wait", "w", false, "Follow the job until it finishes")

	logsCmd.Flags().IntP("lines", "n", 50, "Number of lines to show")
	logsCmd.Flags().StringP("query", "q", "", "Only show lines containing this text")
}

// newClient builds the API client and starts a local server if needed (unless --no-auto-start)
func newClient() *Client {
	client := NewClient(serverURL, timeout)
	if !noAutoStart {
		if err := ensureServerRunning(client); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		}
	}
	return client
}

var playlistCmd = &cobra.Command{
	Use:   "playlist [url]",
	Short: "Download every item of a playlist",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		req, err := baseRequest(cmd, domain.KindPlaylist, args[0])
		if err != nil {
			return err
		}
		return submit(cmd, newClient(), req)
	},
}

var videoCmd = &cobra.Command{
	Use:   "video [url]",
	Short: "Download a single video or its audio track",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		req, err := baseRequest(cmd, domain.KindSingleItem, args[0])
		if err != nil {
			return err
		}

		format, _ := cmd.Flags().GetString("format")
		resolution, _ := cmd.Flags().GetInt("resolution")
		probe, _ := cmd.Flags().GetString("probe")

		req.TargetFormat = domain.TargetFormat(format)
		if resolution > 0 {
			req.TargetResolutionHeight = domain.Height(resolution)
		}
		req.Probe = domain.ProbePolicy(probe)

		return submit(cmd, newClient(), req)
	},
}

var probeCmd = &cobra.Command{
	Use:   "probe [url]",
	Short: "Show the title and available resolutions of a video",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		meta, err := newClient().Probe(args[0])
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Title:       %s\n", meta.Title)
		fmt.Fprintf(out, "Resolutions: %s\n", formatHeights(meta.Heights))
		return nil
	},
}

var getCmd = &cobra.Command{
	Use:   "get [id]",
	Short: "Show the current state of a job",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		snap, err := newClient().Get(args[0])
		if err != nil {
			return err
		}
		printSnapshot(cmd.OutOrStdout(), *snap)
		return nil
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored jobs",
	RunE: func(cmd *cobra.Command, args []string) error {
		status, _ := cmd.Flags().GetString("status")
		kind, _ := cmd.Flags().GetString("kind")

		records, err := newClient().List(status, kind)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tKIND\tURL\tSTATUS\tPROGRESS\tCREATED")
		for _, r := range records {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%.0f%%\t%s\n",
				truncate(r.ID, 8),
				r.Kind,
				truncate(r.URL, 40),
				r.Status,
				r.Progress*100,
				r.CreatedAt.Local().Format("2006-01-02 15:04"))
		}
		return w.Flush()
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show job statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		stats, err := newClient().Stats()
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "Job Statistics:")
		fmt.Fprintf(out, "  Total:           %d\n", stats.Total)
		fmt.Fprintf(out, "  Idle:            %d\n", stats.Idle)
		fmt.Fprintf(out, "  Validating:      %d\n", stats.Validating)
		fmt.Fprintf(out, "  Fetching:        %d\n", stats.Fetching)
		fmt.Fprintf(out, "  Downloading:     %d\n", stats.Downloading)
		fmt.Fprintf(out, "  Post-processing: %d\n", stats.PostProcessing)
		fmt.Fprintf(out, "  Completed:       %d\n", stats.Completed)
		fmt.Fprintf(out, "  Failed:          %d\n", stats.Failed)
		return nil
	},
}

var startCmd = &cobra.Command{
	Use:   "start [id]",
	Short: "Start a job that is waiting after its metadata probe",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		resolution, _ := cmd.Flags().GetInt("resolution")
		wait, _ := cmd.Flags().GetBool("wait")

		opts := app.StartOptions{TargetFormat: domain.TargetFormat(format)}
		if resolution > 0 {
			opts.TargetResolutionHeight = domain.Height(resolution)
		}

		client := newClient()
		if err := client.Start(args[0], opts); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Job %s started\n", args[0])

		if wait {
			return follow(cmd, client, args[0], false)
		}
		return nil
	},
}

var cancelCmd = &cobra.Command{
	Use:   "cancel [id]",
	Short: "Cancel a job",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := newClient().Cancel(args[0]); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Cancellation requested")
		return nil
	},
}

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Show recent status lines from all jobs",
	RunE: func(cmd *cobra.Command, args []string) error {
		lines, _ := cmd.Flags().GetInt("lines")
		query, _ := cmd.Flags().GetString("query")

		entries, err := newClient().Logs(lines, query)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		for _, e := range entries {
			fmt.Fprintf(out, "%s %s\n", e.Timestamp.Local().Format("15:04:05"), e.Line())
		}
		return nil
	},
}

// baseRequest reads the flags shared by playlist and video
func baseRequest(cmd *cobra.Command, kind domain.JobKind, url string) (domain.JobRequest, error) {
	dir, _ := cmd.Flags().GetString("dir")
	subs, _ := cmd.Flags().GetBool("subs")
	langs, _ := cmd.Flags().GetStringSlice("lang")

	// the server resolves relative paths against its own working directory
	if dir != "" {
		abs, err := filepath.Abs(dir)
		if err != nil {
			return domain.JobRequest{}, fmt.Errorf("invalid destination %q: %w", dir, err)
		}
		dir = abs
	}

	return domain.JobRequest{
		Kind:              kind,
		SourceURL:         url,
		DestinationDir:    dir,
		SubtitlesEnabled:  subs,
		SubtitleLanguages: langs,
	}, nil
}

func submit(cmd *cobra.Command, client *Client, req domain.JobRequest) error {
	resp, err := client.Submit(req)
	if err != nil {
		if resp != nil && resp.JobID != "" {
			return fmt.Errorf("job %s rejected: %w", resp.JobID, err)
		}
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Job submitted successfully!")
	fmt.Fprintf(out, "ID: %s\n", resp.JobID)
	if resp.Snapshot != nil {
		fmt.Fprintf(out, "Status: %s\n", resp.Snapshot.Status)
	}

	if wait, _ := cmd.Flags().GetBool("wait"); wait {
		return follow(cmd, client, resp.JobID, true)
	}
	return nil
}

// follow prints each snapshot of a job until it finishes. With stopWhenParked a
// job parked after its probe is reported and left waiting for an explicit start;
// the stream replays history, so a started job still shows its parked snapshot.
func follow(cmd *cobra.Command, client *Client, id string, stopWhenParked bool) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	out := cmd.OutOrStdout()
	var parked bool
	final, err := client.Follow(ctx, id, func(snap domain.Snapshot) {
		fmt.Fprintln(out, progressLine(snap))
		if stopWhenParked && snap.AwaitingStart {
			parked = true
			cancel()
		}
	})
	if parked {
		fmt.Fprintf(out, "Job is waiting; run 'youtubify start %s' to download\n", id)
		return nil
	}
	if err != nil {
		return err
	}

	if final.Status == domain.StatusFailed {
		return fmt.Errorf("job %s failed: %s", id, final.LastMessage)
	}
	return nil
}

func progressLine(snap domain.Snapshot) string {
	return fmt.Sprintf("[%-15s] %5.1f%%  %s", snap.Status, snap.ProgressFraction*100, snap.LastMessage)
}

func printSnapshot(w io.Writer, snap domain.Snapshot) {
	fmt.Fprintln(w, "Job Details:")
	fmt.Fprintf(w, "  ID:       %s\n", snap.JobID)
	fmt.Fprintf(w, "  Kind:     %s\n", snap.Kind)
	fmt.Fprintf(w, "  URL:      %s\n", snap.SourceURL)
	fmt.Fprintf(w, "  Status:   %s\n", snap.Status)
	fmt.Fprintf(w, "  Progress: %.1f%%\n", snap.ProgressFraction*100)
	fmt.Fprintf(w, "  Message:  %s\n", snap.LastMessage)
	if snap.Error != nil {
		fmt.Fprintf(w, "  Error:    %s (%s)\n", snap.Error.Message, snap.Error.Kind)
	}
	if snap.Metadata != nil {
		fmt.Fprintf(w, "  Title:    %s\n", snap.Metadata.Title)
		fmt.Fprintf(w, "  Heights:  %s\n", formatHeights(snap.Metadata.Heights))
	}
	if snap.AwaitingStart {
		fmt.Fprintln(w, "  Waiting for start")
	}
}

func formatHeights(heights []int) string {
	if len(heights) == 0 {
		return "unknown"
	}
	parts := make([]string, len(heights))
	for i, h := range heights {
		parts[i] = fmt.Sprintf("%dp", h)
	}
	return strings.Join(parts, ", ")
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
