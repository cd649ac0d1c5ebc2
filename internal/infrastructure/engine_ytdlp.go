package infrastructure

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/yourusername/youtubify-go/internal/domain"
)

// progressPrefix marks the machine-readable lines produced by progressTemplate
const progressPrefix = "[progress]"

// progressTemplate makes yt-dlp print one parseable line per progress hook:
// status, downloaded bytes, total bytes, estimated total. Unknown values print as NA.
const progressTemplate = "download:" + progressPrefix +
	" %(progress.status)s %(progress.downloaded_bytes)s %(progress.total_bytes)s %(progress.total_bytes_estimate)s"

// postProcessorTags are yt-dlp output prefixes that mean the transfer is over
var postProcessorTags = []string{"[Merger]", "[ExtractAudio]", "[VideoConvertor]", "[FixupM3u8]", "[EmbedSubtitle]"}

// YTDLPEngine implements domain.FetchEngine by running the yt-dlp binary
type YTDLPEngine struct {
	config *domain.EngineConfig
	logger *zap.Logger
}

// NewYTDLPEngine creates a new yt-dlp backed fetch engine
func NewYTDLPEngine(config *domain.EngineConfig, logger *zap.Logger) *YTDLPEngine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &YTDLPEngine{config: config, logger: logger}
}

// Probe fetches metadata for a single item without downloading it
func (e *YTDLPEngine) Probe(ctx context.Context, url string) (*domain.ProbeResult, error) {
	if e.config.ProbeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.config.ProbeTimeout)
		defer cancel()
	}

	args := []string{"-J", "--skip-download", "--no-playlist", "--no-warnings"}
	args = append(args, e.cookieArgs()...)
	args = append(args, url)

	e.logger.Debug("Probing", zap.String("cmd", ShellEscapeCommand(e.config.YTDLPBinary, args...)))

	stderr := newTailBuffer(4096)
	cmd := exec.CommandContext(ctx, e.config.YTDLPBinary, args...)
	cmd.Stderr = stderr

	out, err := cmd.Output()
	if err != nil {
		return nil, commandError("yt-dlp probe failed", err, stderr)
	}

	return ParseProbeOutput(out)
}

// Download runs yt-dlp with the resolved parameters, forwarding progress lines to onProgress
func (e *YTDLPEngine) Download(ctx context.Context, url string, params domain.EngineParameters, onProgress domain.ProgressFunc) error {
	if err := os.MkdirAll(params.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create destination directory: %w", err)
	}

	if onProgress == nil {
		onProgress = func(domain.ProgressEvent) {}
	}

	args := BuildDownloadArgs(url, params)
	args = append(e.cookieArgs(), args...)
	cmdLine := ShellEscapeCommand(e.config.YTDLPBinary, args...)

	var logFile io.Writer = io.Discard
	if e.config.LogsDir != "" {
		f, err := e.openLogFile()
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		defer f.Close()
		writeLogHeader(f, url, cmdLine)
		logFile = &lockedWriter{w: f}
	}

	e.logger.Info("Starting yt-dlp", zap.String("url", url), zap.String("cmd", cmdLine))

	stderr := newTailBuffer(4096)
	cmd := exec.CommandContext(ctx, e.config.YTDLPBinary, args...)
	cmd.Stderr = io.MultiWriter(stderr, logFile)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("failed to attach stdout: %w", err)
	}

	if err := cmd.Start(); err != nil {
		writeLogFooter(logFile, false, err.Error())
		return fmt.Errorf("failed to start yt-dlp: %w", err)
	}

	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if ev, ok := ParseProgressLine(line); ok {
			onProgress(ev)
			continue
		}
		fmt.Fprintln(logFile, line)
		if isPostProcessorLine(line) {
			onProgress(domain.ProgressEvent{Kind: domain.ProgressTransferComplete})
		}
	}
	if err := scanner.Err(); err != nil {
		// keep the pipe drained or yt-dlp blocks on its next write
		e.logger.Warn("Stopped parsing yt-dlp output", zap.String("url", url), zap.Error(err))
		io.Copy(logFile, stdout)
	}

	if err := cmd.Wait(); err != nil {
		cerr := commandError("yt-dlp failed", err, stderr)
		writeLogFooter(logFile, false, cerr.Error())
		return cerr
	}

	writeLogFooter(logFile, true, "Downloaded to "+params.OutputDir)
	return nil
}

// BuildDownloadArgs translates engine-neutral parameters into yt-dlp arguments
func BuildDownloadArgs(url string, params domain.EngineParameters) []string {
	args := []string{
		"--newline",
		"--no-colors",
		"--progress-template", progressTemplate,
		"-P", params.OutputDir,
	}

	switch params.Naming {
	case domain.NamingPositionAndTitle:
		args = append(args, "-o", "%(playlist_index)s - %(title)s.%(ext)s")
	default:
		args = append(args, "-o", "%(title)s.%(ext)s")
	}

	if params.ExpandPlaylist {
		args = append(args, "--yes-playlist")
	} else {
		args = append(args, "--no-playlist")
	}

	args = append(args, "-f", formatSelector(params.Selection))

	if pp := params.PostProcess; pp != nil {
		args = append(args,
			"-x",
			"--audio-format", string(pp.Codec),
			"--audio-quality", strconv.Itoa(pp.QualityKbps)+"K",
		)
	} else if params.Selection.Kind == domain.SelectBestVideoAudio {
		args = append(args, "--merge-output-format", string(domain.FormatVideo))
	}

	if params.Subtitles.Enabled {
		args = append(args, "--write-subs", "--sub-langs", strings.Join(params.Subtitles.Languages, ","))
	}

	return append(args, url)
}

func formatSelector(sel domain.StreamSelection) string {
	switch {
	case sel.Kind == domain.SelectBestAudio:
		return "bestaudio/best"
	case sel.MaxHeight > 0:
		return fmt.Sprintf("bestvideo[height<=%d]+bestaudio/best", sel.MaxHeight)
	default:
		return "bestvideo+bestaudio/best"
	}
}

// ParseProgressLine parses a line printed with progressTemplate
func ParseProgressLine(line string) (domain.ProgressEvent, bool) {
	rest, ok := strings.CutPrefix(strings.TrimSpace(line), progressPrefix)
	if !ok {
		return domain.ProgressEvent{}, false
	}

	fields := strings.Fields(rest)
	if len(fields) == 0 {
		return domain.ProgressEvent{}, false
	}

	ev := domain.ProgressEvent{}
	switch fields[0] {
	case "downloading":
		ev.Kind = domain.ProgressBytes
	case "finished":
		ev.Kind = domain.ProgressTransferComplete
	default:
		// yt-dlp also reports "error"; the exit status carries that
		return domain.ProgressEvent{}, false
	}

	values := []*int64{&ev.DownloadedBytes, &ev.TotalBytes, &ev.TotalBytesEstimate}
	for i, dst := range values {
		if i+1 < len(fields) {
			*dst = parseByteCount(fields[i+1])
		}
	}
	return ev, true
}

// parseByteCount accepts integers and yt-dlp's float estimates; NA and garbage are 0
func parseByteCount(s string) int64 {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f > 0 {
		return int64(f)
	}
	return 0
}

// probeInfo is the subset of yt-dlp's -J output the probe needs
type probeInfo struct {
	Title   string `json:"title"`
	Height  *int   `json:"height"`
	Formats []struct {
		Height *int `json:"height"`
	} `json:"formats"`
}

// ParseProbeOutput extracts the title and the offered video heights from yt-dlp -J output
func ParseProbeOutput(data []byte) (*domain.ProbeResult, error) {
	var info probeInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("failed to parse yt-dlp metadata: %w", err)
	}

	res := &domain.ProbeResult{Title: info.Title}
	for _, f := range info.Formats {
		if f.Height != nil {
			res.Heights = append(res.Heights, *f.Height)
		}
	}
	if len(res.Heights) == 0 && info.Height != nil {
		res.Heights = append(res.Heights, *info.Height)
	}
	return res, nil
}

func isPostProcessorLine(line string) bool {
	for _, tag := range postProcessorTags {
		if strings.HasPrefix(line, tag) {
			return true
		}
	}
	return false
}

func (e *YTDLPEngine) cookieArgs() []string {
	if e.config.CookieFile != "" && fileExists(e.config.CookieFile) {
		return []string{"--cookies", e.config.CookieFile}
	}
	return nil
}

// openLogFile opens the engine log file for today
func (e *YTDLPEngine) openLogFile() (*os.File, error) {
	if err := os.MkdirAll(e.config.LogsDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create logs directory: %w", err)
	}

	dateStr := time.Now().Format("20060102")
	path := filepath.Join(e.config.LogsDir, "download-"+dateStr+".log")
	return os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
}

func writeLogHeader(w io.Writer, url, cmdLine string) {
	timestamp := time.Now().Format("2006-01-02 15:04:05")
	fmt.Fprintf(w, "\n=== [%s] Download: %s ===\n", timestamp, url)
	fmt.Fprintf(w, "$ %s\n", cmdLine)
}

func writeLogFooter(w io.Writer, success bool, message string) {
	timestamp := time.Now().Format("2006-01-02 15:04:05")
	status := "SUCCESS"
	if !success {
		status = "FAILED"
	}
	fmt.Fprintf(w, "[%s] %s: %s\n", timestamp, status, message)
	fmt.Fprint(w, "=== END ===\n\n")
}

// commandError adds the last stderr line to a failed command's error
func commandError(prefix string, err error, stderr *tailBuffer) error {
	if line := stderr.LastLine(); line != "" {
		return fmt.Errorf("%s: %s", prefix, line)
	}
	return fmt.Errorf("%s: %w", prefix, err)
}

// tailBuffer keeps the last max bytes written to it
type tailBuffer struct {
	mu  sync.Mutex
	max int
	buf []byte
}

func newTailBuffer(max int) *tailBuffer {
	return &tailBuffer{max: max}
}

func (b *tailBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.buf = append(b.buf, p...)
	if over := len(b.buf) - b.max; over > 0 {
		b.buf = append(b.buf[:0], b.buf[over:]...)
	}
	return len(p), nil
}

// LastLine returns the last non-empty line written
func (b *tailBuffer) LastLine() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	lines := strings.Split(string(b.buf), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if l := strings.TrimSpace(lines[i]); l != "" {
			return l
		}
	}
	return ""
}

// lockedWriter serializes writes from the stdout scanner and the stderr copier
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}

// fileExists checks if a file exists
func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
