package app

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/yourusername/youtubify-go/internal/domain"
)

var (
	ErrJobNotFound         = errors.New("job not found")
	ErrJobTerminal         = errors.New("job already in terminal state")
	ErrJobNotAwaitingStart = errors.New("job is not waiting for a start trigger")
	ErrManagerClosed       = errors.New("job manager is shut down")
)

const defaultHistoryLimit = 512

// StartOptions are the choices made after a probe, applied when a parked job starts.
// Zero fields keep the submitted request's values.
type StartOptions struct {
	TargetFormat           domain.TargetFormat `json:"format,omitempty"`
	TargetResolutionHeight *int                `json:"resolution,omitempty"`
}

// managedJob is the manager-private state of one job. All fields are guarded by mu.
type managedJob struct {
	mu          sync.Mutex
	job         *domain.DownloadJob
	reporter    *ProgressReporter
	history     []domain.Snapshot
	subscribers map[int]*subscriber
	nextSubID   int
	lastLogged  string

	ctx     context.Context
	cancel  context.CancelFunc
	startCh chan StartOptions
	done    chan struct{}
}

// JobManager accepts job submissions and runs each one on its own goroutine
type JobManager struct {
	engine   domain.FetchEngine
	repo     domain.JobRepository
	sink     domain.LogSink
	notifier domain.Notifier
	config   *domain.DownloadConfig
	logger   *zap.Logger

	sem chan struct{} // nil when unbounded

	mu     sync.RWMutex
	jobs   map[string]*managedJob
	probes map[string]domain.MediaMetadata
	closed bool
	wg     sync.WaitGroup
}

// NewJobManager creates a new job manager. repo, sink and notifier may be nil.
func NewJobManager(
	engine domain.FetchEngine,
	repo domain.JobRepository,
	sink domain.LogSink,
	notifier domain.Notifier,
	config *domain.DownloadConfig,
	logger *zap.Logger,
) *JobManager {
	if config == nil {
		config = &domain.DefaultConfig().Download
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	var sem chan struct{}
	if config.MaxConcurrent > 0 {
		sem = make(chan struct{}, config.MaxConcurrent)
	}

	return &JobManager{
		engine:   engine,
		repo:     repo,
		sink:     sink,
		notifier: notifier,
		config:   config,
		logger:   logger,
		sem:      sem,
		jobs:     make(map[string]*managedJob),
		probes:   make(map[string]domain.MediaMetadata),
	}
}

// Submit validates a request, registers the job and starts it without blocking.
// Input errors are returned together with the ID of the already failed job.
func (m *JobManager) Submit(req domain.JobRequest) (string, error) {
	req = m.normalizeRequest(req)

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return "", ErrManagerClosed
	}
	job := domain.NewDownloadJob(req)
	ctx, cancel := context.WithCancel(context.Background())
	mj := &managedJob{
		job:         job,
		reporter:    NewProgressReporter(),
		subscribers: make(map[int]*subscriber),
		ctx:         ctx,
		cancel:      cancel,
		startCh:     make(chan StartOptions, 1),
		done:        make(chan struct{}),
	}
	m.jobs[job.ID] = mj
	// added under the lock so a concurrent Shutdown waits for this job
	m.wg.Add(1)
	m.mu.Unlock()

	m.logger.Info("Job submitted",
		zap.String("job_id", job.ID),
		zap.String("kind", string(req.Kind)),
		zap.String("url", req.SourceURL))

	if jobErr, message := validateRequest(req); jobErr != nil {
		mj.mu.Lock()
		m.transition(mj, domain.StatusValidating, "")
		m.failLocked(mj, jobErr, message)
		mj.mu.Unlock()
		cancel()
		m.wg.Done()
		return job.ID, jobErr
	}

	mj.mu.Lock()
	m.transition(mj, domain.StatusValidating, startMessage(req, m.probePolicy(req)))
	mj.mu.Unlock()

	go m.run(mj)

	return job.ID, nil
}

// ProbeMetadata runs the engine's no-download probe and caches the result for the URL
func (m *JobManager) ProbeMetadata(ctx context.Context, url string) (meta domain.MediaMetadata, err error) {
	url = strings.TrimSpace(url)
	tag := domain.KindSingleItem.Tag()
	if url == "" {
		m.writeLine(tag + " Error: Enter a video URL")
		return domain.MediaMetadata{}, domain.Errorf(domain.ErrorMissingURL, "source url is empty")
	}

	m.writeLine(tag + " Fetching video info...")
	meta, err = m.probe(ctx, url)
	if err != nil {
		m.writeLine(fmt.Sprintf("%s Error fetching info: %v", tag, unwrapMessage(err)))
		return domain.MediaMetadata{}, err
	}
	m.writeLine(tag + " Video info fetched successfully.")
	return meta, nil
}

// Subscribe returns a channel receiving the job's snapshots, starting with its
// retained history. The channel is closed after the terminal snapshot, or when
// the returned cancel func is called.
func (m *JobManager) Subscribe(jobID string) (<-chan domain.Snapshot, func(), error) {
	mj, ok := m.lookup(jobID)
	if !ok {
		return nil, nil, ErrJobNotFound
	}

	sub := newSubscriber()

	mj.mu.Lock()
	for _, snap := range mj.history {
		sub.push(snap)
	}
	if mj.job.Status.IsTerminal() {
		sub.finish()
		mj.mu.Unlock()
		return sub.out, sub.cancel, nil
	}
	id := mj.nextSubID
	mj.nextSubID++
	mj.subscribers[id] = sub
	mj.mu.Unlock()

	unsubscribe := func() {
		mj.mu.Lock()
		delete(mj.subscribers, id)
		mj.mu.Unlock()
		sub.cancel()
	}
	return sub.out, unsubscribe, nil
}

// Start releases a job parked after its probe, optionally overriding format and resolution
func (m *JobManager) Start(jobID string, opts StartOptions) error {
	mj, ok := m.lookup(jobID)
	if !ok {
		return ErrJobNotFound
	}

	mj.mu.Lock()
	defer mj.mu.Unlock()

	if mj.job.Status.IsTerminal() {
		return ErrJobTerminal
	}
	if !mj.job.AwaitingStart {
		return ErrJobNotAwaitingStart
	}
	if opts.TargetFormat != "" && !domain.ValidateFormat(opts.TargetFormat) {
		return domain.Errorf(domain.ErrorInvalidOptions, "unsupported format %q", opts.TargetFormat)
	}

	mj.job.AwaitingStart = false
	mj.startCh <- opts
	return nil
}

// Cancel requests cooperative cancellation. It takes effect at the job's next
// checkpoint; an in-flight transfer is aborted if the engine honours the context.
func (m *JobManager) Cancel(jobID string) error {
	mj, ok := m.lookup(jobID)
	if !ok {
		return ErrJobNotFound
	}

	mj.mu.Lock()
	terminal := mj.job.Status.IsTerminal()
	mj.mu.Unlock()
	if terminal {
		return ErrJobTerminal
	}

	mj.cancel()
	m.logger.Info("Job cancellation requested", zap.String("job_id", jobID))
	return nil
}

// Get returns the current snapshot of a job
func (m *JobManager) Get(jobID string) (domain.Snapshot, error) {
	mj, ok := m.lookup(jobID)
	if !ok {
		return domain.Snapshot{}, ErrJobNotFound
	}
	mj.mu.Lock()
	defer mj.mu.Unlock()
	return mj.job.Snapshot(), nil
}

// Wait blocks until the job is terminal or ctx is done
func (m *JobManager) Wait(ctx context.Context, jobID string) (domain.Snapshot, error) {
	mj, ok := m.lookup(jobID)
	if !ok {
		return domain.Snapshot{}, ErrJobNotFound
	}
	select {
	case <-mj.done:
		return m.Get(jobID)
	case <-ctx.Done():
		return domain.Snapshot{}, ctx.Err()
	}
}

// Snapshots returns the current snapshot of every job held in memory, oldest first
func (m *JobManager) Snapshots() []domain.Snapshot {
	m.mu.RLock()
	held := make([]*managedJob, 0, len(m.jobs))
	for _, mj := range m.jobs {
		held = append(held, mj)
	}
	m.mu.RUnlock()

	type entry struct {
		snap    domain.Snapshot
		created int64
	}
	entries := make([]entry, 0, len(held))
	for _, mj := range held {
		mj.mu.Lock()
		entries = append(entries, entry{snap: mj.job.Snapshot(), created: mj.job.CreatedAt.UnixNano()})
		mj.mu.Unlock()
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].created < entries[j].created })

	out := make([]domain.Snapshot, len(entries))
	for i, e := range entries {
		out[i] = e.snap
	}
	return out
}

// Remove discards a terminal job from memory
func (m *JobManager) Remove(jobID string) error {
	mj, ok := m.lookup(jobID)
	if !ok {
		return ErrJobNotFound
	}
	mj.mu.Lock()
	status := mj.job.Status
	mj.mu.Unlock()
	if !status.IsTerminal() {
		return fmt.Errorf("job %s is still %s", jobID, status)
	}

	m.mu.Lock()
	delete(m.jobs, jobID)
	m.mu.Unlock()
	return nil
}

// List returns job records matching filter
func (m *JobManager) List(filter domain.JobFilter) ([]*domain.JobRecord, error) {
	if m.repo != nil {
		return m.repo.FindAll(filter)
	}

	var records []*domain.JobRecord
	for _, snap := range m.Snapshots() {
		if filter.Status != "" && snap.Status != filter.Status {
			continue
		}
		if filter.Kind != "" && snap.Kind != filter.Kind {
			continue
		}
		if mj, ok := m.lookup(snap.JobID); ok {
			mj.mu.Lock()
			records = append(records, domain.NewJobRecord(mj.job))
			mj.mu.Unlock()
		}
	}
	// newest first, like the repository
	for i, j := 0, len(records)-1; i < j; i, j = i+1, j-1 {
		records[i], records[j] = records[j], records[i]
	}
	return records, nil
}

// Stats returns job counts per status
func (m *JobManager) Stats() (*domain.JobStats, error) {
	if m.repo != nil {
		return m.repo.GetStats()
	}

	stats := &domain.JobStats{}
	for _, snap := range m.Snapshots() {
		stats.Total++
		switch snap.Status {
		case domain.StatusIdle:
			stats.Idle++
		case domain.StatusValidating:
			stats.Validating++
		case domain.StatusFetching:
			stats.Fetching++
		case domain.StatusDownloading:
			stats.Downloading++
		case domain.StatusPostProcessing:
			stats.PostProcessing++
		case domain.StatusCompleted:
			stats.Completed++
		case domain.StatusFailed:
			stats.Failed++
		}
	}
	return stats, nil
}

// Shutdown stops accepting jobs, cancels running ones and waits for them to finish
func (m *JobManager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	m.closed = true
	held := make([]*managedJob, 0, len(m.jobs))
	for _, mj := range m.jobs {
		held = append(held, mj)
	}
	m.mu.Unlock()

	for _, mj := range held {
		mj.cancel()
	}

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// run is the execution unit of one job. Nothing escapes it: every error and
// panic ends as a Failed snapshot.
func (m *JobManager) run(mj *managedJob) {
	defer m.wg.Done()
	defer mj.cancel()
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("Job panicked", zap.String("job_id", mj.job.ID), zap.Any("panic", r))
			err := domain.Errorf(domain.ErrorEngine, "panic: %v", r)
			m.fail(mj, err, "Download error: "+err.Message)
		}
	}()

	ctx := mj.ctx
	req := mj.job.Request

	hold := m.newSlot()
	defer hold.release()
	if !hold.acquire(ctx) {
		m.cancelled(mj)
		return
	}

	policy := m.probePolicy(req)
	if policy == domain.ProbeThenDownload || policy == domain.ProbeThenWait {
		if ctx.Err() != nil {
			m.cancelled(mj)
			return
		}

		m.update(mj, func() { m.transition(mj, domain.StatusFetching, "Fetching video info...") })

		meta, err := m.probe(ctx, req.SourceURL)
		if err != nil {
			if ctx.Err() != nil {
				m.cancelled(mj)
				return
			}
			m.fail(mj, asJobError(err, domain.ErrorMetadataFetch), "Error fetching info: "+unwrapMessage(err))
			return
		}

		m.update(mj, func() {
			mj.job.Metadata = &meta
			mj.job.AwaitingStart = policy == domain.ProbeThenWait
			m.setMessage(mj, "Video info fetched successfully.")
		})

		if policy == domain.ProbeThenWait {
			// a parked job gives up its slot until someone starts it
			hold.release()
			select {
			case opts := <-mj.startCh:
				req = applyStartOptions(req, opts)
			case <-ctx.Done():
				m.cancelled(mj)
				return
			}
			if !hold.acquire(ctx) {
				m.cancelled(mj)
				return
			}
		}
	}

	if ctx.Err() != nil {
		m.cancelled(mj)
		return
	}

	params, err := ResolveOptions(req, m.cachedProbe(req.SourceURL))
	if err != nil {
		jobErr := asJobError(err, domain.ErrorInvalidOptions)
		m.fail(mj, jobErr, "Invalid options: "+jobErr.Message)
		return
	}

	if policy == domain.ProbeThenDownload || policy == domain.ProbeThenWait {
		m.update(mj, func() { m.setMessage(mj, "Starting download...") })
	}

	m.logger.Debug("Invoking fetch engine",
		zap.String("job_id", mj.job.ID),
		zap.String("selection", string(params.Selection.Kind)),
		zap.Int("max_height", params.Selection.MaxHeight))

	err = m.engine.Download(ctx, req.SourceURL, params, func(ev domain.ProgressEvent) {
		m.onProgress(mj, ev)
	})
	if err != nil {
		if ctx.Err() != nil {
			m.cancelled(mj)
			return
		}
		m.fail(mj, asJobError(err, domain.ErrorEngine), "Download error: "+unwrapMessage(err))
		return
	}

	complete := "Download complete!"
	if req.Kind == domain.KindPlaylist {
		complete = "Playlist download complete!"
	}

	mj.mu.Lock()
	m.transition(mj, domain.StatusCompleted, complete)
	snap := mj.job.Snapshot()
	mj.mu.Unlock()

	m.logger.Info("Job completed", zap.String("job_id", snap.JobID), zap.String("kind", string(snap.Kind)))
	if m.notifier != nil {
		m.notifier.NotifyJobCompleted(snap)
	}
}

// slot is one job's hold on the concurrency cap. A nil sem means unbounded.
type slot struct {
	sem  chan struct{}
	held bool
}

func (m *JobManager) newSlot() *slot {
	return &slot{sem: m.sem}
}

// acquire blocks until a slot is free. It returns false if ctx ends first.
func (s *slot) acquire(ctx context.Context) bool {
	if s.sem == nil || s.held {
		return true
	}
	select {
	case s.sem <- struct{}{}:
		s.held = true
		return true
	case <-ctx.Done():
		return false
	}
}

func (s *slot) release() {
	if s.held {
		<-s.sem
		s.held = false
	}
}

// onProgress runs on the engine's goroutine
func (m *JobManager) onProgress(mj *managedJob, ev domain.ProgressEvent) {
	mj.mu.Lock()
	defer mj.mu.Unlock()

	if mj.job.Status.IsTerminal() {
		return
	}
	upd, ok := mj.reporter.Report(ev)
	if !ok {
		return
	}

	switch upd.Phase {
	case domain.StatusDownloading:
		if mj.job.Status != domain.StatusDownloading {
			// entering a transfer phase: status and first fraction go out as one snapshot
			if err := mj.job.Transition(domain.StatusDownloading, ""); err != nil {
				m.logger.Warn("Ignoring progress", zap.String("job_id", mj.job.ID), zap.Error(err))
				return
			}
			mj.job.SetProgress(upd.Fraction)
			m.save(mj)
			m.publish(mj)
			return
		}
		if upd.HasFraction {
			mj.job.SetProgress(upd.Fraction)
			m.publish(mj)
		}
	case domain.StatusPostProcessing:
		if mj.job.Status == domain.StatusPostProcessing {
			return
		}
		m.transition(mj, domain.StatusPostProcessing, "Post-processing...")
	}
}

// update runs fn under the job lock and publishes the result
func (m *JobManager) update(mj *managedJob, fn func()) {
	mj.mu.Lock()
	defer mj.mu.Unlock()
	if mj.job.Status.IsTerminal() {
		return
	}
	fn()
	m.publish(mj)
}

// transition changes status, stores the record and publishes. Caller holds mj.mu.
func (m *JobManager) transition(mj *managedJob, to domain.JobStatus, message string) {
	if err := mj.job.Transition(to, message); err != nil {
		m.logger.Warn("Ignoring state change", zap.String("job_id", mj.job.ID), zap.Error(err))
		return
	}
	m.save(mj)
	m.publish(mj)
}

// setMessage changes the job's message without a status change. Caller holds mj.mu.
func (m *JobManager) setMessage(mj *managedJob, message string) {
	mj.job.LastMessage = message
}

func (m *JobManager) fail(mj *managedJob, jobErr *domain.JobError, message string) {
	mj.mu.Lock()
	if mj.job.Status.IsTerminal() {
		mj.mu.Unlock()
		return
	}
	m.failLocked(mj, jobErr, message)
	snap := mj.job.Snapshot()
	mj.mu.Unlock()

	if m.notifier != nil && !jobErr.Kind.IsInputError() {
		m.notifier.NotifyJobFailed(snap)
	}
}

// failLocked moves the job to Failed. Caller holds mj.mu.
func (m *JobManager) failLocked(mj *managedJob, jobErr *domain.JobError, message string) {
	if err := mj.job.MarkFailed(jobErr, message); err != nil {
		m.logger.Warn("Ignoring failure", zap.String("job_id", mj.job.ID), zap.Error(err))
		return
	}
	m.logger.Warn("Job failed",
		zap.String("job_id", mj.job.ID),
		zap.String("kind", string(mj.job.Request.Kind)),
		zap.String("error_kind", string(jobErr.Kind)),
		zap.String("error", jobErr.Message))
	m.save(mj)
	m.publish(mj)
}

func (m *JobManager) cancelled(mj *managedJob) {
	m.fail(mj, domain.Errorf(domain.ErrorCancellationRequested, "cancelled by request"), "Download cancelled.")
}

// publish records a snapshot and fans it out. Caller holds mj.mu.
func (m *JobManager) publish(mj *managedJob) {
	snap := mj.job.Snapshot()

	mj.history = append(mj.history, snap)
	if limit := m.historyLimit(); len(mj.history) > limit {
		mj.history = append(mj.history[:0:0], mj.history[len(mj.history)-limit:]...)
	}

	m.logMessage(mj, snap)

	for _, sub := range mj.subscribers {
		sub.push(snap)
	}

	if snap.IsTerminal() {
		for id, sub := range mj.subscribers {
			sub.finish()
			delete(mj.subscribers, id)
		}
		close(mj.done)
	}
}

func (m *JobManager) logMessage(mj *managedJob, snap domain.Snapshot) {
	if snap.LastMessage == "" || snap.LastMessage == mj.lastLogged {
		return
	}
	mj.lastLogged = snap.LastMessage
	m.writeLine(snap.Kind.Tag() + " " + snap.LastMessage)
}

func (m *JobManager) writeLine(line string) {
	if m.sink != nil {
		m.sink.Write(line)
	}
}

// save stores the job record. Storage problems never fail a job. Caller holds mj.mu.
func (m *JobManager) save(mj *managedJob) {
	if m.repo == nil {
		return
	}
	if err := m.repo.Save(domain.NewJobRecord(mj.job)); err != nil {
		m.logger.Error("Failed to save job record", zap.String("job_id", mj.job.ID), zap.Error(err))
	}
}

func (m *JobManager) probe(ctx context.Context, url string) (meta domain.MediaMetadata, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = domain.Errorf(domain.ErrorMetadataFetch, "panic: %v", r)
		}
	}()

	res, err := m.engine.Probe(ctx, url)
	if err != nil {
		return domain.MediaMetadata{}, asJobError(err, domain.ErrorMetadataFetch)
	}
	if res == nil {
		return domain.MediaMetadata{}, domain.Errorf(domain.ErrorMetadataFetch, "engine returned no metadata")
	}

	meta = domain.NewMediaMetadata(res.Title, res.Heights)

	m.mu.Lock()
	m.probes[url] = meta
	m.mu.Unlock()

	m.logger.Info("Metadata probed",
		zap.String("url", url),
		zap.String("title", meta.Title),
		zap.Ints("heights", meta.Heights))
	return meta, nil
}

func (m *JobManager) cachedProbe(url string) *domain.MediaMetadata {
	m.mu.RLock()
	defer m.mu.RUnlock()
	meta, ok := m.probes[url]
	if !ok {
		return nil
	}
	c := meta.Clone()
	return &c
}

func (m *JobManager) lookup(jobID string) (*managedJob, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	mj, ok := m.jobs[jobID]
	return mj, ok
}

func (m *JobManager) historyLimit() int {
	if m.config.HistoryLimit > 0 {
		return m.config.HistoryLimit
	}
	return defaultHistoryLimit
}

// probePolicy returns the effective probe policy; playlists are never probed
func (m *JobManager) probePolicy(req domain.JobRequest) domain.ProbePolicy {
	if req.Kind != domain.KindSingleItem {
		return domain.ProbeNone
	}
	if req.Probe == domain.ProbeDefault {
		if m.config.ProbeByDefault {
			return domain.ProbeThenDownload
		}
		return domain.ProbeNone
	}
	return req.Probe
}

func (m *JobManager) normalizeRequest(req domain.JobRequest) domain.JobRequest {
	req = req.Clone()
	req.SourceURL = strings.TrimSpace(req.SourceURL)
	req.DestinationDir = strings.TrimSpace(req.DestinationDir)
	if req.SubtitlesEnabled && len(req.SubtitleLanguages) == 0 && len(m.config.SubtitleLanguages) > 0 {
		req.SubtitleLanguages = append([]string(nil), m.config.SubtitleLanguages...)
	}
	return req
}

// validateRequest performs the checks made before any goroutine is spawned
func validateRequest(req domain.JobRequest) (*domain.JobError, string) {
	noun := "video"
	if req.Kind == domain.KindPlaylist {
		noun = "playlist"
	}

	switch {
	case !domain.ValidateKind(req.Kind):
		err := domain.Errorf(domain.ErrorInvalidOptions, "unknown job kind %q", req.Kind)
		return err, "Invalid options: " + err.Message
	case req.SourceURL == "":
		return domain.Errorf(domain.ErrorMissingURL, "source url is empty"), "Error: Enter a " + noun + " URL"
	case req.DestinationDir == "":
		return domain.Errorf(domain.ErrorMissingDestination, "destination directory is empty"), "Error: Select a destination"
	case req.Kind == domain.KindSingleItem && req.TargetFormat != "" && !domain.ValidateFormat(req.TargetFormat):
		err := domain.Errorf(domain.ErrorInvalidOptions, "unsupported format %q", req.TargetFormat)
		return err, "Invalid options: " + err.Message
	case !domain.ValidateProbePolicy(req.Probe):
		err := domain.Errorf(domain.ErrorInvalidOptions, "unknown probe policy %q", req.Probe)
		return err, "Invalid options: " + err.Message
	}
	return nil, ""
}

func startMessage(req domain.JobRequest, policy domain.ProbePolicy) string {
	if req.Kind == domain.KindPlaylist {
		return "Starting playlist download..."
	}
	if policy == domain.ProbeNone {
		return "Starting download..."
	}
	return "Validating request..."
}

func applyStartOptions(req domain.JobRequest, opts StartOptions) domain.JobRequest {
	req = req.Clone()
	if opts.TargetFormat != "" {
		req.TargetFormat = opts.TargetFormat
	}
	if opts.TargetResolutionHeight != nil {
		h := *opts.TargetResolutionHeight
		req.TargetResolutionHeight = &h
	}
	return req
}

// asJobError classifies err, keeping an existing classification
func asJobError(err error, kind domain.ErrorKind) *domain.JobError {
	var je *domain.JobError
	if errors.As(err, &je) {
		return je
	}
	return domain.NewJobError(kind, err)
}

// unwrapMessage returns the cause text without the classification prefix
func unwrapMessage(err error) string {
	var je *domain.JobError
	if errors.As(err, &je) && je.Message != "" {
		return je.Message
	}
	return err.Error()
}
