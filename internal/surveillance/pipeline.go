// Package surveillance runs fair-play detections over submitted scores.
//
// Scores are queued by the gameplay layer and analysed off the request path,
// one goroutine per job. A failing job is logged and dropped; it never stops
// the consumer loop.
package surveillance

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-bancho-go/internal/gamemode"
	"github.com/ovaphlow/pitchfork/service-bancho-go/internal/world/entity"
)

// Job is a queued detection for one finished score.
type Job struct {
	ID         string
	ScoreID    int64
	Mode       gamemode.GameMode
	PlayerID   int64
	PlayerName string
	EnqueuedAt time.Time
}

// Result is the outcome of analysing a job.
type Result struct {
	// Analysed is false when the mode is not surveilled.
	Analysed   bool
	Frames     int
	BadFrames  int
	PressTimes map[Key][]float64
	Flagged    bool
}

type Config struct {
	// Enabled requires a notifier; without one the pipeline is inert.
	Enabled   bool
	ReplayDir string
	Mode      gamemode.GameMode
	Threshold Threshold
	Domain    string
	Thumbnail string
}

// Counters are exposed on the ops surface.
type Counters struct {
	Enabled  bool  `json:"enabled"`
	Queued   int   `json:"queued"`
	Analysed int64 `json:"analysed"`
	Flagged  int64 `json:"flagged"`
	Dropped  int64 `json:"dropped"`
}

type Pipeline struct {
	cfg      Config
	queue    *Queue
	notifier Notifier
	journal  *Journal
	nextID   func() string
	clock    clockwork.Clock
	logger   *zap.SugaredLogger

	jobs     sync.WaitGroup
	analysed atomic.Int64
	flagged  atomic.Int64
	dropped  atomic.Int64
}

type Option func(*Pipeline)

// WithJournal records every flagged detection.
func WithJournal(j *Journal) Option { return func(p *Pipeline) { p.journal = j } }

func WithClock(c clockwork.Clock) Option { return func(p *Pipeline) { p.clock = c } }

func NewPipeline(cfg Config, notifier Notifier, nextID func() string, logger *zap.SugaredLogger, opts ...Option) *Pipeline {
	p := &Pipeline{
		cfg:      cfg,
		queue:    NewQueue(),
		notifier: notifier,
		nextID:   nextID,
		clock:    clockwork.NewRealClock(),
		logger:   logger.Named("surveillance"),
	}
	for _, o := range opts {
		o(p)
	}
	if p.notifier == nil {
		p.cfg.Enabled = false
	}
	return p
}

func (p *Pipeline) Enabled() bool { return p.cfg.Enabled }

// Enqueue queues a finished score for analysis. It reports false when
// surveillance is off or the score has no player.
func (p *Pipeline) Enqueue(scoreID int64, mode gamemode.GameMode, player *entity.Player) bool {
	if !p.cfg.Enabled {
		return false
	}
	if player == nil {
		p.logger.Warnw("detection job has no player", "score_id", scoreID)
		return false
	}
	p.queue.Push(Job{
		ID:         p.nextID(),
		ScoreID:    scoreID,
		Mode:       mode,
		PlayerID:   player.ID,
		PlayerName: player.Name,
		EnqueuedAt: p.clock.Now(),
	})
	return true
}

func (p *Pipeline) Counters() Counters {
	return Counters{
		Enabled:  p.cfg.Enabled,
		Queued:   p.queue.Len(),
		Analysed: p.analysed.Load(),
		Flagged:  p.flagged.Load(),
		Dropped:  p.dropped.Load(),
	}
}

// Run consumes the queue until ctx is cancelled, then waits for jobs already
// started. It returns immediately when surveillance is off.
func (p *Pipeline) Run(ctx context.Context) error {
	if !p.cfg.Enabled {
		p.logger.Info("surveillance disabled")
		return nil
	}
	p.logger.Infow("surveillance started", "mode", p.cfg.Mode, "threshold_ms", p.cfg.Threshold.Value, "min_presses", p.cfg.Threshold.MinPresses)
	// analyses in flight may still deliver alerts during shutdown
	jobCtx := context.WithoutCancel(ctx)
	for {
		job, err := p.queue.Pop(ctx)
		if err != nil {
			p.jobs.Wait()
			if p.journal != nil {
				if err := p.journal.Close(); err != nil {
					p.logger.Warnw("close detection journal", "error", err)
				}
			}
			p.logger.Infow("surveillance stopped", "abandoned", p.queue.Len())
			return nil
		}
		p.jobs.Add(1)
		go p.process(jobCtx, job)
	}
}

func (p *Pipeline) process(ctx context.Context, job Job) {
	defer p.jobs.Done()
	log := p.logger.With("job_id", job.ID, "score_id", job.ScoreID, "player_id", job.PlayerID)
	defer func() {
		if r := recover(); r != nil {
			p.dropped.Add(1)
			log.Errorw("detection panicked", "panic", r)
		}
	}()

	res, err := p.Analyze(job)
	if err != nil {
		p.dropped.Add(1)
		log.Warnw("detection dropped", "error", err)
		return
	}
	if !res.Analysed {
		return
	}
	p.analysed.Add(1)
	if res.BadFrames > 0 {
		log.Debugw("skipped malformed frames", "count", res.BadFrames)
	}
	if !res.Flagged {
		return
	}
	p.flagged.Add(1)
	log.Warnw("abnormally low press times", "player", job.PlayerName, "mode", job.Mode)

	if p.journal != nil {
		if err := p.journal.Write(p.detection(job, res)); err != nil {
			log.Warnw("journal detection", "error", err)
		}
	}
	embed := buildEmbed(job, res.PressTimes, p.cfg.Domain, p.cfg.Thumbnail)
	if err := p.notifier.Notify(ctx, embed); err != nil {
		log.Warnw("deliver alert", "error", err)
	}
}

// Analyze loads, parses and scores one job's replay.
func (p *Pipeline) Analyze(job Job) (*Result, error) {
	data, err := LoadArtifact(p.cfg.ReplayDir, job.ScoreID)
	if err != nil {
		return nil, err
	}
	frames, bad := ParseFrames(string(data))
	res := &Result{Frames: len(frames), BadFrames: bad}
	if job.Mode.AsVanilla() != p.cfg.Mode {
		return res, nil
	}
	if len(frames) == 0 {
		return nil, fmt.Errorf("score %d: %w: no frames", job.ScoreID, ErrArtifactCorrupt)
	}
	res.Analysed = true
	res.PressTimes = PressTimes(frames)
	res.Flagged = p.cfg.Threshold.Flagged(res.PressTimes)
	return res, nil
}

func (p *Pipeline) detection(job Job, res *Result) Detection {
	d := Detection{
		JobID:      job.ID,
		ScoreID:    job.ScoreID,
		PlayerID:   job.PlayerID,
		Player:     job.PlayerName,
		Mode:       job.Mode.String(),
		MeanMS:     map[string]float64{},
		Presses:    map[string]int{},
		DetectedAt: p.clock.Now().UTC(),
	}
	for _, k := range Keys {
		d.Presses[k.String()] = len(res.PressTimes[k])
		if m, ok := mean(res.PressTimes[k]); ok {
			d.MeanMS[k.String()] = m
		}
	}
	return d
}
