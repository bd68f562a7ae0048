package surveillance

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/klauspost/compress/zstd"
)

// Detection is one journaled flagged score.
type Detection struct {
	JobID      string             `json:"job_id"`
	ScoreID    int64              `json:"score_id"`
	PlayerID   int64              `json:"player_id"`
	Player     string             `json:"player"`
	Mode       string             `json:"mode"`
	MeanMS     map[string]float64 `json:"mean_ms"`
	Presses    map[string]int     `json:"presses"`
	DetectedAt time.Time          `json:"detected_at"`
}

// Journal appends detections as zstd-compressed JSON lines, one file per hour.
type Journal struct {
	baseDir string
	clock   clockwork.Clock

	mu      sync.Mutex
	curHour string
	f       *os.File
	enc     *zstd.Encoder
	w       *bufio.Writer
}

func NewJournal(baseDir string, clock clockwork.Clock) *Journal {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Journal{baseDir: baseDir, clock: clock}
}

func (j *Journal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.closeLocked()
}

func (j *Journal) Write(d Detection) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	hour := j.clock.Now().UTC().Format("2006-01-02-15")
	if hour != j.curHour {
		if err := j.rotateLocked(hour); err != nil {
			return err
		}
	}

	b, err := json.Marshal(d)
	if err != nil {
		return err
	}
	if _, err := j.w.Write(b); err != nil {
		return err
	}
	if err := j.w.WriteByte('\n'); err != nil {
		return err
	}
	if err := j.w.Flush(); err != nil {
		return err
	}
	return j.enc.Flush()
}

func (j *Journal) rotateLocked(hour string) error {
	if err := j.closeLocked(); err != nil {
		return err
	}
	if err := os.MkdirAll(j.baseDir, 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(j.PathForHour(hour), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = f.Close()
		return err
	}
	j.f = f
	j.enc = enc
	j.w = bufio.NewWriterSize(enc, 32*1024)
	j.curHour = hour
	return nil
}

func (j *Journal) closeLocked() error {
	var err1 error
	if j.w != nil {
		_ = j.w.Flush()
	}
	if j.enc != nil {
		err1 = j.enc.Close()
		j.enc = nil
	}
	if j.f != nil {
		_ = j.f.Close()
		j.f = nil
	}
	j.w = nil
	j.curHour = ""
	return err1
}

func (j *Journal) PathForHour(hour string) string {
	return filepath.Join(j.baseDir, fmt.Sprintf("detections-%s.jsonl.zst", hour))
}
