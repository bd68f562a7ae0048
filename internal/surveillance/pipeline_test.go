package surveillance

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ulikunitz/xz/lzma"

	"github.com/ovaphlow/pitchfork/service-bancho-go/internal/gamemode"
	"github.com/ovaphlow/pitchfork/service-bancho-go/internal/privileges"
	"github.com/ovaphlow/pitchfork/service-bancho-go/internal/testutil"
	"github.com/ovaphlow/pitchfork/service-bancho-go/internal/world/entity"
)

// replayStream renders K1 presses separated by the given intervals, each
// held for 5ms, followed by the seed frame and trailing separator.
func replayStream(intervals ...int) string {
	var sb strings.Builder
	k1 := KeyK1 | KeyM1
	fmt.Fprintf(&sb, "0|256|192|%d,5|256|192|0,", k1)
	for _, iv := range intervals {
		fmt.Fprintf(&sb, "%d|256|192|%d,5|256|192|0,", iv-5, k1)
	}
	sb.WriteString("-12345|0|0|4242,")
	return sb.String()
}

func writeLZMA(t *testing.T, dir string, scoreID int64, stream string) {
	t.Helper()
	var buf bytes.Buffer
	w, err := lzma.NewWriter(&buf)
	require.NoError(t, err)
	_, err = w.Write([]byte(stream))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	require.NoError(t, os.WriteFile(ArtifactPath(dir, scoreID), buf.Bytes(), 0o600))
}

func writeZstd(t *testing.T, dir string, scoreID int64, stream string) {
	t.Helper()
	enc, err := zstd.NewWriter(nil)
	require.NoError(t, err)
	defer enc.Close()
	require.NoError(t, os.WriteFile(ArtifactPath(dir, scoreID), enc.EncodeAll([]byte(stream), nil), 0o600))
}

type hookRecorder struct {
	mu       sync.Mutex
	payloads []webhookPayload
	status   int
}

func (h *hookRecorder) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var p webhookPayload
	_ = json.NewDecoder(r.Body).Decode(&p)
	h.mu.Lock()
	h.payloads = append(h.payloads, p)
	status := h.status
	h.mu.Unlock()
	if status == 0 {
		status = http.StatusNoContent
	}
	w.WriteHeader(status)
}

func (h *hookRecorder) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.payloads)
}

func testConfig(dir string) Config {
	return Config{
		Enabled:   true,
		ReplayDir: dir,
		Mode:      gamemode.VanillaTaiko,
		Threshold: Threshold{Value: 45, MinPresses: 3},
		Domain:    "bancho.test",
		Thumbnail: "https://bancho.test/static/logo.png",
	}
}

func seqIDs() func() string {
	var mu sync.Mutex
	n := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("job-%d", n)
	}
}

func runPipeline(t *testing.T, p *Pipeline) (stop func()) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()
	return func() {
		cancel()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Fatal("pipeline did not stop")
		}
	}
}

func TestMissingArtifactDoesNotStopConsumer(t *testing.T) {
	dir := t.TempDir()
	writeLZMA(t, dir, 2, replayStream(40, 42, 38))

	hook := &hookRecorder{}
	srv := httptest.NewServer(hook)
	defer srv.Close()

	journalDir := filepath.Join(t.TempDir(), "surveillance")
	clock := clockwork.NewFakeClockAt(time.Date(2024, 5, 1, 13, 30, 0, 0, time.UTC))
	journal := NewJournal(journalDir, clock)

	p := NewPipeline(testConfig(dir), NewWebhookNotifier(srv.URL, srv.Client()), seqIDs(), testutil.NopLogger(),
		WithJournal(journal), WithClock(clock))
	stop := runPipeline(t, p)

	player := entity.NewPlayer(7, "suspect", privileges.Normal)
	require.True(t, p.Enqueue(1, gamemode.VanillaTaiko, player)) // no artifact
	require.True(t, p.Enqueue(2, gamemode.RelaxTaiko, player))

	require.Eventually(t, func() bool { return hook.count() == 1 }, 5*time.Second, 10*time.Millisecond)
	stop()

	c := p.Counters()
	assert.Equal(t, int64(1), c.Dropped)
	assert.Equal(t, int64(1), c.Analysed)
	assert.Equal(t, int64(1), c.Flagged)
	assert.Zero(t, c.Queued)

	embed := hook.payloads[0].Embeds[0]
	assert.Equal(t, "[rx!taiko] Abnormally low presstimes detected", embed.Title)
	assert.Equal(t, "suspect", embed.Author.Name)
	assert.Equal(t, "https://bancho.test/u/7", embed.Author.URL)
	assert.Equal(t, "https://a.bancho.test/7", embed.Author.IconURL)
	assert.Equal(t, "https://bancho.test/static/logo.png", embed.Thumbnail.URL)
	assert.Equal(t, []EmbedField{
		{Name: "Key: M1", Value: "N/A", Inline: true},
		{Name: "Key: M2", Value: "N/A", Inline: true},
		{Name: "Key: K1", Value: "40.00ms", Inline: true},
		{Name: "Key: K2", Value: "N/A", Inline: true},
	}, embed.Fields)

	// the journal was closed on shutdown
	raw, err := os.ReadFile(journal.PathForHour("2024-05-01-13"))
	require.NoError(t, err)
	dec, err := zstd.NewReader(nil)
	require.NoError(t, err)
	defer dec.Close()
	plain, err := dec.DecodeAll(raw, nil)
	require.NoError(t, err)
	var d Detection
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(plain), &d))
	assert.Equal(t, int64(2), d.ScoreID)
	assert.Equal(t, "rx!taiko", d.Mode)
	assert.Equal(t, 3, d.Presses["K1"])
	assert.InDelta(t, 40.0, d.MeanMS["K1"], 1e-9)
}

func TestAnalyze(t *testing.T) {
	dir := t.TempDir()
	writeLZMA(t, dir, 1, replayStream(40, 42))
	writeZstd(t, dir, 2, replayStream(20, 20, 20))
	writeLZMA(t, dir, 3, replayStream(100, 120, 110))
	require.NoError(t, os.WriteFile(ArtifactPath(dir, 4), bytes.Repeat([]byte{0xff}, 32), 0o600))

	p := NewPipeline(testConfig(dir), &hookNotifier{}, seqIDs(), testutil.NopLogger())

	res, err := p.Analyze(Job{ScoreID: 1, Mode: gamemode.VanillaTaiko})
	require.NoError(t, err)
	assert.True(t, res.Analysed)
	assert.False(t, res.Flagged)

	res, err = p.Analyze(Job{ScoreID: 2, Mode: gamemode.VanillaTaiko})
	require.NoError(t, err)
	assert.True(t, res.Flagged)

	res, err = p.Analyze(Job{ScoreID: 3, Mode: gamemode.VanillaTaiko})
	require.NoError(t, err)
	assert.False(t, res.Flagged)

	// other modes are parsed but not scored
	res, err = p.Analyze(Job{ScoreID: 2, Mode: gamemode.VanillaOsu})
	require.NoError(t, err)
	assert.False(t, res.Analysed)
	assert.Equal(t, 8, res.Frames)

	_, err = p.Analyze(Job{ScoreID: 4, Mode: gamemode.VanillaTaiko})
	assert.ErrorIs(t, err, ErrArtifactCorrupt)

	_, err = p.Analyze(Job{ScoreID: 5, Mode: gamemode.VanillaTaiko})
	assert.ErrorIs(t, err, ErrArtifactMissing)
}

type hookNotifier struct {
	mu     sync.Mutex
	embeds []Embed
	panic  bool
}

func (h *hookNotifier) Notify(_ context.Context, e Embed) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.panic {
		h.panic = false
		panic("notifier exploded")
	}
	h.embeds = append(h.embeds, e)
	return nil
}

func (h *hookNotifier) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.embeds)
}

func TestPanickingJobIsRecovered(t *testing.T) {
	dir := t.TempDir()
	writeLZMA(t, dir, 1, replayStream(20, 20, 20))
	writeLZMA(t, dir, 2, replayStream(20, 20, 20))

	n := &hookNotifier{panic: true}
	p := NewPipeline(testConfig(dir), n, seqIDs(), testutil.NopLogger())
	stop := runPipeline(t, p)
	defer stop()

	player := entity.NewPlayer(7, "suspect", privileges.Normal)
	p.Enqueue(1, gamemode.VanillaTaiko, player)
	require.Eventually(t, func() bool { return p.Counters().Dropped == 1 }, 5*time.Second, 10*time.Millisecond)

	p.Enqueue(2, gamemode.VanillaTaiko, player)
	require.Eventually(t, func() bool { return n.count() == 1 }, 5*time.Second, 10*time.Millisecond)
}

func TestWebhookFailureIsNotFatal(t *testing.T) {
	dir := t.TempDir()
	writeLZMA(t, dir, 1, replayStream(20, 20, 20))
	writeLZMA(t, dir, 2, replayStream(20, 20, 20))

	hook := &hookRecorder{status: http.StatusInternalServerError}
	srv := httptest.NewServer(hook)
	defer srv.Close()

	p := NewPipeline(testConfig(dir), NewWebhookNotifier(srv.URL, srv.Client()), seqIDs(), testutil.NopLogger())
	stop := runPipeline(t, p)
	defer stop()

	player := entity.NewPlayer(7, "suspect", privileges.Normal)
	p.Enqueue(1, gamemode.VanillaTaiko, player)
	p.Enqueue(2, gamemode.VanillaTaiko, player)
	require.Eventually(t, func() bool { return hook.count() == 2 }, 5*time.Second, 10*time.Millisecond)
	assert.Equal(t, int64(2), p.Counters().Flagged)
}

func TestDisabledPipeline(t *testing.T) {
	cfg := testConfig(t.TempDir())
	p := NewPipeline(cfg, nil, seqIDs(), testutil.NopLogger())
	assert.False(t, p.Enabled())
	assert.False(t, p.Enqueue(1, gamemode.VanillaTaiko, entity.NewPlayer(7, "x", privileges.Normal)))
	assert.NoError(t, p.Run(context.Background()))

	cfg.Enabled = false
	p = NewPipeline(cfg, &hookNotifier{}, seqIDs(), testutil.NopLogger())
	assert.False(t, p.Enabled())
	assert.Zero(t, p.Counters().Queued)
}

func TestEnqueueWithoutPlayer(t *testing.T) {
	p := NewPipeline(testConfig(t.TempDir()), &hookNotifier{}, seqIDs(), testutil.NopLogger())
	require.True(t, p.Enabled())

	assert.NotPanics(t, func() {
		assert.False(t, p.Enqueue(1, gamemode.VanillaTaiko, nil))
	})
	assert.Zero(t, p.Counters().Queued)

	assert.True(t, p.Enqueue(2, gamemode.VanillaTaiko, entity.NewPlayer(7, "x", privileges.Normal)))
	assert.Equal(t, 1, p.Counters().Queued)
}

func TestQueueFIFO(t *testing.T) {
	q := NewQueue()
	for i := int64(1); i <= 3; i++ {
		q.Push(Job{ScoreID: i})
	}
	assert.Equal(t, 3, q.Len())
	ctx := context.Background()
	for i := int64(1); i <= 3; i++ {
		j, err := q.Pop(ctx)
		require.NoError(t, err)
		assert.Equal(t, i, j.ScoreID)
	}

	ctx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	_, err := q.Pop(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
