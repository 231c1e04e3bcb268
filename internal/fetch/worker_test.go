package fetch

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pixwatch/pixwatch/internal/cache"
	"github.com/pixwatch/pixwatch/internal/lyrics"
	"github.com/pixwatch/pixwatch/internal/metadata"
	"github.com/pixwatch/pixwatch/internal/pixel"
	"github.com/pixwatch/pixwatch/internal/player"
	"github.com/pixwatch/pixwatch/internal/state"
	"github.com/pixwatch/pixwatch/internal/track"
)

func pngBytes(t *testing.T, c color.RGBA) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

type fakeArt struct {
	data  []byte
	err   error
	calls int32
	mu    sync.Mutex
	block map[string]chan struct{}
}

func (f *fakeArt) Fetch(ctx context.Context, url string) ([]byte, error) {
	atomic.AddInt32(&f.calls, 1)
	f.mu.Lock()
	ch := f.block[url]
	f.mu.Unlock()
	if ch != nil {
		<-ch
	}
	return f.data, f.err
}

type fakeLyrics struct {
	resp  *lyrics.Response
	err   error
	calls int32
}

func (f *fakeLyrics) Fetch(ctx context.Context, t lyrics.TrackParams) (*lyrics.Response, error) {
	atomic.AddInt32(&f.calls, 1)
	return f.resp, f.err
}

type fakeAlbums struct {
	album *metadata.Album
	err   error
	calls int32
}

func (f *fakeAlbums) AlbumInfo(ctx context.Context, artist, album string) (*metadata.Album, error) {
	atomic.AddInt32(&f.calls, 1)
	return f.album, f.err
}

func testTrack(title string) track.Info {
	return track.Info{
		Title:      title,
		Artist:     "Artist",
		Album:      "Album",
		ArtworkURL: "https://art.example/" + title + ".png",
	}
}

func observe(s *state.SharedState, trk track.Info) state.Generation {
	gen, _ := s.Observe(player.Sample{
		Track:     &trk,
		Rate:      1.0,
		Playing:   true,
		Active:    true,
		SampledAt: time.Now(),
	})
	return gen
}

func newWorker(t *testing.T, art *fakeArt, lyr *fakeLyrics, albums metadata.Provider, store *cache.Store) (*Worker, *state.SharedState) {
	t.Helper()
	st := state.New()
	w := &Worker{
		State:   st,
		Cache:   store,
		Artwork: art,
		Lyrics:  lyr,
		Albums:  albums,
		Grid:    pixel.Options{GridW: 10, GridH: 10, Colors: 3},
	}
	return w, st
}

func TestFetchCommitsFullResult(t *testing.T) {
	art := &fakeArt{data: pngBytes(t, color.RGBA{200, 30, 30, 255})}
	lyr := &fakeLyrics{resp: &lyrics.Response{SyncedLyrics: "[00:00.00] hello\n[00:10.00] world"}}
	albums := &fakeAlbums{album: &metadata.Album{Title: "Album", DurationSecs: 2400}}

	w, st := newWorker(t, art, lyr, albums, nil)
	gen := observe(st, testTrack("Song"))

	w.Fetch(context.Background(), gen, testTrack("Song"))

	snap := st.Snapshot()
	require.NotNil(t, snap.Result)
	assert.Equal(t, gen, snap.Result.Gen)
	assert.False(t, snap.Result.Art.Empty())
	assert.NotEmpty(t, snap.Result.Palette)
	require.NotNil(t, snap.Result.Album)
	assert.Equal(t, 2400, snap.Result.Album.DurationSecs)

	line, ok := snap.Result.Lyrics.ActiveAt(11 * time.Second)
	require.True(t, ok)
	assert.Equal(t, "world", line.Text)
}

func TestFetchWithoutProviderSkipsEnrichment(t *testing.T) {
	art := &fakeArt{data: pngBytes(t, color.RGBA{10, 10, 10, 255})}
	lyr := &fakeLyrics{resp: &lyrics.Response{PlainLyrics: "plain"}}

	w, st := newWorker(t, art, lyr, nil, nil)
	gen := observe(st, testTrack("Song"))

	w.Fetch(context.Background(), gen, testTrack("Song"))

	snap := st.Snapshot()
	require.NotNil(t, snap.Result, "missing credentials must not block the rest of the pipeline")
	assert.Nil(t, snap.Result.Album)
	assert.False(t, snap.Result.Art.Empty())
}

func TestFetchProviderErrorIsNonFatal(t *testing.T) {
	art := &fakeArt{data: pngBytes(t, color.RGBA{10, 10, 10, 255})}
	albums := &fakeAlbums{err: assert.AnError}

	w, st := newWorker(t, art, &fakeLyrics{err: assert.AnError}, albums, nil)
	gen := observe(st, testTrack("Song"))

	w.Fetch(context.Background(), gen, testTrack("Song"))

	snap := st.Snapshot()
	require.NotNil(t, snap.Result)
	assert.Nil(t, snap.Result.Album)
	assert.True(t, snap.Result.Lyrics.Empty())
}

// A warm cache must satisfy a repeat of the same track without touching
// the network at all.
func TestCacheHitSkipsNetwork(t *testing.T) {
	store, err := cache.NewAt(t.TempDir())
	require.NoError(t, err)

	art := &fakeArt{data: pngBytes(t, color.RGBA{50, 90, 200, 255})}
	lyr := &fakeLyrics{resp: &lyrics.Response{SyncedLyrics: "[00:01.00] cached"}}

	w1, st1 := newWorker(t, art, lyr, nil, store)
	gen := observe(st1, testTrack("Song"))
	w1.Fetch(context.Background(), gen, testTrack("Song"))
	require.NotNil(t, st1.Snapshot().Result)

	w2, st2 := newWorker(t, art, lyr, nil, store)
	gen = observe(st2, testTrack("Song"))
	w2.Fetch(context.Background(), gen, testTrack("Song"))

	snap := st2.Snapshot()
	require.NotNil(t, snap.Result)
	assert.False(t, snap.Result.Art.Empty())
	assert.Equal(t, 1, snap.Result.Lyrics.Len())

	assert.Equal(t, int32(1), atomic.LoadInt32(&art.calls))
	assert.Equal(t, int32(1), atomic.LoadInt32(&lyr.calls))
}

// A slow fetch for generation g1 must not clobber the committed result of
// the faster generation g2 that replaced it.
func TestSlowStaleFetchNeverWins(t *testing.T) {
	slowURL := testTrack("Slow").ArtworkURL
	release := make(chan struct{})
	art := &fakeArt{
		data:  pngBytes(t, color.RGBA{255, 255, 255, 255}),
		block: map[string]chan struct{}{slowURL: release},
	}
	lyr := &fakeLyrics{err: assert.AnError}

	w, st := newWorker(t, art, lyr, nil, nil)

	gen1 := observe(st, testTrack("Slow"))
	done := make(chan struct{})
	go func() {
		w.Fetch(context.Background(), gen1, testTrack("Slow"))
		close(done)
	}()

	gen2 := observe(st, testTrack("Fast"))
	w.Fetch(context.Background(), gen2, testTrack("Fast"))

	snap := st.Snapshot()
	require.NotNil(t, snap.Result)
	require.Equal(t, "Fast", snap.Result.Track.Title)

	close(release)
	<-done

	snap = st.Snapshot()
	require.NotNil(t, snap.Result)
	assert.Equal(t, "Fast", snap.Result.Track.Title)
	assert.Equal(t, gen2, snap.Result.Gen)
}

func TestArtFailureDegradesToPlaceholder(t *testing.T) {
	art := &fakeArt{err: assert.AnError}
	lyr := &fakeLyrics{resp: &lyrics.Response{PlainLyrics: "x"}}

	w, st := newWorker(t, art, lyr, nil, nil)
	gen := observe(st, testTrack("Song"))

	w.Fetch(context.Background(), gen, testTrack("Song"))

	snap := st.Snapshot()
	require.NotNil(t, snap.Result)
	assert.False(t, snap.Result.Art.Empty(), "placeholder art expected")
	assert.Equal(t, pixel.DefaultPalette(), snap.Result.Palette)
	assert.Nil(t, snap.Result.Image)
}

func TestUndecodableArtDegradesToPlaceholder(t *testing.T) {
	art := &fakeArt{data: []byte("definitely not an image")}

	w, st := newWorker(t, art, &fakeLyrics{err: assert.AnError}, nil, nil)
	gen := observe(st, testTrack("Song"))

	w.Fetch(context.Background(), gen, testTrack("Song"))

	snap := st.Snapshot()
	require.NotNil(t, snap.Result)
	assert.Equal(t, pixel.DefaultPalette(), snap.Result.Palette)
}

type scriptedSampler struct {
	mu      sync.Mutex
	samples []player.Sample
}

func (s *scriptedSampler) Sample() player.Sample {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.samples) == 0 {
		return player.Sample{SampledAt: time.Now()}
	}
	next := s.samples[0]
	if len(s.samples) > 1 {
		s.samples = s.samples[1:]
	}
	return next
}

func TestPollOnceStartsFetchOnChange(t *testing.T) {
	art := &fakeArt{data: pngBytes(t, color.RGBA{0, 120, 0, 255})}
	lyr := &fakeLyrics{err: assert.AnError}
	w, st := newWorker(t, art, lyr, nil, nil)

	trk := testTrack("Song")
	sampler := &scriptedSampler{samples: []player.Sample{{
		Track: &trk, Rate: 1.0, Playing: true, Active: true, SampledAt: time.Now(),
	}}}

	w.pollOnce(context.Background(), sampler)

	assert.Eventually(t, func() bool {
		return st.Snapshot().Result != nil
	}, 2*time.Second, 10*time.Millisecond)

	// a second poll of the same track must not start another fetch
	before := atomic.LoadInt32(&art.calls)
	w.pollOnce(context.Background(), sampler)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, before, atomic.LoadInt32(&art.calls))
}

func TestPollOnceInactiveSample(t *testing.T) {
	w, st := newWorker(t, &fakeArt{}, &fakeLyrics{}, nil, nil)

	sampler := &scriptedSampler{}
	w.pollOnce(context.Background(), sampler)

	snap := st.Snapshot()
	assert.False(t, snap.Sample.Active)
	assert.Nil(t, snap.Result)
}
