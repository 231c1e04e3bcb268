// Package fetch runs the background pipeline that turns a track change
// into a displayable result: enrichment, artwork reduction, and lyrics,
// each stage cached and individually allowed to fail.
package fetch

import (
	"context"
	"image"
	"time"

	"github.com/pixwatch/pixwatch/internal/artwork"
	"github.com/pixwatch/pixwatch/internal/cache"
	"github.com/pixwatch/pixwatch/internal/config"
	"github.com/pixwatch/pixwatch/internal/lyrics"
	"github.com/pixwatch/pixwatch/internal/metadata"
	"github.com/pixwatch/pixwatch/internal/pixel"
	"github.com/pixwatch/pixwatch/internal/player"
	"github.com/pixwatch/pixwatch/internal/state"
	"github.com/pixwatch/pixwatch/internal/track"
)

// Sampler produces playback samples. Satisfied by player.Service.
type Sampler interface {
	Sample() player.Sample
}

// LyricsSource looks up lyrics text. Satisfied by lyrics.Client.
type LyricsSource interface {
	Fetch(ctx context.Context, t lyrics.TrackParams) (*lyrics.Response, error)
}

// Worker owns the poll loop and the per-track fetch pipeline. Albums and
// Lyrics may be nil; those stages are then skipped. A nil Cache disables
// caching without changing pipeline behavior.
type Worker struct {
	State   *state.SharedState
	Cache   *cache.Store
	Artwork artwork.Fetcher
	Lyrics  LyricsSource
	Albums  metadata.Provider
	Grid    pixel.Options
}

// RunPoller samples the player at the given cadence and starts one fetch
// per observed identity change. Fetches run concurrently; a stale one
// loses at commit time, so overlap is harmless.
func (w *Worker) RunPoller(ctx context.Context, sampler Sampler, interval time.Duration) {
	if interval <= 0 {
		interval = config.PollInterval
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		w.pollOnce(ctx, sampler)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (w *Worker) pollOnce(ctx context.Context, sampler Sampler) {
	sample := sampler.Sample()
	gen, changed := w.State.Observe(sample)
	if !changed || !sample.Active {
		return
	}

	trk := *sample.Track
	go w.Fetch(ctx, gen, trk)
}

// Fetch runs the full pipeline for one track and tries to commit the
// result under the generation it was started for.
func (w *Worker) Fetch(ctx context.Context, gen state.Generation, trk track.Info) {
	res := state.Result{Gen: gen, Track: trk}

	res.Album = w.fetchAlbum(ctx, trk)

	// a later track change makes the rest of this work pointless
	if w.State.Generation() != gen {
		return
	}

	res.Art, res.Palette, res.Image = w.fetchArt(ctx, trk, res.Album)

	if w.State.Generation() != gen {
		return
	}

	res.Lyrics = w.fetchLyrics(ctx, trk)

	w.State.TryCommit(res)
}

func (w *Worker) fetchAlbum(ctx context.Context, trk track.Info) *metadata.Album {
	if w.Albums == nil || trk.Album == "" {
		return nil
	}
	album, err := w.Albums.AlbumInfo(ctx, trk.Artist, trk.Album)
	if err != nil {
		return nil
	}
	return album
}

// fetchArt returns the reduced grid, the palette, and the decoded source
// image. Every failure path degrades to the placeholder art.
func (w *Worker) fetchArt(ctx context.Context, trk track.Info, album *metadata.Album) (pixel.Art, pixel.Palette, image.Image) {
	url := trk.ArtworkURL
	if url == "" && album != nil {
		url = album.CoverURL
	}
	if url == "" || w.Artwork == nil {
		return pixel.Placeholder(w.Grid.GridW, w.Grid.GridH), pixel.DefaultPalette(), nil
	}

	data := w.cachedArtwork(ctx, url)
	if data == nil {
		return pixel.Placeholder(w.Grid.GridW, w.Grid.GridH), pixel.DefaultPalette(), nil
	}

	img, err := artwork.Decode(data)
	if err != nil {
		return pixel.Placeholder(w.Grid.GridW, w.Grid.GridH), pixel.DefaultPalette(), nil
	}

	art, palette, err := pixel.Reduce(img, w.Grid)
	if err != nil {
		return pixel.Placeholder(w.Grid.GridW, w.Grid.GridH), pixel.DefaultPalette(), nil
	}
	return art, palette, img
}

func (w *Worker) cachedArtwork(ctx context.Context, url string) []byte {
	key := cache.Key("artwork", url)

	if w.Cache != nil {
		if data, err := w.Cache.Get(cache.NamespaceArtwork, key); err == nil {
			return data
		}
	}

	data, err := w.Artwork.Fetch(ctx, url)
	if err != nil {
		return nil
	}

	if w.Cache != nil {
		ttl := time.Duration(config.ArtworkCacheTTLDays) * 24 * time.Hour
		_ = w.Cache.Put(cache.NamespaceArtwork, key, data, ttl)
	}
	return data
}

// fetchLyrics returns a possibly empty index; lyrics are never a reason to
// fail the whole pipeline. The raw lyrics text is cached, not the index.
func (w *Worker) fetchLyrics(ctx context.Context, trk track.Info) *lyrics.Index {
	if w.Lyrics == nil {
		return lyrics.Parse("")
	}

	key := cache.Key("lyrics", trk.Artist, trk.Title, trk.Album)

	if w.Cache != nil {
		if data, err := w.Cache.Get(cache.NamespaceLyrics, key); err == nil {
			return lyrics.Parse(string(data))
		}
	}

	resp, err := w.Lyrics.Fetch(ctx, lyrics.TrackParams{
		Title:        trk.Title,
		Artist:       trk.Artist,
		Album:        trk.Album,
		DurationSecs: trk.DurationSecs,
	})
	if err != nil {
		return lyrics.Parse("")
	}

	text := resp.Best()
	if w.Cache != nil && text != "" {
		ttl := time.Duration(config.LyricsCacheTTLDays) * 24 * time.Hour
		_ = w.Cache.Put(cache.NamespaceLyrics, key, []byte(text), ttl)
	}
	return lyrics.Parse(text)
}
