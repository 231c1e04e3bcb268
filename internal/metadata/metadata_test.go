package metadata

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseISODuration(t *testing.T) {
	cases := map[string]int{
		"PT3M45S":    225,
		"PT1H2M3S":   3723,
		"PT45S":      45,
		"PT3M":       180,
		"PT1H":       3600,
		"PT0S":       0,
		"":           0,
		"3M45S":      0,
		"PT3X45S":    0,
		"PTgarbage":  0,
		"PT1H30M15S": 5415,
	}
	for input, want := range cases {
		assert.Equal(t, want, ParseISODuration(input), "input %q", input)
	}
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "3:45", FormatDuration(225))
	assert.Equal(t, "0:05", FormatDuration(5))
	assert.Equal(t, "1:02:03", FormatDuration(3723))
	assert.Equal(t, "0:00", FormatDuration(-1))
}

func TestAlbumArtistHelpers(t *testing.T) {
	album := &Album{Artists: []Artist{{Name: "First"}, {Name: "Second"}}}
	assert.Equal(t, "First", album.PrimaryArtist())
	assert.Equal(t, "First, Second", album.AllArtists())

	empty := &Album{}
	assert.Equal(t, "Unknown Artist", empty.PrimaryArtist())

	var nilAlbum *Album
	assert.Equal(t, "Unknown Artist", nilAlbum.PrimaryArtist())
}

func TestCoverArtURL(t *testing.T) {
	got := CoverArtURL("137a9eea-49cc-49a2-95e8-2922abe981de", 640)
	assert.Equal(t,
		"https://resources.tidal.com/images/137a9eea/49cc/49a2/95e8/2922abe981de/640x640.jpg",
		got)
}

func TestSimplifyAlbumName(t *testing.T) {
	long := "A Very Long Album Title That Goes On And On (Deluxe Edition Remastered 2020)"
	assert.Equal(t, "A Very Long Album Title That Goes On And On", simplifyAlbumName(long))
	assert.Equal(t, "Short Album", simplifyAlbumName("Short Album"))
}

const searchFixture = `{
  "included": [
    {
      "id": "album-1",
      "type": "albums",
      "attributes": {
        "title": "Xenotaph",
        "type": "ALBUM",
        "releaseDate": "2025-06-13",
        "numberOfItems": 9,
        "duration": "PT51M4S",
        "popularity": 0.82,
        "mediaTags": ["LOSSLESS", "HIRES_LOSSLESS"]
      },
      "relationships": {
        "artists": {"data": [{"id": "artist-1", "type": "artists"}]},
        "coverArt": {"data": [{"id": "art-1", "type": "artworks"}]}
      }
    },
    {
      "id": "artist-1",
      "type": "artists",
      "attributes": {"name": "Fallujah"}
    },
    {
      "id": "art-1",
      "type": "artworks",
      "attributes": {
        "files": [
          {"href": "https://img.example/1280.jpg", "meta": {"width": 1280, "height": 1280}},
          {"href": "https://img.example/640.jpg", "meta": {"width": 640, "height": 640}}
        ]
      }
    }
  ]
}`

func TestMatchAndBuildAlbum(t *testing.T) {
	var doc searchDocument
	require.NoError(t, json.Unmarshal([]byte(searchFixture), &doc))

	item := matchAlbum(doc.Included, "Xenotaph", "Xenotaph")
	require.NotNil(t, item)

	album := buildAlbum(item, doc.Included)
	assert.Equal(t, "album-1", album.ID)
	assert.Equal(t, "Xenotaph", album.Title)
	assert.Equal(t, 9, album.Tracks)
	assert.Equal(t, 51*60+4, album.DurationSecs)
	assert.Equal(t, "HIRES_LOSSLESS", album.AudioQuality)
	assert.Equal(t, "Fallujah", album.PrimaryArtist())
	assert.Equal(t, "https://img.example/640.jpg", album.CoverURL)
}

func TestMatchAlbumNoHit(t *testing.T) {
	var doc searchDocument
	require.NoError(t, json.Unmarshal([]byte(searchFixture), &doc))

	assert.Nil(t, matchAlbum(doc.Included, "Completely Different", "Completely Different"))
}

func newFixtureServer(t *testing.T, tokenCalls *int32) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(tokenCalls, 1)
		user, pass, ok := r.BasicAuth()
		require.True(t, ok)
		require.Equal(t, "id", user)
		require.Equal(t, "secret", pass)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token": "tok-123",
			"expires_in":   3600,
		})
	})
	mux.HandleFunc("/searchResults/", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer tok-123", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/vnd.api+json")
		_, _ = w.Write([]byte(searchFixture))
	})
	return httptest.NewServer(mux)
}

func TestAlbumInfoEndToEnd(t *testing.T) {
	var tokenCalls int32
	srv := newFixtureServer(t, &tokenCalls)
	defer srv.Close()

	c := NewTidalClient("id", "secret")
	c.apiBase = srv.URL
	c.authURL = srv.URL + "/token"

	album, err := c.AlbumInfo(context.Background(), "Fallujah", "Xenotaph")
	require.NoError(t, err)
	assert.Equal(t, "Xenotaph", album.Title)

	// the token must be reused while it is still valid
	_, err = c.AlbumInfo(context.Background(), "Fallujah", "Xenotaph")
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&tokenCalls))
}

func TestAccessTokenRefreshAfterExpiry(t *testing.T) {
	var tokenCalls int32
	srv := newFixtureServer(t, &tokenCalls)
	defer srv.Close()

	c := NewTidalClient("id", "secret")
	c.apiBase = srv.URL
	c.authURL = srv.URL + "/token"

	_, err := c.accessToken(context.Background())
	require.NoError(t, err)

	// force expiry and confirm a second request hits the token endpoint
	c.mu.Lock()
	c.expiry = time.Now().Add(-time.Second)
	c.mu.Unlock()

	_, err = c.accessToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&tokenCalls))
}

func TestAlbumInfoEmptyInput(t *testing.T) {
	c := NewTidalClient("id", "secret")
	_, err := c.AlbumInfo(context.Background(), "", "")
	assert.ErrorIs(t, err, ErrAlbumNotFound)
}
