package metadata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/pixwatch/pixwatch/internal/config"
)

const (
	tidalAPIBase  = "https://openapi.tidal.com/v2"
	tidalAuthURL  = "https://auth.tidal.com/v1/oauth2/token"
	tidalImgBase  = "https://resources.tidal.com/images"
	tokenSafety   = 60 * time.Second
	preferredSize = 640
)

var ErrAlbumNotFound = errors.New("metadata: album not found")

// TidalClient implements Provider against the Tidal open API using
// client-credentials OAuth.
type TidalClient struct {
	http    *http.Client
	apiBase string
	authURL string

	clientID     string
	clientSecret string

	mu     sync.Mutex
	token  string
	expiry time.Time
}

func NewTidalClient(clientID, clientSecret string) *TidalClient {
	return &TidalClient{
		http: &http.Client{
			Timeout: time.Duration(config.HTTPTimeoutSeconds) * time.Second,
		},
		apiBase:      tidalAPIBase,
		authURL:      tidalAuthURL,
		clientID:     clientID,
		clientSecret: clientSecret,
	}
}

// CoverArtURL builds the image URL for a cover resource uuid.
func CoverArtURL(uuid string, size int) string {
	return fmt.Sprintf("%s/%s/%dx%d.jpg", tidalImgBase, strings.ReplaceAll(uuid, "-", "/"), size, size)
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
}

// accessToken returns the cached token, refreshing it shortly before
// expiry so in-flight requests never race the deadline.
func (c *TidalClient) accessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" && time.Now().Before(c.expiry) {
		return c.token, nil
	}

	form := url.Values{"grant_type": {"client_credentials"}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.authURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(c.clientID, c.clientSecret)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("token request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("token request returned status %d: %s", resp.StatusCode, string(body))
	}

	var payload tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("failed to decode token response: %w", err)
	}
	if payload.AccessToken == "" {
		return "", errors.New("token response missing access_token")
	}

	c.token = payload.AccessToken
	c.expiry = time.Now().Add(time.Duration(payload.ExpiresIn)*time.Second - tokenSafety)
	return c.token, nil
}

// JSON:API document shapes for /searchResults.
type searchDocument struct {
	Included []includedItem `json:"included"`
}

type includedItem struct {
	ID            string         `json:"id"`
	Type          string         `json:"type"`
	Attributes    itemAttributes `json:"attributes"`
	Relationships itemRelations  `json:"relationships"`
}

type itemAttributes struct {
	Title         string        `json:"title"`
	Name          string        `json:"name"`
	Type          string        `json:"type"`
	ReleaseDate   string        `json:"releaseDate"`
	NumberOfItems float64       `json:"numberOfItems"`
	Duration      string        `json:"duration"`
	Popularity    float64       `json:"popularity"`
	MediaTags     []string      `json:"mediaTags"`
	Files         []artworkFile `json:"files"`
}

type artworkFile struct {
	Href string `json:"href"`
	Meta struct {
		Width  int `json:"width"`
		Height int `json:"height"`
	} `json:"meta"`
}

type itemRelations struct {
	Artists  relationData `json:"artists"`
	CoverArt relationData `json:"coverArt"`
}

type relationData struct {
	Data []relationRef `json:"data"`
}

type relationRef struct {
	ID   string `json:"id"`
	Type string `json:"type"`
}

func (c *TidalClient) AlbumInfo(ctx context.Context, artist, album string) (*Album, error) {
	if artist == "" || album == "" {
		return nil, ErrAlbumNotFound
	}

	token, err := c.accessToken(ctx)
	if err != nil {
		return nil, err
	}

	simplified := simplifyAlbumName(album)
	query := artist + " " + simplified

	u := fmt.Sprintf("%s/searchResults/%s?countryCode=US&include=albums.coverArt,albums.artists",
		c.apiBase, url.PathEscape(query))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build search request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/vnd.api+json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("album search failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("album search returned status %d: %s", resp.StatusCode, string(body))
	}

	var doc searchDocument
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}

	item := matchAlbum(doc.Included, album, simplified)
	if item == nil {
		return nil, ErrAlbumNotFound
	}
	return buildAlbum(item, doc.Included), nil
}

// simplifyAlbumName trims verbose suffixes from very long album titles so
// the search query stays specific.
func simplifyAlbumName(album string) string {
	if len(album) <= 50 {
		return album
	}
	s := album
	if i := strings.Index(s, " ("); i > 0 {
		s = s[:i]
	}
	if i := strings.Index(s, ", Vol."); i > 0 {
		s = s[:i]
	}
	return s
}

func matchAlbum(included []includedItem, album, simplified string) *includedItem {
	albumLower := strings.ToLower(album)
	simplifiedLower := strings.ToLower(simplified)
	for i := range included {
		if included[i].Type != "albums" {
			continue
		}
		titleLower := strings.ToLower(included[i].Attributes.Title)
		if titleLower == "" {
			continue
		}
		if strings.Contains(titleLower, albumLower) ||
			strings.Contains(albumLower, titleLower) ||
			strings.Contains(titleLower, simplifiedLower) {
			return &included[i]
		}
	}
	return nil
}

func buildAlbum(item *includedItem, included []includedItem) *Album {
	attrs := item.Attributes
	album := &Album{
		ID:           item.ID,
		Title:        attrs.Title,
		Type:         attrs.Type,
		ReleaseDate:  attrs.ReleaseDate,
		Tracks:       int(attrs.NumberOfItems),
		DurationSecs: ParseISODuration(attrs.Duration),
		AudioQuality: pickAudioQuality(attrs.MediaTags),
		Popularity:   attrs.Popularity,
		Artists:      resolveArtists(item, included),
		CoverURL:     resolveCoverURL(item, included),
	}
	if album.Title == "" {
		album.Title = "Unknown Album"
	}
	return album
}

func pickAudioQuality(tags []string) string {
	for _, want := range []string{"HIRES_LOSSLESS", "LOSSLESS", "MQA"} {
		for _, tag := range tags {
			if tag == want {
				return want
			}
		}
	}
	return ""
}

func resolveArtists(item *includedItem, included []includedItem) []Artist {
	var artists []Artist
	for _, ref := range item.Relationships.Artists.Data {
		for i := range included {
			if included[i].Type == "artists" && included[i].ID == ref.ID {
				if name := included[i].Attributes.Name; name != "" {
					artists = append(artists, Artist{ID: ref.ID, Name: name})
				}
			}
		}
	}
	return artists
}

// resolveCoverURL prefers the 640x640 rendition and falls back to the
// first file listed for the referenced artwork resource.
func resolveCoverURL(item *includedItem, included []includedItem) string {
	refs := item.Relationships.CoverArt.Data
	if len(refs) == 0 {
		return ""
	}
	coverID := refs[0].ID

	for i := range included {
		if included[i].Type != "artworks" || included[i].ID != coverID {
			continue
		}
		files := included[i].Attributes.Files
		for _, f := range files {
			if f.Meta.Width == preferredSize && f.Href != "" {
				return f.Href
			}
		}
		if len(files) > 0 {
			return files[0].Href
		}
	}
	return ""
}
