package lyrics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/pixwatch/pixwatch/internal/config"
)

var (
	httpClient     *http.Client
	httpClientOnce sync.Once
)

var ErrNotFound = errors.New("lyrics: not found")

// Response is one lrclib record.
type Response struct {
	TrackName    string  `json:"trackName"`
	ArtistName   string  `json:"artistName"`
	AlbumName    string  `json:"albumName"`
	Duration     float64 `json:"duration"`
	Instrumental bool    `json:"instrumental"`
	PlainLyrics  string  `json:"plainLyrics"`
	SyncedLyrics string  `json:"syncedLyrics"`
}

func (r *Response) HasSynced() bool {
	return r != nil && r.SyncedLyrics != "" && !r.Instrumental
}

// Best returns the synced lyrics when present, otherwise the plain ones.
func (r *Response) Best() string {
	if r == nil {
		return ""
	}
	if r.SyncedLyrics != "" {
		return r.SyncedLyrics
	}
	return r.PlainLyrics
}

// TrackParams identifies the track to look up.
type TrackParams struct {
	Title        string
	Artist       string
	Album        string
	DurationSecs float64
}

// Client talks to an lrclib-compatible API.
type Client struct {
	baseURL string
}

func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = config.DefaultLrclibURL
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/")}
}

func getHTTPClient() *http.Client {
	httpClientOnce.Do(func() {
		transport := &http.Transport{
			DialContext: (&net.Dialer{
				Timeout:   2 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			MaxIdleConns:        10,
			MaxIdleConnsPerHost: 5,
			IdleConnTimeout:     60 * time.Second,
			TLSHandshakeTimeout: 2 * time.Second,
		}
		httpClient = &http.Client{
			Transport: transport,
			Timeout:   time.Duration(config.HTTPTimeoutSeconds) * time.Second,
		}
	})
	return httpClient
}

// Fetch looks the track up with a few query variants against /get, then
// falls back to /search preferring results with synced lyrics.
func (c *Client) Fetch(ctx context.Context, track TrackParams) (*Response, error) {
	if track.Title == "" || track.Artist == "" {
		return nil, errors.New("track title or artist is empty")
	}

	artist := normalizeString(track.Artist)
	title := normalizeString(track.Title)

	attempts := []struct {
		artist   string
		title    string
		album    string
		duration float64
	}{
		{artist, title, track.Album, track.DurationSecs},
		{artist, title, "", track.DurationSecs},
		{artist, title, "", 0},
		{stripVersionInfo(track.Artist), stripVersionInfo(track.Title), "", 0},
	}

	seen := make(map[string]bool)
	var lastErr error
	for i, a := range attempts {
		if a.artist == "" || a.title == "" {
			continue
		}
		key := fmt.Sprintf("%s|%s|%s|%.0f", a.artist, a.title, a.album, a.duration)
		if seen[key] {
			continue
		}
		seen[key] = true

		if i > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(100 * time.Millisecond):
			}
		}

		resp, err := c.get(ctx, a.artist, a.title, a.album, a.duration)
		if err == nil {
			if resp.Best() == "" && !resp.Instrumental {
				lastErr = ErrNotFound
				continue
			}
			return resp, nil
		}
		lastErr = err
		if isTimeoutError(err) {
			return nil, fmt.Errorf("lyrics lookup timed out: %w", err)
		}
	}

	resp, err := c.search(ctx, artist, title)
	if err == nil {
		return resp, nil
	}
	if lastErr == nil {
		lastErr = err
	}
	return nil, fmt.Errorf("no lyrics found for %s - %s: %w", track.Artist, track.Title, lastErr)
}

func (c *Client) get(ctx context.Context, artist, title, album string, duration float64) (*Response, error) {
	u, err := url.Parse(c.baseURL + "/get")
	if err != nil {
		return nil, fmt.Errorf("invalid lrclib url: %w", err)
	}

	query := u.Query()
	query.Set("artist_name", artist)
	query.Set("track_name", title)
	if album != "" {
		query.Set("album_name", album)
	}
	if duration > 0 {
		query.Set("duration", fmt.Sprintf("%.0f", duration))
	}
	u.RawQuery = query.Encode()

	var payload Response
	if err := c.doJSON(ctx, u.String(), &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

func (c *Client) search(ctx context.Context, artist, title string) (*Response, error) {
	u, err := url.Parse(c.baseURL + "/search")
	if err != nil {
		return nil, fmt.Errorf("invalid lrclib url: %w", err)
	}

	query := u.Query()
	query.Set("artist_name", artist)
	query.Set("track_name", title)
	u.RawQuery = query.Encode()

	var results []Response
	if err := c.doJSON(ctx, u.String(), &results); err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, ErrNotFound
	}

	for i := range results {
		if results[i].HasSynced() {
			return &results[i], nil
		}
	}
	return &results[0], nil
}

func (c *Client) doJSON(parentCtx context.Context, requestURL string, out any) error {
	timeout := time.Duration(config.HTTPTimeoutSeconds) * time.Second
	ctx, cancel := context.WithTimeout(parentCtx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return fmt.Errorf("failed to build http request: %w", err)
	}
	req.Header.Set("User-Agent", "pixwatch/1.0")

	resp, err := getHTTPClient().Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("lrclib returned status %d: %s", resp.StatusCode, string(body))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read lrclib response: %w", err)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode lrclib json: %w", err)
	}
	return nil
}

func isTimeoutError(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, context.DeadlineExceeded) ||
		strings.Contains(err.Error(), "timeout") ||
		strings.Contains(err.Error(), "i/o timeout")
}

// normalizeString collapses repeated whitespace.
func normalizeString(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// stripVersionInfo removes parenthesized and bracketed suffixes such as
// remix and remaster annotations.
func stripVersionInfo(s string) string {
	for _, pair := range [][2]string{{"(", ")"}, {"[", "]"}} {
		for {
			start := strings.Index(s, pair[0])
			end := strings.Index(s, pair[1])
			if start < 0 || end <= start {
				break
			}
			s = s[:start] + " " + s[end+1:]
		}
	}
	return normalizeString(s)
}
