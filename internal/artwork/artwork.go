// Package artwork retrieves album cover bytes. Decoding and reduction are
// separate steps so raw bytes can be cached as fetched.
package artwork

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/pixwatch/pixwatch/internal/config"
)

var ErrNoArtwork = errors.New("artwork: no artwork url")

const maxArtworkBytes = 16 << 20

// Fetcher retrieves raw cover bytes for a url. Satisfied by HTTPFetcher and
// by test fakes.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// HTTPFetcher reads file:// urls from disk and everything else over http.
type HTTPFetcher struct {
	Client *http.Client
}

func NewHTTPFetcher() *HTTPFetcher {
	return &HTTPFetcher{Client: http.DefaultClient}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, artworkURL string) ([]byte, error) {
	if artworkURL == "" {
		return nil, ErrNoArtwork
	}

	if strings.HasPrefix(artworkURL, "file://") {
		data, err := os.ReadFile(strings.TrimPrefix(artworkURL, "file://"))
		if err != nil {
			return nil, fmt.Errorf("failed to read artwork file: %w", err)
		}
		return data, nil
	}

	ctx, cancel := context.WithTimeout(ctx, config.ArtworkTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, artworkURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch artwork: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("artwork fetch returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxArtworkBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read artwork body: %w", err)
	}
	return data, nil
}

// Decode parses cover bytes into an image (jpeg, png, or gif).
func Decode(data []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode artwork: %w", err)
	}
	return img, nil
}
