// Package azuracast is a thin REST client for the AzuraCast streaming
// platform: it uploads announcement files into a station's media library
// and asks the station to interrupt live playback with one of them.
package azuracast

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

const requestTimeout = 30 * time.Second

type Client struct {
	baseURL   string
	apiKey    string
	stationID int
	httpc     *http.Client
}

func New(baseURL, apiKey string, stationID int) *Client {
	return &Client{
		baseURL:   strings.TrimSuffix(baseURL, "/"),
		apiKey:    apiKey,
		stationID: stationID,
		httpc:     &http.Client{Timeout: requestTimeout},
	}
}

type uploadRequest struct {
	Path string `json:"path"`
	File string `json:"file"` // base64 file contents
}

// UploadFile pushes an audio file into the station's media library under
// the announcements folder.
func (c *Client) UploadFile(ctx context.Context, filename string, contents []byte) error {
	body := uploadRequest{
		Path: "announcements/" + filename,
		File: base64.StdEncoding.EncodeToString(contents),
	}
	path := fmt.Sprintf("/api/station/%d/files", c.stationID)
	if err := c.post(ctx, path, body, nil); err != nil {
		log.Error().Err(err).Str("filename", filename).Msg("azuracast upload failed")
		return fmt.Errorf("upload %q: %w", filename, err)
	}
	log.Info().Str("filename", filename).Msg("uploaded announcement to azuracast")
	return nil
}

type playRequest struct {
	File string `json:"file"`
}

// PlayNow asks the station automation to interrupt the stream with the
// given announcement file. Satisfies the dispatch.Playback interface.
func (c *Client) PlayNow(ctx context.Context, filename string) error {
	body := playRequest{File: "announcements/" + filename}
	path := fmt.Sprintf("/api/station/%d/queue/interrupt", c.stationID)
	if err := c.post(ctx, path, body, nil); err != nil {
		return fmt.Errorf("play %q: %w", filename, err)
	}
	return nil
}

// NowPlaying describes the station's current song as reported by AzuraCast.
type NowPlaying struct {
	StationName string `json:"station_name"`
	Title       string `json:"title"`
	Artist      string `json:"artist"`
	IsLive      bool   `json:"is_live"`
}

func (c *Client) NowPlaying(ctx context.Context) (*NowPlaying, error) {
	path := fmt.Sprintf("/api/nowplaying/%d", c.stationID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	c.setHeaders(req)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("now playing: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("now playing: unexpected status %d", resp.StatusCode)
	}

	// AzuraCast nests the interesting bits under now_playing.song.
	var payload struct {
		Station struct {
			Name string `json:"name"`
		} `json:"station"`
		Live struct {
			IsLive bool `json:"is_live"`
		} `json:"live"`
		Current struct {
			Song struct {
				Title  string `json:"title"`
				Artist string `json:"artist"`
			} `json:"song"`
		} `json:"now_playing"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode now playing: %w", err)
	}
	return &NowPlaying{
		StationName: payload.Station.Name,
		Title:       payload.Current.Song.Title,
		Artist:      payload.Current.Song.Artist,
		IsLive:      payload.Live.IsLive,
	}, nil
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(raw))
	if err != nil {
		return err
	}
	c.setHeaders(req)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(detail)))
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("X-API-Key", c.apiKey)
	req.Header.Set("Accept", "application/json")
}
