package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/stasher/internal/models"
	"github.com/desertthunder/stasher/internal/shared"
	"golang.org/x/time/rate"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

// Quota cost of a list call in the YouTube Data API.
const listCost = 1

const maxPageSize = 50

// ClientOpts configures a [Client]. Zero values fall back to defaults.
type ClientOpts struct {
	Quota   *QuotaLedger
	Retry   *RetryPolicy
	Limiter *rate.Limiter
	Logger  *log.Logger
}

// Client wraps the YouTube Data API with quota accounting, pacing and retries.
type Client struct {
	svc     *youtube.Service
	quota   *QuotaLedger
	retry   RetryPolicy
	limiter *rate.Limiter
	logger  *log.Logger
}

// NewYouTubeService builds the API service on top of an authorized HTTP client.
//
// A non-empty endpoint replaces the API base URL.
func NewYouTubeService(ctx context.Context, httpClient *http.Client, endpoint string) (*youtube.Service, error) {
	opts := []option.ClientOption{option.WithHTTPClient(httpClient)}
	if endpoint != "" {
		if !strings.HasSuffix(endpoint, "/") {
			endpoint += "/"
		}
		opts = append(opts, option.WithEndpoint(endpoint))
	}

	svc, err := youtube.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create youtube service: %w", err)
	}
	return svc, nil
}

// NewClient creates a new Client around svc.
func NewClient(svc *youtube.Service, opts ClientOpts) *Client {
	c := &Client{svc: svc, quota: opts.Quota, limiter: opts.Limiter, logger: opts.Logger}
	if c.logger == nil {
		c.logger = shared.NewLogger(nil)
	}
	if c.quota == nil {
		c.quota = NewQuotaLedger(DefaultDailyQuota, DefaultWarningThreshold, c.logger)
	}
	if c.limiter == nil {
		c.limiter = rate.NewLimiter(rate.Inf, 1)
	}
	if opts.Retry != nil {
		c.retry = *opts.Retry
	} else {
		c.retry = DefaultRetryPolicy()
	}
	return c
}

// Quota exposes the client's ledger.
func (c *Client) Quota() *QuotaLedger {
	return c.quota
}

// Execute charges cost against the quota ledger and runs call, retrying transient failures.
//
// Every attempt is a billable request and is charged. Failures are returned as [*RemoteError].
func (c *Client) Execute(ctx context.Context, op string, cost int, call func(ctx context.Context) error) error {
	for attempt := 0; ; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
		c.quota.Charge(cost)

		err := call(ctx)
		if err == nil {
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		kind, status, reason := Classify(err)
		rerr := &RemoteError{Op: op, Kind: kind, Status: status, Reason: reason, Attempts: attempt + 1, Err: err}

		if kind != KindTransient {
			if kind == KindQuota {
				c.logger.Error("API quota exhausted", "op", op, "reason", reason)
			}
			return rerr
		}
		if attempt >= c.retry.MaxRetries {
			c.logger.Error("giving up on transient failure", "op", op, "attempts", attempt+1, "status", status)
			return rerr
		}

		wait := c.retry.Backoff(attempt)
		c.logger.Warn("transient API failure, retrying", "op", op, "attempt", attempt+1, "status", status, "wait", wait.Round(time.Millisecond))
		if err := c.retry.sleep(ctx, wait); err != nil {
			return err
		}
	}
}

// Paginate calls fetch with successive page tokens until it returns an empty next token.
// Each page is a separate [Client.Execute].
func (c *Client) Paginate(ctx context.Context, op string, cost int, fetch func(ctx context.Context, pageToken string) (string, error)) error {
	token := ""
	seen := map[string]bool{}
	for {
		var next string
		err := c.Execute(ctx, op, cost, func(ctx context.Context) error {
			n, err := fetch(ctx, token)
			next = n
			return err
		})
		if err != nil {
			return err
		}
		if next == "" || seen[next] {
			return nil
		}
		seen[next] = true
		token = next
	}
}

// PlaylistDetails fetches playlist metadata. Returns [shared.ErrEntityNotFound] when the
// playlist does not exist or is not visible.
func (c *Client) PlaylistDetails(ctx context.Context, playlistID string) (*models.Playlist, error) {
	var found *youtube.Playlist
	err := c.Execute(ctx, "playlists.list", listCost, func(ctx context.Context) error {
		resp, err := c.svc.Playlists.List([]string{"snippet", "contentDetails"}).Id(playlistID).Context(ctx).Do()
		if err != nil {
			return err
		}
		if len(resp.Items) > 0 {
			found = resp.Items[0]
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if found == nil {
		return nil, fmt.Errorf("%w: playlist %s", shared.ErrEntityNotFound, playlistID)
	}
	return toPlaylist(found), nil
}

// PlaylistVideoIDs returns the video ids of a playlist in playlist order.
func (c *Client) PlaylistVideoIDs(ctx context.Context, playlistID string) ([]string, error) {
	ids := []string{}
	err := c.Paginate(ctx, "playlistItems.list", listCost, func(ctx context.Context, token string) (string, error) {
		call := c.svc.PlaylistItems.List([]string{"contentDetails"}).
			PlaylistId(playlistID).
			MaxResults(maxPageSize).
			Context(ctx)
		if token != "" {
			call = call.PageToken(token)
		}

		resp, err := call.Do()
		if err != nil {
			return "", err
		}
		for _, item := range resp.Items {
			if item.ContentDetails != nil && item.ContentDetails.VideoId != "" {
				ids = append(ids, item.ContentDetails.VideoId)
			}
		}
		return resp.NextPageToken, nil
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// VideoDetails fetches a video's snippet, statistics and duration. The returned video has no
// playlist association.
func (c *Client) VideoDetails(ctx context.Context, videoID string) (*models.Video, error) {
	var found *youtube.Video
	err := c.Execute(ctx, "videos.list", listCost, func(ctx context.Context) error {
		resp, err := c.svc.Videos.List([]string{"snippet", "contentDetails", "statistics"}).Id(videoID).Context(ctx).Do()
		if err != nil {
			return err
		}
		if len(resp.Items) > 0 {
			found = resp.Items[0]
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if found == nil {
		return nil, fmt.Errorf("%w: video %s", shared.ErrEntityNotFound, videoID)
	}
	return toVideo(found), nil
}

// MyChannelIDs returns the channels owned by the authorized user.
func (c *Client) MyChannelIDs(ctx context.Context) ([]string, error) {
	ids := []string{}
	err := c.Execute(ctx, "channels.list", listCost, func(ctx context.Context) error {
		resp, err := c.svc.Channels.List([]string{"id"}).Mine(true).Context(ctx).Do()
		if err != nil {
			return err
		}
		for _, ch := range resp.Items {
			ids = append(ids, ch.Id)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// ChannelPlaylists enumerates every playlist of a channel.
func (c *Client) ChannelPlaylists(ctx context.Context, channelID string) ([]models.Playlist, error) {
	return c.listPlaylists(ctx, func(call *youtube.PlaylistsListCall) *youtube.PlaylistsListCall {
		return call.ChannelId(channelID)
	})
}

// MyPlaylists enumerates every playlist of the authorized user.
func (c *Client) MyPlaylists(ctx context.Context) ([]models.Playlist, error) {
	return c.listPlaylists(ctx, func(call *youtube.PlaylistsListCall) *youtube.PlaylistsListCall {
		return call.Mine(true)
	})
}

func (c *Client) listPlaylists(ctx context.Context, scope func(*youtube.PlaylistsListCall) *youtube.PlaylistsListCall) ([]models.Playlist, error) {
	playlists := []models.Playlist{}
	err := c.Paginate(ctx, "playlists.list", listCost, func(ctx context.Context, token string) (string, error) {
		call := scope(c.svc.Playlists.List([]string{"snippet", "contentDetails"})).
			MaxResults(maxPageSize).
			Context(ctx)
		if token != "" {
			call = call.PageToken(token)
		}

		resp, err := call.Do()
		if err != nil {
			return "", err
		}
		for _, item := range resp.Items {
			playlists = append(playlists, *toPlaylist(item))
		}
		return resp.NextPageToken, nil
	})
	if err != nil {
		return nil, err
	}
	return playlists, nil
}

func toPlaylist(item *youtube.Playlist) *models.Playlist {
	p := &models.Playlist{ID: item.Id}
	if item.Snippet != nil {
		p.Title = item.Snippet.Title
		p.Description = item.Snippet.Description
		p.ChannelID = item.Snippet.ChannelId
		p.ChannelTitle = item.Snippet.ChannelTitle
	}
	if item.ContentDetails != nil {
		p.ItemCount = item.ContentDetails.ItemCount
	}
	return p
}

func toVideo(item *youtube.Video) *models.Video {
	v := &models.Video{ID: item.Id}
	if item.Snippet != nil {
		v.Title = item.Snippet.Title
		v.Description = item.Snippet.Description
		v.ChannelID = item.Snippet.ChannelId
		v.ChannelTitle = item.Snippet.ChannelTitle
		if ts, err := time.Parse(time.RFC3339, item.Snippet.PublishedAt); err == nil {
			v.PublishedAt = ts.UTC()
		}
	}
	if item.Statistics != nil {
		v.ViewCount = int64(item.Statistics.ViewCount)
		v.LikeCount = int64(item.Statistics.LikeCount)
		v.CommentCount = int64(item.Statistics.CommentCount)
	}
	if item.ContentDetails != nil {
		v.Duration = item.ContentDetails.Duration
	}
	return v
}

// IsQuotaExhausted reports whether err ends a run for the day.
func IsQuotaExhausted(err error) bool {
	return errors.Is(err, shared.ErrQuotaExhausted)
}
