package agent

import (
	"fmt"
	"strings"

	"github.com/desertthunder/stasher/internal/models"
	"github.com/desertthunder/stasher/internal/services"
	"github.com/desertthunder/stasher/internal/shared"
)

// Plan is a structured command from the planner.
type Plan = models.CommandPlan

// ErrNoTargets is returned when a stash_video plan names no usable video.
var ErrNoTargets = fmt.Errorf("%w: no valid video URLs or IDs provided", shared.ErrInvalidCommand)

// NormalizePlan rewrites stash_video parameters so the video list is always under "videos".
func NormalizePlan(plan Plan) Plan {
	params := make(map[string]any, len(plan.Parameters))
	for k, v := range plan.Parameters {
		params[k] = v
	}
	plan.Parameters = params
	plan.Command = strings.ToLower(strings.TrimSpace(plan.Command))

	if plan.Command != StashVideo.String() {
		return plan
	}

	switch {
	case params["video_ids"] != nil:
		params["videos"] = params["video_ids"]
		delete(params, "video_ids")
	case params["video_id"] != nil:
		params["videos"] = []any{params["video_id"]}
		delete(params, "video_id")
	case params["video_urls"] != nil:
		if s, ok := params["video_urls"].(string); ok {
			params["videos"] = []any{s}
		} else {
			params["videos"] = params["video_urls"]
		}
	}
	return plan
}

// StashTargets collects the video inputs of a stash_video plan into watch URLs.
//
// Inputs may be given as video_ids, videos, url or video_urls, as strings or nested lists. Bare
// 11-character alphanumeric ids expand to their watch URL; anything else is passed through.
func StashTargets(params map[string]any) ([]string, error) {
	var raw any
	for _, key := range []string{"video_ids", "videos", "url", "video_urls"} {
		if v, ok := params[key]; ok && !empty(v) {
			raw = v
			break
		}
	}

	urls := []string{}
	for _, input := range flatten(raw) {
		input = strings.TrimSpace(input)
		switch {
		case input == "":
			continue
		case services.IsVideoID(input):
			urls = append(urls, models.WatchURL(input))
		default:
			urls = append(urls, input)
		}
	}

	if len(urls) == 0 {
		return nil, ErrNoTargets
	}
	return urls, nil
}

func flatten(v any) []string {
	switch t := v.(type) {
	case nil:
		return nil
	case string:
		return []string{t}
	case []string:
		return t
	case []any:
		out := []string{}
		for _, item := range t {
			out = append(out, flatten(item)...)
		}
		return out
	default:
		return []string{fmt.Sprint(t)}
	}
}

func empty(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(t) == ""
	case []any:
		return len(t) == 0
	case []string:
		return len(t) == 0
	}
	return false
}

func stringParam(params map[string]any, key string) string {
	if s, ok := params[key].(string); ok {
		return strings.TrimSpace(s)
	}
	return ""
}

func boolParam(params map[string]any, key string, fallback bool) bool {
	switch t := params[key].(type) {
	case bool:
		return t
	case string:
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "true", "yes", "1":
			return true
		case "false", "no", "0":
			return false
		}
	}
	return fallback
}
