package media

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/leeineian/jmusic/proc"
	"github.com/leeineian/jmusic/sys"
	"github.com/lrstanley/go-ytdlp"
	"golang.org/x/time/rate"
)

var (
	ErrEmptyQuery = errors.New("empty query")
	ErrNoResult   = errors.New("no playable result")
)

const printTemplate = "%(url)s\t%(title)s\t%(webpage_url)s\t%(thumbnail)s\t%(duration)s\t%(is_live)s"

// Resolver turns URLs and search text into playable sources through yt-dlp.
// Lookups are rate limited process-wide.
type Resolver struct {
	limiter *rate.Limiter
	run     func(ctx context.Context, target string) (string, error)
}

func NewResolver(perSecond float64) *Resolver {
	return &Resolver{
		limiter: rate.NewLimiter(rate.Limit(perSecond), max(1, int(perSecond))),
		run:     runYtdlp,
	}
}

func runYtdlp(ctx context.Context, target string) (string, error) {
	res, err := ytdlp.New().
		Print(printTemplate).
		Format("bestaudio/best").
		NoPlaylist().
		NoWarnings().
		IgnoreConfig().
		Run(ctx, target)

	if err != nil {
		if res != nil && res.Stderr != "" {
			return "", fmt.Errorf("%w: %s", err, lastLine(res.Stderr))
		}
		return "", err
	}
	return res.Stdout, nil
}

// Resolve never touches a session; callers run it before enqueueing.
func (r *Resolver) Resolve(ctx context.Context, query string) (*proc.AudioSource, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, &proc.ResolutionError{Query: query, Err: ErrEmptyQuery}
	}
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, &proc.ResolutionError{Query: query, Err: err}
	}

	sys.LogMedia(sys.MsgMediaResolving, query)
	start := time.Now()
	out, err := r.run(ctx, Target(query))
	var src *proc.AudioSource
	if err == nil {
		src, err = parseSource(out)
	}
	took := time.Since(start)
	sys.Stats.RecordResolve(took, err)

	if err != nil {
		sys.LogMedia(sys.MsgMediaResolveFail, query, err)
		return nil, &proc.ResolutionError{Query: query, Err: err}
	}
	sys.LogMedia(sys.MsgMediaResolved, query, src.URL, took.Round(time.Millisecond))
	return src, nil
}

// Direct wraps a stream URL that needs no extraction, such as a radio feed.
func Direct(streamURL, title string) *proc.AudioSource {
	return &proc.AudioSource{Input: streamURL, Title: title, URL: streamURL, Live: true}
}

// Target is what yt-dlp is asked for: URLs pass through, anything else becomes
// a single-result YouTube search.
func Target(query string) string {
	if IsURL(query) {
		return query
	}
	return "ytsearch1:" + query
}

func IsURL(s string) bool {
	u, err := url.Parse(strings.TrimSpace(s))
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// parseSource reads the first complete line printed with printTemplate.
func parseSource(stdout string) (*proc.AudioSource, error) {
	for _, l := range strings.Split(strings.TrimSpace(stdout), "\n") {
		ps := strings.Split(strings.TrimRight(l, "\r"), "\t")
		if len(ps) < 6 {
			continue
		}
		input := field(ps[0])
		if input == "" {
			continue
		}
		src := &proc.AudioSource{
			Input:     input,
			Title:     field(ps[1]),
			URL:       field(ps[2]),
			Thumbnail: field(ps[3]),
			Duration:  parseSeconds(field(ps[4])),
			Live:      field(ps[5]) == "True",
		}
		if src.URL == "" {
			src.URL = input
		}
		if src.Title == "" {
			src.Title = src.URL
		}
		return src, nil
	}
	return nil, ErrNoResult
}

// field maps yt-dlp's placeholder for missing values to empty.
func field(s string) string {
	s = strings.TrimSpace(s)
	if s == "NA" || s == "None" {
		return ""
	}
	return s
}

func parseSeconds(s string) time.Duration {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f <= 0 {
		return 0
	}
	return time.Duration(f * float64(time.Second))
}

func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}
