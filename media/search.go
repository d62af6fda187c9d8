package media

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/leeineian/jmusic/sys"
	"github.com/ppalone/ytsearch"
	"github.com/raitonoberu/ytmusic"
)

const (
	YoutubePrefix = "[YT]"
	YTMusicPrefix = "[YTM]"

	maxChoices    = 25
	searchTimeout = 2300 * time.Millisecond
)

type SearchResult struct{ Title, URL string }

// Searcher backs the play command's autocomplete with YouTube Music and
// YouTube results queried in parallel.
type Searcher struct {
	music   func(query string) []SearchResult
	youtube func(ctx context.Context, query string) []SearchResult
	timeout time.Duration
}

func NewSearcher() *Searcher {
	return &Searcher{music: searchMusic, youtube: searchYoutube, timeout: searchTimeout}
}

// Search returns up to 25 results. A leading "[YT]" puts plain YouTube
// results first; otherwise YouTube Music leads. Whatever arrives before the
// deadline is returned.
func (s *Searcher) Search(ctx context.Context, q string) []SearchResult {
	youtubeFirst, query := splitPrefix(q)
	if query == "" {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var (
		mu      sync.Mutex
		ytm, yt []SearchResult
		wg      sync.WaitGroup
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		r := s.music(query)
		mu.Lock()
		ytm = r
		mu.Unlock()
	}()
	go func() {
		defer wg.Done()
		r := s.youtube(ctx, query)
		mu.Lock()
		yt = r
		mu.Unlock()
	}()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
	}

	mu.Lock()
	defer mu.Unlock()
	if youtubeFirst {
		return mergeResults(yt, ytm)
	}
	return mergeResults(ytm, yt)
}

func splitPrefix(q string) (youtubeFirst bool, query string) {
	q = strings.TrimSpace(q)
	upper := strings.ToUpper(q)
	switch {
	case strings.HasPrefix(upper, YTMusicPrefix):
		return false, strings.TrimSpace(q[len(YTMusicPrefix):])
	case strings.HasPrefix(upper, YoutubePrefix):
		return true, strings.TrimSpace(q[len(YoutubePrefix):])
	}
	return false, q
}

// mergeResults concatenates the lists, dropping repeated URLs, capped at 25.
func mergeResults(first, second []SearchResult) []SearchResult {
	seen := make(map[string]bool)
	out := make([]SearchResult, 0, min(maxChoices, len(first)+len(second)))
	for _, list := range [][]SearchResult{first, second} {
		for _, r := range list {
			if len(out) == maxChoices {
				return out
			}
			if r.URL == "" || seen[r.URL] {
				continue
			}
			seen[r.URL] = true
			out = append(out, r)
		}
	}
	return out
}

func searchMusic(query string) []SearchResult {
	r, err := ytmusic.TrackSearch(query).Next()
	if err != nil {
		sys.LogMedia("YouTube Music search failed: %v", err)
		return nil
	}
	var out []SearchResult
	for _, v := range r.Tracks {
		if v.VideoID == "" {
			continue
		}
		art := ""
		if len(v.Artists) > 0 {
			art = " - " + v.Artists[0].Name
		}
		out = append(out, SearchResult{
			URL:   "https://music.youtube.com/watch?v=" + v.VideoID,
			Title: sys.TruncateWithPreserve(v.Title, 100, YTMusicPrefix+" ", art),
		})
	}
	return out
}

func searchYoutube(ctx context.Context, query string) []SearchResult {
	r, err := ytsearch.NewClient(nil).Search(ctx, query)
	if err != nil {
		sys.LogMedia("YouTube search failed: %v", err)
		return nil
	}
	var out []SearchResult
	for _, v := range r.Results {
		if v.VideoID == "" {
			continue
		}
		out = append(out, SearchResult{
			URL:   "https://www.youtube.com/watch?v=" + v.VideoID,
			Title: sys.TruncateWithPreserve(v.Title, 100, YoutubePrefix+" ", ""),
		})
	}
	return out
}
