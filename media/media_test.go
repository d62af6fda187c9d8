package media

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/leeineian/jmusic/proc"
	"github.com/leeineian/jmusic/sys"
)

func TestMain(m *testing.M) {
	sys.InitLogger(true, false)
	m.Run()
}

func TestIsURL(t *testing.T) {
	tests := map[string]bool{
		"https://www.youtube.com/watch?v=abc": true,
		"http://streaming.radionomy.com/x":    true,
		"never gonna give you up":             false,
		"ftp://example.com/song.mp3":          false,
		"https://":                            false,
		"":                                    false,
	}
	for in, want := range tests {
		if got := IsURL(in); got != want {
			t.Errorf("IsURL(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestTarget(t *testing.T) {
	if got := Target("lofi beats"); got != "ytsearch1:lofi beats" {
		t.Errorf("Expected search target, got %q", got)
	}
	if got := Target("https://youtu.be/abc"); got != "https://youtu.be/abc" {
		t.Errorf("Expected URL passthrough, got %q", got)
	}
}

func TestParseSource(t *testing.T) {
	out := "WARNING: ignored\n" +
		"https://cdn.example/audio\tSong Title\thttps://youtube.com/watch?v=x\thttps://i.ytimg.com/x.jpg\t213.5\tFalse\n"
	src, err := parseSource(out)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if src.Input != "https://cdn.example/audio" {
		t.Errorf("Expected stream input, got %q", src.Input)
	}
	if src.Title != "Song Title" || src.URL != "https://youtube.com/watch?v=x" {
		t.Errorf("Unexpected metadata: %+v", src)
	}
	if src.Duration != 213500*time.Millisecond {
		t.Errorf("Expected 213.5s, got %v", src.Duration)
	}
	if src.Live {
		t.Error("Expected non-live source")
	}
}

func TestParseSourceMissingFields(t *testing.T) {
	src, err := parseSource("https://radio.example/live\tNA\tNA\tNA\tNA\tTrue")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if src.URL != "https://radio.example/live" || src.Title != src.URL {
		t.Errorf("Expected URL fallbacks, got %+v", src)
	}
	if src.Duration != 0 || !src.Live {
		t.Errorf("Expected live source with no duration, got %+v", src)
	}

	if _, err := parseSource(""); !errors.Is(err, ErrNoResult) {
		t.Errorf("Expected ErrNoResult, got %v", err)
	}
}

func TestResolve(t *testing.T) {
	r := NewResolver(100)
	var asked string
	r.run = func(_ context.Context, target string) (string, error) {
		asked = target
		return "u\tTitle\thttps://page\tthumb\t10\tFalse", nil
	}

	src, err := r.Resolve(context.Background(), "  some song ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if asked != "ytsearch1:some song" {
		t.Errorf("Expected trimmed search target, got %q", asked)
	}
	if src.Title != "Title" {
		t.Errorf("Expected Title, got %q", src.Title)
	}
}

func TestResolveErrors(t *testing.T) {
	r := NewResolver(100)
	r.run = func(context.Context, string) (string, error) {
		return "", fmt.Errorf("exit status 1")
	}

	_, err := r.Resolve(context.Background(), "https://example.com/broken")
	var rerr *proc.ResolutionError
	if !errors.As(err, &rerr) {
		t.Fatalf("Expected ResolutionError, got %v", err)
	}
	if rerr.Query != "https://example.com/broken" {
		t.Errorf("Expected query recorded, got %q", rerr.Query)
	}

	if _, err := r.Resolve(context.Background(), "   "); !errors.Is(err, ErrEmptyQuery) {
		t.Errorf("Expected ErrEmptyQuery, got %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	slow := NewResolver(0.001)
	slow.limiter.Allow()
	if _, err := slow.Resolve(ctx, "x"); !errors.As(err, &rerr) {
		t.Errorf("Expected ResolutionError for canceled wait, got %v", err)
	}
}

func TestDirect(t *testing.T) {
	src := Direct("http://radio.example/stream", "Radio")
	if src.Input != src.URL || !src.Live || src.Title != "Radio" {
		t.Errorf("Unexpected direct source: %+v", src)
	}
}

func TestSplitPrefix(t *testing.T) {
	tests := []struct {
		in      string
		ytFirst bool
		query   string
	}{
		{"[YT] lofi", true, "lofi"},
		{"[yt]lofi", true, "lofi"},
		{"[YTM] lofi", false, "lofi"},
		{"lofi", false, "lofi"},
	}
	for _, tt := range tests {
		yt, q := splitPrefix(tt.in)
		if yt != tt.ytFirst || q != tt.query {
			t.Errorf("splitPrefix(%q) = %v, %q; want %v, %q", tt.in, yt, q, tt.ytFirst, tt.query)
		}
	}
}

func TestSearchOrderingAndDedup(t *testing.T) {
	s := &Searcher{
		music: func(string) []SearchResult {
			return []SearchResult{{Title: "m1", URL: "a"}, {Title: "m2", URL: "b"}}
		},
		youtube: func(context.Context, string) []SearchResult {
			return []SearchResult{{Title: "y1", URL: "b"}, {Title: "y2", URL: "c"}}
		},
		timeout: time.Second,
	}

	got := s.Search(context.Background(), "song")
	if len(got) != 3 || got[0].Title != "m1" || got[2].Title != "y2" {
		t.Errorf("Expected music first with duplicates dropped, got %+v", got)
	}

	got = s.Search(context.Background(), "[YT] song")
	if len(got) != 3 || got[0].Title != "y1" {
		t.Errorf("Expected youtube first, got %+v", got)
	}

	if got := s.Search(context.Background(), "[YT]"); got != nil {
		t.Errorf("Expected no results for an empty query, got %+v", got)
	}
}

func TestMergeResultsCap(t *testing.T) {
	var many []SearchResult
	for i := range 40 {
		many = append(many, SearchResult{URL: fmt.Sprint(i)})
	}
	if got := mergeResults(many, nil); len(got) != maxChoices {
		t.Errorf("Expected %d results, got %d", maxChoices, len(got))
	}
}
