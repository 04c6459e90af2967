package core

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"tuneclip/internal/chat"
	"tuneclip/internal/cover"
)

type fakeFrontend struct {
	mutex   sync.Mutex
	texts   []string
	videos  []string
	actions []chat.Action
}

func (f *fakeFrontend) Start(_ context.Context) error { return nil }

func (f *fakeFrontend) Listen(_ context.Context, _ func(*chat.Message)) error { return nil }

func (f *fakeFrontend) SendText(_ context.Context, _, _, text string) (string, error) {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.texts = append(f.texts, text)
	return "1", nil
}

func (f *fakeFrontend) SendVideo(_ context.Context, _, videoPath, caption string) (string, error) {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.videos = append(f.videos, videoPath+"|"+caption)
	return "2", nil
}

func (f *fakeFrontend) SendAction(_ context.Context, _ string, action chat.Action) error {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.actions = append(f.actions, action)
	return nil
}

func (f *fakeFrontend) sentTexts() []string {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	return append([]string(nil), f.texts...)
}

type fakeParser struct {
	messages map[string]InputMessage
}

func (p *fakeParser) ParseMessage(text string) InputMessage {
	if msg, ok := p.messages[text]; ok {
		return msg
	}
	return InputMessage{Type: MessageTypeFreeText, Text: text}
}

type fakeLinks struct {
	track  string
	artist string
	err    error
	calls  int
}

func (l *fakeLinks) Resolve(_ context.Context, _ string) (string, string, error) {
	l.calls++
	return l.track, l.artist, l.err
}

type fakeSources struct {
	meta    *TrackMeta
	err     error
	queries []QueryContext
}

func (s *fakeSources) Resolve(_ context.Context, q QueryContext) (*TrackMeta, error) {
	s.queries = append(s.queries, q)
	if s.err != nil {
		return nil, s.err
	}
	return s.meta, nil
}

type fakeCovers struct {
	requests []string
}

func (c *fakeCovers) Resolve(_ context.Context, track, artist string) cover.Selection {
	c.requests = append(c.requests, track+"|"+artist)
	return cover.Selection{URL: "https://img.example/cover.jpg", Source: "stub"}
}

type fakeDownloads struct {
	probeMeta   *TrackMeta
	probeErr    error
	downloadErr error
	downloads   []string
}

func (d *fakeDownloads) ProbeDirect(_ context.Context, _ string) (*TrackMeta, error) {
	return d.probeMeta, d.probeErr
}

func (d *fakeDownloads) Download(_ context.Context, target, _ string) error {
	d.downloads = append(d.downloads, target)
	return d.downloadErr
}

type fakeMedia struct {
	muxErr   error
	fetchErr error
	cleaned  []string
}

func (m *fakeMedia) EnsureWorkDir() error { return nil }

func (m *fakeMedia) WorkPaths() (string, string, string) {
	return "/tmp/a.mp3", "/tmp/c.jpg", "/tmp/v.mp4"
}

func (m *fakeMedia) FetchImage(_ context.Context, _, _ string) error { return m.fetchErr }

func (m *fakeMedia) Mux(_ context.Context, _, _, _ string) error { return m.muxErr }

func (m *fakeMedia) Cleanup(paths ...string) { m.cleaned = append(m.cleaned, paths...) }

type fakeGuard struct {
	mutex    sync.Mutex
	inFlight map[string]bool
	releases []string
}

func newFakeGuard() *fakeGuard {
	return &fakeGuard{inFlight: make(map[string]bool)}
}

func (g *fakeGuard) TryAcquire(chatID string) bool {
	g.mutex.Lock()
	defer g.mutex.Unlock()
	if g.inFlight[chatID] {
		return false
	}
	g.inFlight[chatID] = true
	return true
}

func (g *fakeGuard) Release(chatID string) {
	g.mutex.Lock()
	defer g.mutex.Unlock()
	delete(g.inFlight, chatID)
	g.releases = append(g.releases, chatID)
}

func (g *fakeGuard) CheckRate(_, _ string) bool { return true }

func (g *fakeGuard) held(chatID string) bool {
	g.mutex.Lock()
	defer g.mutex.Unlock()
	return g.inFlight[chatID]
}

type fakeDedup struct{}

func (fakeDedup) Seen(string) bool { return false }

type testEnv struct {
	orchestrator *Orchestrator
	frontend     *fakeFrontend
	parser       *fakeParser
	links        *fakeLinks
	sources      *fakeSources
	covers       *fakeCovers
	downloads    *fakeDownloads
	media        *fakeMedia
	guard        *fakeGuard
}

func newTestEnv() *testEnv {
	env := &testEnv{
		frontend: &fakeFrontend{},
		parser:   &fakeParser{messages: make(map[string]InputMessage)},
		links:    &fakeLinks{},
		sources: &fakeSources{meta: &TrackMeta{
			Title:    "Found Song",
			URL:      "https://soundcloud.com/found",
			Duration: 200 * time.Second,
			Source:   "soundcloud",
		}},
		covers:    &fakeCovers{},
		downloads: &fakeDownloads{},
		media:     &fakeMedia{},
		guard:     newFakeGuard(),
	}

	env.orchestrator = NewOrchestrator(
		DefaultConfig(),
		env.frontend,
		env.parser,
		env.links,
		env.sources,
		env.covers,
		env.downloads,
		env.media,
		env.guard,
		fakeDedup{},
		NopMetrics{},
		zap.NewNop(),
	)

	return env
}

func testMessage(text string) *chat.Message {
	return &chat.Message{ID: "10", ChatID: "chat1", SenderID: "user1", Text: text}
}

func TestProcessMessage_NonMusicLinkRejected(t *testing.T) {
	env := newTestEnv()
	env.parser.messages["https://example.com/article"] = InputMessage{
		Type: MessageTypeNonMusicLink,
		URLs: []string{"https://example.com/article"},
	}

	env.orchestrator.processMessage(context.Background(), testMessage("https://example.com/article"))

	if len(env.sources.queries) != 0 {
		t.Error("rejected input must not reach the source pipeline")
	}
	if env.links.calls != 0 {
		t.Error("rejected input must not trigger link resolution")
	}
	texts := env.frontend.sentTexts()
	if len(texts) != 1 {
		t.Fatalf("expected 1 rejection reply, got %d", len(texts))
	}
	if env.guard.held("chat1") {
		t.Error("slot must be released after rejection")
	}
}

func TestProcessMessage_CollectionLinkNamesKind(t *testing.T) {
	env := newTestEnv()
	env.parser.messages["album-link"] = InputMessage{
		Type:           MessageTypeDSPLink,
		URLs:           []string{"https://open.spotify.com/album/abc"},
		Platform:       PlatformSpotify,
		CollectionKind: "album",
	}

	env.orchestrator.processMessage(context.Background(), testMessage("album-link"))

	texts := env.frontend.sentTexts()
	if len(texts) != 1 || !strings.Contains(texts[0], "album") {
		t.Errorf("rejection should name the link type, got %v", texts)
	}
	if env.links.calls != 0 {
		t.Error("collection links must not be fetched")
	}
}

func TestProcessMessage_SuccessPath(t *testing.T) {
	env := newTestEnv()

	env.orchestrator.processMessage(context.Background(), testMessage("bohemian rhapsody by queen"))

	if len(env.frontend.videos) != 1 {
		t.Fatalf("expected 1 video delivery, got %d", len(env.frontend.videos))
	}
	if !strings.Contains(env.frontend.videos[0], "Found Song") {
		t.Errorf("caption should carry the resolved title: %s", env.frontend.videos[0])
	}
	if len(env.downloads.downloads) != 1 || env.downloads.downloads[0] != "https://soundcloud.com/found" {
		t.Errorf("download should target the resolved URL, got %v", env.downloads.downloads)
	}
	if env.guard.held("chat1") {
		t.Error("slot must be released after success")
	}
	if len(env.media.cleaned) == 0 {
		t.Error("work files must be cleaned up")
	}
}

func TestProcessMessage_ReleasesSlotOnMidPipelineFailure(t *testing.T) {
	env := newTestEnv()
	env.downloads.downloadErr = errors.New("network down")

	env.orchestrator.processMessage(context.Background(), testMessage("some song"))

	if env.guard.held("chat1") {
		t.Error("slot must be released when the download fails")
	}
	texts := env.frontend.sentTexts()
	if len(texts) == 0 || !strings.Contains(texts[len(texts)-1], "Error") {
		t.Errorf("expected an error reply, got %v", texts)
	}
	if len(env.media.cleaned) == 0 {
		t.Error("work files must be cleaned up on failure")
	}
}

func TestProcessMessage_ReleasesSlotOnPanic(t *testing.T) {
	env := newTestEnv()
	env.sources.meta = nil // nil track dereference inside produce

	env.orchestrator.processMessage(context.Background(), testMessage("some song"))

	if env.guard.held("chat1") {
		t.Error("slot must be released even when a stage panics")
	}
}

func TestProcessMessage_NoMatchReply(t *testing.T) {
	env := newTestEnv()
	env.sources.err = ErrNoMatchFound

	env.orchestrator.processMessage(context.Background(), testMessage("obscure song"))

	texts := env.frontend.sentTexts()
	if len(texts) == 0 || !strings.Contains(texts[len(texts)-1], "couldn't find") {
		t.Errorf("expected a no-match reply, got %v", texts)
	}
	if env.guard.held("chat1") {
		t.Error("slot must be released after a no-match outcome")
	}
}

func TestProcessMessage_CoverKeyedOffQueryContext(t *testing.T) {
	// The cover lookup must use the query-derived track and artist, not
	// the audio source's returned title.
	env := newTestEnv()
	env.sources.meta.Title = "Totally Different Upload Name (Full Album HQ)"

	env.orchestrator.processMessage(context.Background(), testMessage("halo by beyonce"))

	if len(env.covers.requests) != 1 {
		t.Fatalf("expected 1 cover request, got %d", len(env.covers.requests))
	}
	if env.covers.requests[0] != "halo|beyonce" {
		t.Errorf("cover keyed off %q, want query-derived track and artist", env.covers.requests[0])
	}
}

func TestProcessMessage_DirectURLBypassesSearch(t *testing.T) {
	env := newTestEnv()
	env.parser.messages["https://youtu.be/abc"] = InputMessage{
		Type: MessageTypeDirectURL,
		URLs: []string{"https://youtu.be/abc"},
	}
	env.downloads.probeMeta = &TrackMeta{
		Title:     "Direct Video",
		URL:       "https://www.youtube.com/watch?v=abc",
		Duration:  100 * time.Second,
		Extractor: "youtube",
	}

	env.orchestrator.processMessage(context.Background(), testMessage("https://youtu.be/abc"))

	if len(env.sources.queries) != 0 {
		t.Error("direct URLs must bypass the search pipeline")
	}
	if len(env.frontend.videos) != 1 {
		t.Fatalf("expected video delivery, got %d", len(env.frontend.videos))
	}
}

func TestHandleMessage_BusyChatDroppedSilently(t *testing.T) {
	env := newTestEnv()
	env.guard.TryAcquire("chat1")

	env.orchestrator.handleMessage(context.Background(), testMessage("another song"))

	if texts := env.frontend.sentTexts(); len(texts) != 0 {
		t.Errorf("busy-chat drops must not produce replies, got %v", texts)
	}
}

func TestProcessMessage_LinkUnreadableAmazonHint(t *testing.T) {
	env := newTestEnv()
	env.parser.messages["amazon-link"] = InputMessage{
		Type:     MessageTypeDSPLink,
		URLs:     []string{"https://music.amazon.com/tracks/B0C1"},
		Platform: PlatformAmazonMusic,
	}
	env.links.err = errors.New("no title tag")

	env.orchestrator.processMessage(context.Background(), testMessage("amazon-link"))

	texts := env.frontend.sentTexts()
	if len(texts) != 1 || !strings.Contains(texts[0], "Amazon") {
		t.Errorf("expected the Amazon-specific hint, got %v", texts)
	}
}
