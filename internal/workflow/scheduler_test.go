package workflow

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"playscribe/internal/catalog"
	"playscribe/internal/config"
	"playscribe/internal/matching"
	"playscribe/internal/services"
	"playscribe/internal/testsupport"
	"playscribe/internal/topics"
	"playscribe/internal/youtube"
)

type slicePager struct {
	pages [][]youtube.Candidate
	next  int
}

func (p *slicePager) Next(context.Context) ([]youtube.Candidate, error) {
	if p.next >= len(p.pages) {
		return nil, nil
	}
	page := p.pages[p.next]
	p.next++
	return page, nil
}

type endlessPager struct {
	perPage int
	calls   *int
}

func (p *endlessPager) Next(context.Context) ([]youtube.Candidate, error) {
	*p.calls++
	page := make([]youtube.Candidate, p.perPage)
	for i := range page {
		n := (*p.calls-1)*p.perPage + i
		page[i] = youtube.Candidate{PlaylistID: fmt.Sprintf("PL%04d", n), Title: fmt.Sprintf("video %d", n)}
	}
	return page, nil
}

type failingPager struct {
	err error
}

func (p failingPager) Next(context.Context) ([]youtube.Candidate, error) {
	return nil, p.err
}

type fakeDiscovery struct {
	newPager   func() youtube.Pager
	members    map[string][]string
	membersErr error
	memberErrs map[string]error
	searches   []string
}

func (d *fakeDiscovery) Search(phrase string) youtube.Pager {
	d.searches = append(d.searches, phrase)
	if d.newPager == nil {
		return &slicePager{}
	}
	return d.newPager()
}

func (d *fakeDiscovery) PlaylistMembers(_ context.Context, playlistID string) ([]string, error) {
	if d.membersErr != nil {
		return nil, d.membersErr
	}
	if err := d.memberErrs[playlistID]; err != nil {
		return nil, err
	}
	return d.members[playlistID], nil
}

type fakeTranscripts struct {
	available map[string]bool
	errs      map[string]error
	text      map[string]string
	checked   []string
}

func (f *fakeTranscripts) HasEnglishTranscript(_ context.Context, videoID string) (bool, error) {
	f.checked = append(f.checked, videoID)
	if err := f.errs[videoID]; err != nil {
		return false, err
	}
	return f.available[videoID], nil
}

func (f *fakeTranscripts) TranscriptText(_ context.Context, videoID string) (string, error) {
	text, ok := f.text[videoID]
	if !ok {
		return "", fmt.Errorf("no transcript for %s", videoID)
	}
	return text, nil
}

type fakeStorage struct {
	written map[string]string
	err     error
}

func (f *fakeStorage) Write(playlistID, text string) error {
	if f.err != nil {
		return f.err
	}
	if f.written == nil {
		f.written = map[string]string{}
	}
	f.written[playlistID] = text
	return nil
}

type harness struct {
	cfg         *config.Config
	store       *catalog.Store
	discovery   *fakeDiscovery
	transcripts *fakeTranscripts
	storage     *fakeStorage
	scheduler   *Scheduler
}

func newHarness(t *testing.T, defs map[string]*matching.RuleSet, priorities []topics.Priority) *harness {
	t.Helper()

	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	registry, err := topics.New(defs, priorities)
	if err != nil {
		t.Fatalf("topics.New: %v", err)
	}
	h := &harness{
		cfg:         cfg,
		store:       store,
		discovery:   &fakeDiscovery{members: map[string][]string{}},
		transcripts: &fakeTranscripts{available: map[string]bool{}, text: map[string]string{}},
		storage:     &fakeStorage{},
	}
	h.scheduler, err = New(cfg, Dependencies{
		Store:       store,
		Discovery:   h.discovery,
		Transcripts: h.transcripts,
		Storage:     h.storage,
		Registry:    registry,
	}, nil)
	if err != nil {
		t.Fatalf("workflow.New: %v", err)
	}
	return h
}

func chronoTrigger() map[string]*matching.RuleSet {
	return map[string]*matching.RuleSet{
		"Chrono Trigger": {MatchStrings: []string{"chrono trigger"}},
	}
}

func (h *harness) topic(t *testing.T, name string) catalog.Topic {
	t.Helper()
	topic, err := h.store.TopicByName(context.Background(), name)
	if err != nil {
		t.Fatalf("TopicByName: %v", err)
	}
	if topic == nil {
		t.Fatalf("topic %q not registered", name)
	}
	return *topic
}

func (h *harness) playlist(t *testing.T, externalID string) *catalog.Playlist {
	t.Helper()
	playlist, err := h.store.PlaylistByExternalID(context.Background(), externalID)
	if err != nil {
		t.Fatalf("PlaylistByExternalID: %v", err)
	}
	if playlist == nil {
		t.Fatalf("playlist %s not recorded", externalID)
	}
	return playlist
}

func (h *harness) stats(t *testing.T) catalog.Stats {
	t.Helper()
	stats, err := h.store.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	return stats
}

func TestNewRequiresDependencies(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	_, err := New(cfg, Dependencies{}, nil)
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	if _, err := New(nil, Dependencies{}, nil); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error for nil config, got %v", err)
	}
}

func TestCycleDiscoversChronoTrigger(t *testing.T) {
	h := newHarness(t, chronoTrigger(), nil)
	h.discovery.newPager = func() youtube.Pager {
		return &slicePager{pages: [][]youtube.Candidate{{
			{PlaylistID: "PL1", Title: "Chrono Trigger Playthrough", ChannelID: "C1", ChannelName: "Foo"},
		}}}
	}

	outcome, err := h.scheduler.Cycle(context.Background())
	if err != nil {
		t.Fatalf("Cycle: %v", err)
	}
	if outcome != OutcomeSearched {
		t.Fatalf("outcome = %s, want searched", outcome)
	}
	if diff := cmp.Diff([]string{"lets play Chrono Trigger"}, h.discovery.searches); diff != "" {
		t.Fatalf("search phrases mismatch (-want +got):\n%s", diff)
	}

	channel, err := h.store.ChannelByExternalID(context.Background(), "C1")
	if err != nil || channel == nil {
		t.Fatalf("channel C1 missing: %v", err)
	}
	if channel.Name != "Foo" {
		t.Fatalf("channel name = %q, want Foo", channel.Name)
	}

	topic := h.topic(t, "Chrono Trigger")
	if !topic.Searched {
		t.Fatal("expected topic to be marked searched")
	}
	playlist := h.playlist(t, "PL1")
	if playlist.ChannelID != channel.ID {
		t.Fatalf("playlist channel = %d, want %d", playlist.ChannelID, channel.ID)
	}
	if playlist.Topic != catalog.MatchedTopic(topic.ID) {
		t.Fatalf("playlist topic = %s, want matched(%d)", playlist.Topic, topic.ID)
	}
	if playlist.TranscriptionStatus != catalog.TranscriptionUnknown || playlist.RetrievalStatus != catalog.NotRetrieved {
		t.Fatalf("unexpected statuses %s/%s", playlist.TranscriptionStatus, playlist.RetrievalStatus)
	}

	stats := h.stats(t)
	if stats.Channels != 1 || stats.Playlists != 1 {
		t.Fatalf("expected one channel and playlist, got %d/%d", stats.Channels, stats.Playlists)
	}
}

func TestDiscoveryIsIdempotent(t *testing.T) {
	h := newHarness(t, chronoTrigger(), nil)
	page := []youtube.Candidate{
		{PlaylistID: "PL1", Title: "Chrono Trigger Playthrough", ChannelID: "C1", ChannelName: "Foo"},
		{PlaylistID: "PL2", Title: "Chrono Trigger DS", ChannelID: "C1", ChannelName: "Foo"},
		{PlaylistID: "PL3", Title: "Something else", ChannelID: "C2", ChannelName: "Bar"},
		{PlaylistID: "PL1", Title: "Chrono Trigger Playthrough", ChannelID: "C1", ChannelName: "Foo"},
	}
	h.discovery.newPager = func() youtube.Pager {
		return &slicePager{pages: [][]youtube.Candidate{page}}
	}

	ctx := context.Background()
	if _, err := h.scheduler.Cycle(ctx); err != nil {
		t.Fatalf("Cycle: %v", err)
	}
	first := h.stats(t)
	if first.Channels != 2 || first.Playlists != 3 || first.NoTopic != 1 {
		t.Fatalf("unexpected first pass stats: %+v", first)
	}

	if err := h.scheduler.discover(ctx, h.topic(t, "Chrono Trigger")); err != nil {
		t.Fatalf("second discover: %v", err)
	}
	second := h.stats(t)
	if second.Channels != first.Channels || second.Playlists != first.Playlists {
		t.Fatalf("re-discovery created records: before %+v after %+v", first, second)
	}
}

func TestDiscoveryCompletesUnresolvedPlaylist(t *testing.T) {
	h := newHarness(t, chronoTrigger(), nil)
	// A row left unresolved by an interrupted earlier write.
	testsupport.MustCreatePlaylist(t, h.store, "PL1", "Chrono Trigger Playthrough")
	h.discovery.newPager = func() youtube.Pager {
		return &slicePager{pages: [][]youtube.Candidate{{
			{PlaylistID: "PL1", Title: "Chrono Trigger Playthrough", ChannelID: "C1", ChannelName: "Foo"},
		}}}
	}

	if _, err := h.scheduler.Cycle(context.Background()); err != nil {
		t.Fatalf("Cycle: %v", err)
	}
	playlist := h.playlist(t, "PL1")
	if playlist.Topic != catalog.MatchedTopic(h.topic(t, "Chrono Trigger").ID) {
		t.Fatalf("playlist topic = %s, want matched", playlist.Topic)
	}
	if playlist.ChannelName != "Foo" {
		t.Fatalf("channel = %q, want Foo", playlist.ChannelName)
	}
	if stats := h.stats(t); stats.Playlists != 1 {
		t.Fatalf("expected one playlist, got %d", stats.Playlists)
	}
}

func TestCollectStopsAtCandidateCap(t *testing.T) {
	h := newHarness(t, chronoTrigger(), nil)
	calls := 0
	h.discovery.newPager = func() youtube.Pager {
		return &endlessPager{perPage: 23, calls: &calls}
	}

	candidates, err := h.scheduler.collect(context.Background(), h.scheduler.logger, "lets play anything")
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	if len(candidates) != 980 {
		t.Fatalf("collected %d candidates, want 980", len(candidates))
	}
	if calls != 43 {
		t.Fatalf("requested %d pages, want 43", calls)
	}
}

func TestCollectStopsAtEmptyPage(t *testing.T) {
	h := newHarness(t, chronoTrigger(), nil)
	h.discovery.newPager = func() youtube.Pager {
		return &slicePager{pages: [][]youtube.Candidate{
			{{PlaylistID: "A"}, {PlaylistID: "B"}},
			{{PlaylistID: "C"}},
			{},
			{{PlaylistID: "never"}},
		}}
	}
	candidates, err := h.scheduler.collect(context.Background(), h.scheduler.logger, "phrase")
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	if len(candidates) != 3 {
		t.Fatalf("collected %d candidates, want 3", len(candidates))
	}
}

func TestSearchRetryBound(t *testing.T) {
	h := newHarness(t, chronoTrigger(), nil)
	h.discovery.newPager = func() youtube.Pager {
		return failingPager{err: youtube.ErrMalformedPage}
	}

	outcome, err := h.scheduler.Cycle(context.Background())
	if !errors.Is(err, ErrSearchExhausted) {
		t.Fatalf("expected ErrSearchExhausted, got %v", err)
	}
	if !errors.Is(err, youtube.ErrMalformedPage) {
		t.Fatalf("expected last page error to be wrapped, got %v", err)
	}
	if services.IsFatal(err) {
		t.Fatal("search exhaustion must not be fatal")
	}
	if outcome != OutcomeSearchFailed {
		t.Fatalf("outcome = %s, want search_failed", outcome)
	}
	if len(h.discovery.searches) != 5 {
		t.Fatalf("search attempted %d times, want 5", len(h.discovery.searches))
	}
	topic := h.topic(t, "Chrono Trigger")
	if topic.Searched {
		t.Fatal("topic must stay unsearched after exhausting retries")
	}
	if topic.SearchFailures != 1 || topic.LastSearchError == "" {
		t.Fatalf("expected one recorded failure, got %d (%q)", topic.SearchFailures, topic.LastSearchError)
	}
}

type flakyPager struct {
	first []youtube.Candidate
	pages int
}

// Next serves one page and then fails, like a provider returning a broken
// continuation.
func (p *flakyPager) Next(context.Context) ([]youtube.Candidate, error) {
	p.pages++
	if p.pages > 1 {
		return nil, youtube.ErrMalformedPage
	}
	return p.first, nil
}

func TestSearchRestartsFromFirstPage(t *testing.T) {
	h := newHarness(t, chronoTrigger(), nil)
	attempts := 0
	h.discovery.newPager = func() youtube.Pager {
		attempts++
		if attempts < 3 {
			return &flakyPager{first: []youtube.Candidate{{PlaylistID: "PLx", Title: "Chrono Trigger partial"}}}
		}
		return &slicePager{pages: [][]youtube.Candidate{{{PlaylistID: "PL1", Title: "Chrono Trigger"}}}}
	}

	outcome, err := h.scheduler.Cycle(context.Background())
	if err != nil {
		t.Fatalf("Cycle: %v", err)
	}
	if outcome != OutcomeSearched {
		t.Fatalf("outcome = %s, want searched", outcome)
	}
	if attempts != 3 {
		t.Fatalf("attempts = %d, want 3", attempts)
	}
	if stats := h.stats(t); stats.Playlists != 1 {
		t.Fatalf("expected only the successful attempt's playlist, got %d", stats.Playlists)
	}
	h.playlist(t, "PL1")
	if topic := h.topic(t, "Chrono Trigger"); topic.SearchFailures != 0 {
		t.Fatalf("recovered search must not count as a failure, got %d", topic.SearchFailures)
	}
}

func TestAmbiguousMatchAbortsWithoutMutation(t *testing.T) {
	h := newHarness(t, map[string]*matching.RuleSet{
		"Zelda":     {MatchStrings: []string{"zelda"}},
		"Link Saga": {MatchStrings: []string{"link"}},
		"Metroid":   nil,
	}, nil)
	h.discovery.newPager = func() youtube.Pager {
		return &slicePager{pages: [][]youtube.Candidate{{
			{PlaylistID: "PL1", Title: "Metroid 100%", ChannelID: "C1", ChannelName: "Foo"},
			{PlaylistID: "PL2", Title: "Zelda: A Link to the Past", ChannelID: "C2", ChannelName: "Bar"},
		}}}
	}

	_, err := h.scheduler.Cycle(context.Background())
	if !topics.IsAmbiguous(err) {
		t.Fatalf("expected ambiguity error, got %v", err)
	}
	if !services.IsFatal(err) {
		t.Fatalf("ambiguity must be fatal, got %v", err)
	}
	stats := h.stats(t)
	if stats.Playlists != 0 || stats.Channels != 0 {
		t.Fatalf("expected no records after ambiguity, got %+v", stats)
	}
	if stats.TopicsSearched != 0 {
		t.Fatalf("expected no topic marked searched, got %d", stats.TopicsSearched)
	}
}

func TestDisambiguationPriorityPicksOneTopic(t *testing.T) {
	h := newHarness(t, map[string]*matching.RuleSet{
		"Final Fantasy VII":        {MatchStrings: []string{"final fantasy vii"}},
		"Final Fantasy VII Remake": {MatchStrings: []string{"final fantasy vii remake"}},
	}, []topics.Priority{{Group: "remakes", Prefer: []string{"remake"}}})
	h.discovery.newPager = func() youtube.Pager {
		return &slicePager{pages: [][]youtube.Candidate{{
			{PlaylistID: "PL1", Title: "Final Fantasy VII Remake Hard Mode"},
		}}}
	}

	if _, err := h.scheduler.Cycle(context.Background()); err != nil {
		t.Fatalf("Cycle: %v", err)
	}
	playlist := h.playlist(t, "PL1")
	if playlist.TopicName != "Final Fantasy VII Remake" {
		t.Fatalf("topic = %q, want the remake", playlist.TopicName)
	}
	if playlist.ChannelID != 0 {
		t.Fatalf("expected no channel association, got %d", playlist.ChannelID)
	}
}

// seedMatchedPlaylist records one playlist matched to Chrono Trigger and
// marks the topic searched so the next cycle advances it.
func seedMatchedPlaylist(t *testing.T, h *harness, externalID string) *catalog.Playlist {
	t.Helper()
	ctx := context.Background()
	topicsByName := testsupport.MustSyncTopics(t, h.store, "Chrono Trigger")
	topic := topicsByName["Chrono Trigger"]
	if err := h.store.MarkTopicSearched(ctx, topic.ID); err != nil {
		t.Fatalf("MarkTopicSearched: %v", err)
	}
	playlist := testsupport.MustCreatePlaylist(t, h.store, externalID, "Chrono Trigger Playthrough")
	if err := h.store.AssociateTopic(ctx, playlist.ID, catalog.MatchedTopic(topic.ID)); err != nil {
		t.Fatalf("AssociateTopic: %v", err)
	}
	return playlist
}

func TestTranscribedRequiresEveryMember(t *testing.T) {
	cases := []struct {
		name          string
		available     map[string]bool
		transcription catalog.TranscriptionStatus
		retrieval     catalog.RetrievalStatus
		written       map[string]string
	}{
		{
			name:          "all members captioned",
			available:     map[string]bool{"v1": true, "v2": true, "v3": true},
			transcription: catalog.Transcribed,
			retrieval:     catalog.Retrieved,
			written:       map[string]string{"PL1": "one two three"},
		},
		{
			name:          "first member missing",
			available:     map[string]bool{"v1": false, "v2": true, "v3": true},
			transcription: catalog.NotTranscribed,
			retrieval:     catalog.NotRetrieved,
		},
		{
			name:          "last member missing",
			available:     map[string]bool{"v1": true, "v2": true, "v3": false},
			transcription: catalog.NotTranscribed,
			retrieval:     catalog.NotRetrieved,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := newHarness(t, chronoTrigger(), nil)
			seedMatchedPlaylist(t, h, "PL1")
			h.discovery.members["PL1"] = []string{"v1", "v2", "v3"}
			h.transcripts.available = tc.available
			h.transcripts.text = map[string]string{"v1": "one", "v2": "two", "v3": "three"}

			outcome, err := h.scheduler.Cycle(context.Background())
			if err != nil {
				t.Fatalf("Cycle: %v", err)
			}
			if outcome != OutcomeAdvanced {
				t.Fatalf("outcome = %s, want advanced", outcome)
			}
			playlist := h.playlist(t, "PL1")
			if playlist.TranscriptionStatus != tc.transcription {
				t.Fatalf("transcription = %s, want %s", playlist.TranscriptionStatus, tc.transcription)
			}
			if playlist.RetrievalStatus != tc.retrieval {
				t.Fatalf("retrieval = %s, want %s", playlist.RetrievalStatus, tc.retrieval)
			}
			if diff := cmp.Diff(tc.written, h.storage.written); diff != "" {
				t.Fatalf("stored transcripts mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestTwoMemberPlaylistMissingTranscript(t *testing.T) {
	h := newHarness(t, chronoTrigger(), nil)
	seedMatchedPlaylist(t, h, "PL1")
	h.discovery.members["PL1"] = []string{"v1", "v2"}
	h.transcripts.available = map[string]bool{"v1": true}

	if _, err := h.scheduler.Cycle(context.Background()); err != nil {
		t.Fatalf("Cycle: %v", err)
	}
	playlist := h.playlist(t, "PL1")
	if playlist.TranscriptionStatus != catalog.NotTranscribed {
		t.Fatalf("transcription = %s, want not_transcribed", playlist.TranscriptionStatus)
	}
	if playlist.RetrievalStatus != catalog.NotRetrieved {
		t.Fatalf("retrieval = %s, want not_retrieved", playlist.RetrievalStatus)
	}

	outcome, err := h.scheduler.Cycle(context.Background())
	if err != nil {
		t.Fatalf("second Cycle: %v", err)
	}
	if outcome != OutcomeIdle {
		t.Fatalf("second outcome = %s, want idle", outcome)
	}
}

func TestMembersFailureMeansNotTranscribed(t *testing.T) {
	h := newHarness(t, chronoTrigger(), nil)
	seedMatchedPlaylist(t, h, "PL1")
	h.discovery.membersErr = youtube.ErrMalformedPage

	if _, err := h.scheduler.Cycle(context.Background()); err != nil {
		t.Fatalf("Cycle: %v", err)
	}
	if got := h.playlist(t, "PL1").TranscriptionStatus; got != catalog.NotTranscribed {
		t.Fatalf("transcription = %s, want not_transcribed", got)
	}
	if len(h.transcripts.checked) != 0 {
		t.Fatalf("no captions should be checked, got %v", h.transcripts.checked)
	}

	h.discovery.membersErr = nil
	h.discovery.members["PL1"] = []string{"v1"}
	h.transcripts.available = map[string]bool{"v1": true}
	h.transcripts.text = map[string]string{"v1": "hello"}
	if n, err := h.store.RecheckNotTranscribed(context.Background(), "PL1"); err != nil || n != 1 {
		t.Fatalf("RecheckNotTranscribed = %d, %v", n, err)
	}
	if _, err := h.scheduler.Cycle(context.Background()); err != nil {
		t.Fatalf("Cycle after recheck: %v", err)
	}
	if got := h.playlist(t, "PL1").RetrievalStatus; got != catalog.Retrieved {
		t.Fatalf("retrieval after recheck = %s, want retrieved", got)
	}
}

func TestTransientMembersErrorLeavesPlaylistUnknown(t *testing.T) {
	h := newHarness(t, chronoTrigger(), nil)
	seedMatchedPlaylist(t, h, "PL1")
	testsupport.MustCreatePlaylist(t, h.store, "PL2", "Chrono Trigger DS")
	second := h.playlist(t, "PL2")
	if err := h.store.AssociateTopic(context.Background(), second.ID, catalog.MatchedTopic(h.topic(t, "Chrono Trigger").ID)); err != nil {
		t.Fatalf("AssociateTopic: %v", err)
	}
	h.discovery.memberErrs = map[string]error{"PL1": &youtube.HTTPError{URL: "/youtubei/v1/browse", StatusCode: 503}}
	h.discovery.members["PL1"] = []string{"v1"}
	h.discovery.members["PL2"] = []string{"v2"}
	h.transcripts.available = map[string]bool{"v1": true, "v2": true}
	h.transcripts.text = map[string]string{"v1": "first", "v2": "second"}

	outcome, err := h.scheduler.Cycle(context.Background())
	if err == nil {
		t.Fatal("expected the deferred check to be reported")
	}
	if services.IsFatal(err) || !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected a retryable error, got %v", err)
	}
	if outcome != OutcomeAdvanced {
		t.Fatalf("outcome = %s, want advanced", outcome)
	}
	if got := h.playlist(t, "PL1").TranscriptionStatus; got != catalog.TranscriptionUnknown {
		t.Fatalf("PL1 transcription = %s, want unknown", got)
	}
	if got := h.playlist(t, "PL2").RetrievalStatus; got != catalog.Retrieved {
		t.Fatalf("PL2 retrieval = %s, want retrieved", got)
	}

	h.discovery.memberErrs = nil
	if _, err := h.scheduler.Cycle(context.Background()); err != nil {
		t.Fatalf("Cycle after recovery: %v", err)
	}
	if got := h.playlist(t, "PL1").RetrievalStatus; got != catalog.Retrieved {
		t.Fatalf("PL1 retrieval after recovery = %s, want retrieved", got)
	}
}

func TestCaptionLookupErrors(t *testing.T) {
	cases := []struct {
		name          string
		err           error
		wantErr       bool
		transcription catalog.TranscriptionStatus
	}{
		{
			name:          "server error defers",
			err:           &youtube.HTTPError{URL: "/watch", StatusCode: 502},
			wantErr:       true,
			transcription: catalog.TranscriptionUnknown,
		},
		{
			name:          "unreadable watch page is a miss",
			err:           fmt.Errorf("%w: watch page has no player response", youtube.ErrMalformedPage),
			transcription: catalog.NotTranscribed,
		},
		{
			name:          "removed video is a miss",
			err:           &youtube.HTTPError{URL: "/watch", StatusCode: 404},
			transcription: catalog.NotTranscribed,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := newHarness(t, chronoTrigger(), nil)
			seedMatchedPlaylist(t, h, "PL1")
			h.discovery.members["PL1"] = []string{"v1", "v2"}
			h.transcripts.available = map[string]bool{"v1": true, "v2": true}
			h.transcripts.errs = map[string]error{"v2": tc.err}

			_, err := h.scheduler.Cycle(context.Background())
			if (err != nil) != tc.wantErr {
				t.Fatalf("Cycle error = %v, want error %v", err, tc.wantErr)
			}
			if got := h.playlist(t, "PL1").TranscriptionStatus; got != tc.transcription {
				t.Fatalf("transcription = %s, want %s", got, tc.transcription)
			}
		})
	}
}

func TestCycleSearchesBeforeAdvancing(t *testing.T) {
	h := newHarness(t, map[string]*matching.RuleSet{
		"Chrono Trigger": {MatchStrings: []string{"chrono trigger"}},
		"Earthbound":     {MatchStrings: []string{"earthbound"}},
	}, nil)
	seedMatchedPlaylist(t, h, "PL1")
	h.discovery.members["PL1"] = []string{"v1"}
	h.transcripts.available = map[string]bool{"v1": true}
	h.transcripts.text = map[string]string{"v1": "hello"}
	ctx := context.Background()

	outcome, err := h.scheduler.Cycle(ctx)
	if err != nil {
		t.Fatalf("first Cycle: %v", err)
	}
	if outcome != OutcomeSearched {
		t.Fatalf("first outcome = %s, want searched", outcome)
	}
	if diff := cmp.Diff([]string{"lets play Earthbound"}, h.discovery.searches); diff != "" {
		t.Fatalf("search phrases mismatch (-want +got):\n%s", diff)
	}
	if got := h.playlist(t, "PL1").TranscriptionStatus; got != catalog.TranscriptionUnknown {
		t.Fatalf("playlist advanced during a searching cycle: %s", got)
	}
	if len(h.transcripts.checked) != 0 {
		t.Fatalf("no captions should be checked while a topic is unsearched, got %v", h.transcripts.checked)
	}

	outcome, err = h.scheduler.Cycle(ctx)
	if err != nil {
		t.Fatalf("second Cycle: %v", err)
	}
	if outcome != OutcomeAdvanced {
		t.Fatalf("second outcome = %s, want advanced", outcome)
	}
	if got := h.playlist(t, "PL1").RetrievalStatus; got != catalog.Retrieved {
		t.Fatalf("retrieval = %s, want retrieved", got)
	}
	if len(h.discovery.searches) != 1 {
		t.Fatalf("advancing cycle must not search, got %v", h.discovery.searches)
	}

	if outcome, err = h.scheduler.Cycle(ctx); err != nil || outcome != OutcomeIdle {
		t.Fatalf("third Cycle = %s, %v; want idle", outcome, err)
	}
}

func TestStorageFailureMarksRetrievalFailed(t *testing.T) {
	h := newHarness(t, chronoTrigger(), nil)
	seedMatchedPlaylist(t, h, "PL1")
	h.discovery.members["PL1"] = []string{"v1"}
	h.transcripts.available = map[string]bool{"v1": true}
	h.transcripts.text = map[string]string{"v1": "hello"}
	h.storage.err = errors.New("disk full")

	outcome, err := h.scheduler.Cycle(context.Background())
	if err != nil {
		t.Fatalf("Cycle: %v", err)
	}
	if outcome != OutcomeAdvanced {
		t.Fatalf("outcome = %s, want advanced", outcome)
	}
	playlist := h.playlist(t, "PL1")
	if playlist.TranscriptionStatus != catalog.Transcribed || playlist.RetrievalStatus != catalog.RetrievalFailed {
		t.Fatalf("unexpected statuses %s/%s", playlist.TranscriptionStatus, playlist.RetrievalStatus)
	}
	if playlist.ErrorMessage != "disk full" {
		t.Fatalf("error message = %q", playlist.ErrorMessage)
	}

	// failed is not picked up again until an operator resets it
	outcome, err = h.scheduler.Cycle(context.Background())
	if err != nil || outcome != OutcomeIdle {
		t.Fatalf("expected idle after failure, got %s %v", outcome, err)
	}

	h.storage.err = nil
	if n, err := h.store.RetryFailed(context.Background()); err != nil || n != 1 {
		t.Fatalf("RetryFailed = %d, %v", n, err)
	}
	if _, err := h.scheduler.Cycle(context.Background()); err != nil {
		t.Fatalf("Cycle after retry: %v", err)
	}
	if got := h.playlist(t, "PL1").RetrievalStatus; got != catalog.Retrieved {
		t.Fatalf("retrieval after retry = %s, want retrieved", got)
	}
}

func TestAdvanceResumesInterruptedRetrieval(t *testing.T) {
	h := newHarness(t, chronoTrigger(), nil)
	playlist := seedMatchedPlaylist(t, h, "PL1")
	if err := h.store.SetTranscriptionStatus(context.Background(), playlist.ID, catalog.Transcribed); err != nil {
		t.Fatalf("SetTranscriptionStatus: %v", err)
	}
	h.discovery.members["PL1"] = []string{"v1", "v2"}
	h.transcripts.text = map[string]string{"v1": "left", "v2": "right"}

	outcome, err := h.scheduler.Cycle(context.Background())
	if err != nil {
		t.Fatalf("Cycle: %v", err)
	}
	if outcome != OutcomeAdvanced {
		t.Fatalf("outcome = %s, want advanced", outcome)
	}
	if got := h.storage.written["PL1"]; got != "left right" {
		t.Fatalf("stored %q, want %q", got, "left right")
	}
	if len(h.transcripts.checked) != 0 {
		t.Fatalf("availability must not be re-checked, got %v", h.transcripts.checked)
	}
}

func TestNoTopicPlaylistsAreNotAdvanced(t *testing.T) {
	h := newHarness(t, chronoTrigger(), nil)
	h.discovery.newPager = func() youtube.Pager {
		return &slicePager{pages: [][]youtube.Candidate{{{PlaylistID: "PL9", Title: "Earthbound"}}}}
	}
	ctx := context.Background()
	if _, err := h.scheduler.Cycle(ctx); err != nil {
		t.Fatalf("Cycle: %v", err)
	}
	outcome, err := h.scheduler.Cycle(ctx)
	if err != nil {
		t.Fatalf("second Cycle: %v", err)
	}
	if outcome != OutcomeIdle {
		t.Fatalf("outcome = %s, want idle", outcome)
	}
	if got := h.playlist(t, "PL9"); got.Topic != catalog.NoTopic() || got.TranscriptionStatus != catalog.TranscriptionUnknown {
		t.Fatalf("unexpected playlist state %s/%s", got.Topic, got.TranscriptionStatus)
	}
}

func TestRunStopsOnFatalError(t *testing.T) {
	h := newHarness(t, map[string]*matching.RuleSet{
		"Zelda":     {MatchStrings: []string{"zelda"}},
		"Link Saga": {MatchStrings: []string{"link"}},
	}, nil)
	h.discovery.newPager = func() youtube.Pager {
		return &slicePager{pages: [][]youtube.Candidate{{{PlaylistID: "PL1", Title: "Zelda Link"}}}}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := h.scheduler.Run(ctx)
	if !topics.IsAmbiguous(err) {
		t.Fatalf("expected Run to stop with ambiguity, got %v", err)
	}
}

func TestRunReturnsWhenContextDone(t *testing.T) {
	h := newHarness(t, chronoTrigger(), nil)
	h.scheduler.idleInterval = time.Hour

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- h.scheduler.Run(ctx) }()

	deadline := time.After(5 * time.Second)
	for {
		stats := h.stats(t)
		if stats.TopicsSearched == 1 {
			break
		}
		select {
		case <-deadline:
			t.Fatal("topic was never searched")
		case <-time.After(10 * time.Millisecond):
		}
	}
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned %v, want nil", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not stop after cancel")
	}
}
