package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"tuneclip/internal/chat"
	"tuneclip/internal/cover"
	"tuneclip/internal/i18n"
	"tuneclip/pkg/fuzzy"
)

// MessageParser classifies raw message text.
type MessageParser interface {
	ParseMessage(text string) InputMessage
}

// LinkResolver extracts track and artist from a streaming-platform page.
type LinkResolver interface {
	Resolve(ctx context.Context, pageURL string) (track, artist string, err error)
}

// SourceResolver locates a playable source for a normalized query.
type SourceResolver interface {
	Resolve(ctx context.Context, q QueryContext) (*TrackMeta, error)
}

// CoverResolver picks artwork for a track, never failing outright.
type CoverResolver interface {
	Resolve(ctx context.Context, track, artist string) cover.Selection
}

// Downloader probes and downloads direct URLs.
type Downloader interface {
	ProbeDirect(ctx context.Context, target string) (*TrackMeta, error)
	Download(ctx context.Context, target, outputPath string) error
}

// MediaProcessor manages work files and merges audio with cover art.
type MediaProcessor interface {
	EnsureWorkDir() error
	WorkPaths() (audioPath, coverPath, videoPath string)
	FetchImage(ctx context.Context, imageURL, destPath string) error
	Mux(ctx context.Context, audioPath, coverPath, videoPath string) error
	Cleanup(paths ...string)
}

// RequestGuard enforces single-flight processing per chat plus per-user
// rate limits.
type RequestGuard interface {
	TryAcquire(chatID string) bool
	Release(chatID string)
	CheckRate(chatID, userID string) bool
}

// MessageDedup filters double-delivered chat updates.
type MessageDedup interface {
	Seen(messageID string) bool
}

// MetricsRecorder receives pipeline counters. Implemented by the HTTP
// server; a no-op implementation exists for tests.
type MetricsRecorder interface {
	RecordRequest(msgType string)
	RecordResolution(source string)
	RecordRejection(reason string)
	RecordFailure(reason string)
	RecordProcessingTime(outcome string, duration time.Duration)
	RequestStarted()
	RequestFinished()
}

// NopMetrics discards all metric updates.
type NopMetrics struct{}

func (NopMetrics) RecordRequest(string)                       {}
func (NopMetrics) RecordResolution(string)                    {}
func (NopMetrics) RecordRejection(string)                     {}
func (NopMetrics) RecordFailure(string)                       {}
func (NopMetrics) RecordProcessingTime(string, time.Duration) {}
func (NopMetrics) RequestStarted()                            {}
func (NopMetrics) RequestFinished()                           {}

// Orchestrator sequences a song request through classification, source
// resolution, cover lookup, download, merge and delivery.
type Orchestrator struct {
	config    *Config
	frontend  chat.Frontend
	parser    MessageParser
	links     LinkResolver
	sources   SourceResolver
	covers    CoverResolver
	downloads Downloader
	media     MediaProcessor
	guard     RequestGuard
	dedup     MessageDedup
	metrics   MetricsRecorder
	localizer *i18n.Localizer
	logger    *zap.Logger
}

// NewOrchestrator wires the pipeline together.
func NewOrchestrator(
	config *Config,
	frontend chat.Frontend,
	parser MessageParser,
	links LinkResolver,
	sources SourceResolver,
	covers CoverResolver,
	downloads Downloader,
	media MediaProcessor,
	requestGuard RequestGuard,
	dedup MessageDedup,
	metrics MetricsRecorder,
	logger *zap.Logger,
) *Orchestrator {
	return &Orchestrator{
		config:    config,
		frontend:  frontend,
		parser:    parser,
		links:     links,
		sources:   sources,
		covers:    covers,
		downloads: downloads,
		media:     media,
		guard:     requestGuard,
		dedup:     dedup,
		metrics:   metrics,
		localizer: i18n.NewLocalizer(i18n.DefaultLanguage),
		logger:    logger,
	}
}

// Start initializes the frontend and blocks listening for messages until
// the context is canceled.
func (o *Orchestrator) Start(ctx context.Context) error {
	if err := o.media.EnsureWorkDir(); err != nil {
		return fmt.Errorf("failed to create work dir: %w", err)
	}

	if err := o.frontend.Start(ctx); err != nil {
		return fmt.Errorf("failed to start chat frontend: %w", err)
	}

	o.sendStartupNotice(ctx)

	o.logger.Info("Orchestrator started, listening for messages")

	return o.frontend.Listen(ctx, func(msg *chat.Message) {
		o.handleMessage(ctx, msg)
	})
}

// Stop gracefully shuts down the orchestrator.
func (o *Orchestrator) Stop(ctx context.Context) error {
	o.logger.Info("Stopping orchestrator")

	o.sendShutdownNotice(ctx)

	return nil
}

// sendStartupNotice tells every configured chat the bot is online.
// Chats are only known when an allow list is configured.
func (o *Orchestrator) sendStartupNotice(ctx context.Context) {
	for _, chatID := range o.config.Telegram.AllowedChats {
		if _, err := o.frontend.SendText(ctx, chatID, "", o.localizer.T("bot.startup")); err != nil {
			o.logger.Warn("Failed to send startup notice",
				zap.String("chat_id", chatID),
				zap.Error(err))
		}
	}
}

func (o *Orchestrator) sendShutdownNotice(ctx context.Context) {
	for _, chatID := range o.config.Telegram.AllowedChats {
		if _, err := o.frontend.SendText(ctx, chatID, "", o.localizer.T("bot.shutdown")); err != nil {
			o.logger.Debug("Failed to send shutdown notice",
				zap.String("chat_id", chatID),
				zap.Error(err))
		}
	}
}

// handleMessage applies dedup, rate limiting and the per-chat
// single-flight guard, then processes the request asynchronously.
func (o *Orchestrator) handleMessage(ctx context.Context, msg *chat.Message) {
	if o.dedup.Seen(msg.ChatID + ":" + msg.ID) {
		o.logger.Debug("Dropping duplicate message delivery",
			zap.String("chat_id", msg.ChatID),
			zap.String("message_id", msg.ID))
		return
	}

	if !o.guard.CheckRate(msg.ChatID, msg.SenderID) {
		o.logger.Info("Dropping message over rate limit",
			zap.String("chat_id", msg.ChatID),
			zap.String("sender_id", msg.SenderID))
		return
	}

	// Requests for a busy chat are dropped without a reply. Users
	// double-sending while a request runs is spam, not an error.
	if !o.guard.TryAcquire(msg.ChatID) {
		o.logger.Info("Dropping message for busy chat",
			zap.String("chat_id", msg.ChatID))
		return
	}

	go o.processMessage(ctx, msg)
}

// processMessage runs one request end to end. The chat's processing slot
// is released on every exit path, including panics.
func (o *Orchestrator) processMessage(ctx context.Context, msg *chat.Message) {
	start := time.Now()
	outcome := "success"

	o.metrics.RequestStarted()

	defer o.guard.Release(msg.ChatID)
	defer o.metrics.RequestFinished()
	defer func() {
		if r := recover(); r != nil {
			o.logger.Error("Panic while processing request",
				zap.String("chat_id", msg.ChatID),
				zap.Any("panic", r),
				zap.Stack("stack"))
			o.metrics.RecordFailure("panic")
			o.reply(ctx, msg, o.localizer.T("error.generic", "internal error"))
			outcome = "panic"
		}
		o.metrics.RecordProcessingTime(outcome, time.Since(start))
	}()

	runCtx := ctx
	if o.config.App.RequestTimeoutSecs > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx,
			time.Duration(o.config.App.RequestTimeoutSecs)*time.Second)
		defer cancel()
	}

	input := o.parser.ParseMessage(msg.Text)
	input.ChatID = msg.ChatID
	input.SenderID = msg.SenderID
	input.MessageID = msg.ID
	input.Timestamp = time.Now()

	o.metrics.RecordRequest(messageTypeLabel(input.Type))

	if err := o.run(runCtx, msg, input); err != nil {
		outcome = FailureReason(err)
		o.recordError(err)
		o.reply(ctx, msg, o.replyForError(err, input))
	}
}

// run executes the pipeline stages and returns the first terminal error.
func (o *Orchestrator) run(ctx context.Context, msg *chat.Message, input InputMessage) error {
	req := &Request{
		Input:     input,
		State:     StateClassify,
		StartTime: time.Now(),
	}

	if err := o.classify(ctx, req); err != nil {
		return err
	}

	if req.Track == nil {
		if err := o.search(ctx, req); err != nil {
			return err
		}
	}

	return o.produce(ctx, msg, req)
}

// classify turns the input into either a search context or, for direct
// URLs, a final track.
func (o *Orchestrator) classify(ctx context.Context, req *Request) error {
	input := req.Input

	switch input.Type {
	case MessageTypeNonMusicLink:
		return RejectInput("reject.non_music_link")

	case MessageTypeDSPLink:
		if input.CollectionKind != "" {
			return RejectInput("reject.collection", input.CollectionKind)
		}

		req.State = StateResolveLink
		track, artist, err := o.links.Resolve(ctx, input.URLs[0])
		if err != nil {
			o.logger.Warn("Failed to read link metadata",
				zap.String("url", input.URLs[0]),
				zap.String("platform", input.Platform),
				zap.Error(err))
			return fmt.Errorf("%w: %v", ErrLinkMetadataUnreadable, err)
		}

		combined := track
		if artist != "" {
			combined = track + " " + artist
		}
		req.Query = QueryContext{
			Query:  fuzzy.CleanQuery(combined),
			Track:  track,
			Artist: artist,
		}

	case MessageTypeDirectURL:
		// Direct URLs are trusted by construction: their metadata is
		// used as the final answer with no relevance filtering.
		meta, err := o.downloads.ProbeDirect(ctx, input.URLs[0])
		if err != nil {
			return fmt.Errorf("%w: %v", ErrNoMatchFound, err)
		}
		if meta == nil {
			return ErrNoMatchFound
		}
		meta.Source = "direct"

		track, artist := fuzzy.SplitTrackArtist(meta.Title)
		req.Track = meta
		req.Query = QueryContext{
			Query:  fuzzy.CleanQuery(meta.Title),
			Track:  track,
			Artist: artist,
		}

	default: // MessageTypeFreeText
		track, artist := fuzzy.SplitTrackArtist(input.Text)
		req.Query = QueryContext{
			Query:  fuzzy.CleanQuery(input.Text),
			Track:  track,
			Artist: artist,
		}
	}

	return nil
}

// search runs the source pipeline for the request's query context.
func (o *Orchestrator) search(ctx context.Context, req *Request) error {
	req.State = StateSearchSources

	if _, err := o.frontend.SendText(ctx, req.Input.ChatID, req.Input.MessageID,
		o.localizer.T("search.searching")); err != nil {
		o.logger.Warn("Failed to send progress notice", zap.Error(err))
	}

	meta, err := o.sources.Resolve(ctx, req.Query)
	if err != nil {
		return err
	}

	req.Track = meta
	o.metrics.RecordResolution(meta.Source)

	return nil
}

// produce fetches cover art, downloads the audio, merges both into a
// video and delivers it.
func (o *Orchestrator) produce(ctx context.Context, msg *chat.Message, req *Request) error {
	// Cover art depends only on the query context, never on which
	// source tier won.
	req.State = StateFetchCover
	selection := o.covers.Resolve(ctx, req.Query.Track, req.Query.Artist)
	o.logger.Info("Cover art selected",
		zap.String("source", selection.Source),
		zap.String("url", selection.URL))

	audioPath, coverPath, videoPath := o.media.WorkPaths()
	defer o.media.Cleanup(audioPath, coverPath, videoPath)

	if err := o.media.FetchImage(ctx, selection.URL, coverPath); err != nil {
		return fmt.Errorf("%w: cover fetch: %v", ErrMergeFailed, err)
	}

	req.State = StateDownload
	if err := o.frontend.SendAction(ctx, msg.ChatID, chat.ActionUploadVideo); err != nil {
		o.logger.Debug("Failed to send chat action", zap.Error(err))
	}

	if err := o.downloads.Download(ctx, req.Track.URL, audioPath); err != nil {
		return fmt.Errorf("%w: %v", ErrDownloadFailed, err)
	}

	req.State = StateMerge
	if err := o.media.Mux(ctx, audioPath, coverPath, videoPath); err != nil {
		return err
	}

	req.State = StateDeliver
	caption := o.localizer.T("video.caption", req.Track.Title)
	if _, err := o.frontend.SendVideo(ctx, msg.ChatID, videoPath, caption); err != nil {
		return fmt.Errorf("%w: delivery: %v", ErrDownloadFailed, err)
	}

	req.State = StateDone
	o.logger.Info("Request completed",
		zap.String("chat_id", msg.ChatID),
		zap.String("title", req.Track.Title),
		zap.String("source", req.Track.Source),
		zap.Duration("elapsed", time.Since(req.StartTime)))

	return nil
}

// replyForError maps a pipeline error to the user-facing reply.
func (o *Orchestrator) replyForError(err error, input InputMessage) string {
	var rejection *RejectionError
	if errors.As(err, &rejection) {
		return o.localizer.T(rejection.Reason, rejection.Args...)
	}

	switch {
	case errors.Is(err, ErrLinkMetadataUnreadable):
		if input.Platform == PlatformAmazonMusic {
			return o.localizer.T("link.unreadable_amazon")
		}
		return o.localizer.T("link.unreadable")
	case errors.Is(err, ErrNoMatchFound):
		return o.localizer.T("search.no_match")
	default:
		return o.localizer.T("error.generic", err.Error())
	}
}

// recordError updates the rejection or failure counters.
func (o *Orchestrator) recordError(err error) {
	reason := FailureReason(err)
	if errors.Is(err, ErrUserInputRejected) {
		o.metrics.RecordRejection(reason)
		return
	}
	o.metrics.RecordFailure(reason)
}

// reply sends a text reply, logging delivery failures.
func (o *Orchestrator) reply(ctx context.Context, msg *chat.Message, text string) {
	if _, err := o.frontend.SendText(ctx, msg.ChatID, msg.ID, text); err != nil {
		o.logger.Warn("Failed to send reply",
			zap.String("chat_id", msg.ChatID),
			zap.Error(err))
	}
}

// messageTypeLabel converts a message type to its metric label.
func messageTypeLabel(t MessageType) string {
	switch t {
	case MessageTypeDSPLink:
		return "dsp_link"
	case MessageTypeDirectURL:
		return "direct_url"
	case MessageTypeNonMusicLink:
		return "non_music_link"
	case MessageTypeFreeText:
		return "free_text"
	default:
		return "unknown"
	}
}
