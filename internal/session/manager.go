package session

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"cinepick/internal/classify"
	"cinepick/internal/config"
	"cinepick/internal/delivery"
	"cinepick/internal/logging"
	"cinepick/internal/memory"
	"cinepick/internal/metrics"
	"cinepick/internal/movie"
	"cinepick/internal/recommend"
	"cinepick/internal/textutil"
)

const ratingPromptTimeout = 10 * time.Second

// Proposer suggests candidates for a prompt, typically a conversational agent
// driving the catalog tools. Proposals are verified before use.
type Proposer interface {
	Propose(ctx context.Context, prompt string, excluded []int64) ([]recommend.Proposal, error)
}

// Options tunes session behaviour.
type Options struct {
	// IdleTimeout is how long an untouched conversation survives a sweep.
	IdleTimeout time.Duration
	// WatchBuffer is added to the runtime before asking for a rating.
	WatchBuffer time.Duration
	// DefaultRuntimeMinutes is used when the runtime is unknown.
	DefaultRuntimeMinutes int
	// FastSearchTimeout bounds each pipeline run, including prefetches.
	FastSearchTimeout time.Duration
	// AgentTimeout bounds a Proposer call.
	AgentTimeout time.Duration
	// Prefetch enables the background next-candidate computation.
	Prefetch bool
	// SweepInterval is how often Serve sweeps idle conversations.
	SweepInterval time.Duration
}

// DefaultOptions returns the standard session settings.
func DefaultOptions() Options {
	return Options{
		IdleTimeout:           12 * time.Hour,
		WatchBuffer:           15 * time.Minute,
		DefaultRuntimeMinutes: 120,
		FastSearchTimeout:     10 * time.Second,
		AgentTimeout:          30 * time.Second,
		Prefetch:              true,
		SweepInterval:         time.Minute,
	}
}

// OptionsFromConfig maps the [session] and [timeouts] sections to Options.
func OptionsFromConfig(cfg *config.Config) Options {
	opts := DefaultOptions()
	if cfg == nil {
		return opts
	}
	opts.IdleTimeout = cfg.Session.IdleTimeout()
	opts.WatchBuffer = cfg.Session.WatchBuffer()
	opts.DefaultRuntimeMinutes = cfg.Session.DefaultRuntimeMinutes
	opts.FastSearchTimeout = cfg.Timeouts.FastSearchTimeout()
	opts.AgentTimeout = cfg.Timeouts.AgentTimeout()
	opts.Prefetch = cfg.Session.Prefetch
	return opts
}

// Option customizes a Manager.
type Option func(*Manager)

// WithProposer consults p before the pipeline for non-person prompts.
func WithProposer(p Proposer) Option {
	return func(m *Manager) { m.proposer = p }
}

// WithScheduler replaces the rating job scheduler.
func WithScheduler(s *Scheduler) Option {
	return func(m *Manager) { m.scheduler = s }
}

// WithClock replaces time.Now for markers and idle tracking.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// Manager owns every conversation and applies transitions to them.
type Manager struct {
	pipeline  *recommend.Recommender
	memory    *memory.Client
	delivery  delivery.Service
	scheduler *Scheduler
	proposer  Proposer
	opts      Options
	logger    *slog.Logger
	now       func() time.Time

	mu       sync.Mutex
	sessions map[string]*conversation

	prefetches sync.WaitGroup
}

// New builds a Manager. A nil memory client stores nothing and a nil delivery
// service drops every message.
func New(pipeline *recommend.Recommender, mem *memory.Client, out delivery.Service, opts Options, logger *slog.Logger, extra ...Option) *Manager {
	if mem == nil {
		mem = memory.NewClient(nil, 0, 0, logger)
	}
	if out == nil {
		out = delivery.Noop{}
	}
	defaults := DefaultOptions()
	if opts.FastSearchTimeout <= 0 {
		opts.FastSearchTimeout = defaults.FastSearchTimeout
	}
	if opts.AgentTimeout <= 0 {
		opts.AgentTimeout = defaults.AgentTimeout
	}
	if opts.DefaultRuntimeMinutes <= 0 {
		opts.DefaultRuntimeMinutes = defaults.DefaultRuntimeMinutes
	}
	if opts.IdleTimeout <= 0 {
		opts.IdleTimeout = defaults.IdleTimeout
	}
	if opts.SweepInterval <= 0 {
		opts.SweepInterval = defaults.SweepInterval
	}
	m := &Manager{
		pipeline: pipeline,
		memory:   mem,
		delivery: out,
		opts:     opts,
		logger:   logging.NewComponentLogger(logger, "session"),
		now:      time.Now,
		sessions: make(map[string]*conversation),
	}
	for _, opt := range extra {
		opt(m)
	}
	if m.scheduler == nil {
		m.scheduler = NewScheduler(nil)
	}
	return m
}

// HandlePrompt starts or continues a conversation with text and offers the
// best candidate. A prompt that differs from the active one, ignoring case
// and spacing, resets the queue, exclusions, and prefetch. userID keys the
// preference memory; empty means the conversation id.
func (m *Manager) HandlePrompt(ctx context.Context, conversationID, userID, text string) (Reply, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Reply{}, ErrEmptyPrompt
	}
	conv, _ := m.acquire(conversationID, userID, true)
	defer conv.mu.Unlock()
	conv.lastActive = m.now()
	if userID != "" {
		conv.userID = userID
	}

	ctx = logging.WithConversationID(ctx, conversationID)
	if !textutil.SameText(conv.prompt, text) {
		conv.reset(text)
	}
	metrics.RecordSessionEvent("prompt")

	c := classify.Classify(text)
	if m.proposer != nil && !c.IsPerson() {
		if reply, ok := m.offerProposals(ctx, conv); ok {
			return reply, nil
		}
	}
	if reply, ok := m.runPipeline(ctx, conv, false); ok {
		return reply, nil
	}
	if !c.Holiday {
		if reply, ok := m.runPipeline(ctx, conv, true); ok {
			return reply, nil
		}
	}

	m.notify(ctx, conv.id, msgNoResult)
	metrics.RecordSessionEvent("no_result")
	return Reply{Outcome: OutcomeNoResult, Message: msgNoResult}, nil
}

// Offer surfaces the next candidate for the active prompt without recording a
// response to the current one.
func (m *Manager) Offer(ctx context.Context, conversationID string) (Reply, error) {
	conv, ok := m.acquire(conversationID, "", false)
	if !ok {
		return Reply{}, ErrUnknownConversation
	}
	defer conv.mu.Unlock()
	conv.lastActive = m.now()

	ctx = logging.WithConversationID(ctx, conversationID)
	if reply, ok := m.next(ctx, conv); ok {
		return reply, nil
	}
	return m.exhausted(ctx, conv), nil
}

// Act applies a watch, dislike, or watched response to an offered candidate.
func (m *Manager) Act(ctx context.Context, conversationID string, movieID int64, action Action) (Reply, error) {
	switch action {
	case ActionWatch:
		return m.Accept(ctx, conversationID, movieID)
	case ActionDislike, ActionWatched:
		return m.Reject(ctx, conversationID, movieID, action)
	default:
		return Reply{}, ErrUnknownAction
	}
}

// Accept records the intent to watch movieID and schedules a rating prompt
// after the watch buffer plus the runtime. The queue is not advanced.
func (m *Manager) Accept(ctx context.Context, conversationID string, movieID int64) (Reply, error) {
	conv, ok := m.acquire(conversationID, "", false)
	if !ok {
		return Reply{}, ErrUnknownConversation
	}
	defer conv.mu.Unlock()
	conv.lastActive = m.now()

	cand, ok := conv.offered[movieID]
	if !ok {
		return Reply{}, ErrUnknownCandidate
	}
	ctx = logging.WithConversationID(ctx, conversationID)

	runtime := cand.RuntimeMinutes
	if runtime <= 0 {
		runtime = m.pipeline.Details().Runtime(ctx, movieID)
	}
	if runtime <= 0 {
		runtime = m.opts.DefaultRuntimeMinutes
	}

	if prev, watching := conv.watching[movieID]; watching {
		m.scheduler.Cancel(prev.job)
	}
	delay := m.opts.WatchBuffer + time.Duration(runtime)*time.Minute
	convID := conv.id
	job := m.scheduler.Schedule(delay, func() { m.askRating(convID, movieID) })
	conv.watching[movieID] = watchMarker{candidate: cand, since: m.now(), job: job}

	m.memory.Remember(ctx, conv.userID, memory.WatchIntentText(cand.Title))
	msg := watchMessage(cand.Title, runtime)
	m.notify(ctx, conv.id, msg)
	metrics.RecordSessionEvent("accept")

	logging.WithContext(ctx, m.logger).Info("rating prompt scheduled",
		logging.Int64(logging.FieldMovieID, movieID),
		logging.String("title", cand.Title),
		logging.Int("runtime_minutes", runtime),
		logging.Duration("delay", delay),
	)
	clone := cand.Clone()
	return Reply{Outcome: OutcomeWatching, Message: msg, Candidate: &clone}, nil
}

// Reject records a dislike or an already-watched movie and offers the next
// candidate: the prefetched one, then the queue, then a fresh pipeline run
// with every excluded id, then genre discovery. When all of them come up
// empty the reply outcome is OutcomeExhausted.
func (m *Manager) Reject(ctx context.Context, conversationID string, movieID int64, action Action) (Reply, error) {
	if action != ActionDislike && action != ActionWatched {
		return Reply{}, ErrUnknownAction
	}
	conv, ok := m.acquire(conversationID, "", false)
	if !ok {
		return Reply{}, ErrUnknownConversation
	}
	defer conv.mu.Unlock()
	conv.lastActive = m.now()

	cand, ok := conv.offered[movieID]
	if !ok {
		return Reply{}, ErrUnknownCandidate
	}
	ctx = logging.WithConversationID(ctx, conversationID)

	var text, msg string
	if action == ActionDislike {
		text = memory.DislikeText(cand.Title, m.genres(ctx, cand))
		msg = dislikeMessage(cand.Title)
	} else {
		text = memory.WatchedText(cand.Title, cand.ID)
		msg = watchedMessage(cand.Title)
	}
	m.memory.Remember(ctx, conv.userID, text)
	m.notify(ctx, conv.id, msg)
	metrics.RecordSessionEvent("reject")

	conv.exclude(movieID)
	conv.dropFromQueue(movieID)
	if conv.current == movieID {
		conv.current = 0
	}

	reply, ok := m.next(ctx, conv)
	if !ok {
		return m.exhausted(ctx, conv), nil
	}
	reply.Message = msg
	return reply, nil
}

// Rate stores a 1-10 rating for movieID, clears its watching marker, and
// cancels the pending rating prompt.
func (m *Manager) Rate(ctx context.Context, conversationID string, movieID int64, rating int) (Reply, error) {
	if rating < 1 || rating > 10 {
		return Reply{}, ErrInvalidRating
	}
	conv, ok := m.acquire(conversationID, "", false)
	if !ok {
		return Reply{}, ErrUnknownConversation
	}
	defer conv.mu.Unlock()
	conv.lastActive = m.now()

	var cand movie.Candidate
	if marker, watching := conv.watching[movieID]; watching {
		m.scheduler.Cancel(marker.job)
		delete(conv.watching, movieID)
		cand = marker.candidate
	} else if offered, ok := conv.offered[movieID]; ok {
		cand = offered
	} else {
		return Reply{}, ErrUnknownCandidate
	}
	ctx = logging.WithConversationID(ctx, conversationID)

	m.memory.Remember(ctx, conv.userID, memory.RatingText(cand.Title, rating, m.genres(ctx, cand)))
	msg := ratingMessage(cand.Title, rating)
	m.notify(ctx, conv.id, msg)
	metrics.RecordSessionEvent("rating")

	clone := cand.Clone()
	return Reply{Outcome: OutcomeRated, Message: msg, Candidate: &clone}, nil
}

// Snapshot returns a copy of the conversation state.
func (m *Manager) Snapshot(conversationID string) (Snapshot, bool) {
	conv, ok := m.acquire(conversationID, "", false)
	if !ok {
		return Snapshot{}, false
	}
	defer conv.mu.Unlock()
	return conv.snapshot(), true
}

// Len returns the number of live conversations.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Wait blocks until in-flight prefetches finish.
func (m *Manager) Wait() {
	m.prefetches.Wait()
}

// Close cancels prefetches and rating jobs and waits for prefetches to stop.
func (m *Manager) Close() {
	m.mu.Lock()
	convs := make([]*conversation, 0, len(m.sessions))
	for _, conv := range m.sessions {
		convs = append(convs, conv)
	}
	m.mu.Unlock()
	for _, conv := range convs {
		conv.mu.Lock()
		conv.stopPrefetch()
		conv.mu.Unlock()
	}
	m.scheduler.Stop()
	m.prefetches.Wait()
}

func (m *Manager) conversation(id, userID string) *conversation {
	m.mu.Lock()
	defer m.mu.Unlock()
	conv, ok := m.sessions[id]
	if !ok {
		conv = newConversation(id, userID, m.now())
		m.sessions[id] = conv
		metrics.SetActiveSessions(len(m.sessions))
	}
	return conv
}

func (m *Manager) lookup(id string) (*conversation, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	conv, ok := m.sessions[id]
	return conv, ok
}

// acquire returns the conversation with its mutex held, creating it when
// create is set. The conversation is re-checked after locking because Sweep
// may have dropped it in between.
func (m *Manager) acquire(id, userID string, create bool) (*conversation, bool) {
	for {
		var conv *conversation
		if create {
			conv = m.conversation(id, userID)
		} else {
			found, ok := m.lookup(id)
			if !ok {
				return nil, false
			}
			conv = found
		}
		conv.mu.Lock()
		if m.owns(id, conv) {
			return conv, true
		}
		conv.mu.Unlock()
		if !create {
			return nil, false
		}
	}
}

func (m *Manager) owns(id string, conv *conversation) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessions[id] == conv
}

// next tries the prefetch slot, then the queue, then a pipeline run, then
// discovery. conv.mu must be held.
func (m *Manager) next(ctx context.Context, conv *conversation) (Reply, bool) {
	if slot := conv.prefetched; slot != nil {
		conv.prefetched = nil
		if slot.generation == conv.generation && slot.prompt == conv.prompt && !conv.isExcluded(slot.candidate.ID) {
			metrics.RecordSessionEvent("prefetch_hit")
			conv.queue = append([]movie.Candidate{slot.candidate}, conv.queue...)
			if reply, ok := m.present(ctx, conv, SourcePrefetch); ok {
				return reply, true
			}
		}
	}
	if reply, ok := m.present(ctx, conv, SourceQueue); ok {
		return reply, true
	}
	if reply, ok := m.runPipeline(ctx, conv, false); ok {
		return reply, true
	}
	return m.runPipeline(ctx, conv, true)
}

func (m *Manager) exhausted(ctx context.Context, conv *conversation) Reply {
	m.notify(ctx, conv.id, msgExhausted)
	metrics.RecordSessionEvent("exhausted")
	logging.WithContext(ctx, m.logger).Info("conversation exhausted",
		logging.String("prompt", conv.prompt),
		logging.Int("excluded", len(conv.excluded)),
	)
	return Reply{Outcome: OutcomeExhausted, Message: msgExhausted}
}

// runPipeline replaces the queue with a fresh ranked list for the active
// prompt and offers its head. fallback selects genre discovery.
func (m *Manager) runPipeline(ctx context.Context, conv *conversation, fallback bool) (Reply, bool) {
	runCtx, cancel := context.WithTimeout(ctx, m.opts.FastSearchTimeout)
	defer cancel()

	req := recommend.Request{Query: conv.prompt, UserID: conv.userID, Excluded: conv.excludedCopy()}
	var (
		result recommend.Result
		err    error
	)
	if fallback {
		result, err = m.pipeline.Fallback(runCtx, req)
	} else {
		result, err = m.pipeline.Recommend(runCtx, req)
	}
	if err != nil {
		if !errors.Is(err, recommend.ErrNoResult) {
			logging.WarnWithContext(logging.WithContext(ctx, m.logger), "pipeline run failed", "pipeline_failed",
				logging.Bool("fallback", fallback),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check catalog reachability and timeouts"),
				logging.String(logging.FieldImpact, "trying the next recommendation source"),
			)
		}
		return Reply{}, false
	}
	conv.exclude(result.Dropped...)
	conv.queue = result.Candidates()
	return m.present(ctx, conv, string(result.Strategy))
}

func (m *Manager) offerProposals(ctx context.Context, conv *conversation) (Reply, bool) {
	agentCtx, cancel := context.WithTimeout(ctx, m.opts.AgentTimeout)
	defer cancel()

	logger := logging.WithContext(ctx, m.logger)
	proposals, err := m.proposer.Propose(agentCtx, conv.prompt, conv.excludedIDs())
	if err != nil {
		logging.WarnWithContext(logger, "agent proposal failed", "agent_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check the agent backend or raise timeouts.agent_seconds"),
			logging.String(logging.FieldImpact, "falling back to the recommendation pipeline"),
		)
		return Reply{}, false
	}
	accepted, dropped := m.pipeline.VerifyProposals(agentCtx, proposals, conv.excluded)
	conv.exclude(dropped...)
	logger.Debug("agent proposals verified",
		logging.Int("proposed", len(proposals)),
		logging.Int("accepted", len(accepted)),
		logging.Int("dropped", len(dropped)),
	)
	if len(accepted) == 0 {
		return Reply{}, false
	}
	conv.queue = accepted
	return m.present(ctx, conv, SourceAgent)
}

// present pops queue entries until one verifies, then excludes, delivers, and
// prefetches. conv.mu must be held.
func (m *Manager) present(ctx context.Context, conv *conversation, source string) (Reply, bool) {
	logger := logging.WithContext(ctx, m.logger)
	for len(conv.queue) > 0 {
		next := conv.queue[0]
		conv.queue = conv.queue[1:]
		if next.ID <= 0 || conv.isExcluded(next.ID) {
			continue
		}

		cand := next
		if !cand.Verified {
			verified, err := m.pipeline.Details().Fetch(ctx, next.ID, next.Title)
			if err != nil {
				conv.exclude(next.ID)
				logger.Debug("queued candidate skipped",
					logging.Int64(logging.FieldMovieID, next.ID),
					logging.String("title", next.Title),
					logging.Error(err),
				)
				continue
			}
			verified.FromPerson = next.FromPerson
			cand = verified
		}
		conv.exclude(cand.ID)
		conv.dropFromQueue(cand.ID)
		conv.offered[cand.ID] = cand
		conv.current = cand.ID
		if err := m.delivery.Offer(ctx, conv.id, cand); err != nil {
			logger.Debug("offer delivery failed", logging.Error(err))
		}
		metrics.RecordSessionEvent("offer")
		logger.Info("candidate offered",
			logging.Int64(logging.FieldMovieID, cand.ID),
			logging.String("title", cand.Title),
			logging.String("source", source),
			logging.Int("queue", len(conv.queue)),
		)
		m.startPrefetch(conv)

		clone := cand.Clone()
		return Reply{Outcome: OutcomeOffered, Candidate: &clone, Source: source}, true
	}
	return Reply{}, false
}

// startPrefetch computes the next candidate in the background. The result is
// kept only if the conversation is still on the same prompt and generation.
// conv.mu must be held.
func (m *Manager) startPrefetch(conv *conversation) {
	if !m.opts.Prefetch {
		return
	}
	conv.stopPrefetch()
	ctx, cancel := context.WithTimeout(logging.WithConversationID(context.Background(), conv.id), m.opts.FastSearchTimeout)
	conv.cancelPrefetch = cancel

	prompt, generation := conv.prompt, conv.generation
	req := recommend.Request{Query: prompt, UserID: conv.userID, Excluded: conv.excludedCopy()}
	m.prefetches.Add(1)
	go func() {
		defer m.prefetches.Done()
		defer cancel()
		defer func() {
			if r := recover(); r != nil {
				logging.ErrorWithContext(logging.WithContext(ctx, m.logger), "prefetch panicked", "prefetch_panic",
					logging.Any("panic", r),
					logging.String(logging.FieldImpact, "next rejection runs the pipeline inline"),
				)
			}
		}()

		result, err := m.pipeline.Recommend(ctx, req)
		if err != nil || ctx.Err() != nil {
			logging.WithContext(ctx, m.logger).Debug("prefetch produced nothing", logging.Error(err))
			return
		}
		m.storePrefetch(conv, prompt, generation, result.Head)
	}()
}

func (m *Manager) storePrefetch(conv *conversation, prompt string, generation uint64, cand movie.Candidate) {
	conv.mu.Lock()
	defer conv.mu.Unlock()
	if conv.generation != generation || conv.prompt != prompt || conv.isExcluded(cand.ID) {
		metrics.RecordSessionEvent("prefetch_discarded")
		return
	}
	conv.prefetched = &prefetchSlot{prompt: prompt, generation: generation, candidate: cand}
	metrics.RecordSessionEvent("prefetch_stored")
}

// askRating fires when a rating job is due. It does nothing unless the
// watching marker is still present.
func (m *Manager) askRating(conversationID string, movieID int64) {
	conv, ok := m.acquire(conversationID, "", false)
	if !ok {
		return
	}
	marker, watching := conv.watching[movieID]
	conv.mu.Unlock()
	if !watching {
		return
	}

	ctx, cancel := context.WithTimeout(logging.WithConversationID(context.Background(), conversationID), ratingPromptTimeout)
	defer cancel()
	if err := m.delivery.AskRating(ctx, conversationID, marker.candidate); err != nil {
		logging.WithContext(ctx, m.logger).Debug("rating prompt delivery failed", logging.Error(err))
	}
	metrics.RecordSessionEvent("rating_prompt")
}

// genres returns genre names for cand, fetching details when the candidate
// carries none.
func (m *Manager) genres(ctx context.Context, cand movie.Candidate) []string {
	if len(cand.Genres) > 0 {
		return cand.Genres
	}
	details, err := m.pipeline.Details().Fetch(ctx, cand.ID, cand.Title)
	if err != nil {
		return nil
	}
	return details.Genres
}

func (m *Manager) notify(ctx context.Context, conversationID, text string) {
	if err := m.delivery.Notify(ctx, conversationID, text); err != nil {
		logging.WithContext(ctx, m.logger).Debug("notify delivery failed", logging.Error(err))
	}
}
