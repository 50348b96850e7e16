package progression

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// StageChange is one entry in the append-only stage history.
type StageChange struct {
	Stage Stage     `json:"stage"`
	At    time.Time `json:"at"`
}

// ConversationState is the full per-session state. It is plain data so the
// session store can persist it as JSON; all mutation goes through the
// Controller.
type ConversationState struct {
	SessionID             string               `json:"session_id"`
	Stage                 Stage                `json:"stage"`
	Window                []Vector             `json:"window"`
	ConsecutiveMeaningful int                  `json:"consecutive_meaningful"`
	LastIncomingAt        *time.Time           `json:"last_incoming_at,omitempty"`
	LastIncomingText      string               `json:"last_incoming_text"`
	LastOutgoingText      string               `json:"last_outgoing_text"`
	LastOutgoingAt        *time.Time           `json:"last_outgoing_at,omitempty"`
	Flags                 map[string]FlagValue `json:"flags"`
	History               []StageChange        `json:"history"`
	CreatedAt             time.Time            `json:"created_at"`
}

// NewConversationState creates the state for a session's first contact.
func NewConversationState(sessionID string, now time.Time) *ConversationState {
	return &ConversationState{
		SessionID: sessionID,
		Stage:     StageInitial,
		Flags:     make(map[string]FlagValue),
		History:   []StageChange{{Stage: StageInitial, At: now}},
		CreatedAt: now,
	}
}

// Snapshot is the read-only view returned to callers after each operation.
type Snapshot struct {
	SessionID             string               `json:"session_id"`
	Stage                 Stage                `json:"stage"`
	Scores                AggregateScore       `json:"scores"`
	ConsecutiveMeaningful int                  `json:"consecutive_meaningful"`
	Flags                 map[string]FlagValue `json:"flags"`
}

// Controller owns one conversation's state and drives scoring and stage
// transitions. It performs no I/O and holds no locks; callers that allow
// concurrent requests against the same session must serialize them.
type Controller struct {
	cfg      Config
	analyzer *Analyzer
	rules    map[Stage]RuleSet
	scorer   *Scorer
	state    *ConversationState
}

// New creates a controller for a fresh session.
func New(cfg Config, sessionID string, now time.Time) (*Controller, error) {
	return Restore(cfg, NewConversationState(sessionID, now))
}

// Restore creates a controller around existing (usually persisted) state.
// It fails if the config's rule specs do not compile or leave a reachable
// stage without an exit rule set.
func Restore(cfg Config, state *ConversationState) (*Controller, error) {
	rules, err := CompileRuleSets(cfg.StageRules)
	if err != nil {
		return nil, fmt.Errorf("progression config: %w", err)
	}
	if state.Flags == nil {
		state.Flags = make(map[string]FlagValue)
	}
	if !state.Stage.IsValid() {
		return nil, fmt.Errorf("restore session %s: unknown stage %q", state.SessionID, state.Stage)
	}
	windowSize := cfg.WindowSize
	if windowSize < 1 {
		windowSize = DefaultWindowSize
	}
	c := &Controller{
		cfg:      cfg,
		analyzer: NewAnalyzer(cfg.Analyzer),
		rules:    rules,
		scorer:   NewScorerFromWindow(windowSize, state.Window),
		state:    state,
	}
	return c, nil
}

// State returns the underlying conversation state for persistence.
func (c *Controller) State() *ConversationState {
	return c.state
}

// RecordIncoming ingests one message from the counterpart: scores it over
// the window, updates the meaningfulness counter, and evaluates the current
// stage's exit rules. At most one transition happens per call, and none
// once the stage is terminal (scores still update for audit).
//
// Timestamps are expected to be monotonic. An out-of-order timestamp is
// accepted with latency clamped to 0 rather than rejected: scoring stays
// available, and the recorded high-water mark is kept so the next in-order
// message computes a sane latency. A deliberate leniency, not a claim that
// the input was correct.
func (c *Controller) RecordIncoming(text string, at time.Time) Snapshot {
	latency := c.latencyHours(at)

	vec := c.analyzer.Analyze(text, latency, c.state.LastOutgoingText)
	c.scorer.Observe(vec)
	c.state.Window = c.scorer.Window()

	if WordCount(text) > c.meaningfulMinWords() {
		c.state.ConsecutiveMeaningful++
	} else {
		c.state.ConsecutiveMeaningful = 0
	}

	if c.state.LastIncomingAt == nil || at.After(*c.state.LastIncomingAt) {
		t := at
		c.state.LastIncomingAt = &t
	}
	c.state.LastIncomingText = text

	c.evaluateTransition(at)

	return c.Snapshot()
}

// RecordOutgoing records the system's own message for later reciprocation
// scoring. No rules are evaluated and the stage never changes.
func (c *Controller) RecordOutgoing(text string, at time.Time) {
	c.state.LastOutgoingText = text
	t := at
	c.state.LastOutgoingAt = &t
}

// SetFlag overwrites a named boolean flag.
func (c *Controller) SetFlag(name string, value bool) {
	c.state.Flags[name] = BoolFlag(value)
}

// SetCounter overwrites a named numeric flag.
func (c *Controller) SetCounter(name string, value float64) {
	c.state.Flags[name] = NumberFlag(value)
}

// Snapshot returns the current state view. It mutates nothing, so two
// calls without an intervening operation return identical results.
func (c *Controller) Snapshot() Snapshot {
	flags := make(map[string]FlagValue, len(c.state.Flags))
	for k, v := range c.state.Flags {
		flags[k] = v
	}
	return Snapshot{
		SessionID:             c.state.SessionID,
		Stage:                 c.state.Stage,
		Scores:                c.scorer.Aggregate(c.cfg.TrustWeights, c.cfg.OpennessWeights),
		ConsecutiveMeaningful: c.state.ConsecutiveMeaningful,
		Flags:                 flags,
	}
}

// History returns a copy of the stage history, oldest first.
func (c *Controller) History() []StageChange {
	out := make([]StageChange, len(c.state.History))
	copy(out, c.state.History)
	return out
}

func (c *Controller) latencyHours(at time.Time) float64 {
	if c.state.LastIncomingAt == nil {
		return 0
	}
	latency := at.Sub(*c.state.LastIncomingAt).Hours()
	if latency < 0 {
		log.Debug().
			Str("session", c.state.SessionID).
			Time("timestamp", at).
			Time("last_incoming", *c.state.LastIncomingAt).
			Msg("out-of-order timestamp, clamping latency to 0")
		return 0
	}
	return latency
}

func (c *Controller) evaluateTransition(at time.Time) {
	if c.state.Stage.IsTerminal() {
		return
	}
	set, ok := c.rules[c.state.Stage]
	if !ok {
		return
	}
	in := evalInput{
		scores:      c.scorer.Aggregate(c.cfg.TrustWeights, c.cfg.OpennessWeights),
		consecutive: c.state.ConsecutiveMeaningful,
		flags:       c.state.Flags,
		latestText:  strings.ToLower(c.state.LastIncomingText),
	}
	if !set.Satisfied(in) {
		return
	}
	next, ok := c.state.Stage.Next()
	if !ok {
		return
	}
	prev := c.state.Stage
	c.state.Stage = next
	c.state.History = append(c.state.History, StageChange{Stage: next, At: at})
	log.Info().
		Str("session", c.state.SessionID).
		Str("from", prev.String()).
		Str("to", next.String()).
		Float64("trust", in.scores.Trust).
		Float64("openness", in.scores.Openness).
		Int("consecutive_meaningful", in.consecutive).
		Msg("stage transition")
}

func (c *Controller) meaningfulMinWords() int {
	if c.cfg.MeaningfulMinWords > 0 {
		return c.cfg.MeaningfulMinWords
	}
	return DefaultMeaningfulMinWords
}
