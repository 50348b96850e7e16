package progression

import (
	"strings"
	"unicode"
)

// Metric names one component of the per-message metric vector. The names
// double as config keys for the axis weight tables.
type Metric string

const (
	MetricSentiment      Metric = "sentiment"
	MetricMessageLength  Metric = "message_length"
	MetricInverseLatency Metric = "inverse_latency"
	MetricQuestionRatio  Metric = "question_ratio"
	MetricPronounDensity Metric = "pronoun_density"
	MetricIntimacy       Metric = "intimacy_keywords"
	MetricReciprocation  Metric = "reciprocation"
	MetricAttachment     Metric = "attachment_cues"
	MetricPoliteness     Metric = "politeness_markers"
)

// AllMetrics returns every metric the analyzer produces.
func AllMetrics() []Metric {
	return []Metric{
		MetricSentiment,
		MetricMessageLength,
		MetricInverseLatency,
		MetricQuestionRatio,
		MetricPronounDensity,
		MetricIntimacy,
		MetricReciprocation,
		MetricAttachment,
		MetricPoliteness,
	}
}

// Vector is one message's metric values. Every component is normalized to
// [0,1] so axis weights compose into a bounded score.
type Vector map[Metric]float64

// LatencyUnknown marks a message whose response latency cannot be computed
// (first contact). The analyzer scores it neutrally rather than crediting
// or penalizing.
const LatencyUnknown = -1.0

// AnalyzerConfig holds the lexicons and normalization constants the
// analyzer uses. Zero values fall back to the built-in defaults at
// construction.
type AnalyzerConfig struct {
	// ReferenceLength is the character count that earns full message-length
	// credit.
	ReferenceLength int `koanf:"reference_length"`
	// LatencyCutoffHours is the response latency beyond which no latency
	// credit is given.
	LatencyCutoffHours float64 `koanf:"latency_cutoff_hours"`
	// PronounDensityCap is the pronoun-per-word ratio that earns full
	// pronoun-density credit.
	PronounDensityCap float64 `koanf:"pronoun_density_cap"`
	// KeywordHitCap caps attachment and politeness hit counts.
	KeywordHitCap int `koanf:"keyword_hit_cap"`

	PositiveWords      []string            `koanf:"positive_words"`
	NegativeWords      []string            `koanf:"negative_words"`
	PersonalPronouns   []string            `koanf:"personal_pronouns"`
	IntimacyCategories map[string][]string `koanf:"intimacy_categories"`
	AttachmentCues     []string            `koanf:"attachment_cues"`
	PolitenessMarkers  []string            `koanf:"politeness_markers"`
}

// Analyzer converts a raw message into a metric vector. It holds only
// immutable lexicon sets and is safe to share across conversations.
type Analyzer struct {
	cfg        AnalyzerConfig
	positive   map[string]struct{}
	negative   map[string]struct{}
	pronouns   map[string]struct{}
	categories map[string][]string
}

// NewAnalyzer builds an analyzer, filling any unset config fields from the
// built-in defaults.
func NewAnalyzer(cfg AnalyzerConfig) *Analyzer {
	def := DefaultAnalyzerConfig()
	if cfg.ReferenceLength <= 0 {
		cfg.ReferenceLength = def.ReferenceLength
	}
	if cfg.LatencyCutoffHours <= 0 {
		cfg.LatencyCutoffHours = def.LatencyCutoffHours
	}
	if cfg.PronounDensityCap <= 0 {
		cfg.PronounDensityCap = def.PronounDensityCap
	}
	if cfg.KeywordHitCap <= 0 {
		cfg.KeywordHitCap = def.KeywordHitCap
	}
	if len(cfg.PositiveWords) == 0 {
		cfg.PositiveWords = def.PositiveWords
	}
	if len(cfg.NegativeWords) == 0 {
		cfg.NegativeWords = def.NegativeWords
	}
	if len(cfg.PersonalPronouns) == 0 {
		cfg.PersonalPronouns = def.PersonalPronouns
	}
	if len(cfg.IntimacyCategories) == 0 {
		cfg.IntimacyCategories = def.IntimacyCategories
	}
	if len(cfg.AttachmentCues) == 0 {
		cfg.AttachmentCues = def.AttachmentCues
	}
	if len(cfg.PolitenessMarkers) == 0 {
		cfg.PolitenessMarkers = def.PolitenessMarkers
	}

	return &Analyzer{
		cfg:        cfg,
		positive:   wordSet(cfg.PositiveWords),
		negative:   wordSet(cfg.NegativeWords),
		pronouns:   wordSet(cfg.PersonalPronouns),
		categories: cfg.IntimacyCategories,
	}
}

// Analyze computes the metric vector for one incoming message.
// latencyHours is hours since the counterpart's previous message, 0 for an
// immediate reply, or LatencyUnknown. priorOutgoing is the system's last
// outgoing message, empty when there is none.
func (a *Analyzer) Analyze(text string, latencyHours float64, priorOutgoing string) Vector {
	lower := strings.ToLower(text)
	words := tokenize(lower)

	v := Vector{
		MetricSentiment:      a.sentiment(words),
		MetricMessageLength:  clamp01(float64(len(strings.TrimSpace(text))) / float64(a.cfg.ReferenceLength)),
		MetricInverseLatency: a.inverseLatency(latencyHours),
		MetricQuestionRatio:  questionRatio(text),
		MetricPronounDensity: a.pronounDensity(words),
		MetricIntimacy:       a.intimacy(lower),
		MetricReciprocation:  reciprocation(words, tokenize(strings.ToLower(priorOutgoing))),
		MetricAttachment:     a.keywordHits(lower, a.cfg.AttachmentCues),
		MetricPoliteness:     a.keywordHits(lower, a.cfg.PolitenessMarkers),
	}
	return v
}

// sentiment maps lexicon polarity onto [0,1], 0.5 neutral.
func (a *Analyzer) sentiment(words []string) float64 {
	var pos, neg int
	for _, w := range words {
		if _, ok := a.positive[w]; ok {
			pos++
		}
		if _, ok := a.negative[w]; ok {
			neg++
		}
	}
	if pos+neg == 0 {
		return 0.5
	}
	polarity := float64(pos-neg) / float64(pos+neg)
	return clamp01(0.5 + 0.5*polarity)
}

// inverseLatency: fast replies score high, credit decays linearly to the
// cutoff, and anything past it sits on the floor. Unknown latency is
// scored neutrally.
func (a *Analyzer) inverseLatency(latencyHours float64) float64 {
	if latencyHours == LatencyUnknown {
		return 0.5
	}
	if latencyHours < 0 {
		latencyHours = 0
	}
	return clamp01(1 - latencyHours/a.cfg.LatencyCutoffHours)
}

func (a *Analyzer) pronounDensity(words []string) float64 {
	if len(words) == 0 {
		return 0
	}
	var hits int
	for _, w := range words {
		if _, ok := a.pronouns[w]; ok {
			hits++
		}
	}
	density := float64(hits) / float64(len(words))
	return clamp01(density / a.cfg.PronounDensityCap)
}

// intimacy scores the fraction of configured keyword categories the
// message touches. Touching every category scores 1.
func (a *Analyzer) intimacy(lower string) float64 {
	if len(a.categories) == 0 {
		return 0
	}
	var present int
	for _, keywords := range a.categories {
		for _, kw := range keywords {
			if strings.Contains(lower, kw) {
				present++
				break
			}
		}
	}
	return float64(present) / float64(len(a.categories))
}

func (a *Analyzer) keywordHits(lower string, keywords []string) float64 {
	var hits int
	for _, kw := range keywords {
		hits += strings.Count(lower, kw)
	}
	if hits > a.cfg.KeywordHitCap {
		hits = a.cfg.KeywordHitCap
	}
	return float64(hits) / float64(a.cfg.KeywordHitCap)
}

// reciprocation is the Jaccard overlap between the message's content words
// and the prior outgoing message's. No prior message means no credit.
func reciprocation(words, prior []string) float64 {
	if len(prior) == 0 || len(words) == 0 {
		return 0
	}
	a := wordSet(words)
	b := wordSet(prior)
	var shared int
	for w := range a {
		if _, ok := b[w]; ok {
			shared++
		}
	}
	union := len(a) + len(b) - shared
	if union == 0 {
		return 0
	}
	return float64(shared) / float64(union)
}

// questionRatio is question marks over sentence count, capped at 1.
func questionRatio(text string) float64 {
	questions := strings.Count(text, "?")
	if questions == 0 {
		return 0
	}
	sentences := 0
	for _, r := range text {
		if r == '.' || r == '!' || r == '?' {
			sentences++
		}
	}
	if sentences == 0 {
		sentences = 1
	}
	return clamp01(float64(questions) / float64(sentences))
}

// tokenize splits on anything that isn't a letter or digit. Input is
// expected to be lowercased already.
func tokenize(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// WordCount counts whitespace-separated words, the unit the
// meaningfulness predicate uses.
func WordCount(text string) int {
	return len(strings.Fields(text))
}

func wordSet(words []string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

func clamp01(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}
