package progression

import "fmt"

// Config is everything the controller needs: window size, axis weights,
// analyzer lexicons, the meaningfulness threshold, and per-stage exit rule
// specs. It is plain data; the controller compiles it at construction.
type Config struct {
	WindowSize         int                  `koanf:"window_size"`
	MeaningfulMinWords int                  `koanf:"meaningful_min_words"`
	TrustWeights       AxisWeights          `koanf:"trust_weights"`
	OpennessWeights    AxisWeights          `koanf:"openness_weights"`
	Analyzer           AnalyzerConfig       `koanf:"analyzer"`
	StageRules         map[Stage][]RuleSpec `koanf:"stage_rules"`
}

// Validate checks the parts of the config the controller cannot repair
// with defaults: the rule specs must compile and every non-terminal stage
// needs an exit rule set.
func (c Config) Validate() error {
	if c.WindowSize < 0 {
		return fmt.Errorf("window_size must be positive, got %d", c.WindowSize)
	}
	if c.MeaningfulMinWords < 0 {
		return fmt.Errorf("meaningful_min_words must be positive, got %d", c.MeaningfulMinWords)
	}
	if _, err := CompileRuleSets(c.StageRules); err != nil {
		return err
	}
	return nil
}

// DefaultMeaningfulMinWords is the word count a message must exceed to
// count as meaningful.
const DefaultMeaningfulMinWords = 4

// DefaultConfig is the built-in fallback used when no external
// configuration source is available. The weights are a starting point,
// tunable via the config file.
func DefaultConfig() Config {
	return Config{
		WindowSize:         DefaultWindowSize,
		MeaningfulMinWords: DefaultMeaningfulMinWords,
		TrustWeights: AxisWeights{
			MetricSentiment:      0.25,
			MetricMessageLength:  0.10,
			MetricInverseLatency: 0.25,
			MetricReciprocation:  0.15,
			MetricPoliteness:     0.15,
			MetricAttachment:     0.10,
		},
		OpennessWeights: AxisWeights{
			MetricQuestionRatio:  0.15,
			MetricPronounDensity: 0.25,
			MetricIntimacy:       0.30,
			MetricSentiment:      0.15,
			MetricMessageLength:  0.15,
		},
		Analyzer: DefaultAnalyzerConfig(),
		StageRules: map[Stage][]RuleSpec{
			StageInitial: {
				{Kind: RuleKindScore, Axis: string(AxisTrust), Min: 60},
				{Kind: RuleKindScore, Axis: string(AxisOpenness), Min: 40},
				{Kind: RuleKindCount, Min: 3},
			},
			StageBuilding: {
				{Kind: RuleKindScore, Axis: string(AxisTrust), Min: 75},
				{Kind: RuleKindScore, Axis: string(AxisOpenness), Min: 60},
				{Kind: RuleKindFlag, Flag: "answered_fears", Equals: true},
			},
			StageCommitted: {
				{Kind: RuleKindScore, Axis: string(AxisTrust), Min: 85},
				{Kind: RuleKindKeyword, Keywords: []string{"together", "future", "promise"}},
				{Kind: RuleKindCounter, Flag: "romantic_cue_count", Min: 3},
			},
		},
	}
}

// DefaultAnalyzerConfig returns the built-in lexicons and normalization
// constants.
func DefaultAnalyzerConfig() AnalyzerConfig {
	return AnalyzerConfig{
		ReferenceLength:    120,
		LatencyCutoffHours: 72,
		PronounDensityCap:  0.2,
		KeywordHitCap:      3,
		PositiveWords: []string{
			"love", "great", "wonderful", "happy", "glad", "amazing", "good",
			"nice", "sweet", "beautiful", "excited", "fun", "enjoy", "care",
			"best", "lovely", "perfect", "thanks", "thank",
		},
		NegativeWords: []string{
			"hate", "bad", "terrible", "awful", "sad", "angry", "annoyed",
			"boring", "worst", "upset", "tired", "lonely", "afraid", "worried",
		},
		PersonalPronouns: []string{
			"i", "me", "my", "mine", "you", "your", "yours", "we", "us", "our",
		},
		IntimacyCategories: map[string][]string{
			"family":    {"family", "mother", "father", "sister", "brother", "parents"},
			"fears":     {"fear", "afraid", "scared", "worry", "worried"},
			"future":    {"future", "someday", "dream", "plan", "hope"},
			"affection": {"miss you", "thinking of you", "close to you", "dear"},
		},
		AttachmentCues: []string{
			"miss you", "can't stop thinking", "need you", "only you",
			"thinking about you", "wish you were",
		},
		PolitenessMarkers: []string{
			"please", "thank", "sorry", "appreciate", "grateful",
		},
	}
}
