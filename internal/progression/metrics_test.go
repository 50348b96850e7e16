package progression

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSentiment(t *testing.T) {
	a := NewAnalyzer(AnalyzerConfig{})

	tests := []struct {
		name string
		text string
		want float64
	}{
		{"neutral when no lexicon hits", "the meeting is at noon", 0.5},
		{"positive", "this is great and wonderful", 1.0},
		{"negative", "what an awful terrible day", 0.0},
		{"mixed leans positive", "a great great day despite the bad news", 0.6667}, // polarity (2-1)/3
		{"empty text is neutral", "", 0.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := a.Analyze(tt.text, 0, "")
			assert.InDelta(t, tt.want, v[MetricSentiment], 0.001)
		})
	}
}

func TestMessageLength(t *testing.T) {
	a := NewAnalyzer(AnalyzerConfig{ReferenceLength: 120})

	v := a.Analyze(strings.Repeat("a", 60), 0, "")
	assert.InDelta(t, 0.5, v[MetricMessageLength], 0.001)

	v = a.Analyze(strings.Repeat("a", 400), 0, "")
	assert.Equal(t, 1.0, v[MetricMessageLength], "length credit caps at 1")

	v = a.Analyze("", 0, "")
	assert.Zero(t, v[MetricMessageLength])
}

func TestInverseLatency(t *testing.T) {
	a := NewAnalyzer(AnalyzerConfig{LatencyCutoffHours: 72})

	tests := []struct {
		name    string
		latency float64
		want    float64
	}{
		{"immediate reply gets full credit", 0, 1.0},
		{"half the cutoff", 36, 0.5},
		{"beyond the cutoff floors at zero, never negative", 100, 0.0},
		{"exactly at the cutoff", 72, 0.0},
		{"unknown latency is neutral", LatencyUnknown, 0.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := a.Analyze("hello there friend", tt.latency, "")
			assert.InDelta(t, tt.want, v[MetricInverseLatency], 0.001)
		})
	}
}

func TestQuestionRatio(t *testing.T) {
	a := NewAnalyzer(AnalyzerConfig{})

	tests := []struct {
		name string
		text string
		want float64
	}{
		{"no questions", "i had lunch today.", 0},
		{"one of two sentences", "how are you? i am fine.", 0.5},
		{"all questions", "really? truly?", 1.0},
		{"question without terminator elsewhere", "coffee?", 1.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := a.Analyze(tt.text, 0, "")
			assert.InDelta(t, tt.want, v[MetricQuestionRatio], 0.001)
		})
	}
}

func TestPronounDensity(t *testing.T) {
	a := NewAnalyzer(AnalyzerConfig{PronounDensityCap: 0.2})

	// 1 pronoun in 9 words: density 0.111 against a 0.2 cap.
	v := a.Analyze("you should visit the museum tomorrow because the weather", 0, "")
	assert.InDelta(t, 0.5556, v[MetricPronounDensity], 0.001)

	// Heavily personal text saturates.
	v = a.Analyze("i love you", 0, "")
	assert.Equal(t, 1.0, v[MetricPronounDensity])
}

func TestIntimacyCategories(t *testing.T) {
	a := NewAnalyzer(AnalyzerConfig{})

	v := a.Analyze("my family is everything to me", 0, "")
	assert.InDelta(t, 0.25, v[MetricIntimacy], 0.001, "one of four categories")

	v = a.Analyze("my family fears what the future holds", 0, "")
	assert.InDelta(t, 0.75, v[MetricIntimacy], 0.001, "family, fears and future categories")

	v = a.Analyze("nothing personal here", 0, "")
	assert.Zero(t, v[MetricIntimacy])
}

func TestReciprocation(t *testing.T) {
	a := NewAnalyzer(AnalyzerConfig{})

	t.Run("no prior outgoing message", func(t *testing.T) {
		v := a.Analyze("coffee tomorrow sounds lovely", 0, "")
		assert.Zero(t, v[MetricReciprocation])
	})

	t.Run("full overlap", func(t *testing.T) {
		v := a.Analyze("coffee tomorrow", 0, "coffee tomorrow")
		assert.Equal(t, 1.0, v[MetricReciprocation])
	})

	t.Run("partial overlap", func(t *testing.T) {
		// {coffee,tomorrow,sounds,lovely} vs {coffee,tomorrow}: 2 shared, union 4.
		v := a.Analyze("coffee tomorrow sounds lovely", 0, "coffee tomorrow")
		assert.InDelta(t, 0.5, v[MetricReciprocation], 0.001)
	})
}

func TestKeywordHitCaps(t *testing.T) {
	a := NewAnalyzer(AnalyzerConfig{KeywordHitCap: 3})

	v := a.Analyze("please please please please", 0, "")
	assert.Equal(t, 1.0, v[MetricPoliteness], "hits cap at the configured maximum")

	v = a.Analyze("i miss you so much, i really miss you", 0, "")
	assert.InDelta(t, 2.0/3, v[MetricAttachment], 0.001)
}

func TestEmptyTextScoresMinimally(t *testing.T) {
	a := NewAnalyzer(AnalyzerConfig{})
	v := a.Analyze("", 0, "previous message from us")

	require.NotNil(t, v)
	assert.Equal(t, 0.5, v[MetricSentiment], "sentiment is neutral, not zero")
	assert.Zero(t, v[MetricMessageLength])
	assert.Zero(t, v[MetricQuestionRatio])
	assert.Zero(t, v[MetricPronounDensity])
	assert.Zero(t, v[MetricIntimacy])
	assert.Zero(t, v[MetricReciprocation])
	assert.Zero(t, v[MetricAttachment])
	assert.Zero(t, v[MetricPoliteness])
}

func TestUnicodeTextDoesNotPanic(t *testing.T) {
	a := NewAnalyzer(AnalyzerConfig{})
	assert.NotPanics(t, func() {
		a.Analyze("σ'αγαπώ πολύ ❤️ 你好", 0.5, "皆さん、こんにちは")
	})
}

func TestWordCount(t *testing.T) {
	assert.Equal(t, 0, WordCount(""))
	assert.Equal(t, 1, WordCount("hi"))
	assert.Equal(t, 5, WordCount("this has exactly five words"))
	assert.Equal(t, 2, WordCount("  spaced   out  "))
}
