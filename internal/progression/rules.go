package progression

import (
	"fmt"
	"strings"
)

// Rule is one condition in a stage's exit rule set. The set of
// implementations is closed: ScoreThreshold, CountThreshold, FlagEquals,
// KeywordPresence, and CounterThreshold. Evaluation is an exhaustive type
// switch, so an unrecognized rule is a construction-time error rather than
// a condition that silently evaluates false.
type Rule interface {
	rule()
}

// ScoreThreshold requires an aggregate axis to reach a minimum.
type ScoreThreshold struct {
	Axis Axis
	Min  float64
}

// CountThreshold requires the consecutive-meaningful-message counter to
// reach a minimum.
type CountThreshold struct {
	Min int
}

// FlagEquals requires a named boolean flag to hold a specific value.
// Unset flags read as false.
type FlagEquals struct {
	Name  string
	Value bool
}

// KeywordPresence requires the latest incoming message to contain any of
// the keywords (case-insensitive substring match).
type KeywordPresence struct {
	Keywords []string
}

// CounterThreshold requires a named numeric flag to reach a minimum.
// Unset counters read as 0.
type CounterThreshold struct {
	Name string
	Min  float64
}

func (ScoreThreshold) rule()   {}
func (CountThreshold) rule()   {}
func (FlagEquals) rule()       {}
func (KeywordPresence) rule()  {}
func (CounterThreshold) rule() {}

// RuleSet is a conjunction: every rule must hold for the transition to
// fire.
type RuleSet []Rule

// evalInput is the state snapshot rules are evaluated against.
type evalInput struct {
	scores      AggregateScore
	consecutive int
	flags       map[string]FlagValue
	latestText  string // lowercased latest incoming message
}

// Satisfied reports whether every rule in the set holds.
func (rs RuleSet) Satisfied(in evalInput) bool {
	for _, r := range rs {
		if !evaluate(r, in) {
			return false
		}
	}
	return true
}

func evaluate(r Rule, in evalInput) bool {
	switch r := r.(type) {
	case ScoreThreshold:
		switch r.Axis {
		case AxisTrust:
			return in.scores.Trust >= r.Min
		case AxisOpenness:
			return in.scores.Openness >= r.Min
		default:
			return false
		}
	case CountThreshold:
		return in.consecutive >= r.Min
	case FlagEquals:
		return in.flags[r.Name].AsBool() == r.Value
	case KeywordPresence:
		for _, kw := range r.Keywords {
			if kw != "" && strings.Contains(in.latestText, strings.ToLower(kw)) {
				return true
			}
		}
		return false
	case CounterThreshold:
		return in.flags[r.Name].AsNumber() >= r.Min
	default:
		// The rule set is closed; reaching this means a new variant was
		// added without extending the evaluator.
		panic(fmt.Sprintf("progression: unknown rule type %T", r))
	}
}

// RuleSpec is the serialized form of a rule as it appears in config files.
// Compile turns it into the typed variant; unknown kinds are rejected.
type RuleSpec struct {
	Kind     string   `koanf:"kind" json:"kind"`
	Axis     string   `koanf:"axis" json:"axis,omitempty"`
	Min      float64  `koanf:"min" json:"min,omitempty"`
	Flag     string   `koanf:"flag" json:"flag,omitempty"`
	Equals   bool     `koanf:"equals" json:"equals,omitempty"`
	Keywords []string `koanf:"keywords" json:"keywords,omitempty"`
}

// Rule spec kinds.
const (
	RuleKindScore   = "score"
	RuleKindCount   = "consecutive"
	RuleKindFlag    = "flag"
	RuleKindKeyword = "keyword"
	RuleKindCounter = "counter"
)

// Compile converts a spec into its typed rule.
func (s RuleSpec) Compile() (Rule, error) {
	switch s.Kind {
	case RuleKindScore:
		axis := Axis(s.Axis)
		if axis != AxisTrust && axis != AxisOpenness {
			return nil, fmt.Errorf("score rule: unknown axis %q", s.Axis)
		}
		return ScoreThreshold{Axis: axis, Min: s.Min}, nil
	case RuleKindCount:
		return CountThreshold{Min: int(s.Min)}, nil
	case RuleKindFlag:
		if s.Flag == "" {
			return nil, fmt.Errorf("flag rule: missing flag name")
		}
		return FlagEquals{Name: s.Flag, Value: s.Equals}, nil
	case RuleKindKeyword:
		if len(s.Keywords) == 0 {
			return nil, fmt.Errorf("keyword rule: empty keyword set")
		}
		return KeywordPresence{Keywords: s.Keywords}, nil
	case RuleKindCounter:
		if s.Flag == "" {
			return nil, fmt.Errorf("counter rule: missing counter name")
		}
		return CounterThreshold{Name: s.Flag, Min: s.Min}, nil
	default:
		return nil, fmt.Errorf("unknown rule kind %q", s.Kind)
	}
}

// CompileRuleSets compiles per-stage rule specs and verifies every
// non-terminal stage has an exit rule set.
func CompileRuleSets(specs map[Stage][]RuleSpec) (map[Stage]RuleSet, error) {
	compiled := make(map[Stage]RuleSet, len(specs))
	for stage, list := range specs {
		if !stage.IsValid() {
			return nil, fmt.Errorf("rule set for unknown stage %q", stage)
		}
		set := make(RuleSet, 0, len(list))
		for i, spec := range list {
			r, err := spec.Compile()
			if err != nil {
				return nil, fmt.Errorf("stage %s rule %d: %w", stage, i, err)
			}
			set = append(set, r)
		}
		compiled[stage] = set
	}
	for _, stage := range AllStages() {
		if stage.IsTerminal() {
			continue
		}
		if len(compiled[stage]) == 0 {
			return nil, fmt.Errorf("no exit rules defined for stage %s", stage)
		}
	}
	return compiled, nil
}
