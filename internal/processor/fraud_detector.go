package processor

import (
	"fmt"
	"fraud_simulator/internal/domain"
)

const (
	RuleHighAmount     = "high-amount"
	RuleCardNotPresent = "card-not-present"
	RuleBaseline       = "baseline"

	BaseScore      = 10.0
	BlockThreshold = 80.0
)

// ScoringRule adds Weight to the score when Condition matches.
type ScoringRule struct {
	Name      string
	Condition Condition
	Weight    float64
}

func DefaultRules() []ScoringRule {
	return []ScoringRule{
		{
			Name:      RuleHighAmount,
			Condition: Condition{Field: FieldAmount, Operator: ">=", Value: 1000.0},
			Weight:    70,
		},
		{
			Name:      RuleCardNotPresent,
			Condition: Condition{Field: FieldChannel, Operator: "equals_fold", Value: "card-not-present"},
			Weight:    30,
		},
	}
}

// Scorer is a pure, stateless risk policy. Rules are compiled once, so Score
// never fails and is safe for concurrent use.
type Scorer struct {
	rules     []compiledRule
	base      float64
	threshold float64
}

type compiledRule struct {
	name   string
	weight float64
	match  predicate
}

func NewScorer(rules []ScoringRule, base, threshold float64) (*Scorer, error) {
	s := &Scorer{base: base, threshold: threshold}
	for _, r := range rules {
		if r.Name == "" {
			return nil, fmt.Errorf("rule name is required")
		}
		if r.Name == RuleBaseline {
			return nil, fmt.Errorf("rule name %q is reserved", RuleBaseline)
		}
		match, err := compileCondition(r.Condition)
		if err != nil {
			return nil, fmt.Errorf("failed to compile rule %s: %w", r.Name, err)
		}
		s.rules = append(s.rules, compiledRule{name: r.Name, weight: r.Weight, match: match})
	}
	return s, nil
}

// DefaultScorer returns the production policy: base 10, high-amount +70,
// card-not-present +30, block at 80 or above.
func DefaultScorer() *Scorer {
	s, err := NewScorer(DefaultRules(), BaseScore, BlockThreshold)
	if err != nil {
		panic("default scoring rules: " + err.Error())
	}
	return s
}

func (s *Scorer) Score(req domain.TransactionRequest) domain.ScoringResult {
	score := s.base
	rules := make([]string, 0, len(s.rules))

	for _, r := range s.rules {
		if r.match(req) {
			score += r.weight
			rules = append(rules, r.name)
		}
	}

	decision := domain.DecisionAllow
	if score >= s.threshold {
		decision = domain.DecisionBlock
	}
	if len(rules) == 0 {
		rules = append(rules, RuleBaseline)
	}

	return domain.ScoringResult{
		Score:    score,
		Decision: decision,
		Rules:    rules,
	}
}
