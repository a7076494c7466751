package answer

import (
	"math"
	"strconv"
	"strings"
)

// Key is the minimal view of a question the grader needs.
type Key struct {
	Type       string // free_text, choice, numeric
	Answer     string
	Alternates []string
}

// Verdict is the outcome of grading one submission.
type Verdict struct {
	Correct bool    `json:"correct"`
	Score   float64 `json:"score"`
	Method  string  `json:"method"` // exact|alternate|fuzzy|choice|numeric|none
}

// Strategy grades a single submission against a key.
type Strategy interface {
	Grade(k Key, submitted string) Verdict
}

// Grader routes by question type to the right Strategy. Unknown types fall back
// to free-text matching.
type Grader struct {
	strategies map[string]Strategy
}

type Option func(*graderConfig)

type graderConfig struct {
	threshold float64
}

// WithThreshold overrides the fuzzy-acceptance threshold.
func WithThreshold(t float64) Option { return func(c *graderConfig) { c.threshold = t } }

func NewGrader(opts ...Option) *Grader {
	cfg := &graderConfig{threshold: Threshold}
	for _, o := range opts {
		o(cfg)
	}
	return &Grader{strategies: map[string]Strategy{
		"free_text": freeTextStrategy{threshold: cfg.threshold},
		"choice":    choiceStrategy{},
		"numeric":   numericStrategy{},
	}}
}

func (g *Grader) Grade(k Key, submitted string) Verdict {
	s, ok := g.strategies[k.Type]
	if !ok {
		s = g.strategies["free_text"]
	}
	return s.Grade(k, submitted)
}

type freeTextStrategy struct{ threshold float64 }

func (s freeTextStrategy) Grade(k Key, submitted string) Verdict {
	sub := Normalize(submitted)
	want := Normalize(k.Answer)
	if sub == want {
		return Verdict{Correct: true, Score: 1.0, Method: "exact"}
	}
	for _, alt := range k.Alternates {
		if sub == Normalize(alt) {
			return Verdict{Correct: true, Score: 1.0, Method: "alternate"}
		}
	}
	score := Similarity(sub, want)
	if score >= s.threshold {
		return Verdict{Correct: true, Score: score, Method: "fuzzy"}
	}
	return Verdict{Score: score, Method: "none"}
}

// choiceStrategy accepts only an exact normalized match against the key or an
// alternate. Used for multiple-choice labels, where near-misses mean a different
// option.
type choiceStrategy struct{}

func (choiceStrategy) Grade(k Key, submitted string) Verdict {
	sub := Normalize(submitted)
	if sub != "" && sub == Normalize(k.Answer) {
		return Verdict{Correct: true, Score: 1.0, Method: "choice"}
	}
	for _, alt := range k.Alternates {
		if sub != "" && sub == Normalize(alt) {
			return Verdict{Correct: true, Score: 1.0, Method: "choice"}
		}
	}
	return Verdict{Method: "none"}
}

// numericStrategy compares parsed values so "3.0" matches "3". An optional
// alternate of the form "tol=0.01" allows an absolute tolerance.
type numericStrategy struct{}

func (numericStrategy) Grade(k Key, submitted string) Verdict {
	if submitted == k.Answer {
		return Verdict{Correct: true, Score: 1.0, Method: "numeric"}
	}
	sv, sOK := parseFloatLoose(submitted)
	tv, tOK := parseFloatLoose(k.Answer)
	if !sOK || !tOK {
		return Verdict{Method: "none"}
	}
	tol := 0.0
	for _, alt := range k.Alternates {
		a := strings.TrimSpace(strings.ToLower(alt))
		if strings.HasPrefix(a, "tol=") {
			if v, err := strconv.ParseFloat(strings.TrimPrefix(a, "tol="), 64); err == nil {
				tol = v
			}
		}
	}
	if math.Abs(sv-tv) <= tol {
		return Verdict{Correct: true, Score: 1.0, Method: "numeric"}
	}
	return Verdict{Method: "none"}
}

func parseFloatLoose(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return v, true
	}
	if sp := strings.Fields(s); len(sp) > 0 {
		if v, err := strconv.ParseFloat(sp[0], 64); err == nil {
			return v, true
		}
	}
	return 0, false
}
