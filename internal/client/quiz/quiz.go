// Package quiz is the personality quiz behind twin creation: a name step, a
// run of single-choice questions and an optional permissions step. Answers
// map deterministically onto a personality profile.
package quiz

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/tbourn/echome-x/internal/client"
	"github.com/tbourn/echome-x/internal/persona"
)

var (
	ErrAnswerRequired = errors.New("quiz: an answer is required")
	ErrInvalidAnswer  = errors.New("quiz: answer is not one of the options")
	ErrNotDone        = errors.New("quiz: not finished")
)

// Kind tells the front end how to render a step.
type Kind int

const (
	KindName Kind = iota
	KindChoice
	KindPermissions
)

// Delta nudges the profile away from the neutral 0.5 baseline.
type Delta struct {
	Extraversion, Openness, Conscientiousness, Agreeableness, Neuroticism float64
	Optimism, Creativity                                                  float64
}

// Style sets categorical style fields. Empty fields leave earlier answers alone.
type Style struct {
	Formality, Expressiveness, Supportiveness string
	Thinking, Decision, Planning              string
}

// Option is one selectable answer.
type Option struct {
	Value string
	Label string
	Delta Delta
	Style Style
}

// Step is one screen of the wizard. Key names the answer in the profile
// summary ("communication", "outlook", ...).
type Step struct {
	Key      string
	Kind     Kind
	Prompt   string
	Options  []Option
	Optional bool
}

// Wizard walks the steps in order. Answers survive Back.
type Wizard struct {
	steps   []Step
	cur     int
	answers map[int]string
	done    bool
}

// New returns a wizard over the default question set.
func New() *Wizard { return NewWithSteps(DefaultSteps()) }

// NewWithSteps returns a wizard over steps.
func NewWithSteps(steps []Step) *Wizard {
	return &Wizard{steps: steps, answers: make(map[int]string)}
}

func (w *Wizard) Len() int      { return len(w.steps) }
func (w *Wizard) Index() int    { return w.cur }
func (w *Wizard) Current() Step { return w.steps[w.cur] }
func (w *Wizard) Done() bool    { return w.done }

// Answer records v for the current step after validating it. Replacing an
// earlier answer is allowed.
func (w *Wizard) Answer(v string) error {
	if w.done {
		return ErrNotDone
	}
	v = strings.TrimSpace(v)
	st := w.steps[w.cur]
	if v == "" {
		if st.Optional {
			w.answers[w.cur] = ""
			return nil
		}
		return ErrAnswerRequired
	}
	if err := validate(st, v); err != nil {
		return err
	}
	w.answers[w.cur] = v
	return nil
}

// Answered returns the stored answer for step i.
func (w *Wizard) Answered(i int) (string, bool) {
	v, ok := w.answers[i]
	return v, ok
}

// Next advances past the current step. Required steps need a stored answer.
// Advancing past the last step finishes the wizard.
func (w *Wizard) Next() error {
	if w.done {
		return nil
	}
	st := w.steps[w.cur]
	if v, ok := w.answers[w.cur]; (!ok || v == "") && !st.Optional {
		return ErrAnswerRequired
	}
	if w.cur == len(w.steps)-1 {
		w.done = true
		return nil
	}
	w.cur++
	return nil
}

// Back moves one step back. It reports false on the first step.
func (w *Wizard) Back() bool {
	if w.done {
		w.done = false
		return true
	}
	if w.cur == 0 {
		return false
	}
	w.cur--
	return true
}

// Answers returns a copy of the answers keyed by step index.
func (w *Wizard) Answers() map[int]string {
	out := make(map[int]string, len(w.answers))
	for k, v := range w.answers {
		out[k] = v
	}
	return out
}

// Permissions returns the accounts granted on the permissions step.
func (w *Wizard) Permissions() []string {
	for i, st := range w.steps {
		if st.Kind == KindPermissions {
			return splitList(w.answers[i])
		}
	}
	return nil
}

// Request maps the answers onto a personality twin request. Each trait
// starts at 0.5, adds the deltas of the chosen options in step order and is
// clamped to [0,1]. Style fields take the last non-empty value and default
// to "balanced".
func (w *Wizard) Request() (client.TwinRequest, error) {
	if !w.done {
		return client.TwinRequest{}, ErrNotDone
	}
	var (
		name  string
		sum   Delta
		style = Style{
			Formality: "balanced", Expressiveness: "balanced", Supportiveness: "balanced",
			Thinking: "balanced", Decision: "balanced", Planning: "balanced",
		}
	)
	for i, st := range w.steps {
		v := w.answers[i]
		switch st.Kind {
		case KindName:
			if name == "" {
				name = v
			}
		case KindChoice:
			opt, ok := findOption(st, v)
			if !ok {
				continue
			}
			sum = sum.add(opt.Delta)
			style = style.merge(opt.Style)
		}
	}

	optimism := level(sum.Optimism)
	creativity := level(sum.Creativity)
	return client.TwinRequest{
		Name: name,
		BigFiveTraits: &persona.BigFive{
			Extraversion:      level(sum.Extraversion),
			Openness:          level(sum.Openness),
			Conscientiousness: level(sum.Conscientiousness),
			Agreeableness:     level(sum.Agreeableness),
			Neuroticism:       level(sum.Neuroticism),
		},
		CommunicationStyle: &persona.CommunicationStyle{
			Formality:      style.Formality,
			Expressiveness: style.Expressiveness,
			Supportiveness: style.Supportiveness,
			Optimism:       &optimism,
		},
		CognitiveStyle: &persona.CognitiveStyle{
			ThinkingPreference: style.Thinking,
			DecisionMaking:     style.Decision,
			PlanningApproach:   style.Planning,
			CreativityLevel:    &creativity,
		},
	}, nil
}

func validate(st Step, v string) error {
	switch st.Kind {
	case KindName:
		if n := utf8.RuneCountInString(v); n > 50 {
			return fmt.Errorf("%w: name must be at most 50 characters", ErrInvalidAnswer)
		}
	case KindChoice:
		if _, ok := findOption(st, v); !ok {
			return ErrInvalidAnswer
		}
	case KindPermissions:
		for _, p := range splitList(v) {
			if _, ok := findOption(st, p); !ok {
				return fmt.Errorf("%w: %q", ErrInvalidAnswer, p)
			}
		}
	}
	return nil
}

func findOption(st Step, v string) (Option, bool) {
	i := slices.IndexFunc(st.Options, func(o Option) bool { return strings.EqualFold(o.Value, v) })
	if i < 0 {
		return Option{}, false
	}
	return st.Options[i], true
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.ToLower(strings.TrimSpace(p)); p != "" && !slices.Contains(out, p) {
			out = append(out, p)
		}
	}
	return out
}

func (d Delta) add(o Delta) Delta {
	return Delta{
		Extraversion:      d.Extraversion + o.Extraversion,
		Openness:          d.Openness + o.Openness,
		Conscientiousness: d.Conscientiousness + o.Conscientiousness,
		Agreeableness:     d.Agreeableness + o.Agreeableness,
		Neuroticism:       d.Neuroticism + o.Neuroticism,
		Optimism:          d.Optimism + o.Optimism,
		Creativity:        d.Creativity + o.Creativity,
	}
}

func (s Style) merge(o Style) Style {
	pick := func(old, v string) string {
		if v != "" {
			return v
		}
		return old
	}
	return Style{
		Formality:      pick(s.Formality, o.Formality),
		Expressiveness: pick(s.Expressiveness, o.Expressiveness),
		Supportiveness: pick(s.Supportiveness, o.Supportiveness),
		Thinking:       pick(s.Thinking, o.Thinking),
		Decision:       pick(s.Decision, o.Decision),
		Planning:       pick(s.Planning, o.Planning),
	}
}

// level turns an accumulated delta into a score rounded to two decimals.
func level(delta float64) float64 {
	v := 0.5 + delta
	switch {
	case v < 0:
		v = 0
	case v > 1:
		v = 1
	}
	return float64(int(v*100+0.5)) / 100
}
