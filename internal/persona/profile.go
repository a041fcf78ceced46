// Package persona turns personality-quiz answers into the natural-language
// persona text used as a twin's system prompt.
//
// Everything in this package is pure and deterministic: the same profile and
// name always produce the same text. Range and enum checks live in
// Profile.Validate so callers can reject bad input before building.
package persona

import (
	"fmt"
	"math"
	"strings"
)

// BigFive holds five-factor personality scores, each in [0,1].
type BigFive struct {
	Extraversion      float64 `json:"extraversion"`
	Openness          float64 `json:"openness"`
	Conscientiousness float64 `json:"conscientiousness"`
	Agreeableness     float64 `json:"agreeableness"`
	Neuroticism       float64 `json:"neuroticism"`
}

// CommunicationStyle describes how the twin talks. Empty fields are omitted
// from the generated persona.
type CommunicationStyle struct {
	Formality      string   `json:"formality,omitempty"`
	Expressiveness string   `json:"expressiveness,omitempty"`
	Supportiveness string   `json:"supportiveness,omitempty"`
	Optimism       *float64 `json:"optimism,omitempty"`
}

// CognitiveStyle describes how the twin thinks and decides.
type CognitiveStyle struct {
	ThinkingPreference string   `json:"thinking_preference,omitempty"`
	DecisionMaking     string   `json:"decision_making,omitempty"`
	PlanningApproach   string   `json:"planning_approach,omitempty"`
	CreativityLevel    *float64 `json:"creativity_level,omitempty"`
}

// Profile is the structured result of the personality quiz.
type Profile struct {
	BigFive       BigFive            `json:"bigFiveTraits"`
	Communication CommunicationStyle `json:"communicationStyle"`
	Cognitive     CognitiveStyle     `json:"cognitiveStyle"`
}

// Allowed enum values per style field. The empty string is always accepted.
var (
	formalityValues      = []string{"casual", "formal", "balanced"}
	expressivenessValues = []string{"expressive", "reserved", "balanced"}
	supportivenessValues = []string{"supportive", "direct", "balanced"}
	thinkingValues       = []string{"analytical", "creative", "practical", "balanced"}
	decisionValues       = []string{"logical", "emotional", "intuitive", "balanced"}
	planningValues       = []string{"structured", "flexible", "spontaneous", "balanced"}
)

// FieldError names the offending profile field.
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string { return e.Field + ": " + e.Message }

// Validate checks score ranges and enum membership.
func (p Profile) Validate() error {
	scores := []struct {
		field string
		v     float64
	}{
		{"bigFiveTraits.extraversion", p.BigFive.Extraversion},
		{"bigFiveTraits.openness", p.BigFive.Openness},
		{"bigFiveTraits.conscientiousness", p.BigFive.Conscientiousness},
		{"bigFiveTraits.agreeableness", p.BigFive.Agreeableness},
		{"bigFiveTraits.neuroticism", p.BigFive.Neuroticism},
	}
	if p.Communication.Optimism != nil {
		scores = append(scores, struct {
			field string
			v     float64
		}{"communicationStyle.optimism", *p.Communication.Optimism})
	}
	if p.Cognitive.CreativityLevel != nil {
		scores = append(scores, struct {
			field string
			v     float64
		}{"cognitiveStyle.creativity_level", *p.Cognitive.CreativityLevel})
	}
	for _, s := range scores {
		if math.IsNaN(s.v) || s.v < 0 || s.v > 1 {
			return &FieldError{Field: s.field, Message: "must be between 0 and 1"}
		}
	}

	enums := []struct {
		field   string
		v       string
		allowed []string
	}{
		{"communicationStyle.formality", p.Communication.Formality, formalityValues},
		{"communicationStyle.expressiveness", p.Communication.Expressiveness, expressivenessValues},
		{"communicationStyle.supportiveness", p.Communication.Supportiveness, supportivenessValues},
		{"cognitiveStyle.thinking_preference", p.Cognitive.ThinkingPreference, thinkingValues},
		{"cognitiveStyle.decision_making", p.Cognitive.DecisionMaking, decisionValues},
		{"cognitiveStyle.planning_approach", p.Cognitive.PlanningApproach, planningValues},
	}
	for _, e := range enums {
		if e.v == "" {
			continue
		}
		if !contains(e.allowed, strings.ToLower(e.v)) {
			return &FieldError{
				Field:   e.field,
				Message: fmt.Sprintf("must be one of: %s", strings.Join(e.allowed, ", ")),
			}
		}
	}
	return nil
}

func contains(vals []string, v string) bool {
	for _, x := range vals {
		if x == v {
			return true
		}
	}
	return false
}
