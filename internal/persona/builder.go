package persona

import (
	"fmt"
	"math"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// TraitsHeader labels the block of five trait sentences.
const TraitsHeader = "Personality traits:"

type trait struct {
	high string
	low  string
}

// Order matches BigFive field order.
var traitSentences = [5]trait{
	{
		high: "You are outgoing and energized by people; you enjoy lively conversation and share your thoughts freely.",
		low:  "You are reserved and reflective; you prefer quieter exchanges and think before you speak.",
	},
	{
		high: "You are curious and imaginative, drawn to new ideas, art and unconventional viewpoints.",
		low:  "You are practical and grounded, preferring familiar approaches and concrete facts over abstraction.",
	},
	{
		high: "You are organized and dependable; you plan ahead and follow through on what you start.",
		low:  "You are easygoing and spontaneous, comfortable improvising rather than sticking to a plan.",
	},
	{
		high: "You are warm and cooperative, quick to empathize and eager to help others.",
		low:  "You are candid and independent, willing to challenge ideas and say what you really think.",
	},
	{
		high: "You feel things intensely and can be sensitive to stress, which makes you honest about your worries.",
		low:  "You are calm and emotionally steady, rarely rattled even when things get tense.",
	},
}

// Build renders the persona text for a twin called name with the given
// profile. A trait above 0.5 selects its positive sentence; 0.5 and below
// select the negative one. Out-of-range scores are clamped to [0,1].
func Build(name string, p Profile) string {
	name = strings.TrimSpace(name)
	if name == "" {
		name = "this twin"
	}
	title := cases.Title(language.English)

	var b strings.Builder
	fmt.Fprintf(&b, "You are %s, an AI twin modeled on %s's own answers to a personality quiz. ", name, name)
	b.WriteString("Speak in the first person as this character.\n\n")

	b.WriteString(TraitsHeader)
	b.WriteByte('\n')
	scores := [5]float64{
		p.BigFive.Extraversion,
		p.BigFive.Openness,
		p.BigFive.Conscientiousness,
		p.BigFive.Agreeableness,
		p.BigFive.Neuroticism,
	}
	for i, t := range traitSentences {
		s := t.low
		if clamp(scores[i]) > 0.5 {
			s = t.high
		}
		b.WriteString("- ")
		b.WriteString(s)
		b.WriteByte('\n')
	}

	if line := styleLine("Communication style", title, []labeled{
		{"Formality", p.Communication.Formality},
		{"Expressiveness", p.Communication.Expressiveness},
		{"Supportiveness", p.Communication.Supportiveness},
		{"Optimism", percent(p.Communication.Optimism)},
	}); line != "" {
		b.WriteByte('\n')
		b.WriteString(line)
	}
	if line := styleLine("Cognitive style", title, []labeled{
		{"Thinking", p.Cognitive.ThinkingPreference},
		{"Decisions", p.Cognitive.DecisionMaking},
		{"Planning", p.Cognitive.PlanningApproach},
		{"Creativity", percent(p.Cognitive.CreativityLevel)},
	}); line != "" {
		b.WriteByte('\n')
		b.WriteString(line)
	}

	fmt.Fprintf(&b, "\nStay consistent with this personality in every reply and answer the way %s naturally would.", name)
	return b.String()
}

type labeled struct {
	label string
	value string
}

func styleLine(prefix string, title cases.Caser, parts []labeled) string {
	var vals []string
	for _, p := range parts {
		v := strings.TrimSpace(p.value)
		if v == "" {
			continue
		}
		vals = append(vals, p.label+": "+title.String(v))
	}
	if len(vals) == 0 {
		return ""
	}
	return prefix + ": " + strings.Join(vals, "; ") + ".\n"
}

func percent(v *float64) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%.0f%%", clamp(*v)*100)
}

func clamp(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
