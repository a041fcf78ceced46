package quiz

// DefaultSteps is the standard quiz: name, eleven questions, permissions.
func DefaultSteps() []Step {
	return []Step{
		{Key: "name", Kind: KindName, Prompt: "What should your twin be called?"},
		{Key: "gender", Kind: KindChoice, Prompt: "How do you identify?", Options: []Option{
			{Value: "female", Label: "Female"},
			{Value: "male", Label: "Male"},
			{Value: "nonbinary", Label: "Non-binary"},
			{Value: "unspecified", Label: "Prefer not to say"},
		}},
		{Key: "communication", Kind: KindChoice, Prompt: "How do you usually talk with people?", Options: []Option{
			{Value: "casual", Label: "Relaxed and casual", Delta: Delta{Agreeableness: 0.05}, Style: Style{Formality: "casual"}},
			{Value: "formal", Label: "Polite and precise", Delta: Delta{Conscientiousness: 0.1}, Style: Style{Formality: "formal"}},
			{Value: "balanced", Label: "Depends on the situation", Style: Style{Formality: "balanced"}},
		}},
		{Key: "social", Kind: KindChoice, Prompt: "Your ideal Friday night?", Options: []Option{
			{Value: "party", Label: "A big party", Delta: Delta{Extraversion: 0.3}},
			{Value: "friends", Label: "Dinner with a few close friends", Delta: Delta{Extraversion: 0.05, Agreeableness: 0.1}},
			{Value: "alone", Label: "A quiet night in", Delta: Delta{Extraversion: -0.3}},
		}},
		{Key: "planning", Kind: KindChoice, Prompt: "How do you plan a trip?", Options: []Option{
			{Value: "structured", Label: "Detailed itinerary", Delta: Delta{Conscientiousness: 0.3}, Style: Style{Planning: "structured"}},
			{Value: "flexible", Label: "A rough outline", Style: Style{Planning: "flexible"}},
			{Value: "spontaneous", Label: "Book a ticket and see", Delta: Delta{Conscientiousness: -0.3, Openness: 0.1}, Style: Style{Planning: "spontaneous"}},
		}},
		{Key: "stress", Kind: KindChoice, Prompt: "When things get stressful you...", Options: []Option{
			{Value: "calm", Label: "Stay calm and carry on", Delta: Delta{Neuroticism: -0.3}},
			{Value: "talk", Label: "Talk it through with someone", Delta: Delta{Neuroticism: 0.1, Agreeableness: 0.1}},
			{Value: "overthink", Label: "Replay it in your head", Delta: Delta{Neuroticism: 0.3}},
		}},
		{Key: "learning", Kind: KindChoice, Prompt: "How do you learn something new?", Options: []Option{
			{Value: "hands_on", Label: "By doing it", Style: Style{Thinking: "practical"}},
			{Value: "reading", Label: "By reading up first", Delta: Delta{Openness: 0.1}, Style: Style{Thinking: "analytical"}},
			{Value: "experimenting", Label: "By experimenting freely", Delta: Delta{Openness: 0.2, Creativity: 0.2}, Style: Style{Thinking: "creative"}},
		}},
		{Key: "energy", Kind: KindChoice, Prompt: "What recharges you?", Options: []Option{
			{Value: "people", Label: "Being around people", Delta: Delta{Extraversion: 0.2}},
			{Value: "solitude", Label: "Time on my own", Delta: Delta{Extraversion: -0.2}},
			{Value: "mixed", Label: "A bit of both"},
		}},
		{Key: "decisions", Kind: KindChoice, Prompt: "Big decisions are made by...", Options: []Option{
			{Value: "logic", Label: "Weighing pros and cons", Delta: Delta{Conscientiousness: 0.1}, Style: Style{Decision: "logical"}},
			{Value: "feelings", Label: "How it feels", Delta: Delta{Agreeableness: 0.1}, Style: Style{Decision: "emotional"}},
			{Value: "gut", Label: "Gut instinct", Delta: Delta{Openness: 0.1}, Style: Style{Decision: "intuitive"}},
		}},
		{Key: "emotions", Kind: KindChoice, Prompt: "How do you show your feelings?", Options: []Option{
			{Value: "open", Label: "Openly, on my sleeve", Delta: Delta{Extraversion: 0.1}, Style: Style{Expressiveness: "expressive"}},
			{Value: "private", Label: "I keep them to myself", Delta: Delta{Extraversion: -0.1}, Style: Style{Expressiveness: "reserved"}},
			{Value: "selective", Label: "With people I trust", Style: Style{Expressiveness: "balanced"}},
		}},
		{Key: "change", Kind: KindChoice, Prompt: "When plans suddenly change you...", Options: []Option{
			{Value: "embrace", Label: "Love the surprise", Delta: Delta{Openness: 0.3, Creativity: 0.2}},
			{Value: "adapt", Label: "Adapt after a moment", Delta: Delta{Openness: 0.1}},
			{Value: "resist", Label: "Wish things stayed put", Delta: Delta{Openness: -0.3, Conscientiousness: 0.1}},
		}},
		{Key: "outlook", Kind: KindChoice, Prompt: "Your outlook on life?", Options: []Option{
			{Value: "optimist", Label: "Glass half full", Delta: Delta{Optimism: 0.3, Neuroticism: -0.1}, Style: Style{Supportiveness: "supportive"}},
			{Value: "realist", Label: "It is what it is", Style: Style{Supportiveness: "direct"}},
			{Value: "skeptic", Label: "Hope for the best, expect the worst", Delta: Delta{Optimism: -0.3, Neuroticism: 0.1}, Style: Style{Supportiveness: "direct"}},
		}},
		{Key: "permissions", Kind: KindPermissions, Optional: true, Prompt: "Link social accounts so your twin can learn your voice (optional)", Options: []Option{
			{Value: "instagram", Label: "Instagram"},
			{Value: "twitter", Label: "Twitter / X"},
			{Value: "linkedin", Label: "LinkedIn"},
			{Value: "tiktok", Label: "TikTok"},
		}},
	}
}
