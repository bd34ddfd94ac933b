package ranking

// RankingConfig holds the point values, tier thresholds, and page sizes used by the Ranker.
// Zero values are replaced by defaults, so an empty config reproduces the documented scoring.
type RankingConfig struct {
	// Name scoring
	ExactNameScore     int `yaml:"exact_name_score"`     // default: 100
	NameSubstringScore int `yaml:"name_substring_score"` // default: 50
	WordExactScore     int `yaml:"word_exact_score"`     // default: 30
	WordPartialScore   int `yaml:"word_partial_score"`   // default: 15

	// Description scoring
	DescriptionScore int `yaml:"description_score"` // default: 10

	// Typo tolerance: adds FuzzyBaseScore - distance*FuzzyStepPenalty when distance <= FuzzyMaxDistance
	FuzzyMaxDistance int `yaml:"fuzzy_max_distance"` // default: 2
	FuzzyBaseScore   int `yaml:"fuzzy_base_score"`   // default: 30
	FuzzyStepPenalty int `yaml:"fuzzy_step_penalty"` // default: 10

	// Tier thresholds
	ExactThreshold   int `yaml:"exact_threshold"`   // default: 100
	PartialThreshold int `yaml:"partial_threshold"` // default: 30

	// Page sizes
	ResultLimit     int `yaml:"result_limit"`     // default: 6
	SuggestionLimit int `yaml:"suggestion_limit"` // default: 5
}

// DefaultRankingConfig returns the default ranking configuration.
func DefaultRankingConfig() *RankingConfig {
	return &RankingConfig{
		ExactNameScore:     100,
		NameSubstringScore: 50,
		WordExactScore:     30,
		WordPartialScore:   15,

		DescriptionScore: 10,

		FuzzyMaxDistance: 2,
		FuzzyBaseScore:   30,
		FuzzyStepPenalty: 10,

		ExactThreshold:   100,
		PartialThreshold: 30,

		ResultLimit:     6,
		SuggestionLimit: 5,
	}
}

// ApplyDefaults fills in zero values with defaults.
func (c *RankingConfig) ApplyDefaults() {
	defaults := DefaultRankingConfig()

	if c.ExactNameScore == 0 {
		c.ExactNameScore = defaults.ExactNameScore
	}
	if c.NameSubstringScore == 0 {
		c.NameSubstringScore = defaults.NameSubstringScore
	}
	if c.WordExactScore == 0 {
		c.WordExactScore = defaults.WordExactScore
	}
	if c.WordPartialScore == 0 {
		c.WordPartialScore = defaults.WordPartialScore
	}
	if c.DescriptionScore == 0 {
		c.DescriptionScore = defaults.DescriptionScore
	}

	if c.FuzzyMaxDistance == 0 {
		c.FuzzyMaxDistance = defaults.FuzzyMaxDistance
	}
	if c.FuzzyBaseScore == 0 {
		c.FuzzyBaseScore = defaults.FuzzyBaseScore
	}
	if c.FuzzyStepPenalty == 0 {
		c.FuzzyStepPenalty = defaults.FuzzyStepPenalty
	}

	if c.ExactThreshold == 0 {
		c.ExactThreshold = defaults.ExactThreshold
	}
	if c.PartialThreshold == 0 {
		c.PartialThreshold = defaults.PartialThreshold
	}

	if c.ResultLimit == 0 {
		c.ResultLimit = defaults.ResultLimit
	}
	if c.SuggestionLimit == 0 {
		c.SuggestionLimit = defaults.SuggestionLimit
	}
}
