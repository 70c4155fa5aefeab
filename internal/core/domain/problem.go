package domain

import "strings"

// Difficulty buckets a problem into the platform's three tiers.
type Difficulty string

const (
	DifficultyEasy    Difficulty = "Easy"
	DifficultyMedium  Difficulty = "Medium"
	DifficultyHard    Difficulty = "Hard"
	DifficultyUnknown Difficulty = "Unknown"
)

// ParseDifficulty maps an upstream difficulty string onto the enum.
func ParseDifficulty(value string) Difficulty {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "easy":
		return DifficultyEasy
	case "medium":
		return DifficultyMedium
	case "hard":
		return DifficultyHard
	default:
		return DifficultyUnknown
	}
}

// DifficultyFromLevel maps the legacy REST numeric level onto the enum.
func DifficultyFromLevel(level int) Difficulty {
	switch level {
	case 1:
		return DifficultyEasy
	case 2:
		return DifficultyMedium
	case 3:
		return DifficultyHard
	default:
		return DifficultyUnknown
	}
}

// ProblemListItem is one row of the problem catalog. Produced per list
// request and never persisted.
type ProblemListItem struct {
	ID             string
	FrontendID     string
	Title          string
	LocalizedTitle string
	Slug           string
	PaidOnly       bool
	Difficulty     Difficulty
	Status         string
	// AcceptanceRate is a percentage in [0,100]. Nil when the upstream
	// provides no submission counts; never coerced to zero.
	AcceptanceRate *float64
}

// TopicTag labels a problem with a category.
type TopicTag struct {
	Name string
	Slug string
}

// CodeSnippet is a per-language starter template for a problem.
type CodeSnippet struct {
	Language     string
	LanguageSlug string
	Code         string
}

// ProblemDetail is the full content of a single problem.
type ProblemDetail struct {
	ID               string
	FrontendID       string
	Title            string
	LocalizedTitle   string
	Slug             string
	PaidOnly         bool
	Difficulty       Difficulty
	Likes            int
	Dislikes         int
	Content          string
	LocalizedContent string
	Testcases        []string
	TopicTags        []TopicTag
	CodeSnippets     []CodeSnippet
}
