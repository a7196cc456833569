package generate

import "quizrush/internal/domain"

// Mode selects where question material comes from.
type Mode string

const (
	// ModeCampaign generates from the leader profile, one field per level.
	ModeCampaign Mode = "campaign"
	// ModeTopic generates about a configured topic, levels as difficulty.
	ModeTopic Mode = "topic"
)

const (
	MinLevel = 1
	MaxLevel = 3
)

// LevelSpec describes what one level quizzes on.
type LevelSpec struct {
	Level   int
	Name    string
	Focus   string
	content func(domain.LeaderProfile) string
}

// Content extracts the profile field this level draws from. Topic levels
// have no profile field and return "".
func (l LevelSpec) Content(p domain.LeaderProfile) string {
	if l.content == nil {
		return ""
	}
	return l.content(p)
}

var campaignLevels = map[int]LevelSpec{
	1: {
		Level:   1,
		Name:    "What They've Done",
		Focus:   "concrete achievements, initiatives and the delivery record",
		content: func(p domain.LeaderProfile) string { return p.Achievements },
	},
	2: {
		Level:   2,
		Name:    "The Vision",
		Focus:   "manifesto promises and plans for the term ahead",
		content: func(p domain.LeaderProfile) string { return p.Manifesto },
	},
	3: {
		Level:   3,
		Name:    "Know Your Leader",
		Focus:   "personality, values and leadership style",
		content: func(p domain.LeaderProfile) string { return p.Personality },
	},
}

var topicLevels = map[int]LevelSpec{
	1: {Level: 1, Name: "Warm-Up", Focus: "easy questions anyone paying attention can answer"},
	2: {Level: 2, Name: "Step It Up", Focus: "questions that need real familiarity with the topic"},
	3: {Level: 3, Name: "Expert Round", Focus: "hard questions that separate experts from fans"},
}

// ClampLevel snaps out-of-range levels to the nearest valid one.
func ClampLevel(level int) int {
	if level < MinLevel {
		return MinLevel
	}
	if level > MaxLevel {
		return MaxLevel
	}
	return level
}

// SpecFor returns the level spec for the mode, clamping the level.
func SpecFor(mode Mode, level int) LevelSpec {
	level = ClampLevel(level)
	if mode == ModeTopic {
		return topicLevels[level]
	}
	return campaignLevels[level]
}
