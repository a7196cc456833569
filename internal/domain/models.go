package domain

import "time"

// User is a registered player together with their referral and retry state.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Phone        string    `json:"phone"`
	Score        int       `json:"score"`
	ReferralCode string    `json:"referral_code"`
	ReferredBy   string    `json:"referred_by,omitempty"`
	RetriesLeft  int       `json:"retries_left"`
	Eligible     bool      `json:"eligible_for_leaderboard"`
	CreatedAt    time.Time `json:"created_at"`
}

// LeaderboardEntry is a rank-annotated view of an eligible user.
type LeaderboardEntry struct {
	Rank  int    `json:"rank"`
	Name  string `json:"name"`
	Score int    `json:"score"`
}

// Question models an MCQ question with four options and one correct answer.
type Question struct {
	Text        string   `json:"question"`
	Options     []string `json:"options"`
	Answer      string   `json:"answer"` // "A".."D"
	Explanation string   `json:"explanation,omitempty"`
}

// CorrectIndex returns the option index the answer letter points at,
// or -1 when the letter does not address one of the options.
func (q Question) CorrectIndex() int {
	if len(q.Answer) != 1 {
		return -1
	}
	i := int(q.Answer[0] - 'A')
	if i < 0 || i >= len(q.Options) {
		return -1
	}
	return i
}

// QuestionSet is one level's worth of questions.
type QuestionSet struct {
	Level     int        `json:"level"`
	Questions []Question `json:"questions"`
}

// OptionLetter converts an option index to its answer letter.
func OptionLetter(i int) string {
	if i < 0 || i > 25 {
		return ""
	}
	return string(rune('A' + i))
}

// DefaultCampaignColor themes the campaign when no color was configured.
const DefaultCampaignColor = "#e63946"

// LeaderProfile is the singleton profile question sets are generated from.
type LeaderProfile struct {
	Name          string    `json:"name"`
	Position      string    `json:"position"`
	Achievements  string    `json:"achievements"`
	Manifesto     string    `json:"manifesto"`
	Personality   string    `json:"personality"`
	Slogan        string    `json:"slogan"`
	CampaignColor string    `json:"campaign_color"`
	UpdatedAt     time.Time `json:"updated_at"`
}
