// Package quiz holds the level-play rules: scoring, verdicts, and the
// session state machine. Everything here is pure; time enters only as
// Tick events and persistence lives with the callers.
package quiz

// Scoring constants for a single question.
const (
	QuestionSeconds = 30
	basePoints      = 100
	timeBonusRate   = 3
	streakBonus     = 30
	streakThreshold = 3
)

// Score returns the points awarded for a correct answer given the seconds
// remaining on the question timer and the streak including this answer.
// Wrong answers and timeouts award nothing and never reach here.
func Score(timeRemaining, streak int) int {
	if timeRemaining < 0 {
		timeRemaining = 0
	}
	if timeRemaining > QuestionSeconds {
		timeRemaining = QuestionSeconds
	}
	points := basePoints + timeBonusRate*timeRemaining
	if streak >= streakThreshold {
		points += streakBonus
	}
	return points
}
