package quiz

import "quizrush/internal/domain"

// State tags the phase a session is in.
type State int

const (
	AwaitingQuestions State = iota
	QuestionActive
	Answered
	LevelComplete
)

func (s State) String() string {
	switch s {
	case AwaitingQuestions:
		return "awaiting_questions"
	case QuestionActive:
		return "question_active"
	case Answered:
		return "answered"
	case LevelComplete:
		return "level_complete"
	default:
		return "unknown"
	}
}

// Event drives a session transition.
type Event interface{ isEvent() }

// QuestionsLoaded carries the freshly fetched question set for the level.
type QuestionsLoaded struct {
	Questions []domain.Question
}

// OptionSelected is the player picking option Option (0-based) for the
// active question.
type OptionSelected struct {
	Option int
}

// Tick is one elapsed second on the active question's countdown.
type Tick struct{}

// AdvanceDue moves past a revealed answer to the next question or the
// level result.
type AdvanceDue struct{}

func (QuestionsLoaded) isEvent() {}
func (OptionSelected) isEvent()  {}
func (Tick) isEvent()            {}
func (AdvanceDue) isEvent()      {}

// Result aggregates a completed level.
type Result struct {
	Level        int     `json:"level"`
	LevelScore   int     `json:"level_score"`
	TotalScore   int     `json:"total_score"`
	CorrectCount int     `json:"correct_count"`
	BestStreak   int     `json:"best_streak"`
	Percent      int     `json:"percent"`
	Verdict      Verdict `json:"verdict"`
}

// Outcome is the externally visible effect of applying one event.
// Events that arrive in the wrong state leave Applied false and change
// nothing; the state tag itself is the idempotence lock, so a selection
// landing after the closing tick (or the other way around) is a no-op.
type Outcome struct {
	Applied       bool
	Closed        bool // the active question just closed
	Correct       bool
	TimedOut      bool
	Awarded       int
	Answer        string // correct letter, set when the question closed
	CorrectOption int
	Explanation   string
	Advanced      bool    // a new question became active
	Result        *Result // non-nil once the level completed
}

// Session runs one level for one player. It is not safe for concurrent
// use; the caller serializes events onto it (one goroutine per session).
type Session struct {
	level        int
	state        State
	questions    []domain.Question
	index        int
	timeLeft     int
	levelScore   int
	totalScore   int
	correctCount int
	streak       int
	bestStreak   int
}

// New returns a session for level awaiting its questions. carriedTotal is
// the running total from earlier levels (or replays) and keeps
// accumulating here.
func New(level, carriedTotal int) *Session {
	return &Session{
		level:      level,
		state:      AwaitingQuestions,
		totalScore: carriedTotal,
	}
}

// Apply transitions the session with ev and reports what happened.
func (s *Session) Apply(ev Event) Outcome {
	switch e := ev.(type) {
	case QuestionsLoaded:
		return s.load(e.Questions)
	case OptionSelected:
		return s.selectOption(e.Option)
	case Tick:
		return s.tick()
	case AdvanceDue:
		return s.advance()
	default:
		return Outcome{}
	}
}

func (s *Session) load(questions []domain.Question) Outcome {
	if s.state != AwaitingQuestions || len(questions) == 0 {
		return Outcome{}
	}
	s.questions = questions
	s.index = 0
	s.timeLeft = QuestionSeconds
	s.state = QuestionActive
	return Outcome{Applied: true, Advanced: true}
}

func (s *Session) selectOption(option int) Outcome {
	if s.state != QuestionActive {
		return Outcome{}
	}
	q := s.questions[s.index]
	if option < 0 || option >= len(q.Options) {
		return Outcome{}
	}
	out := Outcome{Applied: true, Closed: true}
	if option == q.CorrectIndex() {
		s.streak++
		if s.streak > s.bestStreak {
			s.bestStreak = s.streak
		}
		s.correctCount++
		out.Correct = true
		out.Awarded = Score(s.timeLeft, s.streak)
		s.levelScore += out.Awarded
		s.totalScore += out.Awarded
	} else {
		s.streak = 0
	}
	s.state = Answered
	s.reveal(&out, q)
	return out
}

func (s *Session) tick() Outcome {
	if s.state != QuestionActive {
		return Outcome{}
	}
	s.timeLeft--
	if s.timeLeft > 0 {
		return Outcome{Applied: true}
	}
	// Countdown exhausted: the question closes as incorrect.
	q := s.questions[s.index]
	s.streak = 0
	s.state = Answered
	out := Outcome{Applied: true, Closed: true, TimedOut: true}
	s.reveal(&out, q)
	return out
}

func (s *Session) advance() Outcome {
	if s.state != Answered {
		return Outcome{}
	}
	s.index++
	if s.index < len(s.questions) {
		s.timeLeft = QuestionSeconds
		s.state = QuestionActive
		return Outcome{Applied: true, Advanced: true}
	}
	s.state = LevelComplete
	r := Result{
		Level:        s.level,
		LevelScore:   s.levelScore,
		TotalScore:   s.totalScore,
		CorrectCount: s.correctCount,
		BestStreak:   s.bestStreak,
		Percent:      s.correctCount * 100 / len(s.questions),
	}
	r.Verdict = VerdictFor(r.Percent)
	return Outcome{Applied: true, Result: &r}
}

func (s *Session) reveal(out *Outcome, q domain.Question) {
	out.Answer = q.Answer
	out.CorrectOption = q.CorrectIndex()
	out.Explanation = q.Explanation
}

// State reports the current phase.
func (s *Session) State() State { return s.state }

// Level reports the level this session plays.
func (s *Session) Level() int { return s.level }

// Question returns the current question while one is active or revealed.
func (s *Session) Question() (domain.Question, bool) {
	if s.index >= len(s.questions) {
		return domain.Question{}, false
	}
	return s.questions[s.index], true
}

// Index is the 0-based position of the current question.
func (s *Session) Index() int { return s.index }

// Total is the number of questions in the level.
func (s *Session) Total() int { return len(s.questions) }

// TimeLeft is the seconds remaining on the active question.
func (s *Session) TimeLeft() int { return s.timeLeft }

// LevelScore is the score earned within this level so far.
func (s *Session) LevelScore() int { return s.levelScore }

// TotalScore is the running total including carried score.
func (s *Session) TotalScore() int { return s.totalScore }

// CorrectCount is the number of correct answers so far.
func (s *Session) CorrectCount() int { return s.correctCount }

// Streak is the current consecutive-correct run.
func (s *Session) Streak() int { return s.streak }

// BestStreak is the longest consecutive-correct run of the level.
func (s *Session) BestStreak() int { return s.bestStreak }
