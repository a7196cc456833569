package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"

	"quizrush/internal/app"
	"quizrush/internal/domain"
	"quizrush/internal/quiz"
)

// PlayHandler runs live quiz rounds over a websocket. The server owns
// the countdown and the session machine; the client only picks options
// and asks for retries, so the scoring cannot be gamed from the wire.
type PlayHandler struct {
	users     *app.UserService
	questions *app.QuestionService
	upgrader  websocket.Upgrader

	tickEvery   time.Duration
	revealDelay time.Duration
}

func NewPlayHandler(users *app.UserService, questions *app.QuestionService) *PlayHandler {
	return &PlayHandler{
		users:     users,
		questions: questions,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		tickEvery:   time.Second,
		revealDelay: 2 * time.Second,
	}
}

// NewPlayHandlerWithTiming is test-only, for fast countdowns.
func NewPlayHandlerWithTiming(users *app.UserService, questions *app.QuestionService, tickEvery, revealDelay time.Duration) *PlayHandler {
	h := NewPlayHandler(users, questions)
	h.tickEvery = tickEvery
	h.revealDelay = revealDelay
	return h
}

type clientMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type playMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type answerPayload struct {
	Option int `json:"option"`
}

type questionPayload struct {
	Index      int      `json:"index"`
	Total      int      `json:"total"`
	Question   string   `json:"question"`
	Options    []string `json:"options"`
	TimeLeft   int      `json:"time_left"`
	LevelScore int      `json:"level_score"`
	TotalScore int      `json:"total_score"`
}

type tickPayload struct {
	TimeLeft int `json:"time_left"`
}

type revealPayload struct {
	Correct       bool   `json:"correct"`
	TimedOut      bool   `json:"timed_out"`
	Answer        string `json:"answer"`
	CorrectOption int    `json:"correct_option"`
	Explanation   string `json:"explanation,omitempty"`
	Awarded       int    `json:"awarded"`
	Streak        int    `json:"streak"`
	LevelScore    int    `json:"level_score"`
	TotalScore    int    `json:"total_score"`
}

type resultPayload struct {
	quiz.Result
	StoredScore  int    `json:"stored_score"`
	ReferralCode string `json:"referral_code"`
	RetriesLeft  int    `json:"retries_left"`
}

type retryGrantedPayload struct {
	RetriesLeft int `json:"retries_left"`
}

type retryDeniedPayload struct {
	Message     string `json:"message"`
	RetriesLeft int    `json:"retries_left"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServePlay upgrades the request and runs one level for the player.
func (h *PlayHandler) ServePlay(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		http.Error(w, "missing user_id", http.StatusBadRequest)
		return
	}
	level, _ := strconv.Atoi(r.URL.Query().Get("level"))

	user, err := h.users.GetUser(r.Context(), userID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			http.Error(w, "unknown user", http.StatusNotFound)
			return
		}
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("ws upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	h.run(r.Context(), conn, user, level)
}

// run is the single event loop owning the session. All writes happen
// here, so the connection never sees concurrent writers.
func (h *PlayHandler) run(ctx context.Context, conn *websocket.Conn, user domain.User, level int) {
	set := h.questions.QuestionSet(ctx, level)
	session := quiz.New(set.Level, 0)
	if out := session.Apply(quiz.QuestionsLoaded{Questions: set.Questions}); !out.Applied {
		h.send(conn, "error", errorPayload{Message: "no questions available"})
		return
	}

	inbound := make(chan clientMessage)
	done := make(chan struct{})
	defer close(done)

	go func() {
		defer close(inbound)
		for {
			var msg clientMessage
			if err := conn.ReadJSON(&msg); err != nil {
				return
			}
			select {
			case inbound <- msg:
			case <-done:
				return
			}
		}
	}()

	ticker := time.NewTicker(h.tickEvery)
	defer ticker.Stop()
	// Armed while a reveal is on screen.
	var advance <-chan time.Time

	if !h.sendQuestion(conn, session) {
		return
	}

	for {
		select {
		case <-ctx.Done():
			return

		case <-ticker.C:
			out := session.Apply(quiz.Tick{})
			switch {
			case !out.Applied:
			case out.Closed:
				if !h.sendReveal(conn, session, out) {
					return
				}
				advance = time.After(h.revealDelay)
			default:
				if !h.send(conn, "tick", tickPayload{TimeLeft: session.TimeLeft()}) {
					return
				}
			}

		case <-advance:
			advance = nil
			out := session.Apply(quiz.AdvanceDue{})
			switch {
			case out.Result != nil:
				if !h.sendResult(ctx, conn, user, out.Result) {
					return
				}
			case out.Advanced:
				if !h.sendQuestion(conn, session) {
					return
				}
			}

		case msg, ok := <-inbound:
			if !ok {
				return
			}
			switch msg.Type {
			case "answer":
				var payload answerPayload
				if err := json.Unmarshal(msg.Payload, &payload); err != nil {
					if !h.send(conn, "error", errorPayload{Message: "invalid answer payload"}) {
						return
					}
					continue
				}
				out := session.Apply(quiz.OptionSelected{Option: payload.Option})
				if !out.Applied {
					// Late or duplicate selection, the first event already won.
					continue
				}
				if !h.sendReveal(conn, session, out) {
					return
				}
				advance = time.After(h.revealDelay)

			case "retry":
				next, ok := h.handleRetryRequest(ctx, conn, user, session)
				if !ok {
					return
				}
				session = next

			default:
				if !h.send(conn, "error", errorPayload{Message: "unsupported message type"}) {
					return
				}
			}
		}
	}
}

// handleRetryRequest consults the ledger and, when a retry is granted,
// swaps in a fresh session for the same level with the running total
// carried forward. It returns the session to continue with and whether
// the connection is still usable.
func (h *PlayHandler) handleRetryRequest(ctx context.Context, conn *websocket.Conn, user domain.User, session *quiz.Session) (*quiz.Session, bool) {
	if session.State() != quiz.LevelComplete {
		return session, h.send(conn, "error", errorPayload{Message: "finish the level before retrying"})
	}
	granted, left, err := h.users.ConsumeRetry(ctx, user.ID)
	if err != nil {
		slog.Error("consume retry from live play", "user", user.ID, "error", err)
		return session, h.send(conn, "error", errorPayload{Message: "retry unavailable"})
	}
	if !granted {
		return session, h.send(conn, "retry_denied", retryDeniedPayload{
			Message:     shareCodeMessage,
			RetriesLeft: left,
		})
	}

	set := h.questions.QuestionSet(ctx, session.Level())
	next := quiz.New(set.Level, session.TotalScore())
	if out := next.Apply(quiz.QuestionsLoaded{Questions: set.Questions}); !out.Applied {
		return session, h.send(conn, "error", errorPayload{Message: "no questions available"})
	}
	if !h.send(conn, "retry_granted", retryGrantedPayload{RetriesLeft: left}) {
		return next, false
	}
	return next, h.sendQuestion(conn, next)
}

func (h *PlayHandler) sendQuestion(conn *websocket.Conn, s *quiz.Session) bool {
	q, ok := s.Question()
	if !ok {
		return h.send(conn, "error", errorPayload{Message: "no active question"})
	}
	// The answer letter and explanation stay server-side until reveal.
	return h.send(conn, "question", questionPayload{
		Index:      s.Index(),
		Total:      s.Total(),
		Question:   q.Text,
		Options:    q.Options,
		TimeLeft:   s.TimeLeft(),
		LevelScore: s.LevelScore(),
		TotalScore: s.TotalScore(),
	})
}

func (h *PlayHandler) sendReveal(conn *websocket.Conn, s *quiz.Session, out quiz.Outcome) bool {
	return h.send(conn, "reveal", revealPayload{
		Correct:       out.Correct,
		TimedOut:      out.TimedOut,
		Answer:        out.Answer,
		CorrectOption: out.CorrectOption,
		Explanation:   out.Explanation,
		Awarded:       out.Awarded,
		Streak:        s.Streak(),
		LevelScore:    s.LevelScore(),
		TotalScore:    s.TotalScore(),
	})
}

func (h *PlayHandler) sendResult(ctx context.Context, conn *websocket.Conn, user domain.User, result *quiz.Result) bool {
	stored, err := h.users.SubmitScore(ctx, user.ID, result.TotalScore)
	if err != nil {
		slog.Error("submit score from live play", "user", user.ID, "error", err)
		stored = result.TotalScore
	}
	retries := user.RetriesLeft
	if fresh, err := h.users.GetUser(ctx, user.ID); err == nil {
		retries = fresh.RetriesLeft
	}
	return h.send(conn, "result", resultPayload{
		Result:       *result,
		StoredScore:  stored,
		ReferralCode: user.ReferralCode,
		RetriesLeft:  retries,
	})
}

func (h *PlayHandler) send(conn *websocket.Conn, msgType string, payload any) bool {
	if err := conn.WriteJSON(playMessage[any]{Type: msgType, Payload: payload}); err != nil {
		slog.Debug("ws write failed", "type", msgType, "error", err)
		return false
	}
	return true
}
