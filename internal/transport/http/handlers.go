package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"quizrush/internal/app"
	"quizrush/internal/domain"
)

const shareCodeMessage = "No retries left. Share your referral code to earn more."

// Handler exposes the REST surface of the quiz service.
type Handler struct {
	users            *app.UserService
	questions        *app.QuestionService
	profiles         *app.ProfileService
	play             *PlayHandler
	setupPassword    string
	leaderboardLimit int
}

func NewHandler(users *app.UserService, questions *app.QuestionService, profiles *app.ProfileService, play *PlayHandler, setupPassword string, leaderboardLimit int) *Handler {
	return &Handler{
		users:            users,
		questions:        questions,
		profiles:         profiles,
		play:             play,
		setupPassword:    setupPassword,
		leaderboardLimit: leaderboardLimit,
	}
}

func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(recoveryMiddleware)
	r.Use(loggingMiddleware)
	r.Use(corsMiddleware)

	r.Post("/register", h.handleRegister)
	r.Get("/questions", h.handleQuestions)
	r.Post("/submit-score", h.handleSubmitScore)
	r.Post("/retry", h.handleRetry)
	r.Get("/leaderboard", h.handleLeaderboard)
	r.Get("/user/{id}", h.handleUser)
	r.Get("/profile", h.handleProfile)
	r.Post("/setup", h.handleSetup)
	r.Get("/healthz", h.handleHealthz)
	if h.play != nil {
		r.Get("/ws/play", h.play.ServePlay)
	}
	return r
}

type registerRequest struct {
	Name       string `json:"name"`
	Phone      string `json:"phone"`
	ReferredBy string `json:"referred_by"`
}

type registerResponse struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	ReferralCode string `json:"referral_code"`
	RetriesLeft  int    `json:"retries_left"`
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}
	user, err := h.users.Register(r.Context(), req.Name, req.Phone, req.ReferredBy)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, registerResponse{
		ID:           user.ID,
		Name:         user.Name,
		ReferralCode: user.ReferralCode,
		RetriesLeft:  user.RetriesLeft,
	})
}

// handleQuestions serves the level's question set as a bare array. It
// cannot fail: generation trouble is absorbed by the fallback set.
func (h *Handler) handleQuestions(w http.ResponseWriter, r *http.Request) {
	level, _ := strconv.Atoi(r.URL.Query().Get("level"))
	set := h.questions.QuestionSet(r.Context(), level)
	writeJSON(w, http.StatusOK, set.Questions)
}

func (h *Handler) handleSubmitScore(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		writeError(w, &domain.ValidationError{Field: "user_id"})
		return
	}
	raw := r.URL.Query().Get("score")
	if raw == "" {
		writeError(w, &domain.ValidationError{Field: "score"})
		return
	}
	score, err := strconv.Atoi(raw)
	if err != nil || score < 0 {
		badRequest(w, "invalid score")
		return
	}
	stored, err := h.users.SubmitScore(r.Context(), userID, score)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"score": stored})
}

type retryResponse struct {
	Granted     bool   `json:"granted"`
	RetriesLeft int    `json:"retries_left"`
	Message     string `json:"message,omitempty"`
}

func (h *Handler) handleRetry(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		writeError(w, &domain.ValidationError{Field: "user_id"})
		return
	}
	granted, left, err := h.users.ConsumeRetry(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	resp := retryResponse{Granted: granted, RetriesLeft: left}
	if !granted {
		resp.Message = shareCodeMessage
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	entries, err := h.users.Leaderboard(r.Context(), h.leaderboardLimit)
	if err != nil {
		writeError(w, err)
		return
	}
	if entries == nil {
		entries = []domain.LeaderboardEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

func (h *Handler) handleUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.users.GetUser(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

type profileResponse struct {
	Name          string `json:"name"`
	Position      string `json:"position"`
	Slogan        string `json:"slogan"`
	CampaignColor string `json:"campaign_color"`
}

// handleProfile returns the public slice of the leader profile, enough
// for the client to theme itself.
func (h *Handler) handleProfile(w http.ResponseWriter, r *http.Request) {
	p, err := h.profiles.Profile(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, profileResponse{
		Name:          p.Name,
		Position:      p.Position,
		Slogan:        p.Slogan,
		CampaignColor: p.CampaignColor,
	})
}

type setupRequest struct {
	Password string `json:"password"`
	domain.LeaderProfile
}

func (h *Handler) handleSetup(w http.ResponseWriter, r *http.Request) {
	var req setupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}
	// An unset password keeps the gate closed.
	if h.setupPassword == "" || req.Password != h.setupPassword {
		writeJSON(w, http.StatusForbidden, errorBody{Error: "invalid setup password"})
		return
	}
	if err := h.profiles.Update(r.Context(), req.LeaderProfile); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
