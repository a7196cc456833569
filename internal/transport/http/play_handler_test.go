package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"quizrush/internal/app"
	"quizrush/internal/domain"
	"quizrush/internal/generate"
	"quizrush/internal/infra/memory"
)

func newPlayServer(t *testing.T, tickEvery, revealDelay time.Duration) (*httptest.Server, *app.UserService) {
	t.Helper()

	store := memory.NewUserStore()
	users := app.NewUserService(store)

	loader := memory.NewStaticLoader(map[int]domain.QuestionSet{
		1: {Level: 1, Questions: playableSet()},
	})
	cache := memory.NewQuestionSetCache(loader, time.Minute)
	questions := app.NewQuestionService(cache, nil, generate.ModeTopic)
	profiles := memory.NewProfileStore()
	profileSvc := app.NewProfileService(profiles, cache)
	play := NewPlayHandlerWithTiming(users, questions, tickEvery, revealDelay)

	handler := NewHandler(users, questions, profileSvc, play, testSetupPassword, 0)
	server := httptest.NewServer(handler.Routes())
	t.Cleanup(server.Close)
	return server, users
}

func newPlayer(t *testing.T, users *app.UserService) domain.User {
	t.Helper()
	user, err := users.Register(context.Background(), "Asha", "9800000001", "")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	return user
}

func dialPlay(t *testing.T, server *httptest.Server, userID string, level int) *websocket.Conn {
	t.Helper()
	u := "ws" + server.URL[len("http"):] + "/ws/play?user_id=" + userID + "&level=" + strconv.Itoa(level)
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEnvelope(t *testing.T, conn *websocket.Conn) (string, map[string]any) {
	t.Helper()
	var msg struct {
		Type    string         `json:"type"`
		Payload map[string]any `json:"payload"`
	}
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read envelope: %v", err)
	}
	return msg.Type, msg.Payload
}

func writeMessage(t *testing.T, conn *websocket.Conn, msgType string, payload any) {
	t.Helper()
	if err := conn.WriteJSON(map[string]any{"type": msgType, "payload": payload}); err != nil {
		t.Fatalf("write %s: %v", msgType, err)
	}
}

// playThroughLevel answers option B to every question and returns the
// result payload.
func playThroughLevel(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()
	for {
		typ, payload := readEnvelope(t, conn)
		switch typ {
		case "question":
			writeMessage(t, conn, "answer", map[string]any{"option": 1})
		case "tick", "reveal", "retry_granted":
		case "result":
			return payload
		default:
			t.Fatalf("unexpected message %s: %v", typ, payload)
		}
	}
}

func TestPlayFullLevel(t *testing.T) {
	// A one-hour tick keeps every answer at the full 30s time bonus.
	server, users := newPlayServer(t, time.Hour, time.Millisecond)
	user := newPlayer(t, users)
	conn := dialPlay(t, server, user.ID, 1)

	typ, payload := readEnvelope(t, conn)
	if typ != "question" {
		t.Fatalf("expected question first, got %s", typ)
	}
	if int(payload["index"].(float64)) != 0 || int(payload["time_left"].(float64)) != 30 {
		t.Fatalf("question payload = %v", payload)
	}

	// 190+190 before the streak bonus kicks in at 3, then 220 each.
	wantAwards := []int{190, 190, 220, 220, 220}
	for i, want := range wantAwards {
		writeMessage(t, conn, "answer", map[string]any{"option": 1})

		typ, payload = readEnvelope(t, conn)
		if typ != "reveal" {
			t.Fatalf("question %d: expected reveal, got %s", i, typ)
		}
		if payload["correct"] != true {
			t.Fatalf("question %d: expected correct answer, got %v", i, payload)
		}
		if got := int(payload["awarded"].(float64)); got != want {
			t.Fatalf("question %d: awarded = %d, want %d", i, got, want)
		}

		if i < len(wantAwards)-1 {
			typ, payload = readEnvelope(t, conn)
			if typ != "question" || int(payload["index"].(float64)) != i+1 {
				t.Fatalf("expected question %d, got %s %v", i+1, typ, payload)
			}
		}
	}

	typ, payload = readEnvelope(t, conn)
	if typ != "result" {
		t.Fatalf("expected result, got %s", typ)
	}
	if got := int(payload["total_score"].(float64)); got != 1040 {
		t.Fatalf("total_score = %d, want 1040", got)
	}
	if got := int(payload["correct_count"].(float64)); got != 5 {
		t.Fatalf("correct_count = %d, want 5", got)
	}
	if got := int(payload["stored_score"].(float64)); got != 1040 {
		t.Fatalf("stored_score = %d, want 1040", got)
	}
	verdict, ok := payload["verdict"].(map[string]any)
	if !ok || verdict["tier"] != "outstanding" {
		t.Fatalf("verdict = %v, want outstanding", payload["verdict"])
	}
	if payload["referral_code"] != user.ReferralCode {
		t.Fatalf("referral_code = %v, want %s", payload["referral_code"], user.ReferralCode)
	}

	stored, err := users.GetUser(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if stored.Score != 1040 {
		t.Fatalf("persisted score = %d, want 1040", stored.Score)
	}
}

func TestPlayRetryCarriesTotalForward(t *testing.T) {
	server, users := newPlayServer(t, time.Hour, time.Millisecond)
	user := newPlayer(t, users)
	conn := dialPlay(t, server, user.ID, 1)

	result := playThroughLevel(t, conn)
	if int(result["retries_left"].(float64)) != 1 {
		t.Fatalf("retries_left = %v, want 1", result["retries_left"])
	}

	writeMessage(t, conn, "retry", nil)

	typ, payload := readEnvelope(t, conn)
	if typ != "retry_granted" || int(payload["retries_left"].(float64)) != 0 {
		t.Fatalf("expected retry_granted with 0 left, got %s %v", typ, payload)
	}
	typ, payload = readEnvelope(t, conn)
	if typ != "question" || int(payload["index"].(float64)) != 0 {
		t.Fatalf("expected restart at question 0, got %s %v", typ, payload)
	}
	if int(payload["total_score"].(float64)) != 1040 {
		t.Fatalf("carried total = %v, want 1040", payload["total_score"])
	}

	// A second retry mid-question is rejected.
	writeMessage(t, conn, "retry", nil)
	typ, _ = readEnvelope(t, conn)
	if typ != "error" {
		t.Fatalf("expected error for mid-question retry, got %s", typ)
	}
}

func TestPlayRetryDeniedWhenExhausted(t *testing.T) {
	server, users := newPlayServer(t, time.Hour, time.Millisecond)
	user := newPlayer(t, users)

	granted, _, err := users.ConsumeRetry(context.Background(), user.ID)
	if err != nil || !granted {
		t.Fatalf("burn initial retry: granted=%v err=%v", granted, err)
	}

	conn := dialPlay(t, server, user.ID, 1)
	playThroughLevel(t, conn)

	writeMessage(t, conn, "retry", nil)
	typ, payload := readEnvelope(t, conn)
	if typ != "retry_denied" {
		t.Fatalf("expected retry_denied, got %s %v", typ, payload)
	}
	if payload["message"] != shareCodeMessage {
		t.Fatalf("message = %v, want %q", payload["message"], shareCodeMessage)
	}
}

func TestPlayTimeoutRevealsAnswer(t *testing.T) {
	server, users := newPlayServer(t, 2*time.Millisecond, time.Millisecond)
	user := newPlayer(t, users)
	conn := dialPlay(t, server, user.ID, 1)

	sawReveal := false
	for !sawReveal {
		typ, payload := readEnvelope(t, conn)
		switch typ {
		case "question", "tick":
		case "reveal":
			sawReveal = true
			if payload["timed_out"] != true || payload["correct"] == true {
				t.Fatalf("timeout reveal = %v", payload)
			}
			if int(payload["awarded"].(float64)) != 0 {
				t.Fatalf("timeout awarded = %v, want 0", payload["awarded"])
			}
			if payload["answer"] != "B" || int(payload["correct_option"].(float64)) != 1 {
				t.Fatalf("reveal should name the correct option, got %v", payload)
			}
		default:
			t.Fatalf("unexpected message %s: %v", typ, payload)
		}
	}

	// The next question follows after the reveal delay.
	for {
		typ, payload := readEnvelope(t, conn)
		if typ == "tick" {
			continue
		}
		if typ != "question" || int(payload["index"].(float64)) != 1 {
			t.Fatalf("expected question 1, got %s %v", typ, payload)
		}
		return
	}
}

func TestPlayRejectsUnknownUser(t *testing.T) {
	server, _ := newPlayServer(t, time.Hour, time.Millisecond)

	u := "ws" + server.URL[len("http"):] + "/ws/play?user_id=ghost&level=1"
	_, resp, err := websocket.DefaultDialer.Dial(u, nil)
	if err == nil {
		t.Fatal("expected handshake failure for unknown user")
	}
	if resp == nil || resp.StatusCode != http.StatusNotFound {
		t.Fatalf("handshake response = %v, want 404", resp)
	}
}
