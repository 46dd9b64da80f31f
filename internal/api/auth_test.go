package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
)

func TestProtectedRoutesRequireToken(t *testing.T) {
	env := newTestEnv(t)

	body := env.call(t, http.MethodGet, "/api/couple/status", "", nil, http.StatusUnauthorized)
	if message := readAPIError(t, body); message != "unauthorized" {
		t.Fatalf("expected unauthorized error, got %q", message)
	}

	env.call(t, http.MethodGet, "/api/notifications", "not-a-jwt", nil, http.StatusUnauthorized)
}

func TestRegisterLoginAndMe(t *testing.T) {
	env := newTestEnv(t)

	user := env.register(t, "Ana@Example.com", "Ana")

	me := env.call(t, http.MethodGet, "/api/auth/me", user.Token, nil, http.StatusOK)
	profile, _ := me["user"].(map[string]any)
	if profile["email"] != "ana@example.com" || profile["display_name"] != "Ana" {
		t.Fatalf("unexpected profile: %#v", profile)
	}

	duplicate := env.call(t, http.MethodPost, "/api/auth/register", "", fiber.Map{
		"email":    "ana@example.com",
		"password": "StrongPass1",
	}, http.StatusConflict)
	readAPIError(t, duplicate)

	weak := env.call(t, http.MethodPost, "/api/auth/register", "", fiber.Map{
		"email":    "weak@example.com",
		"password": "weak",
	}, http.StatusBadRequest)
	if message := readAPIError(t, weak); message != "weak password" {
		t.Fatalf("expected weak password error, got %q", message)
	}

	missing := env.call(t, http.MethodPost, "/api/auth/register", "", fiber.Map{"email": "x@example.com"}, http.StatusBadRequest)
	if message := readAPIError(t, missing); message != "password: is required" {
		t.Fatalf("expected required password error, got %q", message)
	}

	env.call(t, http.MethodPost, "/api/auth/login", "", fiber.Map{
		"email":    "ana@example.com",
		"password": "WrongPass1",
	}, http.StatusUnauthorized)

	login := env.call(t, http.MethodPost, "/api/auth/login", "", fiber.Map{
		"email":    "ANA@example.com",
		"password": "StrongPass1",
	}, http.StatusOK)
	token, _ := login["token"].(string)
	if token == "" {
		t.Fatalf("expected token in login response: %#v", login)
	}
	env.call(t, http.MethodGet, "/api/auth/me", token, nil, http.StatusOK)
}

func TestAuthCookieIsAccepted(t *testing.T) {
	env := newTestEnv(t)
	user := env.register(t, "cookie@example.com", "")

	request := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	request.Header.Set("Cookie", authCookieName+"="+user.Token)
	response, err := env.app.Test(request, -1)
	if err != nil {
		t.Fatalf("me request failed: %v", err)
	}
	defer response.Body.Close()
	if response.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200 with auth cookie, got %d", response.StatusCode)
	}
}

func TestRegisterLanguageSelection(t *testing.T) {
	env := newTestEnv(t)

	request := httptest.NewRequest(http.MethodPost, "/api/auth/register",
		strings.NewReader(`{"email":"ko@example.com","password":"StrongPass1"}`))
	request.Header.Set("Content-Type", "application/json")
	request.Header.Set("Accept-Language", "ko-KR,ko;q=0.9,en;q=0.8")
	response, err := env.app.Test(request, -1)
	if err != nil {
		t.Fatalf("register request failed: %v", err)
	}
	response.Body.Close()
	if response.StatusCode != http.StatusCreated {
		t.Fatalf("expected status 201, got %d", response.StatusCode)
	}
	stored, err := env.repos.Users.FindByNormalizedEmail(context.Background(), "ko@example.com")
	if err != nil {
		t.Fatalf("load user: %v", err)
	}
	if stored.Language != "ko" {
		t.Fatalf("expected language from Accept-Language, got %q", stored.Language)
	}

	body := env.call(t, http.MethodPost, "/api/auth/register", "", fiber.Map{
		"email":    "fr@example.com",
		"password": "StrongPass1",
		"language": "fr",
	}, http.StatusCreated)
	user, _ := body["user"].(map[string]any)
	if user["language"] != "en" {
		t.Fatalf("expected unsupported language to fall back to en, got %#v", user["language"])
	}
}

func TestLoginLockoutAfterRepeatedFailures(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "locked@example.com", "")

	for attempt := 0; attempt < loginAttemptLimit; attempt++ {
		env.call(t, http.MethodPost, "/api/auth/login", "", fiber.Map{
			"email":    "locked@example.com",
			"password": "WrongPass1",
		}, http.StatusUnauthorized)
	}

	body := env.call(t, http.MethodPost, "/api/auth/login", "", fiber.Map{
		"email":    "locked@example.com",
		"password": "StrongPass1",
	}, http.StatusTooManyRequests)
	if message := readAPIError(t, body); !strings.Contains(message, "too many") {
		t.Fatalf("expected lockout message, got %q", message)
	}

	env.register(t, "neighbor@example.com", "")
	env.call(t, http.MethodPost, "/api/auth/login", "", fiber.Map{
		"email":    "neighbor@example.com",
		"password": "StrongPass1",
	}, http.StatusOK)
	env.call(t, http.MethodPost, "/api/auth/login", "", fiber.Map{
		"email":    "LOCKED@example.com",
		"password": "StrongPass1",
	}, http.StatusTooManyRequests)
}

func TestExpiredTokenIsRejected(t *testing.T) {
	env := newTestEnv(t)
	user := env.register(t, "expired@example.com", "")

	env.handler.now = func() time.Time { return time.Now().Add(authTokenTTL + time.Hour) }
	env.call(t, http.MethodGet, "/api/auth/me", user.Token, nil, http.StatusUnauthorized)
}

func TestLinkTelegram(t *testing.T) {
	env := newTestEnv(t)
	user := env.register(t, "tg@example.com", "")

	body := env.call(t, http.MethodPut, "/api/auth/telegram", user.Token, fiber.Map{"chat_id": 777}, http.StatusOK)
	if body["linked"] != true {
		t.Fatalf("expected linked=true, got %#v", body)
	}

	stored, err := env.repos.Users.FindByID(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("load user: %v", err)
	}
	if stored.TelegramChatID != 777 {
		t.Fatalf("expected stored chat id 777, got %d", stored.TelegramChatID)
	}
}

func TestUnknownRouteReturnsJSONNotFound(t *testing.T) {
	env := newTestEnv(t)
	body := env.call(t, http.MethodGet, "/api/nope", "", nil, http.StatusNotFound)
	if message := readAPIError(t, body); message != "not found" {
		t.Fatalf("expected not found error, got %q", message)
	}
}

func TestHealthAndMetrics(t *testing.T) {
	env := newTestEnv(t)
	health := env.call(t, http.MethodGet, "/healthz", "", nil, http.StatusOK)
	if health["status"] != "ok" {
		t.Fatalf("unexpected health payload: %#v", health)
	}

	response, payload := env.request(t, http.MethodGet, "/metrics", "", nil)
	if response.StatusCode != http.StatusOK {
		t.Fatalf("expected metrics status 200, got %d", response.StatusCode)
	}
	if !strings.Contains(string(payload), "tandem_test_realtime_sessions") {
		t.Fatalf("expected realtime gauges in metrics output")
	}
}

func TestWebSocketEndpointRequiresUpgradeAndToken(t *testing.T) {
	env := newTestEnv(t)

	env.call(t, http.MethodGet, "/ws", "", nil, http.StatusUpgradeRequired)

	request := httptest.NewRequest(http.MethodGet, "/ws", nil)
	request.Header.Set("Connection", "Upgrade")
	request.Header.Set("Upgrade", "websocket")
	request.Header.Set("Sec-WebSocket-Version", "13")
	request.Header.Set("Sec-WebSocket-Key", "dGhlIHNhbXBsZSBub25jZQ==")
	response, err := env.app.Test(request, -1)
	if err != nil {
		t.Fatalf("ws request failed: %v", err)
	}
	defer response.Body.Close()
	if response.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected status 401 without token, got %d", response.StatusCode)
	}
}
