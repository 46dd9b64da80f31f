package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/terraincognita07/tandem/internal/db"
	"github.com/terraincognita07/tandem/internal/i18n"
	"github.com/terraincognita07/tandem/internal/realtime"
	"github.com/terraincognita07/tandem/internal/services"
	"go.uber.org/zap"
)

const testSecretKey = "api-test-secret-key-0123456789abcdef"

type testEnv struct {
	app     *fiber.App
	handler *Handler
	hub     *realtime.Hub
	repos   *db.Repositories
	ddays   *services.DDayService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	databasePath := filepath.Join(t.TempDir(), "tandem-api-test.db")
	database, err := db.Open(db.Options{Driver: db.DialectSQLite, Path: databasePath})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() {
		_ = db.Close(database)
	})

	translator, err := i18n.NewManager("en")
	if err != nil {
		t.Fatalf("init i18n: %v", err)
	}

	logger := zap.NewNop()
	repos := db.NewRepositories(database)
	ledger := services.NewNotificationService(repos.Notifications)
	notifier := services.NewNotifier(ledger, repos.Users, translator, logger)
	couples := services.NewCoupleService(repos.Couples, repos.Users, notifier, logger)
	questions := services.NewQuestionService(repos.Questions)
	if _, err := questions.EnsureCatalog(context.Background()); err != nil {
		t.Fatalf("seed questions: %v", err)
	}

	hub := realtime.NewHub(couples, ledger, realtime.HubOptions{Logger: logger})
	if err := hub.Start(); err != nil {
		t.Fatalf("start hub: %v", err)
	}
	notifier.UsePublisher(hub)
	t.Cleanup(func() {
		_ = hub.Shutdown(context.Background())
	})

	ddays := services.NewDDayService(repos.DDays, couples, notifier, time.UTC, logger)
	handler, err := NewHandler(Services{
		Auth:          services.NewAuthService(repos.Users),
		Couples:       couples,
		Questions:     questions,
		Assignments:   services.NewAssignmentService(repos.Assignments, repos.Questions),
		Answers:       services.NewAnswerService(repos.Answers, repos.Questions, repos.Users, couples, notifier, time.UTC, logger),
		Notifications: ledger,
		Moods:         services.NewMoodService(repos.Moods, repos.Users, couples, notifier, time.UTC, logger),
		Memories:      services.NewMemoryService(repos.Memories, repos.Users, couples, notifier, time.UTC, logger),
		DDays:         ddays,
	}, Options{
		SecretKey: testSecretKey,
		Location:  time.UTC,
		Languages: translator,
		Hub:       hub,
		Metrics:   realtime.NewMetrics("tandem_test"),
		Logger:    logger,
	})
	if err != nil {
		t.Fatalf("init handler: %v", err)
	}

	return &testEnv{app: NewApp(handler), handler: handler, hub: hub, repos: repos, ddays: ddays}
}

func (env *testEnv) request(t *testing.T, method string, path string, token string, body any) (*http.Response, []byte) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("encode %s %s body: %v", method, path, err)
		}
		reader = bytes.NewReader(encoded)
	}

	request := httptest.NewRequest(method, path, reader)
	if body != nil {
		request.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		request.Header.Set("Authorization", "Bearer "+token)
	}

	response, err := env.app.Test(request, -1)
	if err != nil {
		t.Fatalf("%s %s failed: %v", method, path, err)
	}
	defer response.Body.Close()

	payload, err := io.ReadAll(response.Body)
	if err != nil {
		t.Fatalf("%s %s read body: %v", method, path, err)
	}
	return response, payload
}

// call performs the request, checks the status and decodes a JSON object.
func (env *testEnv) call(t *testing.T, method string, path string, token string, body any, expectedStatus int) map[string]any {
	t.Helper()

	response, payload := env.request(t, method, path, token, body)
	if response.StatusCode != expectedStatus {
		t.Fatalf("%s %s expected status %d, got %d: %s", method, path, expectedStatus, response.StatusCode, payload)
	}
	decoded := map[string]any{}
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &decoded); err != nil {
			t.Fatalf("%s %s decode body: %v (%s)", method, path, err, payload)
		}
	}
	return decoded
}

type testUser struct {
	ID    uint
	Token string
}

func (env *testEnv) register(t *testing.T, email string, displayName string) testUser {
	t.Helper()

	body := env.call(t, http.MethodPost, "/api/auth/register", "", fiber.Map{
		"email":        email,
		"password":     "StrongPass1",
		"display_name": displayName,
	}, http.StatusCreated)

	token, _ := body["token"].(string)
	if token == "" {
		t.Fatalf("expected token in register response: %#v", body)
	}
	user, _ := body["user"].(map[string]any)
	return testUser{ID: uint(numberField(t, user, "id")), Token: token}
}

func (env *testEnv) pair(t *testing.T, owner testUser, joiner testUser) uint {
	t.Helper()

	invite := env.call(t, http.MethodPost, "/api/couple/invite", owner.Token, nil, http.StatusOK)
	code, _ := invite["invite_code"].(string)
	if len(code) != 6 {
		t.Fatalf("expected 6 character invite code, got %q", code)
	}
	joined := env.call(t, http.MethodPost, "/api/couple/join", joiner.Token, fiber.Map{"invite_code": code}, http.StatusOK)
	return uint(numberField(t, joined, "couple_id"))
}

func numberField(t *testing.T, payload map[string]any, key string) float64 {
	t.Helper()
	value, ok := payload[key].(float64)
	if !ok {
		t.Fatalf("expected numeric %q in %#v", key, payload)
	}
	return value
}

func listField(t *testing.T, payload map[string]any, key string) []any {
	t.Helper()
	value, ok := payload[key].([]any)
	if !ok {
		t.Fatalf("expected list %q in %#v", key, payload)
	}
	return value
}

func readAPIError(t *testing.T, payload map[string]any) string {
	t.Helper()
	message, _ := payload["error"].(string)
	if message == "" {
		t.Fatalf("expected error message in %#v", payload)
	}
	return message
}
