package api

import (
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/terraincognita07/tandem/internal/logging"
	"github.com/terraincognita07/tandem/internal/realtime"
	"github.com/terraincognita07/tandem/internal/services"
	"go.uber.org/zap"
)

const (
	authTokenTTL      = 30 * 24 * time.Hour
	loginAttemptLimit = 8
	loginWindow       = 15 * time.Minute
)

// Services groups the collaborators the HTTP surface dispatches to.
type Services struct {
	Auth          *services.AuthService
	Couples       *services.CoupleService
	Questions     *services.QuestionService
	Assignments   *services.AssignmentService
	Answers       *services.AnswerService
	Notifications *services.NotificationService
	Moods         *services.MoodService
	Memories      *services.MemoryService
	DDays         *services.DDayService
}

// LanguageResolver picks the stored language of a new account.
type LanguageResolver interface {
	NormalizeLanguage(raw string) string
	DetectFromAcceptLanguage(raw string) string
}

type Options struct {
	SecretKey    string
	Location     *time.Location
	CookieSecure bool
	Languages    LanguageResolver
	Hub          *realtime.Hub
	Metrics      *realtime.Metrics
	Logger       *zap.Logger
}

type Handler struct {
	secretKey    []byte
	location     *time.Location
	cookieSecure bool
	logger       *zap.Logger
	validate     *validator.Validate
	loginLimiter *attemptLimiter
	languages    LanguageResolver
	now          func() time.Time

	authService         *services.AuthService
	coupleService       *services.CoupleService
	questionService     *services.QuestionService
	assignmentService   *services.AssignmentService
	answerService       *services.AnswerService
	notificationService *services.NotificationService
	moodService         *services.MoodService
	memoryService       *services.MemoryService
	ddayService         *services.DDayService

	hub     *realtime.Hub
	metrics *realtime.Metrics
}

func NewHandler(deps Services, options Options) (*Handler, error) {
	if strings.TrimSpace(options.SecretKey) == "" {
		return nil, errors.New("secret key is required")
	}
	if deps.Auth == nil || deps.Couples == nil || deps.Questions == nil || deps.Assignments == nil ||
		deps.Answers == nil || deps.Notifications == nil || deps.Moods == nil || deps.Memories == nil || deps.DDays == nil {
		return nil, errors.New("all services are required")
	}
	if options.Hub == nil {
		return nil, errors.New("realtime hub is required")
	}

	location := options.Location
	if location == nil {
		location = time.UTC
	}

	return &Handler{
		secretKey:           []byte(options.SecretKey),
		location:            location,
		cookieSecure:        options.CookieSecure,
		logger:              logging.OrNop(options.Logger).Named("api"),
		validate:            newRequestValidator(),
		loginLimiter:        newAttemptLimiter(),
		languages:           options.Languages,
		now:                 time.Now,
		authService:         deps.Auth,
		coupleService:       deps.Couples,
		questionService:     deps.Questions,
		assignmentService:   deps.Assignments,
		answerService:       deps.Answers,
		notificationService: deps.Notifications,
		moodService:         deps.Moods,
		memoryService:       deps.Memories,
		ddayService:         deps.DDays,
		hub:                 options.Hub,
		metrics:             options.Metrics,
	}, nil
}
