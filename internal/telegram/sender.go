package telegram

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-telegram/bot"
	"github.com/sony/gobreaker"
	"github.com/terraincognita07/tandem/internal/logging"
	"github.com/terraincognita07/tandem/internal/models"
	"github.com/terraincognita07/tandem/internal/services"
	"go.uber.org/zap"
)

var ErrNoChat = fmt.Errorf("recipient has no telegram chat: %w", services.ErrOfflineUnreachable)

type messageSender interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) error
}

type botSender struct {
	bot *bot.Bot
}

func (sender botSender) SendMessage(ctx context.Context, params *bot.SendMessageParams) error {
	_, err := sender.bot.SendMessage(ctx, params)
	return err
}

type BreakerSettings struct {
	MaxRequests uint32
	Interval    time.Duration
	Timeout     time.Duration
	MinRequests uint32
	// FailureRatio trips the breaker once MinRequests have been seen.
	FailureRatio float64
}

func DefaultBreakerSettings() BreakerSettings {
	return BreakerSettings{
		MaxRequests:  1,
		Interval:     time.Minute,
		Timeout:      30 * time.Second,
		MinRequests:  5,
		FailureRatio: 0.6,
	}
}

// Sender delivers notifications to recipients who are not connected. It
// never touches the ledger; a failed send is only reported.
type Sender struct {
	messages messageSender
	breaker  *gobreaker.CircuitBreaker
	logger   *zap.Logger
}

func New(token string, logger *zap.Logger) (*Sender, error) {
	client, err := bot.New(token, bot.WithSkipGetMe())
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}
	return newSender(botSender{bot: client}, DefaultBreakerSettings(), logger), nil
}

func newSender(messages messageSender, settings BreakerSettings, logger *zap.Logger) *Sender {
	logger = logging.OrNop(logger).Named("telegram")
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "telegram",
		MaxRequests: settings.MaxRequests,
		Interval:    settings.Interval,
		Timeout:     settings.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < settings.MinRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= settings.FailureRatio
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})
	return &Sender{messages: messages, breaker: breaker, logger: logger}
}

func FormatMessage(notification models.Notification) string {
	title := strings.TrimSpace(notification.Title)
	content := strings.TrimSpace(notification.Content)
	icon := models.NotificationIcon(notification.Type)
	if content == "" {
		return icon + " " + title
	}
	return icon + " " + title + "\n" + content
}

func (sender *Sender) Deliver(ctx context.Context, recipient models.User, notification models.Notification) error {
	if recipient.TelegramChatID == 0 {
		return ErrNoChat
	}

	_, err := sender.breaker.Execute(func() (any, error) {
		return nil, sender.messages.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: recipient.TelegramChatID,
			Text:   FormatMessage(notification),
		})
	})
	if err != nil {
		return fmt.Errorf("telegram delivery of notification %d: %w", notification.ID, err)
	}
	sender.logger.Debug("notification delivered via telegram",
		zap.Uint("user_id", recipient.ID),
		zap.Uint("notification_id", notification.ID),
	)
	return nil
}
