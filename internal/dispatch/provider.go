package dispatch

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/sqs"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"shareaplate_backend/internal/config"
	"shareaplate_backend/internal/firebase"
	platformAWS "shareaplate_backend/internal/platform/aws"
)

// NewTelegramBot returns nil when no bot token is configured.
func NewTelegramBot(cfg *config.Config, logger *zap.Logger) (*tgbotapi.BotAPI, error) {
	if cfg.TelegramBotToken == "" {
		logger.Info("TELEGRAM_BOT_TOKEN not set; Telegram notifications are disabled")
		return nil, nil
	}
	bot, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create Telegram bot: %w", err)
	}
	logger.Info("Telegram bot authorized", zap.String("username", bot.Self.UserName))
	return bot, nil
}

// NewDispatcher assembles the channels that are configured. The log channel
// is always present.
func NewDispatcher(
	ctx context.Context,
	cfg *config.Config,
	sqsClient *sqs.Client,
	fb *firebase.FirebaseService,
	bot *tgbotapi.BotAPI,
	logger *zap.Logger,
) (Dispatcher, error) {
	channels := []Channel{NewLogChannel(logger)}

	if sqsClient != nil {
		queueURL, err := platformAWS.QueueURL(ctx, sqsClient, cfg.SQSEmailQueueName)
		if err != nil {
			return nil, err
		}
		channels = append(channels, NewSQSEmailChannel(sqsClient, queueURL, logger))
	}
	if fb != nil && fb.PushEnabled() {
		channels = append(channels, NewPushChannel(fb))
	}
	if bot != nil {
		channels = append(channels, NewTelegramChannel(bot))
	}

	d := NewMultiDispatcher(logger, channels...)
	logger.Info("Notification dispatcher ready", zap.Strings("channels", d.Channels()))
	return d, nil
}
