package dispatch

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// SQSSender is the part of *sqs.Client used for email delivery.
type SQSSender interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

// emailPayload is the JSON document the mailer worker consumes.
type emailPayload struct {
	To      string            `json:"to"`
	Name    string            `json:"name,omitempty"`
	Subject string            `json:"subject"`
	Text    string            `json:"text"`
	HTML    string            `json:"html,omitempty"`
	Data    map[string]string `json:"data,omitempty"`
}

// SQSEmailChannel enqueues emails for an external mailer.
type SQSEmailChannel struct {
	client   SQSSender
	queueURL string
	logger   *zap.Logger
}

func NewSQSEmailChannel(client SQSSender, queueURL string, logger *zap.Logger) *SQSEmailChannel {
	return &SQSEmailChannel{client: client, queueURL: queueURL, logger: logger.Named("dispatch_email")}
}

func (c *SQSEmailChannel) Name() string { return "email" }

func (c *SQSEmailChannel) Send(ctx context.Context, msg Message) error {
	if msg.To.Email == "" {
		return nil
	}
	body, err := json.Marshal(emailPayload{
		To:      msg.To.Email,
		Name:    msg.To.Name,
		Subject: msg.Subject,
		Text:    msg.Body,
		HTML:    msg.HTMLBody,
		Data:    msg.Data,
	})
	if err != nil {
		return fmt.Errorf("encode email: %w", err)
	}
	out, err := c.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(c.queueURL),
		MessageBody: aws.String(string(body)),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"kind": {DataType: aws.String("String"), StringValue: aws.String("email")},
		},
	})
	if err != nil {
		return fmt.Errorf("enqueue email: %w", err)
	}
	c.logger.Debug("Email enqueued", zap.String("messageID", aws.ToString(out.MessageId)))
	return nil
}

// PushSender delivers a push notification to one device.
type PushSender interface {
	PushEnabled() bool
	SendPush(ctx context.Context, deviceToken, title, body string, data map[string]string) error
}

// PushChannel sends Firebase Cloud Messaging notifications.
type PushChannel struct {
	sender PushSender
}

func NewPushChannel(sender PushSender) *PushChannel {
	return &PushChannel{sender: sender}
}

func (c *PushChannel) Name() string { return "push" }

func (c *PushChannel) Send(ctx context.Context, msg Message) error {
	if msg.To.FCMToken == "" || !c.sender.PushEnabled() {
		return nil
	}
	return c.sender.SendPush(ctx, msg.To.FCMToken, msg.Subject, msg.Body, msg.Data)
}

// TelegramSender is the part of *tgbotapi.BotAPI used here.
type TelegramSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramChannel messages profiles that linked a Telegram chat.
type TelegramChannel struct {
	bot TelegramSender
}

func NewTelegramChannel(bot TelegramSender) *TelegramChannel {
	return &TelegramChannel{bot: bot}
}

func (c *TelegramChannel) Name() string { return "telegram" }

func (c *TelegramChannel) Send(_ context.Context, msg Message) error {
	if msg.To.TelegramChatID == 0 {
		return nil
	}
	out := tgbotapi.NewMessage(msg.To.TelegramChatID, msg.Subject+"\n\n"+msg.Body)
	out.DisableWebPagePreview = true
	if _, err := c.bot.Send(out); err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}
	return nil
}
