package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type MockSQS struct {
	mock.Mock
}

func (m *MockSQS) SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*sqs.SendMessageOutput), args.Error(1)
}

type MockPush struct {
	mock.Mock
}

func (m *MockPush) PushEnabled() bool {
	return m.Called().Bool(0)
}

func (m *MockPush) SendPush(ctx context.Context, deviceToken, title, body string, data map[string]string) error {
	return m.Called(ctx, deviceToken, title, body, data).Error(0)
}

type MockTelegram struct {
	mock.Mock
}

func (m *MockTelegram) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	args := m.Called(c)
	return tgbotapi.Message{}, args.Error(0)
}

type failingChannel struct {
	name  string
	calls *[]string
	err   error
}

func (f failingChannel) Name() string { return f.name }

func (f failingChannel) Send(_ context.Context, _ Message) error {
	*f.calls = append(*f.calls, f.name)
	return f.err
}

func sampleContact() Contact {
	return Contact{ProfileID: uuid.New(), Name: "Ada", Email: "ada@example.com", FCMToken: "fcm-1", TelegramChatID: 4242}
}

func TestMultiDispatcher_RunsAllChannelsInOrder(t *testing.T) {
	var calls []string
	d := NewMultiDispatcher(zap.NewNop(),
		failingChannel{name: "a", calls: &calls},
		failingChannel{name: "b", calls: &calls, err: errors.New("boom")},
		failingChannel{name: "c", calls: &calls},
	)

	err := d.Notify(context.Background(), Message{To: sampleContact(), Subject: "s"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "b: boom")
	assert.Equal(t, []string{"a", "b", "c"}, calls)
	assert.Equal(t, []string{"a", "b", "c"}, d.Channels())
}

func TestSQSEmailChannel_Send(t *testing.T) {
	client := new(MockSQS)
	ch := NewSQSEmailChannel(client, "https://sqs.local/000/emails", zap.NewNop())
	msg := MatchMessage(sampleContact(), MatchDetails{ListingTitle: "Jollof Rice", Location: "Yaba", Score: 0.93, AppURL: "https://app.test"})

	client.On("SendMessage", mock.Anything, mock.MatchedBy(func(in *sqs.SendMessageInput) bool {
		if aws.ToString(in.QueueUrl) != "https://sqs.local/000/emails" {
			return false
		}
		var payload emailPayload
		if err := json.Unmarshal([]byte(aws.ToString(in.MessageBody)), &payload); err != nil {
			return false
		}
		return payload.To == "ada@example.com" && payload.Subject == "New Food Available: Jollof Rice" && payload.HTML != ""
	})).Return(&sqs.SendMessageOutput{MessageId: aws.String("m-1")}, nil).Once()

	require.NoError(t, ch.Send(context.Background(), msg))
	client.AssertExpectations(t)
}

func TestSQSEmailChannel_SkipsContactWithoutEmail(t *testing.T) {
	client := new(MockSQS)
	ch := NewSQSEmailChannel(client, "q", zap.NewNop())
	to := sampleContact()
	to.Email = ""

	require.NoError(t, ch.Send(context.Background(), Message{To: to}))
	client.AssertNotCalled(t, "SendMessage", mock.Anything, mock.Anything)
}

func TestPushChannel(t *testing.T) {
	push := new(MockPush)
	push.On("PushEnabled").Return(true)
	push.On("SendPush", mock.Anything, "fcm-1", "subject", "body", map[string]string(nil)).Return(nil).Once()
	ch := NewPushChannel(push)

	require.NoError(t, ch.Send(context.Background(), Message{To: sampleContact(), Subject: "subject", Body: "body"}))

	noToken := sampleContact()
	noToken.FCMToken = ""
	require.NoError(t, ch.Send(context.Background(), Message{To: noToken, Subject: "subject", Body: "body"}))
	push.AssertNumberOfCalls(t, "SendPush", 1)
}

func TestTelegramChannel(t *testing.T) {
	bot := new(MockTelegram)
	bot.On("Send", mock.MatchedBy(func(c tgbotapi.Chattable) bool {
		m, ok := c.(tgbotapi.MessageConfig)
		return ok && m.ChatID == 4242 && m.Text == "subject\n\nbody"
	})).Return(nil).Once()
	ch := NewTelegramChannel(bot)

	require.NoError(t, ch.Send(context.Background(), Message{To: sampleContact(), Subject: "subject", Body: "body"}))

	bot.On("Send", mock.Anything).Return(errors.New("forbidden")).Once()
	err := ch.Send(context.Background(), Message{To: sampleContact(), Subject: "subject", Body: "body"})
	assert.Error(t, err)
}

func TestMatchMessage(t *testing.T) {
	msg := MatchMessage(sampleContact(), MatchDetails{
		ListingID:    "l-1",
		ListingTitle: "Fresh Bread",
		Location:     "Surulere",
		Score:        0.954,
		Reasoning:    "Same neighborhood.",
		AppURL:       "https://shareaplate.test/",
	})

	assert.Equal(t, "New Food Available: Fresh Bread", msg.Subject)
	assert.Contains(t, msg.Body, "95% match.")
	assert.Contains(t, msg.Body, "Same neighborhood.")
	assert.Contains(t, msg.Body, "https://shareaplate.test/dashboard")
	assert.Contains(t, msg.HTMLBody, "Hi Ada")
	assert.Equal(t, "95", msg.Data["match_score"])
	assert.Equal(t, "l-1", msg.Data["listing_id"])
}

func TestMatchMessage_EscapesHTML(t *testing.T) {
	msg := MatchMessage(Contact{}, MatchDetails{ListingTitle: "<b>Rice</b>", Score: 0.8})
	assert.NotContains(t, msg.HTMLBody, "<b>Rice</b>")
	assert.Contains(t, msg.HTMLBody, "Hi there")
	assert.Contains(t, msg.Body, "your area")
}
