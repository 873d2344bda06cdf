package firebase

import (
	"context"
	"fmt"
	"path/filepath"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"firebase.google.com/go/v4/messaging"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"shareaplate_backend/internal/config"
)

// FirebaseService wraps the Admin SDK clients: ID token verification for
// authentication and Cloud Messaging for push notifications.
type FirebaseService struct {
	authClient      *auth.Client
	messagingClient *messaging.Client
	logger          *zap.Logger
}

// NewFirebaseService initializes the Firebase Admin SDK and creates a new FirebaseService.
func NewFirebaseService(cfg *config.Config, logger *zap.Logger) (*FirebaseService, error) {
	if cfg.FirebaseServiceAccountKeyPath == "" {
		return nil, fmt.Errorf("firebase service account key path is required")
	}

	opt := option.WithCredentialsFile(filepath.Clean(cfg.FirebaseServiceAccountKeyPath))

	var conf *firebase.Config
	if cfg.FirebaseProjectID != "" {
		conf = &firebase.Config{ProjectID: cfg.FirebaseProjectID}
	}

	ctx := context.Background()
	app, err := firebase.NewApp(ctx, conf, opt)
	if err != nil {
		logger.Error("Failed to initialize Firebase Admin SDK app", zap.Error(err))
		return nil, fmt.Errorf("error initializing Firebase app: %w", err)
	}

	authClient, err := app.Auth(ctx)
	if err != nil {
		logger.Error("Failed to get Firebase Auth client", zap.Error(err))
		return nil, fmt.Errorf("error getting Firebase Auth client: %w", err)
	}

	svc := &FirebaseService{authClient: authClient, logger: logger.Named("firebase")}

	if cfg.FirebasePushEnabled {
		messagingClient, err := app.Messaging(ctx)
		if err != nil {
			logger.Error("Failed to get Firebase Messaging client", zap.Error(err))
			return nil, fmt.Errorf("error getting Firebase Messaging client: %w", err)
		}
		svc.messagingClient = messagingClient
	}

	logger.Info("Firebase Admin SDK initialized successfully.", zap.Bool("push_enabled", svc.messagingClient != nil))
	return svc, nil
}

// VerifyIDToken verifies a Firebase ID token and returns the token claims.
func (s *FirebaseService) VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error) {
	if idToken == "" {
		return nil, fmt.Errorf("ID token must not be empty")
	}

	token, err := s.authClient.VerifyIDToken(ctx, idToken)
	if err != nil {
		s.logger.Warn("Firebase ID token verification failed", zap.Error(err))
		return nil, fmt.Errorf("failed to verify Firebase ID token: %w", err)
	}
	return token, nil
}

// PushEnabled reports whether SendPush can deliver.
func (s *FirebaseService) PushEnabled() bool {
	return s.messagingClient != nil
}

// SendPush delivers a notification to one device registration token.
func (s *FirebaseService) SendPush(ctx context.Context, deviceToken, title, body string, data map[string]string) error {
	if s.messagingClient == nil {
		return fmt.Errorf("firebase messaging is not enabled")
	}
	id, err := s.messagingClient.Send(ctx, &messaging.Message{
		Token: deviceToken,
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
		Data: data,
	})
	if err != nil {
		return fmt.Errorf("fcm send: %w", err)
	}
	s.logger.Debug("Push notification sent", zap.String("message_id", id))
	return nil
}
