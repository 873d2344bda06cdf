// File: internal/common/context_keys.go
package common

const (
	// AuthorizationHeader is the header name for authorization token
	AuthorizationHeader = "Authorization"
	// AuthorizationTypeBearer is the prefix for Bearer tokens
	AuthorizationTypeBearer = "Bearer"
	// UserIDKey is the context key for storing the authenticated profile ID
	UserIDKey = "userID"
	// UserRoleKey is the context key for storing the authenticated user's role
	UserRoleKey = "userRole"
	// FirebaseUIDKey is the context key for storing the Firebase UID
	FirebaseUIDKey = "firebaseUID"
	// LoggerKey holds a request scoped *zap.Logger
	LoggerKey = "logger"
	// RequestIDKey holds the X-Request-ID value
	RequestIDKey = "requestID"
)
