// pkg/middleware/context_utils.go
package middleware

import (
	"context"

	"deposit-service/pkg/jwtutil"
)

type contextKey string

const (
	ContextUserID    contextKey = "userID"
	ContextRole      contextKey = "role"
	ContextUserType  contextKey = "userType"
	ContextRequestID contextKey = "requestID"
)

func GetUserID(ctx context.Context) (string, bool) {
	val, ok := ctx.Value(ContextUserID).(string)
	return val, ok && val != ""
}

func GetRole(ctx context.Context) (string, bool) {
	val, ok := ctx.Value(ContextRole).(string)
	return val, ok && val != ""
}

func GetRequestID(ctx context.Context) string {
	val, _ := ctx.Value(ContextRequestID).(string)
	return val
}

// WithClaims stores the authenticated identity on ctx
func WithClaims(ctx context.Context, claims *jwtutil.Claims) context.Context {
	ctx = context.WithValue(ctx, ContextUserID, claims.UserID)
	ctx = context.WithValue(ctx, ContextRole, claims.Role)
	ctx = context.WithValue(ctx, ContextUserType, claims.UserType)
	return ctx
}
