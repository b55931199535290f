package middleware

import "context"

type contextKey string

const (
	ctxAccessID   contextKey = "access_id"
	ctxSessionID  contextKey = "session_id"
	ctxCustomerID contextKey = "customer_id"
	ctxGuest      contextKey = "guest"
)

func AccessIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxAccessID).(string); ok {
		return v
	}
	return ""
}

func SessionIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxSessionID).(string); ok {
		return v
	}
	return ""
}

func CustomerIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxCustomerID).(string); ok {
		return v
	}
	return ""
}

func IsGuestFromContext(ctx context.Context) bool {
	if ctx == nil {
		return true
	}
	if v, ok := ctx.Value(ctxGuest).(bool); ok {
		return v
	}
	return true
}

// WithSessionIdentity seeds the context the way the session middleware does;
// handler tests use it to simulate an authenticated request.
func WithSessionIdentity(ctx context.Context, accessID, sessionID, customerID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = context.WithValue(ctx, ctxAccessID, accessID)
	ctx = context.WithValue(ctx, ctxSessionID, sessionID)
	if customerID != "" {
		ctx = context.WithValue(ctx, ctxCustomerID, customerID)
		ctx = context.WithValue(ctx, ctxGuest, false)
	} else {
		ctx = context.WithValue(ctx, ctxGuest, true)
	}
	return ctx
}
