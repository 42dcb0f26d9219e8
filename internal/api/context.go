package api

import (
	"context"

	"tourvisto/internal/session"
)

type ctxKey string

const (
	ctxKeySession   ctxKey = "session"
	ctxKeyToken     ctxKey = "session_token"
	ctxKeyIdentity  ctxKey = "identity"
	ctxKeyRequestID ctxKey = "request_id"
)

func WithSession(ctx context.Context, s session.Session, token string) context.Context {
	ctx = context.WithValue(ctx, ctxKeySession, s)
	return context.WithValue(ctx, ctxKeyToken, token)
}

// SessionFromContext never returns nil; requests outside SessionAuth are anonymous.
func SessionFromContext(ctx context.Context) session.Session {
	s, _ := ctx.Value(ctxKeySession).(session.Session)
	if s == nil {
		return session.Anonymous{}
	}
	return s
}

func SessionTokenFromContext(ctx context.Context) string {
	t, _ := ctx.Value(ctxKeyToken).(string)
	return t
}

func WithIdentity(ctx context.Context, id *session.Identity) context.Context {
	return context.WithValue(ctx, ctxKeyIdentity, id)
}

func IdentityFromContext(ctx context.Context) *session.Identity {
	id, _ := ctx.Value(ctxKeyIdentity).(*session.Identity)
	return id
}

func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(ctxKeyRequestID).(string)
	return id
}
