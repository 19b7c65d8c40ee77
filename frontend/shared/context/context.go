package context

import (
	"context"

	"queueboard/models"
)

type sessionKey struct{}
type visitorKey struct{}
type newVisitorKey struct{}

func NewContextWithSession(ctx context.Context, session models.Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, session)
}

func GetSessionFromContext(ctx context.Context) (models.Session, bool) {
	s, ok := ctx.Value(sessionKey{}).(models.Session)
	return s, ok
}

// NewContextWithVisitor stores the anonymous visitor ID set by the visitor
// cookie middleware.
func NewContextWithVisitor(ctx context.Context, visitorID string) context.Context {
	return context.WithValue(ctx, visitorKey{}, visitorID)
}

func GetVisitorFromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(visitorKey{}).(string)
	return v, ok && v != ""
}

// NewContextWithNewVisitor marks the visitor as one whose cookie was issued by
// this request. Such visitors get no background polling until they come back.
func NewContextWithNewVisitor(ctx context.Context) context.Context {
	return context.WithValue(ctx, newVisitorKey{}, true)
}

func IsNewVisitor(ctx context.Context) bool {
	v, _ := ctx.Value(newVisitorKey{}).(bool)
	return v
}
