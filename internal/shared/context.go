package shared

import (
	"context"

	"github.com/hydrospark/hydrodash/internal/hydro"
)

type sessionContextKey struct{}

type credentialContextKey struct{}

// ContextWithSession stores the session in context.
func ContextWithSession(ctx context.Context, sess *Session) context.Context {
	return context.WithValue(ctx, sessionContextKey{}, sess)
}

// SessionFromContext extracts the session from context.
func SessionFromContext(ctx context.Context) *Session {
	sess, _ := ctx.Value(sessionContextKey{}).(*Session)
	return sess
}

// ContextWithCredential stores the caller's backend credential in context.
func ContextWithCredential(ctx context.Context, cred hydro.Credential) context.Context {
	return context.WithValue(ctx, credentialContextKey{}, cred)
}

// CredentialFromContext returns the credential placed by the auth guard.
func CredentialFromContext(ctx context.Context) (hydro.Credential, bool) {
	cred, ok := ctx.Value(credentialContextKey{}).(hydro.Credential)
	return cred, ok && cred.Valid()
}
