package shared

import (
	"strings"

	"github.com/hydrospark/hydrodash/internal/hydro"
)

// Session keys holding the backend credential.
const (
	sessionTokenKey = "auth.token"
	sessionRoleKey  = "auth.role"
	sessionEmailKey = "auth.email"
)

// StoreCredential attaches a backend credential to the session.
func StoreCredential(sess *Session, cred hydro.Credential) {
	if sess == nil {
		return
	}
	sess.Set(sessionTokenKey, cred.Token)
	sess.Set(sessionRoleKey, string(cred.Role))
	sess.Set(sessionEmailKey, cred.Email)
	sess.SetUser(cred.UserID)
}

// CredentialFromSession reads the credential stored by StoreCredential.
func CredentialFromSession(sess *Session) (hydro.Credential, bool) {
	if sess == nil {
		return hydro.Credential{}, false
	}
	cred := hydro.Credential{
		Token:  sess.Get(sessionTokenKey),
		Role:   hydro.Role(strings.ToLower(sess.Get(sessionRoleKey))),
		UserID: sess.User(),
		Email:  sess.Get(sessionEmailKey),
	}
	return cred, cred.Valid()
}

// ClearCredential signs the session out of the backend.
func ClearCredential(sess *Session) {
	if sess == nil {
		return
	}
	sess.Delete(sessionTokenKey)
	sess.Delete(sessionRoleKey)
	sess.Delete(sessionEmailKey)
	sess.SetUser("")
}
