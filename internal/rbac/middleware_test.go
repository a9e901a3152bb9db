package rbac

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/diarydesk/diarydesk/internal/shared"
)

type staticResolver map[string][]string

func (s staticResolver) EffectivePermissions(_ context.Context, username string) ([]string, error) {
	if username == "broken" {
		return nil, errors.New("policy unavailable")
	}
	return s[username], nil
}

func serveAs(user string, mw func(http.Handler) http.Handler) int {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if user != "" {
		req = req.WithContext(shared.ContextWithPrincipal(req.Context(), shared.Principal{Username: user}))
	}
	rec := httptest.NewRecorder()
	mw(ok).ServeHTTP(rec, req)
	return rec.Code
}

func TestRequireAny(t *testing.T) {
	m := Middleware{Service: staticResolver{
		"clerk": {"diary.edit"},
		"admin": {Wildcard},
	}}
	mw := m.RequireAny(shared.PermDiaryEdit, shared.PermDiaryDelete)

	assert.Equal(t, http.StatusNoContent, serveAs("clerk", mw))
	assert.Equal(t, http.StatusNoContent, serveAs("admin", mw))
	assert.Equal(t, http.StatusForbidden, serveAs("guest", mw))
	assert.Equal(t, http.StatusUnauthorized, serveAs("", mw))
	assert.Equal(t, http.StatusInternalServerError, serveAs("broken", mw))
}

func TestRequireAll(t *testing.T) {
	m := Middleware{Service: staticResolver{
		"clerk": {"diary.edit"},
		"head":  {"diary.edit", "diary.delete"},
	}}
	mw := m.RequireAll(shared.PermDiaryEdit, shared.PermDiaryDelete)

	assert.Equal(t, http.StatusForbidden, serveAs("clerk", mw))
	assert.Equal(t, http.StatusNoContent, serveAs("head", mw))
}

func TestRequireNothingPassesThrough(t *testing.T) {
	m := Middleware{Service: staticResolver{}}
	assert.Equal(t, http.StatusNoContent, serveAs("", m.RequireAny("  ")))
}
