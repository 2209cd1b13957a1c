package controllers

import (
	"net/http"

	"github.com/massaviva/massaviva-backend/api/responses"
	"github.com/massaviva/massaviva-backend/api/validators"
	"github.com/massaviva/massaviva-backend/internal/identity"
	"github.com/massaviva/massaviva-backend/pkg/errors"
	"github.com/massaviva/massaviva-backend/pkg/logger"
)

type sessionStartRequest struct {
	UID string `json:"uid" validate:"required,min=1,max=128"`
}

type sessionView struct {
	Authenticated bool   `json:"authenticated"`
	UID           string `json:"uid,omitempty"`
}

// SessionStart binds the device to an identity. The upstream auth service
// verifies credentials before this endpoint is reached; here only the
// resulting uid matters, because it selects the cart mirror to sync with.
func SessionStart(ids *identity.MemoryProvider, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if ids == nil {
			responses.WriteError(r.Context(), logg, w, errors.New(errors.CodeInternal, "identity provider unavailable"))
			return
		}

		var body sessionStartRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ids.SignIn(body.UID)

		if logg != nil {
			logg.Info(logg.WithUserID(r.Context(), body.UID), "session.start")
		}
		responses.WriteSuccess(w, sessionView{Authenticated: true, UID: body.UID})
	}
}

// SessionEnd signs the device out. Idempotent.
func SessionEnd(ids *identity.MemoryProvider, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if ids == nil {
			responses.WriteError(r.Context(), logg, w, errors.New(errors.CodeInternal, "identity provider unavailable"))
			return
		}

		ids.SignOut()

		if logg != nil {
			logg.Info(r.Context(), "session.end")
		}
		responses.WriteSuccess(w, sessionView{Authenticated: false})
	}
}

// SessionCurrent reports the signed-in identity, if any.
func SessionCurrent(ids identity.Provider, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if ids == nil {
			responses.WriteError(r.Context(), logg, w, errors.New(errors.CodeInternal, "identity provider unavailable"))
			return
		}

		view := sessionView{}
		if id := ids.Current(); id != nil {
			view.Authenticated = true
			view.UID = id.UID
		}
		responses.WriteSuccess(w, view)
	}
}
