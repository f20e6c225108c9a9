package httpd

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/sheets-relay/sheets-relay/remote"
)

func (s *Server) signIn(w http.ResponseWriter, r *http.Request) {
	state := s.sessions.NewState(w)

	http.Redirect(w, r, s.provider.AuthCodeURL(state), http.StatusFound)
}

// callback completes the sign-in. Every failure, including the user denying consent,
// redirects to the failure page.
func (s *Server) callback(w http.ResponseWriter, r *http.Request) {
	failed := func(reason string, args ...any) {
		slog.Warn("sign-in failed", append([]any{"reason", reason, "request", requestIDOf(r)}, args...)...)
		http.Redirect(w, r, s.config.FailureURL, http.StatusFound)
	}

	if err := s.sessions.CheckState(w, r); err != nil {
		failed("state", "error", err)
		return
	}

	query := r.URL.Query()

	if e := query.Get("error"); e != "" {
		failed("denied", "error", e)
		return
	}

	code := query.Get("code")
	if blank(code) {
		failed("missing code")
		return
	}

	credentials, err := s.provider.Exchange(context.WithoutCancel(r.Context()), code)
	if err != nil {
		failed("exchange", "error", remote.MessageOf(err))
		return
	}

	if err := s.sessions.Issue(w, *credentials); err != nil {
		failed("session", "error", err)
		return
	}

	slog.Info("signed in", "user", credentials.Identity(), "request", requestIDOf(r))

	http.Redirect(w, r, s.config.HomeURL, http.StatusFound)
}

func (s *Server) check(w http.ResponseWriter, r *http.Request) {
	credentials, err := s.sessions.Read(r)
	if err != nil {
		s.writeJSON(w, envelop{"isAuthenticated": false}, http.StatusOK, nil)
		return
	}

	s.writeJSON(w, envelop{"isAuthenticated": true, "user": credentials.User()}, http.StatusOK, nil)
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	s.sessions.Clear(w)

	s.writeJSON(w, envelop{"message": "Logged out successfully"}, http.StatusOK, nil)
}
