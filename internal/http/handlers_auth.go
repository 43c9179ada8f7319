package http

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"waist/internal/auth"
	"waist/internal/log"
	"waist/internal/storage"
)

const sessionCookie = "waist_session"

type userKey struct{}

func withUser(ctx context.Context, username string) context.Context {
	return context.WithValue(ctx, userKey{}, username)
}

// currentUser is empty outside authenticated routes.
func currentUser(ctx context.Context) string {
	username, _ := ctx.Value(userKey{}).(string)
	return username
}

// sessionUser validates the session cookie, if any.
func (s *Server) sessionUser(r *http.Request) (string, bool) {
	c, err := r.Cookie(sessionCookie)
	if err != nil || c.Value == "" {
		return "", false
	}
	username, err := s.tokens.ValidateSession(c.Value)
	if err != nil {
		return "", false
	}
	return username, true
}

// requireAuth redirects anonymous visitors to the login page.
func (s *Server) requireAuth(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		username, ok := s.sessionUser(r)
		if !ok {
			http.Redirect(w, r, "/login", http.StatusFound)
			return
		}
		ctx := withUser(r.Context(), username)
		ctx = log.NewContext(ctx, log.FromContext(ctx).With(log.FieldUsername, username))
		next(w, r.WithContext(ctx))
	})
}

func (s *Server) setSession(w http.ResponseWriter, username string) error {
	token, err := s.tokens.IssueSession(username)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(s.tokens.SessionTTL().Seconds()),
		HttpOnly: true,
		Secure:   s.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

func (s *Server) clearSession(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Server) handleSignupPage(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "signup.html", page{Title: "Sign up"})
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form", http.StatusBadRequest)
		return
	}
	username := sanitizeInput(r.PostForm.Get("username"))
	password := r.PostForm.Get("password")
	data := page{Title: "Sign up", Form: formValues{Username: username}}

	if username == "" {
		data.Error = auth.ErrEmptyUsername.Error()
		s.render(w, r, http.StatusUnprocessableEntity, "signup.html", data)
		return
	}
	if err := auth.ValidatePassword(password); err != nil {
		data.Error = err.Error()
		s.render(w, r, http.StatusUnprocessableEntity, "signup.html", data)
		return
	}

	err := s.credentials.CreateUser(r.Context(), username, password)
	switch {
	case errors.Is(err, storage.ErrUserExists):
		data.Error = "Username already exists"
		s.render(w, r, http.StatusConflict, "signup.html", data)
		return
	case err != nil:
		s.serverError(w, r, "Failed to create user", err, log.OpCreate)
		return
	}

	log.FromContext(r.Context()).WithComponent(log.ComponentAuth).InfoContext(r.Context(), "User signed up",
		log.FieldUsername, username)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.sessionUser(r); ok {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}
	s.render(w, r, http.StatusOK, "login.html", page{Title: "Log in"})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form", http.StatusBadRequest)
		return
	}
	username := sanitizeInput(r.PostForm.Get("username"))
	password := r.PostForm.Get("password")

	ok, err := s.credentials.Verify(r.Context(), username, password)
	if err != nil {
		s.serverError(w, r, "Failed to verify credentials", err, log.OpRead)
		return
	}
	if !ok {
		log.FromContext(r.Context()).WithComponent(log.ComponentAuth).WarnContext(r.Context(), "Login rejected",
			log.FieldUsername, username)
		s.render(w, r, http.StatusUnauthorized, "login.html", page{
			Title: "Log in",
			Error: "Invalid username or password",
			Form:  formValues{Username: username},
		})
		return
	}

	if err := s.setSession(w, username); err != nil {
		s.serverError(w, r, "Failed to issue session", err, log.OpCreate)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.clearSession(w)
	http.Redirect(w, r, "/login", http.StatusFound)
}

func (s *Server) handleForgotPasswordPage(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "forgot_password.html", page{Title: "Forgot password"})
}

// handleForgotPassword hands out a signed, short-lived reset link. There is
// no mail delivery, so the link is shown on the page.
func (s *Server) handleForgotPassword(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form", http.StatusBadRequest)
		return
	}
	username := sanitizeInput(r.PostForm.Get("username"))
	data := page{Title: "Forgot password", Form: formValues{Username: username}}

	exists, err := s.credentials.UserExists(r.Context(), username)
	if err != nil {
		s.serverError(w, r, "Failed to look up user", err, log.OpRead)
		return
	}
	if !exists {
		data.Error = "No such user found."
		s.render(w, r, http.StatusNotFound, "forgot_password.html", data)
		return
	}

	token, err := s.tokens.IssueReset(username)
	if err != nil {
		s.serverError(w, r, "Failed to issue reset token", err, log.OpCreate)
		return
	}
	data.ResetLink = "/reset-password?token=" + url.QueryEscape(token)
	s.render(w, r, http.StatusOK, "forgot_password.html", data)
}

func (s *Server) handleResetPasswordPage(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if _, err := s.tokens.ValidateReset(token); err != nil {
		s.render(w, r, http.StatusBadRequest, "forgot_password.html", page{
			Title: "Forgot password",
			Error: "This reset link is invalid or has expired.",
		})
		return
	}
	s.render(w, r, http.StatusOK, "reset_password.html", page{Title: "Reset password", Token: token})
}

func (s *Server) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form", http.StatusBadRequest)
		return
	}
	token := r.PostForm.Get("token")
	password := r.PostForm.Get("password")

	username, err := s.tokens.ValidateReset(token)
	if err != nil {
		s.render(w, r, http.StatusBadRequest, "forgot_password.html", page{
			Title: "Forgot password",
			Error: "This reset link is invalid or has expired.",
		})
		return
	}
	if err := auth.ValidatePassword(password); err != nil {
		s.render(w, r, http.StatusUnprocessableEntity, "reset_password.html", page{
			Title: "Reset password",
			Token: token,
			Error: err.Error(),
		})
		return
	}

	if err := s.credentials.UpdatePassword(r.Context(), username, password); err != nil {
		s.serverError(w, r, "Failed to reset password", err, log.OpUpdate)
		return
	}
	log.FromContext(r.Context()).WithComponent(log.ComponentAuth).InfoContext(r.Context(), "Password reset",
		log.FieldUsername, username)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (s *Server) handleChangePasswordPage(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "change_password.html", page{Title: "Change password"})
}

func (s *Server) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form", http.StatusBadRequest)
		return
	}
	username := currentUser(r.Context())
	current := r.PostForm.Get("current_password")
	next := r.PostForm.Get("new_password")
	data := page{Title: "Change password"}

	if err := auth.ValidatePassword(next); err != nil {
		data.Error = err.Error()
		s.render(w, r, http.StatusUnprocessableEntity, "change_password.html", data)
		return
	}

	err := s.credentials.ChangePassword(r.Context(), username, current, next)
	switch {
	case errors.Is(err, auth.ErrWrongPassword):
		data.Error = "Current password is incorrect."
		s.render(w, r, http.StatusForbidden, "change_password.html", data)
		return
	case err != nil:
		s.serverError(w, r, "Failed to change password", err, log.OpUpdate)
		return
	}

	data.Message = "Password changed successfully!"
	s.render(w, r, http.StatusOK, "change_password.html", data)
}
