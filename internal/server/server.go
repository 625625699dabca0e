package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"pngconverter/internal/app"
	"pngconverter/internal/util"
	"pngconverter/pkg/domain"
)

const sessionCookieName = "session_token"

// Config wires required dependencies for the HTTP server.
type Config struct {
	App *app.App
}

// Server exposes the credential service HTTP endpoints.
type Server struct {
	app *app.App
	mux *http.ServeMux
}

// New constructs the server with routes configured.
func New(cfg Config) *Server {
	s := &Server{
		app: cfg.App,
		mux: http.NewServeMux(),
	}
	s.routes()
	return s
}

// Router returns the configured handler with middleware applied.
func (s *Server) Router() http.Handler {
	return util.WithRequestID(util.WithRequestLog(util.WithCORS(s.mux)))
}

func (s *Server) routes() {
	s.mux.HandleFunc("/healthz", s.handleHealth)

	s.mux.HandleFunc("/api/auth/register", s.handleRegister)
	s.mux.HandleFunc("/api/auth/login", s.handleLogin)
	s.mux.HandleFunc("/api/auth/logout", s.handleLogout)
	s.mux.HandleFunc("/api/auth/check", s.handleCheck)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req registerRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := s.app.Register(req.Username, req.Email, req.Password); err != nil {
		writeAppError(w, r, err, "Registration failed")
		return
	}
	writeJSON(w, http.StatusOK, apiResponse{
		Success: true,
		Message: "User registered successfully",
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req loginRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	user, token, err := s.app.Login(req.Email, req.Password)
	if err != nil {
		writeAppError(w, r, err, "Login failed")
		return
	}
	setSessionCookie(w, token)
	writeJSON(w, http.StatusOK, apiResponse{
		Success: true,
		Message: "Login successful",
		User:    &user,
	})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	if err := s.app.Logout(sessionToken(r)); err != nil {
		util.LoggerFromContext(r.Context()).Error("logout failed", "err", err)
	}
	clearSessionCookie(w)
	writeJSON(w, http.StatusOK, apiResponse{
		Success: true,
		Message: "Logged out successfully",
	})
}

func (s *Server) handleCheck(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	user, loggedIn, err := s.app.CheckSession(sessionToken(r))
	if err != nil {
		util.LoggerFromContext(r.Context()).Error("session check failed", "err", err)
		writeError(w, http.StatusBadRequest, "Session check failed")
		return
	}
	resp := checkResponse{Success: true, LoggedIn: loggedIn}
	if loggedIn {
		resp.User = &user
	}
	writeJSON(w, http.StatusOK, resp)
}

func methodNotAllowed(w http.ResponseWriter) {
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}

// userFacing lists the app errors whose messages are safe to return to
// clients. Anything else gets the handler's generic fallback while the cause
// stays in the server log.
var userFacing = []error{
	app.ErrFieldsRequired,
	app.ErrInvalidEmail,
	app.ErrPasswordTooShort,
	app.ErrEmailTaken,
	app.ErrUsernameTaken,
	app.ErrEmailAndPasswordRequired,
	app.ErrInvalidCredentials,
}

func writeAppError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	for _, known := range userFacing {
		if errors.Is(err, known) {
			writeError(w, http.StatusBadRequest, known.Error())
			return
		}
	}
	util.LoggerFromContext(r.Context()).Error("request failed", "path", r.URL.Path, "err", err)
	writeError(w, http.StatusBadRequest, fallback)
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type apiResponse struct {
	Success bool         `json:"success"`
	Message string       `json:"message,omitempty"`
	User    *domain.User `json:"user,omitempty"`
}

type checkResponse struct {
	Success  bool         `json:"success"`
	LoggedIn bool         `json:"logged_in"`
	User     *domain.User `json:"user,omitempty"`
}

func sessionToken(r *http.Request) string {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}

func setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, apiResponse{Success: false, Message: message})
}
