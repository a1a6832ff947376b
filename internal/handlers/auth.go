package handlers

import (
	"context"
	"encoding/base64"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/pquerna/otp/totp"
	qrcode "github.com/skip2/go-qrcode"

	"wisdomia/internal/middleware"
	"wisdomia/internal/models"
	"wisdomia/internal/session"
)

// Next steps reported after a successful password check.
const (
	stepSetup2FA  = "setup_2fa"
	stepVerify2FA = "verify_2fa"
)

const (
	msgInvalidLogin  = "Invalid email or password."
	msgInvalidCode   = "Invalid code. Please try again."
	msgUnexpected    = "An unexpected error occurred."
	msg2FAConfigured = "Two-factor authentication is already set up."
	msg2FANotStarted = "Two-factor authentication has not been set up yet."
)

// UserRepository is the user storage used by the auth handlers.
type UserRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	SetTOTPSecret(ctx context.Context, userID uuid.UUID, secret string) error
	EnableTOTP(ctx context.Context, userID uuid.UUID) error
	CheckPassword(user *models.User, password string) bool
}

// LoginInput is the body of POST /admin/login.
type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// VerifyInput is the body of POST /admin/2fa/verify.
type VerifyInput struct {
	Code string `json:"code"`
}

// AuthResult is the body of every auth response.
type AuthResult struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	Next    string `json:"next,omitempty"`
}

// SetupResult carries the TOTP enrollment data.
type SetupResult struct {
	Success bool   `json:"success"`
	Secret  string `json:"secret"`
	URL     string `json:"otpauthUrl"`
	QRCode  string `json:"qrCode"`
}

// Auth groups all authentication-related HTTP handlers.
type Auth struct {
	sessions *session.Store
	users    UserRepository
	issuer   string
}

// NewAuth creates a new Auth handler group. issuer names the site in
// authenticator apps.
func NewAuth(sessions *session.Store, users UserRepository, issuer string) *Auth {
	return &Auth{sessions: sessions, users: users, issuer: issuer}
}

// Login checks the credentials and starts a session. The session is not
// usable for admin routes until the second factor is verified.
func (a *Auth) Login(w http.ResponseWriter, r *http.Request) {
	var in LoginInput
	if !decodeJSON(w, r, &in) {
		return
	}
	email := strings.ToLower(strings.TrimSpace(in.Email))

	user, err := a.users.FindByEmail(r.Context(), email)
	if err != nil {
		slog.Error("login lookup failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, AuthResult{Error: msgUnexpected})
		return
	}
	if user == nil || !a.users.CheckPassword(user, in.Password) {
		slog.Warn("login rejected", "email", email, "remote", r.RemoteAddr)
		writeJSON(w, http.StatusUnauthorized, AuthResult{Error: msgInvalidLogin})
		return
	}

	_, err = a.sessions.Create(r.Context(), w, &session.Data{
		UserID:      user.ID,
		Email:       user.Email,
		DisplayName: user.DisplayName,
		Role:        user.Role,
	})
	if err != nil {
		slog.Error("session create failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, AuthResult{Error: msgUnexpected})
		return
	}

	next := stepVerify2FA
	if user.Needs2FASetup() {
		next = stepSetup2FA
	}
	writeJSON(w, http.StatusOK, AuthResult{Success: true, Next: next})
}

// TwoFASetup generates a TOTP secret for a user who has none enabled yet
// and returns it with a QR code as a PNG data URL.
func (a *Auth) TwoFASetup(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())
	if sess == nil {
		writeJSON(w, http.StatusUnauthorized, AuthResult{Error: msgAuthorRequired})
		return
	}

	user, err := a.users.FindByID(r.Context(), sess.UserID)
	if err != nil || user == nil {
		slog.Error("user lookup for 2fa setup failed", "error", err, "user_id", sess.UserID)
		writeJSON(w, http.StatusInternalServerError, AuthResult{Error: msgUnexpected})
		return
	}
	if user.TOTPEnabled {
		writeJSON(w, http.StatusConflict, AuthResult{Error: msg2FAConfigured})
		return
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      a.issuer,
		AccountName: user.Email,
	})
	if err != nil {
		slog.Error("totp generate failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, AuthResult{Error: msgUnexpected})
		return
	}

	if err := a.users.SetTOTPSecret(r.Context(), user.ID, key.Secret()); err != nil {
		slog.Error("save totp secret failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, AuthResult{Error: msgUnexpected})
		return
	}

	png, err := qrcode.Encode(key.URL(), qrcode.Medium, 256)
	if err != nil {
		slog.Error("qr code generation failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, AuthResult{Error: msgUnexpected})
		return
	}

	writeJSON(w, http.StatusOK, SetupResult{
		Success: true,
		Secret:  key.Secret(),
		URL:     key.URL(),
		QRCode:  "data:image/png;base64," + base64.StdEncoding.EncodeToString(png),
	})
}

// TwoFAVerify validates a TOTP code. The first valid code enables 2FA for
// the user; every valid code marks the session as fully authenticated.
func (a *Auth) TwoFAVerify(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())
	if sess == nil {
		writeJSON(w, http.StatusUnauthorized, AuthResult{Error: msgAuthorRequired})
		return
	}

	var in VerifyInput
	if !decodeJSON(w, r, &in) {
		return
	}

	user, err := a.users.FindByID(r.Context(), sess.UserID)
	if err != nil || user == nil {
		slog.Error("user lookup for 2fa failed", "error", err, "user_id", sess.UserID)
		writeJSON(w, http.StatusInternalServerError, AuthResult{Error: msgUnexpected})
		return
	}
	if user.TOTPSecret == nil {
		writeJSON(w, http.StatusConflict, AuthResult{Error: msg2FANotStarted, Next: stepSetup2FA})
		return
	}

	if !totp.Validate(strings.TrimSpace(in.Code), *user.TOTPSecret) {
		writeJSON(w, http.StatusUnauthorized, AuthResult{Error: msgInvalidCode})
		return
	}

	if !user.TOTPEnabled {
		if err := a.users.EnableTOTP(r.Context(), user.ID); err != nil {
			slog.Error("enable totp failed", "error", err)
			writeJSON(w, http.StatusInternalServerError, AuthResult{Error: msgUnexpected})
			return
		}
	}

	sess.TwoFADone = true
	if err := a.sessions.Update(r.Context(), r, sess); err != nil {
		slog.Error("session update failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, AuthResult{Error: msgUnexpected})
		return
	}

	slog.Info("admin signed in", "email", user.Email, "role", user.Role)
	writeJSON(w, http.StatusOK, AuthResult{Success: true})
}

// Logout destroys the session.
func (a *Auth) Logout(w http.ResponseWriter, r *http.Request) {
	if err := a.sessions.Destroy(r.Context(), w, r); err != nil {
		slog.Warn("session destroy failed", "error", err)
	}
	writeJSON(w, http.StatusOK, AuthResult{Success: true})
}
