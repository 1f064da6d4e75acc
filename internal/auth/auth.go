package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/gdg-garage/event-registration-api/internal/config"
	"github.com/gdg-garage/event-registration-api/internal/models"
	"github.com/gdg-garage/event-registration-api/internal/session"
	"gorm.io/gorm"
)

const SessionCookieName = "session_id"

var (
	ErrMissingCredentials = errors.New("username and password are required")
	ErrPasswordTooLong    = errors.New("password must be at most 72 bytes")
	ErrInvalidRole        = errors.New("invalid role")
	ErrUsernameTaken      = errors.New("username already exists")
	ErrAdminSignup        = errors.New("admin accounts can only be created by an administrator")
	ErrUnknownUsername    = errors.New("username does not exist")
	ErrWrongPassword      = errors.New("wrong password")
	ErrNoToken            = errors.New("no token provided")
	ErrInvalidToken       = errors.New("invalid token")
	ErrAccessDenied       = errors.New("access denied")
	ErrNotAuthenticated   = errors.New("not authenticated")
)

type AuthHandler struct {
	db       *gorm.DB
	cfg      *config.Config
	sessions session.Store

	dummyOnce sync.Once
	dummyHash string
}

func NewAuthHandler(cfg *config.Config, db *gorm.DB, sessions session.Store) *AuthHandler {
	if sessions == nil {
		sessions = session.NewMemoryStore()
	}
	return &AuthHandler{db: db, cfg: cfg, sessions: sessions}
}

// Register creates a user with a bcrypt-hashed password. The role defaults to
// student. An admin account is only created when admin signup is enabled or
// requester is an admin.
func (h *AuthHandler) Register(ctx context.Context, username, password, role string, requester *Identity) (*models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, ErrMissingCredentials
	}
	if len(password) > maxPasswordBytes {
		return nil, ErrPasswordTooLong
	}
	if role == "" {
		role = models.RoleStudent
	}
	if !models.ValidRole(role) {
		return nil, ErrInvalidRole
	}
	if role == models.RoleAdmin && !h.cfg.AllowAdminSignup && Authorize(requester, models.RoleAdmin) != nil {
		return nil, ErrAdminSignup
	}

	db := h.db.WithContext(ctx)

	var existing int64
	if err := db.Model(&models.User{}).Where("username = ?", username).Count(&existing).Error; err != nil {
		return nil, fmt.Errorf("check username: %w", err)
	}
	if existing > 0 {
		return nil, ErrUsernameTaken
	}

	hash, err := h.hashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := models.User{Username: username, PasswordHash: hash, Role: role}
	if err := db.Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrUsernameTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return &user, nil
}

type LoginResult struct {
	Token    string
	Identity Identity
	Session  *models.Session
}

// Login checks the credentials, signs a bearer token and opens a server-side
// session carrying the same identity.
func (h *AuthHandler) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	var user models.User
	err := h.db.WithContext(ctx).Where("username = ?", strings.TrimSpace(username)).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		h.burnComparison(password)
		return nil, ErrUnknownUsername
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}

	if !checkPassword(user.PasswordHash, password) {
		return nil, ErrWrongPassword
	}

	id := Identity{ID: user.ID, Username: user.Username, Role: user.Role}
	token, err := h.GenerateToken(id)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}

	s := &models.Session{
		UserID:    id.ID,
		Username:  id.Username,
		Role:      id.Role,
		ExpiresAt: time.Now().UTC().Add(h.sessionDuration()),
	}
	if err := h.sessions.Create(ctx, s); err != nil {
		return nil, err
	}

	return &LoginResult{Token: token, Identity: id, Session: s}, nil
}

// Logout destroys the session. Bearer tokens stay valid until they expire.
func (h *AuthHandler) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	return h.sessions.Delete(ctx, sessionID)
}

// CurrentUser resolves the session id to the identity it was opened for.
func (h *AuthHandler) CurrentUser(ctx context.Context, sessionID string) (*Identity, error) {
	if sessionID == "" {
		return nil, ErrNotAuthenticated
	}
	s, err := h.sessions.Get(ctx, sessionID)
	if errors.Is(err, session.ErrNotFound) {
		return nil, ErrNotAuthenticated
	}
	if err != nil {
		return nil, err
	}
	return &Identity{ID: s.UserID, Username: s.Username, Role: s.Role}, nil
}

func (h *AuthHandler) sessionDuration() time.Duration {
	if h.cfg.SessionTTL > 0 {
		return h.cfg.SessionTTL
	}
	return DefaultTokenDuration
}

func (h *AuthHandler) sessionCookie(value string, expires time.Time) http.Cookie {
	return http.Cookie{
		Name:     SessionCookieName,
		Value:    value,
		Expires:  expires,
		HttpOnly: true,
		Secure:   h.cfg.SessionCookieSecure,
		SameSite: http.SameSiteLaxMode,
		Path:     "/",
	}
}

type MessageBody struct {
	Message string `json:"message"`
}

type RegisterInput struct {
	Authorization string `header:"Authorization" doc:"Optional admin bearer token, required to create admin accounts"`
	Body          struct {
		Username string `json:"username" doc:"Unique username"`
		Password string `json:"password" doc:"Plain text password"`
		Role     string `json:"role,omitempty" enum:"admin,student" doc:"Requested role, defaults to student"`
	}
}

type RegisterOutput struct {
	Body MessageBody
}

func (h *AuthHandler) HandleRegister(ctx context.Context, input *RegisterInput) (*RegisterOutput, error) {
	var requester *Identity
	if token := BearerToken(input.Authorization); token != "" {
		requester, _ = h.VerifyToken(token)
	}

	_, err := h.Register(ctx, input.Body.Username, input.Body.Password, input.Body.Role, requester)
	switch {
	case errors.Is(err, ErrMissingCredentials):
		return nil, huma.Error400BadRequest("Username and password are required")
	case errors.Is(err, ErrPasswordTooLong):
		return nil, huma.Error400BadRequest("Password must be at most 72 bytes")
	case errors.Is(err, ErrInvalidRole):
		return nil, huma.Error400BadRequest("Invalid role")
	case errors.Is(err, ErrUsernameTaken):
		return nil, huma.Error400BadRequest("Username already exists")
	case errors.Is(err, ErrAdminSignup):
		return nil, huma.Error403Forbidden("Admin accounts can only be created by an administrator")
	case err != nil:
		slog.Error("register user", "error", err)
		return nil, huma.Error500InternalServerError(err.Error())
	}

	res := &RegisterOutput{}
	res.Body.Message = "User registered successfully"
	return res, nil
}

type LoginInput struct {
	Body struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
}

type LoginOutput struct {
	SetCookie http.Cookie `header:"Set-Cookie"`
	Body      struct {
		Token   string   `json:"token" doc:"Bearer token for API calls"`
		User    Identity `json:"user"`
		Message string   `json:"message"`
	}
}

func (h *AuthHandler) HandleLogin(ctx context.Context, input *LoginInput) (*LoginOutput, error) {
	result, err := h.Login(ctx, input.Body.Username, input.Body.Password)
	switch {
	case errors.Is(err, ErrUnknownUsername):
		return nil, huma.Error401Unauthorized("Username does not exist")
	case errors.Is(err, ErrWrongPassword):
		return nil, huma.Error401Unauthorized("Wrong password")
	case err != nil:
		slog.Error("login", "error", err)
		return nil, huma.Error500InternalServerError(err.Error())
	}

	res := &LoginOutput{}
	res.SetCookie = h.sessionCookie(result.Session.ID, result.Session.ExpiresAt)
	res.Body.Token = result.Token
	res.Body.User = result.Identity
	res.Body.Message = "Login successful"
	return res, nil
}

type SessionInput struct {
	SessionID string `cookie:"session_id"`
}

type LogoutOutput struct {
	SetCookie http.Cookie `header:"Set-Cookie"`
	Body      MessageBody
}

func (h *AuthHandler) HandleLogout(ctx context.Context, input *SessionInput) (*LogoutOutput, error) {
	if err := h.Logout(ctx, input.SessionID); err != nil {
		slog.Error("logout", "error", err)
		return nil, huma.Error500InternalServerError("Error logging out")
	}

	res := &LogoutOutput{}
	res.SetCookie = h.sessionCookie("", time.Unix(0, 0))
	res.SetCookie.MaxAge = -1
	res.Body.Message = "Logged out successfully"
	return res, nil
}

type MeOutput struct {
	Body Identity
}

func (h *AuthHandler) HandleMe(ctx context.Context, input *SessionInput) (*MeOutput, error) {
	id, err := h.CurrentUser(ctx, input.SessionID)
	if errors.Is(err, ErrNotAuthenticated) {
		return nil, huma.Error401Unauthorized("Not authenticated")
	}
	if err != nil {
		slog.Error("current user", "error", err)
		return nil, huma.Error500InternalServerError(err.Error())
	}
	return &MeOutput{Body: *id}, nil
}
