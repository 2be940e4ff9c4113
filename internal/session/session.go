// Package session keeps the local user list and the logged-in session.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/iiroan/herodex/internal/storage"
)

// Storage keys.
const (
	UsersKey       = "@users"
	CurrentUserKey = "@current_user"
	AuthTokenKey   = "@auth_token"
)

// MinPasswordLength is the shortest accepted password.
const MinPasswordLength = 6

// Session errors.
var (
	ErrNameRequired        = errors.New("please enter your name")
	ErrEmailRequired       = errors.New("please enter your email")
	ErrInvalidEmail        = errors.New("please enter a valid email address")
	ErrPasswordRequired    = errors.New("please enter a password")
	ErrPasswordTooShort    = fmt.Errorf("password must be at least %d characters long", MinPasswordLength)
	ErrConfirmRequired     = errors.New("please confirm your password")
	ErrPasswordMismatch    = errors.New("passwords do not match")
	ErrEmailTaken          = errors.New("email already registered")
	ErrEmailNotRegistered  = errors.New("email not registered")
	ErrInvalidPassword     = errors.New("invalid password")
	ErrNotAuthenticated    = errors.New("not logged in")
	ErrCorruptUserDatabase = errors.New("stored user list is unreadable")
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// User is a locally registered account.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"passwordHash"`
	CreatedAt    time.Time `json:"createdAt"`
}

// CurrentUser is the logged-in user as stored under CurrentUserKey.
type CurrentUser struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
	LoginTime time.Time `json:"loginTime"`
}

// Registration is the input to Register.
type Registration struct {
	Name            string
	Email           string
	Password        string
	ConfirmPassword string
}

// SettingsSeeder writes the initial settings document when none exists.
type SettingsSeeder interface {
	SeedDefaults() error
}

// Manager registers users and tracks the logged-in session.
type Manager struct {
	store  storage.Store
	seeder SettingsSeeder
	logger *log.Logger
	cost   int
	now    func() time.Time

	mu sync.Mutex
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger.
func WithLogger(logger *log.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithSettingsSeeder seeds the settings document on successful login.
func WithSettingsSeeder(s SettingsSeeder) Option {
	return func(m *Manager) { m.seeder = s }
}

// WithHashCost overrides the bcrypt cost.
func WithHashCost(cost int) Option {
	return func(m *Manager) { m.cost = cost }
}

// NewManager creates a Manager backed by store.
func NewManager(store storage.Store, opts ...Option) *Manager {
	m := &Manager{
		store:  store,
		logger: log.New(io.Discard),
		cost:   bcrypt.DefaultCost,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Validate checks a registration without touching storage.
func (r Registration) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return ErrNameRequired
	}
	if strings.TrimSpace(r.Email) == "" {
		return ErrEmailRequired
	}
	if !emailPattern.MatchString(strings.TrimSpace(r.Email)) {
		return ErrInvalidEmail
	}
	if r.Password == "" {
		return ErrPasswordRequired
	}
	if len(r.Password) < MinPasswordLength {
		return ErrPasswordTooShort
	}
	if r.ConfirmPassword == "" {
		return ErrConfirmRequired
	}
	if r.Password != r.ConfirmPassword {
		return ErrPasswordMismatch
	}
	return nil
}

// Register validates reg and adds a new user.
func (m *Manager) Register(ctx context.Context, reg Registration) (*User, error) {
	if err := reg.Validate(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	users, err := m.loadUsers(ctx)
	if err != nil {
		return nil, err
	}

	email := normalizeEmail(reg.Email)
	for _, u := range users {
		if normalizeEmail(u.Email) == email {
			return nil, ErrEmailTaken
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(reg.Password), m.cost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	user := User{
		ID:           uuid.New().String(),
		Name:         strings.TrimSpace(reg.Name),
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    m.now().UTC(),
	}
	users = append(users, user)

	if err := m.saveJSON(ctx, UsersKey, users); err != nil {
		return nil, fmt.Errorf("saving users: %w", err)
	}
	m.logger.Info("user registered", "email", email)
	return &user, nil
}

// Login checks the credentials and records the session.
func (m *Manager) Login(ctx context.Context, email, password string) (*CurrentUser, error) {
	email = normalizeEmail(email)
	if email == "" {
		return nil, ErrEmailRequired
	}
	if !emailPattern.MatchString(email) {
		return nil, ErrInvalidEmail
	}
	if password == "" {
		return nil, ErrPasswordRequired
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	users, err := m.loadUsers(ctx)
	if err != nil {
		return nil, err
	}

	var found *User
	for i := range users {
		if normalizeEmail(users[i].Email) == email {
			found = &users[i]
			break
		}
	}
	if found == nil {
		return nil, ErrEmailNotRegistered
	}
	if err := bcrypt.CompareHashAndPassword([]byte(found.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidPassword
	}

	current := CurrentUser{
		ID:        found.ID,
		Name:      found.Name,
		Email:     found.Email,
		CreatedAt: found.CreatedAt,
		LoginTime: m.now().UTC(),
	}
	// token first: without it a stored current user is never trusted
	if err := m.store.Set(ctx, AuthTokenKey, []byte(uuid.New().String())); err != nil {
		return nil, fmt.Errorf("saving auth token: %w", err)
	}
	if err := m.saveJSON(ctx, CurrentUserKey, current); err != nil {
		if derr := m.store.Delete(ctx, AuthTokenKey); derr != nil {
			m.logger.Error("clearing auth token failed", "error", derr)
		}
		if derr := m.store.Delete(ctx, CurrentUserKey); derr != nil {
			m.logger.Error("clearing current user failed", "error", derr)
		}
		return nil, fmt.Errorf("saving session: %w", err)
	}

	if m.seeder != nil {
		if err := m.seeder.SeedDefaults(); err != nil {
			m.logger.Warn("seeding settings failed", "error", err)
		}
	}

	m.logger.Info("logged in", "email", current.Email)
	return &current, nil
}

// Logout clears the session. Logging out without a session is not an error.
func (m *Manager) Logout(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.store.Delete(ctx, AuthTokenKey); err != nil {
		return fmt.Errorf("clearing auth token: %w", err)
	}
	if err := m.store.Delete(ctx, CurrentUserKey); err != nil {
		return fmt.Errorf("clearing current user: %w", err)
	}
	return nil
}

// IsAuthenticated reports whether an auth token is stored.
func (m *Manager) IsAuthenticated(ctx context.Context) bool {
	token, err := m.store.Get(ctx, AuthTokenKey)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			m.logger.Error("checking auth status failed", "error", err)
		}
		return false
	}
	return len(token) > 0
}

// CurrentUser returns the logged-in user or ErrNotAuthenticated.
func (m *Manager) CurrentUser(ctx context.Context) (*CurrentUser, error) {
	if !m.IsAuthenticated(ctx) {
		return nil, ErrNotAuthenticated
	}
	data, err := m.store.Get(ctx, CurrentUserKey)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrNotAuthenticated
		}
		return nil, fmt.Errorf("reading current user: %w", err)
	}
	var current CurrentUser
	if err := json.Unmarshal(data, &current); err != nil {
		return nil, fmt.Errorf("decoding current user: %w", err)
	}
	return &current, nil
}

// Users returns every registered user.
func (m *Manager) Users(ctx context.Context) ([]User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loadUsers(ctx)
}

func (m *Manager) loadUsers(ctx context.Context) ([]User, error) {
	data, err := m.store.Get(ctx, UsersKey)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return []User{}, nil
		}
		return nil, fmt.Errorf("reading users: %w", err)
	}
	var users []User
	if err := json.Unmarshal(data, &users); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptUserDatabase, err)
	}
	return users, nil
}

func (m *Manager) saveJSON(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return m.store.Set(ctx, key, data)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
