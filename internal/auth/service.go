// Package auth implements the demo sign-in flow: a list of registered
// accounts, a singleton session record and bearer tokens bound to it.
package auth

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/kelseyhightower/envconfig"
	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-userdir-go/internal/state"
	"github.com/ovaphlow/pitchfork/service-userdir-go/internal/storage"
	"github.com/ovaphlow/pitchfork/service-userdir-go/internal/user/entity"
	"github.com/ovaphlow/pitchfork/service-userdir-go/pkg/utilities"
)

const (
	SessionKey         = "currentUser"
	SecretKey          = "sessionSecret"
	DefaultAccountsKey = "accounts"

	demoAdminID   = "1"
	demoAdminName = "Admin User"
	demoAdminRole = "admin"
	defaultRole   = "user"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailExists        = errors.New("email already exists")
	ErrUnauthorized       = errors.New("unauthorized")
)

// Config is read from AUTH_* environment variables.
type Config struct {
	AccountsKey      string        `envconfig:"ACCOUNTS_KEY" default:"accounts"`
	JWTSecret        string        `envconfig:"JWT_SECRET"`
	SimulatedLatency time.Duration `envconfig:"SIMULATED_LATENCY" default:"1s"`
	DemoEmail        string        `envconfig:"DEMO_EMAIL" default:"admin@example.com"`
	DemoPassword     string        `envconfig:"DEMO_PASSWORD" default:"password123"`
	BcryptCost       int           `envconfig:"BCRYPT_COST" default:"10"`
}

func ConfigFromEnv() (Config, error) {
	var cfg Config
	if err := envconfig.Process("auth", &cfg); err != nil {
		return Config{}, fmt.Errorf("auth config: %w", err)
	}
	return cfg, nil
}

// Service owns the accounts list and the current session.
type Service struct {
	cfg      Config
	hasher   PasswordHasher
	logger   *zap.SugaredLogger
	accounts *state.Container[[]Account]
	session  *state.Container[Session]
	secret   []byte
	// configuration knobs
	Sleep        func(time.Duration)
	Now          func() time.Time
	NewID        func() string
	NewSessionID func() string

	// serialises operations that touch both keys
	mu       sync.Mutex
	inflight atomic.Int32
}

func NewService(ctx context.Context, store *storage.Adapter, cfg Config, hasher PasswordHasher, logger *zap.SugaredLogger) *Service {
	if cfg.AccountsKey == "" {
		cfg.AccountsKey = DefaultAccountsKey
	}
	if cfg.DemoEmail == "" {
		cfg.DemoEmail = "admin@example.com"
	}
	if cfg.DemoPassword == "" {
		cfg.DemoPassword = "password123"
	}
	if hasher == nil {
		hasher = BcryptHasher{Cost: cfg.BcryptCost}
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	s := &Service{
		cfg:          cfg,
		hasher:       hasher,
		logger:       logger,
		accounts:     state.New(ctx, store, cfg.AccountsKey, []Account{}),
		session:      state.New(ctx, store, SessionKey, Session{}),
		Sleep:        time.Sleep,
		Now:          func() time.Time { return time.Now().UTC() },
		NewID:        utilities.NewSnowflakeID,
		NewSessionID: utilities.NewKSUID,
	}
	s.secret = loadSecret(ctx, store, cfg.JWTSecret)

	// sessions written before token support carry no session id
	if cur := s.session.Get(); cur.ID != "" && cur.Email != "" && cur.SessionID == "" {
		cur.SessionID = s.NewSessionID()
		s.session.SetValue(ctx, cur)
		logger.Infow("assigned session id to stored session", "user_id", cur.ID)
	}
	return s
}

func loadSecret(ctx context.Context, store *storage.Adapter, configured string) []byte {
	if configured != "" {
		return []byte(configured)
	}
	c := state.New(ctx, store, SecretKey, "")
	if c.Get() == "" {
		c.SetValue(ctx, rand.Text())
	}
	return []byte(c.Get())
}

// Loading reports whether a sign-in or sign-up is in progress.
func (s *Service) Loading() bool { return s.inflight.Load() > 0 }

// SignIn checks the demo administrator first, then the registered accounts.
// Bad credentials yield ErrInvalidCredentials and leave the session untouched.
// The simulated latency always elapses, even if ctx is cancelled.
func (s *Service) SignIn(ctx context.Context, creds Credentials) (*Session, error) {
	s.inflight.Add(1)
	defer s.inflight.Add(-1)
	s.Sleep(s.cfg.SimulatedLatency)

	s.mu.Lock()
	defer s.mu.Unlock()

	if creds.Email == s.cfg.DemoEmail && ConstantTimeCompare(creds.Password, s.cfg.DemoPassword) {
		return s.startSession(ctx, demoAdminID, creds.Email, demoAdminName, demoAdminRole), nil
	}

	acct, ok := s.findByEmail(creds.Email)
	if !ok || !s.checkPassword(ctx, acct, creds.Password) {
		s.logger.Infow("sign-in rejected", "email", creds.Email)
		return nil, ErrInvalidCredentials
	}
	role := acct.Role
	if role == "" {
		role = defaultRole
	}
	return s.startSession(ctx, acct.ID, acct.Email, acct.Name, role), nil
}

// SignUp registers a new account and signs it in.
func (s *Service) SignUp(ctx context.Context, in SignUpInput) (*Session, error) {
	s.inflight.Add(1)
	defer s.inflight.Add(-1)
	s.Sleep(s.cfg.SimulatedLatency)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.findByEmail(in.Email); ok {
		s.logger.Infow("sign-up rejected, email exists", "email", in.Email)
		return nil, ErrEmailExists
	}
	hash, algo, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	acct := Account{
		ID:           s.NewID(),
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Name:         in.FirstName + " " + in.LastName,
		Email:        in.Email,
		PasswordHash: hash,
		PasswordAlgo: algo,
		Role:         defaultRole,
		CreatedAt:    s.Now(),
		Profile:      entity.DefaultProfile(in.FirstName, in.LastName, in.Email),
	}
	s.accounts.UpdateValue(ctx, func(prev []Account) []Account {
		out := make([]Account, 0, len(prev)+1)
		out = append(out, prev...)
		return append(out, acct)
	})
	s.logger.Infow("account registered", "id", acct.ID, "email", acct.Email)
	return s.startSession(ctx, acct.ID, acct.Email, acct.Name, acct.Role), nil
}

// SignOut clears the session. Tokens issued for it stop verifying.
func (s *Service) SignOut(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cur := s.session.Get(); cur.ID != "" {
		s.logger.Infow("signed out", "user_id", cur.ID)
	}
	s.session.Clear(ctx)
}

// CurrentUser returns the active session, if any.
func (s *Service) CurrentUser() (*Session, bool) {
	cur := s.session.Get()
	if !cur.active() {
		return nil, false
	}
	return &cur, true
}

// CanEditUser is an ownership check: the signed-in email must equal email.
func (s *Service) CanEditUser(email string) bool {
	cur, ok := s.CurrentUser()
	return ok && cur.Email == email
}

// IsEmailTaken reports whether another account already uses email.
// excludingID may be empty.
func (s *Service) IsEmailTaken(email, excludingID string) bool {
	return slices.ContainsFunc(s.accounts.Get(), func(a Account) bool {
		return a.Email == email && a.ID != excludingID
	})
}

// Accounts returns a copy of the registered accounts.
func (s *Service) Accounts() []Account {
	return slices.Clone(s.accounts.Get())
}

func (s *Service) findByEmail(email string) (Account, bool) {
	accts := s.accounts.Get()
	i := slices.IndexFunc(accts, func(a Account) bool { return a.Email == email })
	if i < 0 {
		return Account{}, false
	}
	return accts[i], true
}

func (s *Service) checkPassword(ctx context.Context, acct Account, pw string) bool {
	switch {
	case acct.PasswordHash != "":
		if !s.hasher.Verify(acct.PasswordHash, pw) {
			return false
		}
		if s.hasher.NeedsRehash(acct.PasswordHash) {
			s.upgradeCredential(ctx, acct.ID, pw)
		}
		return true
	case acct.Password != "":
		if !ConstantTimeCompare(acct.Password, pw) {
			return false
		}
		s.upgradeCredential(ctx, acct.ID, pw)
		return true
	default:
		return false
	}
}

// upgradeCredential stores a fresh hash for id and drops any plaintext.
// A hashing failure is logged; the sign-in itself still succeeds.
func (s *Service) upgradeCredential(ctx context.Context, id, pw string) {
	hash, algo, err := s.hasher.Hash(pw)
	if err != nil {
		s.logger.Warnw("failed to rehash credential", "id", id, "err", err)
		return
	}
	s.accounts.UpdateValue(ctx, func(prev []Account) []Account {
		out := slices.Clone(prev)
		for i := range out {
			if out[i].ID == id {
				out[i].PasswordHash = hash
				out[i].PasswordAlgo = algo
				out[i].Password = ""
			}
		}
		return out
	})
	s.logger.Infow("credential rehashed", "id", id, "algo", algo)
}

func (s *Service) startSession(ctx context.Context, id, email, name, role string) *Session {
	sess := Session{
		ID:         id,
		Email:      email,
		Name:       name,
		Role:       role,
		SignInTime: s.Now(),
		SessionID:  s.NewSessionID(),
	}
	s.session.SetValue(ctx, sess)
	s.logger.Infow("signed in", "user_id", id, "role", role)
	return &sess
}
