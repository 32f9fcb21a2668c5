package auth

import (
	"time"

	"github.com/ovaphlow/pitchfork/service-userdir-go/internal/user/entity"
)

// Account is a registered, credentialed user. Accounts are separate from
// directory records: signing up does not add a directory entry.
type Account struct {
	ID           string         `json:"id"`
	FirstName    string         `json:"firstName"`
	LastName     string         `json:"lastName"`
	Name         string         `json:"name"`
	Email        string         `json:"email"`
	PasswordHash string         `json:"passwordHash,omitempty"`
	PasswordAlgo string         `json:"passwordAlgo,omitempty"`
	Password     string         `json:"password,omitempty"` // legacy plaintext, rehashed on sign-in
	Role         string         `json:"role"`
	CreatedAt    time.Time      `json:"createdAt"`
	Profile      entity.Profile `json:"profile"`
}

// Session is the signed-in actor, stored under SessionKey.
type Session struct {
	ID         string    `json:"id"`
	Email      string    `json:"email"`
	Name       string    `json:"name"`
	Role       string    `json:"role"`
	SignInTime time.Time `json:"signInTime"`
	SessionID  string    `json:"sessionId,omitempty"`
}

func (s Session) active() bool {
	return s.ID != "" && s.Email != "" && s.SessionID != ""
}

type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type SignUpInput struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Password  string `json:"password"`
}
