package account

import (
	"time"

	"github.com/google/uuid"
)

// User is the canonical local user record. Login is the stable identity key:
// it is unique case-insensitively and never changes once the record exists.
type User struct {
	ID          uuid.UUID
	Login       string
	FirstName   string
	LastName    string
	Email       string
	ImageURL    string
	LangKey     string
	Activated   bool
	Authorities []string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// AccountView is the account representation returned to clients.
type AccountView struct {
	Login       string   `json:"login"`
	FirstName   string   `json:"firstName"`
	LastName    string   `json:"lastName"`
	Email       string   `json:"email"`
	Activated   bool     `json:"activated"`
	ImageURL    string   `json:"imageUrl"`
	LangKey     string   `json:"langKey"`
	Authorities []string `json:"authorities"`
}

func viewOf(u *User) *AccountView {
	return &AccountView{
		Login:       u.Login,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		Email:       u.Email,
		Activated:   u.Activated,
		ImageURL:    u.ImageURL,
		LangKey:     u.LangKey,
		Authorities: u.Authorities,
	}
}
