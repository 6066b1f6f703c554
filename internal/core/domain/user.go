package domain

import (
	"errors"
	"time"
)

// ErrCredentialWriteOnly is returned by any attempt to read a user's
// password back out of the record.
var ErrCredentialWriteOnly = errors.New("credential is write-only")

// CredentialHasher turns a plaintext password into stored credential material.
type CredentialHasher interface {
	Hash(plaintext string) (string, error)
}

// CredentialVerifier checks a plaintext attempt against stored material.
type CredentialVerifier interface {
	Verify(plaintext, stored string) bool
}

type User struct {
	ID           int64     `db:"id"`
	Username     string    `db:"username"`
	Name         string    `db:"name"`
	Email        string    `db:"email"`
	Role         string    `db:"role"`
	PasswordHash string    `db:"password_hash" json:"-"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

func NewUser(username, name, email, role string) *User {
	now := time.Now().UTC()
	return &User{
		Username:  username,
		Name:      name,
		Email:     email,
		Role:      role,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// SetCredential hashes plaintext with h and stores the result. The
// plaintext itself is never kept on the record.
func (u *User) SetCredential(h CredentialHasher, plaintext string) error {
	hash, err := h.Hash(plaintext)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

// CheckCredential reports whether plaintext matches the stored credential.
func (u *User) CheckCredential(v CredentialVerifier, plaintext string) bool {
	return v.Verify(plaintext, u.PasswordHash)
}

// Password always fails: the plaintext cannot be recovered.
func (u *User) Password() (string, error) {
	return "", ErrCredentialWriteOnly
}
