package service

import (
	"testing"
	"time"

	"github.com/martijn/userboard/internal/core/repository"
	"github.com/martijn/userboard/internal/infrastructure/sqlite"
)

// testEnv holds services wired to an in-memory store
type testEnv struct {
	db       *sqlite.DB
	users    repository.UserRepository
	sessions repository.SessionRepository
	codec    *CredentialCodec
	userSvc  *UserService
	authSvc  *AuthService
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	users := sqlite.NewUserRepository(db)
	sessions := sqlite.NewSessionRepository(db)
	codec := testCodec()

	return &testEnv{
		db:       db,
		users:    users,
		sessions: sessions,
		codec:    codec,
		userSvc:  NewUserService(users, codec),
		authSvc:  NewAuthService(users, sessions, codec, "test-secret", "HS256", time.Hour),
	}
}

func aliceInput() UserInput {
	return UserInput{
		Username: "alice",
		Name:     "Alice Liddell",
		Email:    "alice@example.com",
		Role:     "admin",
		Password: "Str0ng!Pass99",
	}
}
