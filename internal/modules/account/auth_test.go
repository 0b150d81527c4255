package account

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/veltahq/backoffice-backend/internal/domain/account"
	"github.com/veltahq/backoffice-backend/internal/platform/apierr"
	"github.com/veltahq/backoffice-backend/internal/platform/logger"
	"github.com/veltahq/backoffice-backend/internal/platform/requestdata"
)

type fakeUserRepo struct {
	byEmail map[string]*account.User
}

func (f *fakeUserRepo) Create(ctx context.Context, tx *gorm.DB, user *account.User) (*account.User, error) {
	return user, nil
}

func (f *fakeUserRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*account.User, error) {
	return nil, nil
}

func (f *fakeUserRepo) GetByEmail(ctx context.Context, tx *gorm.DB, email string) (*account.User, error) {
	return f.byEmail[email], nil
}

func (f *fakeUserRepo) GetTeamIDsByWorkspaceAndUser(ctx context.Context, tx *gorm.DB, workspaceID, userID uuid.UUID) ([]uuid.UUID, error) {
	return nil, nil
}

func newTestAuth(t *testing.T, users *fakeUserRepo) Auth {
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("init logger: %v", err)
	}
	return NewAuth(AuthDeps{
		Log:       log,
		Users:     users,
		JWTSecret: "test-secret",
		TokenTTL:  time.Hour,
	})
}

func TestLogin_RoundTripsIdentityThroughToken(t *testing.T) {
	hashed, err := HashPassword("hunter2")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	user := &account.User{
		ID:          uuid.New(),
		WorkspaceID: uuid.New(),
		Email:       "agent@example.com",
		Password:    hashed,
		Name:        "Agent A",
		Role:        "admin",
	}
	auth := newTestAuth(t, &fakeUserRepo{byEmail: map[string]*account.User{user.Email: user}})

	token, got, err := auth.Login(context.Background(), "  Agent@Example.com ", "hunter2")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if got.ID != user.ID {
		t.Fatalf("login returned wrong user")
	}

	rd, err := auth.ParseToken(token)
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	if rd.UserID != user.ID || rd.WorkspaceID != user.WorkspaceID {
		t.Fatalf("identity lost in token: %+v", rd)
	}
	if rd.Role != requestdata.RoleAdmin || !rd.IsAdmin() {
		t.Fatalf("role lost in token: %+v", rd)
	}
}

func TestLogin_RejectsBadCredentials(t *testing.T) {
	hashed, err := HashPassword("hunter2")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	user := &account.User{
		ID:          uuid.New(),
		WorkspaceID: uuid.New(),
		Email:       "agent@example.com",
		Password:    hashed,
		Name:        "Agent A",
		Role:        "agent",
	}
	auth := newTestAuth(t, &fakeUserRepo{byEmail: map[string]*account.User{user.Email: user}})
	ctx := context.Background()

	var apiErr *apierr.Error
	if _, _, err := auth.Login(ctx, "agent@example.com", "wrong"); !errors.As(err, &apiErr) || apiErr.Code != apierr.CodeUnauthorized {
		t.Fatalf("wrong password: got %v", err)
	}
	if _, _, err := auth.Login(ctx, "nobody@example.com", "hunter2"); !errors.As(err, &apiErr) || apiErr.Code != apierr.CodeUnauthorized {
		t.Fatalf("unknown email: got %v", err)
	}
	if _, _, err := auth.Login(ctx, "", ""); !errors.As(err, &apiErr) || apiErr.Code != apierr.CodeInvalidRequest {
		t.Fatalf("empty credentials: got %v", err)
	}
}

func TestParseToken_RejectsTamperedToken(t *testing.T) {
	hashed, err := HashPassword("hunter2")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	user := &account.User{
		ID:          uuid.New(),
		WorkspaceID: uuid.New(),
		Email:       "agent@example.com",
		Password:    hashed,
		Name:        "Agent A",
		Role:        "agent",
	}
	auth := newTestAuth(t, &fakeUserRepo{byEmail: map[string]*account.User{user.Email: user}})

	token, _, err := auth.Login(context.Background(), user.Email, "hunter2")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	otherSecret := newTestAuth(t, &fakeUserRepo{})
	otherSecret.deps.JWTSecret = "different"
	if _, err := otherSecret.ParseToken(token); err == nil {
		t.Fatalf("token signed with another secret must be rejected")
	}
	if _, err := auth.ParseToken(token + "x"); err == nil {
		t.Fatalf("tampered token must be rejected")
	}
}
