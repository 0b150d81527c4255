package account

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	accrepos "github.com/veltahq/backoffice-backend/internal/data/repos/account"
	"github.com/veltahq/backoffice-backend/internal/domain/account"
	"github.com/veltahq/backoffice-backend/internal/platform/apierr"
	"github.com/veltahq/backoffice-backend/internal/platform/logger"
	"github.com/veltahq/backoffice-backend/internal/platform/requestdata"
)

type AuthDeps struct {
	DB        *gorm.DB
	Log       *logger.Logger
	Users     accrepos.UserRepo
	JWTSecret string
	TokenTTL  time.Duration
}

type Auth struct {
	deps AuthDeps
	log  *logger.Logger
}

func NewAuth(deps AuthDeps) Auth {
	if deps.TokenTTL <= 0 {
		deps.TokenTTL = time.Hour
	}
	return Auth{
		deps: deps,
		log:  deps.Log.With("component", "Auth"),
	}
}

type claims struct {
	WorkspaceID string `json:"workspace_id"`
	Name        string `json:"name"`
	Role        string `json:"role"`
	jwt.RegisteredClaims
}

// Login verifies credentials and issues a signed token carrying the caller's
// workspace and role.
func (a Auth) Login(ctx context.Context, email, password string) (string, *account.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return "", nil, apierr.New(http.StatusBadRequest, apierr.CodeInvalidRequest, fmt.Errorf("email and password required"))
	}
	user, err := a.deps.Users.GetByEmail(ctx, nil, email)
	if err != nil {
		return "", nil, err
	}
	if user == nil {
		return "", nil, apierr.New(http.StatusUnauthorized, apierr.CodeUnauthorized, fmt.Errorf("invalid credentials"))
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return "", nil, apierr.New(http.StatusUnauthorized, apierr.CodeUnauthorized, fmt.Errorf("invalid credentials"))
	}

	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		WorkspaceID: user.WorkspaceID.String(),
		Name:        user.Name,
		Role:        user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.deps.TokenTTL)),
		},
	})
	signed, err := token.SignedString([]byte(a.deps.JWTSecret))
	if err != nil {
		return "", nil, err
	}
	return signed, user, nil
}

// ParseToken validates a bearer token and returns the request identity.
func (a Auth) ParseToken(tokenString string) (*requestdata.RequestData, error) {
	var c claims
	token, err := jwt.ParseWithClaims(tokenString, &c, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(a.deps.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return nil, apierr.New(http.StatusUnauthorized, apierr.CodeUnauthorized, err)
	}
	userID, err := uuid.Parse(c.Subject)
	if err != nil {
		return nil, apierr.New(http.StatusUnauthorized, apierr.CodeUnauthorized, err)
	}
	workspaceID, err := uuid.Parse(c.WorkspaceID)
	if err != nil {
		return nil, apierr.New(http.StatusUnauthorized, apierr.CodeUnauthorized, err)
	}
	return &requestdata.RequestData{
		UserID:      userID,
		WorkspaceID: workspaceID,
		Name:        c.Name,
		Role:        requestdata.Role(c.Role),
	}, nil
}

// HashPassword is used by user provisioning.
func HashPassword(plain string) (string, error) {
	raw, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}
