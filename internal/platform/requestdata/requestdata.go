package requestdata

import (
	"context"

	"github.com/google/uuid"
)

type Role string

const (
	RoleAgent Role = "agent"
	RoleAdmin Role = "admin"
)

// RequestData carries the authenticated caller's identity through the request
// context.
type RequestData struct {
	UserID      uuid.UUID
	WorkspaceID uuid.UUID
	Name        string
	Role        Role
}

func (rd *RequestData) IsAdmin() bool {
	return rd != nil && rd.Role == RoleAdmin
}

type ctxKey struct{}

func WithRequestData(ctx context.Context, rd *RequestData) context.Context {
	return context.WithValue(ctx, ctxKey{}, rd)
}

func Get(ctx context.Context) *RequestData {
	rd, _ := ctx.Value(ctxKey{}).(*RequestData)
	return rd
}
