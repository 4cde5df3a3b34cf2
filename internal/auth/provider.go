package auth

import (
	"context"

	"github.com/kawafuchieirin/milestone-manager/internal"
)

type Provider interface {
	ValidateTokenLocal(token string) (*internal.User, error)
	ValidateTokenRemote(ctx context.Context, token string) (*internal.User, error)
}
