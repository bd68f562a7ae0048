package world

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ovaphlow/pitchfork/service-bancho-go/internal/privileges"
	"github.com/ovaphlow/pitchfork/service-bancho-go/internal/world/entity"
	"github.com/ovaphlow/pitchfork/service-bancho-go/internal/world/repo"
)

var ErrPlayerNotFound = errors.New("player not found")

// UserStore is the users table as seen by the world.
type UserStore interface {
	GetByID(ctx context.Context, id int64) (*repo.UserRow, error)
	RemovePrivileges(ctx context.Context, id int64, bits int64) error
	DonorGrants(ctx context.Context, now int64, donorBits int64) ([]repo.DonorRow, error)
}

// Resolver finds a player online first, then in the users table.
type Resolver struct {
	players *PlayerRegistry
	users   UserStore
}

func NewResolver(players *PlayerRegistry, users UserStore) *Resolver {
	return &Resolver{players: players, users: users}
}

// Resolve returns the online player for id or an offline one built from its
// users row. Offline players are not registered.
func (r *Resolver) Resolve(ctx context.Context, id int64) (*entity.Player, error) {
	if p, ok := r.players.Get(id); ok {
		return p, nil
	}
	row, err := r.users.GetByID(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("player %d: %w", id, ErrPlayerNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load player %d: %w", id, err)
	}
	return entity.NewPlayer(row.ID, row.Name, privileges.Privileges(row.Priv)), nil
}
