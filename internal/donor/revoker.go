package donor

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-bancho-go/internal/privileges"
	"github.com/ovaphlow/pitchfork/service-bancho-go/internal/world/entity"
)

type PlayerResolver interface {
	Resolve(ctx context.Context, id int64) (*entity.Player, error)
}

type PrivilegeStore interface {
	RemovePrivileges(ctx context.Context, id int64, bits int64) error
}

// PrivilegeRevoker clears the donor bits in memory and in the users table.
type PrivilegeRevoker struct {
	resolver PlayerResolver
	store    PrivilegeStore
	logger   *zap.SugaredLogger
}

func NewPrivilegeRevoker(resolver PlayerResolver, store PrivilegeStore, logger *zap.SugaredLogger) *PrivilegeRevoker {
	return &PrivilegeRevoker{resolver: resolver, store: store, logger: logger.Named("donor")}
}

func (r *PrivilegeRevoker) Revoke(ctx context.Context, playerID int64) error {
	p, err := r.resolver.Resolve(ctx, playerID)
	if err != nil {
		return fmt.Errorf("resolve donor: %w", err)
	}
	remaining := p.RemovePrivs(privileges.Donator)
	if err := r.store.RemovePrivileges(ctx, p.ID, int64(privileges.Donator)); err != nil {
		return fmt.Errorf("persist donor revoke for %d: %w", p.ID, err)
	}
	r.logger.Infow("donation perks have expired", "player_id", p.ID, "player", p.Name, "online", p.Online(), "priv", remaining.String())
	return nil
}
