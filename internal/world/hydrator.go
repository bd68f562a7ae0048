package world

import (
	"context"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-bancho-go/internal/condition"
	"github.com/ovaphlow/pitchfork/service-bancho-go/internal/gamemode"
	"github.com/ovaphlow/pitchfork/service-bancho-go/internal/privileges"
	"github.com/ovaphlow/pitchfork/service-bancho-go/internal/world/entity"
	"github.com/ovaphlow/pitchfork/service-bancho-go/internal/world/repo"
)

// Store is the read side of the static world tables.
type Store interface {
	Channels(ctx context.Context) ([]repo.ChannelRow, error)
	Pools(ctx context.Context) ([]repo.PoolRow, error)
	PoolMaps(ctx context.Context, poolID int64) ([]repo.PoolMapRow, error)
	Clans(ctx context.Context) ([]repo.ClanRow, error)
	ClanMembers(ctx context.Context, clanID int64) ([]repo.ClanMemberRow, error)
	Achievements(ctx context.Context) ([]repo.AchievementRow, error)
}

// GrantScheduler receives donor grants due within the horizon. A negative
// delay means the grant already lapsed.
type GrantScheduler interface {
	Schedule(playerID int64, delay time.Duration)
}

// HydrationError aborts boot. Step names the hydration stage that failed.
type HydrationError struct {
	Step string
	Err  error
}

func (e *HydrationError) Error() string { return fmt.Sprintf("hydrate %s: %v", e.Step, e.Err) }

func (e *HydrationError) Unwrap() error { return e.Err }

// Report summarises a hydration run.
type Report struct {
	Channels             int
	Pools                int
	Clans                int
	ClansWithoutOwner    int
	AchievementsCompiled int
	AchievementsSkipped  int
	GrantsScheduled      int
	GrantsLapsed         int
	GrantsDeferred       int
}

// DefaultHorizon is how far ahead donor grants are scheduled by default.
const DefaultHorizon = 30 * 24 * time.Hour

type HydratorConfig struct {
	BotName string
	// Horizon bounds how far ahead donor grants are scheduled; later ones are
	// picked up by a future boot.
	Horizon time.Duration
	Clock   clockwork.Clock
	// Players is the registry to seed with the bot; a fresh one when nil.
	Players *PlayerRegistry
}

// Hydrator builds the world from the relational store once at boot.
type Hydrator struct {
	store  Store
	users  UserStore
	sched  GrantScheduler
	cfg    HydratorConfig
	logger *zap.SugaredLogger
}

func NewHydrator(store Store, users UserStore, sched GrantScheduler, cfg HydratorConfig, logger *zap.SugaredLogger) *Hydrator {
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	if cfg.Horizon <= 0 {
		cfg.Horizon = DefaultHorizon
	}
	return &Hydrator{store: store, users: users, sched: sched, cfg: cfg, logger: logger.Named("hydrator")}
}

// Hydrate loads channels, pools, clans, achievements and donor grants, in
// that order. Any store failure or unresolvable pool creator aborts with a
// *HydrationError and no partial world.
func (h *Hydrator) Hydrate(ctx context.Context) (*State, *Report, error) {
	players := h.cfg.Players
	if players == nil {
		players = NewPlayerRegistry()
	}
	bot := entity.NewBot(h.cfg.BotName)
	players.Add(bot)

	st := &State{
		Players:      players,
		Bot:          bot,
		Achievements: make(map[gamemode.GameMode][]*entity.Achievement),
	}
	rep := &Report{}
	resolver := NewResolver(players, h.users)

	if err := h.loadChannels(ctx, st, rep); err != nil {
		return nil, nil, &HydrationError{Step: "channels", Err: err}
	}
	if err := h.loadPools(ctx, st, rep, resolver); err != nil {
		return nil, nil, &HydrationError{Step: "pools", Err: err}
	}
	if err := h.loadClans(ctx, st, rep); err != nil {
		return nil, nil, &HydrationError{Step: "clans", Err: err}
	}
	if err := h.loadAchievements(ctx, st, rep); err != nil {
		return nil, nil, &HydrationError{Step: "achievements", Err: err}
	}
	if err := h.loadDonors(ctx, rep); err != nil {
		return nil, nil, &HydrationError{Step: "donors", Err: err}
	}

	h.logger.Infow("world hydrated",
		"channels", rep.Channels,
		"pools", rep.Pools,
		"clans", rep.Clans,
		"clans_without_owner", rep.ClansWithoutOwner,
		"achievements", rep.AchievementsCompiled,
		"achievements_skipped", rep.AchievementsSkipped,
		"grants_scheduled", rep.GrantsScheduled,
		"grants_lapsed", rep.GrantsLapsed,
		"grants_deferred", rep.GrantsDeferred,
	)
	return st, rep, nil
}

func (h *Hydrator) loadChannels(ctx context.Context, st *State, rep *Report) error {
	rows, err := h.store.Channels(ctx)
	if err != nil {
		return err
	}
	for _, row := range rows {
		st.Channels = append(st.Channels, entity.NewChannel(
			row.ID,
			row.Name,
			row.Topic,
			privileges.FromNullable(row.ReadPriv.Int64, row.ReadPriv.Valid, privileges.DefaultChannelRead),
			privileges.FromNullable(row.WritePriv.Int64, row.WritePriv.Valid, privileges.DefaultChannelWrite),
			row.AutoJoin,
		))
	}
	rep.Channels = len(st.Channels)
	return nil
}

func (h *Hydrator) loadPools(ctx context.Context, st *State, rep *Report, resolver *Resolver) error {
	rows, err := h.store.Pools(ctx)
	if err != nil {
		return err
	}
	for _, row := range rows {
		creator, err := resolver.Resolve(ctx, row.CreatedBy)
		if err != nil {
			return fmt.Errorf("pool %q creator: %w", row.Name, err)
		}
		st.Pools = append(st.Pools, &entity.MapPool{
			ID:        row.ID,
			Name:      row.Name,
			CreatedAt: time.Unix(row.CreatedAt, 0),
			Creator:   creator,
		})
	}
	// slots are a second pass so every pool exists before any map is attached
	for _, pool := range st.Pools {
		maps, err := h.store.PoolMaps(ctx, pool.ID)
		if err != nil {
			return fmt.Errorf("pool %q maps: %w", pool.Name, err)
		}
		for _, m := range maps {
			pool.Maps = append(pool.Maps, entity.PoolEntry{MapID: m.MapID, Mods: m.Mods, Slot: m.Slot})
		}
	}
	rep.Pools = len(st.Pools)
	return nil
}

func (h *Hydrator) loadClans(ctx context.Context, st *State, rep *Report) error {
	rows, err := h.store.Clans(ctx)
	if err != nil {
		return err
	}
	for _, row := range rows {
		members, err := h.store.ClanMembers(ctx, row.ID)
		if err != nil {
			return fmt.Errorf("clan %q members: %w", row.Name, err)
		}
		clan := &entity.Clan{
			ID:        row.ID,
			Name:      row.Name,
			Tag:       row.Tag,
			CreatedAt: time.Unix(row.CreatedAt, 0),
			Members:   make(map[int64]struct{}, len(members)),
		}
		for _, m := range members {
			clan.Members[m.ID] = struct{}{}
			if m.ClanRank == entity.OwnerRank {
				clan.OwnerID = m.ID
			}
		}
		if !clan.HasOwner() {
			rep.ClansWithoutOwner++
			h.logger.Warnw("clan has no owner", "clan_id", clan.ID, "clan", clan.Name, "members", len(clan.Members))
		}
		st.Clans = append(st.Clans, clan)
	}
	rep.Clans = len(st.Clans)
	return nil
}

func (h *Hydrator) loadAchievements(ctx context.Context, st *State, rep *Report) error {
	rows, err := h.store.Achievements(ctx)
	if err != nil {
		return err
	}
	for _, row := range rows {
		mode := gamemode.GameMode(row.Mode)
		if !mode.Valid() {
			rep.AchievementsSkipped++
			h.logger.Warnw("achievement has invalid mode", "achievement_id", row.ID, "mode", row.Mode)
			continue
		}
		cond, err := condition.Compile(row.Cond)
		if err != nil {
			rep.AchievementsSkipped++
			h.logger.Warnw("achievement condition does not compile",
				"achievement_id", row.ID, "name", row.Name, "cond", row.Cond, "error", err)
			continue
		}
		st.Achievements[mode] = append(st.Achievements[mode], &entity.Achievement{
			ID:   row.ID,
			File: row.File,
			Name: row.Name,
			Desc: row.Desc,
			Mode: mode,
			Cond: cond,
		})
		rep.AchievementsCompiled++
	}
	return nil
}

func (h *Hydrator) loadDonors(ctx context.Context, rep *Report) error {
	now := h.cfg.Clock.Now()
	rows, err := h.users.DonorGrants(ctx, now.Unix(), int64(privileges.Donator))
	if err != nil {
		return err
	}
	for _, row := range rows {
		remaining := time.Unix(row.DonorEnd, 0).Sub(now)
		if remaining > h.cfg.Horizon {
			rep.GrantsDeferred++
			h.logger.Debugw("donor grant beyond horizon", "player_id", row.ID, "remaining", remaining)
			continue
		}
		if remaining <= 0 {
			rep.GrantsLapsed++
		}
		h.sched.Schedule(row.ID, remaining)
		rep.GrantsScheduled++
	}
	return nil
}
