package repo

import (
	"context"

	"github.com/jmoiron/sqlx"
)

// UserRow is the slice of the users table the server core needs.
type UserRow struct {
	ID       int64  `db:"id"`
	Name     string `db:"name"`
	Priv     int64  `db:"priv"`
	ClanID   int64  `db:"clan_id"`
	ClanRank int    `db:"clan_rank"`
	// DonorEnd is unix seconds, 0 when the account never donated.
	DonorEnd int64 `db:"donor_end"`
}

// DonorRow is an account with a time-limited privilege grant.
type DonorRow struct {
	ID       int64 `db:"id"`
	DonorEnd int64 `db:"donor_end"`
}

// UserRepo provides data access for users table using sqlx.
type UserRepo struct {
	db *sqlx.DB
}

func NewUserRepo(db *sqlx.DB) *UserRepo { return &UserRepo{db: db} }

// GetByID fetches a user row or sql.ErrNoRows.
func (r *UserRepo) GetByID(ctx context.Context, id int64) (*UserRow, error) {
	q := r.db.Rebind(`SELECT id, name, priv, clan_id, clan_rank, donor_end FROM users WHERE id = ?`)
	var row UserRow
	if err := r.db.GetContext(ctx, &row, q, id); err != nil {
		return nil, err
	}
	return &row, nil
}

// RemovePrivileges clears bits from the stored privilege set.
func (r *UserRepo) RemovePrivileges(ctx context.Context, id int64, bits int64) error {
	q := r.db.Rebind(`UPDATE users SET priv = priv & ? WHERE id = ?`)
	_, err := r.db.ExecContext(ctx, q, ^bits, id)
	return err
}

// DonorGrants returns grants that end after now, plus lapsed grants whose
// holder still carries any of donorBits.
func (r *UserRepo) DonorGrants(ctx context.Context, now int64, donorBits int64) ([]DonorRow, error) {
	q := r.db.Rebind(`SELECT id, donor_end FROM users
		WHERE donor_end > 0 AND (donor_end > ? OR (priv & ?) != 0)
		ORDER BY donor_end, id`)
	var rows []DonorRow
	if err := r.db.SelectContext(ctx, &rows, q, now, donorBits); err != nil {
		return nil, err
	}
	return rows, nil
}
