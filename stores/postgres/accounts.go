package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/MrEthical07/goAccount/internal/model"
	"github.com/jackc/pgx/v5"
	"github.com/samber/oops"
)

const accountColumns = `id, name, email, password_hash, role, verified,
		otp_code, otp_expires_at, reset_token_hash, reset_token_expires_at,
		created_at, updated_at`

// AccountStore implements goAccount.AccountStore.
type AccountStore struct {
	db DB
}

func NewAccountStore(db DB) *AccountStore {
	return &AccountStore{db: db}
}

func (s *AccountStore) FindVerifiedByEmail(ctx context.Context, email string) (*model.Account, error) {
	row := s.db.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE email = $1 AND verified`, email)
	account, err := scanAccount(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, oops.Code("ACCOUNT_QUERY_FAILED").
			With("operation", "find verified account").
			With("email", email).
			Wrap(err)
	}
	return account, nil
}

// ListUnverifiedByEmail returns pending rows newest first.
func (s *AccountStore) ListUnverifiedByEmail(ctx context.Context, email string) ([]*model.Account, error) {
	rows, err := s.db.Query(ctx, `SELECT `+accountColumns+` FROM accounts
		WHERE email = $1 AND NOT verified
		ORDER BY created_at DESC, id DESC`, email)
	if err != nil {
		return nil, oops.Code("ACCOUNT_QUERY_FAILED").
			With("operation", "list pending accounts").
			With("email", email).
			Wrap(err)
	}
	defer rows.Close()

	var out []*model.Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, oops.Code("ACCOUNT_QUERY_FAILED").With("operation", "scan pending account").Wrap(err)
		}
		out = append(out, account)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.Code("ACCOUNT_QUERY_FAILED").With("operation", "iterate pending accounts").Wrap(err)
	}
	return out, nil
}

func (s *AccountStore) CountUnverifiedByEmail(ctx context.Context, email string) (int, error) {
	var n int
	err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM accounts WHERE email = $1 AND NOT verified`, email).Scan(&n)
	if err != nil {
		return 0, oops.Code("ACCOUNT_QUERY_FAILED").
			With("operation", "count pending accounts").
			With("email", email).
			Wrap(err)
	}
	return n, nil
}

func (s *AccountStore) FindByID(ctx context.Context, id string) (*model.Account, error) {
	row := s.db.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id)
	account, err := scanAccount(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, oops.Code("ACCOUNT_QUERY_FAILED").
			With("operation", "find account by id").
			With("id", id).
			Wrap(err)
	}
	return account, nil
}

func (s *AccountStore) FindByResetTokenHash(ctx context.Context, hash string, now time.Time) (*model.Account, error) {
	row := s.db.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts
		WHERE reset_token_hash = $1 AND reset_token_expires_at > $2`, hash, now)
	account, err := scanAccount(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, oops.Code("ACCOUNT_QUERY_FAILED").With("operation", "find account by reset token").Wrap(err)
	}
	return account, nil
}

func (s *AccountStore) Insert(ctx context.Context, a *model.Account) error {
	_, err := s.db.Exec(ctx, `INSERT INTO accounts (`+accountColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		a.ID, a.Name, a.Email, a.PasswordHash, a.Role, a.Verified,
		a.OTPCode, a.OTPExpiresAt, a.ResetTokenHash, a.ResetTokenExpiresAt,
		a.CreatedAt, a.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return oops.Code("ACCOUNT_DUPLICATE").With("email", a.Email).Wrap(model.ErrDuplicate)
	}
	if err != nil {
		return oops.Code("ACCOUNT_INSERT_FAILED").
			With("operation", "insert account").
			With("id", a.ID).
			Wrap(err)
	}
	return nil
}

// Update rewrites every mutable column of the row identified by a.ID.
func (s *AccountStore) Update(ctx context.Context, a *model.Account) error {
	tag, err := s.db.Exec(ctx, `UPDATE accounts SET
		name = $2, email = $3, password_hash = $4, role = $5, verified = $6,
		otp_code = $7, otp_expires_at = $8, reset_token_hash = $9, reset_token_expires_at = $10,
		updated_at = $11
		WHERE id = $1`,
		a.ID, a.Name, a.Email, a.PasswordHash, a.Role, a.Verified,
		a.OTPCode, a.OTPExpiresAt, a.ResetTokenHash, a.ResetTokenExpiresAt,
		a.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return oops.Code("ACCOUNT_DUPLICATE").With("email", a.Email).Wrap(model.ErrDuplicate)
	}
	if err != nil {
		return oops.Code("ACCOUNT_UPDATE_FAILED").
			With("operation", "update account").
			With("id", a.ID).
			Wrap(err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (s *AccountStore) DeleteUnverifiedExcept(ctx context.Context, email, keepID string) (int64, error) {
	tag, err := s.db.Exec(ctx, `DELETE FROM accounts WHERE email = $1 AND NOT verified AND id <> $2`, email, keepID)
	if err != nil {
		return 0, oops.Code("ACCOUNT_DELETE_FAILED").
			With("operation", "prune pending accounts").
			With("email", email).
			Wrap(err)
	}
	return tag.RowsAffected(), nil
}

func scanAccount(row pgx.Row) (*model.Account, error) {
	var a model.Account
	err := row.Scan(
		&a.ID, &a.Name, &a.Email, &a.PasswordHash, &a.Role, &a.Verified,
		&a.OTPCode, &a.OTPExpiresAt, &a.ResetTokenHash, &a.ResetTokenExpiresAt,
		&a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}
