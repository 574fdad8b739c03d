package pgx

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/arkeny/signon/core"
)

func (a *Adapter) GetByEmail(ctx context.Context, email string, instance *string) (*core.Account, error) {
	q := `SELECT id, email, password_hash, instance, last_login FROM public.accounts
	      WHERE email = $1 AND instance IS NOT DISTINCT FROM $2`

	return a.scanAccount(a.pool.QueryRow(ctx, q, email, instance))
}

func (a *Adapter) GetByID(ctx context.Context, id int64) (*core.Account, error) {
	q := `SELECT id, email, password_hash, instance, last_login FROM public.accounts WHERE id = $1`

	return a.scanAccount(a.pool.QueryRow(ctx, q, id))
}

func (a *Adapter) Update(ctx context.Context, account *core.Account) error {
	if account.ID == nil {
		return core.ErrAccountNotFound
	}

	q := `UPDATE public.accounts SET email = $1, password_hash = $2, instance = $3 WHERE id = $4`

	tag, err := a.pool.Exec(ctx, q, account.Email, account.PasswordHash, account.Instance, *account.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return core.ErrAccountNotFound
	}

	return nil
}

func (a *Adapter) UpdateLastLogin(ctx context.Context, id int64, at time.Time) error {
	q := `UPDATE public.accounts SET last_login = $1 WHERE id = $2`

	tag, err := a.pool.Exec(ctx, q, at.UTC(), id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return core.ErrAccountNotFound
	}

	return nil
}

func (a *Adapter) scanAccount(row pgx.Row) (*core.Account, error) {
	account := &core.Account{}
	var id int64
	var instance *string
	var lastLogin *time.Time

	err := row.Scan(&id, &account.Email, &account.PasswordHash, &instance, &lastLogin)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, core.ErrAccountNotFound
		}
		return nil, err
	}

	account.ID = &id
	account.Instance = instance
	account.LastLogin = lastLogin
	return account, nil
}
