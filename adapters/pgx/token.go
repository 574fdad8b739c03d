package pgx

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/arkeny/signon/core"
	"github.com/arkeny/signon/pkg/crypto"
)

// GetSignOnToken loads the token matching (ident, token, credential). When
// consume is true the lookup is a single DELETE ... RETURNING, so the load
// and the invalidation are one atomic statement: of two concurrent consuming
// lookups for the same token, exactly one sees a row.
func (a *Adapter) GetSignOnToken(ctx context.Context, ident, token string, cred *core.Credential, consume bool) (*core.SignOnToken, error) {
	var q string
	if consume {
		q = `DELETE FROM public.sign_on_tokens
		     WHERE ident = $1 AND token = $2 AND credential_id = $3
		       AND (expires_at IS NULL OR expires_at > now())
		     RETURNING ident, token, credential_id, created_at, expires_at`
	} else {
		q = `SELECT ident, token, credential_id, created_at, expires_at FROM public.sign_on_tokens
		     WHERE ident = $1 AND token = $2 AND credential_id = $3
		       AND (expires_at IS NULL OR expires_at > now())`
	}

	t := &core.SignOnToken{}
	err := a.pool.QueryRow(ctx, q, ident, token, cred.ID).Scan(
		&t.Ident, &t.Token, &t.CredentialID, &t.CreatedAt, &t.ExpiresAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, core.ErrTokenNotFound
		}
		return nil, err
	}

	return t, nil
}

// IssueSignOnToken mints and stores a new single-use token for ident under
// the given credential. A zero ttl stores the token without expiry.
func (a *Adapter) IssueSignOnToken(ctx context.Context, ident string, cred *core.Credential, ttl time.Duration) (*core.SignOnToken, error) {
	secret, err := crypto.GenerateToken(crypto.DefaultTokenLength)
	if err != nil {
		return nil, err
	}

	var expiresAt *time.Time
	if ttl > 0 {
		at := time.Now().UTC().Add(ttl)
		expiresAt = &at
	}

	q := `INSERT INTO public.sign_on_tokens (ident, token, credential_id, expires_at)
	      VALUES ($1, $2, $3, $4)
	      RETURNING created_at`

	t := &core.SignOnToken{
		Ident:        ident,
		Token:        secret,
		CredentialID: cred.ID,
		ExpiresAt:    expiresAt,
	}
	if err := a.pool.QueryRow(ctx, q, ident, secret, cred.ID, expiresAt).Scan(&t.CreatedAt); err != nil {
		return nil, err
	}

	return t, nil
}
