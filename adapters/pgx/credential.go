package pgx

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/arkeny/signon/core"
)

func (a *Adapter) GetByAPIKey(ctx context.Context, apiKey string) (*core.Credential, error) {
	q := `SELECT id, api_key, shared_secret, title FROM public.api_credentials WHERE api_key = $1`

	cred := &core.Credential{}
	err := a.pool.QueryRow(ctx, q, apiKey).Scan(&cred.ID, &cred.APIKey, &cred.SharedSecret, &cred.Title)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, core.ErrCredentialNotFound
		}
		return nil, err
	}

	return cred, nil
}
