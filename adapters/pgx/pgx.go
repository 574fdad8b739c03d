// Package pgx implements the signon storage ports on PostgreSQL via a
// pgxpool.Pool.
//
// Expected schema:
//
//	CREATE TABLE public.accounts (
//	    id            bigserial PRIMARY KEY,
//	    email         text NOT NULL,
//	    password_hash text NOT NULL,
//	    instance      text,
//	    last_login    timestamptz,
//	    UNIQUE (email, instance)
//	);
//
//	CREATE TABLE public.api_credentials (
//	    id            bigserial PRIMARY KEY,
//	    api_key       text NOT NULL UNIQUE,
//	    shared_secret text NOT NULL DEFAULT '',
//	    title         text NOT NULL DEFAULT ''
//	);
//
//	CREATE TABLE public.sign_on_tokens (
//	    ident         text NOT NULL,
//	    token         text NOT NULL,
//	    credential_id bigint NOT NULL REFERENCES public.api_credentials (id),
//	    created_at    timestamptz NOT NULL DEFAULT now(),
//	    expires_at    timestamptz,
//	    PRIMARY KEY (ident, token, credential_id)
//	);
package pgx

import (
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/arkeny/signon/core"
)

type Adapter struct {
	pool *pgxpool.Pool
}

var (
	_ core.AccountStorage    = (*Adapter)(nil)
	_ core.CredentialStorage = (*Adapter)(nil)
	_ core.TokenStorage      = (*Adapter)(nil)
	_ core.TokenIssuer       = (*Adapter)(nil)
)

func New(pool *pgxpool.Pool) *Adapter {
	return &Adapter{
		pool: pool,
	}
}
