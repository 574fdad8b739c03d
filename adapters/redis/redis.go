// Package redis implements the signon token storage port on Redis. Tokens
// live under one key per (credential, ident, secret) tuple, so consumption
// maps onto an atomic GETDEL and expiry onto the key TTL.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/arkeny/signon/core"
	"github.com/arkeny/signon/pkg/crypto"
)

const keyPrefix = "signon:token:"

type Adapter struct {
	client redis.UniversalClient
}

var (
	_ core.TokenStorage = (*Adapter)(nil)
	_ core.TokenIssuer  = (*Adapter)(nil)
)

func New(client redis.UniversalClient) *Adapter {
	return &Adapter{client: client}
}

// tokenRecord is the stored JSON blob. The key already encodes ident, secret
// and credential; the blob carries the timestamps.
type tokenRecord struct {
	CreatedAt time.Time  `json:"created_at"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

func tokenKey(credentialID int64, ident, token string) string {
	return fmt.Sprintf("%s%d:%s:%s", keyPrefix, credentialID, ident, token)
}

// GetSignOnToken loads the token matching (ident, token, credential). When
// consume is true the lookup runs as GETDEL, a single atomic command: of two
// concurrent consuming lookups for the same token, exactly one sees a value.
func (a *Adapter) GetSignOnToken(ctx context.Context, ident, token string, cred *core.Credential, consume bool) (*core.SignOnToken, error) {
	key := tokenKey(cred.ID, ident, token)

	var raw string
	var err error
	if consume {
		raw, err = a.client.GetDel(ctx, key).Result()
	} else {
		raw, err = a.client.Get(ctx, key).Result()
	}
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, core.ErrTokenNotFound
		}
		return nil, err
	}

	var record tokenRecord
	if err := json.Unmarshal([]byte(raw), &record); err != nil {
		return nil, fmt.Errorf("corrupt sign-on token record: %w", err)
	}

	return &core.SignOnToken{
		Ident:        ident,
		Token:        token,
		CredentialID: cred.ID,
		CreatedAt:    record.CreatedAt,
		ExpiresAt:    record.ExpiresAt,
	}, nil
}

// IssueSignOnToken mints and stores a new single-use token for ident under
// the given credential. A positive ttl becomes the key TTL; zero means the
// token never expires on its own.
func (a *Adapter) IssueSignOnToken(ctx context.Context, ident string, cred *core.Credential, ttl time.Duration) (*core.SignOnToken, error) {
	secret, err := crypto.GenerateToken(crypto.DefaultTokenLength)
	if err != nil {
		return nil, err
	}

	record := tokenRecord{CreatedAt: time.Now().UTC()}
	if ttl > 0 {
		at := record.CreatedAt.Add(ttl)
		record.ExpiresAt = &at
	}

	raw, err := json.Marshal(record)
	if err != nil {
		return nil, err
	}

	if err := a.client.Set(ctx, tokenKey(cred.ID, ident, secret), raw, ttl).Err(); err != nil {
		return nil, err
	}

	return &core.SignOnToken{
		Ident:        ident,
		Token:        secret,
		CredentialID: cred.ID,
		CreatedAt:    record.CreatedAt,
		ExpiresAt:    record.ExpiresAt,
	}, nil
}
