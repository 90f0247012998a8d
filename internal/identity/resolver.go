// Package identity decides which user the current session acts for.
package identity

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/alexanderramin/termplan/internal/auth"
	"github.com/alexanderramin/termplan/internal/repository"
)

// Keys in the local keyspace holding fallback identities.
const (
	UserKey       = "user"
	UserIDKey     = "userId"
	DemoUserIDKey = "demoUserId"
)

// Source is one place a user id can come from. An empty id with a nil
// error means the source has nothing to offer.
type Source interface {
	Name() string
	UserID(ctx context.Context) (string, error)
}

// Resolver asks its sources in order; the first non-empty id wins.
type Resolver struct {
	sources []Source
	kv      repository.KVRepo
	log     *zap.Logger
}

// NewResolver creates a Resolver. kv may be nil when Remember is unused.
func NewResolver(kv repository.KVRepo, log *zap.Logger, sources ...Source) *Resolver {
	if log == nil {
		log = zap.NewNop()
	}
	return &Resolver{sources: sources, kv: kv, log: log.Named("identity")}
}

// Resolve returns the first id any source provides. Failing sources are
// logged and skipped.
func (r *Resolver) Resolve(ctx context.Context) (string, bool) {
	for _, s := range r.sources {
		if ctx.Err() != nil {
			return "", false
		}
		id, err := s.UserID(ctx)
		if err != nil {
			r.log.Debug("identity source failed", zap.String("source", s.Name()), zap.Error(err))
			continue
		}
		if id = strings.TrimSpace(id); id != "" {
			r.log.Debug("identity resolved", zap.String("source", s.Name()), zap.String("user_id", id))
			return id, true
		}
	}
	return "", false
}

// Remember stores id as the userId fallback.
func (r *Resolver) Remember(ctx context.Context, id string) error {
	if r.kv == nil {
		return errors.New("identity resolver has no store")
	}
	return r.kv.Put(ctx, UserIDKey, []byte(id))
}

// SessionSource reads the uid claim of the configured session token.
type SessionSource struct {
	Token string
}

func (SessionSource) Name() string { return "session" }

func (s SessionSource) UserID(context.Context) (string, error) {
	if s.Token == "" {
		return "", nil
	}
	return auth.PeekUserID(s.Token)
}

// MeLookup asks the dashboard who the token belongs to.
type MeLookup interface {
	Me(ctx context.Context) (string, error)
}

// RemoteSource resolves through the dashboard's /me endpoint.
type RemoteSource struct {
	Lookup MeLookup
}

func (RemoteSource) Name() string { return "remote" }

func (s RemoteSource) UserID(ctx context.Context) (string, error) {
	if s.Lookup == nil {
		return "", nil
	}
	return s.Lookup.Me(ctx)
}

// StoredUserSource reads the id field of the stored user record.
type StoredUserSource struct {
	KV repository.KVRepo
}

func (StoredUserSource) Name() string { return "stored-user" }

func (s StoredUserSource) UserID(ctx context.Context) (string, error) {
	raw, err := s.KV.Get(ctx, UserKey)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", nil
		}
		return "", err
	}
	var user struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(raw, &user); err != nil {
		return "", err
	}
	return user.ID, nil
}

// FallbackIDSource reads the first non-empty plain id among Keys.
type FallbackIDSource struct {
	KV   repository.KVRepo
	Keys []string
}

func (FallbackIDSource) Name() string { return "fallback-id" }

func (s FallbackIDSource) UserID(ctx context.Context) (string, error) {
	for _, key := range s.Keys {
		raw, err := s.KV.Get(ctx, key)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				continue
			}
			return "", err
		}
		// Values may have been written as JSON strings.
		id := strings.TrimSpace(string(raw))
		var quoted string
		if json.Unmarshal(raw, &quoted) == nil {
			id = strings.TrimSpace(quoted)
		}
		if id != "" {
			return id, nil
		}
	}
	return "", nil
}

// DefaultSources returns the standard precedence: session token, the
// dashboard, the stored user record, then the userId and demoUserId keys.
func DefaultSources(token string, lookup MeLookup, kv repository.KVRepo) []Source {
	sources := []Source{SessionSource{Token: token}}
	if lookup != nil {
		sources = append(sources, RemoteSource{Lookup: lookup})
	}
	return append(sources,
		StoredUserSource{KV: kv},
		FallbackIDSource{KV: kv, Keys: []string{UserIDKey, DemoUserIDKey}},
	)
}
