// Package cache is the device-local copy of term plans. It never fails to
// its caller: storage and parse errors are logged and reported as absent.
package cache

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/alexanderramin/termplan/internal/codec"
	"github.com/alexanderramin/termplan/internal/domain"
	"github.com/alexanderramin/termplan/internal/repository"
)

// KeyPrefix namespaces plan entries in the shared keyspace.
const KeyPrefix = "termPlan_"

// Key returns the storage key for a plan id.
func Key(planID string) string {
	return KeyPrefix + planID
}

// Local reads and writes cached plans through a KVRepo.
type Local struct {
	kv  repository.KVRepo
	log *zap.Logger
}

// NewLocal creates a Local cache. A nil logger discards log output.
func NewLocal(kv repository.KVRepo, log *zap.Logger) *Local {
	if log == nil {
		log = zap.NewNop()
	}
	return &Local{kv: kv, log: log.Named("cache")}
}

// Load returns the cached plan for id. Missing, unreadable and malformed
// entries all report ok=false.
func (l *Local) Load(ctx context.Context, planID string) (*domain.TermPlan, bool) {
	if planID == "" {
		return nil, false
	}
	raw, err := l.kv.Get(ctx, Key(planID))
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			l.log.Warn("reading cached plan", zap.String("plan_id", planID), zap.Error(err))
		}
		return nil, false
	}
	plan, err := codec.Normalize(raw)
	if err != nil {
		l.log.Warn("discarding malformed cached plan", zap.String("plan_id", planID), zap.Error(err))
		return nil, false
	}
	if plan.ID == "" {
		plan.ID = planID
	}
	return &plan, true
}

// Save overwrites the cached plan for id. Failures are logged and
// swallowed; the in-memory plan stays authoritative for the session.
func (l *Local) Save(ctx context.Context, planID string, plan domain.TermPlan) {
	if planID == "" {
		return
	}
	raw, err := codec.Encode(plan)
	if err != nil {
		l.log.Error("encoding plan for cache", zap.String("plan_id", planID), zap.Error(err))
		return
	}
	if err := l.kv.Put(ctx, Key(planID), raw); err != nil {
		l.log.Warn("writing cached plan", zap.String("plan_id", planID), zap.Error(err))
	}
}

// Forget removes the cached plan for id. It reports whether an entry was
// removed.
func (l *Local) Forget(ctx context.Context, planID string) bool {
	if err := l.kv.Delete(ctx, Key(planID)); err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			l.log.Warn("deleting cached plan", zap.String("plan_id", planID), zap.Error(err))
		}
		return false
	}
	return true
}

// Entry summarizes one cached plan.
type Entry struct {
	PlanID string
	Plan   domain.TermPlan
	Valid  bool
}

// List returns every cached plan in key order. Entries that do not parse
// are listed with Valid=false so they can be cleared.
func (l *Local) List(ctx context.Context) []Entry {
	rows, err := l.kv.ListPrefix(ctx, KeyPrefix)
	if err != nil {
		l.log.Warn("listing cached plans", zap.Error(err))
		return nil
	}
	entries := make([]Entry, 0, len(rows))
	for _, r := range rows {
		id := strings.TrimPrefix(r.Key, KeyPrefix)
		plan, err := codec.Normalize(r.Value)
		entries = append(entries, Entry{PlanID: id, Plan: plan, Valid: err == nil})
	}
	return entries
}
