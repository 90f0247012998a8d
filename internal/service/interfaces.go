package service

import (
	"context"

	"github.com/alexanderramin/termplan/internal/domain"
)

// PlanCache is the device-local plan store. It never fails to the caller.
type PlanCache interface {
	Load(ctx context.Context, planID string) (*domain.TermPlan, bool)
	Save(ctx context.Context, planID string, plan domain.TermPlan)
}

// PlanRemote is the dashboard. FetchRemote writes successful fetches
// through to the cache.
type PlanRemote interface {
	FetchRemote(ctx context.Context, planID, userID string) (domain.TermPlan, error)
	SaveRemote(ctx context.Context, userID string, plan domain.TermPlan) (domain.TermPlan, error)
}

// IdentityResolver names the user the session acts for.
type IdentityResolver interface {
	Resolve(ctx context.Context) (string, bool)
}

// Mutation is a pure plan transformation such as domain.SaveGoals bound
// to its arguments.
type Mutation func(domain.TermPlan) (domain.TermPlan, error)
