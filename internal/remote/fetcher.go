package remote

import (
	"context"

	"go.uber.org/zap"

	"github.com/alexanderramin/termplan/internal/cache"
	"github.com/alexanderramin/termplan/internal/domain"
)

// Fetcher is the read-through remote layer: a successful fetch is written
// to the local cache unless the cache already holds a newer version.
type Fetcher struct {
	client *Client
	local  *cache.Local
	log    *zap.Logger
}

// NewFetcher wires a client to a local cache.
func NewFetcher(client *Client, local *cache.Local, log *zap.Logger) *Fetcher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Fetcher{client: client, local: local, log: log.Named("fetcher")}
}

// FetchRemote fetches planID for userID and refreshes the cache.
func (f *Fetcher) FetchRemote(ctx context.Context, planID, userID string) (domain.TermPlan, error) {
	plan, err := f.client.Fetch(ctx, planID, userID)
	if err != nil {
		return domain.TermPlan{}, err
	}
	if cached, ok := f.local.Load(ctx, planID); ok && cached.Version > plan.Version {
		f.log.Info("keeping newer cached plan",
			zap.String("plan_id", planID),
			zap.Int64("cached_version", cached.Version),
			zap.Int64("remote_version", plan.Version))
		return plan, nil
	}
	f.local.Save(ctx, planID, plan)
	return plan, nil
}

// SaveRemote upserts plan and returns the stored copy. The cache is not
// touched; the caller already holds the authoritative local copy.
func (f *Fetcher) SaveRemote(ctx context.Context, userID string, plan domain.TermPlan) (domain.TermPlan, error) {
	return f.client.Save(ctx, userID, plan)
}

// Me resolves the signed-in user through the dashboard.
func (f *Fetcher) Me(ctx context.Context) (string, error) {
	return f.client.Me(ctx)
}
