package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/alexanderramin/termplan/internal/domain"
	"github.com/alexanderramin/termplan/internal/remote"
)

// LoadingState is the lifecycle of one plan session.
type LoadingState string

const (
	StateInitial LoadingState = "initial"
	StateLoading LoadingState = "loading"
	StateTimeout LoadingState = "timeout"
	StateError   LoadingState = "error"
	StateSuccess LoadingState = "success"
)

// Recoverable reports whether a retry may leave this state.
func (s LoadingState) Recoverable() bool {
	return s == StateError || s == StateTimeout
}

// Source says where the displayed plan came from.
type Source string

const (
	SourceNone   Source = ""
	SourceLocal  Source = "local"
	SourceRemote Source = "remote"
)

// User-facing messages.
const (
	MsgMissingPlanID  = "No term plan ID provided. Please go back and select a term plan."
	MsgNoIdentity     = "Unable to identify the signed-in user. Please sign in and try again."
	MsgNotFound       = "Term plan not found."
	MsgLoadFailed     = "Failed to load the term plan."
	MsgTimeout        = "Loading the term plan is taking too long."
	NoticeCachedData  = "Using cached data; dashboard unavailable"
	NoticeLocalNewer  = "Local edits are newer than the dashboard copy and have not been saved"
	NoticeNoIdentity  = "Using cached data; not signed in"
	NoticeSaved       = "Saved to dashboard"
	NoticeSaveFailed  = "Save to dashboard failed"
	defaultOverallTTL = 15 * time.Second
)

var (
	// ErrMissingPlanID indicates a load without a plan id.
	ErrMissingPlanID = errors.New("no term plan id provided")

	// ErrNoIdentity indicates no identity source produced a user id.
	ErrNoIdentity = errors.New("no user identity available")

	// ErrNoPlan indicates a mutation or save before any plan was loaded.
	ErrNoPlan = errors.New("no term plan loaded")
)

// Snapshot is one observable state of the session.
type Snapshot struct {
	State  LoadingState
	PlanID string
	Plan   *domain.TermPlan
	Source Source
	// Loading is true while nothing can be shown yet. Refreshing is true
	// while a cached plan is shown and the dashboard fetch is in flight.
	Loading    bool
	Refreshing bool
	Err        error
	Message    string
	Notice     string
}

// PlanServiceOptions tunes a PlanService. Zero values pick defaults.
type PlanServiceOptions struct {
	// OverallTimeout bounds identity resolution plus the remote fetch.
	OverallTimeout time.Duration
	Now            func() time.Time
	Logger         *zap.Logger
}

// PlanService owns one plan session: it reconciles the cached and remote
// copies, applies mutations and saves to the dashboard on request.
type PlanService struct {
	cache    PlanCache
	remote   PlanRemote
	identity IdentityResolver
	observer UseCaseObserver
	log      *zap.Logger
	overall  time.Duration
	now      func() time.Time

	mu      sync.Mutex
	current Snapshot
	userID  string
}

// NewPlanService creates a PlanService in the initial state.
func NewPlanService(cache PlanCache, rem PlanRemote, identity IdentityResolver, opts PlanServiceOptions, observers ...UseCaseObserver) *PlanService {
	s := &PlanService{
		cache:    cache,
		remote:   rem,
		identity: identity,
		observer: useCaseObserverOrNoop(observers),
		log:      opts.Logger,
		overall:  opts.OverallTimeout,
		now:      opts.Now,
		current:  Snapshot{State: StateInitial},
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	if s.overall <= 0 {
		s.overall = defaultOverallTTL
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// Current returns the latest snapshot.
func (s *PlanService) Current() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.copyCurrent()
}

// Load starts a session for planID and streams its snapshots. The cached
// plan, when present, is emitted before any network call. The channel
// closes once the load settles or ctx is cancelled; after cancellation no
// further snapshot is emitted and the in-flight request is aborted.
func (s *PlanService) Load(ctx context.Context, planID string) <-chan Snapshot {
	out := make(chan Snapshot, 4)
	go func() {
		defer close(out)
		s.run(ctx, planID, out)
	}()
	return out
}

// Retry re-enters loading for the last plan id.
func (s *PlanService) Retry(ctx context.Context) <-chan Snapshot {
	s.mu.Lock()
	planID := s.current.PlanID
	s.mu.Unlock()
	return s.Load(ctx, planID)
}

func (s *PlanService) run(ctx context.Context, planID string, out chan<- Snapshot) {
	start := time.Now()
	var (
		outcome error
		source  Source
	)
	defer func() {
		observe(ctx, s.observer, "plan.load", start, outcome, map[string]any{
			"plan_id": planID,
			"source":  string(source),
		})
	}()

	if planID == "" {
		outcome = ErrMissingPlanID
		s.publish(ctx, out, func(cur *Snapshot) {
			*cur = Snapshot{State: StateError, Err: ErrMissingPlanID, Message: MsgMissingPlanID}
		})
		return
	}

	if !s.publish(ctx, out, func(cur *Snapshot) {
		*cur = Snapshot{State: StateLoading, PlanID: planID, Loading: true}
	}) {
		return
	}

	local, haveLocal := s.cache.Load(ctx, planID)
	if haveLocal {
		source = SourceLocal
		if !s.publish(ctx, out, func(cur *Snapshot) {
			cur.State = StateSuccess
			cur.Plan = local
			cur.Source = SourceLocal
			cur.Loading = false
			cur.Refreshing = true
		}) {
			return
		}
	}

	fetchCtx, cancel := context.WithTimeout(ctx, s.overall)
	defer cancel()

	userID, ok := s.resolveUser(fetchCtx)
	if !ok {
		if ctx.Err() != nil {
			return
		}
		outcome = ErrNoIdentity
		if fetchCtx.Err() != nil {
			outcome = remote.ErrTimeout
		}
		s.settleFailure(ctx, out, haveLocal, outcome, NoticeNoIdentity)
		return
	}

	fetched, err := s.remote.FetchRemote(fetchCtx, planID, userID)
	if ctx.Err() != nil {
		// Abandoned by the caller; stay silent.
		outcome = ctx.Err()
		return
	}
	if err != nil {
		if fetchCtx.Err() != nil {
			err = fmt.Errorf("%w: %v", remote.ErrTimeout, err)
		}
		outcome = err
		s.log.Warn("remote load failed", zap.String("plan_id", planID), zap.Error(err))
		s.settleFailure(ctx, out, haveLocal, err, NoticeCachedData)
		return
	}

	source = SourceRemote
	s.publish(ctx, out, func(cur *Snapshot) {
		cur.State = StateSuccess
		cur.Loading = false
		cur.Refreshing = false
		cur.Err = nil
		cur.Message = ""
		// An edited or newer local copy wins over an older dashboard copy.
		if cur.Plan != nil && fetched.Version < cur.Plan.Version {
			source = SourceLocal
			cur.Notice = NoticeLocalNewer
			return
		}
		plan := fetched
		cur.Plan = &plan
		cur.Source = SourceRemote
		cur.Notice = ""
	})
}

// settleFailure ends a load whose remote leg failed. A displayed cached
// plan keeps the session at success with a notice.
func (s *PlanService) settleFailure(ctx context.Context, out chan<- Snapshot, haveLocal bool, err error, notice string) {
	s.publish(ctx, out, func(cur *Snapshot) {
		cur.Loading = false
		cur.Refreshing = false
		if haveLocal {
			cur.State = StateSuccess
			cur.Notice = notice
			return
		}
		cur.Plan = nil
		cur.Source = SourceNone
		cur.Err = err
		cur.State, cur.Message = failureState(err)
	})
}

func failureState(err error) (LoadingState, string) {
	switch {
	case errors.Is(err, remote.ErrTimeout):
		return StateTimeout, MsgTimeout
	case errors.Is(err, ErrNoIdentity):
		return StateError, MsgNoIdentity
	case errors.Is(err, remote.ErrNotFound):
		return StateError, MsgNotFound
	default:
		return StateError, MsgLoadFailed
	}
}

// publish applies fn to the current snapshot under the lock and emits the
// result. It returns false when ctx is done, in which case nothing is
// applied.
func (s *PlanService) publish(ctx context.Context, out chan<- Snapshot, fn func(*Snapshot)) bool {
	if ctx.Err() != nil {
		return false
	}
	s.mu.Lock()
	fn(&s.current)
	snap := s.copyCurrent()
	s.mu.Unlock()

	select {
	case out <- snap:
		return true
	case <-ctx.Done():
		return false
	}
}

func (s *PlanService) copyCurrent() Snapshot {
	snap := s.current
	if snap.Plan != nil {
		p := snap.Plan.Clone()
		snap.Plan = &p
	}
	return snap
}

func (s *PlanService) resolveUser(ctx context.Context) (string, bool) {
	s.mu.Lock()
	cached := s.userID
	s.mu.Unlock()
	if cached != "" {
		return cached, true
	}
	id, ok := s.identity.Resolve(ctx)
	if ok {
		s.mu.Lock()
		s.userID = id
		s.mu.Unlock()
	}
	return id, ok
}

// Apply runs m against the current plan. On success the result becomes
// the current plan and is saved to the cache before Apply returns; the
// dashboard is not contacted. On failure the current plan is unchanged.
func (s *PlanService) Apply(ctx context.Context, name string, m Mutation) (domain.TermPlan, error) {
	start := time.Now()
	s.mu.Lock()
	if s.current.Plan == nil {
		s.mu.Unlock()
		observe(ctx, s.observer, "plan.mutate", start, ErrNoPlan, map[string]any{"mutation": name})
		return domain.TermPlan{}, ErrNoPlan
	}
	before := *s.current.Plan
	next, err := m(before)
	if err != nil {
		s.mu.Unlock()
		observe(ctx, s.observer, "plan.mutate", start, err, map[string]any{"mutation": name, "plan_id": before.ID})
		return before.Clone(), err
	}
	next.UpdatedAt = s.now().UTC()
	committed := next.Clone()
	s.current.Plan = &committed
	planID := s.current.PlanID
	s.mu.Unlock()

	s.cache.Save(ctx, planID, next)
	observe(ctx, s.observer, "plan.mutate", start, nil, map[string]any{
		"mutation": name,
		"plan_id":  planID,
		"version":  next.Version,
	})
	return next, nil
}

// SaveToDashboard upserts the whole current plan once. A failure leaves
// the local plan as it is.
func (s *PlanService) SaveToDashboard(ctx context.Context) (domain.TermPlan, error) {
	start := time.Now()
	var err error
	defer func() {
		observe(ctx, s.observer, "plan.save_dashboard", start, err, nil)
	}()

	s.mu.Lock()
	if s.current.Plan == nil {
		s.mu.Unlock()
		err = ErrNoPlan
		return domain.TermPlan{}, err
	}
	plan := s.current.Plan.Clone()
	if plan.ID == "" {
		plan.ID = s.current.PlanID
	}
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, s.overall)
	defer cancel()

	userID, ok := s.resolveUser(ctx)
	if !ok {
		err = ErrNoIdentity
		s.setNotice(NoticeSaveFailed)
		return domain.TermPlan{}, err
	}

	var stored domain.TermPlan
	stored, err = s.remote.SaveRemote(ctx, userID, plan)
	if err != nil {
		s.setNotice(NoticeSaveFailed)
		return domain.TermPlan{}, fmt.Errorf("saving plan %s: %w", plan.ID, err)
	}

	// The dashboard never lets its version go backwards, so a save from a
	// stale copy can come back with a higher version than we sent. Adopt
	// it so the next load does not treat our own write as older.
	var adopted *domain.TermPlan
	s.mu.Lock()
	if s.current.Plan != nil {
		s.current.Plan.UserID = userID
		if stored.Version > s.current.Plan.Version {
			s.current.Plan.Version = stored.Version
		}
		cp := s.current.Plan.Clone()
		adopted = &cp
	}
	s.current.Notice = NoticeSaved
	planID := s.current.PlanID
	s.mu.Unlock()

	if adopted != nil {
		s.cache.Save(ctx, planID, *adopted)
	}
	return stored, nil
}

func (s *PlanService) setNotice(n string) {
	s.mu.Lock()
	s.current.Notice = n
	s.mu.Unlock()
}
