package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/alexanderramin/termplan/internal/cli/formatter"
	"github.com/alexanderramin/termplan/internal/domain"
	"github.com/alexanderramin/termplan/internal/service"
)

// loadPlan drains one load and returns its final snapshot. It fails when
// the load settles without a plan to show.
func loadPlan(ctx context.Context, svc *service.PlanService, planID string, progress func(service.Snapshot)) (service.Snapshot, error) {
	var last service.Snapshot
	for snap := range svc.Load(ctx, planID) {
		last = snap
		if progress != nil {
			progress(snap)
		}
	}
	if err := ctx.Err(); err != nil {
		return last, err
	}
	if last.Plan == nil {
		msg := last.Message
		if msg == "" {
			msg = service.MsgLoadFailed
		}
		if last.Err == nil {
			return last, errors.New(msg)
		}
		return last, fmt.Errorf("%s: %w", msg, last.Err)
	}
	return last, nil
}

// loadForCommand is loadPlan for plain-output commands: on a terminal a
// spinner on w tracks the load until it settles.
func loadForCommand(ctx context.Context, app *App, svc *service.PlanService, planID string, w io.Writer) (service.Snapshot, error) {
	if !app.interactive() {
		return loadPlan(ctx, svc, planID, nil)
	}
	sp := formatter.NewSpinner(w, "Loading term plan...")
	sp.Start()
	snap, err := loadPlan(ctx, svc, planID, func(s service.Snapshot) {
		if s.Refreshing {
			sp.SetMessage("Refreshing from dashboard...")
		}
	})
	sp.Stop()
	return snap, err
}

// mutatePlan loads planID, applies m and optionally saves to the
// dashboard. Progress and outcome lines go to out.
func mutatePlan(ctx context.Context, app *App, out io.Writer, planID, name string, save bool, m service.Mutation) (domain.TermPlan, error) {
	svc := app.newSession()
	snap, err := loadForCommand(ctx, app, svc, planID, out)
	if err != nil {
		return domain.TermPlan{}, err
	}
	if snap.Notice != "" {
		fmt.Fprintln(out, formatter.Notice(snap.Notice))
	}

	plan, err := svc.Apply(ctx, name, m)
	if err != nil {
		return domain.TermPlan{}, err
	}
	fmt.Fprintln(out, formatter.Success(fmt.Sprintf("Updated %s locally (v%d)", name, plan.Version)))

	if !save {
		return plan, nil
	}
	if _, err := svc.SaveToDashboard(ctx); err != nil {
		fmt.Fprintln(out, formatter.ErrorLine(service.NoticeSaveFailed))
		return plan, err
	}
	fmt.Fprintln(out, formatter.Success(service.NoticeSaved))
	return plan, nil
}
