// Package digest sends the portfolio update email to every configured subscription on a schedule.
package digest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	alertdomain "psx_backend/internal/feature/alert/domain"
	alertentity "psx_backend/internal/feature/alert/domain/entity"
	alertusecase "psx_backend/internal/feature/alert/usecase"
	portfolioentity "psx_backend/internal/feature/portfolio/domain/entity"
	"psx_backend/internal/platform/config"
)

// runTimeout bounds one digest run across all subscriptions.
const runTimeout = 10 * time.Minute

// Sender runs the email update flow for one recipient.
type Sender interface {
	SendUpdate(ctx context.Context, req alertusecase.UpdateRequest) (alertusecase.UpdateResult, error)
}

// Report summarizes one run.
type Report struct {
	Sent    int
	Failed  int
	Skipped bool
}

// Runner sends every subscription once per run.
type Runner struct {
	sender Sender
	subs   []alertusecase.UpdateRequest
	loc    *time.Location
	now    func() time.Time
}

// NewRunner builds a runner in the given IANA timezone.
func NewRunner(sender Sender, subs []alertusecase.UpdateRequest, timezone string) (*Runner, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("digest timezone %q: %w", timezone, err)
	}
	return &Runner{sender: sender, subs: subs, loc: loc, now: time.Now}, nil
}

// RunOnce sends to every subscription. Weekends are skipped because PSX is closed.
// A failing subscription does not stop the others.
func (r *Runner) RunOnce(ctx context.Context) Report {
	today := r.now().In(r.loc)
	if wd := today.Weekday(); wd == time.Saturday || wd == time.Sunday {
		slog.Info("digest skipped on weekend", "date", today.Format(time.DateOnly))
		return Report{Skipped: true}
	}

	var rep Report
	for _, sub := range r.subs {
		if ctx.Err() != nil {
			break
		}
		res, err := r.sender.SendUpdate(ctx, sub)
		switch {
		case err == nil:
			rep.Sent++
			slog.Info("digest sent", "to", sub.Recipient, "alerts", len(res.Events))
		case errors.Is(err, alertdomain.ErrNotificationDeliveryFailed):
			rep.Failed++
			slog.Error("digest delivery failed", "to", sub.Recipient, "alerts", len(res.Events), "error", err)
		default:
			rep.Failed++
			slog.Error("digest failed", "to", sub.Recipient, "error", err)
		}
	}
	return rep
}

// Schedule registers RunOnce on spec in the runner's timezone. The caller starts and stops the cron.
func (r *Runner) Schedule(ctx context.Context, spec string) (*cron.Cron, error) {
	c := cron.New(cron.WithLocation(r.loc))
	if _, err := c.AddFunc(spec, func() {
		runCtx, cancel := context.WithTimeout(ctx, runTimeout)
		defer cancel()
		rep := r.RunOnce(runCtx)
		slog.Info("digest run finished", "sent", rep.Sent, "failed", rep.Failed, "skipped", rep.Skipped)
	}); err != nil {
		return nil, fmt.Errorf("register digest %q: %w", spec, err)
	}
	return c, nil
}

// Requests converts configured subscriptions into update requests. Configured rules are always active.
func Requests(subs []config.Subscription) []alertusecase.UpdateRequest {
	out := make([]alertusecase.UpdateRequest, 0, len(subs))
	for _, s := range subs {
		req := alertusecase.UpdateRequest{Recipient: s.Email}
		for _, h := range s.Holdings {
			req.Holdings = append(req.Holdings, portfolioentity.Holding{Symbol: h.Symbol, Quantity: h.Quantity, BuyPrice: h.BuyPrice})
		}
		for _, r := range s.Rules {
			req.Rules = append(req.Rules, alertentity.Rule{
				Symbol:    r.Symbol,
				Kind:      alertentity.Kind(strings.ToLower(r.AlertType)),
				Condition: strings.ToLower(r.Condition),
				Threshold: r.Threshold,
				Active:    true,
			})
		}
		out = append(out, req)
	}
	return out
}
