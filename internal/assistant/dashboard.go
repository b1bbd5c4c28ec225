package assistant

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/Veraticus/zenith/internal/ledger"
	"github.com/Veraticus/zenith/internal/metrics"
)

// Dashboard bundles the briefing and health analysis shown together.
// Briefing is nil when the month has too little data for one.
type Dashboard struct {
	Briefing *Briefing      `json:"briefing,omitempty"`
	Health   metrics.Health `json:"health"`
	Analysis HealthAnalysis `json:"analysis"`
}

// Dashboard runs the monthly briefing and the health analysis concurrently.
func (a *Assistant) Dashboard(ctx context.Context, s *ledger.State) (Dashboard, error) {
	out := Dashboard{Health: metrics.ScoreHealth(s, a.now(), a.policy)}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		b, err := a.MonthlyBriefing(gctx, s)
		if IsKind(err, KindInsufficientData) {
			return nil
		}
		if err != nil {
			return err
		}
		out.Briefing = &b
		return nil
	})
	g.Go(func() error {
		analysis, err := a.HealthAnalysis(gctx, out.Health)
		if err != nil {
			return err
		}
		out.Analysis = analysis
		return nil
	})
	if err := g.Wait(); err != nil {
		return Dashboard{}, err
	}
	return out, nil
}
