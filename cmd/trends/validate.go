package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/couchcryptid/outbreak-trends/internal/domain"
	"github.com/google/go-cmp/cmp"
	"github.com/spf13/cobra"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func newValidateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Load reports and re-check the reconciled series",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runValidate(cmd.Context())
		},
	}
}

func (a *app) runValidate(ctx context.Context) error {
	idx, _, err := a.load(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintln(a.stdout, "=== Reconciled Series Validation ===")
	fmt.Fprintln(a.stdout)

	phases := validateIndex(idx)
	if !printPhases(a.stdout, phases) {
		return errors.New("validation failed")
	}
	return nil
}

func validateIndex(idx domain.RegionIndex) []*phase {
	return []*phase{
		validateLoaded(idx),
		validateOrdering(idx),
		validateMonotonic(idx),
		validateAlignment(idx),
		validateIdempotent(idx),
	}
}

// printPhases writes the results table followed by the detailed errors and
// reports whether every phase passed.
func printPhases(w io.Writer, phases []*phase) bool {
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Fprintf(w, "  %-42s %s\n", p.name, status)
	}

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Fprintf(w, "\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Fprintf(w, "  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Fprintln(w, "\nAll validations passed.")
	} else {
		fmt.Fprintln(w, "\nValidation FAILED.")
	}
	return allPassed
}

func validateLoaded(idx domain.RegionIndex) *phase {
	p := &phase{name: "Phase 1: Regions loaded"}
	if len(idx) == 0 {
		p.errorf("no regions found inside the window")
	}
	for _, name := range idx.Regions() {
		s := idx[name]
		if s.Region != name {
			p.errorf("%s: indexed under %q", s.Region, name)
		}
	}
	return p
}

// forEachSeries visits every metric sequence long enough to have been
// reconciled.
func forEachSeries(idx domain.RegionIndex, fn func(region string, m domain.Metric, obs []domain.Observation)) {
	for _, name := range idx.Regions() {
		for _, m := range domain.Metrics {
			obs := idx[name].Series(m)
			if len(obs) < 3 {
				continue
			}
			fn(name, m, obs)
		}
	}
}

func validateOrdering(idx domain.RegionIndex) *phase {
	p := &phase{name: "Phase 2: Days ascending and unique"}
	forEachSeries(idx, func(region string, m domain.Metric, obs []domain.Observation) {
		for i := 1; i < len(obs); i++ {
			if !obs[i].Day.After(obs[i-1].Day) {
				p.errorf("%s %s: day %s follows %s", region, m,
					obs[i].Day.Format("2006-01-02"), obs[i-1].Day.Format("2006-01-02"))
			}
		}
	})
	return p
}

func validateMonotonic(idx domain.RegionIndex) *phase {
	p := &phase{name: "Phase 3: Cumulative counts non-decreasing"}
	forEachSeries(idx, func(region string, m domain.Metric, obs []domain.Observation) {
		for i := 1; i < len(obs); i++ {
			if obs[i].Value < obs[i-1].Value {
				p.errorf("%s %s: %d on %s after %d", region, m,
					obs[i].Value, obs[i].Day.Format("2006-01-02"), obs[i-1].Value)
			}
		}
	})
	return p
}

func validateAlignment(idx domain.RegionIndex) *phase {
	p := &phase{name: "Phase 4: Metric sequences share days"}
	for _, name := range idx.Regions() {
		s := idx[name]
		days := func(obs []domain.Observation) []string {
			out := make([]string, len(obs))
			for i, o := range obs {
				out[i] = o.Day.Format("2006-01-02")
			}
			return out
		}
		confirmed := days(s.Confirmed)
		if diff := cmp.Diff(confirmed, days(s.Deaths)); diff != "" {
			p.errorf("%s: confirmed/deaths days differ (-confirmed +deaths):\n%s", name, diff)
		}
		if diff := cmp.Diff(confirmed, days(s.Recovered)); diff != "" {
			p.errorf("%s: confirmed/recovered days differ (-confirmed +recovered):\n%s", name, diff)
		}
	}
	return p
}

func validateIdempotent(idx domain.RegionIndex) *phase {
	p := &phase{name: "Phase 5: Reconciliation is a fixed point"}
	forEachSeries(idx, func(region string, m domain.Metric, obs []domain.Observation) {
		if diff := cmp.Diff(obs, domain.Clean(obs)); diff != "" {
			p.errorf("%s %s: cleaning again changes the series:\n%s", region, m, diff)
		}
	})
	return p
}
