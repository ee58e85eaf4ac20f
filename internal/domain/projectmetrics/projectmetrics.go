// Package projectmetrics derives the computed fields of a project:
// budget, progress, alerts, status and sub-intervention display codes.
//
// There is one function, Compute, with an explicit TimeSensitive flag.
// With the flag off (ServerSafe) the overdue check is skipped entirely, so
// the result does not depend on the clock and can be persisted. With the
// flag on (AtRequestTime) stages past their deadline raise alerts and may
// mark the project Delayed. Both variants agree on every other field.
package projectmetrics

import (
	"math"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/nestoreco/nestor/internal/domain/models"
	"github.com/shopspring/decimal"
)

// Options controls a Compute call.
type Options struct {
	// TimeSensitive enables overdue detection against Now.
	TimeSensitive bool
	Now           time.Time
}

// Summary carries the raw stage counts behind a Compute result.
type Summary struct {
	TotalStages     int
	CompletedStages int
	OverdueStages   int
}

// ServerSafe computes metrics without consulting the clock.
func ServerSafe(p models.Project) models.Project {
	return Compute(p, Options{})
}

// AtRequestTime computes metrics including overdue detection against now.
func AtRequestTime(p models.Project, now time.Time) models.Project {
	return Compute(p, Options{TimeSensitive: true, Now: now})
}

// Compute returns a copy of p with derived fields populated. p itself is
// never modified.
func Compute(p models.Project, opts Options) models.Project {
	out, _ := ComputeWithSummary(p, opts)
	return out
}

// ComputeWithSummary is Compute plus the stage counts.
func ComputeWithSummary(p models.Project, opts Options) (models.Project, Summary) {
	out := p
	out.Interventions = copyInterventions(p.Interventions)

	var sum Summary
	budget := decimal.Zero

	for i := range out.Interventions {
		iv := &out.Interventions[i]

		for _, st := range iv.Stages {
			sum.TotalStages++
			if st.Status == models.StageCompleted {
				sum.CompletedStages++
				continue
			}
			if opts.TimeSensitive && isOverdue(st, opts.Now) {
				sum.OverdueStages++
			}
		}

		total := decimal.Zero
		suffix := RomanSuffix(iv.ExpenseCategory)
		for j := range iv.SubInterventions {
			sub := &iv.SubInterventions[j]
			total = total.Add(decimal.NewFromFloat(sub.EligibleCost))
			sub.DisplayCode = DisplayCode(sub.Code, suffix)
		}
		iv.TotalCost = total.Round(2).InexactFloat64()
		budget = budget.Add(total)
	}

	out.Budget = budget.Round(2).InexactFloat64()
	out.Progress = Progress(sum.CompletedStages, sum.TotalStages)
	out.Alerts = sum.OverdueStages
	out.Status = Status(p.Status, p.StatusManual, out.Progress, sum)

	sortInterventions(out.Interventions)

	return out, sum
}

// Progress is round(100 * completed / total), or 0 when total is 0.
func Progress(completed, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(100 * float64(completed) / float64(total)))
}

// Status resolves the project status from the current value and counts.
// Quotation is only ever set by a user and is kept. Completed is kept only
// when manual; a computed Completed is re-derived like any other status.
func Status(current string, manual bool, progress int, sum Summary) string {
	if current == models.StatusQuotation || (manual && current == models.StatusCompleted) {
		return current
	}
	if progress == 100 && sum.TotalStages > 0 {
		return models.StatusCompleted
	}
	if sum.OverdueStages > 0 {
		return models.StatusDelayed
	}
	return models.StatusOnTrack
}

func isOverdue(st models.Stage, now time.Time) bool {
	if st.Status == models.StageFailed || st.Deadline == nil {
		return false
	}
	return st.Deadline.Before(now)
}

var romanRe = regexp.MustCompile(`\((X|IX|VIII|VII|VI|V|IV|III|II|I)\)`)

// RomanSuffix extracts the parenthesised roman numeral (I to X) from an
// expense category label, or "" when there is none.
func RomanSuffix(label string) string {
	m := romanRe.FindStringSubmatch(label)
	if m == nil {
		return ""
	}
	return m[1]
}

// DisplayCode appends the roman suffix to a subcategory code.
func DisplayCode(code, suffix string) string {
	code = strings.TrimSpace(code)
	switch {
	case suffix == "":
		return code
	case code == "":
		return suffix
	}
	return code + "-" + suffix
}

func sortInterventions(ivs []models.Intervention) {
	sort.SliceStable(ivs, func(i, j int) bool {
		return strings.ToLower(ivs[i].DisplayName()) < strings.ToLower(ivs[j].DisplayName())
	})
}

func copyInterventions(in []models.Intervention) []models.Intervention {
	if in == nil {
		return nil
	}
	out := make([]models.Intervention, len(in))
	for i, iv := range in {
		cp := iv
		if iv.SubInterventions != nil {
			cp.SubInterventions = append([]models.SubIntervention(nil), iv.SubInterventions...)
		}
		if iv.Stages != nil {
			cp.Stages = append([]models.Stage(nil), iv.Stages...)
		}
		out[i] = cp
	}
	return out
}

// InternalCost is materials plus labor.
func InternalCost(s models.SubIntervention) float64 {
	return decimal.NewFromFloat(s.MaterialsCost).
		Add(decimal.NewFromFloat(s.LaborCost)).
		Round(2).InexactFloat64()
}

// Profit is program (eligible) cost minus internal cost.
func Profit(s models.SubIntervention) float64 {
	return decimal.NewFromFloat(s.EligibleCost).
		Sub(decimal.NewFromFloat(s.MaterialsCost)).
		Sub(decimal.NewFromFloat(s.LaborCost)).
		Round(2).InexactFloat64()
}

// Totals is the cost breakdown over a whole project.
type Totals struct {
	Program  float64
	Internal float64
	Profit   float64
}

// ProjectTotals sums program, internal and profit across every line item.
func ProjectTotals(p models.Project) Totals {
	prog, internal := decimal.Zero, decimal.Zero
	for _, iv := range p.Interventions {
		for _, s := range iv.SubInterventions {
			prog = prog.Add(decimal.NewFromFloat(s.EligibleCost))
			internal = internal.Add(decimal.NewFromFloat(s.MaterialsCost)).Add(decimal.NewFromFloat(s.LaborCost))
		}
	}
	return Totals{
		Program:  prog.Round(2).InexactFloat64(),
		Internal: internal.Round(2).InexactFloat64(),
		Profit:   prog.Sub(internal).Round(2).InexactFloat64(),
	}
}
