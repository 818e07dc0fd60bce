package main

import (
	"fmt"
	"io"
	"math"
	"strings"
	"text/tabwriter"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/sells-group/site-select/internal/evaluate"
	"github.com/sells-group/site-select/internal/mcda"
	"github.com/sells-group/site-select/internal/pipeline"
	"github.com/sells-group/site-select/internal/provider"
)

var printer = message.NewPrinter(language.English)

// num formats v with two decimals and thousands separators.
func num(v float64) string {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return "n/a"
	}
	return printer.Sprintf("%.2f", v)
}

func newTable(out io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
}

// formatRanking writes the recommended sites as a table.
func formatRanking(out io.Writer, top []mcda.Scored) {
	w := newTable(out)
	_, _ = fmt.Fprintln(w, "RANK\tSITE\tNAME\tSCORE\tCATEGORY\tSAFE_AREA_M2\tCOVERAGE_%\tDISTANCE_M")
	_, _ = fmt.Fprintln(w, "----\t----\t----\t-----\t--------\t------------\t----------\t----------")
	for _, s := range top {
		d := s.Detail()
		_, _ = fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			d.Rank,
			d.SiteID,
			truncate(d.Name, 30),
			num(d.Score),
			d.Category,
			num(d.SafeAreaM2),
			num(d.CoveragePct),
			num(d.DistanceM),
		)
	}
	_ = w.Flush()
}

// printNoSites explains an empty ranking.
func printNoSites(out io.Writer, res *pipeline.Result) {
	switch {
	case res.Demand.IsEmpty():
		_, _ = fmt.Fprintln(out, "No feasible sites: the demand zone is empty (no usable critical facilities).")
	case res.Exclusion.IsEmpty():
		_, _ = fmt.Fprintln(out, "No feasible sites: the exclusion zone is empty (no usable roads).")
	default:
		_, _ = fmt.Fprintln(out, "No feasible sites: every candidate failed the demand, safety or area test.")
	}
}

func formatWarnings(out io.Writer, warnings []string) {
	for _, msg := range warnings {
		_, _ = fmt.Fprintf(out, "warning: %s\n", msg)
	}
}

// formatSummary writes the run summary.
func formatSummary(out io.Writer, s pipeline.Summary) {
	_, _ = fmt.Fprintln(out)
	w := newTable(out)
	_, _ = fmt.Fprintf(w, "Run:\t%s\n", s.RunID)
	_, _ = fmt.Fprintf(w, "Source:\t%s\n", s.Source)
	_, _ = fmt.Fprintf(w, "Demand zone:\t%d facilities, %s m radius, %s km²\n",
		s.Demand.Sources, num(s.Demand.Distance), num(s.Demand.AreaKM2))
	_, _ = fmt.Fprintf(w, "Exclusion zone:\t%d roads, %s m buffer, %s km²\n",
		s.Exclusion.Sources, num(s.Exclusion.Distance), num(s.Exclusion.AreaKM2))
	_, _ = fmt.Fprintf(w, "Candidates:\t%d total, %d feasible (%s%%)\n",
		s.Candidates.Total, s.Candidates.Feasible, num(s.Candidates.SuccessRate))
	_, _ = fmt.Fprintf(w, "  Rejected:\tdemand %d, safety %d, area %d\n",
		s.Candidates.Rejected[evaluate.GateDemand],
		s.Candidates.Rejected[evaluate.GateSafety],
		s.Candidates.Rejected[evaluate.GateArea])
	if faults := s.Demand.Faults + s.Exclusion.Faults + s.Candidates.Faults; faults > 0 {
		_, _ = fmt.Fprintf(w, "  Skipped geometries:\t%d\n", faults)
	}
	_, _ = fmt.Fprintf(w, "Total safe area:\t%s km²\n", num(s.Candidates.TotalSafeAreaKM2))
	_, _ = fmt.Fprintf(w, "Scores:\tmean %s, max %s\n", num(s.Scores.MeanScore), num(s.Scores.MaxScore))
	for _, c := range mcda.Categories {
		_, _ = fmt.Fprintf(w, "  %s:\t%d\n", c, s.Scores.Categories[c])
	}
	_ = w.Flush()
}

// formatDataset writes per-layer counts for inspect.
func formatDataset(out io.Writer, s provider.Summary) {
	w := newTable(out)
	_, _ = fmt.Fprintln(w, "LAYER\tCOUNT\tSRID\tTYPES")
	_, _ = fmt.Fprintln(w, "-----\t-----\t----\t-----")
	for _, l := range s.Layers {
		_, _ = fmt.Fprintf(w, "%s\t%d\t%d\t%s\n", l.Name, l.Count, l.SRID, strings.Join(l.GeometryTypes, ","))
	}
	_ = w.Flush()

	_, _ = fmt.Fprintln(out)
	w = newTable(out)
	_, _ = fmt.Fprintf(w, "Source:\t%s\n", s.Source)
	_, _ = fmt.Fprintf(w, "Boundary:\t%t\n", s.HasBoundary)
	_, _ = fmt.Fprintf(w, "Candidate area:\t%s km²\n", num(s.CandidateAreaKM2))
	_, _ = fmt.Fprintf(w, "Mean candidate area:\t%s m²\n", num(s.MeanCandidateAreaM2))
	_ = w.Flush()
}

// formatReport writes validation findings, or a single OK line.
func formatReport(out io.Writer, r pipeline.Report) {
	if len(r.Warnings) == 0 && len(r.Errors) == 0 {
		_, _ = fmt.Fprintln(out, "Validation: OK")
		return
	}
	formatWarnings(out, r.Warnings)
	for _, msg := range r.Errors {
		_, _ = fmt.Fprintf(out, "error: %s\n", msg)
	}
}

// formatProfiles writes the weight profiles with the configured weights first.
func formatProfiles(out io.Writer, profiles map[string]mcda.Profile, configured mcda.Weights) {
	w := newTable(out)
	_, _ = fmt.Fprintln(w, "PROFILE\tCOVERAGE\tSAFETY\tAREA\tACCESS\tSUM\tDESCRIPTION")
	_, _ = fmt.Fprintln(w, "-------\t--------\t------\t----\t------\t---\t-----------")
	row := func(name string, wt mcda.Weights, desc string) {
		_, _ = fmt.Fprintf(w, "%s\t%.2f\t%.2f\t%.2f\t%.2f\t%.2f\t%s\n",
			name, wt.ServiceCoverage, wt.SafetyDistance, wt.SiteArea, wt.Accessibility, wt.Sum(), desc)
	}
	row("(config)", configured, "weights from configuration")
	for _, name := range mcda.ProfileNames(profiles) {
		p := profiles[name]
		row(name, p.Weights, p.Description)
	}
	_ = w.Flush()

	if msg := configured.Warning(); msg != "" {
		_, _ = fmt.Fprintf(out, "warning: %s\n", msg)
	}
}

func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n-3] + "..."
	}
	return s
}
