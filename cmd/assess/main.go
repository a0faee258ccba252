// Command assess classifies a saved risk-assessment response offline. It
// reads the provider's JSON from a file or stdin and prints each factor's
// band, the overall band, the insight and the recommended actions. With
// -rainfall it prints the flood outlook for a rainfall reading instead.
//
// Usage:
//
//	go run ./cmd/assess -in risk.json
//	curl -s $PROVIDER/risk-assessment/Garissa | go run ./cmd/assess -json
//	go run ./cmd/assess -rainfall 62
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/couchcryptid/climate-risk-monitor/internal/adapter/provider"
	"github.com/couchcryptid/climate-risk-monitor/internal/domain"
)

type report struct {
	Assessment domain.ClassifiedAssessment `json:"assessment"`
	Insight    string                      `json:"insight"`
	Actions    []domain.Action             `json:"actions"`
}

func main() {
	in := flag.String("in", "-", "risk-assessment JSON file, or - for stdin")
	asJSON := flag.Bool("json", false, "print the report as JSON")
	rainfall := flag.String("rainfall", "", "rainfall in mm; prints the flood outlook instead")
	flag.Parse()

	var code int
	if *rainfall != "" {
		code = runPredict(*rainfall, *asJSON, os.Stdout, os.Stderr)
	} else {
		code = run(*in, *asJSON, os.Stdin, os.Stdout, os.Stderr)
	}
	if code != 0 {
		os.Exit(code)
	}
}

func runPredict(raw string, asJSON bool, stdout, stderr io.Writer) int {
	mm, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(mm) {
		fmt.Fprintf(stderr, "invalid rainfall %q\n", raw)
		return 2
	}
	p := domain.PredictFloodRisk(mm)
	if asJSON {
		if err := json.NewEncoder(stdout).Encode(p); err != nil {
			fmt.Fprintf(stderr, "encode prediction: %v\n", err)
			return 1
		}
		return 0
	}
	fmt.Fprintf(stdout, "Rainfall %.1f mm: %s (%s)\nAction: %s\n", p.RainfallMM, p.Risk, p.Severity, p.Action)
	return 0
}

func run(in string, asJSON bool, stdin io.Reader, stdout, stderr io.Writer) int {
	r := stdin
	if in != "-" {
		f, err := os.Open(in)
		if err != nil {
			fmt.Fprintf(stderr, "open input: %v\n", err)
			return 1
		}
		defer f.Close()
		r = f
	}

	assessment, err := provider.DecodeRiskAssessment(r)
	if err != nil {
		fmt.Fprintf(stderr, "%v\n", err)
		return 1
	}

	classified := domain.ClassifyAssessment(assessment)
	rep := report{
		Assessment: classified,
		Insight:    domain.GenerateInsight(classified.OverallLevel, classified.Factors),
		Actions:    domain.RecommendActions(classified.OverallSeverity),
	}

	if asJSON {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(rep); err != nil {
			fmt.Fprintf(stderr, "encode report: %v\n", err)
			return 1
		}
		return 0
	}

	printReport(stdout, rep)
	return 0
}

func printReport(w io.Writer, rep report) {
	a := rep.Assessment
	fmt.Fprintf(w, "Overall risk: %.0f (%s)\n", a.OverallLevel, a.OverallSeverity)
	if a.Triggers.HeatWarning {
		fmt.Fprintln(w, "Heat warning triggered")
	}
	fmt.Fprintf(w, "\n%s\n", rep.Insight)

	if len(a.Factors) > 0 {
		fmt.Fprintln(w, "\nFactors:")
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		for _, f := range a.Factors {
			fmt.Fprintf(tw, "  %s\t%s\t%.0f\t%s %s\t%s\n",
				f.Icon, f.Kind, f.Level, f.Severity, f.Trend.Symbol(), f.Description)
		}
		tw.Flush()
	}

	fmt.Fprintln(w, "\nRecommended actions:")
	for _, act := range rep.Actions {
		fmt.Fprintf(w, "  [%s] %s: %s\n", act.Priority, act.Title, act.Description)
	}
}
