package review

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/fatih/color"

	"github.com/codcod/visor/internal/aggregator"
	"github.com/codcod/visor/internal/core"
)

// renderReport prints report to stdout in one of §6's four formats,
// grounded on the teacher's colorTextFormatter (internal/observability)
// for the table renderer's color-by-severity convention.
func renderReport(report *core.ExecutionReport, format string) error {
	switch format {
	case "json":
		return renderJSON(report)
	case "markdown":
		return renderMarkdown(report)
	case "sarif":
		return renderSARIF(report)
	default:
		return renderTable(report)
	}
}

func renderJSON(report *core.ExecutionReport) error {
	data, err := aggregator.ToJSON(report)
	if err != nil {
		return fmt.Errorf("render json: %w", err)
	}
	_, err = os.Stdout.Write(append(data, '\n'))
	return err
}

func renderTable(report *core.ExecutionReport) error {
	counts := aggregator.Summarize(report)
	fmt.Printf("%s  %d checks, %d passed, %d failed, %d skipped, %d issues\n",
		color.CyanString("visor"), counts.TotalChecks, counts.Passed, counts.Failed, counts.Skipped, counts.TotalIssues)

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SEVERITY\tFILE\tLINE\tRULE\tMESSAGE")
	for _, iss := range report.Issues {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n", colorSeverity(iss.Severity), iss.File, iss.Line, iss.RuleID, iss.Message)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if report.Halted {
		fmt.Println(color.RedString("execution halted by a failure condition"))
	}
	return nil
}

func colorSeverity(s core.Severity) string {
	switch s {
	case core.SeverityCritical, core.SeverityError:
		return color.RedString(string(s))
	case core.SeverityWarning:
		return color.YellowString(string(s))
	default:
		return color.HiBlackString(string(s))
	}
}

func renderMarkdown(report *core.ExecutionReport) error {
	counts := aggregator.Summarize(report)
	fmt.Printf("## Review summary\n\n")
	fmt.Printf("%d checks, %d passed, %d failed, %d skipped, %d issues found.\n\n",
		counts.TotalChecks, counts.Passed, counts.Failed, counts.Skipped, counts.TotalIssues)

	if len(report.Issues) == 0 {
		fmt.Println("No issues found.")
		return nil
	}

	fmt.Println("| Severity | File | Line | Rule | Message |")
	fmt.Println("|---|---|---|---|---|")
	for _, iss := range report.Issues {
		fmt.Printf("| %s | %s | %d | %s | %s |\n", iss.Severity, iss.File, iss.Line, iss.RuleID, iss.Message)
	}
	if report.Halted {
		fmt.Println("\n**Execution halted by a failure condition.**")
	}
	return nil
}

// sarifLog is a minimal SARIF 2.1.0 envelope — just enough to carry
// Issues as results, not a full rules/taxonomies implementation. SARIF
// rendering is a CLI-boundary concern (§6): the execution core never
// imports a SARIF dependency, it stays inside this one renderer.
type sarifLog struct {
	Schema  string     `json:"$schema"`
	Version string     `json:"version"`
	Runs    []sarifRun `json:"runs"`
}

type sarifRun struct {
	Tool    sarifTool     `json:"tool"`
	Results []sarifResult `json:"results"`
}

type sarifTool struct {
	Driver sarifDriver `json:"driver"`
}

type sarifDriver struct {
	Name string `json:"name"`
}

type sarifResult struct {
	RuleID    string          `json:"ruleId"`
	Level     string          `json:"level"`
	Message   sarifMessage    `json:"message"`
	Locations []sarifLocation `json:"locations"`
}

type sarifMessage struct {
	Text string `json:"text"`
}

type sarifLocation struct {
	PhysicalLocation sarifPhysicalLocation `json:"physicalLocation"`
}

type sarifPhysicalLocation struct {
	ArtifactLocation sarifArtifactLocation `json:"artifactLocation"`
	Region           sarifRegion           `json:"region"`
}

type sarifArtifactLocation struct {
	URI string `json:"uri"`
}

type sarifRegion struct {
	StartLine int `json:"startLine"`
}

func renderSARIF(report *core.ExecutionReport) error {
	run := sarifRun{Tool: sarifTool{Driver: sarifDriver{Name: "visor"}}}
	for _, iss := range report.Issues {
		run.Results = append(run.Results, sarifResult{
			RuleID:  iss.RuleID,
			Level:   sarifLevel(iss.Severity),
			Message: sarifMessage{Text: iss.Message},
			Locations: []sarifLocation{{PhysicalLocation: sarifPhysicalLocation{
				ArtifactLocation: sarifArtifactLocation{URI: iss.File},
				Region:           sarifRegion{StartLine: iss.Line},
			}}},
		})
	}
	log := sarifLog{
		Schema:  "https://raw.githubusercontent.com/oasis-tcs/sarif-spec/master/Schemata/sarif-schema-2.1.0.json",
		Version: "2.1.0",
		Runs:    []sarifRun{run},
	}

	data, err := json.MarshalIndent(log, "", "  ")
	if err != nil {
		return fmt.Errorf("render sarif: %w", err)
	}
	_, err = os.Stdout.Write(append(data, '\n'))
	return err
}

func sarifLevel(s core.Severity) string {
	switch s {
	case core.SeverityCritical, core.SeverityError:
		return "error"
	case core.SeverityWarning:
		return "warning"
	default:
		return "note"
	}
}
