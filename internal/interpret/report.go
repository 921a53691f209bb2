package interpret

import (
	"fmt"
	"strings"
)

// Section titles in report order.
const (
	SectionTestGrade      = "Test Grade"
	SectionSpirometry     = "Spirometry"
	SectionBronchodilator = "Bronchodilator Response"
	SectionLungVolumes    = "Lung Volumes"
	SectionDLCO           = "DLCO"
)

// Section is one titled block of the report.
type Section struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

func (s Section) String() string {
	return s.Title + ":\n" + s.Body
}

// Report is the ordered interpretation of one table.
type Report struct {
	Sections []Section `json:"sections"`
	Findings Findings  `json:"findings"`
}

// String renders the sections separated by a blank line.
func (r Report) String() string {
	parts := make([]string, len(r.Sections))
	for i, s := range r.Sections {
		parts[i] = s.String()
	}
	return strings.Join(parts, "\n\n")
}

// Section returns the section with the given title.
func (r Report) Section(title string) (Section, bool) {
	for _, s := range r.Sections {
		if s.Title == title {
			return s, true
		}
	}
	return Section{}, false
}

// Interpret evaluates v and assembles the report.
func Interpret(v Values, labels Labels) Report {
	labels = labels.WithDefaults()
	f := Evaluate(v, labels)

	sections := []Section{
		{SectionTestGrade, gradeBody(f, labels.PassingGrade)},
		{SectionSpirometry, spirometryBody(f)},
	}
	if f.BronchodilatorEvaluated {
		sections = append(sections, Section{SectionBronchodilator, bronchodilatorBody(f)})
	}
	sections = append(sections,
		Section{SectionLungVolumes, lungVolumesBody(f)},
		Section{SectionDLCO, dlcoBody(f)},
	)
	return Report{Sections: sections, Findings: f}
}

func gradeBody(f Findings, passing string) string {
	if f.Grade != "" && f.Grade != passing {
		return f.Grade + "."
	}
	return passing + "."
}

func spirometryBody(f Findings) string {
	switch {
	case f.Obstruction && f.Restriction:
		return fmt.Sprintf("Mixed obstructive/restrictive lung function impairment (Obstructive severity: %s; Restrictive severity: %s).",
			f.ObstructionSeverity, f.RestrictionSeverity)
	case f.Obstruction:
		return fmt.Sprintf("Obstructive lung function impairment (severity: %s).", f.ObstructionSeverity)
	case f.Restriction:
		return fmt.Sprintf("Restrictive lung function impairment (severity: %s).", f.RestrictionSeverity)
	default:
		return "Normal postbronchodilator spirometry."
	}
}

func bronchodilatorBody(f Findings) string {
	if f.BronchodilatorResponse {
		return "Present."
	}
	return "Not present."
}

func lungVolumesBody(f Findings) string {
	var first []string
	if f.VolumeRestriction {
		first = append(first, fmt.Sprintf("Restrictive lung function impairment (severity: %s).", f.RestrictionSeverity))
	}
	if f.Hyperinflation {
		first = append(first, "Hyperinflation is present.")
	}

	var lines []string
	if len(first) > 0 {
		lines = append(lines, strings.Join(first, " "))
	}
	if f.AirTrapping {
		lines = append(lines, "Evidence of air trapping is present.")
	}
	if len(lines) == 0 {
		return "Normal lung volumes."
	}
	return strings.Join(lines, "\n")
}

func dlcoBody(f Findings) string {
	if f.DLCOSeverity != SeverityNone {
		return fmt.Sprintf("%s reduction in DLCO (%s).", capitalize(string(f.DLCOSeverity)), f.DLCOSource)
	}
	if f.DLCOSource == "uncorrected" {
		return "Normal DLCO (uncorrected)."
	}
	return "Normal DLCO."
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
