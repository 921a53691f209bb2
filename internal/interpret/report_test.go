package interpret

import (
	"strings"
	"testing"
)

func TestInterpret_ObstructiveModerate(t *testing.T) {
	v := cells{
		"fev1/fvc|post": "0.60", "fev1/fvc|lln": "0.75", "fev1/fvc|zscore post": "-2.0",
		"fev1|zscore post": "-3.0",
	}

	r := Interpret(v, DefaultLabels())

	s, ok := r.Section(SectionSpirometry)
	if !ok {
		t.Fatal("Expected Spirometry section")
	}
	if s.Body != "Obstructive lung function impairment (severity: moderate)." {
		t.Errorf("Unexpected spirometry body %q", s.Body)
	}
}

func TestInterpret_HyperinflationNoTrapping(t *testing.T) {
	v := cells{"tlcpleth|zscore": "2.0", "rv/tlcpleth|zscore": "1.0", "rvpleth|%predpre": "150"}

	r := Interpret(v, DefaultLabels())

	s, _ := r.Section(SectionLungVolumes)
	if !strings.Contains(s.Body, "Hyperinflation is present.") {
		t.Errorf("Expected hyperinflation, got %q", s.Body)
	}
	if strings.Contains(s.Body, "air trapping") {
		t.Errorf("Expected no air trapping, got %q", s.Body)
	}
}

func TestInterpret_SpirometryWording(t *testing.T) {
	obstructive := cells{"fev1/fvc|pre": "0.5", "fev1/fvc|lln": "0.7", "fev1/fvc|zscore": "-2.0", "fev1|zscore": "-2.0"}
	restrictive := cells{"fvc|pre": "2.0", "fvc|lln": "3.0", "fvc|zscore": "-4.2"}
	mixed := cells{}
	for k, v := range obstructive {
		mixed[k] = v
	}
	for k, v := range restrictive {
		mixed[k] = v
	}

	tests := []struct {
		name string
		v    cells
		want string
	}{
		{"normal", cells{}, "Normal postbronchodilator spirometry."},
		{"obstructive", obstructive, "Obstructive lung function impairment (severity: mild)."},
		{"restrictive", restrictive, "Restrictive lung function impairment (severity: severe)."},
		{"mixed", mixed, "Mixed obstructive/restrictive lung function impairment (Obstructive severity: mild; Restrictive severity: severe)."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := Interpret(tt.v, DefaultLabels()).Section(SectionSpirometry)
			if s.Body != tt.want {
				t.Errorf("got %q, want %q", s.Body, tt.want)
			}
		})
	}
}

func TestInterpret_SectionOrder(t *testing.T) {
	withPost := cells{"fvc|pre": "3.0", "fvc|post": "3.1"}

	tests := []struct {
		name string
		v    cells
		want []string
	}{
		{"without bronchodilator", cells{}, []string{SectionTestGrade, SectionSpirometry, SectionLungVolumes, SectionDLCO}},
		{"with bronchodilator", withPost, []string{SectionTestGrade, SectionSpirometry, SectionBronchodilator, SectionLungVolumes, SectionDLCO}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Interpret(tt.v, DefaultLabels())
			if len(r.Sections) != len(tt.want) {
				t.Fatalf("Expected %d sections, got %d", len(tt.want), len(r.Sections))
			}
			for i, title := range tt.want {
				if r.Sections[i].Title != title {
					t.Errorf("Section %d = %q, want %q", i, r.Sections[i].Title, title)
				}
			}
		})
	}
}

func TestInterpret_EmptyTableString(t *testing.T) {
	got := Interpret(cells{}, DefaultLabels()).String()
	want := "Test Grade:\nAA.\n\n" +
		"Spirometry:\nNormal postbronchodilator spirometry.\n\n" +
		"Lung Volumes:\nNormal lung volumes.\n\n" +
		"DLCO:\nNormal DLCO."
	if got != want {
		t.Errorf("Unexpected report\n got: %q\nwant: %q", got, want)
	}
}

func TestInterpret_FullReport(t *testing.T) {
	v := cells{
		"testgrade|post": " c ",
		"fvc|pre": "3.00", "fvc|post": "3.50", "fvc|lln": "3.20", "fvc|zscore": "-1.0", "fvc|zscore post": "-1.2",
		"fev1|pre": "2.00", "fev1|post": "2.10", "fev1|zscore post": "-2.0",
		"fev1/fvc|post": "0.60", "fev1/fvc|lln": "0.70", "fev1/fvc|zscore post": "-1.9",
		"tlcpleth|pre": "7.5", "tlcpleth|lln": "4.5", "tlcpleth|zscore": "1.9",
		"rvpleth|%predpre": "190",
		"dlcocor|zscore": "-2.7",
	}

	got := Interpret(v, DefaultLabels()).String()
	want := "Test Grade:\nC.\n\n" +
		"Spirometry:\nObstructive lung function impairment (severity: mild).\n\n" +
		"Bronchodilator Response:\nPresent.\n\n" +
		"Lung Volumes:\nHyperinflation is present.\nEvidence of air trapping is present.\n\n" +
		"DLCO:\nModerate reduction in DLCO (corrected)."
	if got != want {
		t.Errorf("Unexpected report\n got: %q\nwant: %q", got, want)
	}
}

func TestLungVolumesBody(t *testing.T) {
	tests := []struct {
		name string
		f    Findings
		want string
	}{
		{"normal", Findings{}, "Normal lung volumes."},
		{"restriction", Findings{VolumeRestriction: true, RestrictionSeverity: SeverityMild},
			"Restrictive lung function impairment (severity: mild)."},
		{"restriction and trapping", Findings{VolumeRestriction: true, RestrictionSeverity: SeverityModerate, AirTrapping: true},
			"Restrictive lung function impairment (severity: moderate).\nEvidence of air trapping is present."},
		{"restriction and hyperinflation", Findings{VolumeRestriction: true, Hyperinflation: true},
			"Restrictive lung function impairment (severity: ). Hyperinflation is present."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := lungVolumesBody(tt.f); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDLCOBody(t *testing.T) {
	tests := []struct {
		f    Findings
		want string
	}{
		{Findings{DLCOSeverity: SeverityMild, DLCOSource: "corrected"}, "Mild reduction in DLCO (corrected)."},
		{Findings{DLCOSeverity: SeveritySevere, DLCOSource: "uncorrected"}, "Severe reduction in DLCO (uncorrected)."},
		{Findings{DLCOSource: "uncorrected"}, "Normal DLCO (uncorrected)."},
		{Findings{DLCOSource: "corrected"}, "Normal DLCO."},
		{Findings{}, "Normal DLCO."},
	}
	for _, tt := range tests {
		if got := dlcoBody(tt.f); got != tt.want {
			t.Errorf("dlcoBody(%+v) = %q, want %q", tt.f, got, tt.want)
		}
	}
}

func TestGradeBody(t *testing.T) {
	tests := []struct {
		grade, want string
	}{
		{"", "AA."},
		{"AA", "AA."},
		{"BC", "BC."},
	}
	for _, tt := range tests {
		if got := gradeBody(Findings{Grade: tt.grade}, "AA"); got != tt.want {
			t.Errorf("gradeBody(%q) = %q, want %q", tt.grade, got, tt.want)
		}
	}
}
