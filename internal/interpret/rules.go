package interpret

import (
	"strconv"
	"strings"
)

// Values is the read-only view of a reconstructed table the rules need.
// *table.Table implements it.
type Values interface {
	Get(row, col string) (string, bool)
}

const (
	abnormalZ      = -1.645
	moderateZ      = -2.5
	severeZ        = -4.0
	elevatedZ      = 1.65
	airTrappingPct = 175.0
	responseRatio  = 0.10
)

// Severity grades an abnormal z-score.
type Severity string

const (
	SeverityNone     Severity = ""
	SeverityMild     Severity = "mild"
	SeverityModerate Severity = "moderate"
	SeveritySevere   Severity = "severe"
)

// Grade buckets a z-score: >= -1.645 none, [-2.5, -1.645) mild,
// [-4.0, -2.5) moderate, below -4.0 severe.
func Grade(z float64) Severity {
	switch {
	case z >= abnormalZ:
		return SeverityNone
	case z >= moderateZ:
		return SeverityMild
	case z >= severeZ:
		return SeverityModerate
	default:
		return SeveritySevere
	}
}

func gradeOf(z float64, ok bool) Severity {
	if !ok {
		return SeverityNone
	}
	return Grade(z)
}

// number parses the cell at (row, col); false when missing or non-numeric.
func number(v Values, row, col string) (float64, bool) {
	s, ok := v.Get(row, col)
	if !ok {
		return 0, false
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// bestAvailable returns the post column value when numeric, else the pre column.
func bestAvailable(v Values, row, postCol, preCol string) (float64, bool) {
	if f, ok := number(v, row, postCol); ok {
		return f, true
	}
	return number(v, row, preCol)
}

// Findings holds every rule outcome behind a report.
type Findings struct {
	Grade string `json:"grade"`

	Obstruction         bool     `json:"obstruction"`
	ObstructionSeverity Severity `json:"obstruction_severity"`
	Restriction         bool     `json:"restriction"`
	RestrictionSeverity Severity `json:"restriction_severity"`

	BronchodilatorEvaluated bool `json:"bronchodilator_evaluated"`
	BronchodilatorResponse  bool `json:"bronchodilator_response"`

	VolumeRestriction bool `json:"volume_restriction"`
	Hyperinflation    bool `json:"hyperinflation"`
	AirTrapping       bool `json:"air_trapping"`

	DLCOSeverity Severity `json:"dlco_severity"`
	// DLCOSource is "corrected", "uncorrected" or "" for the value that
	// decided the DLCO section.
	DLCOSource string `json:"dlco_source"`
}

type evaluator struct {
	v Values
	l Labels
}

func (e evaluator) best(row string) (float64, bool) {
	return bestAvailable(e.v, row, e.l.Post, e.l.Pre)
}

func (e evaluator) bestZ(row string) (float64, bool) {
	return bestAvailable(e.v, row, e.l.ZScorePost, e.l.ZScore)
}

// belowNormal is true when the best value is under LLN and the best z-score is
// below -1.645. Any absent input makes it false.
func (e evaluator) belowNormal(row string) bool {
	value, ok := e.best(row)
	if !ok {
		return false
	}
	lln, ok := number(e.v, row, e.l.LLN)
	if !ok {
		return false
	}
	z, ok := e.bestZ(row)
	if !ok {
		return false
	}
	return value < lln && z < abnormalZ
}

// responded reports a fractional pre to post increase of at least 10%.
func (e evaluator) responded(row string) bool {
	pre, ok := number(e.v, row, e.l.Pre)
	if !ok || pre <= 0 {
		return false
	}
	post, ok := number(e.v, row, e.l.Post)
	if !ok {
		return false
	}
	return (post-pre)/pre >= responseRatio
}

func (e evaluator) hasPost(row string) bool {
	s, ok := e.v.Get(row, e.l.Post)
	return ok && strings.TrimSpace(s) != ""
}

// Evaluate runs every rule against v.
func Evaluate(v Values, labels Labels) Findings {
	e := evaluator{v: v, l: labels.WithDefaults()}
	l := e.l
	var f Findings

	if s, ok := v.Get(l.TestGrade, l.Post); ok {
		f.Grade = strings.ToUpper(strings.TrimSpace(s))
	}

	f.Obstruction = e.belowNormal(l.FEV1FVC)
	f.ObstructionSeverity = gradeOf(e.bestZ(l.FEV1))
	f.Restriction = e.belowNormal(l.FVC)
	f.RestrictionSeverity = gradeOf(e.bestZ(l.FVC))

	if e.hasPost(l.FVC) || e.hasPost(l.FEV1) {
		f.BronchodilatorEvaluated = true
		f.BronchodilatorResponse = e.responded(l.FVC) || e.responded(l.FEV1)
	}

	f.VolumeRestriction = e.belowNormal(l.TLC)
	if z, ok := e.bestZ(l.TLC); ok && z > elevatedZ {
		f.Hyperinflation = true
	}
	if z, ok := e.bestZ(l.RVTLC); ok && z > elevatedZ {
		f.AirTrapping = true
	}
	if pct, ok := bestAvailable(v, l.RV, l.PredPost, l.PredPre); ok && pct > airTrappingPct {
		f.AirTrapping = true
	}

	if z, ok := e.bestZ(l.DLCOCorrected); ok {
		f.DLCOSource = "corrected"
		f.DLCOSeverity = Grade(z)
	}
	if f.DLCOSeverity == SeverityNone {
		if z, ok := e.bestZ(l.DLCOUncorrected); ok {
			if sev := Grade(z); sev != SeverityNone || f.DLCOSource == "" {
				f.DLCOSource = "uncorrected"
				f.DLCOSeverity = sev
			}
		}
	}
	return f
}
