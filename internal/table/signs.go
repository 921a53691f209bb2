package table

import (
	"strconv"
	"strings"
)

// CorrectSigns returns a copy of row, indexed by grid column, with the z-score
// and %change signs restored. All decisions read the unmodified input, so the
// order of the corrections does not matter and applying it twice changes nothing.
//
// A z-score is positive when its companion %predicted exceeds 100 and negative
// otherwise, separately for the pre and post pairs. %change is positive when
// post - pre >= 0. A correction whose inputs are missing or not numeric is
// skipped and the value is left as it was.
func CorrectSigns(roles ColumnRoles, row []string) []string {
	out := make([]string, len(row))
	copy(out, row)

	if pred, ok := cellFloat(row, roles.PercentPredPre); ok {
		setSign(out, row, roles.ZScore, pred > 100)
	}
	if pred, ok := cellFloat(row, roles.PercentPredPost); ok {
		setSign(out, row, roles.ZScorePost, pred > 100)
	}

	pre, okPre := cellFloat(row, roles.Pre)
	post, okPost := cellFloat(row, roles.Post)
	if okPre && okPost {
		setSign(out, row, roles.PercentChange, post-pre >= 0)
	}
	return out
}

// cellFloat parses row[idx], reporting false for absent or non-numeric cells.
func cellFloat(row []string, idx int) (float64, bool) {
	if idx < 0 || idx >= len(row) {
		return 0, false
	}
	s := strings.TrimSpace(row[idx])
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func setSign(out, row []string, idx int, positive bool) {
	if _, ok := cellFloat(row, idx); !ok {
		return
	}
	magnitude := strings.TrimLeft(strings.TrimSpace(row[idx]), "+-")
	if positive {
		out[idx] = "+" + magnitude
	} else {
		out[idx] = "-" + magnitude
	}
}
