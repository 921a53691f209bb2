// Package detection locates the reference table inside a screenshot.
//
// MatchTemplate slides the template over the target at each configured scale
// and scores every position with zero-mean normalized cross-correlation. The
// best score across scales wins; a match is accepted when it reaches
// MatchOptions.Threshold. LocateTable additionally crops the matched region
// out of the target.
//
// # Scoring
//
// Scores range from -1 to 1. Window sums come from integral images so each
// position costs one pass over the template. A window or template with no
// variance scores 0, so a blank screenshot never matches.
//
// # Search
//
// By default every position is scored at full resolution, so the global
// maximum is always found. Setting MatchOptions.PyramidMinSide trades that
// for speed on large screenshots: template and target are halved together
// while the template's shorter side stays at or above PyramidMinSide, the
// strongest separated peaks are found at the smallest level, and each is
// refined in a small neighbourhood at every larger level. Levels where the
// template lost most of its variance are skipped, and a refined peak that
// scores well below its coarse estimate falls back to the full search.
//
// # Coordinate System
//
// All coordinates use the standard image convention:
//   - Origin (0, 0) at top-left corner
//   - X increases rightward
//   - Y increases downward
//   - Bounding boxes use inclusive top-left and exclusive bottom-right
package detection
