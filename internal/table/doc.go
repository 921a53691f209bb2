// Package table turns raw per-cell OCR text into a canonical measurement table.
//
// Reconstruction runs in two passes over a fully materialised grid:
//
//  1. Every cell is reconstructed on its own. Numeric cells keep only their digits
//     and get a decimal point inserted a fixed number of places from the end
//     ("1234" -> "12.34", "5" -> "0.05"). Percent cells keep the digits as an
//     integer. Free-text cells keep the recognised text verbatim.
//  2. Each row is sign-corrected as a pure function of a snapshot of that row.
//     A z-score takes its sign from the companion %predicted column and the
//     %change column takes its sign from post minus pre.
//
// Neither pass fails. Missing or unreadable text yields an empty value, and a sign
// that cannot be decided leaves the value as reconstructed.
//
// The resulting [Table] keeps values as strings so sign and precision survive
// exactly, and serialises to CSV with the column labels as header and the row
// label as the first field of each record.
package table
