// Package interpret applies the fixed pulmonary-function decision rules to a
// reconstructed table and renders a sectioned text report.
//
// Every rule reads the table through [Values] and is a pure function of it. A
// row or column that is missing, empty or non-numeric is treated as absent, and
// an absent value never makes a test abnormal.
//
// Where a variable has both a post-bronchodilator and a pre-bronchodilator
// measurement, rules use the best available one: post when it parses as a
// number, otherwise pre.
//
// The report sections appear in this order, separated by a blank line:
//
//	Test Grade
//	Spirometry
//	Bronchodilator Response   (only when a post value exists for FVC or FEV1)
//	Lung Volumes
//	DLCO
package interpret
