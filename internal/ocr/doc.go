// Package ocr reads the text of single table cells.
//
// The pipeline depends only on the [Reader] interface. [TesseractReader] is the
// production implementation backed by the Tesseract engine via gosseract/v2; tests
// and alternative engines plug in through [ReaderFunc].
//
// # Modes
//
// Cells are read in one of two modes:
//
//   - ModeDigits: numeric cells. Recognition is restricted to digits and the
//     decimal/sign characters and the cell is treated as a single text line, with
//     no page layout analysis.
//   - ModeText: free-text cells such as grade codes. Full character set with
//     automatic page segmentation.
//
// # Prerequisites
//
// Tesseract and its language data must be installed on the system:
//   - Ubuntu/Debian: apt-get install tesseract-ocr tesseract-ocr-eng
//   - macOS: brew install tesseract
//
// A non-standard data directory can be given with TesseractOptions.TessdataPrefix.
//
// # Confidence
//
// Every [Token] carries Tesseract's word confidence scaled to 0.0-1.0. Value
// reconstruction only consumes the text; confidences are surfaced for logging and
// the MCP tools.
package ocr
