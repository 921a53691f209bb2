// Package imaging provides the image plumbing shared by the PFT reader stages.
//
// It covers four concerns:
//   - Loading: ImageCache decodes PNG, JPEG and GIF files once per path.
//   - Encoding: EncodePNG and SavePNG render previews and debug dumps.
//   - Overlays: GridOverlay and BoxOverlay draw cell boundaries and the
//     located table onto a copy of a screenshot.
//   - Ink detection: MeasureInk and IsBlank decide whether a cell image is
//     worth sending to OCR.
//
// # Coordinate System
//
// All pixel coordinates are 0-based with (0,0) at the top-left corner. For
// regions, (x1,y1) is inclusive and (x2,y2) is exclusive. Overlays always
// return a zero-origin image even when the source is a sub-image.
//
// # Thread Safety
//
// ImageCache is safe for concurrent use. Every other function is stateless
// and never mutates its input image.
package imaging
