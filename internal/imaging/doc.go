// Package imaging handles page loading and the per-image preparation that
// runs before text detection: grayscale conversion, optional contrast
// boost, and optional downscaling with recorded rescale factors so detected
// coordinates can be mapped back to original pixels.
//
// It also renders diagnostic overlays of detected regions; those are a
// developer aid and play no part in the pipeline.
package imaging
