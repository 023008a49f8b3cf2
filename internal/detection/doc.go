// Package detection post-processes raw OCR detections: thresholding out
// implausible regions and merging nearby boxes that belong to the same
// visual text block.
//
// Both stages operate on regions already mapped back to original-image
// coordinates and preserve the detector's ordering guarantees: filtering
// keeps survivors in input order, merging returns groups in the order each
// group was first created.
package detection
