package project

import (
	"encoding/json"
	"strconv"

	"github.com/inkbound/scanlate/internal/ocr"
)

// ProfileOriginal is the always-present base profile. It carries no
// overrides; resolving text under it returns each region's base Text.
const ProfileOriginal = "Original"

// firstEditProfile is auto-created the first time text is edited while the
// active profile is still Original, so the base recognition stays intact.
const firstEditProfile = "User Edit 1"

// Region is one detected or manually-created text block.
//
// RowNumber is the ordering and identity key: the batch pipeline assigns
// consecutive integers, manual insertions get fractional values between
// their neighbors (see Store.AllocateManualRowNumber). Soft-deleted regions
// are hidden from views and exports but never removed, so row numbers stay
// stable.
type Region struct {
	// Coordinates is an ordered 4-point quad in original-image pixel space.
	Coordinates ocr.Quad `json:"coordinates"`

	// Text is the recognized (or manually entered) base text.
	Text string `json:"text"`

	// Confidence is the detector confidence in [0,1]; nil for manual
	// regions, where it is undefined.
	Confidence *float64 `json:"confidence,omitempty"`

	// Filename is the owning image's basename.
	Filename string `json:"filename"`

	RowNumber float64 `json:"row_number"`
	IsManual  bool    `json:"is_manual,omitempty"`
	IsDeleted bool    `json:"is_deleted,omitempty"`

	// Translations maps profile name to an override of Text; absence means
	// "use Text".
	Translations map[string]string `json:"translations,omitempty"`

	// CustomStyle is an opaque blob owned by the presentation layer. It is
	// stored and round-tripped without interpretation, never inspected.
	CustomStyle json.RawMessage `json:"custom_style,omitempty"`
}

// meta is the archive's meta.json payload.
type meta struct {
	OriginalLanguage  string `json:"original_language"`
	ActiveProfileName string `json:"active_profile_name"`
}

// rowKey formats a row number the way translation import maps key it:
// integers without a decimal point ("3"), fractions as written ("3.1").
func rowKey(rn float64) string {
	return strconv.FormatFloat(rn, 'f', -1, 64)
}

// regionLess is the canonical derived order: filename outermost, then row
// number.
func regionLess(a, b Region) bool {
	if a.Filename != b.Filename {
		return a.Filename < b.Filename
	}
	return a.RowNumber < b.RowNumber
}
