package project

import (
	"fmt"
	"math"
	"os"
	"sort"
)

// rowEpsilon is the tolerance for matching row numbers, which travel
// through JSON as floats.
const rowEpsilon = 1e-6

// Store is the canonical in-memory state for one project: every region
// ever created (including soft-deleted ones), the page images, the set of
// translation profiles, and the row-number counter.
//
// Store is not safe for concurrent use. The intended model is a single
// coordinating goroutine that applies edits and receives batch results;
// when the pipeline runs on another goroutine, hand results over with a
// single channel send and mutate the store only on the coordinating side.
type Store struct {
	workDir     string
	ownsWorkDir bool

	images           []string
	regions          []Region
	profiles         []string
	activeProfile    string
	nextRowNumber    int
	originalLanguage string

	onChange func()
}

// SetOnChange registers a callback fired after any mutation the
// presentation layer should repaint for. Idempotent no-ops do not fire it.
func (s *Store) SetOnChange(fn func()) { s.onChange = fn }

func (s *Store) notify() {
	if s.onChange != nil {
		s.onChange()
	}
}

// WorkDir returns the directory holding the project's extracted files.
func (s *Store) WorkDir() string { return s.workDir }

// Images returns the absolute paths of the project's page images in
// filename order.
func (s *Store) Images() []string {
	out := make([]string, len(s.images))
	copy(out, s.images)
	return out
}

// Regions returns every region, including soft-deleted ones, in the
// canonical (filename, row number) order.
func (s *Store) Regions() []Region {
	out := make([]Region, len(s.regions))
	copy(out, s.regions)
	return out
}

// VisibleRegions returns the non-deleted regions in canonical order.
func (s *Store) VisibleRegions() []Region {
	out := make([]Region, 0, len(s.regions))
	for _, r := range s.regions {
		if !r.IsDeleted {
			out = append(out, r)
		}
	}
	return out
}

// NextRowNumber is the counter the next batch run starts numbering from.
func (s *Store) NextRowNumber() int { return s.nextRowNumber }

// SetNextRowNumber records the counter reported by a finished batch run.
// The counter never moves backwards past an already-assigned integer row.
func (s *Store) SetNextRowNumber(n int) {
	if n > s.nextRowNumber {
		s.nextRowNumber = n
	}
}

// OriginalLanguage is the source language tag recorded in the archive.
func (s *Store) OriginalLanguage() string { return s.originalLanguage }

// SetOriginalLanguage updates the source language tag.
func (s *Store) SetOriginalLanguage(lang string) { s.originalLanguage = lang }

// Profiles returns all profile names, with Original first.
func (s *Store) Profiles() []string {
	out := make([]string, len(s.profiles))
	copy(out, s.profiles)
	return out
}

// ActiveProfile returns the profile edits and display resolution use.
func (s *Store) ActiveProfile() string { return s.activeProfile }

// SetActiveProfile switches the active profile; the profile must exist.
func (s *Store) SetActiveProfile(name string) error {
	if !s.hasProfile(name) {
		return fmt.Errorf("%w: %q", ErrUnknownProfile, name)
	}
	if s.activeProfile != name {
		s.activeProfile = name
		s.notify()
	}
	return nil
}

func (s *Store) hasProfile(name string) bool {
	for _, p := range s.profiles {
		if p == name {
			return true
		}
	}
	return false
}

// ensureEditableProfile auto-creates and switches to the first-edit profile
// when the active profile is still Original, so base text is never
// overwritten by an edit.
func (s *Store) ensureEditableProfile() {
	if s.activeProfile != ProfileOriginal {
		return
	}
	if !s.hasProfile(firstEditProfile) {
		s.profiles = append(s.profiles, firstEditProfile)
	}
	s.activeProfile = firstEditProfile
}

// FindByRowNumber locates a region by its row number with float tolerance.
// It returns the region's index in canonical order, or ok=false.
func (s *Store) FindByRowNumber(rn float64) (Region, int, bool) {
	if i := s.indexOfRow(rn); i >= 0 {
		return s.regions[i], i, true
	}
	return Region{}, -1, false
}

func (s *Store) indexOfRow(rn float64) int {
	for i := range s.regions {
		if math.Abs(s.regions[i].RowNumber-rn) < rowEpsilon {
			return i
		}
	}
	return -1
}

func (s *Store) sortRegions() {
	sort.SliceStable(s.regions, func(i, j int) bool {
		return regionLess(s.regions[i], s.regions[j])
	})
}

// AddBatchResults appends newly-numbered regions streamed from a batch run
// and re-sorts into canonical order. It satisfies the coordinator's result
// sink contract.
func (s *Store) AddBatchResults(regions []Region) {
	if len(regions) == 0 {
		return
	}
	for _, r := range regions {
		if f := int(math.Floor(r.RowNumber)); f+1 > s.nextRowNumber {
			s.nextRowNumber = f + 1
		}
		s.regions = append(s.regions, r)
	}
	s.sortRegions()
	s.notify()
}

// UpdateText records newText for the active profile on the region with the
// given row number.
//
// Editing while Original is active first auto-creates and switches to the
// "User Edit 1" profile. Setting text equal to the region's base text
// removes the active profile's override instead, reverting to original.
func (s *Store) UpdateText(rn float64, newText string) error {
	i := s.indexOfRow(rn)
	if i < 0 {
		return fmt.Errorf("update text row %s: %w", rowKey(rn), ErrRegionNotFound)
	}
	if s.regions[i].IsDeleted {
		return fmt.Errorf("update text row %s: %w", rowKey(rn), ErrRegionDeleted)
	}

	s.ensureEditableProfile()

	r := &s.regions[i]
	if newText == r.Text {
		delete(r.Translations, s.activeProfile)
	} else {
		if r.Translations == nil {
			r.Translations = make(map[string]string)
		}
		r.Translations[s.activeProfile] = newText
	}
	s.notify()
	return nil
}

// DeleteRow soft-deletes the region with the given row number. Deleting a
// missing or already-deleted row is a no-op; no other region's row number
// ever changes.
func (s *Store) DeleteRow(rn float64) {
	i := s.indexOfRow(rn)
	if i < 0 || s.regions[i].IsDeleted {
		return
	}
	s.regions[i].IsDeleted = true
	s.notify()
}

// CombineRows records combinedText as the active-profile text of the first
// region, stamps minConfidence onto its base record, and soft-deletes every
// region in otherRns. The same first-edit auto-profile rule as UpdateText
// applies.
func (s *Store) CombineRows(firstRn float64, combinedText string, minConfidence float64, otherRns []float64) error {
	i := s.indexOfRow(firstRn)
	if i < 0 {
		return fmt.Errorf("combine rows at %s: %w", rowKey(firstRn), ErrRegionNotFound)
	}

	s.ensureEditableProfile()

	r := &s.regions[i]
	conf := minConfidence
	r.Confidence = &conf
	if r.Translations == nil {
		r.Translations = make(map[string]string)
	}
	r.Translations[s.activeProfile] = combinedText

	for _, other := range otherRns {
		if j := s.indexOfRow(other); j >= 0 {
			s.regions[j].IsDeleted = true
		}
	}
	s.notify()
	return nil
}

// AddProfile creates (or overwrites) a named profile from an imported
// translation map keyed by filename, then row number string ("3", "5.1").
// Every non-deleted region with a matching entry gets the override; the
// profile becomes active.
func (s *Store) AddProfile(name string, translations map[string]map[string]string) {
	if name == ProfileOriginal {
		return
	}
	for i := range s.regions {
		delete(s.regions[i].Translations, name)
	}
	for i := range s.regions {
		r := &s.regions[i]
		if r.IsDeleted {
			continue
		}
		byRow, ok := translations[r.Filename]
		if !ok {
			continue
		}
		text, ok := byRow[rowKey(r.RowNumber)]
		if !ok {
			continue
		}
		if r.Translations == nil {
			r.Translations = make(map[string]string)
		}
		r.Translations[name] = text
	}
	if !s.hasProfile(name) {
		s.profiles = append(s.profiles, name)
	}
	s.activeProfile = name
	s.notify()
}

// ClearStandardResults physically drops every batch-produced region before
// a fresh run, keeping only manual ones, and recomputes the row counter
// from the survivors' integer floors.
func (s *Store) ClearStandardResults() {
	kept := s.regions[:0]
	next := 0
	for _, r := range s.regions {
		if !r.IsManual {
			continue
		}
		if f := int(math.Floor(r.RowNumber)); f+1 > next {
			next = f + 1
		}
		kept = append(kept, r)
	}
	s.regions = kept
	s.nextRowNumber = next
	s.notify()
}

// DisplayText resolves a region's text under the active profile: the
// profile override when one exists and the profile is not Original,
// otherwise the base text.
func (s *Store) DisplayText(r Region) string {
	if s.activeProfile != ProfileOriginal {
		if t, ok := r.Translations[s.activeProfile]; ok {
			return t
		}
	}
	return r.Text
}

// AllocateManualRowNumber picks a fractional row number for a region being
// inserted manually at (filename, topY), so nothing else needs renumbering.
//
// The nearest preceding non-deleted region in (filename, topmost-y) order
// supplies the integer base; the new number is base + n/10 where n is one
// past the highest sub-index already in use under that base. Only nine
// insertions fit between consecutive integers; a tenth returns
// ErrManualSlotsExhausted rather than colliding with the next integer row.
func (s *Store) AllocateManualRowNumber(filename string, topY float64) (float64, error) {
	base := -1
	for _, r := range s.visibleByPosition() {
		if r.Filename > filename {
			break
		}
		if r.Filename == filename && r.Coordinates.MinY() > topY {
			break
		}
		base = int(math.Floor(r.RowNumber))
	}

	maxSub := 0
	for _, r := range s.regions {
		if r.IsDeleted {
			continue
		}
		if int(math.Floor(r.RowNumber)) != base {
			continue
		}
		sub := int(math.Round((r.RowNumber - float64(base)) * 10))
		if sub > maxSub {
			maxSub = sub
		}
	}

	sub := maxSub + 1
	if sub > 9 {
		return 0, ErrManualSlotsExhausted
	}
	return float64(base) + float64(sub)/10, nil
}

// visibleByPosition returns non-deleted regions ordered by filename, then
// by the topmost y of their coordinates.
func (s *Store) visibleByPosition() []Region {
	out := s.VisibleRegions()
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Filename != out[j].Filename {
			return out[i].Filename < out[j].Filename
		}
		return out[i].Coordinates.MinY() < out[j].Coordinates.MinY()
	})
	return out
}

// AddManualRegion inserts a manually-created region. The caller allocates
// its row number first via AllocateManualRowNumber.
func (s *Store) AddManualRegion(r Region) error {
	if i := s.indexOfRow(r.RowNumber); i >= 0 {
		return fmt.Errorf("add manual region row %s: row number already in use", rowKey(r.RowNumber))
	}
	r.IsManual = true
	s.regions = append(s.regions, r)
	s.sortRegions()
	s.notify()
	return nil
}

// Close removes the temporary working directory a Load created. Stores
// opened over a caller-owned directory are left alone.
func (s *Store) Close() error {
	if !s.ownsWorkDir || s.workDir == "" {
		return nil
	}
	err := os.RemoveAll(s.workDir)
	s.workDir = ""
	return err
}
