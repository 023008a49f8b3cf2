package project

import (
	"archive/zip"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/inkbound/scanlate/internal/imaging"
)

const (
	masterName   = "master.json"
	metaName     = "meta.json"
	imagesPrefix = "images/"
)

// Load opens a project archive: a zip holding images/ (one or more pages),
// master.json (the regions) and meta.json (language + active profile).
//
// The pages are extracted into a temporary working directory that Save
// re-zips and Close removes. A missing images/ directory or a JSON parse
// failure is fatal; the caller never sees partial state.
func Load(archivePath string) (*Store, error) {
	zr, err := zip.OpenReader(archivePath)
	if err != nil {
		return nil, &LoadError{Path: archivePath, Err: err}
	}
	defer zr.Close()

	hasImagesDir := false
	var masterFile, metaFile *zip.File
	var pages []*zip.File
	for _, f := range zr.File {
		switch {
		case f.Name == masterName:
			masterFile = f
		case f.Name == metaName:
			metaFile = f
		case strings.HasPrefix(f.Name, imagesPrefix):
			hasImagesDir = true
			if !f.FileInfo().IsDir() && imaging.IsPageImage(f.Name) {
				pages = append(pages, f)
			}
		}
	}
	if !hasImagesDir {
		return nil, &LoadError{Path: archivePath, Err: errors.New("archive has no images/ directory")}
	}

	var regions []Region
	if masterFile != nil {
		if err := readZipJSON(masterFile, &regions); err != nil {
			return nil, &LoadError{Path: archivePath, Err: err}
		}
	}

	var m meta
	if metaFile != nil {
		if err := readZipJSON(metaFile, &m); err != nil {
			return nil, &LoadError{Path: archivePath, Err: err}
		}
	}

	workDir, err := os.MkdirTemp("", "scanlate-project-")
	if err != nil {
		return nil, &LoadError{Path: archivePath, Err: err}
	}
	imgDir := filepath.Join(workDir, "images")
	if err := os.MkdirAll(imgDir, 0o755); err != nil {
		os.RemoveAll(workDir)
		return nil, &LoadError{Path: archivePath, Err: err}
	}
	for _, f := range pages {
		if err := extractZipFile(f, filepath.Join(imgDir, filepath.Base(f.Name))); err != nil {
			os.RemoveAll(workDir)
			return nil, &LoadError{Path: archivePath, Err: err}
		}
	}
	images, err := imaging.ListPages(imgDir)
	if err != nil {
		os.RemoveAll(workDir)
		return nil, &LoadError{Path: archivePath, Err: err}
	}

	next := 0
	for _, r := range regions {
		if f := int(math.Floor(r.RowNumber)); f+1 > next {
			next = f + 1
		}
	}

	active := m.ActiveProfileName
	profiles := collectProfiles(regions)
	if active == "" || !containsString(profiles, active) {
		active = ProfileOriginal
	}

	s := &Store{
		workDir:          workDir,
		ownsWorkDir:      true,
		images:           images,
		regions:          regions,
		profiles:         profiles,
		activeProfile:    active,
		nextRowNumber:    next,
		originalLanguage: m.OriginalLanguage,
	}
	s.sortRegions()
	return s, nil
}

// NewFromDir builds a fresh project over the page images found directly in
// dir. The pages are copied into a temporary working directory so the
// source directory is never written to.
func NewFromDir(dir string) (*Store, error) {
	srcPages, err := imaging.ListPages(dir)
	if err != nil {
		return nil, &LoadError{Path: dir, Err: err}
	}

	workDir, err := os.MkdirTemp("", "scanlate-project-")
	if err != nil {
		return nil, &LoadError{Path: dir, Err: err}
	}
	imgDir := filepath.Join(workDir, "images")
	if err := os.MkdirAll(imgDir, 0o755); err != nil {
		os.RemoveAll(workDir)
		return nil, &LoadError{Path: dir, Err: err}
	}
	for _, src := range srcPages {
		if err := copyFile(src, filepath.Join(imgDir, filepath.Base(src))); err != nil {
			os.RemoveAll(workDir)
			return nil, &LoadError{Path: dir, Err: err}
		}
	}
	images, err := imaging.ListPages(imgDir)
	if err != nil {
		os.RemoveAll(workDir)
		return nil, &LoadError{Path: dir, Err: err}
	}

	return &Store{
		workDir:       workDir,
		ownsWorkDir:   true,
		images:        images,
		profiles:      []string{ProfileOriginal},
		activeProfile: ProfileOriginal,
	}, nil
}

// Save serializes the project into a zip archive at archivePath: the page
// images under images/, the regions in master.json (canonically sorted) and
// language + active profile in meta.json. The archive is written to a
// temporary file first and renamed into place, so a failed save leaves any
// previous archive intact.
func (s *Store) Save(archivePath string) error {
	s.sortRegions()

	masterData, err := json.MarshalIndent(s.regions, "", "  ")
	if err != nil {
		return &SaveError{Path: archivePath, Err: err}
	}
	metaData, err := json.MarshalIndent(meta{
		OriginalLanguage:  s.originalLanguage,
		ActiveProfileName: s.activeProfile,
	}, "", "  ")
	if err != nil {
		return &SaveError{Path: archivePath, Err: err}
	}

	dir := filepath.Dir(archivePath)
	tmp, err := os.CreateTemp(dir, ".scanlate-save-*")
	if err != nil {
		return &SaveError{Path: archivePath, Err: err}
	}
	tmpPath := tmp.Name()

	if err := writeArchive(tmp, s.images, masterData, metaData); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return &SaveError{Path: archivePath, Err: err}
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return &SaveError{Path: archivePath, Err: err}
	}
	if err := os.Rename(tmpPath, archivePath); err != nil {
		os.Remove(tmpPath)
		return &SaveError{Path: archivePath, Err: err}
	}
	return nil
}

func writeArchive(w io.Writer, images []string, masterData, metaData []byte) error {
	zw := zip.NewWriter(w)

	for _, img := range images {
		f, err := os.Open(img)
		if err != nil {
			return err
		}
		entry, err := zw.Create(imagesPrefix + filepath.Base(img))
		if err != nil {
			f.Close()
			return err
		}
		if _, err := io.Copy(entry, f); err != nil {
			f.Close()
			return err
		}
		f.Close()
	}

	for _, part := range []struct {
		name string
		data []byte
	}{
		{masterName, masterData},
		{metaName, metaData},
	} {
		entry, err := zw.Create(part.name)
		if err != nil {
			return err
		}
		if _, err := entry.Write(part.data); err != nil {
			return err
		}
	}

	return zw.Close()
}

func readZipJSON(f *zip.File, v interface{}) error {
	rc, err := f.Open()
	if err != nil {
		return fmt.Errorf("open %s: %w", f.Name, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return fmt.Errorf("read %s: %w", f.Name, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parse %s: %w", f.Name, err)
	}
	return nil
}

func extractZipFile(f *zip.File, dst string) error {
	rc, err := f.Open()
	if err != nil {
		return fmt.Errorf("open %s: %w", f.Name, err)
	}
	defer rc.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, rc); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// collectProfiles gathers the union of profile names referenced by any
// region's translations, with Original first and the rest sorted.
func collectProfiles(regions []Region) []string {
	set := make(map[string]bool)
	for _, r := range regions {
		for name := range r.Translations {
			if name != ProfileOriginal {
				set[name] = true
			}
		}
	}
	names := make([]string, 0, len(set))
	for name := range set {
		names = append(names, name)
	}
	sort.Strings(names)
	return append([]string{ProfileOriginal}, names...)
}

func containsString(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
