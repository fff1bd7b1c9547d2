// Package store owns the on-disk layout of a job's output directory: clip
// naming, listing, lookup for download and purge.
package store

import (
	"clipsplit/models"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
)

// ClipExt is the container every clip is written in.
const ClipExt = ".mp4"

const partialSuffix = ".partial"

var (
	clipNameRegex    = regexp.MustCompile(`^clip_(\d+)_(\d+)\.mp4$`)
	partialNameRegex = regexp.MustCompile(`^\.clip_(\d+)_(\d+)\.partial\.mp4$`)
)

// ClipName returns the file name encoding a segment's boundaries,
// e.g. clip_60_90.mp4. The same segment always maps to the same name.
func ClipName(seg models.Segment) string {
	return fmt.Sprintf("clip_%d_%d%s", seg.Start, seg.End, ClipExt)
}

// ClipPath returns where a segment's clip lives inside dir.
func ClipPath(dir string, seg models.Segment) string {
	return filepath.Join(dir, ClipName(seg))
}

// PartialPath returns where a segment's clip is written while it is being
// produced. The leading dot keeps it out of List and Resolve; the .mp4
// suffix lets ffmpeg pick the container from the name.
func PartialPath(dir string, seg models.Segment) string {
	return filepath.Join(dir, fmt.Sprintf(".clip_%d_%d%s%s", seg.Start, seg.End, partialSuffix, ClipExt))
}

// ParseClipName recovers the boundaries from a clip file name. Index is
// left at zero; List assigns it from the sorted order.
func ParseClipName(name string) (models.Segment, bool) {
	m := clipNameRegex.FindStringSubmatch(name)
	if m == nil {
		return models.Segment{}, false
	}
	start, err1 := strconv.Atoi(m[1])
	end, err2 := strconv.Atoi(m[2])
	if err1 != nil || err2 != nil {
		return models.Segment{}, false
	}
	seg := models.Segment{Start: start, End: end}
	if seg.Validate() != nil {
		return models.Segment{}, false
	}
	return seg, true
}

// List returns the clips currently in dir, ordered by start time.
//
// A missing directory is an empty list. Files that do not follow the clip
// naming scheme are ignored.
func List(dir string) ([]models.ClipArtifact, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []models.ClipArtifact{}, nil
		}
		return nil, fmt.Errorf("%w: failed to list %s: %v", models.ErrStorage, dir, err)
	}

	artifacts := make([]models.ClipArtifact, 0, len(entries))
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		seg, ok := ParseClipName(entry.Name())
		if !ok {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			return nil, fmt.Errorf("%w: failed to stat %s: %v", models.ErrStorage, entry.Name(), err)
		}
		artifacts = append(artifacts, models.ClipArtifact{
			Segment: seg,
			Path:    filepath.Join(dir, entry.Name()),
			Status:  models.ArtifactSuccess,
			Size:    info.Size(),
		})
	}

	sort.Slice(artifacts, func(i, j int) bool {
		a, b := artifacts[i].Segment, artifacts[j].Segment
		if a.Start != b.Start {
			return a.Start < b.Start
		}
		return a.End < b.End
	})
	for i := range artifacts {
		artifacts[i].Segment.Index = i + 1
	}

	return artifacts, nil
}

// Purge removes everything under dir and leaves dir present and empty.
// A missing directory is created, not reported.
func Purge(dir string) error {
	if dir == "" {
		return fmt.Errorf("%w: output directory cannot be empty", models.ErrStorage)
	}

	entries, err := os.ReadDir(dir)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: failed to read %s: %v", models.ErrStorage, dir, err)
	}

	for _, entry := range entries {
		if err := os.RemoveAll(filepath.Join(dir, entry.Name())); err != nil {
			return fmt.Errorf("%w: failed to remove %s: %v", models.ErrStorage, entry.Name(), err)
		}
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("%w: failed to create %s: %v", models.ErrStorage, dir, err)
	}
	return nil
}

// RemoveClips deletes the clips and partial clips in dir, leaving any
// other file alone. A missing directory is not an error.
func RemoveClips(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("%w: failed to read %s: %v", models.ErrStorage, dir, err)
	}

	for _, entry := range entries {
		name := entry.Name()
		if !entry.Type().IsRegular() {
			continue
		}
		if !clipNameRegex.MatchString(name) && !partialNameRegex.MatchString(name) {
			continue
		}
		if err := os.Remove(filepath.Join(dir, name)); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: failed to remove %s: %v", models.ErrStorage, name, err)
		}
	}
	return nil
}

// Resolve returns the path of the clip called name inside dir, for
// serving. Names that are not clip names (including anything with a path
// separator) are rejected, as are clips that do not exist.
func Resolve(dir, name string) (string, error) {
	if name != filepath.Base(name) {
		return "", fmt.Errorf("%w: invalid clip name %q", models.ErrInvalidArgument, name)
	}
	if _, ok := ParseClipName(name); !ok {
		return "", fmt.Errorf("%w: invalid clip name %q", models.ErrInvalidArgument, name)
	}

	path := filepath.Join(dir, name)
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("clip %s: %w", name, fs.ErrNotExist)
		}
		return "", fmt.Errorf("%w: failed to stat %s: %v", models.ErrStorage, name, err)
	}
	if !info.Mode().IsRegular() {
		return "", fmt.Errorf("clip %s: %w", name, fs.ErrNotExist)
	}
	return path, nil
}
