package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"riprocess-image-list/internal/model"
)

// DefaultImagePattern takes the last run of digits directly before the
// extension: IMG_0001.jpg -> 1, DSC03522.JPG -> 3522.
const DefaultImagePattern = `(?P<index>\d+)\.[^.]+$`

// DefaultImageExtensions are the extensions treated as camera images.
var DefaultImageExtensions = []string{".jpg", ".jpeg"}

// ImageOptions controls which files are images and how they are numbered.
type ImageOptions struct {
	Pattern    *regexp.Regexp // must contain an "index" group; nil = DefaultImagePattern
	Extensions []string       // case-insensitive, with leading dot; empty = DefaultImageExtensions
}

var defaultImageRegexp = regexp.MustCompile(DefaultImagePattern)

// CompileImagePattern compiles a user supplied image pattern and checks that
// it exposes the index group.
func CompileImagePattern(pattern string) (*regexp.Regexp, error) {
	if pattern == "" {
		return defaultImageRegexp, nil
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("image pattern %q: %w", pattern, err)
	}
	if re.SubexpIndex("index") < 0 {
		return nil, fmt.Errorf("image pattern %q has no (?P<index>...) group", pattern)
	}
	return re, nil
}

// ExtractIndex parses the image index out of a file name. ok is false when the
// name does not match or the captured text is not a number.
func ExtractIndex(name string, re *regexp.Regexp) (index int, ok bool) {
	index, matched, err := matchIndex(name, re)
	return index, matched && err == nil
}

// matchIndex reports whether name matches re at all, and if it does, the
// parsed index group.
func matchIndex(name string, re *regexp.Regexp) (index int, matched bool, err error) {
	if re == nil {
		re = defaultImageRegexp
	}
	m := re.FindStringSubmatch(name)
	if m == nil {
		return 0, false, nil
	}
	gi := re.SubexpIndex("index")
	if gi < 0 || m[gi] == "" {
		return 0, true, fmt.Errorf("empty image index")
	}
	n, err := strconv.Atoi(m[gi])
	if err != nil {
		return 0, true, fmt.Errorf("image index %q: %w", m[gi], err)
	}
	return n, true, nil
}

// ListImages lists the numbered images directly inside dir, sorted by index
// and narrowed to [first, last]. Images whose name does not match the index
// pattern are skipped; a match whose index cannot be parsed is an error.
func ListImages(dir string, first, last *int, opts ImageOptions) ([]model.ImageFile, error) {
	re := opts.Pattern
	if re == nil {
		re = defaultImageRegexp
	}
	exts := opts.Extensions
	if len(exts) == 0 {
		exts = DefaultImageExtensions
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, model.IOError(dir, err)
	}

	var images []model.ImageFile
	seen := make(map[int]string)
	for _, e := range entries {
		name := e.Name()
		if !hasExtension(name, exts) {
			continue
		}
		path := filepath.Join(dir, name)
		regular, err := isRegularFile(path, e)
		if err != nil {
			return nil, model.IOError(path, err)
		}
		if !regular {
			continue
		}
		index, matched, err := matchIndex(name, re)
		if !matched {
			continue
		}
		if err != nil {
			return nil, model.MalformedFilename(path, "%v", err)
		}
		if other, dup := seen[index]; dup {
			return nil, model.MalformedFilename(path, "duplicate image index %d (also %s)", index, other)
		}
		seen[index] = name
		images = append(images, model.ImageFile{Index: index, Name: name, Path: path})
	}
	if len(images) == 0 {
		return nil, &model.PipelineError{Kind: model.ErrNoImagesFound, Path: dir}
	}

	sort.Slice(images, func(i, j int) bool { return images[i].Index < images[j].Index })

	selected, err := FilterRange(images, func(img model.ImageFile) int { return img.Index }, first, last)
	if err != nil {
		return nil, err
	}
	if len(selected) == 0 {
		return nil, &model.PipelineError{
			Kind: model.ErrNoImagesFound,
			Path: dir,
			Msg:  fmt.Sprintf("first image %d comes after last image %d", *first, *last),
		}
	}
	return selected, nil
}

func hasExtension(name string, exts []string) bool {
	ext := filepath.Ext(name)
	for _, want := range exts {
		if strings.EqualFold(ext, want) {
			return true
		}
	}
	return false
}

// isRegularFile follows symlinks so that linked images still count.
func isRegularFile(path string, e os.DirEntry) (bool, error) {
	if e.Type().IsRegular() {
		return true, nil
	}
	if e.Type()&os.ModeSymlink == 0 {
		return false, nil
	}
	fi, err := os.Stat(path)
	if err != nil {
		return false, err
	}
	return fi.Mode().IsRegular(), nil
}
