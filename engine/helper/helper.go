package helper

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

var now = time.Now

// DateTimeString formats the current local time so it sorts and is safe in
// file names.
func DateTimeString() string {
	return now().Format("2006-01-02_15-04-05")
}

// Screenshot writes img as PNG into dir, named after the current date-time.
// It returns the written path.
func Screenshot(img image.Image, dir string) (string, error) {
	if dir == "" {
		dir = "screenshots"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	base := "sc_" + DateTimeString()
	path := filepath.Join(dir, base+".png")
	for i := 1; FileExists(path); i++ {
		path = filepath.Join(dir, fmt.Sprintf("%s_%d.png", base, i))
	}
	if err := SavePNG(img, path); err != nil {
		return "", err
	}
	return path, nil
}

func SavePNG(img image.Image, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	return f.Close()
}

// FileNameFromPath returns the last element of path.
func FileNameFromPath(path string) string {
	if path == "" {
		return ""
	}
	return filepath.Base(filepath.ToSlash(path))
}

// DirectoryFromPath returns path up to and including the last separator.
func DirectoryFromPath(path string) string {
	path = filepath.ToSlash(path)
	i := strings.LastIndex(path, "/")
	if i < 0 {
		return ""
	}
	return path[:i+1]
}

// ExtensionFromFileName returns the extension without the dot, lower-cased.
func ExtensionFromFileName(name string) string {
	ext := filepath.Ext(name)
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

func RemoveExtension(name string) string {
	return strings.TrimSuffix(name, filepath.Ext(name))
}

func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// FilesInDirectory lists the regular files of dir, optionally filtered by
// extension (without dot, case-insensitive). Paths are sorted.
func FilesInDirectory(dir string, ext string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if ext != "" && ExtensionFromFileName(e.Name()) != ext {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	sort.Strings(files)
	return files, nil
}
