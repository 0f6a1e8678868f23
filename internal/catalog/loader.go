package catalog

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"facial-editor/internal/raster"

	"github.com/BurntSushi/toml"
)

// ManifestFile is the optional file in a catalog directory that names and
// sizes its assets explicitly.
const ManifestFile = "catalog.toml"

// Manifest lists the assets of a catalog directory.
//
//	[[feature]]
//	category = "eyes"
//	name = "Blue Eyes"
//	file = "eye_images/blue_eye1.png"
//	width = 80
//	height = 50
type Manifest struct {
	Features []ManifestEntry `toml:"feature"`
}

// ManifestEntry describes one asset. Width and height, when both are set,
// resize the image on load.
type ManifestEntry struct {
	Category string `toml:"category"`
	Name     string `toml:"name"`
	File     string `toml:"file"`
	Width    int    `toml:"width"`
	Height   int    `toml:"height"`
}

// LoadDir reads a catalog directory. With a catalog.toml manifest, the
// manifest decides what is loaded. Otherwise every supported image at
// <dir>/<category>/<name>.<ext> becomes an asset named after its file.
func LoadDir(dir string) (*Store, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("catalog directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("catalog directory: %s is not a directory", dir)
	}

	manifestPath := filepath.Join(dir, ManifestFile)
	if _, err := os.Stat(manifestPath); err == nil {
		var m Manifest
		if _, err := toml.DecodeFile(manifestPath, &m); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", manifestPath, err)
		}
		return loadManifest(dir, m)
	}
	return loadTree(dir)
}

func loadManifest(dir string, m Manifest) (*Store, error) {
	s := NewStore()
	for i, e := range m.Features {
		if e.Category == "" || e.Name == "" || e.File == "" {
			return nil, fmt.Errorf("feature %d: category, name and file are required", i+1)
		}
		path := e.File
		if !filepath.IsAbs(path) {
			path = filepath.Join(dir, path)
		}
		img, err := raster.Load(path)
		if err != nil {
			return nil, fmt.Errorf("feature %s/%s: %w", e.Category, e.Name, err)
		}
		if e.Width > 0 && e.Height > 0 {
			img = raster.Resize(img, e.Width, e.Height)
		}
		s.Add(raster.NewAsset(e.Category, e.Name, img))
	}
	return s, nil
}

func loadTree(dir string) (*Store, error) {
	categories, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog directory: %w", err)
	}

	s := NewStore()
	for _, cat := range categories {
		if !cat.IsDir() || strings.HasPrefix(cat.Name(), ".") {
			continue
		}
		files, err := os.ReadDir(filepath.Join(dir, cat.Name()))
		if err != nil {
			return nil, fmt.Errorf("failed to read category %s: %w", cat.Name(), err)
		}
		for _, f := range files {
			if f.IsDir() || !raster.IsSupportedFormat(f.Name()) {
				continue
			}
			img, err := raster.Load(filepath.Join(dir, cat.Name(), f.Name()))
			if err != nil {
				return nil, err
			}
			name := strings.TrimSuffix(f.Name(), filepath.Ext(f.Name()))
			s.Add(raster.NewAsset(cat.Name(), name, img))
		}
	}
	return s, nil
}
