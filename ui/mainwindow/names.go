package mainwindow

import (
	"path/filepath"
	"strings"

	"facial-editor/internal/scene"
)

func isScene(path string) bool {
	return strings.EqualFold(filepath.Ext(path), scene.Ext)
}

// withExt appends ext to path unless it already ends with it.
func withExt(path, ext string) string {
	if strings.EqualFold(filepath.Ext(path), ext) {
		return path
	}
	return path + ext
}

func stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// exportName suggests a file name for the edited image.
func exportName(photoPath string) string {
	if photoPath == "" {
		return "edited.png"
	}
	return stem(photoPath) + "-edited.png"
}

// sceneName suggests a file name for a scene of photoPath.
func sceneName(photoPath string) string {
	if photoPath == "" {
		return "scene" + scene.Ext
	}
	return stem(photoPath) + scene.Ext
}
