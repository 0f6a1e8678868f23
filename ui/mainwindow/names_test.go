package mainwindow

import "testing"

func TestSuggestedNames(t *testing.T) {
	tests := []struct {
		photo     string
		export    string
		sceneFile string
	}{
		{"", "edited.png", "scene.facescene"},
		{"/photos/me.jpg", "me-edited.png", "me.facescene"},
		{"party.photo.tiff", "party.photo-edited.png", "party.photo.facescene"},
	}
	for _, tt := range tests {
		if got := exportName(tt.photo); got != tt.export {
			t.Errorf("exportName(%q) = %q, want %q", tt.photo, got, tt.export)
		}
		if got := sceneName(tt.photo); got != tt.sceneFile {
			t.Errorf("sceneName(%q) = %q, want %q", tt.photo, got, tt.sceneFile)
		}
	}
}

func TestWithExt(t *testing.T) {
	tests := []struct {
		path, want string
	}{
		{"look", "look.facescene"},
		{"look.facescene", "look.facescene"},
		{"look.FACESCENE", "look.FACESCENE"},
		{"look.json", "look.json.facescene"},
	}
	for _, tt := range tests {
		if got := withExt(tt.path, ".facescene"); got != tt.want {
			t.Errorf("withExt(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
	if !isScene("a/b.facescene") || isScene("a/b.png") {
		t.Error("isScene misclassified")
	}
}
