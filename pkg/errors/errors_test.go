package errors

import (
	"errors"
	"fmt"
	"io/fs"
	"testing"
)

func TestIsWalksChain(t *testing.T) {
	inner := Wrap(ErrCodePermissionDenied, fs.ErrPermission, "cannot write %s", "out.png")
	outer := Wrap(ErrCodePersistence, inner, "save failed")
	wrapped := fmt.Errorf("handler: %w", outer)

	tests := []struct {
		code Code
		want bool
	}{
		{ErrCodePersistence, true},
		{ErrCodePermissionDenied, true},
		{ErrCodeEncoding, false},
		{ErrCodeNoCanvas, false},
	}
	for _, tt := range tests {
		if got := Is(wrapped, tt.code); got != tt.want {
			t.Errorf("Is(%s) = %v, want %v", tt.code, got, tt.want)
		}
	}
	if !errors.Is(wrapped, fs.ErrPermission) {
		t.Error("stdlib errors.Is should reach the root cause")
	}
}

func TestIsNil(t *testing.T) {
	if Is(nil, ErrCodeInternal) {
		t.Error("Is(nil) = true")
	}
	if Is(errors.New("plain"), ErrCodeInternal) {
		t.Error("plain error should carry no code")
	}
}

func TestGetCode(t *testing.T) {
	err := fmt.Errorf("ctx: %w", New(ErrCodeNoPreview, "no preview"))
	if got := GetCode(err); got != ErrCodeNoPreview {
		t.Errorf("GetCode = %q", got)
	}
	if got := GetCode(errors.New("x")); got != "" {
		t.Errorf("GetCode(plain) = %q", got)
	}
}

func TestErrorString(t *testing.T) {
	err := Wrap(ErrCodeEncoding, errors.New("boom"), "encode png")
	if got, want := err.Error(), "ENCODING: encode png: boom"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if got, want := New(ErrCodeNoCanvas, "load a photo").Error(), "NO_CANVAS: load a photo"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"plain", errors.New("plain"), "plain"},
		{"coded", New(ErrCodeNoSelection, "pick a feature first"), "pick a feature first"},
		{
			"persistence",
			Wrap(ErrCodePersistence, New(ErrCodeEncoding, "bad jpeg"), "could not save"),
			"could not save: bad jpeg",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := UserMessage(tt.err); got != tt.want {
				t.Errorf("UserMessage = %q, want %q", got, tt.want)
			}
		})
	}
}
