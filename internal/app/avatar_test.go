package app

import (
	"encoding/base64"
	"strings"
	"testing"
)

func decodeAvatar(t *testing.T, dataURL string) string {
	t.Helper()
	const prefix = "data:image/svg+xml;base64,"
	if !strings.HasPrefix(dataURL, prefix) {
		t.Fatalf("avatar %q is not an SVG data URL", dataURL)
	}
	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(dataURL, prefix))
	if err != nil {
		t.Fatalf("avatar payload is not valid base64: %v", err)
	}
	return string(raw)
}

func TestPlaceholderAvatarIsDeterministic(t *testing.T) {
	first := PlaceholderAvatar("Ada Lovelace", "123456789")
	second := PlaceholderAvatar("Ada Lovelace", "123456789")
	if first != second {
		t.Error("same inputs must produce the same avatar")
	}
}

func TestPlaceholderAvatarCarriesInitial(t *testing.T) {
	svg := decodeAvatar(t, PlaceholderAvatar("ada lovelace", "123456789"))
	if !strings.Contains(svg, ">A</text>") {
		t.Errorf("expected uppercased initial A in %q", svg)
	}

	svg = decodeAvatar(t, PlaceholderAvatar("", "123456789"))
	if !strings.Contains(svg, ">?</text>") {
		t.Errorf("expected fallback initial ? in %q", svg)
	}
}

func TestPlaceholderAvatarEscapesMarkup(t *testing.T) {
	svg := decodeAvatar(t, PlaceholderAvatar("<script>", "123456789"))
	if strings.Contains(svg, "<script") || !strings.Contains(svg, "&lt;") {
		t.Errorf("initial not escaped in %q", svg)
	}
}

func TestPlaceholderAvatarColorFromPalette(t *testing.T) {
	svg := decodeAvatar(t, PlaceholderAvatar("Ada", "123456789"))
	found := false
	for _, color := range avatarPalette {
		if strings.Contains(svg, color) {
			found = true
			break
		}
	}
	if !found {
		t.Errorf("no palette color found in %q", svg)
	}
}
