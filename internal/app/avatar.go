package app

import (
	"encoding/base64"
	"fmt"
	"hash/fnv"
	"html"
	"strings"
	"unicode"
)

// avatarPalette holds the tile background colors. The account id hashes to a
// palette slot, so the same account always renders the same tile.
var avatarPalette = []string{
	"#f59e0b", // amber, the house color
	"#0ea5e9",
	"#10b981",
	"#8b5cf6",
	"#ef4444",
	"#ec4899",
}

// PlaceholderAvatar synthesizes a deterministic avatar for accounts without an
// uploaded image: a colored tile carrying the holder's first initial, encoded
// as an SVG data URL so it is directly displayable.
func PlaceholderAvatar(name, accountID string) string {
	initial := "?"
	for _, r := range strings.TrimSpace(name) {
		initial = string(unicode.ToUpper(r))
		break
	}

	h := fnv.New32a()
	h.Write([]byte(accountID))
	color := avatarPalette[int(h.Sum32())%len(avatarPalette)]

	svg := fmt.Sprintf(
		`<svg xmlns="http://www.w3.org/2000/svg" width="200" height="200">`+
			`<rect width="200" height="200" fill="%s"/>`+
			`<text x="100" y="100" fill="#ffffff" font-family="Inter, sans-serif" font-size="100" font-weight="bold" text-anchor="middle" dominant-baseline="central">%s</text>`+
			`</svg>`,
		color, html.EscapeString(initial),
	)
	return "data:image/svg+xml;base64," + base64.StdEncoding.EncodeToString([]byte(svg))
}
