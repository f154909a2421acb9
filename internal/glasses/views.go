package glasses

import (
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/verte-zerg/tabprompt/internal/session"
)

// Fixed device messages.
const (
	SplashView      = "Teleprompt\n\nSelect a file to begin."
	ClosePromptView = "End this feature?\n\n  > Yes\n    No"
	JumpNotice      = "Back to start"
	EmptyCatalog    = "No tabs loaded"
)

// Default view geometry in character cells.
const (
	DefaultWidthCols = 48
	DefaultRows      = 18
)

// CatalogView renders the document list with the cursor row marked. The
// list scrolls to keep the cursor visible within rows lines.
func CatalogView(snap session.Snapshot, width, rows int) string {
	if width <= 0 {
		width = DefaultWidthCols
	}
	if rows <= 2 {
		rows = DefaultRows
	}
	if len(snap.Catalog) == 0 {
		return EmptyCatalog
	}

	visible := rows - 2
	top := 0
	if len(snap.Catalog) > visible {
		top = snap.CatalogCursor - visible/2
		top = max(0, min(top, len(snap.Catalog)-visible))
	}
	bottom := min(len(snap.Catalog), top+visible)

	lines := make([]string, 0, bottom-top+2)
	lines = append(lines, clip(fmt.Sprintf("Tabs (%d)", len(snap.Catalog)), width), "")
	for i := top; i < bottom; i++ {
		doc := snap.Catalog[i]
		marker := "  "
		if i == snap.CatalogCursor {
			marker = "> "
		}
		label := doc.Title
		if doc.Artist != "" {
			label += " - " + doc.Artist
		}
		lines = append(lines, clip(marker+label, width))
	}
	return strings.Join(lines, "\n")
}

func clip(s string, width int) string {
	if displayWidth(s) <= width {
		return s
	}
	return runewidth.Truncate(s, width, "…")
}

func displayWidth(s string) int {
	return runewidth.StringWidth(s)
}
