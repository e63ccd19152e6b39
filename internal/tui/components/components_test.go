package components

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/theirongolddev/cashbox/internal/tui/theme"
)

func init() {
	// Force TrueColor output so ANSI codes are generated in tests
	lipgloss.SetColorProfile(termenv.TrueColor)
}

func TestLayoutRowSumsToWidth(t *testing.T) {
	widths := LayoutRow(101, 3)
	if len(widths) != 3 {
		t.Fatalf("len = %d, want 3", len(widths))
	}
	sum := 0
	for _, w := range widths {
		sum += w
	}
	if sum != 101 {
		t.Fatalf("sum = %d, want 101", sum)
	}
	if widths[0] != 34 || widths[2] != 33 {
		t.Fatalf("widths = %v, want remainder on the first item", widths)
	}
	if LayoutRow(10, 0) != nil {
		t.Fatal("LayoutRow(n=0) should be nil")
	}
}

func TestCardRowHeightMatchesTallest(t *testing.T) {
	theme.SetActive("flexoki-dark")

	short := ContentCard("General", "one", 24, true)
	tall := ContentCard("Weekly", "1\n2\n3\n4", 24, false)

	joined := CardRow([]string{tall, short})
	if got, want := lipgloss.Height(joined), lipgloss.Height(tall); got != want {
		t.Fatalf("joined height = %d, want %d", got, want)
	}
	if got := lipgloss.Width(joined); got != 48 {
		t.Fatalf("joined width = %d, want 48", got)
	}
}

func TestStatusBarShowsMessage(t *testing.T) {
	bar := RenderStatusBar(60, "[q]uit", "save failed", true)
	if !strings.Contains(bar, "save failed") {
		t.Fatalf("status bar missing message: %q", bar)
	}
	if got := lipgloss.Width(bar); got != 60 {
		t.Fatalf("status bar width = %d, want 60", got)
	}
}

func TestShareBarClamps(t *testing.T) {
	if got := ShareBar("Weekly", 5, 0, 8, 10); !strings.Contains(got, "0%") {
		t.Fatalf("empty whole should render 0%%: %q", got)
	}
	if got := ShareBar("Weekly", 30, 20, 8, 10); !strings.Contains(got, "100%") {
		t.Fatalf("overfull share should clamp to 100%%: %q", got)
	}
}

func TestBucketTabsMarksActive(t *testing.T) {
	out := RenderBucketTabs([]string{"General", "Weekly"}, 1)
	if !strings.Contains(out, "Weekly") || !strings.Contains(out, "[") {
		t.Fatalf("unexpected tabs: %q", out)
	}
}
