package markdown

import (
	"strings"
	"testing"
)

func TestWrapText(t *testing.T) {
	t.Parallel()

	lines := WrapText("one two three four five", 9)
	if len(lines) < 2 {
		t.Fatalf("expected wrapping, got %v", lines)
	}
	for _, l := range lines {
		if len(l) > 9 {
			t.Errorf("line %q exceeds width", l)
		}
	}
}

func TestWrapText_ZeroWidth(t *testing.T) {
	t.Parallel()

	lines := WrapText("unwrappable", 0)
	if len(lines) != 1 || lines[0] != "unwrappable" {
		t.Fatalf("zero width should pass text through, got %v", lines)
	}
}

func TestWrapText_Empty(t *testing.T) {
	t.Parallel()

	if lines := WrapText("", 40); len(lines) != 0 {
		t.Fatalf("empty text should yield no lines, got %v", lines)
	}
}

func TestRenderContent_NarrowFallsBackToWrap(t *testing.T) {
	t.Parallel()

	r := NewRenderer("notty")
	lines := r.RenderContent("# heading", MinWidthForMarkdown-1)
	if len(lines) != 1 || !strings.Contains(lines[0], "# heading") {
		t.Fatalf("narrow render should wrap plainly, got %v", lines)
	}
}

func TestRenderContent_CacheStable(t *testing.T) {
	t.Parallel()

	r := NewRenderer("notty")
	first := r.RenderContent("hello **world**", 60)
	second := r.RenderContent("hello **world**", 60)
	if strings.Join(first, "\n") != strings.Join(second, "\n") {
		t.Fatal("cached render diverges from first render")
	}
}

func TestCacheKey_WidthSensitive(t *testing.T) {
	t.Parallel()

	r := NewRenderer("notty")
	if r.cacheKey("same", 40) == r.cacheKey("same", 41) {
		t.Fatal("cache key must include the width")
	}
}
