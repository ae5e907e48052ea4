package embed

import (
	"strings"
	"testing"
)

func TestPageURLEncodesLink(t *testing.T) {
	t.Parallel()

	loader := NewLoader(WithHost("widgets.example.com"))
	got := loader.PageURL("acme support")
	want := "https://widgets.example.com/embed?id=acme+support"
	if got != want {
		t.Errorf("PageURL() = %q, want %q", got, want)
	}
}

func TestLoaderHostResolutionOrder(t *testing.T) {
	t.Setenv("ASSISTANT_EMBED_HOST", "env.example.com")

	fromEnv := NewLoader()
	if !strings.Contains(fromEnv.PageURL("x"), "env.example.com") {
		t.Errorf("PageURL() = %q, want env host", fromEnv.PageURL("x"))
	}

	explicit := NewLoader(WithHost("explicit.example.com"))
	if !strings.Contains(explicit.PageURL("x"), "explicit.example.com") {
		t.Errorf("PageURL() = %q, want explicit host to win over env", explicit.PageURL("x"))
	}
}

func TestLoaderDefaultHost(t *testing.T) {
	t.Setenv("ASSISTANT_EMBED_HOST", "")

	loader := NewLoader()
	if !strings.Contains(loader.PageURL("x"), defaultHost) {
		t.Errorf("PageURL() = %q, want default host", loader.PageURL("x"))
	}
}

func TestMountRejectsDoubleMount(t *testing.T) {
	t.Parallel()

	c := NewController(NewLoader(WithHost("h.example.com")))
	if _, err := c.Mount("chat-root", "acme", Options{}); err != nil {
		t.Fatalf("Mount() error = %v", err)
	}
	if _, err := c.Mount("chat-root", "acme", Options{}); err == nil {
		t.Fatal("second Mount() error = nil, want double-mount rejection")
	}
	if _, err := c.Mount("other-root", "acme", Options{}); err != nil {
		t.Errorf("Mount() on a different container error = %v", err)
	}
}

func TestUnmountReleasesContainer(t *testing.T) {
	t.Parallel()

	c := NewController(NewLoader(WithHost("h.example.com")))
	if _, err := c.Mount("chat-root", "acme", Options{}); err != nil {
		t.Fatalf("Mount() error = %v", err)
	}
	if err := c.Unmount("chat-root"); err != nil {
		t.Fatalf("Unmount() error = %v", err)
	}
	if c.Mounted("chat-root") {
		t.Error("Mounted() = true after Unmount()")
	}
	if _, err := c.Mount("chat-root", "acme", Options{}); err != nil {
		t.Errorf("remount after Unmount() error = %v", err)
	}
	if err := c.Unmount("never-mounted"); err == nil {
		t.Error("Unmount() of unknown container error = nil, want error")
	}
}

func TestMountValidatesInput(t *testing.T) {
	t.Parallel()

	c := NewController(NewLoader())
	if _, err := c.Mount("", "acme", Options{}); err == nil {
		t.Error("Mount() with empty container error = nil")
	}
	if _, err := c.Mount("root", "", Options{}); err == nil {
		t.Error("Mount() with empty link error = nil")
	}
	if _, err := c.Mount("root", "acme", Options{Position: "sidebar"}); err == nil {
		t.Error("Mount() with unknown position error = nil")
	}
}

func TestInlineWidgetHTML(t *testing.T) {
	t.Parallel()

	c := NewController(NewLoader(WithHost("h.example.com")))
	w, err := c.Mount("chat-root", "acme", Options{Width: "320px"})
	if err != nil {
		t.Fatalf("Mount() error = %v", err)
	}
	html, err := w.HTML()
	if err != nil {
		t.Fatalf("HTML() error = %v", err)
	}

	s := string(html)
	if !strings.Contains(s, `src="https://h.example.com/embed?id=acme"`) {
		t.Errorf("snippet missing iframe src: %s", s)
	}
	if !strings.Contains(s, "width:320px") {
		t.Errorf("snippet missing explicit width: %s", s)
	}
	if !strings.Contains(s, "height:600px") {
		t.Errorf("snippet missing default height: %s", s)
	}
	if strings.Contains(s, "position:fixed") {
		t.Errorf("inline snippet must not be fixed: %s", s)
	}
	if strings.Contains(s, "<button") {
		t.Errorf("inline snippet must not carry a toggle: %s", s)
	}
}

func TestMinimizableWidgetToggles(t *testing.T) {
	t.Parallel()

	c := NewController(NewLoader(WithHost("h.example.com")))
	w, err := c.Mount("chat-root", "acme", Options{
		Position:    PositionFixedBottomRight,
		Minimizable: true,
	})
	if err != nil {
		t.Fatalf("Mount() error = %v", err)
	}

	html, err := w.HTML()
	if err != nil {
		t.Fatalf("HTML() error = %v", err)
	}
	if !strings.Contains(string(html), "<button") {
		t.Errorf("expanded snippet missing toggle control: %s", html)
	}
	if strings.Contains(string(html), "display:none") {
		t.Errorf("expanded snippet must show the iframe: %s", html)
	}

	if got := w.ToggleMinimized(); !got {
		t.Fatal("ToggleMinimized() = false, want true")
	}
	html, err = w.HTML()
	if err != nil {
		t.Fatalf("HTML() after toggle error = %v", err)
	}
	if !strings.Contains(string(html), "display:none") {
		t.Errorf("minimized snippet must hide the iframe: %s", html)
	}

	if got := w.ToggleMinimized(); got {
		t.Error("second ToggleMinimized() = true, want false")
	}
}

func TestToggleIgnoredWithoutMinimizable(t *testing.T) {
	t.Parallel()

	c := NewController(NewLoader())
	w, err := c.Mount("chat-root", "acme", Options{})
	if err != nil {
		t.Fatalf("Mount() error = %v", err)
	}
	if got := w.ToggleMinimized(); got {
		t.Error("ToggleMinimized() = true for non-minimizable widget")
	}
	if w.Minimized() {
		t.Error("Minimized() = true for non-minimizable widget")
	}
}
