package embed

import (
	"fmt"
	"html/template"
	"strconv"
	"strings"
	"sync"
)

// snippetTemplate covers both placements. The toggle control is
// rendered alongside the iframe so unmounting the snippet removes
// both together.
var snippetTemplate = template.Must(template.New("widget").Parse(strings.TrimSpace(`
<div id="{{.ContainerID}}-assistant-widget" data-theme="{{.Theme}}">
{{- if .Toggle}}
  <button type="button" id="{{.ContainerID}}-assistant-toggle"
    style="position:fixed;right:20px;bottom:{{.ToggleBottom}};z-index:9999;width:40px;height:40px;border-radius:50%;border:none;cursor:pointer;background:#1976d2;color:#fff;box-shadow:0 2px 5px rgba(0,0,0,0.2);">{{.ToggleGlyph}}</button>
{{- end}}
  <iframe src="{{.PageURL}}" title="assistant chat"
    style="width:{{.Width}};height:{{.Height}};border:none;border-radius:8px;overflow:hidden;box-shadow:0 4px 12px rgba(0,0,0,0.15);{{if .Fixed}}position:fixed;right:20px;bottom:20px;z-index:9999;{{end}}{{if .Hidden}}display:none;{{end}}"></iframe>
</div>
`)))

// Widget is one mounted embed instance. Its HTML reflects the current
// minimized state; hosts re-render after ToggleMinimized.
type Widget struct {
	containerID string
	pageURL     string
	opts        Options

	mu        sync.Mutex
	minimized bool
}

// ContainerID returns the host container this widget is mounted in.
func (w *Widget) ContainerID() string { return w.containerID }

// PageURL returns the embed page address the iframe points at.
func (w *Widget) PageURL() string { return w.pageURL }

// Minimized reports whether the widget is currently collapsed.
func (w *Widget) Minimized() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.minimized
}

// ToggleMinimized flips the collapsed state and returns the new value.
// It has no effect on widgets without a toggle control.
func (w *Widget) ToggleMinimized() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.opts.Minimizable && w.opts.Position == PositionFixedBottomRight {
		w.minimized = !w.minimized
	}
	return w.minimized
}

// HTML renders the widget snippet for its current state.
func (w *Widget) HTML() (template.HTML, error) {
	w.mu.Lock()
	minimized := w.minimized
	w.mu.Unlock()

	fixed := w.opts.Position == PositionFixedBottomRight
	toggle := fixed && w.opts.Minimizable

	data := struct {
		ContainerID  string
		PageURL      string
		Width        string
		Height       string
		Theme        string
		Fixed        bool
		Toggle       bool
		Hidden       bool
		ToggleGlyph  string
		ToggleBottom string
	}{
		ContainerID: w.containerID,
		PageURL:     w.pageURL,
		Width:       w.opts.Width,
		Height:      w.opts.Height,
		Theme:       w.opts.Theme,
		Fixed:       fixed,
		Toggle:      toggle,
		Hidden:      minimized,
	}
	if toggle {
		if minimized {
			data.ToggleGlyph = "\U0001F4AC"
			data.ToggleBottom = "20px"
		} else {
			data.ToggleGlyph = "✕"
			data.ToggleBottom = toggleBottom(w.opts.Height)
		}
	}

	var b strings.Builder
	if err := snippetTemplate.Execute(&b, data); err != nil {
		return "", fmt.Errorf("embed: render widget: %w", err)
	}
	return template.HTML(b.String()), nil
}

// toggleBottom places the control just above the expanded iframe.
func toggleBottom(height string) string {
	if n, err := strconv.Atoi(strings.TrimSuffix(height, "px")); err == nil {
		return fmt.Sprintf("%dpx", n+30)
	}
	return "630px"
}

// Controller tracks mounted widgets by container ID and enforces the
// one-widget-per-container rule.
type Controller struct {
	loader *Loader

	mu      sync.Mutex
	mounted map[string]*Widget
}

// NewController builds a Controller over loader.
func NewController(loader *Loader) *Controller {
	return &Controller{
		loader:  loader,
		mounted: make(map[string]*Widget),
	}
}

// Mount creates a widget for assistantLink inside containerID.
// Mounting a container that already holds a widget is an error; call
// Unmount first.
func (c *Controller) Mount(containerID, assistantLink string, opts Options) (*Widget, error) {
	if containerID == "" {
		return nil, fmt.Errorf("embed: container id is required")
	}
	if assistantLink == "" {
		return nil, fmt.Errorf("embed: assistant link is required")
	}
	opts = opts.withDefaults()
	if err := opts.validate(); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.mounted[containerID]; ok {
		return nil, fmt.Errorf("embed: container %q already has a widget mounted", containerID)
	}

	w := &Widget{
		containerID: containerID,
		pageURL:     c.loader.PageURL(assistantLink),
		opts:        opts,
	}
	c.mounted[containerID] = w
	return w, nil
}

// Unmount releases the widget mounted in containerID.
func (c *Controller) Unmount(containerID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.mounted[containerID]; !ok {
		return fmt.Errorf("embed: container %q has no mounted widget", containerID)
	}
	delete(c.mounted, containerID)
	return nil
}

// Mounted reports whether containerID currently holds a widget.
func (c *Controller) Mounted(containerID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.mounted[containerID]
	return ok
}
