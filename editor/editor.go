// Package editor turns pointer and keyboard interactions on a certificate
// template into snapshots recorded by a history.Manager.
//
// Only the template config is versioned. Selection, zoom, the drag in
// progress and the inline edit buffer are view state: undo and redo never
// touch them.
package editor

import (
	"certificate-server/core"
	"certificate-server/history"

	"github.com/oklog/ulid/v2"
)

// Point is a pointer position in screen space.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type dragState struct {
	elementID string
	origin    Point // element anchor when the drag began, canvas space
	start     Point // pointer position when the drag began, screen space
	base      core.TemplateConfig
}

type editState struct {
	elementID string
	buffer    string
}

// Editor is the interaction layer of one editing session.
type Editor struct {
	history  *history.Manager[core.TemplateConfig]
	selected string
	zoom     float64
	drag     *dragState
	edit     *editState
}

// New creates an editor over initial. Options are passed to the underlying
// history manager.
func New(initial core.TemplateConfig, opts ...history.Option[core.TemplateConfig]) *Editor {
	return &Editor{
		history: history.New(initial, opts...),
		zoom:    1,
	}
}

// Present returns the current template config.
func (e *Editor) Present() core.TemplateConfig {
	return e.history.Present()
}

// History exposes the underlying manager for read-only inspection.
func (e *Editor) History() *history.Manager[core.TemplateConfig] {
	return e.history
}

// Select marks id as selected. An empty id clears the selection; ids that do
// not exist are ignored.
func (e *Editor) Select(id string) {
	if id == "" {
		e.selected = ""
		return
	}
	if e.Present().IndexOf(id) >= 0 {
		e.selected = id
	}
}

// Selected returns the selected element id, if any.
func (e *Editor) Selected() (string, bool) {
	return e.selected, e.selected != ""
}

// SetZoom sets the view scale used to map pointer deltas into canvas space.
// Non-positive values are ignored.
func (e *Editor) SetZoom(zoom float64) {
	if zoom > 0 {
		e.zoom = zoom
	}
}

// Zoom returns the current view scale.
func (e *Editor) Zoom() float64 {
	return e.zoom
}

// BeginDrag starts moving an element. Nothing is committed until the drag
// ends. It reports false when the element does not exist.
func (e *Editor) BeginDrag(id string, pointer Point) bool {
	e.finishDrag()

	present := e.Present()
	el, ok := present.Element(id)
	if !ok {
		return false
	}

	e.drag = &dragState{
		elementID: id,
		origin:    Point{X: el.X, Y: el.Y},
		start:     pointer,
		base:      present,
	}
	return true
}

// Dragging reports whether a drag gesture is in progress.
func (e *Editor) Dragging() bool {
	return e.drag != nil
}

// UpdateDrag moves the dragged element so that it follows the pointer.
// Intermediate positions replace the present snapshot without creating
// history entries.
func (e *Editor) UpdateDrag(pointer Point) {
	if e.drag == nil {
		return
	}

	present := e.Present()
	if present.IndexOf(e.drag.elementID) < 0 {
		// Removed mid-drag.
		return
	}

	dx := (pointer.X - e.drag.start.X) / e.zoom
	dy := (pointer.Y - e.drag.start.Y) / e.zoom
	e.history.Replace(present.UpdateElement(e.drag.elementID, core.Position(e.drag.origin.X+dx, e.drag.origin.Y+dy)))
}

// EndDrag finishes the gesture, recording it as a single history step.
func (e *Editor) EndDrag() {
	e.finishDrag()
}

// CancelDrag abandons the gesture and restores the pre-drag snapshot.
func (e *Editor) CancelDrag() {
	if e.drag == nil {
		return
	}
	e.history.Replace(e.drag.base)
	e.drag = nil
}

func (e *Editor) finishDrag() {
	if e.drag == nil {
		return
	}
	base := e.drag.base
	e.drag = nil
	e.history.CommitFrom(base, e.Present())
}

// BeginEdit puts a text or variable element into inline editing, seeding the
// edit buffer with its content. Any edit already open is committed first.
func (e *Editor) BeginEdit(id string) bool {
	e.finishDrag()
	e.CommitEdit()

	el, ok := e.Present().Element(id)
	if !ok || !el.Type.Editable() {
		return false
	}
	e.edit = &editState{elementID: id, buffer: el.Content}
	return true
}

// Editing returns the element being edited and the current buffer.
func (e *Editor) Editing() (id, buffer string, ok bool) {
	if e.edit == nil {
		return "", "", false
	}
	return e.edit.elementID, e.edit.buffer, true
}

// SetEditBuffer replaces the text of the open edit.
func (e *Editor) SetEditBuffer(text string) {
	if e.edit != nil {
		e.edit.buffer = text
	}
}

// CommitEdit writes the edit buffer into the element's content and closes
// the edit.
func (e *Editor) CommitEdit() {
	if e.edit == nil {
		return
	}
	id, text := e.edit.elementID, e.edit.buffer
	e.edit = nil
	e.history.CommitFunc(func(prev core.TemplateConfig) core.TemplateConfig {
		return prev.UpdateElement(id, core.ContentPatch(text))
	})
}

// CancelEdit discards the edit buffer.
func (e *Editor) CancelEdit() {
	e.edit = nil
}

// HandleEditKey maps keys pressed inside an open edit: Enter without Shift
// commits and Escape discards. Shift+Enter is left to the text input. It
// reports whether the key was consumed.
func (e *Editor) HandleEditKey(key string, shift bool) bool {
	if e.edit == nil {
		return false
	}
	switch key {
	case "Enter":
		if shift {
			return false
		}
		e.CommitEdit()
		return true
	case "Escape":
		e.CancelEdit()
		return true
	}
	return false
}

// UpdateElement merges patch into the element with the given id.
func (e *Editor) UpdateElement(id string, patch core.ElementPatch) {
	e.commit(func(prev core.TemplateConfig) core.TemplateConfig {
		return prev.UpdateElement(id, patch)
	})
}

// AddElement appends el on top of the other elements. An empty id is
// assigned a new one. It returns the id, or "" when the id is already taken.
func (e *Editor) AddElement(el core.Element) string {
	if el.ID == "" {
		el.ID = ulid.Make().String()
	}
	if e.Present().IndexOf(el.ID) >= 0 {
		return ""
	}
	e.commit(func(prev core.TemplateConfig) core.TemplateConfig {
		return prev.WithElement(el)
	})
	return el.ID
}

// RemoveElement deletes the element with the given id.
func (e *Editor) RemoveElement(id string) {
	e.commit(func(prev core.TemplateConfig) core.TemplateConfig {
		return prev.WithoutElement(id)
	})
	if e.selected == id {
		e.selected = ""
	}
	if e.edit != nil && e.edit.elementID == id {
		e.edit = nil
	}
}

// UpdateCanvas merges patch into the canvas.
func (e *Editor) UpdateCanvas(patch core.CanvasPatch) {
	e.commit(func(prev core.TemplateConfig) core.TemplateConfig {
		return prev.WithCanvas(patch)
	})
}

// BringToFront paints the element above all others.
func (e *Editor) BringToFront(id string) {
	e.commit(func(prev core.TemplateConfig) core.TemplateConfig {
		return prev.BringToFront(id)
	})
}

// SendToBack paints the element below all others.
func (e *Editor) SendToBack(id string) {
	e.commit(func(prev core.TemplateConfig) core.TemplateConfig {
		return prev.SendToBack(id)
	})
}

func (e *Editor) commit(fn func(prev core.TemplateConfig) core.TemplateConfig) {
	e.finishDrag()
	e.history.CommitFunc(fn)
}

// Undo steps back one snapshot. An open drag is finished first and an open
// edit is discarded.
func (e *Editor) Undo() bool {
	e.finishDrag()
	e.edit = nil
	return e.history.Undo()
}

// Redo steps forward one snapshot.
func (e *Editor) Redo() bool {
	e.finishDrag()
	e.edit = nil
	return e.history.Redo()
}

// CanUndo reports whether Undo would change the template.
func (e *Editor) CanUndo() bool {
	return e.history.CanUndo()
}

// CanRedo reports whether Redo would change the template.
func (e *Editor) CanRedo() bool {
	return e.history.CanRedo()
}

// Reset loads a different template into the session, dropping history and
// all view state except zoom.
func (e *Editor) Reset(cfg core.TemplateConfig) {
	e.drag = nil
	e.edit = nil
	e.selected = ""
	e.history.Reset(cfg)
}
