package editor

import "certificate-server/core"

// EditView describes the inline edit in progress.
type EditView struct {
	ElementID string `json:"elementId"`
	Buffer    string `json:"buffer"`
}

// State is what a client needs to render the editor.
type State struct {
	Config    core.TemplateConfig `json:"config"`
	CanUndo   bool                `json:"canUndo"`
	CanRedo   bool                `json:"canRedo"`
	Selected  string              `json:"selected,omitempty"`
	Editing   *EditView           `json:"editing,omitempty"`
	Dragging  bool                `json:"dragging"`
	Zoom      float64             `json:"zoom"`
	UndoDepth int                 `json:"undoDepth"`
	RedoDepth int                 `json:"redoDepth"`
}

// State returns a snapshot of the editor for rendering.
func (e *Editor) State() State {
	s := State{
		Config:    e.Present(),
		CanUndo:   e.CanUndo(),
		CanRedo:   e.CanRedo(),
		Selected:  e.selected,
		Dragging:  e.Dragging(),
		Zoom:      e.zoom,
		UndoDepth: e.history.PastLen(),
		RedoDepth: e.history.FutureLen(),
	}
	if e.edit != nil {
		s.Editing = &EditView{ElementID: e.edit.elementID, Buffer: e.edit.buffer}
	}
	return s
}
