package editor

import (
	"certificate-server/core"

	"github.com/oklog/ulid/v2"
	"github.com/pkg/errors"
)

var (
	ErrUnknownCommand = errors.New("unknown command")
	ErrInvalidCommand = errors.New("invalid command")
)

// CommandType names an interaction event.
type CommandType string

const (
	CmdSelect        CommandType = "select"
	CmdSetZoom       CommandType = "setZoom"
	CmdBeginDrag     CommandType = "beginDrag"
	CmdUpdateDrag    CommandType = "updateDrag"
	CmdEndDrag       CommandType = "endDrag"
	CmdCancelDrag    CommandType = "cancelDrag"
	CmdBeginEdit     CommandType = "beginEdit"
	CmdSetEditBuffer CommandType = "setEditBuffer"
	CmdCommitEdit    CommandType = "commitEdit"
	CmdCancelEdit    CommandType = "cancelEdit"
	CmdKey           CommandType = "key"
	CmdUpdateElement CommandType = "updateElement"
	CmdAddElement    CommandType = "addElement"
	CmdRemoveElement CommandType = "removeElement"
	CmdUpdateCanvas  CommandType = "updateCanvas"
	CmdBringToFront  CommandType = "bringToFront"
	CmdSendToBack    CommandType = "sendToBack"
	CmdUndo          CommandType = "undo"
	CmdRedo          CommandType = "redo"
)

// Command is the wire form of an interaction event, as sent by REST and
// socket.io clients. Only the fields relevant to Type are read.
type Command struct {
	Type      CommandType        `json:"type" validate:"required"`
	ElementID string             `json:"elementId,omitempty"`
	Point     *Point             `json:"point,omitempty"`
	Text      string             `json:"text,omitempty"`
	Key       string             `json:"key,omitempty"`
	Shift     bool               `json:"shift,omitempty"`
	Zoom      float64            `json:"zoom,omitempty"`
	Patch     *core.ElementPatch `json:"patch,omitempty"`
	Element   *core.Element      `json:"element,omitempty"`
	Canvas    *core.CanvasPatch  `json:"canvas,omitempty"`
}

// Apply dispatches cmd to the matching editor operation. Operations that
// target missing elements are no-ops; only malformed commands are errors.
func (e *Editor) Apply(cmd Command) error {
	switch cmd.Type {
	case CmdSelect:
		e.Select(cmd.ElementID)
	case CmdSetZoom:
		e.SetZoom(cmd.Zoom)
	case CmdBeginDrag:
		if cmd.Point == nil {
			return errors.Wrap(ErrInvalidCommand, "beginDrag requires point")
		}
		e.BeginDrag(cmd.ElementID, *cmd.Point)
	case CmdUpdateDrag:
		if cmd.Point == nil {
			return errors.Wrap(ErrInvalidCommand, "updateDrag requires point")
		}
		e.UpdateDrag(*cmd.Point)
	case CmdEndDrag:
		e.EndDrag()
	case CmdCancelDrag:
		e.CancelDrag()
	case CmdBeginEdit:
		e.BeginEdit(cmd.ElementID)
	case CmdSetEditBuffer:
		e.SetEditBuffer(cmd.Text)
	case CmdCommitEdit:
		e.CommitEdit()
	case CmdCancelEdit:
		e.CancelEdit()
	case CmdKey:
		if cmd.Key == "Escape" && e.Dragging() {
			e.CancelDrag()
			return nil
		}
		e.HandleEditKey(cmd.Key, cmd.Shift)
	case CmdUpdateElement:
		if cmd.Patch == nil {
			return errors.Wrap(ErrInvalidCommand, "updateElement requires patch")
		}
		if err := core.Validate(cmd.Patch); err != nil {
			return err
		}
		e.UpdateElement(cmd.ElementID, *cmd.Patch)
	case CmdAddElement:
		if cmd.Element == nil {
			return errors.Wrap(ErrInvalidCommand, "addElement requires element")
		}
		el := *cmd.Element
		if el.ID == "" {
			el.ID = ulid.Make().String()
		}
		if err := core.Validate(el); err != nil {
			return err
		}
		e.AddElement(el)
	case CmdRemoveElement:
		e.RemoveElement(cmd.ElementID)
	case CmdUpdateCanvas:
		if cmd.Canvas == nil {
			return errors.Wrap(ErrInvalidCommand, "updateCanvas requires canvas")
		}
		if err := core.Validate(cmd.Canvas); err != nil {
			return err
		}
		e.UpdateCanvas(*cmd.Canvas)
	case CmdBringToFront:
		e.BringToFront(cmd.ElementID)
	case CmdSendToBack:
		e.SendToBack(cmd.ElementID)
	case CmdUndo:
		e.Undo()
	case CmdRedo:
		e.Redo()
	default:
		return errors.Wrapf(ErrUnknownCommand, "%q", cmd.Type)
	}
	return nil
}
