package ws

import (
	"github.com/GriffinCanCode/menuterm/backend/internal/domain/orchestrator"
	"github.com/GriffinCanCode/menuterm/backend/internal/providers/settings"
)

// Client to server message types
const (
	TypeAttach = "attach"
	TypeDetach = "detach"
	TypeInput  = "input"
	TypeResize = "resize"
	TypePing   = "ping"
)

// Server to client message types
const (
	TypeOutput         = "output"
	TypeFreezeLayout   = "freeze_layout"
	TypeUnfreezeLayout = "unfreeze_layout"
	TypeTabState       = "tab_state"
	TypeSettings       = "settings"
	TypeError          = "error"
	TypePong           = "pong"
)

// Request is a message sent by the client
type Request struct {
	Type   string `json:"type"`
	ID     string `json:"id,omitempty"`
	PaneID string `json:"pane_id,omitempty"`
	Data   string `json:"data,omitempty"`
	Cols   int    `json:"cols,omitempty"`
	Rows   int    `json:"rows,omitempty"`
}

// Message is a message sent to the client
type Message struct {
	Type    string   `json:"type"`
	ID      string   `json:"id,omitempty"`
	TabID   string   `json:"tab_id,omitempty"`
	PaneID  string   `json:"pane_id,omitempty"`
	PaneIDs []string `json:"pane_ids,omitempty"`
	Data    string   `json:"data,omitempty"`
	// Replay marks output that was retained before the client attached
	Replay   bool                       `json:"replay,omitempty"`
	State    *orchestrator.TabPaneState `json:"state,omitempty"`
	Removed  bool                       `json:"removed,omitempty"`
	Settings *settings.Settings         `json:"settings,omitempty"`
	Error    string                     `json:"error,omitempty"`
}

func outputMessage(paneID, data string, replay bool) Message {
	return Message{Type: TypeOutput, PaneID: paneID, Data: data, Replay: replay}
}

func freezeMessage(tabID string, paneIDs []string, frozen bool) Message {
	msgType := TypeUnfreezeLayout
	if frozen {
		msgType = TypeFreezeLayout
	}
	return Message{Type: msgType, TabID: tabID, PaneIDs: paneIDs}
}

func tabStateMessage(tabID string, state orchestrator.TabPaneState, removed bool) Message {
	msg := Message{Type: TypeTabState, TabID: tabID, Removed: removed}
	if !removed {
		msg.State = &state
	}
	return msg
}

func settingsMessage(s settings.Settings) Message {
	return Message{Type: TypeSettings, Settings: &s}
}

func errorMessage(req Request, err error) Message {
	return Message{Type: TypeError, ID: req.ID, PaneID: req.PaneID, Error: err.Error()}
}
