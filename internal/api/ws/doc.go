/*
Package ws serves the terminal stream over a WebSocket at /stream.

# Protocol

Messages are JSON objects with a "type" field.

Client to server:

	{"type":"attach","pane_id":"pane_..."}              replay scrollback, then stream output
	{"type":"detach","pane_id":"pane_..."}
	{"type":"input","pane_id":"pane_...","data":"ls\r"}
	{"type":"resize","pane_id":"pane_...","cols":120,"rows":40}
	{"type":"ping","id":"7"}

Server to client:

	output            pane output; "replay": true for retained scrollback
	freeze_layout     panes that must hold their size while a split settles
	unfreeze_layout   sizes may be measured and reported again
	tab_state         a tab's tree and active pane, or "removed": true
	settings          current settings, on connect and on every change
	error             a failed request, echoing its id and pane_id
	pong

On connect the client receives the settings and every tab's layout.
tab_state messages arrive in commit order. Their state.version only grows,
so a layout with a lower version than one already applied is stale.

# Flow control

Each connection has one writer goroutine fed by a bounded queue. A client
that falls a full queue behind is disconnected; it can reconnect and attach
again to get the scrollback.
*/
package ws
