/*
Package http provides the REST API the UI drives the pane layout with.

# Routes

All routes live under /api/v1:

	GET    /tabs                                list tabs
	POST   /tabs                                open a tab with one pane
	GET    /tabs/:tab                           tree, active pane, pane count
	DELETE /tabs/:tab                           close a tab and its sessions
	GET    /tabs/:tab/panes                     panes in layout order
	POST   /tabs/:tab/panes/:pane/split         {"direction": "horizontal"|"vertical"}
	POST   /tabs/:tab/panes/:pane/restart       fresh session for a pane
	DELETE /tabs/:tab/panes/:pane               close a pane
	PUT    /tabs/:tab/active                    {"pane_id": "..."}
	PUT    /tabs/:tab/branches/:branch/ratio    {"ratio": 0.3} or {"reset": true}
	GET    /settings
	PUT    /settings
	PUT    /settings/pinned                     {"pinned": true}
	GET    /sessions                            live PTY sessions
	POST   /logs                                webview log lines, up to 100 per batch
	GET    /complete?prefix=ls                  executables on PATH, cached
	POST   /commands/exec                       {"command": "git", "args": [...], "timeout_ms": 5000}
	POST   /commands/stream                     same body, output as server-sent events

# Errors

Unknown tabs, panes and branches map to 404, closing the last pane to 409,
malformed bodies to 400. Commands that are rejected, missing, not
executable or too slow map to 400, 404, 403 and 504. Error bodies are {"success": false, "error": "..."}.
*/
package http
