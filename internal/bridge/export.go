package bridge

import "github.com/dshills/richbridge/internal/channel"

// ExportHTML requests the editor content and passes it to cb. Requests made
// while one is outstanding share its result: the document is asked once and
// every waiting callback receives the same HTML.
func (e *Editor) ExportHTML(cb func(html string)) {
	if cb == nil || e.closed.Load() {
		return
	}

	e.exportMu.Lock()
	first := len(e.exportCallbacks) == 0
	e.exportCallbacks = append(e.exportCallbacks, cb)
	e.exportMu.Unlock()

	if first {
		e.commands.Submit([]*channel.Method{channel.NewMethod("exportHtml")})
	}
}

func (e *Editor) deliverExport(html string) {
	e.exportMu.Lock()
	callbacks := e.exportCallbacks
	e.exportCallbacks = nil
	e.exportMu.Unlock()

	if len(callbacks) == 0 {
		e.logger.Debug("exported html with no waiting callback")
		return
	}
	for _, cb := range callbacks {
		cb(html)
	}
}
