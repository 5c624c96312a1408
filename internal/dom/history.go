package dom

// snapshot is an undo step: the editor markup and the selection as text
// offsets.
type snapshot struct {
	html       string
	start, end int
}

const maxHistory = 100

func (d *Document) snapshot() snapshot {
	so, eo := d.selectionOffsets()
	return snapshot{html: innerHTML(d.editor), start: so, end: eo}
}

// mutate runs fn and records an undo step if fn reports a change.
func (d *Document) mutate(fn func() bool) bool {
	before := d.snapshot()
	if !fn() {
		return false
	}
	d.undo = append(d.undo, before)
	if len(d.undo) > maxHistory {
		d.undo = d.undo[len(d.undo)-maxHistory:]
	}
	d.redo = nil
	d.checkEmpty()
	return true
}

func (d *Document) restore(s snapshot) {
	if err := setInnerHTML(d.editor, s.html); err != nil {
		d.logger.Warn("restore history: %v", err)
		return
	}
	d.selectOffsets(s.start, s.end)
	d.checkEmpty()
	d.selectionChanged()
}

func (d *Document) undoStep() bool {
	if len(d.undo) == 0 {
		return false
	}
	s := d.undo[len(d.undo)-1]
	d.undo = d.undo[:len(d.undo)-1]
	d.redo = append(d.redo, d.snapshot())
	d.restore(s)
	return true
}

func (d *Document) redoStep() bool {
	if len(d.redo) == 0 {
		return false
	}
	s := d.redo[len(d.redo)-1]
	d.redo = d.redo[:len(d.redo)-1]
	d.undo = append(d.undo, d.snapshot())
	d.restore(s)
	return true
}
