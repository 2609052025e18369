package ui

import "sync"

// ChoiceOption is one selectable answer in a choice dialog (e.g. the
// conflict resolution prompt's overwrite/overwrite-all/skip/skip-all/
// cancel options from spec.md §4.6).
type ChoiceOption struct {
	Label string
	Value int
}

// ConfirmDialog is a yes/no modal layer. Every dialog update to its
// visible content happens under mu, and the main loop's render pass must
// take the same lock before reading contentChanged — spec.md §4.5's
// "a background worker setting that flag AND the main loop clearing it
// after render must both serialize on the dialog's lock" requirement.
type ConfirmDialog struct {
	BaseLayer
	mu       sync.Mutex
	prompt   string
	closed   bool
	answer   bool
	onAnswer func(bool)
}

// NewConfirmDialog builds a dialog showing prompt; onAnswer is called once
// with the user's choice when a key is handled.
func NewConfirmDialog(prompt string, onAnswer func(bool)) *ConfirmDialog {
	return &ConfirmDialog{BaseLayer: NewBaseLayer(), prompt: prompt, onAnswer: onAnswer}
}

func (d *ConfirmDialog) HandleKeyEvent(event KeyEvent) bool {
	if event.Key == KeyEnter {
		d.resolve(true)
		return true
	}
	return false
}

func (d *ConfirmDialog) HandleCharEvent(event CharEvent) bool {
	switch event.Char {
	case 'y', 'Y':
		d.resolve(true)
		return true
	case 'n', 'N':
		d.resolve(false)
		return true
	}
	return true // modal: absorb everything else
}

func (d *ConfirmDialog) resolve(answer bool) {
	d.mu.Lock()
	d.answer = answer
	d.closed = true
	d.mu.Unlock()
	d.MarkDirty()
	if d.onAnswer != nil {
		d.onAnswer(answer)
	}
}

func (d *ConfirmDialog) Render(r Renderer) {
	d.mu.Lock()
	prompt := d.prompt
	d.mu.Unlock()
	rows, cols := r.Dimensions()
	row, col := rows/2, (cols-len(prompt))/2
	if col < 0 {
		col = 0
	}
	r.DrawText(row, col, prompt, 0, AttrReverse)
}

func (d *ConfirmDialog) IsFullScreen() bool { return false }
func (d *ConfirmDialog) ShouldClose() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closed
}
func (d *ConfirmDialog) Dismissable() bool { return true }
func (d *ConfirmDialog) Modal() bool       { return true }

// ChoiceDialog presents a fixed list of options (e.g. the conflict
// resolution dialog) and reports the chosen option.
type ChoiceDialog struct {
	BaseLayer
	mu       sync.Mutex
	prompt   string
	options  []ChoiceOption
	cursor   int
	closed   bool
	onChoose func(ChoiceOption)
}

// NewChoiceDialog builds a dialog over options; onChoose is called once
// with the selected option when Enter is pressed.
func NewChoiceDialog(prompt string, options []ChoiceOption, onChoose func(ChoiceOption)) *ChoiceDialog {
	return &ChoiceDialog{BaseLayer: NewBaseLayer(), prompt: prompt, options: options, onChoose: onChoose}
}

func (d *ChoiceDialog) HandleKeyEvent(event KeyEvent) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	switch event.Key {
	case KeyUp:
		if d.cursor > 0 {
			d.cursor--
		}
		d.contentChangedLocked()
		return true
	case KeyDown:
		if d.cursor < len(d.options)-1 {
			d.cursor++
		}
		d.contentChangedLocked()
		return true
	case KeyEnter:
		choice := d.options[d.cursor]
		d.closed = true
		d.contentChangedLocked()
		if d.onChoose != nil {
			d.mu.Unlock()
			d.onChoose(choice)
			d.mu.Lock()
		}
		return true
	}
	return true
}

func (d *ChoiceDialog) contentChangedLocked() { d.MarkDirty() }

func (d *ChoiceDialog) HandleCharEvent(event CharEvent) bool { return true }

func (d *ChoiceDialog) Render(r Renderer) {
	d.mu.Lock()
	prompt := d.prompt
	options := append([]ChoiceOption(nil), d.options...)
	cursor := d.cursor
	d.mu.Unlock()

	rows, cols := r.Dimensions()
	top := rows/2 - len(options)/2
	r.DrawText(top-1, (cols-len(prompt))/2, prompt, 0, AttrBold)
	for i, opt := range options {
		attr := AttrNone
		if i == cursor {
			attr = AttrReverse
		}
		r.DrawText(top+i, (cols-len(opt.Label))/2, opt.Label, 0, attr)
	}
}

func (d *ChoiceDialog) IsFullScreen() bool { return false }
func (d *ChoiceDialog) ShouldClose() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closed
}
func (d *ChoiceDialog) Dismissable() bool { return true }
func (d *ChoiceDialog) Modal() bool       { return true }
