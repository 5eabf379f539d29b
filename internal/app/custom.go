package app

import (
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/adityanavgire01/walkie-talkie/internal/backend"
	"github.com/adityanavgire01/walkie-talkie/internal/settings"
)

// custom form field indices
const (
	fieldSize = iota
	fieldKey
	fieldCount
)

// customForm is the entry surface for custom mode.
type customForm struct {
	sizeInput textinput.Model
	keyInput  textinput.Model
	focus     int

	// inline feedback
	errMsg  string
	infoMsg string
	busy    bool
	closing bool
}

func newCustomForm(current settings.State) customForm {
	si := textinput.New()
	si.Placeholder = "1-100"
	si.CharLimit = 3
	si.Width = 6
	si.Prompt = ""
	if current.IsCustom() {
		si.SetValue(itoa(current.Size))
	}
	si.Focus()

	ki := textinput.New()
	ki.Placeholder = settings.KeyPrefix + "..."
	ki.CharLimit = 200
	ki.Width = 40
	ki.Prompt = ""
	ki.EchoMode = textinput.EchoPassword
	ki.EchoCharacter = '•'

	return customForm{sizeInput: si, keyInput: ki, focus: fieldSize}
}

func (f *customForm) blurCurrent() {
	switch f.focus {
	case fieldSize:
		f.sizeInput.Blur()
	case fieldKey:
		f.keyInput.Blur()
	}
}

func (f *customForm) focusCurrent() {
	switch f.focus {
	case fieldSize:
		f.sizeInput.Focus()
	case fieldKey:
		f.keyInput.Focus()
	}
}

func (m Model) openCustom() (Model, tea.Cmd) {
	m.svc.Settings.OpenCustom()
	f := newCustomForm(m.settings)
	m.custom = &f
	m.mode = modeCustom
	return m, textinput.Blink
}

func (m Model) closeCustom() Model {
	m.svc.Settings.CloseCustom()
	m.custom = nil
	m.mode = modeNormal
	return m
}

func (m Model) updateCustom(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	f := m.custom

	switch msg.String() {
	case KeyEsc:
		return m.closeCustom(), nil

	case KeyTab, KeyShiftTab, KeyUp, KeyDown:
		f.blurCurrent()
		if msg.String() == KeyShiftTab || msg.String() == KeyUp {
			f.focus = (f.focus - 1 + fieldCount) % fieldCount
		} else {
			f.focus = (f.focus + 1) % fieldCount
		}
		f.focusCurrent()
		return m, nil

	case KeyEnter:
		if f.busy {
			return m, nil
		}
		size, key := f.sizeInput.Value(), f.keyInput.Value()
		// Local validation never reaches the network.
		if _, err := settings.ValidateCustom(size, key); err != nil {
			f.errMsg = backend.UserMessage(err)
			f.infoMsg = ""
			return m, nil
		}
		f.errMsg = ""
		f.infoMsg = "Validating key..."
		f.busy = true
		return m, submitCustomCmd(m.ctx, m.svc, size, key)

	case KeyResetAPIKey:
		if f.busy {
			return m, nil
		}
		f.busy = true
		f.errMsg = ""
		f.infoMsg = "Resetting key..."
		return m, resetKeyCmd(m.ctx, m.svc)
	}

	var cmd tea.Cmd
	switch f.focus {
	case fieldSize:
		f.sizeInput, cmd = f.sizeInput.Update(msg)
	case fieldKey:
		f.keyInput, cmd = f.keyInput.Update(msg)
	}
	return m, cmd
}
