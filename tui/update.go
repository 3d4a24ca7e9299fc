package tui

import (
	tea "github.com/charmbracelet/bubbletea"
)

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			m.confirmed = false
			return m, tea.Quit

		case "tab", "shift+tab":
			if msg.String() == "tab" {
				m.nextFocus()
			} else {
				m.prevFocus()
			}
			m.updateFocusState()
			return m, nil

		case "enter":
			return m.handleEnterKey()
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.sourceInput.Width = msg.Width - 10
		m.modeList.SetWidth(msg.Width - 4)
		m.dedupList.SetWidth(msg.Width - 4)
	}

	var cmd tea.Cmd
	switch m.focus {
	case FocusSourceDir:
		m.sourceInput, cmd = m.sourceInput.Update(msg)
		cmds = append(cmds, cmd)
	case FocusRunMode:
		m.modeList, cmd = m.modeList.Update(msg)
		cmds = append(cmds, cmd)
	case FocusDedup:
		m.dedupList, cmd = m.dedupList.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

func (m *model) nextFocus() {
	switch m.focus {
	case FocusSourceDir:
		m.focus = FocusRunMode
	case FocusRunMode:
		m.focus = FocusDedup
	case FocusDedup:
		m.focus = FocusConfirm
	case FocusConfirm:
		m.focus = FocusSourceDir
	}
}

func (m *model) prevFocus() {
	switch m.focus {
	case FocusSourceDir:
		m.focus = FocusConfirm
	case FocusRunMode:
		m.focus = FocusSourceDir
	case FocusDedup:
		m.focus = FocusRunMode
	case FocusConfirm:
		m.focus = FocusDedup
	}
}

func (m *model) updateFocusState() {
	if m.focus == FocusSourceDir {
		m.sourceInput.Focus()
	} else {
		m.sourceInput.Blur()
	}

	m.modeList.KeyMap.CursorUp.SetEnabled(m.focus == FocusRunMode)
	m.modeList.KeyMap.CursorDown.SetEnabled(m.focus == FocusRunMode)
	m.dedupList.KeyMap.CursorUp.SetEnabled(m.focus == FocusDedup)
	m.dedupList.KeyMap.CursorDown.SetEnabled(m.focus == FocusDedup)
}

func (m *model) handleEnterKey() (tea.Model, tea.Cmd) {
	switch m.focus {
	case FocusSourceDir, FocusRunMode, FocusDedup:
		m.nextFocus()
		m.updateFocusState()
		return m, nil

	case FocusConfirm:
		m.applyChoices()
		if m.options.SourceDir == "" {
			// 源目录为空时退回输入框
			m.focus = FocusSourceDir
			m.updateFocusState()
			return m, nil
		}
		m.confirmed = true
		return m, tea.Quit
	}
	return m, nil
}

// applyChoices 把界面上的选择写入 Options
func (m *model) applyChoices() {
	m.options.SourceDir = m.sourceInput.Value()
	m.options.DryRun = m.modeList.Index() == 1

	switch m.dedupList.Index() {
	case 0:
		m.options.RemoveDuplicates = false
	case 1:
		m.options.RemoveDuplicates = true
		m.options.KeepOldest = true
	case 2:
		m.options.RemoveDuplicates = true
		m.options.KeepOldest = false
	}
}
