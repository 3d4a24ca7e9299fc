package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/moyu-x/file-organizer/internal"
)

// Run 启动交互式配置界面，返回用户确认的运行配置
// 用户取消时返回 nil
func Run(defaults internal.Options) (*internal.Options, error) {
	m := initialModel(defaults)
	p := tea.NewProgram(&m, tea.WithAltScreen())

	result, err := p.Run()
	if err != nil {
		return nil, err
	}

	final, ok := result.(*model)
	if !ok || !final.confirmed {
		return nil, nil
	}
	return &final.options, nil
}
