package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

func (m *model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("🗂  文件整理工具") + "\n\n")
	b.WriteString(separatorStyle.Render(strings.Repeat("─", 60)) + "\n\n")

	b.WriteString(labelStyle.Render("1. 源目录：") + "\n")
	b.WriteString(m.renderFocusable(m.sourceInput.View(), FocusSourceDir) + "\n\n")

	b.WriteString(labelStyle.Render("2. 运行模式：") + "\n")
	b.WriteString(m.renderFocusable(m.modeList.View(), FocusRunMode) + "\n\n")

	b.WriteString(labelStyle.Render("3. 重复文件处理：") + "\n")
	b.WriteString(m.renderFocusable(m.dedupList.View(), FocusDedup) + "\n\n")

	confirm := "[ 开始整理 ]"
	if m.focus == FocusConfirm {
		b.WriteString(confirmFocusedStyle.Render(confirm) + "\n\n")
	} else {
		b.WriteString(confirmStyle.Render(confirm) + "\n\n")
	}

	b.WriteString(separatorStyle.Render(strings.Repeat("─", 60)) + "\n")
	b.WriteString(hintStyle.Render("操作提示：") + "\n")
	b.WriteString("  • Tab / Shift+Tab 切换焦点\n")
	b.WriteString("  • Enter 确认并进入下一项\n")
	b.WriteString("  • Esc / Ctrl+C 取消退出\n")

	return lipgloss.NewStyle().
		Padding(1).
		Render(b.String())
}

func (m *model) renderFocusable(content string, focus Focus) string {
	if m.focus == focus {
		return focusedStyle.Render(content)
	}
	return normalStyle.Render(content)
}
