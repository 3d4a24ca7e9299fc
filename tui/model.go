package tui

import (
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/moyu-x/file-organizer/internal"
)

type Focus int

const (
	FocusSourceDir Focus = iota
	FocusRunMode
	FocusDedup
	FocusConfirm
)

type model struct {
	focus     Focus
	options   internal.Options
	confirmed bool

	sourceInput textinput.Model
	modeList    list.Model
	dedupList   list.Model
	width       int
}

func initialModel(defaults internal.Options) model {
	sourceInput := textinput.New()
	sourceInput.Placeholder = "请输入要整理的目录"
	sourceInput.Prompt = "> "
	sourceInput.PromptStyle = focusedPromptStyle
	sourceInput.TextStyle = textStyle
	sourceInput.SetValue(defaults.SourceDir)
	sourceInput.Focus()

	modeList := list.New([]list.Item{
		choiceItem{title: "正式运行", desc: "移动文件并删除重复内容"},
		choiceItem{title: "预览模式", desc: "只计算统计，不修改任何文件"},
	}, list.NewDefaultDelegate(), 0, listHeight)
	modeList.Title = "选择运行模式"
	configureList(&modeList)
	if defaults.DryRun {
		modeList.Select(1)
	}

	dedupList := list.New([]list.Item{
		choiceItem{title: "不去重", desc: "只做分类整理"},
		choiceItem{title: "去重，保留最旧副本", desc: "整理后全量扫描，每组保留修改时间最早的一份"},
		choiceItem{title: "去重，保留最新副本", desc: "整理后全量扫描，每组保留修改时间最晚的一份"},
	}, list.NewDefaultDelegate(), 0, listHeight)
	dedupList.Title = "重复文件处理"
	configureList(&dedupList)
	if defaults.RemoveDuplicates {
		if defaults.KeepOldest {
			dedupList.Select(1)
		} else {
			dedupList.Select(2)
		}
	}

	return model{
		focus:       FocusSourceDir,
		options:     defaults,
		sourceInput: sourceInput,
		modeList:    modeList,
		dedupList:   dedupList,
	}
}

const listHeight = 8

func configureList(l *list.Model) {
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	l.SetShowHelp(false)
	l.Styles.Title = titleStyle
}

func (m *model) Init() tea.Cmd {
	return textinput.Blink
}

type choiceItem struct {
	title string
	desc  string
}

func (c choiceItem) Title() string       { return c.title }
func (c choiceItem) Description() string { return c.desc }
func (c choiceItem) FilterValue() string { return c.title }
