// Package tui renders the board as three columns in the terminal, with live
// timers on in-progress cards.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"task-board.com/task-board/internal/constants"
	"task-board.com/task-board/internal/format"
	"task-board.com/task-board/internal/services"
	model "task-board.com/task-board/pkg/models"
)

var (
	primaryColor = lipgloss.Color("#7C3AED")
	successColor = lipgloss.Color("#10B981")
	warningColor = lipgloss.Color("#F59E0B")
	errorColor   = lipgloss.Color("#EF4444")
	mutedColor   = lipgloss.Color("#6B7280")
	fgColor      = lipgloss.Color("#F9FAFB")

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor).
			Padding(0, 1)

	columnStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(mutedColor).
			Padding(0, 1)

	focusedColumnStyle = columnStyle.Copy().
				BorderForeground(primaryColor)

	cardStyle = lipgloss.NewStyle().
			Padding(0, 1)

	selectedCardStyle = lipgloss.NewStyle().
				Background(primaryColor).
				Foreground(fgColor).
				Bold(true).
				Padding(0, 1)

	timerStyle = lipgloss.NewStyle().
			Foreground(successColor).
			Bold(true)

	overdueStyle = lipgloss.NewStyle().
			Foreground(errorColor)

	urgentStyle = lipgloss.NewStyle().
			Foreground(warningColor)

	helpStyle = lipgloss.NewStyle().
			Foreground(mutedColor).
			Italic(true)
)

const minColumnWidth = 24

type tickMsg []services.TimerView

// boardMsg carries the board after a change, plus the error the change
// reported, if any.
type boardMsg struct {
	tasks []model.Task
	err   error
	note  string
}

// Model is the bubbletea model for the board screen.
type Model struct {
	board    *services.BoardService
	ctx      context.Context
	now      func() time.Time
	tasks    map[constants.Column][]model.Task
	timers   map[string]services.TimerView
	focus    int
	selected map[constants.Column]int
	input    textinput.Model
	adding   bool
	message  string
	width    int
}

func New(ctx context.Context, board *services.BoardService) *Model {
	ti := textinput.New()
	ti.Placeholder = "What needs doing?"
	ti.CharLimit = 256
	ti.Width = 60

	m := &Model{
		board:    board,
		ctx:      ctx,
		now:      time.Now,
		timers:   make(map[string]services.TimerView),
		selected: make(map[constants.Column]int),
		input:    ti,
	}
	m.setTasks(board.List())
	for _, view := range board.LiveTimers() {
		m.timers[view.ID] = view
	}
	return m
}

// Run shows the board until the user quits. The refresh loop runs for the
// lifetime of the program and is stopped once it has exited.
func Run(ctx context.Context, board *services.BoardService) error {
	p := tea.NewProgram(New(ctx, board), tea.WithAltScreen(), tea.WithContext(ctx))

	board.StartUpdates(func(views []services.TimerView) {
		p.Send(tickMsg(views))
	})

	_, err := p.Run()
	board.StopUpdates()
	return err
}

func (m *Model) Init() tea.Cmd {
	return textinput.Blink
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case tickMsg:
		timers := make(map[string]services.TimerView, len(msg))
		for _, view := range msg {
			timers[view.ID] = view
		}
		m.timers = timers
		return m, nil

	case boardMsg:
		m.setTasks(msg.tasks)
		switch {
		case msg.err != nil:
			m.message = "Error: " + msg.err.Error()
		case msg.note != "":
			m.message = msg.note
		}
		return m, nil

	case tea.KeyMsg:
		if m.adding {
			return m.updateInput(msg)
		}
		return m.updateBoard(msg)
	}

	return m, nil
}

func (m *Model) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.adding = false
		m.input.Reset()
		m.input.Blur()
		return m, nil
	case "enter":
		text := strings.TrimSpace(m.input.Value())
		m.adding = false
		m.input.Reset()
		m.input.Blur()
		if text == "" {
			return m, nil
		}
		return m, m.addTask(text, m.focusedColumn())
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) updateBoard(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	column := m.focusedColumn()

	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit

	case "left", "h":
		if m.focus > 0 {
			m.focus--
		}

	case "right", "l":
		if m.focus < len(constants.Columns)-1 {
			m.focus++
		}

	case "up", "k":
		if m.selected[column] > 0 {
			m.selected[column]--
		}

	case "down", "j":
		if m.selected[column] < len(m.tasks[column])-1 {
			m.selected[column]++
		}

	case "<", ",":
		if task := m.selectedTask(); task != nil && m.focus > 0 {
			return m, m.moveTask(task.ID, constants.Columns[m.focus-1])
		}

	case ">", ".":
		if task := m.selectedTask(); task != nil && m.focus < len(constants.Columns)-1 {
			return m, m.moveTask(task.ID, constants.Columns[m.focus+1])
		}

	case "a", "n":
		m.adding = true
		m.message = ""
		return m, m.input.Focus()

	case "d", "x":
		if task := m.selectedTask(); task != nil {
			return m, m.deleteTask(task.ID, task.Text)
		}
	}

	return m, nil
}

func (m *Model) addTask(text string, column constants.Column) tea.Cmd {
	return func() tea.Msg {
		task, err := m.board.AddTask(m.ctx, services.NewTask{Text: text, Column: column})
		msg := boardMsg{tasks: m.board.List(), err: err}
		if task != nil && err == nil {
			msg.note = "Added: " + task.Text
		}
		return msg
	}
}

func (m *Model) moveTask(id string, to constants.Column) tea.Cmd {
	return func() tea.Msg {
		task, err := m.board.RequestColumnChange(m.ctx, id, to)
		msg := boardMsg{tasks: m.board.List(), err: err}
		if task != nil && err == nil {
			msg.note = fmt.Sprintf("Moved to %s: %s", to.Title(), task.Text)
		}
		return msg
	}
}

func (m *Model) deleteTask(id, text string) tea.Cmd {
	return func() tea.Msg {
		found, err := m.board.RequestDelete(m.ctx, id)
		msg := boardMsg{tasks: m.board.List(), err: err}
		if found && err == nil {
			msg.note = "Deleted: " + text
		}
		return msg
	}
}

func (m *Model) setTasks(tasks []model.Task) {
	grouped := make(map[constants.Column][]model.Task, len(constants.Columns))
	for _, task := range tasks {
		grouped[task.Column] = append(grouped[task.Column], task)
	}
	m.tasks = grouped

	for _, column := range constants.Columns {
		n := len(grouped[column])
		if m.selected[column] >= n {
			m.selected[column] = n - 1
		}
		if m.selected[column] < 0 {
			m.selected[column] = 0
		}
	}
}

func (m *Model) focusedColumn() constants.Column {
	return constants.Columns[m.focus]
}

func (m *Model) selectedTask() *model.Task {
	column := m.focusedColumn()
	tasks := m.tasks[column]
	idx := m.selected[column]
	if idx < 0 || idx >= len(tasks) {
		return nil
	}
	return &tasks[idx]
}

func (m *Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Task Board"))
	b.WriteString("\n\n")

	width := minColumnWidth
	if m.width > 0 {
		if w := m.width/len(constants.Columns) - 4; w > width {
			width = w
		}
	}

	now := m.now()
	columns := make([]string, 0, len(constants.Columns))
	for i, column := range constants.Columns {
		columns = append(columns, m.renderColumn(column, i == m.focus, width, now))
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, columns...))
	b.WriteString("\n")

	if m.adding {
		fmt.Fprintf(&b, "\nNew task in %s: %s\n", m.focusedColumn().Title(), m.input.View())
	}
	if m.message != "" {
		b.WriteString("\n" + m.message + "\n")
	}

	b.WriteString("\n")
	b.WriteString(helpStyle.Render("←/→ column • ↑/↓ select • </> move • a add • d delete • q quit"))
	return b.String()
}

func (m *Model) renderColumn(column constants.Column, focused bool, width int, now time.Time) string {
	tasks := m.tasks[column]

	var b strings.Builder
	fmt.Fprintf(&b, "%s (%d)\n", column.Title(), len(tasks))
	if len(tasks) == 0 {
		b.WriteString(helpStyle.Render("empty"))
	}

	for i := range tasks {
		style := cardStyle
		if focused && i == m.selected[column] {
			style = selectedCardStyle
		}
		b.WriteString("\n")
		b.WriteString(style.Width(width).Render(m.renderCard(&tasks[i], now)))
	}

	style := columnStyle
	if focused {
		style = focusedColumnStyle
	}
	return style.Width(width + 2).Render(b.String())
}

func (m *Model) renderCard(task *model.Task, now time.Time) string {
	lines := []string{fmt.Sprintf("%s %s", priorityMark(task.Priority), task.Text)}

	if task.IsInProgress() {
		elapsed := task.Accumulated()
		if view, ok := m.timers[task.ID]; ok {
			elapsed = view.Elapsed
		}
		lines = append(lines, timerStyle.Render(format.Elapsed(elapsed)))
	} else if task.TimeSpent > 0 {
		lines = append(lines, format.HumanMillis(&task.TimeSpent))
	}

	if task.DueDate != nil && task.Column != constants.ColumnDone {
		due := format.DueDate(*task.DueDate, now)
		switch {
		case due.Overdue:
			lines = append(lines, overdueStyle.Render(due.Text))
		case due.Urgent:
			lines = append(lines, urgentStyle.Render(due.Text))
		default:
			lines = append(lines, due.Text)
		}
	}

	return strings.Join(lines, "\n")
}

func priorityMark(p constants.Priority) string {
	switch p {
	case constants.PriorityHigh:
		return "!!"
	case constants.PriorityLow:
		return "··"
	}
	return "• "
}
