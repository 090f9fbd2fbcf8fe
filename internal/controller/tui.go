package controller

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	m "gooze.dev/pkg/covmut/internal/model"
)

const recentLines = 8

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	currentStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("212"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

// TUI implements UI using Bubble Tea for the run progress. Report modes fall
// back to the plain renderer.
type TUI struct {
	*SimpleUI

	output  io.Writer
	mu      sync.Mutex
	program *tea.Program
	done    chan struct{}
}

// NewTUI creates a new TUI.
func NewTUI(cmd *cobra.Command) *TUI {
	return &TUI{SimpleUI: NewSimpleUI(cmd), output: cmd.OutOrStdout()}
}

// Start launches the progress program in run mode.
func (t *TUI) Start(ctx context.Context, options ...StartOption) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if newStartConfig(options...).mode != ModeRun {
		return t.SimpleUI.Start(ctx, options...)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.program != nil {
		return fmt.Errorf("ui already started")
	}

	// Input stays with the terminal so Ctrl+C reaches the process as SIGINT.
	t.program = tea.NewProgram(newRunModel(),
		tea.WithOutput(t.output),
		tea.WithInput(nil),
		tea.WithoutSignalHandler(),
	)
	t.done = make(chan struct{})

	go func(program *tea.Program, done chan<- struct{}) {
		defer close(done)

		if _, err := program.Run(); err != nil {
			_, _ = fmt.Fprintf(t.output, "ui error: %v\n", err)
		}
	}(t.program, t.done)

	return nil
}

// Close stops the program and waits for its final render.
func (t *TUI) Close(_ context.Context) {
	t.mu.Lock()
	program, done := t.program, t.done
	t.program, t.done = nil, nil
	t.mu.Unlock()

	if program == nil {
		return
	}

	program.Quit()
	<-done
}

func (t *TUI) send(msg tea.Msg) bool {
	t.mu.Lock()
	program := t.program
	t.mu.Unlock()

	if program == nil {
		return false
	}

	program.Send(msg)

	return true
}

// DisplayQueueInfo implements UI.
func (t *TUI) DisplayQueueInfo(ctx context.Context, total, completed, remaining int) {
	if !t.send(queueInfoMsg{total: total, completed: completed, remaining: remaining}) {
		t.SimpleUI.DisplayQueueInfo(ctx, total, completed, remaining)
	}
}

// DisplayClassStarted implements UI.
func (t *TUI) DisplayClassStarted(ctx context.Context, position, total int, class m.ClassID) {
	if !t.send(classStartedMsg{position: position, total: total, class: class}) {
		t.SimpleUI.DisplayClassStarted(ctx, position, total, class)
	}
}

// DisplayCoverageOutcome implements UI.
func (t *TUI) DisplayCoverageOutcome(ctx context.Context, class m.ClassID, outcome m.Outcome[m.CoverageRecord]) {
	if !t.send(logLineMsg(coverageLine(outcome))) {
		t.SimpleUI.DisplayCoverageOutcome(ctx, class, outcome)
	}
}

// DisplayMutationOutcome implements UI.
func (t *TUI) DisplayMutationOutcome(ctx context.Context, class m.ClassID, outcome m.Outcome[m.MutationRecord]) {
	if !t.send(logLineMsg(mutationLine(outcome))) {
		t.SimpleUI.DisplayMutationOutcome(ctx, class, outcome)
	}
}

// DisplayClassError implements UI.
func (t *TUI) DisplayClassError(ctx context.Context, class m.ClassID, err error) {
	if !t.send(logLineMsg(classErrorLine(class, err))) {
		t.SimpleUI.DisplayClassError(ctx, class, err)
	}
}

// DisplayRunSummary implements UI.
func (t *TUI) DisplayRunSummary(ctx context.Context, summary m.RunSummary, layout m.OutputLayout) {
	if !t.send(runSummaryMsg{lines: runSummaryLines(summary, layout)}) {
		t.SimpleUI.DisplayRunSummary(ctx, summary, layout)
	}
}

type (
	queueInfoMsg struct {
		total     int
		completed int
		remaining int
	}
	classStartedMsg struct {
		position int
		total    int
		class    m.ClassID
	}
	logLineMsg    line
	runSummaryMsg struct {
		lines []string
	}
)

// runModel renders the batch progress.
type runModel struct {
	bar     progress.Model
	header  string
	current string
	percent float64
	recent  []line
	summary []string
}

func newRunModel() runModel {
	return runModel{
		bar: progress.New(progress.WithDefaultGradient(), progress.WithWidth(50)),
	}
}

func (rm runModel) Init() tea.Cmd {
	return nil
}

func (rm runModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		rm.bar.Width = min(max(msg.Width-4, 10), 80)

	case queueInfoMsg:
		rm.header = queueLine(msg.total, msg.completed, msg.remaining)
		if msg.total > 0 {
			rm.percent = float64(msg.total-msg.remaining) / float64(msg.total)
		}

	case classStartedMsg:
		rm.current = classLine(msg.position, msg.total, msg.class)
		rm.percent = float64(msg.position-1) / float64(msg.total)

	case logLineMsg:
		rm.recent = append(rm.recent, line(msg))
		if len(rm.recent) > recentLines {
			rm.recent = rm.recent[len(rm.recent)-recentLines:]
		}

	case runSummaryMsg:
		rm.summary = msg.lines
		rm.current = ""
		rm.percent = 1

		return rm, tea.Quit
	}

	return rm, nil
}

func (rm runModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("covmut") + "\n")

	if rm.header != "" {
		b.WriteString(mutedStyle.Render(rm.header) + "\n")
	}

	b.WriteString("\n" + rm.bar.ViewAs(rm.percent) + "\n\n")

	if rm.current != "" {
		b.WriteString(currentStyle.Render(rm.current) + "\n")
	}

	for _, l := range rm.recent {
		b.WriteString(styleFor(l.kind).Render(l.text) + "\n")
	}

	if len(rm.summary) > 0 {
		b.WriteString("\n")

		for _, text := range rm.summary {
			b.WriteString(text + "\n")
		}
	}

	return b.String()
}

func styleFor(kind m.OutcomeKind) lipgloss.Style {
	switch kind {
	case m.OutcomeSuccess:
		return successStyle
	case m.OutcomeSkipped:
		return warningStyle
	default:
		return errorStyle
	}
}
