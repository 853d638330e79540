package tui

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/auditrag/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/auditrag/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/auditrag/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/auditrag/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/auditrag/internal/core/domain"
	"github.com/custodia-labs/auditrag/internal/core/ports/driving"
)

const maxBarWidth = 60

// App is the analysis progress view following the Elm architecture.
// It implements tea.Model for use with Bubbletea.
type App struct {
	// ports provides access to core services via driving ports.
	ports *Ports

	// ctx bounds the analysis; cancel stops it on user request.
	ctx    context.Context
	cancel context.CancelFunc

	uri   string
	opts  driving.AnalyzeOptions
	total int

	styles  *styles.Styles
	keymap  *keymap.KeyMap
	status  *status.Bar
	spinner spinner.Model
	bar     progress.Model

	// events carries progress from the analysis goroutine. It is closed
	// when the analysis returns.
	events chan domain.ProgressEvent

	now     func() time.Time
	started time.Time

	last     domain.ProgressEvent
	question string
	run      *domain.Run
	err      error
	done     bool
	width    int
}

// Ensure App implements tea.Model.
var _ tea.Model = (*App)(nil)

// NewApp creates a progress view that analyses the report at uri.
func NewApp(ports *Ports, uri string, opts driving.AnalyzeOptions) (*App, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}

	total := len(opts.Questions)
	if opts.Questions == nil {
		total = len(ports.Analysis.Questions())
	}

	s := styles.DefaultStyles()
	km := keymap.DefaultKeyMap()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = s.Stage

	ctx, cancel := context.WithCancel(context.Background())

	return &App{
		ports:   ports,
		ctx:     ctx,
		cancel:  cancel,
		uri:     uri,
		opts:    opts,
		total:   total,
		styles:  s,
		keymap:  km,
		status:  status.NewBar(s, km),
		spinner: sp,
		bar:     progress.New(progress.WithDefaultGradient(), progress.WithWidth(maxBarWidth)),
		events:  make(chan domain.ProgressEvent, 16),
		now:     time.Now,
	}, nil
}

// WithContext sets the parent context of the analysis.
func (a *App) WithContext(ctx context.Context) *App {
	a.cancel()
	a.ctx, a.cancel = context.WithCancel(ctx)
	return a
}

// Init implements tea.Model.
// It starts the analysis and the spinner.
func (a *App) Init() tea.Cmd {
	a.started = a.now()
	return tea.Batch(
		tea.SetWindowTitle("auditrag - "+filepath.Base(a.uri)),
		a.spinner.Tick,
		a.analyze(),
		a.waitForProgress(),
	)
}

// analyze runs the pipeline and reports its outcome.
func (a *App) analyze() tea.Cmd {
	ctx := a.ctx
	events := a.events
	opts := a.opts
	forward := opts.OnProgress
	opts.OnProgress = func(ev domain.ProgressEvent) {
		if forward != nil {
			forward(ev)
		}
		select {
		case events <- ev:
		case <-ctx.Done():
		}
	}

	return func() tea.Msg {
		defer close(events)
		run, err := a.ports.Analysis.Analyze(ctx, a.uri, opts)
		return messages.RunCompleted{Run: run, Err: err}
	}
}

// waitForProgress delivers the next progress event.
func (a *App) waitForProgress() tea.Cmd {
	events := a.events
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return nil
		}
		return messages.Progress{Event: ev}
	}
}

// Update implements tea.Model.
// It handles messages and updates the model state.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.bar.Width = min(max(msg.Width-4, 10), maxBarWidth)
		a.status.SetWidth(msg.Width)
		return a, nil

	case tea.KeyMsg:
		k := msg.String()
		if !keymap.Matches(k, a.keymap.Quit) && !keymap.Matches(k, a.keymap.Cancel) {
			return a, nil
		}
		if a.done {
			return a, tea.Quit
		}
		a.cancel()
		a.status.SetState(status.StateCancelling)
		return a, nil

	case spinner.TickMsg:
		if a.done {
			return a, nil
		}
		a.status.SetElapsed(a.now().Sub(a.started))
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd

	case progress.FrameMsg:
		model, cmd := a.bar.Update(msg)
		if bar, ok := model.(progress.Model); ok {
			a.bar = bar
		}
		return a, cmd

	case messages.Progress:
		a.last = msg.Event
		if msg.Event.Kind == domain.ProgressQuestionStart {
			a.question = msg.Event.Question
		}
		cmd := a.bar.SetPercent(messages.Fraction(msg.Event, a.total))
		return a, tea.Batch(cmd, a.waitForProgress())

	case messages.RunCompleted:
		a.complete(msg)
		return a, tea.Quit
	}

	return a, nil
}

func (a *App) complete(msg messages.RunCompleted) {
	a.done = true
	a.run, a.err = msg.Run, msg.Err
	a.status.SetElapsed(a.now().Sub(a.started))

	switch {
	case a.err == nil:
		a.status.SetState(status.StateDone)
	case errors.Is(a.err, domain.ErrCancelled), errors.Is(a.err, context.Canceled):
		a.status.SetState(status.StateCancelled)
	default:
		a.status.SetState(status.StateFailed)
		if stage, ok := domain.StageOf(a.err); ok {
			a.status.SetMessage(stage.String())
		}
	}
}

// View implements tea.Model.
func (a *App) View() string {
	var b strings.Builder

	b.WriteString(a.styles.Title.Render("auditrag"))
	b.WriteString(" ")
	b.WriteString(a.styles.Muted.Render(filepath.Base(a.uri)))
	b.WriteString("\n\n")

	switch {
	case !a.done:
		b.WriteString(a.spinner.View())
		b.WriteString(" ")
		b.WriteString(a.styles.Stage.Render(messages.StageLabel(a.last)))
		b.WriteString("\n")
		if a.last.Kind == domain.ProgressQuestionStart && a.question != "" {
			b.WriteString(a.styles.Muted.Render("  " + a.question))
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(a.bar.View())
		b.WriteString("\n\n")

	case a.err != nil:
		b.WriteString(a.styles.Error.Render(a.err.Error()))
		b.WriteString("\n\n")

	default:
		b.WriteString(a.renderRun())
	}

	b.WriteString(a.status.View())
	b.WriteString("\n")
	return b.String()
}

// renderRun renders every answer in question order, then the verdict.
func (a *App) renderRun() string {
	if a.run == nil {
		return ""
	}

	answer := a.styles.Answer
	verdict := a.styles.Verdict
	if a.width > 4 {
		answer = answer.Width(a.width - 2)
		verdict = verdict.Width(a.width - 4)
	}

	var b strings.Builder
	for i, ans := range a.run.Answers {
		b.WriteString(a.styles.Question.Render(fmt.Sprintf("%d. %s", i+1, ans.Question)))
		b.WriteString("\n")
		b.WriteString(answer.Render(ans.Text))
		b.WriteString("\n\n")
	}
	b.WriteString(a.styles.Title.Render("Verdict"))
	b.WriteString("\n")
	b.WriteString(verdict.Render(a.run.Verdict()))
	b.WriteString("\n\n")
	return b.String()
}

// Done reports whether the analysis has finished.
func (a *App) Done() bool {
	return a.done
}

// Result returns the finished run, or the error that ended it.
// An analysis that never finished reports domain.ErrCancelled.
func (a *App) Result() (*domain.Run, error) {
	if !a.done {
		return nil, domain.ErrCancelled
	}
	return a.run, a.err
}

// Run analyses the report at uri behind a live progress view and returns
// the finished run once the view exits.
func Run(
	ctx context.Context,
	ports *Ports,
	uri string,
	opts driving.AnalyzeOptions,
	programOpts ...tea.ProgramOption,
) (*domain.Run, error) {
	app, err := NewApp(ports, uri, opts)
	if err != nil {
		return nil, err
	}
	app.WithContext(ctx)
	defer app.cancel()

	if _, err := tea.NewProgram(app, programOpts...).Run(); err != nil {
		return nil, fmt.Errorf("TUI error: %w", err)
	}
	return app.Result()
}
