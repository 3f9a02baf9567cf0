package cli

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	apperrors "github.com/matzehuels/glitchimage/pkg/errors"
	"github.com/matzehuels/glitchimage/pkg/glitch"
	"github.com/matzehuels/glitchimage/pkg/sink"
)

// playCommand creates the play command, which animates a source in the terminal.
func (c *CLI) playCommand() *cobra.Command {
	var flags glitchFlags

	cmd := &cobra.Command{
		Use:   "play <src>",
		Short: "Play a glitch animation in the terminal",
		Long: `Play a glitch animation in the terminal using half-block true-color cells.

Each terminal row shows two pixel rows. Use --columns to scale wide images
down, or --auto --width to fit the surface before rendering.

Keys: space pauses, q quits.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			opts := flags.options(cmd, args[0], &cfg)
			if err := opts.ValidateAndSetDefaults(); err != nil {
				return err
			}
			runner, err := c.newRunner(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer runner.Close()

			canvas := glitch.NewCanvas(0, 0)
			sched := glitch.NewManualScheduler()
			opts.Logger = c.Logger
			rd, err := glitch.New(opts.RendererConfig(canvas, sched, runner.Loader(opts)))
			if err != nil {
				return err
			}

			spin := newSpinnerWithContext(cmd.Context(), "Loading "+displayName(opts.Source))
			spin.Start()
			if err := rd.Initialize(cmd.Context()); err != nil {
				spin.StopWithError(apperrors.UserMessage(err))
				return err
			}
			spin.Stop()
			defer rd.Stop()

			m := newPlayModel(rd, sched, canvas, opts.FPS, opts.Columns)
			_, err = tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(cmd.Context())).Run()
			return err
		},
	}

	flags.register(cmd)
	return cmd
}

// =============================================================================
// playModel - terminal animation driven by tea.Tick
// =============================================================================

// frameMsg is delivered once per frame interval.
type frameMsg time.Time

// playModel renders one glitch frame per tick. Each tick steps a manual
// scheduler, so the renderer sees the terminal's frame clock.
type playModel struct {
	renderer *glitch.Renderer
	sched    *glitch.ManualScheduler
	canvas   *glitch.Canvas
	ansi     sink.ANSI

	interval time.Duration
	elapsed  float64
	paused   bool
	view     string
}

func newPlayModel(rd *glitch.Renderer, sched *glitch.ManualScheduler, canvas *glitch.Canvas, fps, columns int) playModel {
	return playModel{
		renderer: rd,
		sched:    sched,
		canvas:   canvas,
		ansi:     sink.ANSI{Columns: columns},
		interval: time.Second / time.Duration(fps),
	}
}

func (m playModel) tick() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg { return frameMsg(t) })
}

func (m playModel) Init() tea.Cmd {
	return m.tick()
}

func (m playModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.renderer.Stop()
			return m, tea.Quit
		case " ":
			m.paused = !m.paused
		}
	case frameMsg:
		if m.paused {
			return m, m.tick()
		}
		if m.sched.Step(m.elapsed) == 0 {
			return m, tea.Quit
		}
		m.elapsed += float64(m.interval) / float64(time.Millisecond)
		m.view = m.ansi.Render(m.canvas.Snapshot())
		return m, m.tick()
	}
	return m, nil
}

func (m playModel) View() string {
	var b strings.Builder
	b.WriteString(m.view)
	b.WriteString("\n")

	status := fmt.Sprintf("frame %d · rerolls %d", m.renderer.Frames(), m.renderer.Rerolls())
	if m.paused {
		status += " · " + StyleWarning.Render("paused")
	}
	b.WriteString(StyleDim.Render(status + " · space pause · q quit"))
	return b.String()
}
