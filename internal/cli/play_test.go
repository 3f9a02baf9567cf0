package cli

import (
	"context"
	"image"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/matzehuels/glitchimage/pkg/glitch"
)

func newTestPlayModel(t *testing.T) (playModel, *glitch.Renderer) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	for i := range img.Pix {
		img.Pix[i] = 0xff
	}
	canvas := glitch.NewCanvas(0, 0)
	sched := glitch.NewManualScheduler()
	rd, err := glitch.New(glitch.Config{
		Surface:      canvas,
		Source:       "test.png",
		DisableNoise: true,
		Loader: glitch.LoaderFunc(func(context.Context, string) (image.Image, error) {
			return img, nil
		}),
		Scheduler: sched,
		Random:    glitch.NewSource(3),
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := rd.Initialize(context.Background()); err != nil {
		t.Fatal(err)
	}
	return newPlayModel(rd, sched, canvas, 20, 0), rd
}

func step(m playModel, msg tea.Msg) (playModel, tea.Cmd) {
	next, cmd := m.Update(msg)
	return next.(playModel), cmd
}

func TestPlayModelRendersFrames(t *testing.T) {
	m, rd := newTestPlayModel(t)
	defer rd.Stop()

	if m.interval != 50*time.Millisecond {
		t.Errorf("interval = %v, want 50ms at 20fps", m.interval)
	}
	if m.Init() == nil {
		t.Fatal("Init should schedule the first tick")
	}

	for range 3 {
		var cmd tea.Cmd
		m, cmd = step(m, frameMsg(time.Now()))
		if cmd == nil {
			t.Fatal("frame should schedule the next tick")
		}
	}

	if rd.Frames() != 3 {
		t.Errorf("renderer frames = %d, want 3", rd.Frames())
	}
	if m.elapsed != 150 {
		t.Errorf("elapsed = %v, want 150ms", m.elapsed)
	}
	if !strings.Contains(m.view, "▀") {
		t.Error("view should contain half-block cells")
	}
	if !strings.Contains(m.View(), "frame 3") {
		t.Errorf("status line missing frame count: %q", m.View())
	}
}

func TestPlayModelPause(t *testing.T) {
	m, rd := newTestPlayModel(t)
	defer rd.Stop()

	m, _ = step(m, tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
	if !m.paused {
		t.Fatal("space should pause")
	}
	m, cmd := step(m, frameMsg(time.Now()))
	if cmd == nil {
		t.Fatal("paused model should keep ticking")
	}
	if rd.Frames() != 0 {
		t.Errorf("paused model rendered %d frames", rd.Frames())
	}
	if !strings.Contains(m.View(), "paused") {
		t.Error("status line should show paused")
	}
}

func TestPlayModelQuitStopsRenderer(t *testing.T) {
	m, rd := newTestPlayModel(t)

	_, cmd := step(m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	if cmd == nil {
		t.Fatal("q should quit")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q should return tea.Quit")
	}
	if rd.Status() != glitch.StatusStopped {
		t.Errorf("status = %v, want stopped", rd.Status())
	}
	if _, cmd := step(m, frameMsg(time.Now())); cmd == nil {
		t.Error("a stopped renderer should end the program")
	} else if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("a stopped renderer should return tea.Quit")
	}
}

func TestPlayModelColumns(t *testing.T) {
	m, rd := newTestPlayModel(t)
	defer rd.Stop()
	m.ansi.Columns = 2

	m, _ = step(m, frameMsg(time.Now()))
	lines := strings.Split(m.view, "\n")
	if len(lines) == 0 || strings.Count(lines[0], "▀") != 2 {
		t.Errorf("view with 2 columns = %q", m.view)
	}
}
