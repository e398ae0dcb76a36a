package render

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/valerio/go-jeebie/jeebie"
	"github.com/valerio/go-jeebie/jeebie/input"
	"github.com/valerio/go-jeebie/jeebie/input/action"
)

const (
	width     = 160
	height    = 144
	scaleX    = 2
	scaleY    = 1
	frameTime = time.Second / 60

	// keyPressDuration is how long a terminal keystroke is treated as "held".
	// Terminals don't deliver key-up events, so we synthesize a release
	// shortly after every press instead of latching the button forever.
	keyPressDuration = 100 * time.Millisecond
)

var shadeChars = []rune{'█', '▓', '▒', '░'}

// tcellKeyNames maps the named (non-rune) tcell keys this renderer cares
// about to the string keys used by input.DefaultKeyMap.
var tcellKeyNames = map[tcell.Key]string{
	tcell.KeyEnter:  "Enter",
	tcell.KeyUp:     "Up",
	tcell.KeyDown:   "Down",
	tcell.KeyLeft:   "Left",
	tcell.KeyRight:  "Right",
	tcell.KeyEscape: "Escape",
}

type TerminalRenderer struct {
	screen   tcell.Screen
	emulator jeebie.Emulator
	running  bool
}

func NewTerminalRenderer(emu jeebie.Emulator) (*TerminalRenderer, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize terminal: %v", err)
	}

	if err := screen.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize terminal: %v", err)
	}

	return &TerminalRenderer{
		screen:   screen,
		emulator: emu,
		running:  true,
	}, nil
}

func (t *TerminalRenderer) Run() error {
	defer func() {
		slog.Info("Finishing terminal")
		t.screen.Fini()
	}()

	t.screen.SetStyle(tcell.StyleDefault.Background(tcell.ColorBlack).Foreground(tcell.ColorWhite))
	t.screen.Clear()

	go t.handleInput()

	ticker := time.NewTicker(frameTime)
	defer ticker.Stop()

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)

	for t.running {
		select {
		case <-ticker.C:
			if err := t.emulator.RunUntilFrame(); err != nil {
				return err
			}
			t.render()
			t.screen.Show()
		case <-signals:
			t.running = false
			slog.Info("Received signal to stop")
			return nil
		}
	}

	return nil
}

func (t *TerminalRenderer) handleInput() {
	for t.running {
		ev := t.screen.PollEvent()
		switch ev := ev.(type) {
		case *tcell.EventKey:
			t.dispatchKey(ev)
		case *tcell.EventResize:
			t.screen.Sync()
		}
	}
}

func (t *TerminalRenderer) dispatchKey(ev *tcell.EventKey) {
	key, ok := tcellKeyNames[ev.Key()]
	if !ok && ev.Key() == tcell.KeyRune {
		key = string(ev.Rune())
	}

	act, ok := input.GetDefaultMapping(key)
	if !ok {
		return
	}

	if act == action.EmulatorQuit {
		t.running = false
		return
	}

	t.emulator.HandleAction(act, true)
	go func() {
		time.Sleep(keyPressDuration)
		t.emulator.HandleAction(act, false)
	}()
}

func (t *TerminalRenderer) render() {
	fb := t.emulator.GetCurrentFrame()
	frame := fb.ToSlice()

	t.screen.Clear()

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			pixel := frame[y*width+x]
			brightness := uint32(pixel & 0xFF)
			level := brightness / 64
			if level > 3 {
				level = 3
			}
			style := tcell.StyleDefault.Foreground(tcell.ColorWhite)
			char := shadeChars[level]
			screenX := x * scaleX
			screenY := y * scaleY
			for sx := 0; sx < scaleX; sx++ {
				t.screen.SetContent(screenX+sx, screenY, char, nil, style)
			}
		}
	}
}
