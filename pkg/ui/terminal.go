package ui

import (
	"fmt"
	"image"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/retroframe/retroframe/pkg/emulator"
	"github.com/retroframe/retroframe/pkg/logger"
	"github.com/retroframe/retroframe/pkg/session"
)

// keyHold is how long a terminal key press counts as held. Terminals
// deliver repeats, not key-up events, so held state has to decay.
const keyHold = 150 * time.Millisecond

type Terminal struct {
	log    *logger.Logger
	screen tcell.Screen
	events chan tcell.Event
	done   chan struct{}

	held map[emulator.Button]time.Time
}

func NewTerminal(_ emulator.Properties, log *logger.Logger) (session.Presenter, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, fmt.Errorf("terminal init: %w", err)
	}
	if err := screen.Init(); err != nil {
		return nil, fmt.Errorf("terminal init: %w", err)
	}
	screen.HideCursor()

	t := &Terminal{
		log:    log.Extend(log.With().Str("m", "term")),
		screen: screen,
		events: make(chan tcell.Event, 16),
		done:   make(chan struct{}),
		held:   make(map[emulator.Button]time.Time),
	}
	go t.screen.ChannelEvents(t.events, t.done)
	return t, nil
}

// Present draws the frame with half-block cells, two pixels per cell.
func (t *Terminal) Present(frame *image.RGBA) error {
	tw, th := t.screen.Size()
	if tw <= 0 || th <= 0 {
		return nil
	}
	fw, fh := frame.Bounds().Dx(), frame.Bounds().Dy()

	sx := (fw + tw - 1) / tw
	sy := (fh + th*2 - 1) / (th * 2)
	step := sx
	if sy > step {
		step = sy
	}
	if step < 1 {
		step = 1
	}

	for cy := 0; cy*2*step < fh; cy++ {
		for cx := 0; cx*step < fw; cx++ {
			top := sample(frame, cx*step, cy*2*step, step)
			bot := sample(frame, cx*step, (cy*2+1)*step, step)
			style := tcell.StyleDefault.
				Foreground(tcell.NewRGBColor(top[0], top[1], top[2])).
				Background(tcell.NewRGBColor(bot[0], bot[1], bot[2]))
			t.screen.SetContent(cx, cy, '▀', nil, style)
		}
	}
	t.screen.Show()
	return nil
}

// sample averages a step-sized block starting at (x, y).
func sample(img *image.RGBA, x, y, step int) [3]int32 {
	b := img.Bounds()
	var r, g, bl, n int32
	for dy := 0; dy < step; dy++ {
		for dx := 0; dx < step; dx++ {
			px, py := x+dx, y+dy
			if px >= b.Dx() || py >= b.Dy() {
				continue
			}
			i := py*img.Stride + px*4
			r += int32(img.Pix[i])
			g += int32(img.Pix[i+1])
			bl += int32(img.Pix[i+2])
			n++
		}
	}
	if n == 0 {
		return [3]int32{}
	}
	return [3]int32{r / n, g / n, bl / n}
}

// Terminal output has no audio device.
func (t *Terminal) PlayAudio([]int16) {}

var termKeymap = map[tcell.Key]emulator.Button{
	tcell.KeyUp:    emulator.BtnUp,
	tcell.KeyDown:  emulator.BtnDown,
	tcell.KeyLeft:  emulator.BtnLeft,
	tcell.KeyRight: emulator.BtnRight,
	tcell.KeyEnter: emulator.BtnStart,
	tcell.KeyTab:   emulator.BtnSelect,
}

var termRuneKeymap = map[rune]emulator.Button{
	'x': emulator.BtnA,
	'z': emulator.BtnB,
	's': emulator.BtnX,
	'a': emulator.BtnY,
	'q': emulator.BtnL,
	'w': emulator.BtnR,
}

func (t *Terminal) Poll() (emulator.InputState, bool, bool) {
	var quit, pause bool
	for {
		select {
		case ev := <-t.events:
			switch e := ev.(type) {
			case *tcell.EventResize:
				t.screen.Sync()
			case *tcell.EventKey:
				switch {
				case e.Key() == tcell.KeyEscape || e.Key() == tcell.KeyCtrlC:
					quit = true
				case e.Key() == tcell.KeyRune && e.Rune() == 'p':
					pause = true
				case e.Key() == tcell.KeyRune:
					if b, ok := termRuneKeymap[e.Rune()]; ok {
						t.held[b] = time.Now()
					}
				default:
					if b, ok := termKeymap[e.Key()]; ok {
						t.held[b] = time.Now()
					}
				}
			}
		default:
			var in emulator.InputState
			now := time.Now()
			for b, at := range t.held {
				if now.Sub(at) <= keyHold {
					in.Set(b, true)
				} else {
					delete(t.held, b)
				}
			}
			return in, quit, pause
		}
	}
}

func (t *Terminal) Close() error {
	close(t.done)
	t.screen.Fini()
	return nil
}
