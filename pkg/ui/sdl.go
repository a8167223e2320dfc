//go:build sdl2

package ui

import (
	"fmt"
	"image"
	"unsafe"

	"github.com/veandco/go-sdl2/sdl"

	"github.com/retroframe/retroframe/pkg/emulator"
	"github.com/retroframe/retroframe/pkg/logger"
	"github.com/retroframe/retroframe/pkg/media"
	"github.com/retroframe/retroframe/pkg/session"
)

// ringCapacity bounds audio backlog to roughly a quarter second.
const ringCapacity = 44100 / 2

// queueLow is the device backlog below which the ring is drained.
const queueLow = 8192

type SDL struct {
	log      *logger.Logger
	window   *sdl.Window
	renderer *sdl.Renderer
	texture  *sdl.Texture
	audio    sdl.AudioDeviceID
	pad      *sdl.GameController
	ring     *media.Ring
	chunk    []int16
	w, h     int
}

func NewSDL(title string, props emulator.Properties, scale int, log *logger.Logger) (session.Presenter, error) {
	if err := sdl.Init(sdl.INIT_VIDEO | sdl.INIT_AUDIO | sdl.INIT_EVENTS | sdl.INIT_GAMECONTROLLER); err != nil {
		return nil, fmt.Errorf("sdl init: %w", err)
	}
	if scale < 1 {
		scale = 1
	}

	window, err := sdl.CreateWindow(title,
		sdl.WINDOWPOS_CENTERED, sdl.WINDOWPOS_CENTERED,
		int32(props.Width*scale), int32(props.Height*scale), sdl.WINDOW_SHOWN)
	if err != nil {
		sdl.Quit()
		return nil, fmt.Errorf("create window: %w", err)
	}
	renderer, err := sdl.CreateRenderer(window, -1, sdl.RENDERER_ACCELERATED|sdl.RENDERER_PRESENTVSYNC)
	if err != nil {
		window.Destroy()
		sdl.Quit()
		return nil, fmt.Errorf("create renderer: %w", err)
	}
	texture, err := renderer.CreateTexture(sdl.PIXELFORMAT_ABGR8888, sdl.TEXTUREACCESS_STREAMING,
		int32(props.Width), int32(props.Height))
	if err != nil {
		renderer.Destroy()
		window.Destroy()
		sdl.Quit()
		return nil, fmt.Errorf("create texture: %w", err)
	}

	spec := sdl.AudioSpec{
		Freq:     int32(props.SampleRate),
		Format:   sdl.AUDIO_S16LSB,
		Channels: 2,
		Samples:  2048,
	}
	audio, err := sdl.OpenAudioDevice("", false, &spec, nil, 0)
	if err != nil {
		log.Warn().Err(err).Msg("no audio device, playing silently")
	} else {
		sdl.PauseAudioDevice(audio, false)
	}

	s := &SDL{
		log:      log.Extend(log.With().Str("m", "sdl")),
		window:   window,
		renderer: renderer,
		texture:  texture,
		audio:    audio,
		ring:     media.NewRing(ringCapacity),
		chunk:    make([]int16, 2048),
		w:        props.Width,
		h:        props.Height,
	}
	if sdl.NumJoysticks() > 0 && sdl.IsGameController(0) {
		s.pad = sdl.GameControllerOpen(0)
	}
	return s, nil
}

func (s *SDL) Present(frame *image.RGBA) error {
	if frame.Bounds().Dx() != s.w || frame.Bounds().Dy() != s.h {
		s.resize(frame.Bounds().Dx(), frame.Bounds().Dy())
	}
	if err := s.texture.Update(nil, unsafe.Pointer(&frame.Pix[0]), frame.Stride); err != nil {
		return err
	}
	if err := s.renderer.Copy(s.texture, nil, nil); err != nil {
		return err
	}
	s.renderer.Present()
	s.drainAudio()
	return nil
}

// resize follows a backend that changes its output resolution.
func (s *SDL) resize(w, h int) {
	if t, err := s.renderer.CreateTexture(sdl.PIXELFORMAT_ABGR8888, sdl.TEXTUREACCESS_STREAMING,
		int32(w), int32(h)); err == nil {
		s.texture.Destroy()
		s.texture = t
		s.w, s.h = w, h
	}
}

// PlayAudio feeds the ring; the device is topped up from the render
// thread so a slow device drops the oldest samples instead of blocking
// the stepping loop.
func (s *SDL) PlayAudio(samples []int16) {
	s.ring.Write(samples)
}

func (s *SDL) drainAudio() {
	if s.audio == 0 {
		return
	}
	for sdl.GetQueuedAudioSize(s.audio) < queueLow {
		n := s.ring.Read(s.chunk)
		if n == 0 {
			return
		}
		buf := unsafe.Slice((*byte)(unsafe.Pointer(&s.chunk[0])), n*2)
		if err := sdl.QueueAudio(s.audio, buf); err != nil {
			return
		}
	}
}

var sdlKeymap = map[sdl.Scancode]emulator.Button{
	sdl.SCANCODE_UP:     emulator.BtnUp,
	sdl.SCANCODE_DOWN:   emulator.BtnDown,
	sdl.SCANCODE_LEFT:   emulator.BtnLeft,
	sdl.SCANCODE_RIGHT:  emulator.BtnRight,
	sdl.SCANCODE_X:      emulator.BtnA,
	sdl.SCANCODE_Z:      emulator.BtnB,
	sdl.SCANCODE_S:      emulator.BtnX,
	sdl.SCANCODE_A:      emulator.BtnY,
	sdl.SCANCODE_Q:      emulator.BtnL,
	sdl.SCANCODE_W:      emulator.BtnR,
	sdl.SCANCODE_1:      emulator.BtnL2,
	sdl.SCANCODE_2:      emulator.BtnR2,
	sdl.SCANCODE_RETURN: emulator.BtnStart,
	sdl.SCANCODE_RSHIFT: emulator.BtnSelect,
}

var padKeymap = map[sdl.GameControllerButton]emulator.Button{
	sdl.CONTROLLER_BUTTON_DPAD_UP:       emulator.BtnUp,
	sdl.CONTROLLER_BUTTON_DPAD_DOWN:     emulator.BtnDown,
	sdl.CONTROLLER_BUTTON_DPAD_LEFT:     emulator.BtnLeft,
	sdl.CONTROLLER_BUTTON_DPAD_RIGHT:    emulator.BtnRight,
	sdl.CONTROLLER_BUTTON_A:             emulator.BtnA,
	sdl.CONTROLLER_BUTTON_B:             emulator.BtnB,
	sdl.CONTROLLER_BUTTON_X:             emulator.BtnX,
	sdl.CONTROLLER_BUTTON_Y:             emulator.BtnY,
	sdl.CONTROLLER_BUTTON_LEFTSHOULDER:  emulator.BtnL,
	sdl.CONTROLLER_BUTTON_RIGHTSHOULDER: emulator.BtnR,
	sdl.CONTROLLER_BUTTON_START:         emulator.BtnStart,
	sdl.CONTROLLER_BUTTON_BACK:          emulator.BtnSelect,
}

const deadzone = 8000

func (s *SDL) Poll() (emulator.InputState, bool, bool) {
	var quit, pause bool
	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		switch e := event.(type) {
		case *sdl.QuitEvent:
			quit = true
		case *sdl.KeyboardEvent:
			if e.Type == sdl.KEYDOWN && e.Repeat == 0 {
				switch e.Keysym.Scancode {
				case sdl.SCANCODE_ESCAPE:
					quit = true
				case sdl.SCANCODE_P:
					pause = true
				}
			}
		}
	}

	var kb emulator.InputState
	keys := sdl.GetKeyboardState()
	for sc, b := range sdlKeymap {
		if keys[sc] != 0 {
			kb.Set(b, true)
		}
	}

	var pad emulator.InputState
	if s.pad != nil {
		for btn, b := range padKeymap {
			if s.pad.Button(btn) != 0 {
				pad.Set(b, true)
			}
		}
		lx := s.pad.Axis(sdl.CONTROLLER_AXIS_LEFTX)
		ly := s.pad.Axis(sdl.CONTROLLER_AXIS_LEFTY)
		pad.Axes[emulator.AxisLeftX] = lx
		pad.Axes[emulator.AxisLeftY] = ly
		pad.Axes[emulator.AxisCX] = s.pad.Axis(sdl.CONTROLLER_AXIS_RIGHTX)
		pad.Axes[emulator.AxisCY] = s.pad.Axis(sdl.CONTROLLER_AXIS_RIGHTY)
		pad.Triggers[0] = uint8(s.pad.Axis(sdl.CONTROLLER_AXIS_TRIGGERLEFT) >> 7)
		pad.Triggers[1] = uint8(s.pad.Axis(sdl.CONTROLLER_AXIS_TRIGGERRIGHT) >> 7)
		// The left stick doubles as a d-pad outside the deadzone.
		if lx < -deadzone {
			pad.Set(emulator.BtnLeft, true)
		} else if lx > deadzone {
			pad.Set(emulator.BtnRight, true)
		}
		if ly < -deadzone {
			pad.Set(emulator.BtnUp, true)
		} else if ly > deadzone {
			pad.Set(emulator.BtnDown, true)
		}
	}

	return emulator.Merge(kb, pad), quit, pause
}

func (s *SDL) Close() error {
	if s.pad != nil {
		s.pad.Close()
	}
	if s.audio != 0 {
		sdl.CloseAudioDevice(s.audio)
	}
	s.texture.Destroy()
	s.renderer.Destroy()
	s.window.Destroy()
	sdl.Quit()
	return nil
}
