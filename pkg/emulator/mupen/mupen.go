// Package mupen runs Nintendo 64 images on a dynamically loaded
// mupen64plus-compatible plugin set, adapting the core's callback-driven
// execution into the synchronous stepping contract.
package mupen

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"time"
	"unsafe"

	"github.com/ebitengine/purego"

	"github.com/retroframe/retroframe/pkg/config"
	"github.com/retroframe/retroframe/pkg/emulator"
	"github.com/retroframe/retroframe/pkg/logger"
	xos "github.com/retroframe/retroframe/pkg/os"
)

const (
	defaultWidth  = 640
	defaultHeight = 480
	fps           = 60.0
	sampleRate    = 44100

	// rdramSize is the expanded memory size exposed for reads/writes.
	rdramSize = 0x800000
	rdramBase = 0x80000000

	frameTimeout = 5 * time.Second
)

var frameDuration = emulator.FramePeriod(fps)

// Nintendo64 is the plugin-set backend. The execute loop runs on its
// own goroutine inside the core; StepFrame advances it exactly one frame
// and blocks until the frame-boundary callback fires.
type Nintendo64 struct {
	log  *logger.Logger
	core *coreLib
	// attach order is significant: video, audio, input, rsp
	plugins []*plugin

	rom []byte

	frameCh  chan struct{}
	execDone chan struct{}
	frameCb  uintptr // keeps the callback alive

	in     emulator.InputState
	width  int
	height int
	pixels []byte

	closed bool
}

// New discovers the plugin set, boots the core and opens the image.
// A missing library on Linux triggers one bundle fetch into the user
// cache before discovery fails for good.
func New(romPath string, conf config.Mupen, log *logger.Logger) (*Nintendo64, error) {
	rom, err := os.ReadFile(romPath)
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}

	m := &Nintendo64{
		log:      log.Extend(log.With().Str("m", "mupen")),
		rom:      rom,
		frameCh:  make(chan struct{}, 1),
		execDone: make(chan struct{}),
		width:    defaultWidth,
		height:   defaultHeight,
	}

	set, err := m.resolve(conf)
	if err != nil {
		return nil, err
	}
	if err := m.boot(set, conf); err != nil {
		m.unload()
		return nil, err
	}
	return m, nil
}

func (m *Nintendo64) resolve(conf config.Mupen) (pluginSet, error) {
	p := probe{getenv: os.Getenv, exists: xos.Exists}
	var extra []string
	if conf.Root != "" {
		extra = append(extra, conf.Root)
	}
	if conf.PluginDir != "" {
		extra = append(extra, conf.PluginDir)
	}

	set, err := p.discover(extra...)
	if err == nil {
		return set, nil
	}
	m.log.Debug().Err(err).Msg("plugin set not installed, trying the bundle cache")

	cache, ferr := fetchBundle(conf, m.log)
	if ferr != nil || cache == "" {
		return set, err
	}
	return p.discover(append(extra, cache)...)
}

func (m *Nintendo64) boot(set pluginSet, conf config.Mupen) error {
	core, err := openCore(set[roleCore])
	if err != nil {
		return err
	}
	m.core = core

	configDir := conf.ConfigDir
	if configDir == "" {
		if configDir, err = defaultConfigDir(); err != nil {
			return err
		}
	}

	if rc := core.startup(apiVersion, configDir, "", 0, 0, 0, 0); rc != errSuccess {
		return emulator.Fault("CoreStartup", fmt.Errorf("status %d", rc))
	}
	if err := core.command("ROM open", cmdRomOpen, int32(len(m.rom)), unsafe.Pointer(&m.rom[0])); err != nil {
		return emulator.Fault("ROM open", err)
	}

	kinds := [...]struct {
		role libRole
		kind int32
	}{
		{roleVideo, pluginVideo},
		{roleAudio, pluginAudio},
		{roleInput, pluginInput},
		{roleRSP, pluginRSP},
	}
	for _, k := range kinds {
		p, err := openPlugin(set[k.role], k.kind, k.role)
		if err != nil {
			return err
		}
		m.plugins = append(m.plugins, p)
		if rc := p.startup(core.handle, 0, 0); rc != errSuccess {
			return emulator.Fault("PluginStartup", fmt.Errorf("%s: status %d", k.role, rc))
		}
		if rc := core.attachPlugin(k.kind, p.handle); rc != errSuccess {
			return emulator.Fault("CoreAttachPlugin", fmt.Errorf("%s: status %d", k.role, rc))
		}
	}

	m.frameCb = purego.NewCallback(func(uint32) uintptr {
		select {
		case m.frameCh <- struct{}{}:
		default:
		}
		return 0
	})
	if err := core.command("set frame callback", cmdSetFrameCallback, 0, unsafe.Pointer(m.frameCb)); err != nil {
		return emulator.Fault("set frame callback", err)
	}

	go func() {
		defer close(m.execDone)
		// Blocks for the whole life of the emulation.
		_ = core.doCommand(cmdExecute, 0, nil)
	}()

	// Park the core, frames advance only on request.
	time.Sleep(50 * time.Millisecond)
	_ = core.doCommand(cmdPause, 0, nil)
	m.drainFrames()

	m.log.Info().Str("core", set[roleCore]).Msg("plugin set loaded")
	return nil
}

// defaultConfigDir ensures the per-user config directory exists with a
// default bindings file. An existing file is never overwritten.
func defaultConfigDir() (string, error) {
	base, err := xos.UserConfigDir(appName)
	if err != nil {
		return "", err
	}
	dir := filepath.Join(base, "mupen64plus")
	if err := xos.CheckCreateDir(dir); err != nil {
		return "", err
	}
	bindings := filepath.Join(dir, "InputAutoCfg.ini")
	if !xos.Exists(bindings) {
		if err := xos.WriteFile(bindings, []byte(defaultBindings), 0o644); err != nil {
			return "", err
		}
	}
	return dir, nil
}

const defaultBindings = `; autogenerated once, edit freely
[Keyboard]
plugged = True
plugin = 2
`

func (m *Nintendo64) drainFrames() {
	for {
		select {
		case <-m.frameCh:
		default:
			return
		}
	}
}

func (m *Nintendo64) Reset() error {
	if m.closed {
		return emulator.ErrClosed
	}
	if err := m.core.command("reset", cmdReset, 1, nil); err != nil {
		return emulator.Fault("reset", err)
	}
	return nil
}

func (m *Nintendo64) StepFrame(in emulator.InputState) (*emulator.FrameOutput, error) {
	if m.closed {
		return nil, emulator.ErrClosed
	}
	m.applyInput(in)
	m.drainFrames()
	if err := m.core.command("advance frame", cmdAdvanceFrame, 0, nil); err != nil {
		return nil, emulator.Fault("advance frame", err)
	}
	select {
	case <-m.frameCh:
	case <-m.execDone:
		return nil, emulator.Fault("advance frame", fmt.Errorf("core stopped"))
	case <-time.After(frameTimeout):
		return nil, emulator.Fault("advance frame", fmt.Errorf("no frame callback within %v", frameTimeout))
	}
	return &emulator.FrameOutput{
		Video:    m.readScreen(),
		Audio:    nil, // the native audio plugin owns the device
		Duration: frameDuration,
	}, nil
}

// readScreen pulls the rendered frame out of the video plugin after the
// boundary callback, so the callback itself never re-enters the core.
func (m *Nintendo64) readScreen() *image.RGBA {
	var size int32
	if err := m.core.command("video size", cmdStateQuery, stateVideoSize, unsafe.Pointer(&size)); err == nil && size != 0 {
		m.width, m.height = int(size>>16), int(size&0xFFFF)
	}
	need := m.width * m.height * 3
	if cap(m.pixels) < need {
		m.pixels = make([]byte, need)
	}
	m.pixels = m.pixels[:need]

	img := image.NewRGBA(image.Rect(0, 0, m.width, m.height))
	if err := m.core.command("read screen", cmdReadScreen, 0, unsafe.Pointer(&m.pixels[0])); err != nil {
		return img
	}
	// RGB rows arrive bottom-up.
	for y := 0; y < m.height; y++ {
		src := m.pixels[(m.height-1-y)*m.width*3:]
		dst := img.Pix[y*img.Stride:]
		for x := 0; x < m.width; x++ {
			dst[x*4+0] = src[x*3+0]
			dst[x*4+1] = src[x*3+1]
			dst[x*4+2] = src[x*3+2]
			dst[x*4+3] = 0xFF
		}
	}
	return img
}

// keymap matches the default keyboard bindings of the input plugin.
var keymap = map[emulator.Button]int32{
	emulator.BtnUp:     1073741906,
	emulator.BtnDown:   1073741905,
	emulator.BtnLeft:   1073741904,
	emulator.BtnRight:  1073741903,
	emulator.BtnA:      'x',
	emulator.BtnB:      'c',
	emulator.BtnL2:     'z', // Z trigger
	emulator.BtnL:      'a',
	emulator.BtnR:      's',
	emulator.BtnStart:  13,
	emulator.BtnSelect: 9,
}

// applyInput forwards button transitions as key events to the input
// plugin. The same state holds for every poll within the frame.
func (m *Nintendo64) applyInput(in emulator.InputState) {
	for b, key := range keymap {
		was, is := m.in.Pressed(b), in.Pressed(b)
		if was == is {
			continue
		}
		cmd := int32(cmdKeyUp)
		if is {
			cmd = cmdKeyDown
		}
		_ = m.core.doCommand(cmd, key, nil)
	}
	m.in = in
}

func (m *Nintendo64) StepCycles(uint64) error {
	if m.closed {
		return emulator.ErrClosed
	}
	return emulator.ErrUnsupportedOperation
}

func (m *Nintendo64) ReadMemory(addr uint, n int) ([]byte, error) {
	if m.closed {
		return nil, emulator.ErrClosed
	}
	if n < 0 || addr+uint(n) > rdramSize {
		return nil, &emulator.ValidationError{
			Field:  "address range",
			Detail: fmt.Sprintf("0x%X+%d exceeds 0x%X", addr, n, rdramSize),
		}
	}
	out := make([]byte, n)
	for i := range out {
		out[i] = m.core.memRead8(uint32(rdramBase + addr + uint(i)))
	}
	return out, nil
}

func (m *Nintendo64) WriteMemory(addr uint, data []byte) error {
	if m.closed {
		return emulator.ErrClosed
	}
	if addr+uint(len(data)) > rdramSize {
		return &emulator.ValidationError{
			Field:  "address range",
			Detail: fmt.Sprintf("0x%X+%d exceeds 0x%X", addr, len(data), rdramSize),
		}
	}
	for i, b := range data {
		m.core.memWrite8(uint32(rdramBase+addr+uint(i)), b)
	}
	return nil
}

func (m *Nintendo64) PersistState(path string) error {
	if m.closed {
		return emulator.ErrClosed
	}
	// A nil path saves into the core's current slot.
	var ptr unsafe.Pointer
	if path != "" {
		cpath := append([]byte(path), 0)
		ptr = unsafe.Pointer(&cpath[0])
	}
	if err := m.core.command("state save", cmdStateSave, 1, ptr); err != nil {
		return err
	}
	return nil
}

func (m *Nintendo64) RestoreState(path string) error {
	if m.closed {
		return emulator.ErrClosed
	}
	if !xos.Exists(path) {
		return nil
	}
	cpath := append([]byte(path), 0)
	return m.core.command("state load", cmdStateLoad, 0, unsafe.Pointer(&cpath[0]))
}

func (m *Nintendo64) Caps() emulator.Capabilities {
	return emulator.Capabilities{
		Memory:       true,
		AddressSpace: rdramSize,
		Persistent:   true,
	}
}

func (m *Nintendo64) Properties() emulator.Properties {
	return emulator.Properties{Width: m.width, Height: m.height, FPS: fps, SampleRate: sampleRate}
}

func (m *Nintendo64) Close() error {
	if m.closed {
		return nil
	}
	m.closed = true

	_ = m.core.doCommand(cmdStop, 0, nil)
	select {
	case <-m.execDone:
	case <-time.After(frameTimeout):
		m.log.Warn().Msg("core did not stop in time")
	}
	m.unload()
	return nil
}

func (m *Nintendo64) unload() {
	if m.core == nil {
		return
	}
	for i := len(m.plugins) - 1; i >= 0; i-- {
		p := m.plugins[i]
		_ = m.core.detachPlugin(p.kind)
		_ = p.shutdown()
		_ = closeLibrary(p.handle)
	}
	m.plugins = nil
	_ = m.core.doCommand(cmdRomClose, 0, nil)
	_ = m.core.shutdown()
	_ = closeLibrary(m.core.handle)
	m.core = nil
}
