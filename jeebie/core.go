package jeebie

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/valerio/go-jeebie/jeebie/addr"
	"github.com/valerio/go-jeebie/jeebie/audio"
	"github.com/valerio/go-jeebie/jeebie/cpu"
	"github.com/valerio/go-jeebie/jeebie/debug"
	"github.com/valerio/go-jeebie/jeebie/input/action"
	"github.com/valerio/go-jeebie/jeebie/memory"
	"github.com/valerio/go-jeebie/jeebie/timing"
	"github.com/valerio/go-jeebie/jeebie/trace"
	"github.com/valerio/go-jeebie/jeebie/video"
)

// DMG is the root struct and entry point for running emulation of an
// original Game Boy (DMG-01).
type DMG struct {
	cpu *cpu.CPU
	mmu *memory.MMU
	gpu *video.GPU

	limiter timing.Limiter

	frameCount       uint64
	instructionCount uint64

	debuggerState debug.DebuggerState

	trace *trace.Doctor
}

func newDMG(mmu *memory.MMU) *DMG {
	d := &DMG{
		mmu:     mmu,
		gpu:     video.NewGpu(mmu),
		limiter: timing.NewAdaptiveLimiter(),
	}
	d.cpu = cpu.New(mmu)
	return d
}

// New creates an emulator instance with no cartridge loaded.
func New() *DMG {
	return newDMG(memory.NewWithCartridge(memory.NewCartridge()))
}

// NewWithFile creates an emulator instance and loads the ROM at path into it.
func NewWithFile(path string) (*DMG, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading rom: %w", err)
	}

	slog.Info("loaded rom", "path", path, "bytes", len(data))

	return newDMG(memory.NewWithCartridge(memory.NewCartridgeWithData(data))), nil
}

// SetFrameLimiter overrides the pacing strategy used between frames. Pass
// nil to run unthrottled (used by benchmarks and headless batch runs).
func (d *DMG) SetFrameLimiter(limiter timing.Limiter) {
	if limiter == nil {
		d.limiter = timing.NewNoOpLimiter()
		return
	}
	d.limiter = limiter
}

// ResetFrameTiming clears any accumulated drift in the frame limiter,
// useful after a pause/resume cycle.
func (d *DMG) ResetFrameTiming() {
	d.limiter.Reset()
}

// EnableLogTrace makes the emulator write one Gameboy Doctor-format trace
// line per instruction to w, and forces the LY register to read as 0x90
// on the CPU-visible read path so trace-comparison ROMs don't stall
// waiting on a real PPU scanline. Call it once, before running.
func (d *DMG) EnableLogTrace(w io.Writer) {
	d.trace = trace.NewDoctor(w, d.mmu)
	d.mmu.SetLogMode(true)
}

// FlushTrace pushes any buffered Gameboy Doctor trace lines to their
// destination. A no-op if EnableLogTrace was never called.
func (d *DMG) FlushTrace() error {
	if d.trace == nil {
		return nil
	}
	return d.trace.Flush()
}

// GetAudioProvider exposes the APU's sample stream to audio backends.
func (d *DMG) GetAudioProvider() audio.Provider {
	return d.mmu.APU
}

// GetFrameCount returns the number of complete frames rendered so far.
func (d *DMG) GetFrameCount() uint64 {
	return d.frameCount
}

// GetInstructionCount returns the number of CPU instructions executed so far.
func (d *DMG) GetInstructionCount() uint64 {
	return d.instructionCount
}

// RunUntilFrame steps the CPU and its peripherals until a full frame (VBlank
// to VBlank) has been rendered, then waits out the frame limiter.
func (d *DMG) RunUntilFrame() error {
	if d.debuggerState == debug.DebuggerPaused {
		d.limiter.WaitForNextFrame()
		return nil
	}

	cyclesThisFrame := 0
	for cyclesThisFrame < timing.CyclesPerFrame {
		cycles := d.tick()
		cyclesThisFrame += cycles

		if d.debuggerState == debug.DebuggerStepInstruction {
			d.debuggerState = debug.DebuggerPaused
			break
		}
	}

	d.frameCount++
	if d.debuggerState == debug.DebuggerStepFrame {
		d.debuggerState = debug.DebuggerPaused
	}

	d.limiter.WaitForNextFrame()
	return nil
}

// tick executes a single CPU instruction and advances every peripheral by
// the same number of cycles it consumed, so MMU/GPU/APU state always
// reflects what the CPU just did.
func (d *DMG) tick() int {
	if d.trace != nil {
		d.trace.Log(d.cpu)
	}
	cycles := d.cpu.Exec()
	d.mmu.Tick(cycles)
	d.mmu.APU.Tick(cycles)
	d.gpu.Tick(cycles)
	d.instructionCount++
	return cycles
}

// GetCurrentFrame returns the most recently rendered framebuffer.
func (d *DMG) GetCurrentFrame() *video.FrameBuffer {
	return d.gpu.GetFrameBuffer()
}

// HandleAction dispatches a single input or emulator-control action.
func (d *DMG) HandleAction(act action.Action, pressed bool) {
	if key, ok := joypadKeyFor(act); ok {
		if pressed {
			d.mmu.HandleKeyPress(key)
		} else {
			d.mmu.HandleKeyRelease(key)
		}
		return
	}

	if !pressed {
		return
	}

	switch act {
	case action.EmulatorPauseToggle:
		if d.debuggerState == debug.DebuggerPaused {
			d.debuggerState = debug.DebuggerRunning
			d.limiter.Reset()
		} else {
			d.debuggerState = debug.DebuggerPaused
		}
	case action.EmulatorStepFrame:
		d.debuggerState = debug.DebuggerStepFrame
	case action.EmulatorStepInstruction:
		d.debuggerState = debug.DebuggerStepInstruction
	}
}

func joypadKeyFor(act action.Action) (memory.JoypadKey, bool) {
	switch act {
	case action.GBButtonA:
		return memory.JoypadA, true
	case action.GBButtonB:
		return memory.JoypadB, true
	case action.GBButtonStart:
		return memory.JoypadStart, true
	case action.GBButtonSelect:
		return memory.JoypadSelect, true
	case action.GBDPadUp:
		return memory.JoypadUp, true
	case action.GBDPadDown:
		return memory.JoypadDown, true
	case action.GBDPadLeft:
		return memory.JoypadLeft, true
	case action.GBDPadRight:
		return memory.JoypadRight, true
	}
	return 0, false
}

// ExtractDebugData snapshots the current CPU, memory, OAM and VRAM state
// for debug tools and overlays.
func (d *DMG) ExtractDebugData() *debug.CompleteDebugData {
	lcdc := d.mmu.Read(addr.LCDC)
	spriteHeight := 8
	if lcdc&0x04 != 0 {
		spriteHeight = 16
	}
	line := int(d.mmu.Read(addr.LY))

	return &debug.CompleteDebugData{
		CPU: &debug.CPUState{
			A: d.cpu.GetA(), F: d.cpu.GetF(),
			B: d.cpu.GetB(), C: d.cpu.GetC(),
			D: d.cpu.GetD(), E: d.cpu.GetE(),
			H: d.cpu.GetH(), L: d.cpu.GetL(),
			SP: d.cpu.GetSP(), PC: d.cpu.GetPC(),
			IME:    d.cpu.GetIME(),
			Cycles: d.cpu.GetCycles(),
		},
		OAM:             debug.ExtractOAMData(d.mmu, line, spriteHeight),
		VRAM:            debug.ExtractVRAMData(d.mmu),
		DebuggerState:   d.debuggerState,
		InterruptEnable: d.mmu.Read(addr.IE),
		InterruptFlags:  d.mmu.Read(addr.IF),
	}
}

var _ video.Bus = (*memory.MMU)(nil)
