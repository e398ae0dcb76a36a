// Package trace emits a per-instruction CPU state line in the format
// expected by Gameboy Doctor (https://robertheaton.com/gameboy-doctor/),
// used to diff this core's execution against a known-good reference log
// instruction-for-instruction.
package trace

import (
	"bufio"
	"fmt"
	"io"

	"github.com/valerio/go-jeebie/jeebie/cpu"
	"github.com/valerio/go-jeebie/jeebie/memory"
)

// cpuState is the subset of *cpu.CPU a trace line reads. Matching it
// against the concrete type with a narrow interface keeps this package
// testable without a full MMU/cartridge.
type cpuState interface {
	GetA() uint8
	GetF() uint8
	GetB() uint8
	GetC() uint8
	GetD() uint8
	GetE() uint8
	GetH() uint8
	GetL() uint8
	GetSP() uint16
	GetPC() uint16
}

// memReader is the read-only bus access needed for the PCMEM field.
type memReader interface {
	Read(address uint16) byte
}

// Doctor writes one trace line per executed instruction, in the fixed
// format:
//
//	A:xx F:xx B:xx C:xx D:xx E:xx H:xx L:xx SP:xxxx PC:xxxx PCMEM:xx,xx,xx,xx
//
// All values are upper-case hex, zero-padded to their field width.
// PCMEM is the four raw bytes at PC, not disassembled text: Gameboy
// Doctor only diffs against these literal byte values.
type Doctor struct {
	w   *bufio.Writer
	mem memReader
}

// NewDoctor wraps w in buffered output, since a full boot ROM trace runs
// to well over a million lines.
func NewDoctor(w io.Writer, mem memReader) *Doctor {
	return &Doctor{w: bufio.NewWriter(w), mem: mem}
}

// Log writes one trace line for the instruction about to execute at c's
// current PC. Call it immediately before cpu.Exec, not after: Gameboy
// Doctor's reference logs capture pre-execution state.
func (d *Doctor) Log(c cpuState) {
	pc := c.GetPC()
	fmt.Fprintf(d.w, "A:%02X F:%02X B:%02X C:%02X D:%02X E:%02X H:%02X L:%02X SP:%04X PC:%04X PCMEM:%02X,%02X,%02X,%02X\n",
		c.GetA(), c.GetF(), c.GetB(), c.GetC(), c.GetD(), c.GetE(), c.GetH(), c.GetL(),
		c.GetSP(), pc,
		d.mem.Read(pc), d.mem.Read(pc+1), d.mem.Read(pc+2), d.mem.Read(pc+3),
	)
}

// Flush pushes any buffered trace lines to the underlying writer. Call it
// when tracing stops, or the trailing lines of a run are lost.
func (d *Doctor) Flush() error {
	return d.w.Flush()
}

var (
	_ cpuState  = (*cpu.CPU)(nil)
	_ memReader = (*memory.MMU)(nil)
)
