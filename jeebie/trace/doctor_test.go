package trace

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeCPU struct {
	a, f, b, c, d, e, h, l uint8
	sp, pc                 uint16
}

func (f *fakeCPU) GetA() uint8   { return f.a }
func (f *fakeCPU) GetF() uint8   { return f.f }
func (f *fakeCPU) GetB() uint8   { return f.b }
func (f *fakeCPU) GetC() uint8   { return f.c }
func (f *fakeCPU) GetD() uint8   { return f.d }
func (f *fakeCPU) GetE() uint8   { return f.e }
func (f *fakeCPU) GetH() uint8   { return f.h }
func (f *fakeCPU) GetL() uint8   { return f.l }
func (f *fakeCPU) GetSP() uint16 { return f.sp }
func (f *fakeCPU) GetPC() uint16 { return f.pc }

type fakeMem struct {
	data [0x10000]byte
}

func (m *fakeMem) Read(address uint16) byte { return m.data[address] }

func TestDoctorLogFormat(t *testing.T) {
	mem := &fakeMem{}
	mem.data[0x0100] = 0x00
	mem.data[0x0101] = 0xC3
	mem.data[0x0102] = 0x50
	mem.data[0x0103] = 0x01

	c := &fakeCPU{a: 0x01, f: 0xB0, b: 0x00, c: 0x13, d: 0x00, e: 0xD8, h: 0x01, l: 0x4D, sp: 0xFFFE, pc: 0x0100}

	var buf bytes.Buffer
	d := NewDoctor(&buf, mem)
	d.Log(c)
	assert.NoError(t, d.Flush())

	assert.Equal(t, "A:01 F:B0 B:00 C:13 D:00 E:D8 H:01 L:4D SP:FFFE PC:0100 PCMEM:00,C3,50,01\n", buf.String())
}

func TestDoctorLogMultipleLines(t *testing.T) {
	mem := &fakeMem{}
	c := &fakeCPU{pc: 0x0100}

	var buf bytes.Buffer
	d := NewDoctor(&buf, mem)
	d.Log(c)
	c.pc = 0x0101
	d.Log(c)
	assert.NoError(t, d.Flush())

	lines := bytes.Split(bytes.TrimRight(buf.Bytes(), "\n"), []byte("\n"))
	assert.Len(t, lines, 2)
}
