package cpu

import "github.com/valerio/go-jeebie/jeebie/bit"

// pushStack pushes a 16-bit value onto the stack, high byte first, and
// decrements SP twice.
func (c *CPU) pushStack(value uint16) {
	c.sp--
	c.bus.Write(c.sp, bit.High(value))
	c.sp--
	c.bus.Write(c.sp, bit.Low(value))
}

// popStack pops a 16-bit value off the stack, low byte first.
func (c *CPU) popStack() uint16 {
	low := c.bus.Read(c.sp)
	c.sp++
	high := c.bus.Read(c.sp)
	c.sp++

	return bit.Combine(high, low)
}

func (c *CPU) inc(r *uint8) {
	old := *r
	*r = old + 1

	c.setFlagToCondition(zeroFlag, *r == 0)
	c.setFlagToCondition(halfCarryFlag, old&0xF == 0xF)
	c.resetFlag(subFlag)
}

func (c *CPU) dec(r *uint8) {
	old := *r
	*r = old - 1

	c.setFlagToCondition(zeroFlag, *r == 0)
	c.setFlagToCondition(halfCarryFlag, old&0xF == 0)
	c.setFlag(subFlag)
}

// incMem and decMem are the (HL)-operand counterparts of inc/dec: the
// register file has no addressable byte for the CPU to take a Go pointer
// into, so these round-trip through the bus instead.
func (c *CPU) incMem(addr uint16) {
	value := c.bus.Read(addr)
	c.inc(&value)
	c.bus.Write(addr, value)
}

func (c *CPU) decMem(addr uint16) {
	value := c.bus.Read(addr)
	c.dec(&value)
	c.bus.Write(addr, value)
}

// rlc/rl/rrc/rr implement the CB-prefixed rotate instructions, which set
// the zero flag from the result. The unprefixed accumulator rotates
// (RLCA/RLA/RRCA/RRA) always clear it instead; see rlca/rla/rrca/rra.
func (c *CPU) rlc(r *uint8) {
	carry := *r&0x80 != 0
	result := *r << 1
	if carry {
		result |= 1
	}

	c.setFlagToCondition(zeroFlag, result == 0)
	c.resetFlag(subFlag)
	c.resetFlag(halfCarryFlag)
	c.setFlagToCondition(carryFlag, carry)
	*r = result
}

func (c *CPU) rl(r *uint8) {
	oldCarry := c.flagToBit(carryFlag)
	newCarry := *r&0x80 != 0
	result := (*r << 1) | oldCarry

	c.setFlagToCondition(zeroFlag, result == 0)
	c.resetFlag(subFlag)
	c.resetFlag(halfCarryFlag)
	c.setFlagToCondition(carryFlag, newCarry)
	*r = result
}

func (c *CPU) rrc(r *uint8) {
	carry := *r&0x1 != 0
	result := *r >> 1
	if carry {
		result |= 0x80
	}

	c.setFlagToCondition(zeroFlag, result == 0)
	c.resetFlag(subFlag)
	c.resetFlag(halfCarryFlag)
	c.setFlagToCondition(carryFlag, carry)
	*r = result
}

func (c *CPU) rr(r *uint8) {
	oldCarry := c.flagToBit(carryFlag)
	newCarry := *r&0x1 != 0
	result := (*r >> 1) | (oldCarry << 7)

	c.setFlagToCondition(zeroFlag, result == 0)
	c.resetFlag(subFlag)
	c.resetFlag(halfCarryFlag)
	c.setFlagToCondition(carryFlag, newCarry)
	*r = result
}

func (c *CPU) rlca() {
	c.rlc(&c.a)
	c.resetFlag(zeroFlag)
}

func (c *CPU) rla() {
	c.rl(&c.a)
	c.resetFlag(zeroFlag)
}

func (c *CPU) rrca() {
	c.rrc(&c.a)
	c.resetFlag(zeroFlag)
}

func (c *CPU) rra() {
	c.rr(&c.a)
	c.resetFlag(zeroFlag)
}

func (c *CPU) sla(r *uint8) {
	carry := *r&0x80 != 0
	result := *r << 1

	c.setFlagToCondition(zeroFlag, result == 0)
	c.resetFlag(subFlag)
	c.resetFlag(halfCarryFlag)
	c.setFlagToCondition(carryFlag, carry)
	*r = result
}

// sra shifts right, keeping the sign bit (bit 7) in place.
func (c *CPU) sra(r *uint8) {
	carry := *r&0x1 != 0
	result := (*r >> 1) | (*r & 0x80)

	c.setFlagToCondition(zeroFlag, result == 0)
	c.resetFlag(subFlag)
	c.resetFlag(halfCarryFlag)
	c.setFlagToCondition(carryFlag, carry)
	*r = result
}

func (c *CPU) srl(r *uint8) {
	carry := *r&0x1 != 0
	result := *r >> 1

	c.setFlagToCondition(zeroFlag, result == 0)
	c.resetFlag(subFlag)
	c.resetFlag(halfCarryFlag)
	c.setFlagToCondition(carryFlag, carry)
	*r = result
}

func (c *CPU) swap(r *uint8) {
	result := (*r << 4) | (*r >> 4)

	c.setFlagToCondition(zeroFlag, result == 0)
	c.resetFlag(subFlag)
	c.resetFlag(halfCarryFlag)
	c.resetFlag(carryFlag)
	*r = result
}

func (c *CPU) bit(n uint8, value uint8) {
	c.setFlagToCondition(zeroFlag, value&(1<<n) == 0)
	c.resetFlag(subFlag)
	c.setFlag(halfCarryFlag)
}

func (c *CPU) set(n uint8, r *uint8) {
	*r |= 1 << n
}

func (c *CPU) res(n uint8, r *uint8) {
	*r &^= 1 << n
}

// addToA adds value to A, setting all relevant flags.
func (c *CPU) addToA(value uint8) {
	a := c.a
	result := a + value

	c.setFlagToCondition(zeroFlag, result == 0)
	c.resetFlag(subFlag)
	c.setFlagToCondition(halfCarryFlag, (a&0xF)+(value&0xF) > 0xF)
	c.setFlagToCondition(carryFlag, uint16(a)+uint16(value) > 0xFF)
	c.a = result
}

// adc adds value and the carry flag to A.
func (c *CPU) adc(value uint8) {
	a := c.a
	carry := c.flagToBit(carryFlag)
	result := a + value + carry

	c.setFlagToCondition(zeroFlag, result == 0)
	c.resetFlag(subFlag)
	c.setFlagToCondition(halfCarryFlag, (a&0xF)+(value&0xF)+carry > 0xF)
	c.setFlagToCondition(carryFlag, uint16(a)+uint16(value)+uint16(carry) > 0xFF)
	c.a = result
}

// sub subtracts value from A, setting all relevant flags.
func (c *CPU) sub(value uint8) {
	a := c.a
	result := a - value

	c.setFlagToCondition(zeroFlag, result == 0)
	c.setFlag(subFlag)
	c.setFlagToCondition(halfCarryFlag, (a&0xF) < (value&0xF))
	c.setFlagToCondition(carryFlag, a < value)
	c.a = result
}

// sbc subtracts value and the carry flag from A.
func (c *CPU) sbc(value uint8) {
	a := c.a
	carry := c.flagToBit(carryFlag)
	result := a - value - carry

	c.setFlagToCondition(zeroFlag, result == 0)
	c.setFlag(subFlag)
	c.setFlagToCondition(halfCarryFlag, int16(a&0xF)-int16(value&0xF)-int16(carry) < 0)
	c.setFlagToCondition(carryFlag, int16(a)-int16(value)-int16(carry) < 0)
	c.a = result
}

func (c *CPU) and(value uint8) {
	c.a &= value

	c.setFlagToCondition(zeroFlag, c.a == 0)
	c.resetFlag(subFlag)
	c.setFlag(halfCarryFlag)
	c.resetFlag(carryFlag)
}

func (c *CPU) xor(value uint8) {
	c.a ^= value

	c.setFlagToCondition(zeroFlag, c.a == 0)
	c.resetFlag(subFlag)
	c.resetFlag(halfCarryFlag)
	c.resetFlag(carryFlag)
}

func (c *CPU) or(value uint8) {
	c.a |= value

	c.setFlagToCondition(zeroFlag, c.a == 0)
	c.resetFlag(subFlag)
	c.resetFlag(halfCarryFlag)
	c.resetFlag(carryFlag)
}

// cp compares value against A without storing the result.
func (c *CPU) cp(value uint8) {
	a := c.a
	result := a - value

	c.setFlagToCondition(zeroFlag, result == 0)
	c.setFlag(subFlag)
	c.setFlagToCondition(halfCarryFlag, (a&0xF) < (value&0xF))
	c.setFlagToCondition(carryFlag, a < value)
}

// addToHL adds a 16-bit value to HL, leaving the zero flag untouched.
func (c *CPU) addToHL(value uint16) {
	hl := c.getHL()
	result := hl + value

	c.resetFlag(subFlag)
	c.setFlagToCondition(halfCarryFlag, (hl&0xFFF)+(value&0xFFF) > 0xFFF)
	c.setFlagToCondition(carryFlag, uint32(hl)+uint32(value) > 0xFFFF)
	c.setHL(result)
}

// jr performs a relative jump using the signed immediate byte.
func (c *CPU) jr() {
	offset := c.readSignedImmediate()
	c.pc = uint16(int32(c.pc) + int32(offset))
}

// jp performs an absolute jump using the immediate word.
func (c *CPU) jp() {
	c.pc = c.readImmediateWord()
}

// call pushes the return address (the instruction following the operand)
// and jumps to the immediate word.
func (c *CPU) call() {
	target := c.readImmediateWord()
	c.pushStack(c.pc)
	c.pc = target
}

// daa adjusts A after a BCD addition or subtraction so it holds a valid
// two-digit BCD value.
func (c *CPU) daa() {
	a := c.a
	adjust := uint8(0)
	carry := c.isSetFlag(carryFlag)

	if c.isSetFlag(subFlag) {
		if c.isSetFlag(halfCarryFlag) {
			adjust |= 0x06
		}
		if carry {
			adjust |= 0x60
		}
		a -= adjust
	} else {
		if c.isSetFlag(halfCarryFlag) || a&0xF > 0x9 {
			adjust |= 0x06
		}
		if carry || a > 0x99 {
			adjust |= 0x60
			carry = true
		}
		a += adjust
	}

	c.setFlagToCondition(zeroFlag, a == 0)
	c.resetFlag(halfCarryFlag)
	c.setFlagToCondition(carryFlag, carry)
	c.a = a
}
