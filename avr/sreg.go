package avr

// Flag is a single bit of the status register, in hardware bit order.
type Flag uint8

const (
	FLAG_C = Flag(1 << 0) // Carry
	FLAG_Z = Flag(1 << 1) // Zero
	FLAG_N = Flag(1 << 2) // Negative
	FLAG_V = Flag(1 << 3) // Two's complement overflow
	FLAG_S = Flag(1 << 4) // Sign, N xor V
	FLAG_H = Flag(1 << 5) // Half carry
	FLAG_T = Flag(1 << 6) // Transfer bit
	FLAG_I = Flag(1 << 7) // Global interrupt enable
)

// FlagBit returns the flag for a hardware bit number, as used by BSET/BCLR/BRBS/BRBC.
func FlagBit(s int) Flag {
	return Flag(1 << (s & 7))
}

// SREG is the status register.
type SREG uint8

// Get returns the state of a flag.
func (sr SREG) Get(flag Flag) bool {
	return uint8(sr)&uint8(flag) != 0
}

// Set returns the status register with a flag set or cleared.
func (sr SREG) Set(flag Flag, on bool) SREG {
	if on {
		return sr | SREG(flag)
	}
	return sr &^ SREG(flag)
}

func (sr SREG) C() bool { return sr.Get(FLAG_C) }
func (sr SREG) Z() bool { return sr.Get(FLAG_Z) }
func (sr SREG) N() bool { return sr.Get(FLAG_N) }
func (sr SREG) V() bool { return sr.Get(FLAG_V) }
func (sr SREG) S() bool { return sr.Get(FLAG_S) }
func (sr SREG) H() bool { return sr.Get(FLAG_H) }
func (sr SREG) T() bool { return sr.Get(FLAG_T) }
func (sr SREG) I() bool { return sr.Get(FLAG_I) }

// String renders the flags from I down to C, with '-' for clear flags.
func (sr SREG) String() string {
	const names = "CZNVSHTI"
	text := make([]byte, 8)
	for bit := range 8 {
		c := byte('-')
		if sr.Get(FlagBit(bit)) {
			c = names[bit]
		}
		text[7-bit] = c
	}
	return string(text)
}
