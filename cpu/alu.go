package cpu

import (
	"github.com/ezrec/avrsim/avr"
)

// nzs sets N and Z from an 8 bit result, and S from N and the current V.
func nzs(sr avr.SREG, r byte) avr.SREG {
	sr = sr.Set(avr.FLAG_N, r&0x80 != 0)
	sr = sr.Set(avr.FLAG_Z, r == 0)
	return sr.Set(avr.FLAG_S, sr.N() != sr.V())
}

// addFlags updates H S V N Z C for r = rd + rr (+ carry).
func addFlags(sr avr.SREG, rd, rr, r byte) avr.SREG {
	carry := rd&rr | rr&^r | ^r&rd
	over := rd&rr&^r | ^rd&^rr&r
	sr = sr.Set(avr.FLAG_H, carry&0x08 != 0)
	sr = sr.Set(avr.FLAG_C, carry&0x80 != 0)
	sr = sr.Set(avr.FLAG_V, over&0x80 != 0)
	return nzs(sr, r)
}

// subFlags updates H S V N Z C for r = rd - rr (- carry).
// When chained, Z is only kept set by a zero result.
func subFlags(sr avr.SREG, rd, rr, r byte, chained bool) avr.SREG {
	zero := sr.Z()
	borrow := ^rd&rr | rr&r | r&^rd
	over := rd&^rr&^r | ^rd&rr&r
	sr = sr.Set(avr.FLAG_H, borrow&0x08 != 0)
	sr = sr.Set(avr.FLAG_C, borrow&0x80 != 0)
	sr = sr.Set(avr.FLAG_V, over&0x80 != 0)
	sr = nzs(sr, r)
	if chained {
		sr = sr.Set(avr.FLAG_Z, zero && r == 0)
	}
	return sr
}

// logicFlags updates S V N Z for a logical result; V is cleared.
func logicFlags(sr avr.SREG, r byte) avr.SREG {
	sr = sr.Set(avr.FLAG_V, false)
	return nzs(sr, r)
}

// shiftFlags updates S V N Z C for a shift or rotate with carry out c.
func shiftFlags(sr avr.SREG, r byte, c bool) avr.SREG {
	sr = sr.Set(avr.FLAG_C, c)
	sr = sr.Set(avr.FLAG_N, r&0x80 != 0)
	sr = sr.Set(avr.FLAG_V, sr.N() != c)
	sr = sr.Set(avr.FLAG_Z, r == 0)
	return sr.Set(avr.FLAG_S, sr.N() != sr.V())
}

// wordFlags updates S V N Z C for ADIW (sub false) or SBIW (sub true).
func wordFlags(sr avr.SREG, rdw, r uint16, sub bool) avr.SREG {
	rdh7 := rdw&0x8000 != 0
	r15 := r&0x8000 != 0
	if sub {
		sr = sr.Set(avr.FLAG_V, rdh7 && !r15)
		sr = sr.Set(avr.FLAG_C, r15 && !rdh7)
	} else {
		sr = sr.Set(avr.FLAG_V, !rdh7 && r15)
		sr = sr.Set(avr.FLAG_C, !r15 && rdh7)
	}
	sr = sr.Set(avr.FLAG_N, r15)
	sr = sr.Set(avr.FLAG_Z, r == 0)
	return sr.Set(avr.FLAG_S, sr.N() != sr.V())
}

// mulFlags updates Z C for a 16 bit product.
func mulFlags(sr avr.SREG, r uint16) avr.SREG {
	sr = sr.Set(avr.FLAG_C, r&0x8000 != 0)
	return sr.Set(avr.FLAG_Z, r == 0)
}
