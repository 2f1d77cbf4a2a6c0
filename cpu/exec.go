package cpu

import (
	"github.com/ezrec/avrsim/avr"
)

// exec is the staged state of one instruction; it is committed only on success.
type exec struct {
	prog   *avr.Program
	ins    *avr.Instruction
	pc     int // Address of the instruction.
	next   int // Address of the next instruction.
	halt   bool
	mem    Memory
	frames Frames
	output []byte
}

type handler func(ex *exec) error

var dispatch = [avr.MNEMONIC_COUNT]handler{
	avr.OP_ADC:   opAdc,
	avr.OP_ADD:   opAdd,
	avr.OP_ADIW:  opAdiw,
	avr.OP_AND:   opLogic(func(a, b byte) byte { return a & b }),
	avr.OP_ANDI:  opLogic(func(a, b byte) byte { return a & b }),
	avr.OP_ASR:   opAsr,
	avr.OP_BCLR:  opBclr,
	avr.OP_BRBC:  opBrbc,
	avr.OP_BRBS:  opBrbs,
	avr.OP_BRCC:  opBranch,
	avr.OP_BRCS:  opBranch,
	avr.OP_BREQ:  opBranch,
	avr.OP_BRGE:  opBranch,
	avr.OP_BRHC:  opBranch,
	avr.OP_BRHS:  opBranch,
	avr.OP_BRID:  opBranch,
	avr.OP_BRIE:  opBranch,
	avr.OP_BRLO:  opBranch,
	avr.OP_BRLT:  opBranch,
	avr.OP_BRMI:  opBranch,
	avr.OP_BRNE:  opBranch,
	avr.OP_BRPL:  opBranch,
	avr.OP_BRSH:  opBranch,
	avr.OP_BRTC:  opBranch,
	avr.OP_BRTS:  opBranch,
	avr.OP_BRVC:  opBranch,
	avr.OP_BRVS:  opBranch,
	avr.OP_BSET:  opBset,
	avr.OP_CALL:  opCall,
	avr.OP_CBI:   opCbi,
	avr.OP_CBR:   opLogic(func(a, b byte) byte { return a &^ b }),
	avr.OP_CLC:   opFlag,
	avr.OP_CLH:   opFlag,
	avr.OP_CLI:   opFlag,
	avr.OP_CLN:   opFlag,
	avr.OP_CLR:   opClr,
	avr.OP_CLS:   opFlag,
	avr.OP_CLT:   opFlag,
	avr.OP_CLV:   opFlag,
	avr.OP_CLZ:   opFlag,
	avr.OP_COM:   opCom,
	avr.OP_CP:    opSub(false, false, false),
	avr.OP_CPC:   opSub(true, false, false),
	avr.OP_CPI:   opSub(false, false, true),
	avr.OP_DEC:   opDec,
	avr.OP_EOR:   opLogic(func(a, b byte) byte { return a ^ b }),
	avr.OP_IN:    opIn,
	avr.OP_INC:   opInc,
	avr.OP_JMP:   opJmp,
	avr.OP_LD:    opLd,
	avr.OP_LDD:   opLdd,
	avr.OP_LDI:   opLdi,
	avr.OP_LDS:   opLds,
	avr.OP_LSL:   opLsl,
	avr.OP_LSR:   opLsr,
	avr.OP_MOV:   opMov,
	avr.OP_MOVW:  opMovw,
	avr.OP_MUL:   opMul,
	avr.OP_MULS:  opMuls,
	avr.OP_MULSU: opMulsu,
	avr.OP_NEG:   opNeg,
	avr.OP_NOP:   opNop,
	avr.OP_OR:    opLogic(func(a, b byte) byte { return a | b }),
	avr.OP_ORI:   opLogic(func(a, b byte) byte { return a | b }),
	avr.OP_OUT:   opOut,
	avr.OP_POP:   opPop,
	avr.OP_PUSH:  opPush,
	avr.OP_RCALL: opRcall,
	avr.OP_RET:   opRet,
	avr.OP_RJMP:  opRjmp,
	avr.OP_ROL:   opRol,
	avr.OP_ROR:   opRor,
	avr.OP_SBC:   opSub(true, true, false),
	avr.OP_SBI:   opSbi,
	avr.OP_SBIW:  opSbiw,
	avr.OP_SBR:   opLogic(func(a, b byte) byte { return a | b }),
	avr.OP_SBRC:  opSbrc,
	avr.OP_SBRS:  opSbrs,
	avr.OP_SEC:   opFlag,
	avr.OP_SEH:   opFlag,
	avr.OP_SEI:   opFlag,
	avr.OP_SEN:   opFlag,
	avr.OP_SER:   opSer,
	avr.OP_SES:   opFlag,
	avr.OP_SET:   opFlag,
	avr.OP_SEV:   opFlag,
	avr.OP_SEZ:   opFlag,
	avr.OP_ST:    opSt,
	avr.OP_STD:   opStd,
	avr.OP_STS:   opSts,
	avr.OP_SUB:   opSub(false, true, false),
	avr.OP_SUBI:  opSub(false, true, true),
	avr.OP_SWAP:  opSwap,
	avr.OP_TST:   opTst,
	avr.OP_XCH:   opXch,
}

// Operand helpers

func (ex *exec) arg(n int) int {
	return ex.ins.Arg(n)
}

func (ex *exec) reg(n int) byte {
	return ex.mem.Reg(ex.ins.Arg(n))
}

// operand2 returns the second operand, as a register or an immediate.
func (ex *exec) operand2(imm bool) byte {
	if imm {
		return byte(ex.arg(1))
	}
	return ex.reg(1)
}

func (ex *exec) sreg() avr.SREG {
	return ex.mem.SREG()
}

func (ex *exec) setSreg(sr avr.SREG) {
	ex.mem.SetSREG(sr)
}

// jump sets the next address, checking it against program memory.
func (ex *exec) jump(target int) (err error) {
	if target < 0 || target >= avr.PMEM_SIZE {
		err = ErrFetch(target)
		return
	}
	ex.next = target
	return
}

// relative jumps to a PC relative offset.
func (ex *exec) relative(k int) error {
	return ex.jump(ex.pc + k + 1)
}

// skip the next instruction, which may be double length.
func (ex *exec) skip() {
	words := 1
	if ins, ok := ex.prog.Fetch(ex.next); ok {
		words = ins.Words()
	}
	ex.next += words
}

// Stack helpers

func (ex *exec) push(value byte) (err error) {
	sp := ex.mem.SP()
	if sp < avr.SRAM_START {
		err = ErrStackOverflow
		return
	}
	err = ex.mem.Write(sp, value)
	if err != nil {
		return
	}
	ex.mem.SetSP(sp - 1)
	return
}

func (ex *exec) pop() (value byte, err error) {
	sp := ex.mem.SP() + 1
	value, err = ex.mem.Read(sp)
	if err != nil {
		return
	}
	ex.mem.SetSP(sp)
	return
}

// Arithmetic

func opAdd(ex *exec) error {
	rd, rr := ex.reg(0), ex.reg(1)
	r := rd + rr
	ex.mem.SetReg(ex.arg(0), r)
	ex.setSreg(addFlags(ex.sreg(), rd, rr, r))
	return nil
}

func opAdc(ex *exec) error {
	rd, rr := ex.reg(0), ex.reg(1)
	r := rd + rr
	if ex.sreg().C() {
		r++
	}
	ex.mem.SetReg(ex.arg(0), r)
	ex.setSreg(addFlags(ex.sreg(), rd, rr, r))
	return nil
}

// opSub handles SUB, SUBI, SBC, CP, CPI and CPC.
func opSub(carry bool, store bool, imm bool) handler {
	return func(ex *exec) error {
		rd, rr := ex.reg(0), ex.operand2(imm)
		r := rd - rr
		if carry && ex.sreg().C() {
			r--
		}
		if store {
			ex.mem.SetReg(ex.arg(0), r)
		}
		ex.setSreg(subFlags(ex.sreg(), rd, rr, r, carry))
		return nil
	}
}

func opAdiw(ex *exec) error {
	d := ex.arg(0)
	rdw := ex.mem.Word(d)
	r := rdw + uint16(ex.arg(1))
	ex.mem.SetWord(d, r)
	ex.setSreg(wordFlags(ex.sreg(), rdw, r, false))
	return nil
}

func opSbiw(ex *exec) error {
	d := ex.arg(0)
	rdw := ex.mem.Word(d)
	r := rdw - uint16(ex.arg(1))
	ex.mem.SetWord(d, r)
	ex.setSreg(wordFlags(ex.sreg(), rdw, r, true))
	return nil
}

func opInc(ex *exec) error {
	r := ex.reg(0) + 1
	ex.mem.SetReg(ex.arg(0), r)
	sr := ex.sreg().Set(avr.FLAG_V, r == 0x80)
	ex.setSreg(nzs(sr, r))
	return nil
}

func opDec(ex *exec) error {
	r := ex.reg(0) - 1
	ex.mem.SetReg(ex.arg(0), r)
	sr := ex.sreg().Set(avr.FLAG_V, r == 0x7f)
	ex.setSreg(nzs(sr, r))
	return nil
}

func opNeg(ex *exec) error {
	rd := ex.reg(0)
	r := -rd
	ex.mem.SetReg(ex.arg(0), r)
	sr := ex.sreg()
	sr = sr.Set(avr.FLAG_H, (r|rd)&0x08 != 0)
	sr = sr.Set(avr.FLAG_V, r == 0x80)
	sr = sr.Set(avr.FLAG_C, r != 0)
	ex.setSreg(nzs(sr, r))
	return nil
}

func opCom(ex *exec) error {
	r := ^ex.reg(0)
	ex.mem.SetReg(ex.arg(0), r)
	sr := logicFlags(ex.sreg(), r)
	ex.setSreg(sr.Set(avr.FLAG_C, true))
	return nil
}

// opLogic handles AND, ANDI, OR, ORI, EOR, CBR and SBR.
func opLogic(fn func(a, b byte) byte) handler {
	return func(ex *exec) error {
		imm := len(ex.ins.Args) > 1 && ex.ins.Args[1].Kind == avr.OPERAND_IMM
		r := fn(ex.reg(0), ex.operand2(imm))
		ex.mem.SetReg(ex.arg(0), r)
		ex.setSreg(logicFlags(ex.sreg(), r))
		return nil
	}
}

func opTst(ex *exec) error {
	ex.setSreg(logicFlags(ex.sreg(), ex.reg(0)))
	return nil
}

func opClr(ex *exec) error {
	ex.mem.SetReg(ex.arg(0), 0)
	ex.setSreg(logicFlags(ex.sreg(), 0))
	return nil
}

func opSer(ex *exec) error {
	ex.mem.SetReg(ex.arg(0), 0xff)
	return nil
}

func opSwap(ex *exec) error {
	rd := ex.reg(0)
	ex.mem.SetReg(ex.arg(0), rd<<4|rd>>4)
	return nil
}

// Shifts and rotates

func opLsl(ex *exec) error {
	rd := ex.reg(0)
	r := rd << 1
	ex.mem.SetReg(ex.arg(0), r)
	sr := ex.sreg().Set(avr.FLAG_H, rd&0x08 != 0)
	ex.setSreg(shiftFlags(sr, r, rd&0x80 != 0))
	return nil
}

func opRol(ex *exec) error {
	rd := ex.reg(0)
	r := rd << 1
	if ex.sreg().C() {
		r |= 1
	}
	ex.mem.SetReg(ex.arg(0), r)
	sr := ex.sreg().Set(avr.FLAG_H, rd&0x08 != 0)
	ex.setSreg(shiftFlags(sr, r, rd&0x80 != 0))
	return nil
}

func opLsr(ex *exec) error {
	rd := ex.reg(0)
	r := rd >> 1
	ex.mem.SetReg(ex.arg(0), r)
	ex.setSreg(shiftFlags(ex.sreg(), r, rd&1 != 0))
	return nil
}

func opRor(ex *exec) error {
	rd := ex.reg(0)
	r := rd >> 1
	if ex.sreg().C() {
		r |= 0x80
	}
	ex.mem.SetReg(ex.arg(0), r)
	ex.setSreg(shiftFlags(ex.sreg(), r, rd&1 != 0))
	return nil
}

func opAsr(ex *exec) error {
	rd := ex.reg(0)
	r := rd>>1 | rd&0x80
	ex.mem.SetReg(ex.arg(0), r)
	ex.setSreg(shiftFlags(ex.sreg(), r, rd&1 != 0))
	return nil
}

// Multiplication, with the product in R1:R0

func (ex *exec) product(r uint16) {
	ex.mem.SetWord(0, r)
	ex.setSreg(mulFlags(ex.sreg(), r))
}

func opMul(ex *exec) error {
	ex.product(uint16(ex.reg(0)) * uint16(ex.reg(1)))
	return nil
}

func opMuls(ex *exec) error {
	ex.product(uint16(int16(int8(ex.reg(0))) * int16(int8(ex.reg(1)))))
	return nil
}

func opMulsu(ex *exec) error {
	ex.product(uint16(int16(int8(ex.reg(0))) * int16(ex.reg(1))))
	return nil
}

// Status register

func opBset(ex *exec) error {
	ex.setSreg(ex.sreg().Set(avr.FlagBit(ex.arg(0)), true))
	return nil
}

func opBclr(ex *exec) error {
	ex.setSreg(ex.sreg().Set(avr.FlagBit(ex.arg(0)), false))
	return nil
}

// opFlag handles the SEx and CLx aliases of BSET and BCLR.
func opFlag(ex *exec) error {
	fl, _ := ex.ins.Op.FlagOf()
	ex.setSreg(ex.sreg().Set(fl.Flag, fl.Set))
	return nil
}

// Branches and jumps

func opBrbs(ex *exec) (err error) {
	if ex.sreg().Get(avr.FlagBit(ex.arg(0))) {
		err = ex.relative(ex.arg(1))
	}
	return
}

func opBrbc(ex *exec) (err error) {
	if !ex.sreg().Get(avr.FlagBit(ex.arg(0))) {
		err = ex.relative(ex.arg(1))
	}
	return
}

// opBranch handles the BRxx aliases of BRBS and BRBC.
func opBranch(ex *exec) (err error) {
	br, _ := ex.ins.Op.BranchOf()
	if ex.sreg().Get(br.Flag) == br.Set {
		err = ex.relative(ex.arg(0))
	}
	return
}

func opRjmp(ex *exec) error {
	return ex.relative(ex.arg(0))
}

func opJmp(ex *exec) error {
	return ex.jump(ex.arg(0))
}

func opSbrc(ex *exec) error {
	if ex.reg(0)&(1<<ex.arg(1)) == 0 {
		ex.skip()
	}
	return nil
}

func opSbrs(ex *exec) error {
	if ex.reg(0)&(1<<ex.arg(1)) != 0 {
		ex.skip()
	}
	return nil
}

// Calls and the stack

// call pushes the return address, low byte first, and a zero pad byte.
func (ex *exec) call(target int) (err error) {
	ret := ex.next
	for _, value := range []byte{byte(ret), byte(ret >> 8), 0} {
		err = ex.push(value)
		if err != nil {
			return
		}
	}
	err = ex.jump(target)
	if err != nil {
		return
	}
	ex.frames.Open()
	return
}

func opCall(ex *exec) error {
	switch ex.ins.Builtin() {
	case avr.BUILTIN_PRINTF:
		return opPrintf(ex)
	}
	return ex.call(ex.arg(0))
}

func opRcall(ex *exec) error {
	return ex.call(ex.pc + ex.arg(0) + 1)
}

// opPrintf streams the NUL terminated string addressed by the two bytes
// on top of the stack. The stack and registers are unchanged.
func opPrintf(ex *exec) (err error) {
	if ex.frames.Pushes() < 2 {
		err = ErrStackUnderflow
		return
	}

	sp := ex.mem.SP()
	lo, err := ex.mem.Read(sp + 1)
	if err != nil {
		return
	}
	hi, err := ex.mem.Read(sp + 2)
	if err != nil {
		return
	}

	for addr := int(hi)<<8 | int(lo); ; addr++ {
		var c byte
		c, err = ex.mem.Read(addr)
		if err != nil {
			return
		}
		if c == 0 {
			break
		}
		ex.output = append(ex.output, c)
		if addr == avr.RAMEND {
			break
		}
	}
	return
}

func opRet(ex *exec) (err error) {
	if ex.frames.Depth() == 0 {
		sp := ex.mem.SP()
		if sp == avr.RAMEND {
			ex.halt = true
			return
		}
		err = &ErrUnbalancedReturn{Count: avr.RAMEND - sp}
		return
	}

	if pushes := ex.frames.Pushes(); pushes != 0 {
		err = &ErrUnbalancedReturn{Count: pushes}
		return
	}

	var ret [3]byte
	for n := range ret {
		ret[n], err = ex.pop()
		if err != nil {
			return
		}
	}
	ex.frames.Close()

	// Popped in reverse: pad, high, low.
	err = ex.jump(int(ret[1])<<8 | int(ret[2]))
	return
}

func opPush(ex *exec) (err error) {
	err = ex.push(ex.reg(0))
	if err != nil {
		return
	}
	ex.frames.Push()
	return
}

func opPop(ex *exec) (err error) {
	if !ex.frames.Pop() {
		err = ErrStackUnderflow
		return
	}
	value, err := ex.pop()
	if err != nil {
		return
	}
	ex.mem.SetReg(ex.arg(0), value)
	return
}

// Data transfer

func opNop(ex *exec) error {
	return nil
}

func opMov(ex *exec) error {
	ex.mem.SetReg(ex.arg(0), ex.reg(1))
	return nil
}

func opMovw(ex *exec) error {
	ex.mem.SetWord(ex.arg(0), ex.mem.Word(ex.arg(1)))
	return nil
}

func opLdi(ex *exec) error {
	ex.mem.SetReg(ex.arg(0), byte(ex.arg(1)))
	return nil
}

func opIn(ex *exec) (err error) {
	value, err := ex.mem.Read(ex.arg(1) + IO_START)
	if err != nil {
		return
	}
	ex.mem.SetReg(ex.arg(0), value)
	return
}

func opOut(ex *exec) error {
	return ex.mem.Write(ex.arg(0)+IO_START, ex.reg(1))
}

// bit sets or clears a bit of an I/O register.
func (ex *exec) bit(on bool) (err error) {
	addr := ex.arg(0) + IO_START
	value, err := ex.mem.Read(addr)
	if err != nil {
		return
	}
	mask := byte(1 << ex.arg(1))
	if on {
		value |= mask
	} else {
		value &^= mask
	}
	err = ex.mem.Write(addr, value)
	return
}

func opCbi(ex *exec) error {
	return ex.bit(false)
}

func opSbi(ex *exec) error {
	return ex.bit(true)
}

func opLd(ex *exec) (err error) {
	addr, err := ex.mem.Pointer(avr.Pointer(ex.arg(1)))
	if err != nil {
		return
	}
	value, err := ex.mem.Read(addr)
	if err != nil {
		return
	}
	ex.mem.SetReg(ex.arg(0), value)
	return
}

func opSt(ex *exec) (err error) {
	addr, err := ex.mem.Pointer(avr.Pointer(ex.arg(0)))
	if err != nil {
		return
	}
	err = ex.mem.Write(addr, ex.reg(1))
	return
}

// displaced returns the address of a Y+q or Z+q operand; the pointer is unchanged.
func (ex *exec) displaced(ptr int, q int) int {
	return int(ex.mem.Word(avr.Pointer(ptr).Register())) + q
}

func opLdd(ex *exec) (err error) {
	value, err := ex.mem.Read(ex.displaced(ex.arg(1), ex.arg(2)))
	if err != nil {
		return
	}
	ex.mem.SetReg(ex.arg(0), value)
	return
}

func opStd(ex *exec) error {
	return ex.mem.Write(ex.displaced(ex.arg(0), ex.arg(1)), ex.reg(2))
}

func opLds(ex *exec) (err error) {
	value, err := ex.mem.Read(ex.arg(1))
	if err != nil {
		return
	}
	ex.mem.SetReg(ex.arg(0), value)
	return
}

func opSts(ex *exec) error {
	return ex.mem.Write(ex.arg(0), ex.reg(1))
}

func opXch(ex *exec) (err error) {
	addr, err := ex.mem.Pointer(avr.Pointer(ex.arg(0)))
	if err != nil {
		return
	}
	value, err := ex.mem.Read(addr)
	if err != nil {
		return
	}
	err = ex.mem.Write(addr, ex.reg(1))
	if err != nil {
		return
	}
	ex.mem.SetReg(ex.arg(1), value)
	return
}
