package llir

import (
	"fmt"

	"github.com/Schaback/Compiler/firm"
)

// Width is the bit width of a virtual register.
type Width uint8

const (
	Bit8 Width = iota
	Bit32
	Bit64
)

func (w Width) String() string {
	switch w {
	case Bit8:
		return "b8"
	case Bit32:
		return "b32"
	case Bit64:
		return "b64"
	}
	return fmt.Sprintf("Width(%d)", w)
}

// WidthOfMode maps a value-producing firm mode to a register width.
func WidthOfMode(m firm.Mode) Width {
	switch m {
	case firm.ModeBu:
		return Bit8
	case firm.ModeIs:
		return Bit32
	case firm.ModeLs, firm.ModeP:
		return Bit64
	}
	panic(fmt.Sprintf("llir: mode %s has no register width", m))
}

// VirtualRegister identifies a value before register allocation.
type VirtualRegister struct {
	ID    int
	Width Width
}

func (r VirtualRegister) String() string {
	return fmt.Sprintf("v%d:%s", r.ID, r.Width)
}

// RegisterGenerator hands out virtual registers with monotonically
// increasing ids. Given a fixed traversal order, the assignment is
// deterministic.
type RegisterGenerator struct {
	next int
}

// Next returns a fresh register of the given width.
func (g *RegisterGenerator) Next(w Width) VirtualRegister {
	r := VirtualRegister{ID: g.next, Width: w}
	g.next++
	return r
}
