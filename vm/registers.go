package vm

import (
	"github.com/ezntek/prototypevm/types"
)

// Registers is the VM's single value array. It is addressed by index like a
// register bank and grows and shrinks through Push and Delete.
type Registers struct {
	data *types.List[Value]
}

func NewRegisters(vals ...Value) *Registers {
	r := &Registers{
		data: types.NewList[Value](),
	}
	for _, v := range vals {
		r.Push(v)
	}
	return r
}

func (r *Registers) Get(idx int) (Value, error) {
	return r.data.Get(idx)
}

func (r *Registers) Set(idx int, v Value) error {
	return r.data.Set(idx, v)
}

func (r *Registers) Push(v Value) {
	r.data.Append(v)
}

func (r *Registers) Delete(idx int) error {
	return r.data.DeleteAt(idx)
}

func (r *Registers) Len() int {
	return r.data.Len()
}

func (r *Registers) Values() []Value {
	return r.data.Slice()
}
