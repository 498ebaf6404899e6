package program

import (
	"encoding/gob"
	"fmt"
	"io"
	"os"

	"github.com/ezntek/prototypevm/vm"
	"gopkg.in/yaml.v3"
)

type Encoder[T any] interface {
	Encode(T) error
}

type Decoder[T any] interface {
	Decode(T) error
}

// YAMLEncoder writes a program as a yaml list of steps
type YAMLEncoder struct {
	w io.Writer
}

func NewYAMLEncoder(w io.Writer) *YAMLEncoder {
	return &YAMLEncoder{
		w: w,
	}
}

func (e YAMLEncoder) Encode(p vm.Program) error {
	enc := yaml.NewEncoder(e.w)
	enc.SetIndent(2)
	err := enc.Encode(ToSteps(p))
	if err != nil {
		return err
	}
	return enc.Close()
}

type YAMLDecoder struct {
	r io.Reader
}

func NewYAMLDecoder(r io.Reader) *YAMLDecoder {
	return &YAMLDecoder{
		r: r,
	}
}

func (d *YAMLDecoder) Decode(p *vm.Program) error {
	var steps []Step
	dec := yaml.NewDecoder(d.r)
	dec.KnownFields(true)
	err := dec.Decode(&steps)
	if err != nil && err != io.EOF {
		return fmt.Errorf("decode yaml program: %w", err)
	}
	out, err := FromSteps(steps)
	if err != nil {
		return err
	}
	*p = out
	return nil
}

// GobEncoder is the binary form used for hashing and storage
type GobEncoder struct {
	w io.Writer
}

func NewGobEncoder(w io.Writer) *GobEncoder {
	return &GobEncoder{
		w: w,
	}
}

func (e GobEncoder) Encode(p vm.Program) error {
	return gob.NewEncoder(e.w).Encode(ToSteps(p))
}

type GobDecoder struct {
	r io.Reader
}

func NewGobDecoder(r io.Reader) *GobDecoder {
	return &GobDecoder{
		r: r,
	}
}

func (d GobDecoder) Decode(p *vm.Program) error {
	var steps []Step
	err := gob.NewDecoder(d.r).Decode(&steps)
	if err != nil {
		return fmt.Errorf("decode gob program: %w", err)
	}
	out, err := FromSteps(steps)
	if err != nil {
		return err
	}
	*p = out
	return nil
}

// Load reads a yaml program file
func Load(path string) (vm.Program, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var p vm.Program
	err = NewYAMLDecoder(f).Decode(&p)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return p, nil
}
