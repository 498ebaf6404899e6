package main

import (
	"bytes"
	"testing"

	"github.com/ezntek/prototypevm/program"
	"github.com/ezntek/prototypevm/vm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestDemoProgram(t *testing.T) {
	out := &bytes.Buffer{}
	err := vm.NewVM(demoProgram(), vm.OutputOpt(out), vm.LoggerOpt(zap.NewNop())).Run()
	require.NoError(t, err)
	assert.Equal(t, "Not greater\n13\n", out.String())
}

func TestBundledPrograms(t *testing.T) {
	tests := []struct {
		path    string
		want    string
		wantErr error
	}{
		{path: "programs/compare.yaml", want: "Not greater\n13\n"},
		{path: "programs/countdown.yaml", want: "5\n4\n3\n2\n1\nliftoff\n"},
		{path: "programs/divzero.yaml", want: "", wantErr: vm.ErrDivisionByZero},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			p, err := program.Load(tt.path)
			require.NoError(t, err)

			out := &bytes.Buffer{}
			err = vm.NewVM(p, vm.OutputOpt(out), vm.LoggerOpt(zap.NewNop())).Run()
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.want, out.String())
		})
	}
	assert.Equal(t, demoProgram(), mustLoad(t, "programs/compare.yaml"))
}

func mustLoad(t *testing.T, path string) vm.Program {
	p, err := program.Load(path)
	require.NoError(t, err)
	return p
}

func TestServerLogger(t *testing.T) {
	defer func(d bool) { debug = d }(debug)

	debug = false
	l, err := newServerLogger()
	require.NoError(t, err)
	assert.True(t, l.Core().Enabled(zapcore.InfoLevel))
	assert.False(t, l.Core().Enabled(zapcore.DebugLevel))

	debug = true
	l, err = newServerLogger()
	require.NoError(t, err)
	assert.True(t, l.Core().Enabled(zapcore.DebugLevel))
}
