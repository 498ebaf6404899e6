package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/ezntek/prototypevm/api"
	"github.com/ezntek/prototypevm/feedback"
	"github.com/ezntek/prototypevm/program"
	"github.com/ezntek/prototypevm/vm"
	"github.com/urfave/cli"
	"go.uber.org/zap"
)

var (
	debug    bool
	noColor  bool
	maxSteps int
	addr     string
)

func newLogger() (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	return cfg.Build()
}

// demoProgram adds 4 and 9 and branches on whether the sum beats 15
func demoProgram() vm.Program {
	return vm.Program{
		vm.Push{Val: 4},
		vm.Push{Val: 9},
		vm.Push{Val: 15},
		vm.Add{Dst: 0, Src1: 0, Src2: 1},
		vm.Branch{Then: 5, Else: 10, Cmp: vm.Gt(0, 2)},
		vm.OutText{Text: "Greater than 15"},
		vm.Out{Src: 0},
		vm.Jump{Target: 12},
		vm.OutText{Text: "unreachable"},
		vm.OutText{Text: "unreachable"},
		vm.OutText{Text: "Not greater"},
		vm.Out{Src: 0},
	}
}

func execute(name string, p vm.Program) error {
	l, err := newLogger()
	if err != nil {
		return err
	}
	defer l.Sync()

	err = vm.NewVM(p,
		vm.LoggerOpt(l.Named(name)),
		vm.MaxStepsOpt(maxSteps),
	).Run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "# %s\n%s\n", name, feedback.Render(err, p, !noColor))
		return cli.NewExitError("", 1)
	}
	return nil
}

func runFiles(c *cli.Context) error {
	if c.NArg() == 0 {
		return cli.NewExitError("run: no program files given", 2)
	}
	for _, path := range c.Args() {
		p, err := program.Load(path)
		if err != nil {
			return cli.NewExitError(err.Error(), 2)
		}
		err = execute(path, p)
		if err != nil {
			return err
		}
	}
	return nil
}

func disassembleFiles(c *cli.Context) error {
	if c.NArg() == 0 {
		return cli.NewExitError("dis: no program files given", 2)
	}
	for _, path := range c.Args() {
		p, err := program.Load(path)
		if err != nil {
			return cli.NewExitError(err.Error(), 2)
		}
		fmt.Printf("# %s\n", path)
		err = vm.Disassemble(os.Stdout, p)
		if err != nil {
			return err
		}
	}
	return nil
}

func newServerLogger() (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func serve(c *cli.Context) error {
	l, err := newServerLogger()
	if err != nil {
		return err
	}
	defer l.Sync()

	s, err := api.NewServer(api.ServerConfig{
		ListenerAddr: addr,
		Logger:       l,
		MaxSteps:     maxSteps,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		l.Info("shutting down")
		s.Close()
	}()

	err = s.Start()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func main() {
	app := cli.NewApp()
	app.Name = "prototypevm"
	app.Usage = "a tiny register machine"

	app.Flags = []cli.Flag{
		cli.BoolFlag{
			Name:        "debug",
			Usage:       "log every executed instruction",
			Destination: &debug,
		},
		cli.BoolFlag{
			Name:        "no-color",
			Usage:       "hide colors in fault messages",
			Destination: &noColor,
		},
	}

	maxStepsFlag := cli.IntFlag{
		Name:        "max-steps",
		Usage:       "fault after executing this many instructions, 0 for no limit",
		Destination: &maxSteps,
	}

	app.Commands = []cli.Command{
		{
			Name:      "run",
			Aliases:   []string{"r"},
			Usage:     "Execute yaml program file(s)",
			ArgsUsage: "<file.yaml>...",
			Flags:     []cli.Flag{maxStepsFlag},
			Action:    runFiles,
		},
		{
			Name:      "dis",
			Aliases:   []string{"d"},
			Usage:     "Disassemble yaml program file(s) without executing",
			ArgsUsage: "<file.yaml>...",
			Action:    disassembleFiles,
		},
		{
			Name:  "serve",
			Usage: "Serve the http api",
			Flags: []cli.Flag{
				cli.StringFlag{
					Name:        "addr",
					Value:       ":8080",
					Usage:       "listen address",
					Destination: &addr,
				},
				maxStepsFlag,
			},
			Action: serve,
		},
		{
			Name:  "demo",
			Usage: "Run the built in comparison example",
			Action: func(c *cli.Context) error {
				return execute("demo", demoProgram())
			},
		},
	}

	err := app.Run(os.Args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
