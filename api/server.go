package api

import (
	"bytes"
	"net/http"
	"strings"

	"github.com/ezntek/prototypevm/program"
	"github.com/ezntek/prototypevm/types"
	"github.com/ezntek/prototypevm/vm"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const defaultMaxSteps = 1_000_000

type ServerConfig struct {
	ListenerAddr string
	Logger       *zap.Logger
	// per run instruction budget, programs are untrusted
	MaxSteps int
}

type Server struct {
	ServerConfig
	store  *program.MemStore[types.Hash, vm.Program]
	hasher program.Hasher[vm.Program]
	echo   *echo.Echo

	logger *zap.Logger
	// never below info, a looping program would log every instruction
	vmLogger *zap.Logger
}

func NewServer(config ServerConfig) (*Server, error) {
	if config.Logger == nil {
		var err error
		config.Logger, err = zap.NewProduction()
		if err != nil {
			return nil, err
		}
	}
	if config.MaxSteps <= 0 {
		config.MaxSteps = defaultMaxSteps
	}
	s := &Server{
		ServerConfig: config,
		store:        program.NewMemStore[types.Hash, vm.Program](),
		hasher:       program.DefaultHasher{},
		logger:       config.Logger.Named("api"),
		vmLogger:     config.Logger.WithOptions(zap.IncreaseLevel(zapcore.InfoLevel)),
	}

	e := echo.New()
	e.HideBanner = true
	e.POST("/programs", s.handlePutProgram)
	e.GET("/programs/:hash", s.handleGetProgram)
	e.POST("/programs/:hash/run", s.handleRunStored)
	e.POST("/run", s.handleRun)
	s.echo = e

	return s, nil
}

// Handler exposes the routes, mostly for tests
func (s *Server) Handler() *echo.Echo {
	return s.echo
}

func (s *Server) Start() error {
	s.logger.Info("api server starting",
		zap.String("addr", s.ListenerAddr))

	return s.echo.Start(s.ListenerAddr)
}

// Close stops the listener and the program store. Requests made afterwards
// can no longer store or look up programs.
func (s *Server) Close() error {
	s.store.Close()
	return s.echo.Close()
}

type programRequest struct {
	Program []program.Step `json:"program"`
}

type faultResponse struct {
	Kind    string `json:"kind"`
	PC      int    `json:"pc"`
	Index   int    `json:"index"`
	Target  int    `json:"target"`
	Message string `json:"message"`
}

type runResponse struct {
	Output []string       `json:"output"`
	Steps  int            `json:"steps"`
	Fault  *faultResponse `json:"fault,omitempty"`
}

func errorJSON(ectx echo.Context, status int, err error) error {
	return ectx.JSON(status,
		map[string]any{
			"error": err.Error(),
		})
}

func (s *Server) bindProgram(ectx echo.Context) (vm.Program, error) {
	var req programRequest
	err := ectx.Bind(&req)
	if err != nil {
		return nil, err
	}
	return program.FromSteps(req.Program)
}

func (s *Server) lookup(ectx echo.Context) (types.Hash, vm.Program, int, error) {
	h, err := types.HashFromHex(ectx.Param("hash"))
	if err != nil {
		return h, nil, http.StatusBadRequest, err
	}
	p, err := s.store.Get(h)
	if err != nil {
		return h, nil, http.StatusNotFound, err
	}
	return h, p, http.StatusOK, nil
}

func (s *Server) handlePutProgram(ectx echo.Context) error {
	p, err := s.bindProgram(ectx)
	if err != nil {
		return errorJSON(ectx, http.StatusBadRequest, err)
	}

	h, err := s.hasher.Hash(p)
	if err != nil {
		return errorJSON(ectx, http.StatusInternalServerError, err)
	}
	err = s.store.Put(h, p)
	if err != nil {
		return errorJSON(ectx, http.StatusInternalServerError, err)
	}

	s.logger.Info("stored program",
		zap.String("hash", h.Prefix()),
		zap.Int("len", len(p)),
	)
	return ectx.JSON(http.StatusCreated,
		map[string]any{
			"hash": h.String(),
		})
}

func (s *Server) handleGetProgram(ectx echo.Context) error {
	h, p, status, err := s.lookup(ectx)
	if err != nil {
		return errorJSON(ectx, status, err)
	}

	dis := make([]string, len(p))
	for i := range p {
		dis[i] = vm.DisassembleAt(p, i)
	}
	return ectx.JSON(http.StatusOK,
		map[string]any{
			"hash":        h.String(),
			"program":     program.ToSteps(p),
			"disassembly": dis,
		})
}

func (s *Server) handleRunStored(ectx echo.Context) error {
	_, p, status, err := s.lookup(ectx)
	if err != nil {
		return errorJSON(ectx, status, err)
	}
	return s.run(ectx, p)
}

func (s *Server) handleRun(ectx echo.Context) error {
	p, err := s.bindProgram(ectx)
	if err != nil {
		return errorJSON(ectx, http.StatusBadRequest, err)
	}
	return s.run(ectx, p)
}

// run executes p on a fresh vm. faults are reported with status 422
// alongside whatever the program printed before faulting.
func (s *Server) run(ectx echo.Context, p vm.Program) error {
	out := &bytes.Buffer{}
	machine := vm.NewVM(p,
		vm.OutputOpt(out),
		vm.LoggerOpt(s.vmLogger),
		vm.MaxStepsOpt(s.MaxSteps),
	)
	err := machine.Run()

	resp := runResponse{
		Output: splitLines(out.String()),
		Steps:  machine.Steps(),
	}
	if err == nil {
		return ectx.JSON(http.StatusOK, resp)
	}

	f, ok := vm.AsFault(err)
	if !ok {
		return errorJSON(ectx, http.StatusInternalServerError, err)
	}
	resp.Fault = &faultResponse{
		Kind:    f.Kind.String(),
		PC:      f.PC,
		Index:   f.Index,
		Target:  f.Target,
		Message: f.Error(),
	}
	return ectx.JSON(http.StatusUnprocessableEntity, resp)
}

func splitLines(s string) []string {
	if s == "" {
		return []string{}
	}
	return strings.Split(strings.TrimSuffix(s, "\n"), "\n")
}
