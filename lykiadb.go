// Package lykiadb is the embeddable query runtime facade: a Runtime owns
// the document store and configuration, and Sessions evaluate programs
// against it.
package lykiadb

import (
	"github.com/opentracing/opentracing-go"
	uuid "github.com/satori/go.uuid"
	"github.com/sirupsen/logrus"

	"github.com/lykia-rs/lykiadb/config"
	"github.com/lykia-rs/lykiadb/interpreter"
	"github.com/lykia-rs/lykiadb/memory"
	"github.com/lykia-rs/lykiadb/value"
)

// Runtime holds the shared state of an embedded runtime: configuration,
// the document store, logging, and tracing.
type Runtime struct {
	cfg    config.Config
	db     *memory.Database
	log    *logrus.Entry
	tracer opentracing.Tracer
}

// New creates a runtime with the given configuration.
func New(cfg config.Config) *Runtime {
	logger := logrus.New()
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logger.SetLevel(level)
	}
	return &Runtime{
		cfg:    cfg,
		db:     memory.New(),
		log:    logger.WithField("component", "lykiadb"),
		tracer: opentracing.NoopTracer{},
	}
}

// Default creates a runtime with the default configuration.
func Default() *Runtime {
	return New(config.Default())
}

// SetTracer installs a tracer; the default is a no-op tracer.
func (r *Runtime) SetTracer(tracer opentracing.Tracer) {
	r.tracer = tracer
}

// SetLogger replaces the runtime logger.
func (r *Runtime) SetLogger(entry *logrus.Entry) {
	r.log = entry
}

// Database exposes the backing document store for seeding and inspection.
func (r *Runtime) Database() *memory.Database {
	return r.db
}

// Session is a single-threaded evaluation context over the runtime's
// store. Sessions are not safe for concurrent use.
type Session struct {
	ID      uuid.UUID
	runtime *Runtime
	out     *interpreter.Output
	interp  *interpreter.Interpreter
}

// NewSession creates a session with a fresh environment and output sink.
func (r *Runtime) NewSession() *Session {
	out := interpreter.NewOutputWithCap(r.cfg.OutputCap)
	interp := interpreter.New(out, r.db, r.cfg.Stdlib)
	interp.SetEchoPlan(r.cfg.EchoPlan)
	return &Session{
		ID:      uuid.NewV4(),
		runtime: r,
		out:     out,
		interp:  interp,
	}
}

// Run evaluates a program and returns the value of its last top-level
// statement together with the output values buffered so far.
func (s *Session) Run(source string) (value.Value, []value.Value, error) {
	span := s.runtime.tracer.StartSpan("query")
	span.SetTag("session", s.ID.String())
	defer span.Finish()

	log := s.runtime.log.WithField("session", s.ID.String())
	log.WithField("source", source).Debug("evaluating program")

	result, err := s.interp.Run(source)
	if err != nil {
		span.SetTag("error", true)
		log.WithError(err).Debug("program failed")
		return nil, s.out.Values(), err
	}
	return result, s.out.Values(), nil
}

// Output returns the session's buffered output values.
func (s *Session) Output() []value.Value {
	return s.out.Values()
}

// ClearOutput drops the session's buffered output.
func (s *Session) ClearOutput() {
	s.out.Clear()
}
