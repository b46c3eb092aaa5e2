package main

import (
	"context"
	"os"

	"github.com/allbabel/remittance"
	"github.com/allbabel/remittance/errors"
	"github.com/allbabel/remittance/store/iavl"
	"github.com/allbabel/remittance/x/cash"
	remit "github.com/allbabel/remittance/x/remittance"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/tendermint/tendermint/libs/log"
)

// dbName is the name of the database within the home directory.
const dbName = "remittance"

// state gives access to the escrow stored in the home directory. Changes
// are persisted only by calling commit.
type state struct {
	store    iavl.CommitStore
	bank     cash.Controller
	engine   *remit.Engine
	handler  remit.Handler
	registry *prometheus.Registry
	ctx      context.Context
}

func openState(home string) (*state, error) {
	if err := os.MkdirAll(home, 0700); err != nil {
		return nil, errors.Wrapf(errors.ErrDatabase, "home directory: %s", err)
	}
	commit, err := iavl.NewCommitStore(home, dbName)
	if err != nil {
		return nil, err
	}
	logger := newLogger()
	registry := prometheus.NewRegistry()
	bank := cash.NewController(cash.NewBucket())
	engine := remit.NewEngine(commit.Adapter(), remittance.SystemClock{}, bank,
		remit.WithMetrics(remit.NewMetrics(registry)),
		remit.WithEventSink(eventLogger{logger: logger}))
	return &state{
		store:    commit,
		bank:     bank,
		engine:   engine,
		handler:  remit.NewHandler(engine),
		registry: registry,
		ctx:      remittance.WithLogger(context.Background(), logger),
	}, nil
}

// commit persists all changes made since the state was opened.
func (s *state) commit() error {
	id, err := s.store.Commit()
	if err != nil {
		return err
	}
	remittance.GetLogger(s.ctx).Debug("state committed", "version", id.Version)
	return nil
}

func (s *state) close() {
	if err := s.writeMetrics(); err != nil {
		remittance.GetLogger(s.ctx).Error("cannot write metrics", "err", err)
	}
	s.store.Close()
}

// writeMetrics dumps the counters of this invocation to the file named by
// REMITCLI_METRICS, in the format of the node exporter textfile collector.
// Nothing is written when the variable is not set.
func (s *state) writeMetrics() error {
	path := env("REMITCLI_METRICS", "")
	if path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, s.registry); err != nil {
		return errors.Wrapf(errors.ErrInput, "metrics file: %s", err)
	}
	return nil
}

// handle executes the message and commits the result.
func (s *state) handle(from remittance.Address, msg remit.Msg) (*remit.Result, error) {
	res, err := s.handler.Handle(s.ctx, from, msg)
	if err != nil {
		return nil, err
	}
	if err := s.commit(); err != nil {
		return nil, err
	}
	return res, nil
}

// newLogger returns a logger writing to stderr. The level is taken from
// the REMITCLI_LOG environment variable and defaults to error, so that the
// output of the commands stays clean.
func newLogger() log.Logger {
	logger := log.NewTMLogger(log.NewSyncWriter(os.Stderr))
	level, err := log.AllowLevel(env("REMITCLI_LOG", "error"))
	if err != nil {
		level = log.AllowError()
	}
	return log.NewFilter(logger, level)
}

// eventLogger writes every published event to the log at info level.
type eventLogger struct {
	logger log.Logger
}

func (l eventLogger) Emit(e remit.Event) {
	keyvals := make([]interface{}, 0, 2*len(e.Attributes))
	for _, kv := range e.Attributes {
		keyvals = append(keyvals, string(kv.Key), string(kv.Value))
	}
	l.logger.Info(e.Kind, keyvals...)
}
