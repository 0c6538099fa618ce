// Package server wires the transports to the hub: it owns the HTTP listener
// with the WebSocket endpoint, the optional framed TCP listener, and the
// per-connection read loops feeding the dispatcher.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"textanon/pkg/config"
	"textanon/pkg/hub"
	"textanon/pkg/protocol/codec"
	"textanon/pkg/transport"
	"textanon/pkg/transport/tcpframe"
	"textanon/pkg/transport/ws"
)

// Server accepts connections and drives them through the hub.
type Server struct {
	cfg  config.ServerConfig
	hub  *hub.Hub
	disp *Dispatcher
	log  *zap.Logger

	httpSrv  *http.Server
	tcpCodec codec.Codec
}

// New builds a Server. log may be nil for zap.L().
func New(cfg config.ServerConfig, h *hub.Hub, log *zap.Logger) (*Server, error) {
	if log == nil {
		log = zap.L()
	}
	tcpCodec, err := codec.ByName(cfg.TCPCodec)
	if err != nil {
		return nil, fmt.Errorf("tcp codec: %w", err)
	}
	s := &Server{
		cfg:      cfg,
		hub:      h,
		disp:     NewDispatcher(h, log),
		log:      log,
		tcpCodec: tcpCodec,
	}

	mux := http.NewServeMux()
	mux.HandleFunc(cfg.WSPath, s.handleWS)
	mux.HandleFunc("/healthz", s.handleHealth)
	s.httpSrv = &http.Server{Addr: cfg.WSListen, Handler: mux}
	return s, nil
}

// Run serves until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 2)

	go func() {
		s.log.Info("http listener up", zap.String("addr", s.cfg.WSListen), zap.String("path", s.cfg.WSPath))
		if err := s.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	if s.cfg.TCPListen != "" {
		tl, err := tcpframe.Listen(ctx, s.cfg.TCPListen, tcpframe.Options{
			Codec:        s.tcpCodec,
			SendBuffer:   s.cfg.SendBuffer,
			WriteTimeout: time.Duration(s.cfg.WriteTimeoutMS) * time.Millisecond,
		}, s.log)
		if err != nil {
			return fmt.Errorf("tcp listen: %w", err)
		}
		s.log.Info("tcp listener up", zap.String("addr", tl.Addr().String()), zap.String("codec", s.tcpCodec.ContentType()))
		go s.acceptTCP(tl)
	}

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(),
		time.Duration(s.cfg.ShutdownTimeoutMS)*time.Millisecond)
	defer cancel()
	return s.httpSrv.Shutdown(shutdownCtx)
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := ws.Upgrade(w, r, ws.Options{
		SendBuffer:   s.cfg.SendBuffer,
		WriteTimeout: time.Duration(s.cfg.WriteTimeoutMS) * time.Millisecond,
		PingInterval: time.Duration(s.cfg.PingIntervalMS) * time.Millisecond,
		ReadLimit:    s.cfg.ReadLimitBytes,
	}, s.log)
	if err != nil {
		s.log.Debug("upgrade failed", zap.String("remote", r.RemoteAddr), zap.Error(err))
		return
	}
	s.serve(conn, codec.JSON())
}

func (s *Server) acceptTCP(tl *tcpframe.Listener) {
	for {
		conn, err := tl.Accept()
		if err != nil {
			return
		}
		go s.serve(conn, s.tcpCodec)
	}
}

// serve runs one connection's lifetime: register with the hub, pump inbound
// frames through the dispatcher, and run disconnect handling when the link
// drops.
func (s *Server) serve(conn interface {
	transport.Conn
	ReadLoop(func(raw []byte))
}, cdc codec.Codec) {
	id := s.hub.Connect(conn)
	conn.ReadLoop(func(raw []byte) {
		s.disp.Dispatch(id, conn, raw, cdc)
	})
	s.hub.Disconnect(id)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprintf(w, `{"connections":%d,"waiting":%d,"pairs":%d}`,
		s.hub.Connections(), s.hub.Waiting(), s.hub.Pairs())
}
