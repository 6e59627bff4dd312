package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
	"github.com/charmbracelet/wish/activeterm"
	"github.com/charmbracelet/wish/logging"
	"golang.org/x/sync/errgroup"

	"github.com/tomz197/galaxyblaster/internal/api"
	"github.com/tomz197/galaxyblaster/internal/config"
	"github.com/tomz197/galaxyblaster/internal/draw"
	"github.com/tomz197/galaxyblaster/internal/input"
	"github.com/tomz197/galaxyblaster/internal/loop"
	gameconfig "github.com/tomz197/galaxyblaster/internal/loop/config"
	"github.com/tomz197/galaxyblaster/internal/metrics"
	"github.com/tomz197/galaxyblaster/internal/object"
	"github.com/tomz197/galaxyblaster/internal/raster"
	"github.com/tomz197/galaxyblaster/internal/score"
	"github.com/tomz197/galaxyblaster/internal/session"
)

const (
	defaultHost        = "::"
	defaultPort        = "2222"
	defaultHostKeyPath = "/app/keys/host_key"
	defaultScoresPath  = "/app/data/scores.json"
	defaultHTTPAddr    = "127.0.0.1:8081"
	defaultMaxSessions = 64
)

// server holds everything shared by the SSH sessions.
type server struct {
	log         *log.Logger
	scores      score.Store
	sessions    *session.Registry
	metrics     *metrics.Metrics
	admission   *api.IPRateLimiter
	maxSessions int
	field       object.Field
}

func main() {
	if _, err := config.LoadDotEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "reading .env: %v\n", err)
	}
	logger := config.NewLogger(os.Stderr, "ssh")

	if err := run(logger); err != nil {
		logger.Fatal("server stopped", "err", err)
	}
}

func run(logger *log.Logger) error {
	host := config.GetEnv("SSH_HOST", defaultHost)
	port := config.GetEnv("SSH_PORT", defaultPort)
	hostKeyPath := config.GetEnv("SSH_HOST_KEY", defaultHostKeyPath)
	scoresPath := config.GetEnv("SCORES_PATH", defaultScoresPath)
	httpAddr := config.GetEnv("HTTP_ADDR", defaultHTTPAddr)
	logger.Info("config", "host", host, "port", port, "hostKey", hostKeyPath, "scores", scoresPath, "http", httpAddr)

	m := metrics.New()
	srv := &server{
		log:      logger,
		scores:   score.NewFileStore(scoresPath, logger),
		sessions: session.NewRegistry(),
		metrics:  m,
		admission: api.NewIPRateLimiter(api.RateLimitConfig{
			RequestsPerSecond: 0.5,
			Burst:             3,
			IdleAfter:         10 * time.Minute,
		}),
		maxSessions: config.GetEnvInt("MAX_SESSIONS", defaultMaxSessions),
		field:       object.Field{Width: gameconfig.FieldWidth, Height: gameconfig.FieldHeight},
	}
	srv.sessions.OnChange = m.SetSessions
	srv.admission.OnReject = func() { m.RejectConnection("rate_limit") }

	opts := []ssh.Option{
		wish.WithAddress(net.JoinHostPort(host, port)),
		wish.WithMiddleware(
			srv.gameMiddleware,
			activeterm.Middleware(),
			srv.admissionMiddleware,
			logging.StructuredMiddlewareWithLogger(logger, log.InfoLevel),
		),
		// Set TCP_NODELAY to reduce latency for game input
		ssh.WrapConn(func(ctx ssh.Context, conn net.Conn) net.Conn {
			if tcpConn, ok := conn.(*net.TCPConn); ok {
				_ = tcpConn.SetNoDelay(true)
			}
			return conn
		}),
	}
	if hostKeyPath != "" {
		opts = append(opts, wish.WithHostKeyPath(hostKeyPath))
	}

	sshServer, err := wish.NewServer(opts...)
	if err != nil {
		return fmt.Errorf("create ssh server: %w", err)
	}

	hub := api.NewHub(srv.sessions, nil, logger)
	hub.OnCount = m.SetWSConnections
	hub.OnReject = m.RejectConnection
	httpServer := &http.Server{
		Addr: httpAddr,
		Handler: api.NewRouter(api.Config{
			Scores:   srv.scores,
			Sessions: srv.sessions,
			Hub:      hub,
			Metrics:  m,
			Raster:   raster.New(1),
			Logger:   logger,
		}),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("starting ssh server", "addr", sshServer.Addr)
		if err := sshServer.ListenAndServe(); err != nil && !errors.Is(err, ssh.ErrServerClosed) {
			return fmt.Errorf("ssh server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		logger.Info("starting http server", "addr", httpAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		hub.Run(gctx)
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down, notifying players", "sessions", srv.sessions.Len())
		srv.sessions.Shutdown(15 * time.Second)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return errors.Join(sshServer.Shutdown(shutdownCtx), httpServer.Shutdown(shutdownCtx))
	})

	return g.Wait()
}

// admissionMiddleware refuses clients that reconnect too fast or arrive when
// the server is full.
func (srv *server) admissionMiddleware(next ssh.Handler) ssh.Handler {
	return func(sess ssh.Session) {
		ip := api.HostOnly(sess.RemoteAddr().String())
		if !srv.admission.Allow(ip) {
			fmt.Fprintln(sess, "Too many connections, try again in a few seconds.")
			return
		}
		if srv.sessions.Len() >= srv.maxSessions {
			srv.metrics.RejectConnection("capacity")
			fmt.Fprintln(sess, "The server is full, try again later.")
			return
		}
		next(sess)
	}
}

// gameMiddleware runs one game for the session.
func (srv *server) gameMiddleware(next ssh.Handler) ssh.Handler {
	return func(sess ssh.Session) {
		pty, winCh, ok := sess.Pty()
		if !ok {
			fmt.Fprintln(sess, "Error: PTY required. Please connect with: ssh -t user@host")
			return
		}

		user := score.UserKey(sess.User())
		logger := srv.log.With("user", user, "remote", sess.RemoteAddr().String())
		logger.Info("new game session", "term", pty.Term, "cols", pty.Window.Width, "rows", pty.Window.Height)

		sizeTracker := newSizeTracker(pty.Window.Width, pty.Window.Height)
		go func() {
			for win := range winCh {
				sizeTracker.update(win.Width, win.Height)
			}
		}()

		if err := srv.play(sess, user, sizeTracker.getSize, logger); err != nil {
			logger.Error("game error", "err", err)
		}
		logger.Info("session ended")
		next(sess)
	}
}

// play runs one game for sess. user is the session's store key.
func (srv *server) play(sess ssh.Session, user string, size draw.TermSizeFunc, logger *log.Logger) error {
	s := srv.sessions.Register(user)
	defer srv.sessions.Unregister(s.ID)

	restore := draw.Setup(sess)
	defer restore()

	out := draw.NewTerminal(sess, size, srv.field)
	defer out.Close()

	stream := input.StartStream(bufio.NewReader(sess))
	stream.SetPointerMapper(out.PointerToField)

	game := loop.NewGame(loop.Options{
		Field:  srv.field,
		Store:  score.ForUser(srv.scores, user),
		Cues:   srv.metrics.Cues(nil),
		HUD:    s,
		Logger: logger,
	})

	err := loop.Run(sess.Context(), game, s.Input(stream), loop.MultiRenderer{out, s}, loop.RunOptions{
		OnTick: srv.metrics.ObserveFrame,
	})
	logger.Info("game over", "score", game.Score(), "high", game.HighScore())
	return err
}

// sizeTracker tracks terminal size from SSH window change events.
type sizeTracker struct {
	mu     sync.RWMutex
	width  int
	height int
}

func newSizeTracker(width, height int) *sizeTracker {
	return &sizeTracker{width: width, height: height}
}

func (s *sizeTracker) update(width, height int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.width = width
	s.height = height
}

func (s *sizeTracker) getSize() (int, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.width, s.height, nil
}

// Ensure sizeTracker.getSize satisfies draw.TermSizeFunc
var _ draw.TermSizeFunc = (*sizeTracker)(nil).getSize
