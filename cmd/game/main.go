package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/term"

	"github.com/tomz197/galaxyblaster/internal/audio"
	"github.com/tomz197/galaxyblaster/internal/config"
	"github.com/tomz197/galaxyblaster/internal/draw"
	"github.com/tomz197/galaxyblaster/internal/input"
	"github.com/tomz197/galaxyblaster/internal/loop"
	gameconfig "github.com/tomz197/galaxyblaster/internal/loop/config"
	"github.com/tomz197/galaxyblaster/internal/object"
	"github.com/tomz197/galaxyblaster/internal/score"
	"github.com/tomz197/galaxyblaster/internal/screen"
)

type options struct {
	renderer  string
	mute      bool
	scorePath string
	seed      uint64
	logPath   string
}

func main() {
	if _, err := config.LoadDotEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "reading .env: %v\n", err)
	}

	var opts options
	flag.StringVar(&opts.renderer, "renderer", config.GetEnv("GALAXY_RENDERER", "tcell"), "terminal backend: tcell or ansi")
	flag.BoolVar(&opts.mute, "mute", config.GetEnvBool("GALAXY_MUTE", false), "start with sound off")
	flag.StringVar(&opts.scorePath, "highscore", config.GetEnv("GALAXY_HIGHSCORE", defaultScorePath()), "high score file")
	flag.Uint64Var(&opts.seed, "seed", 0, "random seed, 0 picks one")
	flag.StringVar(&opts.logPath, "log", config.GetEnv("GALAXY_LOG", ""), "write logs to this file")
	flag.Parse()

	if err := run(opts); err != nil {
		fmt.Fprintf(os.Stderr, "game error: %v\n", err)
		os.Exit(1)
	}
}

func defaultScorePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "galaxyblaster-scores.json"
	}
	return filepath.Join(dir, "galaxyblaster", "scores.json")
}

func run(opts options) error {
	// The terminal belongs to the game, so logs go to a file or nowhere.
	var logOut io.Writer = io.Discard
	if opts.logPath != "" {
		f, err := os.OpenFile(opts.logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		defer f.Close()
		logOut = f
	}
	logger := config.NewLogger(logOut, "galaxyblaster")

	sound := audio.NewSoundManager(logger)
	if err := sound.Initialize(); err != nil {
		logger.Warn("audio unavailable, continuing silently", "err", err)
	}
	defer sound.Cleanup()

	seed := opts.seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	logger.Info("starting", "renderer", opts.renderer, "seed", seed, "scores", opts.scorePath)

	field := object.Field{Width: gameconfig.FieldWidth, Height: gameconfig.FieldHeight}
	game := loop.NewGame(loop.Options{
		Field:  field,
		Rand:   rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		Store:  score.ForUser(score.NewFileStore(opts.scorePath, logger), score.LocalUser),
		Cues:   sound,
		Logger: logger,
		Muted:  opts.mute,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch opts.renderer {
	case "tcell":
		return runTcell(ctx, game, field, logger)
	case "ansi":
		return runANSI(ctx, game, field)
	default:
		return fmt.Errorf("unknown renderer %q", opts.renderer)
	}
}

func runTcell(ctx context.Context, game *loop.Game, field object.Field, logger *log.Logger) error {
	sc, err := screen.Open(field)
	if err != nil {
		return err
	}
	defer sc.Close()

	err = loop.Run(ctx, game, sc, sc, loop.RunOptions{})
	logger.Info("finished", "score", game.Score(), "high", game.HighScore())
	return err
}

func runANSI(ctx context.Context, game *loop.Game, field object.Field) error {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return errors.New("ansi renderer needs an interactive terminal")
	}
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return fmt.Errorf("enable raw mode: %w", err)
	}
	defer func() {
		_ = term.Restore(fd, oldState)
	}()

	restore := draw.Setup(os.Stdout)
	defer restore()

	out := draw.NewTerminal(os.Stdout, draw.DefaultTermSizeFunc, field)
	defer out.Close()

	stream := input.StartStream(bufio.NewReader(os.Stdin))
	stream.SetPointerMapper(out.PointerToField)

	return loop.Run(ctx, game, stream, out, loop.RunOptions{})
}
