package app

import (
	"time"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/gokaraoke/gokaraoke/pkg/player"
)

// game adapts a playback session to ebiten.Game. Update polls the clock
// and feeds the position (adjusted by --sync-ms) to the session; the
// session reports when the song has ended.
type game struct {
	clock  player.Clock
	syncMs int

	timeout time.Duration
	start   time.Time

	update func(posMs int) (bool, error)
	draw   func(screen *ebiten.Image)
	resize func(width, height int)

	lastWidth  int
	lastHeight int
}

func (app *Application) newGame(clock player.Clock, update func(int) (bool, error), resize func(int, int)) *game {
	return &game{
		clock:   clock,
		syncMs:  app.config.SyncMs,
		timeout: app.config.Timeout,
		start:   time.Now(),
		update:  update,
		resize:  resize,
	}
}

func (g *game) position() int {
	pos := g.clock.PositionMs() + g.syncMs
	if pos < 0 {
		return 0
	}
	return pos
}

func (g *game) Update() error {
	if g.timeout > 0 && time.Since(g.start) >= g.timeout {
		return ebiten.Termination
	}
	if ebiten.IsKeyPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}

	done, err := g.update(g.position())
	if err != nil {
		return err
	}
	if done {
		return ebiten.Termination
	}
	return nil
}

func (g *game) Draw(screen *ebiten.Image) {
	g.draw(screen)
}

// Layout runs the display 1:1 with the window and forwards size changes
// to the session, which re-wraps lyrics on resize.
func (g *game) Layout(outsideWidth, outsideHeight int) (int, int) {
	if g.resize != nil && (outsideWidth != g.lastWidth || outsideHeight != g.lastHeight) {
		g.lastWidth = outsideWidth
		g.lastHeight = outsideHeight
		g.resize(outsideWidth, outsideHeight)
	}
	return outsideWidth, outsideHeight
}

// runLoop runs the game to completion, windowed or headless.
func (app *Application) runLoop(g *game, title string, width, height int) error {
	if app.config.Headless {
		return app.runHeadless(g)
	}

	ebiten.SetWindowSize(width, height)
	ebiten.SetWindowTitle("gokaraoke - " + title)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetTPS(app.config.FPS)

	// RunGame returns nil when Update terminates the loop.
	return ebiten.RunGame(g)
}

// runHeadless polls the session on a frame ticker without any display.
// Audio players have already been muted by the callers.
func (app *Application) runHeadless(g *game) error {
	app.log.Info("Headless mode: no window")

	interval := time.Second / time.Duration(app.config.FPS)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for range ticker.C {
		if g.timeout > 0 && time.Since(g.start) >= g.timeout {
			app.log.Info("Timeout reached, terminating")
			return nil
		}

		done, err := g.update(g.position())
		if err != nil {
			return err
		}
		if done {
			app.log.Info("Playback finished")
			return nil
		}
	}
	return nil
}
