package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"gridwalk/internal/app"
	"gridwalk/internal/collision"
	"gridwalk/internal/geom"
	"gridwalk/internal/logging"
	"gridwalk/internal/pathing"
	"gridwalk/internal/telemetry"

	"github.com/urfave/cli/v3"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newCommand().Run(ctx, os.Args); err != nil {
		logging.Log.WithError(err).Error("gridwalk failed")
		os.Exit(1)
	}
}

func newCommand() *cli.Command {
	return &cli.Command{
		Name:  "gridwalk",
		Usage: "tile-grid pathfinding and movement tools",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Value:   "config.yaml",
				Usage:   "configuration file",
			},
			&cli.StringFlag{
				Name:  "map",
				Usage: "map key to activate (defaults to world.start_map)",
			},
		},
		Commands: []*cli.Command{
			planCommand(),
			simulateCommand(),
			statsCommand(),
		},
	}
}

func loadRuntime(ctx context.Context, cmd *cli.Command) (*app.Runtime, error) {
	return app.Load(ctx, cmd.String("config"), cmd.String("map"))
}

// parseTile reads "x,y" in movement tiles
func parseTile(s string) (geom.Point, error) {
	xs, ys, ok := strings.Cut(s, ",")
	if !ok {
		return geom.Point{}, fmt.Errorf("tile %q is not x,y", s)
	}
	x, err := strconv.Atoi(strings.TrimSpace(xs))
	if err != nil {
		return geom.Point{}, fmt.Errorf("tile %q: %w", s, err)
	}
	y, err := strconv.Atoi(strings.TrimSpace(ys))
	if err != nil {
		return geom.Point{}, fmt.Errorf("tile %q: %w", s, err)
	}
	return geom.Point{X: x, Y: y}, nil
}

func planCommand() *cli.Command {
	return &cli.Command{
		Name:  "plan",
		Usage: "compare the ideal and the rerouted path between two tiles",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "from", Usage: "source tile x,y", Required: true},
			&cli.StringFlag{Name: "to", Usage: "destination tile x,y", Required: true},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			from, err := parseTile(cmd.String("from"))
			if err != nil {
				return err
			}
			to, err := parseTile(cmd.String("to"))
			if err != nil {
				return err
			}

			rt, err := loadRuntime(ctx, cmd)
			if err != nil {
				return err
			}
			defer rt.Close()

			nav := rt.World.Nav
			planner := nav.Planner()
			src, dst := planner.PixelOf(from), planner.PixelOf(to)
			tile := nav.MovementTileSize()

			ideal := nav.FindBestPath(src, dst)
			printPath(cmd, "ideal", src, ideal, tile)
			fmt.Fprintf(cmd.Root().Writer, "matrix distance: %.3f\n", planner.Distance(from, to))

			size := geom.Size{W: 1, H: 1}
			occ := pathing.OccupancyFunc(func(tiles geom.Rect) bool {
				return nav.Grid().CanOccupyTiles(tiles, collision.FreeTile)
			})
			rerouted, stats := nav.Finder().Search(occ, pathing.Request{Source: src, Destination: dst, Footprint: size})
			printPath(cmd, "rerouted", src, rerouted, tile)
			fmt.Fprintf(cmd.Root().Writer, "search: expanded=%d pushed=%d found=%v elapsed=%s\n",
				stats.Expanded, stats.Pushed, stats.Found, stats.Elapsed)
			return nil
		},
	}
}

func printPath(cmd *cli.Command, label string, src geom.Point, p pathing.Path, tile int) {
	w := cmd.Root().Writer
	if p.Empty() {
		fmt.Fprintf(w, "%s: no path\n", label)
		return
	}
	cells := make([]string, 0, p.Len())
	for _, wp := range p.Waypoints() {
		cells = append(cells, fmt.Sprintf("(%d,%d)", wp.X/tile, wp.Y/tile))
	}
	fmt.Fprintf(w, "%s: %d steps, cost %.3f: %s\n", label, p.Len(), p.Cost(src, tile), strings.Join(cells, " "))
}

func simulateCommand() *cli.Command {
	return &cli.Command{
		Name:  "simulate",
		Usage: "run the world headless with actors wandering between random tiles",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "ticks", Usage: "ticks to run, 0 uses simulation.max_ticks"},
			&cli.IntFlag{Name: "seed", Value: 1, Usage: "random seed for destinations"},
			&cli.BoolFlag{Name: "serve", Usage: "stream telemetry over websocket and run in real time"},
			&cli.StringFlag{Name: "addr", Usage: "telemetry listen address (defaults to telemetry.addr)"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			rt, err := loadRuntime(ctx, cmd)
			if err != nil {
				return err
			}
			defer rt.Close()

			ticks := cmd.Int("ticks")
			if ticks <= 0 {
				ticks = rt.Config.Simulation.MaxTicks
			}
			sim := app.NewSimulator(rt, int64(cmd.Int("seed")))

			realtime := cmd.Bool("serve")
			if realtime {
				addr := cmd.String("addr")
				if addr == "" {
					addr = rt.Config.Telemetry.Addr
				}
				hub := telemetry.NewHub()
				server, err := telemetry.Listen(addr, hub)
				if err != nil {
					return err
				}
				serveCtx, cancel := context.WithCancel(ctx)
				defer cancel()
				go func() {
					if err := server.Serve(serveCtx); err != nil {
						logging.Log.WithError(err).Error("telemetry server failed")
					}
				}()
				sim.SetHub(hub)
				fmt.Fprintf(cmd.Root().Writer, "telemetry on ws://%s/ws\n", server.Addr())
			}

			report, err := sim.Run(ctx, ticks, realtime)
			printReport(cmd, report)
			if err != nil && ctx.Err() == nil {
				return err
			}
			return nil
		},
	}
}

func printReport(cmd *cli.Command, r app.Report) {
	w := cmd.Root().Writer
	m := r.Metrics
	fmt.Fprintf(w, "ticks: %d (%s simulated)\n", r.Ticks, r.SimulatedTime)
	fmt.Fprintf(w, "actors: %d  arrivals: %d\n", r.Actors, r.Arrivals)
	fmt.Fprintf(w, "searches: ideal=%d rerouted=%d failed=%d nodes=%d\n",
		m.IdealSearches, m.ReroutedSearches, m.FailedSearches, m.NodesExpanded)
	fmt.Fprintf(w, "reroutes: %d  reservation conflicts: %d\n", m.Reroutes, m.ReservationFails)
	fmt.Fprintf(w, "search time: avg %s peak %s\n", m.AvgSearchTime, m.PeakSearchTime)
}

func statsCommand() *cli.Command {
	return &cli.Command{
		Name:  "stats",
		Usage: "print grid and route matrix statistics for a map",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			rt, err := loadRuntime(ctx, cmd)
			if err != nil {
				return err
			}
			defer rt.Close()

			w := cmd.Root().Writer
			nav := rt.World.Nav
			grid := nav.Grid()
			gw, gh := grid.Dimensions()
			cells := gw * gh
			m := rt.Monitor.Snapshot()
			md, _ := rt.World.CurrentMap()

			fmt.Fprintf(w, "map: %s (%dx%d render tiles)\n", rt.World.CurrentMapKey, md.Width, md.Height)
			fmt.Fprintf(w, "grid: %dx%d cells of %dpx\n", gw, gh, grid.TileSize())
			fmt.Fprintf(w, "obstacle cells: %d  actor cells: %d  free: %d\n",
				grid.Count(collision.KindObstacle), grid.Count(collision.KindActor), grid.Count(collision.KindFree))
			fmt.Fprintf(w, "actors: %d  obstacles placed: %d\n", len(rt.World.Handles()), len(md.Obstacles))
			fmt.Fprintf(w, "route matrices: %d entries each, ~%.1f MiB\n",
				cells*cells, float64(cells*cells*(8+4))/(1<<20))
			fmt.Fprintf(w, "plan time: %s with %d workers\n", m.LastPlanTime, rt.Pool.NumWorkers())
			return nil
		},
	}
}
