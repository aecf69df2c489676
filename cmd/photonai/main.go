package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/lachiemurray/PhotonAi/internal/bot"
	"github.com/lachiemurray/PhotonAi/internal/game"
	"github.com/lachiemurray/PhotonAi/internal/metrics"
	"github.com/lachiemurray/PhotonAi/internal/relay"
	"github.com/lachiemurray/PhotonAi/internal/scenario"
	"github.com/lachiemurray/PhotonAi/internal/schema"
	"github.com/lachiemurray/PhotonAi/internal/storage"
	"github.com/lachiemurray/PhotonAi/internal/world"
)

var (
	dataDir   string
	listen    string
	noSave    bool
	schemaOut string
	plot      bool
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
	valueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("255"))
)

func main() {
	log.SetFlags(0)
	log.SetPrefix("photonai: ")

	rootCmd := &cobra.Command{
		Use:   "photonai",
		Short: "multi-agent space combat simulator",
	}
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".photonai", "data directory")

	runCmd := &cobra.Command{
		Use:   "run [scenario.yaml]",
		Short: "run a game",
		Args:  cobra.ExactArgs(1),
		RunE:  runGame,
	}
	runCmd.Flags().StringVar(&listen, "listen", "", "serve the live step stream over websocket on this address")
	runCmd.Flags().BoolVar(&noSave, "no-save", false, "do not persist the run")

	botCmd := &cobra.Command{
		Use:   "bot [handler]",
		Short: "serve a built-in bot over stdin/stdout (for subprocess scenarios)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := bot.NewHandler(args[0])
			if err != nil {
				return err
			}
			return bot.Serve(os.Stdin, os.Stdout, h)
		},
	}

	schemaCmd := &cobra.Command{
		Use:   "schema",
		Short: "emit the JSON schema of the bot wire records",
		RunE:  emitSchema,
	}
	schemaCmd.Flags().StringVar(&schemaOut, "out", "", "write schema to this path instead of stdout")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		RunE:  listRuns,
	}

	replayCmd := &cobra.Command{
		Use:   "replay [run_id]",
		Short: "inspect a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  replayRun,
	}
	replayCmd.Flags().BoolVar(&plot, "plot", false, "plot live body counts over time")

	rootCmd.AddCommand(runCmd, botCmd, schemaCmd, listCmd, replayCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runGame(cmd *cobra.Command, args []string) error {
	sc, err := scenario.Load(args[0])
	if err != nil {
		return err
	}
	setup, err := sc.Build()
	if err != nil {
		return err
	}
	driver, err := game.NewDriver(setup)
	if err != nil {
		for _, ship := range setup.Ships {
			ship.Channel.Close()
		}
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	collected := []metrics.Metric{
		&metrics.PelletsFired{},
		&metrics.Destructions{},
		metrics.NewBodyCount(world.KindShip),
		metrics.NewBodyCount(world.KindPellet),
	}
	observers := make([]metrics.Observer, 0, len(collected)+1)
	for _, m := range collected {
		observers = append(observers, m)
	}

	var server *http.Server
	if listen != "" {
		hub := relay.NewHub()
		observers = append(observers, hub)
		server = &http.Server{Addr: listen, Handler: hub}
		go func() {
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("relay: %v", err)
			}
		}()
		defer func() {
			hub.Close()
			server.Close()
		}()
	}

	fmt.Printf("running %s...\n", sc.Name)
	start := time.Now()

	var steps []*world.Step
	err = driver.Run(ctx, func(step *world.Step) error {
		steps = append(steps, step)
		for _, o := range observers {
			o.OnStep(step, driver.World())
		}
		return nil
	})
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	values := make(map[string]float64, len(collected))
	for _, m := range collected {
		values[m.Name()] = m.Value()
	}

	runID := "(not saved)"
	if !noSave {
		st := storage.New(dataDir)
		if err := st.Init(); err != nil {
			return err
		}
		runID, err = st.Save(sc.Name, sc.StepDuration, sc.Space.Lifetime, steps, values)
		if err != nil {
			return err
		}
	}

	fmt.Println(titleStyle.Render("game complete"))
	printField("run id", runID)
	printField("steps", fmt.Sprintf("%d", len(steps)))
	printField("elapsed", elapsed.Round(time.Millisecond).String())
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		printField(name, fmt.Sprintf("%.0f", values[name]))
	}
	return nil
}

func printField(label, value string) {
	fmt.Printf("  %s %s\n", labelStyle.Render(label+":"), valueStyle.Render(value))
}

func emitSchema(cmd *cobra.Command, args []string) error {
	data, err := json.MarshalIndent(schema.Build(), "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	if schemaOut == "" {
		_, err = os.Stdout.Write(data)
		return err
	}
	return os.WriteFile(schemaOut, data, 0o644)
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSCENARIO\tTIME\tLIFETIME\tDT\tSTEPS")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%.2fs\t%.4fs\t%d\n",
			run.ID,
			run.Scenario,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Lifetime,
			run.Dt,
			run.Steps,
		)
	}
	return w.Flush()
}

func replayRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	steps, err := st.LoadSteps(args[0])
	if err != nil {
		return err
	}
	if len(steps) == 0 {
		return fmt.Errorf("run %s has no steps", args[0])
	}

	// Rebuild the world from the log; the counts come out exactly as
	// they were during the live run.
	w := world.New()
	counters := []*metrics.BodyCount{
		metrics.NewBodyCount(world.KindShip),
		metrics.NewBodyCount(world.KindPellet),
	}
	var total float64
	for _, step := range steps {
		if err := w.Apply(step); err != nil {
			return fmt.Errorf("replay: %w", err)
		}
		for _, c := range counters {
			c.OnStep(step, w)
		}
		total += step.Duration
	}

	fmt.Println(titleStyle.Render("run " + args[0]))
	printField("steps", fmt.Sprintf("%d", len(steps)))
	printField("simulated", fmt.Sprintf("%.2fs", total))
	printField("final bodies", fmt.Sprintf("%d", len(w.Objects)))

	if plot {
		for _, c := range counters {
			fmt.Println()
			fmt.Println(asciigraph.Plot(c.Series(),
				asciigraph.Height(10),
				asciigraph.Width(80),
				asciigraph.Caption(c.Name()+" over time"),
			))
		}
	}
	return nil
}
