package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/nstehr/trackside/trackside-core/calendar"
	"github.com/nstehr/trackside/trackside-core/config"
	"github.com/nstehr/trackside/trackside-core/events"
	"github.com/nstehr/trackside/trackside-core/model"
	"github.com/nstehr/trackside/trackside-core/races"
	"github.com/nstehr/trackside/trackside-core/rules"
	"github.com/nstehr/trackside/trackside-core/scoring"
)

var (
	racesPath     string
	racesDate     string
	racesStrategy string

	resolveEvents    string
	resolveName      string
	resolveType      string
	resolveCharacter string
	resolveCards     []string
	resolveOther     bool
	resolveDay       int
	resolveEnergy    float64
	resolveMood      string

	scoreConfig string
	scoreDate   string
	scoreEnergy float64
	scoreInput  string
)

var racesCmd = &cobra.Command{
	Use:   "races",
	Short: "List the races eligible on a date",
	Long: `Parse a date banner and list the races scheduled that day, marking
which ones pass the strategy filters and the restricted-period rule.

Example usage:
  trackside races --date "Classic Year Late Oct"`,
	RunE: runRaces,
}

var resolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "Resolve an event title against the event maps",
	Long: `Fuzzy-match an event title the way the engine does during a run and
print the chosen option. Conditional choices are evaluated with default
sensor readings (full energy, unknown mood).

Example usage:
  trackside resolve --name "Extra Trainng" --type train_event_scenario`,
	RunE: runResolve,
}

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score training observations",
	Long: `Read a JSON array of training observations (from --input or stdin)
and print the ranked candidates with their score breakdown.

Example usage:
  echo '[{"stat":"spd","supportCounts":{"spd":2}}]' | trackside score --date "Classic Year Early Apr"`,
	RunE: runScore,
}

func init() {
	rootCmd.AddCommand(racesCmd, resolveCmd, scoreCmd)

	racesCmd.Flags().StringVar(&racesPath, "races", "assets/race_list.json", "Race catalog")
	racesCmd.Flags().StringVar(&racesDate, "date", "", "Date banner text, e.g. \"Classic Year Late Oct\"")
	racesCmd.Flags().StringVar(&racesStrategy, "strategy", "assets/strategy.yaml", "Strategy document supplying the filters")
	_ = racesCmd.MarkFlagRequired("date")

	resolveCmd.Flags().StringVar(&resolveEvents, "events", "assets/event_map", "Event map directory")
	resolveCmd.Flags().StringVar(&resolveName, "name", "", "Event title as read from the screen")
	resolveCmd.Flags().StringVar(&resolveType, "type", "", "Detected event category")
	resolveCmd.Flags().StringVar(&resolveCharacter, "character", "None", "Selected character")
	resolveCmd.Flags().StringSliceVar(&resolveCards, "cards", nil, "Selected support cards")
	resolveCmd.Flags().BoolVar(&resolveOther, "search-other", false, "Fall back to the other special events pool")
	resolveCmd.Flags().IntVar(&resolveDay, "day", 0, "Absolute day for day conditions (0 = unknown)")
	resolveCmd.Flags().Float64Var(&resolveEnergy, "energy", 100, "Current energy out of 100 for energy conditions")
	resolveCmd.Flags().StringVar(&resolveMood, "mood", "", "Mood for mood conditions (empty = unknown)")
	_ = resolveCmd.MarkFlagRequired("name")

	scoreCmd.Flags().StringVar(&scoreConfig, "scoring", "assets/scoring.yaml", "Scoring weights document")
	scoreCmd.Flags().StringVar(&scoreDate, "date", "Classic Year Early Jan", "Date banner text")
	scoreCmd.Flags().Float64Var(&scoreEnergy, "energy", 100, "Current energy out of 100")
	scoreCmd.Flags().StringVar(&scoreInput, "input", "", "Observation file (default: stdin)")
}

func runRaces(cmd *cobra.Command, args []string) error {
	d, err := calendar.Parse(racesDate)
	if err != nil {
		return err
	}
	catalog, err := races.Load(racesPath)
	if err != nil {
		return err
	}
	st, _ := config.LoadStrategy(racesStrategy)

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s (day %d, restricted=%t)\n", calendar.Format(d), d.AbsoluteDay, calendar.IsRestricted(d))

	eligible := map[string]bool{}
	for _, r := range catalog.Eligible(d, st.Filters) {
		eligible[r.Name] = true
	}
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "RACE\tGRADE\tTRACK\tDISTANCE\tELIGIBLE")
	for _, r := range catalog.OnDate(d) {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%t\n", r.Name, r.Grade, r.Track, r.Distance, eligible[r.Name])
	}
	return w.Flush()
}

func runResolve(cmd *cobra.Command, args []string) error {
	src, err := events.LoadSources(resolveEvents)
	if err != nil {
		slog.Warn("some event maps were skipped", "dir", resolveEvents, "error", err)
	}
	if len(resolveCards) > config.MaxSupportCards {
		resolveCards = resolveCards[:config.MaxSupportCards]
	}
	db := src.Build(resolveCharacter, resolveCards)
	r := events.NewResolver(db, resolveCharacter)

	detected := model.Category(resolveType)
	if resolveType != "" && !detected.Valid() {
		return fmt.Errorf("unknown event type %q", resolveType)
	}
	sensors := resolveSensors(resolveDay, resolveEnergy, resolveMood)
	if resolveCharacter != "" && !strings.EqualFold(resolveCharacter, events.NoSelection) {
		sensors.Character = resolveCharacter
	}
	res := r.Resolve(resolveName, detected, sensors)
	if !res.Matched && resolveOther {
		res = r.ResolveOther(resolveName, sensors)
	}

	out := cmd.OutOrStdout()
	if !res.Matched {
		fmt.Fprintf(out, "no match for %q (%d events searched), choice %d\n", resolveName, db.Count(), res.Choice)
		return nil
	}
	fmt.Fprintf(out, "event:     %s\n", res.Event)
	fmt.Fprintf(out, "category:  %s\n", res.Category)
	fmt.Fprintf(out, "score:     %.4f (threshold %.2f)\n", res.Score, res.Threshold)
	fmt.Fprintf(out, "choice:    %d (%s)\n", res.Choice, res.Source)
	if res.Rule != "" {
		fmt.Fprintf(out, "rule:      %s\n", res.Rule)
	}
	holding, err := holdingRules(db, res, sensors)
	if err != nil {
		return err
	}
	for _, r := range holding {
		fmt.Fprintf(out, "holds:     %s -> %d  [%s]\n", r.Name, r.Choice, r.ConditionSrc)
	}
	return nil
}

func resolveSensors(day int, energy float64, mood string) rules.Sensors {
	s := rules.Sensors{
		Energy: func() (float64, float64) { return energy, 100 },
		Mood:   func() model.Mood { return model.ParseMood(mood) },
	}
	if day > 0 {
		s.Day = func() int { return day }
	}
	return s
}

// holdingRules lists every conditional rule of the matched event that holds
// for s, in priority order. The first entry is the one Resolve applied.
func holdingRules(db events.Database, res events.Resolution, s rules.Sensors) ([]*rules.Rule, error) {
	if !res.Matched {
		return nil, nil
	}
	for _, rec := range db[res.Category] {
		if rec.Name != res.Event || rec.Choice != nil {
			continue
		}
		engine, err := rules.EngineFor(rec)
		if err != nil {
			return nil, fmt.Errorf("compiling %q: %w", rec.Name, err)
		}
		return engine.Evaluate(rules.NewEnv(s)), nil
	}
	return nil, nil
}

func runScore(cmd *cobra.Command, args []string) error {
	d, err := calendar.Parse(scoreDate)
	if err != nil {
		return err
	}
	sc, _ := config.LoadScoring(scoreConfig)

	var in io.Reader = cmd.InOrStdin()
	if scoreInput != "" {
		f, err := os.Open(scoreInput)
		if err != nil {
			return fmt.Errorf("open observations: %w", err)
		}
		defer f.Close()
		in = f
	}
	var obs []model.TrainingObservation
	if err := json.NewDecoder(in).Decode(&obs); err != nil {
		return fmt.Errorf("decode observations: %w", err)
	}

	snap := model.NewSnapshot(model.MoodUnknown, scoreEnergy, 100, model.Turn{}, d)
	ctx := scoring.NewContext(snap, nil, sc)
	ranked := scoring.Evaluate(obs, ctx)

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s, stage %s, energy %.0f\n", calendar.Format(d), ctx.Stage, scoreEnergy)
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "STAT\tTOTAL\tRAINBOW\tFRIEND\tOTHER\tHINT\tNPC\tBONUS\tPENALTY")
	for _, c := range ranked {
		b := c.Breakdown
		fmt.Fprintf(w, "%s\t%.3f\t%.3f\t%.3f\t%.3f\t%.3f\t%.3f\t%.3f\t%.0f%%\n",
			c.Stat, b.Total, b.Rainbow, b.Friend, b.Other, b.Hint, b.NPC, b.WitBonus+b.CardBonus, b.Penalty*100)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	dec := scoring.Decide(ranked, ctx, config.DefaultStrategy().Strategy().Threshold)
	fmt.Fprintf(out, "decision: %s", dec.Outcome)
	if dec.Outcome == scoring.OutcomeTrain {
		fmt.Fprintf(out, " %s (%s)", dec.Candidate.Stat, dec.Policy)
	}
	fmt.Fprintln(out)
	return nil
}
