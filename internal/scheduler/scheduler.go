package scheduler

import (
	"context"
	"fmt"
	"log"
	"math"
	"sort"
	"strings"

	"CostOfCapital/internal/aggregate"
	"CostOfCapital/internal/compare"
	"CostOfCapital/internal/model"
	"CostOfCapital/internal/notifier"
	"CostOfCapital/internal/params"
	"CostOfCapital/internal/recorder"
	"CostOfCapital/internal/report"

	"github.com/robfig/cron/v3"
)

// DriftVariable is the overall corporate variable tracked between runs.
const DriftVariable = "mettr"

// Scenario is a reform evaluated on a schedule.
type Scenario struct {
	Name       string
	Adjustment string // file, URL or inline JSON
	Cron       string
}

// Scheduler runs scenarios on cron schedules and reports drift in their
// results between runs.
type Scheduler struct {
	Cron      *cron.Cron
	Runner    compare.Runner
	Schema    *params.Schema
	Fetcher   params.Fetcher
	Notifier  notifier.Notifier
	Recorder  recorder.Recorder
	Year      int
	Tolerance float64 // percentage points
	Ctx       context.Context

	scenarios map[string]Scenario
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, runner compare.Runner, schema *params.Schema, year int,
	n notifier.Notifier, rec recorder.Recorder, tolerance float64) *Scheduler {
	return &Scheduler{
		Cron:      cron.New(cron.WithSeconds()),
		Runner:    runner,
		Schema:    schema,
		Notifier:  n,
		Recorder:  rec,
		Year:      year,
		Tolerance: tolerance,
		Ctx:       ctx,
		scenarios: make(map[string]Scenario),
	}
}

// RegisterAll registers one task per scenario.
func (s *Scheduler) RegisterAll(scenarios []Scenario) error {
	for _, sc := range scenarios {
		if _, dup := s.scenarios[sc.Name]; dup {
			return fmt.Errorf("register %s task: duplicate scenario", sc.Name)
		}
		if _, err := s.Cron.AddFunc(sc.Cron, func() { s.task(sc) }); err != nil {
			return fmt.Errorf("register %s task: %w", sc.Name, err)
		}
		s.scenarios[sc.Name] = sc
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Printf("[INFO] scheduler started with %d scenario(s)", len(s.scenarios))
}

// Stop stops the cron scheduler gracefully.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	log.Println("[INFO] scheduler stopped")
}

// RunNow evaluates the named scenario immediately.
func (s *Scheduler) RunNow(name string) (*compare.Comparison, error) {
	sc, ok := s.scenarios[name]
	if !ok {
		return nil, fmt.Errorf("unknown scenario %q", name)
	}
	return s.Evaluate(sc)
}

// RunAllNow evaluates every registered scenario once (RUN_ON_START).
func (s *Scheduler) RunAllNow() {
	for _, name := range s.names() {
		s.task(s.scenarios[name])
	}
}

func (s *Scheduler) task(sc Scenario) {
	log.Printf("[INFO] running scenario %s", sc.Name)
	if _, err := s.Evaluate(sc); err != nil {
		log.Printf("[ERROR] scenario %s: %v", sc.Name, err)
		s.trySend(notifier.Message{Level: notifier.LevelFailure, Title: sc.Name + " failed", Lines: []string{err.Error()}})
	}
}

// Evaluate runs sc against the baseline, records the result and sends an
// alert when the tracked change moved by more than the tolerance since the
// previous recorded run.
func (s *Scheduler) Evaluate(sc Scenario) (*compare.Comparison, error) {
	adj, err := params.ReadAdjustment(sc.Adjustment, s.Fetcher)
	if err != nil {
		return nil, err
	}
	prev, hadPrev, err := s.Recorder.LatestOverall(sc.Name, model.Corporate, model.Mix, DriftVariable)
	if err != nil {
		log.Printf("[WARN] read previous %s result: %v", sc.Name, err)
		hadPrev = false
	}

	c, err := compare.Reform(s.Ctx, s.Runner, s.Schema, adj, s.Year)
	if err != nil {
		return nil, err
	}
	s.record(sc, c)

	cur, ok := c.Find(aggregate.ByEntity, model.OverallKey, model.Corporate, model.Mix, DriftVariable)
	if !ok {
		return c, fmt.Errorf("scenario %s: no overall corporate %s row", sc.Name, DriftVariable)
	}

	summary := report.FormatSummary(c, DriftVariable)
	switch {
	case !hadPrev:
		s.trySend(notifier.Message{Level: notifier.LevelReport, Title: sc.Name + " first run", Block: summary})
	case Drifted(prev.ChangePP, cur.ChangePP, s.Tolerance):
		log.Printf("[WARN] scenario %s drifted: %.4f pp -> %.4f pp", sc.Name, prev.ChangePP, cur.ChangePP)
		s.trySend(notifier.Message{
			Level: notifier.LevelDrift,
			Title: sc.Name + " drift",
			Lines: []string{fmt.Sprintf("Overall corporate %s change: %+.4f pp -> %+.4f pp (tolerance %.4f pp)",
				DriftVariable, prev.ChangePP, cur.ChangePP, s.Tolerance)},
			Block: summary,
		})
	default:
		log.Printf("[INFO] scenario %s within tolerance: %+.4f pp", sc.Name, cur.ChangePP)
	}
	return c, nil
}

// Drifted reports whether cur differs from prev by more than tolerance. A
// change between finite and non-finite always counts.
func Drifted(prev, cur, tolerance float64) bool {
	if math.IsNaN(prev) || math.IsNaN(cur) {
		return math.IsNaN(prev) != math.IsNaN(cur)
	}
	return math.Abs(cur-prev) > tolerance
}

func (s *Scheduler) record(sc Scenario, c *compare.Comparison) {
	runs := []*recorder.RunRecord{
		{ID: c.Baseline.RunID, Scenario: sc.Name, Role: recorder.RoleBaseline, Year: c.Baseline.Year},
		{ID: c.Reform.RunID, Scenario: sc.Name, Role: recorder.RoleReform, Year: c.Reform.Year, Adjustment: sc.Adjustment},
	}
	for _, run := range runs {
		if err := s.Recorder.RecordRun(run); err != nil {
			log.Printf("[ERROR] record run: %v", err)
		}
	}
	for _, name := range aggregate.TableNames {
		if err := s.Recorder.RecordAggregates(c.Baseline.RunID, name, c.Baseline.Tables[name].Rows); err != nil {
			log.Printf("[ERROR] record baseline %s: %v", name, err)
		}
		if err := s.Recorder.RecordAggregates(c.Reform.RunID, name, c.Reform.Tables[name].Rows); err != nil {
			log.Printf("[ERROR] record reform %s: %v", name, err)
		}
	}
	if err := s.Recorder.RecordDiff(c.ID, sc.Name, c.Diffs[aggregate.ByEntity]); err != nil {
		log.Printf("[ERROR] record diff: %v", err)
	}
}

// HandleCommand processes a chat command and returns a reply.
func (s *Scheduler) HandleCommand(ctx context.Context, command string) notifier.Message {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return notifier.Message{}
	}
	switch fields[0] {
	case "/status":
		var lines []string
		for _, name := range s.names() {
			d, ok, err := s.Recorder.LatestOverall(name, model.Corporate, model.Mix, DriftVariable)
			switch {
			case err != nil:
				lines = append(lines, fmt.Sprintf("%s: error %v", name, err))
			case !ok:
				lines = append(lines, name+": no runs yet")
			default:
				lines = append(lines, fmt.Sprintf("%s: %s %+.2f pp", name, DriftVariable, d.ChangePP))
			}
		}
		if len(lines) == 0 {
			return notifier.Reply("no scenarios configured")
		}
		return notifier.Reply(lines...)
	case "/run":
		if len(fields) < 2 {
			return notifier.Reply("usage: /run <scenario>")
		}
		if ctx.Err() != nil {
			return notifier.Message{}
		}
		c, err := s.RunNow(fields[1])
		if err != nil {
			return notifier.Message{Level: notifier.LevelFailure, Title: fields[1], Lines: []string{err.Error()}}
		}
		return notifier.Message{Level: notifier.LevelReport, Title: fields[1], Block: report.FormatSummary(c, DriftVariable)}
	default:
		return notifier.Reply("commands:", "• /status", "• /run <scenario>")
	}
}

func (s *Scheduler) names() []string {
	names := make([]string, 0, len(s.scenarios))
	for name := range s.scenarios {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (s *Scheduler) trySend(msg notifier.Message) {
	if err := s.Notifier.Notify(s.Ctx, msg); err != nil {
		log.Printf("[ERROR] send notification: %v", err)
	}
}
