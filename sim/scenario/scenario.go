// Package scenario loads YAML scenario files and runs them headlessly.
//
// A scenario is a list of timestamped player commands (place, connect, delete,
// upgrade, time-scale, inject) plus a run length. Run replays the commands
// against a Simulator as simulated time passes, ticking in fixed steps.
package scenario

import (
	"bytes"
	"fmt"
	"math"
	"os"
	"sort"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/stacksim/stacksim/sim"
)

// DefaultStepMs is the tick length used when a scenario does not set one.
const DefaultStepMs = 50

// dueEpsilon absorbs float drift when comparing command times to the clock.
const dueEpsilon = 1e-9

// Scenario is a scripted session.
type Scenario struct {
	Name            string    `yaml:"name"`
	DurationSeconds float64   `yaml:"duration_s"` // real seconds fed to the simulator
	StepMs          float64   `yaml:"step_ms,omitempty"`
	TimeScale       *int      `yaml:"time_scale,omitempty"` // initial scale, default 1
	Commands        []Command `yaml:"commands"`
}

// Load reads and validates a scenario file.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scenario: %w", err)
	}
	scn, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", path, err)
	}
	return scn, nil
}

// Parse decodes a scenario with strict field checking and validates it.
func Parse(data []byte) (*Scenario, error) {
	var scn Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scn); err != nil {
		return nil, fmt.Errorf("parsing scenario: %w", err)
	}
	if scn.StepMs == 0 {
		scn.StepMs = DefaultStepMs
	}
	if err := scn.Validate(); err != nil {
		return nil, err
	}
	return &scn, nil
}

// Validate checks the run parameters and every command.
func (s *Scenario) Validate() error {
	if s.DurationSeconds <= 0 {
		return fmt.Errorf("duration_s must be positive, got %g", s.DurationSeconds)
	}
	if s.StepMs <= 0 {
		return fmt.Errorf("step_ms must be positive, got %g", s.StepMs)
	}
	if s.TimeScale != nil {
		if _, err := sim.ParseTimeScale(*s.TimeScale); err != nil {
			return err
		}
	}
	labels := make(map[string]bool)
	for i, c := range s.Commands {
		if err := c.Validate(); err != nil {
			return fmt.Errorf("command %d: %w", i, err)
		}
		if c.Label == "" {
			continue
		}
		if c.Label == string(sim.InternetID) || labels[c.Label] {
			return fmt.Errorf("command %d: label %q is reserved or already used", i, c.Label)
		}
		labels[c.Label] = true
	}
	return nil
}

// Rejection records a command the simulator refused.
type Rejection struct {
	Index   int     `json:"index"`
	Command Command `json:"command"`
	Error   string  `json:"error"`
}

// RunReport summarizes a scenario run.
type RunReport struct {
	Applied  int         `json:"applied"`
	Rejected []Rejection `json:"rejected,omitempty"`
	Pending  int         `json:"pending"` // commands never reached, e.g. while paused
	Ticks    int         `json:"ticks"`
	EndedAt  float64     `json:"ended_at"` // simulated seconds
	GameOver bool        `json:"game_over"`
}

// Run replays scn against s. Commands fire in time order, stable for equal
// times, as soon as the simulated clock reaches them. Rejected commands are
// logged and recorded; they never abort the run. The run stops early on game over.
func Run(s *sim.Simulator, scn *Scenario) (RunReport, error) {
	var report RunReport
	if err := scn.Validate(); err != nil {
		return report, err
	}

	scale := int(sim.ScaleNormal)
	if scn.TimeScale != nil {
		scale = *scn.TimeScale
	}
	if err := s.SetTimeScale(sim.TimeScale(scale)); err != nil {
		return report, err
	}

	order := make([]int, len(scn.Commands))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return scn.Commands[order[a]].At < scn.Commands[order[b]].At
	})

	labels := NewLabels()
	next := 0
	applyDue := func() {
		for next < len(order) && s.Running() {
			idx := order[next]
			cmd := scn.Commands[idx]
			if cmd.At > s.Now()+dueEpsilon {
				return
			}
			next++
			if _, err := Apply(s, labels, cmd); err != nil {
				logrus.Warnf("[t=%.3f] scenario %q: command %d rejected: %v", s.Now(), scn.Name, idx, err)
				report.Rejected = append(report.Rejected, Rejection{Index: idx, Command: cmd, Error: err.Error()})
				continue
			}
			report.Applied++
		}
	}

	step := scn.StepMs / 1000
	steps := int(math.Ceil(scn.DurationSeconds/step - dueEpsilon))
	for i := 0; i < steps; i++ {
		applyDue()
		if !s.Running() {
			break
		}
		s.Tick(step)
		report.Ticks++
	}
	applyDue()

	report.Pending = len(order) - next
	report.EndedAt = s.Now()
	report.GameOver = !s.Running()
	logrus.Infof("scenario %q finished: %d ticks, %d applied, %d rejected, %d pending",
		scn.Name, report.Ticks, report.Applied, len(report.Rejected), report.Pending)
	return report, nil
}
