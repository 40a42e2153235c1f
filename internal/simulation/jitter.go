package simulation

import (
	"math/rand/v2"
	"time"

	"github.com/Dicommunitas/terminal-3d-core/internal/entity"
	"github.com/Dicommunitas/terminal-3d-core/internal/events"
)

// JitterConfig tunes the random-mutation driver.
type JitterConfig struct {
	Enabled  bool
	Interval time.Duration

	// LevelAmplitude is the maximum per-pulse change to a tank level,
	// as a fill fraction.
	LevelAmplitude float64

	// TemperatureAmplitude is the maximum per-pulse temperature drift.
	TemperatureAmplitude float64

	// PressureAmplitude is the maximum per-pulse pipe pressure drift.
	PressureAmplitude float64
}

// withDefaults fills unset fields with production defaults.
func (c JitterConfig) withDefaults() JitterConfig {
	if c.Interval <= 0 {
		c.Interval = 5 * time.Second
	}
	if c.LevelAmplitude <= 0 {
		c.LevelAmplitude = 0.01
	}
	if c.TemperatureAmplitude <= 0 {
		c.TemperatureAmplitude = 0.5
	}
	if c.PressureAmplitude <= 0 {
		c.PressureAmplitude = 0.2
	}
	return c
}

// Jitter periodically perturbs live equipment readings so an idle scene
// still shows movement. Pulses run on the shared scheduler, so they never
// interleave with operation ticks.
type Jitter struct {
	store  *entity.Store
	sched  *Scheduler
	bus    *events.Bus
	logger Logger
	cfg    JitterConfig

	task *Task
}

// NewJitter creates a jitter driver. Nothing runs until Start.
func NewJitter(store *entity.Store, sched *Scheduler, bus *events.Bus, cfg JitterConfig) *Jitter {
	return &Jitter{
		store:  store,
		sched:  sched,
		bus:    bus,
		logger: noopLogger{},
		cfg:    cfg.withDefaults(),
	}
}

// SetLogger sets the logger for the jitter driver.
func (j *Jitter) SetLogger(logger Logger) {
	j.logger = logger
}

// Start schedules the periodic pulse. Calling Start on a disabled or
// already-started driver is a no-op.
func (j *Jitter) Start() {
	if !j.cfg.Enabled || j.task != nil {
		return
	}
	j.task = j.sched.ScheduleInterval(j.cfg.Interval, j.pulse)
	j.logger.Info("jitter driver started", "interval", j.cfg.Interval)
}

// Stop cancels the periodic pulse.
func (j *Jitter) Stop() {
	if j.task == nil {
		return
	}
	j.task.Cancel()
	j.task = nil
	j.logger.Info("jitter driver stopped")
}

// pulse perturbs every tank level/temperature and pipe pressure once.
func (j *Jitter) pulse() {
	mutated := 0

	for _, tank := range j.store.GetByType(entity.KindTank) {
		e := tank
		if e.Tank == nil {
			continue
		}
		e.Tank.Level = clamp01(e.Tank.Level + symmetric(j.cfg.LevelAmplitude))
		e.Tank.Temperature += symmetric(j.cfg.TemperatureAmplitude)
		if err := j.store.Upsert(&e); err != nil {
			j.logger.Warn("jitter upsert failed", "id", e.ID, "error", err)
			continue
		}
		j.bus.Publish(events.TopicEquipmentChange, e)
		mutated++
	}

	for _, pipe := range j.store.GetByType(entity.KindPipe) {
		e := pipe
		if e.Pipe == nil {
			continue
		}
		e.Pipe.Pressure += symmetric(j.cfg.PressureAmplitude)
		if e.Pipe.Pressure < 0 {
			e.Pipe.Pressure = 0
		}
		if err := j.store.Upsert(&e); err != nil {
			j.logger.Warn("jitter upsert failed", "id", e.ID, "error", err)
			continue
		}
		j.bus.Publish(events.TopicEquipmentChange, e)
		mutated++
	}

	j.logger.Debug("jitter pulse", "mutated", mutated)
}

// symmetric draws uniformly from [-amplitude, +amplitude].
func symmetric(amplitude float64) float64 {
	return (rand.Float64()*2 - 1) * amplitude
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
