package executor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/wricardo/robot-sim/game/engine"
)

const instrumentationName = "github.com/wricardo/robot-sim/game/executor"

func meter() metric.Meter {
	return otel.Meter(instrumentationName)
}

// Option configures a Runner
type Option func(*Runner)

// WithLogger sets the runner's logger
func WithLogger(logger zerolog.Logger) Option {
	return func(r *Runner) {
		r.logger = logger
	}
}

// WithTickInterval sets the real-time tick period used by Run and Wait
func WithTickInterval(d time.Duration) Option {
	return func(r *Runner) {
		if d > 0 {
			r.tickInterval = d
		}
	}
}

// Runner drives a simulation and the program controlling it. The mutex makes
// the tick driver and every program command one logical thread: commands and
// ticks interleave but never overlap.
type Runner struct {
	mu   sync.Mutex
	cond *sync.Cond

	sim          engine.Engine
	logger       zerolog.Logger
	tickInterval time.Duration

	runID     RunID
	runCtx    context.Context
	cancel    context.CancelFunc
	status    Status
	lastErr   error
	startedAt time.Time
	inRun     bool

	// tickCh is closed on every step to release goroutines parked on the tick boundary
	tickCh  chan struct{}
	parked  int
	workers int
	// waiting counts workers blocked on message handlers they started
	waiting int

	successSeen bool
	onTick      []func(engine.State)
	onSuccess   []func(engine.State)
	onRunEnd    []func(RunReport)
	uiHooks     UIHooks

	ticks metric.Int64Counter
	runs  metric.Int64Counter
}

// NewRunner creates a runner around a simulation.
// Uses the global OTel meter for metrics (no-op if not configured).
func NewRunner(sim engine.Engine, opts ...Option) (*Runner, error) {
	if sim == nil {
		return nil, fmt.Errorf("simulation cannot be nil")
	}
	r := &Runner{
		sim:          sim,
		logger:       zerolog.Nop(),
		tickInterval: engine.TickInterval * time.Millisecond,
		status:       StatusIdle,
		tickCh:       make(chan struct{}),
		runCtx:       context.Background(),
	}
	r.cond = sync.NewCond(&r.mu)
	for _, opt := range opts {
		opt(r)
	}

	m := meter()
	var err error
	r.ticks, err = m.Int64Counter(
		"robosim.ticks",
		metric.WithDescription("Total simulation ticks"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating tick counter: %w", err)
	}
	r.runs, err = m.Int64Counter(
		"robosim.runs",
		metric.WithDescription("Finished program runs by outcome"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating run counter: %w", err)
	}

	return r, nil
}

// OnTick registers an observer called with a snapshot after every tick
func (r *Runner) OnTick(fn func(engine.State)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onTick = append(r.onTick, fn)
}

// OnSuccess registers an observer called once when the scenario goal latches
func (r *Runner) OnSuccess(fn func(engine.State)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onSuccess = append(r.onSuccess, fn)
}

// OnRunEnd registers an observer called when a run is finalized
func (r *Runner) OnRunEnd(fn func(RunReport)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onRunEnd = append(r.onRunEnd, fn)
}

// SetUIHooks stores the front end hooks
func (r *Runner) SetUIHooks(h UIHooks) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.uiHooks = h
}

// UIHooks returns the stored front end hooks
func (r *Runner) UIHooks() UIHooks {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.uiHooks
}

// TickInterval returns the real-time tick period
func (r *Runner) TickInterval() time.Duration {
	return r.tickInterval
}

// Start launches a program as a new run. The run outlives ctx's cancellation;
// use StopProgram or Reset to end it.
func (r *Runner) Start(ctx context.Context, program Program) (RunID, error) {
	if program == nil {
		return 0, fmt.Errorf("program cannot be nil")
	}

	r.mu.Lock()
	if r.sim.IsActive() {
		id := r.runID
		r.mu.Unlock()
		return id, ErrAlreadyRunning
	}

	if r.cancel != nil {
		r.cancel()
	}
	r.runID++
	id := r.runID
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	r.runCtx = runCtx
	r.cancel = cancel
	r.status = StatusRunning
	r.lastErr = nil
	r.startedAt = time.Now()
	r.inRun = true
	r.parked = 0
	r.workers = 1
	r.waiting = 0
	r.successSeen = r.sim.IsSuccess()
	r.sim.Activate()
	scenarioID := r.sim.GetScenario().ID
	r.mu.Unlock()

	r.logger.Info().Uint64("run_id", uint64(id)).Str("scenario", scenarioID).Msg("run started")

	robot := &runRobot{r: r, id: id}
	go func() {
		err := program(runCtx, robot)
		r.finishProgram(id, err)
	}()

	return id, nil
}

// finishProgram records the outcome of a run's main program
func (r *Runner) finishProgram(id RunID, err error) {
	r.mu.Lock()
	if id != r.runID || !r.inRun {
		r.mu.Unlock()
		return
	}
	r.releaseLocked()

	if err != nil && !errors.Is(err, ErrAborted) {
		report := r.faultLocked(err)
		r.mu.Unlock()
		r.emitRunEnd(report)
		return
	}
	if err == nil && r.status == StatusRunning {
		r.status = StatusCompleted
		r.logger.Debug().Uint64("run_id", uint64(id)).Msg("program completed")
	}
	r.mu.Unlock()
}

// faultLocked stops the simulation after a program error
func (r *Runner) faultLocked(err error) *RunReport {
	r.logger.Error().Err(err).
		Uint64("run_id", uint64(r.runID)).
		Str("scenario", r.sim.GetScenario().ID).
		Msg("program faulted")
	r.status = StatusFaulted
	r.lastErr = err
	r.sim.Deactivate()
	return r.finalizeLocked(StatusFaulted)
}

// finalizeLocked cancels the active token and builds the run report
func (r *Runner) finalizeLocked(outcome Status) *RunReport {
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
	r.parked = 0
	r.workers = 0
	r.waiting = 0
	r.cond.Broadcast()
	if !r.inRun {
		return nil
	}
	r.inRun = false

	report := &RunReport{
		RunID:      r.runID,
		ScenarioID: r.sim.GetScenario().ID,
		Outcome:    outcome,
		Success:    r.sim.IsSuccess(),
		History:    r.sim.History(),
		Ticks:      r.sim.Snapshot().Tick,
		StartedAt:  r.startedAt,
		EndedAt:    time.Now(),
	}
	if r.lastErr != nil {
		report.Err = r.lastErr.Error()
	}
	return report
}

func (r *Runner) emitRunEnd(report *RunReport) {
	if report == nil {
		return
	}
	r.runs.Add(context.Background(), 1, metric.WithAttributes(attribute.String("outcome", string(report.Outcome))))

	r.mu.Lock()
	hooks := make([]func(RunReport), len(r.onRunEnd))
	copy(hooks, r.onRunEnd)
	r.mu.Unlock()

	for _, fn := range hooks {
		fn(*report)
	}
}

// StopProgram cancels the active run and stops ticking
func (r *Runner) StopProgram() {
	r.mu.Lock()
	outcome := StatusAborted
	if r.status == StatusCompleted {
		outcome = StatusCompleted
	}
	if r.inRun {
		r.status = outcome
	}
	r.sim.Deactivate()
	report := r.finalizeLocked(outcome)
	r.mu.Unlock()

	if report != nil {
		r.logger.Info().Uint64("run_id", uint64(report.RunID)).Str("outcome", string(outcome)).Msg("program stopped")
	}
	r.emitRunEnd(report)
}

// Reset cancels any run, supersedes its id and returns the robot to the
// start pose with listeners, history and drawings cleared.
func (r *Runner) Reset() {
	r.mu.Lock()
	outcome := StatusAborted
	if r.status == StatusCompleted {
		outcome = StatusCompleted
	}
	report := r.finalizeLocked(outcome)
	r.runID++
	r.status = StatusIdle
	r.lastErr = nil
	r.successSeen = false
	r.sim.Reset()
	scenarioID := r.sim.GetScenario().ID
	r.mu.Unlock()

	r.logger.Info().Str("scenario", scenarioID).Msg("simulation reset")
	r.emitRunEnd(report)
}

// SetScenario switches scenarios, which also resets the simulation
func (r *Runner) SetScenario(scenario *engine.Scenario) error {
	if err := engine.ValidateScenario(scenario); err != nil {
		return err
	}

	r.mu.Lock()
	outcome := StatusAborted
	if r.status == StatusCompleted {
		outcome = StatusCompleted
	}
	report := r.finalizeLocked(outcome)
	r.runID++
	r.status = StatusIdle
	r.lastErr = nil
	r.successSeen = false
	err := r.sim.SetScenario(scenario)
	r.mu.Unlock()

	r.emitRunEnd(report)
	return err
}

// Place moves the robot by hand
func (r *Runner) Place(x, z float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sim.Place(x, z)
}

// Step advances the simulation by one tick, wakes every goroutine parked on
// the tick boundary and launches the listener callbacks that fired.
func (r *Runner) Step() {
	r.mu.Lock()
	if !r.sim.IsActive() {
		r.mu.Unlock()
		return
	}

	fired := r.sim.Step()
	close(r.tickCh)
	r.tickCh = make(chan struct{})
	r.parked = 0
	r.cond.Broadcast()

	id := r.runID
	ctx := r.runCtx
	r.workers += len(fired)

	var state engine.State
	observe := len(r.onTick) > 0
	succeeded := r.sim.IsSuccess() && !r.successSeen
	if succeeded {
		r.successSeen = true
	}
	if observe || succeeded {
		state = r.sim.Snapshot()
	}
	tickHooks := r.onTick
	successHooks := r.onSuccess
	r.mu.Unlock()

	r.ticks.Add(context.Background(), 1)

	for _, cb := range fired {
		go r.runCallback(ctx, id, cb)
	}
	if succeeded {
		r.logger.Info().Uint64("run_id", uint64(id)).Str("scenario", state.ScenarioID).Msg("scenario goal reached")
		for _, fn := range successHooks {
			fn(state)
		}
	}
	if observe {
		for _, fn := range tickHooks {
			fn(state)
		}
	}
}

func (r *Runner) runCallback(ctx context.Context, id RunID, cb engine.Callback) {
	err := cb()

	r.mu.Lock()
	if id != r.runID || !r.inRun {
		r.mu.Unlock()
		return
	}
	r.releaseLocked()
	if err == nil || errors.Is(err, ErrAborted) || ctx.Err() != nil {
		r.mu.Unlock()
		return
	}
	report := r.faultLocked(err)
	r.mu.Unlock()
	r.emitRunEnd(report)
}

// releaseLocked removes a finished goroutine from the worker count
func (r *Runner) releaseLocked() {
	if r.workers > 0 {
		r.workers--
	}
	r.cond.Broadcast()
}

func (r *Runner) workerDone(id RunID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if id == r.runID && r.inRun {
		r.releaseLocked()
	}
}

// Run ticks at the configured interval until ctx is done
func (r *Runner) Run(ctx context.Context) {
	ticker := time.NewTicker(r.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Step()
		}
	}
}

// StepSynced waits until every live program goroutine is parked on the tick
// boundary, then steps once. It gives tests and headless runs a
// deterministic clock.
func (r *Runner) StepSynced(ctx context.Context) error {
	if _, err := r.awaitParked(ctx); err != nil {
		return err
	}
	r.Step()
	return nil
}

// awaitParked blocks until no program goroutine can make progress without a
// tick and reports whether any are still alive.
func (r *Runner) awaitParked(ctx context.Context) (bool, error) {
	stop := context.AfterFunc(ctx, func() {
		r.mu.Lock()
		r.cond.Broadcast()
		r.mu.Unlock()
	})
	defer stop()

	r.mu.Lock()
	defer r.mu.Unlock()
	for r.sim.IsActive() && r.workers > 0 &&
		(r.parked+r.waiting < r.workers || r.waiting == r.workers) {
		if err := ctx.Err(); err != nil {
			return false, err
		}
		r.cond.Wait()
	}
	return r.sim.IsActive() && r.workers > 0, nil
}

// Drive steps synchronously until the program and its callbacks have
// finished, the simulation stops, or maxTicks is reached. It returns the
// number of ticks taken.
func (r *Runner) Drive(ctx context.Context, maxTicks int) (int, error) {
	for n := 0; n < maxTicks; n++ {
		live, err := r.awaitParked(ctx)
		if err != nil {
			return n, err
		}
		if !live {
			return n, nil
		}
		r.Step()
	}
	return maxTicks, nil
}

// Status returns the state of the current run
func (r *Runner) Status() RunStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := RunStatus{
		RunID:   r.runID,
		Status:  r.status,
		Active:  r.sim.IsActive(),
		Workers: r.workers,
	}
	if r.lastErr != nil {
		s.Err = r.lastErr.Error()
	}
	return s
}

// Snapshot returns the simulation readout
func (r *Runner) Snapshot() engine.State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sim.Snapshot()
}

// Scenario returns the active scenario
func (r *Runner) Scenario() *engine.Scenario {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sim.GetScenario()
}

// checkLocked reports ErrAborted when the token is cancelled or the run was superseded
func (r *Runner) checkLocked(ctx context.Context, id RunID) error {
	if ctx.Err() != nil || id != r.runID || !r.inRun {
		return ErrAborted
	}
	return nil
}

// waitTick parks the caller until the next tick or until the run is cancelled
func (r *Runner) waitTick(ctx context.Context, id RunID) error {
	r.mu.Lock()
	if err := r.checkLocked(ctx, id); err != nil {
		r.mu.Unlock()
		return err
	}
	ch := r.tickCh
	r.parked++
	r.cond.Broadcast()
	r.mu.Unlock()

	select {
	case <-ch:
	case <-ctx.Done():
		r.mu.Lock()
		if r.tickCh == ch && id == r.runID && r.parked > 0 {
			r.parked--
		}
		r.mu.Unlock()
		return ErrAborted
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	return r.checkLocked(ctx, id)
}

// suspend hands the caller's slot to n message handlers while it waits for them
func (r *Runner) suspend(id RunID, n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if id == r.runID && r.inRun {
		r.workers += n
		r.waiting++
		r.cond.Broadcast()
	}
}

func (r *Runner) resume(id RunID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if id == r.runID && r.inRun && r.waiting > 0 {
		r.waiting--
		r.cond.Broadcast()
	}
}
