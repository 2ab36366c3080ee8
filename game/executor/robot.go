package executor

import (
	"context"
	"math"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/wricardo/robot-sim/game/engine"
)

// Robot is the API a program uses to drive the simulated robot. Every call
// returns ErrAborted once the run has been stopped, reset or superseded.
type Robot interface {
	// Motion
	Move(ctx context.Context, distanceCM float64) error
	Turn(ctx context.Context, degrees float64) error
	SetHeading(ctx context.Context, heading float64) error
	Wait(ctx context.Context, d time.Duration) error
	SetMotorPower(ctx context.Context, left, right float64) error
	SetSpeed(ctx context.Context, percent float64) error
	Stop(ctx context.Context) error

	// Pen and lights
	SetPen(ctx context.Context, down bool) error
	SetPenColor(ctx context.Context, color string) error
	ClearPen(ctx context.Context) error
	SetLed(ctx context.Context, side, color string) error

	// Sensors
	Distance(ctx context.Context) (float64, error)
	Touch(ctx context.Context) (bool, error)
	Gyro(ctx context.Context, mode GyroMode) (float64, error)
	Color(ctx context.Context) (string, error)
	IsTouchingColor(ctx context.Context, color string) (bool, error)
	Circumference() float64

	// Events
	OnMessage(ctx context.Context, name string, h Handler) error
	SendMessage(ctx context.Context, name string) error
	OnColor(ctx context.Context, color string, h Handler) error
	OnObstacle(ctx context.Context, h Handler) error
	OnDistance(ctx context.Context, thresholdCM float64, h Handler) error

	// Program control
	UpdateVariable(ctx context.Context, name string, value any) error
	StopProgram(ctx context.Context) error
}

// runRobot binds the program API to one run of a Runner
type runRobot struct {
	r  *Runner
	id RunID
}

// do runs fn under the runner lock after checking the run is still current
func (b *runRobot) do(ctx context.Context, fn func(sim engine.Engine) error) error {
	b.r.mu.Lock()
	defer b.r.mu.Unlock()
	if err := b.r.checkLocked(ctx, b.id); err != nil {
		return err
	}
	return fn(b.r.sim)
}

func (b *runRobot) sense(ctx context.Context) (engine.SensorSnapshot, error) {
	var s engine.SensorSnapshot
	err := b.do(ctx, func(sim engine.Engine) error {
		s = sim.Measure()
		// Contact found by the last tick holds while the robot is pressed against the wall
		if sim.GetPose().Touching {
			s.Touching = true
		}
		return nil
	})
	return s, err
}

// Move drives straight until the robot has covered distanceCM or touches a wall
func (b *runRobot) Move(ctx context.Context, distanceCM float64) error {
	dir := 1.0
	if distanceCM < 0 {
		dir = -1
	}
	target := math.Abs(distanceCM) * engine.MoveUnitScale

	var startX, startZ float64
	err := b.do(ctx, func(sim engine.Engine) error {
		if sim.Motors().SpeedScale <= 0 {
			return ErrStalled
		}
		pose := sim.GetPose()
		startX, startZ = pose.X, pose.Z
		sim.SetMotorPower(engine.MaxMotorPower*dir, engine.MaxMotorPower*dir)
		return nil
	})
	if err != nil {
		return err
	}

	for {
		var done bool
		err := b.do(ctx, func(sim engine.Engine) error {
			pose := sim.GetPose()
			done = engine.EuclideanDistance(startX, startZ, pose.X, pose.Z) >= target
			return nil
		})
		if err != nil {
			return err
		}
		if done {
			break
		}
		if err := b.r.waitTick(ctx, b.id); err != nil {
			return err
		}
		touching := false
		err = b.do(ctx, func(sim engine.Engine) error {
			touching = sim.GetPose().Touching
			return nil
		})
		if err != nil {
			return err
		}
		if touching {
			break
		}
	}

	return b.Stop(ctx)
}

// Turn spins in place by degrees (positive is counter-clockwise) and snaps
// onto the exact target heading.
func (b *runRobot) Turn(ctx context.Context, degrees float64) error {
	if degrees == 0 {
		return b.do(ctx, func(engine.Engine) error { return nil })
	}
	dir := 1.0
	if degrees < 0 {
		dir = -1
	}
	power := 50 * dir

	var target float64
	err := b.do(ctx, func(sim engine.Engine) error {
		if sim.Motors().SpeedScale <= 0 {
			return ErrStalled
		}
		initial := engine.NormalizeAngle(sim.GetPose().Rotation)
		target = engine.NormalizeAngle(initial + degrees)
		sim.SetMotorPower(-power, power)
		return nil
	})
	if err != nil {
		return err
	}

	for {
		if err := b.r.waitTick(ctx, b.id); err != nil {
			return err
		}
		var diff float64
		err := b.do(ctx, func(sim engine.Engine) error {
			diff = engine.AngleDifference(target, engine.NormalizeAngle(sim.GetPose().Rotation))
			return nil
		})
		if err != nil {
			return err
		}
		if dir > 0 && diff <= engine.TurnTolerance {
			break
		}
		if dir < 0 && diff >= -engine.TurnTolerance {
			break
		}
	}

	return b.do(ctx, func(sim engine.Engine) error {
		sim.SetMotorPower(0, 0)
		sim.SetRotation(target)
		return nil
	})
}

// SetHeading turns the shortest way onto an absolute heading
func (b *runRobot) SetHeading(ctx context.Context, heading float64) error {
	var delta float64
	err := b.do(ctx, func(sim engine.Engine) error {
		current := engine.NormalizeAngle(sim.GetPose().Rotation)
		delta = engine.AngleDifference(engine.NormalizeAngle(heading), current)
		return nil
	})
	if err != nil {
		return err
	}
	if err := b.Turn(ctx, delta); err != nil {
		return err
	}
	return b.do(ctx, func(engine.Engine) error { return nil })
}

// Wait suspends the program for d, measured in simulation ticks
func (b *runRobot) Wait(ctx context.Context, d time.Duration) error {
	if err := b.do(ctx, func(engine.Engine) error { return nil }); err != nil {
		return err
	}
	ticks := int(math.Ceil(float64(d) / float64(b.r.tickInterval)))
	for i := 0; i < ticks; i++ {
		if err := b.r.waitTick(ctx, b.id); err != nil {
			return err
		}
	}
	return nil
}

func (b *runRobot) SetMotorPower(ctx context.Context, left, right float64) error {
	return b.do(ctx, func(sim engine.Engine) error {
		sim.SetMotorPower(left, right)
		return nil
	})
}

func (b *runRobot) SetSpeed(ctx context.Context, percent float64) error {
	return b.do(ctx, func(sim engine.Engine) error {
		sim.SetSpeed(percent)
		return nil
	})
}

func (b *runRobot) Stop(ctx context.Context) error {
	return b.SetMotorPower(ctx, 0, 0)
}

func (b *runRobot) SetPen(ctx context.Context, down bool) error {
	return b.do(ctx, func(sim engine.Engine) error {
		sim.SetPen(down)
		return nil
	})
}

func (b *runRobot) SetPenColor(ctx context.Context, color string) error {
	return b.do(ctx, func(sim engine.Engine) error {
		sim.SetPenColor(color)
		return nil
	})
}

func (b *runRobot) ClearPen(ctx context.Context) error {
	return b.do(ctx, func(sim engine.Engine) error {
		sim.ClearDrawings()
		return nil
	})
}

func (b *runRobot) SetLed(ctx context.Context, side, color string) error {
	return b.do(ctx, func(sim engine.Engine) error {
		return sim.SetLed(side, color)
	})
}

// Distance returns the ultrasonic reading in centimeters, 255 when nothing is in range
func (b *runRobot) Distance(ctx context.Context) (float64, error) {
	s, err := b.sense(ctx)
	return s.Distance, err
}

func (b *runRobot) Touch(ctx context.Context) (bool, error) {
	s, err := b.sense(ctx)
	return s.Touching, err
}

func (b *runRobot) Gyro(ctx context.Context, mode GyroMode) (float64, error) {
	s, err := b.sense(ctx)
	if mode == GyroTilt {
		return s.Tilt, err
	}
	return s.Gyro, err
}

func (b *runRobot) Color(ctx context.Context) (string, error) {
	s, err := b.sense(ctx)
	return s.Color, err
}

func (b *runRobot) IsTouchingColor(ctx context.Context, color string) (bool, error) {
	s, err := b.sense(ctx)
	if err != nil {
		return false, err
	}
	return engine.IsColorClose(s.Color, color, engine.DefaultColorThreshold), nil
}

// Circumference returns the wheel circumference in centimeters
func (b *runRobot) Circumference() float64 {
	return engine.Circumference
}

// bind adapts a handler into a listener callback owned by this run
func (b *runRobot) bind(ctx context.Context, h Handler) engine.Callback {
	return func() error {
		return h(ctx, b)
	}
}

func (b *runRobot) OnMessage(ctx context.Context, name string, h Handler) error {
	return b.do(ctx, func(sim engine.Engine) error {
		sim.Listeners().OnMessage(name, b.bind(ctx, h))
		return nil
	})
}

// SendMessage runs every handler subscribed to name concurrently and waits for all of them
func (b *runRobot) SendMessage(ctx context.Context, name string) error {
	var handlers []engine.Callback
	err := b.do(ctx, func(sim engine.Engine) error {
		handlers = sim.Listeners().MessageHandlers(name)
		return nil
	})
	if err != nil || len(handlers) == 0 {
		return err
	}

	b.r.suspend(b.id, len(handlers))
	var g errgroup.Group
	for _, h := range handlers {
		g.Go(func() error {
			defer b.r.workerDone(b.id)
			return h()
		})
	}
	err = g.Wait()
	b.r.resume(b.id)
	if err != nil {
		return err
	}
	return b.do(ctx, func(engine.Engine) error { return nil })
}

func (b *runRobot) OnColor(ctx context.Context, color string, h Handler) error {
	return b.do(ctx, func(sim engine.Engine) error {
		sim.Listeners().OnColor(color, b.bind(ctx, h))
		return nil
	})
}

func (b *runRobot) OnObstacle(ctx context.Context, h Handler) error {
	return b.do(ctx, func(sim engine.Engine) error {
		sim.Listeners().OnObstacle(b.bind(ctx, h))
		return nil
	})
}

func (b *runRobot) OnDistance(ctx context.Context, thresholdCM float64, h Handler) error {
	return b.do(ctx, func(sim engine.Engine) error {
		sim.Listeners().OnDistance(thresholdCM, b.bind(ctx, h))
		return nil
	})
}

// UpdateVariable publishes a monitored value to the snapshot
func (b *runRobot) UpdateVariable(ctx context.Context, name string, value any) error {
	return b.do(ctx, func(sim engine.Engine) error {
		sim.SetVariable(name, value)
		return nil
	})
}

// StopProgram ends the whole run from inside the program
func (b *runRobot) StopProgram(ctx context.Context) error {
	if err := b.do(ctx, func(engine.Engine) error { return nil }); err != nil {
		return err
	}
	b.r.StopProgram()
	return ErrAborted
}
