package script

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/wricardo/robot-sim/game/engine"
	"github.com/wricardo/robot-sim/game/executor"
)

// loopYield is the pause at the end of each forever or repeat_until pass, so
// a loop that never blocks still lets the simulation advance one tick.
const loopYield = time.Nanosecond

// Compile validates a script and turns it into a runnable program
func Compile(s *Script) (executor.Program, error) {
	if err := Validate(s); err != nil {
		return nil, err
	}
	steps := s.Steps
	return func(ctx context.Context, robot executor.Robot) error {
		return run(ctx, robot, steps)
	}, nil
}

func run(ctx context.Context, robot executor.Robot, steps []Step) error {
	for _, step := range steps {
		if err := exec(ctx, robot, step); err != nil {
			return err
		}
	}
	return nil
}

// handler wraps a nested block as an event handler
func handler(steps []Step) executor.Handler {
	return func(ctx context.Context, robot executor.Robot) error {
		return run(ctx, robot, steps)
	}
}

func exec(ctx context.Context, robot executor.Robot, step Step) error {
	switch step.Op {
	case OpMove:
		return robot.Move(ctx, *step.Value)
	case OpTurn:
		return robot.Turn(ctx, *step.Value)
	case OpSetHeading:
		return robot.SetHeading(ctx, *step.Value)
	case OpWait:
		return robot.Wait(ctx, time.Duration(*step.Value*float64(time.Millisecond)))
	case OpSetMotorPower:
		return robot.SetMotorPower(ctx, *step.Left, *step.Right)
	case OpSetSpeed:
		return robot.SetSpeed(ctx, *step.Value)
	case OpStop:
		return robot.Stop(ctx)
	case OpSetPen:
		return robot.SetPen(ctx, *step.Down)
	case OpSetPenColor:
		return robot.SetPenColor(ctx, step.Color)
	case OpClearPen:
		return robot.ClearPen(ctx)
	case OpSetLed:
		side := step.Side
		if side == "" {
			side = "both"
		}
		return robot.SetLed(ctx, side, step.Color)
	case OpSendMessage:
		return robot.SendMessage(ctx, step.Name)
	case OpOnMessage:
		return robot.OnMessage(ctx, step.Name, handler(step.Steps))
	case OpOnColor:
		return robot.OnColor(ctx, step.Color, handler(step.Steps))
	case OpOnObstacle:
		return robot.OnObstacle(ctx, handler(step.Steps))
	case OpOnDistance:
		return robot.OnDistance(ctx, *step.Value, handler(step.Steps))
	case OpStopProgram:
		return robot.StopProgram(ctx)
	case OpSetVariable:
		return robot.UpdateVariable(ctx, step.Name, step.Set)
	case OpRepeat:
		for i := 0; i < step.Count; i++ {
			if err := run(ctx, robot, step.Steps); err != nil {
				return err
			}
		}
		return nil
	case OpForever:
		for {
			if err := run(ctx, robot, step.Steps); err != nil {
				return err
			}
			if err := robot.Wait(ctx, loopYield); err != nil {
				return err
			}
		}
	case OpRepeatUntil:
		for {
			met, err := evaluate(ctx, robot, step.Condition)
			if err != nil {
				return err
			}
			if met {
				return nil
			}
			if err := run(ctx, robot, step.Steps); err != nil {
				return err
			}
			if err := robot.Wait(ctx, loopYield); err != nil {
				return err
			}
		}
	case OpIf:
		met, err := evaluate(ctx, robot, step.Condition)
		if err != nil {
			return err
		}
		if met {
			return run(ctx, robot, step.Steps)
		}
		return run(ctx, robot, step.Else)
	}
	return fmt.Errorf("%w: unknown op %q", ErrInvalidScript, step.Op)
}

func evaluate(ctx context.Context, robot executor.Robot, c *Condition) (bool, error) {
	var (
		met bool
		err error
	)

	switch c.Type {
	case CondTouch:
		met, err = robot.Touch(ctx)
	case CondColor:
		met, err = robot.IsTouchingColor(ctx, c.Color)
	case CondDistanceBelow, CondDistanceAbove:
		var d float64
		d, err = robot.Distance(ctx)
		if c.Type == CondDistanceBelow {
			met = d < c.Value
		} else {
			met = d > c.Value
		}
	case CondGyroBetween:
		mode := executor.GyroMode(strings.ToUpper(c.Mode))
		if mode == "" {
			mode = executor.GyroAngle
		}
		var g float64
		g, err = robot.Gyro(ctx, mode)
		if mode == executor.GyroAngle {
			g = engine.NormalizeAngle(g)
		}
		met = g >= c.Min && g <= c.Max
	default:
		return false, fmt.Errorf("%w: unknown condition %q", ErrInvalidScript, c.Type)
	}

	if err != nil {
		return false, err
	}
	return met != c.Not, nil
}
