package agent

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/stasher/internal/models"
	"github.com/desertthunder/stasher/internal/shared"
)

// Planner turns free text into a [Plan]. [services.Planner] implements it.
type Planner interface {
	Plan(ctx context.Context, input string) (models.CommandPlan, error)
}

const prompt = "stasher> "

// Dispatcher routes plans to their handlers.
type Dispatcher struct {
	planner  Planner
	handlers map[Command]Handler
	logger   *log.Logger
}

// NewDispatcher creates a dispatcher over the given handler table. planner may be nil when only
// structured plans are handled.
func NewDispatcher(planner Planner, handlers map[Command]Handler, logger *log.Logger) *Dispatcher {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Dispatcher{planner: planner, handlers: handlers, logger: logger}
}

// Handle runs a plan and returns the text to show the user. Failures are rendered, not returned.
func (d *Dispatcher) Handle(ctx context.Context, plan Plan) string {
	cmd, err := ParseCommand(plan.Command)
	if err != nil {
		return "Unknown command: " + plan.Command
	}
	h, ok := d.handlers[cmd]
	if !ok {
		return "Unknown command: " + plan.Command
	}

	params := plan.Parameters
	if params == nil {
		params = map[string]any{}
	}

	d.logger.Debug("dispatching command", "command", cmd, "parameters", params)
	out, err := h(ctx, params)
	if err != nil {
		d.logger.Error("command failed", "command", cmd, "error", err)
		return render(err)
	}
	return out
}

// Respond plans a free-text request and handles the resulting plan.
func (d *Dispatcher) Respond(ctx context.Context, input string) string {
	if d.planner == nil {
		return render(fmt.Errorf("%w: no planner configured", shared.ErrInvalidConfig))
	}
	plan, err := d.planner.Plan(ctx, input)
	if err != nil {
		return render(err)
	}
	return d.Handle(ctx, NormalizePlan(plan))
}

// Run reads requests line by line until exit, EOF or cancellation.
func (d *Dispatcher) Run(ctx context.Context, in io.Reader, out io.Writer) error {
	lines := make(chan string)
	stop := make(chan struct{})
	defer close(stop)

	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-stop:
				return
			}
		}
	}()

	for {
		fmt.Fprint(out, prompt)
		select {
		case <-ctx.Done():
			fmt.Fprintln(out)
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				fmt.Fprintln(out)
				return nil
			}
			line = strings.TrimSpace(line)
			switch strings.ToLower(line) {
			case "":
				continue
			case "exit", "quit":
				fmt.Fprintln(out, "Goodbye!")
				return nil
			}
			fmt.Fprintln(out, d.Respond(ctx, line))
		}
	}
}

func render(err error) string {
	switch {
	case errors.Is(err, ErrNoTargets):
		return "Error: No valid video URLs or IDs provided."
	case errors.Is(err, shared.ErrQuotaExhausted):
		return "Error: the daily API quota is exhausted; try again tomorrow."
	}
	return "Error: " + err.Error()
}
