package main

import (
	"context"
	"strings"

	"github.com/desertthunder/stasher/internal/agent"
	"github.com/urfave/cli/v3"
)

// Agent turns plain-language requests into commands.
//
// With arguments it answers a single request; otherwise it runs an interactive loop until exit.
func (r *Runner) Agent(ctx context.Context, cmd *cli.Command) error {
	d, err := r.wire(ctx)
	if err != nil {
		return err
	}

	cfg := r.config.Stash
	handlers := agent.NewHandlers(agent.Deps{
		Sync:       d.sync,
		Reconciler: d.reconciler,
		Stasher:    r.mediaStasher(d.store),
		Downloads:  d.store,
		OutputPath: cfg.OutputPath,
		AudioOnly:  cfg.AudioOnly,
	})
	dispatcher := agent.NewDispatcher(r.commandPlanner(), handlers, r.logger)

	if cmd.Args().Len() > 0 {
		request := strings.Join(cmd.Args().Slice(), " ")
		return r.writePlain("%s\n", dispatcher.Respond(ctx, request))
	}

	r.writePlain("Type a request such as \"update all my playlists\", or 'exit' to quit.\n")
	return dispatcher.Run(ctx, r.input, r.output)
}
