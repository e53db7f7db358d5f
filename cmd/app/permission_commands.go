package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/allisson/trustcore/cmd/app/commands"
	"github.com/allisson/trustcore/internal/app"
)

func getPermissionCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "review-request",
			Usage: "Approve or deny a pending permission request",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "id",
					Aliases:  []string{"i"},
					Required: true,
					Usage:    "Permission request ID (UUID)",
				},
				&cli.StringFlag{
					Name:     "reviewer",
					Required: true,
					Usage:    "Reviewer principal ID",
				},
				&cli.StringFlag{
					Name:     "decision",
					Aliases:  []string{"d"},
					Required: true,
					Usage:    "Review decision: 'approve' or 'deny'",
				},
				&cli.StringFlag{
					Name:  "notes",
					Usage: "Reviewer notes",
				},
				&cli.DurationFlag{
					Name:  "ttl",
					Value: 0,
					Usage: "Grant lifetime for approvals (e.g., 2h); 0 uses the configured default",
				},
				formatFlag(),
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				return withContainer(ctx, func(container *app.Container) error {
					workflow, err := container.Workflow()
					if err != nil {
						return err
					}

					return commands.RunReviewRequest(
						ctx,
						workflow,
						container.Logger(),
						commands.DefaultIO().Writer,
						cmd.String("id"),
						cmd.String("reviewer"),
						cmd.String("decision"),
						cmd.String("notes"),
						cmd.Duration("ttl"),
						cmd.String("format"),
					)
				})
			},
		},
		{
			Name:  "list-requests",
			Usage: "List permission requests",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:    "status",
					Aliases: []string{"s"},
					Usage:   "Filter by status (pending, approved, denied, expired)",
				},
				&cli.StringFlag{
					Name:  "requester",
					Usage: "Filter by requester principal ID",
				},
				&cli.IntFlag{
					Name:  "offset",
					Value: 0,
					Usage: "Number of requests to skip",
				},
				&cli.IntFlag{
					Name:  "limit",
					Value: 50,
					Usage: "Maximum number of requests to print",
				},
				formatFlag(),
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				return withContainer(ctx, func(container *app.Container) error {
					workflow, err := container.Workflow()
					if err != nil {
						return err
					}

					return commands.RunListRequests(
						ctx,
						workflow,
						commands.DefaultIO().Writer,
						cmd.String("status"),
						cmd.String("requester"),
						int(cmd.Int("offset")),
						int(cmd.Int("limit")),
						cmd.String("format"),
					)
				})
			},
		},
		{
			Name:  "expire-grants",
			Usage: "Mark approved permission requests past their grant expiry as expired",
			Flags: []cli.Flag{
				formatFlag(),
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				return withContainer(ctx, func(container *app.Container) error {
					workflow, err := container.Workflow()
					if err != nil {
						return err
					}

					return commands.RunExpireGrants(
						ctx,
						workflow,
						container.Logger(),
						commands.DefaultIO().Writer,
						cmd.String("format"),
					)
				})
			},
		},
	}
}
