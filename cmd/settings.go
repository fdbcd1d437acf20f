package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/urfave/cli/v2"

	"daydesk/internal/pomodoro"
)

func themeCommand() *cli.Command {
	return &cli.Command{
		Name:      "theme",
		Usage:     "Show or set the theme.",
		ArgsUsage: "[dark|light]",
		Action: withEnv(func(c *cli.Context, e *env) error {
			if c.NArg() > 0 {
				if err := e.ctrl.SetTheme(strings.ToLower(c.Args().First())); err != nil {
					return err
				}
			}
			fmt.Fprintln(e.out, e.ctrl.Settings().Theme)
			return nil
		}),
	}
}

func notificationsCommand() *cli.Command {
	return &cli.Command{
		Name:      "notifications",
		Usage:     "Show or toggle desktop notifications.",
		ArgsUsage: "[on|off]",
		Action: withEnv(func(c *cli.Context, e *env) error {
			switch strings.ToLower(c.Args().First()) {
			case "":
			case "on":
				if err := e.ctrl.SetNotifications(c.Context, true); err != nil {
					return err
				}
			case "off":
				if err := e.ctrl.SetNotifications(c.Context, false); err != nil {
					return err
				}
			default:
				return fmt.Errorf("expected on or off, got %q", c.Args().First())
			}
			state := "off"
			if e.ctrl.Settings().NotifyGranted {
				state = "on"
			}
			fmt.Fprintln(e.out, state)
			return nil
		}),
	}
}

func pomodoroCommand() *cli.Command {
	return &cli.Command{
		Name:    "pomodoro",
		Aliases: []string{"pom"},
		Usage:   "Run the Pomodoro timer.",
		Subcommands: []*cli.Command{
			{
				Name:  "start",
				Usage: "Count down work and break intervals until interrupted.",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "work", Usage: "Work minutes (saved)."},
					&cli.IntFlag{Name: "short", Usage: "Short break minutes (saved)."},
					&cli.IntFlag{Name: "long", Usage: "Long break minutes (saved)."},
				},
				Action: withEnv(func(c *cli.Context, e *env) error {
					timer := e.ctrl.Pomodoro(c.Int("work"), c.Int("short"), c.Int("long"))
					ctx, stop := interruptible(c.Context)
					defer stop()

					err := timer.Run(ctx, e.clock, func(s pomodoro.Status) {
						fmt.Fprintf(e.out, "\r%-11s %s  done: %d ", s.Phase, s.Display(), s.Completed)
					})
					fmt.Fprintln(e.out)
					if errors.Is(err, ctx.Err()) {
						return nil
					}
					return err
				}),
			},
			{
				Name:  "count",
				Usage: "Show completed work intervals.",
				Action: withEnv(func(c *cli.Context, e *env) error {
					d := e.ctrl.PomodoroDurations()
					fmt.Fprintf(e.out, "%d completed (work %v, short %v, long %v)\n", e.ctrl.PomodoroCount(), d.Work, d.Short, d.Long)
					return nil
				}),
			},
			{
				Name:  "reset",
				Usage: "Zero the completed interval counter.",
				Action: withEnv(func(c *cli.Context, e *env) error {
					e.ctrl.ResetPomodoroCount()
					return nil
				}),
			},
		},
	}
}
