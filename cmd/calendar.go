package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"daydesk/internal/calendar"
)

const nowRefresh = 60 * time.Second

func planCommand() *cli.Command {
	return &cli.Command{
		Name:  "plan",
		Usage: "Schedule open tasks into the selected day by priority.",
		Action: withEnv(func(c *cli.Context, e *env) error {
			placements := e.ctrl.AutoPlan()
			for _, p := range placements {
				fmt.Fprintf(e.out, "%s  %s (%dm)\n", p.Start.Format("15:04"), p.Task.Title, p.Task.EffectiveDuration())
			}
			return nil
		}),
	}
}

func calendarCommand() *cli.Command {
	return &cli.Command{
		Name:    "calendar",
		Aliases: []string{"cal"},
		Usage:   "Show the selected day.",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "watch", Aliases: []string{"w"}, Usage: "Redraw every minute."},
		},
		Action: withEnv(func(c *cli.Context, e *env) error {
			view, err := e.ctrl.DayView()
			if err != nil {
				return err
			}
			renderDay(e.out, view)
			if !c.Bool("watch") {
				return nil
			}

			ctx, stop := interruptible(c.Context)
			defer stop()
			ticker := e.clock.NewTicker(nowRefresh)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return nil
				case <-ticker.Chan():
					view, err := e.ctrl.DayView()
					if err != nil {
						return err
					}
					fmt.Fprint(e.out, "\033[H\033[2J")
					renderDay(e.out, view)
				}
			}
		}),
	}
}

func renderDay(w io.Writer, v calendar.DayView) {
	fmt.Fprintln(w, v.Day.Format("Monday, 2006-01-02"))
	for _, slot := range v.Slots {
		marker := " "
		if slot.Index == v.NowSlot {
			marker = ">"
		}
		var titles []string
		for _, ev := range v.Events[slot.Index] {
			title := fmt.Sprintf("%s (%dm)", ev.Title, ev.Duration)
			if ev.Done {
				title = "[x] " + title
			}
			if ev.HasFile {
				title += " +file"
			}
			titles = append(titles, title)
		}
		fmt.Fprintf(w, "%s %s  %s\n", marker, slot.Label, strings.Join(titles, " | "))
	}
}

func dayCommand() *cli.Command {
	show := func(c *cli.Context, e *env) error {
		fmt.Fprintln(e.out, e.ctrl.CurrentDay())
		return nil
	}
	shift := func(delta int) cli.ActionFunc {
		return withEnv(func(c *cli.Context, e *env) error {
			day, err := e.ctrl.ShiftDay(delta)
			if err != nil {
				return err
			}
			fmt.Fprintln(e.out, day)
			return nil
		})
	}
	return &cli.Command{
		Name:   "day",
		Usage:  "Show or change the selected day.",
		Action: withEnv(show),
		Subcommands: []*cli.Command{
			{
				Name:      "set",
				Usage:     "Select a day.",
				ArgsUsage: "<YYYY-MM-DD>",
				Action: withEnv(func(c *cli.Context, e *env) error {
					if err := e.ctrl.SetDay(c.Args().First()); err != nil {
						return err
					}
					return show(c, e)
				}),
			},
			{
				Name:  "today",
				Usage: "Select today.",
				Action: withEnv(func(c *cli.Context, e *env) error {
					if err := e.ctrl.SetDay(e.clock.Now().In(e.loc).Format(time.DateOnly)); err != nil {
						return err
					}
					return show(c, e)
				}),
			},
			{Name: "next", Usage: "Select the following day.", Action: shift(1)},
			{Name: "prev", Usage: "Select the previous day.", Action: shift(-1)},
		},
	}
}
