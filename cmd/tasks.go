package main

import (
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/urfave/cli/v2"

	"daydesk/internal/app"
	"daydesk/internal/models"
)

var dueLayouts = []string{"2006-01-02 15:04", "2006-01-02T15:04", time.DateOnly}

func parseDue(s string, loc *time.Location) (time.Time, error) {
	for _, layout := range dueLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid due time %q, use YYYY-MM-DD HH:MM", s)
}

func addCommand() *cli.Command {
	return &cli.Command{
		Name:      "add",
		Usage:     "Create a task.",
		ArgsUsage: "<title>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "due", Usage: "Due time, YYYY-MM-DD HH:MM."},
			&cli.IntFlag{Name: "duration", Aliases: []string{"d"}, Usage: "Duration in minutes (default 30)."},
			&cli.IntFlag{Name: "importance", Aliases: []string{"i"}, Usage: "Importance 1-5 (default 3)."},
			&cli.StringFlag{Name: "category", Usage: "Free-form category."},
			&cli.PathFlag{Name: "file", Usage: "Attach a file."},
		},
		Action: withEnv(func(c *cli.Context, e *env) error {
			in := app.NewTask{
				Title:      strings.Join(c.Args().Slice(), " "),
				Duration:   c.Int("duration"),
				Importance: c.Int("importance"),
				Category:   c.String("category"),
			}
			if s := c.String("due"); s != "" {
				due, err := parseDue(s, e.loc)
				if err != nil {
					return err
				}
				in.Due = &due
			}
			if path := c.Path("file"); path != "" {
				in.Attachment = &app.Attachment{
					Name: filepath.Base(path),
					Type: mime.TypeByExtension(filepath.Ext(path)),
				}
				f, err := os.Open(path)
				if err != nil {
					in.Attachment.Err = err
				} else {
					defer f.Close()
					in.Attachment.Body = f
				}
			}

			task, err := e.ctrl.CreateTask(c.Context, in)
			if err != nil {
				return err
			}
			fmt.Fprintln(e.out, task.ID)
			return nil
		}),
	}
}

func listCommand() *cli.Command {
	return &cli.Command{
		Name:    "list",
		Aliases: []string{"ls"},
		Usage:   "List tasks.",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "status", Value: app.StatusOpen, Usage: "open, done or all."},
			&cli.StringFlag{Name: "search", Aliases: []string{"q"}, Usage: "Match title or category."},
			&cli.StringFlag{Name: "sort", Value: app.SortPriority, Usage: "priority, due or created."},
		},
		Action: withEnv(func(c *cli.Context, e *env) error {
			tasks := e.ctrl.List(app.ListOptions{
				Status: c.String("status"),
				Query:  c.String("search"),
				Sort:   c.String("sort"),
			})
			if len(tasks) == 0 {
				fmt.Fprintln(e.errOut, "No tasks")
				return nil
			}
			printTasks(e.out, e, tasks)
			return nil
		}),
	}
}

func printTasks(w io.Writer, e *env, tasks []*models.Task) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tDUE\tMIN\tIMP\tCATEGORY\tFLAGS")
	for _, t := range tasks {
		due := "-"
		if t.Due != nil {
			due = t.Due.In(e.loc).Format("2006-01-02 15:04")
		}
		var flags []string
		if t.Done {
			flags = append(flags, "done")
		}
		if e.ctrl.Overdue(t) {
			flags = append(flags, "overdue")
		}
		if t.File != nil {
			flags = append(flags, "file:"+t.File.Name)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%s\t%s\n", t.ID, t.Title, due, t.EffectiveDuration(), t.Importance, t.Category, strings.Join(flags, ","))
	}
	tw.Flush()
}

func doneCommand(done bool) *cli.Command {
	name, usage := "done", "Mark tasks completed."
	if !done {
		name, usage = "undo", "Reopen completed tasks."
	}
	return &cli.Command{
		Name:      name,
		Usage:     usage,
		ArgsUsage: "<task-id>...",
		Action: withEnv(func(c *cli.Context, e *env) error {
			if c.NArg() == 0 {
				return fmt.Errorf("%s needs at least one task id", name)
			}
			for _, id := range c.Args().Slice() {
				if err := e.ctrl.SetDone(id, done); err != nil {
					return err
				}
			}
			return nil
		}),
	}
}

func renameCommand() *cli.Command {
	return &cli.Command{
		Name:      "rename",
		Usage:     "Change a task's title.",
		ArgsUsage: "<task-id> <title>",
		Action: withEnv(func(c *cli.Context, e *env) error {
			if c.NArg() < 2 {
				return fmt.Errorf("rename needs a task id and a title")
			}
			return e.ctrl.Rename(c.Args().First(), strings.Join(c.Args().Tail(), " "))
		}),
	}
}

func deleteCommand() *cli.Command {
	return &cli.Command{
		Name:      "delete",
		Aliases:   []string{"rm"},
		Usage:     "Delete tasks and their attachments.",
		ArgsUsage: "<task-id>...",
		Action: withEnv(func(c *cli.Context, e *env) error {
			for _, id := range c.Args().Slice() {
				if err := e.ctrl.Delete(c.Context, id); err != nil {
					return err
				}
			}
			return nil
		}),
	}
}

func attachmentCommand() *cli.Command {
	return &cli.Command{
		Name:      "attachment",
		Usage:     "Write a task's attachment to a file or stdout.",
		ArgsUsage: "<task-id>",
		Flags: []cli.Flag{
			&cli.PathFlag{Name: "output", Aliases: []string{"o"}, Usage: "Destination file, \"-\" for stdout (default: the original name)."},
		},
		Action: withEnv(func(c *cli.Context, e *env) error {
			blob, err := e.ctrl.Attachment(c.Context, c.Args().First())
			if err != nil {
				return err
			}
			out := c.Path("output")
			if out == "" {
				out = blob.ID
				if blob.Name != "" {
					out = filepath.Base(blob.Name)
				}
			}
			if out == "-" {
				_, err := e.out.Write(blob.Data)
				return err
			}
			if err := os.WriteFile(out, blob.Data, 0o644); err != nil {
				return fmt.Errorf("failed to write attachment: %w", err)
			}
			fmt.Fprintln(e.errOut, "Saved", out)
			return nil
		}),
	}
}
