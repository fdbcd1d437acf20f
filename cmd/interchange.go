package main

import (
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v2"
)

func exportCommand() *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Write tasks with a due time as an .ics calendar.",
		Flags: []cli.Flag{
			&cli.PathFlag{Name: "output", Aliases: []string{"o"}, Usage: "Destination file (default stdout)."},
		},
		Action: withEnv(func(c *cli.Context, e *env) error {
			out := c.Path("output")
			if out == "" || out == "-" {
				return e.ctrl.ExportICS(e.out)
			}
			f, err := os.Create(out)
			if err != nil {
				return fmt.Errorf("failed to create %s: %w", out, err)
			}
			if err := e.ctrl.ExportICS(f); err != nil {
				f.Close()
				return err
			}
			return f.Close()
		}),
	}
}

func importCommand() *cli.Command {
	return &cli.Command{
		Name:      "import",
		Usage:     "Create tasks from the events of an .ics file.",
		ArgsUsage: "<file.ics|->",
		Action: withEnv(func(c *cli.Context, e *env) error {
			text, err := readInput(c.Args().First())
			if err != nil {
				return err
			}
			e.ctrl.ImportICS(text)
			return nil
		}),
	}
}

func summarizeCommand() *cli.Command {
	return &cli.Command{
		Name:      "summarize",
		Usage:     "Summarize meeting notes and pick out action items.",
		ArgsUsage: "[file|-]",
		Action: withEnv(func(c *cli.Context, e *env) error {
			text, err := readInput(c.Args().First())
			if err != nil {
				return err
			}
			bullets, actions := e.ctrl.Summarize(text)
			if len(bullets) == 0 {
				return nil
			}
			fmt.Fprintln(e.out, "Summary:")
			for _, b := range bullets {
				fmt.Fprintln(e.out, "•", b)
			}
			if len(actions) > 0 {
				fmt.Fprintln(e.out, "\nAction items:")
				for _, a := range actions {
					fmt.Fprintln(e.out, "☐", a)
				}
			}
			return nil
		}),
	}
}

// readInput reads a file, or stdin for "" and "-".
func readInput(path string) (string, error) {
	var (
		b   []byte
		err error
	)
	if path == "" || path == "-" {
		b, err = io.ReadAll(os.Stdin)
	} else {
		b, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return string(b), nil
}
