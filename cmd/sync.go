package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v2"
	"golang.org/x/oauth2"

	"daydesk/internal/caldav"
	"daydesk/internal/google"
	"daydesk/internal/models"
	"daydesk/internal/syncer"
)

func publishCommand() *cli.Command {
	return &cli.Command{
		Name:  "publish",
		Usage: "Publish scheduled tasks to the configured CalDAV calendar.",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "dry-run", Usage: "Log what would be published without making changes."},
		},
		Action: withEnv(func(c *cli.Context, e *env) error {
			if !e.cfg.CalDAV.Enabled() {
				return fmt.Errorf("caldav.endpoint and caldav.calendar must be set to publish")
			}
			dryRun := c.Bool("dry-run")
			if dryRun {
				e.logger.Info("Performing a dry run. No changes will be made.")
			}

			client, err := caldav.NewClient(c.Context, e.logger, caldav.Options{
				Endpoint: e.cfg.CalDAV.Endpoint,
				Username: e.cfg.CalDAV.Username,
				Password: e.cfg.CalDAV.Password,
				Calendar: e.cfg.CalDAV.Calendar,
				Clock:    e.clock,
			})
			if err != nil {
				return fmt.Errorf("failed to create caldav client: %w", err)
			}

			s := syncer.New(e.logger, client, e.persist, dryRun, e.loc)
			res, err := s.Sync(c.Context, e.ctrl.TasksWithDue())
			if err != nil {
				return err
			}
			fmt.Fprintf(e.errOut, "Published %d, removed %d, unchanged %d, failed %d\n", res.Published, res.Removed, res.Skipped, res.Failed)
			return nil
		}),
	}
}

func authCommand() *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Authenticate with a Google account to get an API token.",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "account", Usage: "Name for this account (e.g. personal, work)."},
		},
		Action: withEnv(func(c *cli.Context, e *env) error {
			e.logger.Info("Starting Google authentication flow.")
			config, err := google.OAuthConfig(e.cfg.Google.ClientID, e.cfg.Google.ClientSecret, e.cfg.DataDir)
			if err != nil {
				return fmt.Errorf("failed to get google oauth config: %w", err)
			}

			authURL := config.AuthCodeURL("state-token", oauth2.AccessTypeOffline)
			fmt.Fprintf(e.out, "Go to the following link in your browser then type the authorization code:\n%v\n", authURL)

			reader := bufio.NewReader(os.Stdin)
			fmt.Fprint(e.out, "Enter Authorization Code: ")
			authCode, _ := reader.ReadString('\n')

			token, err := google.Exchange(c.Context, config, strings.TrimSpace(authCode))
			if err != nil {
				return fmt.Errorf("unable to retrieve token from web: %w", err)
			}

			account := c.String("account")
			if account == "" {
				fmt.Fprint(e.out, "Enter a name for this account (e.g., 'personal', 'work'): ")
				account, _ = reader.ReadString('\n')
				account = strings.TrimSpace(account)
			}
			if account == "" {
				account = "default"
			}

			tokenFile := google.TokenPath(e.cfg.DataDir, account)
			if err := google.SaveToken(tokenFile, token); err != nil {
				return fmt.Errorf("failed to save token: %w", err)
			}
			e.logger.Infow("Saved token", "file", tokenFile)
			return nil
		}),
	}
}

func pullGoogleCommand() *cli.Command {
	return &cli.Command{
		Name:  "pull-google",
		Usage: "Import upcoming Google Calendar events as tasks.",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "days", Usage: "How many days ahead to look (default google.days)."},
		},
		Action: withEnv(func(c *cli.Context, e *env) error {
			days := c.Int("days")
			if days <= 0 {
				days = e.cfg.Google.Days
			}

			accounts, err := google.TokenAccounts(e.cfg.DataDir)
			if err != nil {
				return fmt.Errorf("could not list google accounts: %w", err)
			}
			if len(accounts) == 0 {
				return fmt.Errorf("no google accounts found. Run the 'auth' command first")
			}

			now := e.clock.Now()
			var tasks []*models.Task
			for _, account := range accounts {
				client, err := google.NewClient(c.Context, e.logger, e.cfg.Google.ClientID, e.cfg.Google.ClientSecret, e.cfg.DataDir, account)
				if err != nil {
					return fmt.Errorf("failed to create google client for account %s: %w", account, err)
				}

				calendarIDs := e.cfg.Google.CalendarIDs
				if len(calendarIDs) == 0 {
					if calendarIDs, err = client.CalendarIDs(c.Context); err != nil {
						e.logger.Errorw("Could not discover calendars", "account", account, "error", err)
						continue
					}
				}
				for _, id := range calendarIDs {
					got, err := client.UpcomingTasks(c.Context, id, now, days)
					if err != nil {
						e.logger.Errorw("Could not fetch events for a google calendar", "calendarID", id, "error", err)
						continue
					}
					tasks = append(tasks, got...)
				}
			}

			n := e.ctrl.AddTasks(tasks)
			fmt.Fprintf(e.errOut, "Imported %d event(s) from Google\n", n)
			return nil
		}),
	}
}
