// Package google pulls upcoming Google Calendar events as tasks.
package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"daydesk/internal/logger"
	"daydesk/internal/models"
)

const (
	credentialsFile = "credentials.json"
	redirectURL     = "urn:ietf:wg:oauth:2.0:oob"
	externalPrefix  = "google:"
)

// CalendarClient reads events of one authenticated account.
type CalendarClient struct {
	service *calendar.Service
	logger  *logger.Logger
	account string
}

// NewClient creates a client for the account whose token is stored in dir.
func NewClient(ctx context.Context, logger *logger.Logger, clientID, clientSecret, dir, account string) (*CalendarClient, error) {
	config, err := OAuthConfig(clientID, clientSecret, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to get OAuth config: %w", err)
	}

	token, err := tokenFromFile(TokenPath(dir, account))
	if err != nil {
		return nil, fmt.Errorf("could not load token for account %s: %w. Please run the 'auth' command first", account, err)
	}

	service, err := calendar.NewService(ctx, option.WithHTTPClient(config.Client(ctx, token)))
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar service: %w", err)
	}

	return &CalendarClient{service: service, logger: logger.With("account", account), account: account}, nil
}

// UpcomingTasks fetches the timed events between now and now+days and
// converts them to tasks.
func (c *CalendarClient) UpcomingTasks(ctx context.Context, calendarID string, now time.Time, days int) ([]*models.Task, error) {
	c.logger.Debugw("Fetching upcoming events", "calendarID", calendarID, "days", days)
	tmin := now.UTC().Format(time.RFC3339)
	tmax := now.UTC().AddDate(0, 0, days).Format(time.RFC3339)

	events, err := c.service.Events.List(calendarID).
		Context(ctx).
		ShowDeleted(false).
		SingleEvents(true).
		TimeMin(tmin).
		TimeMax(tmax).
		OrderBy("startTime").
		Do()
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve events: %w", err)
	}

	c.logger.Infow("Fetched events from Google Calendar", "count", len(events.Items), "calendarID", calendarID)
	return ToTasks(events.Items, now), nil
}

// ToTasks converts timed events to tasks in the "Google" category.
// All-day and cancelled events are skipped.
func ToTasks(items []*calendar.Event, created time.Time) []*models.Task {
	var tasks []*models.Task
	for _, item := range items {
		if item.Start == nil || item.Start.DateTime == "" || item.Status == "cancelled" {
			continue
		}
		start, err := time.Parse(time.RFC3339, item.Start.DateTime)
		if err != nil {
			continue
		}

		duration := models.DefaultDuration
		if item.End != nil && item.End.DateTime != "" {
			if end, err := time.Parse(time.RFC3339, item.End.DateTime); err == nil {
				duration = max(models.MinDuration, int(math.Round(end.Sub(start).Minutes())))
			}
		}

		title := strings.TrimSpace(item.Summary)
		if title == "" {
			title = "Google event"
		}

		tasks = append(tasks, &models.Task{
			ID:         uuid.NewString(),
			Title:      title,
			Due:        &start,
			Duration:   duration,
			Importance: models.DefaultImportance,
			Category:   models.CategoryGoogle,
			Created:    created,
			ExternalID: externalPrefix + item.Id,
		})
	}
	return tasks
}

// CalendarIDs lists the calendars of the account.
func (c *CalendarClient) CalendarIDs(ctx context.Context) ([]string, error) {
	list, err := c.service.CalendarList.List().Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to list calendars: %w", err)
	}

	var ids []string
	for _, item := range list.Items {
		ids = append(ids, item.Id)
	}
	return ids, nil
}

// OAuthConfig builds the OAuth2 config from the client id and secret,
// falling back to credentials.json in dir.
func OAuthConfig(clientID, clientSecret, dir string) (*oauth2.Config, error) {
	if clientID != "" && clientSecret != "" {
		return &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes:       []string{calendar.CalendarReadonlyScope},
			Endpoint:     google.Endpoint,
		}, nil
	}

	b, err := os.ReadFile(filepath.Join(dir, credentialsFile))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("no google credentials: set google.client_id and google.client_secret or place %s in %s", credentialsFile, dir)
		}
		return nil, fmt.Errorf("unable to read client secret file: %w", err)
	}

	config, err := google.ConfigFromJSON(b, calendar.CalendarReadonlyScope)
	if err != nil {
		return nil, fmt.Errorf("unable to parse client secret file to config: %w", err)
	}
	config.RedirectURL = redirectURL
	return config, nil
}

// Exchange trades an authorization code for a token.
func Exchange(ctx context.Context, config *oauth2.Config, code string) (*oauth2.Token, error) {
	return config.Exchange(ctx, code)
}

// TokenPath is where the token of an account is kept.
func TokenPath(dir, account string) string {
	return filepath.Join(dir, "token-"+account+".json")
}

// SaveToken writes a token readable only by the owner.
func SaveToken(path string, token *oauth2.Token) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("unable to create token file: %w", err)
	}
	defer f.Close()
	return json.NewEncoder(f).Encode(token)
}

func tokenFromFile(path string) (*oauth2.Token, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	tok := &oauth2.Token{}
	err = json.NewDecoder(f).Decode(tok)
	return tok, err
}

// TokenAccounts returns the accounts with a token in dir.
func TokenAccounts(dir string) ([]string, error) {
	files, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var accounts []string
	for _, file := range files {
		name := file.Name()
		if strings.HasPrefix(name, "token-") && strings.HasSuffix(name, ".json") {
			accounts = append(accounts, strings.TrimSuffix(strings.TrimPrefix(name, "token-"), ".json"))
		}
	}
	return accounts, nil
}
