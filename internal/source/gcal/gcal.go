// Package gcal fetches events from the Google Calendar REST API using a
// pre-provisioned OAuth token. Token creation is out of scope; the token
// file is produced externally and refreshed in place here.
package gcal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	appLog "epddash/internal/log"
	"epddash/internal/model"
	"epddash/internal/source"
)

const (
	scopeCalendarReadonly = "https://www.googleapis.com/auth/calendar.readonly"
	eventsURL             = "https://www.googleapis.com/calendar/v3/calendars/%s/events"
	maxResults            = 250
)

// Client is a calendar source adapter for one owner's Google calendar.
type Client struct {
	owner      model.Owner
	calendarID string
	loc        *time.Location

	tokenPath string
	conf      *oauth2.Config
	token     *oauth2.Token

	// httpClient overrides the oauth2 transport in tests.
	httpClient *http.Client
	baseURL    string
}

// New builds a Client for owner's calendarID. credentialsPath is the OAuth
// client secret JSON, tokenPath the stored token. Events are returned in loc.
func New(owner model.Owner, calendarID, credentialsPath, tokenPath string, loc *time.Location) (*Client, error) {
	if calendarID == "" {
		return nil, errors.New("gcal: calendar id is empty")
	}
	if loc == nil {
		loc = time.Local
	}

	creds, err := os.ReadFile(credentialsPath)
	if err != nil {
		return nil, fmt.Errorf("gcal: read credentials: %w", err)
	}
	conf, err := google.ConfigFromJSON(creds, scopeCalendarReadonly)
	if err != nil {
		return nil, fmt.Errorf("gcal: parse credentials: %w", err)
	}

	tok, err := loadToken(tokenPath)
	if err != nil {
		return nil, fmt.Errorf("gcal: load token: %w", err)
	}

	return &Client{
		owner:      owner,
		calendarID: calendarID,
		loc:        loc,
		tokenPath:  tokenPath,
		conf:       conf,
		token:      tok,
	}, nil
}

// eventItem mirrors the subset of the Calendar v3 event resource this
// system consumes. The provider's "summary" field is the display title;
// events without a summary render as "Untitled" downstream.
type eventItem struct {
	ID          string    `json:"id"`
	Status      string    `json:"status"`
	Summary     string    `json:"summary"`
	Description string    `json:"description"`
	Location    string    `json:"location"`
	Start       eventTime `json:"start"`
	End         eventTime `json:"end"`
}

// eventTime is the dateTime-or-date union used by the Calendar API.
// All-day events carry only "date".
type eventTime struct {
	DateTime string `json:"dateTime"`
	Date     string `json:"date"`
}

type eventsResponse struct {
	Items         []eventItem `json:"items"`
	NextPageToken string      `json:"nextPageToken"`
}

// Fetch performs one events.list call (single-event expansion, ordered by
// start) and converts the items into model events. It never retries.
func (c *Client) Fetch(ctx context.Context, window source.Window) ([]model.Event, error) {
	client := c.httpClient
	if client == nil {
		src := c.conf.TokenSource(ctx, c.token)
		// Persist a refreshed token so the appliance survives restarts
		// without re-provisioning.
		if fresh, err := src.Token(); err == nil && fresh.AccessToken != c.token.AccessToken {
			c.token = fresh
			if err := saveToken(c.tokenPath, fresh); err != nil {
				appLog.Warn("gcal: token save failed", "err", err)
			}
		}
		client = oauth2.NewClient(ctx, src)
		client.Timeout = 30 * time.Second
	}

	base := c.baseURL
	if base == "" {
		base = fmt.Sprintf(eventsURL, url.PathEscape(c.calendarID))
	}

	q := url.Values{}
	q.Set("timeMin", window.Start.UTC().Format(time.RFC3339))
	q.Set("timeMax", window.End.UTC().Format(time.RFC3339))
	q.Set("singleEvents", "true")
	q.Set("orderBy", "startTime")
	q.Set("maxResults", fmt.Sprint(maxResults))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("gcal: build request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gcal: fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("gcal: calendar API %s: %s", resp.Status, string(body))
	}

	var parsed eventsResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("gcal: decode response: %w", err)
	}

	events := make([]model.Event, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		ev, ok := c.convert(item)
		if !ok {
			continue
		}
		events = append(events, ev)
	}

	appLog.Info("gcal fetch completed", "owner", c.owner, "count", len(events))
	return events, nil
}

// convert maps one API item to a model event. Items that are cancelled or
// missing id/start are dropped, never fatal.
func (c *Client) convert(item eventItem) (model.Event, bool) {
	if item.ID == "" || item.Status == "cancelled" {
		return model.Event{}, false
	}

	start, allDay, ok := c.parseTime(item.Start)
	if !ok {
		appLog.Warn("gcal: dropping event without parseable start", "owner", c.owner, "id", item.ID)
		return model.Event{}, false
	}
	end, _, endOK := c.parseTime(item.End)
	if !endOK {
		end = start
	}

	return model.Event{
		ID:          item.ID,
		Owner:       c.owner,
		Title:       item.Summary,
		Description: item.Description,
		Location:    item.Location,
		Start:       start,
		End:         end,
		AllDay:      allDay,
	}, true
}

// parseTime decodes the dateTime-or-date union. A bare date becomes the
// start-of-day instant in the display timezone.
func (c *Client) parseTime(et eventTime) (t time.Time, allDay, ok bool) {
	switch {
	case et.DateTime != "":
		parsed, err := time.Parse(time.RFC3339, et.DateTime)
		if err != nil {
			return time.Time{}, false, false
		}
		return parsed.In(c.loc), false, true
	case et.Date != "":
		parsed, err := time.ParseInLocation("2006-01-02", et.Date, c.loc)
		if err != nil {
			return time.Time{}, false, false
		}
		return parsed, true, true
	default:
		return time.Time{}, false, false
	}
}

func loadToken(path string) (*oauth2.Token, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var tok oauth2.Token
	if err := json.Unmarshal(data, &tok); err != nil {
		return nil, err
	}
	return &tok, nil
}

func saveToken(path string, tok *oauth2.Token) error {
	data, err := json.MarshalIndent(tok, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}
