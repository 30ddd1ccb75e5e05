package services

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"health-copilot-backend/config"
)

// EventRequest carries the handler-supplied fields for one calendar event.
type EventRequest struct {
	Summary     string
	Description string
	Start       time.Time
	End         time.Time
	WithMeet    bool
}

// EventConfirmation is what the system retains after ownership of the event
// transfers to the calendar provider.
type EventConfirmation struct {
	HTMLLink string
	MeetLink string
}

// CalendarGateway books events with the external calendar provider.
// Provider-side failures surface as errors to the caller, never swallowed.
type CalendarGateway interface {
	// EnsureAuthorized loads or acquires credentials. Must be called once at
	// startup before any CreateEvent; it is an explicit step, not an
	// import-time side effect.
	EnsureAuthorized(ctx context.Context) error

	CreateEvent(ctx context.Context, req EventRequest) (*EventConfirmation, error)
}

type CalendarService struct {
	cfg    config.CalendarConfig
	svc    *calendar.Service
	logger *zap.Logger
}

func NewCalendarService(cfg config.CalendarConfig, logger *zap.Logger) *CalendarService {
	return &CalendarService{
		cfg:    cfg,
		logger: logger,
	}
}

// EnsureAuthorized reads the OAuth client secrets, reuses the cached token if
// one exists, and otherwise walks the installed-app authorization flow and
// caches the result.
func (s *CalendarService) EnsureAuthorized(ctx context.Context) error {
	secrets, err := os.ReadFile(s.cfg.CredentialsFile)
	if err != nil {
		return fmt.Errorf("read calendar credentials: %w", err)
	}

	oauthCfg, err := google.ConfigFromJSON(secrets, calendar.CalendarEventsScope)
	if err != nil {
		return fmt.Errorf("parse calendar credentials: %w", err)
	}

	token, err := tokenFromFile(s.cfg.TokenFile)
	if err != nil {
		token, err = s.tokenFromWeb(ctx, oauthCfg)
		if err != nil {
			return fmt.Errorf("authorize calendar access: %w", err)
		}
		if err := saveToken(s.cfg.TokenFile, token); err != nil {
			s.logger.Warn("failed to cache calendar token", zap.Error(err))
		}
	}

	// The token source refreshes expired tokens transparently.
	client := oauthCfg.Client(ctx, token)
	svc, err := calendar.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return fmt.Errorf("create calendar client: %w", err)
	}

	s.svc = svc
	s.logger.Info("calendar gateway authorized", zap.String("calendar_id", s.cfg.CalendarID))
	return nil
}

// Authorized reports whether EnsureAuthorized has completed successfully.
func (s *CalendarService) Authorized() bool {
	return s.svc != nil
}

func (s *CalendarService) CreateEvent(ctx context.Context, req EventRequest) (*EventConfirmation, error) {
	if s.svc == nil {
		return nil, fmt.Errorf("calendar gateway is not authorized")
	}

	event := &calendar.Event{
		Summary:     req.Summary,
		Description: req.Description,
		Start: &calendar.EventDateTime{
			DateTime: req.Start.Format(time.RFC3339),
			TimeZone: s.cfg.Timezone,
		},
		End: &calendar.EventDateTime{
			DateTime: req.End.Format(time.RFC3339),
			TimeZone: s.cfg.Timezone,
		},
	}

	if req.WithMeet {
		event.ConferenceData = &calendar.ConferenceData{
			CreateRequest: &calendar.CreateConferenceRequest{
				RequestId: uuid.NewString(),
				ConferenceSolutionKey: &calendar.ConferenceSolutionKey{
					Type: "hangoutsMeet",
				},
			},
		}
	}

	call := s.svc.Events.Insert(s.cfg.CalendarID, event)
	if req.WithMeet {
		call = call.ConferenceDataVersion(1)
	}

	created, err := call.Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("insert calendar event: %w", err)
	}

	s.logger.Info("calendar event created",
		zap.String("summary", req.Summary),
		zap.Time("start", req.Start))

	return &EventConfirmation{
		HTMLLink: created.HtmlLink,
		MeetLink: created.HangoutLink,
	}, nil
}

func tokenFromFile(path string) (*oauth2.Token, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	token := &oauth2.Token{}
	if err := json.NewDecoder(f).Decode(token); err != nil {
		return nil, err
	}
	return token, nil
}

// tokenFromWeb runs the interactive flow: the operator opens the printed URL,
// grants access, and pastes the code back on stdin.
func (s *CalendarService) tokenFromWeb(ctx context.Context, oauthCfg *oauth2.Config) (*oauth2.Token, error) {
	authURL := oauthCfg.AuthCodeURL("state-token", oauth2.AccessTypeOffline)
	fmt.Printf("Open the following link in your browser, then paste the authorization code:\n%v\n", authURL)

	var code string
	if _, err := fmt.Scan(&code); err != nil {
		return nil, fmt.Errorf("read authorization code: %w", err)
	}

	token, err := oauthCfg.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchange authorization code: %w", err)
	}
	return token, nil
}

func saveToken(path string, token *oauth2.Token) error {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	defer f.Close()
	return json.NewEncoder(f).Encode(token)
}
