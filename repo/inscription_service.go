package repo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"CulturalDayBot/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// DefaultInscriptionURL is the deployed registration endpoint.
const DefaultInscriptionURL = "https://backendjournee-v9qj.vercel.app/api/inscriptions"

// InscriptionResponse is the body returned by the endpoint. Success is a
// pointer so that a missing field can be told apart from false.
type InscriptionResponse struct {
	Success *bool  `json:"success"`
	Message string `json:"message"`
}

// InscriptionService posts registrations to the inscriptions endpoint.
type InscriptionService struct {
	Endpoint   string
	HTTPClient *http.Client
}

// NewInscriptionService creates a new inscription service
func NewInscriptionService(endpoint string) *InscriptionService {
	if endpoint == "" {
		endpoint = DefaultInscriptionURL
	}
	return &InscriptionService{
		Endpoint:   endpoint,
		HTTPClient: http.DefaultClient,
	}
}

// Submit sends exactly one POST. Failures are reported as *model.NetworkError,
// *model.ServerError or *model.ApplicationError.
func (s *InscriptionService) Submit(ctx context.Context, payload model.SubmissionPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("error encoding registration: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.Endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("error building request: %w", err)
	}
	requestID := uuid.NewString()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", requestID)

	logger := zerolog.Ctx(ctx).With().Str("request_id", requestID).Logger()

	resp, err := s.client().Do(req)
	if err != nil {
		logger.Warn().Err(err).Msg("inscription request failed")
		return &model.NetworkError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		logger.Warn().Int("status", resp.StatusCode).Msg("inscription rejected by server")
		return &model.ServerError{StatusCode: resp.StatusCode}
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &model.NetworkError{Err: fmt.Errorf("error reading response body: %w", err)}
	}

	var inscription InscriptionResponse
	if err := json.Unmarshal(respBody, &inscription); err != nil {
		return &model.ApplicationError{Err: fmt.Errorf("error unmarshaling response: %w", err)}
	}

	if inscription.Success == nil || !*inscription.Success {
		logger.Warn().Str("message", inscription.Message).Msg("inscription not accepted")
		return &model.ApplicationError{Message: inscription.Message}
	}

	logger.Debug().Int("status", resp.StatusCode).Msg("inscription accepted")
	return nil
}

func (s *InscriptionService) client() *http.Client {
	if s.HTTPClient != nil {
		return s.HTTPClient
	}
	return http.DefaultClient
}
