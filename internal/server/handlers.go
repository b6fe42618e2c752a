package server

import (
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/jonathan/provider-matcher/internal/matching"
	"github.com/jonathan/provider-matcher/internal/observability"
	"github.com/jonathan/provider-matcher/internal/types"
)

// DirectorSummary is one row of GET /directors.
type DirectorSummary struct {
	Name         string `json:"name"`
	Email        string `json:"email,omitempty"`
	Jurisdiction string `json:"jurisdiction,omitempty"`
	OnboardedAt  string `json:"onboarded_at,omitempty"`
}

// NurseSummary is one row of GET /nurses.
type NurseSummary struct {
	Ticket          string `json:"ticket"`
	LicenseType     string `json:"license_type"`
	ExperienceLevel string `json:"experience_level,omitempty"`
	Jurisdiction    string `json:"jurisdiction,omitempty"`
}

// ListResponse wraps a listing.
type ListResponse[T any] struct {
	Items []T `json:"items"`
	Total int `json:"total"`
}

// DirectorMatchRequest is the body of POST /match/director.
type DirectorMatchRequest struct {
	Name    string               `json:"name"`
	Filters types.FilterCriteria `json:"filters"`
}

// NurseMatchRequest is the body of POST /match/nurse.
type NurseMatchRequest struct {
	Ticket  string               `json:"ticket"`
	Filters types.FilterCriteria `json:"filters"`
}

// ManualMatchRequest is the body of POST /match/manual.
type ManualMatchRequest struct {
	Text  string            `json:"text"`
	Hints types.ManualHints `json:"hints"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, s.logger, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.matcher.Stats(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, s.logger, http.StatusOK, stats)
}

// handleListDirectors lists directors, optionally filtered by ?q= on the name.
func (s *Server) handleListDirectors(w http.ResponseWriter, r *http.Request) {
	dataset, err := s.matcher.Dataset(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}

	q := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("q")))
	items := make([]DirectorSummary, 0, len(dataset.Directors))
	for _, d := range dataset.Directors {
		if q != "" && !strings.Contains(strings.ToLower(d.FullName()), q) {
			continue
		}
		items = append(items, DirectorSummary{
			Name:         d.FullName(),
			Email:        d.Email,
			Jurisdiction: d.Jurisdiction,
			OnboardedAt:  d.OnboardedAt,
		})
	}
	writeJSON(w, s.logger, http.StatusOK, ListResponse[DirectorSummary]{Items: items, Total: len(items)})
}

// handleListNurses lists nurses, optionally filtered by ?q= on the ticket.
func (s *Server) handleListNurses(w http.ResponseWriter, r *http.Request) {
	dataset, err := s.matcher.Dataset(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}

	q := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("q")))
	items := make([]NurseSummary, 0, len(dataset.Nurses))
	for _, n := range dataset.Nurses {
		if strings.TrimSpace(n.Ticket) == "" {
			continue
		}
		if q != "" && !strings.Contains(strings.ToLower(n.Ticket), q) {
			continue
		}
		items = append(items, NurseSummary{
			Ticket:          n.Ticket,
			LicenseType:     n.LicenseType,
			ExperienceLevel: n.ExperienceLevel,
			Jurisdiction:    n.Jurisdiction,
		})
	}
	writeJSON(w, s.logger, http.StatusOK, ListResponse[NurseSummary]{Items: items, Total: len(items)})
}

func (s *Server) handleMatchDirector(w http.ResponseWriter, r *http.Request) {
	var body DirectorMatchRequest
	if !s.decode(w, r, &body) {
		return
	}
	s.runMatch(w, r, types.MatchRequest{Direction: types.DirectionDirector, Query: body.Name, Filters: body.Filters})
}

func (s *Server) handleMatchNurse(w http.ResponseWriter, r *http.Request) {
	var body NurseMatchRequest
	if !s.decode(w, r, &body) {
		return
	}
	s.runMatch(w, r, types.MatchRequest{Direction: types.DirectionNurse, Query: body.Ticket, Filters: body.Filters})
}

func (s *Server) handleMatchManual(w http.ResponseWriter, r *http.Request) {
	var body ManualMatchRequest
	if !s.decode(w, r, &body) {
		return
	}
	s.runMatch(w, r, types.MatchRequest{Direction: types.DirectionManual, Text: body.Text, Hints: body.Hints})
}

// runMatch runs or previews (?dry_run=true) a match request.
func (s *Server) runMatch(w http.ResponseWriter, r *http.Request, req types.MatchRequest) {
	dryRun, _ := strconv.ParseBool(r.URL.Query().Get("dry_run"))

	var (
		outcome *matching.Outcome
		err     error
	)
	if dryRun {
		outcome, err = s.matcher.Preview(r.Context(), req)
	} else {
		outcome, err = s.matcher.Match(r.Context(), req)
	}
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, s.logger, http.StatusOK, outcome)
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := decodeJSON(r, dst); err != nil {
		writeJSON(w, s.logger, http.StatusBadRequest, ErrorResponse{Error: "invalid_body", Message: err.Error()})
		return false
	}
	return true
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		observability.FromContext(r.Context()).Warn("request failed", zap.Int("status", status), zap.Error(err))
	}
	writeError(w, s.logger, err)
}
