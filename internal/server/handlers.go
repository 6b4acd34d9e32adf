package server

import (
	"encoding/json"
	"math"
	"net/http"
	"strconv"

	"github.com/giftwise/giftwise/internal/utils"
	"github.com/giftwise/giftwise/pkg/campaign"
	"github.com/giftwise/giftwise/pkg/catalog"
	"github.com/giftwise/giftwise/pkg/preview"
	"github.com/giftwise/giftwise/pkg/recommend"
	"github.com/giftwise/giftwise/pkg/validation"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		utils.Log.Debugf("Could not write response: %v", err)
	}
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	mode, err := preview.ParseViewMode(r.URL.Query().Get("mode"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	page := s.wizard.Draft().Landing
	s.mu.Unlock()

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := preview.Page(s.Title, page, mode).Render(w); err != nil {
		utils.Log.Warnf("Could not render preview: %v", err)
	}
}

// CampaignResponse is the draft plus its current validation state.
type CampaignResponse struct {
	Draft  campaign.Draft    `json:"draft"`
	Dirty  bool              `json:"dirty"`
	Errors validation.Errors `json:"errors"`
}

func (s *Server) campaignResponse() CampaignResponse {
	return CampaignResponse{
		Draft:  s.wizard.Draft(),
		Dirty:  s.wizard.Dirty(),
		Errors: s.wizard.Validate(),
	}
}

func (s *Server) handleCampaign(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	resp := s.campaignResponse()
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, resp)
}

// LandingUpdate carries the landing page fields editable from the preview.
// Nil fields are left unchanged.
type LandingUpdate struct {
	Headline    *string                 `json:"headline"`
	Description *string                 `json:"description"`
	Buttons     []campaign.ActionButton `json:"actionButtons"`
}

func (s *Server) handleUpdateLanding(w http.ResponseWriter, r *http.Request) {
	var req LandingUpdate
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if len(req.Buttons) > 2 {
		http.Error(w, "at most two action buttons", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// A rejected update leaves the wizard as it was before the request.
	before := s.wizard.Draft()
	if req.Headline != nil {
		s.wizard.SetHeadline(*req.Headline)
	}
	if req.Description != nil {
		s.wizard.SetDescription(*req.Description)
	}
	for i, b := range req.Buttons {
		if err := s.wizard.SetButton(i, b); err != nil {
			s.wizard.Restore(before)
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	}
	if s.OnChange != nil {
		if err := s.OnChange(s.wizard.Draft()); err != nil {
			s.wizard.Restore(before)
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	}
	writeJSON(w, http.StatusOK, s.campaignResponse())
}

// RecommendationsResponse lists the strict recommendations and the
// budget-aware catalog view.
type RecommendationsResponse struct {
	Budget          float64        `json:"budget,omitempty"`
	Recommendations []catalog.Gift `json:"recommendations"`
	Catalog         []catalog.Gift `json:"catalog"`
}

func (s *Server) handleRecommendations(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("budget")
	if raw == "" {
		s.mu.Lock()
		resp := RecommendationsResponse{
			Budget:          s.wizard.Draft().BudgetPerGift,
			Recommendations: s.wizard.Recommendations(),
			Catalog:         s.wizard.Catalog(),
		}
		s.mu.Unlock()
		writeJSON(w, http.StatusOK, resp)
		return
	}

	budget, err := strconv.ParseFloat(raw, 64)
	if err != nil || budget <= 0 || math.IsInf(budget, 0) || math.IsNaN(budget) {
		http.Error(w, "budget must be a positive number", http.StatusBadRequest)
		return
	}
	gifts := s.repo.All()
	writeJSON(w, http.StatusOK, RecommendationsResponse{
		Budget:          budget,
		Recommendations: recommend.Recommend(gifts, budget, recommend.DefaultLimit),
		Catalog:         recommend.CatalogView(gifts, budget),
	})
}
