package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/joseph-ayodele/survey-extractor/internal/common"
	"github.com/joseph-ayodele/survey-extractor/internal/entity"
)

// SettingsRequest updates an owner's LLM settings. A nil APIKey keeps the
// stored key; an empty string clears it.
type SettingsRequest struct {
	APIKey    *string `json:"api_key"`
	ModelName string  `json:"model_name"`
	Enabled   bool    `json:"enabled"`
}

func (req *SettingsRequest) Bind(_ *http.Request) error {
	req.ModelName = strings.TrimSpace(req.ModelName)
	return common.NewValidator().
		Field("model_name", req.ModelName, common.MaxLength(100)).
		Field("api_key", req.APIKey, common.MaxLength(500)).
		Err()
}

// SettingsReply never carries the key itself.
type SettingsReply struct {
	*entity.ExtractionSettings
	APIKeyPresent bool `json:"api_key_present"`
}

func (SettingsReply) Render(http.ResponseWriter, *http.Request) error { return nil }

func (s *Server) getSettings(w http.ResponseWriter, r *http.Request) {
	owner := strings.TrimSpace(chi.URLParam(r, "owner"))
	cur, err := s.deps.Settings.GetByOwner(r.Context(), owner)
	if err != nil {
		_ = render.Render(w, r, errResponse(err))
		return
	}
	if cur == nil {
		_ = render.Render(w, r, &ErrResponse{HTTPStatusCode: http.StatusNotFound, Error: "no settings for owner"})
		return
	}
	_ = render.Render(w, r, SettingsReply{ExtractionSettings: cur, APIKeyPresent: cur.APIKey != ""})
}

func (s *Server) putSettings(w http.ResponseWriter, r *http.Request) {
	log := common.LoggerFromContext(r.Context(), s.logger)
	owner := strings.TrimSpace(chi.URLParam(r, "owner"))
	if v := common.NewValidator().Field("owner", owner, common.Required, common.MaxLength(200)); v.HasErrors() {
		_ = render.Render(w, r, errBadRequest(v.ErrorMessage()))
		return
	}

	req := &SettingsRequest{}
	if err := render.Bind(r, req); err != nil {
		_ = render.Render(w, r, errBadRequest(err.Error()))
		return
	}

	next := &entity.ExtractionSettings{OwnerID: owner, ModelName: req.ModelName, Enabled: req.Enabled, UpdatedAt: time.Now().UTC()}
	if req.APIKey != nil {
		next.APIKey = strings.TrimSpace(*req.APIKey)
	} else {
		cur, err := s.deps.Settings.GetByOwner(r.Context(), owner)
		if err != nil {
			_ = render.Render(w, r, errResponse(err))
			return
		}
		if cur != nil {
			next.APIKey = cur.APIKey
		}
	}

	if err := s.deps.Settings.Upsert(r.Context(), next); err != nil {
		log.Error("settings upsert failed", "owner", owner, "error", err)
		_ = render.Render(w, r, errResponse(err))
		return
	}
	log.Info("settings updated", "owner", owner, "enabled", next.Enabled, "api_key_present", next.APIKey != "")
	_ = render.Render(w, r, SettingsReply{ExtractionSettings: next, APIKeyPresent: next.APIKey != ""})
}
