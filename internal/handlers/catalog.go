package handlers

import (
	"log/slog"
	"net/http"

	"github.com/jwebster45206/lifeskills-engine/pkg/content"
	"github.com/jwebster45206/lifeskills-engine/pkg/session"
)

type CatalogStory struct {
	ID               int    `json:"id"`
	Title            string `json:"title"`
	Description      string `json:"description,omitempty"`
	MinLevelToUnlock int    `json:"min_level_to_unlock"`
	Scenes           int    `json:"scenes"`
}

type CatalogMeter struct {
	Name    string `json:"name"`
	Label   string `json:"label"`
	Default int    `json:"default"`
}

type CatalogAchievement struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

type CatalogBoard struct {
	ID               string `json:"id"`
	Title            string `json:"title"`
	Instructions     string `json:"instructions,omitempty"`
	MinLevelToUnlock int    `json:"min_level_to_unlock"`
}

type CatalogResponse struct {
	Meters       []CatalogMeter       `json:"meters"`
	Stories      []CatalogStory       `json:"stories"`
	Achievements []CatalogAchievement `json:"achievements"`
	MatchBoards  []CatalogBoard       `json:"match_boards"`
}

// CatalogHandler serves the read-only content catalog. Scene graphs stay on
// the server; clients walk them one SceneView at a time.
type CatalogHandler struct {
	response CatalogResponse
	logger   *slog.Logger
}

func NewCatalogHandler(catalog *content.Catalog, logger *slog.Logger) *CatalogHandler {
	resp := CatalogResponse{
		Meters:       []CatalogMeter{},
		Stories:      []CatalogStory{},
		Achievements: []CatalogAchievement{},
		MatchBoards:  []CatalogBoard{},
	}
	for _, m := range catalog.Meters() {
		label := m.Label
		if label == "" {
			label = session.MeterLabel(m.Name)
		}
		resp.Meters = append(resp.Meters, CatalogMeter{Name: m.Name, Label: label, Default: m.StartValue()})
	}
	for _, s := range catalog.Stories() {
		resp.Stories = append(resp.Stories, CatalogStory{
			ID:               s.ID,
			Title:            s.Title,
			Description:      s.Description,
			MinLevelToUnlock: s.MinLevelToUnlock,
			Scenes:           len(s.Scenes),
		})
	}
	for _, a := range catalog.Achievements() {
		resp.Achievements = append(resp.Achievements, CatalogAchievement{ID: a.ID, Title: a.Title, Description: a.Description})
	}
	for _, b := range catalog.MatchBoards() {
		resp.MatchBoards = append(resp.MatchBoards, CatalogBoard{
			ID:               b.ID,
			Title:            b.Title,
			Instructions:     b.Instructions,
			MinLevelToUnlock: b.MinLevelToUnlock,
		})
	}
	return &CatalogHandler{response: resp, logger: logger}
}

// ServeHTTP handles GET /v1/catalog
func (h *CatalogHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Supported methods: GET")
		return
	}
	writeJSON(w, h.logger, http.StatusOK, h.response)
}
