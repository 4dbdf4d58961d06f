package api

import (
	"net/http"

	"github.com/seenimoa/commodityavg/internal/config"
)

// ConfigResponse is the JSON body returned by GET /api/v1/config.
type ConfigResponse struct {
	Settings    []config.SettingStatus `json:"settings"`
	Addr        string                 `json:"addr"`
	SessionTTL  string                 `json:"session_ttl"`
	ChartWidth  int                    `json:"chart_width"`
	ChartHeight int                    `json:"chart_height"`
}

// handleGetConfig returns the effective configuration of the running server.
func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: ConfigResponse{
			Settings:    config.CheckSettings(s.cfg),
			Addr:        s.cfg.Server.Addr(),
			SessionTTL:  s.cfg.Server.SessionTTL.String(),
			ChartWidth:  s.cfg.Chart.Width,
			ChartHeight: s.cfg.Chart.Height,
		},
	})
}
