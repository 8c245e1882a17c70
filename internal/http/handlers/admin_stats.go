package handlers

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/thepaulgroup/lead-assistant/internal/observability/metrics"
	"github.com/thepaulgroup/lead-assistant/pkg/logging"
)

// StatsResponse summarizes the turn counters since process start.
type StatsResponse struct {
	Turns              map[string]float64 `json:"turns_by_outcome"`
	TurnsByChannel     map[string]float64 `json:"turns_by_channel"`
	Bookings           float64            `json:"bookings"`
	RecruitingInquiry  float64            `json:"recruiting_inquiries"`
	CollaboratorErrors map[string]float64 `json:"collaborator_failures"`
}

// AdminStatsHandler reads the turn metrics back from a Prometheus gatherer.
type AdminStatsHandler struct {
	gatherer prometheus.Gatherer
	logger   *logging.Logger
}

func NewAdminStatsHandler(gatherer prometheus.Gatherer, logger *logging.Logger) *AdminStatsHandler {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &AdminStatsHandler{gatherer: gatherer, logger: logger}
}

// Stats handles GET /admin/stats.
func (h *AdminStatsHandler) Stats(w http.ResponseWriter, r *http.Request) {
	families, err := h.gatherer.Gather()
	if err != nil {
		h.logger.Error("failed to gather metrics", "error", err)
		http.Error(w, "failed to gather metrics", http.StatusInternalServerError)
		return
	}

	resp := StatsResponse{
		Turns:              map[string]float64{},
		TurnsByChannel:     map[string]float64{},
		CollaboratorErrors: map[string]float64{},
	}
	for _, family := range families {
		switch family.GetName() {
		case metrics.TurnsTotalName:
			for _, m := range family.GetMetric() {
				v := m.GetCounter().GetValue()
				resp.Turns[label(m, "outcome")] += v
				resp.TurnsByChannel[label(m, "channel")] += v
			}
		case metrics.BookingsTotalName:
			resp.Bookings = sumCounters(family)
		case metrics.RecruitingTotalName:
			resp.RecruitingInquiry = sumCounters(family)
		case metrics.FailuresTotalName:
			for _, m := range family.GetMetric() {
				resp.CollaboratorErrors[label(m, "component")] += m.GetCounter().GetValue()
			}
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func sumCounters(family *dto.MetricFamily) float64 {
	var total float64
	for _, m := range family.GetMetric() {
		total += m.GetCounter().GetValue()
	}
	return total
}

func label(m *dto.Metric, name string) string {
	for _, lp := range m.GetLabel() {
		if lp.GetName() == name {
			return lp.GetValue()
		}
	}
	return ""
}
