package health

import (
	"encoding/json"
	"net/http"
)

// BackendReport is one backend's entry in the health report.
type BackendReport struct {
	Label string `json:"label"`
	Status
}

// Report is the response body of the health endpoint.
type Report struct {
	// OverallStatus is "healthy" while at least one pool backend is in
	// rotation, otherwise "unhealthy".
	OverallStatus string `json:"overall_status"`

	// Backends lists per-backend status in configuration order.
	Backends []BackendReport `json:"backends"`
}

// Handler returns the HTTP handler for the health endpoint. The report is
// served without authentication so load balancers and orchestrators can
// probe the router itself.
func (m *Monitor) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		statuses := m.Statuses()

		report := Report{
			OverallStatus: "unhealthy",
			Backends:      make([]BackendReport, 0, len(m.targets)),
		}
		for _, target := range m.targets {
			status := statuses[target.Label]
			if status.Healthy {
				report.OverallStatus = "healthy"
			}
			report.Backends = append(report.Backends, BackendReport{
				Label:  target.Label,
				Status: status,
			})
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(report); err != nil {
			http.Error(w, "failed to encode health report", http.StatusInternalServerError)
		}
	})
}

// DisabledHandler returns the handler served when health monitoring is
// disabled: every backend is assumed healthy and the report says so without
// listing backends.
func DisabledHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(Report{
			OverallStatus: "healthy",
			Backends:      []BackendReport{},
		})
	})
}
