package dto

import "github.com/spec-kit/sla-engine/internal/service"

// ComplianceReportResponse is the wire shape of the SLA report. MTTA and
// MTTR are reported in minutes.
type ComplianceReportResponse struct {
	Total         int     `json:"total"`
	Resolved      int     `json:"resolved"`
	Breached      int     `json:"breached"`
	Warned        int     `json:"warned"`
	CompliancePct float64 `json:"compliance_pct"`
	MTTAMinutes   float64 `json:"mtta_minutes"`
	MTTRMinutes   float64 `json:"mttr_minutes"`
}

// NewComplianceReportResponse maps the service report.
func NewComplianceReportResponse(report *service.ComplianceReport) ComplianceReportResponse {
	return ComplianceReportResponse{
		Total:         report.Total,
		Resolved:      report.Resolved,
		Breached:      report.Breached,
		Warned:        report.Warned,
		CompliancePct: report.CompliancePct,
		MTTAMinutes:   report.MTTA.Minutes(),
		MTTRMinutes:   report.MTTR.Minutes(),
	}
}
