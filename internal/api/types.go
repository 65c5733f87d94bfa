// Package api holds the wire types and the chi server glue for
// api/openapi.yaml, laid out the way oapi-codegen's chi + strict-server
// templates lay them out.
package api

import (
	"time"

	"pageaudit/internal/report"
)

// Defines values for AuditStatus.
const (
	AuditStatusQueued    AuditStatus = "queued"
	AuditStatusRunning   AuditStatus = "running"
	AuditStatusCompleted AuditStatus = "completed"
	AuditStatusFailed    AuditStatus = "failed"
)

// Defines values for GetAuditsIdScreenshotsNameParamsName.
const (
	Desktop GetAuditsIdScreenshotsNameParamsName = "desktop"
	Tablet  GetAuditsIdScreenshotsNameParamsName = "tablet"
	Mobile  GetAuditsIdScreenshotsNameParamsName = "mobile"
)

// AuditAccepted defines model for AuditAccepted.
type AuditAccepted struct {
	AuditId string `json:"auditId"`
}

// AuditReport defines model for AuditReport.
type AuditReport = report.Result

// AuditRequest defines model for AuditRequest.
type AuditRequest struct {
	Url string `json:"url"`
}

// AuditResponse defines model for AuditResponse.
type AuditResponse struct {
	Error       *string     `json:"error,omitempty"`
	FinishedAt  *time.Time  `json:"finishedAt,omitempty"`
	Id          string      `json:"id"`
	Progress    *float32    `json:"progress,omitempty"`
	ResolvedUrl *string     `json:"resolvedUrl,omitempty"`
	StartedAt   *time.Time  `json:"startedAt,omitempty"`
	Status      AuditStatus `json:"status"`
	Url         string      `json:"url"`
}

// AuditStatus defines model for AuditStatus.
type AuditStatus string

// Error defines model for Error.
type Error struct {
	Message string `json:"message"`
}

// Health defines model for Health.
type Health struct {
	Status *string `json:"status,omitempty"`
}

// Profile defines model for Profile.
type Profile struct {
	AuditId    *string    `json:"auditId,omitempty"`
	Badges     *[]string  `json:"badges,omitempty"`
	ComputedAt *time.Time `json:"computedAt,omitempty"`
	Domain     string     `json:"domain"`
	Grade      string     `json:"grade"`
	Overall    int        `json:"overall"`
	Scores     Scores     `json:"scores"`
}

// Scores defines model for Scores.
type Scores struct {
	Accessibility int `json:"accessibility"`
	Performance   int `json:"performance"`
	Security      int `json:"security"`
	Trust         int `json:"trust"`
	Visibility    int `json:"visibility"`
}

// AuditID defines model for AuditID.
type AuditID = string

// PostAuditsParams defines parameters for PostAudits.
type PostAuditsParams struct {
	// Wait Run the audit inline and answer when it finishes.
	Wait *bool `form:"wait,omitempty" json:"wait,omitempty"`

	// Timeout Seconds to wait when wait=true. Defaults to 120.
	Timeout *int `form:"timeout,omitempty" json:"timeout,omitempty"`
}

// GetAuditsIdScreenshotsNameParamsName defines parameters for GetAuditsIdScreenshotsName.
type GetAuditsIdScreenshotsNameParamsName string

// Valid reports whether n is one of the enum values.
func (n GetAuditsIdScreenshotsNameParamsName) Valid() bool {
	switch n {
	case Desktop, Tablet, Mobile:
		return true
	}
	return false
}

// PostAuditsJSONRequestBody defines body for PostAudits for application/json ContentType.
type PostAuditsJSONRequestBody = AuditRequest
