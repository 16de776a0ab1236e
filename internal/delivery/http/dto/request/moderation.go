package request

import "encoding/json"

type SubmitRecordRequest struct {
	SubjectID string          `json:"subject_id" binding:"required"`
	OwnerID   string          `json:"owner_id"`
	Title     string          `json:"title"`
	Payload   json.RawMessage `json:"payload"`
}

// ApproveRequest carries the schedule of a promotion request. Dates are
// YYYY-MM-DD or RFC 3339; end_date is exclusive.
type ApproveRequest struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

type RejectRequest struct {
	Reason string `json:"reason"`
}
