package models

// StartTimerRequest begins a timer. When ResumeFromSessionID is set the
// finished timer corrects that stored session instead of adding a new one.
type StartTimerRequest struct {
	CourseID            string `json:"course_id"`
	StudyType           string `json:"study_type"`
	Notes               string `json:"notes"`
	ResumeFromSessionID string `json:"resume_from_session_id"`
}
