package dto

import "coursetrack/internal/notify"

// StagedDTO describes a staged action awaiting confirmation.
type StagedDTO struct {
	Prompt string `json:"prompt"`
}

// ConfirmResultDTO reports the outcome of a confirmed action. OK tells the
// client whether to close the form dialog; the toast is also pushed over the
// events channel.
type ConfirmResultDTO struct {
	OK    bool         `json:"ok"`
	Toast notify.Toast `json:"toast"`
}

// FieldErrorsDTO carries inline form validation errors, keyed by field.
type FieldErrorsDTO struct {
	Errors map[string]string `json:"errors"`
}
