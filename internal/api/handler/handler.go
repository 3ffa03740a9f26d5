package handler

import "mentorlink/backend/internal/service"

// Handler groups every HTTP handler.
type Handler struct {
	AcademicSession *AcademicSessionHandler
	Mentee          *MenteeHandler
	Export          *ExportHandler
}

// NewHandler wires handlers to services.
func NewHandler(svc *service.Service, uploadLimit int64) *Handler {
	return &Handler{
		AcademicSession: NewAcademicSessionHandler(svc.AcademicSession),
		Mentee:          NewMenteeHandler(svc.Mentee, uploadLimit),
		Export:          NewExportHandler(svc.Export),
	}
}
