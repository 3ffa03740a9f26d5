package service

import (
	"go.uber.org/zap"

	"mentorlink/backend/config"
	"mentorlink/backend/internal/repository"
)

// Service groups every service behind one handle.
type Service struct {
	AcademicSession AcademicSessionService
	Mentee          MenteeService
	Export          ExportService
}

// NewService wires the services. locker may be nil when Redis is not available.
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	locker RolloverLocker,
	logger *zap.Logger,
) *Service {
	return &Service{
		AcademicSession: NewAcademicSessionService(&cfg.Academic, repo, locker, logger),
		Mentee:          NewMenteeService(&cfg.Academic, repo, logger),
		Export:          NewExportService(repo, logger),
	}
}
