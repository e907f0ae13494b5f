package services

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/kamal-hamza/stg-cli/internal/core/domain"
	"github.com/kamal-hamza/stg-cli/internal/core/ports"
)

// StageService turns selected paths into staged files
type StageService struct {
	source   ports.FileSource
	admitter ports.Admitter
}

// NewStageService creates a new stage service
func NewStageService(source ports.FileSource, admitter ports.Admitter) *StageService {
	return &StageService{
		source:   source,
		admitter: admitter,
	}
}

// StageRequest represents a selection of local paths
type StageRequest struct {
	Paths []string
}

// RejectedPath is a selected path that could not be turned into a file handle
type RejectedPath struct {
	Path  string
	Error error
}

// StageResponse represents the outcome of a selection
type StageResponse struct {
	Admitted []domain.StagedFile
	Rejected []RejectedPath
}

// Execute opens every path and admits the readable ones as one batch
func (s *StageService) Execute(ctx context.Context, req StageRequest) (*StageResponse, error) {
	if len(req.Paths) == 0 {
		return nil, fmt.Errorf("no files selected")
	}

	resp := &StageResponse{}
	handles := make([]domain.FileHandle, 0, len(req.Paths))

	for _, path := range req.Paths {
		h, err := s.source.Open(ctx, path)
		if err != nil {
			log.Warn().Err(err).Str("path", path).Msg("selection rejected")
			resp.Rejected = append(resp.Rejected, RejectedPath{Path: path, Error: err})
			continue
		}
		handles = append(handles, h)
	}

	if len(handles) > 0 {
		resp.Admitted = s.admitter.Admit(ctx, handles)
	}

	return resp, nil
}
