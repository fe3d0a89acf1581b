package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/strafelabs/bracket-engine/brackets"
	"github.com/strafelabs/bracket-engine/models"
	"github.com/strafelabs/bracket-engine/repositories"
	"github.com/strafelabs/bracket-engine/storage"
)

type TeamService interface {
	CreateTeam(ctx context.Context, name string, seed int) (*models.Team, error)
	ListTeams(ctx context.Context) ([]*models.Team, error)
	UploadLogo(ctx context.Context, teamID int, contentType string, file io.Reader) (*models.Team, error)
}

type teamService struct {
	teamRepo repositories.TeamRepository
	logos    storage.LogoStore
}

func NewTeamService(teamRepo repositories.TeamRepository, logos storage.LogoStore) TeamService {
	return &teamService{teamRepo: teamRepo, logos: logos}
}

func (s *teamService) CreateTeam(ctx context.Context, name string, seed int) (*models.Team, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrTeamNameRequired
	}
	if seed < 1 || seed > brackets.TeamCount {
		return nil, ErrInvalidSeed
	}

	team := &models.Team{Name: name, Seed: seed}
	if err := s.teamRepo.Create(ctx, team); err != nil {
		switch {
		case errors.Is(err, repositories.ErrTeamNameConflict):
			return nil, ErrTeamNameConflict
		case errors.Is(err, repositories.ErrTeamSeedConflict):
			return nil, ErrTeamSeedConflict
		}
		return nil, fmt.Errorf("failed to create team: %w", err)
	}
	return team, nil
}

func (s *teamService) ListTeams(ctx context.Context) ([]*models.Team, error) {
	teams, err := s.teamRepo.ListBySeed(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list teams: %w", err)
	}
	for _, team := range teams {
		s.populateLogoURL(team)
	}
	return teams, nil
}

func (s *teamService) UploadLogo(ctx context.Context, teamID int, contentType string, file io.Reader) (*models.Team, error) {
	if s.logos == nil {
		return nil, ErrLogoStorageDisabled
	}

	team, err := s.teamRepo.GetByID(ctx, teamID)
	if err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to load team %d: %w", teamID, err)
	}

	ext, err := extensionForContentType(contentType)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("teams/logos/%d%s", teamID, ext)
	if _, err := s.logos.Put(ctx, key, contentType, file); err != nil {
		return nil, fmt.Errorf("failed to upload logo for team %d: %w", teamID, err)
	}

	// A stale logo under a different extension is deleted best-effort.
	if team.LogoKey != nil && *team.LogoKey != key {
		_ = s.logos.Remove(ctx, *team.LogoKey)
	}

	if err := s.teamRepo.UpdateLogoKey(ctx, teamID, &key); err != nil {
		return nil, fmt.Errorf("failed to store logo key for team %d: %w", teamID, err)
	}
	team.LogoKey = &key
	s.populateLogoURL(team)
	return team, nil
}

func (s *teamService) populateLogoURL(team *models.Team) {
	if team == nil || s.logos == nil || team.LogoKey == nil || *team.LogoKey == "" {
		return
	}
	if url := s.logos.PublicURL(*team.LogoKey); url != "" {
		team.LogoURL = &url
	}
}

func extensionForContentType(contentType string) (string, error) {
	switch contentType {
	case "image/jpeg", "image/jpg":
		return ".jpg", nil
	case "image/png":
		return ".png", nil
	case "image/gif":
		return ".gif", nil
	case "image/webp":
		return ".webp", nil
	case "image/svg+xml":
		return ".svg", nil
	default:
		return "", ErrUnsupportedLogoType
	}
}
