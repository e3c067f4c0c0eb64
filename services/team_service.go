package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"

	"github.com/courtside/league-system/models"
	"github.com/courtside/league-system/repositories"
	"github.com/courtside/league-system/storage"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

type CreateTeamInput struct {
	Name    string `json:"name"`
	CoachID int    `json:"coach_id"`
}

type UpdateTeamInput struct {
	Name    *string `json:"name"`
	CoachID *int    `json:"coach_id"`
	Wins    *int    `json:"wins"`
	Losses  *int    `json:"losses"`
}

type AddPlayerInput struct {
	PlayerID     int  `json:"player_id"`
	JerseyNumber *int `json:"jersey_number"`
}

type TeamService interface {
	Create(ctx context.Context, input CreateTeamInput, actor *models.User) (*models.Team, error)
	GetByID(ctx context.Context, id int) (*models.Team, error)
	List(ctx context.Context, filter repositories.TeamFilter) ([]*models.Team, error)
	Update(ctx context.Context, id int, input UpdateTeamInput, actor *models.User) (*models.Team, error)
	Delete(ctx context.Context, id int, actor *models.User) error
	AddPlayer(ctx context.Context, teamID int, input AddPlayerInput, actor *models.User) (*models.Player, error)
	RemovePlayer(ctx context.Context, teamID, playerID int, actor *models.User) error
	UploadLogo(ctx context.Context, teamID int, contentType string, reader io.Reader, actor *models.User) (*models.Team, error)
}

type teamService struct {
	runInTx    txRunner
	teamRepo   repositories.TeamRepository
	playerRepo repositories.PlayerRepository
	userRepo   repositories.UserRepository
	uploader   storage.FileUploader
}

func NewTeamService(
	db *sql.DB,
	teamRepo repositories.TeamRepository,
	playerRepo repositories.PlayerRepository,
	userRepo repositories.UserRepository,
	uploader storage.FileUploader,
) TeamService {
	return &teamService{
		runInTx:    sqlTxRunner(db),
		teamRepo:   teamRepo,
		playerRepo: playerRepo,
		userRepo:   userRepo,
		uploader:   uploader,
	}
}

func (s *teamService) Create(ctx context.Context, input CreateTeamInput, actor *models.User) (*models.Team, error) {
	v := newValidator()
	v.check(input.Name != "", "name", "is required")
	v.check(input.CoachID > 0, "coach_id", "is required")
	if err := v.err(); err != nil {
		return nil, err
	}

	// A coach can only create a team for themselves.
	if actor.Role == models.RoleCoach && input.CoachID != actor.ID {
		return nil, ErrForbiddenOperation
	}

	coach, err := s.userRepo.GetByID(ctx, input.CoachID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to load coach %d: %w", input.CoachID, err)
	}
	if coach.Role != models.RoleCoach {
		return nil, ErrCoachRoleRequired
	}

	team := &models.Team{
		Name:    input.Name,
		CoachID: input.CoachID,
	}
	team.RecalculateWinPercentage()

	if err := s.teamRepo.Create(ctx, team); err != nil {
		if errors.Is(err, repositories.ErrTeamNameConflict) {
			return nil, ErrTeamNameConflict
		}
		return nil, fmt.Errorf("failed to create team: %w", err)
	}

	return team, nil
}

// GetByID loads the team together with its roster and coach. The three reads
// are independent, so they run concurrently.
func (s *teamService) GetByID(ctx context.Context, id int) (*models.Team, error) {
	team, err := s.teamRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return nil, ErrTeamNotFound
		}
		return nil, err
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		players, err := s.playerRepo.ListByTeamID(gCtx, id)
		if err != nil {
			return fmt.Errorf("failed to load roster for team %d: %w", id, err)
		}
		team.Players = players
		return nil
	})

	g.Go(func() error {
		coach, err := s.userRepo.GetByID(gCtx, team.CoachID)
		if err != nil {
			return fmt.Errorf("failed to load coach for team %d: %w", id, err)
		}
		team.Coach = sanitizeUser(coach)
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	populateTeamLogoURL(team, s.uploader)
	return team, nil
}

func (s *teamService) List(ctx context.Context, filter repositories.TeamFilter) ([]*models.Team, error) {
	teams, err := s.teamRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list teams: %w", err)
	}
	for _, team := range teams {
		populateTeamLogoURL(team, s.uploader)
	}
	return teams, nil
}

func (s *teamService) Update(ctx context.Context, id int, input UpdateTeamInput, actor *models.User) (*models.Team, error) {
	team, err := s.teamRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return nil, ErrTeamNotFound
		}
		return nil, err
	}

	if !canManageTeam(actor, team) {
		return nil, ErrNotTeamCoach
	}

	if input.Name != nil {
		if *input.Name == "" {
			return nil, ErrTeamNameRequired
		}
		team.Name = *input.Name
	}
	if input.CoachID != nil {
		// Reassigning the coach is an admin operation.
		if actor.Role != models.RoleAdmin {
			return nil, ErrForbiddenOperation
		}
		coach, err := s.userRepo.GetByID(ctx, *input.CoachID)
		if err != nil {
			if errors.Is(err, repositories.ErrUserNotFound) {
				return nil, ErrUserNotFound
			}
			return nil, err
		}
		if coach.Role != models.RoleCoach {
			return nil, ErrCoachRoleRequired
		}
		team.CoachID = *input.CoachID
	}
	if input.Wins != nil {
		if *input.Wins < 0 {
			return nil, &ValidationError{Fields: map[string]string{"wins": "must not be negative"}}
		}
		team.Wins = *input.Wins
	}
	if input.Losses != nil {
		if *input.Losses < 0 {
			return nil, &ValidationError{Fields: map[string]string{"losses": "must not be negative"}}
		}
		team.Losses = *input.Losses
	}

	// The stored percentage is derived, recomputed on every save.
	team.RecalculateWinPercentage()

	if err := s.teamRepo.Update(ctx, nil, team); err != nil {
		if errors.Is(err, repositories.ErrTeamNameConflict) {
			return nil, ErrTeamNameConflict
		}
		return nil, fmt.Errorf("failed to update team %d: %w", id, err)
	}

	populateTeamLogoURL(team, s.uploader)
	return team, nil
}

// Delete removes the team and clears every player/user back-reference in one
// transaction, so a partial failure never leaves dangling references.
func (s *teamService) Delete(ctx context.Context, id int, actor *models.User) error {
	if actor == nil || actor.Role != models.RoleAdmin {
		return ErrForbiddenOperation
	}

	if _, err := s.teamRepo.GetByID(ctx, id); err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return ErrTeamNotFound
		}
		return err
	}

	return s.runInTx(ctx, func(exec repositories.SQLExecutor) error {
		players, err := s.playerRepo.ListByTeamID(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to list roster for team %d: %w", id, err)
		}
		for _, player := range players {
			if err := s.userRepo.UpdateTeamID(ctx, exec, player.UserID, nil); err != nil {
				return fmt.Errorf("failed to clear team reference for user %d: %w", player.UserID, err)
			}
		}
		if err := s.playerRepo.ClearTeamID(ctx, exec, id); err != nil {
			return fmt.Errorf("failed to detach players from team %d: %w", id, err)
		}
		if err := s.teamRepo.Delete(ctx, exec, id); err != nil {
			if errors.Is(err, repositories.ErrTeamNotFound) {
				return ErrTeamNotFound
			}
			return err
		}
		return nil
	})
}

// AddPlayer assigns an existing player to the team. The players row and the
// linked users.team_id are written in the same transaction (a single
// relationship edit, not three best-effort writes).
func (s *teamService) AddPlayer(ctx context.Context, teamID int, input AddPlayerInput, actor *models.User) (*models.Player, error) {
	team, err := s.teamRepo.GetByID(ctx, teamID)
	if err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return nil, ErrTeamNotFound
		}
		return nil, err
	}

	if !canManageTeam(actor, team) {
		return nil, ErrNotTeamCoach
	}

	player, err := s.playerRepo.GetByID(ctx, input.PlayerID)
	if err != nil {
		if errors.Is(err, repositories.ErrPlayerNotFound) {
			return nil, ErrPlayerNotFound
		}
		return nil, err
	}
	jersey := player.JerseyNumber
	if input.JerseyNumber != nil {
		jersey = *input.JerseyNumber
	}
	if jersey < 0 || jersey > 99 {
		return nil, &ValidationError{Fields: map[string]string{"jersey_number": "must be between 0 and 99"}}
	}

	if player.TeamID != nil {
		if *player.TeamID != teamID {
			return nil, ErrPlayerHasTeam
		}
		// Already on this team. A repeated edit is a no-op unless it asks
		// for a different jersey number, which still gets applied.
		if jersey == player.JerseyNumber {
			return player, nil
		}
	}

	err = s.runInTx(ctx, func(exec repositories.SQLExecutor) error {
		if err := s.playerRepo.UpdateTeamAndJersey(ctx, exec, player.ID, &teamID, jersey); err != nil {
			if errors.Is(err, repositories.ErrPlayerJerseyConflict) {
				return ErrJerseyNumberConflict
			}
			return fmt.Errorf("failed to assign player %d to team %d: %w", player.ID, teamID, err)
		}
		if err := s.userRepo.UpdateTeamID(ctx, exec, player.UserID, &teamID); err != nil {
			return fmt.Errorf("failed to update team reference for user %d: %w", player.UserID, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	player.TeamID = &teamID
	player.JerseyNumber = jersey
	return player, nil
}

// RemovePlayer detaches the player from the team, clearing players.team_id
// and users.team_id together.
func (s *teamService) RemovePlayer(ctx context.Context, teamID, playerID int, actor *models.User) error {
	team, err := s.teamRepo.GetByID(ctx, teamID)
	if err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return ErrTeamNotFound
		}
		return err
	}

	if !canManageTeam(actor, team) {
		return ErrNotTeamCoach
	}

	player, err := s.playerRepo.GetByID(ctx, playerID)
	if err != nil {
		if errors.Is(err, repositories.ErrPlayerNotFound) {
			return ErrPlayerNotFound
		}
		return err
	}
	if player.TeamID == nil || *player.TeamID != teamID {
		return ErrPlayerNotOnTeam
	}

	return s.runInTx(ctx, func(exec repositories.SQLExecutor) error {
		if err := s.playerRepo.UpdateTeamAndJersey(ctx, exec, player.ID, nil, player.JerseyNumber); err != nil {
			return fmt.Errorf("failed to detach player %d from team %d: %w", player.ID, teamID, err)
		}
		if err := s.userRepo.UpdateTeamID(ctx, exec, player.UserID, nil); err != nil {
			return fmt.Errorf("failed to clear team reference for user %d: %w", player.UserID, err)
		}
		return nil
	})
}

func (s *teamService) UploadLogo(ctx context.Context, teamID int, contentType string, reader io.Reader, actor *models.User) (*models.Team, error) {
	if s.uploader == nil {
		return nil, ErrUploaderNotConfigured
	}

	team, err := s.teamRepo.GetByID(ctx, teamID)
	if err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return nil, ErrTeamNotFound
		}
		return nil, err
	}

	if !canManageTeam(actor, team) {
		return nil, ErrNotTeamCoach
	}

	ext, err := storage.ExtensionFromContentType(contentType)
	if err != nil {
		return nil, &ValidationError{Fields: map[string]string{"logo": err.Error()}}
	}

	key := fmt.Sprintf("teams/%d/logo_%s%s", teamID, uuid.NewString(), ext)
	result, err := s.uploader.Upload(ctx, key, contentType, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to upload logo for team %d: %w", teamID, err)
	}

	oldKey := team.LogoKey
	if err := s.teamRepo.UpdateLogoKey(ctx, teamID, &result.Key); err != nil {
		// Best effort: remove the orphaned object before surfacing the error.
		_ = s.uploader.Delete(ctx, result.Key)
		return nil, fmt.Errorf("failed to persist logo key for team %d: %w", teamID, err)
	}
	if oldKey != nil && *oldKey != "" && *oldKey != result.Key {
		_ = s.uploader.Delete(ctx, *oldKey)
	}

	team.LogoKey = &result.Key
	populateTeamLogoURL(team, s.uploader)
	return team, nil
}
