package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/courtside/league-system/models"
	"github.com/courtside/league-system/repositories"
)

const (
	minJerseyNumber = 0
	maxJerseyNumber = 99
	minHeightCM     = 150
	maxHeightCM     = 250
	minWeightKG     = 50
	maxWeightKG     = 200
)

type CreatePlayerInput struct {
	UserID       int                   `json:"user_id"`
	TeamID       *int                  `json:"team_id"`
	Name         string                `json:"name"`
	Position     models.PlayerPosition `json:"position"`
	JerseyNumber int                   `json:"jersey_number"`
	HeightCM     int                   `json:"height_cm"`
	WeightKG     int                   `json:"weight_kg"`
}

type UpdatePlayerInput struct {
	Name         *string                `json:"name"`
	Position     *models.PlayerPosition `json:"position"`
	JerseyNumber *int                   `json:"jersey_number"`
	HeightCM     *int                   `json:"height_cm"`
	WeightKG     *int                   `json:"weight_kg"`

	PointsPerGame   *float64 `json:"points_per_game"`
	ReboundsPerGame *float64 `json:"rebounds_per_game"`
	AssistsPerGame  *float64 `json:"assists_per_game"`
	StealsPerGame   *float64 `json:"steals_per_game"`
	BlocksPerGame   *float64 `json:"blocks_per_game"`
	MinutesPerGame  *float64 `json:"minutes_per_game"`
}

type PlayerService interface {
	Create(ctx context.Context, input CreatePlayerInput, actor *models.User) (*models.Player, error)
	GetByID(ctx context.Context, id int) (*models.Player, error)
	List(ctx context.Context, filter repositories.PlayerFilter) ([]*models.Player, error)
	Update(ctx context.Context, id int, input UpdatePlayerInput, actor *models.User) (*models.Player, error)
	Delete(ctx context.Context, id int, actor *models.User) error
}

type playerService struct {
	runInTx    txRunner
	playerRepo repositories.PlayerRepository
	teamRepo   repositories.TeamRepository
	userRepo   repositories.UserRepository
}

func NewPlayerService(
	db *sql.DB,
	playerRepo repositories.PlayerRepository,
	teamRepo repositories.TeamRepository,
	userRepo repositories.UserRepository,
) PlayerService {
	return &playerService{
		runInTx:    sqlTxRunner(db),
		playerRepo: playerRepo,
		teamRepo:   teamRepo,
		userRepo:   userRepo,
	}
}

// Create validates the profile, checks foreign references, and writes the
// players row together with users.team_id in one transaction.
func (s *playerService) Create(ctx context.Context, input CreatePlayerInput, actor *models.User) (*models.Player, error) {
	v := newValidator()
	v.check(input.UserID > 0, "user_id", "is required")
	v.check(input.Name != "", "name", "is required")
	v.check(input.Position.Valid(), "position", "must be one of PG, SG, SF, PF, C")
	v.check(input.JerseyNumber >= minJerseyNumber && input.JerseyNumber <= maxJerseyNumber,
		"jersey_number", fmt.Sprintf("must be between %d and %d", minJerseyNumber, maxJerseyNumber))
	v.check(input.HeightCM >= minHeightCM && input.HeightCM <= maxHeightCM,
		"height_cm", fmt.Sprintf("must be between %d and %d", minHeightCM, maxHeightCM))
	v.check(input.WeightKG >= minWeightKG && input.WeightKG <= maxWeightKG,
		"weight_kg", fmt.Sprintf("must be between %d and %d", minWeightKG, maxWeightKG))
	if err := v.err(); err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByID(ctx, input.UserID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to load user %d: %w", input.UserID, err)
	}
	if user.Role != models.RolePlayer {
		return nil, ErrPlayerRoleRequired
	}

	if input.TeamID != nil {
		team, err := s.teamRepo.GetByID(ctx, *input.TeamID)
		if err != nil {
			if errors.Is(err, repositories.ErrTeamNotFound) {
				return nil, ErrTeamNotFound
			}
			return nil, fmt.Errorf("failed to load team %d: %w", *input.TeamID, err)
		}
		// Coaches may only add players to their own team.
		if !canManageTeam(actor, team) {
			return nil, ErrNotTeamCoach
		}
	} else if actor.Role != models.RoleAdmin && actor.Role != models.RoleCoach {
		return nil, ErrForbiddenOperation
	}

	player := &models.Player{
		UserID:       input.UserID,
		TeamID:       input.TeamID,
		Name:         input.Name,
		Position:     input.Position,
		JerseyNumber: input.JerseyNumber,
		HeightCM:     input.HeightCM,
		WeightKG:     input.WeightKG,
	}

	err = s.runInTx(ctx, func(exec repositories.SQLExecutor) error {
		if err := s.playerRepo.Create(ctx, exec, player); err != nil {
			switch {
			case errors.Is(err, repositories.ErrPlayerJerseyConflict):
				return ErrJerseyNumberConflict
			case errors.Is(err, repositories.ErrPlayerUserConflict):
				return ErrPlayerProfileExists
			case errors.Is(err, repositories.ErrPlayerTeamInvalid):
				return ErrTeamNotFound
			case errors.Is(err, repositories.ErrPlayerUserInvalid):
				return ErrUserNotFound
			}
			return fmt.Errorf("failed to create player: %w", err)
		}
		if player.TeamID != nil {
			if err := s.userRepo.UpdateTeamID(ctx, exec, player.UserID, player.TeamID); err != nil {
				return fmt.Errorf("failed to update team reference for user %d: %w", player.UserID, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return player, nil
}

func (s *playerService) GetByID(ctx context.Context, id int) (*models.Player, error) {
	player, err := s.playerRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrPlayerNotFound) {
			return nil, ErrPlayerNotFound
		}
		return nil, err
	}
	return player, nil
}

func (s *playerService) List(ctx context.Context, filter repositories.PlayerFilter) ([]*models.Player, error) {
	if filter.Position != nil && !filter.Position.Valid() {
		return nil, &ValidationError{Fields: map[string]string{"position": "must be one of PG, SG, SF, PF, C"}}
	}
	players, err := s.playerRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list players: %w", err)
	}
	return players, nil
}

func (s *playerService) Update(ctx context.Context, id int, input UpdatePlayerInput, actor *models.User) (*models.Player, error) {
	player, err := s.playerRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrPlayerNotFound) {
			return nil, ErrPlayerNotFound
		}
		return nil, err
	}

	if err := s.authorizePlayerMutation(ctx, player, actor); err != nil {
		return nil, err
	}

	v := newValidator()
	if input.Name != nil {
		v.check(*input.Name != "", "name", "must not be empty")
		player.Name = *input.Name
	}
	if input.Position != nil {
		v.check(input.Position.Valid(), "position", "must be one of PG, SG, SF, PF, C")
		player.Position = *input.Position
	}
	if input.JerseyNumber != nil {
		v.check(*input.JerseyNumber >= minJerseyNumber && *input.JerseyNumber <= maxJerseyNumber,
			"jersey_number", fmt.Sprintf("must be between %d and %d", minJerseyNumber, maxJerseyNumber))
		player.JerseyNumber = *input.JerseyNumber
	}
	if input.HeightCM != nil {
		v.check(*input.HeightCM >= minHeightCM && *input.HeightCM <= maxHeightCM,
			"height_cm", fmt.Sprintf("must be between %d and %d", minHeightCM, maxHeightCM))
		player.HeightCM = *input.HeightCM
	}
	if input.WeightKG != nil {
		v.check(*input.WeightKG >= minWeightKG && *input.WeightKG <= maxWeightKG,
			"weight_kg", fmt.Sprintf("must be between %d and %d", minWeightKG, maxWeightKG))
		player.WeightKG = *input.WeightKG
	}
	for field, value := range map[string]*float64{
		"points_per_game":   input.PointsPerGame,
		"rebounds_per_game": input.ReboundsPerGame,
		"assists_per_game":  input.AssistsPerGame,
		"steals_per_game":   input.StealsPerGame,
		"blocks_per_game":   input.BlocksPerGame,
		"minutes_per_game":  input.MinutesPerGame,
	} {
		if value != nil {
			v.check(*value >= 0, field, "must not be negative")
		}
	}
	if err := v.err(); err != nil {
		return nil, err
	}

	if input.PointsPerGame != nil {
		player.PointsPerGame = *input.PointsPerGame
	}
	if input.ReboundsPerGame != nil {
		player.ReboundsPerGame = *input.ReboundsPerGame
	}
	if input.AssistsPerGame != nil {
		player.AssistsPerGame = *input.AssistsPerGame
	}
	if input.StealsPerGame != nil {
		player.StealsPerGame = *input.StealsPerGame
	}
	if input.BlocksPerGame != nil {
		player.BlocksPerGame = *input.BlocksPerGame
	}
	if input.MinutesPerGame != nil {
		player.MinutesPerGame = *input.MinutesPerGame
	}

	if err := s.playerRepo.Update(ctx, nil, player); err != nil {
		if errors.Is(err, repositories.ErrPlayerJerseyConflict) {
			return nil, ErrJerseyNumberConflict
		}
		return nil, fmt.Errorf("failed to update player %d: %w", id, err)
	}

	return player, nil
}

// Delete removes the player row and clears the linked users.team_id in one
// transaction.
func (s *playerService) Delete(ctx context.Context, id int, actor *models.User) error {
	player, err := s.playerRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrPlayerNotFound) {
			return ErrPlayerNotFound
		}
		return err
	}

	if err := s.authorizePlayerMutation(ctx, player, actor); err != nil {
		return err
	}

	return s.runInTx(ctx, func(exec repositories.SQLExecutor) error {
		if err := s.playerRepo.Delete(ctx, exec, id); err != nil {
			if errors.Is(err, repositories.ErrPlayerNotFound) {
				return ErrPlayerNotFound
			}
			return err
		}
		if err := s.userRepo.UpdateTeamID(ctx, exec, player.UserID, nil); err != nil {
			return fmt.Errorf("failed to clear team reference for user %d: %w", player.UserID, err)
		}
		return nil
	})
}

// authorizePlayerMutation allows admins always, and coaches only when the
// player is on their team.
func (s *playerService) authorizePlayerMutation(ctx context.Context, player *models.Player, actor *models.User) error {
	if actor == nil {
		return ErrForbiddenOperation
	}
	if actor.Role == models.RoleAdmin {
		return nil
	}
	if actor.Role != models.RoleCoach {
		return ErrForbiddenOperation
	}
	if player.TeamID == nil {
		return ErrNotTeamCoach
	}
	team, err := s.teamRepo.GetByID(ctx, *player.TeamID)
	if err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return ErrNotTeamCoach
		}
		return err
	}
	if team.CoachID != actor.ID {
		return ErrNotTeamCoach
	}
	return nil
}
