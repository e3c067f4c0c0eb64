package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/courtside/league-system/live"
	"github.com/courtside/league-system/models"
	"github.com/courtside/league-system/repositories"
	"golang.org/x/sync/errgroup"
)

type CreateGameInput struct {
	HomeTeamID  int       `json:"home_team_id"`
	AwayTeamID  int       `json:"away_team_id"`
	ScheduledAt time.Time `json:"scheduled_at"`
	Venue       *string   `json:"venue"`
}

type UpdateGameInput struct {
	ScheduledAt *time.Time         `json:"scheduled_at"`
	Status      *models.GameStatus `json:"status"`
	Quarter     *int               `json:"quarter"`
	Clock       *string            `json:"clock"`
	Venue       *string            `json:"venue"`
	Attendance  *int               `json:"attendance"`
	Boxscore    []models.GameStat  `json:"boxscore"`
}

// ScoreUpdateInput is shared by the REST score route and the websocket
// updateGame event, so the field names follow the wire protocol.
type ScoreUpdateInput struct {
	HomeScore *int               `json:"homeScore"`
	AwayScore *int               `json:"awayScore"`
	Status    *models.GameStatus `json:"status"`
	Quarter   *int               `json:"quarter"`
	Clock     *string            `json:"clock"`
}

type GameService interface {
	Create(ctx context.Context, input CreateGameInput, actor *models.User) (*models.Game, error)
	GetByID(ctx context.Context, id int) (*models.Game, error)
	List(ctx context.Context, filter repositories.GameFilter) ([]*models.Game, error)
	Update(ctx context.Context, id int, input UpdateGameInput, actor *models.User) (*models.Game, error)
	Delete(ctx context.Context, id int, actor *models.User) error
	// UpdateScore persists the change, refreshes the document, and broadcasts
	// it to the game's room. Completing a game also updates both teams'
	// win/loss records in the same transaction.
	UpdateScore(ctx context.Context, id int, input ScoreUpdateInput, actor *models.User) (*models.Game, error)
}

type gameService struct {
	runInTx     txRunner
	gameRepo    repositories.GameRepository
	teamRepo    repositories.TeamRepository
	broadcaster live.Broadcaster
}

func NewGameService(
	db *sql.DB,
	gameRepo repositories.GameRepository,
	teamRepo repositories.TeamRepository,
	broadcaster live.Broadcaster,
) GameService {
	return &gameService{
		runInTx:     sqlTxRunner(db),
		gameRepo:    gameRepo,
		teamRepo:    teamRepo,
		broadcaster: broadcaster,
	}
}

func (s *gameService) Create(ctx context.Context, input CreateGameInput, actor *models.User) (*models.Game, error) {
	if actor == nil || actor.Role != models.RoleAdmin {
		return nil, ErrForbiddenOperation
	}

	v := newValidator()
	v.check(input.HomeTeamID > 0, "home_team_id", "is required")
	v.check(input.AwayTeamID > 0, "away_team_id", "is required")
	v.check(!input.ScheduledAt.IsZero(), "scheduled_at", "is required")
	if err := v.err(); err != nil {
		return nil, err
	}
	if input.HomeTeamID == input.AwayTeamID {
		return nil, ErrSameTeamGame
	}

	for _, teamID := range []int{input.HomeTeamID, input.AwayTeamID} {
		if _, err := s.teamRepo.GetByID(ctx, teamID); err != nil {
			if errors.Is(err, repositories.ErrTeamNotFound) {
				return nil, ErrTeamNotFound
			}
			return nil, fmt.Errorf("failed to load team %d: %w", teamID, err)
		}
	}

	game := &models.Game{
		HomeTeamID:  input.HomeTeamID,
		AwayTeamID:  input.AwayTeamID,
		ScheduledAt: input.ScheduledAt,
		Status:      models.GameStatusScheduled,
		Quarter:     1,
		Clock:       "12:00",
		Venue:       input.Venue,
	}

	if err := s.gameRepo.Create(ctx, game); err != nil {
		if errors.Is(err, repositories.ErrGameTeamInvalid) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to create game: %w", err)
	}

	return game, nil
}

// GetByID loads the game with both teams and the boxscore. The three reads
// are independent and run concurrently.
func (s *gameService) GetByID(ctx context.Context, id int) (*models.Game, error) {
	game, err := s.gameRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrGameNotFound) {
			return nil, ErrGameNotFound
		}
		return nil, err
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		homeTeam, err := s.teamRepo.GetByID(gCtx, game.HomeTeamID)
		if err != nil {
			return fmt.Errorf("failed to load home team for game %d: %w", id, err)
		}
		game.HomeTeam = homeTeam
		return nil
	})

	g.Go(func() error {
		awayTeam, err := s.teamRepo.GetByID(gCtx, game.AwayTeamID)
		if err != nil {
			return fmt.Errorf("failed to load away team for game %d: %w", id, err)
		}
		game.AwayTeam = awayTeam
		return nil
	})

	g.Go(func() error {
		stats, err := s.gameRepo.ListStatsByGameID(gCtx, id)
		if err != nil {
			return fmt.Errorf("failed to load boxscore for game %d: %w", id, err)
		}
		game.Boxscore = stats
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return game, nil
}

func (s *gameService) List(ctx context.Context, filter repositories.GameFilter) ([]*models.Game, error) {
	if filter.Status != nil && !filter.Status.Valid() {
		return nil, &ValidationError{Fields: map[string]string{"status": "must be one of scheduled, in_progress, completed, cancelled"}}
	}
	games, err := s.gameRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list games: %w", err)
	}
	return games, nil
}

func (s *gameService) Update(ctx context.Context, id int, input UpdateGameInput, actor *models.User) (*models.Game, error) {
	game, err := s.gameRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrGameNotFound) {
			return nil, ErrGameNotFound
		}
		return nil, err
	}

	if err := s.authorizeGameMutation(ctx, game, actor); err != nil {
		return nil, err
	}

	v := newValidator()
	if input.ScheduledAt != nil {
		v.check(!input.ScheduledAt.IsZero(), "scheduled_at", "must not be zero")
	}
	if input.Status != nil {
		v.check(input.Status.Valid(), "status", "must be one of scheduled, in_progress, completed, cancelled")
	}
	if input.Quarter != nil {
		v.check(*input.Quarter >= 1 && *input.Quarter <= 4, "quarter", "must be between 1 and 4")
	}
	if input.Attendance != nil {
		v.check(*input.Attendance >= 0, "attendance", "must not be negative")
	}
	if err := v.err(); err != nil {
		return nil, err
	}

	err = s.runInTx(ctx, func(exec repositories.SQLExecutor) error {
		// Re-read under the row lock so a concurrent score update cannot
		// slip between the read and the write.
		locked, err := s.gameRepo.GetByIDForUpdate(ctx, exec, id)
		if err != nil {
			if errors.Is(err, repositories.ErrGameNotFound) {
				return ErrGameNotFound
			}
			return err
		}

		if input.ScheduledAt != nil {
			locked.ScheduledAt = *input.ScheduledAt
		}
		if input.Quarter != nil {
			locked.Quarter = *input.Quarter
		}
		if input.Attendance != nil {
			locked.Attendance = input.Attendance
		}
		if input.Clock != nil {
			locked.Clock = *input.Clock
		}
		if input.Venue != nil {
			locked.Venue = input.Venue
		}

		completed := false
		if input.Status != nil && *input.Status != locked.Status {
			if !isValidGameStatusTransition(locked.Status, *input.Status) {
				return ErrGameNotEditable
			}
			locked.Status = *input.Status
			completed = locked.Status == models.GameStatusCompleted
		}

		if err := s.gameRepo.Update(ctx, exec, locked); err != nil {
			return fmt.Errorf("failed to update game %d: %w", id, err)
		}
		if input.Boxscore != nil {
			if err := s.gameRepo.ReplaceStats(ctx, exec, id, input.Boxscore); err != nil {
				if errors.Is(err, repositories.ErrGamePlayerInvalid) {
					return ErrPlayerNotFound
				}
				return fmt.Errorf("failed to replace boxscore for game %d: %w", id, err)
			}
		}
		// Completion folds the result into both team records no matter
		// which route triggered it.
		if completed {
			if err := s.recordResult(ctx, exec, locked); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.GetByID(ctx, id)
}

func (s *gameService) Delete(ctx context.Context, id int, actor *models.User) error {
	if actor == nil || actor.Role != models.RoleAdmin {
		return ErrForbiddenOperation
	}

	if err := s.gameRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repositories.ErrGameNotFound) {
			return ErrGameNotFound
		}
		return err
	}
	return nil
}

func (s *gameService) UpdateScore(ctx context.Context, id int, input ScoreUpdateInput, actor *models.User) (*models.Game, error) {
	game, err := s.gameRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrGameNotFound) {
			return nil, ErrGameNotFound
		}
		return nil, err
	}

	if err := s.authorizeGameMutation(ctx, game, actor); err != nil {
		return nil, err
	}

	v := newValidator()
	v.check(input.HomeScore != nil || input.AwayScore != nil || input.Status != nil ||
		input.Quarter != nil || input.Clock != nil, "homeScore", "no fields provided for update")
	if input.HomeScore != nil {
		v.check(*input.HomeScore >= 0, "homeScore", "must not be negative")
	}
	if input.AwayScore != nil {
		v.check(*input.AwayScore >= 0, "awayScore", "must not be negative")
	}
	if input.Quarter != nil {
		v.check(*input.Quarter >= 1 && *input.Quarter <= 4, "quarter", "must be between 1 and 4")
	}
	if input.Status != nil {
		v.check(input.Status.Valid(), "status", "must be one of scheduled, in_progress, completed, cancelled")
	}
	if err := v.err(); err != nil {
		return nil, err
	}

	err = s.runInTx(ctx, func(exec repositories.SQLExecutor) error {
		// Re-read under the row lock so concurrent score updates serialize.
		locked, err := s.gameRepo.GetByIDForUpdate(ctx, exec, id)
		if err != nil {
			if errors.Is(err, repositories.ErrGameNotFound) {
				return ErrGameNotFound
			}
			return err
		}
		if locked.Status == models.GameStatusCompleted || locked.Status == models.GameStatusCancelled {
			return ErrGameNotEditable
		}

		if input.HomeScore != nil {
			locked.HomeScore = *input.HomeScore
		}
		if input.AwayScore != nil {
			locked.AwayScore = *input.AwayScore
		}
		if input.Quarter != nil {
			locked.Quarter = *input.Quarter
		}
		if input.Clock != nil {
			locked.Clock = *input.Clock
		}

		completed := false
		if input.Status != nil && *input.Status != locked.Status {
			if !isValidGameStatusTransition(locked.Status, *input.Status) {
				return ErrGameNotEditable
			}
			locked.Status = *input.Status
			completed = locked.Status == models.GameStatusCompleted
		}

		if err := s.gameRepo.Update(ctx, exec, locked); err != nil {
			return fmt.Errorf("failed to update score for game %d: %w", id, err)
		}

		if completed {
			if err := s.recordResult(ctx, exec, locked); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Broadcast the store-refreshed document, not the request payload.
	updated, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.broadcaster != nil {
		s.broadcaster.BroadcastToRoom(live.GameRoom(id), live.EventGameUpdated, updated)
	}

	return updated, nil
}

// recordResult folds a completed game into both teams' win/loss counters.
// Runs inside the score-update transaction; ties are not a thing in
// basketball, so equal scores leave both records untouched.
func (s *gameService) recordResult(ctx context.Context, exec repositories.SQLExecutor, game *models.Game) error {
	if game.HomeScore == game.AwayScore {
		return nil
	}

	winnerID, loserID := game.HomeTeamID, game.AwayTeamID
	if game.AwayScore > game.HomeScore {
		winnerID, loserID = game.AwayTeamID, game.HomeTeamID
	}

	winner, err := s.teamRepo.GetByIDForUpdate(ctx, exec, winnerID)
	if err != nil {
		return fmt.Errorf("failed to lock winning team %d: %w", winnerID, err)
	}
	winner.Wins++
	winner.RecalculateWinPercentage()
	if err := s.teamRepo.Update(ctx, exec, winner); err != nil {
		return fmt.Errorf("failed to record win for team %d: %w", winnerID, err)
	}

	loser, err := s.teamRepo.GetByIDForUpdate(ctx, exec, loserID)
	if err != nil {
		return fmt.Errorf("failed to lock losing team %d: %w", loserID, err)
	}
	loser.Losses++
	loser.RecalculateWinPercentage()
	if err := s.teamRepo.Update(ctx, exec, loser); err != nil {
		return fmt.Errorf("failed to record loss for team %d: %w", loserID, err)
	}

	return nil
}

func (s *gameService) authorizeGameMutation(ctx context.Context, game *models.Game, actor *models.User) error {
	if actor == nil {
		return ErrForbiddenOperation
	}
	if actor.Role == models.RoleAdmin {
		return nil
	}
	if actor.Role != models.RoleCoach {
		return ErrForbiddenOperation
	}

	homeTeam, err := s.teamRepo.GetByID(ctx, game.HomeTeamID)
	if err != nil && !errors.Is(err, repositories.ErrTeamNotFound) {
		return err
	}
	awayTeam, err := s.teamRepo.GetByID(ctx, game.AwayTeamID)
	if err != nil && !errors.Is(err, repositories.ErrTeamNotFound) {
		return err
	}

	if !canManageGame(actor, game, homeTeam, awayTeam) {
		return ErrNotGameParticipant
	}
	return nil
}

func isValidGameStatusTransition(current, next models.GameStatus) bool {
	if current == next {
		return true
	}
	allowed := map[models.GameStatus][]models.GameStatus{
		models.GameStatusScheduled:  {models.GameStatusInProgress, models.GameStatusCompleted, models.GameStatusCancelled},
		models.GameStatusInProgress: {models.GameStatusCompleted, models.GameStatusCancelled},
		models.GameStatusCompleted:  {},
		models.GameStatusCancelled:  {},
	}
	for _, status := range allowed[current] {
		if next == status {
			return true
		}
	}
	return false
}
