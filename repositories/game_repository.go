package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/courtside/league-system/models"
	"github.com/lib/pq"
)

var (
	ErrGameNotFound      = errors.New("game not found")
	ErrGameTeamInvalid   = errors.New("game team reference invalid")
	ErrGameStatConflict  = errors.New("boxscore line already exists for this player")
	ErrGamePlayerInvalid = errors.New("boxscore player reference invalid")
)

// GameFilter narrows List results. TeamID matches either side of the game.
type GameFilter struct {
	TeamID *int
	Status *models.GameStatus
	From   *time.Time
	To     *time.Time
}

type GameRepository interface {
	Create(ctx context.Context, game *models.Game) error
	GetByID(ctx context.Context, id int) (*models.Game, error)
	GetByIDForUpdate(ctx context.Context, exec SQLExecutor, id int) (*models.Game, error)
	List(ctx context.Context, filter GameFilter) ([]*models.Game, error)
	Update(ctx context.Context, exec SQLExecutor, game *models.Game) error
	Delete(ctx context.Context, id int) error
	ListStatsByGameID(ctx context.Context, gameID int) ([]models.GameStat, error)
	// ReplaceStats rewrites the full boxscore for a game inside the caller's
	// transaction.
	ReplaceStats(ctx context.Context, exec SQLExecutor, gameID int, stats []models.GameStat) error
}

type postgresGameRepository struct {
	db *sql.DB
}

func NewPostgresGameRepository(db *sql.DB) GameRepository {
	return &postgresGameRepository{db: db}
}

func (r *postgresGameRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const gameColumns = `id, home_team_id, away_team_id, home_score, away_score, scheduled_at,
	status, quarter, clock, venue, attendance, created_at`

func (r *postgresGameRepository) Create(ctx context.Context, game *models.Game) error {
	query := `
		INSERT INTO games
			(home_team_id, away_team_id, home_score, away_score, scheduled_at, status, quarter, clock, venue, attendance)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		game.HomeTeamID,
		game.AwayTeamID,
		game.HomeScore,
		game.AwayScore,
		game.ScheduledAt,
		game.Status,
		game.Quarter,
		game.Clock,
		game.Venue,
		game.Attendance,
	).Scan(&game.ID, &game.CreatedAt)

	if err != nil {
		return r.mapGameError(err)
	}
	return nil
}

func (r *postgresGameRepository) GetByID(ctx context.Context, id int) (*models.Game, error) {
	query := `SELECT ` + gameColumns + ` FROM games WHERE id = $1`
	return r.scanGame(r.db.QueryRowContext(ctx, query, id))
}

func (r *postgresGameRepository) GetByIDForUpdate(ctx context.Context, exec SQLExecutor, id int) (*models.Game, error) {
	query := `SELECT ` + gameColumns + ` FROM games WHERE id = $1 FOR UPDATE`
	return r.scanGame(r.getExecutor(exec).QueryRowContext(ctx, query, id))
}

func (r *postgresGameRepository) List(ctx context.Context, filter GameFilter) ([]*models.Game, error) {
	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT ` + gameColumns + ` FROM games`)

	var conditions []string
	var args []interface{}

	if filter.TeamID != nil {
		args = append(args, *filter.TeamID)
		placeholder := "$" + strconv.Itoa(len(args))
		conditions = append(conditions, "(home_team_id = "+placeholder+" OR away_team_id = "+placeholder+")")
	}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		conditions = append(conditions, "status = $"+strconv.Itoa(len(args)))
	}
	if filter.From != nil {
		args = append(args, *filter.From)
		conditions = append(conditions, "scheduled_at >= $"+strconv.Itoa(len(args)))
	}
	if filter.To != nil {
		args = append(args, *filter.To)
		conditions = append(conditions, "scheduled_at <= $"+strconv.Itoa(len(args)))
	}

	if len(conditions) > 0 {
		queryBuilder.WriteString(" WHERE " + strings.Join(conditions, " AND "))
	}
	queryBuilder.WriteString(" ORDER BY scheduled_at ASC")

	rows, err := r.db.QueryContext(ctx, queryBuilder.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	games := make([]*models.Game, 0)
	for rows.Next() {
		game := &models.Game{}
		if err := rows.Scan(
			&game.ID,
			&game.HomeTeamID,
			&game.AwayTeamID,
			&game.HomeScore,
			&game.AwayScore,
			&game.ScheduledAt,
			&game.Status,
			&game.Quarter,
			&game.Clock,
			&game.Venue,
			&game.Attendance,
			&game.CreatedAt,
		); err != nil {
			return nil, err
		}
		games = append(games, game)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}
	return games, nil
}

func (r *postgresGameRepository) Update(ctx context.Context, exec SQLExecutor, game *models.Game) error {
	query := `
		UPDATE games SET
			home_team_id = $1,
			away_team_id = $2,
			home_score = $3,
			away_score = $4,
			scheduled_at = $5,
			status = $6,
			quarter = $7,
			clock = $8,
			venue = $9,
			attendance = $10
		WHERE id = $11`

	result, err := r.getExecutor(exec).ExecContext(ctx, query,
		game.HomeTeamID,
		game.AwayTeamID,
		game.HomeScore,
		game.AwayScore,
		game.ScheduledAt,
		game.Status,
		game.Quarter,
		game.Clock,
		game.Venue,
		game.Attendance,
		game.ID,
	)
	if err != nil {
		return r.mapGameError(err)
	}
	return checkAffectedRows(result, ErrGameNotFound)
}

func (r *postgresGameRepository) Delete(ctx context.Context, id int) error {
	query := `DELETE FROM games WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrGameNotFound)
}

func (r *postgresGameRepository) ListStatsByGameID(ctx context.Context, gameID int) ([]models.GameStat, error) {
	query := `
		SELECT id, game_id, player_id, points, rebounds, assists, steals, blocks, minutes
		FROM game_stats
		WHERE game_id = $1
		ORDER BY points DESC, player_id ASC`

	rows, err := r.db.QueryContext(ctx, query, gameID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stats := make([]models.GameStat, 0)
	for rows.Next() {
		var stat models.GameStat
		if err := rows.Scan(
			&stat.ID,
			&stat.GameID,
			&stat.PlayerID,
			&stat.Points,
			&stat.Rebounds,
			&stat.Assists,
			&stat.Steals,
			&stat.Blocks,
			&stat.Minutes,
		); err != nil {
			return nil, err
		}
		stats = append(stats, stat)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}
	return stats, nil
}

func (r *postgresGameRepository) ReplaceStats(ctx context.Context, exec SQLExecutor, gameID int, stats []models.GameStat) error {
	executor := r.getExecutor(exec)

	if _, err := executor.ExecContext(ctx, `DELETE FROM game_stats WHERE game_id = $1`, gameID); err != nil {
		return fmt.Errorf("failed to clear boxscore for game %d: %w", gameID, err)
	}

	query := `
		INSERT INTO game_stats (game_id, player_id, points, rebounds, assists, steals, blocks, minutes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	for i := range stats {
		stats[i].GameID = gameID
		if _, err := executor.ExecContext(ctx, query,
			gameID,
			stats[i].PlayerID,
			stats[i].Points,
			stats[i].Rebounds,
			stats[i].Assists,
			stats[i].Steals,
			stats[i].Blocks,
			stats[i].Minutes,
		); err != nil {
			return r.mapGameError(err)
		}
	}
	return nil
}

func (r *postgresGameRepository) scanGame(row *sql.Row) (*models.Game, error) {
	game := &models.Game{}
	err := row.Scan(
		&game.ID,
		&game.HomeTeamID,
		&game.AwayTeamID,
		&game.HomeScore,
		&game.AwayScore,
		&game.ScheduledAt,
		&game.Status,
		&game.Quarter,
		&game.Clock,
		&game.Venue,
		&game.Attendance,
		&game.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrGameNotFound
		}
		return nil, fmt.Errorf("failed to scan game: %w", err)
	}
	return game, nil
}

func (r *postgresGameRepository) mapGameError(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "23505":
			if pqErr.Constraint == "game_stats_game_id_player_id_key" {
				return ErrGameStatConflict
			}
		case "23503":
			switch pqErr.Constraint {
			case "games_home_team_id_fkey", "games_away_team_id_fkey":
				return ErrGameTeamInvalid
			case "game_stats_player_id_fkey":
				return ErrGamePlayerInvalid
			}
		}
	}
	return err
}
