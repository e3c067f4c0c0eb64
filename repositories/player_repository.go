package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/courtside/league-system/models"
	"github.com/lib/pq"
)

var (
	ErrPlayerNotFound       = errors.New("player not found")
	ErrPlayerJerseyConflict = errors.New("jersey number already taken on this team")
	ErrPlayerUserConflict   = errors.New("user already has a player profile")
	ErrPlayerTeamInvalid    = errors.New("player team reference invalid")
	ErrPlayerUserInvalid    = errors.New("player user reference invalid")
)

// PlayerFilter narrows List results. Zero values mean "no filter".
type PlayerFilter struct {
	TeamID   *int
	Position *models.PlayerPosition
	Name     string // substring match, case-insensitive
}

type PlayerRepository interface {
	Create(ctx context.Context, exec SQLExecutor, player *models.Player) error
	GetByID(ctx context.Context, id int) (*models.Player, error)
	GetByUserID(ctx context.Context, userID int) (*models.Player, error)
	List(ctx context.Context, filter PlayerFilter) ([]*models.Player, error)
	ListByTeamID(ctx context.Context, teamID int) ([]models.Player, error)
	Update(ctx context.Context, exec SQLExecutor, player *models.Player) error
	// UpdateTeamAndJersey moves a player onto (or off) a team. Runs under the
	// caller's transaction together with the matching users.team_id write.
	UpdateTeamAndJersey(ctx context.Context, exec SQLExecutor, playerID int, teamID *int, jerseyNumber int) error
	Delete(ctx context.Context, exec SQLExecutor, id int) error
	ClearTeamID(ctx context.Context, exec SQLExecutor, teamID int) error
}

type postgresPlayerRepository struct {
	db *sql.DB
}

func NewPostgresPlayerRepository(db *sql.DB) PlayerRepository {
	return &postgresPlayerRepository{db: db}
}

func (r *postgresPlayerRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const playerColumns = `id, user_id, team_id, name, position, jersey_number, height_cm, weight_kg,
	points_per_game, rebounds_per_game, assists_per_game, steals_per_game, blocks_per_game, minutes_per_game,
	created_at`

func (r *postgresPlayerRepository) Create(ctx context.Context, exec SQLExecutor, player *models.Player) error {
	query := `
		INSERT INTO players
			(user_id, team_id, name, position, jersey_number, height_cm, weight_kg,
			 points_per_game, rebounds_per_game, assists_per_game, steals_per_game, blocks_per_game, minutes_per_game)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id, created_at`

	err := r.getExecutor(exec).QueryRowContext(ctx, query,
		player.UserID,
		player.TeamID,
		player.Name,
		player.Position,
		player.JerseyNumber,
		player.HeightCM,
		player.WeightKG,
		player.PointsPerGame,
		player.ReboundsPerGame,
		player.AssistsPerGame,
		player.StealsPerGame,
		player.BlocksPerGame,
		player.MinutesPerGame,
	).Scan(&player.ID, &player.CreatedAt)

	if err != nil {
		return r.mapPlayerError(err)
	}
	return nil
}

func (r *postgresPlayerRepository) GetByID(ctx context.Context, id int) (*models.Player, error) {
	query := `SELECT ` + playerColumns + ` FROM players WHERE id = $1`
	return r.scanPlayer(r.db.QueryRowContext(ctx, query, id))
}

func (r *postgresPlayerRepository) GetByUserID(ctx context.Context, userID int) (*models.Player, error) {
	query := `SELECT ` + playerColumns + ` FROM players WHERE user_id = $1`
	return r.scanPlayer(r.db.QueryRowContext(ctx, query, userID))
}

func (r *postgresPlayerRepository) List(ctx context.Context, filter PlayerFilter) ([]*models.Player, error) {
	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT ` + playerColumns + ` FROM players`)

	var conditions []string
	var args []interface{}

	if filter.TeamID != nil {
		args = append(args, *filter.TeamID)
		conditions = append(conditions, "team_id = $"+strconv.Itoa(len(args)))
	}
	if filter.Position != nil {
		args = append(args, *filter.Position)
		conditions = append(conditions, "position = $"+strconv.Itoa(len(args)))
	}
	if filter.Name != "" {
		args = append(args, "%"+filter.Name+"%")
		conditions = append(conditions, "name ILIKE $"+strconv.Itoa(len(args)))
	}

	if len(conditions) > 0 {
		queryBuilder.WriteString(" WHERE " + strings.Join(conditions, " AND "))
	}
	queryBuilder.WriteString(" ORDER BY name ASC")

	rows, err := r.db.QueryContext(ctx, queryBuilder.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return r.collectPlayers(rows)
}

func (r *postgresPlayerRepository) ListByTeamID(ctx context.Context, teamID int) ([]models.Player, error) {
	query := `SELECT ` + playerColumns + ` FROM players WHERE team_id = $1 ORDER BY jersey_number ASC`

	rows, err := r.db.QueryContext(ctx, query, teamID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	collected, err := r.collectPlayers(rows)
	if err != nil {
		return nil, err
	}

	players := make([]models.Player, 0, len(collected))
	for _, p := range collected {
		players = append(players, *p)
	}
	return players, nil
}

func (r *postgresPlayerRepository) Update(ctx context.Context, exec SQLExecutor, player *models.Player) error {
	query := `
		UPDATE players SET
			team_id = $1,
			name = $2,
			position = $3,
			jersey_number = $4,
			height_cm = $5,
			weight_kg = $6,
			points_per_game = $7,
			rebounds_per_game = $8,
			assists_per_game = $9,
			steals_per_game = $10,
			blocks_per_game = $11,
			minutes_per_game = $12
		WHERE id = $13`

	result, err := r.getExecutor(exec).ExecContext(ctx, query,
		player.TeamID,
		player.Name,
		player.Position,
		player.JerseyNumber,
		player.HeightCM,
		player.WeightKG,
		player.PointsPerGame,
		player.ReboundsPerGame,
		player.AssistsPerGame,
		player.StealsPerGame,
		player.BlocksPerGame,
		player.MinutesPerGame,
		player.ID,
	)
	if err != nil {
		return r.mapPlayerError(err)
	}
	return checkAffectedRows(result, ErrPlayerNotFound)
}

func (r *postgresPlayerRepository) UpdateTeamAndJersey(ctx context.Context, exec SQLExecutor, playerID int, teamID *int, jerseyNumber int) error {
	query := `UPDATE players SET team_id = $1, jersey_number = $2 WHERE id = $3`

	result, err := r.getExecutor(exec).ExecContext(ctx, query, teamID, jerseyNumber, playerID)
	if err != nil {
		return r.mapPlayerError(err)
	}
	return checkAffectedRows(result, ErrPlayerNotFound)
}

func (r *postgresPlayerRepository) Delete(ctx context.Context, exec SQLExecutor, id int) error {
	query := `DELETE FROM players WHERE id = $1`
	result, err := r.getExecutor(exec).ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrPlayerNotFound)
}

// ClearTeamID detaches every player from a team. Used when a team is deleted.
func (r *postgresPlayerRepository) ClearTeamID(ctx context.Context, exec SQLExecutor, teamID int) error {
	query := `UPDATE players SET team_id = NULL WHERE team_id = $1`
	_, err := r.getExecutor(exec).ExecContext(ctx, query, teamID)
	return err
}

func (r *postgresPlayerRepository) scanPlayer(row *sql.Row) (*models.Player, error) {
	player := &models.Player{}
	err := row.Scan(
		&player.ID,
		&player.UserID,
		&player.TeamID,
		&player.Name,
		&player.Position,
		&player.JerseyNumber,
		&player.HeightCM,
		&player.WeightKG,
		&player.PointsPerGame,
		&player.ReboundsPerGame,
		&player.AssistsPerGame,
		&player.StealsPerGame,
		&player.BlocksPerGame,
		&player.MinutesPerGame,
		&player.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPlayerNotFound
		}
		return nil, fmt.Errorf("failed to scan player: %w", err)
	}
	return player, nil
}

func (r *postgresPlayerRepository) collectPlayers(rows *sql.Rows) ([]*models.Player, error) {
	players := make([]*models.Player, 0)
	for rows.Next() {
		player := &models.Player{}
		if err := rows.Scan(
			&player.ID,
			&player.UserID,
			&player.TeamID,
			&player.Name,
			&player.Position,
			&player.JerseyNumber,
			&player.HeightCM,
			&player.WeightKG,
			&player.PointsPerGame,
			&player.ReboundsPerGame,
			&player.AssistsPerGame,
			&player.StealsPerGame,
			&player.BlocksPerGame,
			&player.MinutesPerGame,
			&player.CreatedAt,
		); err != nil {
			return nil, err
		}
		players = append(players, player)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return players, nil
}

func (r *postgresPlayerRepository) mapPlayerError(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "23505":
			if pqErr.Constraint == "players_team_id_jersey_number_key" {
				return ErrPlayerJerseyConflict
			}
			if pqErr.Constraint == "players_user_id_key" {
				return ErrPlayerUserConflict
			}
		case "23503":
			if pqErr.Constraint == "players_team_id_fkey" {
				return ErrPlayerTeamInvalid
			}
			if pqErr.Constraint == "players_user_id_fkey" {
				return ErrPlayerUserInvalid
			}
		}
	}
	return err
}
