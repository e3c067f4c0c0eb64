package services

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/courtside/league-system/models"
	"github.com/courtside/league-system/repositories"
	"github.com/courtside/league-system/storage"
)

// txRunner executes fn inside a transaction, rolling back on error. Services
// hold one of these instead of a bare *sql.DB so tests can substitute a stub.
type txRunner func(ctx context.Context, fn func(exec repositories.SQLExecutor) error) error

func sqlTxRunner(db *sql.DB) txRunner {
	return func(ctx context.Context, fn func(exec repositories.SQLExecutor) error) error {
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("failed to begin transaction: %w", err)
		}
		if err := fn(tx); err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				return fmt.Errorf("%w (rollback also failed: %v)", err, rbErr)
			}
			return err
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit transaction: %w", err)
		}
		return nil
	}
}

// canManageTeam reports whether the actor may mutate the given team:
// admins always, coaches only for their own team.
func canManageTeam(actor *models.User, team *models.Team) bool {
	if actor == nil {
		return false
	}
	if actor.Role == models.RoleAdmin {
		return true
	}
	return actor.Role == models.RoleCoach && team.CoachID == actor.ID
}

// canManageGame reports whether the actor may mutate the given game:
// admins always, coaches only when their team is playing.
func canManageGame(actor *models.User, game *models.Game, homeTeam, awayTeam *models.Team) bool {
	if actor == nil {
		return false
	}
	if actor.Role == models.RoleAdmin {
		return true
	}
	if actor.Role != models.RoleCoach {
		return false
	}
	return (homeTeam != nil && homeTeam.CoachID == actor.ID) ||
		(awayTeam != nil && awayTeam.CoachID == actor.ID)
}

func populateTeamLogoURL(team *models.Team, uploader storage.FileUploader) {
	if team == nil || uploader == nil || team.LogoKey == nil || *team.LogoKey == "" {
		return
	}
	url := uploader.GetPublicURL(*team.LogoKey)
	if url != "" {
		team.LogoURL = &url
	}
}

func sanitizeUser(user *models.User) *models.User {
	if user == nil {
		return nil
	}
	user.PasswordHash = ""
	return user
}
