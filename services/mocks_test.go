package services

import (
	"context"

	"github.com/courtside/league-system/models"
	"github.com/courtside/league-system/repositories"
)

// The repository mocks below use overridable func fields so each test only
// wires the calls it cares about. Unset funcs fail loudly via nil panic,
// which keeps unexpected repository traffic visible.

// passthroughTxRunner runs fn directly with a nil executor; repositories in
// tests are mocks, so no real transaction is needed.
func passthroughTxRunner(ctx context.Context, fn func(exec repositories.SQLExecutor) error) error {
	return fn(nil)
}

// failingTxRunner asserts that no transaction is ever started.
func failingTxRunner(ctx context.Context, fn func(exec repositories.SQLExecutor) error) error {
	panic("transaction started but none was expected")
}

type mockUserRepo struct {
	CreateFunc       func(ctx context.Context, user *models.User) error
	GetByIDFunc      func(ctx context.Context, id int) (*models.User, error)
	GetByEmailFunc   func(ctx context.Context, email string) (*models.User, error)
	UpdateFunc       func(ctx context.Context, user *models.User) error
	UpdateTeamIDFunc func(ctx context.Context, exec repositories.SQLExecutor, userID int, teamID *int) error
	ListByTeamIDFunc func(ctx context.Context, teamID int) ([]models.User, error)

	UpdateTeamIDCalls []struct {
		UserID int
		TeamID *int
	}
}

func (m *mockUserRepo) Create(ctx context.Context, user *models.User) error {
	return m.CreateFunc(ctx, user)
}

func (m *mockUserRepo) GetByID(ctx context.Context, id int) (*models.User, error) {
	return m.GetByIDFunc(ctx, id)
}

func (m *mockUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return m.GetByEmailFunc(ctx, email)
}

func (m *mockUserRepo) Update(ctx context.Context, user *models.User) error {
	return m.UpdateFunc(ctx, user)
}

func (m *mockUserRepo) UpdateTeamID(ctx context.Context, exec repositories.SQLExecutor, userID int, teamID *int) error {
	m.UpdateTeamIDCalls = append(m.UpdateTeamIDCalls, struct {
		UserID int
		TeamID *int
	}{userID, teamID})
	if m.UpdateTeamIDFunc != nil {
		return m.UpdateTeamIDFunc(ctx, exec, userID, teamID)
	}
	return nil
}

func (m *mockUserRepo) ListByTeamID(ctx context.Context, teamID int) ([]models.User, error) {
	return m.ListByTeamIDFunc(ctx, teamID)
}

type mockTeamRepo struct {
	CreateFunc           func(ctx context.Context, team *models.Team) error
	GetByIDFunc          func(ctx context.Context, id int) (*models.Team, error)
	GetByIDForUpdateFunc func(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.Team, error)
	ListFunc             func(ctx context.Context, filter repositories.TeamFilter) ([]*models.Team, error)
	UpdateFunc           func(ctx context.Context, exec repositories.SQLExecutor, team *models.Team) error
	UpdateLogoKeyFunc    func(ctx context.Context, teamID int, logoKey *string) error
	DeleteFunc           func(ctx context.Context, exec repositories.SQLExecutor, id int) error

	UpdatedTeams []*models.Team
}

func (m *mockTeamRepo) Create(ctx context.Context, team *models.Team) error {
	return m.CreateFunc(ctx, team)
}

func (m *mockTeamRepo) GetByID(ctx context.Context, id int) (*models.Team, error) {
	return m.GetByIDFunc(ctx, id)
}

func (m *mockTeamRepo) GetByIDForUpdate(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.Team, error) {
	return m.GetByIDForUpdateFunc(ctx, exec, id)
}

func (m *mockTeamRepo) List(ctx context.Context, filter repositories.TeamFilter) ([]*models.Team, error) {
	return m.ListFunc(ctx, filter)
}

func (m *mockTeamRepo) Update(ctx context.Context, exec repositories.SQLExecutor, team *models.Team) error {
	m.UpdatedTeams = append(m.UpdatedTeams, team)
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, exec, team)
	}
	return nil
}

func (m *mockTeamRepo) UpdateLogoKey(ctx context.Context, teamID int, logoKey *string) error {
	return m.UpdateLogoKeyFunc(ctx, teamID, logoKey)
}

func (m *mockTeamRepo) Delete(ctx context.Context, exec repositories.SQLExecutor, id int) error {
	return m.DeleteFunc(ctx, exec, id)
}

type mockPlayerRepo struct {
	CreateFunc              func(ctx context.Context, exec repositories.SQLExecutor, player *models.Player) error
	GetByIDFunc             func(ctx context.Context, id int) (*models.Player, error)
	GetByUserIDFunc         func(ctx context.Context, userID int) (*models.Player, error)
	ListFunc                func(ctx context.Context, filter repositories.PlayerFilter) ([]*models.Player, error)
	ListByTeamIDFunc        func(ctx context.Context, teamID int) ([]models.Player, error)
	UpdateFunc              func(ctx context.Context, exec repositories.SQLExecutor, player *models.Player) error
	UpdateTeamAndJerseyFunc func(ctx context.Context, exec repositories.SQLExecutor, playerID int, teamID *int, jerseyNumber int) error
	DeleteFunc              func(ctx context.Context, exec repositories.SQLExecutor, id int) error
	ClearTeamIDFunc         func(ctx context.Context, exec repositories.SQLExecutor, teamID int) error

	UpdateTeamAndJerseyCalls []struct {
		PlayerID int
		TeamID   *int
		Jersey   int
	}
}

func (m *mockPlayerRepo) Create(ctx context.Context, exec repositories.SQLExecutor, player *models.Player) error {
	return m.CreateFunc(ctx, exec, player)
}

func (m *mockPlayerRepo) GetByID(ctx context.Context, id int) (*models.Player, error) {
	return m.GetByIDFunc(ctx, id)
}

func (m *mockPlayerRepo) GetByUserID(ctx context.Context, userID int) (*models.Player, error) {
	return m.GetByUserIDFunc(ctx, userID)
}

func (m *mockPlayerRepo) List(ctx context.Context, filter repositories.PlayerFilter) ([]*models.Player, error) {
	return m.ListFunc(ctx, filter)
}

func (m *mockPlayerRepo) ListByTeamID(ctx context.Context, teamID int) ([]models.Player, error) {
	return m.ListByTeamIDFunc(ctx, teamID)
}

func (m *mockPlayerRepo) Update(ctx context.Context, exec repositories.SQLExecutor, player *models.Player) error {
	return m.UpdateFunc(ctx, exec, player)
}

func (m *mockPlayerRepo) UpdateTeamAndJersey(ctx context.Context, exec repositories.SQLExecutor, playerID int, teamID *int, jerseyNumber int) error {
	m.UpdateTeamAndJerseyCalls = append(m.UpdateTeamAndJerseyCalls, struct {
		PlayerID int
		TeamID   *int
		Jersey   int
	}{playerID, teamID, jerseyNumber})
	if m.UpdateTeamAndJerseyFunc != nil {
		return m.UpdateTeamAndJerseyFunc(ctx, exec, playerID, teamID, jerseyNumber)
	}
	return nil
}

func (m *mockPlayerRepo) Delete(ctx context.Context, exec repositories.SQLExecutor, id int) error {
	return m.DeleteFunc(ctx, exec, id)
}

func (m *mockPlayerRepo) ClearTeamID(ctx context.Context, exec repositories.SQLExecutor, teamID int) error {
	return m.ClearTeamIDFunc(ctx, exec, teamID)
}

type mockGameRepo struct {
	CreateFunc            func(ctx context.Context, game *models.Game) error
	GetByIDFunc           func(ctx context.Context, id int) (*models.Game, error)
	GetByIDForUpdateFunc  func(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.Game, error)
	ListFunc              func(ctx context.Context, filter repositories.GameFilter) ([]*models.Game, error)
	UpdateFunc            func(ctx context.Context, exec repositories.SQLExecutor, game *models.Game) error
	DeleteFunc            func(ctx context.Context, id int) error
	ListStatsByGameIDFunc func(ctx context.Context, gameID int) ([]models.GameStat, error)
	ReplaceStatsFunc      func(ctx context.Context, exec repositories.SQLExecutor, gameID int, stats []models.GameStat) error

	UpdatedGames []*models.Game
}

func (m *mockGameRepo) Create(ctx context.Context, game *models.Game) error {
	return m.CreateFunc(ctx, game)
}

func (m *mockGameRepo) GetByID(ctx context.Context, id int) (*models.Game, error) {
	return m.GetByIDFunc(ctx, id)
}

func (m *mockGameRepo) GetByIDForUpdate(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.Game, error) {
	return m.GetByIDForUpdateFunc(ctx, exec, id)
}

func (m *mockGameRepo) List(ctx context.Context, filter repositories.GameFilter) ([]*models.Game, error) {
	return m.ListFunc(ctx, filter)
}

func (m *mockGameRepo) Update(ctx context.Context, exec repositories.SQLExecutor, game *models.Game) error {
	m.UpdatedGames = append(m.UpdatedGames, game)
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, exec, game)
	}
	return nil
}

func (m *mockGameRepo) Delete(ctx context.Context, id int) error {
	return m.DeleteFunc(ctx, id)
}

func (m *mockGameRepo) ListStatsByGameID(ctx context.Context, gameID int) ([]models.GameStat, error) {
	if m.ListStatsByGameIDFunc != nil {
		return m.ListStatsByGameIDFunc(ctx, gameID)
	}
	return nil, nil
}

func (m *mockGameRepo) ReplaceStats(ctx context.Context, exec repositories.SQLExecutor, gameID int, stats []models.GameStat) error {
	return m.ReplaceStatsFunc(ctx, exec, gameID, stats)
}

// fakeBroadcaster records room broadcasts for assertions.
type fakeBroadcaster struct {
	Calls []broadcastCall
}

type broadcastCall struct {
	RoomID  string
	Event   string
	Payload interface{}
}

func (f *fakeBroadcaster) BroadcastToRoom(roomID, event string, payload interface{}) {
	f.Calls = append(f.Calls, broadcastCall{RoomID: roomID, Event: event, Payload: payload})
}

func intPtr(v int) *int       { return &v }
func strPtr(v string) *string { return &v }
