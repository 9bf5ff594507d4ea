package repository

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"sync"
	"testing"
	"time"

	"golang-stock-tracker/config"
	"golang-stock-tracker/internal/dto"
	"golang-stock-tracker/internal/model"
	"golang-stock-tracker/pkg/logger"
	"golang-stock-tracker/pkg/postgres"
	"golang-stock-tracker/pkg/utils"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const integrationEnv = "STOCK_TRACKER_INTEGRATION"

var (
	pgOnce sync.Once
	pgDB   *postgres.DB
	pgErr  error
)

// startPostgres boots one migrated PostgreSQL container per test process.
func startPostgres(t *testing.T) *postgres.DB {
	t.Helper()
	if os.Getenv(integrationEnv) != "1" {
		t.Skipf("set %s=1 to run PostgreSQL integration tests", integrationEnv)
	}

	pgOnce.Do(func() {
		ctx := context.Background()
		req := testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "tracker",
				"POSTGRES_PASSWORD": "tracker",
				"POSTGRES_DB":       "tracker",
			},
			WaitingFor: wait.ForAll(
				wait.ForListeningPort("5432/tcp"),
				wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
			).WithDeadline(90 * time.Second),
		}

		container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
			ContainerRequest: req,
			Started:          true,
		})
		if err != nil {
			pgErr = fmt.Errorf("start postgres container: %w", err)
			return
		}

		host, err := container.Host(ctx)
		if err != nil {
			pgErr = fmt.Errorf("get postgres host: %w", err)
			return
		}
		mappedPort, err := container.MappedPort(ctx, "5432/tcp")
		if err != nil {
			pgErr = fmt.Errorf("get postgres port: %w", err)
			return
		}
		port, _ := strconv.Atoi(mappedPort.Port())

		dbCfg := config.Database{
			Host:     host,
			Port:     port,
			User:     "tracker",
			Password: "tracker",
			DBName:   "tracker",
			SSLMode:  "disable",
			LogLevel: "Silent",
		}

		m, err := migrate.New("file://../../migrations", postgres.MigrationURL(dbCfg))
		if err != nil {
			pgErr = fmt.Errorf("create migration: %w", err)
			return
		}
		if err := m.Up(); err != nil && err != migrate.ErrNoChange {
			pgErr = fmt.Errorf("apply migrations: %w", err)
			return
		}
		_, _ = m.Close()

		pgDB, pgErr = postgres.NewDB(dbCfg, logger.NewNop())
	})

	if pgErr != nil {
		t.Fatalf("postgres container failed: %v", pgErr)
	}
	return pgDB
}

func createUser(t *testing.T, repo UserRepository, email string) *model.User {
	t.Helper()
	user := &model.User{Email: email, PasswordHash: "hash"}
	require.NoError(t, repo.Create(context.Background(), user))
	return user
}

func uniqueEmail(prefix string) string {
	return fmt.Sprintf("%s-%d@example.com", prefix, time.Now().UnixNano())
}

func TestUserRepository_Integration(t *testing.T) {
	db := startPostgres(t)
	ctx := context.Background()
	repo := NewUserRepository(db.DB)

	email := uniqueEmail("Mixed.Case")
	user := createUser(t, repo, email)
	assert.NotZero(t, user.ID)

	found, err := repo.GetByEmail(ctx, "  "+email+"  ")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, user.ID, found.ID)

	err = repo.Create(ctx, &model.User{Email: email, PasswordHash: "x"})
	assert.True(t, IsDuplicate(err), "duplicate email must be reported, got %v", err)

	missing, err := repo.GetByEmail(ctx, "nobody@example.com")
	require.NoError(t, err)
	assert.Nil(t, missing)

	require.NoError(t, repo.UpdateTelegramChatID(ctx, user.ID, utils.ToPointer[int64](42)))
	found, err = repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, found.TelegramChatID)
	assert.Equal(t, int64(42), *found.TelegramChatID)
}

func TestHoldingRepository_OwnershipIsolation(t *testing.T) {
	db := startPostgres(t)
	ctx := context.Background()
	users := NewUserRepository(db.DB)
	repo := NewHoldingRepository(db.DB)

	owner := createUser(t, users, uniqueEmail("owner"))
	other := createUser(t, users, uniqueEmail("other"))

	holding := &model.Holding{
		UserID:   owner.ID,
		Symbol:   "AAPL",
		Quantity: 10,
		BuyPrice: 150.25,
		BuyDate:  time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, repo.Create(ctx, holding))

	got, err := repo.GetByID(ctx, owner.ID, holding.ID)
	require.NoError(t, err)
	assert.Equal(t, 150.25, got.BuyPrice)
	assert.Equal(t, "2024-01-05", utils.DateKey(got.BuyDate))

	_, err = repo.GetByID(ctx, other.ID, holding.ID)
	assert.True(t, IsNotFound(err))

	list, err := repo.ListByUser(ctx, other.ID)
	require.NoError(t, err)
	assert.Empty(t, list)

	foreign := *holding
	foreign.UserID = other.ID
	foreign.Quantity = 999
	assert.True(t, IsNotFound(repo.Update(ctx, &foreign)))
	assert.True(t, IsNotFound(repo.Delete(ctx, other.ID, holding.ID)))

	holding.Quantity = 12
	require.NoError(t, repo.Update(ctx, holding))
	got, err = repo.GetByID(ctx, owner.ID, holding.ID)
	require.NoError(t, err)
	assert.Equal(t, 12.0, got.Quantity)

	require.NoError(t, repo.Delete(ctx, owner.ID, holding.ID))
	_, err = repo.GetByID(ctx, owner.ID, holding.ID)
	assert.True(t, IsNotFound(err))
}

func TestWatchlistRepository_Duplicate(t *testing.T) {
	db := startPostgres(t)
	ctx := context.Background()
	user := createUser(t, NewUserRepository(db.DB), uniqueEmail("watch"))
	repo := NewWatchlistRepository(db.DB)

	require.NoError(t, repo.Create(ctx, &model.WatchlistEntry{UserID: user.ID, Symbol: "MSFT"}))
	err := repo.Create(ctx, &model.WatchlistEntry{UserID: user.ID, Symbol: "MSFT"})
	assert.True(t, IsDuplicate(err))

	entries, err := repo.ListByUser(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	all, err := repo.ListAll(ctx)
	require.NoError(t, err)
	var found bool
	for _, e := range all {
		if e.ID == entries[0].ID {
			found = true
			require.NotNil(t, e.User)
			assert.Equal(t, user.Email, e.User.Email)
		}
	}
	assert.True(t, found)

	assert.True(t, IsNotFound(repo.Delete(ctx, user.ID+1000, entries[0].ID)))
	assert.NoError(t, repo.Delete(ctx, user.ID, entries[0].ID))
}

func TestAlertRepositories_Integration(t *testing.T) {
	db := startPostgres(t)
	ctx := context.Background()
	users := NewUserRepository(db.DB)
	rules := NewAlertRuleRepository(db.DB)
	records := NewAlertRecordRepository(db.DB)

	alice := createUser(t, users, uniqueEmail("alice"))
	bob := createUser(t, users, uniqueEmail("bob"))

	active := &model.AlertRule{UserID: alice.ID, Symbol: "TSLA", TemplateType: model.RuleTemplateTargetPrice, ConditionOperator: model.OperatorAbove, ConditionValue: 250, Priority: model.PriorityHigh, IsActive: true}
	paused := &model.AlertRule{UserID: alice.ID, Symbol: "TSLA", TemplateType: model.RuleTemplateVolumeSpike, ConditionOperator: model.OperatorAbove, ConditionValue: 200, Priority: model.PriorityLow, IsActive: true}
	require.NoError(t, rules.Create(ctx, active))
	require.NoError(t, rules.Create(ctx, paused))

	paused.IsActive = false
	require.NoError(t, rules.Update(ctx, paused))

	got, err := rules.Get(ctx, dto.GetAlertRulesParam{IsActive: utils.ToPointer(true), UserID: &alice.ID, WithUser: true})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, active.ID, got[0].ID)
	require.NotNil(t, got[0].User)
	assert.Equal(t, alice.Email, got[0].User.Email)

	triggeredAt := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, rules.UpdateLastTriggered(ctx, active.ID, triggeredAt))
	reloaded, err := rules.GetByID(ctx, alice.ID, active.ID)
	require.NoError(t, err)
	require.NotNil(t, reloaded.LastTriggeredAt)
	assert.True(t, triggeredAt.Equal(reloaded.LastTriggeredAt.UTC()))

	_, err = rules.GetByID(ctx, bob.ID, active.ID)
	assert.True(t, IsNotFound(err))

	for i := 0; i < 5; i++ {
		require.NoError(t, records.Create(ctx, &model.AlertRecord{UserID: alice.ID, Symbol: "TSLA", Message: fmt.Sprintf("alert %d", i), AlertType: model.AlertTypeManual, Priority: model.PriorityMedium}))
	}
	require.NoError(t, records.Create(ctx, &model.AlertRecord{UserID: bob.ID, Symbol: "AAPL", Message: "bob", AlertType: model.AlertTypeManual, Priority: model.PriorityMedium}))

	page, total, err := records.List(ctx, dto.GetAlertRecordsParam{UserID: alice.ID, Limit: 2, Offset: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	require.Len(t, page, 2)
	assert.Equal(t, "alert 3", page[0].Message)

	assert.True(t, IsNotFound(records.Delete(ctx, bob.ID, page[0].ID)))

	deleted, err := records.DeleteAllByUser(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(5), deleted)

	_, bobTotal, err := records.List(ctx, dto.GetAlertRecordsParam{UserID: bob.ID, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(1), bobTotal)
}

func TestSecurityRepositories_Integration(t *testing.T) {
	db := startPostgres(t)
	ctx := context.Background()
	user := createUser(t, NewUserRepository(db.DB), uniqueEmail("sec"))
	attempts := NewLoginAttemptRepository(db.DB)
	tokens := NewRefreshTokenRepository(db.DB)

	now := time.Now().UTC()
	for i := 0; i < 3; i++ {
		require.NoError(t, attempts.Create(ctx, &model.LoginAttempt{Email: user.Email, Success: false, AttemptedAt: now}))
	}
	failed, err := attempts.Count(ctx, dto.GetLoginAttemptsParam{Email: user.Email, Since: now.Add(-time.Minute), Success: utils.ToPointer(false)})
	require.NoError(t, err)
	assert.Equal(t, int64(3), failed)

	require.NoError(t, attempts.DeleteFailed(ctx, user.Email))
	failed, err = attempts.Count(ctx, dto.GetLoginAttemptsParam{Email: user.Email, Success: utils.ToPointer(false)})
	require.NoError(t, err)
	assert.Zero(t, failed)

	hash := fmt.Sprintf("%064d", now.UnixNano())
	require.NoError(t, tokens.Create(ctx, &model.RefreshToken{UserID: user.ID, TokenHash: hash, ExpiresAt: now.Add(time.Hour)}))
	_, err = tokens.GetActiveByHash(ctx, hash, now)
	require.NoError(t, err)

	require.NoError(t, tokens.RevokeByHash(ctx, hash))
	_, err = tokens.GetActiveByHash(ctx, hash, now)
	assert.True(t, IsNotFound(err))

	removed, err := tokens.DeleteExpiredOrRevoked(ctx, now)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, removed, int64(1))
}
