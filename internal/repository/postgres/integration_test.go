//go:build integration

package postgres_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/dtroode/otptasks-server/database"
	"github.com/dtroode/otptasks-server/internal/model"
	repo "github.com/dtroode/otptasks-server/internal/repository/postgres"
	"github.com/dtroode/otptasks-server/internal/service"
	"github.com/dtroode/otptasks-server/internal/testutil"
	"github.com/dtroode/otptasks-server/internal/token"
)

var dsn string

func TestMain(m *testing.M) {
	ctx := context.Background()
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: tc.ContainerRequest{
			Image:        "postgres:15-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "postgres",
				"POSTGRES_PASSWORD": "password",
				"POSTGRES_DB":       "otptasks_test",
			},
			WaitingFor: wait.ForListeningPort("5432/tcp").WithStartupTimeout(2 * time.Minute),
		},
		Started: true,
	})
	if err != nil {
		panic(err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		panic(err)
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		panic(err)
	}
	dsn = fmt.Sprintf("postgres://postgres:password@%s:%s/otptasks_test?sslmode=disable", host, port.Port())

	if err := waitForMigrations(ctx); err != nil {
		panic(err)
	}

	code := m.Run()
	_ = container.Terminate(ctx)
	os.Exit(code)
}

// waitForMigrations retries while postgres finishes its init restart.
func waitForMigrations(ctx context.Context) error {
	var err error
	for i := 0; i < 20; i++ {
		if err = database.Migrate(ctx, dsn); err == nil {
			return nil
		}
		time.Sleep(500 * time.Millisecond)
	}
	return err
}

func newConnection(t *testing.T) *repo.Connection {
	t.Helper()

	conn, err := repo.NewConnection(context.Background(), dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func uniqueEmail(local string) string {
	return fmt.Sprintf("%s@%d.example", local, time.Now().UnixNano())
}

func TestUserRepository_Integration(t *testing.T) {
	ctx := context.Background()
	users := repo.NewUserRepository(newConnection(t))

	email := uniqueEmail("u")
	nickname := fmt.Sprintf("u%d", time.Now().UnixNano())

	created, err := users.Create(ctx, model.User{Nickname: nickname, Email: email})
	require.NoError(t, err)
	assert.NotZero(t, created.ID)
	assert.False(t, created.HasActiveOTP())

	_, err = users.Create(ctx, model.User{Nickname: nickname, Email: uniqueEmail("other")})
	require.ErrorIs(t, err, model.ErrConflict)

	expiresAt := time.Now().UTC().Add(5 * time.Minute).Truncate(time.Microsecond)
	require.NoError(t, users.SetOTP(ctx, created.ID, "042391", expiresAt))

	got, err := users.GetByEmail(ctx, email)
	require.NoError(t, err)
	require.True(t, got.HasActiveOTP())
	assert.Equal(t, "042391", *got.OTPCode)
	assert.True(t, expiresAt.Equal(*got.OTPExpiresAt))

	require.ErrorIs(t, users.ConsumeOTP(ctx, created.ID, "000000"), model.ErrInvalidState)
	require.NoError(t, users.ConsumeOTP(ctx, created.ID, "042391"))
	require.ErrorIs(t, users.ConsumeOTP(ctx, created.ID, "042391"), model.ErrInvalidState)

	got, err = users.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Nil(t, got.OTPCode)
	assert.Nil(t, got.OTPExpiresAt)

	_, err = users.GetByEmail(ctx, "missing@example.com")
	require.ErrorIs(t, err, model.ErrNotFound)
}

func TestTaskRepository_Integration(t *testing.T) {
	ctx := context.Background()
	conn := newConnection(t)
	users := repo.NewUserRepository(conn)
	tasks := repo.NewTaskRepository(conn)

	owner, err := users.Create(ctx, model.User{Nickname: fmt.Sprintf("o%d", time.Now().UnixNano()), Email: uniqueEmail("o")})
	require.NoError(t, err)
	stranger, err := users.Create(ctx, model.User{Nickname: fmt.Sprintf("s%d", time.Now().UnixNano()), Email: uniqueEmail("s")})
	require.NoError(t, err)

	now := time.Now().UTC()
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	overdue, err := tasks.Create(ctx, model.CreateTaskParams{UserID: owner.ID, Title: "overdue", EstimatedCompletionTime: &past})
	require.NoError(t, err)
	assert.False(t, overdue.Completed)
	assert.Equal(t, owner.Profile(), overdue.Owner)

	open, err := tasks.Create(ctx, model.CreateTaskParams{UserID: owner.ID, Title: "open", EstimatedCompletionTime: &future})
	require.NoError(t, err)
	_, err = tasks.Create(ctx, model.CreateTaskParams{UserID: owner.ID, Title: "no deadline"})
	require.NoError(t, err)

	n, err := tasks.CompleteOverdue(ctx, owner.ID, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = tasks.CompleteOverdue(ctx, owner.ID, now)
	require.NoError(t, err)
	assert.Zero(t, n)

	list, err := tasks.ListByOwner(ctx, owner.ID)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, overdue.ID, list[0].ID)
	assert.True(t, list[0].Completed)
	assert.False(t, list[1].Completed)
	assert.False(t, list[2].Completed)
	assert.Nil(t, list[2].EstimatedCompletionTime)

	_, err = tasks.GetOwned(ctx, open.ID, stranger.ID)
	require.ErrorIs(t, err, model.ErrNotFound)

	require.NoError(t, tasks.MarkCompleted(ctx, open.ID))
	got, err := tasks.GetOwned(ctx, open.ID, owner.ID)
	require.NoError(t, err)
	assert.True(t, got.Completed)

	strangerTasks, err := tasks.ListByOwner(ctx, stranger.ID)
	require.NoError(t, err)
	assert.Empty(t, strangerTasks)
}

func TestTransactor_RollsBack(t *testing.T) {
	ctx := context.Background()
	conn := newConnection(t)
	tx := repo.NewTransactor(conn)
	email := uniqueEmail("rb")

	err := tx.WithinTx(ctx, func(ctx context.Context, stores model.Stores) error {
		if _, err := stores.Users.Create(ctx, model.User{Nickname: fmt.Sprintf("rb%d", time.Now().UnixNano()), Email: email}); err != nil {
			return err
		}
		return assert.AnError
	})
	require.ErrorIs(t, err, assert.AnError)

	_, err = repo.NewUserRepository(conn).GetByEmail(ctx, email)
	require.ErrorIs(t, err, model.ErrNotFound)
}

func TestOTPFlow_ConcurrentVerify(t *testing.T) {
	ctx := context.Background()
	conn := newConnection(t)
	tx := repo.NewTransactor(conn)
	lg := testutil.MakeNoopLogger()

	jwt, err := token.NewJWT("secret", "HS256", time.Hour)
	require.NoError(t, err)
	auth := service.NewAuth(fixedCode("135790"), nopSender{}, service.NewTokenService(jwt, lg), 5*time.Minute, lg)

	email := uniqueEmail("race")
	err = tx.WithinTx(ctx, func(ctx context.Context, stores model.Stores) error {
		_, err := auth.RequestChallenge(ctx, stores.Users, email)
		return err
	})
	require.NoError(t, err)

	const workers = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		failures  []error
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := tx.WithinTx(ctx, func(ctx context.Context, stores model.Stores) error {
				_, err := auth.VerifyChallenge(ctx, stores.Users, email, "135790")
				return err
			})
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				successes++
				return
			}
			failures = append(failures, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	for _, err := range failures {
		assert.True(t, errors.Is(err, model.ErrInvalidState), err)
	}
}

func TestMigrations_RoundTrip(t *testing.T) {
	ctx := context.Background()

	require.NoError(t, database.Rollback(ctx, dsn))
	require.NoError(t, database.Migrate(ctx, dsn))
	require.NoError(t, database.Status(ctx, dsn))
}

type fixedCode string

func (c fixedCode) Generate() (string, error) {
	return string(c), nil
}

type nopSender struct{}

func (nopSender) Send(context.Context, model.UserProfile, string, time.Time) error {
	return nil
}
