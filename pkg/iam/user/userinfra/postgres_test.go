package userinfra

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/hypeframe/monarch/pkg/iam/user"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockRepo(t *testing.T) (*PostgresUserRepository, sqlmock.Sqlmock) {
	t.Helper()
	raw, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { raw.Close() })
	return NewPostgresUserRepository(sqlx.NewDb(raw, "postgres")), mock
}

func TestPostgresUserRepository_CreateDuplicate(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users")).
		WillReturnError(&pq.Error{Code: "23505"})

	err := repo.Create(context.Background(), user.NewUser("p1", "a@x.io"))
	require.Error(t, err)
	assert.True(t, user.CodeDuplicateUser.Is(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresUserRepository_FindByEmailNormalizes(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Now()

	rows := sqlmock.NewRows([]string{"id", "project_id", "email", "password_hash", "federated_provider", "federated_subject", "email_verified", "created_at", "updated_at"}).
		AddRow("u1", "p1", "a@x.io", "hash", nil, nil, false, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE project_id = $1 AND email = $2")).
		WithArgs("p1", "a@x.io").
		WillReturnRows(rows)

	u, err := repo.FindByEmail(context.Background(), "p1", "  A@X.io ")
	require.NoError(t, err)
	assert.True(t, u.HasPassword())
	assert.Nil(t, u.FederatedProvider)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresUserRepository_FindByIDNotFound(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE project_id = $1 AND id = $2")).
		WithArgs("p1", "missing").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.FindByID(context.Background(), "p1", "missing")
	assert.True(t, user.CodeUserNotFound.Is(err))
}
