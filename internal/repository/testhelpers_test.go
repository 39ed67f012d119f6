package repository

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/prperemyshlev/videotube/pkg/database"
)

func newMockDB(t *testing.T) (*database.Postgres, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() {
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unmet expectations: %v", err)
		}
		_ = db.Close()
	})
	return &database.Postgres{DB: db}, mock
}

var userColumnNames = []string{
	"id", "username", "email", "fullname", "password_hash", "avatar_url", "cover_image_url",
	"refresh_token", "watch_history", "created_at", "updated_at",
}

func userRow(id, username string, refreshToken any) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(userColumnNames).AddRow(
		id, username, username+"@x.com", "Full Name", "hash", "http://cdn/a.png", "",
		refreshToken, "{v2,v1}", now, now,
	)
}

