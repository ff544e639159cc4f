package progress

import (
	"context"

	"github.com/HarshalVankudre/CourseViewer/internal/infrastructure/driver"
)

type SyncPG struct {
	Conn driver.ITransactionalDB
}

var _ SyncRepository = &SyncPG{}

func NewSyncRepository(Conn driver.ITransactionalDB) *SyncPG {
	return &SyncPG{
		Conn: Conn,
	}
}

// EnsureSchema create the progress and notes tables when missing
func (repo *SyncPG) EnsureSchema(ctx context.Context) error {
	conn := repo.Conn
	if _, err := conn.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS progress (
    user_id VARCHAR(255) NOT NULL,
    lesson_id VARCHAR(1024) NOT NULL,
    is_completed BOOLEAN NOT NULL DEFAULT FALSE,
    last_position_seconds INTEGER NOT NULL DEFAULT 0,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    PRIMARY KEY (user_id, lesson_id)
)
	`); err != nil {
		return err
	}
	_, err := conn.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS notes (
    user_id VARCHAR(255) NOT NULL,
    lesson_id VARCHAR(1024) NOT NULL,
    content TEXT NOT NULL DEFAULT '',
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    PRIMARY KEY (user_id, lesson_id)
)
	`)
	return err
}

func (repo *SyncPG) GetProgressByUser(ctx context.Context, userID string) ([]*ProgressModel, error) {
	conn := repo.Conn
	rows, err := conn.QueryContext(ctx, `
SELECT
    user_id, lesson_id, is_completed, last_position_seconds, updated_at
FROM
    progress
WHERE
    user_id = $1
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*ProgressModel
	for rows.Next() {
		item := new(ProgressModel)
		err := rows.Scan(&item.UserID, &item.LessonID, &item.IsCompleted, &item.Position, &item.UpdatedAt)
		if err != nil {
			return nil, err
		}
		result = append(result, item)
	}
	return result, nil
}

func (repo *SyncPG) GetNotesByUser(ctx context.Context, userID string) ([]*NoteModel, error) {
	conn := repo.Conn
	rows, err := conn.QueryContext(ctx, `
SELECT
    user_id, lesson_id, content, updated_at
FROM
    notes
WHERE
    user_id = $1
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*NoteModel
	for rows.Next() {
		item := new(NoteModel)
		err := rows.Scan(&item.UserID, &item.LessonID, &item.Content, &item.UpdatedAt)
		if err != nil {
			return nil, err
		}
		result = append(result, item)
	}
	return result, nil
}

// UpsertProgress single-row upsert keyed on (user_id, lesson_id),
// updated_at is always server time
func (repo *SyncPG) UpsertProgress(ctx context.Context, record *ProgressModel) error {
	conn := repo.Conn
	_, err := conn.ExecContext(ctx, `
INSERT INTO progress (user_id, lesson_id, is_completed, last_position_seconds, updated_at)
VALUES ($1, $2, $3, $4, NOW())
ON CONFLICT (user_id, lesson_id)
DO UPDATE SET
    is_completed = EXCLUDED.is_completed,
    last_position_seconds = EXCLUDED.last_position_seconds,
    updated_at = NOW()
	`, record.UserID, record.LessonID, record.IsCompleted, record.Position)
	return err
}

// UpsertNote same upsert discipline as UpsertProgress
func (repo *SyncPG) UpsertNote(ctx context.Context, record *NoteModel) error {
	conn := repo.Conn
	_, err := conn.ExecContext(ctx, `
INSERT INTO notes (user_id, lesson_id, content, updated_at)
VALUES ($1, $2, $3, NOW())
ON CONFLICT (user_id, lesson_id)
DO UPDATE SET
    content = EXCLUDED.content,
    updated_at = NOW()
	`, record.UserID, record.LessonID, record.Content)
	return err
}
