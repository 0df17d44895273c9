// Package store persists imported questions in PostgreSQL.
//
// A batch is written with COPY inside one transaction together with a
// question_imports record, so an import is stored completely or not at all.
package store

import (
	"context"
	_ "embed"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JonMunkholm/questionimport/internal/core"
	"github.com/JonMunkholm/questionimport/internal/question"
)

//go:embed schema.sql
var schema string

// PostgreSQL error codes mapped to upstream error kinds.
const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
)

var questionColumns = []string{
	"id", "import_id", "text", "type", "category", "scope",
	"is_required", "min_value", "max_value", "min_bound", "max_bound",
	"validation_regex",
	"help_text", "objective", "target_audience", "origin",
	"options", "likert_min", "likert_max", "likert_labels",
	"research_group_id", "creator_id",
}

const insertImportSQL = `
INSERT INTO question_imports (id, creator_id, origin, research_group_id, question_count)
VALUES ($1, $2, $3, $4, $5)`

// Store is a core.QuestionStore backed by a pgx pool.
type Store struct {
	pool *pgxpool.Pool
}

var _ core.QuestionStore = (*Store)(nil)

// New returns a Store using pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Migrate creates the tables if they do not exist yet.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// ImportQuestions stores the batch atomically. Constraint violations come
// back as *core.UpstreamError with the matching kind.
func (s *Store) ImportQuestions(ctx context.Context, questions []question.ParsedQuestion, meta core.StoreMetadata) (core.StoreResult, error) {
	if len(questions) == 0 {
		return core.StoreResult{QuestionIDs: []string{}}, nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return core.StoreResult{}, upstream(fmt.Errorf("begin transaction: %w", err))
	}
	defer tx.Rollback(ctx) // No-op if already committed

	importID := uuid.New()
	if _, err := tx.Exec(ctx, insertImportSQL,
		pgtype.UUID{Bytes: importID, Valid: true},
		toPgText(meta.CreatorID),
		meta.DefaultOrigin,
		toPgUUID(meta.ResearchGroupID),
		len(questions),
	); err != nil {
		return core.StoreResult{}, upstream(fmt.Errorf("record import: %w", err))
	}

	ids := make([]string, len(questions))
	rows := make([][]any, len(questions))
	for i, q := range questions {
		id := uuid.New()
		ids[i] = id.String()
		row, err := questionRow(id, importID, q, meta)
		if err != nil {
			return core.StoreResult{}, fmt.Errorf("question %d: %w", i+1, err)
		}
		rows[i] = row
	}

	n, err := tx.CopyFrom(ctx, pgx.Identifier{"questions"}, questionColumns, pgx.CopyFromRows(rows))
	if err != nil {
		return core.StoreResult{}, upstream(fmt.Errorf("copy questions: %w", err))
	}
	if int(n) != len(questions) {
		return core.StoreResult{}, upstream(fmt.Errorf("copied %d of %d questions", n, len(questions)))
	}

	if err := tx.Commit(ctx); err != nil {
		return core.StoreResult{}, upstream(fmt.Errorf("commit: %w", err))
	}

	return core.StoreResult{ImportID: importID.String(), Imported: int(n), QuestionIDs: ids}, nil
}

// questionRow lays out q in questionColumns order. Rows without an origin
// or research group inherit the batch values.
func questionRow(id, importID uuid.UUID, q question.ParsedQuestion, meta core.StoreMetadata) ([]any, error) {
	origin := q.Origin
	if origin == "" {
		origin = meta.DefaultOrigin
	}
	groupID := q.ResearchGroupID
	if groupID == "" {
		groupID = meta.ResearchGroupID
	}

	options, err := toJSONB(q.Options, q.Options != nil)
	if err != nil {
		return nil, fmt.Errorf("encode options: %w", err)
	}
	labels, err := toJSONB(q.LikertLabels, len(q.LikertLabels) > 0)
	if err != nil {
		return nil, fmt.Errorf("encode likert labels: %w", err)
	}

	return []any{
		pgtype.UUID{Bytes: id, Valid: true},
		pgtype.UUID{Bytes: importID, Valid: true},
		q.Text,
		q.Type.Name(),
		string(q.Category),
		string(q.Scope),
		toPgBool(q.IsRequired, true),
		toPgFloat8(q.MinValue),
		toPgFloat8(q.MaxValue),
		toPgText(q.MinBound),
		toPgText(q.MaxBound),
		toPgText(q.ValidationRegex),
		toPgText(q.HelpText),
		toPgText(q.Objective),
		toPgText(q.TargetAudience),
		origin,
		options,
		toPgInt4(q.LikertMin),
		toPgInt4(q.LikertMax),
		labels,
		toPgUUID(groupID),
		toPgText(meta.CreatorID),
	}, nil
}

// upstream classifies a driver error.
func upstream(err error) *core.UpstreamError {
	ue := &core.UpstreamError{Kind: core.UpstreamOther, Err: err}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		ue.Constraint = pgErr.ConstraintName
		switch pgErr.Code {
		case codeUniqueViolation:
			ue.Kind = core.UpstreamDuplicate
		case codeForeignKeyViolation:
			ue.Kind = core.UpstreamForeignKey
		}
	}
	return ue
}

// GetImport loads the import record for id. Unknown or malformed ids
// return an error wrapping core.ErrImportNotFound.
func (s *Store) GetImport(ctx context.Context, id string) (core.ImportRecord, error) {
	var (
		rec     core.ImportRecord
		pgID    pgtype.UUID
		creator pgtype.Text
		group   pgtype.UUID
		created pgtype.Timestamptz
	)
	err := s.pool.QueryRow(ctx, `
SELECT id, creator_id, origin, research_group_id, question_count, created_at
FROM question_imports WHERE id = $1`, toPgUUID(id)).
		Scan(&pgID, &creator, &rec.Origin, &group, &rec.QuestionCount, &created)
	if errors.Is(err, pgx.ErrNoRows) {
		return core.ImportRecord{}, fmt.Errorf("get import %s: %w", id, core.ErrImportNotFound)
	}
	if err != nil {
		return core.ImportRecord{}, upstream(fmt.Errorf("get import %s: %w", id, err))
	}
	rec.ID = pgUUIDToString(pgID)
	rec.CreatorID = creator.String
	rec.ResearchGroupID = pgUUIDToString(group)
	rec.CreatedAt = created.Time
	return rec, nil
}
