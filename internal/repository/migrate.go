package repository

import (
	"context"
	"fmt"
	"strings"

	"entgo.io/ent/dialect"
)

const schemaTemplate = `
CREATE TABLE IF NOT EXISTS extraction_jobs (
	id              TEXT PRIMARY KEY,
	course_name     TEXT NOT NULL,
	file_ref        TEXT NOT NULL,
	created_by      TEXT NOT NULL,
	status          TEXT NOT NULL,
	total_forms     INTEGER NOT NULL DEFAULT 0,
	processed_forms INTEGER NOT NULL DEFAULT 0,
	method          TEXT,
	error_message   TEXT,
	started_at      {{ts}},
	finished_at     {{ts}},
	created_at      {{ts}} NOT NULL,
	updated_at      {{ts}} NOT NULL
);
CREATE INDEX IF NOT EXISTS extraction_jobs_status_idx ON extraction_jobs (status, created_at);
CREATE TABLE IF NOT EXISTS survey_responses (
	id                          TEXT PRIMARY KEY,
	job_id                      TEXT NOT NULL REFERENCES extraction_jobs (id) ON DELETE CASCADE,
	position                    INTEGER NOT NULL,
	course_name                 TEXT NOT NULL,
	response_date               DATE,
	rating_content_relevance    INTEGER,
	rating_content_organization INTEGER,
	rating_materials_quality    INTEGER,
	rating_instructor_knowledge INTEGER,
	rating_instructor_clarity   INTEGER,
	rating_engagement           INTEGER,
	rating_pace                 INTEGER,
	rating_facilities           INTEGER,
	rating_overall_satisfaction INTEGER,
	recommendation_score        INTEGER,
	overall_rating              TEXT,
	overall_rating_comment      TEXT,
	learned_1                   TEXT,
	learned_2                   TEXT,
	learned_3                   TEXT,
	suggestions                 TEXT,
	comments                    TEXT,
	future_interest             TEXT,
	participant_name            TEXT,
	company                     TEXT,
	email                       TEXT,
	phone                       TEXT,
	method                      TEXT NOT NULL,
	source                      TEXT NOT NULL,
	created_at                  {{ts}} NOT NULL
);
CREATE INDEX IF NOT EXISTS survey_responses_job_idx ON survey_responses (job_id, position);
CREATE TABLE IF NOT EXISTS extraction_settings (
	owner_id   TEXT PRIMARY KEY,
	api_key    TEXT NOT NULL DEFAULT '',
	model_name TEXT NOT NULL DEFAULT '',
	enabled    BOOLEAN NOT NULL DEFAULT FALSE,
	updated_at {{ts}} NOT NULL
);
`

// Migrate creates the tables if they do not exist. It is safe to run on
// every start.
func (d *DB) Migrate(ctx context.Context) error {
	ts := "TIMESTAMP"
	if d.Dialect() == dialect.Postgres {
		ts = "TIMESTAMPTZ"
	}
	ddl := strings.ReplaceAll(schemaTemplate, "{{ts}}", ts)
	for _, stmt := range strings.Split(ddl, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if err := d.drv.Exec(ctx, stmt, []any{}, nil); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	d.log.Info("database schema ready", "dialect", d.Dialect())
	return nil
}
