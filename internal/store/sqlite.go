package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/fitcore/leadgen-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS leads (
	id                     INTEGER PRIMARY KEY AUTOINCREMENT,
	email                  TEXT NOT NULL UNIQUE,
	first_name             TEXT NOT NULL DEFAULT '',
	last_name              TEXT NOT NULL DEFAULT '',
	company_name           TEXT NOT NULL DEFAULT '',
	website                TEXT NOT NULL DEFAULT '',
	linkedin               TEXT NOT NULL DEFAULT '',
	job_title              TEXT NOT NULL DEFAULT '',
	city                   TEXT NOT NULL DEFAULT '',
	state                  TEXT NOT NULL DEFAULT '',
	country                TEXT NOT NULL DEFAULT '',
	company_size           TEXT NOT NULL DEFAULT '',
	industry               TEXT NOT NULL DEFAULT '',
	platform               TEXT NOT NULL DEFAULT '',
	online_status          TEXT NOT NULL DEFAULT '',
	segment                TEXT NOT NULL DEFAULT '',
	matched_signals        TEXT NOT NULL DEFAULT '',
	offers_online_coaching INTEGER NOT NULL DEFAULT 0,
	coaching_services      TEXT NOT NULL DEFAULT '',
	pricing_visible        INTEGER NOT NULL DEFAULT 0,
	pricing_details        TEXT NOT NULL DEFAULT '',
	tools_detected         TEXT NOT NULL DEFAULT '',
	website_description    TEXT NOT NULL DEFAULT '',
	social_links           TEXT NOT NULL DEFAULT '',
	scraped_at             DATETIME,
	ai_opening_line        TEXT NOT NULL DEFAULT '',
	ai_pain_point          TEXT NOT NULL DEFAULT '',
	ai_estimated_clients   TEXT NOT NULL DEFAULT '',
	ai_confidence_score    INTEGER NOT NULL DEFAULT 0,
	ai_skip_reason         TEXT NOT NULL DEFAULT '',
	enriched_at            DATETIME,
	outreach_status        TEXT NOT NULL DEFAULT 'not_contacted',
	created_at             DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_leads_segment ON leads(segment);
CREATE INDEX IF NOT EXISTS idx_leads_outreach_status ON leads(outreach_status);

CREATE TABLE IF NOT EXISTS instagram_leads (
	id                  INTEGER PRIMARY KEY AUTOINCREMENT,
	instagram_handle    TEXT NOT NULL UNIQUE,
	full_name           TEXT NOT NULL DEFAULT '',
	bio                 TEXT NOT NULL DEFAULT '',
	follower_count      INTEGER NOT NULL DEFAULT 0,
	following_count     INTEGER NOT NULL DEFAULT 0,
	post_count          INTEGER NOT NULL DEFAULT 0,
	website             TEXT NOT NULL DEFAULT '',
	is_business_account INTEGER NOT NULL DEFAULT 0,
	business_category   TEXT NOT NULL DEFAULT '',
	is_verified         INTEGER NOT NULL DEFAULT 0,
	likely_us           INTEGER NOT NULL DEFAULT 0,
	score               INTEGER NOT NULL DEFAULT 0,
	status              TEXT NOT NULL DEFAULT 'new',
	dm_draft            TEXT NOT NULL DEFAULT '',
	engaged_at          DATETIME,
	scraped_at          DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_instagram_leads_score ON instagram_leads(score DESC);

CREATE TABLE IF NOT EXISTS batch_reports (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	batch_id   TEXT NOT NULL UNIQUE,
	report     TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) LoadExistingEmails(ctx context.Context) ([]string, error) {
	return s.loadColumn(ctx, `SELECT email FROM leads`)
}

func (s *SQLiteStore) LoadExistingHandles(ctx context.Context) ([]string, error) {
	return s.loadColumn(ctx, `SELECT instagram_handle FROM instagram_leads`)
}

func (s *SQLiteStore) loadColumn(ctx context.Context, query string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: load column")
	}
	defer rows.Close()

	var values []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan column")
		}
		values = append(values, v)
	}
	return values, eris.Wrap(rows.Err(), "sqlite: load column iterate")
}

func (s *SQLiteStore) UpsertLeads(ctx context.Context, leads []model.Lead) (int, error) {
	if len(leads) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin tx")
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO leads (
			email, first_name, last_name, company_name, website, linkedin,
			job_title, city, state, country, company_size, industry,
			platform, online_status, segment, matched_signals, outreach_status
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (email) DO NOTHING`,
	)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: prepare upsert")
	}
	defer stmt.Close()

	inserted := 0
	for _, l := range leads {
		status := l.OutreachStatus
		if status == "" {
			status = model.OutreachNotContacted
		}
		res, err := stmt.ExecContext(ctx,
			l.DedupKey(), l.FirstName, l.LastName, l.CompanyName, l.Website,
			l.LinkedIn, l.JobTitle, l.City, l.State, l.Country, l.CompanySize,
			l.Industry, l.Platform, string(l.OnlineStatus), string(l.Segment),
			joinSignals(l.MatchedSignals), string(status),
		)
		if err != nil {
			return 0, eris.Wrapf(err, "sqlite: upsert lead %s", l.Email)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			inserted++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: commit upsert")
	}
	return inserted, nil
}

func (s *SQLiteStore) UpsertSocialLeads(ctx context.Context, leads []model.SocialLead) (int, error) {
	if len(leads) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin tx")
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO instagram_leads (
			instagram_handle, full_name, bio, follower_count, following_count,
			post_count, website, is_business_account, business_category,
			is_verified, likely_us, score, status, scraped_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (instagram_handle) DO NOTHING`,
	)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: prepare social upsert")
	}
	defer stmt.Close()

	inserted := 0
	for _, sl := range leads {
		status := sl.Status
		if status == "" {
			status = "new"
		}
		scrapedAt := sl.ScrapedAt
		if scrapedAt.IsZero() {
			scrapedAt = time.Now().UTC()
		}
		res, err := stmt.ExecContext(ctx,
			sl.DedupKey(), sl.FullName, sl.Bio, sl.FollowerCount,
			sl.FollowingCount, sl.PostCount, sl.Website, sl.IsBusinessAccount,
			sl.BusinessCategory, sl.IsVerified, sl.LikelyUS, sl.Score, status,
			scrapedAt,
		)
		if err != nil {
			return 0, eris.Wrapf(err, "sqlite: upsert social lead %s", sl.Handle)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			inserted++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: commit social upsert")
	}
	return inserted, nil
}

func (s *SQLiteStore) ListLeads(ctx context.Context, filter LeadFilter) ([]model.Lead, error) {
	query := `SELECT email, first_name, last_name, company_name, website,
		linkedin, job_title, city, state, country, company_size, industry,
		platform, online_status, segment, matched_signals,
		offers_online_coaching, coaching_services, pricing_visible,
		pricing_details, tools_detected, website_description, social_links,
		scraped_at, ai_opening_line, ai_pain_point, ai_estimated_clients,
		ai_confidence_score, ai_skip_reason, enriched_at, outreach_status
	FROM leads WHERE 1=1`
	args := []any{}

	if filter.Segment != "" {
		query += ` AND segment = ?`
		args = append(args, string(filter.Segment))
	}
	if filter.Status != "" {
		query += ` AND outreach_status = ?`
		args = append(args, string(filter.Status))
	}
	if filter.NeedsScrape {
		query += ` AND website <> '' AND scraped_at IS NULL`
	}
	if filter.NeedsEnrich {
		query += ` AND enriched_at IS NULL`
	}
	if filter.MinConfidence > 0 {
		query += ` AND ai_confidence_score >= ?`
		args = append(args, filter.MinConfidence)
	}
	query += ` ORDER BY id`

	limit := filter.Limit
	if limit <= 0 {
		limit = 1000
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list leads")
	}
	defer rows.Close()

	var leads []model.Lead
	for rows.Next() {
		var l model.Lead
		var signals string
		if err := rows.Scan(
			&l.Email, &l.FirstName, &l.LastName, &l.CompanyName, &l.Website,
			&l.LinkedIn, &l.JobTitle, &l.City, &l.State, &l.Country,
			&l.CompanySize, &l.Industry, &l.Platform, &l.OnlineStatus,
			&l.Segment, &signals, &l.OffersOnlineCoaching,
			&l.CoachingServices, &l.PricingVisible, &l.PricingDetails,
			&l.ToolsDetected, &l.WebsiteDescription, &l.SocialLinks,
			&l.ScrapedAt, &l.OpeningLine, &l.PainPoint, &l.EstimatedClients,
			&l.ConfidenceScore, &l.SkipReason, &l.EnrichedAt,
			&l.OutreachStatus,
		); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan lead")
		}
		l.MatchedSignals = splitSignals(signals)
		leads = append(leads, l)
	}
	return leads, eris.Wrap(rows.Err(), "sqlite: list leads iterate")
}

func (s *SQLiteStore) UpdateScrape(ctx context.Context, email string, lead model.Lead) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE leads SET
			offers_online_coaching = ?, coaching_services = ?,
			pricing_visible = ?, pricing_details = ?, tools_detected = ?,
			website_description = ?, social_links = ?, scraped_at = ?
		 WHERE email = ?`,
		lead.OffersOnlineCoaching, lead.CoachingServices,
		lead.PricingVisible, lead.PricingDetails, lead.ToolsDetected,
		lead.WebsiteDescription, lead.SocialLinks, time.Now().UTC(),
		email,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update scrape %s", email)
	}
	return checkRowsAffected(res, "lead", email)
}

func (s *SQLiteStore) UpdateEnrichment(ctx context.Context, email string, lead model.Lead) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE leads SET
			ai_opening_line = ?, ai_pain_point = ?, ai_estimated_clients = ?,
			ai_confidence_score = ?, ai_skip_reason = ?, enriched_at = ?
		 WHERE email = ?`,
		lead.OpeningLine, lead.PainPoint, lead.EstimatedClients,
		lead.ConfidenceScore, lead.SkipReason, time.Now().UTC(),
		email,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update enrichment %s", email)
	}
	return checkRowsAffected(res, "lead", email)
}

func (s *SQLiteStore) MarkPushed(ctx context.Context, emails []string) (int, error) {
	if len(emails) == 0 {
		return 0, nil
	}

	placeholders := strings.TrimRight(strings.Repeat("?,", len(emails)), ",")
	args := make([]any, 0, len(emails)+1)
	args = append(args, string(model.OutreachPushed))
	for _, e := range emails {
		args = append(args, e)
	}

	res, err := s.db.ExecContext(ctx,
		fmt.Sprintf(`UPDATE leads SET outreach_status = ? WHERE email IN (%s)`, placeholders),
		args...,
	)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: mark pushed")
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

const sqliteSocialColumns = `instagram_handle, full_name, bio, follower_count,
	following_count, post_count, website, is_business_account,
	business_category, is_verified, likely_us, score, status, dm_draft,
	engaged_at, scraped_at`

func (s *SQLiteStore) ListSocialLeads(ctx context.Context, limit int) ([]model.SocialLead, error) {
	if limit <= 0 {
		limit = 1000
	}
	return s.querySocialLeads(ctx,
		`SELECT `+sqliteSocialColumns+` FROM instagram_leads
		 ORDER BY score DESC, follower_count DESC LIMIT ?`,
		limit,
	)
}

func (s *SQLiteStore) ListEngagedSocialLeads(ctx context.Context, engagedBefore time.Time, includeDrafted bool, limit int) ([]model.SocialLead, error) {
	if limit <= 0 {
		limit = 1000
	}
	query := `SELECT ` + sqliteSocialColumns + ` FROM instagram_leads
		 WHERE status = 'engaged' AND engaged_at IS NOT NULL AND engaged_at < ?`
	if !includeDrafted {
		query += ` AND dm_draft = ''`
	}
	query += ` ORDER BY score DESC, follower_count DESC LIMIT ?`
	return s.querySocialLeads(ctx, query, engagedBefore, limit)
}

func (s *SQLiteStore) querySocialLeads(ctx context.Context, query string, args ...any) ([]model.SocialLead, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list social leads")
	}
	defer rows.Close()

	var leads []model.SocialLead
	for rows.Next() {
		var sl model.SocialLead
		if err := rows.Scan(
			&sl.Handle, &sl.FullName, &sl.Bio, &sl.FollowerCount,
			&sl.FollowingCount, &sl.PostCount, &sl.Website,
			&sl.IsBusinessAccount, &sl.BusinessCategory, &sl.IsVerified,
			&sl.LikelyUS, &sl.Score, &sl.Status, &sl.DMDraft,
			&sl.EngagedAt, &sl.ScrapedAt,
		); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan social lead")
		}
		leads = append(leads, sl)
	}
	return leads, eris.Wrap(rows.Err(), "sqlite: list social leads iterate")
}

func (s *SQLiteStore) UpdateSocialDM(ctx context.Context, handle, draft string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE instagram_leads SET dm_draft = ? WHERE instagram_handle = ?`,
		draft, handle,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update dm draft %s", handle)
	}
	return checkRowsAffected(res, "social lead", handle)
}

func (s *SQLiteStore) SaveBatchReport(ctx context.Context, report *model.BatchReport) error {
	reportJSON, err := json.Marshal(report)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal report")
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO batch_reports (batch_id, report, created_at) VALUES (?, ?, ?)
		 ON CONFLICT (batch_id) DO UPDATE SET report = excluded.report`,
		report.BatchID, string(reportJSON), time.Now().UTC(),
	)
	return eris.Wrap(err, "sqlite: save batch report")
}

func (s *SQLiteStore) ListBatchReports(ctx context.Context, limit int) ([]model.BatchReport, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT report FROM batch_reports ORDER BY created_at DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list batch reports")
	}
	defer rows.Close()

	var reports []model.BatchReport
	for rows.Next() {
		var reportJSON string
		if err := rows.Scan(&reportJSON); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan batch report")
		}
		var r model.BatchReport
		if err := json.Unmarshal([]byte(reportJSON), &r); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal batch report")
		}
		reports = append(reports, r)
	}
	return reports, eris.Wrap(rows.Err(), "sqlite: list batch reports iterate")
}

func (s *SQLiteStore) CountsBySegment(ctx context.Context) (map[model.Segment]int, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT segment, COUNT(*) FROM leads GROUP BY segment`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: counts by segment")
	}
	defer rows.Close()

	counts := make(map[model.Segment]int)
	for rows.Next() {
		var segment string
		var n int
		if err := rows.Scan(&segment, &n); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan segment count")
		}
		counts[model.Segment(segment)] = n
	}
	return counts, eris.Wrap(rows.Err(), "sqlite: counts by segment iterate")
}

func (s *SQLiteStore) CountsByStatus(ctx context.Context) (map[model.OutreachStatus]int, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT outreach_status, COUNT(*) FROM leads GROUP BY outreach_status`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: counts by status")
	}
	defer rows.Close()

	counts := make(map[model.OutreachStatus]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan status count")
		}
		counts[model.OutreachStatus(status)] = n
	}
	return counts, eris.Wrap(rows.Err(), "sqlite: counts by status iterate")
}

func checkRowsAffected(res sql.Result, kind, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrapf(err, "sqlite: rows affected for %s %s", kind, id)
	}
	if n == 0 {
		return eris.Errorf("%s not found: %s", kind, id)
	}
	return nil
}
