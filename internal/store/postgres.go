package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/fitcore/leadgen-cli/internal/db"
	"github.com/fitcore/leadgen-cli/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// preparedStatements lists queries to prepare on each new connection for
// faster execution of the most frequently used store operations.
var preparedStatements = map[string]string{
	"load_emails":  `SELECT email FROM leads`,
	"load_handles": `SELECT instagram_handle FROM instagram_leads`,
	"mark_pushed":  `UPDATE leads SET outreach_status = $1 WHERE email = ANY($2)`,
	"save_report":  `INSERT INTO batch_reports (batch_id, report, created_at) VALUES ($1, $2, $3)`,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// NewPostgresWithPool wraps an existing pool, used by tests with pgxmock.
func NewPostgresWithPool(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS leads (
	id                     BIGSERIAL PRIMARY KEY,
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
	offers_online_coaching BOOLEAN NOT NULL DEFAULT false,
	coaching_services      TEXT NOT NULL DEFAULT '',
	pricing_visible        BOOLEAN NOT NULL DEFAULT false,
	pricing_details        TEXT NOT NULL DEFAULT '',
	tools_detected         TEXT NOT NULL DEFAULT '',
	website_description    TEXT NOT NULL DEFAULT '',
	social_links           TEXT NOT NULL DEFAULT '',
	scraped_at             TIMESTAMPTZ,
	ai_opening_line        TEXT NOT NULL DEFAULT '',
	ai_pain_point          TEXT NOT NULL DEFAULT '',
	ai_estimated_clients   TEXT NOT NULL DEFAULT '',
	ai_confidence_score    INTEGER NOT NULL DEFAULT 0,
	ai_skip_reason         TEXT NOT NULL DEFAULT '',
	enriched_at            TIMESTAMPTZ,
	outreach_status        TEXT NOT NULL DEFAULT 'not_contacted',
	created_at             TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_leads_segment ON leads(segment);
CREATE INDEX IF NOT EXISTS idx_leads_outreach_status ON leads(outreach_status);
CREATE INDEX IF NOT EXISTS idx_leads_scraped_at ON leads(scraped_at);
CREATE INDEX IF NOT EXISTS idx_leads_enriched_at ON leads(enriched_at);

CREATE TABLE IF NOT EXISTS instagram_leads (
	id                  BIGSERIAL PRIMARY KEY,
	instagram_handle    TEXT NOT NULL UNIQUE,
	full_name           TEXT NOT NULL DEFAULT '',
	bio                 TEXT NOT NULL DEFAULT '',
	follower_count      INTEGER NOT NULL DEFAULT 0,
	following_count     INTEGER NOT NULL DEFAULT 0,
	post_count          INTEGER NOT NULL DEFAULT 0,
	website             TEXT NOT NULL DEFAULT '',
	is_business_account BOOLEAN NOT NULL DEFAULT false,
	business_category   TEXT NOT NULL DEFAULT '',
	is_verified         BOOLEAN NOT NULL DEFAULT false,
	likely_us           BOOLEAN NOT NULL DEFAULT false,
	score               INTEGER NOT NULL DEFAULT 0,
	status              TEXT NOT NULL DEFAULT 'new',
	dm_draft            TEXT NOT NULL DEFAULT '',
	engaged_at          TIMESTAMPTZ,
	scraped_at          TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_instagram_leads_score ON instagram_leads(score DESC);

CREATE TABLE IF NOT EXISTS batch_reports (
	id         BIGSERIAL PRIMARY KEY,
	batch_id   TEXT NOT NULL UNIQUE,
	report     JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_batch_reports_created_at ON batch_reports(created_at DESC);
`

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

var leadUpsertColumns = []string{
	"email", "first_name", "last_name", "company_name", "website",
	"linkedin", "job_title", "city", "state", "country", "company_size",
	"industry", "platform", "online_status", "segment", "matched_signals",
	"outreach_status",
}

func (s *PostgresStore) LoadExistingEmails(ctx context.Context) ([]string, error) {
	return s.loadColumn(ctx, `SELECT email FROM leads`)
}

func (s *PostgresStore) LoadExistingHandles(ctx context.Context) ([]string, error) {
	return s.loadColumn(ctx, `SELECT instagram_handle FROM instagram_leads`)
}

func (s *PostgresStore) loadColumn(ctx context.Context, query string) ([]string, error) {
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: load column")
	}
	defer rows.Close()

	var values []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, eris.Wrap(err, "postgres: scan column")
		}
		values = append(values, v)
	}
	return values, eris.Wrap(rows.Err(), "postgres: load column iterate")
}

// UpsertLeads inserts new leads and leaves existing rows untouched.
// Duplicates hitting the unique email constraint simply do not count
// toward the insert total.
func (s *PostgresStore) UpsertLeads(ctx context.Context, leads []model.Lead) (int, error) {
	if len(leads) == 0 {
		return 0, nil
	}

	rows := make([][]any, 0, len(leads))
	for _, l := range leads {
		status := l.OutreachStatus
		if status == "" {
			status = model.OutreachNotContacted
		}
		rows = append(rows, []any{
			l.DedupKey(), l.FirstName, l.LastName, l.CompanyName, l.Website,
			l.LinkedIn, l.JobTitle, l.City, l.State, l.Country, l.CompanySize,
			l.Industry, l.Platform, string(l.OnlineStatus), string(l.Segment),
			joinSignals(l.MatchedSignals), string(status),
		})
	}

	n, err := db.BulkUpsert(ctx, s.pool, db.UpsertConfig{
		Table:           "leads",
		Columns:         leadUpsertColumns,
		ConflictKeys:    []string{"email"},
		IgnoreConflicts: true,
	}, rows)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: upsert leads")
	}
	return int(n), nil
}

var socialUpsertColumns = []string{
	"instagram_handle", "full_name", "bio", "follower_count",
	"following_count", "post_count", "website", "is_business_account",
	"business_category", "is_verified", "likely_us", "score", "status",
	"scraped_at",
}

func (s *PostgresStore) UpsertSocialLeads(ctx context.Context, leads []model.SocialLead) (int, error) {
	if len(leads) == 0 {
		return 0, nil
	}

	rows := make([][]any, 0, len(leads))
	for _, sl := range leads {
		status := sl.Status
		if status == "" {
			status = "new"
		}
		scrapedAt := sl.ScrapedAt
		if scrapedAt.IsZero() {
			scrapedAt = time.Now().UTC()
		}
		rows = append(rows, []any{
			sl.DedupKey(), sl.FullName, sl.Bio, sl.FollowerCount,
			sl.FollowingCount, sl.PostCount, sl.Website, sl.IsBusinessAccount,
			sl.BusinessCategory, sl.IsVerified, sl.LikelyUS, sl.Score, status,
			scrapedAt,
		})
	}

	n, err := db.BulkUpsert(ctx, s.pool, db.UpsertConfig{
		Table:           "instagram_leads",
		Columns:         socialUpsertColumns,
		ConflictKeys:    []string{"instagram_handle"},
		IgnoreConflicts: true,
	}, rows)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: upsert social leads")
	}
	return int(n), nil
}

const leadSelectColumns = `email, first_name, last_name, company_name, website,
	linkedin, job_title, city, state, country, company_size, industry,
	platform, online_status, segment, matched_signals, offers_online_coaching,
	coaching_services, pricing_visible, pricing_details, tools_detected,
	website_description, social_links, scraped_at, ai_opening_line,
	ai_pain_point, ai_estimated_clients, ai_confidence_score,
	ai_skip_reason, enriched_at, outreach_status`

func (s *PostgresStore) ListLeads(ctx context.Context, filter LeadFilter) ([]model.Lead, error) {
	query := `SELECT ` + leadSelectColumns + ` FROM leads WHERE true`
	args := []any{}
	argIdx := 1

	if filter.Segment != "" {
		query += fmt.Sprintf(` AND segment = $%d`, argIdx)
		args = append(args, string(filter.Segment))
		argIdx++
	}
	if filter.Status != "" {
		query += fmt.Sprintf(` AND outreach_status = $%d`, argIdx)
		args = append(args, string(filter.Status))
		argIdx++
	}
	if filter.NeedsScrape {
		query += ` AND website <> '' AND scraped_at IS NULL`
	}
	if filter.NeedsEnrich {
		query += ` AND enriched_at IS NULL`
	}
	if filter.MinConfidence > 0 {
		query += fmt.Sprintf(` AND ai_confidence_score >= $%d`, argIdx)
		args = append(args, filter.MinConfidence)
		argIdx++
	}
	query += ` ORDER BY id`

	limit := filter.Limit
	if limit <= 0 {
		limit = 1000
	}
	query += fmt.Sprintf(` LIMIT $%d`, argIdx)
	args = append(args, limit)
	argIdx++

	if filter.Offset > 0 {
		query += fmt.Sprintf(` OFFSET $%d`, argIdx)
		args = append(args, filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list leads")
	}
	defer rows.Close()

	var leads []model.Lead
	for rows.Next() {
		l, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		leads = append(leads, l)
	}
	return leads, eris.Wrap(rows.Err(), "postgres: list leads iterate")
}

func scanLead(rows pgx.Rows) (model.Lead, error) {
	var l model.Lead
	var signals string
	if err := rows.Scan(
		&l.Email, &l.FirstName, &l.LastName, &l.CompanyName, &l.Website,
		&l.LinkedIn, &l.JobTitle, &l.City, &l.State, &l.Country,
		&l.CompanySize, &l.Industry, &l.Platform, &l.OnlineStatus,
		&l.Segment, &signals, &l.OffersOnlineCoaching, &l.CoachingServices,
		&l.PricingVisible, &l.PricingDetails, &l.ToolsDetected,
		&l.WebsiteDescription, &l.SocialLinks, &l.ScrapedAt,
		&l.OpeningLine, &l.PainPoint, &l.EstimatedClients,
		&l.ConfidenceScore, &l.SkipReason, &l.EnrichedAt, &l.OutreachStatus,
	); err != nil {
		return model.Lead{}, eris.Wrap(err, "postgres: scan lead")
	}
	l.MatchedSignals = splitSignals(signals)
	return l, nil
}

// UpdateScrape writes scrape findings onto an existing lead. Identity
// and qualification fields are never touched here.
func (s *PostgresStore) UpdateScrape(ctx context.Context, email string, lead model.Lead) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE leads SET
			offers_online_coaching = $1, coaching_services = $2,
			pricing_visible = $3, pricing_details = $4, tools_detected = $5,
			website_description = $6, social_links = $7, scraped_at = $8
		 WHERE email = $9`,
		lead.OffersOnlineCoaching, lead.CoachingServices,
		lead.PricingVisible, lead.PricingDetails, lead.ToolsDetected,
		lead.WebsiteDescription, lead.SocialLinks, time.Now().UTC(),
		email,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update scrape %s", email)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("lead not found: %s", email)
	}
	return nil
}

// UpdateEnrichment writes generated microcopy onto an existing lead.
func (s *PostgresStore) UpdateEnrichment(ctx context.Context, email string, lead model.Lead) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE leads SET
			ai_opening_line = $1, ai_pain_point = $2,
			ai_estimated_clients = $3, ai_confidence_score = $4,
			ai_skip_reason = $5, enriched_at = $6
		 WHERE email = $7`,
		lead.OpeningLine, lead.PainPoint, lead.EstimatedClients,
		lead.ConfidenceScore, lead.SkipReason, time.Now().UTC(),
		email,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update enrichment %s", email)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("lead not found: %s", email)
	}
	return nil
}

func (s *PostgresStore) MarkPushed(ctx context.Context, emails []string) (int, error) {
	if len(emails) == 0 {
		return 0, nil
	}
	tag, err := s.pool.Exec(ctx,
		`UPDATE leads SET outreach_status = $1 WHERE email = ANY($2)`,
		string(model.OutreachPushed), emails,
	)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: mark pushed")
	}
	return int(tag.RowsAffected()), nil
}

const socialSelectColumns = `instagram_handle, full_name, bio, follower_count,
	following_count, post_count, website, is_business_account,
	business_category, is_verified, likely_us, score, status, dm_draft,
	engaged_at, scraped_at`

func (s *PostgresStore) ListSocialLeads(ctx context.Context, limit int) ([]model.SocialLead, error) {
	if limit <= 0 {
		limit = 1000
	}
	return s.querySocialLeads(ctx,
		`SELECT `+socialSelectColumns+` FROM instagram_leads
		 ORDER BY score DESC, follower_count DESC LIMIT $1`,
		limit,
	)
}

func (s *PostgresStore) ListEngagedSocialLeads(ctx context.Context, engagedBefore time.Time, includeDrafted bool, limit int) ([]model.SocialLead, error) {
	if limit <= 0 {
		limit = 1000
	}
	query := `SELECT ` + socialSelectColumns + ` FROM instagram_leads
		 WHERE status = 'engaged' AND engaged_at IS NOT NULL AND engaged_at < $1`
	if !includeDrafted {
		query += ` AND dm_draft = ''`
	}
	query += ` ORDER BY score DESC, follower_count DESC LIMIT $2`
	return s.querySocialLeads(ctx, query, engagedBefore, limit)
}

func (s *PostgresStore) querySocialLeads(ctx context.Context, query string, args ...any) ([]model.SocialLead, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list social leads")
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
			return nil, eris.Wrap(err, "postgres: scan social lead")
		}
		leads = append(leads, sl)
	}
	return leads, eris.Wrap(rows.Err(), "postgres: list social leads iterate")
}

// UpdateSocialDM stores a generated DM opener on an engaged lead.
func (s *PostgresStore) UpdateSocialDM(ctx context.Context, handle, draft string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE instagram_leads SET dm_draft = $1 WHERE instagram_handle = $2`,
		draft, handle,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update dm draft %s", handle)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("social lead not found: %s", handle)
	}
	return nil
}

func (s *PostgresStore) SaveBatchReport(ctx context.Context, report *model.BatchReport) error {
	reportJSON, err := json.Marshal(report)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal report")
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO batch_reports (batch_id, report, created_at) VALUES ($1, $2, $3)
		 ON CONFLICT (batch_id) DO UPDATE SET report = $2`,
		report.BatchID, reportJSON, time.Now().UTC(),
	)
	return eris.Wrap(err, "postgres: save batch report")
}

func (s *PostgresStore) ListBatchReports(ctx context.Context, limit int) ([]model.BatchReport, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.pool.Query(ctx,
		`SELECT report FROM batch_reports ORDER BY created_at DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list batch reports")
	}
	defer rows.Close()

	var reports []model.BatchReport
	for rows.Next() {
		var reportJSON []byte
		if err := rows.Scan(&reportJSON); err != nil {
			return nil, eris.Wrap(err, "postgres: scan batch report")
		}
		var r model.BatchReport
		if err := json.Unmarshal(reportJSON, &r); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal batch report")
		}
		reports = append(reports, r)
	}
	return reports, eris.Wrap(rows.Err(), "postgres: list batch reports iterate")
}

func (s *PostgresStore) CountsBySegment(ctx context.Context) (map[model.Segment]int, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT segment, COUNT(*) FROM leads GROUP BY segment`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: counts by segment")
	}
	defer rows.Close()

	counts := make(map[model.Segment]int)
	for rows.Next() {
		var segment string
		var n int
		if err := rows.Scan(&segment, &n); err != nil {
			return nil, eris.Wrap(err, "postgres: scan segment count")
		}
		counts[model.Segment(segment)] = n
	}
	return counts, eris.Wrap(rows.Err(), "postgres: counts by segment iterate")
}

func (s *PostgresStore) CountsByStatus(ctx context.Context) (map[model.OutreachStatus]int, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT outreach_status, COUNT(*) FROM leads GROUP BY outreach_status`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: counts by status")
	}
	defer rows.Close()

	counts := make(map[model.OutreachStatus]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, eris.Wrap(err, "postgres: scan status count")
		}
		counts[model.OutreachStatus(status)] = n
	}
	return counts, eris.Wrap(rows.Err(), "postgres: counts by status iterate")
}
