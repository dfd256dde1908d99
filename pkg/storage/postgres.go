package storage

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"github.com/iWorld-y/compliance_radar/pkg/config"
	"github.com/iWorld-y/compliance_radar/pkg/model"
)

// Storage 审计历史的 Postgres 存储
type Storage struct {
	db *sql.DB
}

// RunSummary 一次审计运行的列表摘要
type RunSummary struct {
	ID           int       `json:"id"`
	CreatedAt    time.Time `json:"created_at"`
	TotalPages   int       `json:"total_pages"`
	AverageScore float64   `json:"average_score"`
	PagesPassed  int       `json:"pages_passed"`
	PagesFailed  int       `json:"pages_failed"`
	TotalIssues  int       `json:"total_issues"`
}

// NewStorage 建立数据库连接并初始化表结构
func NewStorage(cfg config.DBConfig) (*Storage, error) {
	connStr := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Name)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &Storage{db: db}
	if err := s.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return s, nil
}

func (s *Storage) Close() error {
	return s.db.Close()
}

func (s *Storage) initSchema() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS audit_runs (
			id SERIAL PRIMARY KEY,
			total_pages INTEGER NOT NULL,
			average_score DOUBLE PRECISION NOT NULL,
			pages_passed INTEGER NOT NULL,
			pages_failed INTEGER NOT NULL,
			total_issues INTEGER NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS page_results (
			id SERIAL PRIMARY KEY,
			run_id INTEGER REFERENCES audit_runs(id),
			page_path TEXT NOT NULL,
			page_title TEXT,
			overall_score DOUBLE PRECISION NOT NULL,
			grade TEXT NOT NULL,
			total_issues INTEGER,
			high_priority_issues INTEGER,
			medium_priority_issues INTEGER,
			low_priority_issues INTEGER,
			checked_at TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS check_findings (
			id SERIAL PRIMARY KEY,
			page_result_id INTEGER REFERENCES page_results(id),
			category TEXT NOT NULL,
			check_id TEXT NOT NULL,
			check_name TEXT,
			passed BOOLEAN NOT NULL,
			score DOUBLE PRECISION,
			severity TEXT,
			issues TEXT,
			recommendations TEXT
		)`,
	}

	for _, query := range queries {
		if _, err := s.db.Exec(query); err != nil {
			return fmt.Errorf("failed to execute query %s: %w", query, err)
		}
	}

	return nil
}

// SaveRun 以单个事务保存一批页面结果及其汇总，返回运行 ID
func (s *Storage) SaveRun(results []*model.ComplianceResult, summary model.Summary) (int, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	var runID int
	err = tx.QueryRow(`
		INSERT INTO audit_runs (total_pages, average_score, pages_passed, pages_failed, total_issues)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`,
		summary.TotalPages, summary.AverageScore, summary.PagesPassed,
		summary.PagesFailed, summary.TotalIssues).Scan(&runID)
	if err != nil {
		return 0, fmt.Errorf("failed to insert audit run: %w", err)
	}

	for _, res := range results {
		var pageID int
		err = tx.QueryRow(`
			INSERT INTO page_results (run_id, page_path, page_title, overall_score, grade,
				total_issues, high_priority_issues, medium_priority_issues, low_priority_issues, checked_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			RETURNING id`,
			runID, res.PagePath, sanitizeText(res.PageTitle), res.OverallScore, res.Grade,
			res.TotalIssues, res.HighPriorityIssues, res.MediumPriorityIssues,
			res.LowPriorityIssues, res.CheckedAt).Scan(&pageID)
		if err != nil {
			return 0, fmt.Errorf("failed to insert page result: %w", err)
		}

		for _, cat := range res.Categories {
			for _, ck := range cat.Checks {
				_, err = tx.Exec(`
					INSERT INTO check_findings (page_result_id, category, check_id, check_name,
						passed, score, severity, issues, recommendations)
					VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
					pageID, cat.Category, ck.ID, ck.Name, ck.Passed, ck.Score,
					string(ck.Severity),
					sanitizeText(strings.Join(ck.Issues, "\n")),
					sanitizeText(strings.Join(ck.Recommendations, "\n")))
				if err != nil {
					return 0, fmt.Errorf("failed to insert check finding: %w", err)
				}
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return runID, nil
}

// ListRuns 按创建时间倒序列出最近的审计运行
func (s *Storage) ListRuns(limit int) ([]RunSummary, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.Query(`
		SELECT id, created_at, total_pages, average_score, pages_passed, pages_failed, total_issues
		FROM audit_runs
		ORDER BY created_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit runs: %w", err)
	}
	defer rows.Close()

	var runs []RunSummary
	for rows.Next() {
		var r RunSummary
		if err := rows.Scan(&r.ID, &r.CreatedAt, &r.TotalPages, &r.AverageScore,
			&r.PagesPassed, &r.PagesFailed, &r.TotalIssues); err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// sanitizeText PostgreSQL 文本字段不支持 NULL 字节，统一移除
func sanitizeText(s string) string {
	return strings.ReplaceAll(s, "\x00", "")
}
