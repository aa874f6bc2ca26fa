package repository

import (
	"context"
	"fmt"
	"math"
	"time"

	"wishshare/database"
	"wishshare/models"
)

// ParseEventRepository persists the extraction audit log
type ParseEventRepository struct{}

func NewParseEventRepository() *ParseEventRepository {
	return &ParseEventRepository{}
}

// RecordParse appends one extraction outcome
func (r *ParseEventRepository) RecordParse(ctx context.Context, event *models.ParseEvent) error {
	query := `
		INSERT INTO parse_events (url, host, strategy, success, has_title, has_price, has_image, duration_ms, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at
	`

	err := database.DB.QueryRowContext(ctx, query,
		event.URL, event.Host, event.Strategy, event.Success,
		event.HasTitle, event.HasPrice, event.HasImage, event.DurationMS, time.Now(),
	).Scan(&event.ID, &event.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to record parse event: %w", err)
	}

	return nil
}

// Summary aggregates events created since the given time
func (r *ParseEventRepository) Summary(ctx context.Context, since time.Time) (*models.ParseEventSummary, error) {
	query := `
		SELECT strategy, COUNT(*), COUNT(*) FILTER (WHERE success)
		FROM parse_events
		WHERE created_at >= $1
		GROUP BY strategy
	`

	rows, err := database.DB.QueryContext(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("failed to summarize parse events: %w", err)
	}
	defer rows.Close()

	var counts []strategyCount
	for rows.Next() {
		var c strategyCount
		if err := rows.Scan(&c.strategy, &c.total, &c.successful); err != nil {
			return nil, fmt.Errorf("failed to scan parse event summary: %w", err)
		}
		counts = append(counts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read parse event summary: %w", err)
	}

	return summarize(counts), nil
}

// PruneOlderThan deletes events older than maxAge and returns how many went
func (r *ParseEventRepository) PruneOlderThan(ctx context.Context, maxAge time.Duration) (int64, error) {
	result, err := database.DB.ExecContext(ctx,
		`DELETE FROM parse_events WHERE created_at < $1`, time.Now().Add(-maxAge))
	if err != nil {
		return 0, fmt.Errorf("failed to prune parse events: %w", err)
	}
	return result.RowsAffected()
}

type strategyCount struct {
	strategy   string
	total      int
	successful int
}

func summarize(counts []strategyCount) *models.ParseEventSummary {
	summary := &models.ParseEventSummary{ByStrategy: make(map[string]int)}
	for _, c := range counts {
		summary.Total += c.total
		summary.Successful += c.successful
		summary.ByStrategy[c.strategy] = c.total
	}
	if summary.Total > 0 {
		summary.SuccessRate = math.Round(float64(summary.Successful)/float64(summary.Total)*10000) / 100
	}
	return summary
}
