package outbox

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	sharedPersistence "github.com/felixgeelhaar/groomly/internal/shared/infrastructure/persistence"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

var messageColumns = []string{
	"id", "event_id", "aggregate_type", "aggregate_id", "event_type", "routing_key",
	"payload", "metadata", "created_at", "published_at", "next_retry_at", "retry_count",
	"last_error", "dead_lettered_at", "dead_letter_reason",
}

// pendingFilter matches messages that still need publishing.
var pendingFilter = sq.And{
	sq.Eq{"published_at": nil},
	sq.Eq{"dead_lettered_at": nil},
}

// PostgresRepository implements Repository using PostgreSQL.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL outbox repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// SaveBatch inserts msgs, inside the caller's transaction when there is one.
func (r *PostgresRepository) SaveBatch(ctx context.Context, msgs []*Message) error {
	if len(msgs) == 0 {
		return nil
	}

	if _, ok := sharedPersistence.TxInfoFromContext(ctx); ok {
		return r.insert(ctx, sharedPersistence.Executor(ctx, r.pool), msgs)
	}

	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		return r.insert(ctx, tx, msgs)
	})
}

func (r *PostgresRepository) insert(ctx context.Context, exec sharedPersistence.DBExecutor, msgs []*Message) error {
	for _, msg := range msgs {
		query, args, err := psql.Insert("outbox").
			Columns("event_id", "aggregate_type", "aggregate_id", "event_type", "routing_key",
				"payload", "metadata", "created_at").
			Values(msg.EventID, msg.AggregateType, msg.AggregateID, msg.EventType, msg.RoutingKey,
				msg.Payload, msg.Metadata, msg.CreatedAt).
			Suffix("RETURNING id").
			ToSql()
		if err != nil {
			return fmt.Errorf("build outbox insert: %w", err)
		}
		if err := exec.QueryRow(ctx, query, args...).Scan(&msg.ID); err != nil {
			return fmt.Errorf("insert outbox message %s: %w", msg.EventID, err)
		}
	}
	return nil
}

// GetUnpublished returns pending messages whose retry time has come, oldest first.
func (r *PostgresRepository) GetUnpublished(ctx context.Context, limit int) ([]*Message, error) {
	query, args, err := psql.Select(messageColumns...).
		From("outbox").
		Where(pendingFilter).
		Where(sq.Or{sq.Eq{"next_retry_at": nil}, sq.Expr("next_retry_at <= NOW()")}).
		OrderBy("created_at", "id").
		Limit(uint64(max(limit, 0))).
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanPostgresMessages(rows)
}

// MarkPublished marks a message as successfully published.
func (r *PostgresRepository) MarkPublished(ctx context.Context, id int64) error {
	return r.update(ctx, psql.Update("outbox").
		Set("published_at", sq.Expr("NOW()")).
		Where(sq.Eq{"id": id}))
}

// MarkFailed records a failed attempt and when to try again.
func (r *PostgresRepository) MarkFailed(ctx context.Context, id int64, errMsg string, nextRetryAt time.Time) error {
	return r.update(ctx, psql.Update("outbox").
		Set("retry_count", sq.Expr("retry_count + 1")).
		Set("last_error", errMsg).
		Set("next_retry_at", nextRetryAt).
		Where(sq.Eq{"id": id}))
}

// MarkDead moves a message to the dead-letter state.
func (r *PostgresRepository) MarkDead(ctx context.Context, id int64, reason string) error {
	return r.update(ctx, psql.Update("outbox").
		Set("retry_count", sq.Expr("retry_count + 1")).
		Set("dead_lettered_at", sq.Expr("NOW()")).
		Set("dead_letter_reason", reason).
		Where(sq.Eq{"id": id}))
}

// CountPending returns the number of messages awaiting publication.
func (r *PostgresRepository) CountPending(ctx context.Context) (int64, error) {
	query, args, err := psql.Select("COUNT(*)").From("outbox").Where(pendingFilter).ToSql()
	if err != nil {
		return 0, err
	}
	var n int64
	err = r.pool.QueryRow(ctx, query, args...).Scan(&n)
	return n, err
}

// DeleteOld removes published messages older than the retention period.
func (r *PostgresRepository) DeleteOld(ctx context.Context, olderThan time.Duration) (int64, error) {
	query, args, err := psql.Delete("outbox").
		Where(sq.NotEq{"published_at": nil}).
		Where(sq.Lt{"published_at": time.Now().Add(-olderThan)}).
		ToSql()
	if err != nil {
		return 0, err
	}
	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *PostgresRepository) update(ctx context.Context, b sq.UpdateBuilder) error {
	query, args, err := b.ToSql()
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx, query, args...)
	return err
}

func scanPostgresMessages(rows pgx.Rows) ([]*Message, error) {
	var messages []*Message
	for rows.Next() {
		var msg Message
		if err := rows.Scan(
			&msg.ID,
			&msg.EventID,
			&msg.AggregateType,
			&msg.AggregateID,
			&msg.EventType,
			&msg.RoutingKey,
			&msg.Payload,
			&msg.Metadata,
			&msg.CreatedAt,
			&msg.PublishedAt,
			&msg.NextRetryAt,
			&msg.RetryCount,
			&msg.LastError,
			&msg.DeadLetteredAt,
			&msg.DeadLetterReason,
		); err != nil {
			return nil, err
		}
		messages = append(messages, &msg)
	}
	return messages, rows.Err()
}
