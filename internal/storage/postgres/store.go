package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"tweetvault/internal/model"
)

// Store is the optional Postgres archive of processed content records. It
// backs the query surface; the pipeline treats archive writes as
// best-effort since the local store is the durability boundary.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// UpsertRecord inserts or replaces the archive row for a content hash.
func (s *Store) UpsertRecord(ctx context.Context, record model.ContentRecord) error {
	price := 0.0
	priceSource := ""
	if record.Price != nil {
		price = record.Price.Price
		priceSource = record.Price.Source
	}
	contentID := ""
	rootID := ""
	dealID := ""
	if record.Storage != nil {
		contentID = record.Storage.ContentID
		rootID = record.Storage.RootID
		dealID = record.Storage.DealID
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO content_records (
			content_hash, tweet_url, tweet_id, author, handle, verified,
			content, likes, retweets, replies,
			removal_risk, controversy, combined_score, token, token_confidence,
			price, price_source, content_cid, root_cid, deal_id,
			registry_tx, block_number, tx_hash, depositor,
			processed_at, created_at, updated_at
		) VALUES (
			$1,$2,$3,$4,$5,$6,$7,$8,$9,$10,
			$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,
			$21,$22,$23,$24,$25, now(), now()
		)
		ON CONFLICT (content_hash)
		DO UPDATE SET
			removal_risk = EXCLUDED.removal_risk,
			controversy = EXCLUDED.controversy,
			combined_score = EXCLUDED.combined_score,
			token = EXCLUDED.token,
			token_confidence = EXCLUDED.token_confidence,
			price = EXCLUDED.price,
			price_source = EXCLUDED.price_source,
			content_cid = EXCLUDED.content_cid,
			root_cid = EXCLUDED.root_cid,
			deal_id = EXCLUDED.deal_id,
			registry_tx = EXCLUDED.registry_tx,
			processed_at = EXCLUDED.processed_at,
			updated_at = now()
	`,
		record.ContentHash,
		record.Tweet.URL,
		record.Tweet.TweetID,
		record.Tweet.User,
		record.Tweet.Handle,
		record.Tweet.Verified,
		record.Tweet.Content,
		int64(record.Tweet.Likes),
		int64(record.Tweet.Retweets),
		int64(record.Tweet.Replies),
		record.Analysis.RemovalRisk,
		record.Analysis.Controversy,
		record.Analysis.CombinedScore,
		record.Analysis.Token,
		record.Analysis.Confidence,
		price,
		priceSource,
		contentID,
		rootID,
		dealID,
		record.RegistryTx,
		int64(record.Event.BlockNumber),
		record.Event.TxHash,
		record.Event.Depositor,
		record.ProcessedAt,
	)
	return err
}

// Count returns the number of archived records.
func (s *Store) Count(ctx context.Context) (int64, error) {
	var count int64
	err := s.pool.QueryRow(ctx, `SELECT count(*) FROM content_records`).Scan(&count)
	return count, err
}

// Summary is one archive row as shown by the query surface.
type Summary struct {
	ContentHash   string
	TweetURL      string
	Handle        string
	Token         string
	CombinedScore float64
	ContentCID    string
	ProcessedAt   string
}

// ByToken returns archived records for one ecosystem token, newest first.
func (s *Store) ByToken(ctx context.Context, token string, limit int) ([]Summary, error) {
	return s.summaries(ctx, `
		SELECT content_hash, tweet_url, handle, token, combined_score, content_cid, processed_at
		FROM content_records WHERE token = $1
		ORDER BY processed_at DESC LIMIT $2
	`, token, limit)
}

// ByHandle returns archived records for one author handle, newest first.
func (s *Store) ByHandle(ctx context.Context, handle string, limit int) ([]Summary, error) {
	return s.summaries(ctx, `
		SELECT content_hash, tweet_url, handle, token, combined_score, content_cid, processed_at
		FROM content_records WHERE handle = $1
		ORDER BY processed_at DESC LIMIT $2
	`, handle, limit)
}

func (s *Store) summaries(ctx context.Context, sql string, args ...any) ([]Summary, error) {
	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var item Summary
		if err := rows.Scan(
			&item.ContentHash, &item.TweetURL, &item.Handle,
			&item.Token, &item.CombinedScore, &item.ContentCID, &item.ProcessedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, rows.Err()
}
