// Package redisboard keeps the reporter leaderboard in a Redis sorted set so
// the top-N view survives restarts and is shared across instances.
package redisboard

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/oceanwatch/hazard-report-service/internal/domain"
)

const defaultKey = "hazard:leaderboard"

// Leaderboard implements service.Leaderboard on a Redis ZSET keyed by user id
// with the user's absolute point total as score.
type Leaderboard struct {
	client *redis.Client
	key    string
}

// New creates a leaderboard against the given Redis address.
func New(addr string) *Leaderboard {
	return &Leaderboard{
		client: redis.NewClient(&redis.Options{Addr: addr}),
		key:    defaultKey,
	}
}

// Ping verifies the Redis connection.
func (l *Leaderboard) Ping(ctx context.Context) error {
	return l.client.Ping(ctx).Err()
}

// Close releases the client's connections.
func (l *Leaderboard) Close() error {
	return l.client.Close()
}

// Record sets a user's point total. ZADD overwrites the previous score, so
// replays are harmless.
func (l *Leaderboard) Record(ctx context.Context, userID string, points int) error {
	err := l.client.ZAdd(ctx, l.key, redis.Z{Score: float64(points), Member: userID}).Err()
	if err != nil {
		return fmt.Errorf("leaderboard zadd %s: %w", userID, err)
	}
	return nil
}

// Top returns the n highest point totals, highest first.
func (l *Leaderboard) Top(ctx context.Context, n int) ([]domain.LeaderboardEntry, error) {
	rows, err := l.client.ZRevRangeWithScores(ctx, l.key, 0, int64(n-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("leaderboard zrevrange: %w", err)
	}

	entries := make([]domain.LeaderboardEntry, 0, len(rows))
	for _, row := range rows {
		user, ok := row.Member.(string)
		if !ok {
			continue
		}
		entries = append(entries, domain.LeaderboardEntry{UserID: user, Points: int(row.Score)})
	}
	return entries, nil
}
