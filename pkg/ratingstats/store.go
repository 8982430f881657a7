package ratingstats

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"opaque/pkg/metrics"
)

const (
	SnapshotKey = "reviews:stats:ratings"
	// AsOfKey - момент (unix микросекунды), на который снапшот посчитан по БД
	AsOfKey   = "reviews:stats:ratings:as_of"
	keyPrefix = "reviews:stats"
)

// ApplyResult - исход применения дельты события к снапшоту
type ApplyResult int

const (
	// SnapshotMissing: снапшота нет, дельта не применена
	SnapshotMissing ApplyResult = iota
	DeltaApplied
	// DeltaStale: событие произошло до пересчета, пересчет его уже учел
	DeltaStale
)

func (r ApplyResult) String() string {
	switch r {
	case SnapshotMissing:
		return "missing"
	case DeltaApplied:
		return "applied"
	case DeltaStale:
		return "stale"
	default:
		return "unknown"
	}
}

// applyScript меняет счетчики только если снапшот существует и событие
// новее его отметки as_of. ARGV[1] - время события, 0 если неизвестно.
var applyScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
	return 0
end
local at = tonumber(ARGV[1])
local asof = tonumber(redis.call('GET', KEYS[2]) or '0')
if at > 0 and at <= asof then
	return 2
end
for i = 2, #ARGV, 2 do
	redis.call('HINCRBY', KEYS[1], ARGV[i], ARGV[i + 1])
end
return 1
`)

// Store - снапшот распределения оценок в Redis hash (поле = оценка, значение = количество)
type Store struct {
	client  *redis.Client
	ttl     time.Duration
	service string
}

// NewStore создает хранилище снапшота; ttl = 0 означает хранение без срока
func NewStore(client *redis.Client, ttl time.Duration, service string) *Store {
	return &Store{
		client:  client,
		ttl:     ttl,
		service: service,
	}
}

// Get возвращает снапшот; (nil, nil) если снапшота нет
func (s *Store) Get(ctx context.Context) (*Distribution, error) {
	observe := metrics.ObserveRedis(s.service, metrics.RedisHGetAll)
	values, err := s.client.HGetAll(ctx, SnapshotKey).Result()
	observe(err)
	if err != nil {
		return nil, fmt.Errorf("failed to get rating snapshot: %w", err)
	}

	metrics.CacheLookup(s.service, keyPrefix, len(values) > 0)
	if len(values) == 0 {
		return nil, nil
	}

	counts := make(map[int]int64, len(values))
	for field, value := range values {
		rating, err := strconv.Atoi(field)
		if err != nil {
			return nil, fmt.Errorf("invalid rating field %q in snapshot: %w", field, err)
		}
		count, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid count for rating %d in snapshot: %w", rating, err)
		}
		counts[rating] = count
	}

	dist := NewDistribution(counts)
	return &dist, nil
}

// Set полностью заменяет снапшот. asOf - момент, взятый до чтения counts из БД:
// события не позже него уже учтены и Apply их пропустит.
func (s *Store) Set(ctx context.Context, counts map[int]int64, asOf time.Time) error {
	fields := make(map[string]interface{}, MaxRating)
	for r := MinRating; r <= MaxRating; r++ {
		fields[strconv.Itoa(r)] = 0
	}
	for r, c := range counts {
		fields[strconv.Itoa(r)] = c
	}

	observe := metrics.ObserveRedis(s.service, metrics.RedisReplace)
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, SnapshotKey, AsOfKey)
		pipe.HSet(ctx, SnapshotKey, fields)
		pipe.Set(ctx, AsOfKey, asOf.UnixMicro(), s.ttl)
		if s.ttl > 0 {
			pipe.Expire(ctx, SnapshotKey, s.ttl)
		}
		return nil
	})
	observe(err)
	if err != nil {
		return fmt.Errorf("failed to set rating snapshot: %w", err)
	}

	return nil
}

// Apply добавляет дельты события, произошедшего в момент at, к существующему снапшоту
func (s *Store) Apply(ctx context.Context, delta map[int]int64, at time.Time) (ApplyResult, error) {
	if len(delta) == 0 {
		return DeltaApplied, nil
	}

	var atMicro int64
	if !at.IsZero() {
		atMicro = at.UnixMicro()
	}
	args := make([]interface{}, 0, len(delta)*2+1)
	args = append(args, atMicro)
	for r, c := range delta {
		args = append(args, strconv.Itoa(r), c)
	}

	observe := metrics.ObserveRedis(s.service, metrics.RedisApply)
	res, err := applyScript.Run(ctx, s.client, []string{SnapshotKey, AsOfKey}, args...).Int()
	observe(err)
	if err != nil {
		return SnapshotMissing, fmt.Errorf("failed to apply rating delta: %w", err)
	}

	return ApplyResult(res), nil
}

// Invalidate удаляет снапшот, следующий Get вернет промах
func (s *Store) Invalidate(ctx context.Context) error {
	observe := metrics.ObserveRedis(s.service, metrics.RedisDel)
	err := s.client.Del(ctx, SnapshotKey, AsOfKey).Err()
	observe(err)
	if err != nil {
		return fmt.Errorf("failed to invalidate rating snapshot: %w", err)
	}
	return nil
}

// Ping проверяет доступность Redis (health check)
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close закрывает соединение с Redis
func (s *Store) Close() error {
	return s.client.Close()
}
