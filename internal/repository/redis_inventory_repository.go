package repository

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"strconv"

	"github.com/prohmpiriya/decaying-tickets/internal/domain"
	pkgredis "github.com/prohmpiriya/decaying-tickets/pkg/redis"
	"github.com/prohmpiriya/decaying-tickets/pkg/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var (
	//go:embed scripts/reserve_seats.lua
	reserveSeatsSource string
	//go:embed scripts/release_seats.lua
	releaseSeatsSource string
	//go:embed scripts/init_section.lua
	initSectionSource string

	reserveSeatsScript = pkgredis.NewScript(reserveSeatsSource)
	releaseSeatsScript = pkgredis.NewScript(releaseSeatsSource)
	initSectionScript  = pkgredis.NewScript(initSectionSource)
)

func sectionKey(sectionID string) string {
	return fmt.Sprintf("section:inventory:%s", sectionID)
}

// RedisInventoryRepository keeps seat counters in Redis hashes and mutates
// them only through Lua scripts.
type RedisInventoryRepository struct {
	client *pkgredis.Client
}

// NewRedisInventoryRepository creates a new RedisInventoryRepository
func NewRedisInventoryRepository(client *pkgredis.Client) *RedisInventoryRepository {
	return &RedisInventoryRepository{client: client}
}

// LoadScripts preloads the Lua scripts
func (r *RedisInventoryRepository) LoadScripts(ctx context.Context) error {
	return r.client.LoadScripts(ctx, reserveSeatsScript, releaseSeatsScript, initSectionScript)
}

// ReserveSeats atomically checks and decrements a section counter
func (r *RedisInventoryRepository) ReserveSeats(ctx context.Context, sectionID string, quantity int) (*ReserveResult, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.redis.inventory.reserve_seats")
	defer span.End()

	span.SetAttributes(
		attribute.String("section_id", sectionID),
		attribute.Int("quantity", quantity),
	)

	ok, available, code, msg, err := r.eval(ctx, "reserve", reserveSeatsScript, sectionID, quantity)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if !ok {
		span.SetAttributes(attribute.String("error_code", code))
		span.SetStatus(codes.Error, code)
		return &ReserveResult{ErrorCode: code, ErrorMessage: msg}, nil
	}

	span.SetAttributes(attribute.Int64("available_seats", available))
	span.SetStatus(codes.Ok, "")
	return &ReserveResult{Success: true, AvailableSeats: available}, nil
}

// ReleaseSeats atomically returns seats, bounded by the section total
func (r *RedisInventoryRepository) ReleaseSeats(ctx context.Context, sectionID string, quantity int) (*ReleaseResult, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.redis.inventory.release_seats")
	defer span.End()

	span.SetAttributes(
		attribute.String("section_id", sectionID),
		attribute.Int("quantity", quantity),
	)

	ok, available, code, msg, err := r.eval(ctx, "release", releaseSeatsScript, sectionID, quantity)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if !ok {
		span.SetAttributes(attribute.String("error_code", code))
		span.SetStatus(codes.Error, code)
		return &ReleaseResult{ErrorCode: code, ErrorMessage: msg}, nil
	}

	span.SetStatus(codes.Ok, "")
	return &ReleaseResult{Success: true, AvailableSeats: available}, nil
}

// GetAvailability reads the current counter
func (r *RedisInventoryRepository) GetAvailability(ctx context.Context, sectionID string) (int64, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.redis.inventory.get_availability")
	defer span.End()

	fields, err := r.client.HGetAll(ctx, sectionKey(sectionID)).Result()
	if err != nil {
		span.RecordError(err)
		return 0, fmt.Errorf("failed to read section %s: %w", sectionID, err)
	}
	raw, ok := fields["available"]
	if !ok {
		return 0, domain.ErrSectionNotFound
	}
	available, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("corrupt counter for section %s: %w", sectionID, err)
	}
	return available, nil
}

// SetSection seeds the counter unless one already exists
func (r *RedisInventoryRepository) SetSection(ctx context.Context, sectionID string, total, available int64) error {
	ctx, span := telemetry.StartSpan(ctx, "repo.redis.inventory.set_section")
	defer span.End()

	res := r.client.RunScript(ctx, initSectionScript,
		[]string{sectionKey(sectionID)}, total, available)
	if err := res.Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("failed to seed section %s: %w", sectionID, err)
	}
	return nil
}

func (r *RedisInventoryRepository) eval(ctx context.Context, name string, script *pkgredis.Script, sectionID string, quantity int) (ok bool, available int64, code, msg string, err error) {
	res := r.client.RunScript(ctx, script, []string{sectionKey(sectionID)}, quantity)
	if res.Err() != nil {
		return false, 0, "", "", fmt.Errorf("failed to execute %s script: %w", name, res.Err())
	}

	values, err := res.Slice()
	if err != nil {
		return false, 0, "", "", fmt.Errorf("failed to parse %s result: %w", name, err)
	}
	if len(values) < 2 {
		return false, 0, "", "", fmt.Errorf("unexpected %s result length: %d", name, len(values))
	}

	status, _ := toInt64(values[0])
	if status == 1 {
		available, _ = toInt64(values[1])
		return true, available, "", "", nil
	}

	code, _ = values[1].(string)
	if len(values) > 2 {
		msg, _ = values[2].(string)
	}
	if code == "" {
		return false, 0, "", "", errors.New("script returned failure without code")
	}
	return false, 0, code, msg, nil
}

func toInt64(v interface{}) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	case string:
		i, err := strconv.ParseInt(n, 10, 64)
		return i, err == nil
	default:
		return 0, false
	}
}

var _ InventoryRepository = (*RedisInventoryRepository)(nil)
