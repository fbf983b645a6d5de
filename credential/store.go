package credential

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrRedisUnavailable is an exported constant or variable used by the credential engine.
var ErrRedisUnavailable = errors.New("redis unavailable")

// ErrNotFound is returned when the target family does not exist in the store.
var ErrNotFound = errors.New("credential family not found")

// ErrExpired is returned when the head generation's validity window has passed.
var ErrExpired = errors.New("credential expired")

// ErrInactive is returned when the family status is revoked or compromised.
var ErrInactive = errors.New("credential family inactive")

// ErrValueMismatch is returned when the presented hash matches neither the
// current nor the grace slot. Not evidence of compromise.
var ErrValueMismatch = errors.New("credential value mismatch")

// ErrRotationRace is returned when the presented hash matches the grace slot
// and its deadline is still in the future: the caller lost a benign rotation
// race and should retry with the winner's value.
var ErrRotationRace = errors.New("credential rotation race lost")

// ErrReplayedValue is returned when the presented hash matches the grace slot
// after its deadline. The caller must treat the family as compromised.
var ErrReplayedValue = errors.New("credential value replayed after grace")

// ErrRecordCorrupt is returned when the stored record blob cannot be parsed.
var ErrRecordCorrupt = errors.New("credential record corrupt")

const (
	rotateStatusNotFound int64 = 0
	rotateStatusExpired  int64 = 1
	rotateStatusInactive int64 = 2
	rotateStatusGraceHit int64 = 3
	rotateStatusMismatch int64 = 4
	rotateStatusRotated  int64 = 5
	rotateStatusCorrupt  int64 = 6
)

// Shared record-parsing helpers, duplicated into each script because Redis
// evaluates scripts in isolation. Offsets must stay in sync with encoder.go.
const luaRecordHelpers = `
local function read_be32(s, i)
  local b1 = string.byte(s, i)
  local b2 = string.byte(s, i + 1)
  local b3 = string.byte(s, i + 2)
  local b4 = string.byte(s, i + 3)
  if not b4 then
    return nil
  end
  return ((b1 * 256 + b2) * 256 + b3) * 256 + b4
end

local function write_be32(n)
  local b4 = n % 256
  n = (n - b4) / 256
  local b3 = n % 256
  n = (n - b3) / 256
  local b2 = n % 256
  n = (n - b2) / 256
  local b1 = n % 256
  return string.char(b1, b2, b3, b4)
end

local function read_be64(s, i)
  local b1 = string.byte(s, i)
  local b2 = string.byte(s, i + 1)
  local b3 = string.byte(s, i + 2)
  local b4 = string.byte(s, i + 3)
  local b5 = string.byte(s, i + 4)
  local b6 = string.byte(s, i + 5)
  local b7 = string.byte(s, i + 6)
  local b8 = string.byte(s, i + 7)
  if not b8 then
    return nil
  end
  return ((((((((b1 * 256) + b2) * 256 + b3) * 256 + b4) * 256 + b5) * 256 + b6) * 256 + b7) * 256 + b8)
end

local function parse_record(data)
  local version = string.byte(data, 1)
  if version ~= 1 then
    return nil
  end
  local id_len = string.byte(data, 2)
  if not id_len then
    return nil
  end
  local dev_off = 3 + id_len
  local dev_len = string.byte(data, dev_off)
  if not dev_len then
    return nil
  end
  local status_off = dev_off + 1 + dev_len
  if #data < status_off + 101 then
    return nil
  end
  return {
    status_off = status_off,
    status = string.byte(data, status_off),
    flags = string.byte(data, status_off + 1),
    generation = read_be32(data, status_off + 2),
    cur_off = status_off + 6,
    prev_off = status_off + 38,
    deadline = read_be64(data, status_off + 70),
    expires = read_be64(data, status_off + 86),
  }
end
`

const rotateScript = luaRecordHelpers + `
local data = redis.call("GET", KEYS[1])
if not data then
  return {0}
end

local rec = parse_record(data)
if not rec then
  return {6}
end

local scrubbed = math.floor(rec.flags / 2) % 2
if scrubbed == 1 then
  return {0}
end
if rec.status ~= 0 then
  return {2, rec.status}
end

local now = tonumber(ARGV[3])
if rec.expires <= now then
  return {1}
end

local provided = ARGV[1]
if string.sub(data, rec.cur_off, rec.cur_off + 31) == provided then
  local flags = rec.flags
  if flags % 2 == 0 then
    flags = flags + 1
  end
  local changed = string.sub(data, rec.status_off + 94, rec.status_off + 101)
  local updated = string.sub(data, 1, rec.status_off - 1)
    .. string.char(0)
    .. string.char(flags)
    .. write_be32(rec.generation + 1)
    .. ARGV[2]
    .. provided
    .. ARGV[4]
    .. ARGV[6]
    .. ARGV[5]
    .. changed
  redis.call("SET", KEYS[1], updated)
  return {5, updated}
end

local has_prev = rec.flags % 2
if has_prev == 1 and string.sub(data, rec.prev_off, rec.prev_off + 31) == provided then
  return {3, rec.deadline, data}
end

return {4}
`

var rotateLua = redis.NewScript(rotateScript)

const setStatusScript = luaRecordHelpers + `
local data = redis.call("GET", KEYS[1])
if not data then
  return {-2}
end

local rec = parse_record(data)
if not rec then
  return {-1}
end

local target = tonumber(ARGV[1])
if target == 2 then
  if rec.status == 2 then
    return {0, rec.status}
  end
else
  if rec.status ~= 0 then
    return {0, rec.status}
  end
end

local updated = string.sub(data, 1, rec.status_off - 1)
  .. string.char(target)
  .. string.sub(data, rec.status_off + 1, rec.status_off + 93)
  .. ARGV[2]
redis.call("SET", KEYS[1], updated)
return {1, target}
`

var setStatusLua = redis.NewScript(setStatusScript)

const issueScript = luaRecordHelpers + `
local old = redis.call("GET", KEYS[2])
local superseded = ""
if old and old ~= ARGV[2] then
  local old_key = ARGV[3] .. old
  local old_data = redis.call("GET", old_key)
  if old_data then
    local rec = parse_record(old_data)
    if rec and rec.status == 0 then
      local updated = string.sub(old_data, 1, rec.status_off - 1)
        .. string.char(1)
        .. string.sub(old_data, rec.status_off + 1, rec.status_off + 93)
        .. ARGV[4]
      redis.call("SET", old_key, updated)
      superseded = old
    end
  end
end

redis.call("SET", KEYS[1], ARGV[1])
redis.call("SET", KEYS[2], ARGV[2])
return {superseded}
`

var issueLua = redis.NewScript(issueScript)

const scrubScript = `
local data = redis.call("GET", KEYS[1])
if not data or data ~= ARGV[1] then
  return 0
end
redis.call("SET", KEYS[1], ARGV[2])
if redis.call("GET", KEYS[2]) == ARGV[3] then
  redis.call("DEL", KEYS[2])
end
return 1
`

var scrubLua = redis.NewScript(scrubScript)

// Store is a Redis-backed credential family store that handles persistence
// and the atomic rotation, supersede, revocation, and scrub transitions.
//
//	Docs: docs/rotation.md
type Store struct {
	redis  redis.UniversalClient
	prefix string
	now    func() time.Time
}

// NewStore creates a credential [Store] backed by the given Redis client.
// prefix sets the Redis key namespace; now supplies the clock used for
// expiry and grace comparisons so tests control time completely.
func NewStore(redisClient redis.UniversalClient, prefix string, now func() time.Time) *Store {
	if now == nil {
		now = time.Now
	}
	return &Store{
		redis:  redisClient,
		prefix: prefix,
		now:    now,
	}
}

func (s *Store) familyKeyPrefix() string {
	return s.prefix + ":f:"
}

func (s *Store) key(familyID string) string {
	return s.familyKeyPrefix() + familyID
}

func (s *Store) deviceKey(identityID, deviceID string) string {
	return s.prefix + ":d:" + identityID + ":" + deviceID
}

// Issue installs a new family record and points the device index at it.
// When the device index already references a different family that is still
// active, that family is atomically marked revoked (superseded by a
// legitimate re-issue, not compromised) in the same script. Returns the
// superseded family ID, or "" when nothing active was superseded.
//
//	Performance: 1 Lua EVALSHA.
//	Security: supersede + install is atomic, so two racing issues for the
//	same device never leave two active families behind.
func (s *Store) Issue(ctx context.Context, rec *Record) (string, error) {
	data, err := Encode(rec)
	if err != nil {
		return "", err
	}

	result, err := issueLua.Run(
		ctx,
		s.redis,
		[]string{s.key(rec.FamilyID), s.deviceKey(rec.IdentityID, rec.DeviceID)},
		data,
		rec.FamilyID,
		s.familyKeyPrefix(),
		packBE64(s.now().Unix()),
	).Result()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	parts, ok := result.([]interface{})
	if !ok || len(parts) == 0 {
		return "", fmt.Errorf("%w: invalid issue script response", ErrRedisUnavailable)
	}

	superseded, _ := parts[0].(string)
	return superseded, nil
}

// Get fetches a family record without mutating any Redis state. Returns
// [ErrNotFound] when the family does not exist.
//
//	Performance: 1 Redis GET.
func (s *Store) Get(ctx context.Context, familyID string) (*Record, error) {
	data, err := s.redis.Get(ctx, s.key(familyID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	rec, err := Decode(data)
	if err != nil {
		return nil, errors.Join(ErrRecordCorrupt, err)
	}
	rec.FamilyID = familyID

	return rec, nil
}

// FamilyIDForDevice resolves the device index. Returns "" when the device
// has no recorded family.
func (s *Store) FamilyIDForDevice(ctx context.Context, identityID, deviceID string) (string, error) {
	familyID, err := s.redis.Get(ctx, s.deviceKey(identityID, deviceID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", nil
		}
		return "", fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return familyID, nil
}

// Rotate atomically advances the family head one generation using a Lua
// compare-and-swap keyed on the current secret hash. On success the
// presented hash is demoted into the grace slot with the given deadline and
// the updated record is returned.
//
//	Performance: 1 Lua EVALSHA (atomic compare-and-swap).
//	Security: CAS guarantees at most one winner per presented value;
//	losers receive [ErrRotationRace] or [ErrReplayedValue], never a
//	silently diverged second head. Grace-slot hits return the stored
//	record alongside the sentinel so the loser keeps its identity
//	binding.
func (s *Store) Rotate(
	ctx context.Context,
	familyID string,
	providedHash [32]byte,
	nextHash [32]byte,
	graceDeadline int64,
	expiresAt int64,
) (*Record, error) {
	now := s.now().Unix()
	result, err := rotateLua.Run(
		ctx,
		s.redis,
		[]string{s.key(familyID)},
		providedHash[:],
		nextHash[:],
		now,
		packBE64(graceDeadline),
		packBE64(expiresAt),
		packBE64(now),
	).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	parts, ok := result.([]interface{})
	if !ok || len(parts) == 0 {
		return nil, fmt.Errorf("%w: invalid rotate script response", ErrRedisUnavailable)
	}

	code, ok := parts[0].(int64)
	if !ok {
		return nil, fmt.Errorf("%w: invalid rotate script status", ErrRedisUnavailable)
	}

	switch code {
	case rotateStatusNotFound:
		return nil, ErrNotFound
	case rotateStatusExpired:
		return nil, ErrExpired
	case rotateStatusInactive:
		return nil, ErrInactive
	case rotateStatusGraceHit:
		if len(parts) < 2 {
			return nil, fmt.Errorf("%w: missing grace deadline", ErrRedisUnavailable)
		}
		deadline, ok := parts[1].(int64)
		if !ok {
			return nil, fmt.Errorf("%w: invalid grace deadline", ErrRedisUnavailable)
		}

		// The grace-hit reply carries the record so callers can attribute
		// the race or replay to its identity/device binding. A record that
		// fails to decode degrades to the bare sentinel.
		var rec *Record
		if len(parts) >= 3 {
			if blob := scriptBlob(parts[2]); blob != nil {
				if decoded, decErr := Decode(blob); decErr == nil {
					decoded.FamilyID = familyID
					rec = decoded
				}
			}
		}

		if deadline > now {
			return rec, ErrRotationRace
		}
		return rec, ErrReplayedValue
	case rotateStatusMismatch:
		return nil, ErrValueMismatch
	case rotateStatusRotated:
		if len(parts) < 2 {
			return nil, fmt.Errorf("%w: missing updated record payload", ErrRedisUnavailable)
		}

		blob := scriptBlob(parts[1])
		if blob == nil {
			return nil, fmt.Errorf("%w: invalid updated record payload", ErrRedisUnavailable)
		}

		rec, decErr := Decode(blob)
		if decErr != nil {
			return nil, errors.Join(ErrRecordCorrupt, decErr)
		}
		rec.FamilyID = familyID
		return rec, nil
	case rotateStatusCorrupt:
		return nil, errors.Join(ErrRedisUnavailable, ErrRecordCorrupt)
	default:
		return nil, fmt.Errorf("%w: unknown rotate script status", ErrRedisUnavailable)
	}
}

// SetFamilyStatus applies a status transition to every generation of the
// family (one head record covers them all). Transition rules are enforced
// in the script: compromised is sticky and never downgraded, revoked is
// reachable only from active. Returns whether the stored status changed,
// making the operation idempotent for concurrent callers.
//
//	Performance: 1 Lua EVALSHA.
func (s *Store) SetFamilyStatus(ctx context.Context, familyID string, status Status) (bool, error) {
	if status != StatusRevoked && status != StatusCompromised {
		return false, errors.New("invalid target status")
	}

	result, err := setStatusLua.Run(
		ctx,
		s.redis,
		[]string{s.key(familyID)},
		int64(status),
		packBE64(s.now().Unix()),
	).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	parts, ok := result.([]interface{})
	if !ok || len(parts) == 0 {
		return false, fmt.Errorf("%w: invalid status script response", ErrRedisUnavailable)
	}

	code, ok := parts[0].(int64)
	if !ok {
		return false, fmt.Errorf("%w: invalid status script code", ErrRedisUnavailable)
	}

	switch code {
	case -2:
		return false, ErrNotFound
	case -1:
		return false, errors.Join(ErrRedisUnavailable, ErrRecordCorrupt)
	case 0:
		return false, nil
	case 1:
		return true, nil
	default:
		return false, fmt.Errorf("%w: unknown status script code", ErrRedisUnavailable)
	}
}

// ScrubSwap replaces a record with its scrubbed form only if the stored
// bytes still equal the copy the sweep read, and drops the device index
// entry when it still points at this family. A record that rotated or
// changed status since the read is left untouched for the next sweep.
//
//	Performance: 1 Lua EVALSHA (full-blob compare-and-swap).
func (s *Store) ScrubSwap(ctx context.Context, old, scrubbed *Record) (bool, error) {
	oldData, err := Encode(old)
	if err != nil {
		return false, err
	}
	newData, err := Encode(scrubbed)
	if err != nil {
		return false, err
	}

	result, err := scrubLua.Run(
		ctx,
		s.redis,
		[]string{s.key(old.FamilyID), s.deviceKey(old.IdentityID, old.DeviceID)},
		oldData,
		newData,
		old.FamilyID,
	).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	swapped, ok := result.(int64)
	if !ok {
		return false, fmt.Errorf("%w: invalid scrub script response", ErrRedisUnavailable)
	}

	return swapped == 1, nil
}

// ForEach scans every family record and invokes fn for each. Records that
// disappear or fail to decode mid-scan are skipped. This is an O(n)
// maintenance operation and must not be used in request hot paths.
func (s *Store) ForEach(ctx context.Context, batch int64, fn func(*Record) error) error {
	if batch <= 0 {
		batch = 1000
	}

	pattern := s.familyKeyPrefix() + "*"
	var cursor uint64

	for {
		keys, next, err := s.redis.Scan(ctx, cursor, pattern, batch).Result()
		if err != nil {
			return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
		}

		for _, key := range keys {
			data, err := s.redis.Get(ctx, key).Bytes()
			if err != nil {
				if errors.Is(err, redis.Nil) {
					continue
				}
				return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
			}

			rec, err := Decode(data)
			if err != nil {
				continue
			}
			rec.FamilyID = strings.TrimPrefix(key, s.familyKeyPrefix())

			if err := fn(rec); err != nil {
				return err
			}
		}

		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}

// Ping returns a point-in-time Redis availability check and latency.
func (s *Store) Ping(ctx context.Context) (time.Duration, error) {
	start := time.Now()
	if err := s.redis.Ping(ctx).Err(); err != nil {
		return time.Since(start), fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return time.Since(start), nil
}

func scriptBlob(v interface{}) []byte {
	switch b := v.(type) {
	case string:
		return []byte(b)
	case []byte:
		return b
	default:
		return nil
	}
}

func packBE64(v int64) string {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], uint64(v))
	return string(b[:])
}
