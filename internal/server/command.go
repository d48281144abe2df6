package server

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/kevadb/keva/internal/store"
)

// wrongTypeReply is the error text for a command applied to an
// incompatible value. The check happens before any mutation, so issuing
// the wrong command repeatedly never changes the key.
const wrongTypeReply = "WRONGTYPE Operation against a key holding the wrong kind of value"

// errorReply maps store errors to wire-level error text.
func errorReply(err error) string {
	switch {
	case errors.Is(err, store.ErrWrongType):
		return wrongTypeReply
	case errors.Is(err, store.ErrNotInteger):
		return "ERR value is not an integer or out of range"
	case errors.Is(err, store.ErrNotFloat):
		return "ERR value is not a valid float"
	case errors.Is(err, store.ErrOverflow):
		return "ERR increment or decrement would overflow"
	case errors.Is(err, store.ErrNoSuchKey):
		return "ERR no such key"
	default:
		return "ERR " + err.Error()
	}
}

func wrongArity(cmd string) string {
	return "ERR wrong number of arguments for '" + strings.ToLower(cmd) + "' command"
}

// handler interprets parsed requests against the store. One handler is
// shared by all sessions; it keeps no per-connection state.
type handler struct {
	store     *store.Store
	persister *Persister
	logger    *slog.Logger
	version   string
	started   time.Time
}

func newHandler(st *store.Store, persister *Persister, version string, logger *slog.Logger) *handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &handler{
		store:     st,
		persister: persister,
		logger:    logger,
		version:   version,
		started:   time.Now(),
	}
}

// outcome classifies a dispatch for logging and metrics.
type outcome string

const (
	outcomeOK    outcome = "ok"
	outcomeError outcome = "error"
	outcomeQuit  outcome = "quit"
)

// dispatch executes one request and writes the reply. The reply is
// written only after any mutation is fully applied, so a subsequent
// command on the same connection observes it.
func (h *handler) dispatch(w *writer, args [][]byte) outcome {
	name := commandName(args[0])

	switch name {
	case "PING":
		return h.ping(w, args)
	case "ECHO":
		return h.echo(w, args)
	case "QUIT":
		_ = w.Status("OK")
		return outcomeQuit
	case "SELECT":
		return h.selectDB(w, args)

	case "SET":
		return h.set(w, args)
	case "GET":
		return h.get(w, args)
	case "GETDEL":
		return h.getDel(w, args)
	case "APPEND":
		return h.append(w, args)
	case "STRLEN":
		return h.strLen(w, args)
	case "INCR":
		return h.incrBy(w, args, 1, 2)
	case "DECR":
		return h.incrBy(w, args, -1, 2)
	case "INCRBY":
		return h.incrBy(w, args, 1, 3)
	case "DECRBY":
		return h.incrBy(w, args, -1, 3)
	case "INCRBYFLOAT":
		return h.incrByFloat(w, args)

	case "DEL":
		return h.del(w, args)
	case "EXISTS":
		return h.exists(w, args)
	case "TYPE":
		return h.typeOf(w, args)
	case "KEYS":
		return h.keys(w, args)
	case "RENAME":
		return h.rename(w, args)
	case "EXPIRE":
		return h.expire(w, args, time.Second)
	case "PEXPIRE":
		return h.expire(w, args, time.Millisecond)
	case "PERSIST":
		return h.persist(w, args)
	case "TTL":
		return h.ttl(w, args, false)
	case "PTTL":
		return h.ttl(w, args, true)

	case "LPUSH":
		return h.push(w, args, h.store.LPush)
	case "RPUSH":
		return h.push(w, args, h.store.RPush)
	case "LPOP":
		return h.pop(w, args, h.store.LPop)
	case "RPOP":
		return h.pop(w, args, h.store.RPop)
	case "LRANGE":
		return h.lrange(w, args)
	case "LLEN":
		return h.llen(w, args)

	case "SADD":
		return h.sadd(w, args)
	case "SREM":
		return h.srem(w, args)
	case "SMEMBERS":
		return h.smembers(w, args)
	case "SISMEMBER":
		return h.sismember(w, args)
	case "SCARD":
		return h.scard(w, args)

	case "HSET":
		return h.hset(w, args)
	case "HGET":
		return h.hget(w, args)
	case "HDEL":
		return h.hdel(w, args)
	case "HGETALL":
		return h.hgetall(w, args)
	case "HEXISTS":
		return h.hexists(w, args)
	case "HLEN":
		return h.hlen(w, args)

	case "DBSIZE":
		return h.dbsize(w, args)
	case "FLUSHALL":
		return h.flushAll(w, args)
	case "SAVE":
		return h.save(w, args)
	case "BGSAVE":
		return h.bgsave(w, args)
	case "INFO":
		return h.info(w, args)
	case "CONFIG":
		return h.config(w, args)

	default:
		_ = w.Error("ERR unknown command '" + name + "'")
		return outcomeError
	}
}

func (h *handler) ping(w *writer, args [][]byte) outcome {
	if len(args) > 2 {
		_ = w.Error(wrongArity("PING"))
		return outcomeError
	}
	if len(args) == 2 {
		_ = w.Bulk(args[1])
	} else {
		_ = w.Status("PONG")
	}
	return outcomeOK
}

func (h *handler) echo(w *writer, args [][]byte) outcome {
	if len(args) != 2 {
		_ = w.Error(wrongArity("ECHO"))
		return outcomeError
	}
	_ = w.Bulk(args[1])
	return outcomeOK
}

func (h *handler) selectDB(w *writer, args [][]byte) outcome {
	if len(args) != 2 {
		_ = w.Error(wrongArity("SELECT"))
		return outcomeError
	}
	n, err := strconv.Atoi(string(args[1]))
	if err != nil {
		_ = w.Error("ERR value is not an integer or out of range")
		return outcomeError
	}
	// keva has a single keyspace; only database 0 exists.
	if n != 0 {
		_ = w.Error("ERR DB index is out of range")
		return outcomeError
	}
	_ = w.Status("OK")
	return outcomeOK
}

func (h *handler) set(w *writer, args [][]byte) outcome {
	if len(args) < 3 {
		_ = w.Error(wrongArity("SET"))
		return outcomeError
	}

	key, val := string(args[1]), args[2]
	var opts store.SetOptions

	for i := 3; i < len(args); i++ {
		switch strings.ToUpper(string(args[i])) {
		case "EX", "PX":
			unit := time.Second
			if strings.ToUpper(string(args[i])) == "PX" {
				unit = time.Millisecond
			}
			if i+1 >= len(args) {
				_ = w.Error("ERR syntax error")
				return outcomeError
			}
			n, err := strconv.ParseInt(string(args[i+1]), 10, 64)
			if err != nil || n <= 0 {
				_ = w.Error("ERR invalid expire time in 'set' command")
				return outcomeError
			}
			opts.TTL = time.Duration(n) * unit
			i++
		case "KEEPTTL":
			opts.KeepTTL = true
		case "NX":
			opts.IfAbsent = true
		case "XX":
			opts.IfExists = true
		case "GET":
			opts.GetOld = true
		default:
			_ = w.Error("ERR syntax error")
			return outcomeError
		}
	}
	if opts.IfAbsent && opts.IfExists {
		_ = w.Error("ERR syntax error")
		return outcomeError
	}

	res := h.store.Set(key, append([]byte(nil), val...), opts)
	if opts.GetOld && res.OldWrongType {
		_ = w.Error(wrongTypeReply)
		return outcomeError
	}

	switch {
	case opts.GetOld && res.HadOld:
		_ = w.Bulk(res.Old)
	case opts.GetOld:
		_ = w.Null()
	case res.Written:
		_ = w.Status("OK")
	default:
		_ = w.Null()
	}
	return outcomeOK
}

func (h *handler) get(w *writer, args [][]byte) outcome {
	if len(args) != 2 {
		_ = w.Error(wrongArity("GET"))
		return outcomeError
	}
	val, err := h.store.Get(string(args[1]))
	if err != nil {
		_ = w.Error(errorReply(err))
		return outcomeError
	}
	_ = w.Bulk(val)
	return outcomeOK
}

func (h *handler) getDel(w *writer, args [][]byte) outcome {
	if len(args) != 2 {
		_ = w.Error(wrongArity("GETDEL"))
		return outcomeError
	}
	val, err := h.store.GetDel(string(args[1]))
	if err != nil {
		_ = w.Error(errorReply(err))
		return outcomeError
	}
	_ = w.Bulk(val)
	return outcomeOK
}

func (h *handler) append(w *writer, args [][]byte) outcome {
	if len(args) != 3 {
		_ = w.Error(wrongArity("APPEND"))
		return outcomeError
	}
	n, err := h.store.Append(string(args[1]), args[2])
	if err != nil {
		_ = w.Error(errorReply(err))
		return outcomeError
	}
	_ = w.Int(int64(n))
	return outcomeOK
}

func (h *handler) strLen(w *writer, args [][]byte) outcome {
	if len(args) != 2 {
		_ = w.Error(wrongArity("STRLEN"))
		return outcomeError
	}
	n, err := h.store.StrLen(string(args[1]))
	if err != nil {
		_ = w.Error(errorReply(err))
		return outcomeError
	}
	_ = w.Int(int64(n))
	return outcomeOK
}

// incrBy serves INCR/DECR (arity 2, delta 1) and INCRBY/DECRBY (arity 3,
// delta parsed from the argument). sign is +1 or -1.
func (h *handler) incrBy(w *writer, args [][]byte, sign int64, arity int) outcome {
	if len(args) != arity {
		_ = w.Error(wrongArity(commandName(args[0])))
		return outcomeError
	}

	delta := int64(1)
	if arity == 3 {
		n, err := strconv.ParseInt(string(args[2]), 10, 64)
		if err != nil {
			_ = w.Error("ERR value is not an integer or out of range")
			return outcomeError
		}
		delta = n
	}
	if sign < 0 {
		// DECR of math.MinInt64 cannot be negated; report overflow the
		// same way the addition path would.
		if delta == -delta && delta != 0 {
			_ = w.Error(errorReply(store.ErrOverflow))
			return outcomeError
		}
		delta = -delta
	}

	val, err := h.store.IncrBy(string(args[1]), delta)
	if err != nil {
		_ = w.Error(errorReply(err))
		return outcomeError
	}
	_ = w.Int(val)
	return outcomeOK
}

func (h *handler) incrByFloat(w *writer, args [][]byte) outcome {
	if len(args) != 3 {
		_ = w.Error(wrongArity("INCRBYFLOAT"))
		return outcomeError
	}
	delta, err := strconv.ParseFloat(string(args[2]), 64)
	if err != nil {
		_ = w.Error("ERR value is not a valid float")
		return outcomeError
	}
	val, err := h.store.IncrByFloat(string(args[1]), delta)
	if err != nil {
		_ = w.Error(errorReply(err))
		return outcomeError
	}
	_ = w.Bulk(val)
	return outcomeOK
}

func (h *handler) del(w *writer, args [][]byte) outcome {
	if len(args) < 2 {
		_ = w.Error(wrongArity("DEL"))
		return outcomeError
	}
	deleted := 0
	for _, key := range args[1:] {
		if h.store.Delete(string(key)) {
			deleted++
		}
	}
	_ = w.Int(int64(deleted))
	return outcomeOK
}

func (h *handler) exists(w *writer, args [][]byte) outcome {
	if len(args) < 2 {
		_ = w.Error(wrongArity("EXISTS"))
		return outcomeError
	}
	count := 0
	for _, key := range args[1:] {
		if h.store.Exists(string(key)) {
			count++
		}
	}
	_ = w.Int(int64(count))
	return outcomeOK
}

func (h *handler) typeOf(w *writer, args [][]byte) outcome {
	if len(args) != 2 {
		_ = w.Error(wrongArity("TYPE"))
		return outcomeError
	}
	_ = w.Status(h.store.Type(string(args[1])))
	return outcomeOK
}

func (h *handler) keys(w *writer, args [][]byte) outcome {
	if len(args) != 2 {
		_ = w.Error(wrongArity("KEYS"))
		return outcomeError
	}
	keys := h.store.Keys(string(args[1]))
	_ = w.Array(len(keys))
	for _, k := range keys {
		_ = w.BulkString(k)
	}
	return outcomeOK
}

func (h *handler) rename(w *writer, args [][]byte) outcome {
	if len(args) != 3 {
		_ = w.Error(wrongArity("RENAME"))
		return outcomeError
	}
	if err := h.store.Rename(string(args[1]), string(args[2])); err != nil {
		_ = w.Error(errorReply(err))
		return outcomeError
	}
	_ = w.Status("OK")
	return outcomeOK
}

func (h *handler) expire(w *writer, args [][]byte, unit time.Duration) outcome {
	if len(args) != 3 {
		_ = w.Error(wrongArity(commandName(args[0])))
		return outcomeError
	}
	n, err := strconv.ParseInt(string(args[2]), 10, 64)
	if err != nil {
		_ = w.Error("ERR value is not an integer or out of range")
		return outcomeError
	}
	if h.store.Expire(string(args[1]), time.Duration(n)*unit) {
		_ = w.Int(1)
	} else {
		_ = w.Int(0)
	}
	return outcomeOK
}

func (h *handler) persist(w *writer, args [][]byte) outcome {
	if len(args) != 2 {
		_ = w.Error(wrongArity("PERSIST"))
		return outcomeError
	}
	if h.store.Persist(string(args[1])) {
		_ = w.Int(1)
	} else {
		_ = w.Int(0)
	}
	return outcomeOK
}

func (h *handler) ttl(w *writer, args [][]byte, millis bool) outcome {
	if len(args) != 2 {
		_ = w.Error(wrongArity(commandName(args[0])))
		return outcomeError
	}
	if millis {
		_ = w.Int(h.store.PTTL(string(args[1])))
	} else {
		_ = w.Int(h.store.TTL(string(args[1])))
	}
	return outcomeOK
}

func (h *handler) push(w *writer, args [][]byte, op func(string, [][]byte) (int, error)) outcome {
	if len(args) < 3 {
		_ = w.Error(wrongArity(commandName(args[0])))
		return outcomeError
	}
	n, err := op(string(args[1]), args[2:])
	if err != nil {
		_ = w.Error(errorReply(err))
		return outcomeError
	}
	_ = w.Int(int64(n))
	return outcomeOK
}

func (h *handler) pop(w *writer, args [][]byte, op func(string, int) ([][]byte, error)) outcome {
	if len(args) < 2 || len(args) > 3 {
		_ = w.Error(wrongArity(commandName(args[0])))
		return outcomeError
	}

	withCount := len(args) == 3
	count := 1
	if withCount {
		n, err := strconv.Atoi(string(args[2]))
		if err != nil || n < 0 {
			_ = w.Error("ERR value is out of range, must be positive")
			return outcomeError
		}
		count = n
	}

	elems, err := op(string(args[1]), count)
	if err != nil {
		_ = w.Error(errorReply(err))
		return outcomeError
	}

	if !withCount {
		if len(elems) == 0 {
			_ = w.Null()
		} else {
			_ = w.Bulk(elems[0])
		}
		return outcomeOK
	}
	// With a count argument the reply is always array-shaped: a null
	// array for a missing key, an empty array for a zero count.
	if elems == nil {
		_ = w.NullArray()
		return outcomeOK
	}
	_ = w.Array(len(elems))
	for _, el := range elems {
		_ = w.Bulk(el)
	}
	return outcomeOK
}

func (h *handler) lrange(w *writer, args [][]byte) outcome {
	if len(args) != 4 {
		_ = w.Error(wrongArity("LRANGE"))
		return outcomeError
	}
	start, err1 := strconv.Atoi(string(args[2]))
	stop, err2 := strconv.Atoi(string(args[3]))
	if err1 != nil || err2 != nil {
		_ = w.Error("ERR value is not an integer or out of range")
		return outcomeError
	}
	elems, err := h.store.LRange(string(args[1]), start, stop)
	if err != nil {
		_ = w.Error(errorReply(err))
		return outcomeError
	}
	_ = w.Array(len(elems))
	for _, el := range elems {
		_ = w.Bulk(el)
	}
	return outcomeOK
}

func (h *handler) llen(w *writer, args [][]byte) outcome {
	if len(args) != 2 {
		_ = w.Error(wrongArity("LLEN"))
		return outcomeError
	}
	n, err := h.store.LLen(string(args[1]))
	if err != nil {
		_ = w.Error(errorReply(err))
		return outcomeError
	}
	_ = w.Int(int64(n))
	return outcomeOK
}

func (h *handler) sadd(w *writer, args [][]byte) outcome {
	if len(args) < 3 {
		_ = w.Error(wrongArity("SADD"))
		return outcomeError
	}
	n, err := h.store.SAdd(string(args[1]), toStrings(args[2:]))
	if err != nil {
		_ = w.Error(errorReply(err))
		return outcomeError
	}
	_ = w.Int(int64(n))
	return outcomeOK
}

func (h *handler) srem(w *writer, args [][]byte) outcome {
	if len(args) < 3 {
		_ = w.Error(wrongArity("SREM"))
		return outcomeError
	}
	n, err := h.store.SRem(string(args[1]), toStrings(args[2:]))
	if err != nil {
		_ = w.Error(errorReply(err))
		return outcomeError
	}
	_ = w.Int(int64(n))
	return outcomeOK
}

func (h *handler) smembers(w *writer, args [][]byte) outcome {
	if len(args) != 2 {
		_ = w.Error(wrongArity("SMEMBERS"))
		return outcomeError
	}
	members, err := h.store.SMembers(string(args[1]))
	if err != nil {
		_ = w.Error(errorReply(err))
		return outcomeError
	}
	_ = w.Array(len(members))
	for _, m := range members {
		_ = w.BulkString(m)
	}
	return outcomeOK
}

func (h *handler) sismember(w *writer, args [][]byte) outcome {
	if len(args) != 3 {
		_ = w.Error(wrongArity("SISMEMBER"))
		return outcomeError
	}
	found, err := h.store.SIsMember(string(args[1]), string(args[2]))
	if err != nil {
		_ = w.Error(errorReply(err))
		return outcomeError
	}
	_ = w.Int(boolToInt(found))
	return outcomeOK
}

func (h *handler) scard(w *writer, args [][]byte) outcome {
	if len(args) != 2 {
		_ = w.Error(wrongArity("SCARD"))
		return outcomeError
	}
	n, err := h.store.SCard(string(args[1]))
	if err != nil {
		_ = w.Error(errorReply(err))
		return outcomeError
	}
	_ = w.Int(int64(n))
	return outcomeOK
}

func (h *handler) hset(w *writer, args [][]byte) outcome {
	if len(args) < 4 || len(args)%2 != 0 {
		_ = w.Error(wrongArity("HSET"))
		return outcomeError
	}
	fields := make(map[string][]byte, (len(args)-2)/2)
	for i := 2; i < len(args); i += 2 {
		fields[string(args[i])] = args[i+1]
	}
	n, err := h.store.HSet(string(args[1]), fields)
	if err != nil {
		_ = w.Error(errorReply(err))
		return outcomeError
	}
	_ = w.Int(int64(n))
	return outcomeOK
}

func (h *handler) hget(w *writer, args [][]byte) outcome {
	if len(args) != 3 {
		_ = w.Error(wrongArity("HGET"))
		return outcomeError
	}
	val, err := h.store.HGet(string(args[1]), string(args[2]))
	if err != nil {
		_ = w.Error(errorReply(err))
		return outcomeError
	}
	_ = w.Bulk(val)
	return outcomeOK
}

func (h *handler) hdel(w *writer, args [][]byte) outcome {
	if len(args) < 3 {
		_ = w.Error(wrongArity("HDEL"))
		return outcomeError
	}
	n, err := h.store.HDel(string(args[1]), toStrings(args[2:]))
	if err != nil {
		_ = w.Error(errorReply(err))
		return outcomeError
	}
	_ = w.Int(int64(n))
	return outcomeOK
}

func (h *handler) hgetall(w *writer, args [][]byte) outcome {
	if len(args) != 2 {
		_ = w.Error(wrongArity("HGETALL"))
		return outcomeError
	}
	fields, err := h.store.HGetAll(string(args[1]))
	if err != nil {
		_ = w.Error(errorReply(err))
		return outcomeError
	}
	_ = w.Array(len(fields) * 2)
	for f, v := range fields {
		_ = w.BulkString(f)
		_ = w.Bulk(v)
	}
	return outcomeOK
}

func (h *handler) hexists(w *writer, args [][]byte) outcome {
	if len(args) != 3 {
		_ = w.Error(wrongArity("HEXISTS"))
		return outcomeError
	}
	found, err := h.store.HExists(string(args[1]), string(args[2]))
	if err != nil {
		_ = w.Error(errorReply(err))
		return outcomeError
	}
	_ = w.Int(boolToInt(found))
	return outcomeOK
}

func (h *handler) hlen(w *writer, args [][]byte) outcome {
	if len(args) != 2 {
		_ = w.Error(wrongArity("HLEN"))
		return outcomeError
	}
	n, err := h.store.HLen(string(args[1]))
	if err != nil {
		_ = w.Error(errorReply(err))
		return outcomeError
	}
	_ = w.Int(int64(n))
	return outcomeOK
}

func (h *handler) dbsize(w *writer, args [][]byte) outcome {
	if len(args) != 1 {
		_ = w.Error(wrongArity("DBSIZE"))
		return outcomeError
	}
	_ = w.Int(int64(h.store.Len()))
	return outcomeOK
}

func (h *handler) flushAll(w *writer, args [][]byte) outcome {
	if len(args) != 1 {
		_ = w.Error(wrongArity("FLUSHALL"))
		return outcomeError
	}
	h.store.FlushAll()
	_ = w.Status("OK")
	return outcomeOK
}

func (h *handler) save(w *writer, args [][]byte) outcome {
	if len(args) != 1 {
		_ = w.Error(wrongArity("SAVE"))
		return outcomeError
	}
	if h.persister == nil {
		_ = w.Error("ERR snapshotting is not configured")
		return outcomeError
	}
	if _, err := h.persister.Save(); err != nil {
		_ = w.Error("ERR " + err.Error())
		return outcomeError
	}
	_ = w.Status("OK")
	return outcomeOK
}

func (h *handler) bgsave(w *writer, args [][]byte) outcome {
	if len(args) != 1 {
		_ = w.Error(wrongArity("BGSAVE"))
		return outcomeError
	}
	if h.persister == nil {
		_ = w.Error("ERR snapshotting is not configured")
		return outcomeError
	}
	h.persister.SaveInBackground()
	_ = w.Status("Background saving started")
	return outcomeOK
}

func (h *handler) info(w *writer, args [][]byte) outcome {
	if len(args) > 2 {
		_ = w.Error(wrongArity("INFO"))
		return outcomeError
	}
	stats := h.store.CollectStats()
	var b strings.Builder
	fmt.Fprintf(&b, "# Server\r\n")
	fmt.Fprintf(&b, "keva_version:%s\r\n", h.version)
	fmt.Fprintf(&b, "go_version:%s\r\n", runtime.Version())
	fmt.Fprintf(&b, "uptime_in_seconds:%d\r\n", int64(time.Since(h.started).Seconds()))
	fmt.Fprintf(&b, "# Replication\r\n")
	fmt.Fprintf(&b, "role:master\r\n")
	fmt.Fprintf(&b, "# Keyspace\r\n")
	fmt.Fprintf(&b, "keys:%d\r\n", stats.Keys)
	fmt.Fprintf(&b, "keys_with_ttl:%d\r\n", stats.TTLKeys)
	fmt.Fprintf(&b, "# Stats\r\n")
	fmt.Fprintf(&b, "expired_keys_lazy:%d\r\n", stats.LazyExpired)
	fmt.Fprintf(&b, "expired_keys_swept:%d\r\n", stats.SweptExpired)
	_ = w.BulkString(b.String())
	return outcomeOK
}

// config serves the CONFIG GET subset that redis clients probe at
// startup. Values derive from the snapshot path.
func (h *handler) config(w *writer, args [][]byte) outcome {
	if len(args) != 3 || !strings.EqualFold(string(args[1]), "GET") {
		_ = w.Error("ERR unknown CONFIG subcommand or wrong number of arguments")
		return outcomeError
	}

	var dir, dbfilename string
	if h.persister != nil {
		dir, dbfilename = h.persister.SplitPath()
	}

	switch strings.ToLower(string(args[2])) {
	case "dir":
		_ = w.Array(2)
		_ = w.BulkString("dir")
		_ = w.BulkString(dir)
	case "dbfilename":
		_ = w.Array(2)
		_ = w.BulkString("dbfilename")
		_ = w.BulkString(dbfilename)
	default:
		_ = w.Array(0)
	}
	return outcomeOK
}

func toStrings(args [][]byte) []string {
	out := make([]string, len(args))
	for i, a := range args {
		out[i] = string(a)
	}
	return out
}

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
