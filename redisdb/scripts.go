package redisdb

import "github.com/redis/go-redis/v9"

// putScript grava o registro inteiro. ARGV[1] = "1" torna a escrita
// condicional à ausência da chave; ARGV[2:] são pares campo/valor.
var putScript = redis.NewScript(`
if ARGV[1] == "1" and redis.call("EXISTS", KEYS[1]) == 1 then
	return 0
end
redis.call("DEL", KEYS[1])
redis.call("HSET", KEYS[1], unpack(ARGV, 2))
return 1
`)

// addScript aplica count += ARGV[1] e define modified_on = ARGV[2]. Registro
// ausente devolve nil (redis.Nil no cliente).
var addScript = redis.NewScript(`
if redis.call("EXISTS", KEYS[1]) == 0 then
	return false
end
local n = redis.call("HINCRBY", KEYS[1], "count", ARGV[1])
redis.call("HSET", KEYS[1], "modified_on", ARGV[2])
return {n, ARGV[2]}
`)
