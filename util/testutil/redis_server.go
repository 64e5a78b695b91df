package testutil

import (
	"github.com/alicebob/miniredis/v2"
)

// RedisServer is an in-memory Redis for tests.
type RedisServer struct {
	server *miniredis.Miniredis
}

func NewRedisServer() *RedisServer {
	server, err := miniredis.Run()
	if err != nil {
		panic(err)
	}
	return &RedisServer{
		server: server,
	}
}

func (s *RedisServer) Addr() string {
	return s.server.Addr()
}

// Flush removes all keys, so each test can start clean.
func (s *RedisServer) Flush() {
	s.server.FlushAll()
}

func (s *RedisServer) Close() {
	s.server.Close()
}
