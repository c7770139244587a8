package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// StudentSessionKey returns the cache key for a student's login session
func (r *CacheKeyStruct) StudentSessionKey(userID string) string {
	return fmt.Sprintf("login:%s", userID)
}

// ExamMonitorChannel returns the Redis PubSub channel name for the live monitor
func (r *CacheKeyStruct) ExamMonitorChannel() string {
	return "exam:monitor"
}

var CacheKey = NewCacheKeyStruct()
