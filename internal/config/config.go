package config

import (
	"encoding/base64"
	"fmt"
	"time"
)

type Config struct {
	ServerAddr     string
	MongoURI       string
	MongoDatabase  string
	OpTimeout      time.Duration
	SigningKey     []byte
	AllowedOrigins []string
	MemoryStore    bool
}

func decodeSigningSecret(base64Secret string) ([]byte, error) {
	return base64.StdEncoding.DecodeString(base64Secret)
}

func NewConfig(serverAddr, mongoURI, mongoDatabase, base64Secret string, opTimeout time.Duration, allowedOrigins []string, memoryStore bool) (*Config, error) {
	if serverAddr == "" {
		return nil, fmt.Errorf("server address cannot be empty")
	}
	if !memoryStore && mongoURI == "" {
		return nil, fmt.Errorf("mongo URI cannot be empty")
	}
	if !memoryStore && mongoDatabase == "" {
		return nil, fmt.Errorf("mongo database cannot be empty")
	}
	if base64Secret == "" {
		return nil, fmt.Errorf("signing secret cannot be empty")
	}
	if opTimeout <= 0 {
		opTimeout = 5 * time.Second
	}

	// Decode the base64 encoded signing secret
	signingKey, err := decodeSigningSecret(base64Secret)
	if err != nil {
		return nil, fmt.Errorf("decode signing secret: %w", err)
	}

	return &Config{
		ServerAddr:     serverAddr,
		MongoURI:       mongoURI,
		MongoDatabase:  mongoDatabase,
		OpTimeout:      opTimeout,
		SigningKey:     signingKey,
		AllowedOrigins: allowedOrigins,
		MemoryStore:    memoryStore,
	}, nil
}
