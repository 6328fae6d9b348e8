package config

import "time"

type Config struct {
	Server Server
	Gemini Gemini
	Docs   Docs
	Mongo  Mongo
}

type Server struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type Gemini struct {
	APIKey          string
	BaseURL         string
	Model           string
	MaxOutputTokens int
	Temperature     float64
	Timeout         time.Duration
}

type Docs struct {
	ServiceAccountFile string
	DocID              string
	BaseURL            string
	Timeout            time.Duration
}

// Mongo is optional: an empty URI selects the in-memory salvage store.
type Mongo struct {
	URI      string
	Database string
}
