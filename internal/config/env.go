package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type BaseEnv struct {
	Env       string `envconfig:"ENV" default:"local"`
	HTTPHost  string `envconfig:"HTTP_HOST" default:"localhost"`
	HTTPPort  int    `envconfig:"HTTP_PORT" default:"8900"`
	LogLevel  string `envconfig:"LOG_LEVEL" default:"debug"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"text"`
}

type StorageEnv struct {
	Type    string `envconfig:"STORAGE_TYPE" default:"local"`
	BaseDir string `envconfig:"STORAGE_BASE_DIR" default:".missiond/data"`
	// S3 settings (used when Type == "s3")
	S3Bucket string `envconfig:"S3_BUCKET"`
	S3Prefix string `envconfig:"S3_PREFIX" default:"missiond/"`
	S3Region string `envconfig:"S3_REGION" default:"us-east-1"`
}

type MissionEnv struct {
	// Sync intervals for the background context sync worker.
	SyncInterval      time.Duration `envconfig:"SYNC_INTERVAL" default:"30s"`
	SyncErrorInterval time.Duration `envconfig:"SYNC_ERROR_INTERVAL" default:"60s"`
	// WatchLoadouts enables the on-disk loadout definition watcher. Changes
	// are only logged; reloading stays an explicit operation.
	WatchLoadouts bool   `envconfig:"WATCH_LOADOUTS" default:"false"`
	LoadoutDir    string `envconfig:"LOADOUT_DIR" default:".missiond/data/loadouts"`
}

type Env struct {
	BaseEnv
	StorageEnv
	MissionEnv
}

const namespace = "MISSIOND"

func LoadEnv() (*Env, error) {
	var env Env
	if err := envconfig.Process(namespace, &env); err != nil {
		return nil, fmt.Errorf("failed to load env: %w", err)
	}
	return &env, nil
}

func (e *BaseEnv) SlogLevel() slog.Level {
	if e == nil {
		return slog.LevelDebug
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(e.LogLevel)); err != nil {
		return slog.LevelDebug
	}
	return level
}
