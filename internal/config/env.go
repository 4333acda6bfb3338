package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type BaseEnv struct {
	Env      string `envconfig:"ENV" default:"local"`
	HTTPHost string `envconfig:"HTTP_HOST" default:""`
	HTTPPort string `envconfig:"HTTP_PORT" default:"3000"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"debug"`
	APIKey   string `envconfig:"API_KEY" required:"true"`
}

type LINEEnv struct {
	ChannelSecret string `envconfig:"LINE_CHANNEL_SECRET" required:"true"`
	ChannelToken  string `envconfig:"LINE_CHANNEL_TOKEN" required:"true"`
}

type StorageEnv struct {
	Type    string `envconfig:"STORAGE_TYPE" default:"local"`
	BaseDir string `envconfig:"STORAGE_BASE_DIR" default:".tasknag/data"`
	// S3 settings (used when Type == "s3")
	S3Bucket string `envconfig:"S3_BUCKET"`
	S3Prefix string `envconfig:"S3_PREFIX" default:"tasknag/"`
	S3Region string `envconfig:"S3_REGION" default:"ap-northeast-1"`
}

type ReminderEnv struct {
	// All deadline arithmetic runs in this one zone.
	Timezone      string        `envconfig:"TIMEZONE" default:"Asia/Tokyo"`
	NearWindow    time.Duration `envconfig:"NEAR_WINDOW" default:"10m"`
	SweepInterval time.Duration `envconfig:"SWEEP_INTERVAL" default:"1m"`
	// When >= 0, the sweep runs once a day at this local hour instead of
	// on the interval.
	SweepDailyHour int `envconfig:"SWEEP_DAILY_HOUR" default:"-1"`
}

type VAPIDEnv struct {
	VAPIDPublicKey  string `envconfig:"VAPID_PUBLIC_KEY"`
	VAPIDPrivateKey string `envconfig:"VAPID_PRIVATE_KEY"`
	VAPIDContact    string `envconfig:"VAPID_CONTACT"`
}

type Env struct {
	BaseEnv
	LINEEnv
	StorageEnv
	ReminderEnv
	VAPIDEnv
}

const namespace = "TASKNAG"

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

// Location resolves the configured reminder timezone.
func (e *ReminderEnv) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(e.Timezone)
	if err != nil {
		return nil, fmt.Errorf("failed to load timezone %q: %w", e.Timezone, err)
	}
	return loc, nil
}

func LINEEnvFromEnv(env *Env) *LINEEnv {
	return &env.LINEEnv
}

func VAPIDEnvFromEnv(env *Env) *VAPIDEnv {
	return &env.VAPIDEnv
}
