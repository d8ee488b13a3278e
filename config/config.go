// Package config contains code to set the default values and read
// config files to be used throughout the whole application
package config

import (
	"errors"
	"fmt"
	"slices"

	"github.com/spf13/pflag"
	v "github.com/spf13/viper"
)

var validLogLevels = []string{"debug", "info", "warn", "error", "fatal"}

// Setup prepares everything config-related so that the app can
// start working. Function will return an error if something
// is critically wrong and the application can't run because of
// that.
func Setup() error {
	pflag.Parse()
	v.BindPFlags(pflag.CommandLine)

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")

	v.AutomaticEnv()

	//
	// ENVS
	//
	v.BindEnv("app.log_level", "app_log_level")

	v.BindEnv("host.port", "host_port")
	v.BindEnv("host.client_url", "host_client_url")

	v.BindEnv("db.driver", "db_driver")
	v.BindEnv("db.dsn", "db_dsn")

	v.BindEnv("aws.region", "aws_region")
	v.BindEnv("aws.access_key_id", "aws_access_key_id")
	v.BindEnv("aws.secret_access_key", "aws_secret_access_key")
	v.BindEnv("aws.bucket", "aws_bucket")
	v.BindEnv("aws.endpoint", "aws_endpoint")

	v.BindEnv("upload.max_size", "upload_max_size")

	v.BindEnv("storage.total_limit", "storage_total_limit")

	v.BindEnv("stripe.secret_key", "stripe_secret_key")
	v.BindEnv("stripe.plan_name", "stripe_plan_name")
	v.BindEnv("stripe.plan_amount", "stripe_plan_amount")

	v.BindEnv("sweep.enabled", "sweep_enabled")
	v.BindEnv("sweep.schedule", "sweep_schedule")
	v.BindEnv("sweep.grace_minutes", "sweep_grace_minutes")

	//
	// Defaults
	//
	v.SetDefault("app.log_level", "info")

	v.SetDefault("host.port", 4000)
	v.SetDefault("host.client_url", "http://localhost:5173")

	v.SetDefault("db.driver", "sqlite")
	v.SetDefault("db.dsn", "database.db")

	v.SetDefault("upload.max_size", 50)

	// Display-only limit shown by clients, in MiB. Nothing is enforced.
	v.SetDefault("storage.total_limit", 100)

	v.SetDefault("stripe.plan_name", "CloudBox Pro Plan - 50GB")
	v.SetDefault("stripe.plan_amount", 900)

	v.SetDefault("sweep.enabled", false)
	v.SetDefault("sweep.schedule", "@hourly")
	v.SetDefault("sweep.grace_minutes", 60)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(v.ConfigFileNotFoundError); ok {
			return errors.New("config.toml file is missing")
		}

		return fmt.Errorf("failed to read config file, %w", err)
	}

	if !slices.Contains(validLogLevels, v.GetString("app.log_level")) {
		return errors.New("invalid log level provided")
	}

	if v.GetInt("host.port") <= 0 {
		return errors.New("invalid port provided")
	}

	switch v.GetString("db.driver") {
	case "sqlite", "postgres":
	default:
		return errors.New("invalid db driver provided, must be sqlite or postgres")
	}

	if v.GetString("aws.region") == "" {
		return errors.New("aws region can't be empty")
	}
	if v.GetString("aws.access_key_id") == "" {
		return errors.New("aws access key id can't be empty")
	}
	if v.GetString("aws.secret_access_key") == "" {
		return errors.New("aws secret access key can't be empty")
	}
	if v.GetString("aws.bucket") == "" {
		return errors.New("bucket can't be empty")
	}

	if v.GetInt("upload.max_size") <= 0 {
		return errors.New("upload.max_size must be bigger than 0")
	}

	if v.GetInt("storage.total_limit") <= 0 {
		return errors.New("storage.total_limit must be bigger than 0")
	}

	if v.GetString("stripe.secret_key") == "" {
		return errors.New("stripe secret key can't be empty")
	}

	if v.GetBool("sweep.enabled") {
		if v.GetString("sweep.schedule") == "" {
			return errors.New("sweep schedule can't be empty")
		}
		if v.GetInt("sweep.grace_minutes") <= 0 {
			return errors.New("sweep grace period must be bigger than 0")
		}
	}

	v.Set("upload.max_size", v.GetInt64("upload.max_size")<<20)
	v.Set("storage.total_limit", v.GetInt64("storage.total_limit")<<20)
	return nil
}
