package database

import coreconfig "github.com/m3rciful/celebguess/core/config"

// Config holds Postgres connection settings.
type Config = coreconfig.DatabaseConfig
