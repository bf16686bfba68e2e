package config

import (
	"github.com/OldStager01/dpf-rul/pkg/database"
)

func (d DatabaseConfig) ToDBConfig() database.Config {
	return database.Config{
		Driver:          d.Driver,
		DSN:             d.DSN(),
		MaxConnections:  d.MaxConnections,
		ConnMaxLifetime: d.ConnMaxLifetime,
		ConnMaxIdleTime: d.ConnMaxIdleTime,
		PingTimeout:     d.PingTimeout,
	}
}
