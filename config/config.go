package config

import (
	"fmt"
	"time"
)

func (c BaseConfig) Validate() error {
	if c.Auth.SigningKey == "" {
		return fmt.Errorf("auth.signing_key is required")
	}

	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("auth.token_ttl must be a positive number of seconds")
	}

	if c.Persistence.DSN == "" {
		return fmt.Errorf("persistence.dsn is required")
	}

	return nil
}

func (p Persistence) GetServer() string {
	return ""
}

func (p Persistence) GetOtelIdentifier() string {
	return ""
}

func (p Persistence) GetPingTimeout() time.Duration {
	dur, err := time.ParseDuration(p.PingTimeoutExpression)
	if err != nil {
		panic(
			fmt.Sprintf("unable to parse time: expr %s", p.PingTimeoutExpression),
		)
	}
	return dur
}
