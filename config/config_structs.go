//go:generate app-config -input ./app.json -output ./config_structs.go -pkg config --struct BaseConfig -extension overrides.yml
//go:generate config-getters -input ./config_structs.go -output config_getters.go
package config

type BaseConfig struct {
	App         App         `json:"app" koanf:"app"`
	Server      Server      `json:"server" koanf:"server"`
	Auth        Auth        `json:"auth" koanf:"auth"`
	Persistence Persistence `json:"persistence" koanf:"persistence"`
	Uploads     Uploads     `json:"uploads" koanf:"uploads"`
}

type App struct {
	Name string `json:"name" koanf:"name"`
	Env  string `json:"env" koanf:"env"`
}

type Server struct {
	Host string `json:"host" koanf:"host"`
	Port int    `json:"port" koanf:"port"`
}

type Auth struct {
	SigningKey    string `json:"signing_key" koanf:"signing_key"`
	SigningMethod string `json:"signing_method" koanf:"signing_method"`
	TokenTTL      int    `json:"token_ttl" koanf:"token_ttl"`
	ContextKey    string `json:"context_key" koanf:"context_key"`
	TokenLookup   string `json:"token_lookup" koanf:"token_lookup"`
	AuthScheme    string `json:"auth_scheme" koanf:"auth_scheme"`
}

type Persistence struct {
	Debug                 bool   `json:"debug" koanf:"debug"`
	Driver                string `json:"driver" koanf:"driver"`
	DSN                   string `json:"dsn" koanf:"dsn"`
	PingTimeoutExpression string `json:"ping_timeout" koanf:"ping_timeout"`
}

type Uploads struct {
	Dir string `json:"dir" koanf:"dir"`
}
