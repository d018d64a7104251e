package config

import "time"

type ServerCfg struct {
	Server Server
	Alarm  Alarm
	MySql  MySql
	Redis  Redis
	Email  Email
	Auth   Auth
	Log    Log
}

type Server struct {
	Addr           string
	AllowedOrigins []string `yaml:"allowedOrigins"`
}

type Alarm struct {
	ArmDelay     time.Duration `yaml:"armDelay"`
	ListLimit    int           `yaml:"listLimit"`
	StoreTimeout time.Duration `yaml:"storeTimeout"`
	LockTTL      time.Duration `yaml:"lockTTL"`
}

// MySql is optional, an empty Addr selects the in-memory store.
type MySql struct {
	Addr     string
	Database string
	User     string
	Password string
}

// Redis is optional, an empty Addr selects in-process device locks and disables token records.
type Redis struct {
	Addr      string
	Databases struct {
		Lock  int
		Token int
	}
	Password string
}

type Email struct {
	User       string
	Password   string
	Name       string
	Host       string
	Port       int
	Recipients []string
}

type Auth struct {
	Enabled   bool
	Secret    string
	TokenTTL  time.Duration `yaml:"tokenTTL"`
	Operators []Operator
}

type Operator struct {
	Username     string
	PasswordHash string `yaml:"passwordHash"`
}

type Log struct {
	Level  string
	Format string
}
