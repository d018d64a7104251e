package config

import (
	"errors"
	"fmt"
	"io/ioutil"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v2"

	"firealarm/logger"
)

var Config *ServerCfg

const (
	defaultAddr         = "0.0.0.0:7700"
	defaultArmDelay     = time.Minute
	defaultListLimit    = 100
	defaultStoreTimeout = 5 * time.Second
	defaultTokenTTL     = 48 * time.Hour
)

// lockTTL defaults to this many storeTimeouts.
const lockTTLFactor = 3

// Load reads the yaml file at path and fills in defaults for everything left out.
func Load(path string) (*ServerCfg, error) {
	log := logger.Log.WithFields(logrus.Fields{"func": "config", "path": path})
	configFile, err := ioutil.ReadFile(path)
	if err != nil {
		log.Error("Can't read the config file: ", err)
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(configFile)
}

func Parse(data []byte) (*ServerCfg, error) {
	var cfg ServerCfg
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		logger.Log.WithFields(logrus.Fields{"func": "config"}).Error("Config file format error: ", err)
		return nil, fmt.Errorf("config format: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *ServerCfg) applyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = defaultAddr
	}
	if c.Alarm.ArmDelay == 0 {
		c.Alarm.ArmDelay = defaultArmDelay
	}
	if c.Alarm.ListLimit == 0 {
		c.Alarm.ListLimit = defaultListLimit
	}
	if c.Alarm.StoreTimeout == 0 {
		c.Alarm.StoreTimeout = defaultStoreTimeout
	}
	if c.Alarm.LockTTL == 0 {
		c.Alarm.LockTTL = lockTTLFactor * c.Alarm.StoreTimeout
	}
	if c.Auth.TokenTTL == 0 {
		c.Auth.TokenTTL = defaultTokenTTL
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

func (c *ServerCfg) validate() error {
	if c.Alarm.ArmDelay < 0 {
		return errors.New("config: alarm.armDelay must not be negative")
	}
	if c.Alarm.ListLimit < 0 {
		return errors.New("config: alarm.listLimit must not be negative")
	}
	if c.Alarm.StoreTimeout < 0 {
		return errors.New("config: alarm.storeTimeout must not be negative")
	}
	// A device lock must outlive the read and write done while holding it.
	if c.Alarm.LockTTL <= 2*c.Alarm.StoreTimeout {
		return fmt.Errorf("config: alarm.lockTTL (%s) must be longer than twice alarm.storeTimeout (%s)",
			c.Alarm.LockTTL, c.Alarm.StoreTimeout)
	}
	if c.Auth.Enabled && c.Auth.Secret == "" {
		return errors.New("config: auth.secret is required when auth is enabled")
	}
	return nil
}
