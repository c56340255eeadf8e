package config

import (
	"fmt"
	"time"
)

type ServerConfig struct {
	HTTP         HTTPConfig    `mapstructure:"http"`
	GRPC         GRPCConfig    `mapstructure:"grpc"`
	CORS         CORSConfig    `mapstructure:"cors"`
	ShutdownWait time.Duration `mapstructure:"shutdown_wait"`
}

type HTTPConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

func (c HTTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type GRPCConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Host    string `mapstructure:"host"`
	Port    int    `mapstructure:"port"`
}

func (c GRPCConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type CORSConfig struct {
	Origins []string `mapstructure:"origins"`
}
