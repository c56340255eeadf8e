// Package config 는 viper 로 YAML 설정 파일과 환경 변수를 읽어 구조체로 채웁니다.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// 설정 디렉토리 경로
const configDir = "configs"

// Options 는 Load 동작을 조정합니다.
type Options struct {
	// EnvPrefix 환경 변수 접두사 (예: FL_STRIPE -> FL_STRIPE_SERVER_HTTP_PORT)
	EnvPrefix string
	// Defaults 설정 파일과 환경 변수에 값이 없을 때 사용할 기본값
	Defaults map[string]interface{}
	// BindEnv 설정 키 -> 관례적인 환경 변수 이름 (예: stripe.api_key -> STRIPE_API_KEY)
	BindEnv map[string]string
	// File 지정 시 경로 탐색 대신 이 파일을 읽습니다.
	File string
	// Optional 이 true 이면 설정 파일이 없어도 에러가 아닙니다.
	Optional bool
}

// Load 는 configs/{APP_ENV}/{serviceName}.yaml 을 읽어 out 에 채웁니다.
// CONFIG_PATH 로 디렉토리를 바꿀 수 있고, 찾지 못하면 configs/example 을 시도합니다.
func Load(serviceName string, out interface{}, opts Options) error {
	v := viper.New()
	v.SetConfigType("yaml")

	for key, value := range opts.Defaults {
		v.SetDefault(key, value)
	}

	prefix := opts.EnvPrefix
	if prefix == "" {
		prefix = serviceName
	}
	v.SetEnvPrefix(strings.ToUpper(strings.ReplaceAll(prefix, "-", "_")))
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	for key, env := range opts.BindEnv {
		if err := v.BindEnv(key, env); err != nil {
			return fmt.Errorf("환경 변수 바인딩 실패 %s: %w", key, err)
		}
	}

	if err := readConfigFile(v, serviceName, opts); err != nil {
		return err
	}

	if err := v.Unmarshal(out); err != nil {
		return fmt.Errorf("설정 디코딩 실패: %w", err)
	}
	return nil
}

func readConfigFile(v *viper.Viper, serviceName string, opts Options) error {
	if opts.File != "" {
		v.SetConfigFile(opts.File)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("설정 파일 로드 실패: %w", err)
		}
		return nil
	}

	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "dev"
	}
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = filepath.Join(configDir, env)
	}

	v.SetConfigName(serviceName)
	v.AddConfigPath(configPath)
	v.AddConfigPath(filepath.Join(configDir, "example"))

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if opts.Optional && errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("설정 파일 로드 실패: %w", err)
	}
	return nil
}
