package temporalx

import (
	"strings"
	"time"

	"github.com/yungbote/dojoquest-backend/internal/platform/envutil"
)

type Config struct {
	Address   string
	Namespace string
	TaskQueue string

	ClientCertPath string
	ClientKeyPath  string
	ClientCAPath   string

	AutoRegisterNamespace bool
	DialTimeout           time.Duration
	DialMaxWait           time.Duration
}

func LoadConfig() Config {
	return Config{
		Address:   strings.TrimSpace(envutil.String("TEMPORAL_ADDRESS", "")),
		Namespace: strings.TrimSpace(envutil.String("TEMPORAL_NAMESPACE", "dojoquest")),
		TaskQueue: strings.TrimSpace(envutil.String("TEMPORAL_TASK_QUEUE", "dojoquest-notify")),

		ClientCertPath: strings.TrimSpace(envutil.String("TEMPORAL_CLIENT_CERT_PATH", "")),
		ClientKeyPath:  strings.TrimSpace(envutil.String("TEMPORAL_CLIENT_KEY_PATH", "")),
		ClientCAPath:   strings.TrimSpace(envutil.String("TEMPORAL_CLIENT_CA_PATH", "")),

		AutoRegisterNamespace: envutil.Bool("TEMPORAL_AUTO_REGISTER_NAMESPACE", false),
		DialTimeout:           envutil.Seconds("TEMPORAL_DIAL_TIMEOUT_SECONDS", 5*time.Second),
		DialMaxWait:           envutil.Seconds("TEMPORAL_DIAL_MAX_WAIT_SECONDS", 60*time.Second),
	}
}

func (c Config) Enabled() bool { return c.Address != "" }

func (c Config) hasTLS() bool {
	return c.ClientCertPath != "" || c.ClientKeyPath != "" || c.ClientCAPath != ""
}
