package common

import (
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// flagKeys maps command-line flags onto config keys.
var flagKeys = map[string]string{
	"db-url":         "db.url",
	"http-addr":      "server.http_addr",
	"grpc-addr":      "server.grpc_addr",
	"openai-model":   "openai.model",
	"openai-api-key": "openai.api_key",
	"workers":        "queue.workers",
	"ocr":            "ocr.enabled",
	"watch-dir":      "watch.dir",
	"watch-owner":    "watch.owner_id",
	"log-level":      "log.level",
	"log-format":     "log.format",
}

// AddFlags registers the shared flags on fs. Flags left unset do not
// override the environment or the config file.
func AddFlags(fs *pflag.FlagSet) {
	fs.StringP("config", "c", "", "path to a YAML/JSON/TOML config file")
	fs.String("db-url", "", "database DSN (postgres://... or sqlite:<path>)")
	fs.String("http-addr", "", "HTTP listen address")
	fs.String("grpc-addr", "", "gRPC health listen address")
	fs.String("openai-model", "", "default model")
	fs.String("openai-api-key", "", "default API key used when an owner has none")
	fs.Int("workers", 0, "queue workers")
	fs.Bool("ocr", false, "read scanned pages with local tesseract when the model is unavailable")
	fs.String("watch-dir", "", "drop folder to watch for new survey files")
	fs.String("watch-owner", "", "owner id assigned to jobs from the drop folder")
	fs.String("log-level", "", "debug, info, warn or error")
	fs.String("log-format", "", "text or json")
}

// BindFlags binds the flags registered by AddFlags to v and selects the
// config file when --config was given.
func BindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	for name, key := range flagKeys {
		f := fs.Lookup(name)
		if f == nil || !f.Changed {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return NewAppError(CodeConfig, "bind flag "+name, err)
		}
	}
	if path, _ := fs.GetString("config"); path != "" {
		v.SetConfigFile(path)
	}
	return nil
}
