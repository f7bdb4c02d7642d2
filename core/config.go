package core

import (
	"log"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	ServerConfig struct {
		Host            string
		DebugHost       string
		ShutdownTimeout time.Duration
	}

	DatabaseConfig struct {
		Engine        string // postgres, pgx, sqlite or memory
		Host          string
		Name          string
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		DisableTLS    bool
		Path          string // sqlite file
	}

	BlobConfig struct {
		Driver    string // fs or s3
		Root      string
		Bucket    string
		Region    string
		Endpoint  string
		PathStyle bool

		AccessKeyID     string
		SecretAccessKey string
	}

	Config struct {
		Env      string
		Build    string
		WorkDir  string
		Debug    bool
		TestMode bool

		AppName             string
		RollbarToken        string
		DefaultFromEmail    mail.Address
		SendgridAPIKey      string
		ArchiveNotifyEmails []mail.Address

		Server   ServerConfig
		Database DatabaseConfig
		Blob     BlobConfig
	}
)

// NewConfig loads the configuration from defaults, the `config/.env.<env>` file when present
// and environment variables prefixed with the env name (e.g. DEV_DATABASE_ENGINE).
func NewConfig() *Config {
	v := viper.New()

	// defaults
	v.SetTypeByDefaultValue(true)
	v.SetDefault("debug", true)
	v.SetDefault("testMode", false)
	v.SetDefault("build", "dev")
	v.SetDefault("appName", "Registro")
	v.SetDefault("rollbarToken", "")
	v.SetDefault("defaultFromEmail", "noreply@localhost")
	v.SetDefault("sendgridApiKey", "")
	v.SetDefault("archiveNotifyEmails", "")
	v.SetDefault("server.host", "0.0.0.0:8000")
	v.SetDefault("server.debugHost", "0.0.0.0:4000")
	v.SetDefault("server.shutdownTimeout", 5*time.Second)
	v.SetDefault("database.engine", "postgres")
	v.SetDefault("database.host", "localhost:5432")
	v.SetDefault("database.name", "registro")
	v.SetDefault("database.user", "registro")
	v.SetDefault("database.password", "")
	v.SetDefault("database.adminUser", "postgres")
	v.SetDefault("database.adminPassword", "")
	v.SetDefault("database.disableTLS", true)
	v.SetDefault("database.path", "registro.db")
	v.SetDefault("blob.driver", "fs")
	v.SetDefault("blob.root", "exports")
	v.SetDefault("blob.bucket", "")
	v.SetDefault("blob.region", "us-east-1")
	v.SetDefault("blob.endpoint", "")
	v.SetDefault("blob.pathStyle", false)
	v.SetDefault("blob.accessKeyId", "")
	v.SetDefault("blob.secretAccessKey", "")

	env := os.Getenv("ENV") // DEV (local; default), TEST, QA, PROD
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		v.SetDefault("testMode", true)
	}
	v.SetEnvPrefix(env)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	wd := Getwd()

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(wd, "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	v.AutomaticEnv()

	conf := &Config{
		Env:            env,
		Build:          v.GetString("build"),
		WorkDir:        wd,
		Debug:          v.GetBool("debug"),
		TestMode:       v.GetBool("testMode"),
		AppName:        v.GetString("appName"),
		RollbarToken:   v.GetString("rollbarToken"),
		SendgridAPIKey: v.GetString("sendgridApiKey"),
		Server: ServerConfig{
			Host:            v.GetString("server.host"),
			DebugHost:       v.GetString("server.debugHost"),
			ShutdownTimeout: v.GetDuration("server.shutdownTimeout"),
		},
		Database: DatabaseConfig{
			Engine:        strings.ToLower(v.GetString("database.engine")),
			Host:          v.GetString("database.host"),
			Name:          v.GetString("database.name"),
			User:          v.GetString("database.user"),
			Password:      v.GetString("database.password"),
			AdminUser:     v.GetString("database.adminUser"),
			AdminPassword: v.GetString("database.adminPassword"),
			DisableTLS:    v.GetBool("database.disableTLS"),
			Path:          v.GetString("database.path"),
		},
		Blob: BlobConfig{
			Driver:    strings.ToLower(v.GetString("blob.driver")),
			Root:      v.GetString("blob.root"),
			Bucket:    v.GetString("blob.bucket"),
			Region:    v.GetString("blob.region"),
			Endpoint:  v.GetString("blob.endpoint"),
			PathStyle: v.GetBool("blob.pathStyle"),

			AccessKeyID:     v.GetString("blob.accessKeyId"),
			SecretAccessKey: v.GetString("blob.secretAccessKey"),
		},
	}

	from, err := mail.ParseAddress(v.GetString("defaultFromEmail"))
	if err != nil {
		log.Fatalf("config.defaultFromEmail: %v", err)
	}
	conf.DefaultFromEmail = *from

	conf.ArchiveNotifyEmails, err = ParseAddressList(v.GetString("archiveNotifyEmails"))
	if err != nil {
		log.Fatalf("config.archiveNotifyEmails: %v", err)
	}
	return conf
}

// ParseAddressList parses a comma separated list of email addresses. A blank list yields no address.
func ParseAddressList(list string) ([]mail.Address, error) {
	if IsBlank(list) {
		return nil, nil
	}
	parsed, err := mail.ParseAddressList(list)
	if err != nil {
		return nil, err
	}
	addrs := make([]mail.Address, 0, len(parsed))
	for _, a := range parsed {
		addrs = append(addrs, *a)
	}
	return addrs, nil
}
