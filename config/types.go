package config

import "time"

type AppConfig struct {
	DBDriver       string            `yaml:"db_driver" env:"ARGUS_DB_DRIVER" env-default:"sqlite"`
	DBURL          string            `yaml:"db_url" env:"ARGUS_DB_URL"`
	DBPath         string            `yaml:"db_path" env:"ARGUS_DB_PATH" env-default:"data/argus.db"`
	ListenAddr     string            `yaml:"listen_addr" env:"ARGUS_LISTEN_ADDR" env-default:"0.0.0.0:7190"`
	OperatorToken  string            `yaml:"operator_token" env:"ARGUS_OPERATOR_TOKEN"`
	PasswordPepper string            `yaml:"password_pepper" env:"ARGUS_PASSWORD_PEPPER"`
	OperatorRoles  []string          `yaml:"operator_roles" env:"ARGUS_OPERATOR_ROLES" env-default:"admin"`
	Mail           MailConfig        `yaml:"mail"`
	Import         ImportConfig      `yaml:"import"`
	Maintenance    MaintenanceConfig `yaml:"maintenance"`
}

type MailConfig struct {
	Host     string `yaml:"host" env:"ARGUS_MAIL_HOST"`
	Port     int    `yaml:"port" env:"ARGUS_MAIL_PORT" env-default:"587"`
	Username string `yaml:"username" env:"ARGUS_MAIL_USERNAME"`
	Password string `yaml:"password" env:"ARGUS_MAIL_PASSWORD"`
	From     string `yaml:"from" env:"ARGUS_MAIL_FROM"`
}

// Configured reports whether password-reset mail can be sent at all. The
// console hides the "send reset email" path when this is false.
func (m MailConfig) Configured() bool {
	return m.Host != "" && m.From != ""
}

type ImportConfig struct {
	// Upper bound on the multipart request body; the per-file 2 MiB rule is
	// enforced client-side before the upload is ever issued.
	MaxUploadBytes int64 `yaml:"max_upload_bytes" env:"ARGUS_IMPORT_MAX_UPLOAD_BYTES" env-default:"10485760"`
}

type MaintenanceConfig struct {
	Enabled        bool          `yaml:"enabled" env:"ARGUS_MAINTENANCE_ENABLED" env-default:"true"`
	Spec           string        `yaml:"spec" env:"ARGUS_MAINTENANCE_SPEC" env-default:"@hourly"`
	AuditRetention time.Duration `yaml:"audit_retention" env:"ARGUS_AUDIT_RETENTION" env-default:"2160h"`
	LockExpiry     time.Duration `yaml:"lock_expiry" env:"ARGUS_LOCK_EXPIRY" env-default:"0"`
}
