package config

import (
	"github.com/gotify/configor"
)

var Conf *Configuration

type Configuration struct {
	App struct {
		ListenAddr string `default:"" env:"APP_HOST"`
		Port       int    `default:"8080"  env:"APP_PORT"`
	}
	Database struct {
		Host           string `default:"127.0.0.1" env:"DB_HOST"`
		Port           string `default:"5432" env:"DB_PORT"`
		Name           string `default:"onboarding" env:"DB_NAME"`
		User           string `default:"postgres" env:"DB_USER"`
		Password       string `default:"postgres" env:"DB_PASSWORD"`
		MigrateOnStart *bool  `default:"true" env:"DB_MIGRATE_ON_START"`
		DebugMode      *bool  `default:"false" env:"DB_DEBUG_MODE"`
	}
	Auth struct {
		JWTSecret string `default:"change-me" env:"JWT_SECRET"`
	}
	Smtp struct {
		User              string `default:"" env:"SMTP_USER"`
		Password          string `default:"" env:"SMTP_PASSWORD"`
		Host              string `default:"" env:"SMTP_HOST"`
		Port              string `default:"" env:"SMTP_PORT"`
		TLSEnabled        *bool  `default:"true" env:"SMTP_TLS_ENABLED"`
		EmailFrom         string `default:"" env:"EMAIL_FROM"`
		DomainForFormLink string `default:"http://localhost:8000" env:"DOMAIN_FOR_FORM_LINK"`
	}
	S3 struct {
		Endpoint        string `default:"127.0.0.1:9000" env:"S3_ENDPOINT"`
		AccessKeyID     string `default:"" env:"S3_ACCESS_KEY_ID"`
		SecretAccessKey string `default:"" env:"S3_SECRET_ACCESS_KEY"`
		UseSSL          *bool  `default:"false" env:"S3_USE_SSL"`
		BucketName      string `default:"onboarding-documents" env:"S3_BUCKET_NAME"`
	}
	OCR struct {
		Endpoint     string `default:"" env:"OCR_ENDPOINT"`
		TimeoutInSec int    `default:"15" env:"OCR_TIMEOUT_IN_SEC"`
		YandexToken  string `default:"" env:"OCR_YANDEX_TOKEN"`
		YandexFolder string `default:"" env:"OCR_YANDEX_FOLDER"`
	}
	Onboarding struct {
		SessionTTLDays              int `default:"7" env:"ONBOARDING_SESSION_TTL_DAYS"`
		ManagerDeadlineBusinessDays int `default:"3" env:"MANAGER_DEADLINE_BUSINESS_DAYS"`
		// fail-closed blocks late manager verification, fail-open only records it
		ManagerDeadlineFailClosed *bool  `default:"false" env:"MANAGER_DEADLINE_FAIL_CLOSED"`
		FormUpdateTTLHours        int    `default:"24" env:"FORM_UPDATE_TTL_HOURS"`
		HRMailbox                 string `default:"" env:"HR_MAILBOX"`
	}
}

func configFiles() []string {
	return []string{"config.yml"}
}

func InitConfig() {
	if Conf != nil {
		return
	}
	conf := new(Configuration)
	err := configor.New(&configor.Config{}).Load(conf, configFiles()...)
	if err != nil {
		panic(err)
	}
	Conf = conf
}
