package core

import (
	"fmt"
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
	Config struct {
		Debug        bool
		TestMode     bool
		Env          string
		Build        string
		AppName      string
		SecretKey    string
		RollbarToken string
		Timezone     string
		Location     *time.Location
		WorkDir      string

		Server       ServerConfig
		Database     DatabaseConfig
		Redis        RedisConfig
		Mail         MailConfig
		SMS          SMSConfig
		Notification NotificationConfig
		Jobs         JobsConfig
	}

	ServerConfig struct {
		Address            string
		Host               string
		DebugHost          string
		ShutdownTimeout    time.Duration
		JWTExpirationDelta time.Duration
	}

	DatabaseConfig struct {
		Engine        string // memory | postgres
		Host          string
		Port          string
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		Name          string
		DisableTLS    bool
	}

	RedisConfig struct {
		Address     string
		Password    string
		DB          int
		SMSQueueKey string
	}

	MailConfig struct {
		DefaultFromEmail string
		AdminEmail       string
		SendgridAPIKey   string
	}

	SMSConfig struct {
		Provider                  string // console | twilio | queue
		TwilioAccountSID          string
		TwilioAuthToken           string
		TwilioFrom                string
		TwilioMessagingServiceSID string
	}

	NotificationConfig struct {
		DefaultAdminID  string
		DispatchTimeout time.Duration
	}

	JobsConfig struct {
		SweepEnabled      bool
		LateSweepInterval time.Duration
		LateSweepTimeout  time.Duration
		ReminderSchedule  string // cron spec for the daily reminders
	}
)

func (c DatabaseConfig) Address() string {
	return c.Host + ":" + c.Port
}

func (c MailConfig) DefaultFrom() mail.Address {
	return mail.Address{Name: "Hostel Outpass", Address: c.DefaultFromEmail}
}

func (c MailConfig) Admin() mail.Address {
	return mail.Address{Name: "Hostel Office", Address: c.AdminEmail}
}

func NewConfig() *Config {
	v := viper.New()

	// defaults
	v.SetTypeByDefaultValue(true)
	v.SetDefault("debug", true)
	v.SetDefault("build", "dev")
	v.SetDefault("appName", "Hostel Outpass")
	v.SetDefault("secretKey", "k3u9-x!c2m0w@7dz&hostel+outpass=q5t(8n)r#1pe")
	v.SetDefault("rollbarToken", "")
	v.SetDefault("timezone", "Asia/Kolkata")

	v.SetDefault("server.address", ":8000")
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.debugHost", ":4000")
	v.SetDefault("server.shutdownTimeout", 5*time.Second)
	v.SetDefault("server.jwtExpirationDelta", 7*24*time.Hour)

	v.SetDefault("database.engine", "memory")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.user", "outpass")
	v.SetDefault("database.password", "outpass")
	v.SetDefault("database.adminUser", "")
	v.SetDefault("database.adminPassword", "")
	v.SetDefault("database.name", "outpass")
	v.SetDefault("database.disableTLS", true)

	v.SetDefault("redis.address", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.smsQueueKey", "outpass:sms")

	v.SetDefault("mail.defaultFromEmail", "noreply@localhost")
	v.SetDefault("mail.adminEmail", "hostel-office@localhost")
	v.SetDefault("mail.sendgridApiKey", "")

	v.SetDefault("sms.provider", "console")
	v.SetDefault("sms.twilioAccountSid", "")
	v.SetDefault("sms.twilioAuthToken", "")
	v.SetDefault("sms.twilioFrom", "")
	v.SetDefault("sms.twilioMessagingServiceSid", "")

	v.SetDefault("notification.defaultAdminId", "AD-001")
	v.SetDefault("notification.dispatchTimeout", 10*time.Second)

	v.SetDefault("jobs.sweepEnabled", true)
	v.SetDefault("jobs.lateSweepInterval", 5*time.Minute)
	v.SetDefault("jobs.lateSweepTimeout", 30*time.Second)
	v.SetDefault("jobs.reminderSchedule", "0 8 * * *") // cron spec, in Timezone

	env := strings.ToUpper(os.Getenv("ENV")) // DEV (local; default), TEST, QA, PROD
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
		Debug:        v.GetBool("debug"),
		TestMode:     v.GetBool("testMode"),
		Env:          env,
		Build:        v.GetString("build"),
		AppName:      v.GetString("appName"),
		SecretKey:    v.GetString("secretKey"),
		RollbarToken: v.GetString("rollbarToken"),
		Timezone:     v.GetString("timezone"),
		WorkDir:      wd,
		Server: ServerConfig{
			Address:            v.GetString("server.address"),
			Host:               v.GetString("server.host"),
			DebugHost:          v.GetString("server.debugHost"),
			ShutdownTimeout:    v.GetDuration("server.shutdownTimeout"),
			JWTExpirationDelta: v.GetDuration("server.jwtExpirationDelta"),
		},
		Database: DatabaseConfig{
			Engine:        v.GetString("database.engine"),
			Host:          v.GetString("database.host"),
			Port:          v.GetString("database.port"),
			User:          v.GetString("database.user"),
			Password:      v.GetString("database.password"),
			AdminUser:     v.GetString("database.adminUser"),
			AdminPassword: v.GetString("database.adminPassword"),
			Name:          v.GetString("database.name"),
			DisableTLS:    v.GetBool("database.disableTLS"),
		},
		Redis: RedisConfig{
			Address:     v.GetString("redis.address"),
			Password:    v.GetString("redis.password"),
			DB:          v.GetInt("redis.db"),
			SMSQueueKey: v.GetString("redis.smsQueueKey"),
		},
		Mail: MailConfig{
			DefaultFromEmail: v.GetString("mail.defaultFromEmail"),
			AdminEmail:       v.GetString("mail.adminEmail"),
			SendgridAPIKey:   v.GetString("mail.sendgridApiKey"),
		},
		SMS: SMSConfig{
			Provider:                  v.GetString("sms.provider"),
			TwilioAccountSID:          v.GetString("sms.twilioAccountSid"),
			TwilioAuthToken:           v.GetString("sms.twilioAuthToken"),
			TwilioFrom:                v.GetString("sms.twilioFrom"),
			TwilioMessagingServiceSID: v.GetString("sms.twilioMessagingServiceSid"),
		},
		Notification: NotificationConfig{
			DefaultAdminID:  v.GetString("notification.defaultAdminId"),
			DispatchTimeout: v.GetDuration("notification.dispatchTimeout"),
		},
		Jobs: JobsConfig{
			SweepEnabled:      v.GetBool("jobs.sweepEnabled"),
			LateSweepInterval: v.GetDuration("jobs.lateSweepInterval"),
			LateSweepTimeout:  v.GetDuration("jobs.lateSweepTimeout"),
			ReminderSchedule:  v.GetString("jobs.reminderSchedule"),
		},
	}

	loc, err := time.LoadLocation(conf.Timezone)
	if err != nil {
		log.Print(fmt.Errorf("config.LoadLocation(%s): %v; falling back to UTC", conf.Timezone, err))
		loc = time.UTC
	}
	conf.Location = loc
	return conf
}
