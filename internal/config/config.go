/**
 * @description
 * This package handles configuration management for the fare-service. It uses
 * the Viper library to read configuration from environment variables, with
 * defaults that reproduce the published fare schedule, so a bare environment
 * boots a correctly priced service.
 *
 * @dependencies
 * - github.com/spf13/viper: A popular library for Go application configuration.
 */

package config

import (
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/transita/fare-service/internal/domain"
)

// Config holds all the configuration variables for the fare-service.
// Monetary values are in centavos, the smallest currency unit.
type Config struct {
	ServerPort        string `mapstructure:"SERVER_PORT"`
	RabbitMQURL       string `mapstructure:"RABBITMQ_URL"`
	FareEventExchange string `mapstructure:"FARE_EVENT_EXCHANGE"`
	InternalAPIKey    string `mapstructure:"INTERNAL_API_KEY"`

	DefaultTariff    int64  `mapstructure:"DEFAULT_TARIFF"`
	InterurbanTariff int64  `mapstructure:"INTERURBAN_TARIFF"`
	MaxBalance       int64  `mapstructure:"MAX_BALANCE"`
	DebtLimit        int64  `mapstructure:"DEBT_LIMIT"`
	AcceptedTopUps   string `mapstructure:"ACCEPTED_TOPUP_AMOUNTS"`

	// OverdraftPolicy selects what happens when a charge exceeds a positive
	// balance: "allow_debt" or "clamp_zero". The fare authority has shipped
	// both rules, so this stays an explicit knob.
	OverdraftPolicy string `mapstructure:"OVERDRAFT_POLICY"`

	TransferValidityMinutes int `mapstructure:"TRANSFER_VALIDITY_MINUTES"`
	HalfFareMinGapMinutes   int `mapstructure:"HALF_FARE_MIN_GAP_MINUTES"`
	DailyDiscountTrips      int `mapstructure:"DAILY_DISCOUNT_TRIPS"`

	// The franchise schedule (subsidized cards) and the transfer schedule
	// are independent windows; neither derives from the other. The franchise
	// window closes inclusively, the transfer window half-open.
	FranchiseWindowOpenHour  int `mapstructure:"FRANCHISE_WINDOW_OPEN_HOUR"`
	FranchiseWindowCloseHour int `mapstructure:"FRANCHISE_WINDOW_CLOSE_HOUR"`
	FranchiseWindowLastDay   int `mapstructure:"FRANCHISE_WINDOW_LAST_DAY"`
	TransferWindowOpenHour   int `mapstructure:"TRANSFER_WINDOW_OPEN_HOUR"`
	TransferWindowCloseHour  int `mapstructure:"TRANSFER_WINDOW_CLOSE_HOUR"`
	TransferWindowLastDay    int `mapstructure:"TRANSFER_WINDOW_LAST_DAY"`
}

// LoadConfig reads configuration from environment variables from the given path.
// It uses Viper to automatically bind environment variables to the Config struct.
func LoadConfig(path string) (config Config, err error) {
	// Tell viper the path to look for the optional .env file.
	viper.AddConfigPath(path)
	viper.SetConfigName(".env")
	viper.SetConfigType("env")

	// Enable automatic binding of environment variables.
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	defaults := domain.DefaultRules()

	// Set default values
	viper.SetDefault("SERVER_PORT", "8084")
	viper.SetDefault("FARE_EVENT_EXCHANGE", "transita.events")
	viper.SetDefault("DEFAULT_TARIFF", defaults.DefaultTariff)
	viper.SetDefault("INTERURBAN_TARIFF", defaults.InterurbanTariff)
	viper.SetDefault("MAX_BALANCE", defaults.MaxBalance)
	viper.SetDefault("DEBT_LIMIT", defaults.DebtLimit)
	viper.SetDefault("ACCEPTED_TOPUP_AMOUNTS", joinAmounts(defaults.AcceptedTopUps))
	viper.SetDefault("OVERDRAFT_POLICY", string(domain.OverdraftAllowDebt))
	viper.SetDefault("TRANSFER_VALIDITY_MINUTES", 60)
	viper.SetDefault("HALF_FARE_MIN_GAP_MINUTES", 5)
	viper.SetDefault("DAILY_DISCOUNT_TRIPS", defaults.DailyDiscountTrips)
	viper.SetDefault("FRANCHISE_WINDOW_OPEN_HOUR", 6)
	viper.SetDefault("FRANCHISE_WINDOW_CLOSE_HOUR", 22)
	viper.SetDefault("FRANCHISE_WINDOW_LAST_DAY", int(time.Friday))
	viper.SetDefault("TRANSFER_WINDOW_OPEN_HOUR", 7)
	viper.SetDefault("TRANSFER_WINDOW_CLOSE_HOUR", 22)
	viper.SetDefault("TRANSFER_WINDOW_LAST_DAY", int(time.Saturday))

	// Bind environment variables explicitly to ensure they appear in Unmarshal
	_ = viper.BindEnv("SERVER_PORT")
	_ = viper.BindEnv("RABBITMQ_URL")
	_ = viper.BindEnv("FARE_EVENT_EXCHANGE")
	_ = viper.BindEnv("INTERNAL_API_KEY")
	_ = viper.BindEnv("DEFAULT_TARIFF")
	_ = viper.BindEnv("INTERURBAN_TARIFF")
	_ = viper.BindEnv("MAX_BALANCE")
	_ = viper.BindEnv("DEBT_LIMIT")
	_ = viper.BindEnv("ACCEPTED_TOPUP_AMOUNTS")
	_ = viper.BindEnv("OVERDRAFT_POLICY")
	_ = viper.BindEnv("TRANSFER_VALIDITY_MINUTES")
	_ = viper.BindEnv("HALF_FARE_MIN_GAP_MINUTES")
	_ = viper.BindEnv("DAILY_DISCOUNT_TRIPS")
	_ = viper.BindEnv("FRANCHISE_WINDOW_OPEN_HOUR")
	_ = viper.BindEnv("FRANCHISE_WINDOW_CLOSE_HOUR")
	_ = viper.BindEnv("FRANCHISE_WINDOW_LAST_DAY")
	_ = viper.BindEnv("TRANSFER_WINDOW_OPEN_HOUR")
	_ = viper.BindEnv("TRANSFER_WINDOW_CLOSE_HOUR")
	_ = viper.BindEnv("TRANSFER_WINDOW_LAST_DAY")

	// Attempt to read the config file. It's okay if it doesn't exist.
	if err = viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Printf("level=warn component=config msg=\"failed to read config file; using environment values\" err=%v", err)
		}
	}

	// Unmarshal the configuration into the Config struct.
	err = viper.Unmarshal(&config)
	if err != nil {
		return
	}

	policy := domain.OverdraftPolicy(strings.TrimSpace(config.OverdraftPolicy))
	if policy != domain.OverdraftAllowDebt && policy != domain.OverdraftClampZero {
		log.Printf("level=warn component=config msg=\"unknown overdraft policy; using allow_debt\" value=%q", config.OverdraftPolicy)
		config.OverdraftPolicy = string(domain.OverdraftAllowDebt)
	}
	if config.TransferValidityMinutes <= 0 {
		config.TransferValidityMinutes = 60
	}
	if config.HalfFareMinGapMinutes < 0 {
		config.HalfFareMinGapMinutes = 5
	}
	if config.DailyDiscountTrips < 0 {
		config.DailyDiscountTrips = 0
	}

	return
}

// Rules builds the domain fare rules from the loaded configuration.
func (c Config) Rules() domain.Rules {
	rules := domain.DefaultRules()
	rules.DefaultTariff = c.DefaultTariff
	rules.InterurbanTariff = c.InterurbanTariff
	rules.MaxBalance = c.MaxBalance
	rules.DebtLimit = c.DebtLimit
	rules.Overdraft = domain.OverdraftPolicy(c.OverdraftPolicy)
	rules.TransferValidity = time.Duration(c.TransferValidityMinutes) * time.Minute
	rules.HalfFareMinGap = time.Duration(c.HalfFareMinGapMinutes) * time.Minute
	rules.DailyDiscountTrips = c.DailyDiscountTrips

	if amounts := parseAmounts(c.AcceptedTopUps); len(amounts) > 0 {
		rules.AcceptedTopUps = amounts
	}

	rules.FranchiseWindow = domain.TimeWindow{
		FirstDay:     time.Monday,
		LastDay:      time.Weekday(c.FranchiseWindowLastDay),
		Open:         time.Duration(c.FranchiseWindowOpenHour) * time.Hour,
		Close:        time.Duration(c.FranchiseWindowCloseHour) * time.Hour,
		IncludeClose: true,
	}
	rules.TransferWindow = domain.TimeWindow{
		FirstDay:     time.Monday,
		LastDay:      time.Weekday(c.TransferWindowLastDay),
		Open:         time.Duration(c.TransferWindowOpenHour) * time.Hour,
		Close:        time.Duration(c.TransferWindowCloseHour) * time.Hour,
		IncludeClose: false,
	}
	return rules
}

func joinAmounts(amounts []int64) string {
	parts := make([]string, len(amounts))
	for i, amount := range amounts {
		parts[i] = strconv.FormatInt(amount, 10)
	}
	return strings.Join(parts, ",")
}

func parseAmounts(raw string) []int64 {
	var amounts []int64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		amount, err := strconv.ParseInt(part, 10, 64)
		if err != nil || amount <= 0 {
			log.Printf("level=warn component=config msg=\"ignoring invalid top-up amount\" value=%q", part)
			continue
		}
		amounts = append(amounts, amount)
	}
	return amounts
}
