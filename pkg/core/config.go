package core

import (
	"time"

	"github.com/go-playground/validator/v10"
)

// Credentials holds the API credentials for private endpoints. UEX requires
// a superset of the usual key/secret pair: the trading password, the account
// country calling code, and the account phone number all participate in
// private calls.
type Credentials struct {
	// APIKey is the public API key identifier.
	APIKey string `json:"api_key"`
	// SecretKey is the shared secret appended to the signature base string.
	SecretKey string `json:"secret_key"`
	// TradePassword is the trading password set on the account.
	TradePassword string `json:"trade_password"`
	// CountryCode is the international calling code of the account phone
	// number (e.g., "86").
	CountryCode string `json:"country_code"`
	// PhoneNumber is the account phone number.
	PhoneNumber string `json:"phone_number"`
}

// Complete reports whether every required credential field is present.
// A private request must be rejected locally when any field is missing,
// before a signature-failure response can ever arrive.
func (c *Credentials) Complete() bool {
	if c == nil {
		return false
	}
	return c.APIKey != "" &&
		c.SecretKey != "" &&
		c.TradePassword != "" &&
		c.CountryCode != "" &&
		c.PhoneNumber != ""
}

// MissingFields returns the names of required credential fields that are
// empty, in a fixed order, for use in error messages.
func (c *Credentials) MissingFields() []string {
	var missing []string
	if c == nil {
		return []string{"api_key", "secret_key", "trade_password", "country_code", "phone_number"}
	}
	if c.APIKey == "" {
		missing = append(missing, "api_key")
	}
	if c.SecretKey == "" {
		missing = append(missing, "secret_key")
	}
	if c.TradePassword == "" {
		missing = append(missing, "trade_password")
	}
	if c.CountryCode == "" {
		missing = append(missing, "country_code")
	}
	if c.PhoneNumber == "" {
		missing = append(missing, "phone_number")
	}
	return missing
}

// Config contains all configuration options for an exchange session.
type Config struct {
	Exchange    string       `json:"exchange" validate:"required"`
	Credentials *Credentials `json:"credentials,omitempty"`

	// BaseURL overrides the protocol's production URL. Used by tests and
	// by deployments routed through a proxy.
	BaseURL string `json:"base_url" validate:"omitempty,url"`

	// Timeout is the maximum duration for HTTP requests.
	Timeout      time.Duration `json:"timeout" validate:"min=1ms"`
	MaxRetries   int           `json:"max_retries" validate:"min=0"`
	RetryWaitMin time.Duration `json:"retry_wait_min" validate:"min=0"`
	RetryWaitMax time.Duration `json:"retry_wait_max" validate:"min=0"`

	RateLimitRequests int           `json:"rate_limit_requests" validate:"min=1"`
	RateLimitPeriod   time.Duration `json:"rate_limit_period" validate:"min=1ms"`

	CircuitBreakerEnabled          bool          `json:"circuit_breaker_enabled"`
	CircuitBreakerFailThreshold    int           `json:"circuit_breaker_fail_threshold" validate:"required_if=CircuitBreakerEnabled true,omitempty,min=1"`
	CircuitBreakerSuccessThreshold int           `json:"circuit_breaker_success_threshold" validate:"required_if=CircuitBreakerEnabled true,omitempty,min=1"`
	CircuitBreakerTimeout          time.Duration `json:"circuit_breaker_timeout" validate:"required_if=CircuitBreakerEnabled true,omitempty,min=1ms"`

	LogLevel string `json:"log_level" validate:"omitempty,oneof=debug info warn error"`
}

// DefaultConfig returns a Config initialized with sensible defaults for the
// specified exchange: 10s timeout, no internal retries, 600 requests per
// minute, circuit breaker with 5 failures/2 successes/30s timeout.
func DefaultConfig(exchange string) *Config {
	return &Config{
		Exchange: exchange,

		Timeout:      10 * time.Second,
		MaxRetries:   0,
		RetryWaitMin: 100 * time.Millisecond,
		RetryWaitMax: 1 * time.Second,

		RateLimitRequests: 600,
		RateLimitPeriod:   time.Minute,

		CircuitBreakerEnabled:          true,
		CircuitBreakerFailThreshold:    5,
		CircuitBreakerSuccessThreshold: 2,
		CircuitBreakerTimeout:          30 * time.Second,

		LogLevel: "info",
	}
}

var validate = validator.New()

// Validate checks the config against its struct tags.
func (c *Config) Validate() error {
	return validate.Struct(c)
}

// WithCredentials sets the API credentials and returns the config for chaining.
func (c *Config) WithCredentials(creds *Credentials) *Config {
	c.Credentials = creds
	return c
}

// WithBaseURL overrides the API base URL and returns the config for chaining.
func (c *Config) WithBaseURL(url string) *Config {
	c.BaseURL = url
	return c
}

// WithTimeout sets the request timeout and returns the config for chaining.
func (c *Config) WithTimeout(timeout time.Duration) *Config {
	c.Timeout = timeout
	return c
}

// WithRateLimit sets the rate limiting parameters and returns the config for chaining.
func (c *Config) WithRateLimit(requests int, period time.Duration) *Config {
	c.RateLimitRequests = requests
	c.RateLimitPeriod = period
	return c
}
