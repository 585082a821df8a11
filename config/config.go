// Copyright 2026 Converter Systems LLC. All rights reserved.

package config

import (
	"os"
	"strings"
	"time"

	"github.com/awcullen/opcua/ua"
	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Configuration keys.
const (
	KeyServerURL          = "server_url"
	KeyUsername           = "username"
	KeyPassword           = "password"
	KeyApplicationURI     = "app_uri"
	KeyApplicationName    = "app_name"
	KeyHostName           = "host_name"
	KeyCertFile           = "cert_file"
	KeyKeyFile            = "key_file"
	KeyCertDays           = "cert_days"
	KeySecurityPolicy     = "security_policy"
	KeySecurityMode       = "security_mode"
	KeyInsecureSkipVerify = "insecure_skip_verify"
	KeyTrustedCertsFile   = "trusted_certs_file"
	KeyTimeout            = "timeout"
	KeyPollInterval       = "poll_interval"
	KeyDetectCycles       = "detect_cycles"
	KeyLogLevel           = "log_level"
)

// EnvPrefix prefixes the environment variables of keys without a legacy name.
const EnvPrefix = "UAEXPLORE"

// legacyEnv maps keys to the environment variable names used by existing deployments.
var legacyEnv = map[string]string{
	KeyServerURL:      "SERVER_URL",
	KeyUsername:       "CLIENT_USERNAME",
	KeyPassword:       "CLIENT_PASSWORD",
	KeyApplicationURI: "APP_URI",
	KeyLogLevel:       "LOG_LEVEL",
}

// Config holds everything needed to create the client certificate and connect to a server.
type Config struct {
	ServerURL          string
	Username           string
	Password           string
	ApplicationURI     string
	ApplicationName    string
	HostName           string
	CertFile           string
	KeyFile            string
	CertDays           int
	SecurityPolicy     string
	SecurityMode       string
	InsecureSkipVerify bool
	TrustedCertsFile   string
	Timeout            time.Duration
	PollInterval       time.Duration
	DetectCycles       bool
	LogLevel           string
}

type flagDef struct {
	key   string
	usage string
	def   any
}

func defaultHostName() string {
	host, err := os.Hostname()
	if err != nil {
		return "localhost"
	}
	return host
}

func flagDefs() []flagDef {
	return []flagDef{
		{KeyServerURL, "endpoint url of the server, e.g. opc.tcp://localhost:49320", ""},
		{KeyUsername, "user name (anonymous if empty)", ""},
		{KeyPassword, "password of the user", ""},
		{KeyApplicationURI, "application uri of the client, also written to the certificate (default urn:<host-name>:<app-name>)", ""},
		{KeyApplicationName, "application name of the client", "uaexplore"},
		{KeyHostName, "host name written to the certificate", defaultHostName()},
		{KeyCertFile, "client certificate file", "certs/client_cert.pem"},
		{KeyKeyFile, "client private key file", "certs/client_key.pem"},
		{KeyCertDays, "validity of a generated certificate in days", 365},
		{KeySecurityPolicy, "security policy: None, Basic128Rsa15, Basic256, Basic256Sha256, Aes128Sha256RsaOaep, Aes256Sha256RsaPss", "Basic256Sha256"},
		{KeySecurityMode, "message security mode: None, Sign, SignAndEncrypt", "SignAndEncrypt"},
		{KeyInsecureSkipVerify, "skip verification of the server certificate", false},
		{KeyTrustedCertsFile, "file of trusted server certificates", ""},
		{KeyTimeout, "timeout of connecting and of each service request", 5 * time.Second},
		{KeyPollInterval, "interval between reads when watching a value", time.Second},
		{KeyDetectCycles, "fail when exploring into a node already on the path", false},
		{KeyLogLevel, "log level: trace, debug, info, warn, error", "warn"},
	}
}

// FlagName returns the command line flag of a key.
func FlagName(key string) string {
	return strings.ReplaceAll(key, "_", "-")
}

// EnvName returns the environment variable of a key.
func EnvName(key string) string {
	if name, ok := legacyEnv[key]; ok {
		return name
	}
	return EnvPrefix + "_" + strings.ToUpper(key)
}

// New returns a viper instance with the defaults and environment bindings of every key.
func New() *viper.Viper {
	v := viper.New()
	for _, f := range flagDefs() {
		v.SetDefault(f.key, f.def)
		v.BindEnv(f.key, EnvName(f.key))
	}
	return v
}

// BindFlags defines a flag on fs for every key and binds it to v.
func BindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	for _, f := range flagDefs() {
		name := FlagName(f.key)
		switch d := f.def.(type) {
		case string:
			fs.String(name, d, f.usage)
		case int:
			fs.Int(name, d, f.usage)
		case bool:
			fs.Bool(name, d, f.usage)
		case time.Duration:
			fs.Duration(name, d, f.usage)
		}
		if err := v.BindPFlag(f.key, fs.Lookup(name)); err != nil {
			return err
		}
	}
	return nil
}

// Load reads the dotenv file at envFile, if it exists, beneath the environment and flags,
// and returns the resulting configuration. Precedence is flag, environment, dotenv file, default.
func Load(v *viper.Viper, envFile string) (*Config, error) {
	if envFile != "" {
		if _, err := os.Stat(envFile); err == nil {
			dotenv := viper.New()
			dotenv.SetConfigFile(envFile)
			dotenv.SetConfigType("env")
			if err := dotenv.ReadInConfig(); err != nil {
				return nil, errors.Wrapf(err, "Error reading '%s'", envFile)
			}
			for _, f := range flagDefs() {
				if name := strings.ToLower(EnvName(f.key)); dotenv.IsSet(name) {
					v.SetDefault(f.key, dotenv.Get(name))
				}
			}
		}
	}

	c := &Config{
		ServerURL:          v.GetString(KeyServerURL),
		Username:           v.GetString(KeyUsername),
		Password:           v.GetString(KeyPassword),
		ApplicationURI:     v.GetString(KeyApplicationURI),
		ApplicationName:    v.GetString(KeyApplicationName),
		HostName:           v.GetString(KeyHostName),
		CertFile:           v.GetString(KeyCertFile),
		KeyFile:            v.GetString(KeyKeyFile),
		CertDays:           v.GetInt(KeyCertDays),
		SecurityPolicy:     v.GetString(KeySecurityPolicy),
		SecurityMode:       v.GetString(KeySecurityMode),
		InsecureSkipVerify: v.GetBool(KeyInsecureSkipVerify),
		TrustedCertsFile:   v.GetString(KeyTrustedCertsFile),
		Timeout:            v.GetDuration(KeyTimeout),
		PollInterval:       v.GetDuration(KeyPollInterval),
		DetectCycles:       v.GetBool(KeyDetectCycles),
		LogLevel:           v.GetString(KeyLogLevel),
	}
	if c.ApplicationURI == "" {
		c.ApplicationURI = "urn:" + c.HostName + ":" + c.ApplicationName
	}
	return c, nil
}

// Validate checks the settings needed to connect to a server.
func (c *Config) Validate() error {
	if c.ServerURL == "" {
		return errors.Errorf("server url is required (--%s or %s)", FlagName(KeyServerURL), EnvName(KeyServerURL))
	}
	if !strings.HasPrefix(c.ServerURL, "opc.tcp://") {
		return errors.Errorf("server url '%s' must start with opc.tcp://", c.ServerURL)
	}
	if _, err := c.SecurityPolicyURI(); err != nil {
		return err
	}
	if _, err := c.MessageSecurityMode(); err != nil {
		return err
	}
	return nil
}

// SecurityPolicyURI returns the uri of the configured security policy.
func (c *Config) SecurityPolicyURI() (string, error) {
	switch strings.ToLower(c.SecurityPolicy) {
	case "none":
		return ua.SecurityPolicyURINone, nil
	case "basic128rsa15":
		return ua.SecurityPolicyURIBasic128Rsa15, nil
	case "basic256":
		return ua.SecurityPolicyURIBasic256, nil
	case "basic256sha256":
		return ua.SecurityPolicyURIBasic256Sha256, nil
	case "aes128sha256rsaoaep":
		return ua.SecurityPolicyURIAes128Sha256RsaOaep, nil
	case "aes256sha256rsapss":
		return ua.SecurityPolicyURIAes256Sha256RsaPss, nil
	}
	return "", errors.Errorf("unknown security policy '%s'", c.SecurityPolicy)
}

// MessageSecurityMode returns the configured message security mode.
func (c *Config) MessageSecurityMode() (ua.MessageSecurityMode, error) {
	switch strings.ToLower(c.SecurityMode) {
	case "none":
		return ua.MessageSecurityModeNone, nil
	case "sign":
		return ua.MessageSecurityModeSign, nil
	case "signandencrypt":
		return ua.MessageSecurityModeSignAndEncrypt, nil
	}
	return ua.MessageSecurityModeInvalid, errors.Errorf("unknown security mode '%s'", c.SecurityMode)
}
