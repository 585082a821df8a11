// Copyright 2026 Converter Systems LLC. All rights reserved.

package session

import (
	"context"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/awcullen/opcua/ua"
	"github.com/awcullen/uaexplore/config"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gotest.tools/assert"
)

func TestSelectEndpoint(t *testing.T) {
	endpoints := []ua.EndpointDescription{
		{EndpointURL: "a", SecurityPolicyURI: ua.SecurityPolicyURINone, SecurityMode: ua.MessageSecurityModeNone, SecurityLevel: 0},
		{EndpointURL: "b", SecurityPolicyURI: ua.SecurityPolicyURIBasic256Sha256, SecurityMode: ua.MessageSecurityModeSign, SecurityLevel: 3},
		{EndpointURL: "c", SecurityPolicyURI: ua.SecurityPolicyURIBasic256Sha256, SecurityMode: ua.MessageSecurityModeSignAndEncrypt, SecurityLevel: 4},
		{EndpointURL: "d", SecurityPolicyURI: ua.SecurityPolicyURIBasic256Sha256, SecurityMode: ua.MessageSecurityModeSignAndEncrypt, SecurityLevel: 6},
	}
	cases := []struct {
		name   string
		policy string
		mode   ua.MessageSecurityMode
		want   string
	}{
		{"none", ua.SecurityPolicyURINone, ua.MessageSecurityModeNone, "a"},
		{"sign", ua.SecurityPolicyURIBasic256Sha256, ua.MessageSecurityModeSign, "b"},
		{"highest level", ua.SecurityPolicyURIBasic256Sha256, ua.MessageSecurityModeSignAndEncrypt, "d"},
		{"missing policy", ua.SecurityPolicyURIAes256Sha256RsaPss, ua.MessageSecurityModeSignAndEncrypt, ""},
		{"missing mode", ua.SecurityPolicyURINone, ua.MessageSecurityModeSign, ""},
	}
	for _, c := range cases {
		ep, err := selectEndpoint(endpoints, c.policy, c.mode)
		if c.want == "" {
			assert.Equal(t, errors.Cause(err), ErrNoEndpoint, c.name)
			continue
		}
		assert.NilError(t, err, c.name)
		assert.Equal(t, ep.EndpointURL, c.want, c.name)
	}
	_, err := selectEndpoint(nil, ua.SecurityPolicyURINone, ua.MessageSecurityModeNone)
	assert.ErrorContains(t, err, "offered: []")
}

func TestOptions(t *testing.T) {
	cases := []struct {
		name string
		cfg  config.Config
		want int
	}{
		{"anonymous without security", config.Config{SecurityPolicy: "None", SecurityMode: "None"}, 3},
		{"anonymous with security", config.Config{SecurityPolicy: "Basic256Sha256", SecurityMode: "SignAndEncrypt"}, 4},
		{"user", config.Config{SecurityPolicy: "Basic256Sha256", SecurityMode: "SignAndEncrypt", Username: "root", Password: "secret"}, 5},
		{"everything", config.Config{SecurityPolicy: "Basic256Sha256", SecurityMode: "Sign", Username: "root", InsecureSkipVerify: true, TrustedCertsFile: "trusted.pem", Timeout: time.Second}, 9},
	}
	for _, c := range cases {
		opts, err := Options(&c.cfg)
		assert.NilError(t, err, c.name)
		assert.Equal(t, len(opts), c.want, c.name)
	}
	_, err := Options(&config.Config{SecurityPolicy: "Basic512", SecurityMode: "None"})
	assert.ErrorContains(t, err, "unknown security policy")
}

func TestCertificate(t *testing.T) {
	dir := t.TempDir()
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	cfg := &config.Config{
		CertFile:        filepath.Join(dir, "client_cert.pem"),
		KeyFile:         filepath.Join(dir, "client_key.pem"),
		ApplicationURI:  "urn:localhost:uaexplore",
		ApplicationName: "uaexplore",
		HostName:        "localhost",
		CertDays:        30,
	}
	res, err := Certificate(cfg, logger)
	assert.NilError(t, err)
	assert.Assert(t, res.KeyGenerated)
	assert.Equal(t, res.Certificate.Subject.CommonName, "uaexplore")

	res, err = Certificate(cfg, logger)
	assert.NilError(t, err)
	assert.Assert(t, !res.CertificateGenerated)
}

func TestDialRejectsInvalidConfig(t *testing.T) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	_, err := Dial(context.Background(), &config.Config{ServerURL: "http://localhost", SecurityPolicy: "None", SecurityMode: "None"}, logger)
	assert.ErrorContains(t, err, "opc.tcp://")
}
