// Copyright 2026 Converter Systems LLC. All rights reserved.

package session

import (
	"context"
	"fmt"
	"strings"

	"github.com/awcullen/opcua/client"
	"github.com/awcullen/opcua/ua"
	"github.com/awcullen/uaexplore/config"
	"github.com/awcullen/uaexplore/pki"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// ErrNoEndpoint is returned when the server offers no endpoint with the configured security.
var ErrNoEndpoint = errors.New("no endpoint with the requested security")

// Certificate ensures the client certificate and key of the configuration exist and are valid.
func Certificate(cfg *config.Config, logger logrus.FieldLogger) (*pki.Result, error) {
	res, err := pki.EnsureCertificate(pki.Options{
		CertFile:       cfg.CertFile,
		KeyFile:        cfg.KeyFile,
		ApplicationURI: cfg.ApplicationURI,
		CommonName:     cfg.ApplicationName,
		HostName:       cfg.HostName,
		ValidityDays:   cfg.CertDays,
	})
	if err != nil {
		return nil, errors.Wrap(err, "Error creating client certificate")
	}
	entry := logger.WithFields(logrus.Fields{
		"cert": cfg.CertFile,
		"key":  cfg.KeyFile,
		"uri":  cfg.ApplicationURI,
	})
	switch {
	case res.KeyGenerated:
		entry.Info("Generated new key and certificate")
	case res.CertificateGenerated:
		entry.Info("Generated new certificate")
	default:
		entry.Debug("Using existing certificate")
	}
	return res, nil
}

// Options returns the client options for the configuration.
func Options(cfg *config.Config) ([]client.Option, error) {
	policyURI, err := cfg.SecurityPolicyURI()
	if err != nil {
		return nil, err
	}
	mode, err := cfg.MessageSecurityMode()
	if err != nil {
		return nil, err
	}
	opts := []client.Option{
		client.WithSecurityPolicyURI(policyURI, mode),
		client.WithApplicationName(cfg.ApplicationName),
		client.WithSessionName(cfg.ApplicationName),
	}
	if policyURI != ua.SecurityPolicyURINone || cfg.Username != "" {
		opts = append(opts, client.WithClientCertificatePaths(cfg.CertFile, cfg.KeyFile))
	}
	if cfg.Username != "" {
		opts = append(opts, client.WithUserNameIdentity(cfg.Username, cfg.Password))
	}
	if cfg.InsecureSkipVerify {
		opts = append(opts, client.WithInsecureSkipVerify())
	}
	if cfg.TrustedCertsFile != "" {
		opts = append(opts, client.WithTrustedCertificatesPaths(cfg.TrustedCertsFile, ""))
	}
	if ms := cfg.Timeout.Milliseconds(); ms > 0 {
		opts = append(opts, client.WithConnectTimeout(ms), client.WithTimeoutHint(uint32(ms)))
	}
	return opts, nil
}

// selectEndpoint returns the most secure endpoint with the given policy and mode.
func selectEndpoint(endpoints []ua.EndpointDescription, policyURI string, mode ua.MessageSecurityMode) (ua.EndpointDescription, error) {
	var best ua.EndpointDescription
	found := false
	for _, e := range endpoints {
		if e.SecurityPolicyURI != policyURI || e.SecurityMode != mode {
			continue
		}
		if !found || e.SecurityLevel > best.SecurityLevel {
			best = e
			found = true
		}
	}
	if !found {
		offered := make([]string, 0, len(endpoints))
		for _, e := range endpoints {
			offered = append(offered, strings.TrimPrefix(e.SecurityPolicyURI, "http://opcfoundation.org/UA/SecurityPolicy#")+"/"+fmt.Sprint(e.SecurityMode))
		}
		return best, errors.Wrapf(ErrNoEndpoint, "offered: [%s]", strings.Join(offered, ", "))
	}
	return best, nil
}

// Dial creates the client certificate if needed, checks that the server offers an
// endpoint with the configured security, and opens a session.
func Dial(ctx context.Context, cfg *config.Config, logger logrus.FieldLogger) (*client.Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if _, err := Certificate(cfg, logger); err != nil {
		return nil, err
	}
	opts, err := Options(cfg)
	if err != nil {
		return nil, err
	}
	policyURI, _ := cfg.SecurityPolicyURI()
	mode, _ := cfg.MessageSecurityMode()

	dialCtx := ctx
	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		dialCtx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	res, err := client.GetEndpoints(dialCtx, &ua.GetEndpointsRequest{EndpointURL: cfg.ServerURL})
	if err != nil {
		return nil, errors.Wrapf(err, "Error getting endpoints of '%s'", cfg.ServerURL)
	}
	ep, err := selectEndpoint(res.Endpoints, policyURI, mode)
	if err != nil {
		return nil, err
	}
	logger.WithFields(logrus.Fields{
		"endpoint": ep.EndpointURL,
		"policy":   ep.SecurityPolicyURI,
		"mode":     ep.SecurityMode,
	}).Debug("Selected endpoint")

	ch, err := client.Dial(dialCtx, cfg.ServerURL, opts...)
	if err != nil {
		return nil, errors.Wrapf(err, "Error connecting to '%s'", cfg.ServerURL)
	}
	logger.WithFields(logrus.Fields{
		"endpoint": ch.EndpointURL(),
		"policy":   ch.SecurityPolicyURI(),
		"mode":     ch.SecurityMode(),
	}).Info("Connected")
	return ch, nil
}

// Close closes the session, aborting the connection if the server does not respond.
func Close(ctx context.Context, ch *client.Client, logger logrus.FieldLogger) {
	if err := ch.Close(ctx); err != nil {
		logger.WithError(err).Warn("Error closing client")
		ch.Abort(ctx)
	}
}
