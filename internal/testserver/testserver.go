// Copyright 2026 Converter Systems LLC. All rights reserved.

// Package testserver runs an in-process OPC UA server for integration tests.
package testserver

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/awcullen/opcua/client"
	"github.com/awcullen/opcua/server"
	"github.com/awcullen/opcua/ua"
	"github.com/awcullen/uaexplore/pki"
	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"
)

// Users are the user names and passwords the server accepts, besides anonymous.
var Users = []ua.UserNameIdentity{
	{UserName: "root", Password: "secret"},
	{UserName: "user1", Password: "password"},
}

// Start runs a server listening on port until the test ends and returns its endpoint url.
// The server offers security policy None and the policies of the library, and accepts
// anonymous and user name identities.
func Start(t testing.TB, port int) string {
	host, _ := os.Hostname()
	endpointURL := fmt.Sprintf("opc.tcp://%s:%d", host, port)

	dir := t.TempDir()
	opts := pki.Options{
		CertFile:       filepath.Join(dir, "server.crt"),
		KeyFile:        filepath.Join(dir, "server.key"),
		ApplicationURI: fmt.Sprintf("urn:%s:testserver", host),
		CommonName:     "testserver",
		HostName:       host,
	}
	if _, err := pki.EnsureCertificate(opts); err != nil {
		t.Fatal(errors.Wrap(err, "Error creating pki"))
	}

	hashes := make(map[string][]byte, len(Users))
	for _, u := range Users {
		hash, _ := bcrypt.GenerateFromPassword([]byte(u.Password), 8)
		hashes[u.UserName] = hash
	}

	srv, err := server.New(
		ua.ApplicationDescription{
			ApplicationURI: opts.ApplicationURI,
			ProductURI:     "http://github.com/awcullen/uaexplore",
			ApplicationName: ua.LocalizedText{
				Text:   fmt.Sprintf("testserver@%s", host),
				Locale: "en",
			},
			ApplicationType: ua.ApplicationTypeServer,
			DiscoveryURLs:   []string{endpointURL},
		},
		opts.CertFile,
		opts.KeyFile,
		endpointURL,
		server.WithBuildInfo(
			ua.BuildInfo{
				ProductURI:       "http://github.com/awcullen/uaexplore",
				ManufacturerName: "awcullen",
				ProductName:      "testserver",
				SoftwareVersion:  "0.1.0",
			}),
		server.WithAuthenticateUserNameIdentityFunc(func(userIdentity ua.UserNameIdentity, applicationURI string, endpointURL string) error {
			hash, ok := hashes[userIdentity.UserName]
			if !ok || bcrypt.CompareHashAndPassword(hash, []byte(userIdentity.Password)) != nil {
				return ua.BadUserAccessDenied
			}
			return nil
		}),
		server.WithAnonymousIdentity(true),
		server.WithSecurityPolicyNone(true),
		server.WithInsecureSkipVerify(),
	)
	if err != nil {
		t.Fatal(errors.Wrap(err, "Error constructing server"))
	}
	t.Cleanup(func() {
		srv.Close()
	})
	go func() {
		if err := srv.ListenAndServe(); err != ua.BadServerHalted {
			t.Error(errors.Wrap(err, "Error starting server"))
		}
	}()

	// wait until the server answers discovery requests.
	deadline := time.Now().Add(5 * time.Second)
	for {
		_, err := client.FindServers(context.Background(), &ua.FindServersRequest{EndpointURL: endpointURL})
		if err == nil {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal(errors.Wrap(err, "Error calling FindServers"))
		}
		time.Sleep(100 * time.Millisecond)
	}
	return endpointURL
}
