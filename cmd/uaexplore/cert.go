// Copyright 2026 Converter Systems LLC. All rights reserved.

package main

import (
	"fmt"

	"github.com/awcullen/uaexplore/session"
	"github.com/spf13/cobra"
)

func newCertCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "cert",
		Short: "Create the client certificate and key if missing or no longer valid",
		Long: `Create the client certificate and key if missing or no longer valid.

An existing key is reused. The certificate is regenerated when it is missing, when it
does not belong to the key, when it has expired, or when its subject alternative names
no longer match the application uri and host name.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := session.Certificate(a.cfg, a.logger)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			switch {
			case res.KeyGenerated:
				fmt.Fprintf(out, "Generated key '%s' and certificate '%s'\n", a.cfg.KeyFile, a.cfg.CertFile)
			case res.CertificateGenerated:
				fmt.Fprintf(out, "Generated certificate '%s'\n", a.cfg.CertFile)
			default:
				fmt.Fprintf(out, "Using existing certificate '%s'\n", a.cfg.CertFile)
			}
			crt := res.Certificate
			fmt.Fprintf(out, "  Subject: %s\n", crt.Subject.CommonName)
			for _, u := range crt.URIs {
				fmt.Fprintf(out, "  URI: %s\n", u)
			}
			for _, d := range crt.DNSNames {
				fmt.Fprintf(out, "  DNS: %s\n", d)
			}
			for _, ip := range crt.IPAddresses {
				fmt.Fprintf(out, "  IP: %s\n", ip)
			}
			fmt.Fprintf(out, "  NotAfter: %s\n", crt.NotAfter.UTC().Format("2006-01-02T15:04:05Z"))
			return nil
		},
	}
}
