// Copyright 2026 Converter Systems LLC. All rights reserved.

package pki

import (
	"crypto/rsa"
	"crypto/x509"

	"github.com/awcullen/opcua/ua"
	"github.com/pkg/errors"
)

// CheckCertificate verifies that a self-signed application instance certificate is still
// fit for use as a client certificate: it belongs to key, is within its validity period,
// permits client authentication, and names the application uri and host name.
func CheckCertificate(certificate *x509.Certificate, key *rsa.PrivateKey, applicationURI, hostname string) error {
	if certificate == nil {
		return ua.BadCertificateInvalid
	}
	if pub, ok := certificate.PublicKey.(*rsa.PublicKey); !ok || key == nil || !pub.Equal(&key.PublicKey) {
		return errors.Wrap(ua.BadCertificateInvalid, "certificate does not match private key")
	}

	roots := x509.NewCertPool()
	roots.AddCert(certificate)
	opts := x509.VerifyOptions{
		Roots:     roots,
		KeyUsages: []x509.ExtKeyUsage{x509.ExtKeyUsageClientAuth},
		DNSName:   hostname,
	}

	// build chain and verify
	if _, err := certificate.Verify(opts); err != nil {
		switch se := err.(type) {
		case x509.CertificateInvalidError:
			switch se.Reason {
			case x509.Expired:
				return ua.BadCertificateTimeInvalid
			case x509.IncompatibleUsage:
				return ua.BadCertificateUseNotAllowed
			default:
				return ua.BadSecurityChecksFailed
			}
		case x509.HostnameError:
			return ua.BadCertificateHostNameInvalid
		case x509.UnknownAuthorityError:
			return ua.BadCertificateChainIncomplete
		default:
			return ua.BadSecurityChecksFailed
		}
	}

	for _, u := range certificate.URIs {
		if u.String() == applicationURI {
			return nil
		}
	}
	return ua.BadCertificateURIInvalid
}
