// Copyright 2026 Converter Systems LLC. All rights reserved.

package pki

import (
	"bytes"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha1"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/awcullen/opcua/ua"
	"github.com/pkg/errors"
)

const (
	// DefaultKeySize is the size in bits of generated RSA keys.
	DefaultKeySize = 2048
	// DefaultValidityDays is the validity period of generated certificates.
	DefaultValidityDays = 365
)

// Options describes the application instance certificate to load or create.
type Options struct {
	CertFile       string
	KeyFile        string
	ApplicationURI string
	CommonName     string
	HostName       string
	ValidityDays   int
}

// Result reports what EnsureCertificate did.
type Result struct {
	KeyGenerated         bool
	CertificateGenerated bool
	Certificate          *x509.Certificate
}

// EnsureCertificate loads the private key from opts.KeyFile, generating and saving a new
// one if the file does not exist. It then loads the certificate from opts.CertFile and
// generates a new self-signed certificate if the file does not exist, if the key was
// newly generated, or if the certificate fails CheckCertificate.
func EnsureCertificate(opts Options) (*Result, error) {
	if opts.ValidityDays <= 0 {
		opts.ValidityDays = DefaultValidityDays
	}
	for _, p := range []string{opts.KeyFile, opts.CertFile} {
		if err := os.MkdirAll(filepath.Dir(p), os.ModeDir|0755); err != nil {
			return nil, err
		}
	}

	res := &Result{}
	key, err := LoadPrivateKey(opts.KeyFile)
	switch {
	case err == nil:
	case os.IsNotExist(errors.Cause(err)):
		key, err = GenerateKey(DefaultKeySize)
		if err != nil {
			return nil, err
		}
		if err := WritePrivateKey(opts.KeyFile, key); err != nil {
			return nil, err
		}
		res.KeyGenerated = true
	default:
		return nil, err
	}

	if !res.KeyGenerated {
		crt, err := LoadCertificate(opts.CertFile)
		switch {
		case err == nil:
			if CheckCertificate(crt, key, opts.ApplicationURI, opts.HostName) == nil {
				res.Certificate = crt
				return res, nil
			}
		case os.IsNotExist(errors.Cause(err)):
		default:
			return nil, err
		}
	}

	der, err := CreateSelfSignedCertificate(key, opts)
	if err != nil {
		return nil, err
	}
	if err := WriteCertificate(opts.CertFile, der); err != nil {
		return nil, err
	}
	res.Certificate, err = x509.ParseCertificate(der)
	if err != nil {
		return nil, err
	}
	res.CertificateGenerated = true
	return res, nil
}

// GenerateKey creates an RSA key pair.
func GenerateKey(bits int) (*rsa.PrivateKey, error) {
	key, err := rsa.GenerateKey(rand.Reader, bits)
	if err != nil {
		return nil, errors.Wrap(err, "Error generating key")
	}
	return key, nil
}

// CreateSelfSignedCertificate returns the DER encoding of a new application instance
// certificate signed by key. The certificate names the application uri and host name as
// subject alternative names and may be used for client and server authentication.
func CreateSelfSignedCertificate(key *rsa.PrivateKey, opts Options) ([]byte, error) {
	applicationURI, err := url.Parse(opts.ApplicationURI)
	if err != nil {
		return nil, errors.Wrapf(err, "Error parsing application uri '%s'", opts.ApplicationURI)
	}
	days := opts.ValidityDays
	if days <= 0 {
		days = DefaultValidityDays
	}
	serialNumber, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 128))
	if err != nil {
		return nil, err
	}
	subjectKeyHash := sha1.New()
	subjectKeyHash.Write(key.PublicKey.N.Bytes())
	subjectKeyID := subjectKeyHash.Sum(nil)

	now := time.Now()
	template := x509.Certificate{
		SerialNumber:          serialNumber,
		Subject:               pkix.Name{CommonName: opts.CommonName},
		SubjectKeyId:          subjectKeyID,
		AuthorityKeyId:        subjectKeyID,
		NotBefore:             now.Add(-time.Minute),
		NotAfter:              now.AddDate(0, 0, days),
		KeyUsage:              x509.KeyUsageDigitalSignature | x509.KeyUsageContentCommitment | x509.KeyUsageKeyEncipherment | x509.KeyUsageDataEncipherment | x509.KeyUsageCertSign,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageClientAuth, x509.ExtKeyUsageServerAuth},
		BasicConstraintsValid: true,
		URIs:                  []*url.URL{applicationURI},
	}
	if ip := net.ParseIP(opts.HostName); ip != nil {
		template.IPAddresses = []net.IP{ip}
	} else if opts.HostName != "" {
		template.DNSNames = []string{opts.HostName}
	}

	der, err := x509.CreateCertificate(rand.Reader, &template, &template, &key.PublicKey, key)
	if err != nil {
		return nil, errors.Wrap(err, "Error creating certificate")
	}
	return der, nil
}

// WritePrivateKey saves the key in PEM encoded PKCS #1 form, readable by the owner only.
func WritePrivateKey(path string, key *rsa.PrivateKey) error {
	block := &pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)}
	return os.WriteFile(path, pem.EncodeToMemory(block), 0600)
}

// WriteCertificate saves the DER encoded certificate in PEM form.
func WriteCertificate(path string, der []byte) error {
	block := &pem.Block{Type: "CERTIFICATE", Bytes: der}
	return os.WriteFile(path, pem.EncodeToMemory(block), 0644)
}

// LoadPrivateKey reads an RSA private key from a PEM file holding a PKCS #1 or PKCS #8 key.
func LoadPrivateKey(path string) (*rsa.PrivateKey, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "Error reading key '%s'", path)
	}
	for len(buf) > 0 {
		var block *pem.Block
		block, buf = pem.Decode(buf)
		if block == nil {
			break
		}
		switch block.Type {
		case "RSA PRIVATE KEY":
			return x509.ParsePKCS1PrivateKey(block.Bytes)
		case "PRIVATE KEY":
			k, err := x509.ParsePKCS8PrivateKey(block.Bytes)
			if err != nil {
				return nil, err
			}
			if key, ok := k.(*rsa.PrivateKey); ok {
				return key, nil
			}
			return nil, errors.Wrapf(ua.BadSecurityPolicyRejected, "key '%s' is not an RSA key", path)
		}
	}
	return nil, errors.Wrapf(ua.BadCertificateInvalid, "no private key found in '%s'", path)
}

// LoadCertificate reads the first certificate from a PEM or DER encoded file.
func LoadCertificate(path string) (*x509.Certificate, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "Error reading certificate '%s'", path)
	}
	if !bytes.Contains(buf, []byte("-----BEGIN")) {
		// maybe its ASN.1 DER data
		return x509.ParseCertificate(buf)
	}
	for len(buf) > 0 {
		var block *pem.Block
		block, buf = pem.Decode(buf)
		if block == nil {
			break
		}
		if block.Type != "CERTIFICATE" || len(block.Headers) != 0 {
			continue
		}
		return x509.ParseCertificate(block.Bytes)
	}
	return nil, errors.Wrapf(ua.BadCertificateInvalid, "no certificate found in '%s'", path)
}
