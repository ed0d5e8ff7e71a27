/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */
package config

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"os"

	"github.com/carverauto/serviceradar-location/pkg/models"
)

var (
	// ErrCAParsingFailed is returned when CA certificate cannot be parsed
	ErrCAParsingFailed = errors.New("failed to parse CA certificate")
	// ErrUnsupportedSecurityMode is returned for modes other than none, tls and mtls.
	ErrUnsupportedSecurityMode = errors.New("unsupported security mode")
)

// TLSConfig builds a client tls.Config for the bus connection. It returns nil
// when sec is nil or its mode is none, leaving the transport to decide. Mode
// tls verifies the server against CAFile (system roots when empty); mode mtls
// additionally presents the client certificate.
func TLSConfig(sec *models.SecurityConfig) (*tls.Config, error) {
	if sec == nil {
		return nil, nil
	}

	switch sec.Mode {
	case models.SecurityModeNone, "":
		return nil, nil
	case models.SecurityModeTLS, models.SecurityModeMTLS:
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedSecurityMode, sec.Mode)
	}

	NormalizeTLSPaths(&sec.TLS, sec.CertDir)

	conf := &tls.Config{
		ServerName:         sec.ServerName,
		InsecureSkipVerify: sec.InsecureSkipVerify, //nolint:gosec // opt-in for lab brokers
		MinVersion:         tls.VersionTLS12,
	}

	if sec.TLS.CAFile != "" {
		caCert, err := os.ReadFile(sec.TLS.CAFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read CA certificate: %w", err)
		}

		caPool := x509.NewCertPool()
		if !caPool.AppendCertsFromPEM(caCert) {
			return nil, ErrCAParsingFailed
		}

		conf.RootCAs = caPool
	}

	if sec.Mode == models.SecurityModeMTLS {
		cert, err := tls.LoadX509KeyPair(sec.TLS.CertFile, sec.TLS.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load client certificate: %w", err)
		}

		conf.Certificates = []tls.Certificate{cert}
	}

	return conf, nil
}
