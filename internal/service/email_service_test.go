package service

import (
	"bufio"
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"io"
	"math/big"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/arstudios/protend/internal/otp"
)

func TestSendOTP_DisabledWithoutCredentials(t *testing.T) {
	svc := NewEmailService("smtp.example.com", 587, "", "", "no-reply@example.com", zap.NewNop())

	err := svc.SendOTP(context.Background(), "ada@example.com", "123456", otp.PurposeLogin)
	assert.ErrorIs(t, err, ErrMailerDisabled)
}

func TestOTPEmailContent_PerPurpose(t *testing.T) {
	loginSubject, loginBody := otpEmailContent("123456", otp.PurposeLogin)
	signupSubject, signupBody := otpEmailContent("654321", otp.PurposeSignup)

	assert.Contains(t, loginBody, "123456")
	assert.Contains(t, signupBody, "654321")
	assert.NotEqual(t, loginSubject, signupSubject)
}

// The mailer must carry a real conversation through the TLS upgrade: dial,
// EHLO, STARTTLS with certificate verification, re-EHLO, AUTH, and the
// message body.
func TestSendOTP_CompletesSTARTTLSDelivery(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })

	cert, pool := selfSignedServerCert(t)
	gotBody := make(chan string, 1)
	go serveSMTPSession(ln, cert, gotBody)

	port := ln.Addr().(*net.TCPAddr).Port
	svc := NewEmailService("127.0.0.1", port, "mailer@arstudios.dev", "secret", "no-reply@arstudios.dev", zap.NewNop())
	svc.tlsConfig = &tls.Config{ServerName: "127.0.0.1", RootCAs: pool}

	require.NoError(t, svc.SendOTP(context.Background(), "ada@example.com", "123456", otp.PurposeLogin))

	select {
	case body := <-gotBody:
		assert.Contains(t, body, "123456")
		assert.Contains(t, body, "ada@example.com")
	case <-time.After(2 * time.Second):
		t.Fatal("server never received the message body")
	}
}

func selfSignedServerCert(t *testing.T) (tls.Certificate, *x509.CertPool) {
	t.Helper()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	tmpl := &x509.Certificate{
		SerialNumber:          big.NewInt(1),
		Subject:               pkix.Name{CommonName: "127.0.0.1"},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(time.Hour),
		IPAddresses:           []net.IP{net.ParseIP("127.0.0.1")},
		KeyUsage:              x509.KeyUsageDigitalSignature | x509.KeyUsageCertSign,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		BasicConstraintsValid: true,
		IsCA:                  true,
	}

	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	require.NoError(t, err)

	leaf, err := x509.ParseCertificate(der)
	require.NoError(t, err)
	pool := x509.NewCertPool()
	pool.AddCert(leaf)

	return tls.Certificate{Certificate: [][]byte{der}, PrivateKey: key}, pool
}

// serveSMTPSession answers a single SMTP conversation, upgrading to TLS on
// STARTTLS and capturing the DATA payload.
func serveSMTPSession(ln net.Listener, cert tls.Certificate, gotBody chan<- string) {
	conn, err := ln.Accept()
	if err != nil {
		return
	}
	defer conn.Close()

	write := func(s string) { _, _ = io.WriteString(conn, s+"\r\n") }
	r := bufio.NewReader(conn)
	write("220 fake ESMTP")

	inTLS := false
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return
		}
		cmd := strings.ToUpper(strings.TrimSpace(line))
		switch {
		case strings.HasPrefix(cmd, "EHLO"):
			write("250-fake")
			if inTLS {
				write("250 AUTH PLAIN")
			} else {
				write("250 STARTTLS")
			}
		case cmd == "STARTTLS":
			write("220 ready")
			tlsConn := tls.Server(conn, &tls.Config{Certificates: []tls.Certificate{cert}})
			if err := tlsConn.Handshake(); err != nil {
				return
			}
			conn = tlsConn
			r = bufio.NewReader(conn)
			inTLS = true
		case strings.HasPrefix(cmd, "AUTH"):
			write("235 ok")
		case strings.HasPrefix(cmd, "MAIL"), strings.HasPrefix(cmd, "RCPT"):
			write("250 ok")
		case cmd == "DATA":
			write("354 go ahead")
			var b strings.Builder
			for {
				dl, err := r.ReadString('\n')
				if err != nil {
					return
				}
				if strings.TrimRight(dl, "\r\n") == "." {
					break
				}
				b.WriteString(dl)
			}
			gotBody <- b.String()
			write("250 queued")
		case cmd == "QUIT":
			write("221 bye")
			return
		default:
			write("250 ok")
		}
	}
}
