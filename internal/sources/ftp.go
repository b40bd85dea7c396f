package sources

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/jlaffaye/ftp"
)

// FTPSource reads and writes blobs on an FTP server over explicit TLS.
// Each call opens its own connection.
type FTPSource struct {
	Account Account
	Timeout time.Duration
	// TLSConfig overrides the default configuration verifying Account.Host
	TLSConfig *tls.Config
	logger    *slog.Logger
}

// NewFTPSource creates a source for account
func NewFTPSource(account Account, timeout time.Duration, logger *slog.Logger) *FTPSource {
	if logger == nil {
		logger = slog.Default()
	}
	return &FTPSource{
		Account: account,
		Timeout: timeout,
		logger:  logger,
	}
}

// Logger returns the logger the source reports to
func (s *FTPSource) Logger() *slog.Logger { return s.logger }

// connect dials, upgrades the control channel with AUTH TLS and logs in;
// the library then protects the data channel (PBSZ 0, PROT P)
func (s *FTPSource) connect(ctx context.Context) (*ftp.ServerConn, error) {
	tlsConfig := s.TLSConfig
	if tlsConfig == nil {
		tlsConfig = &tls.Config{
			ServerName: s.Account.Host,
			MinVersion: tls.VersionTLS12,
		}
	}

	opts := []ftp.DialOption{
		ftp.DialWithContext(ctx),
		ftp.DialWithExplicitTLS(tlsConfig),
	}
	if s.Timeout > 0 {
		opts = append(opts, ftp.DialWithTimeout(s.Timeout))
	}

	conn, err := ftp.Dial(s.Account.Address(), opts...)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to %s: %w", s.Account.Address(), err)
	}

	if err := conn.Login(s.Account.User, s.Account.Password); err != nil {
		conn.Quit()
		return nil, fmt.Errorf("login failed for %s: %w", s.Account.User, err)
	}

	s.logger.DebugContext(ctx, "Connected to FTP server",
		slog.String("host", s.Account.Host),
		slog.Int("port", s.Account.Port))
	return conn, nil
}

// Open retrieves name. The connection is closed with the returned reader.
func (s *FTPSource) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	conn, err := s.connect(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := conn.Retr(name)
	if err != nil {
		conn.Quit()
		return nil, fmt.Errorf("non-existing remote file %s: %w", name, err)
	}

	s.logger.InfoContext(ctx, "Downloading remote file", slog.String("file", name))
	return &ftpReadCloser{resp: resp, conn: conn}, nil
}

// Put uploads r as name
func (s *FTPSource) Put(ctx context.Context, name string, r io.Reader) error {
	conn, err := s.connect(ctx)
	if err != nil {
		return err
	}
	defer conn.Quit()

	if err := conn.Stor(name, &contextReader{ctx: ctx, r: r}); err != nil {
		return fmt.Errorf("upload of %s failed: %w", name, err)
	}

	s.logger.InfoContext(ctx, "Remote file uploaded", slog.String("file", name))
	return nil
}

type ftpReadCloser struct {
	resp *ftp.Response
	conn *ftp.ServerConn
}

func (f *ftpReadCloser) Read(p []byte) (int, error) {
	return f.resp.Read(p)
}

func (f *ftpReadCloser) Close() error {
	err := f.resp.Close()
	if quitErr := f.conn.Quit(); err == nil {
		err = quitErr
	}
	return err
}
