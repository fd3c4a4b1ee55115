package ftp

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	jftp "github.com/jlaffaye/ftp"

	"ArxivDigest/internal/config"
	"ArxivDigest/internal/ports"
)

const (
	defaultPort = "21"
	imagesDir   = "images"
)

// conn is the subset of *jftp.ServerConn the publisher uses.
type conn interface {
	Login(user, password string) error
	ChangeDir(path string) error
	MakeDir(path string) error
	Stor(path string, r io.Reader) error
	NameList(path string) ([]string, error)
	Delete(path string) error
	Quit() error
}

type dialFunc func(ctx context.Context, addr string, timeout time.Duration) (conn, error)

func dialServer(ctx context.Context, addr string, timeout time.Duration) (conn, error) {
	return jftp.Dial(addr, jftp.DialWithContext(ctx), jftp.DialWithTimeout(timeout))
}

// Publisher uploads rendered output to an FTP server and implements both
// ports.Publisher and ports.RemoteCleaner.
type Publisher struct {
	cfg    config.FTPConfig
	dial   dialFunc
	logger *slog.Logger
}

var (
	_ ports.Publisher     = (*Publisher)(nil)
	_ ports.RemoteCleaner = (*Publisher)(nil)
)

// NewPublisher registers server credentials.
func NewPublisher(cfg config.FTPConfig, logger *slog.Logger) *Publisher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Publisher{cfg: cfg, dial: dialServer, logger: logger}
}

// Publish uploads every regular file in dir, then the files in dir/images.
func (p *Publisher) Publish(ctx context.Context, dir string) error {
	c, err := p.connect(ctx)
	if err != nil {
		return err
	}
	defer p.quit(c)

	files, err := regularFiles(dir)
	if err != nil {
		return err
	}
	for _, name := range files {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := upload(c, filepath.Join(dir, name), name); err != nil {
			return err
		}
		p.debug("uploaded file", "file", name)
	}

	localImages := filepath.Join(dir, imagesDir)
	info, err := os.Stat(localImages)
	if err != nil || !info.IsDir() {
		return nil
	}

	if err := c.MakeDir(imagesDir); err != nil {
		p.debug("make remote images directory", "error", err)
	}

	images, err := regularFiles(localImages)
	if err != nil {
		return err
	}
	for _, name := range images {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := upload(c, filepath.Join(localImages, name), path.Join(imagesDir, name)); err != nil {
			return err
		}
		p.debug("uploaded image", "file", name)
	}
	return nil
}

// Clear removes the listed pages and every .jpg under images/ from the server.
// Individual delete failures are logged and skipped.
func (p *Publisher) Clear(ctx context.Context, pages []string) error {
	c, err := p.connect(ctx)
	if err != nil {
		return err
	}
	defer p.quit(c)

	remote, err := c.NameList(".")
	if err != nil {
		return fmt.Errorf("list remote directory: %w", err)
	}
	present := make(map[string]struct{}, len(remote))
	for _, name := range remote {
		present[path.Base(name)] = struct{}{}
	}

	for _, page := range pages {
		if _, ok := present[page]; !ok {
			continue
		}
		if err := c.Delete(page); err != nil {
			p.warn("delete remote page", "file", page, "error", err)
			continue
		}
		p.debug("deleted remote page", "file", page)
	}

	images, err := c.NameList(imagesDir)
	if err != nil {
		p.debug("list remote images", "error", err)
		return nil
	}
	for _, name := range images {
		base := path.Base(name)
		if !strings.HasSuffix(strings.ToLower(base), ".jpg") {
			continue
		}
		if err := c.Delete(path.Join(imagesDir, base)); err != nil {
			p.warn("delete remote image", "file", base, "error", err)
		}
	}
	return nil
}

func (p *Publisher) connect(ctx context.Context) (conn, error) {
	if p == nil || p.cfg.Host == "" {
		return nil, fmt.Errorf("ftp publisher misconfigured")
	}

	c, err := p.dial(ctx, address(p.cfg.Host), p.cfg.Timeout)
	if err != nil {
		return nil, fmt.Errorf("dial ftp: %w", err)
	}
	if err := c.Login(p.cfg.User, p.cfg.Password); err != nil {
		p.quit(c)
		return nil, fmt.Errorf("ftp login: %w", err)
	}
	if dir := p.cfg.RemoteDir; dir != "" && dir != "." {
		if err := c.ChangeDir(dir); err != nil {
			p.quit(c)
			return nil, fmt.Errorf("change remote dir %s: %w", dir, err)
		}
	}
	return c, nil
}

func (p *Publisher) quit(c conn) {
	if err := c.Quit(); err != nil {
		p.debug("ftp quit", "error", err)
	}
}

func (p *Publisher) debug(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Debug(msg, args...)
	}
}

func (p *Publisher) warn(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Warn(msg, args...)
	}
}

func upload(c conn, local, remote string) error {
	f, err := os.Open(local)
	if err != nil {
		return fmt.Errorf("open %s: %w", local, err)
	}
	defer f.Close()

	if err := c.Stor(remote, f); err != nil {
		return fmt.Errorf("upload %s: %w", remote, err)
	}
	return nil
}

func regularFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", dir, err)
	}
	var names []string
	for _, e := range entries {
		if e.Type().IsRegular() {
			names = append(names, e.Name())
		}
	}
	return names, nil
}

func address(host string) string {
	if _, _, err := net.SplitHostPort(host); err == nil {
		return host
	}
	return net.JoinHostPort(host, defaultPort)
}
