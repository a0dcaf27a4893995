package db

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strconv"
	"time"

	"golang.org/x/crypto/ssh"
	"golang.org/x/sync/errgroup"

	"revenue-dashboard/internal/config"
)

const sshDialTimeout = 10 * time.Second

// tunnel exposes the remote database on 127.0.0.1:<bindPort> by forwarding
// every accepted connection through an SSH client.
type tunnel struct {
	client   *ssh.Client
	listener net.Listener
	logger   *slog.Logger
}

// dialTunnel connects to the SSH endpoint with password auth and starts the
// local forwarder. Host keys are not pinned; the tunnel endpoint is an
// internal bastion reachable only from the operator network.
func dialTunnel(sshCfg config.SSHConfig, remoteAddr string, bindPort int, logger *slog.Logger) (*tunnel, error) {
	clientCfg := &ssh.ClientConfig{
		User:            sshCfg.Username,
		Auth:            []ssh.AuthMethod{ssh.Password(sshCfg.Password)},
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         sshDialTimeout,
	}

	sshAddr := net.JoinHostPort(sshCfg.Host, strconv.Itoa(sshCfg.Port))
	client, err := ssh.Dial("tcp", sshAddr, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("dial ssh %s: %w", sshAddr, err)
	}

	listener, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", bindPort))
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("bind local port %d: %w", bindPort, err)
	}

	t := &tunnel{
		client:   client,
		listener: listener,
		logger:   logger,
	}

	go t.serve(remoteAddr)

	logger.Info("ssh tunnel established",
		"ssh_addr", sshAddr,
		"remote_addr", remoteAddr,
		"local_addr", listener.Addr().String(),
	)

	return t, nil
}

// Addr is the local side of the tunnel, suitable as a database address.
func (t *tunnel) Addr() string {
	return t.listener.Addr().String()
}

func (t *tunnel) serve(remoteAddr string) {
	for {
		local, err := t.listener.Accept()
		if err != nil {
			if !errors.Is(err, net.ErrClosed) {
				t.logger.Warn("tunnel accept failed", "error", err)
			}
			return
		}
		go t.forward(local, remoteAddr)
	}
}

func (t *tunnel) forward(local net.Conn, remoteAddr string) {
	remote, err := t.client.Dial("tcp", remoteAddr)
	if err != nil {
		t.logger.Warn("tunnel remote dial failed", "remote_addr", remoteAddr, "error", err)
		local.Close()
		return
	}

	var g errgroup.Group
	g.Go(func() error {
		defer local.Close()
		defer remote.Close()
		_, err := io.Copy(remote, local)
		return err
	})
	g.Go(func() error {
		defer local.Close()
		defer remote.Close()
		_, err := io.Copy(local, remote)
		return err
	})

	if err := g.Wait(); err != nil && !errors.Is(err, net.ErrClosed) {
		t.logger.Debug("tunnel stream closed", "error", err)
	}
}

// Close stops the listener and the SSH client. Errors are joined and
// reported to the caller for logging; the tunnel is unusable afterwards
// either way.
func (t *tunnel) Close() error {
	return errors.Join(t.listener.Close(), t.client.Close())
}
