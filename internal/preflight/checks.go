package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sys/unix"

	"fetchd/internal/config"
)

const probeTimeout = 2 * time.Second

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckSocket reports whether the CLI socket path is usable. A socket that
// accepts connections means a daemon is already serving it.
func CheckSocket(path string) Result {
	const name = "CLI socket"
	if path == "" {
		return Result{Name: name, Detail: "not configured"}
	}
	if err := unix.Access(filepath.Dir(path), unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: parent not writable: %v)", path, err)}
	}
	info, err := os.Lstat(path)
	if errors.Is(err, os.ErrNotExist) {
		return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (available)", path)}
	}
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if info.Mode()&os.ModeSocket == 0 {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: exists and is not a socket)", path)}
	}
	conn, err := net.DialTimeout("unix", path, probeTimeout)
	if err != nil {
		return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (stale socket, will be replaced)", path)}
	}
	_ = conn.Close()
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (daemon listening)", path)}
}

// CheckListen verifies that the HTTP endpoint address can be bound.
func CheckListen(addr string) Result {
	const name = "RPC endpoint"
	if addr == "" {
		return Result{Name: name, Passed: true, Detail: "disabled"}
	}
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", addr, err)}
	}
	_ = listener.Close()
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (bindable)", addr)}
}

// CheckRedis pings the history mirror.
func CheckRedis(ctx context.Context, cfg config.History) Result {
	const name = "Redis mirror"
	if cfg.RedisAddr == "" {
		return Result{Name: name, Passed: true, Detail: "disabled"}
	}
	client := redis.NewClient(&redis.Options{
		Addr:        cfg.RedisAddr,
		Password:    cfg.RedisPassword,
		DB:          cfg.RedisDB,
		DialTimeout: probeTimeout,
	})
	defer client.Close()

	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", cfg.RedisAddr, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (reachable)", cfg.RedisAddr)}
}
