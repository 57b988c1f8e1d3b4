package main

import (
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"time"
)

const (
	daemonBinary       = "convertly-server"
	daemonStartTimeout = 10 * time.Second
)

// daemonAlive reports whether a daemon answers health checks at serverURL
func daemonAlive() bool {
	client := &http.Client{Timeout: time.Second}
	resp, err := client.Get(serverURL + "/health")
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// locateDaemon finds the server binary: next to this executable first, then
// $PATH, then the usual install prefixes
func locateDaemon() (string, error) {
	if execPath, err := os.Executable(); err == nil {
		candidate := filepath.Join(filepath.Dir(execPath), daemonBinary)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}

	if path, err := exec.LookPath(daemonBinary); err == nil {
		return path, nil
	}

	home := os.Getenv("HOME")
	for _, candidate := range []string{
		"/usr/local/bin/" + daemonBinary,
		"/usr/bin/" + daemonBinary,
		filepath.Join(home, "go/bin", daemonBinary),
		filepath.Join(home, ".local/bin", daemonBinary),
	} {
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}

	return "", fmt.Errorf("%s not found next to the CLI, on PATH, or in the usual install locations", daemonBinary)
}

// spawnDaemon launches the server detached from this terminal. The child is
// reaped in the background; the CLI never waits on it.
func spawnDaemon(path string) error {
	cmd := exec.Command(path)
	cmd.Stdin = nil
	cmd.Stdout = nil
	cmd.Stderr = nil
	detachFromTerminal(cmd)

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start %s: %w", daemonBinary, err)
	}

	go cmd.Wait()
	return nil
}

// ensureServerRunning starts the daemon if no health check answers, then
// blocks until it is reachable or the startup window closes
func ensureServerRunning() error {
	if daemonAlive() {
		return nil
	}

	fmt.Println("Server not running, starting...")

	path, err := locateDaemon()
	if err != nil {
		return err
	}
	if err := spawnDaemon(path); err != nil {
		return err
	}

	deadline := time.Now().Add(daemonStartTimeout)
	for time.Now().Before(deadline) {
		if daemonAlive() {
			fmt.Println("Server started successfully")
			return nil
		}
		time.Sleep(200 * time.Millisecond)
	}

	return fmt.Errorf("server did not become reachable within %v", daemonStartTimeout)
}
