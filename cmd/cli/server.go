package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"
)

const (
	serverBinary       = "youtubify-server"
	serverStartTimeout = 10 * time.Second
	serverPollInterval = 200 * time.Millisecond
)

// findServerBinary looks next to the CLI, then on PATH, then in common install dirs
func findServerBinary() (string, error) {
	if execPath, err := os.Executable(); err == nil {
		candidate := filepath.Join(filepath.Dir(execPath), serverBinary)
		if fileExists(candidate) {
			return candidate, nil
		}
	}

	if path, err := exec.LookPath(serverBinary); err == nil {
		return path, nil
	}

	home, _ := os.UserHomeDir()
	for _, dir := range []string{
		"/usr/local/bin",
		"/usr/bin",
		filepath.Join(home, "go", "bin"),
		filepath.Join(home, ".local", "bin"),
	} {
		candidate := filepath.Join(dir, serverBinary)
		if fileExists(candidate) {
			return candidate, nil
		}
	}

	return "", fmt.Errorf("%s binary not found", serverBinary)
}

// startServerBackground runs the server in daemon mode, which detaches and returns
func startServerBackground() error {
	path, err := findServerBinary()
	if err != nil {
		return err
	}

	out, err := exec.Command(path, "-daemon").CombinedOutput()
	if err != nil {
		return fmt.Errorf("failed to start server: %w: %s", err, out)
	}
	return nil
}

// waitForServerReady polls the health endpoint until it answers or the timeout passes
func waitForServerReady(client *Client, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)

	for time.Now().Before(deadline) {
		if client.Health() == nil {
			return nil
		}
		time.Sleep(serverPollInterval)
	}

	return fmt.Errorf("server did not start within %v", timeout)
}

// ensureServerRunning starts a local server when none answers at the configured URL
func ensureServerRunning(client *Client) error {
	if client.Health() == nil {
		return nil
	}

	fmt.Fprintln(os.Stderr, "Server not running, starting...")

	if err := startServerBackground(); err != nil {
		return err
	}
	if err := waitForServerReady(client, serverStartTimeout); err != nil {
		return err
	}

	fmt.Fprintln(os.Stderr, "Server started successfully")
	return nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
