package bot

import (
	"fmt"
	"math/rand"
	"os/exec"
	"time"
)

// SandboxConfig describes how to run a bot inside a container.
type SandboxConfig struct {
	// SourcePath is the bot artifact on the host, mounted read-only.
	SourcePath string
	// Mount is where the artifact appears inside the container.
	Mount string
	// Image is the container image to run.
	Image string
	// Entry is the command run inside the container.
	Entry []string
	// Timeout bounds each invocation.
	Timeout time.Duration
}

// Sandbox is a Subprocess whose child runs under `docker run`. Each
// instance gets a random name so concurrent games never clash, and
// teardown force-stops the container before the normal process
// teardown.
type Sandbox struct {
	*Subprocess
	name string
}

func StartSandbox(cfg SandboxConfig) (*Sandbox, error) {
	name := fmt.Sprintf("photonai-bot-%016x", rand.Uint64())
	command := []string{
		"docker", "run", "--rm", "-i",
		"-v", fmt.Sprintf("%s:%s:ro", cfg.SourcePath, cfg.Mount),
		"--name", name,
	}
	command = append(command, cfg.Image)
	command = append(command, cfg.Entry...)

	sub, err := StartSubprocess(command, cfg.Timeout)
	if err != nil {
		return nil, fmt.Errorf("sandbox bot: %w", err)
	}
	return &Sandbox{Subprocess: sub, name: name}, nil
}

func (s *Sandbox) Name() string { return s.name }

// Close kills the container by name, ignoring failures (it may already
// have exited), then falls back to the base process teardown.
func (s *Sandbox) Close() error {
	exec.Command("docker", "kill", s.name).Run()
	return s.Subprocess.Close()
}
