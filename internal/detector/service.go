package detector

import (
	"bufio"
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"time"

	"gocv.io/x/gocv"
)

// serviceIdleTimeout is how long a service process may sit unused before it is stopped.
const serviceIdleTimeout = 30 * time.Second

// service is a python detection process fed length-prefixed JPEG frames on
// stdin that answers each frame with one JSON line on stdout. The process is
// started lazily and stopped after serviceIdleTimeout without use.
type service struct {
	script     string
	scriptsDir string
	args       []string

	mu          sync.Mutex
	cmd         *exec.Cmd
	stdin       io.WriteCloser
	stdout      *bufio.Reader
	started     bool
	idleTimeout time.Duration
	idleTimer   *time.Timer
	// idleGen identifies the armed idle timer; a callback whose generation
	// is stale lost the race with a newer call and must not stop the process.
	idleGen uint64
}

func newService(script, scriptsDir string, args ...string) (*service, error) {
	if findScript(script, scriptsDir) == "" {
		return nil, fmt.Errorf("%s not found: %w", script, ErrServiceUnavailable)
	}
	return &service{
		script:      script,
		scriptsDir:  scriptsDir,
		args:        args,
		idleTimeout: serviceIdleTimeout,
	}, nil
}

// call sends header followed by the JPEG-encoded frame and returns the reply line.
// If ctx expires first the process is killed so the next call starts a fresh one.
func (s *service) call(ctx context.Context, header []byte, frame *gocv.Mat) ([]byte, error) {
	buf, err := gocv.IMEncode(".jpg", *frame)
	if err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}
	defer buf.Close()
	data := buf.GetBytes()

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureStarted(); err != nil {
		return nil, err
	}

	type reply struct {
		line []byte
		err  error
	}
	done := make(chan reply, 1)
	stdin, stdout := s.stdin, s.stdout

	go func() {
		line, err := exchange(stdin, stdout, header, data)
		done <- reply{line, err}
	}()

	select {
	case r := <-done:
		if r.err != nil {
			s.shutdown()
			return nil, r.err
		}
		s.resetIdleTimer()
		return r.line, nil
	case <-ctx.Done():
		if s.cmd != nil && s.cmd.Process != nil {
			s.cmd.Process.Kill()
		}
		<-done
		s.shutdown()
		return nil, fmt.Errorf("%s: %w", s.script, ctx.Err())
	}
}

func exchange(w io.Writer, r *bufio.Reader, header, data []byte) ([]byte, error) {
	if len(header) > 0 {
		if _, err := w.Write(header); err != nil {
			return nil, fmt.Errorf("write header: %w", err)
		}
	}

	// Write length (4 bytes big-endian) + data
	length := make([]byte, 4)
	binary.BigEndian.PutUint32(length, uint32(len(data)))
	if _, err := w.Write(length); err != nil {
		return nil, fmt.Errorf("write length: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return nil, fmt.Errorf("write data: %w", err)
	}

	line, err := r.ReadBytes('\n')
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return line, nil
}

// Close shuts down the python process.
func (s *service) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.shutdown()
}

func (s *service) ensureStarted() error {
	if s.started {
		return nil
	}

	scriptPath := findScript(s.script, s.scriptsDir)
	if scriptPath == "" {
		return fmt.Errorf("%s not found: %w", s.script, ErrServiceUnavailable)
	}

	// Use virtual environment Python if available
	pythonPath := findVenvPython()
	if pythonPath == "" {
		pythonPath = "python3"
	}

	s.cmd = exec.Command(pythonPath, append([]string{scriptPath}, s.args...)...)

	stdin, err := s.cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("create stdin pipe: %w", err)
	}

	stdout, err := s.cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("create stdout pipe: %w", err)
	}

	s.cmd.Stderr = os.Stderr

	if err := s.cmd.Start(); err != nil {
		return fmt.Errorf("start %s: %w", s.script, err)
	}

	s.stdin = stdin
	s.stdout = bufio.NewReader(stdout)
	s.started = true

	return nil
}

func (s *service) shutdown() error {
	if !s.started {
		return nil
	}

	if s.idleTimer != nil {
		s.idleTimer.Stop()
		s.idleTimer = nil
	}
	s.idleGen++

	if s.stdin != nil {
		s.stdin.Close()
	}

	err := s.cmd.Wait()
	s.started = false
	s.cmd = nil
	s.stdin = nil
	s.stdout = nil

	return err
}

func (s *service) resetIdleTimer() {
	if s.idleTimer != nil {
		s.idleTimer.Stop()
	}
	s.idleGen++
	gen := s.idleGen
	s.idleTimer = time.AfterFunc(s.idleTimeout, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if gen != s.idleGen {
			return
		}
		s.shutdown()
	})
}

// findScript looks for a service script in scriptsDir, then next to the
// working directory and executable, then under ~/.kiosk/scripts.
func findScript(name, scriptsDir string) string {
	execPath, err := os.Executable()
	var execDir string
	if err == nil {
		execDir = filepath.Dir(execPath)
	}

	var candidates []string
	if scriptsDir != "" {
		candidates = append(candidates, filepath.Join(scriptsDir, name))
	}
	candidates = append(candidates,
		filepath.Join("scripts", name),
		filepath.Join("..", "scripts", name),
		filepath.Join(execDir, "scripts", name),
		filepath.Join(os.Getenv("HOME"), ".kiosk", "scripts", name),
	)

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			absPath, err := filepath.Abs(path)
			if err == nil {
				return absPath
			}
			return path
		}
	}
	return ""
}

// findVenvPython looks for a Python interpreter in a virtual environment.
func findVenvPython() string {
	execPath, err := os.Executable()
	if err != nil {
		return ""
	}
	execDir := filepath.Dir(execPath)

	candidates := []string{
		"venv/bin/python",
		"../venv/bin/python",
		"../../venv/bin/python",
		filepath.Join(execDir, "venv/bin/python"),
		filepath.Join(os.Getenv("HOME"), ".kiosk/venv/bin/python"),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			absPath, err := filepath.Abs(path)
			if err == nil {
				return absPath
			}
			return path
		}
	}
	return ""
}
