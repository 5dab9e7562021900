// Package shellpipe shells an input URL through the external media pipeline
// (ffmpeg), producing a locally served HLS tree. Used as the archive-mirror
// last resort; the media is copied, never transcoded.
package shellpipe

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"stream-resolver-go/pkg/logging"
)

const playlistWaitInterval = 250 * time.Millisecond

// Streamer manages external pipeline processes writing HLS output.
type Streamer struct {
	ffmpegPath string
	outputDir  string
	log        *logging.Logger

	mu        sync.Mutex
	processes map[string]*pipeProcess
}

type pipeProcess struct {
	cmd    *exec.Cmd
	dir    string
	cancel context.CancelFunc
}

// New creates a Streamer writing under outputDir (a temp dir when empty).
func New(ffmpegPath, outputDir string, log *logging.Logger) (*Streamer, error) {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if outputDir == "" {
		outputDir = filepath.Join(os.TempDir(), "stream-resolver")
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}
	return &Streamer{
		ffmpegPath: ffmpegPath,
		outputDir:  outputDir,
		log:        log.WithComponent("shellpipe"),
		processes:  make(map[string]*pipeProcess),
	}, nil
}

// Stream starts the pipeline copying inputURL into a local HLS tree and
// returns the playlist path once it exists. The process keeps running in the
// background; Close tears everything down.
func (s *Streamer) Stream(ctx context.Context, inputURL string, headers map[string]string) (string, error) {
	streamID := fmt.Sprintf("pipe_%d", time.Now().UnixNano())
	streamDir := filepath.Join(s.outputDir, streamID)
	if err := os.MkdirAll(streamDir, 0o755); err != nil {
		return "", fmt.Errorf("creating stream directory: %w", err)
	}

	playlistPath := filepath.Join(streamDir, "index.m3u8")
	args := buildArgs(inputURL, headers, playlistPath)

	procCtx, procCancel := context.WithCancel(context.Background())
	cmd := exec.CommandContext(procCtx, s.ffmpegPath, args...)
	cmd.Stderr = &pipeLogger{log: s.log, streamID: streamID}

	s.log.Info("starting media pipeline", "stream_id", streamID, "input", inputURL)
	if err := cmd.Start(); err != nil {
		procCancel()
		os.RemoveAll(streamDir)
		return "", fmt.Errorf("starting media pipeline: %w", err)
	}

	proc := &pipeProcess{cmd: cmd, dir: streamDir, cancel: procCancel}
	s.mu.Lock()
	s.processes[streamID] = proc
	s.mu.Unlock()

	go s.monitor(streamID, proc)

	if err := waitForFile(ctx, playlistPath); err != nil {
		s.stop(streamID)
		return "", fmt.Errorf("pipeline produced no playlist: %w", err)
	}
	return playlistPath, nil
}

func buildArgs(inputURL string, headers map[string]string, playlistPath string) []string {
	args := []string{
		"-hide_banner",
		"-loglevel", "warning",
		"-reconnect", "1",
		"-reconnect_streamed", "1",
		"-reconnect_delay_max", "5",
	}

	if len(headers) > 0 {
		var headerParts []string
		for key, value := range headers {
			headerParts = append(headerParts, fmt.Sprintf("%s: %s", key, value))
		}
		args = append(args, "-headers", strings.Join(headerParts, "\r\n"))
	}

	return append(args,
		"-i", inputURL,
		"-c", "copy",
		"-hls_time", "10",
		"-hls_list_size", "0",
		"-f", "hls",
		playlistPath,
	)
}

// waitForFile polls until path exists or the context expires.
func waitForFile(ctx context.Context, path string) error {
	ticker := time.NewTicker(playlistWaitInterval)
	defer ticker.Stop()

	for {
		if _, err := os.Stat(path); err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (s *Streamer) monitor(streamID string, proc *pipeProcess) {
	err := proc.cmd.Wait()
	if err != nil {
		s.log.Warn("media pipeline exited with error", "stream_id", streamID, "error", err)
	} else {
		s.log.Info("media pipeline completed", "stream_id", streamID)
	}
}

func (s *Streamer) stop(streamID string) {
	s.mu.Lock()
	proc, ok := s.processes[streamID]
	delete(s.processes, streamID)
	s.mu.Unlock()

	if !ok {
		return
	}
	proc.cancel()
	os.RemoveAll(proc.dir)
}

// Close stops all running pipelines and removes their output.
func (s *Streamer) Close() error {
	s.mu.Lock()
	ids := make([]string, 0, len(s.processes))
	for id := range s.processes {
		ids = append(ids, id)
	}
	s.mu.Unlock()

	for _, id := range ids {
		s.stop(id)
	}
	return os.RemoveAll(s.outputDir)
}

// pipeLogger captures pipeline stderr output for logging.
type pipeLogger struct {
	log      *logging.Logger
	streamID string
}

func (l *pipeLogger) Write(p []byte) (int, error) {
	msg := strings.TrimSpace(string(p))
	if msg != "" {
		l.log.Debug("pipeline output", "stream_id", l.streamID, "output", msg)
	}
	return len(p), nil
}
