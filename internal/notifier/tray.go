package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/mitchellh/go-ps"

	"github.com/artyomka101/appforphone/internal/constants"
)

const trayExecutable = "habitkeeper-tray"

var errTrayNotRunning = errors.New(trayExecutable + " is not running")

var (
	userConfigDirFunc = os.UserConfigDir
	findProcessFunc   = ps.FindProcess
)

// Tray delivers notifications to the companion tray app over its local webhook.
type Tray struct {
	client  *resty.Client
	lockDir func() (string, error)
}

type WebhookPayload struct {
	Title      string `json:"title"`
	Text       string `json:"text"`
	DurationMs uint32 `json:"duration_ms"`
}

func NewTray() *Tray {
	client := resty.New().
		SetTimeout(constants.NotifyTimeout).
		SetRetryCount(constants.NotifyMaxRetries).
		SetRetryWaitTime(constants.NotifyRetryDelay).
		SetHeader("Content-Type", "application/json")
	return &Tray{client: client, lockDir: trayLockDir}
}

// Notify reads the lockfile on every call so a restarted tray with a new port
// or secret is picked up.
func (t *Tray) Notify(ctx context.Context, title, message string) error {
	dir, err := t.lockDir()
	if err != nil {
		return err
	}
	lock, err := readLockfile(filepath.Join(dir, constants.NotifierLockfileName))
	if err != nil {
		return err
	}
	if err := lock.checkOwner(); err != nil {
		return err
	}
	return t.send(ctx, lock.endpoint(), lock.secret, WebhookPayload{
		Title:      title,
		Text:       message,
		DurationMs: constants.NotificationDurationMs,
	})
}

// trayLockDir is where the tray writes its lockfile: the lockfile_dir of the
// tray's settings.json when set, else its config directory.
func trayLockDir() (string, error) {
	base, err := userConfigDirFunc()
	if err != nil {
		return "", fmt.Errorf("failed to get user config dir: %w", err)
	}
	dir := filepath.Join(base, trayExecutable)

	raw, err := os.ReadFile(filepath.Join(dir, "settings.json"))
	if err != nil {
		return dir, nil
	}
	var settings struct {
		Settings struct {
			LockfileDir string `json:"lockfile_dir"`
		} `json:"settings"`
	}
	if json.Unmarshal(raw, &settings) == nil && settings.Settings.LockfileDir != "" {
		return settings.Settings.LockfileDir, nil
	}
	return dir, nil
}

// lockfile is the tray's "port|pid|secret" advertisement
type lockfile struct {
	port   int
	pid    int
	secret string
}

func readLockfile(path string) (lockfile, error) {
	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return lockfile{}, errTrayNotRunning
	}
	if err != nil {
		return lockfile{}, fmt.Errorf("failed to read tray lockfile: %w", err)
	}
	return parseLockfile(string(raw))
}

func parseLockfile(s string) (lockfile, error) {
	fields := strings.Split(strings.TrimSpace(s), "|")
	if len(fields) != 3 {
		return lockfile{}, fmt.Errorf("malformed tray lockfile: want port|pid|secret, got %d field(s)", len(fields))
	}

	var l lockfile
	var err error
	l.port, err = strconv.Atoi(strings.TrimSpace(fields[0]))
	if err != nil || l.port < 1 || l.port > 65535 {
		return lockfile{}, fmt.Errorf("tray lockfile has an invalid port %q", fields[0])
	}
	l.pid, err = strconv.Atoi(strings.TrimSpace(fields[1]))
	if err != nil || l.pid < 1 {
		return lockfile{}, fmt.Errorf("tray lockfile has an invalid pid %q", fields[1])
	}
	l.secret = strings.TrimSpace(fields[2])
	if l.secret == "" {
		return lockfile{}, errors.New("tray lockfile has an empty secret")
	}
	return l, nil
}

// checkOwner fails when the pid is gone or was reused by another program,
// which is what a lockfile left behind by a crashed tray looks like.
func (l lockfile) checkOwner() error {
	p, err := findProcessFunc(l.pid)
	if err != nil || p == nil {
		return errTrayNotRunning
	}
	if !strings.HasPrefix(p.Executable(), trayExecutable) {
		return fmt.Errorf("process %d is %s, not %s", l.pid, p.Executable(), trayExecutable)
	}
	return nil
}

func (l lockfile) endpoint() string {
	return "http://127.0.0.1:" + strconv.Itoa(l.port)
}

func (t *Tray) send(ctx context.Context, url, secret string, payload WebhookPayload) error {
	res, err := t.client.R().
		SetContext(ctx).
		SetHeader(constants.NotifierSecretHeader, secret).
		SetBody(payload).
		Post(url)
	if err != nil {
		return fmt.Errorf("notification request failed: %w", err)
	}
	if res.StatusCode() == http.StatusOK {
		return nil
	}
	return fmt.Errorf("notification failed with status %d: %s", res.StatusCode(), res.String())
}
