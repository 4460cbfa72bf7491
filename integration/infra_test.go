//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"sync/atomic"
	"syscall"
	"testing"
	"time"

	"github.com/openkcm/common-sdk/pkg/commoncfg"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/openkcm/storefront-session/internal/config"
)

type infraStat struct {
	ConfigFilePath string
	Procdir        string
	Socket         string
	Cfg            config.Config

	Logins atomic.Int32

	commerce *httptest.Server
}

func initInfra(t *testing.T, exeName string) (istat *infraStat) {
	t.Helper()

	istat = &infraStat{}

	// Since the config is read from the file $PWD/config.yaml,
	// we're running a process in a subdirectory so that we aren't interferring with the other tests.
	wd, err := os.Getwd()
	require.NoError(t, err, "failed to get wd")
	istat.Procdir = filepath.Join(wd, exeName+"-test")
	istat.ConfigFilePath = filepath.Join(istat.Procdir, "config.yaml")

	// Prepare a directory for the test
	err = os.MkdirAll(istat.Procdir, fs.ModePerm)
	require.NoError(t, err, "failed to create a dir for the process")

	err = os.WriteFile(istat.ConfigFilePath, []byte(validConfig), fs.ModePerm)
	require.NoError(t, err, "failed to write config file")

	err = commoncfg.LoadConfig(&istat.Cfg, nil, istat.Procdir)
	require.NoError(t, err, "failed to load config")

	istat.Socket = filepath.Join(istat.Procdir, exeName+".sock")
	istat.Cfg.HTTP.Address = "unix://" + istat.Socket

	return istat
}

// PrepareCommerce starts a fake identity provider and resource API and points
// the config at it.
func (istat *infraStat) PrepareCommerce(t *testing.T) {
	t.Helper()

	org := "/organizations/" + istat.Cfg.Commerce.OrganizationID

	mux := http.NewServeMux()
	mux.HandleFunc("GET /shopper/auth/v1"+org+"/oauth2/authorize", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, r.URL.Query().Get("redirect_uri")+"?code=auth-code&usid=usid-1", http.StatusSeeOther)
	})
	mux.HandleFunc("POST /shopper/auth/v1"+org+"/oauth2/token", func(w http.ResponseWriter, _ *http.Request) {
		istat.Logins.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token":             "access-token",
			"refresh_token":            "refresh-token",
			"expires_in":               1800,
			"refresh_token_expires_in": 86400,
			"token_type":               "BEARER",
			"usid":                     "usid-1",
		})
	})
	mux.HandleFunc("GET /product/shopper-products/v1"+org+"/products/{id}", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer access-token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"id": r.PathValue("id"), "name": "Product"})
	})

	istat.commerce = httptest.NewServer(mux)

	istat.Cfg.Commerce.APIURL = ""
	istat.Cfg.Commerce.ShortCode = ""
	istat.Cfg.Commerce.BaseURI = istat.commerce.URL
}

// PrepareConfig writes a config file for running the test into the ConfigFilePath.
func (istat *infraStat) PrepareConfig(t *testing.T) {
	t.Helper()

	configFile, err := os.Create(istat.ConfigFilePath)
	require.NoError(t, err, "failed to create config file")

	err = yaml.NewEncoder(configFile).Encode(istat.Cfg)
	require.NoError(t, err, "failed to write config")
	configFile.Close()
}

// Start runs the binary in the background from the process directory.
// The process is stopped gracefully when the test ends.
func (istat *infraStat) Start(t *testing.T, cmdName string) {
	t.Helper()

	currdir, err := os.Getwd()
	require.NoError(t, err, "failed to get wd")

	t.Chdir(istat.Procdir)

	commandCtx, cancelCommand := context.WithTimeout(t.Context(), 30*time.Second)
	t.Cleanup(cancelCommand)

	cmd := exec.CommandContext(commandCtx, filepath.Join(currdir, binary), cmdName)

	cmdOutPath := filepath.Join(currdir, cmdName+".log")
	cmdOut, err := os.Create(cmdOutPath)
	require.NoError(t, err, "failed to create a log file")
	t.Cleanup(func() { cmdOut.Close() })

	cmd.Stdout = cmdOut
	cmd.Stderr = cmdOut
	t.Logf("starting an app process. Logs will be saved into %s", cmdOutPath)

	require.NoError(t, cmd.Start(), "could not start command")

	// stop gracefully so that coverprofiles are written
	t.Cleanup(func() {
		_ = syscall.Kill(cmd.Process.Pid, syscall.SIGTERM)
		err := cmd.Wait()
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			if ws, ok := exitErr.Sys().(syscall.WaitStatus); ok && !ws.Signaled() && ws.ExitStatus() != 0 {
				t.Errorf("process exited abnormally: %s", err)
			}
		}
	})
}

// Client returns an http client dialing the API socket.
func (istat *infraStat) Client() *http.Client {
	return &http.Client{
		Transport: &http.Transport{
			DialContext: func(ctx context.Context, _, _ string) (net.Conn, error) {
				return new(net.Dialer).DialContext(ctx, "unix", istat.Socket)
			},
		},
		Timeout: 5 * time.Second,
	}
}

func (istat *infraStat) Close() {
	if istat.commerce != nil {
		istat.commerce.Close()
	}

	os.Remove(istat.ConfigFilePath)
	os.RemoveAll(istat.Procdir)
}
