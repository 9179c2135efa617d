package update

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serve(t *testing.T, h http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return srv
}

func checker(url, target string) *Checker {
	return &Checker{URL: url + "/led_fw", Version: "pixelnode::test", Target: target, Log: zerolog.Nop()}
}

func TestNoUpdates(t *testing.T) {
	var gotVersion, gotPath string
	srv := serve(t, func(w http.ResponseWriter, r *http.Request) {
		gotVersion = r.Header.Get(VersionHeader)
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusNotModified)
	})
	res, err := checker(srv.URL, filepath.Join(t.TempDir(), "pixelnode")).Check(context.Background())
	require.NoError(t, err)
	assert.Equal(t, NoUpdates, res)
	assert.Equal(t, "pixelnode::test", gotVersion)
	assert.Equal(t, "/led_fw", gotPath)
}

func TestUpdateInstallsImage(t *testing.T) {
	image := []byte("#!/bin/sh\necho new\n")
	sum := md5.Sum(image)
	srv := serve(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(MD5Header, hex.EncodeToString(sum[:]))
		_, _ = w.Write(image)
	})
	dir := t.TempDir()
	target := filepath.Join(dir, "pixelnode")
	require.NoError(t, os.WriteFile(target, []byte("old"), 0755))

	res, err := checker(srv.URL, target).Check(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Updated, res)

	got, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, image, got)
	fi, err := os.Stat(target)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0755), fi.Mode().Perm())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")
}

func TestChecksumMismatchKeepsOldImage(t *testing.T) {
	srv := serve(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(MD5Header, "00000000000000000000000000000000")
		_, _ = w.Write([]byte("corrupt"))
	})
	target := filepath.Join(t.TempDir(), "pixelnode")
	require.NoError(t, os.WriteFile(target, []byte("old"), 0755))

	res, err := checker(srv.URL, target).Check(context.Background())
	assert.Error(t, err)
	assert.Equal(t, Failed, res)
	got, _ := os.ReadFile(target)
	assert.Equal(t, "old", string(got))
}

func TestServerErrorFails(t *testing.T) {
	srv := serve(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})
	res, err := checker(srv.URL, filepath.Join(t.TempDir(), "pixelnode")).Check(context.Background())
	assert.Error(t, err)
	assert.Equal(t, Failed, res)
}

func TestEmptyImageFails(t *testing.T) {
	srv := serve(t, func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	res, err := checker(srv.URL, filepath.Join(t.TempDir(), "pixelnode")).Check(context.Background())
	assert.Error(t, err)
	assert.Equal(t, Failed, res)
}

func TestUnreachableServerFails(t *testing.T) {
	srv := serve(t, func(w http.ResponseWriter, r *http.Request) {})
	url := srv.URL
	srv.Close()
	res, err := checker(url, filepath.Join(t.TempDir(), "pixelnode")).Check(context.Background())
	assert.Error(t, err)
	assert.Equal(t, Failed, res)
}

func TestResultString(t *testing.T) {
	assert.Equal(t, "updated", Updated.String())
	assert.Equal(t, "no_updates", NoUpdates.String())
	assert.Equal(t, "failed", Failed.String())
}
