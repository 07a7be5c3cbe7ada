package publisher

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jraargz/ofertasworker/internal/offer"
)

func TestExecPublisher(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts are not portable to windows")
	}

	dir := t.TempDir()
	marker := filepath.Join(dir, "ran")
	script := filepath.Join(dir, "generator.sh")
	require.NoError(t, os.WriteFile(script, []byte("#!/bin/sh\ntouch "+marker+"\n"), 0755))

	p := NewExecPublisher(script)
	err := p.Publish(context.Background(), "tecnologia", offer.Offer{Title: "prueba"})
	assert.NoError(t, err)

	// The generator actually ran
	_, statErr := os.Stat(marker)
	assert.NoError(t, statErr)

	assert.NoError(t, p.Close())
}

func TestExecPublisherCommandWithArguments(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts are not portable to windows")
	}

	dir := t.TempDir()
	marker := filepath.Join(dir, "args")
	script := filepath.Join(dir, "generator.sh")
	require.NoError(t, os.WriteFile(script, []byte("#!/bin/sh\necho \"$1\" > \"$2\"\n"), 0755))

	// Interpreter-style invocation: executable plus arguments in one string
	p := NewExecPublisher(script + " hola " + marker)
	err := p.Publish(context.Background(), "tecnologia", offer.Offer{Title: "prueba"})
	assert.NoError(t, err)

	data, readErr := os.ReadFile(marker)
	require.NoError(t, readErr)
	assert.Equal(t, "hola\n", string(data))
}

func TestExecPublisherEmptyCommand(t *testing.T) {
	p := NewExecPublisher("   ")
	err := p.Publish(context.Background(), "tecnologia", offer.Offer{Title: "prueba"})
	assert.Error(t, err)
}

func TestExecPublisherFailure(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts are not portable to windows")
	}

	dir := t.TempDir()
	script := filepath.Join(dir, "generator.sh")
	require.NoError(t, os.WriteFile(script, []byte("#!/bin/sh\necho 'sin credenciales' >&2\nexit 3\n"), 0755))

	p := NewExecPublisher(script)
	err := p.Publish(context.Background(), "tecnologia", offer.Offer{Title: "prueba"})
	assert.Error(t, err)
}

func TestExecPublisherMissingCommand(t *testing.T) {
	p := NewExecPublisher("/no/existe/generador")
	err := p.Publish(context.Background(), "tecnologia", offer.Offer{Title: "prueba"})
	assert.Error(t, err)
}
