package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rogpeppe/go-internal/testscript"
	"go.trai.ch/mkd/internal/core/domain"
)

func TestMain(m *testing.M) {
	testscript.Main(m, map[string]func(){
		"mkd": main,
	})
}

func TestScripts(t *testing.T) {
	testscript.Run(t, testscript.Params{
		Dir:   filepath.Join("testdata", "script"),
		Setup: setupScript,
	})
}

func setupScript(env *testscript.Env) error {
	env.Setenv("NO_COLOR", "1")
	env.Setenv("CI", "true")

	homeDir := filepath.Join(env.WorkDir, ".home")
	if err := os.MkdirAll(homeDir, domain.DirPerm); err != nil {
		return err
	}
	env.Setenv("HOME", homeDir)

	return nil
}
