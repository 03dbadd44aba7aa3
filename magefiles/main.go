//go:build mage

package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
	"github.com/pkg/errors"
)

const buildPackage = "github.com/armadaproject/fairshare/internal/fairshare/build"

var binDir = "bin"

// Check dependent tools are present.
func CheckDeps() error {
	checks := []struct {
		name  string
		check func() error
	}{
		{"go", goCheck},
		{"golangci-lint", golangciLintCheck},
	}
	failures := false
	for _, check := range checks {
		fmt.Printf("Checking %s... ", check.name)
		if err := check.check(); err != nil {
			fmt.Printf("FAILED\nReason: %v\n", err)
			failures = true
		} else {
			fmt.Println("PASSED")
		}
	}
	if failures {
		return errors.New("check(s) failed.")
	}
	return nil
}

// Removes build outputs and test reports.
func Clean() {
	fmt.Println("Cleaning...")
	for _, path := range []string{binDir, "test_reports"} {
		os.RemoveAll(path)
	}
}

// Build the fairshare binary into bin/, stamping it with version information.
func Build() error {
	mg.Deps(goCheck)
	timeTaken := time.Now()
	if err := os.MkdirAll(binDir, os.ModePerm); err != nil {
		return err
	}
	flags, err := ldflags()
	if err != nil {
		return err
	}
	output := binaryWithExt(binDir + "/fairshare")
	if err := sh.RunV("go", "build", "-ldflags", flags, "-o", output, "./cmd/fairshare"); err != nil {
		return err
	}
	fmt.Println("Time to build:", time.Since(timeTaken))
	return nil
}

// Example solves every problem under the runner testdata with the freshly built binary.
func Example() error {
	mg.Deps(Build)
	return sh.RunV(binaryWithExt(binDir+"/fairshare"), "solve", "--problems", "./internal/allocation/runner/testdata/problems/*.yaml")
}

func ldflags() (string, error) {
	version := os.Getenv("FAIRSHARE_VERSION")
	if version == "" {
		version = "dev"
	}
	commit, err := sh.Output("git", "rev-parse", "--short", "HEAD")
	if err != nil {
		commit = "unknown"
	}
	goVersion, err := goVersion()
	if err != nil {
		return "", err
	}
	vars := map[string]string{
		"ReleaseVersion": version,
		"GitCommit":      commit,
		"GoVersion":      goVersion,
		"BuildTime":      time.Now().UTC().Format(time.RFC3339),
	}
	flags := make([]string, 0, len(vars))
	for name, value := range vars {
		flags = append(flags, fmt.Sprintf("-X %s.%s=%s", buildPackage, name, value))
	}
	return strings.Join(flags, " "), nil
}
