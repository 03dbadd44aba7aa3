//go:build mage

package main

import (
	"strings"

	semver "github.com/Masterminds/semver/v3"
	"github.com/magefile/mage/sh"
	"github.com/pkg/errors"
)

const GO_VERSION_CONSTRAINT = ">= 1.22.0"

func goVersion() (string, error) {
	output, err := sh.Output("go", "version")
	if err != nil {
		return "", errors.Errorf("error running version cmd: %v", err)
	}
	fields := strings.Fields(output)
	if len(fields) < 3 {
		return "", errors.Errorf("unexpected version cmd output: %s", output)
	}
	return strings.TrimPrefix(fields[2], "go"), nil
}

// Check the version of go meets the module's minimum.
func goCheck() error {
	raw, err := goVersion()
	if err != nil {
		return err
	}
	version, err := semver.NewVersion(raw)
	if err != nil {
		return errors.Errorf("error parsing version: %v", err)
	}
	constraint, err := semver.NewConstraint(GO_VERSION_CONSTRAINT)
	if err != nil {
		return errors.Errorf("error parsing constraint: %v", err)
	}
	if !constraint.Check(version) {
		return errors.Errorf("found version %v but it failed constraint %v", version, constraint)
	}
	return nil
}
