//go:build mage

// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package main

import (
	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Test groups test targets.
type Test mg.Namespace

// All runs every test.
func (Test) All() error {
	return sh.RunV(binGo, "test", "-v", "./...")
}

// Unit runs tests in short mode, skipping the slow bulk-generation cases.
func (Test) Unit() error {
	return sh.RunV(binGo, "test", "-short", "./...")
}

// Race runs every test with the race detector. The cache client is the
// main reason this target exists.
func (Test) Race() error {
	return sh.RunV(binGo, "test", "-race", "./...")
}

// Cover writes coverage.out and prints the per-function summary.
func (Test) Cover() error {
	if err := sh.RunV(binGo, "test", "-coverprofile=coverage.out", "./..."); err != nil {
		return err
	}
	return sh.RunV(binGo, "tool", "cover", "-func=coverage.out")
}

// Backends starts the database containers and runs the store tests
// against them.
func (Test) Backends() error {
	mg.Deps(Db.Up)
	env := map[string]string{
		envPostgresDSN: postgresDSN,
		envMySQLDSN:    mysqlDSN,
	}
	return sh.RunWithV(env, binGo, "test", "-v", "-run", "TestExternalBackends", "./internal/store/...")
}
