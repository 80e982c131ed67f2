//go:build mage

package main

import (
	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Sample groups targets that generate and store reference datasets.
type Sample mg.Namespace

// Regression stores a homoskedastic and a heteroskedastic regression dataset.
func (Sample) Regression() error {
	mg.Deps(Build, Init)
	if err := sh.RunV(binPath, "regression", "--save", "--seed", "1", "--a", "0"); err != nil {
		return err
	}
	return sh.RunV(binPath, "regression", "--save", "--seed", "2", "--a", "0.5")
}

// Classification stores a classification dataset with the default shape.
func (Sample) Classification() error {
	mg.Deps(Build, Init)
	return sh.RunV(binPath, "classification", "--save", "--seed", "1")
}
