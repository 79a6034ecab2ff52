package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// RunProfile is a YAML file of defaults for `schedsim run`.
// Flags given explicitly on the command line take precedence.
type RunProfile struct {
	Policy          *string `yaml:"policy"`
	Quiet           *bool   `yaml:"quiet"`
	Format          *string `yaml:"format"`
	Horizon         *int64  `yaml:"horizon"`
	CheckInvariants *bool   `yaml:"check_invariants"`
	DB              *string `yaml:"db"`
	Log             *string `yaml:"log"`
}

// LoadRunProfile reads a run profile with strict field checking: typos are errors.
func LoadRunProfile(path string) (*RunProfile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading run profile: %w", err)
	}
	var p RunProfile
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&p); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parsing run profile %s: %w", path, err)
	}
	return &p, nil
}

// apply copies profile values into opts for every flag the user did not set.
func (p *RunProfile) apply(cmd *cobra.Command, opts *runOptions) {
	if p.Policy != nil && !cmd.Flags().Changed("policy") {
		opts.policy = *p.Policy
	}
	if p.Quiet != nil && !cmd.Flags().Changed("quiet") {
		opts.quiet = *p.Quiet
	}
	if p.Format != nil && !cmd.Flags().Changed("format") {
		opts.format = *p.Format
	}
	if p.Horizon != nil && !cmd.Flags().Changed("horizon") {
		opts.horizon = *p.Horizon
	}
	if p.CheckInvariants != nil && !cmd.Flags().Changed("check-invariants") {
		opts.checkInvariants = *p.CheckInvariants
	}
	if p.DB != nil && !cmd.Flags().Changed("db") {
		opts.db = *p.DB
	}
	if p.Log != nil && !cmd.Flags().Changed("log") {
		opts.log = *p.Log
	}
}
