// ABOUTME: Tests for the subcommand dispatch and exit codes.
package main

import "testing"

func TestRunDispatch(t *testing.T) {
	cases := []struct {
		name string
		args []string
		want int
	}{
		{"no args shows help", nil, 0},
		{"help subcommand", []string{"help"}, 0},
		{"help flag", []string{"--help"}, 0},
		{"version subcommand", []string{"version"}, 0},
		{"version flag", []string{"-version"}, 0},
		{"unknown command", []string{"frobnicate"}, 2},
		{"validate without file", []string{"validate"}, 2},
		{"run without file", []string{"run"}, 2},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := run(c.args); got != c.want {
				t.Errorf("run(%v) = %d, want %d", c.args, got, c.want)
			}
		})
	}
}
