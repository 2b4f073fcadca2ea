package main

import "testing"

func TestVersionString(t *testing.T) {
	prevVersion := buildVersion
	prevCommit := buildCommit
	t.Cleanup(func() {
		buildVersion = prevVersion
		buildCommit = prevCommit
	})

	buildVersion = "1.2.3"
	buildCommit = "commit456"

	got := versionString()
	want := "myt 1.2.3\ncommit commit456"
	if got != want {
		t.Fatalf("expected version string %q, got %q", want, got)
	}
}

func TestRootCommandHasVersion(t *testing.T) {
	if rootCmd.Version == "" {
		t.Fatal("expected root command version to be set")
	}
}
