package config

import (
	"path/filepath"
	"testing"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	target := 0.5
	delay := true
	c := &Config{
		SaveHgInfo:  true,
		SaveGitInfo: false,
		Shot: ShotOverrides{
			TargetCycleTime:                &target,
			CycleTimeDelayAfterProgramming: &delay,
		},
	}
	path := filepath.Join(t.TempDir(), "labconfig.yml")
	if err := Save(path, c); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.SaveHgInfo != c.SaveHgInfo || got.SaveGitInfo != c.SaveGitInfo {
		t.Fatalf("round trip: got %+v want %+v", got, c)
	}
	if got.Shot.TargetCycleTime == nil || *got.Shot.TargetCycleTime != target {
		t.Fatalf("Shot.TargetCycleTime: got %v want %v", got.Shot.TargetCycleTime, target)
	}
	if got.Shot.CycleTimeDelayAfterProgramming == nil || !*got.Shot.CycleTimeDelayAfterProgramming {
		t.Fatalf("Shot.CycleTimeDelayAfterProgramming: got %v want true", got.Shot.CycleTimeDelayAfterProgramming)
	}
}

func TestDefault(t *testing.T) {
	c := Default()
	if c.SaveHgInfo || c.SaveGitInfo {
		t.Fatalf("Default: got %+v want all false/nil", c)
	}
	if c.Shot.TargetCycleTime != nil || c.Shot.CycleTimeDelayAfterProgramming != nil {
		t.Fatalf("Default.Shot: got %+v want nil overrides", c.Shot)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yml")); err == nil {
		t.Fatalf("Load(missing file): want error, got nil")
	}
}
