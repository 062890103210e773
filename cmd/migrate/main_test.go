package main

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/wolfman30/healthconnect/migrations"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		args    []string
		want    command
		wantErr bool
	}{
		{args: nil, want: command{name: "up"}},
		{args: []string{"up"}, want: command{name: "up"}},
		{args: []string{"down"}, want: command{name: "down"}},
		{args: []string{"version"}, want: command{name: "version"}},
		{args: []string{"force", "1"}, want: command{name: "force", version: 1}},
		{args: []string{"force"}, wantErr: true},
		{args: []string{"force", "-1"}, wantErr: true},
		{args: []string{"force", "one"}, wantErr: true},
		{args: []string{"down", "2"}, wantErr: true},
		{args: []string{"drop"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(strings.Join(tt.args, " "), func(t *testing.T) {
			got, err := parseCommand(tt.args)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %v", tt.args)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("expected %+v, got %+v", tt.want, got)
			}
		})
	}
}

func TestMigrationsArePaired(t *testing.T) {
	ups, err := fs.Glob(migrations.FS, "*.up.sql")
	if err != nil {
		t.Fatalf("glob: %v", err)
	}
	if len(ups) == 0 {
		t.Fatalf("expected embedded migrations")
	}
	for _, up := range ups {
		down := strings.TrimSuffix(up, ".up.sql") + ".down.sql"
		if _, err := fs.Stat(migrations.FS, down); err != nil {
			t.Fatalf("missing down migration for %s", up)
		}
	}
}
