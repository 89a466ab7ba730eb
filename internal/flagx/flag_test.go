package flagx

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilterArgs(t *testing.T) {
	allowed := []string{"-c", "--config"}

	tests := []struct {
		name string
		args []string
		want []string
	}{
		{"short flag with separate value", []string{"-c", "conf.json", "--dsn", "x"}, []string{"-c", "conf.json"}},
		{"long flag with equals", []string{"--config=alt.json", "sync"}, []string{"--config=alt.json"}},
		{"order preserved", []string{"--config=a.json", "-c", "b.json"}, []string{"--config=a.json", "-c", "b.json"}},
		{"unknown flags ignored", []string{"browse", "--pages", "3"}, []string{}},
		{"dangling flag kept", []string{"-c"}, []string{"-c"}},
		{"next flag is not a value", []string{"-c", "--workers", "2"}, []string{"-c"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FilterArgs(tt.args, allowed))
		})
	}
}

func TestConfigPath(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"none", []string{"sync", "--workers", "2"}, ""},
		{"short", []string{"-c", "cfg.json", "sync"}, "cfg.json"},
		{"single dash long", []string{"sync", "-config", "cfg.json"}, "cfg.json"},
		{"double dash long equals", []string{"--config=/etc/kidsync.json", "browse"}, "/etc/kidsync.json"},
		{"double dash long separate", []string{"--config", "x.json"}, "x.json"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ConfigPath(tt.args))
		})
	}
}
