package flagx

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

// serverFlags mirrors the short flags the server config parser accepts.
var serverFlags = []string{"-a", "-g", "-d", "-s", "-t", "-r", "-z", "-l"}

func TestFilterArgs_ServerFlags(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want []string
	}{
		{
			name: "addresses and dsn",
			args: []string{"-a", ":8080", "-g", ":50051", "-d", "postgres://u:p@db:5432/todokeeper"},
			want: []string{"-a", ":8080", "-g", ":50051", "-d", "postgres://u:p@db:5432/todokeeper"},
		},
		{
			name: "config file flag belongs to another parser",
			args: []string{"-c", "todokeeper.yaml", "-s", "secret", "-config=alt.json"},
			want: []string{"-s", "secret"},
		},
		{
			name: "ttl minutes in equals form",
			args: []string{"-t=90", "-r=15"},
			want: []string{"-t=90", "-r=15"},
		},
		{
			name: "time zone with slash",
			args: []string{"-z", "America/New_York", "-l", "debug"},
			want: []string{"-z", "America/New_York", "-l", "debug"},
		},
		{
			name: "test runner flags dropped",
			args: []string{"-test.v", "-test.run=TestX", "-l", "warn"},
			want: []string{"-l", "warn"},
		},
		{
			name: "missing value before next flag",
			args: []string{"-s", "-a", ":9090"},
			want: []string{"-s", "-a", ":9090"},
		},
		{
			name: "trailing flag without value",
			args: []string{"-a", ":8080", "-d"},
			want: []string{"-a", ":8080", "-d"},
		},
		{
			name: "positional arguments ignored",
			args: []string{"serve", "-g", ":6000", "extra"},
			want: []string{"-g", ":6000"},
		},
		{
			name: "secret with equals sign in value",
			args: []string{"-s=abc=def"},
			want: []string{"-s=abc=def"},
		},
		{
			name: "nothing given",
			args: []string{},
			want: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FilterArgs(tt.args, serverFlags))
		})
	}
}

func TestConfigFileFlag(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"short form", []string{"-c", "/etc/todokeeper/server.yaml"}, "/etc/todokeeper/server.yaml"},
		{"long form", []string{"-config", "/etc/todokeeper/server.json"}, "/etc/todokeeper/server.json"},
		{"mixed with server flags", []string{"-a", ":8080", "-config=/srv/todokeeper.yml", "-s", "secret"}, "/srv/todokeeper.yml"},
		{"absent", []string{"-d", "postgres://x", "-z", "UTC"}, ""},
		{"last one wins", []string{"-c", "first.json", "-config", "second.yaml"}, "second.yaml"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Args = append([]string{"todokeeper"}, tt.args...)
			assert.Equal(t, tt.want, ConfigFileFlag())
		})
	}
}
