package ttyguard

import "testing"

func TestSuppress(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		envRobot bool
		envTest  bool
		want     bool
	}{
		{"interactive", []string{"--source", "data.json"}, false, false, false},
		{"robot flag", []string{"--robot-path", "A:B"}, false, false, true},
		{"single dash robot", []string{"-robot-metrics"}, false, false, true},
		{"export with value", []string{"-export=out.png"}, false, false, true},
		{"version", []string{"--version"}, false, false, true},
		{"robot env", nil, true, false, true},
		{"test env", nil, false, true, true},
		{"positional robot word", []string{"robot-path"}, false, false, false},
		{"export wizard is interactive", []string{"--export-wizard"}, false, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Suppress(tt.args, tt.envRobot, tt.envTest); got != tt.want {
				t.Errorf("Suppress(%v) = %v, want %v", tt.args, got, tt.want)
			}
		})
	}
}
