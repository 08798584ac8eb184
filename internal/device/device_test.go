package device

import "testing"

func TestDescribe(t *testing.T) {
	tests := []struct {
		name string
		ua   string
		want string
	}{
		{
			name: "iPhone with version",
			ua:   "Mozilla/5.0 (iPhone; CPU iPhone OS 17_4 like Mac OS X) AppleWebKit/605.1.15",
			want: "iOS 17.4",
		},
		{
			name: "iPad without version match",
			ua:   "Mozilla/5.0 (iPad; CPU OS 16_2 like Mac OS X)",
			want: "iOS",
		},
		{
			name: "Android with version",
			ua:   "Mozilla/5.0 (Linux; Android 14.0; Pixel 8) AppleWebKit/537.36",
			want: "Android 14.0",
		},
		{
			name: "Android without minor version",
			ua:   "Mozilla/5.0 (Linux; Android Tablet) AppleWebKit/537.36",
			want: "Android",
		},
		{
			name: "macOS desktop",
			ua:   "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36",
			want: "macOS",
		},
		{
			name: "Windows desktop",
			ua:   "Mozilla/5.0 (Windows NT 10.0; Win64; x64)",
			want: "Windows",
		},
		{
			name: "Linux desktop",
			ua:   "Mozilla/5.0 (X11; Linux x86_64)",
			want: "Linux",
		},
		{
			name: "empty",
			ua:   "",
			want: "Unknown",
		},
		{
			name: "unrecognized",
			ua:   "curl/8.5.0",
			want: "Unknown",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := describe(tt.ua); got != tt.want {
				t.Errorf("describe(%q) = %q, want %q", tt.ua, got, tt.want)
			}
		})
	}
}

func TestInfoKeepsRawUserAgent(t *testing.T) {
	ua := "Mozilla/5.0 (iPhone; CPU iPhone OS 17_4 like Mac OS X)"
	info := Info(ua)
	if info.Browser != ua {
		t.Errorf("raw user agent not preserved: %q", info.Browser)
	}
	if info.Device != "iOS 17.4" {
		t.Errorf("device = %q", info.Device)
	}
}
