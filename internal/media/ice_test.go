package media

import "testing"

func TestConfig_GetICEServers(t *testing.T) {
	tests := []struct {
		name      string
		cfg       Config
		wantCount int
	}{
		{
			name:      "stun only",
			cfg:       Config{STUNURLs: []string{"stun:stun.l.google.com:19302"}},
			wantCount: 1,
		},
		{
			name: "stun and turn",
			cfg: Config{
				STUNURLs:     []string{"stun:stun.l.google.com:19302"},
				TURNURLs:     []string{"turn:turn.example.com:3478"},
				TURNUsername: "user",
				TURNPassword: "pass",
			},
			wantCount: 2,
		},
		{
			name: "turn without username is skipped",
			cfg: Config{
				STUNURLs: []string{"stun:stun.l.google.com:19302"},
				TURNURLs: []string{"turn:turn.example.com:3478"},
			},
			wantCount: 1,
		},
		{
			name:      "empty config",
			cfg:       Config{},
			wantCount: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			servers := tt.cfg.GetICEServers()
			if len(servers) != tt.wantCount {
				t.Errorf("got %d servers, want %d", len(servers), tt.wantCount)
			}

			pion := tt.cfg.GetPionICEServers()
			if len(pion) != tt.wantCount {
				t.Errorf("got %d pion servers, want %d", len(pion), tt.wantCount)
			}
		})
	}
}

func TestConfig_TURNCredentialsCarried(t *testing.T) {
	cfg := Config{
		TURNURLs:     []string{"turn:turn.example.com:3478"},
		TURNUsername: "alice",
		TURNPassword: "secret",
	}

	servers := cfg.GetICEServers()
	if len(servers) != 1 {
		t.Fatalf("got %d servers, want 1", len(servers))
	}
	if servers[0].Username != "alice" || servers[0].Credential != "secret" {
		t.Errorf("credentials not carried: %+v", servers[0])
	}
}

func TestTracksOfKind(t *testing.T) {
	s := &pionStream{id: "s1", tracks: []Track{
		fakeKindTrack{kind: TrackKindAudio},
		fakeKindTrack{kind: TrackKindVideo},
		fakeKindTrack{kind: TrackKindAudio},
	}}

	if got := len(TracksOfKind(s, TrackKindAudio)); got != 2 {
		t.Errorf("audio tracks = %d, want 2", got)
	}
	if got := len(TracksOfKind(s, TrackKindVideo)); got != 1 {
		t.Errorf("video tracks = %d, want 1", got)
	}
	if TracksOfKind(nil, TrackKindAudio) != nil {
		t.Error("nil stream should yield nil")
	}
}

type fakeKindTrack struct {
	kind TrackKind
}

func (f fakeKindTrack) ID() string       { return "fake" }
func (f fakeKindTrack) Kind() TrackKind  { return f.kind }
func (f fakeKindTrack) Enabled() bool    { return true }
func (f fakeKindTrack) SetEnabled(bool)  {}
func (f fakeKindTrack) Stop()            {}
