package voip

import (
	"testing"

	"github.com/yoyopod/yoyopod/pkg/yoyopod/event"
)

func TestParseIncomingCallDialects(t *testing.T) {
	tests := []struct {
		name     string
		line     string
		wantAddr string
	}{
		{
			name:     "square brackets",
			line:     "New incoming call from [sip:mom@example.com]",
			wantAddr: "mom@example.com",
		},
		{
			name:     "angle brackets",
			line:     "linphonec: sip:mom@example.com is receiving new incoming call from <sip:dad@example.org>",
			wantAddr: "dad@example.org",
		},
		{
			name:     "uppercase keywords and scheme",
			line:     "NEW INCOMING CALL FROM [SIP:MOM@EXAMPLE.COM]",
			wantAddr: "MOM@EXAMPLE.COM",
		},
		{
			name:     "contacting dialect",
			line:     "<sip:friend@example.net> is contacting you",
			wantAddr: "friend@example.net",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewParser()
			evs := p.ParseLine(tt.line)
			if len(evs) == 0 {
				t.Fatalf("ParseLine(%q) produced no events", tt.line)
			}
			ic, ok := evs[0].(event.IncomingCall)
			if !ok {
				t.Fatalf("first event = %T, want IncomingCall", evs[0])
			}
			if ic.RawAddress != tt.wantAddr {
				t.Errorf("address = %q, want %q", ic.RawAddress, tt.wantAddr)
			}
		})
	}
}

func TestParseIncomingCallWithoutAddressIsNotDropped(t *testing.T) {
	p := NewParser()
	evs := p.ParseLine("Receiving new incoming call")
	if len(evs) == 0 {
		t.Fatal("bare ring line produced no events")
	}
	ic, ok := evs[0].(event.IncomingCall)
	if !ok {
		t.Fatalf("first event = %T, want IncomingCall", evs[0])
	}
	if ic.RawAddress != "" {
		t.Errorf("address = %q, want empty", ic.RawAddress)
	}
}

func TestParseDuplicatePhaseSuppressed(t *testing.T) {
	p := NewParser()

	first := p.ParseLine("New incoming call from [sip:mom@example.com]")
	// One IncomingCall plus one phase change.
	if len(first) != 2 {
		t.Fatalf("first ring produced %d events, want 2", len(first))
	}

	// The client re-prints the ring line every second; the repeated
	// phase must be swallowed but the call itself still reported.
	second := p.ParseLine("New incoming call from [sip:mom@example.com]")
	if len(second) != 1 {
		t.Fatalf("repeated ring produced %d events, want 1", len(second))
	}
	if _, ok := second[0].(event.IncomingCall); !ok {
		t.Fatalf("repeated ring event = %T, want IncomingCall", second[0])
	}
}

func TestParseCallPhases(t *testing.T) {
	tests := []struct {
		line string
		want event.CallPhase
	}{
		{"Call 2 with <sip:mom@example.com> connected.", event.PhaseConnected},
		{"Call 2 with <sip:mom@example.com> streams running", event.PhaseStreamsRunning},
		{"Call 2 with <sip:mom@example.com> released.", event.PhaseReleased},
		{"Call 2 with <sip:mom@example.com> ended (No response).", event.PhaseReleased},
		{"Call 2 with <sip:mom@example.com> error.", event.PhaseError},
		{"Establishing call to sip:dad@example.org", event.PhaseOutgoing},
	}

	for _, tt := range tests {
		p := NewParser()
		evs := p.ParseLine(tt.line)
		if len(evs) != 1 {
			t.Fatalf("ParseLine(%q) produced %d events, want 1", tt.line, len(evs))
		}
		cs, ok := evs[0].(event.CallStateChanged)
		if !ok {
			t.Fatalf("ParseLine(%q) event = %T, want CallStateChanged", tt.line, evs[0])
		}
		if cs.Phase != tt.want {
			t.Errorf("ParseLine(%q) phase = %s, want %s", tt.line, cs.Phase, tt.want)
		}
	}
}

func TestParseRegistration(t *testing.T) {
	tests := []struct {
		line string
		want event.RegistrationState
	}{
		{"Registration on <sip:sip.linphone.org> successful.", event.RegistrationOK},
		{"Registration on <sip:sip.linphone.org> failed: Unauthorized", event.RegistrationFailed},
		{"Registration on <sip:sip.linphone.org> cleared.", event.RegistrationCleared},
	}

	for _, tt := range tests {
		p := NewParser()
		evs := p.ParseLine(tt.line)
		if len(evs) != 1 {
			t.Fatalf("ParseLine(%q) produced %d events, want 1", tt.line, len(evs))
		}
		rc, ok := evs[0].(event.RegistrationChanged)
		if !ok {
			t.Fatalf("event = %T, want RegistrationChanged", evs[0])
		}
		if rc.State != tt.want {
			t.Errorf("state = %s, want %s", rc.State, tt.want)
		}
	}
}

func TestParseUnmatchedLinesIgnored(t *testing.T) {
	p := NewParser()
	for _, line := range []string{
		"",
		"linphonec> ",
		"Media streams lost, will retry",
		"Warning: video disabled in this build",
	} {
		if evs := p.ParseLine(line); len(evs) != 0 {
			t.Errorf("ParseLine(%q) = %v, want no events", line, evs)
		}
	}
}

func TestStripAddress(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"[sip:mom@example.com]", "mom@example.com"},
		{"<sip:mom@example.com>", "mom@example.com"},
		{"sip:mom@example.com", "mom@example.com"},
		{"SIP:MOM@EXAMPLE.COM", "MOM@EXAMPLE.COM"},
		{"mom@example.com", "mom@example.com"},
		{"<sip:mom@example.com>.", "mom@example.com"},
	}
	for _, tt := range tests {
		if got := StripAddress(tt.in); got != tt.want {
			t.Errorf("StripAddress(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
