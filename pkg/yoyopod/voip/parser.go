// Package voip drives the linphonec call-control subprocess: it writes
// text commands to the process's stdin and classifies its stdout lines
// into typed call events. The line formats drift between linphone
// versions, so all recognized shapes live in one versioned pattern table
// and matching is deliberately tolerant.
package voip

import (
	"regexp"
	"strings"

	"github.com/yoyopod/yoyopod/pkg/yoyopod/event"
)

// lineKind is the classification a pattern assigns to a matched line.
type lineKind int

const (
	kindRegistrationOK lineKind = iota
	kindRegistrationFailed
	kindRegistrationCleared
	kindRegistrationProgress
	kindIncomingCall
	kindPhaseOutgoing
	kindPhaseConnected
	kindPhaseStreamsRunning
	kindPhaseReleased
	kindPhaseError
)

// pattern is one recognized output line shape. Order matters: the first
// match wins, so more specific shapes come first.
type pattern struct {
	name string
	kind lineKind
	re   *regexp.Regexp
}

// patternTable v2. v1 matched only the classic linphonec 3.x wording;
// v2 adds the `<sip:..>` dialect and the bare ring line newer builds
// print without an address.
var patternTable = []pattern{
	{name: "registration-ok", kind: kindRegistrationOK,
		re: regexp.MustCompile(`(?i)registration on .* successful`)},
	{name: "registration-failed", kind: kindRegistrationFailed,
		re: regexp.MustCompile(`(?i)registration on .* failed`)},
	{name: "registration-cleared", kind: kindRegistrationCleared,
		re: regexp.MustCompile(`(?i)registration on .* cleared`)},
	{name: "registration-progress", kind: kindRegistrationProgress,
		re: regexp.MustCompile(`(?i)refreshing .* registration|registration in progress`)},

	{name: "incoming-from", kind: kindIncomingCall,
		re: regexp.MustCompile(`(?i)(?:new )?incoming call from\s+(\S+)`)},
	{name: "incoming-contacting", kind: kindIncomingCall,
		re: regexp.MustCompile(`(?i)(\S+)\s+is contacting you`)},
	{name: "incoming-bare", kind: kindIncomingCall,
		re: regexp.MustCompile(`(?i)receiving new incoming call`)},

	{name: "call-streams-running", kind: kindPhaseStreamsRunning,
		re: regexp.MustCompile(`(?i)call .*streams running|media streams established`)},
	{name: "call-connected", kind: kindPhaseConnected,
		re: regexp.MustCompile(`(?i)call .*\bconnected\b|call answered`)},
	{name: "call-outgoing", kind: kindPhaseOutgoing,
		re: regexp.MustCompile(`(?i)call .*\b(?:outgoing|dialing|ringing remotely)\b|establishing call to`)},
	{name: "call-released", kind: kindPhaseReleased,
		re: regexp.MustCompile(`(?i)call .*\b(?:released|ended|terminated)\b`)},
	{name: "call-error", kind: kindPhaseError,
		re: regexp.MustCompile(`(?i)call .*\b(?:error|failure|failed|declined)\b`)},
}

// Parser turns output lines into call events. It keeps the last emitted
// phase so a client re-printing the same status every second does not
// flood the coordinator with duplicates. Not safe for concurrent use;
// the manager calls it from its single reader goroutine.
type Parser struct {
	lastPhase event.CallPhase
	hasPhase  bool
}

func NewParser() *Parser {
	return &Parser{}
}

// ParseLine classifies one output line. Unmatched lines return nil:
// linphonec prints plenty of chatter that is nobody's business.
func (p *Parser) ParseLine(line string) []event.CallEvent {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}

	for _, pat := range patternTable {
		m := pat.re.FindStringSubmatch(line)
		if m == nil {
			continue
		}

		switch pat.kind {
		case kindRegistrationOK:
			return []event.CallEvent{event.NewRegistrationChanged(event.RegistrationOK)}
		case kindRegistrationFailed:
			return []event.CallEvent{event.NewRegistrationChanged(event.RegistrationFailed)}
		case kindRegistrationCleared:
			return []event.CallEvent{event.NewRegistrationChanged(event.RegistrationCleared)}
		case kindRegistrationProgress:
			return []event.CallEvent{event.NewRegistrationChanged(event.RegistrationProgress)}

		case kindIncomingCall:
			addr := ""
			if len(m) > 1 {
				addr = StripAddress(m[1])
			}
			// A detected call is never dropped, even without an address.
			evs := []event.CallEvent{event.NewIncomingCall(addr, "")}
			if ev, changed := p.phase(event.PhaseIncoming); changed {
				evs = append(evs, ev)
			}
			return evs

		case kindPhaseOutgoing:
			return p.phaseEvents(event.PhaseOutgoing)
		case kindPhaseConnected:
			return p.phaseEvents(event.PhaseConnected)
		case kindPhaseStreamsRunning:
			return p.phaseEvents(event.PhaseStreamsRunning)
		case kindPhaseReleased:
			return p.phaseEvents(event.PhaseReleased)
		case kindPhaseError:
			return p.phaseEvents(event.PhaseError)
		}
	}

	return nil
}

func (p *Parser) phase(ph event.CallPhase) (event.CallEvent, bool) {
	if p.hasPhase && p.lastPhase == ph {
		return nil, false
	}
	p.lastPhase = ph
	p.hasPhase = true
	return event.NewCallStateChanged(ph), true
}

func (p *Parser) phaseEvents(ph event.CallPhase) []event.CallEvent {
	ev, changed := p.phase(ph)
	if !changed {
		return nil
	}
	return []event.CallEvent{ev}
}

// StripAddress removes enclosing bracket or angle delimiters and a
// leading sip: scheme from an extracted address token. Case is
// preserved; directory lookups case-fold separately.
func StripAddress(raw string) string {
	addr := strings.TrimSpace(raw)
	addr = strings.Trim(addr, "[]<>\"',.;:!")
	if len(addr) >= 4 && strings.EqualFold(addr[:4], "sip:") {
		addr = addr[4:]
	}
	return addr
}
