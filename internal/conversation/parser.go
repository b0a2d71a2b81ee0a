// Package conversation turns typed user input into session intents.
package conversation

import (
	"context"
	"regexp"
	"strings"

	"github.com/hammamikhairi/cookplan/internal/domain"
	"github.com/hammamikhairi/cookplan/internal/logger"
)

// Compile-time interface check.
var _ domain.IntentParser = (*KeywordParser)(nil)

// KeywordParser matches user input to intents using keywords and simple patterns.
type KeywordParser struct {
	log      *logger.Logger
	patterns []patternRule
}

// patternRule maps a regex to an intent. When payload is non-zero the
// matching capture group becomes the intent payload.
type patternRule struct {
	regex   *regexp.Regexp
	intent  domain.IntentType
	payload int
}

// NewKeywordParser creates a keyword-based intent parser.
func NewKeywordParser(log *logger.Logger) *KeywordParser {
	p := &KeywordParser{log: log}
	p.patterns = []patternRule{
		{regexp.MustCompile(`(?i)^(next|done|n|advance|ok)$`), domain.IntentAdvance, 0},
		{regexp.MustCompile(`(?i)^(skip|s)$`), domain.IntentSkip, 0},
		{regexp.MustCompile(`(?i)^skip\s+(\S+)$`), domain.IntentSkip, 1},
		{regexp.MustCompile(`(?i)^(?:temp|temperature|t|probe)\s*[:=]?\s*(-?\d+(?:\.\d+)?)\s*(?:°?f)?$`), domain.IntentTemperature, 1},
		{regexp.MustCompile(`(?i)^(-?\d+(?:\.\d+)?)\s*°?f$`), domain.IntentTemperature, 1},
		{regexp.MustCompile(`(?i)^(repeat|again|what\??|r)$`), domain.IntentRepeat, 0},
		{regexp.MustCompile(`(?i)^(pause|brb|wait|p)$`), domain.IntentPause, 0},
		{regexp.MustCompile(`(?i)^(resume|back|continue|unpause)$`), domain.IntentResume, 0},
		{regexp.MustCompile(`(?i)^(status|where|progress|info)$`), domain.IntentStatus, 0},
		{regexp.MustCompile(`(?i)^(abandon|give up|cancel)$`), domain.IntentAbandon, 0},
		{regexp.MustCompile(`(?i)^(?:rate|rating|stars?)\s*[:=]?\s*(-?\d+)(?:\s*/\s*5)?$`), domain.IntentRate, 1},
		{regexp.MustCompile(`(?i)^notes?\s*[:=]?\s+(.+)$`), domain.IntentNote, 1},
		{regexp.MustCompile(`(?i)^(?:worked|good)\s*[:=]?\s+(.+)$`), domain.IntentWorked, 1},
		{regexp.MustCompile(`(?i)^(?:improve|better|next time)\s*[:=]?\s+(.+)$`), domain.IntentImprove, 1},
		{regexp.MustCompile(`(?i)^(save|finish|finalize|log)$`), domain.IntentSave, 0},
		{regexp.MustCompile(`(?i)^(quit|exit|q)$`), domain.IntentQuit, 0},
		{regexp.MustCompile(`(?i)^(help|h|\?)$`), domain.IntentHelp, 0},
		{regexp.MustCompile(`(?i)^(start|cook|go|begin|let'?s go)$`), domain.IntentStart, 0},
	}
	return p
}

// Parse converts user input into an intent. Unrecognized input yields
// IntentUnknown with the input as payload; Parse never fails.
func (p *KeywordParser) Parse(ctx context.Context, input string) (*domain.Intent, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return &domain.Intent{Type: domain.IntentUnknown}, nil
	}

	p.log.Debug("parsing input: %q", trimmed)

	for _, rule := range p.patterns {
		m := rule.regex.FindStringSubmatch(trimmed)
		if m == nil {
			continue
		}
		p.log.Debug("matched intent: %s", rule.intent)
		intent := &domain.Intent{Type: rule.intent}
		if rule.payload > 0 && rule.payload < len(m) {
			intent.Payload = strings.TrimSpace(m[rule.payload])
		}
		return intent, nil
	}

	p.log.Debug("no match, returning unknown intent")
	return &domain.Intent{Type: domain.IntentUnknown, Payload: trimmed}, nil
}
