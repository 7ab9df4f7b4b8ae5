package intake

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/homecare-labs/intake-api/internal/domain"
	"github.com/homecare-labs/intake-api/internal/observability"
)

// finishDirective asks the model for the structured profile once free-form
// chat is over. The schema itself was established by the system prompt.
const finishDirective = "Based on our conversation, please generate a comprehensive care recipient " +
	"profile in the JSON format specified earlier. Include all information we've discussed. " +
	"Respond ONLY with the JSON object, nothing else."

// retryDirective is the single, more prescriptive repair attempt used when
// the first response could not be parsed.
const retryDirective = "Please format your response as a valid JSON object using the exact schema " +
	"I specified earlier. Only include the JSON object in your response, with no additional text, " +
	"explanations or markdown formatting."

// softFailureMessage downgrades a double parse failure to human follow-up;
// the raw transcript remains the durable fallback.
const softFailureMessage = "I've gathered all your information, but I'm having trouble formatting " +
	"your profile. A team member will review your information and help complete your profile setup. " +
	"Thank you for your patience!"

const errTagJSONParse = "JSON_PARSE_ERROR"

// fencedBlock matches a fenced code block, tagged `json` or untagged, and
// captures its contents.
var fencedBlock = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)\\s*```")

// extractor turns a finish signal into a validated structured profile,
// tolerating model non-compliance with the requested output format.
type extractor struct {
	gateway domain.ChatModel
}

func newExtractor(gateway domain.ChatModel) *extractor {
	return &extractor{gateway: gateway}
}

// profileOutcome is the tagged result of an extraction: either a parsed
// profile, or a soft failure carrying the human-readable message and an
// error tag. Transport problems are returned as real errors instead.
type profileOutcome struct {
	parsed  bool
	profile domain.Profile

	message string
	errTag  string
}

// Generate issues the finish directive against the full turn history, parses
// the reply, and on parse failure repairs exactly once before giving up.
func (e *extractor) Generate(ctx context.Context, sess *Session, now time.Time) (profileOutcome, error) {
	log := observability.LoggerFromContext(ctx).With("session_id", sess.ID)

	history := sess.Turns()
	language := sess.Language()

	reply, err := e.gateway.Send(ctx, domain.ChatRequest{
		History:     history,
		Text:        finishDirective,
		Language:    language,
		UserContext: &sess.User,
	})
	if err != nil {
		return profileOutcome{}, fmt.Errorf("profile directive: %w", err)
	}

	if profile, ok := parseProfile(reply); ok {
		profile.AttachMetadata(now, language)
		return profileOutcome{parsed: true, profile: profile}, nil
	}

	log.Warn("profile response unparsable, retrying once", "response_len", len(reply))

	// The gateway is stateless, so the repair call carries the failed
	// exchange in its context.
	retryHistory := append(history,
		domain.Turn{Role: domain.RoleUser, Content: finishDirective},
		domain.Turn{Role: domain.RoleAssistant, Content: reply},
	)

	retryReply, err := e.gateway.Send(ctx, domain.ChatRequest{
		History:     retryHistory,
		Text:        retryDirective,
		Language:    language,
		UserContext: &sess.User,
	})
	if err != nil {
		return profileOutcome{}, fmt.Errorf("profile repair directive: %w", err)
	}

	if profile, ok := parseProfile(retryReply); ok {
		profile.AttachMetadata(now, language)
		return profileOutcome{parsed: true, profile: profile}, nil
	}

	return profileOutcome{
		message: softFailureMessage,
		errTag:  errTagJSONParse,
	}, nil
}

// parseProfile extracts the JSON payload from free-form model output: the
// contents of a fenced block when one is present, the whole text otherwise.
// An empty response or malformed JSON reports not-ok; it never panics or
// errors.
func parseProfile(text string) (domain.Profile, bool) {
	candidate := strings.TrimSpace(text)
	if m := fencedBlock.FindStringSubmatch(text); m != nil {
		candidate = strings.TrimSpace(m[1])
	}
	if candidate == "" {
		return nil, false
	}

	var profile domain.Profile
	if err := json.Unmarshal([]byte(candidate), &profile); err != nil {
		return nil, false
	}
	// A literal `null` unmarshals without error but leaves the map nil.
	if profile == nil {
		return nil, false
	}
	return profile, true
}
