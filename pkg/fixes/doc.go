// Package fixes generates remediation suggestions for accessibility
// scan findings. The primary generator calls an OpenAI-compatible
// chat-completions endpoint; when the provider is unconfigured or
// unreachable, a deterministic rule table answers instead so the paid
// operation still returns something useful.
package fixes
