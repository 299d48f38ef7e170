// Package secrets provides secret detection and redaction using gitleaks.
//
// Manuscript text arrives from authors' working trees and routinely carries
// pasted API keys, tokens and connection strings. Everything destined for an
// upstream model provider passes through a Scrubber first; redaction markers
// keep the surrounding prose intact so prompts still read naturally.
package secrets
